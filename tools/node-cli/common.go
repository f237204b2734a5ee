// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"strconv"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/storage"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// genesisFile is the name of the genesis configuration within a store directory.
const genesisFile = "genesis.json"

var (
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "the minimum level of log messages (debug, info, warn, error)",
		Value: "info",
	}
	dbDirectoryFlag = cli.StringFlag{
		Name:     "dir",
		Usage:    "the targeted store directory",
		Required: true,
	}
	backendFlag = cli.StringFlag{
		Name:  "backend",
		Usage: "the key-value store of the directory (memory, leveldb, pebble)",
		Value: string(storage.DefaultParameters.Backend),
	}
	hashSchemeFlag = cli.StringFlag{
		Name:  "hash",
		Usage: "the tree hashing scheme (blake3, keccak256)",
		Value: storage.DefaultParameters.HashScheme,
	}
	heightFlag = cli.StringFlag{
		Name:  "height",
		Usage: "the height of the state to inspect, the highest if omitted",
	}
	substateFlag = cli.StringFlag{
		Name:  "substate",
		Usage: "the tree to inspect (storage, transactions)",
		Value: chain.Storage.String(),
	}
	keyFlag = cli.StringFlag{
		Name:     "key",
		Usage:    "the 32-byte hex key to look up",
		Required: true,
	}
)

func newLogger(ctx *cli.Context) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(ctx.String(logLevelFlag.Name))
	if err != nil {
		return nil, err
	}
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

func parameters(ctx *cli.Context, dir string) storage.Parameters {
	params := storage.DefaultParameters
	params.Directory = dir
	params.Backend = storage.Backend(ctx.String(backendFlag.Name))
	params.HashScheme = ctx.String(hashSchemeFlag.Name)
	return params
}

// openStore opens and starts the store in the given directory using the
// genesis configuration recorded there by the init command.
func openStore(ctx *cli.Context, dir string, log *zap.Logger) (*storage.Service, error) {
	genesis, err := chain.LoadGenesis(filepath.Join(dir, genesisFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s is not initialized, run the init command first", dir)
		}
		return nil, err
	}
	params := parameters(ctx, dir)
	log.Debug("opening store", zap.Stringer("parameters", params))
	service, err := storage.Open(params, genesis, log, nil)
	if err != nil {
		return nil, err
	}
	if err := service.Start(); err != nil {
		return nil, err
	}
	return service, nil
}

// closeStore stops the service and reports a failure unless an earlier error
// is already being returned.
func closeStore(service *storage.Service, log *zap.Logger, err *error) {
	if closeError := service.Stop(); closeError != nil {
		if *err == nil {
			*err = closeError
		} else {
			log.Error("failure closing store", zap.Error(closeError))
		}
	}
}

// selectState returns the state at the height given by the height flag.
func selectState(ctx *cli.Context, service *storage.Service) (*chain.SealedState, error) {
	if !ctx.IsSet(heightFlag.Name) {
		return service.HighestState(), nil
	}
	height, err := strconv.ParseUint(ctx.String(heightFlag.Name), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid height: %w", err)
	}
	state, found, err := service.StateAt(chain.Height(height))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no state at height %d, highest is %d", height, service.HighestHeight())
	}
	return state, nil
}

func parseSubstate(name string) (chain.Substate, error) {
	for _, substate := range []chain.Substate{chain.Transactions, chain.Storage} {
		if substate.String() == name {
			return substate, nil
		}
	}
	return 0, fmt.Errorf("unknown substate %q", name)
}

func parseKey(ctx *cli.Context) (common.Hash, error) {
	key, err := common.ParseHash(ctx.String(keyFlag.Name))
	if err != nil {
		return key, fmt.Errorf("invalid key: %w", err)
	}
	return key, nil
}

func StartCPUProfile(profileName string) error {
	f, err := os.Create(profileName)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %s", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		return fmt.Errorf("could not start CPU profile: %s", err)
	}
	return nil
}

func StopCPUProfile() {
	pprof.StopCPUProfile()
}
