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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/urfave/cli/v2"
)

var (
	netIDFlag = cli.StringFlag{
		Name:  "net",
		Usage: "the network of the chain (testnet, custom, mainnet)",
		Value: chain.Testnet.String(),
	}
	feePoolFlag = cli.Uint64Flag{
		Name:  "fee-pool",
		Usage: "the initial content of the fee pool",
	}
	feeMultiplierFlag = cli.Uint64Flag{
		Name:  "fee-multiplier",
		Usage: "the initial fee multiplier",
		Value: chain.DefaultFeeMultiplier,
	}
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "a genesis file to use instead of the flags above",
	}
	entryFlag = cli.StringSliceFlag{
		Name:  "entry",
		Usage: "a storage entry as <hex key>=<value>; may be repeated",
	}
)

var initCommand = cli.Command{
	Action: initStore,
	Name:   "init",
	Usage:  "creates a store directory holding the genesis state of a chain",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&backendFlag,
		&hashSchemeFlag,
		&netIDFlag,
		&feePoolFlag,
		&feeMultiplierFlag,
		&entryFlag,
		&genesisFlag,
	},
}

func initStore(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	dir := ctx.String(dbDirectoryFlag.Name)
	path := filepath.Join(dir, genesisFile)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s is already initialized", dir)
	}

	genesis, err := genesisConfig(ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	if err := chain.SaveGenesis(path, genesis); err != nil {
		return err
	}

	service, err := openStore(ctx, dir, log)
	if err != nil {
		return err
	}
	defer closeStore(service, log, &err)

	fmt.Printf("Genesis ID: %v\n", service.GenesisID())
	fmt.Printf("State root: %v\n", service.HighestState().Root())
	return nil
}

func genesisConfig(ctx *cli.Context) (chain.GenesisConfig, error) {
	if ctx.IsSet(genesisFlag.Name) {
		return chain.LoadGenesis(ctx.String(genesisFlag.Name))
	}
	netID, err := chain.ParseNetID(ctx.String(netIDFlag.Name))
	if err != nil {
		return chain.GenesisConfig{}, err
	}
	entries, err := parseEntries(ctx.StringSlice(entryFlag.Name))
	if err != nil {
		return chain.GenesisConfig{}, err
	}
	return chain.GenesisConfig{
		NetID:                netID,
		InitialStorage:       entries,
		InitialFeePool:       ctx.Uint64(feePoolFlag.Name),
		InitialFeeMultiplier: ctx.Uint64(feeMultiplierFlag.Name),
	}, nil
}

// parseEntries parses storage entries of the form <hex key>=<value>. An
// empty value denotes a deletion.
func parseEntries(args []string) ([]chain.KeyValue, error) {
	res := make([]chain.KeyValue, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found {
			return nil, fmt.Errorf("invalid entry %q, expected <key>=<value>", arg)
		}
		hash, err := common.ParseHash(key)
		if err != nil {
			return nil, fmt.Errorf("invalid key in entry %q: %w", arg, err)
		}
		res = append(res, chain.KeyValue{Key: hash, Value: []byte(value)})
	}
	return res, nil
}
