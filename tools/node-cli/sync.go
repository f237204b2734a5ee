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
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerlab/ledgerstore/blksync"
	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common/interrupt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	cpuProfilingFlag = cli.StringFlag{
		Name:  "cpu-profile",
		Usage: "enable the recording of a CPU profile",
	}
	dbSourceDirFlag = cli.StringFlag{
		Name:     "src-dir",
		Usage:    "the source of the synchronization",
		Required: true,
	}
	dbTargetDirFlag = cli.StringFlag{
		Name:     "trg-dir",
		Usage:    "the target of the synchronization",
		Required: true,
	}
	latencyFlag = cli.DurationFlag{
		Name:  "latency",
		Usage: "the simulated delay of every request",
	}
	timeoutFlag = cli.DurationFlag{
		Name:  "timeout",
		Usage: "the timeout of every request",
		Value: blksync.DefaultRequestTimeout,
	}
	skipVerificationFlag = cli.BoolFlag{
		Name:  "skip-verification",
		Usage: "do not authenticate fetched transactions",
	}
)

var syncCommand = cli.Command{
	Action: sync,
	Name:   "sync",
	Usage:  "syncs the chain of one store directory to the height of another",
	Flags: []cli.Flag{
		&dbSourceDirFlag,
		&dbTargetDirFlag,
		&backendFlag,
		&hashSchemeFlag,
		&heightFlag,
		&latencyFlag,
		&timeoutFlag,
		&skipVerificationFlag,
		&cpuProfilingFlag,
	},
}

func sync(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	profileTarget := ctx.String(cpuProfilingFlag.Name)
	if len(profileTarget) != 0 {
		if err := StartCPUProfile(profileTarget); err != nil {
			return err
		}
		defer StopCPUProfile()
	}

	srcDir := ctx.String(dbSourceDirFlag.Name)
	log.Info("opening source store", zap.String("dir", srcDir))
	source, err := openStore(ctx, srcDir, log.Named("source"))
	if err != nil {
		return err
	}
	defer closeStore(source, log, &err)

	trgDir := ctx.String(dbTargetDirFlag.Name)
	if err := adoptGenesis(srcDir, trgDir); err != nil {
		return err
	}
	log.Info("opening target store", zap.String("dir", trgDir))
	target, err := openStore(ctx, trgDir, log.Named("target"))
	if err != nil {
		return err
	}
	defer closeStore(target, log, &err)

	if source.GenesisID() != target.GenesisID() {
		return fmt.Errorf("stores belong to different chains")
	}
	height := source.HighestHeight()
	if ctx.IsSet(heightFlag.Name) {
		state, err := selectState(ctx, source)
		if err != nil {
			return err
		}
		height = state.Height()
	}
	fmt.Printf("Source height: %d\n", source.HighestHeight())
	fmt.Printf("Target height: %d\n", target.HighestHeight())

	network := blksync.NewNetwork()
	network.SetLatency(ctx.Duration(latencyFlag.Name))
	peer := blksync.NewLocalPeer(network, network.Register(blksync.NewResponder(source)))

	registry := prometheus.NewRegistry()
	metrics, err := blksync.NewMetrics("sync", registry)
	if err != nil {
		return err
	}
	client := blksync.NewClient(peer, blksync.Config{
		RequestTimeout:         ctx.Duration(timeoutFlag.Name),
		SkipBranchVerification: ctx.Bool(skipVerificationFlag.Name),
		Hasher:                 source.Database().Hasher(),
		Logger:                 log,
		Metrics:                metrics,
	})

	runCtx, cancel := interrupt.Register(context.Background(), log)
	defer cancel()

	log.Info("synchronizing", zap.Uint64("target", uint64(height)))
	start := time.Now()
	reached, err := blksync.NewSyncer(client, target, log).SyncTo(runCtx, height)
	if err != nil {
		return fmt.Errorf("sync stopped at height %d: %w", reached, err)
	}
	log.Info("synchronization complete",
		zap.Uint64("height", uint64(reached)),
		zap.Duration("duration", time.Since(start)),
	)
	logMetrics(log, registry)

	want, _, err := source.StateAt(reached)
	if err != nil {
		return err
	}
	got := target.HighestState()
	fmt.Printf("Source state root: %v\n", want.Root())
	fmt.Printf("Target state root: %v\n", got.Root())
	if want.Root() != got.Root() {
		return fmt.Errorf("sync failed, state roots are not equivalent")
	}
	return nil
}

// adoptGenesis initializes the target directory with the genesis
// configuration of the source unless it is initialized already.
func adoptGenesis(srcDir, trgDir string) error {
	path := filepath.Join(trgDir, genesisFile)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	genesis, err := chain.LoadGenesis(filepath.Join(srcDir, genesisFile))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(trgDir, 0700); err != nil {
		return err
	}
	return chain.SaveGenesis(path, genesis)
}

func logMetrics(log *zap.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		log.Warn("failed to gather metrics", zap.Error(err))
		return
	}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			value := metric.GetCounter().GetValue() + metric.GetGauge().GetValue()
			log.Debug("metric", zap.String("name", family.GetName()), zap.Float64("value", value))
		}
	}
}
