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

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	requiredEntryFlag = cli.StringSliceFlag{
		Name:     entryFlag.Name,
		Usage:    entryFlag.Usage,
		Required: true,
	}
	rewardDestFlag = cli.StringFlag{
		Name:  "reward-dest",
		Usage: "the hex key of the account receiving the block reward",
	}
)

var writeCommand = cli.Command{
	Action: write,
	Name:   "write",
	Usage:  "appends a block with a single transaction writing the given entries",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&backendFlag,
		&hashSchemeFlag,
		&requiredEntryFlag,
		&rewardDestFlag,
	},
}

func write(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	entries, err := parseEntries(ctx.StringSlice(requiredEntryFlag.Name))
	if err != nil {
		return err
	}
	var action chain.ProposerAction
	if ctx.IsSet(rewardDestFlag.Name) {
		if action.RewardDest, err = common.ParseHash(ctx.String(rewardDestFlag.Name)); err != nil {
			return fmt.Errorf("invalid reward destination: %w", err)
		}
	}

	service, err := openStore(ctx, ctx.String(dbDirectoryFlag.Name), log)
	if err != nil {
		return err
	}
	defer closeStore(service, log, &err)

	state := service.HighestState().NextState()
	tx := chain.WriteTransaction(state.FeeMultiplier, uint64(state.Height), entries...)
	if err := state.ApplyTx(tx, chain.KeyValueTransition{}); err != nil {
		return err
	}
	block, err := state.ProposeBlock(action, chain.KeyValueTransition{})
	if err != nil {
		return err
	}
	if err := service.ApplyBlock(&block, chain.ConsensusProof{}); err != nil {
		return err
	}
	log.Info("appended block",
		zap.Uint64("height", uint64(block.Header.Height)),
		zap.Stringer("transaction", tx.Hash()),
	)
	fmt.Printf("Height:     %d\n", block.Header.Height)
	fmt.Printf("State root: %v\n", service.HighestState().Root())
	return nil
}
