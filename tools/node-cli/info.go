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

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var getInfoCommand = cli.Command{
	Action: getInfo,
	Name:   "info",
	Usage:  "prints summary information about a store directory",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&backendFlag,
		&hashSchemeFlag,
		&heightFlag,
	},
}

func getInfo(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	service, err := openStore(ctx, ctx.String(dbDirectoryFlag.Name), log)
	if err != nil {
		return err
	}
	defer closeStore(service, log, &err)

	state, err := selectState(ctx, service)
	if err != nil {
		return err
	}
	header := state.Header()
	fmt.Printf("Genesis ID:        %v\n", service.GenesisID())
	fmt.Printf("Network:           %v\n", header.NetID)
	fmt.Printf("Highest height:    %d\n", service.HighestHeight())
	fmt.Printf("Height:            %d\n", header.Height)
	fmt.Printf("Block hash:        %v\n", header.Hash())
	fmt.Printf("Previous:          %v\n", header.Previous)
	fmt.Printf("Transactions root: %v\n", header.TransactionsRoot)
	fmt.Printf("Storage root:      %v\n", header.StorageRoot)
	fmt.Printf("Fee pool:          %d\n", header.FeePool)
	fmt.Printf("Fee multiplier:    %d\n", header.FeeMultiplier)
	fmt.Printf("Hash scheme:       %s\n", service.Database().Hasher().Name())

	hits, misses := service.Database().ChainCache().Stats()
	log.Debug("proof chain cache", zap.Uint64("hits", hits), zap.Uint64("misses", misses))
	return nil
}
