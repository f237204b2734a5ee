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
)

var (
	trustedHeightFlag = cli.Uint64Flag{
		Name:     "height",
		Usage:    "the trusted height",
		Required: true,
	}
	trustedHashFlag = cli.StringFlag{
		Name:     "header-hash",
		Usage:    "the hex hash of the trusted block header",
		Required: true,
	}
)

var trustCommand = cli.Command{
	Name:  "trust",
	Usage: "manages the trusted checkpoints of networks",
	Subcommands: []*cli.Command{
		{
			Action: setTrusted,
			Name:   "set",
			Usage:  "records a trusted checkpoint for a network",
			Flags: []cli.Flag{
				&dbDirectoryFlag,
				&backendFlag,
				&hashSchemeFlag,
				&netIDFlag,
				&trustedHeightFlag,
				&trustedHashFlag,
			},
		},
		{
			Action: getTrusted,
			Name:   "get",
			Usage:  "prints the trusted checkpoint of a network",
			Flags: []cli.Flag{
				&dbDirectoryFlag,
				&backendFlag,
				&hashSchemeFlag,
				&netIDFlag,
			},
		},
	},
}

func setTrusted(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	netID, err := chain.ParseNetID(ctx.String(netIDFlag.Name))
	if err != nil {
		return err
	}
	hash, err := common.ParseHash(ctx.String(trustedHashFlag.Name))
	if err != nil {
		return fmt.Errorf("invalid header hash: %w", err)
	}
	service, err := openStore(ctx, ctx.String(dbDirectoryFlag.Name), log)
	if err != nil {
		return err
	}
	defer closeStore(service, log, &err)

	return service.TrustStore().SetTrusted(netID, chain.TrustedHeight{
		Height:     chain.Height(ctx.Uint64(trustedHeightFlag.Name)),
		HeaderHash: hash,
	})
}

func getTrusted(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	netID, err := chain.ParseNetID(ctx.String(netIDFlag.Name))
	if err != nil {
		return err
	}
	service, err := openStore(ctx, ctx.String(dbDirectoryFlag.Name), log)
	if err != nil {
		return err
	}
	defer closeStore(service, log, &err)

	trusted, found, err := service.TrustStore().GetTrusted(netID)
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("No trusted checkpoint for %v\n", netID)
		return nil
	}
	fmt.Printf("Height:      %d\n", trusted.Height)
	fmt.Printf("Header hash: %v\n", trusted.HeaderHash)
	return nil
}
