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
)

var getValueCommand = cli.Command{
	Action: getValue,
	Name:   "get",
	Usage:  "prints the value of a key in a state",
	Flags: []cli.Flag{
		&dbDirectoryFlag,
		&backendFlag,
		&hashSchemeFlag,
		&heightFlag,
		&substateFlag,
		&keyFlag,
	},
}

func getValue(ctx *cli.Context) (err error) {
	log, err := newLogger(ctx)
	if err != nil {
		return err
	}
	substate, err := parseSubstate(ctx.String(substateFlag.Name))
	if err != nil {
		return err
	}
	key, err := parseKey(ctx)
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
	tree, err := state.Tree(substate)
	if err != nil {
		return err
	}
	value, err := tree.Get(key)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		fmt.Printf("%v is absent at height %d\n", key, state.Height())
		return nil
	}
	fmt.Printf("0x%x\n", value)
	return nil
}
