// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

// DefaultFeeMultiplier is the fee multiplier of genesis configurations not
// specifying one.
const DefaultFeeMultiplier = 1

// GenesisConfig describes the state at height 0.
type GenesisConfig struct {
	NetID                NetID      `json:"netId"`
	InitialStorage       []KeyValue `json:"initialStorage,omitempty"`
	InitialFeePool       uint64     `json:"initialFeePool,omitempty"`
	InitialFeeMultiplier uint64     `json:"initialFeeMultiplier,omitempty"`
}

// ID identifies the configuration; stores keep the data of distinct
// configurations apart based on it.
func (g *GenesisConfig) ID() common.Hash {
	return hashOf(g)
}

// Realize creates the sealed state at height 0 in the given database.
func (g *GenesisConfig) Realize(db *smt.Database) (*SealedState, error) {
	storage := db.EmptyTree()
	for _, entry := range g.InitialStorage {
		var err error
		if storage, err = storage.Set(entry.Key, entry.Value); err != nil {
			return nil, fmt.Errorf("failed to realize genesis: %w", err)
		}
	}
	multiplier := g.InitialFeeMultiplier
	if multiplier == 0 {
		multiplier = DefaultFeeMultiplier
	}
	state := &State{
		NetID:         g.NetID,
		Transactions:  db.EmptyTree(),
		Storage:       storage,
		FeePool:       g.InitialFeePool,
		FeeMultiplier: multiplier,
	}
	return state.freeze(ProposerAction{}), nil
}

// LoadGenesis reads a genesis configuration from a JSON file.
func LoadGenesis(path string) (GenesisConfig, error) {
	var res GenesisConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal(data, &res); err != nil {
		return res, fmt.Errorf("invalid genesis file %s: %w", path, err)
	}
	return res, nil
}

// SaveGenesis writes a genesis configuration to a JSON file.
func SaveGenesis(path string, config GenesisConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
