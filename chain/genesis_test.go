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
	"path/filepath"
	"testing"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

func TestGenesisConfig_IDDependsOnContent(t *testing.T) {
	a := GenesisConfig{NetID: Testnet}
	b := GenesisConfig{NetID: Mainnet}
	c := GenesisConfig{NetID: Testnet, InitialStorage: []KeyValue{{Key: common.Hash{1}, Value: []byte{1}}}}
	if a.ID() == b.ID() || a.ID() == c.ID() {
		t.Errorf("distinct configurations must have distinct ids")
	}
	if a.ID() != (&GenesisConfig{NetID: Testnet}).ID() {
		t.Errorf("id is not deterministic")
	}
}

func TestGenesisConfig_RealizeCreatesHeightZero(t *testing.T) {
	genesis := GenesisConfig{
		NetID:          Custom,
		InitialStorage: []KeyValue{{Key: common.Hash{5}, Value: []byte("five")}},
		InitialFeePool: 7,
	}
	state, err := genesis.Realize(smt.NewMemoryDatabase())
	if err != nil {
		t.Fatalf("failed to realize: %v", err)
	}
	header := state.Header()
	if header.Height != 0 || header.NetID != Custom || header.FeePool != 7 {
		t.Errorf("unexpected header: %+v", header)
	}
	if header.FeeMultiplier != DefaultFeeMultiplier {
		t.Errorf("unexpected fee multiplier: %d", header.FeeMultiplier)
	}
	if !header.TransactionsRoot.IsZero() || !header.Previous.IsZero() {
		t.Errorf("genesis must have no transactions and no predecessor")
	}
	storage, err := state.Tree(Storage)
	if err != nil {
		t.Fatalf("failed to get storage: %v", err)
	}
	if value, _ := storage.Get(common.Hash{5}); string(value) != "five" {
		t.Errorf("initial storage missing: %q", value)
	}
}

func TestGenesisConfig_RealizeIsDeterministic(t *testing.T) {
	genesis := GenesisConfig{NetID: Testnet, InitialStorage: []KeyValue{{Key: common.Hash{1}, Value: []byte{1}}}}
	a, err := genesis.Realize(smt.NewMemoryDatabase())
	if err != nil {
		t.Fatalf("failed to realize: %v", err)
	}
	b, err := genesis.Realize(smt.NewMemoryDatabase())
	if err != nil {
		t.Fatalf("failed to realize: %v", err)
	}
	if a.Root() != b.Root() {
		t.Errorf("genesis realization is not deterministic")
	}
}

func TestGenesisConfig_JsonFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genesis.json")
	genesis := GenesisConfig{
		NetID:                Testnet,
		InitialStorage:       []KeyValue{{Key: common.Hash{0xab}, Value: []byte("value")}},
		InitialFeePool:       10,
		InitialFeeMultiplier: 3,
	}
	if err := SaveGenesis(path, genesis); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	restored, err := LoadGenesis(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if restored.ID() != genesis.ID() {
		t.Errorf("genesis changed in round trip: %+v", restored)
	}
}

func TestLoadGenesis_ReportsErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadGenesis(filepath.Join(dir, "missing.json")); err == nil {
		t.Errorf("missing files must be reported")
	}
}
