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
	"os"
	"path/filepath"
	"testing"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/storage"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"node", "--log-level", "error"}, args...))
}

func TestParseEntries(t *testing.T) {
	key := common.Hash{1, 2}
	entries, err := parseEntries([]string{key.String() + "=hello", "0x" + key.String() + "="})
	if err != nil {
		t.Fatalf("failed to parse entries: %v", err)
	}
	if len(entries) != 2 || entries[0].Key != key || string(entries[0].Value) != "hello" || len(entries[1].Value) != 0 {
		t.Errorf("unexpected entries: %v", entries)
	}
	for _, arg := range []string{"", "12", "zz=value", "0x01=value"} {
		if _, err := parseEntries([]string{arg}); err == nil {
			t.Errorf("parsing %q should fail", arg)
		}
	}
}

func TestParseSubstate(t *testing.T) {
	for _, substate := range []chain.Substate{chain.Transactions, chain.Storage} {
		got, err := parseSubstate(substate.String())
		if err != nil || got != substate {
			t.Errorf("failed to parse %v: %v, %v", substate, got, err)
		}
	}
	if _, err := parseSubstate("accounts"); err == nil {
		t.Errorf("parsing an unknown substate should fail")
	}
}

func TestCommands_InitWriteAndSync(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src")
	trg := filepath.Join(t.TempDir(), "trg")
	key := common.Hash{0xab}.String()

	if err := run(t, "init", "--dir", src, "--fee-pool", "100", "--entry", key+"=genesis"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if err := run(t, "init", "--dir", src); err == nil {
		t.Errorf("initializing a directory twice should fail")
	}
	for i := 0; i < 3; i++ {
		if err := run(t, "write", "--dir", src, "--entry", key+"=update"); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}
	for _, args := range [][]string{
		{"info", "--dir", src},
		{"info", "--dir", src, "--height", "1"},
		{"get", "--dir", src, "--key", key},
		{"prove", "--dir", src, "--key", key, "--height", "0"},
		{"trust", "set", "--dir", src, "--height", "2", "--header-hash", key},
		{"trust", "get", "--dir", src},
		{"sync", "--src-dir", src, "--trg-dir", trg},
	} {
		if err := run(t, args...); err != nil {
			t.Errorf("%v failed: %v", args, err)
		}
	}
	if err := run(t, "info", "--dir", src, "--height", "9"); err == nil {
		t.Errorf("inspecting a missing height should fail")
	}

	genesis, err := chain.LoadGenesis(filepath.Join(trg, genesisFile))
	if err != nil {
		t.Fatalf("target genesis not recorded: %v", err)
	}
	params := storage.DefaultParameters
	params.Directory = trg
	service, err := storage.Open(params, genesis, nil, nil)
	if err != nil {
		t.Fatalf("failed to open target: %v", err)
	}
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start target: %v", err)
	}
	defer func() {
		if err := service.Stop(); err != nil {
			t.Errorf("failed to stop target: %v", err)
		}
	}()
	if got := service.HighestHeight(); got != 3 {
		t.Errorf("unexpected target height: %d", got)
	}
	tree, err := service.HighestState().Tree(chain.Storage)
	if err != nil {
		t.Fatalf("failed to open storage tree: %v", err)
	}
	if value, err := tree.Get(common.Hash{0xab}); err != nil || string(value) != "update" {
		t.Errorf("unexpected value after sync: %q, %v", value, err)
	}
}

func TestCommands_UninitializedDirectoryIsReported(t *testing.T) {
	dir := t.TempDir()
	if err := run(t, "info", "--dir", dir); err == nil {
		t.Errorf("opening an uninitialized directory should fail")
	}
	if _, err := os.Stat(filepath.Join(dir, string(storage.LevelDBBackend))); err == nil {
		t.Errorf("no store should be created in an uninitialized directory")
	}
}
