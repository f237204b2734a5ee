// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mempool

import (
	"errors"
	"testing"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

func newGenesis(t *testing.T) *chain.SealedState {
	t.Helper()
	genesis := chain.GenesisConfig{NetID: chain.Testnet}
	state, err := genesis.Realize(smt.NewMemoryDatabase())
	if err != nil {
		t.Fatalf("failed to realize genesis: %v", err)
	}
	return state
}

func TestMempool_ApplyTransactionUpdatesSpeculativeState(t *testing.T) {
	pool := New(newGenesis(t).NextState(), chain.KeyValueTransition{})
	tx := chain.WriteTransaction(1, 0, chain.KeyValue{Key: common.Hash{1}, Value: []byte("v")})
	if err := pool.ApplyTransaction(tx); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if value, _ := pool.BaseState().Storage.Get(common.Hash{1}); string(value) != "v" {
		t.Errorf("transaction not applied to speculative state: %q", value)
	}
	if pending := pool.Pending(); len(pending) != 1 || pending[0].Hash() != tx.Hash() {
		t.Errorf("unexpected pending transactions: %v", pending)
	}
}

func TestMempool_DuplicatesAreRejected(t *testing.T) {
	pool := New(newGenesis(t).NextState(), chain.KeyValueTransition{})
	tx := chain.Transaction{Fee: 1}
	if err := pool.ApplyTransaction(tx); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if err := pool.ApplyTransaction(tx); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if len(pool.Pending()) != 1 {
		t.Errorf("duplicate was recorded")
	}
}

func TestMempool_BaseStateIsACopy(t *testing.T) {
	pool := New(newGenesis(t).NextState(), chain.KeyValueTransition{})
	state := pool.BaseState()
	if err := state.ApplyTx(chain.Transaction{Fee: 1}, chain.KeyValueTransition{}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if len(pool.Pending()) != 0 {
		t.Errorf("modifying the returned state changed the pool")
	}
}

func TestMempool_LookupRecentTx(t *testing.T) {
	pool := New(newGenesis(t).NextState(), chain.KeyValueTransition{})
	applied := chain.Transaction{Fee: 1, Nonce: 1}
	rejected := chain.Transaction{Fee: 0, Nonce: 2}
	remembered := chain.Transaction{Fee: 1, Nonce: 3}
	if err := pool.ApplyTransaction(applied); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if err := pool.ApplyTransaction(rejected); !errors.Is(err, chain.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	pool.Remember(remembered)
	for _, tx := range []chain.Transaction{applied, rejected, remembered} {
		got, found := pool.LookupRecentTx(tx.Hash())
		if !found || got.Hash() != tx.Hash() {
			t.Errorf("transaction %v not found", tx.Hash())
		}
	}
	if _, found := pool.LookupRecentTx(common.Hash{1}); found {
		t.Errorf("unknown transaction found")
	}
}

func TestMempool_RecentTransactionsAreBounded(t *testing.T) {
	pool := NewWithCapacity(newGenesis(t).NextState(), chain.KeyValueTransition{}, 2)
	txs := []chain.Transaction{{Nonce: 1}, {Nonce: 2}, {Nonce: 3}}
	pool.Remember(txs...)
	if _, found := pool.LookupRecentTx(txs[0].Hash()); found {
		t.Errorf("oldest transaction should have been evicted")
	}
	if _, found := pool.LookupRecentTx(txs[2].Hash()); !found {
		t.Errorf("newest transaction missing")
	}
}

func TestMempool_RebaseOnlyMovesForward(t *testing.T) {
	genesis := newGenesis(t)
	pool := New(genesis.NextState(), chain.KeyValueTransition{})
	if err := pool.ApplyTransaction(chain.Transaction{Fee: 1}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if pool.Rebase(genesis.NextState()) {
		t.Errorf("rebase to the same height must be ignored")
	}
	if len(pool.Pending()) != 1 {
		t.Errorf("ignored rebase dropped pending transactions")
	}

	block, err := genesis.NextState().ProposeBlock(chain.ProposerAction{}, chain.KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}
	next, err := genesis.ApplyBlock(&block, chain.KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	if !pool.Rebase(next.NextState()) {
		t.Errorf("rebase to a later state was ignored")
	}
	if pool.Height() != 2 || pool.BaseState().Previous != next.Root() {
		t.Errorf("pool not rebased onto the new state")
	}
	if len(pool.Pending()) != 0 {
		t.Errorf("pending transactions survived the rebase")
	}
}
