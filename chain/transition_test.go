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
	"errors"
	"math"
	"testing"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

func newState(feePool, multiplier uint64) *State {
	db := smt.NewMemoryDatabase()
	return &State{
		NetID:         Testnet,
		Height:        1,
		Transactions:  db.EmptyTree(),
		Storage:       db.EmptyTree(),
		FeePool:       feePool,
		FeeMultiplier: multiplier,
	}
}

func TestKeyValueTransition_FeesAreCollected(t *testing.T) {
	state := newState(10, 2)
	if err := (KeyValueTransition{}).ApplyTx(state, Transaction{Fee: 3}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if state.FeePool != 13 {
		t.Errorf("unexpected fee pool: %d", state.FeePool)
	}
}

func TestKeyValueTransition_RejectsInsufficientFees(t *testing.T) {
	state := newState(0, 5)
	if err := (KeyValueTransition{}).ApplyTx(state, Transaction{Fee: 4}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestKeyValueTransition_RejectsFeePoolOverflow(t *testing.T) {
	state := newState(math.MaxUint64, 1)
	if err := (KeyValueTransition{}).ApplyTx(state, Transaction{Fee: 1}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestKeyValueTransition_WritesAreStored(t *testing.T) {
	state := newState(0, 1)
	tx := WriteTransaction(1, 0,
		KeyValue{Key: common.Hash{1}, Value: []byte("a")},
		KeyValue{Key: common.Hash{2}, Value: []byte("b")},
	)
	if err := (KeyValueTransition{}).ApplyTx(state, tx); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	for key, want := range map[common.Hash]string{{1}: "a", {2}: "b"} {
		if got, _ := state.Storage.Get(key); string(got) != want {
			t.Errorf("unexpected value of %v: %q", key, got)
		}
	}

	remove := WriteTransaction(1, 1, KeyValue{Key: common.Hash{1}})
	if err := (KeyValueTransition{}).ApplyTx(state, remove); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if got, _ := state.Storage.Get(common.Hash{1}); len(got) != 0 {
		t.Errorf("empty write must remove the key, got %q", got)
	}
}

func TestKeyValueTransition_RejectsUndecodableWrites(t *testing.T) {
	state := newState(0, 1)
	tx := Transaction{Kind: KindWrite, Fee: 1, Data: []byte{0xff}}
	err := (KeyValueTransition{}).ApplyTx(state, tx)
	if !errors.Is(err, ErrInvalidTransaction) || !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrInvalidTransaction and ErrDecode, got %v", err)
	}
}

func TestKeyValueTransition_FeeMultiplierFollowsDelta(t *testing.T) {
	tests := []struct {
		multiplier uint64
		delta      int8
		want       uint64
	}{
		{128, 0, 128},
		{128, 10, 138},
		{128, -10, 118},
		{1, -128, 1},
		{1000, 127, 1992},
		{1<<57 + 1, 127, 1<<57 + 1 + 127<<50},
		{math.MaxUint64, 127, math.MaxUint64},
		{math.MaxUint64, -64, 1 << 63},
		{math.MaxUint64, -128, 1},
	}
	for _, test := range tests {
		state := newState(0, test.multiplier)
		action := ProposerAction{FeeMultiplierDelta: uint8(test.delta)}
		if err := (KeyValueTransition{}).ApplyProposerAction(state, action); err != nil {
			t.Fatalf("failed to apply: %v", err)
		}
		if state.FeeMultiplier != test.want {
			t.Errorf("multiplier %d with delta %d: got %d, want %d", test.multiplier, test.delta, state.FeeMultiplier, test.want)
		}
	}
}

func TestKeyValueTransition_ProposerIsRewarded(t *testing.T) {
	state := newState(6400, 1)
	dest := common.Hash{0xaa}
	action := ProposerAction{RewardDest: dest}
	for i := 0; i < 2; i++ {
		if err := (KeyValueTransition{}).ApplyProposerAction(state, action); err != nil {
			t.Fatalf("failed to apply: %v", err)
		}
	}
	balance, err := Balance(state.Storage, dest)
	if err != nil {
		t.Fatalf("failed to read balance: %v", err)
	}
	if balance != 100+98 {
		t.Errorf("unexpected balance: %d", balance)
	}
	if state.FeePool != 6400-198 {
		t.Errorf("unexpected fee pool: %d", state.FeePool)
	}
}

func TestKeyValueTransition_ZeroDestinationKeepsPool(t *testing.T) {
	state := newState(6400, 1)
	if err := (KeyValueTransition{}).ApplyProposerAction(state, ProposerAction{}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if state.FeePool != 6400 || !state.Storage.Root().IsZero() {
		t.Errorf("reward paid to zero destination")
	}
}

func TestBalance_RejectsMalformedEntries(t *testing.T) {
	state := newState(0, 1)
	storage, err := state.Storage.Set(common.Hash{1}, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("failed to set: %v", err)
	}
	if _, err := Balance(storage, common.Hash{1}); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	if balance, err := Balance(storage, common.Hash{2}); err != nil || balance != 0 {
		t.Errorf("missing accounts must have zero balance, got %d, %v", balance, err)
	}
}
