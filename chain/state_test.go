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
	"testing"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"go.uber.org/mock/gomock"
)

func newGenesisState(t *testing.T) *SealedState {
	t.Helper()
	genesis := GenesisConfig{
		NetID:          Testnet,
		InitialStorage: []KeyValue{{Key: common.Hash{1}, Value: []byte("initial")}},
		InitialFeePool: 640,
	}
	state, err := genesis.Realize(smt.NewMemoryDatabase())
	if err != nil {
		t.Fatalf("failed to realize genesis: %v", err)
	}
	return state
}

func TestState_ApplyTxRecordsTransaction(t *testing.T) {
	state := newGenesisState(t).NextState()
	tx := Transaction{Kind: KindNormal, Fee: 1, Nonce: 1}
	if err := state.ApplyTx(tx, KeyValueTransition{}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	found, err := state.Contains(tx.Hash())
	if err != nil || !found {
		t.Errorf("transaction not recorded: %t, %v", found, err)
	}
	value, err := state.Transactions.Get(TransactionKey(tx.Hash()))
	if err != nil {
		t.Fatalf("failed to read transaction: %v", err)
	}
	restored, err := Decode[Transaction](value)
	if err != nil || restored.Hash() != tx.Hash() {
		t.Errorf("unexpected stored transaction: %+v, %v", restored, err)
	}
	if applied := state.Applied(); len(applied) != 1 || applied[0].Hash() != tx.Hash() {
		t.Errorf("unexpected applied transactions: %v", applied)
	}
}

func TestState_ApplyTxRejectsDuplicates(t *testing.T) {
	state := newGenesisState(t).NextState()
	tx := Transaction{Kind: KindNormal, Fee: 1, Nonce: 1}
	if err := state.ApplyTx(tx, KeyValueTransition{}); err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	if err := state.ApplyTx(tx, KeyValueTransition{}); !errors.Is(err, ErrDuplicateTransaction) {
		t.Errorf("expected ErrDuplicateTransaction, got %v", err)
	}
}

func TestState_FailedTransitionLeavesStateUnmodified(t *testing.T) {
	ctrl := gomock.NewController(t)
	transition := NewMockTransition(ctrl)
	injected := errors.New("injected")
	transition.EXPECT().ApplyTx(gomock.Any(), gomock.Any()).DoAndReturn(func(state *State, _ Transaction) error {
		state.FeePool = 0
		return injected
	})

	state := newGenesisState(t).NextState()
	before := state.Clone()
	if err := state.ApplyTx(Transaction{Nonce: 1}, transition); !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if state.Transactions.Root() != before.Transactions.Root() || state.FeePool != before.FeePool {
		t.Errorf("failed transaction modified the state")
	}
	if len(state.Applied()) != 0 {
		t.Errorf("failed transaction was recorded")
	}
}

func TestState_SealDoesNotModifyState(t *testing.T) {
	ctrl := gomock.NewController(t)
	transition := NewMockTransition(ctrl)
	transition.EXPECT().ApplyProposerAction(gomock.Any(), ProposerAction{FeeMultiplierDelta: 1}).DoAndReturn(func(state *State, _ ProposerAction) error {
		state.FeePool = 42
		return nil
	})

	state := newGenesisState(t).NextState()
	sealed, err := state.Seal(ProposerAction{FeeMultiplierDelta: 1}, transition)
	if err != nil {
		t.Fatalf("failed to seal: %v", err)
	}
	if sealed.Header().FeePool != 42 {
		t.Errorf("proposer action not applied")
	}
	if state.FeePool == 42 {
		t.Errorf("sealing modified the state")
	}
	if sealed.Height() != 1 {
		t.Errorf("unexpected height: %d", sealed.Height())
	}
}

func TestSealedState_NextStateContinuesChain(t *testing.T) {
	genesis := newGenesisState(t)
	next := genesis.NextState()
	if next.Height != 1 || next.Previous != genesis.Root() {
		t.Errorf("next state does not link to its predecessor")
	}
	if !next.Transactions.Root().IsZero() {
		t.Errorf("next state must start with an empty transactions tree")
	}
	if next.Storage.Root() != genesis.Header().StorageRoot {
		t.Errorf("next state must inherit the storage")
	}
}

func TestSealedState_ApplyBlockReproducesProposedState(t *testing.T) {
	genesis := newGenesisState(t)
	proposal := genesis.NextState()
	txs := []Transaction{
		WriteTransaction(1, 1, KeyValue{Key: common.Hash{2}, Value: []byte("two")}),
		{Kind: KindNormal, Fee: 5, Nonce: 2},
	}
	for _, tx := range txs {
		if err := proposal.ApplyTx(tx, KeyValueTransition{}); err != nil {
			t.Fatalf("failed to apply: %v", err)
		}
	}
	block, err := proposal.ProposeBlock(ProposerAction{RewardDest: common.Hash{0xaa}}, KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}

	applied, err := genesis.ApplyBlock(&block, KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	if applied.Header() != block.Header {
		t.Errorf("unexpected header")
	}
	storage, err := applied.Tree(Storage)
	if err != nil {
		t.Fatalf("failed to get storage: %v", err)
	}
	if value, _ := storage.Get(common.Hash{2}); string(value) != "two" {
		t.Errorf("write not applied: %q", value)
	}
	txTree, err := applied.Tree(Transactions)
	if err != nil {
		t.Fatalf("failed to get transactions: %v", err)
	}
	for _, tx := range txs {
		value, proof, err := txTree.Prove(TransactionKey(tx.Hash()))
		if err != nil {
			t.Fatalf("failed to prove: %v", err)
		}
		encoded, _ := Encode(&tx)
		if got := applied.Database().Verify(proof, block.Header.TransactionsRoot, TransactionKey(tx.Hash()), encoded); got != smt.Included {
			t.Errorf("transaction not provable: %v (value %x)", got, value)
		}
	}
}

func TestSealedState_ApplyBlockChecksHeightAndHeader(t *testing.T) {
	genesis := newGenesisState(t)
	block, err := genesis.NextState().ProposeBlock(ProposerAction{}, KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}

	wrongHeight := block
	wrongHeight.Header.Height = 2
	if _, err := genesis.ApplyBlock(&wrongHeight, KeyValueTransition{}); !errors.Is(err, ErrHeightMismatch) {
		t.Errorf("expected ErrHeightMismatch, got %v", err)
	}

	wrongRoot := block
	wrongRoot.Header.StorageRoot = common.Hash{1}
	if _, err := genesis.ApplyBlock(&wrongRoot, KeyValueTransition{}); !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("expected ErrHeaderMismatch, got %v", err)
	}

	extraTx := block
	extraTx.Transactions = []Transaction{{Fee: 1}}
	if _, err := genesis.ApplyBlock(&extraTx, KeyValueTransition{}); !errors.Is(err, ErrHeaderMismatch) {
		t.Errorf("expected ErrHeaderMismatch, got %v", err)
	}
}

func TestSealedState_ApplyBlockReportsInvalidTransactions(t *testing.T) {
	genesis := newGenesisState(t)
	block := Block{
		Header:       Header{Height: 1},
		Transactions: []Transaction{{Kind: 9, Fee: 1}},
	}
	if _, err := genesis.ApplyBlock(&block, KeyValueTransition{}); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("expected ErrInvalidTransaction, got %v", err)
	}
}

func TestSealedState_PartialEncodingRoundTrip(t *testing.T) {
	genesis := newGenesisState(t)
	block, err := genesis.NextState().ProposeBlock(ProposerAction{FeeMultiplierDelta: 5}, KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to propose: %v", err)
	}
	state, err := genesis.ApplyBlock(&block, KeyValueTransition{})
	if err != nil {
		t.Fatalf("failed to apply: %v", err)
	}
	restored, err := FromPartialEncoding(state.PartialEncoding(), state.Database())
	if err != nil {
		t.Fatalf("failed to restore: %v", err)
	}
	if restored.Root() != state.Root() || restored.ProposerAction() != state.ProposerAction() {
		t.Errorf("state changed in round trip")
	}
	storage, err := restored.Tree(Storage)
	if err != nil {
		t.Fatalf("failed to get storage: %v", err)
	}
	if value, _ := storage.Get(common.Hash{1}); string(value) != "initial" {
		t.Errorf("restored state lost storage: %q", value)
	}
}

func TestFromPartialEncoding_RejectsInvalidInput(t *testing.T) {
	db := smt.NewMemoryDatabase()
	if _, err := FromPartialEncoding([]byte{1, 2, 3}, db); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode, got %v", err)
	}
	tampered, _ := Encode(&partialState{Header: Header{Height: 3}, Action: ProposerAction{FeeMultiplierDelta: 1}})
	if _, err := FromPartialEncoding(tampered, db); !errors.Is(err, ErrDecode) {
		t.Errorf("expected ErrDecode for inconsistent action, got %v", err)
	}
}

func TestSealedState_TreeRejectsUnknownSubstate(t *testing.T) {
	if _, err := newGenesisState(t).Tree(Substate(7)); err == nil {
		t.Errorf("unknown substates must be rejected")
	}
}
