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
	"fmt"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"golang.org/x/exp/slices"
)

const (
	// ErrDuplicateTransaction is reported when a transaction is applied twice.
	ErrDuplicateTransaction = common.ConstError("duplicate transaction")
	// ErrHeightMismatch is reported for blocks not following a state.
	ErrHeightMismatch = common.ConstError("height mismatch")
	// ErrHeaderMismatch is reported if applying a block yields a header
	// different from the one the block claims.
	ErrHeaderMismatch = common.ConstError("header mismatch")
)

// State is the speculative state of the block under construction. It is
// mutable and not safe for concurrent use; Clone it before sharing.
type State struct {
	NetID         NetID
	Height        Height
	Previous      common.Hash
	Transactions  *smt.Tree
	Storage       *smt.Tree
	FeePool       uint64
	FeeMultiplier uint64

	applied []Transaction
}

// Clone returns an independent copy of the state. Trees are immutable and
// therefore shared.
func (s *State) Clone() *State {
	res := *s
	res.applied = slices.Clone(s.applied)
	return &res
}

// Applied lists the transactions applied to this state in order.
func (s *State) Applied() []Transaction {
	return slices.Clone(s.applied)
}

// Contains reports whether a transaction with the given hash was applied.
func (s *State) Contains(hash TxHash) (bool, error) {
	value, err := s.Transactions.Get(TransactionKey(hash))
	if err != nil {
		return false, err
	}
	return len(value) > 0, nil
}

// ApplyTx records the transaction and runs its effects through the given
// transition. On failure the state is left unmodified.
func (s *State) ApplyTx(tx Transaction, transition Transition) error {
	hash := tx.Hash()
	if found, err := s.Contains(hash); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%w: %v", ErrDuplicateTransaction, hash)
	}
	next := s.Clone()
	txs, err := next.Transactions.Set(TransactionKey(hash), mustEncode(&tx))
	if err != nil {
		return err
	}
	next.Transactions = txs
	if err := transition.ApplyTx(next, tx); err != nil {
		return err
	}
	next.applied = append(next.applied, tx)
	*s = *next
	return nil
}

// Seal applies the proposer action and freezes the state. The receiver is
// not modified.
func (s *State) Seal(action ProposerAction, transition Transition) (*SealedState, error) {
	next := s.Clone()
	if err := transition.ApplyProposerAction(next, action); err != nil {
		return nil, err
	}
	return next.freeze(action), nil
}

// ProposeBlock seals the state and returns the block leading to it.
func (s *State) ProposeBlock(action ProposerAction, transition Transition) (Block, error) {
	sealed, err := s.Seal(action, transition)
	if err != nil {
		return Block{}, err
	}
	return Block{
		Header:         sealed.Header(),
		Transactions:   s.Applied(),
		ProposerAction: action,
	}, nil
}

func (s *State) freeze(action ProposerAction) *SealedState {
	return &SealedState{
		header: Header{
			NetID:            s.NetID,
			Previous:         s.Previous,
			Height:           s.Height,
			TransactionsRoot: s.Transactions.Root(),
			StorageRoot:      s.Storage.Root(),
			FeePool:          s.FeePool,
			FeeMultiplier:    s.FeeMultiplier,
			ProposerHash:     hashOf(&action),
		},
		action: action,
		db:     s.Storage.Database(),
	}
}

// SealedState is the immutable state at a given height. All its content
// beyond the header is held in the shared tree database.
type SealedState struct {
	header Header
	action ProposerAction
	db     *smt.Database
}

func (s *SealedState) Height() Height {
	return s.header.Height
}

func (s *SealedState) Header() Header {
	return s.header
}

// ProposerAction returns the action sealing this state.
func (s *SealedState) ProposerAction() ProposerAction {
	return s.action
}

// Root returns the hash of the header, which authenticates the whole state.
func (s *SealedState) Root() common.Hash {
	return s.header.Hash()
}

// Database returns the tree database holding the state's content.
func (s *SealedState) Database() *smt.Database {
	return s.db
}

// Tree returns the authenticated tree of the given substate.
func (s *SealedState) Tree(substate Substate) (*smt.Tree, error) {
	switch substate {
	case Transactions:
		return s.db.Tree(s.header.TransactionsRoot), nil
	case Storage:
		return s.db.Tree(s.header.StorageRoot), nil
	}
	return nil, fmt.Errorf("unknown substate %v", substate)
}

// NextState returns the speculative state of the following block.
func (s *SealedState) NextState() *State {
	return &State{
		NetID:         s.header.NetID,
		Height:        s.header.Height + 1,
		Previous:      s.Root(),
		Transactions:  s.db.EmptyTree(),
		Storage:       s.db.Tree(s.header.StorageRoot),
		FeePool:       s.header.FeePool,
		FeeMultiplier: s.header.FeeMultiplier,
	}
}

// ApplyBlock derives the state following this one. The block must be the
// direct successor and its header must match the outcome of its application.
func (s *SealedState) ApplyBlock(block *Block, transition Transition) (*SealedState, error) {
	if want := s.Height() + 1; block.Header.Height != want {
		return nil, fmt.Errorf("%w: block at height %d, expected %d", ErrHeightMismatch, block.Header.Height, want)
	}
	next := s.NextState()
	for i := range block.Transactions {
		if err := next.ApplyTx(block.Transactions[i], transition); err != nil {
			return nil, fmt.Errorf("failed to apply transaction %d of block %d: %w", i, block.Header.Height, err)
		}
	}
	res, err := next.Seal(block.ProposerAction, transition)
	if err != nil {
		return nil, err
	}
	if res.header != block.Header {
		return nil, fmt.Errorf("%w: block %d", ErrHeaderMismatch, block.Header.Height)
	}
	return res, nil
}

type partialState struct {
	Header Header
	Action ProposerAction
}

// PartialEncoding serializes the state without the content of its trees.
func (s *SealedState) PartialEncoding() []byte {
	return mustEncode(&partialState{Header: s.header, Action: s.action})
}

// FromPartialEncoding restores a state serialized by PartialEncoding. The
// trees referenced by it are expected to be present in db.
func FromPartialEncoding(data []byte, db *smt.Database) (*SealedState, error) {
	partial, err := Decode[partialState](data)
	if err != nil {
		return nil, err
	}
	if hashOf(&partial.Action) != partial.Header.ProposerHash {
		return nil, errors.Join(ErrDecode, fmt.Errorf("proposer action of state %d does not match its header", partial.Header.Height))
	}
	return &SealedState{header: partial.Header, action: partial.Action, db: db}, nil
}
