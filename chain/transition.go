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
	"encoding/binary"
	"fmt"
	"math"
	"math/bits"

	"github.com/ledgerlab/ledgerstore/common"
)

//go:generate mockgen -source transition.go -destination transition_mocks.go -package chain

// Transition is the state-transition function of the ledger. It validates
// transactions and applies their effects to the speculative state.
type Transition interface {
	// ApplyTx applies the effects of a transaction that has already been
	// recorded in the transactions substate.
	ApplyTx(state *State, tx Transaction) error
	// ApplyProposerAction applies the proposer's action when sealing.
	ApplyProposerAction(state *State, action ProposerAction) error
}

// ErrInvalidTransaction is reported for transactions a transition rejects.
const ErrInvalidTransaction = common.ConstError("invalid transaction")

const (
	// MinFeeMultiplier is the lower bound of the fee multiplier.
	MinFeeMultiplier = 1
	// RewardDivisor determines the share of the fee pool paid to each
	// proposer: FeePool / RewardDivisor.
	RewardDivisor = 64
)

// KeyValueTransition is a simple transition function for a key/value ledger.
// Every transaction pays a fee of at least the current fee multiplier into
// the fee pool, write transactions store their key/value pairs and proposers
// receive a share of the pool credited to their reward destination.
type KeyValueTransition struct{}

func (KeyValueTransition) ApplyTx(state *State, tx Transaction) error {
	if tx.Fee < state.FeeMultiplier {
		return fmt.Errorf("%w: fee %d below multiplier %d", ErrInvalidTransaction, tx.Fee, state.FeeMultiplier)
	}
	if state.FeePool > math.MaxUint64-tx.Fee {
		return fmt.Errorf("%w: fee pool overflow", ErrInvalidTransaction)
	}
	switch tx.Kind {
	case KindNormal:
	case KindWrite:
		writes, err := Decode[[]KeyValue](tx.Data)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
		}
		storage := state.Storage
		for _, write := range writes {
			if storage, err = storage.Set(write.Key, write.Value); err != nil {
				return err
			}
		}
		state.Storage = storage
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidTransaction, tx.Kind)
	}
	state.FeePool += tx.Fee
	return nil
}

func (KeyValueTransition) ApplyProposerAction(state *State, action ProposerAction) error {
	state.FeeMultiplier = adjustFeeMultiplier(state.FeeMultiplier, int8(action.FeeMultiplierDelta))

	if action.RewardDest.IsZero() {
		return nil
	}
	reward := state.FeePool / RewardDivisor
	if reward == 0 {
		return nil
	}
	balance, err := Balance(state.Storage, action.RewardDest)
	if err != nil {
		return err
	}
	if balance > math.MaxUint64-reward {
		return fmt.Errorf("balance of %v overflows", action.RewardDest)
	}
	storage, err := state.Storage.Set(action.RewardDest, EncodeBalance(balance+reward))
	if err != nil {
		return err
	}
	state.Storage = storage
	state.FeePool -= reward
	return nil
}

// adjustFeeMultiplier scales the multiplier by (128+delta)/128. The result
// saturates at math.MaxUint64 and never drops below MinFeeMultiplier.
func adjustFeeMultiplier(multiplier uint64, delta int8) uint64 {
	magnitude := uint64(delta)
	if delta < 0 {
		magnitude = uint64(-int64(delta))
	}
	// magnitude <= 128, so hi < 128 and the division cannot overflow.
	hi, lo := bits.Mul64(multiplier, magnitude)
	change, _ := bits.Div64(hi, lo, 128)
	if delta >= 0 {
		sum, carry := bits.Add64(multiplier, change, 0)
		if carry != 0 {
			return math.MaxUint64
		}
		return sum
	}
	if multiplier-change < MinFeeMultiplier {
		return MinFeeMultiplier
	}
	return multiplier - change
}

// WriteTransaction creates a transaction storing the given entries.
func WriteTransaction(fee, nonce uint64, entries ...KeyValue) Transaction {
	return Transaction{
		Kind:  KindWrite,
		Fee:   fee,
		Data:  mustEncode(entries),
		Nonce: nonce,
	}
}

// EncodeBalance encodes an account balance as stored in the storage substate.
func EncodeBalance(balance uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, balance)
}

// Balance reads the balance stored for the given account.
func Balance(storage interface {
	Get(common.Hash) ([]byte, error)
}, account common.Hash) (uint64, error) {
	data, err := storage.Get(account)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: balance of %v has %d bytes", ErrDecode, account, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
