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
	"sync"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
)

// ErrDuplicate is reported for transactions already in the pool or the
// speculative state.
const ErrDuplicate = chain.ErrDuplicateTransaction

// DefaultRecentTxCapacity is the number of recently seen transactions
// retained for lookups.
const DefaultRecentTxCapacity = 100_000

// Mempool holds the transactions not yet included in a block on top of the
// speculative state of the next block. It is safe for concurrent use.
type Mempool struct {
	mu         sync.Mutex
	state      *chain.State
	transition chain.Transition
	recent     *common.SyncedLruCache[chain.TxHash, chain.Transaction]
}

// New creates a pool on top of the given speculative state.
func New(state *chain.State, transition chain.Transition) *Mempool {
	return NewWithCapacity(state, transition, DefaultRecentTxCapacity)
}

// NewWithCapacity creates a pool remembering up to capacity recent
// transactions.
func NewWithCapacity(state *chain.State, transition chain.Transition, capacity int) *Mempool {
	return &Mempool{
		state:      state.Clone(),
		transition: transition,
		recent:     common.NewSyncedLruCache[chain.TxHash, chain.Transaction](capacity),
	}
}

// BaseState returns a copy of the current speculative state.
func (m *Mempool) BaseState() *chain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Height returns the height of the block the pool collects transactions for.
func (m *Mempool) Height() chain.Height {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Height
}

// ApplyTransaction applies a transaction to the speculative state. It is
// remembered as recently seen even if it is not applicable.
func (m *Mempool) ApplyTransaction(tx chain.Transaction) error {
	m.recent.Set(tx.Hash(), tx)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.ApplyTx(tx, m.transition)
}

// Pending lists the transactions applied since the last rebase.
func (m *Mempool) Pending() []chain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Applied()
}

// LookupRecentTx returns a recently seen transaction. It serves as the cache
// consulted when synchronizing blocks.
func (m *Mempool) LookupRecentTx(hash chain.TxHash) (chain.Transaction, bool) {
	return m.recent.Get(hash)
}

// Remember records transactions as recently seen without applying them.
func (m *Mempool) Remember(txs ...chain.Transaction) {
	for _, tx := range txs {
		m.recent.Set(tx.Hash(), tx)
	}
}

// Rebase replaces the speculative state if next is for a later block. All
// pending transactions are dropped.
func (m *Mempool) Rebase(next *chain.State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if next.Height <= m.state.Height {
		return false
	}
	m.state = next.Clone()
	return true
}
