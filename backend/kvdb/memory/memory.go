// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package memory

import (
	"fmt"
	"sync"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/common"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Database is an in-memory kvdb.Database. Flush is a no-op; all content is
// lost when the process terminates.
type Database struct {
	mu      sync.RWMutex
	data    map[string][]byte
	closed  bool
	flushes int
}

// New creates an empty in-memory database.
func New() *Database {
	return &Database{data: map[string][]byte{}}
}

func (m *Database) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, common.ErrClosed
	}
	value, found := m.data[string(key)]
	if !found {
		return nil, fmt.Errorf("%w: %x", common.ErrNotFound, key)
	}
	return slices.Clone(value), nil
}

func (m *Database) Has(key []byte) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, common.ErrClosed
	}
	_, found := m.data[string(key)]
	return found, nil
}

func (m *Database) Put(key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return common.ErrClosed
	}
	m.data[string(key)] = slices.Clone(value)
	return nil
}

func (m *Database) Delete(key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return common.ErrClosed
	}
	delete(m.data, string(key))
	return nil
}

func (m *Database) NewBatch() kvdb.Batch {
	return &batch{db: m}
}

func (m *Database) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return common.ErrClosed
	}
	m.flushes++
	return nil
}

func (m *Database) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Keys returns all keys currently stored, in no particular order.
func (m *Database) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Keys(m.data)
}

// Flushes returns the number of Flush calls observed so far.
func (m *Database) Flushes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flushes
}

type operation struct {
	key    string
	value  []byte
	delete bool
}

type batch struct {
	db  *Database
	ops []operation
}

func (b *batch) Put(key, value []byte) {
	b.ops = append(b.ops, operation{key: string(key), value: slices.Clone(value)})
}

func (b *batch) Delete(key []byte) {
	b.ops = append(b.ops, operation{key: string(key), delete: true})
}

func (b *batch) Len() int {
	return len(b.ops)
}

func (b *batch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	if b.db.closed {
		return common.ErrClosed
	}
	for _, op := range b.ops {
		if op.delete {
			delete(b.db.data, op.key)
		} else {
			b.db.data[op.key] = op.value
		}
	}
	return nil
}

func (b *batch) Reset() {
	b.ops = b.ops[:0]
}
