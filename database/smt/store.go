// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package smt

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/common"
	"golang.org/x/exp/slices"
)

// ErrMissingNode is reported when a referenced node is not in the store.
const ErrMissingNode = common.ConstError("missing node")

// NodeStore is a content-addressed store of encoded tree nodes. Nodes are
// never modified once written, so stores need no invalidation.
type NodeStore interface {
	// Get returns the node stored under id or an error wrapping ErrMissingNode.
	Get(id common.Hash) ([]byte, error)
	// Put stores a node. The data must not be modified afterwards.
	Put(id common.Hash, data []byte) error
	// Flush makes all nodes written so far durable.
	Flush() error
}

// MemoryNodeStore keeps all nodes in memory.
type MemoryNodeStore struct {
	mu    sync.RWMutex
	nodes map[common.Hash][]byte
}

func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{nodes: map[common.Hash][]byte{}}
}

func (s *MemoryNodeStore) Get(id common.Hash) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if data, found := s.nodes[id]; found {
		return data, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrMissingNode, id)
}

func (s *MemoryNodeStore) Put(id common.Hash, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[id] = data
	return nil
}

func (s *MemoryNodeStore) Flush() error {
	return nil
}

// Len returns the number of stored nodes.
func (s *MemoryNodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// DefaultNodeCacheSize is the number of nodes a KVNodeStore keeps cached.
const DefaultNodeCacheSize = 100_000

// KVNodeStore persists nodes in a key-value namespace. Writes are buffered
// until the next Flush; reads are served from the buffer, an LRU cache or the
// backing store, in this order.
type KVNodeStore struct {
	dict    *kvdb.Dict
	cache   *common.SyncedLruCache[common.Hash, []byte]
	mu      sync.Mutex
	pending map[common.Hash][]byte
}

// NewKVNodeStore creates a store on top of the given namespace. A
// non-positive cache size selects DefaultNodeCacheSize.
func NewKVNodeStore(dict *kvdb.Dict, cacheSize int) *KVNodeStore {
	if cacheSize <= 0 {
		cacheSize = DefaultNodeCacheSize
	}
	return &KVNodeStore{
		dict:    dict,
		cache:   common.NewSyncedLruCache[common.Hash, []byte](cacheSize),
		pending: map[common.Hash][]byte{},
	}
}

func (s *KVNodeStore) Get(id common.Hash) ([]byte, error) {
	s.mu.Lock()
	data, found := s.pending[id]
	s.mu.Unlock()
	if found {
		return data, nil
	}
	if data, found := s.cache.Get(id); found {
		return data, nil
	}
	data, err := s.dict.Get(id[:])
	if errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrMissingNode, id)
	}
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, data)
	return data, nil
}

func (s *KVNodeStore) Put(id common.Hash, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[id] = data
	return nil
}

// Flush writes all buffered nodes in a single batch and flushes the
// underlying store.
func (s *KVNodeStore) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		batch := s.dict.NewBatch()
		for id, data := range s.pending {
			batch.Put(slices.Clone(id[:]), data)
		}
		if err := batch.Write(); err != nil {
			return err
		}
		for id, data := range s.pending {
			s.cache.Set(id, data)
		}
		s.pending = map[common.Hash][]byte{}
	}
	return s.dict.Flush()
}

// Pending returns the number of nodes not yet written to the backing store.
func (s *KVNodeStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
