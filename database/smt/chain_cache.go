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

import "github.com/ledgerlab/ledgerstore/common"

// DefaultChainCacheSize is the number of proof chains retained by default.
const DefaultChainCacheSize = 10_000

// ProofChain lists the hashes of the subtree containing a single key/value
// pair, one per level. Index 0 is the hash at the root level, index Depth is
// the data block of the value. Chains handed out by a ChainCache are shared
// and must not be modified.
type ProofChain [Depth + 1]common.Hash

// ComputeProofChain derives the chain of a key/value pair without caching.
func ComputeProofChain(hasher Hasher, key common.Hash, data []byte) *ProofChain {
	res := new(ProofChain)
	ptr := hasher.DataBlock(data)
	res[Depth] = ptr
	for i := Depth - 1; i >= 0; i-- {
		if ptr.IsZero() {
			continue // all upper levels stay at the sentinel
		}
		if bit(key, i) {
			ptr = hasher.Node(common.Hash{}, ptr)
		} else {
			ptr = hasher.Node(ptr, common.Hash{})
		}
		res[i] = ptr
	}
	return res
}

type chainKey struct {
	key  common.Hash
	data string
}

// ChainCache memoizes proof chains of recently used key/value pairs. It is
// safe for concurrent use and bounded by an LRU policy.
type ChainCache struct {
	hasher Hasher
	cache  *common.SyncedLruCache[chainKey, *ProofChain]
}

// NewChainCache creates a cache retaining up to capacity chains computed
// with the given hasher. A non-positive capacity selects the default.
func NewChainCache(hasher Hasher, capacity int) *ChainCache {
	if capacity <= 0 {
		capacity = DefaultChainCacheSize
	}
	return &ChainCache{
		hasher: hasher,
		cache:  common.NewSyncedLruCache[chainKey, *ProofChain](capacity),
	}
}

// Get returns the proof chain of the given key/value pair.
func (c *ChainCache) Get(key common.Hash, data []byte) *ProofChain {
	id := chainKey{key: key, data: string(data)}
	if res, found := c.cache.Get(id); found {
		return res
	}
	res := ComputeProofChain(c.hasher, key, data)
	c.cache.Set(id, res)
	return res
}

// Len returns the number of cached chains.
func (c *ChainCache) Len() int {
	return c.cache.Len()
}

// Stats reports cache hits and misses.
func (c *ChainCache) Stats() (hits, misses uint64) {
	return c.cache.Stats()
}
