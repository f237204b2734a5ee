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
	"fmt"

	"github.com/ledgerlab/ledgerstore/common"
)

// Config lists the tuning options of a Database.
type Config struct {
	// Hasher is the hashing scheme; Blake3 if nil.
	Hasher Hasher
	// ChainCacheSize bounds the proof chain cache; DefaultChainCacheSize if zero.
	ChainCacheSize int
}

// DefaultConfig is the configuration used by NewDatabase if none is given.
var DefaultConfig = Config{
	Hasher:         Blake3,
	ChainCacheSize: DefaultChainCacheSize,
}

// Database is a shared pool of tree nodes. Any number of tree versions may
// live in the same database; nodes common to several versions are stored
// once. A Database is safe for concurrent use.
type Database struct {
	store  NodeStore
	hasher Hasher
	chains *ChainCache
}

// NewDatabase creates a database on top of the given node store.
func NewDatabase(store NodeStore, config Config) *Database {
	hasher := config.Hasher
	if hasher == nil {
		hasher = Blake3
	}
	return &Database{
		store:  store,
		hasher: hasher,
		chains: NewChainCache(hasher, config.ChainCacheSize),
	}
}

// NewMemoryDatabase creates a database backed by a fresh in-memory store.
func NewMemoryDatabase() *Database {
	return NewDatabase(NewMemoryNodeStore(), DefaultConfig)
}

func (db *Database) Hasher() Hasher {
	return db.hasher
}

// ProofChain returns the, possibly cached, proof chain of a key/value pair.
func (db *Database) ProofChain(key common.Hash, data []byte) *ProofChain {
	return db.chains.Get(key, data)
}

// ChainCache exposes the proof chain cache for inspection.
func (db *Database) ChainCache() *ChainCache {
	return db.chains
}

// Tree returns a view on the tree with the given root. The nodes of the tree
// are only accessed when the view is used.
func (db *Database) Tree(root common.Hash) *Tree {
	return &Tree{db: db, root: root}
}

// EmptyTree returns a view on the tree holding no keys.
func (db *Database) EmptyTree() *Tree {
	return db.Tree(common.Hash{})
}

// Verify checks a proof using the hashing scheme of this database.
func (db *Database) Verify(proof FullProof, root, key common.Hash, value []byte) Verdict {
	return proof.Verify(db.hasher, root, key, value)
}

// Flush makes all nodes written so far durable.
func (db *Database) Flush() error {
	return db.store.Flush()
}

func (db *Database) loadNode(hash common.Hash, depth int, prefix common.Hash) (*node, error) {
	data, err := db.store.Get(nodeID(db.hasher, hash, depth, prefix))
	if err != nil {
		return nil, fmt.Errorf("failed to load node %v at depth %d: %w", hash, depth, err)
	}
	return decodeNode(data)
}

func (db *Database) storeNode(hash common.Hash, depth int, prefix common.Hash, n *node) error {
	return db.store.Put(nodeID(db.hasher, hash, depth, prefix), n.encode())
}
