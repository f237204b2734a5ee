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

// Tree is an immutable version of a sparse Merkle tree. Updates produce new
// versions sharing unmodified nodes with their predecessor.
type Tree struct {
	db   *Database
	root common.Hash
}

// Root returns the root hash committing to the content of the tree.
func (t *Tree) Root() common.Hash {
	return t.root
}

// Database returns the node pool this tree lives in.
func (t *Tree) Database() *Database {
	return t.db
}

// Get returns the value of the given key, or an empty slice if it is absent.
func (t *Tree) Get(key common.Hash) ([]byte, error) {
	value, _, err := t.lookup(key, false)
	return value, err
}

// Prove returns the value of the given key together with a proof of its
// inclusion or, if the value is empty, its absence.
func (t *Tree) Prove(key common.Hash) ([]byte, FullProof, error) {
	return t.lookup(key, true)
}

func (t *Tree) lookup(key common.Hash, withProof bool) ([]byte, FullProof, error) {
	var proof FullProof
	if withProof {
		proof = make(FullProof, Depth)
	}
	ptr := t.root
	for depth := 0; depth <= Depth; depth++ {
		if ptr.IsZero() {
			return []byte{}, proof, nil
		}
		n, err := t.db.loadNode(ptr, depth, key)
		if err != nil {
			return nil, nil, err
		}
		if !n.leaf && depth == Depth {
			return nil, nil, fmt.Errorf("%w: inner node below maximum depth", ErrCorruptedNode)
		}
		if n.leaf {
			if n.key == key {
				return n.value, proof, nil
			}
			if withProof {
				// The other key is the only one below; it diverges from
				// the path of key at depth i.
				i := firstDifference(key, n.key, depth)
				if i >= Depth {
					return nil, nil, fmt.Errorf("%w: leaf %v misplaced at depth %d", ErrCorruptedNode, n.key, depth)
				}
				proof[i] = t.db.ProofChain(n.key, n.value)[i+1]
			}
			return []byte{}, proof, nil
		}
		if bit(key, depth) {
			if withProof {
				proof[depth] = n.left
			}
			ptr = n.right
		} else {
			if withProof {
				proof[depth] = n.right
			}
			ptr = n.left
		}
	}
	return []byte{}, proof, nil
}

// Set returns a new version of the tree in which key holds value. An empty
// value removes the key. The receiver is not modified.
func (t *Tree) Set(key common.Hash, value []byte) (*Tree, error) {
	root, err := t.update(t.root, 0, key, value)
	if err != nil {
		return nil, err
	}
	return &Tree{db: t.db, root: root}, nil
}

// SetAll applies a sequence of updates in order.
func (t *Tree) SetAll(entries []KeyValue) (*Tree, error) {
	res := t
	for _, entry := range entries {
		var err error
		if res, err = res.Set(entry.Key, entry.Value); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// KeyValue is a single entry of a tree.
type KeyValue struct {
	Key   common.Hash
	Value []byte
}

// update sets key to value in the subtree with the given hash at depth and
// returns the hash of the resulting subtree.
func (t *Tree) update(ptr common.Hash, depth int, key common.Hash, value []byte) (common.Hash, error) {
	if ptr.IsZero() {
		return t.putLeaf(depth, key, value)
	}
	n, err := t.db.loadNode(ptr, depth, key)
	if err != nil {
		return common.Hash{}, err
	}
	if n.leaf {
		if n.key == key {
			return t.putLeaf(depth, key, value)
		}
		if len(value) == 0 {
			return ptr, nil
		}
		return t.split(depth, n.key, n.value, key, value)
	}
	left, right := n.left, n.right
	if bit(key, depth) {
		right, err = t.update(right, depth+1, key, value)
	} else {
		left, err = t.update(left, depth+1, key, value)
	}
	if err != nil {
		return common.Hash{}, err
	}
	return t.putInner(depth, key, left, right)
}

// split creates the subtree at depth holding the two given distinct keys.
func (t *Tree) split(depth int, keyA common.Hash, valueA []byte, keyB common.Hash, valueB []byte) (common.Hash, error) {
	sideA, sideB := bit(keyA, depth), bit(keyB, depth)
	var left, right common.Hash
	if sideA == sideB {
		child, err := t.split(depth+1, keyA, valueA, keyB, valueB)
		if err != nil {
			return common.Hash{}, err
		}
		if sideA {
			right = child
		} else {
			left = child
		}
	} else {
		childA, err := t.putLeaf(depth+1, keyA, valueA)
		if err != nil {
			return common.Hash{}, err
		}
		childB, err := t.putLeaf(depth+1, keyB, valueB)
		if err != nil {
			return common.Hash{}, err
		}
		left, right = childA, childB
		if sideA {
			left, right = childB, childA
		}
	}
	hash := t.db.hasher.Node(left, right)
	return hash, t.db.storeNode(hash, depth, keyB, &node{left: left, right: right})
}

// putLeaf stores the subtree at depth holding only key.
func (t *Tree) putLeaf(depth int, key common.Hash, value []byte) (common.Hash, error) {
	if len(value) == 0 {
		return common.Hash{}, nil
	}
	hash := t.db.ProofChain(key, value)[depth]
	return hash, t.db.storeNode(hash, depth, key, &node{leaf: true, key: key, value: value})
}

// putInner stores an inner node at depth on the path of key. Inner nodes
// left with a single leaf below them are replaced by that leaf.
func (t *Tree) putInner(depth int, key, left, right common.Hash) (common.Hash, error) {
	if left.IsZero() && right.IsZero() {
		return common.Hash{}, nil
	}
	if left.IsZero() != right.IsZero() {
		child, side := left, false
		if left.IsZero() {
			child, side = right, true
		}
		n, err := t.db.loadNode(child, depth+1, childPrefix(key, depth, side))
		if err != nil {
			return common.Hash{}, err
		}
		if n.leaf {
			return t.putLeaf(depth, n.key, n.value)
		}
	}
	hash := t.db.hasher.Node(left, right)
	return hash, t.db.storeNode(hash, depth, key, &node{left: left, right: right})
}

// Entries lists all key/value pairs of the tree in key order.
func (t *Tree) Entries() ([]KeyValue, error) {
	var res []KeyValue
	err := t.visit(t.root, 0, common.Hash{}, func(kv KeyValue) {
		res = append(res, kv)
	})
	return res, err
}

func (t *Tree) visit(ptr common.Hash, depth int, prefix common.Hash, consume func(KeyValue)) error {
	if ptr.IsZero() {
		return nil
	}
	n, err := t.db.loadNode(ptr, depth, prefix)
	if err != nil {
		return err
	}
	if n.leaf {
		consume(KeyValue{Key: n.key, Value: n.value})
		return nil
	}
	if err := t.visit(n.left, depth+1, childPrefix(prefix, depth, false), consume); err != nil {
		return err
	}
	return t.visit(n.right, depth+1, childPrefix(prefix, depth, true), consume)
}
