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
	"hash"
	"sync"

	"github.com/ledgerlab/ledgerstore/common"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

// Hasher defines the two hash functions a tree is built from. Both map the
// empty input to the zero sentinel: DataBlock of empty data and Node of two
// sentinels are the sentinel, which makes absent subtrees free.
type Hasher interface {
	// DataBlock hashes the value stored for a key.
	DataBlock(data []byte) common.Hash
	// Node hashes an inner node from the hashes of its children.
	Node(left, right common.Hash) common.Hash
	// Name identifies the scheme in configurations.
	Name() string
}

// Domain separation tags keep data blocks and inner nodes apart.
const (
	dataBlockTag = 0x00
	nodeTag      = 0x01
)

// Blake3 is the default hashing scheme.
var Blake3 Hasher = newPooledHasher("blake3", func() hash.Hash { return blake3.New() })

// Keccak256 hashes tree nodes with Keccak-256 as used by Ethereum tooling.
var Keccak256 Hasher = newPooledHasher("keccak256", sha3.NewLegacyKeccak256)

// HasherByName resolves the name of a hashing scheme.
func HasherByName(name string) (Hasher, error) {
	switch name {
	case "", Blake3.Name():
		return Blake3, nil
	case Keccak256.Name():
		return Keccak256, nil
	}
	return nil, fmt.Errorf("unknown hash scheme %q", name)
}

type pooledHasher struct {
	name string
	pool sync.Pool
}

func newPooledHasher(name string, create func() hash.Hash) *pooledHasher {
	return &pooledHasher{
		name: name,
		pool: sync.Pool{New: func() any { return create() }},
	}
}

func (h *pooledHasher) Name() string {
	return h.name
}

func (h *pooledHasher) DataBlock(data []byte) common.Hash {
	if len(data) == 0 {
		return common.Hash{}
	}
	return h.sum([]byte{dataBlockTag}, data)
}

func (h *pooledHasher) Node(left, right common.Hash) common.Hash {
	if left.IsZero() && right.IsZero() {
		return common.Hash{}
	}
	return h.sum([]byte{nodeTag}, left[:], right[:])
}

func (h *pooledHasher) sum(parts ...[]byte) common.Hash {
	hasher := h.pool.Get().(hash.Hash)
	defer h.pool.Put(hasher)
	hasher.Reset()
	for _, part := range parts {
		hasher.Write(part)
	}
	var res common.Hash
	hasher.Sum(res[:0])
	return res
}
