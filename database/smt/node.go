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
	"encoding/binary"
	"fmt"

	"github.com/ledgerlab/ledgerstore/common"
)

// ErrCorruptedNode is reported for stored nodes that can not be decoded.
const ErrCorruptedNode = common.ConstError("corrupted node")

const (
	innerNodeTag = 0x00
	leafNodeTag  = 0x01
)

// node is the decoded form of a stored tree node. A leaf stands for a
// subtree holding a single key; its hash is taken from the key's proof chain
// at the depth it is located at.
type node struct {
	leaf  bool
	left  common.Hash
	right common.Hash
	key   common.Hash
	value []byte
}

func (n *node) encode() []byte {
	if n.leaf {
		res := make([]byte, 0, 1+common.HashSize+len(n.value))
		res = append(res, leafNodeTag)
		res = append(res, n.key[:]...)
		return append(res, n.value...)
	}
	res := make([]byte, 0, 1+2*common.HashSize)
	res = append(res, innerNodeTag)
	res = append(res, n.left[:]...)
	return append(res, n.right[:]...)
}

func decodeNode(data []byte) (*node, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty encoding", ErrCorruptedNode)
	}
	switch data[0] {
	case innerNodeTag:
		if len(data) != 1+2*common.HashSize {
			return nil, fmt.Errorf("%w: inner node of %d bytes", ErrCorruptedNode, len(data))
		}
		res := &node{}
		copy(res.left[:], data[1:])
		copy(res.right[:], data[1+common.HashSize:])
		return res, nil
	case leafNodeTag:
		if len(data) <= 1+common.HashSize {
			return nil, fmt.Errorf("%w: leaf node of %d bytes", ErrCorruptedNode, len(data))
		}
		res := &node{leaf: true}
		copy(res.key[:], data[1:])
		res.value = append([]byte{}, data[1+common.HashSize:]...)
		return res, nil
	}
	return nil, fmt.Errorf("%w: unknown tag %d", ErrCorruptedNode, data[0])
}

// nodeID derives the storage key of a node. Subtree hashes only commit to the
// path below their position, so the position is part of the identity.
func nodeID(hasher Hasher, hash common.Hash, depth int, prefix common.Hash) common.Hash {
	var buffer [2*common.HashSize + 2]byte
	copy(buffer[:], hash[:])
	binary.BigEndian.PutUint16(buffer[common.HashSize:], uint16(depth))
	prefix = prefixOf(prefix, depth)
	copy(buffer[common.HashSize+2:], prefix[:])
	return hasher.DataBlock(buffer[:])
}
