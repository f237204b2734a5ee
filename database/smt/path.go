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

// Depth is the number of levels of the tree; keys are 256-bit hashes.
const Depth = 256

// Path is the root-to-leaf walk of a key: element i selects the right
// child at depth i if set, the left child otherwise.
type Path [Depth]bool

// PathOf derives the path of a key. Bit i of the path is bit i of the key's
// big-endian representation, most-significant bit first within each byte.
func PathOf(key common.Hash) Path {
	var res Path
	for i, b := range key {
		for j := 0; j < 8; j++ {
			res[i*8+j] = b&(0x80>>j) != 0
		}
	}
	return res
}

// Key restores the key a path was derived from.
func (p Path) Key() common.Hash {
	var res common.Hash
	for i, set := range p {
		if set {
			res[i/8] |= 0x80 >> (i % 8)
		}
	}
	return res
}

// bit returns element i of the path of key without materializing the path.
func bit(key common.Hash, i int) bool {
	return key[i/8]&(0x80>>(i%8)) != 0
}

// firstDifference returns the first depth at or below from at which the
// paths of a and b diverge, or Depth if they are equal from there on.
func firstDifference(a, b common.Hash, from int) int {
	for i := from; i < Depth; i++ {
		if bit(a, i) != bit(b, i) {
			return i
		}
	}
	return Depth
}

// prefixOf returns key with all bits at depth and below cleared.
func prefixOf(key common.Hash, depth int) common.Hash {
	var res common.Hash
	full := depth / 8
	copy(res[:full], key[:full])
	if rest := depth % 8; rest != 0 {
		res[full] = key[full] & ^byte(0xff>>rest)
	}
	return res
}

// childPrefix extends the prefix of a node at depth by the given side.
func childPrefix(prefix common.Hash, depth int, right bool) common.Hash {
	res := prefixOf(prefix, depth)
	if right {
		res[depth/8] |= 0x80 >> (depth % 8)
	}
	return res
}
