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

// ErrMalformedProof is reported for proofs of the wrong shape.
const ErrMalformedProof = common.ConstError("malformed proof")

const bitmapSize = Depth / 8

// FullProof lists the sibling hashes along the path of a key. Element i is
// the sibling of the node at depth i+1, so index 0 is nearest to the root.
type FullProof []common.Hash

// CompressedProof is the wire form of a FullProof: a 32-byte bitmap with a
// set bit for every sentinel sibling, followed by the remaining siblings in
// level order.
type CompressedProof []byte

// Compress encodes the proof in its compact wire form.
func (p FullProof) Compress() (CompressedProof, error) {
	if len(p) != Depth {
		return nil, fmt.Errorf("%w: %d levels, expected %d", ErrMalformedProof, len(p), Depth)
	}
	res := make([]byte, bitmapSize, bitmapSize+common.HashSize*4)
	for i, h := range p {
		if h.IsZero() {
			res[i/8] |= 0x80 >> (i % 8)
		} else {
			res = append(res, h[:]...)
		}
	}
	return res, nil
}

// Decompress restores the full proof. It reports false if the encoding is
// malformed.
func (c CompressedProof) Decompress() (FullProof, bool) {
	if len(c) < bitmapSize || len(c)%common.HashSize != 0 {
		return nil, false
	}
	bitmap, tail := c[:bitmapSize], c[bitmapSize:]
	res := make(FullProof, Depth)
	for i := range res {
		if bitmap[i/8]&(0x80>>(i%8)) != 0 {
			continue
		}
		if len(tail) == 0 {
			return nil, false
		}
		copy(res[i][:], tail[:common.HashSize])
		tail = tail[common.HashSize:]
	}
	if len(tail) != 0 {
		return nil, false
	}
	return res, true
}

// Verify checks the proof against a root for the given key. It first tries to
// show that the key holds value and then that the key is absent. An empty
// value denotes absence, so it can only be excluded.
func (p FullProof) Verify(hasher Hasher, root, key common.Hash, value []byte) Verdict {
	if len(p) != Depth {
		return Invalid
	}
	if len(value) > 0 && p.rootFor(hasher, key, value) == root {
		return Included
	}
	if p.rootFor(hasher, key, nil) == root {
		return Excluded
	}
	return Invalid
}

// rootFor recomputes the root implied by the proof for a key/value pair.
func (p FullProof) rootFor(hasher Hasher, key common.Hash, value []byte) common.Hash {
	ptr := hasher.DataBlock(value)
	for i := Depth - 1; i >= 0; i-- {
		if bit(key, i) {
			ptr = hasher.Node(p[i], ptr)
		} else {
			ptr = hasher.Node(ptr, p[i])
		}
	}
	return ptr
}
