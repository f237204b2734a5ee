// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HashSize is the number of bytes of a Hash.
const HashSize = 32

// Hash is a 256-bit digest. The all-zero value is reserved as the
// sentinel for absent or default entries.
type Hash [HashSize]byte

// IsZero returns true if h is the all-zero sentinel.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Compare orders hashes lexicographically by their big-endian bytes.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] < other[i] {
			return -1
		}
		if h[i] > other[i] {
			return 1
		}
	}
	return 0
}

// Bytes returns a copy of the hash as a byte slice.
func (h Hash) Bytes() []byte {
	return append([]byte{}, h[:]...)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText encodes the hash as a 0x-prefixed hex string.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte("0x" + h.String()), nil
}

// UnmarshalText parses the output of MarshalText.
func (h *Hash) UnmarshalText(text []byte) error {
	res, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = res
	return nil
}

// ParseHash decodes a hex string, with or without a 0x prefix, into a Hash.
func ParseHash(s string) (Hash, error) {
	var res Hash
	s = strings.TrimPrefix(s, "0x")
	data, err := hex.DecodeString(s)
	if err != nil {
		return res, err
	}
	if len(data) != HashSize {
		return res, fmt.Errorf("invalid hash length %d, expected %d", len(data), HashSize)
	}
	copy(res[:], data)
	return res, nil
}
