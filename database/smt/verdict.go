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

// Verdict is the outcome of verifying a proof. The zero value is Invalid.
type Verdict byte

const (
	// Invalid means the proof matches neither the given value nor absence.
	Invalid Verdict = iota
	// Included means the proof shows the key holds the given value.
	Included
	// Excluded means the proof shows the key is absent.
	Excluded
)

func (v Verdict) String() string {
	switch v {
	case Included:
		return "included"
	case Excluded:
		return "excluded"
	}
	return "invalid"
}
