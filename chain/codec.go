// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/zeebo/blake3"
)

// ErrDecode is reported for values that can not be deserialized.
const ErrDecode = common.ConstError("decode failure")

// Encode serializes a value in the canonical wire format.
func Encode(v any) ([]byte, error) {
	return rlp.EncodeToBytes(v)
}

// Decode deserializes data produced by Encode into a value of type T.
// Failures wrap ErrDecode.
func Decode[T any](data []byte) (T, error) {
	var res T
	if err := rlp.DecodeBytes(data, &res); err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %T: %v", ErrDecode, res, err)
	}
	return res, nil
}

// mustEncode serializes one of the types of this package; those are always
// encodable.
func mustEncode(v any) []byte {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		panic(fmt.Sprintf("failed to encode %T: %v", v, err))
	}
	return data
}

// HashBytes is the general purpose hash function of the ledger.
func HashBytes(data []byte) common.Hash {
	return blake3.Sum256(data)
}

func hashOf(v any) common.Hash {
	return HashBytes(mustEncode(v))
}

// TransactionKey is the key of a transaction in the transactions substate.
func TransactionKey(hash TxHash) common.Hash {
	return hashOf(hash)
}
