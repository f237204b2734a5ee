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

	"github.com/ledgerlab/ledgerstore/common"
)

// Height is the position of a block in the chain; genesis is at height 0.
type Height uint64

// NetID identifies a network; distinct networks never share blocks.
type NetID uint8

const (
	Testnet NetID = 0x01
	Custom  NetID = 0x02
	Mainnet NetID = 0xff
)

func (n NetID) String() string {
	switch n {
	case Testnet:
		return "testnet"
	case Custom:
		return "custom"
	case Mainnet:
		return "mainnet"
	}
	return fmt.Sprintf("net-%d", uint8(n))
}

// ParseNetID resolves a network name as produced by NetID.String.
func ParseNetID(name string) (NetID, error) {
	for _, id := range []NetID{Testnet, Custom, Mainnet} {
		if id.String() == name {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown network %q", name)
}

// TxHash identifies a transaction by the hash of its encoding.
type TxHash = common.Hash

// TxKind selects how a transaction affects the storage substate.
type TxKind uint8

const (
	// KindNormal transactions only pay their fee.
	KindNormal TxKind = 0x00
	// KindWrite transactions carry a list of key/value pairs to store.
	KindWrite TxKind = 0x01
)

// Transaction is the unit of state change submitted by users.
type Transaction struct {
	Kind  TxKind
	Fee   uint64
	Data  []byte
	Nonce uint64
}

// Hash returns the hash identifying the transaction.
func (t *Transaction) Hash() TxHash {
	return hashOf(t)
}

// KeyValue is a single write of a KindWrite transaction or a genesis entry.
type KeyValue struct {
	Key   common.Hash `json:"key"`
	Value []byte      `json:"value"`
}

// ProposerAction is the block proposer's adjustment of the fee multiplier
// and the destination of its reward.
type ProposerAction struct {
	// FeeMultiplierDelta is interpreted as a signed 8-bit value.
	FeeMultiplierDelta uint8
	RewardDest         common.Hash
}

// Header summarizes a block and commits to the state resulting from it.
type Header struct {
	NetID            NetID
	Previous         common.Hash
	Height           Height
	TransactionsRoot common.Hash
	StorageRoot      common.Hash
	FeePool          uint64
	FeeMultiplier    uint64
	ProposerHash     common.Hash
}

// Hash returns the hash identifying the header and thereby its block.
func (h *Header) Hash() common.Hash {
	return hashOf(h)
}

// Block is a header together with the full list of its transactions.
type Block struct {
	Header         Header
	Transactions   []Transaction
	ProposerAction ProposerAction
}

// Abbreviate replaces the transactions of the block by their hashes.
func (b *Block) Abbreviate() AbbreviatedBlock {
	hashes := make([]TxHash, len(b.Transactions))
	for i := range b.Transactions {
		hashes[i] = b.Transactions[i].Hash()
	}
	return AbbreviatedBlock{
		Header:         b.Header,
		TxHashes:       hashes,
		ProposerAction: b.ProposerAction,
	}
}

// AbbreviatedBlock is what peers send first when synchronizing; receivers
// only fetch the transactions they do not know yet.
type AbbreviatedBlock struct {
	Header         Header
	TxHashes       []TxHash
	ProposerAction ProposerAction
}

// Signature is a single consensus participant's vote on a block.
type Signature struct {
	Signer common.Hash
	Sig    []byte
}

// ConsensusProof is the evidence that a block was finalized. Its content is
// produced and checked by the consensus protocol and kept verbatim here.
type ConsensusProof struct {
	Signatures []Signature
}

// TrustedHeight is a checkpoint a node trusts for a network.
type TrustedHeight struct {
	Height     Height
	HeaderHash common.Hash
}

// Substate selects one of the authenticated trees of a sealed state.
type Substate uint8

const (
	Transactions Substate = iota
	Storage
)

func (s Substate) String() string {
	switch s {
	case Transactions:
		return "transactions"
	case Storage:
		return "storage"
	}
	return fmt.Sprintf("substate-%d", uint8(s))
}
