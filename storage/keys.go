// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

// Names of the namespaces within the backing key-value store.
const (
	nodeNamespace         = "smt"
	metadataNamespaceBase = "meta_genesis"
)

var lastConfirmedKey = []byte("last_confirmed")

// metadataNamespace scopes confirmed states to a genesis and a hash scheme.
// Blake3 keeps the plain genesis namespace.
func metadataNamespace(genesisID common.Hash, scheme string) string {
	namespace := metadataNamespaceBase + hex.EncodeToString(genesisID[:])
	if scheme == "" || scheme == smt.Blake3.Name() {
		return namespace
	}
	return namespace + "_" + scheme
}

func stateKey(height chain.Height) []byte {
	return []byte(fmt.Sprintf("state-%d", height))
}

func consensusProofKey(height chain.Height) []byte {
	return []byte(fmt.Sprintf("cproof-%d", height))
}

func blockKey(height chain.Height) []byte {
	return []byte(fmt.Sprintf("block-%d", height))
}

func trustKey(netID chain.NetID) ([]byte, error) {
	id, err := chain.Encode(netID)
	if err != nil {
		return nil, err
	}
	return append([]byte("trust-"), id...), nil
}
