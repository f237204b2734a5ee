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
	"fmt"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/chain"
)

// TrustStore records the checkpoint trusted for each network. Entries live
// next to the metadata of the storage they belong to. It is safe for
// concurrent use.
type TrustStore struct {
	dict *kvdb.Dict
}

// SetTrusted records the checkpoint trusted for the given network,
// replacing any previous one.
func (t *TrustStore) SetTrusted(netID chain.NetID, trusted chain.TrustedHeight) error {
	key, err := trustKey(netID)
	if err != nil {
		return err
	}
	value, err := chain.Encode(&trusted)
	if err != nil {
		return err
	}
	if err := t.dict.Put(key, value); err != nil {
		return fmt.Errorf("%w: failed to record trusted height of %v: %w", ErrPersistence, netID, err)
	}
	return nil
}

// GetTrusted returns the checkpoint trusted for the given network, if any.
// Undecodable entries are reported as errors wrapping chain.ErrDecode.
func (t *TrustStore) GetTrusted(netID chain.NetID) (chain.TrustedHeight, bool, error) {
	key, err := trustKey(netID)
	if err != nil {
		return chain.TrustedHeight{}, false, err
	}
	return lookupDecoded[chain.TrustedHeight](t.dict, key)
}
