// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package blksync

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common/interrupt"
	"github.com/ledgerlab/ledgerstore/storage"
	"go.uber.org/zap"
)

// Syncer brings a local store up to a target height by fetching one block
// after the other from a single peer.
type Syncer struct {
	client *Client
	store  *storage.Service
	log    *zap.Logger
}

// NewSyncer creates a syncer applying the blocks fetched by client to store.
func NewSyncer(client *Client, store *storage.Service, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Syncer{client: client, store: store, log: log}
}

// SyncTo fetches and applies all blocks above the local highest height up to
// and including target. Recently seen transactions of the local mempool are
// not fetched again. It stops at the first failure and returns the height
// reached.
func (s *Syncer) SyncTo(ctx context.Context, target chain.Height) (chain.Height, error) {
	pool := s.store.Mempool()
	for height := s.store.HighestHeight() + 1; height <= target; height++ {
		if interrupt.IsCancelled(ctx) {
			return s.store.HighestHeight(), errors.Join(interrupt.ErrCanceled, ctx.Err())
		}
		block, proof, err := s.client.GetOneBlock(ctx, height, pool.LookupRecentTx)
		if err != nil {
			return s.store.HighestHeight(), err
		}
		if err := s.store.ApplyBlock(block, proof); err != nil {
			return s.store.HighestHeight(), fmt.Errorf("failed to apply block %d: %w", height, err)
		}
		s.log.Debug("synced block", zap.Uint64("height", uint64(height)))
	}
	return s.store.HighestHeight(), nil
}
