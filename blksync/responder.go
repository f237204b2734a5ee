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
	"fmt"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"github.com/ledgerlab/ledgerstore/storage"
)

// Responder answers the requests of synchronizing peers from a local store.
type Responder struct {
	store *storage.Service
}

// NewResponder creates a responder serving the given store.
func NewResponder(store *storage.Service) *Responder {
	return &Responder{store: store}
}

func (r *Responder) GetAbbreviatedBlock(ctx context.Context, height chain.Height) (chain.AbbreviatedBlock, chain.ConsensusProof, error) {
	if err := ctx.Err(); err != nil {
		return chain.AbbreviatedBlock{}, chain.ConsensusProof{}, err
	}
	block, found, err := r.store.BlockAt(height)
	if err != nil {
		return chain.AbbreviatedBlock{}, chain.ConsensusProof{}, err
	}
	if !found {
		return chain.AbbreviatedBlock{}, chain.ConsensusProof{}, fmt.Errorf("%w: %d", ErrUnknownHeight, height)
	}
	proof, _, err := r.store.ConsensusProofAt(height)
	if err != nil {
		return chain.AbbreviatedBlock{}, chain.ConsensusProof{}, err
	}
	return block.Abbreviate(), proof, nil
}

func (r *Responder) GetAuthenticatedBranch(ctx context.Context, height chain.Height, substate chain.Substate, key common.Hash) ([]byte, smt.CompressedProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	state, found, err := r.store.StateAt(height)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnknownHeight, height)
	}
	tree, err := state.Tree(substate)
	if err != nil {
		return nil, nil, err
	}
	value, proof, err := tree.Prove(key)
	if err != nil {
		return nil, nil, err
	}
	compressed, err := proof.Compress()
	if err != nil {
		return nil, nil, err
	}
	return value, compressed, nil
}

// Handle serves a request received through a Network.
func (r *Responder) Handle(ctx context.Context, msg Message) Message {
	switch request := msg.(type) {
	case GetAbbreviatedBlockRequest:
		block, proof, err := r.GetAbbreviatedBlock(ctx, request.Height)
		if err != nil {
			return newErrorMessage(err)
		}
		return GetAbbreviatedBlockResponse{Block: block, Proof: proof}
	case GetAuthenticatedBranchRequest:
		value, proof, err := r.GetAuthenticatedBranch(ctx, request.Height, request.Substate, request.Key)
		if err != nil {
			return newErrorMessage(err)
		}
		return GetAuthenticatedBranchResponse{Value: value, Proof: proof}
	}
	return newErrorMessage(fmt.Errorf("unsupported request %T", msg))
}
