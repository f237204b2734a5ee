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

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
)

//go:generate mockgen -source peer.go -destination peer_mocks.go -package blksync

// Peer is the request/response contract a remote node offers to nodes
// synchronizing from it. Implementations must honor the deadline of the
// given context.
type Peer interface {
	// GetAbbreviatedBlock returns the block at the given height with its
	// transactions replaced by their hashes, together with the block's
	// consensus proof.
	GetAbbreviatedBlock(ctx context.Context, height chain.Height) (chain.AbbreviatedBlock, chain.ConsensusProof, error)

	// GetAuthenticatedBranch returns the value of key in the given substate
	// of the state at the given height together with a proof authenticating
	// it against the state's root.
	GetAuthenticatedBranch(ctx context.Context, height chain.Height, substate chain.Substate, key common.Hash) ([]byte, smt.CompressedProof, error)
}

const (
	// ErrTimeout is reported if a peer does not answer in time. Requests
	// failing with it may be retried.
	ErrTimeout = common.ConstError("request timed out")
	// ErrUnavailable is reported if a peer could not be reached. Requests
	// failing with it may be retried.
	ErrUnavailable = common.ConstError("peer unavailable")
	// ErrProtocolViolation is reported for responses a correct peer would
	// never produce. The peer should not be trusted any more.
	ErrProtocolViolation = common.ConstError("protocol violation")
	// ErrUnknownHeight is reported by peers asked for heights they do not
	// have.
	ErrUnknownHeight = common.ConstError("unknown height")
)

// IsRetryable reports whether a failed request may succeed if repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable)
}
