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
	"time"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultRequestTimeout bounds every request sent to a peer.
	DefaultRequestTimeout = 5 * time.Second
	// DefaultMaxConcurrentFetches bounds the number of transaction requests
	// in flight while fetching a single block.
	DefaultMaxConcurrentFetches = 20
)

// Config tunes a Client. Zero fields are replaced by defaults.
type Config struct {
	RequestTimeout       time.Duration
	MaxConcurrentFetches int
	// SkipBranchVerification disables checking fetched transactions against
	// the transaction root of their block.
	SkipBranchVerification bool
	// Hasher is the tree hashing scheme of the chain; smt.Blake3 if nil.
	Hasher  smt.Hasher
	Logger  *zap.Logger
	Metrics *Metrics
}

// DefaultConfig is the configuration of clients created without one.
var DefaultConfig = Config{
	RequestTimeout:       DefaultRequestTimeout,
	MaxConcurrentFetches: DefaultMaxConcurrentFetches,
	Hasher:               smt.Blake3,
}

// TxCache resolves transactions known locally by their hash.
type TxCache func(chain.TxHash) (chain.Transaction, bool)

// Client fetches blocks one at a time from a single peer.
type Client struct {
	peer    Peer
	config  Config
	log     *zap.Logger
	metrics *Metrics
}

// NewClient creates a client fetching blocks from the given peer.
func NewClient(peer Peer, config Config) *Client {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	if config.MaxConcurrentFetches <= 0 {
		config.MaxConcurrentFetches = DefaultMaxConcurrentFetches
	}
	if config.Hasher == nil {
		config.Hasher = smt.Blake3
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metrics := config.Metrics
	if metrics == nil {
		metrics = newUnregisteredMetrics()
	}
	return &Client{peer: peer, config: config, log: log, metrics: metrics}
}

// GetOneBlock fetches the block at the given height. Transactions found in
// the cache are not requested from the peer; all others are fetched
// concurrently and checked against the block's transaction root. Any failing
// request fails the whole block.
func (c *Client) GetOneBlock(ctx context.Context, height chain.Height, cache TxCache) (*chain.Block, chain.ConsensusProof, error) {
	requestCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	abbreviated, proof, err := c.peer.GetAbbreviatedBlock(requestCtx, height)
	cancel()
	if err != nil {
		return nil, chain.ConsensusProof{}, requestError(err, fmt.Sprintf("block %d", height))
	}
	if abbreviated.Header.Height != height {
		return nil, chain.ConsensusProof{}, fmt.Errorf("%w: requested block %d, got block %d", ErrProtocolViolation, height, abbreviated.Header.Height)
	}

	txs := make([]chain.Transaction, len(abbreviated.TxHashes))
	var unknown []int
	for i, hash := range abbreviated.TxHashes {
		if cache != nil {
			if tx, found := cache(hash); found && tx.Hash() == hash {
				txs[i] = tx
				c.metrics.cacheHits.Inc()
				continue
			}
		}
		unknown = append(unknown, i)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.config.MaxConcurrentFetches)
	for _, i := range unknown {
		i := i
		group.Go(func() error {
			tx, err := c.fetchTransaction(groupCtx, &abbreviated.Header, abbreviated.TxHashes[i])
			if err != nil {
				return err
			}
			txs[i] = tx
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, chain.ConsensusProof{}, err
	}

	c.metrics.blocksFetched.Inc()
	c.log.Debug("fetched block",
		zap.Uint64("height", uint64(height)),
		zap.Int("transactions", len(txs)),
		zap.Int("fetched", len(unknown)),
	)
	return &chain.Block{
		Header:         abbreviated.Header,
		Transactions:   txs,
		ProposerAction: abbreviated.ProposerAction,
	}, proof, nil
}

func (c *Client) fetchTransaction(ctx context.Context, header *chain.Header, hash chain.TxHash) (chain.Transaction, error) {
	c.metrics.inFlight.Inc()
	defer c.metrics.inFlight.Dec()
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	key := chain.TransactionKey(hash)
	value, compressed, err := c.peer.GetAuthenticatedBranch(ctx, header.Height, chain.Transactions, key)
	if err != nil {
		return chain.Transaction{}, requestError(err, fmt.Sprintf("transaction %v", hash))
	}
	tx, err := chain.Decode[chain.Transaction](value)
	if err != nil {
		return chain.Transaction{}, err
	}
	if got := tx.Hash(); got != hash {
		return chain.Transaction{}, fmt.Errorf("%w: requested transaction %v, got %v", ErrProtocolViolation, hash, got)
	}
	if !c.config.SkipBranchVerification {
		proof, ok := compressed.Decompress()
		if !ok {
			return chain.Transaction{}, fmt.Errorf("%w: malformed proof for transaction %v", ErrProtocolViolation, hash)
		}
		if verdict := proof.Verify(c.config.Hasher, header.TransactionsRoot, key, value); verdict != smt.Included {
			return chain.Transaction{}, fmt.Errorf("%w: transaction %v not proven to be in block %d (%v)", ErrProtocolViolation, hash, header.Height, verdict)
		}
	}
	c.metrics.txsFetched.Inc()
	return tx, nil
}

// requestError classifies the failure of a request to a peer.
func requestError(err error, what string) error {
	switch {
	case errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrProtocolViolation) || errors.Is(err, ErrUnknownHeight):
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: failed to fetch %s: %w", ErrTimeout, what, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("failed to fetch %s: %w", what, err)
	}
	return fmt.Errorf("%w: failed to fetch %s: %w", ErrUnavailable, what, err)
}
