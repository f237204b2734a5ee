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
	"time"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"github.com/ledgerlab/ledgerstore/mempool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const (
	// ErrSequenceViolation is reported for blocks not directly following the
	// highest state. The store is not modified.
	ErrSequenceViolation = common.ConstError("sequence violation")
	// ErrPersistence is reported if writing to the backing store failed.
	ErrPersistence = common.ConstError("persistence failure")
)

// Config lists the collaborators and tuning options of a Storage. The zero
// value is a valid configuration.
type Config struct {
	// Transition is the state-transition function; chain.KeyValueTransition
	// if nil.
	Transition chain.Transition
	// Tree configures the tree database.
	Tree smt.Config
	// NodeCacheSize is the number of tree nodes cached in memory.
	NodeCacheSize int
	// RecentTxCapacity is the number of transactions the mempool remembers.
	RecentTxCapacity int
	// Logger receives diagnostic messages; nothing is logged if nil.
	Logger *zap.Logger
	// Registerer receives the metrics of the store; unregistered if nil.
	Registerer prometheus.Registerer
	// MetricsNamespace prefixes the names of the metrics.
	MetricsNamespace string
}

// Storage maintains the chain of sealed states of a single genesis
// configuration on top of a key-value store. Several storages with different
// genesis configurations may share one key-value store; the tree nodes are
// shared among them.
//
// A Storage is not safe for concurrent use; see Service.
type Storage struct {
	kv         kvdb.KeyValueStore
	meta       *kvdb.Dict
	db         *smt.Database
	genesisID  common.Hash
	highest    *chain.SealedState
	mempool    *mempool.Mempool
	transition chain.Transition
	trust      *TrustStore
	log        *zap.Logger
	metrics    *metrics
}

// New opens the storage of the given genesis configuration. If the store
// holds a confirmed state of that configuration, it is resumed. Otherwise
// the genesis state is realized and persisted.
func New(kv kvdb.KeyValueStore, genesis chain.GenesisConfig, config Config) (*Storage, error) {
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}
	transition := config.Transition
	if transition == nil {
		transition = chain.KeyValueTransition{}
	}
	metrics, err := newMetrics(config.MetricsNamespace, config.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	genesisID := genesis.ID()
	nodes := smt.NewKVNodeStore(kvdb.OpenDict(kv, nodeNamespace), config.NodeCacheSize)
	db := smt.NewDatabase(nodes, config.Tree)
	meta := kvdb.OpenDict(kv, metadataNamespace(genesisID, db.Hasher().Name()))
	s := &Storage{
		kv:         kv,
		meta:       meta,
		db:         db,
		genesisID:  genesisID,
		transition: transition,
		trust:      &TrustStore{dict: meta},
		log:        log.With(zap.Stringer("genesis", genesisID)),
		metrics:    metrics,
	}

	data, found, err := kvdb.Lookup(meta, lastConfirmedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read last confirmed state: %w", ErrPersistence, err)
	}
	if found {
		if s.highest, err = chain.FromPartialEncoding(data, s.db); err != nil {
			return nil, fmt.Errorf("failed to restore last confirmed state: %w", err)
		}
		if err := s.dropAbove(s.highest.Height()); err != nil {
			return nil, err
		}
		s.log.Info("resumed chain", zap.Uint64("height", uint64(s.highest.Height())))
	} else {
		if s.highest, err = genesis.Realize(s.db); err != nil {
			return nil, err
		}
		block := chain.Block{Header: s.highest.Header(), ProposerAction: s.highest.ProposerAction()}
		if err := s.record(&block, chain.ConsensusProof{}, s.highest); err != nil {
			return nil, err
		}
		if err := s.Persist(); err != nil {
			return nil, err
		}
		s.log.Info("realized genesis", zap.Stringer("net", genesis.NetID))
	}
	s.mempool = mempool.NewWithCapacity(s.highest.NextState(), transition, recentTxCapacity(config))
	s.metrics.highestHeight.Set(float64(s.highest.Height()))
	return s, nil
}

func recentTxCapacity(config Config) int {
	if config.RecentTxCapacity > 0 {
		return config.RecentTxCapacity
	}
	return mempool.DefaultRecentTxCapacity
}

// GenesisID identifies the genesis configuration of this storage.
func (s *Storage) GenesisID() common.Hash {
	return s.genesisID
}

// Database returns the tree database shared by all states.
func (s *Storage) Database() *smt.Database {
	return s.db
}

func (s *Storage) Mempool() *mempool.Mempool {
	return s.mempool
}

func (s *Storage) TrustStore() *TrustStore {
	return s.trust
}

func (s *Storage) HighestState() *chain.SealedState {
	return s.highest
}

func (s *Storage) HighestHeight() chain.Height {
	return s.highest.Height()
}

// StateAt returns the sealed state at the given height, if known.
func (s *Storage) StateAt(height chain.Height) (*chain.SealedState, bool, error) {
	if height > s.highest.Height() {
		return nil, false, nil
	}
	data, found, err := kvdb.Lookup(s.meta, stateKey(height))
	if err != nil || !found {
		return nil, false, err
	}
	state, err := chain.FromPartialEncoding(data, s.db)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

// ConsensusProofAt returns the consensus proof of the block at the given
// height, if known.
func (s *Storage) ConsensusProofAt(height chain.Height) (chain.ConsensusProof, bool, error) {
	if height > s.highest.Height() {
		return chain.ConsensusProof{}, false, nil
	}
	return lookupDecoded[chain.ConsensusProof](s.meta, consensusProofKey(height))
}

// BlockAt returns the block at the given height, if known.
func (s *Storage) BlockAt(height chain.Height) (chain.Block, bool, error) {
	if height > s.highest.Height() {
		return chain.Block{}, false, nil
	}
	return lookupDecoded[chain.Block](s.meta, blockKey(height))
}

func lookupDecoded[T any](dict *kvdb.Dict, key []byte) (T, bool, error) {
	var zero T
	data, found, err := kvdb.Lookup(dict, key)
	if err != nil || !found {
		return zero, false, err
	}
	res, err := chain.Decode[T](data)
	if err != nil {
		return zero, false, err
	}
	return res, true, nil
}

// ApplyBlock appends a block to the chain. The block must directly follow
// the highest state, otherwise ErrSequenceViolation is reported and the
// storage is left unmodified.
func (s *Storage) ApplyBlock(block *chain.Block, proof chain.ConsensusProof) error {
	if want := s.highest.Height() + 1; block.Header.Height != want {
		return fmt.Errorf("%w: got block %d, expected %d", ErrSequenceViolation, block.Header.Height, want)
	}
	next, err := s.highest.ApplyBlock(block, s.transition)
	if err != nil {
		return err
	}
	if err := s.record(block, proof, next); err != nil {
		return err
	}
	s.highest = next
	s.mempool.Remember(block.Transactions...)
	s.mempool.Rebase(next.NextState())
	s.metrics.appliedBlocks.Inc()
	s.metrics.highestHeight.Set(float64(next.Height()))
	s.log.Debug("applied block",
		zap.Uint64("height", uint64(next.Height())),
		zap.Int("transactions", len(block.Transactions)),
		zap.Stringer("root", next.Root()),
	)
	return nil
}

// record writes the metadata of a new state in a single batch.
func (s *Storage) record(block *chain.Block, proof chain.ConsensusProof, state *chain.SealedState) error {
	encodedProof, err := chain.Encode(&proof)
	if err != nil {
		return err
	}
	encodedBlock, err := chain.Encode(block)
	if err != nil {
		return err
	}
	height := state.Height()
	batch := s.meta.NewBatch()
	batch.Put(stateKey(height), state.PartialEncoding())
	batch.Put(consensusProofKey(height), encodedProof)
	batch.Put(blockKey(height), encodedBlock)
	if err := batch.Write(); err != nil {
		return fmt.Errorf("%w: failed to record state %d: %w", ErrPersistence, height, err)
	}
	return nil
}

// dropAbove removes the records of states above the given height. Those are
// left behind by blocks applied after the last persist; their tree nodes were
// never written.
func (s *Storage) dropAbove(height chain.Height) error {
	for h := height + 1; ; h++ {
		found, err := s.meta.Has(stateKey(h))
		if err != nil {
			return fmt.Errorf("%w: failed to read state %d: %w", ErrPersistence, h, err)
		}
		if !found {
			return nil
		}
		batch := s.meta.NewBatch()
		batch.Delete(stateKey(h))
		batch.Delete(consensusProofKey(h))
		batch.Delete(blockKey(h))
		if err := batch.Write(); err != nil {
			return fmt.Errorf("%w: failed to drop state %d: %w", ErrPersistence, h, err)
		}
		s.log.Warn("dropped unpersisted state", zap.Uint64("height", uint64(h)))
	}
}

// Persist makes the highest state durable and records it as the state to
// resume from. It only reads the in-memory state and may run concurrently
// with other readers.
func (s *Storage) Persist() error {
	start := time.Now()
	state := s.highest
	if err := s.db.Flush(); err != nil {
		s.metrics.flushFailures.Inc()
		return fmt.Errorf("%w: failed to flush tree nodes: %w", ErrPersistence, err)
	}
	if err := s.meta.Put(lastConfirmedKey, state.PartialEncoding()); err != nil {
		s.metrics.flushFailures.Inc()
		return fmt.Errorf("%w: failed to record last confirmed state: %w", ErrPersistence, err)
	}
	if err := s.kv.Flush(); err != nil {
		s.metrics.flushFailures.Inc()
		return fmt.Errorf("%w: failed to flush store: %w", ErrPersistence, err)
	}
	duration := time.Since(start)
	s.metrics.flushDuration.Observe(duration.Seconds())
	s.log.Info("persisted state",
		zap.Uint64("height", uint64(state.Height())),
		zap.Duration("duration", duration),
	)
	return nil
}
