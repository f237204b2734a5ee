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
	"errors"
	"sync"
	"time"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/ledgerlab/ledgerstore/common/ticker"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"github.com/ledgerlab/ledgerstore/mempool"
	"go.uber.org/zap"
)

// DefaultFlushInterval is the period of the background persist task.
const DefaultFlushInterval = 10 * time.Second

const (
	ErrAlreadyStarted = common.ConstError("service already started")
	ErrNotStarted     = common.ConstError("service not started")
	ErrServiceClosed  = common.ConstError("service closed")
)

// ServiceConfig configures the background persist task of a Service.
type ServiceConfig struct {
	// FlushInterval is the period of the persist task;
	// DefaultFlushInterval if zero.
	FlushInterval time.Duration
	// NewTicker creates the ticker driving the persist task;
	// ticker.NewTimeTicker if nil.
	NewTicker ticker.Factory
	// Logger receives persist failures; nothing is logged if nil.
	Logger *zap.Logger
}

// Service owns a Storage and makes it accessible to concurrent users. Reads
// run concurrently; block applications are exclusive. Once started, the
// service periodically persists the highest state until it is stopped.
type Service struct {
	mu      sync.RWMutex
	storage *Storage
	owned   kvdb.Database

	interval  time.Duration
	newTicker ticker.Factory
	log       *zap.Logger

	lifecycle sync.Mutex
	closed    bool // the owned database was released
	stop      chan struct{}
	done      chan struct{}

	errMu    sync.Mutex
	firstErr error
}

// NewService wraps the given storage.
func NewService(storage *Storage, config ServiceConfig) *Service {
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	if config.NewTicker == nil {
		config.NewTicker = ticker.NewTimeTicker
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Service{
		storage:   storage,
		interval:  config.FlushInterval,
		newTicker: config.NewTicker,
		log:       config.Logger,
	}
}

// Start launches the background persist task. A service whose database was
// released by Stop cannot be restarted.
func (s *Service) Start() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.closed {
		return ErrServiceClosed
	}
	if s.stop != nil {
		return ErrAlreadyStarted
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.newTicker(s.interval), s.stop, s.done)
	return nil
}

func (s *Service) run(t ticker.Ticker, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			s.persist()
		}
	}
}

func (s *Service) persist() {
	if err := s.Persist(); err != nil {
		s.log.Error("failed to persist store", zap.Error(err))
		s.errMu.Lock()
		if s.firstErr == nil {
			s.firstErr = err
		}
		s.errMu.Unlock()
	}
}

// Stop terminates the background task, persists the store a last time and
// releases a backing database owned by the service. It returns the first
// persist failure observed since the service was started.
func (s *Service) Stop() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	if s.stop == nil {
		return ErrNotStarted
	}
	close(s.stop)
	<-s.done
	s.stop, s.done = nil, nil

	s.persist()
	s.errMu.Lock()
	err := s.firstErr
	s.firstErr = nil
	s.errMu.Unlock()

	if s.owned != nil {
		err = errors.Join(err, s.owned.Close())
		s.owned = nil
		s.closed = true
	}
	return err
}

// Persist makes the highest state durable.
func (s *Service) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.Persist()
}

// ApplyBlock appends a block to the chain; see Storage.ApplyBlock.
func (s *Service) ApplyBlock(block *chain.Block, proof chain.ConsensusProof) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.ApplyBlock(block, proof)
}

func (s *Service) HighestState() *chain.SealedState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.HighestState()
}

func (s *Service) HighestHeight() chain.Height {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.HighestHeight()
}

func (s *Service) StateAt(height chain.Height) (*chain.SealedState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.StateAt(height)
}

func (s *Service) ConsensusProofAt(height chain.Height) (chain.ConsensusProof, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.ConsensusProofAt(height)
}

func (s *Service) BlockAt(height chain.Height) (chain.Block, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.BlockAt(height)
}

// Mempool returns the pool of pending transactions. It is safe for
// concurrent use on its own.
func (s *Service) Mempool() *mempool.Mempool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage.Mempool()
}

// TrustStore returns the trust store. It is safe for concurrent use on its
// own.
func (s *Service) TrustStore() *TrustStore {
	return s.storage.TrustStore()
}

// Database returns the tree database shared by all states.
func (s *Service) Database() *smt.Database {
	return s.storage.Database()
}

func (s *Service) GenesisID() common.Hash {
	return s.storage.GenesisID()
}
