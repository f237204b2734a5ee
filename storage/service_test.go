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
	"testing"
	"time"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/backend/kvdb/memory"
	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common/ticker"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T, kv kvdb.KeyValueStore, tick ticker.Ticker) *Service {
	t.Helper()
	return NewService(newTestStorage(t, kv), ServiceConfig{
		FlushInterval: time.Hour,
		NewTicker: func(time.Duration) ticker.Ticker {
			return tick
		},
	})
}

func lastConfirmedHeight(t *testing.T, kv kvdb.KeyValueStore) chain.Height {
	t.Helper()
	meta := kvdb.OpenDict(kv, metadataNamespace(testGenesis.ID(), smt.Blake3.Name()))
	data, err := meta.Get(lastConfirmedKey)
	if err != nil {
		t.Fatalf("failed to read last confirmed state: %v", err)
	}
	state, err := chain.FromPartialEncoding(data, nil)
	if err != nil {
		t.Fatalf("failed to decode last confirmed state: %v", err)
	}
	return state.Height()
}

func TestService_PeriodicallyPersistsHighestState(t *testing.T) {
	kv := memory.New()
	tick := ticker.NewManualTicker(0)
	service := newTestService(t, kv, tick)
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := service.ApplyBlock(proposeBlock(t, service.HighestState()), testProof(1)); err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	if got := lastConfirmedHeight(t, kv); got != 0 {
		t.Errorf("block persisted before tick: %d", got)
	}

	// the second tick is only accepted once the first one is processed
	tick.Tick()
	tick.Tick()
	if got := lastConfirmedHeight(t, kv); got != 1 {
		t.Errorf("unexpected last confirmed height after tick: %d", got)
	}
	if err := service.Stop(); err != nil {
		t.Errorf("failed to stop: %v", err)
	}
}

func TestService_StopPersistsAndStopsTicker(t *testing.T) {
	ctrl := gomock.NewController(t)
	tick := ticker.NewMockTicker(ctrl)
	tick.EXPECT().C().Return(make(chan time.Time)).AnyTimes()
	tick.EXPECT().Stop()

	kv := memory.New()
	service := newTestService(t, kv, tick)
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := service.ApplyBlock(proposeBlock(t, service.HighestState()), testProof(1)); err != nil {
		t.Fatalf("failed to apply block: %v", err)
	}
	if err := service.Stop(); err != nil {
		t.Fatalf("failed to stop: %v", err)
	}
	if got := lastConfirmedHeight(t, kv); got != 1 {
		t.Errorf("final persist missing, last confirmed height %d", got)
	}
}

func TestService_LifecycleErrors(t *testing.T) {
	service := newTestService(t, memory.New(), ticker.NewManualTicker(1))
	if err := service.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := service.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}
	if err := service.Stop(); err != nil {
		t.Fatalf("failed to stop: %v", err)
	}
	if err := service.Start(); err != nil {
		t.Errorf("failed to restart: %v", err)
	}
	if err := service.Stop(); err != nil {
		t.Errorf("failed to stop: %v", err)
	}
}

func TestService_StopReportsFirstPersistFailure(t *testing.T) {
	kv := memory.New()
	tick := ticker.NewManualTicker(0)
	service := newTestService(t, kv, tick)
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start: %v", err)
	}
	if err := kv.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	tick.Tick()
	tick.Tick()
	if err := service.Stop(); !errors.Is(err, ErrPersistence) {
		t.Errorf("expected ErrPersistence, got %v", err)
	}
}

func TestService_ReadsRunConcurrentlyWithBlockApplication(t *testing.T) {
	service := newTestService(t, memory.New(), ticker.NewManualTicker(1))
	var wg sync.WaitGroup
	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				height := service.HighestHeight()
				if _, found, err := service.StateAt(height); err != nil || !found {
					t.Errorf("state at highest height %d not found: %v", height, err)
					return
				}
			}
		}()
	}
	for i := 1; i <= 10; i++ {
		if err := service.ApplyBlock(proposeBlock(t, service.HighestState()), testProof(chain.Height(i))); err != nil {
			t.Fatalf("failed to apply block %d: %v", i, err)
		}
	}
	close(done)
	wg.Wait()
	if service.HighestHeight() != 10 {
		t.Errorf("unexpected height: %d", service.HighestHeight())
	}
}
