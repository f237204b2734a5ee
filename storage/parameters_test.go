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
	"testing"

	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/common"
)

func TestOpenDatabase_SupportsAllBackends(t *testing.T) {
	for _, backend := range Backends {
		t.Run(string(backend), func(t *testing.T) {
			db, err := OpenDatabase(Parameters{Backend: backend, Directory: t.TempDir()})
			if err != nil {
				t.Fatalf("failed to open: %v", err)
			}
			if err := db.Put([]byte("key"), []byte("value")); err != nil {
				t.Errorf("failed to write: %v", err)
			}
			if err := db.Close(); err != nil {
				t.Errorf("failed to close: %v", err)
			}
		})
	}
}

func TestOpenDatabase_RejectsInvalidParameters(t *testing.T) {
	if _, err := OpenDatabase(Parameters{Backend: "sqlite", Directory: t.TempDir()}); err == nil {
		t.Errorf("unknown backends must be rejected")
	}
	if _, err := OpenDatabase(Parameters{Backend: LevelDBBackend}); err == nil {
		t.Errorf("persistent backends require a directory")
	}
}

func TestOpen_ResumesPersistentStore(t *testing.T) {
	for _, backend := range []Backend{LevelDBBackend, PebbleBackend} {
		t.Run(string(backend), func(t *testing.T) {
			params := DefaultParameters
			params.Backend = backend
			params.Directory = t.TempDir()

			service, err := Open(params, testGenesis, nil, nil)
			if err != nil {
				t.Fatalf("failed to open: %v", err)
			}
			if err := service.Start(); err != nil {
				t.Fatalf("failed to start: %v", err)
			}
			block := proposeBlock(t, service.HighestState(),
				chain.WriteTransaction(1, 0, chain.KeyValue{Key: common.Hash{7}, Value: []byte("seven")}))
			if err := service.ApplyBlock(block, testProof(1)); err != nil {
				t.Fatalf("failed to apply block: %v", err)
			}
			want := service.HighestState().Root()
			if err := service.Stop(); err != nil {
				t.Fatalf("failed to stop: %v", err)
			}

			reopened, err := Open(params, testGenesis, nil, nil)
			if err != nil {
				t.Fatalf("failed to reopen: %v", err)
			}
			if got := reopened.HighestState().Root(); got != want {
				t.Errorf("unexpected root after reopening: %v", got)
			}
			storage, err := reopened.HighestState().Tree(chain.Storage)
			if err != nil {
				t.Fatalf("failed to get storage: %v", err)
			}
			if value, err := storage.Get(common.Hash{7}); err != nil || string(value) != "seven" {
				t.Errorf("unexpected value after reopening: %q, %v", value, err)
			}
			if err := reopened.Start(); err != nil {
				t.Fatalf("failed to start: %v", err)
			}
			if err := reopened.Stop(); err != nil {
				t.Errorf("failed to stop: %v", err)
			}
		})
	}
}

func TestOpen_RejectsUnknownHashScheme(t *testing.T) {
	params := DefaultParameters
	params.Backend = MemoryBackend
	params.HashScheme = "sha1"
	if _, err := Open(params, testGenesis, nil, nil); err == nil {
		t.Errorf("unknown hash schemes must be rejected")
	}
}

func TestOpen_ServiceCannotBeRestartedAfterStop(t *testing.T) {
	params := DefaultParameters
	params.Backend = MemoryBackend
	service, err := Open(params, testGenesis, nil, nil)
	if err != nil {
		t.Fatalf("failed to open service: %v", err)
	}
	if err := service.Start(); err != nil {
		t.Fatalf("failed to start service: %v", err)
	}
	if err := service.Stop(); err != nil {
		t.Fatalf("failed to stop service: %v", err)
	}
	if err := service.Start(); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("restarting a closed service should fail, got %v", err)
	}
	if err := service.Stop(); !errors.Is(err, ErrNotStarted) {
		t.Errorf("stopping a closed service should fail, got %v", err)
	}
}
