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
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/backend/kvdb/ldb"
	"github.com/ledgerlab/ledgerstore/backend/kvdb/memory"
	"github.com/ledgerlab/ledgerstore/backend/kvdb/pebble"
	"github.com/ledgerlab/ledgerstore/chain"
	"github.com/ledgerlab/ledgerstore/database/smt"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Backend selects the key-value store implementation.
type Backend string

const (
	MemoryBackend  Backend = "memory"
	LevelDBBackend Backend = "leveldb"
	PebbleBackend  Backend = "pebble"
)

// Backends lists all supported backends.
var Backends = []Backend{MemoryBackend, LevelDBBackend, PebbleBackend}

// Parameters describe how to open a store.
type Parameters struct {
	// Directory holds the files of persistent backends.
	Directory string
	// Backend selects the key-value store.
	Backend Backend
	// FlushInterval is the period of the background persist task.
	FlushInterval time.Duration
	// ChainCacheSize bounds the proof chain cache.
	ChainCacheSize int
	// NodeCacheSize bounds the tree node cache.
	NodeCacheSize int
	// HashScheme names the tree hashing scheme, see smt.HasherByName.
	HashScheme string
}

// DefaultParameters are the parameters used by the node if none are given.
var DefaultParameters = Parameters{
	Backend:        LevelDBBackend,
	FlushInterval:  DefaultFlushInterval,
	ChainCacheSize: smt.DefaultChainCacheSize,
	NodeCacheSize:  smt.DefaultNodeCacheSize,
	HashScheme:     smt.Blake3.Name(),
}

func (p Parameters) String() string {
	return fmt.Sprintf("backend=%s dir=%s flush=%v scheme=%s", p.Backend, p.Directory, p.FlushInterval, p.HashScheme)
}

// OpenDatabase opens the key-value store selected by the parameters.
func OpenDatabase(params Parameters) (kvdb.Database, error) {
	switch params.Backend {
	case MemoryBackend:
		return memory.New(), nil
	case LevelDBBackend, PebbleBackend:
		if params.Directory == "" {
			return nil, fmt.Errorf("backend %s requires a directory", params.Backend)
		}
		dir := filepath.Join(params.Directory, string(params.Backend))
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
		if params.Backend == LevelDBBackend {
			db, err := ldb.Open(dir)
			if err != nil {
				return nil, err
			}
			return db, nil
		}
		db, err := pebble.Open(dir)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown backend %q", params.Backend)
}

// Open opens the store described by the parameters and wraps it in a
// service owning the backing database. The service is not started.
func Open(params Parameters, genesis chain.GenesisConfig, log *zap.Logger, reg prometheus.Registerer) (*Service, error) {
	hasher, err := smt.HasherByName(params.HashScheme)
	if err != nil {
		return nil, err
	}
	db, err := OpenDatabase(params)
	if err != nil {
		return nil, err
	}
	store, err := New(db, genesis, Config{
		Tree: smt.Config{
			Hasher:         hasher,
			ChainCacheSize: params.ChainCacheSize,
		},
		NodeCacheSize:    params.NodeCacheSize,
		Logger:           log,
		Registerer:       reg,
		MetricsNamespace: "ledgerstore",
	})
	if err != nil {
		return nil, errors.Join(err, db.Close())
	}
	service := NewService(store, ServiceConfig{
		FlushInterval: params.FlushInterval,
		Logger:        log,
	})
	service.owned = db
	return service, nil
}
