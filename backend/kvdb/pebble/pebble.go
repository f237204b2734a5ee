// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package pebble

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/cockroachdb/pebble"
	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/common"
	"golang.org/x/exp/slices"
)

// Database is a kvdb.Database backed by Pebble. Writes use pebble.NoSync
// and are made durable by Flush, which writes the memtable to disk.
type Database struct {
	db *pebble.DB
	// pebble panics instead of failing on use after close
	closed atomic.Bool
}

// Open opens or creates a Pebble instance in the given directory.
func Open(path string) (*Database, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble in %s: %w", path, err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	if d.closed.Load() {
		return nil, common.ErrClosed
	}
	data, closer, err := d.db.Get(key)
	if err != nil {
		return nil, updateError(err)
	}
	// pebble owns data until closer is closed
	res := slices.Clone(data)
	if res == nil {
		res = []byte{}
	}
	return res, closer.Close()
}

func (d *Database) Has(key []byte) (bool, error) {
	if d.closed.Load() {
		return false, common.ErrClosed
	}
	_, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, updateError(err)
	}
	return true, closer.Close()
}

func (d *Database) Put(key, value []byte) error {
	if d.closed.Load() {
		return common.ErrClosed
	}
	return updateError(d.db.Set(key, value, pebble.NoSync))
}

func (d *Database) Delete(key []byte) error {
	if d.closed.Load() {
		return common.ErrClosed
	}
	return updateError(d.db.Delete(key, pebble.NoSync))
}

func (d *Database) NewBatch() kvdb.Batch {
	return &batch{db: d, batch: d.db.NewBatch()}
}

func (d *Database) Flush() error {
	if d.closed.Load() {
		return common.ErrClosed
	}
	return updateError(d.db.Flush())
}

func (d *Database) Close() error {
	if d.closed.Swap(true) {
		return common.ErrClosed
	}
	return updateError(d.db.Close())
}

func updateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pebble.ErrNotFound):
		return common.ErrNotFound
	case errors.Is(err, pebble.ErrClosed):
		return common.ErrClosed
	default:
		return err
	}
}

type batch struct {
	db    *Database
	batch *pebble.Batch
	count int
}

func (b *batch) Put(key, value []byte) {
	// errors of batch updates only occur for closed batches, which are
	// reported by Write
	_ = b.batch.Set(key, value, nil)
	b.count++
}

func (b *batch) Delete(key []byte) {
	_ = b.batch.Delete(key, nil)
	b.count++
}

func (b *batch) Len() int {
	return b.count
}

func (b *batch) Write() error {
	if b.db.closed.Load() {
		return common.ErrClosed
	}
	return updateError(b.db.db.Apply(b.batch, pebble.NoSync))
}

func (b *batch) Reset() {
	b.batch.Reset()
	b.count = 0
}
