// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/ledgerlab/ledgerstore/backend/kvdb"
	"github.com/ledgerlab/ledgerstore/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// syncMarkerKey is rewritten with a synced write on Flush, forcing the
// journal including all earlier unsynced writes to stable storage.
var syncMarkerKey = []byte{0x00, 's', 'y', 'n', 'c'}

// Database is a kvdb.Database backed by LevelDB. Regular writes are not
// synced; Flush makes them durable.
type Database struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB instance in the given directory.
func Open(path string) (*Database, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb in %s: %w", path, err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Get(key []byte) ([]byte, error) {
	value, err := d.db.Get(key, nil)
	return value, updateError(err)
}

func (d *Database) Has(key []byte) (bool, error) {
	found, err := d.db.Has(key, nil)
	return found, updateError(err)
}

func (d *Database) Put(key, value []byte) error {
	return updateError(d.db.Put(key, value, nil))
}

func (d *Database) Delete(key []byte) error {
	return updateError(d.db.Delete(key, nil))
}

func (d *Database) NewBatch() kvdb.Batch {
	return &batch{db: d.db}
}

func (d *Database) Flush() error {
	return updateError(d.db.Put(syncMarkerKey, nil, &opt.WriteOptions{Sync: true}))
}

func (d *Database) Close() error {
	return updateError(d.db.Close())
}

func updateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, leveldb.ErrNotFound):
		return common.ErrNotFound
	case errors.Is(err, leveldb.ErrClosed):
		return common.ErrClosed
	default:
		return err
	}
}

type batch struct {
	db    *leveldb.DB
	batch leveldb.Batch
}

func (b *batch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

func (b *batch) Delete(key []byte) {
	b.batch.Delete(key)
}

func (b *batch) Len() int {
	return b.batch.Len()
}

func (b *batch) Write() error {
	return updateError(b.db.Write(&b.batch, nil))
}

func (b *batch) Reset() {
	b.batch.Reset()
}
