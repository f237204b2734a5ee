// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package kvdb

// Dict divides a key-value store into spaces by prefixing every key with
// the name of the dictionary. Multiple dictionaries may share one store
// without colliding as long as their names are distinct and none of them
// is a prefix of another.
type Dict struct {
	store  KeyValueStore
	prefix []byte
}

// separator terminates the dictionary name within a key.
const separator = '/'

// OpenDict creates a dictionary named name on top of the given store.
func OpenDict(store KeyValueStore, name string) *Dict {
	prefix := make([]byte, 0, len(name)+1)
	prefix = append(prefix, name...)
	prefix = append(prefix, separator)
	return &Dict{store: store, prefix: prefix}
}

// Name returns the name of this dictionary.
func (d *Dict) Name() string {
	return string(d.prefix[:len(d.prefix)-1])
}

// ToDBKey converts a dictionary key to the key used in the underlying store.
func (d *Dict) ToDBKey(key []byte) []byte {
	res := make([]byte, 0, len(d.prefix)+len(key))
	res = append(res, d.prefix...)
	return append(res, key...)
}

func (d *Dict) Get(key []byte) ([]byte, error) {
	return d.store.Get(d.ToDBKey(key))
}

func (d *Dict) Has(key []byte) (bool, error) {
	return d.store.Has(d.ToDBKey(key))
}

func (d *Dict) Put(key, value []byte) error {
	return d.store.Put(d.ToDBKey(key), value)
}

func (d *Dict) Delete(key []byte) error {
	return d.store.Delete(d.ToDBKey(key))
}

func (d *Dict) NewBatch() Batch {
	return &dictBatch{dict: d, batch: d.store.NewBatch()}
}

func (d *Dict) Flush() error {
	return d.store.Flush()
}

type dictBatch struct {
	dict  *Dict
	batch Batch
}

func (b *dictBatch) Put(key, value []byte) {
	b.batch.Put(b.dict.ToDBKey(key), value)
}

func (b *dictBatch) Delete(key []byte) {
	b.batch.Delete(b.dict.ToDBKey(key))
}

func (b *dictBatch) Len() int {
	return b.batch.Len()
}

func (b *dictBatch) Write() error {
	return b.batch.Write()
}

func (b *dictBatch) Reset() {
	b.batch.Reset()
}
