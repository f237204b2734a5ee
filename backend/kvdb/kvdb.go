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

import (
	"errors"
	"io"

	"github.com/ledgerlab/ledgerstore/common"
)

// KeyValueStore is the persistence handle used by the metadata layer and
// the tree node store. Implementations must be safe for concurrent use.
type KeyValueStore interface {
	// Get returns the value stored for the given key or an error wrapping
	// common.ErrNotFound if the key is not present. The returned slice is
	// owned by the caller.
	Get(key []byte) ([]byte, error)

	// Has returns true if the store contains the given key.
	Has(key []byte) (bool, error)

	// Put sets the value for the given key, overwriting any previous value.
	// It is safe to modify the arguments after Put returns.
	Put(key, value []byte) error

	// Delete removes the given key. Deleting a missing key is not an error.
	Delete(key []byte) error

	// NewBatch creates a batch collecting writes to be applied atomically.
	NewBatch() Batch

	// Flush makes all previously written data durable.
	Flush() error
}

// Database is a KeyValueStore owning its underlying resources.
type Database interface {
	KeyValueStore
	io.Closer
}

// Batch collects updates and applies them in one atomic write.
type Batch interface {
	Put(key, value []byte)
	Delete(key []byte)
	// Len returns the number of recorded operations.
	Len() int
	// Write applies the recorded operations to the store.
	Write() error
	// Reset drops all recorded operations.
	Reset()
}

// Lookup is a convenience wrapper around Get reporting missing keys
// through the boolean result instead of an error.
func Lookup(store KeyValueStore, key []byte) ([]byte, bool, error) {
	value, err := store.Get(key)
	if errors.Is(err, common.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}
