// Copyright 2024 The go-nethermind Authors
// This file is part of the go-nethermind library.
//
// The go-nethermind library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-nethermind library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-nethermind library. If not, see <http://www.gnu.org/licenses/>.

// Package db provides the snapshotable key-value stores the fast-sync
// downloader persists into. Writes land in an in-memory overlay that is
// visible to readers immediately and flushed to disk atomically by Commit;
// anything not committed is lost with the process.
package db

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// ErrNotFound is returned by Get when a key is in neither the overlay nor
// the backing database.
var ErrNotFound = errors.New("db: not found")

// Store is a snapshotable hash-keyed store.
type Store interface {
	// Get retrieves the value for a node hash, overlay first.
	Get(hash common.Hash) ([]byte, error)

	// Set buffers a write under a node hash until the next Commit.
	Set(hash common.Hash, blob []byte) error

	// KeyExists reports whether the hash is present in the overlay or the
	// backing database.
	KeyExists(hash common.Hash) (bool, error)

	// PutIndexed buffers a write under a raw key. Used for bookkeeping
	// records that live beside the hash-keyed content.
	PutIndexed(key []byte, blob []byte) error

	// Commit atomically flushes the overlay to the backing database.
	Commit() error

	// Close releases the backing database.
	Close() error
}
