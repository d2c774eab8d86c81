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

package fastsync

import (
	"errors"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/Osiyomeoh/nethermind/db"
)

// progressKey is the raw code-store key the journal lives under.
var progressKey = crypto.Keccak256([]byte("fast_sync_progress"))

// ProgressKey returns the code-store key of the persisted progress record.
func ProgressKey() []byte {
	return append([]byte(nil), progressKey...)
}

// SyncProgress is the persisted form of the progress journal. The counters
// are written as one RLP sequence in this exact field order. They are
// non-negative by construction, so the unsigned encoding loses nothing.
type SyncProgress struct {
	Consumed         uint64 // nodes accepted from peers
	SavedStorage     uint64 // storage-trie nodes persisted
	SavedState       uint64 // state-trie nodes persisted
	SavedNodes       uint64 // total nodes persisted across both stores
	SavedAccounts    uint64 // account leaves saved with no outstanding children
	SavedCode        uint64 // code blobs persisted
	Requested        uint64 // items handed to the executor
	DBChecks         uint64 // store probes made by the admission gate
	StateWasThere    uint64 // probes that found the key
	StateWasNotThere uint64 // probes that did not
}

// DecodeProgress parses a persisted progress record.
func DecodeProgress(blob []byte) (*SyncProgress, error) {
	p := new(SyncProgress)
	if err := rlp.DecodeBytes(blob, p); err != nil {
		return nil, err
	}
	return p, nil
}

// progressTracker is the live, atomically updated counterpart of
// SyncProgress. The counters only ever grow; resets of the in-memory sync
// state leave them untouched.
type progressTracker struct {
	consumed         atomic.Uint64
	savedStorage     atomic.Uint64
	savedState       atomic.Uint64
	savedNodes       atomic.Uint64
	savedAccounts    atomic.Uint64
	savedCode        atomic.Uint64
	requested        atomic.Uint64
	dbChecks         atomic.Uint64
	stateWasThere    atomic.Uint64
	stateWasNotThere atomic.Uint64
}

func (p *progressTracker) snapshot() *SyncProgress {
	return &SyncProgress{
		Consumed:         p.consumed.Load(),
		SavedStorage:     p.savedStorage.Load(),
		SavedState:       p.savedState.Load(),
		SavedNodes:       p.savedNodes.Load(),
		SavedAccounts:    p.savedAccounts.Load(),
		SavedCode:        p.savedCode.Load(),
		Requested:        p.requested.Load(),
		DBChecks:         p.dbChecks.Load(),
		StateWasThere:    p.stateWasThere.Load(),
		StateWasNotThere: p.stateWasNotThere.Load(),
	}
}

func (p *progressTracker) restore(s *SyncProgress) {
	p.consumed.Store(s.Consumed)
	p.savedStorage.Store(s.SavedStorage)
	p.savedState.Store(s.SavedState)
	p.savedNodes.Store(s.SavedNodes)
	p.savedAccounts.Store(s.SavedAccounts)
	p.savedCode.Store(s.SavedCode)
	p.requested.Store(s.Requested)
	p.dbChecks.Store(s.DBChecks)
	p.stateWasThere.Store(s.StateWasThere)
	p.stateWasNotThere.Store(s.StateWasNotThere)
}

// load restores the counters from the code store, if a record exists.
func (p *progressTracker) load(store db.Store) error {
	blob, err := store.Get(common.BytesToHash(progressKey))
	if errors.Is(err, db.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s, err := DecodeProgress(blob)
	if err != nil {
		return err
	}
	p.restore(s)
	return nil
}

// store writes the counters to the code store's overlay. The caller commits.
func (p *progressTracker) store(store db.Store) error {
	blob, err := rlp.EncodeToBytes(p.snapshot())
	if err != nil {
		return err
	}
	return store.PutIndexed(ProgressKey(), blob)
}
