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
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Osiyomeoh/nethermind/db"
)

// Tests that the progress journal survives a downloader restart over the
// same stores and keeps reporting through Sync of the empty root.
func TestProgressPersistence(t *testing.T) {
	d, state, code, source, _ := newTestSync(t)
	root, _ := buildTestState(t, source)

	consumed, err := d.Sync(context.Background(), root)
	if err != nil {
		t.Fatalf("failed to sync: %v", err)
	}
	before := d.Progress()

	restarted, err := New(state, code, nil)
	if err != nil {
		t.Fatalf("failed to restart downloader: %v", err)
	}
	after := restarted.Progress()
	if *after != *before {
		t.Errorf("restored progress mismatch: have %+v, want %+v", after, before)
	}
	if have, err := restarted.Sync(context.Background(), types.EmptyRootHash); err != nil || have != consumed {
		t.Errorf("persisted consumed mismatch: have %d (%v), want %d", have, err, consumed)
	}
}

// Tests that the on-disk record matches the live counters after a sync.
func TestProgressRecordOnDisk(t *testing.T) {
	d, _, code, source, _ := newTestSync(t)
	root, _ := buildTestState(t, source)

	if _, err := d.Sync(context.Background(), root); err != nil {
		t.Fatalf("failed to sync: %v", err)
	}
	blob, err := code.Get(common.BytesToHash(ProgressKey()))
	if err != nil {
		t.Fatalf("progress record missing: %v", err)
	}
	record, err := DecodeProgress(blob)
	if err != nil {
		t.Fatalf("progress record undecodable: %v", err)
	}
	if *record != *d.Progress() {
		t.Errorf("record mismatch: have %+v, want %+v", record, d.Progress())
	}
}

// Tests that loading from a store without a record leaves the counters at
// zero.
func TestProgressFreshStore(t *testing.T) {
	tracker := new(progressTracker)
	if err := tracker.load(db.NewMemory()); err != nil {
		t.Fatalf("failed to load from fresh store: %v", err)
	}
	if snapshot := tracker.snapshot(); *snapshot != (SyncProgress{}) {
		t.Errorf("fresh tracker not zero: %+v", snapshot)
	}
}
