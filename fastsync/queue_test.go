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
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// Tests that pops drain the most urgent stratum first and each stratum in
// LIFO order.
func TestPendingQueueOrder(t *testing.T) {
	q := newPendingQueue()

	item := func(id byte, priority float32) *StateSyncItem {
		return &StateSyncItem{Hash: common.BytesToHash([]byte{id}), Priority: priority}
	}
	q.push(item(1, 2.0)) // stratum 2
	q.push(item(2, 0.1)) // stratum 0
	q.push(item(3, 1.0)) // stratum 1
	q.push(item(4, 0.4)) // stratum 0
	q.push(item(5, 1.5)) // stratum 1, boundary included
	q.push(item(6, 0.5)) // stratum 1, boundary excluded from 0

	if n := q.len(); n != 6 {
		t.Fatalf("queue length mismatch: have %d, want 6", n)
	}
	want := []byte{4, 2, 6, 5, 3, 1}
	for i, id := range want {
		popped := q.pop()
		if popped == nil {
			t.Fatalf("pop %d returned nothing", i)
		}
		if popped.Hash != common.BytesToHash([]byte{id}) {
			t.Errorf("pop %d: have %x, want %x", i, popped.Hash, common.BytesToHash([]byte{id}))
		}
	}
	if popped := q.pop(); popped != nil {
		t.Errorf("drained queue still popped %x", popped.Hash)
	}
}
