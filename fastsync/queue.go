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

import "sync"

// pendingQueue is a three-stratum LIFO of items awaiting dispatch. LIFO
// keeps a just-expanded parent's children at the top, which biases the walk
// depth-first and bounds the dependency map. The strata split on priority:
// below 0.5, up to 1.5, and the rest; pops drain the lowest stratum first.
//
// Pushes come from the response handler and pops from the planner, so the
// queue locks even though the reference model drives both from one task.
type pendingQueue struct {
	mu     sync.Mutex
	stacks [3][]*StateSyncItem
}

func newPendingQueue() *pendingQueue {
	return new(pendingQueue)
}

func (q *pendingQueue) push(item *StateSyncItem) {
	idx := 2
	switch {
	case item.Priority < 0.5:
		idx = 0
	case item.Priority <= 1.5:
		idx = 1
	}
	q.mu.Lock()
	q.stacks[idx] = append(q.stacks[idx], item)
	q.mu.Unlock()
}

// pop returns the most recently pushed item of the most urgent non-empty
// stratum, or nil if the queue is empty.
func (q *pendingQueue) pop() *StateSyncItem {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.stacks {
		if n := len(q.stacks[i]); n > 0 {
			item := q.stacks[i][n-1]
			q.stacks[i] = q.stacks[i][:n-1]
			return item
		}
	}
	return nil
}

func (q *pendingQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.stacks[0]) + len(q.stacks[1]) + len(q.stacks[2])
}
