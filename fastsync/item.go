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

import "github.com/ethereum/go-ethereum/common"

// NodeDataType tells the downloader which store a payload belongs to and
// how the payload expands into further work.
type NodeDataType byte

const (
	StateData   NodeDataType = iota // state-trie node, persisted to the state store
	StorageData                     // storage-trie node, persisted to the state store
	CodeData                        // contract code blob, persisted to the code store
)

func (t NodeDataType) String() string {
	switch t {
	case StateData:
		return "state"
	case StorageData:
		return "storage"
	case CodeData:
		return "code"
	}
	return "invalid"
}

// StateSyncItem is the unit of work: one hash whose preimage still needs to
// be downloaded and persisted.
type StateSyncItem struct {
	Hash     common.Hash  // content address of the expected payload
	Kind     NodeDataType // destination store and expansion rules
	Level    int          // depth below the owning trie's root
	Priority float32      // lower dispatches first
	IsRoot   bool         // marks the overall root; its save ends the sync
}

// Batch pairs requested items with the blobs a peer returned for them.
// Responses is positionally aligned with Items and may be shorter; a nil
// slot means the peer did not return that item.
type Batch struct {
	Items     []*StateSyncItem
	Responses [][]byte
}

// dependentItem is a downloaded node whose payload is held back until all
// of its children have been saved. The same dependentItem is shared by
// reference across every child it waits on, so the counter converges no
// matter which child arrives first.
type dependentItem struct {
	item    *StateSyncItem
	data    []byte
	counter int // children still unsaved
}

// addNodeResult is the admission gate's verdict for a discovered hash.
type addNodeResult int

const (
	nodeAdded            addNodeResult = iota // scheduled for download
	nodeAlreadyRequested                      // in flight or queued, dependency recorded
	nodeAlreadySaved                          // present in a store or the dedup cache
)
