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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Osiyomeoh/nethermind/trie"
)

// handleResponse validates a peer's answer to a batch, expands every
// accepted node into further work and commits the session's writes. Items
// the peer skipped are re-queued; a single blob that fails verification
// rejects the whole batch.
func (d *Downloader) handleResponse(batch *Batch) error {
	if batch.Responses == nil {
		d.logger.Warn("Peer returned no batch response", "items", len(batch.Items))
		return ErrNoData
	}
	added := 0
	for i, item := range batch.Items {
		if i >= len(batch.Responses) || len(batch.Responses[i]) == 0 {
			d.addNode(item, nil, "missing", true)
			continue
		}
		data := batch.Responses[i]
		if have := crypto.Keccak256Hash(data); have != item.Hash {
			// Diagnose whether the peer shuffled its responses: a blob
			// landing under the wrong index still rejects the batch.
			match := -1
			for j, other := range batch.Items {
				if other.Hash == have {
					match = j
					break
				}
			}
			d.logger.Warn("Peer sent node with wrong hash",
				"index", i, "want", item.Hash, "have", have, "matchesIndex", match)
			return ErrInvalidData
		}
		added++
		d.progress.consumed.Add(1)
		consumedMeter.Mark(1)
		if err := d.expand(item, data); err != nil {
			return err
		}
	}
	if err := d.commit(); err != nil {
		return err
	}
	if added == 0 {
		return ErrNoData
	}
	d.pendingRequests.Add(-1)
	return nil
}

// expand turns an accepted payload into child work according to its kind.
func (d *Downloader) expand(item *StateSyncItem, data []byte) error {
	if item.Kind == CodeData {
		return d.saveNode(item, data)
	}
	node, err := d.codec.DecodeNode(data)
	if err != nil {
		return err
	}
	switch node.Type {
	case trie.BranchNode:
		return d.handleBranch(item, data, node)
	case trie.ExtensionNode:
		return d.handleExtension(item, data, node)
	case trie.LeafNode:
		return d.handleLeaf(item, data, node)
	default:
		return fmt.Errorf("%w: node %x", trie.ErrUnknownNode, item.Hash)
	}
}

// handleBranch schedules the branch's distinct children and holds the
// payload back until the last of them saves.
func (d *Downloader) handleBranch(item *StateSyncItem, data []byte, node *trie.Node) error {
	dep := &dependentItem{item: item, data: data}
	for i := 0; i < 16; i++ {
		child := node.Children[i]
		if child == (common.Hash{}) {
			continue
		}
		// The same hash may sit in several slots; one download serves all.
		dup := false
		for j := 0; j < i; j++ {
			if node.Children[j] == child {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		childItem := &StateSyncItem{
			Hash:     child,
			Kind:     item.Kind,
			Level:    item.Level + 1,
			Priority: d.childPriority(item),
		}
		if d.addNode(childItem, dep, "branch child", false) != nodeAlreadySaved {
			dep.counter++
		}
	}
	if dep.counter == 0 {
		return d.saveNode(item, data)
	}
	return nil
}

// handleExtension schedules the extension's single child, or saves right
// away when the child is already local or inlined in the payload.
func (d *Downloader) handleExtension(item *StateSyncItem, data []byte, node *trie.Node) error {
	if node.Child == (common.Hash{}) {
		return d.saveNode(item, data)
	}
	dep := &dependentItem{item: item, data: data, counter: 1}
	childItem := &StateSyncItem{
		Hash:     node.Child,
		Kind:     item.Kind,
		Level:    item.Level + 1,
		Priority: d.childPriority(item),
	}
	if d.addNode(childItem, dep, "extension child", false) == nodeAlreadySaved {
		return d.saveNode(item, data)
	}
	return nil
}

// handleLeaf saves storage leaves directly; a state leaf is an account and
// may root a code blob and a storage trie.
func (d *Downloader) handleLeaf(item *StateSyncItem, data []byte, node *trie.Node) error {
	if item.Kind != StateData {
		return d.saveNode(item, data)
	}
	account, err := d.accounts.DecodeAccount(node.Value)
	if err != nil {
		return err
	}
	dep := &dependentItem{item: item, data: data}
	switch {
	case account.CodeHash == types.EmptyCodeHash:
		// No code to fetch.
	case account.CodeHash == account.StorageRoot:
		// The code blob is bit-identical to a storage node. The single
		// download is copied into both stores when it arrives.
		d.codesSameAsNodes.Add(account.CodeHash)
	default:
		codeItem := &StateSyncItem{Hash: account.CodeHash, Kind: CodeData}
		if d.addNode(codeItem, dep, "account code", false) != nodeAlreadySaved {
			dep.counter++
		}
	}
	if account.StorageRoot != types.EmptyRootHash {
		storageItem := &StateSyncItem{Hash: account.StorageRoot, Kind: StorageData}
		if d.addNode(storageItem, dep, "account storage", false) != nodeAlreadySaved {
			dep.counter++
		}
	}
	if dep.counter == 0 {
		d.progress.savedAccounts.Add(1)
		return d.saveNode(item, data)
	}
	return nil
}

// childPriority computes the dispatch priority for a child of the given
// state-trie parent; children of storage parents always dispatch first.
// The formula biases deeper items ahead while letting shallow work cycle
// through, and is kept exactly as the original tuned it.
func (d *Downloader) childPriority(parent *StateSyncItem) float32 {
	if parent.Kind != StateData {
		return 0
	}
	if parent.Level > d.maxStateLevel {
		d.maxStateLevel = parent.Level
	}
	if d.maxStateLevel == 0 {
		return 1
	}
	ratio := float32(parent.Level) / float32(d.maxStateLevel)
	priority := 1 - ratio
	if alt := parent.Priority - ratio; alt > priority {
		priority = alt
	}
	return priority
}

// commit persists everything the batch produced: the progress record goes
// into the code store, then the code store and the state store flush in
// that order. Dying between the two store commits leaves the code store
// ahead; the state-store probe on restart closes the gap.
func (d *Downloader) commit() error {
	d.stateDBLock.Lock()
	defer d.stateDBLock.Unlock()
	d.codeDBLock.Lock()
	defer d.codeDBLock.Unlock()

	if err := d.progress.store(d.codeStore); err != nil {
		return err
	}
	if err := d.codeStore.Commit(); err != nil {
		return err
	}
	if err := d.stateStore.Commit(); err != nil {
		return err
	}
	d.lastRequest = nil
	return nil
}
