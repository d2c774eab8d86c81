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
)

// addNode is the admission gate every discovered hash passes through. The
// missing flag is the re-queue shortcut after a peer skipped an item: it
// bypasses all deduplication and pushes straight to the stream.
//
// The dependency edge is recorded before the already-requested verdict, so
// that a second discoverer of an in-flight hash still gets notified when
// the payload eventually lands.
func (d *Downloader) addNode(item *StateSyncItem, parent *dependentItem, reason string, missing bool) addNodeResult {
	if !missing {
		if d.alreadySaved(item) {
			return nodeAlreadySaved
		}
		_, requested := d.dependencies[item.Hash]
		if parent != nil {
			d.addDependency(item.Hash, parent)
		}
		if requested {
			return nodeAlreadyRequested
		}
	}
	d.queue.push(item)
	return nodeAdded
}

// alreadySaved consults the dedup cache, falling back to a store probe
// under that store's lock. Positive probes seed the cache.
func (d *Downloader) alreadySaved(item *StateSyncItem) bool {
	if d.savedCache.Contains(item.Hash) {
		return true
	}
	d.progress.dbChecks.Add(1)
	var (
		exists bool
		err    error
	)
	if item.Kind == CodeData {
		d.codeDBLock.Lock()
		exists, err = d.codeStore.KeyExists(item.Hash)
		d.codeDBLock.Unlock()
	} else {
		d.stateDBLock.Lock()
		exists, err = d.stateStore.KeyExists(item.Hash)
		d.stateDBLock.Unlock()
	}
	if err != nil {
		d.logger.Warn("State store probe failed", "hash", item.Hash, "err", err)
		return false
	}
	if exists {
		d.progress.stateWasThere.Add(1)
		d.savedCache.Add(item.Hash, struct{}{})
		return true
	}
	d.progress.stateWasNotThere.Add(1)
	return false
}

// addDependency blocks the parent on the child hash. Parents are keyed by
// their own hash, so discovering the same edge twice is idempotent.
func (d *Downloader) addDependency(child common.Hash, parent *dependentItem) {
	waiters := d.dependencies[child]
	if waiters == nil {
		waiters = make(map[common.Hash]*dependentItem)
		d.dependencies[child] = waiters
	}
	waiters[parent.item.Hash] = parent
}

// runChainReaction releases every parent blocked on the just-saved hash,
// saving each one whose last child this was. Saves recurse, so a single
// arrival can ripple all the way to the root. The walk is synchronous:
// nothing else mutates the dependency map while it runs.
func (d *Downloader) runChainReaction(saved common.Hash) error {
	waiters, ok := d.dependencies[saved]
	if !ok {
		return nil
	}
	delete(d.dependencies, saved)
	for _, parent := range waiters {
		parent.counter--
		if parent.counter == 0 {
			if err := d.saveNode(parent.item, parent.data); err != nil {
				return err
			}
		}
	}
	return nil
}

// saveNode persists a payload to its destination store and propagates the
// completion to any waiting parents. Storage nodes whose hash doubles as a
// code hash are copied into the code store as well, draining the
// codes-same-as-nodes entry.
func (d *Downloader) saveNode(item *StateSyncItem, data []byte) error {
	d.progress.savedNodes.Add(1)
	savedMeter.Mark(1)

	switch item.Kind {
	case StateData:
		d.progress.savedState.Add(1)
		d.stateDBLock.Lock()
		err := d.stateStore.Set(item.Hash, data)
		d.stateDBLock.Unlock()
		if err != nil {
			return err
		}
	case StorageData:
		d.progress.savedStorage.Add(1)
		d.stateDBLock.Lock()
		err := d.stateStore.Set(item.Hash, data)
		if err == nil && d.codesSameAsNodes.Contains(item.Hash) {
			d.codesSameAsNodes.Remove(item.Hash)
			d.codeDBLock.Lock()
			err = d.codeStore.Set(item.Hash, data)
			d.codeDBLock.Unlock()
			d.progress.savedCode.Add(1)
		}
		d.stateDBLock.Unlock()
		if err != nil {
			return err
		}
	case CodeData:
		d.progress.savedCode.Add(1)
		d.codeDBLock.Lock()
		err := d.codeStore.Set(item.Hash, data)
		d.codeDBLock.Unlock()
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: saving %s item %x", ErrInvariantBroken, item.Kind, item.Hash)
	}
	d.savedCache.Add(item.Hash, struct{}{})

	if item.IsRoot {
		if n := len(d.dependencies); n != 0 {
			return fmt.Errorf("%w: %d dependency entries left at root save", ErrInvariantBroken, n)
		}
		if n := d.queue.len(); n != 0 {
			return fmt.Errorf("%w: %d items still queued at root save", ErrInvariantBroken, n)
		}
		d.logger.Info("State sync reached the root", "root", item.Hash, "nodes", d.progress.savedNodes.Load())
	}
	return d.runChainReaction(item.Hash)
}
