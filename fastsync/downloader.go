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

// Package fastsync downloads the complete state behind a state-trie root
// hash: every trie node, contract code blob and storage-trie node reachable
// from the root, verified against its content address and persisted into
// two snapshotable stores. Peer selection and wire framing are delegated to
// a RequestExecutor; the package owns scheduling, dependency ordering,
// deduplication and restartable progress accounting.
package fastsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Osiyomeoh/nethermind/db"
	"github.com/Osiyomeoh/nethermind/trie"
)

// RequestExecutor hands a prepared batch to a remote peer and blocks until
// a response, a timeout or cancellation. The returned batch carries the
// response blobs positionally aligned with the request items; nil slots
// mean the peer did not return that item. This call is the drive loop's
// only suspension point.
type RequestExecutor interface {
	ExecuteRequest(ctx context.Context, batch *Batch) (*Batch, error)
}

// TrieCodec decodes raw trie-node payloads into their structural form.
type TrieCodec interface {
	DecodeNode(blob []byte) (*trie.Node, error)
}

// AccountCodec extracts the code hash and storage root from a state leaf.
type AccountCodec interface {
	DecodeAccount(blob []byte) (*trie.Account, error)
}

// Config tunes the downloader. The zero value is not usable; start from
// DefaultConfig.
type Config struct {
	MaxRequestSize int   // items per request batch
	MaxPending     int64 // request batches in flight at once
	DedupCacheSize int   // recently-saved hashes kept to skip store probes
}

// DefaultConfig mirrors the wire protocol's batch limit and keeps a single
// request outstanding, which is what makes the progress journal trivially
// crash-safe: it is only committed when nothing is in flight.
var DefaultConfig = Config{
	MaxRequestSize: 384,
	MaxPending:     1,
	DedupCacheSize: 65536,
}

// Downloader drives a pipelined request/response dialogue against remote
// peers until the whole state behind a root hash is persisted locally.
// A single cooperative task runs the loop; all scheduling, validation and
// persistence happens synchronously between executor calls.
type Downloader struct {
	config   Config
	executor RequestExecutor
	codec    TrieCodec
	accounts AccountCodec
	logger   log.Logger

	// The two persistent stores and their locks. Whenever both are held,
	// the state lock is taken first.
	stateStore  db.Store
	codeStore   db.Store
	stateDBLock sync.Mutex
	codeDBLock  sync.Mutex

	queue            *pendingQueue
	dependencies     map[common.Hash]map[common.Hash]*dependentItem
	codesSameAsNodes mapset.Set[common.Hash]
	savedCache       *lru.Cache[common.Hash, struct{}]

	lastRequest     *Batch
	pendingRequests atomic.Int64
	maxStateLevel   int
	root            common.Hash

	progress *progressTracker
}

// New creates a downloader over the given stores, restoring any previously
// persisted progress counters from the code store.
func New(stateStore, codeStore db.Store, config *Config) (*Downloader, error) {
	if config == nil {
		cfg := DefaultConfig
		config = &cfg
	}
	cache, err := lru.New[common.Hash, struct{}](config.DedupCacheSize)
	if err != nil {
		return nil, err
	}
	d := &Downloader{
		config:           *config,
		codec:            trie.Codec{},
		accounts:         trie.Codec{},
		logger:           log.New("module", "fastsync"),
		stateStore:       stateStore,
		codeStore:        codeStore,
		queue:            newPendingQueue(),
		dependencies:     make(map[common.Hash]map[common.Hash]*dependentItem),
		codesSameAsNodes: mapset.NewThreadUnsafeSet[common.Hash](),
		savedCache:       cache,
		progress:         new(progressTracker),
	}
	if err := d.progress.load(codeStore); err != nil {
		return nil, err
	}
	return d, nil
}

// SetExecutor binds the peer-facing executor. Call once before the first
// Sync; replacing it mid-sync is undefined.
func (d *Downloader) SetExecutor(executor RequestExecutor) {
	d.executor = executor
}

// Sync downloads everything reachable from root and returns the total
// number of nodes consumed, including those of earlier sessions.
func (d *Downloader) Sync(ctx context.Context, root common.Hash) (uint64, error) {
	if root == types.EmptyRootHash {
		return d.progress.consumed.Load(), nil
	}
	if d.executor == nil {
		return d.progress.consumed.Load(), ErrNoExecutor
	}
	// A different root, or a request left in flight by a previous session,
	// invalidates all in-memory scheduling state. The progress counters
	// survive the reset.
	if root != d.root || d.pendingRequests.Load() != 0 {
		d.reset(root)
	}
	if d.queue.len() == 0 {
		d.addNode(&StateSyncItem{Hash: root, Kind: StateData, Priority: 1, IsRoot: true}, nil, "initial", false)
	}
	err := d.loop(ctx)
	return d.progress.consumed.Load(), err
}

// IsFullySynced reports whether the state store already holds the root.
func (d *Downloader) IsFullySynced(root common.Hash) (bool, error) {
	if root == types.EmptyRootHash {
		return true, nil
	}
	d.stateDBLock.Lock()
	defer d.stateDBLock.Unlock()

	return d.stateStore.KeyExists(root)
}

// Progress returns a snapshot of the persisted counters.
func (d *Downloader) Progress() *SyncProgress {
	return d.progress.snapshot()
}

// loop plans batches, executes them one at a time and feeds the responses
// back into the scheduler, until the queue drains with nothing in flight.
func (d *Downloader) loop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ErrCanceled
		default:
		}
		batches := d.prepareRequests()
		if len(batches) == 0 {
			if n := d.pendingRequests.Load(); n != 0 {
				return fmt.Errorf("%w: nothing to dispatch with %d request(s) in flight", ErrInvariantBroken, n)
			}
			return nil
		}
		for _, batch := range batches {
			d.logger.Trace("Requesting state nodes", "count", len(batch.Items))
			filled, err := d.executor.ExecuteRequest(ctx, batch)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return ErrCanceled
				}
				return err
			}
			if filled == nil {
				filled = batch
			}
			if err := d.handleResponse(filled); err != nil {
				return err
			}
		}
	}
}

// reset drops all in-memory scheduling state for a fresh session.
func (d *Downloader) reset(root common.Hash) {
	d.logger.Debug("Resetting state sync", "root", root, "pending", d.pendingRequests.Load())
	d.queue = newPendingQueue()
	d.dependencies = make(map[common.Hash]map[common.Hash]*dependentItem)
	d.codesSameAsNodes.Clear()
	d.lastRequest = nil
	d.pendingRequests.Store(0)
	d.maxStateLevel = 0
	d.root = root
}
