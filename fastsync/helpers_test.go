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
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/Osiyomeoh/nethermind/db"
	"github.com/Osiyomeoh/nethermind/trie"
)

// testSource is the remote side's content, keyed by hash, that the test
// executor serves from.
type testSource struct {
	nodes map[common.Hash][]byte
}

func newTestSource() *testSource {
	return &testSource{nodes: make(map[common.Hash][]byte)}
}

func (s *testSource) add(blob []byte) common.Hash {
	hash := crypto.Keccak256Hash(blob)
	s.nodes[hash] = blob
	return hash
}

// compactKey hex-prefix encodes a nibble path, with the terminator flag set
// for leaves.
func compactKey(nibbles []byte, leaf bool) []byte {
	flag := byte(0)
	if leaf {
		flag = 2
	}
	buf := make([]byte, len(nibbles)/2+1)
	if len(nibbles)%2 == 1 {
		buf[0] = (flag|1)<<4 | nibbles[0]
		nibbles = nibbles[1:]
	} else {
		buf[0] = flag << 4
	}
	for i := 0; i < len(nibbles); i += 2 {
		buf[i/2+1] = nibbles[i]<<4 | nibbles[i+1]
	}
	return buf
}

func encLeaf(t *testing.T, nibbles []byte, value []byte) []byte {
	t.Helper()
	blob, err := rlp.EncodeToBytes([]interface{}{compactKey(nibbles, true), value})
	if err != nil {
		t.Fatalf("failed to encode leaf: %v", err)
	}
	return blob
}

func encExtension(t *testing.T, nibbles []byte, child common.Hash) []byte {
	t.Helper()
	blob, err := rlp.EncodeToBytes([]interface{}{compactKey(nibbles, false), child.Bytes()})
	if err != nil {
		t.Fatalf("failed to encode extension: %v", err)
	}
	return blob
}

func encBranch(t *testing.T, children map[int]common.Hash) []byte {
	t.Helper()
	elems := make([]interface{}, 17)
	for i := range elems {
		elems[i] = []byte{}
	}
	for slot, hash := range children {
		elems[slot] = hash.Bytes()
	}
	blob, err := rlp.EncodeToBytes(elems)
	if err != nil {
		t.Fatalf("failed to encode branch: %v", err)
	}
	return blob
}

func encAccount(t *testing.T, codeHash, storageRoot common.Hash) []byte {
	t.Helper()
	acct := types.StateAccount{
		Nonce:    1,
		Balance:  uint256.NewInt(1000),
		Root:     storageRoot,
		CodeHash: codeHash.Bytes(),
	}
	blob, err := rlp.EncodeToBytes(&acct)
	if err != nil {
		t.Fatalf("failed to encode account: %v", err)
	}
	return blob
}

// countingStore wraps a store and records how often each hash is written,
// to catch double saves.
type countingStore struct {
	db.Store
	sets map[common.Hash]int
}

func newCountingStore() *countingStore {
	return &countingStore{Store: db.NewMemory(), sets: make(map[common.Hash]int)}
}

func (c *countingStore) Set(hash common.Hash, blob []byte) error {
	c.sets[hash]++
	return c.Store.Set(hash, blob)
}

// testExecutor answers batches from a testSource. The respond hook, when
// set, replaces the default answer; the request log keeps every dispatched
// hash list for assertions.
type testExecutor struct {
	source   *testSource
	calls    int
	requests [][]common.Hash
	respond  func(call int, items []*StateSyncItem) [][]byte
	err      error
}

func (e *testExecutor) ExecuteRequest(ctx context.Context, batch *Batch) (*Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.calls++
	hashes := make([]common.Hash, len(batch.Items))
	for i, item := range batch.Items {
		hashes[i] = item.Hash
	}
	e.requests = append(e.requests, hashes)
	if e.err != nil {
		return nil, e.err
	}
	if e.respond != nil {
		batch.Responses = e.respond(e.calls, batch.Items)
		return batch, nil
	}
	responses := make([][]byte, len(batch.Items))
	for i, item := range batch.Items {
		responses[i] = e.source.nodes[item.Hash]
	}
	batch.Responses = responses
	return batch, nil
}

// requestedCount counts how often a hash was dispatched across all batches.
func (e *testExecutor) requestedCount(hash common.Hash) int {
	n := 0
	for _, req := range e.requests {
		for _, h := range req {
			if h == hash {
				n++
			}
		}
	}
	return n
}

func newTestSync(t *testing.T) (*Downloader, *countingStore, *countingStore, *testSource, *testExecutor) {
	t.Helper()
	state, code := newCountingStore(), newCountingStore()
	d, err := New(state, code, nil)
	if err != nil {
		t.Fatalf("failed to create downloader: %v", err)
	}
	source := newTestSource()
	executor := &testExecutor{source: source}
	d.SetExecutor(executor)
	return d, state, code, source, executor
}

// buildTestState assembles a small but structurally complete state: a root
// branch over an extension chain to an empty account and a contract account
// with code and a two-leaf storage trie. Returns the root and the number of
// downloadable items.
func buildTestState(t *testing.T, source *testSource) (common.Hash, int) {
	code := []byte{0x60, 0x80, 0x60, 0x40, 0x52, 0x00}
	codeHash := source.add(code)

	slot1 := source.add(encLeaf(t, []byte{2, 4}, []byte("slot-value-one")))
	slot2 := source.add(encLeaf(t, []byte{9, 1}, []byte("slot-value-two")))
	storageRoot := source.add(encBranch(t, map[int]common.Hash{1: slot1, 5: slot2}))

	plainLeaf := source.add(encLeaf(t, []byte{6, 6, 6},
		encAccount(t, types.EmptyCodeHash, types.EmptyRootHash)))
	ext := source.add(encExtension(t, []byte{3, 4}, plainLeaf))

	contractLeaf := source.add(encLeaf(t, []byte{0xa, 0xb, 0xc},
		encAccount(t, codeHash, storageRoot)))

	root := source.add(encBranch(t, map[int]common.Hash{0: ext, 7: contractLeaf}))
	return root, len(source.nodes)
}

// checkTrieComplete walks the reconstructed trie and fails the test unless
// every reachable node is present, hashes to its key, and every account's
// code landed in the code store.
func checkTrieComplete(t *testing.T, state, code db.Store, root common.Hash, kind NodeDataType) {
	t.Helper()
	blob, err := state.Get(root)
	if err != nil {
		t.Fatalf("node %x missing from state store: %v", root, err)
	}
	if have := crypto.Keccak256Hash(blob); have != root {
		t.Fatalf("node %x stored under wrong key: payload hashes to %x", root, have)
	}
	node, err := trie.DecodeNode(blob)
	if err != nil {
		t.Fatalf("node %x undecodable: %v", root, err)
	}
	switch node.Type {
	case trie.BranchNode:
		for _, child := range node.Children {
			if child != (common.Hash{}) {
				checkTrieComplete(t, state, code, child, kind)
			}
		}
	case trie.ExtensionNode:
		if node.Child != (common.Hash{}) {
			checkTrieComplete(t, state, code, node.Child, kind)
		}
	case trie.LeafNode:
		if kind != StateData {
			return
		}
		account, err := trie.DecodeAccount(node.Value)
		if err != nil {
			t.Fatalf("account leaf %x undecodable: %v", root, err)
		}
		if account.CodeHash != types.EmptyCodeHash {
			codeBlob, err := code.Get(account.CodeHash)
			if err != nil {
				t.Fatalf("code %x missing from code store: %v", account.CodeHash, err)
			}
			if have := crypto.Keccak256Hash(codeBlob); have != account.CodeHash {
				t.Fatalf("code %x stored under wrong key: payload hashes to %x", account.CodeHash, have)
			}
		}
		if account.StorageRoot != types.EmptyRootHash {
			checkTrieComplete(t, state, code, account.StorageRoot, StorageData)
		}
	}
}
