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

package db

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// SnapDB is a Store over a leveldb database. The overlay is a plain map;
// Commit turns it into a single leveldb write batch so a crash either
// persists the whole snapshot or none of it.
type SnapDB struct {
	mu      sync.RWMutex
	disk    *leveldb.DB
	pending map[string][]byte
}

// New opens a disk-backed store at the given path.
func New(path string) (*SnapDB, error) {
	disk, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &SnapDB{disk: disk, pending: make(map[string][]byte)}, nil
}

// NewMemory creates a store over leveldb's memory storage, used in tests
// and dry runs.
func NewMemory() *SnapDB {
	disk, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		panic(err) // memory storage cannot fail to open
	}
	return &SnapDB{disk: disk, pending: make(map[string][]byte)}
}

func (s *SnapDB) Get(hash common.Hash) ([]byte, error) {
	return s.get(hash[:])
}

func (s *SnapDB) get(key []byte) ([]byte, error) {
	s.mu.RLock()
	if blob, ok := s.pending[string(key)]; ok {
		s.mu.RUnlock()
		return blob, nil
	}
	s.mu.RUnlock()

	blob, err := s.disk.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, ErrNotFound
	}
	return blob, err
}

func (s *SnapDB) Set(hash common.Hash, blob []byte) error {
	return s.PutIndexed(hash[:], blob)
}

func (s *SnapDB) PutIndexed(key []byte, blob []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[string(key)] = common.CopyBytes(blob)
	return nil
}

func (s *SnapDB) KeyExists(hash common.Hash) (bool, error) {
	s.mu.RLock()
	if _, ok := s.pending[string(hash[:])]; ok {
		s.mu.RUnlock()
		return true, nil
	}
	s.mu.RUnlock()

	return s.disk.Has(hash[:], nil)
}

func (s *SnapDB) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}
	batch := new(leveldb.Batch)
	for key, blob := range s.pending {
		batch.Put([]byte(key), blob)
	}
	if err := s.disk.Write(batch, nil); err != nil {
		return err
	}
	s.pending = make(map[string][]byte)
	return nil
}

func (s *SnapDB) Close() error {
	return s.disk.Close()
}
