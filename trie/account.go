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

package trie

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

// Account is the part of a state leaf the sync cares about: the two hashes
// that may root further downloads.
type Account struct {
	CodeHash    common.Hash
	StorageRoot common.Hash
}

// DecodeAccount extracts the code hash and storage root from the RLP value
// carried by a state-trie leaf.
func DecodeAccount(blob []byte) (*Account, error) {
	var acct types.StateAccount
	if err := rlp.DecodeBytes(blob, &acct); err != nil {
		return nil, fmt.Errorf("trie: invalid account body: %w", err)
	}
	return &Account{
		CodeHash:    common.BytesToHash(acct.CodeHash),
		StorageRoot: acct.Root,
	}, nil
}
