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

// Package trie decodes Merkle-Patricia trie nodes into their structural
// form. It is the default codec behind the fast-sync downloader: the sync
// core only needs to know which hashes a node references, not how to walk
// or mutate a trie, so nodes decode into a flat struct instead of the
// recursive representation a full trie implementation would use.
package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	// ErrUnknownNode is returned when a payload is well-formed RLP but not
	// a recognisable trie node. It is fatal for the batch being processed.
	ErrUnknownNode = errors.New("trie: unknown node type")

	// ErrInvalidNode is returned when a payload cannot be interpreted as a
	// trie node at all.
	ErrInvalidNode = errors.New("trie: invalid node encoding")
)

// NodeType discriminates the structural variants of a decoded node.
type NodeType int

const (
	UnknownNode NodeType = iota
	BranchNode
	ExtensionNode
	LeafNode
)

func (t NodeType) String() string {
	switch t {
	case BranchNode:
		return "branch"
	case ExtensionNode:
		return "extension"
	case LeafNode:
		return "leaf"
	}
	return "unknown"
}

// Node is the decoded form of a trie node. The child lookup table is built
// eagerly during decoding: for a branch, Children holds the referenced hash
// per nibble slot (the zero hash marks an empty or inlined slot); for an
// extension, Child holds the single referenced hash (zero if the child is
// inlined in the parent payload and needs no retrieval).
type Node struct {
	Type     NodeType
	Children [16]common.Hash // branch child references by nibble
	Child    common.Hash     // extension child reference
	Key      []byte          // hex nibbles of a short node's path segment
	Value    []byte          // leaf value, or the branch value slot
}

// DecodeNode parses an RLP-encoded trie node. Hexary tries encode nodes as
// either a two-element list (leaf or extension, told apart by the
// hex-prefix terminator flag) or a seventeen-element list (branch).
func DecodeNode(blob []byte) (*Node, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidNode)
	}
	elems, _, err := rlp.SplitList(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	count, err := rlp.CountValues(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	switch count {
	case 2:
		return decodeShort(elems)
	case 17:
		return decodeFull(elems)
	default:
		return nil, fmt.Errorf("%w: %d list elements", ErrUnknownNode, count)
	}
}

// decodeShort parses a two-element node into a leaf or an extension.
func decodeShort(elems []byte) (*Node, error) {
	kbuf, rest, err := rlp.SplitString(elems)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, err)
	}
	if len(kbuf) == 0 || kbuf[0]>>4 > 3 {
		return nil, fmt.Errorf("%w: bad hex-prefix key", ErrInvalidNode)
	}
	key := compactToHex(kbuf)
	if hasTerm(key) {
		val, _, err := rlp.SplitString(rest)
		if err != nil {
			return nil, fmt.Errorf("%w: bad leaf value: %v", ErrInvalidNode, err)
		}
		return &Node{Type: LeafNode, Key: key, Value: val}, nil
	}
	n := &Node{Type: ExtensionNode, Key: key}
	kind, content, _, err := rlp.Split(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: bad extension child: %v", ErrInvalidNode, err)
	}
	switch {
	case kind == rlp.List:
		// Child inlined into this payload, nothing to reference.
	case len(content) == 32:
		n.Child = common.BytesToHash(content)
	default:
		return nil, fmt.Errorf("%w: extension child of %d bytes", ErrInvalidNode, len(content))
	}
	return n, nil
}

// decodeFull parses a seventeen-element node into a branch.
func decodeFull(elems []byte) (*Node, error) {
	n := &Node{Type: BranchNode}
	buf := elems
	for i := 0; i < 16; i++ {
		kind, content, rest, err := rlp.Split(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: bad branch slot %d: %v", ErrInvalidNode, i, err)
		}
		switch {
		case kind == rlp.List:
			// Inlined child, carried by this payload.
		case len(content) == 0:
			// Empty slot.
		case len(content) == 32:
			n.Children[i] = common.BytesToHash(content)
		default:
			return nil, fmt.Errorf("%w: branch slot %d reference of %d bytes", ErrInvalidNode, i, len(content))
		}
		buf = rest
	}
	val, _, err := rlp.SplitString(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: bad branch value: %v", ErrInvalidNode, err)
	}
	n.Value = val
	return n, nil
}

// Codec is the default node and account codec handed to the downloader.
type Codec struct{}

func (Codec) DecodeNode(blob []byte) (*Node, error) { return DecodeNode(blob) }

func (Codec) DecodeAccount(blob []byte) (*Account, error) { return DecodeAccount(blob) }
