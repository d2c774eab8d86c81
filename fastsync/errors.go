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

import "errors"

var (
	// ErrCanceled is returned when the context fired while a sync was in
	// progress. Nothing from the in-flight batch is committed.
	ErrCanceled = errors.New("state sync canceled")

	// ErrNoData is returned when a peer answered with no responses at all,
	// or with nothing usable. The batch is re-queued on the next plan; the
	// caller is expected to replace the executor's peer.
	ErrNoData = errors.New("peer returned no data")

	// ErrInvalidData is returned when a response blob does not hash to the
	// requested key. Fatal for the executor binding; the batch is re-queued
	// for a different peer.
	ErrInvalidData = errors.New("peer returned invalid data")

	// ErrInvariantBroken signals a scheduler logic bug, e.g. outstanding
	// dependencies at the moment the root saves. Must abort.
	ErrInvariantBroken = errors.New("state sync invariant broken")

	// ErrNoExecutor is returned by Sync when no request executor was bound.
	ErrNoExecutor = errors.New("no request executor")
)
