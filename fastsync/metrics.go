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

// Contains the metrics collected by the fast-sync downloader.

package fastsync

import "github.com/ethereum/go-ethereum/metrics"

var (
	consumedMeter  = metrics.NewRegisteredMeter("sync/fast/nodes/consumed", nil)
	savedMeter     = metrics.NewRegisteredMeter("sync/fast/nodes/saved", nil)
	requestedMeter = metrics.NewRegisteredMeter("sync/fast/nodes/requested", nil)
	requeuedMeter  = metrics.NewRegisteredMeter("sync/fast/nodes/requeued", nil)

	queueGauge = metrics.NewRegisteredGauge("sync/fast/queue", nil)
)
