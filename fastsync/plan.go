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

// prepareRequests drains the pending queue into batches, keeping the
// in-flight count under MaxPending. A batch handed out earlier but never
// acknowledged is abandoned and its items pushed back first, bypassing the
// dedup probes.
func (d *Downloader) prepareRequests() []*Batch {
	if last := d.lastRequest; last != nil {
		d.lastRequest = nil
		d.pendingRequests.Add(-1)
		for _, item := range last.Items {
			d.addNode(item, nil, "requeue", true)
		}
		requeuedMeter.Mark(int64(len(last.Items)))
		d.logger.Debug("Re-queued unacknowledged batch", "items", len(last.Items))
	}
	var batches []*Batch
	for d.queue.len() > 0 && d.pendingRequests.Load()+int64(len(batches)) < d.config.MaxPending {
		items := make([]*StateSyncItem, 0, d.config.MaxRequestSize)
		for len(items) < d.config.MaxRequestSize {
			item := d.queue.pop()
			if item == nil {
				break
			}
			items = append(items, item)
		}
		if len(items) == 0 {
			break
		}
		d.progress.requested.Add(uint64(len(items)))
		requestedMeter.Mark(int64(len(items)))
		batches = append(batches, &Batch{Items: items})
	}
	if len(batches) > 0 {
		d.pendingRequests.Add(int64(len(batches)))
		d.lastRequest = batches[len(batches)-1]
	}
	queueGauge.Update(int64(d.queue.len()))
	return batches
}
