// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"net"
	"sync/atomic"

	"github.com/golang-collections/go-datastructures/queue"
	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/sirupsen/logrus"
)

type pduItem struct {
	pdu []byte
	src net.Addr
}

// DispatchQueue buffers the datagrams of one tunnel and hands them to the
// tunnel executor by batches. At most one drain task is pending at a time.
type DispatchQueue struct {
	teid      api.TEID
	q         *queue.Queue
	exec      api.TaskExecutorInterface
	size      int64
	batch     int64
	scheduled atomic.Bool
	stopped   atomic.Bool
	process   func(items []pduItem)
}

func newDispatchQueue(teid api.TEID, exec api.TaskExecutorInterface, size uint32, batch uint32, process func(items []pduItem)) *DispatchQueue {
	return &DispatchQueue{
		teid:    teid,
		q:       queue.New(int64(batch)),
		exec:    exec,
		size:    int64(size),
		batch:   int64(batch),
		process: process,
	}
}

// push enqueues a datagram. It returns false if the queue is full or stopped.
func (d *DispatchQueue) push(item pduItem) bool {
	if d.stopped.Load() || d.q.Len() >= d.size {
		return false
	}
	if err := d.q.Put(item); err != nil {
		return false
	}
	d.schedule()
	return true
}

func (d *DispatchQueue) schedule() {
	if !d.scheduled.CompareAndSwap(false, true) {
		return
	}
	if !d.exec.Execute(d.drain) {
		d.scheduled.Store(false)
		logrus.WithFields(logrus.Fields{"teid": d.teid}).Warn("Could not schedule GTP-U dispatch task")
	}
}

func (d *DispatchQueue) drain() {
	if n := min(d.q.Len(), d.batch); n > 0 && !d.stopped.Load() {
		raw, err := d.q.Get(n)
		if err == nil {
			items := make([]pduItem, 0, len(raw))
			for _, r := range raw {
				items = append(items, r.(pduItem))
			}
			d.process(items)
		}
	}
	d.scheduled.Store(false)
	if !d.stopped.Load() && d.q.Len() > 0 {
		d.schedule()
	}
}

func (d *DispatchQueue) Len() int {
	return int(d.q.Len())
}

// Stop discards pending datagrams; later pushes fail.
func (d *DispatchQueue) Stop() {
	if d.stopped.Swap(true) {
		return
	}
	d.q.Dispose()
}
