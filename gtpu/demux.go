// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"net"
	"sync"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrDuplicateTEID = errors.New("TEID already registered")
	ErrDemuxStopped  = errors.New("GTP-U demux stopped")
)

type tunnelEntry struct {
	teid    api.TEID
	handler api.GTPUTunnelRxHandler
	queue   *DispatchQueue
}

// Demux routes GTP-U datagrams to tunnels by TEID.
type Demux struct {
	cfg      DemuxConfig
	tunnels  map[api.TEID]*tunnelEntry
	mu       sync.RWMutex
	stopped  bool
	testTEID api.TEID
	metrics  *metrics.Collectors
}

// NewDemux creates a Demux, metrics may be nil.
func NewDemux(cfg DemuxConfig, m *metrics.Collectors) (*Demux, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Demux{
		cfg:     cfg,
		tunnels: make(map[api.TEID]*tunnelEntry),
		metrics: m,
	}, nil
}

func (d *Demux) AddTunnel(teid api.TEID, exec api.TaskExecutorInterface, handler api.GTPUTunnelRxHandler) (api.DispatchQueueInterface, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return nil, ErrDemuxStopped
	}
	if _, exists := d.tunnels[teid]; exists {
		return nil, errors.Wrapf(ErrDuplicateTEID, "TEID %d", teid)
	}
	entry := &tunnelEntry{teid: teid, handler: handler}
	entry.queue = newDispatchQueue(teid, exec, d.cfg.QueueSize, d.cfg.BatchSize, func(items []pduItem) {
		d.dispatch(entry, items)
	})
	d.tunnels[teid] = entry
	d.metrics.SetTunnels(len(d.tunnels))
	logrus.WithFields(logrus.Fields{"teid": teid}).Debug("Tunnel added to GTP-U demux")
	return entry.queue, nil
}

func (d *Demux) RemoveTunnel(teid api.TEID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.tunnels[teid]; !exists {
		logrus.WithFields(logrus.Fields{"teid": teid}).Error("Tunnel not found in GTP-U demux")
		return false
	}
	delete(d.tunnels, teid)
	d.metrics.SetTunnels(len(d.tunnels))
	logrus.WithFields(logrus.Fields{"teid": teid}).Debug("Tunnel removed from GTP-U demux")
	return true
}

// ApplyTestTEID forwards every datagram to teid. Only used in test mode.
func (d *Demux) ApplyTestTEID(teid api.TEID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.testTEID = teid
}

func (d *Demux) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
}

func (d *Demux) NofTunnels() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.tunnels)
}

// HandlePDU is called from the network I/O path, it never blocks.
func (d *Demux) HandlePDU(pdu []byte, src net.Addr) {
	d.metrics.PDUReceived()
	teid, err := ParseTEID(pdu)
	if err != nil {
		d.drop(metrics.DropMalformed, 0, src, err)
		return
	}

	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		d.drop(metrics.DropStopped, teid, src, nil)
		return
	}
	if d.cfg.TestMode {
		teid = d.testTEID
	}
	entry, exists := d.tunnels[teid]
	d.mu.RUnlock()

	if !exists {
		d.drop(metrics.DropUnknownTEID, teid, src, nil)
		return
	}
	if !entry.queue.push(pduItem{pdu: pdu, src: src}) {
		d.drop(metrics.DropQueueFull, teid, src, nil)
	}
}

// dispatch runs on the tunnel executor. The tunnel may have been removed,
// or replaced, since the datagrams were enqueued.
func (d *Demux) dispatch(entry *tunnelEntry, items []pduItem) {
	for _, item := range items {
		d.mu.RLock()
		current := d.tunnels[entry.teid]
		d.mu.RUnlock()
		if current != entry {
			d.drop(metrics.DropRemovedInFlight, entry.teid, item.src, nil)
			continue
		}
		entry.handler.HandlePDU(item.pdu, item.src)
	}
}

func (d *Demux) drop(reason string, teid api.TEID, src net.Addr, err error) {
	d.metrics.PDUDropped(reason)
	fields := logrus.Fields{"teid": teid, "reason": reason}
	if src != nil {
		fields["src"] = src.String()
	}
	l := logrus.WithFields(fields)
	if err != nil {
		l = l.WithError(err)
	}
	if d.cfg.WarnOnDrop {
		l.Warn("Dropped GTP-U PDU")
		return
	}
	l.Debug("Dropped GTP-U PDU")
}
