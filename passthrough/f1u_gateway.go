// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// F1UGateway carries the F1-U bearers of the CU-UP over GTP-U. Uplink
// G-PDUs are routed by TEID through a demux of its own.
type F1UGateway struct {
	conn     *GTPUConn
	extAddr  netip.Addr
	peerPort uint16
	demux    *gtpu.Demux
	bearers  map[api.TEID]*F1UGatewayBearer
	mu       sync.Mutex
}

func NewF1UGateway(conn *GTPUConn, extAddr netip.Addr, peerPort uint16, demuxCfg gtpu.DemuxConfig) (*F1UGateway, error) {
	demux, err := gtpu.NewDemux(demuxCfg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not create F1-U demux")
	}
	if !extAddr.IsValid() {
		extAddr = conn.LocalAddrPort().Addr()
	}
	return &F1UGateway{
		conn:     conn,
		extAddr:  extAddr,
		peerPort: peerPort,
		demux:    demux,
		bearers:  make(map[api.TEID]*F1UGatewayBearer),
	}, nil
}

func (gw *F1UGateway) CreateCUBearer(ue api.UEIndex, drb api.DRBID, fiveQI api.FiveQI, cfg api.F1UConfig, ulTEID api.TEID, rx api.F1UGatewayRxNotifier, ulExec api.TaskExecutorInterface) (api.F1UGatewayBearerInterface, error) {
	b := &F1UGatewayBearer{
		gw:     gw,
		ulTEID: ulTEID,
		rx:     rx,
		log: logrus.WithFields(logrus.Fields{
			"ue-index": ue,
			"drb-id":   drb,
			"f1u-teid": ulTEID,
		}),
		warnOnDrop: cfg.WarnOnDrop,
	}
	gw.mu.Lock()
	defer gw.mu.Unlock()
	if _, exists := gw.bearers[ulTEID]; exists {
		return nil, errors.Wrapf(gtpu.ErrDuplicateTEID, "F1-U TEID %d", ulTEID)
	}
	queue, err := gw.demux.AddTunnel(ulTEID, ulExec, b)
	if err != nil {
		return nil, err
	}
	b.queue = queue
	gw.bearers[ulTEID] = b
	b.log.WithFields(logrus.Fields{"5qi": fiveQI}).Debug("F1-U bearer created")
	return b, nil
}

func (gw *F1UGateway) AttachDLTEID(ul api.UPTransportLayerInfo, dl api.UPTransportLayerInfo) error {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	b, exists := gw.bearers[ul.TEID]
	if !exists {
		return errors.Errorf("no F1-U bearer with UL TEID %d", ul.TEID)
	}
	b.dl.Store(&dl)
	b.log.WithFields(logrus.Fields{"dl-tunnel": dl.String()}).Debug("DL tunnel attached")
	return nil
}

func (gw *F1UGateway) removeBearer(teid api.TEID) {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	delete(gw.bearers, teid)
	gw.demux.RemoveTunnel(teid)
}

// LocalAddrPort is the address of the socket, where the DU sends to.
func (gw *F1UGateway) LocalAddrPort() netip.AddrPort {
	return gw.conn.LocalAddrPort()
}

func (gw *F1UGateway) NofBearers() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return len(gw.bearers)
}

// Serve feeds the uplink G-PDUs received on the socket to the bearers.
func (gw *F1UGateway) Serve() error {
	return gw.conn.Serve(gw.demux.HandlePDU)
}

func (gw *F1UGateway) Close() error {
	gw.demux.Stop()
	return gw.conn.Close()
}

// F1UGatewayBearer is the CU side of one F1-U tunnel.
type F1UGatewayBearer struct {
	gw         *F1UGateway
	ulTEID     api.TEID
	dl         atomic.Pointer[api.UPTransportLayerInfo]
	rx         api.F1UGatewayRxNotifier
	queue      api.DispatchQueueInterface
	stopped    atomic.Bool
	warnOnDrop bool
	log        *logrus.Entry
}

func (b *F1UGatewayBearer) drop(msg string, err error) {
	entry := b.log
	if err != nil {
		entry = entry.WithError(err)
	}
	if b.warnOnDrop {
		entry.Warn(msg)
	} else {
		entry.Debug(msg)
	}
}

// OnNewPDU sends a downlink NR-U PDU to the DU.
func (b *F1UGatewayBearer) OnNewPDU(pdu []byte) {
	if b.stopped.Load() {
		return
	}
	dl := b.dl.Load()
	if dl == nil {
		b.drop("Dropped DL PDU: no DL tunnel attached", nil)
		return
	}
	gpdu, err := gtpu.NewTPDU(dl.TEID, pdu)
	if err != nil {
		b.drop("Dropped DL PDU", err)
		return
	}
	if err := b.gw.conn.Send(gpdu, netip.AddrPortFrom(dl.Address, b.gw.peerPort)); err != nil {
		b.drop("Could not send DL PDU", err)
	}
}

// HandlePDU receives an uplink G-PDU from the demux.
func (b *F1UGatewayBearer) HandlePDU(pdu []byte, src net.Addr) {
	if b.stopped.Load() {
		return
	}
	_, payload, err := gtpu.DecapsulateTPDU(pdu)
	if err != nil {
		b.drop("Dropped UL G-PDU", err)
		return
	}
	b.rx.OnNewPDU(payload)
}

func (b *F1UGatewayBearer) BindAddress() (netip.Addr, error) {
	if b.gw.extAddr.IsUnspecified() {
		return netip.Addr{}, errors.Errorf("F1-U gateway bound to %s has no usable address", b.gw.extAddr)
	}
	return b.gw.extAddr, nil
}

func (b *F1UGatewayBearer) Stop() {
	if b.stopped.Swap(true) {
		return
	}
	b.gw.removeBearer(b.ulTEID)
	if b.queue != nil {
		b.queue.Stop()
	}
	b.log.Debug("F1-U bearer stopped")
}
