// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"net"
	"net/netip"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/sirupsen/logrus"
)

// GTPUTunnel is the NG-U tunnel of a PDU session. Downlink G-PDUs are
// policed by the UE-AMBR limiter unless it is ignored.
type GTPUTunnel struct {
	msg     api.GTPUTunnelCreationMessage
	peer    netip.AddrPort
	stopped atomic.Bool
	log     *logrus.Entry
}

func NewGTPUTunnel(msg api.GTPUTunnelCreationMessage) *GTPUTunnel {
	return &GTPUTunnel{
		msg:  msg,
		peer: netip.AddrPortFrom(msg.Peer.Address, msg.PeerPort),
		log: logrus.WithFields(logrus.Fields{
			"ue-index": msg.UEIndex,
			"n3-teid":  msg.LocalTEID,
		}),
	}
}

func (t *GTPUTunnel) drop(msg string, err error) {
	entry := t.log
	if err != nil {
		entry = entry.WithError(err)
	}
	if t.msg.WarnOnDrop {
		entry.Warn(msg)
	} else {
		entry.Debug(msg)
	}
}

type gtpuRx struct{ t *GTPUTunnel }

func (r gtpuRx) HandlePDU(pdu []byte, src net.Addr) {
	t := r.t
	if t.stopped.Load() {
		return
	}
	teid, qfi, payload, err := gtpu.DecapsulateQoSTPDU(pdu)
	if err != nil {
		t.drop("Dropped DL G-PDU", err)
		return
	}
	if teid != t.msg.LocalTEID && !t.msg.TestMode {
		t.drop("Dropped DL G-PDU: wrong TEID", nil)
		return
	}
	if !t.msg.IgnoreUEAMBR && t.msg.UEAMBR != nil && !t.msg.UEAMBR.Consume(uint64(len(payload))) {
		t.drop("Dropped DL G-PDU: UE-AMBR exceeded", nil)
		return
	}
	t.msg.RxLower.OnNewSDU(payload, qfi)
}

type gtpuTx struct{ t *GTPUTunnel }

func (tx gtpuTx) HandleSDU(sdu []byte, qfi api.QoSFlowID) {
	t := tx.t
	if t.stopped.Load() {
		return
	}
	pdu, err := gtpu.NewQoSTPDU(t.msg.Peer.TEID, gtpu.ULPDUSessionInformation, qfi, sdu)
	if err != nil {
		t.drop("Dropped UL SDU", err)
		return
	}
	t.msg.TxLower.OnNewPDU(pdu, t.peer)
}

func (t *GTPUTunnel) RxHandler() api.GTPUTunnelRxHandler       { return gtpuRx{t} }
func (t *GTPUTunnel) TxUpper() api.GTPUTunnelTxUpperInterface { return gtpuTx{t} }

func (t *GTPUTunnel) Stop() {
	t.stopped.Store(true)
}
