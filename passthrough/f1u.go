// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/sirupsen/logrus"
)

// F1UBearer forwards PDCP PDUs to the F1-U gateway without NR-U header.
type F1UBearer struct {
	msg     api.F1UBearerCreationMessage
	stopped atomic.Bool
	log     *logrus.Entry
}

func NewF1UBearer(msg api.F1UBearerCreationMessage) *F1UBearer {
	return &F1UBearer{
		msg: msg,
		log: logrus.WithFields(logrus.Fields{
			"ue-index":  msg.UEIndex,
			"drb-id":    msg.DRBID,
			"ul-tunnel": msg.ULTunnel.String(),
		}),
	}
}

type f1uTx struct{ b *F1UBearer }

func (t f1uTx) HandleSDU(sdu []byte, isRetx bool) {
	if t.b.stopped.Load() {
		return
	}
	t.b.msg.TxPDU.OnNewPDU(sdu)
}

func (t f1uTx) DiscardSDU(sn uint32) {
	t.b.log.WithFields(logrus.Fields{"sn": sn}).Trace("Discard SDU")
}

type f1uRx struct{ b *F1UBearer }

// HandlePDU delivers an uplink PDU from the gateway. It is called on the UL
// executor by the gateway demux.
func (r f1uRx) HandlePDU(pdu []byte) {
	if r.b.stopped.Load() {
		return
	}
	r.b.msg.RxSDU.OnNewSDU(pdu)
}

func (b *F1UBearer) TxSDUHandler() api.F1UTxSDUHandler { return f1uTx{b} }
func (b *F1UBearer) RxPDUHandler() api.F1URxPDUHandler { return f1uRx{b} }

func (b *F1UBearer) Stop() {
	b.stopped.Store(true)
}
