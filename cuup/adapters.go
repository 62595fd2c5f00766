// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"net/netip"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
)

// link is a re-pointable reference to the next layer. Data path goroutines
// read it while the control executor swaps it, so both sides go through
// atomic operations and never observe a half-updated pair.
type link[T any] struct {
	p atomic.Pointer[T]
}

func (l *link[T]) connect(next T) {
	l.p.Store(&next)
}

func (l *link[T]) disconnect() {
	l.p.Store(nil)
}

func (l *link[T]) get() (T, bool) {
	p := l.p.Load()
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// SDAP rx -> GTP-U tx
type sdapToGTPUAdapter struct {
	link[api.GTPUTunnelTxUpperInterface]
}

func (a *sdapToGTPUAdapter) OnNewSDU(sdu []byte, qfi api.QoSFlowID) {
	if next, ok := a.get(); ok {
		next.HandleSDU(sdu, qfi)
	}
}

// GTP-U rx -> SDAP tx
type gtpuToSDAPAdapter struct {
	link[api.SDAPTxSDUHandler]
}

func (a *gtpuToSDAPAdapter) OnNewSDU(sdu []byte, qfi api.QoSFlowID) {
	if next, ok := a.get(); ok {
		next.HandleSDU(sdu, qfi)
	}
}

// GTP-U tx -> NG-U gateway
type gtpuToNetworkAdapter struct {
	link[api.GTPUTunnelTxLowerNotifier]
}

func (a *gtpuToNetworkAdapter) OnNewPDU(pdu []byte, dst netip.AddrPort) {
	if next, ok := a.get(); ok {
		next.OnNewPDU(pdu, dst)
	}
}

// SDAP tx -> PDCP tx, one per QoS flow
type sdapToPDCPAdapter struct {
	link[api.PDCPTxUpperDataInterface]
}

func (a *sdapToPDCPAdapter) OnNewPDU(pdu []byte) {
	if next, ok := a.get(); ok {
		next.HandleSDU(pdu)
	}
}

// PDCP rx -> SDAP rx
type pdcpToSDAPAdapter struct {
	link[api.SDAPRxPDUHandler]
}

func (a *pdcpToSDAPAdapter) OnNewSDU(sdu []byte) {
	if next, ok := a.get(); ok {
		next.HandlePDU(sdu)
	}
}

// PDCP tx -> F1-U tx
type pdcpToF1UAdapter struct {
	link[api.F1UTxSDUHandler]
}

func (a *pdcpToF1UAdapter) OnNewPDU(pdu []byte, isRetx bool) {
	if next, ok := a.get(); ok {
		next.HandleSDU(pdu, isRetx)
	}
}

func (a *pdcpToF1UAdapter) OnDiscardPDU(sn uint32) {
	if next, ok := a.get(); ok {
		next.DiscardSDU(sn)
	}
}

type pdcpLower struct {
	rx api.PDCPRxLowerInterface
	tx api.PDCPTxLowerInterface
}

// F1-U rx -> PDCP rx lower and PDCP tx lower
type f1uToPDCPAdapter struct {
	link[pdcpLower]
}

func (a *f1uToPDCPAdapter) connectPDCP(rx api.PDCPRxLowerInterface, tx api.PDCPTxLowerInterface) {
	a.connect(pdcpLower{rx: rx, tx: tx})
}

func (a *f1uToPDCPAdapter) OnNewSDU(sdu []byte) {
	if next, ok := a.get(); ok {
		next.rx.HandlePDU(sdu)
	}
}

func (a *f1uToPDCPAdapter) OnTransmitNotification(highestSN uint32) {
	if next, ok := a.get(); ok {
		next.tx.HandleTransmitNotification(highestSN)
	}
}

func (a *f1uToPDCPAdapter) OnDeliveryNotification(highestSN uint32) {
	if next, ok := a.get(); ok {
		next.tx.HandleDeliveryNotification(highestSN)
	}
}

func (a *f1uToPDCPAdapter) OnDesiredBufferSize(bytes uint32) {
	if next, ok := a.get(); ok {
		next.tx.HandleDesiredBufferSizeNotification(bytes)
	}
}

// F1-U gateway bearer rx -> F1-U rx
type gatewayToF1UAdapter struct {
	link[api.F1URxPDUHandler]
}

func (a *gatewayToF1UAdapter) OnNewPDU(pdu []byte) {
	if next, ok := a.get(); ok {
		next.HandlePDU(pdu)
	}
}
