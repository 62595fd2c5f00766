// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/security"
	"github.com/sirupsen/logrus"
)

type pdcpSecurity struct {
	cfg       security.AS128Config
	integrity security.IntegrityEnabled
	ciphering security.CipheringEnabled
}

// PDCPEntity forwards SDUs without header, ciphering nor integrity
// protection. Uplink PDUs go through the crypto executor before being
// delivered on the UL executor, as a ciphering PDCP would.
type PDCPEntity struct {
	msg api.PDCPEntityCreationMessage
	log *logrus.Entry

	txCount           atomic.Uint32
	desiredBufferSize atomic.Uint32
	bufferSizeKnown   atomic.Bool
	highestDelivered  atomic.Uint32
	txSec             atomic.Pointer[pdcpSecurity]
	rxSec             atomic.Pointer[pdcpSecurity]

	rxPaused atomic.Bool
	stopped  atomic.Bool

	// in-flight uplink PDUs
	cryptoMu      sync.Mutex
	cryptoPending int
	cryptoWaiters []chan struct{}
}

func NewPDCPEntity(msg api.PDCPEntityCreationMessage) *PDCPEntity {
	return &PDCPEntity{
		msg: msg,
		log: logrus.WithFields(logrus.Fields{
			"ue-index": msg.UEIndex,
			"drb-id":   msg.DRBID,
			"rlc-mode": msg.Config.RLCMode.String(),
		}),
	}
}

func (e *PDCPEntity) drop(msg string) {
	if e.msg.Custom.WarnOnDrop {
		e.log.Warn(msg)
	} else {
		e.log.Debug(msg)
	}
}

type pdcpTxUpperData struct{ e *PDCPEntity }

// HandleSDU transmits a downlink SDU while F1-U reports room for it.
func (d pdcpTxUpperData) HandleSDU(sdu []byte) {
	e := d.e
	if e.stopped.Load() {
		return
	}
	if e.bufferSizeKnown.Load() && uint64(e.desiredBufferSize.Load()) < uint64(len(sdu)) {
		e.drop("Dropped DL SDU: lower layer buffer is full")
		return
	}
	count := e.txCount.Add(1) - 1
	if count == math.MaxUint32 {
		e.msg.UpperControl.OnMaxCountReached()
	}
	e.msg.TxLower.OnNewPDU(sdu, false)
}

type pdcpTxLower struct{ e *PDCPEntity }

func (l pdcpTxLower) HandleTransmitNotification(highestSN uint32) {
	l.e.log.WithFields(logrus.Fields{"sn": highestSN}).Trace("Transmit notification")
}

func (l pdcpTxLower) HandleDeliveryNotification(highestSN uint32) {
	l.e.highestDelivered.Store(highestSN)
}

func (l pdcpTxLower) HandleDesiredBufferSizeNotification(bytes uint32) {
	l.e.desiredBufferSize.Store(bytes)
	l.e.bufferSizeKnown.Store(true)
}

type pdcpRxLower struct{ e *PDCPEntity }

// HandlePDU hands an uplink PDU to the crypto executor, then delivers it on
// the UL executor.
func (l pdcpRxLower) HandlePDU(pdu []byte) {
	e := l.e
	if e.stopped.Load() {
		return
	}
	if e.rxPaused.Load() {
		e.drop("Dropped UL PDU: PDU processing stopped")
		return
	}
	e.cryptoStarted()
	ok := e.msg.CryptoExecutor.Execute(func() {
		ok := e.msg.ULExecutor.Execute(func() {
			defer e.cryptoFinished()
			if !e.stopped.Load() {
				e.msg.RxUpperData.OnNewSDU(pdu)
			}
		})
		if !ok {
			e.cryptoFinished()
			e.drop("Dropped UL PDU: UL executor is full")
		}
	})
	if !ok {
		e.cryptoFinished()
		e.drop("Dropped UL PDU: crypto executor is full")
	}
}

func (e *PDCPEntity) cryptoStarted() {
	e.cryptoMu.Lock()
	defer e.cryptoMu.Unlock()
	e.cryptoPending++
}

func (e *PDCPEntity) cryptoFinished() {
	e.cryptoMu.Lock()
	defer e.cryptoMu.Unlock()
	e.cryptoPending--
	if e.cryptoPending > 0 {
		return
	}
	for _, w := range e.cryptoWaiters {
		close(w)
	}
	e.cryptoWaiters = nil
}

type pdcpTxControl struct{ e *PDCPEntity }

func (c pdcpTxControl) ConfigureSecurity(cfg security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled) {
	c.e.txSec.Store(&pdcpSecurity{cfg: cfg, integrity: integrity, ciphering: ciphering})
	c.e.logSecurity("tx", cfg, integrity, ciphering)
}

func (c pdcpTxControl) Reestablish(cfg security.AS128Config) {
	old := c.e.txSec.Load()
	sec := &pdcpSecurity{cfg: cfg}
	if old != nil {
		sec.integrity, sec.ciphering = old.integrity, old.ciphering
	}
	c.e.txSec.Store(sec)
	c.e.txCount.Store(0)
	c.e.log.Info("PDCP tx re-established")
}

type pdcpRxControl struct{ e *PDCPEntity }

func (c pdcpRxControl) ConfigureSecurity(cfg security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled) {
	c.e.rxSec.Store(&pdcpSecurity{cfg: cfg, integrity: integrity, ciphering: ciphering})
	c.e.logSecurity("rx", cfg, integrity, ciphering)
}

func (c pdcpRxControl) Reestablish(cfg security.AS128Config) {
	old := c.e.rxSec.Load()
	sec := &pdcpSecurity{cfg: cfg}
	if old != nil {
		sec.integrity, sec.ciphering = old.integrity, old.ciphering
	}
	c.e.rxSec.Store(sec)
	c.e.log.Info("PDCP rx re-established")
}

func (c pdcpRxControl) NotifyPDUProcessingStopped() {
	c.e.rxPaused.Store(true)
}

func (c pdcpRxControl) RestartPDUProcessing() {
	c.e.rxPaused.Store(false)
}

// CryptoDone is closed once every uplink PDU handed to the crypto executor
// so far has been delivered or dropped.
func (c pdcpRxControl) CryptoDone() <-chan struct{} {
	ch := make(chan struct{})
	c.e.cryptoMu.Lock()
	defer c.e.cryptoMu.Unlock()
	if c.e.cryptoPending == 0 {
		close(ch)
		return ch
	}
	c.e.cryptoWaiters = append(c.e.cryptoWaiters, ch)
	return ch
}

func (e *PDCPEntity) logSecurity(dir string, cfg security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled) {
	fields := logrus.Fields{
		"dir":       dir,
		"integrity": bool(integrity),
		"ciphering": bool(ciphering),
		"nea":       cfg.CipheringAlgorithm.String(),
	}
	if cfg.IntegrityAlgorithm != nil {
		fields["nia"] = cfg.IntegrityAlgorithm.String()
	}
	e.log.WithFields(fields).Debug("PDCP security configured")
}

func (e *PDCPEntity) TxUpperData() api.PDCPTxUpperDataInterface       { return pdcpTxUpperData{e} }
func (e *PDCPEntity) TxUpperControl() api.PDCPTxUpperControlInterface { return pdcpTxControl{e} }
func (e *PDCPEntity) TxLower() api.PDCPTxLowerInterface               { return pdcpTxLower{e} }
func (e *PDCPEntity) RxLower() api.PDCPRxLowerInterface               { return pdcpRxLower{e} }
func (e *PDCPEntity) RxUpperControl() api.PDCPRxUpperControlInterface { return pdcpRxControl{e} }

// TxSecurity returns the security currently applied to downlink SDUs. ok is
// false before the first configuration.
func (e *PDCPEntity) TxSecurity() (security.AS128Config, security.IntegrityEnabled, security.CipheringEnabled, bool) {
	s := e.txSec.Load()
	if s == nil {
		return security.AS128Config{}, false, false, false
	}
	return s.cfg, s.integrity, s.ciphering, true
}

func (e *PDCPEntity) TxCount() uint32 {
	return e.txCount.Load()
}

func (e *PDCPEntity) HighestDelivered() uint32 {
	return e.highestDelivered.Load()
}

func (e *PDCPEntity) Stop() {
	e.stopped.Store(true)
}
