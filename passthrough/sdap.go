// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type sdapMapping struct {
	drb      api.DRBID
	cfg      api.SDAPConfig
	notifier api.SDAPTxPDUNotifier
}

// SDAPEntity maps QoS flows to DRBs. SDAP headers are neither added nor
// removed.
type SDAPEntity struct {
	rx       api.SDAPRxSDUNotifier
	mappings map[api.QoSFlowID]sdapMapping
	mu       sync.RWMutex
	stopped  atomic.Bool
	log      *logrus.Entry
}

func NewSDAPEntity(msg api.SDAPEntityCreationMessage) *SDAPEntity {
	return &SDAPEntity{
		rx:       msg.RxSDU,
		mappings: make(map[api.QoSFlowID]sdapMapping),
		log:      logrus.WithFields(logrus.Fields{"ue-index": msg.UEIndex, "psi": msg.PDUSessionID}),
	}
}

func (e *SDAPEntity) TxSDUHandler() api.SDAPTxSDUHandler {
	return e
}

// HandleSDU sends a downlink SDU to the DRB of its QoS flow, or to the
// default DRB when the flow is not mapped.
func (e *SDAPEntity) HandleSDU(sdu []byte, qfi api.QoSFlowID) {
	if e.stopped.Load() {
		return
	}
	e.mu.RLock()
	m, ok := e.mappings[qfi]
	if !ok {
		m, ok = e.defaultMapping()
	}
	e.mu.RUnlock()
	if !ok {
		e.log.WithFields(logrus.Fields{"qfi": qfi}).Debug("Dropped DL SDU: QoS flow not mapped")
		return
	}
	m.notifier.OnNewPDU(sdu)
}

// must be called with mu held
func (e *SDAPEntity) defaultMapping() (sdapMapping, bool) {
	for _, qfi := range slices.Sorted(maps.Keys(e.mappings)) {
		if e.mappings[qfi].cfg.DefaultDRB {
			return e.mappings[qfi], true
		}
	}
	return sdapMapping{}, false
}

type sdapRxHandler struct {
	e   *SDAPEntity
	drb api.DRBID
}

// HandlePDU delivers an uplink PDU of the DRB, tagged with the lowest QFI
// mapped to it.
func (h sdapRxHandler) HandlePDU(pdu []byte) {
	if h.e.stopped.Load() {
		return
	}
	qfi, ok := h.e.firstQFI(h.drb)
	if !ok {
		h.e.log.WithFields(logrus.Fields{"drb-id": h.drb}).Debug("Dropped UL PDU: DRB has no QoS flow")
		return
	}
	h.e.rx.OnNewSDU(pdu, qfi)
}

func (e *SDAPEntity) firstQFI(drb api.DRBID) (api.QoSFlowID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, qfi := range slices.Sorted(maps.Keys(e.mappings)) {
		if e.mappings[qfi].drb == drb {
			return qfi, true
		}
	}
	return 0, false
}

func (e *SDAPEntity) RxPDUHandler(drb api.DRBID) (api.SDAPRxPDUHandler, error) {
	if _, ok := e.firstQFI(drb); !ok {
		return nil, errors.Errorf("no QoS flow mapped to DRB %d", drb)
	}
	return sdapRxHandler{e: e, drb: drb}, nil
}

func (e *SDAPEntity) AddMapping(qfi api.QoSFlowID, drb api.DRBID, cfg api.SDAPConfig, notifier api.SDAPTxPDUNotifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.mappings[qfi]; exists {
		return errors.Errorf("QFI %d already mapped", qfi)
	}
	e.mappings[qfi] = sdapMapping{drb: drb, cfg: cfg, notifier: notifier}
	e.log.WithFields(logrus.Fields{"qfi": qfi, "drb-id": drb}).Debug("QoS flow mapped")
	return nil
}

func (e *SDAPEntity) IsMapped(qfi api.QoSFlowID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.mappings[qfi]
	return exists
}

func (e *SDAPEntity) RemoveMapping(drb api.DRBID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for qfi, m := range e.mappings {
		if m.drb == drb {
			delete(e.mappings, qfi)
		}
	}
}

func (e *SDAPEntity) Stop() {
	e.stopped.Store(true)
}
