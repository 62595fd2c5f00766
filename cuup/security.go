// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"context"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/security"
	"github.com/sirupsen/logrus"
)

// UpdateSecurityConfig pushes new keys to the PDCP of every DRB.
func (m *PDUSessionManager) UpdateSecurityConfig(sec security.ASConfig) {
	m.log.Debug("Updating security config of all PDU sessions")
	m.cfg.Security = sec
	sec128 := sec.Truncate128()
	for _, id := range m.PDUSessionIDs() {
		session := m.sessions[id]
		integrity, ciphering := securityEnabled(session.SecurityIndication)
		for _, drbID := range session.DRBIDs() {
			pdcp := session.drbs[drbID].pdcp
			pdcp.TxUpperControl().ConfigureSecurity(sec128, integrity, ciphering)
			pdcp.RxUpperControl().ConfigureSecurity(sec128, integrity, ciphering)
		}
	}
}

func (m *PDUSessionManager) forEachDRB(f func(*DRBContext)) {
	for _, id := range m.PDUSessionIDs() {
		session := m.sessions[id]
		for _, drbID := range session.DRBIDs() {
			f(session.drbs[drbID])
		}
	}
}

func (m *PDUSessionManager) NotifyPDCPPDUProcessingStopped() {
	m.log.Debug("Notifying PDCP PDU processing stopped")
	m.forEachDRB(func(drb *DRBContext) {
		drb.pdcp.RxUpperControl().NotifyPDUProcessingStopped()
	})
}

func (m *PDUSessionManager) RestartPDCPPDUProcessing() {
	m.log.Debug("Restarting PDCP PDU processing")
	m.forEachDRB(func(drb *DRBContext) {
		drb.pdcp.RxUpperControl().RestartPDUProcessing()
	})
}

// AwaitCryptoRxAllPDUSessions waits, one DRB at a time, until the rx
// crypto tasks of every DRB have completed.
func (m *PDUSessionManager) AwaitCryptoRxAllPDUSessions(ctx context.Context) error {
	m.log.Debug("Awaiting all crypto tasks to finish in UE")
	for _, id := range m.PDUSessionIDs() {
		if err := m.AwaitCryptoRxAllDRBs(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (m *PDUSessionManager) AwaitCryptoRxAllDRBs(ctx context.Context, id api.PDUSessionID) error {
	session, exists := m.sessions[id]
	if !exists {
		return nil
	}
	log := m.log.WithFields(logrus.Fields{"psi": id})
	log.Debug("Awaiting all crypto tasks to finish in PDU session")
	for _, drbID := range session.DRBIDs() {
		log.WithFields(logrus.Fields{"drb-id": drbID}).Trace("Awaiting all crypto tasks to finish in DRB")
		select {
		case <-session.drbs[drbID].pdcp.RxUpperControl().CryptoDone():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
