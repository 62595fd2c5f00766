// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ModifyPDUSession applies DRB additions, modifications and removals to an
// existing session. Every item is handled independently.
func (m *PDUSessionManager) ModifyPDUSession(item e1ap.PDUSessionResToModifyItem, newULTNLInfoRequired bool) e1ap.PDUSessionModificationResult {
	res := e1ap.PDUSessionModificationResult{PDUSessionID: item.PDUSessionID}
	log := m.log.WithFields(logrus.Fields{"psi": item.PDUSessionID})

	session, exists := m.sessions[item.PDUSessionID]
	if !exists {
		log.Error("PDU session not found")
		res.Cause = e1ap.CauseRadioNetworkUnknownPDUSessionID
		m.deps.Metrics.ItemFailed("pdu-session", res.Cause.String())
		return res
	}
	if session.disconnected {
		log.Error("Cannot modify disconnected PDU session")
		res.Cause = e1ap.CauseRadioNetworkUnspecified
		m.deps.Metrics.ItemFailed("pdu-session", res.Cause.String())
		return res
	}

	for _, drbItem := range item.DRBsToSetup {
		res.DRBSetupResults = append(res.DRBSetupResults, m.handleDRBToSetupItem(session, drbItem))
	}
	for _, drbItem := range item.DRBsToModify {
		res.DRBModificationResults = append(res.DRBModificationResults, m.handleDRBToModifyItem(session, drbItem, newULTNLInfoRequired))
	}
	for _, drbID := range item.DRBsToRemove {
		m.removeDRB(session, drbID)
	}

	res.Success = true
	return res
}

func (m *PDUSessionManager) handleDRBToModifyItem(session *PDUSession, item e1ap.DRBToModifyItem, newULTNLInfoRequired bool) e1ap.DRBResult {
	res := e1ap.DRBResult{DRBID: item.DRBID}
	log := m.log.WithFields(logrus.Fields{"psi": session.PDUSessionID, "drb-id": item.DRBID})

	drb, exists := session.drbs[item.DRBID]
	if !exists {
		log.Warn("Cannot modify DRB: not found")
		return m.drbFailure(res, e1ap.CauseRadioNetworkUnknownDRBID)
	}

	if newULTNLInfoRequired {
		if cause := m.replaceF1UBearer(drb, log); cause != nil {
			return m.drbFailure(res, cause)
		}
	}

	if len(item.DLUPParameters) > 0 {
		dl := item.DLUPParameters[0].UPTNLInfo
		log.WithFields(logrus.Fields{"dl-tunnel": dl.String(), "ul-tunnel": drb.ULTunnel.String()}).Info("Attaching DL TEID to F1-U tunnel")
		if err := m.deps.F1UGateway.AttachDLTEID(drb.ULTunnel, dl); err != nil {
			log.WithError(err).Error("Could not attach DL TEID to F1-U tunnel")
			return m.drbFailure(res, e1ap.CauseTransportUnspecified)
		}
		drb.DLTunnel = dl
		drb.pdcpToF1U.connect(drb.f1u.TxSDUHandler())
	}

	if item.PDCPConfig != nil && item.PDCPConfig.Reestablishment {
		sec := m.cfg.Security.Truncate128()
		drb.pdcp.TxUpperControl().Reestablish(sec)
		drb.pdcp.RxUpperControl().Reestablish(sec)
		log.Info("PDCP re-established")
	}

	for _, flow := range item.FlowMapping {
		// QoS flow remapping is not supported
		log.WithFields(logrus.Fields{"qfi": flow.QoSFlowID}).Warn("Unsupported modification of QoS flow")
		res.QoSFlowResults = append(res.QoSFlowResults, e1ap.QoSFlowResult{
			QoSFlowID: flow.QoSFlowID,
			Cause:     e1ap.CauseRadioNetworkUnspecified,
		})
		m.deps.Metrics.ItemFailed("qos-flow", e1ap.CauseRadioNetworkUnspecified.String())
	}

	res.Success = true
	res.GTPTunnel = drb.ULTunnel
	log.WithFields(logrus.Fields{"f1u-teid": drb.F1UULTEID}).Info("DRB modified")
	return res
}

// replaceF1UBearer moves drb to a new F1-U UL TEID. The new bearer is fully
// built and spliced in before the old one is stopped and its TEID released,
// so the DRB always has a connected F1-U bearer.
func (m *PDUSessionManager) replaceF1UBearer(drb *DRBContext, log *logrus.Entry) e1ap.Cause {
	if _, ok := m.cfg.QoS[drb.FiveQI]; !ok {
		log.WithFields(logrus.Fields{"5qi": drb.FiveQI}).Error("No QoS configuration for 5QI")
		return e1ap.CauseRadioNetworkNotSupported5QIValue
	}
	newTEID, err := m.deps.F1UTEIDPool.RequestTEID()
	if err != nil {
		log.WithError(err).Error("Could not allocate F1-U TEID")
		if errors.Is(err, gtpu.ErrTEIDPoolExhausted) {
			return e1ap.CauseTransportResourceUnavailable
		}
		return e1ap.CauseTransportUnspecified
	}
	oldTEID := drb.F1UULTEID
	log = log.WithFields(logrus.Fields{"old-f1u-teid": oldTEID, "new-f1u-teid": newTEID})

	gwBearer, f1u, ulTunnel, err := m.createF1UBearer(drb, newTEID)
	if err != nil {
		log.WithError(err).Error("Could not create new F1-U bearer")
		if !m.deps.F1UTEIDPool.ReleaseTEID(newTEID) {
			log.Error("Could not release new F1-U TEID")
		}
		return e1ap.CauseTransportUnspecified
	}

	if drb.DLTunnel.Address.IsValid() {
		// keep the downlink path of the DU usable on the new bearer
		if err := m.deps.F1UGateway.AttachDLTEID(ulTunnel, drb.DLTunnel); err != nil {
			log.WithError(err).Error("Could not attach DL TEID to new F1-U tunnel")
			f1u.Stop()
			gwBearer.Stop()
			if !m.deps.F1UTEIDPool.ReleaseTEID(newTEID) {
				log.Error("Could not release new F1-U TEID")
			}
			return e1ap.CauseTransportUnspecified
		}
	}

	oldGWBearer, oldF1U := drb.f1uGWBearer, drb.f1u

	// splice
	drb.gwToF1U.connect(f1u.RxPDUHandler())
	drb.f1uToPDCP.connectPDCP(drb.pdcp.RxLower(), drb.pdcp.TxLower())
	drb.pdcpToF1U.connect(f1u.TxSDUHandler())
	drb.f1uGWBearer, drb.f1u = gwBearer, f1u
	drb.F1UULTEID = newTEID
	drb.ULTunnel = ulTunnel

	// release the old bearer only once nothing points to it
	oldF1U.Stop()
	oldGWBearer.Stop()
	if !m.deps.F1UTEIDPool.ReleaseTEID(oldTEID) {
		log.Error("Could not release old F1-U TEID")
	}
	log.Info("F1-U tunnel replaced")
	return nil
}

func (m *PDUSessionManager) removeDRB(session *PDUSession, drbID api.DRBID) {
	log := m.log.WithFields(logrus.Fields{"psi": session.PDUSessionID, "drb-id": drbID})
	// unmap every QoS flow using this DRB
	session.sdap.RemoveMapping(drbID)

	drb, exists := session.drbs[drbID]
	if !exists {
		log.Warn("Cannot remove DRB: not found")
		return
	}
	drb.Stop()
	if drb.F1UULTEID != 0 && !m.deps.F1UTEIDPool.ReleaseTEID(drb.F1UULTEID) {
		log.WithFields(logrus.Fields{"f1u-teid": drb.F1UULTEID}).Error("Could not release F1-U TEID")
	}
	delete(session.drbs, drbID)
	m.deps.Metrics.AddDRBs(-1)
	log.Info("DRB removed")
}
