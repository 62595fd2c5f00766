// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"math"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/cuuputil"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/security"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func securityEnabled(ind e1ap.SecurityIndication) (security.IntegrityEnabled, security.CipheringEnabled) {
	integrity := security.IntegrityOn
	if ind.IntegrityProtection == e1ap.ProtectionNotNeeded {
		integrity = security.IntegrityOff
	}
	ciphering := security.CipheringOn
	if ind.ConfidentialityProtection == e1ap.ProtectionNotNeeded {
		ciphering = security.CipheringOff
	}
	return integrity, ciphering
}

// handleDRBToSetupItem creates one DRB in session. The DRB is only kept
// when at least one of its QoS flows could be mapped and every entity could
// be created; otherwise it is rolled back entirely.
func (m *PDUSessionManager) handleDRBToSetupItem(session *PDUSession, item e1ap.DRBToSetupItem) e1ap.DRBResult {
	res := e1ap.DRBResult{DRBID: item.DRBID}
	log := m.log.WithFields(logrus.Fields{"psi": session.PDUSessionID, "drb-id": item.DRBID})

	if _, exists := session.drbs[item.DRBID]; exists {
		log.Error("DRB already exists")
		return m.drbFailure(res, e1ap.CauseRadioNetworkMultipleDRBIDInstances)
	}
	if m.nofDRBs(session) >= cuuputil.MAX_NUM_DRBS_PER_UE {
		log.WithFields(logrus.Fields{"max": cuuputil.MAX_NUM_DRBS_PER_UE}).Error("Too many DRBs for this UE")
		return m.drbFailure(res, e1ap.CauseRadioNetworkUnspecified)
	}
	if len(item.QoSFlowsToSetup) == 0 {
		log.Error("Cannot setup DRB without QoS flows")
		return m.drbFailure(res, e1ap.CauseRadioNetworkUnspecified)
	}

	// The 5QI of the DRB is the one of its first QoS flow.
	fiveQI := item.QoSFlowsToSetup[0].FiveQI
	qosCfg, ok := m.cfg.QoS[fiveQI]
	if !ok {
		log.WithFields(logrus.Fields{"5qi": fiveQI}).Error("No QoS configuration for 5QI")
		return m.drbFailure(res, e1ap.CauseRadioNetworkNotSupported5QIValue)
	}

	drb := newDRBContext(session.PDUSessionID, item.DRBID, fiveQI, qosCfg.F1U)
	if len(item.CellGroupInfo) > 0 {
		drb.CellGroupID = item.CellGroupInfo[0].CellGroupID
	}
	drb.pdcpControl.log = log
	session.drbs[drb.DRBID] = drb

	for _, flow := range item.QoSFlowsToSetup {
		res.QoSFlowResults = append(res.QoSFlowResults, m.mapQoSFlow(session, drb, item.SDAPConfig, flow, log))
	}
	if drb.NofQoSFlows() == 0 {
		log.Error("No QoS flow could be mapped to DRB")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseRadioNetworkUnspecified)
	}
	if _, ok := m.cfg.QoS[drb.FiveQI]; !ok {
		log.WithFields(logrus.Fields{"5qi": drb.FiveQI}).Error("No QoS configuration for 5QI")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseRadioNetworkNotSupported5QIValue)
	}

	pdcp, err := m.deps.Factory.CreatePDCPEntity(api.PDCPEntityCreationMessage{
		UEIndex:         m.cfg.UEIndex,
		DRBID:           drb.DRBID,
		Config:          item.PDCPConfig,
		Custom:          qosCfg.PDCPCustom,
		NofCryptoWorker: nofCryptoWorkers(m.cfg.NofCryptoWorkers, qosCfg.PDCPCustom),
		TxLower:         &drb.pdcpToF1U,
		RxUpperData:     &drb.pdcpToSDAP,
		UpperControl:    &drb.pdcpControl,
		ULExecutor:      m.deps.ULExecutor,
		DLExecutor:      m.deps.DLExecutor,
		CryptoExecutor:  m.deps.CryptoExecutor,
	})
	if err != nil {
		log.WithError(err).Error("Could not create PDCP entity")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseMiscNotEnoughUserPlaneProcessingResources)
	}
	drb.pdcp = pdcp

	sec := m.cfg.Security.Truncate128()
	integrity, ciphering := securityEnabled(session.SecurityIndication)
	pdcp.TxUpperControl().ConfigureSecurity(sec, integrity, ciphering)
	pdcp.RxUpperControl().ConfigureSecurity(sec, integrity, ciphering)

	if m.cfg.TestMode {
		// Let PDCP transmit as if F1-U always had room.
		pdcp.TxLower().HandleDesiredBufferSizeNotification(math.MaxUint32)
	}

	teid, err := m.deps.F1UTEIDPool.RequestTEID()
	if err != nil {
		log.WithError(err).Warn("Could not allocate F1-U TEID")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseTransportResourceUnavailable)
	}
	drb.F1UULTEID = teid
	log = log.WithFields(logrus.Fields{"f1u-teid": teid})

	gwBearer, f1u, ulTunnel, err := m.createF1UBearer(drb, teid)
	if err != nil {
		log.WithError(err).Error("Could not create F1-U bearer")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseTransportUnspecified)
	}
	drb.f1uGWBearer = gwBearer
	drb.f1u = f1u
	drb.ULTunnel = ulTunnel

	sdapRx, err := session.sdap.RxPDUHandler(drb.DRBID)
	if err != nil {
		log.WithError(err).Error("Could not get SDAP rx handler")
		m.rollbackDRB(session, drb, log)
		return m.drbFailure(res, e1ap.CauseRadioNetworkUnspecified)
	}

	drb.gwToF1U.connect(f1u.RxPDUHandler())
	drb.f1uToPDCP.connectPDCP(pdcp.RxLower(), pdcp.TxLower())
	drb.pdcpToF1U.connect(f1u.TxSDUHandler())
	drb.pdcpToSDAP.connect(sdapRx)
	for _, qfi := range drb.QoSFlowIDs() {
		drb.qosFlows[qfi].sdapToPDCP.connect(pdcp.TxUpperData())
	}

	m.deps.Metrics.AddDRBs(1)
	res.Success = true
	res.GTPTunnel = ulTunnel
	log.WithFields(logrus.Fields{"ul-tunnel": ulTunnel.String(), "qos-flows": drb.QoSFlowIDs()}).Info("DRB set up")
	return res
}

func (m *PDUSessionManager) mapQoSFlow(session *PDUSession, drb *DRBContext, cfg api.SDAPConfig, flow e1ap.QoSFlowItem, log *logrus.Entry) e1ap.QoSFlowResult {
	res := e1ap.QoSFlowResult{QoSFlowID: flow.QoSFlowID}
	log = log.WithFields(logrus.Fields{"qfi": flow.QoSFlowID})
	switch {
	case session.sdap.IsMapped(flow.QoSFlowID):
		log.Warn("QoS flow is already mapped")
		res.Cause = e1ap.CauseRadioNetworkMultipleQoSFlowIDInstances
	case flow.FiveQI != drb.FiveQI:
		log.WithFields(logrus.Fields{"5qi": flow.FiveQI, "drb-5qi": drb.FiveQI}).Warn("QoS flow 5QI differs from DRB 5QI")
		res.Cause = e1ap.CauseRadioNetworkNotSupported5QIValue
	default:
		ctx := newQoSFlowContext(flow)
		if err := session.sdap.AddMapping(flow.QoSFlowID, drb.DRBID, cfg, &ctx.sdapToPDCP); err != nil {
			log.WithError(err).Warn("Could not map QoS flow")
			res.Cause = e1ap.CauseRadioNetworkUnspecified
			break
		}
		drb.qosFlows[flow.QoSFlowID] = ctx
		res.Success = true
		log.Debug("QoS flow mapped")
	}
	if !res.Success {
		m.deps.Metrics.ItemFailed("qos-flow", res.Cause.String())
	}
	return res
}

// createF1UBearer creates the gateway bearer for ulTEID and the F1-U bearer
// on top of it. Nothing is connected to the new F1-U bearer yet.
func (m *PDUSessionManager) createF1UBearer(drb *DRBContext, ulTEID api.TEID) (api.F1UGatewayBearerInterface, api.F1UBearerInterface, api.UPTransportLayerInfo, error) {
	gwBearer, err := m.deps.F1UGateway.CreateCUBearer(m.cfg.UEIndex, drb.DRBID, drb.FiveQI, drb.F1UConfig, ulTEID, &drb.gwToF1U, m.deps.ULExecutor)
	if err != nil {
		return nil, nil, api.UPTransportLayerInfo{}, errors.Wrap(err, "could not create F1-U gateway bearer")
	}
	bindAddr, err := gwBearer.BindAddress()
	if err != nil {
		gwBearer.Stop()
		return nil, nil, api.UPTransportLayerInfo{}, errors.Wrap(err, "could not get F1-U bind address")
	}
	ulTunnel := api.UPTransportLayerInfo{Address: bindAddr, TEID: ulTEID}
	f1u, err := m.deps.Factory.CreateF1UBearer(api.F1UBearerCreationMessage{
		UEIndex:    m.cfg.UEIndex,
		DRBID:      drb.DRBID,
		ULTunnel:   ulTunnel,
		Config:     drb.F1UConfig,
		RxDelivery: &drb.f1uToPDCP,
		RxSDU:      &drb.f1uToPDCP,
		TxPDU:      gwBearer,
		ULExecutor: m.deps.ULExecutor,
	})
	if err != nil {
		gwBearer.Stop()
		return nil, nil, api.UPTransportLayerInfo{}, errors.Wrap(err, "could not create F1-U bearer")
	}
	return gwBearer, f1u, ulTunnel, nil
}

// rollbackDRB undoes a partial DRB setup.
func (m *PDUSessionManager) rollbackDRB(session *PDUSession, drb *DRBContext, log *logrus.Entry) {
	if drb.NofQoSFlows() > 0 {
		session.sdap.RemoveMapping(drb.DRBID)
	}
	drb.Stop()
	if drb.F1UULTEID != 0 && !m.deps.F1UTEIDPool.ReleaseTEID(drb.F1UULTEID) {
		log.Error("Could not release F1-U TEID")
	}
	delete(session.drbs, drb.DRBID)
}

// nofCryptoWorkers caps the UE crypto workers with the 5QI limit, if any.
func nofCryptoWorkers(nof int, custom api.PDCPCustomConfig) int {
	if custom.MaxNofCryptoWorkers > 0 && custom.MaxNofCryptoWorkers < nof {
		return custom.MaxNofCryptoWorkers
	}
	return nof
}

func (m *PDUSessionManager) drbFailure(res e1ap.DRBResult, cause e1ap.Cause) e1ap.DRBResult {
	res.Success = false
	res.Cause = cause
	m.deps.Metrics.ItemFailed("drb", cause.String())
	return res
}

