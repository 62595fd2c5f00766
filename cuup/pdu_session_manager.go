// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"maps"
	"runtime"
	"slices"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/cuuputil"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/ratelimit"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PDUSessionManager holds the PDU sessions of one UE.
// Its methods are not safe for concurrent use: they are expected to be
// called from the UE control executor.
type PDUSessionManager struct {
	cfg      PDUSessionManagerConfig
	deps     PDUSessionManagerDeps
	sessions map[api.PDUSessionID]*PDUSession
	ueAMBR   *ratelimit.TokenBucket
	log      *logrus.Entry
}

func NewPDUSessionManager(cfg PDUSessionManagerConfig, deps PDUSessionManagerDeps) (*PDUSessionManager, error) {
	if err := deps.validate(); err != nil {
		return nil, errors.Wrap(err, "could not create PDU session manager")
	}
	if cfg.UEDLAMBR == 0 && !cfg.N3.IgnoreUEAMBR {
		return nil, errors.New("could not create PDU session manager: UE DL AMBR is zero while UE-AMBR is enforced")
	}
	if cfg.NofCryptoWorkers <= 0 {
		cfg.NofCryptoWorkers = runtime.NumCPU()
	}
	if cfg.QoS == nil {
		cfg.QoS = make(map[api.FiveQI]api.QoSConfig)
	}
	ambr := ratelimit.GenerateConfig(cfg.UEDLAMBR, cfg.UEDLAMBR, cuuputil.UE_AMBR_REFILL_PERIOD)
	return &PDUSessionManager{
		cfg:      cfg,
		deps:     deps,
		sessions: make(map[api.PDUSessionID]*PDUSession),
		ueAMBR:   ratelimit.NewTokenBucket(ambr, deps.Metrics),
		log:      logrus.WithFields(logrus.Fields{"ue-index": cfg.UEIndex}),
	}, nil
}

func (m *PDUSessionManager) GetNofPDUSessions() int {
	return len(m.sessions)
}

func (m *PDUSessionManager) PDUSession(id api.PDUSessionID) (*PDUSession, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

// PDUSessionIDs returns the ids of the active sessions, in ascending order.
func (m *PDUSessionManager) PDUSessionIDs() []api.PDUSessionID {
	return slices.Sorted(maps.Keys(m.sessions))
}

// nofDRBs counts the DRBs of every session of the UE, including current
// which may not be stored yet.
func (m *PDUSessionManager) nofDRBs(current *PDUSession) int {
	n := 0
	for _, s := range m.sessions {
		if s != current {
			n += s.NofDRBs()
		}
	}
	return n + current.NofDRBs()
}

func (m *PDUSessionManager) SetupPDUSession(item e1ap.PDUSessionResToSetupItem) e1ap.PDUSessionSetupResult {
	res := e1ap.PDUSessionSetupResult{PDUSessionID: item.PDUSessionID}
	log := m.log.WithFields(logrus.Fields{"psi": item.PDUSessionID})

	if _, exists := m.sessions[item.PDUSessionID]; exists {
		log.Error("PDU session already exists")
		return m.setupFailure(res, e1ap.CauseRadioNetworkMultiplePDUSessionIDInstances)
	}
	if len(m.sessions) >= cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE {
		log.WithFields(logrus.Fields{"max": cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE}).Error("Too many PDU sessions for this UE")
		return m.setupFailure(res, e1ap.CauseRadioNetworkUnspecified)
	}

	localTEID, err := m.deps.N3TEIDPool.RequestTEID()
	if err != nil {
		log.WithError(err).Warn("Could not allocate N3 TEID")
		return m.setupFailure(res, e1ap.CauseTransportResourceUnavailable)
	}
	log = log.WithFields(logrus.Fields{"n3-teid": localTEID})

	session := newPDUSession(item, localTEID)
	if cause := m.createSessionEntities(session, log); cause != nil {
		session.Stop()
		if !m.deps.N3TEIDPool.ReleaseTEID(localTEID) {
			log.Error("Could not release N3 TEID")
		}
		return m.setupFailure(res, cause)
	}
	res.GTPTunnel = session.N3Tunnel

	for _, drbItem := range item.DRBsToSetup {
		res.DRBSetupResults = append(res.DRBSetupResults, m.handleDRBToSetupItem(session, drbItem))
	}

	res.SecurityResult = e1ap.NewSecurityResult(item.SecurityIndication)

	m.sessions[session.PDUSessionID] = session
	m.deps.Metrics.AddPDUSessions(1)
	res.Success = true
	log.WithFields(logrus.Fields{"n3-tunnel": session.N3Tunnel.String(), "nof-drbs": session.NofDRBs()}).Info("PDU session set up")
	return res
}

// createSessionEntities creates the SDAP, the NG-U tunnel and registers the
// tunnel at the demux. On failure, the created entities are left in session
// for the caller to stop.
func (m *PDUSessionManager) createSessionEntities(session *PDUSession, log *logrus.Entry) e1ap.Cause {
	gateway := m.deps.NGUSessions.NextNGUGateway()
	bindAddr, err := gateway.BindAddress()
	if err != nil {
		log.WithError(err).Error("Could not get NG-U bind address")
		return e1ap.CauseTransportUnspecified
	}
	session.N3Tunnel = api.UPTransportLayerInfo{Address: bindAddr, TEID: session.LocalTEID}

	sdap, err := m.deps.Factory.CreateSDAPEntity(api.SDAPEntityCreationMessage{
		UEIndex:      m.cfg.UEIndex,
		PDUSessionID: session.PDUSessionID,
		RxSDU:        &session.sdapToGTPU,
	})
	if err != nil {
		log.WithError(err).Error("Could not create SDAP entity")
		return e1ap.CauseMiscNotEnoughUserPlaneProcessingResources
	}
	session.sdap = sdap

	gtpu, err := m.deps.Factory.CreateGTPUTunnel(api.GTPUTunnelCreationMessage{
		UEIndex:      m.cfg.UEIndex,
		Peer:         session.ULTunnelInfo,
		PeerPort:     m.cfg.N3.UPFPort,
		LocalTEID:    session.LocalTEID,
		IgnoreUEAMBR: m.cfg.N3.IgnoreUEAMBR,
		UEAMBR:       m.ueAMBR,
		WarnOnDrop:   m.cfg.N3.WarnOnDrop,
		TestMode:     m.cfg.TestMode,
		RxLower:      &session.gtpuToSDAP,
		TxLower:      &session.gtpuToNetwork,
	})
	if err != nil {
		log.WithError(err).Error("Could not create GTP-U tunnel")
		return e1ap.CauseMiscNotEnoughUserPlaneProcessingResources
	}
	session.gtpu = gtpu

	session.sdapToGTPU.connect(gtpu.TxUpper())
	session.gtpuToSDAP.connect(sdap.TxSDUHandler())
	session.gtpuToNetwork.connect(gateway)

	queue, err := m.deps.Demux.AddTunnel(session.LocalTEID, m.deps.DLExecutor, gtpu.RxHandler())
	if err != nil {
		log.WithError(err).Error("Could not register N3 TEID at GTP-U demux")
		return e1ap.CauseTransportUnspecified
	}
	session.queue = queue
	return nil
}

func (m *PDUSessionManager) setupFailure(res e1ap.PDUSessionSetupResult, cause e1ap.Cause) e1ap.PDUSessionSetupResult {
	res.Success = false
	res.Cause = cause
	m.deps.Metrics.ItemFailed("pdu-session", cause.String())
	return res
}

// RemovePDUSession disconnects the session, unregisters it from the demux
// and releases its N3 TEID.
func (m *PDUSessionManager) RemovePDUSession(id api.PDUSessionID) {
	log := m.log.WithFields(logrus.Fields{"psi": id})
	session, exists := m.sessions[id]
	if !exists {
		log.Error("PDU session not found")
		return
	}
	m.DisconnectPDUSession(id)

	if !m.deps.Demux.RemoveTunnel(session.LocalTEID) {
		log.WithFields(logrus.Fields{"n3-teid": session.LocalTEID}).Error("Could not remove N3 TEID from GTP-U demux")
	}
	if !m.deps.N3TEIDPool.ReleaseTEID(session.LocalTEID) {
		log.WithFields(logrus.Fields{"n3-teid": session.LocalTEID}).Error("Could not release N3 TEID")
	}
	m.deps.Metrics.AddDRBs(-session.NofDRBs())
	delete(m.sessions, id)
	m.deps.Metrics.AddPDUSessions(-1)
	log.Info("PDU session removed")
}

// DisconnectPDUSession stops the session and releases the F1-U TEIDs of its
// DRBs. The session stays in the manager until it is removed.
func (m *PDUSessionManager) DisconnectPDUSession(id api.PDUSessionID) {
	log := m.log.WithFields(logrus.Fields{"psi": id})
	session, exists := m.sessions[id]
	if !exists {
		log.Error("PDU session not found")
		return
	}
	if session.disconnected {
		log.Debug("PDU session already disconnected")
		return
	}
	session.Stop()
	for _, drbID := range session.DRBIDs() {
		drb := session.drbs[drbID]
		if !m.deps.F1UTEIDPool.ReleaseTEID(drb.F1UULTEID) {
			log.WithFields(logrus.Fields{"drb-id": drbID, "f1u-teid": drb.F1UULTEID}).Error("Could not release F1-U TEID at session termination")
		}
		// the TEID may be reissued to another DRB
		drb.F1UULTEID = 0
	}
	session.disconnected = true
	log.Info("PDU session disconnected")
}

// DisconnectAllPDUSessions stops the UE-AMBR limiter, then disconnects every session.
func (m *PDUSessionManager) DisconnectAllPDUSessions() {
	m.log.Debug("Disconnecting all PDU sessions")
	m.ueAMBR.Stop()
	for _, id := range m.PDUSessionIDs() {
		m.DisconnectPDUSession(id)
	}
}

// Close removes every session and stops the UE-AMBR limiter.
func (m *PDUSessionManager) Close() {
	for _, id := range m.PDUSessionIDs() {
		m.RemovePDUSession(id)
	}
	m.ueAMBR.Stop()
}
