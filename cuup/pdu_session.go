// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"maps"
	"slices"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/e1ap"
)

type PDUSession struct {
	PDUSessionID       api.PDUSessionID
	SessionType        e1ap.PDUSessionType
	SNSSAI             e1ap.SNSSAI
	LocalTEID          api.TEID
	ULTunnelInfo       api.UPTransportLayerInfo
	N3Tunnel           api.UPTransportLayerInfo
	SecurityIndication e1ap.SecurityIndication

	drbs map[api.DRBID]*DRBContext

	sdap  api.SDAPEntityInterface
	gtpu  api.GTPUTunnelNGUInterface
	queue api.DispatchQueueInterface

	sdapToGTPU    sdapToGTPUAdapter
	gtpuToSDAP    gtpuToSDAPAdapter
	gtpuToNetwork gtpuToNetworkAdapter

	disconnected bool
}

func newPDUSession(item e1ap.PDUSessionResToSetupItem, localTEID api.TEID) *PDUSession {
	return &PDUSession{
		PDUSessionID:       item.PDUSessionID,
		SessionType:        item.PDUSessionType,
		SNSSAI:             item.SNSSAI,
		LocalTEID:          localTEID,
		ULTunnelInfo:       item.NGULUPTNLInfo,
		SecurityIndication: item.SecurityIndication,
		drbs:               make(map[api.DRBID]*DRBContext),
	}
}

func (s *PDUSession) DRB(id api.DRBID) (*DRBContext, bool) {
	drb, ok := s.drbs[id]
	return drb, ok
}

// DRBIDs returns the DRBs of the session, in ascending order.
func (s *PDUSession) DRBIDs() []api.DRBID {
	return slices.Sorted(maps.Keys(s.drbs))
}

func (s *PDUSession) NofDRBs() int {
	return len(s.drbs)
}

// Stop stops the dispatch queue, the tunnel, the SDAP and every DRB.
// The DRB contexts are kept.
func (s *PDUSession) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
	if s.gtpu != nil {
		s.gtpu.Stop()
	}
	if s.sdap != nil {
		s.sdap.Stop()
	}
	for _, id := range s.DRBIDs() {
		s.drbs[id].Stop()
	}
}
