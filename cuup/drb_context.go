// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"maps"
	"slices"

	"github.com/nextmn/cu-up-bearers/cuup/api"
)

type DRBContext struct {
	DRBID        api.DRBID
	PDUSessionID api.PDUSessionID
	FiveQI       api.FiveQI
	F1UULTEID    api.TEID // 0 until allocated
	F1UConfig    api.F1UConfig
	ULTunnel     api.UPTransportLayerInfo
	// DU side of the tunnel, zero until attached
	DLTunnel     api.UPTransportLayerInfo
	CellGroupID  uint8

	qosFlows map[api.QoSFlowID]*QoSFlowContext

	pdcp        api.PDCPEntityInterface
	f1u         api.F1UBearerInterface
	f1uGWBearer api.F1UGatewayBearerInterface

	pdcpToSDAP  pdcpToSDAPAdapter
	pdcpToF1U   pdcpToF1UAdapter
	f1uToPDCP   f1uToPDCPAdapter
	gwToF1U     gatewayToF1UAdapter
	pdcpControl pdcpControlNotifier
}

func newDRBContext(psi api.PDUSessionID, drb api.DRBID, fiveQI api.FiveQI, f1uCfg api.F1UConfig) *DRBContext {
	return &DRBContext{
		DRBID:        drb,
		PDUSessionID: psi,
		FiveQI:       fiveQI,
		F1UConfig:    f1uCfg,
		qosFlows:     make(map[api.QoSFlowID]*QoSFlowContext),
	}
}

func (d *DRBContext) QoSFlow(qfi api.QoSFlowID) (*QoSFlowContext, bool) {
	f, ok := d.qosFlows[qfi]
	return f, ok
}

// QoSFlowIDs returns the mapped QoS flows, in ascending order.
func (d *DRBContext) QoSFlowIDs() []api.QoSFlowID {
	return slices.Sorted(maps.Keys(d.qosFlows))
}

func (d *DRBContext) NofQoSFlows() int {
	return len(d.qosFlows)
}

// Stop stops the PDCP, the F1-U bearer and the gateway bearer, in this order.
func (d *DRBContext) Stop() {
	if d.pdcp != nil {
		d.pdcp.Stop()
	}
	if d.f1u != nil {
		d.f1u.Stop()
	}
	if d.f1uGWBearer != nil {
		d.f1uGWBearer.Stop()
	}
}
