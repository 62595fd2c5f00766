// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/sirupsen/logrus"
)

// PrintBearerContexts logs every PDU session and DRB of the UE, with their
// tunnels as F-TEIDs.
func (m *PDUSessionManager) PrintBearerContexts() {
	for _, id := range m.PDUSessionIDs() {
		session := m.sessions[id]
		m.log.WithFields(logrus.Fields{
			"psi":      id,
			"n3":       gtpu.FTEIDLabel(gtpu.NewFTEID(session.N3Tunnel)),
			"upf":      gtpu.FTEIDLabel(gtpu.NewFTEID(session.ULTunnelInfo)),
			"nof-drbs": session.NofDRBs(),
		}).Info("PDU session")
		for _, drbID := range session.DRBIDs() {
			drb := session.drbs[drbID]
			m.log.WithFields(logrus.Fields{
				"psi":       id,
				"drb-id":    drbID,
				"5qi":       drb.FiveQI,
				"f1u":       gtpu.FTEIDLabel(gtpu.NewFTEID(drb.ULTunnel)),
				"qos-flows": drb.QoSFlowIDs(),
			}).Info("DRB")
		}
	}
}
