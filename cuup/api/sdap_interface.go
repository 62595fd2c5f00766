// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

// SDAPTxSDUHandler receives downlink SDUs from the GTP-U tunnel.
type SDAPTxSDUHandler interface {
	HandleSDU(sdu []byte, qfi QoSFlowID)
}

// SDAPRxPDUHandler receives uplink PDUs from the PDCP of one DRB.
type SDAPRxPDUHandler interface {
	HandlePDU(pdu []byte)
}

// SDAPTxPDUNotifier forwards downlink PDUs of one QoS flow to PDCP.
type SDAPTxPDUNotifier interface {
	OnNewPDU(pdu []byte)
}

// SDAPRxSDUNotifier forwards uplink SDUs to the GTP-U tunnel.
type SDAPRxSDUNotifier interface {
	OnNewSDU(sdu []byte, qfi QoSFlowID)
}

type SDAPEntityInterface interface {
	TxSDUHandler() SDAPTxSDUHandler
	RxPDUHandler(drb DRBID) (SDAPRxPDUHandler, error)
	AddMapping(qfi QoSFlowID, drb DRBID, cfg SDAPConfig, notifier SDAPTxPDUNotifier) error
	IsMapped(qfi QoSFlowID) bool
	RemoveMapping(drb DRBID)
	Stop()
}
