// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "net/netip"

// F1UTxSDUHandler receives downlink PDCP PDUs.
type F1UTxSDUHandler interface {
	HandleSDU(sdu []byte, isRetx bool)
	DiscardSDU(sn uint32)
}

// F1URxPDUHandler receives uplink NR-U PDUs from the gateway.
type F1URxPDUHandler interface {
	HandlePDU(pdu []byte)
}

// F1URxDeliveryNotifier forwards DDDS reports to PDCP tx.
type F1URxDeliveryNotifier interface {
	OnTransmitNotification(highestSN uint32)
	OnDeliveryNotification(highestSN uint32)
	OnDesiredBufferSize(bytes uint32)
}

// F1URxSDUNotifier forwards uplink SDUs to PDCP rx.
type F1URxSDUNotifier interface {
	OnNewSDU(sdu []byte)
}

// F1UTxPDUNotifier forwards downlink NR-U PDUs to the gateway bearer.
type F1UTxPDUNotifier interface {
	OnNewPDU(pdu []byte)
}

type F1UBearerInterface interface {
	TxSDUHandler() F1UTxSDUHandler
	RxPDUHandler() F1URxPDUHandler
	Stop()
}

// F1UGatewayRxNotifier receives uplink PDUs of one gateway bearer.
type F1UGatewayRxNotifier interface {
	OnNewPDU(pdu []byte)
}

type F1UGatewayBearerInterface interface {
	F1UTxPDUNotifier
	BindAddress() (netip.Addr, error)
	Stop()
}

type F1UGatewayInterface interface {
	CreateCUBearer(ue UEIndex, drb DRBID, fiveQI FiveQI, cfg F1UConfig, ulTEID TEID, rx F1UGatewayRxNotifier, ulExec TaskExecutorInterface) (F1UGatewayBearerInterface, error)
	AttachDLTEID(ul UPTransportLayerInfo, dl UPTransportLayerInfo) error
}
