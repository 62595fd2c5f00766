// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "net/netip"

// GTPUTunnelTxUpperInterface receives uplink SDUs from SDAP.
type GTPUTunnelTxUpperInterface interface {
	HandleSDU(sdu []byte, qfi QoSFlowID)
}

// GTPUTunnelRxLowerNotifier forwards decapsulated downlink SDUs to SDAP.
type GTPUTunnelRxLowerNotifier interface {
	OnNewSDU(sdu []byte, qfi QoSFlowID)
}

// GTPUTunnelTxLowerNotifier forwards encapsulated uplink PDUs to the network.
type GTPUTunnelTxLowerNotifier interface {
	OnNewPDU(pdu []byte, dst netip.AddrPort)
}

type GTPUTunnelNGUInterface interface {
	RxHandler() GTPUTunnelRxHandler
	TxUpper() GTPUTunnelTxUpperInterface
	Stop()
}

type NGUGatewayInterface interface {
	GTPUTunnelTxLowerNotifier
	BindAddress() (netip.Addr, error)
}

type NGUSessionManagerInterface interface {
	NextNGUGateway() NGUGatewayInterface
}
