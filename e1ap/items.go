// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package e1ap

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
)

type PDUSessionType uint8

const (
	PDUSessionTypeIPv4 PDUSessionType = iota
	PDUSessionTypeIPv6
	PDUSessionTypeIPv4v6
	PDUSessionTypeEthernet
	PDUSessionTypeUnstructured
)

type SNSSAI struct {
	SST uint8
	SD  *uint32
}

type ARP struct {
	PriorityLevel           uint8
	PreEmptionCapability    bool
	PreEmptionVulnerability bool
}

type QoSFlowItem struct {
	QoSFlowID api.QoSFlowID
	FiveQI    api.FiveQI
	ARP       ARP
}

type CellGroupInfo struct {
	CellGroupID uint8
}

type DRBToSetupItem struct {
	DRBID              api.DRBID
	SDAPConfig         api.SDAPConfig
	PDCPConfig         api.PDCPConfig
	CellGroupInfo      []CellGroupInfo
	QoSFlowsToSetup    []QoSFlowItem
	DRBInactivityTimer *uint32
}

type PDUSessionResToSetupItem struct {
	PDUSessionID       api.PDUSessionID
	PDUSessionType     PDUSessionType
	SNSSAI             SNSSAI
	NGULUPTNLInfo      api.UPTransportLayerInfo
	SecurityIndication SecurityIndication
	DRBsToSetup        []DRBToSetupItem
}

// DLUPParameter is one downlink tunnel of a DRB (F1-U DL TEID).
type DLUPParameter struct {
	UPTNLInfo   api.UPTransportLayerInfo
	CellGroupID uint8
}

type DRBToModifyItem struct {
	DRBID          api.DRBID
	SDAPConfig     *api.SDAPConfig
	PDCPConfig     *api.PDCPConfig
	DLUPParameters []DLUPParameter
	// FlowMapping is a requested remapping of QoS flows onto the DRB.
	FlowMapping []QoSFlowItem
}

type PDUSessionResToModifyItem struct {
	PDUSessionID api.PDUSessionID
	DRBsToSetup  []DRBToSetupItem
	DRBsToModify []DRBToModifyItem
	DRBsToRemove []api.DRBID
}
