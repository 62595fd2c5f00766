// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

type SDAPEntityCreationMessage struct {
	UEIndex      UEIndex
	PDUSessionID PDUSessionID
	RxSDU        SDAPRxSDUNotifier
}

type PDCPEntityCreationMessage struct {
	UEIndex         UEIndex
	DRBID           DRBID
	Config          PDCPConfig
	Custom          PDCPCustomConfig
	NofCryptoWorker int
	TxLower         PDCPTxLowerNotifier
	RxUpperData     PDCPRxUpperDataNotifier
	UpperControl    PDCPUpperControlNotifier
	ULExecutor      TaskExecutorInterface
	DLExecutor      TaskExecutorInterface
	CryptoExecutor  TaskExecutorInterface
}

type F1UBearerCreationMessage struct {
	UEIndex    UEIndex
	DRBID      DRBID
	ULTunnel   UPTransportLayerInfo
	Config     F1UConfig
	RxDelivery F1URxDeliveryNotifier
	RxSDU      F1URxSDUNotifier
	TxPDU      F1UTxPDUNotifier
	ULExecutor TaskExecutorInterface
}

type GTPUTunnelCreationMessage struct {
	UEIndex      UEIndex
	Peer         UPTransportLayerInfo
	PeerPort     uint16
	LocalTEID    TEID
	IgnoreUEAMBR bool
	UEAMBR       RateLimiterInterface
	WarnOnDrop   bool
	TestMode     bool
	RxLower      GTPUTunnelRxLowerNotifier
	TxLower      GTPUTunnelTxLowerNotifier
}

type SDAPFactoryInterface interface {
	CreateSDAPEntity(msg SDAPEntityCreationMessage) (SDAPEntityInterface, error)
}

type PDCPFactoryInterface interface {
	CreatePDCPEntity(msg PDCPEntityCreationMessage) (PDCPEntityInterface, error)
}

type F1UFactoryInterface interface {
	CreateF1UBearer(msg F1UBearerCreationMessage) (F1UBearerInterface, error)
}

type GTPUFactoryInterface interface {
	CreateGTPUTunnel(msg GTPUTunnelCreationMessage) (GTPUTunnelNGUInterface, error)
}

// EntityFactoryInterface creates every protocol entity of a bearer context.
type EntityFactoryInterface interface {
	SDAPFactoryInterface
	PDCPFactoryInterface
	F1UFactoryInterface
	GTPUFactoryInterface
}
