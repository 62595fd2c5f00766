// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "github.com/nextmn/cu-up-bearers/security"

// PDCPTxUpperDataInterface receives downlink SDUs from SDAP.
type PDCPTxUpperDataInterface interface {
	HandleSDU(sdu []byte)
}

// PDCPTxLowerInterface receives F1-U status reports.
type PDCPTxLowerInterface interface {
	HandleTransmitNotification(highestSN uint32)
	HandleDeliveryNotification(highestSN uint32)
	HandleDesiredBufferSizeNotification(bytes uint32)
}

// PDCPRxLowerInterface receives uplink PDUs from F1-U.
type PDCPRxLowerInterface interface {
	HandlePDU(pdu []byte)
}

type PDCPTxUpperControlInterface interface {
	ConfigureSecurity(sec security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled)
	Reestablish(sec security.AS128Config)
}

type PDCPRxUpperControlInterface interface {
	ConfigureSecurity(sec security.AS128Config, integrity security.IntegrityEnabled, ciphering security.CipheringEnabled)
	Reestablish(sec security.AS128Config)
	NotifyPDUProcessingStopped()
	RestartPDUProcessing()
	// CryptoDone returns a channel closed once every rx crypto task
	// enqueued before the call has completed.
	CryptoDone() <-chan struct{}
}

// PDCPTxLowerNotifier forwards downlink PDUs to F1-U.
type PDCPTxLowerNotifier interface {
	OnNewPDU(pdu []byte, isRetx bool)
	OnDiscardPDU(sn uint32)
}

// PDCPRxUpperDataNotifier forwards uplink SDUs to SDAP.
type PDCPRxUpperDataNotifier interface {
	OnNewSDU(sdu []byte)
}

// PDCPUpperControlNotifier reports PDCP failures towards the control plane.
type PDCPUpperControlNotifier interface {
	OnProtocolFailure()
	OnIntegrityFailure()
	OnMaxCountReached()
}

type PDCPEntityInterface interface {
	TxUpperData() PDCPTxUpperDataInterface
	TxUpperControl() PDCPTxUpperControlInterface
	TxLower() PDCPTxLowerInterface
	RxLower() PDCPRxLowerInterface
	RxUpperControl() PDCPRxUpperControlInterface
	Stop()
}
