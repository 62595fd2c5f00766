// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/e1ap"
)

type QoSFlowContext struct {
	QoSFlowID  api.QoSFlowID
	FiveQI     api.FiveQI
	ARP        e1ap.ARP
	sdapToPDCP sdapToPDCPAdapter
}

func newQoSFlowContext(item e1ap.QoSFlowItem) *QoSFlowContext {
	return &QoSFlowContext{
		QoSFlowID: item.QoSFlowID,
		FiveQI:    item.FiveQI,
		ARP:       item.ARP,
	}
}
