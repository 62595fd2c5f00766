// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package e1ap

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
)

// Cause is nil on every successful result.

type QoSFlowResult struct {
	QoSFlowID api.QoSFlowID
	Success   bool
	Cause     Cause
}

type DRBResult struct {
	DRBID          api.DRBID
	Success        bool
	Cause          Cause
	GTPTunnel      api.UPTransportLayerInfo
	QoSFlowResults []QoSFlowResult
}

type PDUSessionSetupResult struct {
	PDUSessionID    api.PDUSessionID
	Success         bool
	Cause           Cause
	GTPTunnel       api.UPTransportLayerInfo
	SecurityResult  *SecurityResult
	DRBSetupResults []DRBResult
}

type PDUSessionModificationResult struct {
	PDUSessionID           api.PDUSessionID
	Success                bool
	Cause                  Cause
	DRBSetupResults        []DRBResult
	DRBModificationResults []DRBResult
}

// FailedFlows returns the flows of r that could not be set up.
func (r DRBResult) FailedFlows() []QoSFlowResult {
	out := []QoSFlowResult{}
	for _, f := range r.QoSFlowResults {
		if !f.Success {
			out = append(out, f)
		}
	}
	return out
}
