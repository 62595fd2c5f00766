// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package e1ap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecurityResultGating(t *testing.T) {
	for _, tc := range []struct {
		name       string
		integrity  ProtectionIndication
		confid     ProtectionIndication
		present    bool
		integrityR ProtectionResult
		confidR    ProtectionResult
	}{
		{"both required", ProtectionRequired, ProtectionRequired, false, 0, 0},
		{"both not needed", ProtectionNotNeeded, ProtectionNotNeeded, false, 0, 0},
		{"required and not needed", ProtectionRequired, ProtectionNotNeeded, false, 0, 0},
		{"both preferred", ProtectionPreferred, ProtectionPreferred, true, ProtectionPerformed, ProtectionPerformed},
		{"integrity preferred", ProtectionPreferred, ProtectionNotNeeded, true, ProtectionPerformed, ProtectionNotPerformed},
		{"confidentiality preferred", ProtectionNotNeeded, ProtectionPreferred, true, ProtectionNotPerformed, ProtectionPerformed},
		{"preferred and required", ProtectionRequired, ProtectionPreferred, true, ProtectionPerformed, ProtectionPerformed},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := NewSecurityResult(SecurityIndication{IntegrityProtection: tc.integrity, ConfidentialityProtection: tc.confid})
			if !tc.present {
				assert.Nil(t, res)
				return
			}
			require.NotNil(t, res)
			assert.Equal(t, tc.integrityR, res.IntegrityProtection)
			assert.Equal(t, tc.confidR, res.ConfidentialityProtection)
		})
	}
}

func TestCauseFamilies(t *testing.T) {
	causes := []Cause{
		CauseRadioNetworkNotSupported5QIValue,
		CauseTransportResourceUnavailable,
		CauseProtocolUnspecified,
		CauseMiscUnspecified,
	}
	assert.Equal(t, "radio_network:not_supported_5qi_value", causes[0].String())
	assert.Equal(t, "transport:transport_res_unavailable", causes[1].String())
	assert.Equal(t, "protocol:unspecified", causes[2].String())
	assert.Equal(t, "misc:unspecified", causes[3].String())

	// same value, different family
	assert.NotEqual(t, Cause(CauseRadioNetworkUnspecified), Cause(CauseTransportUnspecified))
	assert.Equal(t, Cause(CauseRadioNetworkMultipleQoSFlowIDInstances), Cause(CauseRadioNetworkMultipleQoSFlowIDInstances))
}

func TestDRBResultFailedFlows(t *testing.T) {
	r := DRBResult{QoSFlowResults: []QoSFlowResult{
		{QoSFlowID: 8, Cause: CauseRadioNetworkMultipleQoSFlowIDInstances},
		{QoSFlowID: 9, Success: true},
	}}
	failed := r.FailedFlows()
	require.Len(t, failed, 1)
	assert.Equal(t, uint8(8), failed[0].QoSFlowID)
}
