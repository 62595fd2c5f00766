// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"fmt"
	"net/netip"
	"strings"
	"testing"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/cuuputil"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPDUSessionManagerMissingDeps(t *testing.T) {
	env := newTestEnv(8, 8)
	deps := env.deps()
	deps.Demux = nil
	_, err := NewPDUSessionManager(testConfig(), deps)
	assert.Error(t, err)
}

func TestCreateAndRemovePDUSession(t *testing.T) {
	m, env := newTestManager(t, testConfig())
	assert.Equal(t, 0, m.GetNofPDUSessions())

	res := setupDefaultSession(t, m)
	assert.Equal(t, api.PDUSessionID(1), res.PDUSessionID)
	assert.Nil(t, res.Cause)
	assert.Equal(t, api.TEID(1), res.GTPTunnel.TEID)
	assert.Equal(t, netip.MustParseAddr("127.0.0.2"), res.GTPTunnel.Address)
	assert.Equal(t, api.TEID(1), res.DRBSetupResults[0].GTPTunnel.TEID)
	assert.Equal(t, netip.MustParseAddr("127.0.0.1"), res.DRBSetupResults[0].GTPTunnel.Address)
	require.Len(t, res.DRBSetupResults[0].QoSFlowResults, 1)
	assert.True(t, res.DRBSetupResults[0].QoSFlowResults[0].Success)
	assert.Equal(t, 1, m.GetNofPDUSessions())
	assert.Equal(t, []api.TEID{1}, env.demux.created)

	session, ok := m.PDUSession(1)
	require.True(t, ok)
	drb, ok := session.DRB(1)
	require.True(t, ok)
	assert.Equal(t, api.FiveQI(9), drb.FiveQI)
	assert.Equal(t, []api.QoSFlowID{8}, drb.QoSFlowIDs())

	// unknown session
	m.RemovePDUSession(2)
	assert.Equal(t, 1, m.GetNofPDUSessions())

	m.RemovePDUSession(1)
	assert.Equal(t, 0, m.GetNofPDUSessions())
	assert.Equal(t, []api.TEID{1}, env.demux.removed)
	assert.Equal(t, []api.TEID{1}, env.f1uGW.removed)
	assert.Equal(t, 0, env.n3Pool.NofAllocated())
	assert.Equal(t, 0, env.f1uPool.NofAllocated())
	assert.True(t, env.factory.sdaps[0].stopped)
	assert.True(t, env.factory.gtpus[0].stopped)
	assert.True(t, env.factory.pdcps[0].stopped)
	assert.True(t, env.factory.f1us[0].stopped)
	assert.True(t, env.demux.queues[1].stopped)
}

func TestDuplicatePDUSession(t *testing.T) {
	m, env := newTestManager(t, testConfig())
	setupDefaultSession(t, m)
	first, _ := m.PDUSession(1)

	res := m.SetupPDUSession(sessionSetupItem(1, drbSetupItem(2, qosFlow(9, 9))))
	assert.False(t, res.Success)
	assert.Equal(t, e1ap.CauseRadioNetworkMultiplePDUSessionIDInstances, res.Cause)

	assert.Equal(t, 1, m.GetNofPDUSessions())
	session, _ := m.PDUSession(1)
	assert.Same(t, first, session)
	assert.Equal(t, []api.DRBID{1}, session.DRBIDs())
	assert.Equal(t, 1, env.n3Pool.NofAllocated())
	assert.Equal(t, []api.TEID{1}, env.demux.created)
}

func TestPDUSessionWithoutDRB(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	res := m.SetupPDUSession(sessionSetupItem(3))
	assert.True(t, res.Success)
	assert.Empty(t, res.DRBSetupResults)
	session, ok := m.PDUSession(3)
	require.True(t, ok)
	assert.Equal(t, 0, session.NofDRBs())
}

func TestMaxPDUSessions(t *testing.T) {
	env := newTestEnv(cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE+8, 8)
	m, err := NewPDUSessionManager(testConfig(), env.deps())
	require.NoError(t, err)
	defer m.Close()

	for i := 0; i < cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE; i++ {
		require.True(t, m.SetupPDUSession(sessionSetupItem(api.PDUSessionID(i))).Success)
	}
	res := m.SetupPDUSession(sessionSetupItem(cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE))
	assert.False(t, res.Success)
	assert.Equal(t, e1ap.CauseRadioNetworkUnspecified, res.Cause)
	assert.Equal(t, cuuputil.MAX_NUM_PDU_SESSIONS_PER_UE, env.n3Pool.NofAllocated())
}

func TestN3TEIDExhausted(t *testing.T) {
	env := newTestEnv(1, 8)
	m, err := NewPDUSessionManager(testConfig(), env.deps())
	require.NoError(t, err)
	defer m.Close()

	require.True(t, m.SetupPDUSession(sessionSetupItem(1)).Success)
	res := m.SetupPDUSession(sessionSetupItem(2, drbSetupItem(1, qosFlow(8, 9))))
	assert.False(t, res.Success)
	assert.Equal(t, e1ap.CauseTransportResourceUnavailable, res.Cause)
	assert.Equal(t, 1, m.GetNofPDUSessions())
	assert.Len(t, env.factory.sdaps, 1)
	assert.Empty(t, env.f1uGW.created)
}

func TestPDUSessionEntityCreationFailure(t *testing.T) {
	for _, tc := range []struct {
		name  string
		setup func(env *testEnv)
		cause e1ap.Cause
	}{
		{"ngu-bind", func(env *testEnv) { env.ngu.err = fmt.Errorf("no address") }, e1ap.CauseTransportUnspecified},
		{"sdap", func(env *testEnv) { env.factory.failSDAP = true }, e1ap.CauseMiscNotEnoughUserPlaneProcessingResources},
		{"gtpu", func(env *testEnv) { env.factory.failGTPU = true }, e1ap.CauseMiscNotEnoughUserPlaneProcessingResources},
		{"demux", func(env *testEnv) { env.demux.fail = true }, e1ap.CauseTransportUnspecified},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, env := newTestManager(t, testConfig())
			tc.setup(env)
			res := m.SetupPDUSession(sessionSetupItem(1, drbSetupItem(1, qosFlow(8, 9))))
			assert.False(t, res.Success)
			assert.Equal(t, tc.cause, res.Cause)
			assert.Equal(t, 0, m.GetNofPDUSessions())
			assert.Equal(t, 0, env.n3Pool.NofAllocated())
			assert.Empty(t, env.demux.tunnels)
			assert.Empty(t, env.f1uGW.created)
			for _, s := range env.factory.sdaps {
				assert.True(t, s.stopped)
			}
			for _, g := range env.factory.gtpus {
				assert.True(t, g.stopped)
			}
		})
	}
}

func TestSecurityResultGating(t *testing.T) {
	for _, tc := range []struct {
		name      string
		ind       e1ap.SecurityIndication
		result    *e1ap.SecurityResult
		integrity bool
		ciphering bool
	}{
		{
			name:      "required",
			ind:       e1ap.SecurityIndication{IntegrityProtection: e1ap.ProtectionRequired, ConfidentialityProtection: e1ap.ProtectionRequired},
			integrity: true,
			ciphering: true,
		},
		{
			name:      "not-needed",
			ind:       e1ap.SecurityIndication{IntegrityProtection: e1ap.ProtectionNotNeeded, ConfidentialityProtection: e1ap.ProtectionNotNeeded},
			integrity: false,
			ciphering: false,
		},
		{
			name: "preferred-integrity",
			ind:  e1ap.SecurityIndication{IntegrityProtection: e1ap.ProtectionPreferred, ConfidentialityProtection: e1ap.ProtectionNotNeeded},
			result: &e1ap.SecurityResult{
				IntegrityProtection:       e1ap.ProtectionPerformed,
				ConfidentialityProtection: e1ap.ProtectionNotPerformed,
			},
			integrity: true,
			ciphering: false,
		},
		{
			name: "preferred-ciphering",
			ind:  e1ap.SecurityIndication{IntegrityProtection: e1ap.ProtectionNotNeeded, ConfidentialityProtection: e1ap.ProtectionPreferred},
			result: &e1ap.SecurityResult{
				IntegrityProtection:       e1ap.ProtectionNotPerformed,
				ConfidentialityProtection: e1ap.ProtectionPerformed,
			},
			integrity: false,
			ciphering: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, env := newTestManager(t, testConfig())
			item := sessionSetupItem(1, drbSetupItem(1, qosFlow(8, 9)))
			item.SecurityIndication = tc.ind
			res := m.SetupPDUSession(item)
			require.True(t, res.Success)
			assert.Equal(t, tc.result, res.SecurityResult)

			require.Len(t, env.factory.pdcps, 1)
			pdcp := env.factory.pdcps[0]
			for _, ctrl := range []*fakePDCPControl{&pdcp.tx, &pdcp.rx} {
				assert.Equal(t, 1, ctrl.configured)
				assert.Equal(t, tc.integrity, bool(ctrl.integrity))
				assert.Equal(t, tc.ciphering, bool(ctrl.ciphering))
				assert.Equal(t, m.cfg.Security.Truncate128(), ctrl.sec)
			}
		})
	}
}

func TestTestModeDesiredBufferSize(t *testing.T) {
	cfg := testConfig()
	cfg.TestMode = true
	m, env := newTestManager(t, cfg)
	setupDefaultSession(t, m)
	require.Len(t, env.factory.pdcps, 1)
	assert.Equal(t, uint32(0xffffffff), env.factory.pdcps[0].txLower.desiredBufferSize)
	assert.True(t, env.factory.gtpus[0].msg.TestMode)
}

func TestDataPath(t *testing.T) {
	m, env := newTestManager(t, testConfig())
	setupDefaultSession(t, m)
	gw := env.f1uGW.bearers[1]
	require.NotNil(t, gw)

	// downlink: N3 -> GTP-U -> SDAP -> PDCP -> F1-U -> gateway
	handler, ok := env.demux.tunnels[1]
	require.True(t, ok)
	handler.HandlePDU([]byte("dl"), nil)
	assert.Equal(t, [][]byte{[]byte("dl")}, gw.tx)

	// uplink: gateway -> F1-U -> PDCP -> SDAP -> GTP-U -> N3
	gw.rx.OnNewPDU([]byte("ul"))
	require.Len(t, env.ngu.sent, 1)
	assert.Equal(t, []byte("ul"), env.ngu.sent[0].pdu)
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.1:2152"), env.ngu.sent[0].dst)

	// delivery status reaches PDCP tx lower
	session, _ := m.PDUSession(1)
	drb, _ := session.DRB(1)
	drb.f1uToPDCP.OnDeliveryNotification(42)
	assert.Equal(t, uint32(42), env.factory.pdcps[0].txLower.delivered)
}

func TestDisconnectAllThenRemove(t *testing.T) {
	m, env := newTestManager(t, testConfig())
	for psi := api.PDUSessionID(1); psi <= 3; psi++ {
		res := m.SetupPDUSession(sessionSetupItem(psi, drbSetupItem(1, qosFlow(8, 9)), drbSetupItem(2, qosFlow(9, 9))))
		require.True(t, res.Success)
	}
	assert.Equal(t, 3, env.n3Pool.NofAllocated())
	assert.Equal(t, 6, env.f1uPool.NofAllocated())

	m.DisconnectAllPDUSessions()
	assert.Equal(t, 3, m.GetNofPDUSessions())
	assert.Equal(t, 0, env.f1uPool.NofAllocated())
	for _, b := range env.f1uGW.bearers {
		assert.True(t, b.stopped)
	}

	// a second disconnect must not release anything twice
	m.DisconnectPDUSession(2)

	for _, psi := range m.PDUSessionIDs() {
		m.RemovePDUSession(psi)
	}
	assert.Equal(t, 0, m.GetNofPDUSessions())
	assert.Equal(t, 0, env.n3Pool.NofAllocated())
	assert.Empty(t, env.demux.tunnels)
	assert.ElementsMatch(t, []api.TEID{1, 2, 3}, env.demux.removed)
	for _, e := range env.log.get() {
		assert.NotContains(t, e, "release-failed")
	}
}

func TestClose(t *testing.T) {
	m, env := newTestManager(t, testConfig())
	setupDefaultSession(t, m)
	require.True(t, m.SetupPDUSession(sessionSetupItem(2, drbSetupItem(1, qosFlow(8, 9)))).Success)

	m.Close()
	assert.Equal(t, 0, m.GetNofPDUSessions())
	assert.Equal(t, 0, env.n3Pool.NofAllocated())
	assert.Equal(t, 0, env.f1uPool.NofAllocated())
	assert.Empty(t, env.demux.tunnels)
}

func TestPrintBearerContexts(t *testing.T) {
	m, _ := newTestManager(t, testConfig())
	setupDefaultSession(t, m)
	assert.NotPanics(t, m.PrintBearerContexts)
}

func TestManagerMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	col, err := metrics.NewCollectors(reg)
	require.NoError(t, err)
	env := newTestEnv(8, 8)
	deps := env.deps()
	deps.Metrics = col
	m, err := NewPDUSessionManager(testConfig(), deps)
	require.NoError(t, err)
	defer m.Close()

	setupDefaultSession(t, m)
	m.SetupPDUSession(sessionSetupItem(1))
	m.SetupPDUSession(sessionSetupItem(2, drbSetupItem(1, qosFlow(8, 8))))

	expected := `
# HELP cuup_pdu_sessions Number of active PDU sessions
# TYPE cuup_pdu_sessions gauge
cuup_pdu_sessions 2
# HELP cuup_drbs Number of active DRBs
# TYPE cuup_drbs gauge
cuup_drbs 1
# HELP cuup_bearer_item_failures_total Total number of failed PDU session, DRB and QoS flow items
# TYPE cuup_bearer_item_failures_total counter
cuup_bearer_item_failures_total{cause="radio_network:multiple_pdu_session_id_instances",item="pdu-session"} 1
cuup_bearer_item_failures_total{cause="radio_network:not_supported_5qi_value",item="drb"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"cuup_pdu_sessions", "cuup_drbs", "cuup_bearer_item_failures_total"))

	m.RemovePDUSession(1)
	expected = `
# HELP cuup_pdu_sessions Number of active PDU sessions
# TYPE cuup_pdu_sessions gauge
cuup_pdu_sessions 1
# HELP cuup_drbs Number of active DRBs
# TYPE cuup_drbs gauge
cuup_drbs 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cuup_pdu_sessions", "cuup_drbs"))
}

func TestUEAMBRConfig(t *testing.T) {
	env := newTestEnv(8, 8)
	cfg := testConfig()
	cfg.N3.IgnoreUEAMBR = false
	cfg.UEDLAMBR = 0
	_, err := NewPDUSessionManager(cfg, env.deps())
	assert.Error(t, err)

	cfg.UEDLAMBR = 8_000
	m, err := NewPDUSessionManager(cfg, env.deps())
	require.NoError(t, err)
	defer m.Close()
	setupDefaultSession(t, m)
	require.Len(t, env.factory.gtpus, 1)
	msg := env.factory.gtpus[0].msg
	assert.False(t, msg.IgnoreUEAMBR)
	require.NotNil(t, msg.UEAMBR)
	// 8 kbit/s over a 100ms period holds at most 100 bytes
	assert.False(t, msg.UEAMBR.Consume(101))
	assert.True(t, msg.UEAMBR.Consume(100))
}
