// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"net/netip"
	"testing"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/executor"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/nextmn/cu-up-bearers/security"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	log     *eventLog
	n3Pool  *recordingTEIDPool
	f1uPool *recordingTEIDPool
	demux   *fakeDemux
	ngu     *fakeNGUGateway
	f1uGW   *fakeF1UGateway
	factory *fakeFactory
	dl      *executor.ManualWorker
	ul      *executor.ManualWorker
	crypto  *executor.ManualWorker
}

func testConfig() PDUSessionManagerConfig {
	kInt := security.Key{}
	for i := range kInt {
		kInt[i] = byte(i)
	}
	nia2 := security.NIA2
	return PDUSessionManagerConfig{
		UEIndex: 0,
		QoS: map[api.FiveQI]api.QoSConfig{
			9: {F1U: api.F1UConfig{QueueSize: 1024, BatchSize: 32}},
		},
		Security: security.ASConfig{
			KInt:               &kInt,
			KEnc:               kInt,
			IntegrityAlgorithm: &nia2,
			CipheringAlgorithm: security.NEA2,
		},
		N3:               api.N3Config{UPFPort: 2152, IgnoreUEAMBR: true},
		UEDLAMBR:         1_000_000_000,
		NofCryptoWorkers: 2,
	}
}

func newTestEnv(n3PoolSize uint32, f1uPoolSize uint32) *testEnv {
	log := &eventLog{}
	return &testEnv{
		log:     log,
		n3Pool:  &recordingTEIDPool{TEIDPool: gtpu.NewTEIDPool("n3", n3PoolSize, nil), log: log},
		f1uPool: &recordingTEIDPool{TEIDPool: gtpu.NewTEIDPool("f1u", f1uPoolSize, nil), log: log},
		demux:   newFakeDemux(),
		ngu:     &fakeNGUGateway{addr: netip.MustParseAddr("127.0.0.2")},
		f1uGW: &fakeF1UGateway{
			addr:    netip.MustParseAddr("127.0.0.1"),
			log:     log,
			bearers: make(map[api.TEID]*fakeGWBearer),
		},
		factory: &fakeFactory{log: log},
		dl:      executor.NewManualWorker(),
		ul:      executor.NewManualWorker(),
		crypto:  executor.NewManualWorker(),
	}
}

func (env *testEnv) deps() PDUSessionManagerDeps {
	return PDUSessionManagerDeps{
		N3TEIDPool:     env.n3Pool,
		F1UTEIDPool:    env.f1uPool,
		Demux:          env.demux,
		NGUSessions:    &fakeNGUSessions{gw: env.ngu},
		F1UGateway:     env.f1uGW,
		Factory:        env.factory,
		DLExecutor:     env.dl,
		ULExecutor:     env.ul,
		CryptoExecutor: env.crypto,
	}
}

func newTestManager(t *testing.T, cfg PDUSessionManagerConfig) (*PDUSessionManager, *testEnv) {
	t.Helper()
	env := newTestEnv(64, 64)
	m, err := NewPDUSessionManager(cfg, env.deps())
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, env
}

func qosFlow(qfi api.QoSFlowID, fiveQI api.FiveQI) e1ap.QoSFlowItem {
	return e1ap.QoSFlowItem{QoSFlowID: qfi, FiveQI: fiveQI}
}

func drbSetupItem(drb api.DRBID, flows ...e1ap.QoSFlowItem) e1ap.DRBToSetupItem {
	return e1ap.DRBToSetupItem{
		DRBID: drb,
		PDCPConfig: api.PDCPConfig{
			SNSizeUL: api.PDCPSNSize18,
			SNSizeDL: api.PDCPSNSize18,
			RLCMode:  api.RLCModeAM,
		},
		CellGroupInfo:   []e1ap.CellGroupInfo{{CellGroupID: 0}},
		QoSFlowsToSetup: flows,
	}
}

func sessionSetupItem(psi api.PDUSessionID, drbs ...e1ap.DRBToSetupItem) e1ap.PDUSessionResToSetupItem {
	return e1ap.PDUSessionResToSetupItem{
		PDUSessionID:   psi,
		PDUSessionType: e1ap.PDUSessionTypeIPv4,
		SNSSAI:         e1ap.SNSSAI{SST: 1},
		NGULUPTNLInfo: api.UPTransportLayerInfo{
			Address: netip.MustParseAddr("10.0.0.1"),
			TEID:    0x1234,
		},
		DRBsToSetup: drbs,
	}
}

// setupDefaultSession creates session 1 with DRB 1 carrying QFI 8 (5QI 9).
func setupDefaultSession(t *testing.T, m *PDUSessionManager) e1ap.PDUSessionSetupResult {
	t.Helper()
	res := m.SetupPDUSession(sessionSetupItem(1, drbSetupItem(1, qosFlow(8, 9))))
	require.True(t, res.Success)
	require.Len(t, res.DRBSetupResults, 1)
	require.True(t, res.DRBSetupResults[0].Success)
	return res
}
