// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package main

import (
	"cmp"
	"context"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/nextmn/cu-up-bearers/config"
	"github.com/nextmn/cu-up-bearers/cuup"
	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/e1ap"
	"github.com/nextmn/cu-up-bearers/executor"
	"github.com/nextmn/cu-up-bearers/gtpu"
	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/nextmn/cu-up-bearers/passthrough"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const workerQueueSize = 4096

type ueContext struct {
	index   api.UEIndex
	manager *cuup.PDUSessionManager
	// every call to the manager runs on ctrl
	ctrl    *executor.Worker
	workers []*executor.Worker
}

// run executes f on the control worker of the UE and waits for it.
func (ue *ueContext) run(f func()) error {
	done := make(chan struct{})
	if !ue.ctrl.Execute(func() {
		defer close(done)
		f()
	}) {
		return errors.Errorf("could not run task on the control worker of UE %d", ue.index)
	}
	<-done
	return nil
}

// node is a running CU-UP: its sockets, demux, pools and the UEs of its
// static bearer contexts.
type node struct {
	conf     *config.CUUPConfig
	registry *prometheus.Registry
	metrics  *metrics.Collectors
	n3Pool   *gtpu.TEIDPool
	f1uPool  *gtpu.TEIDPool
	demux    *gtpu.Demux
	ngu      *passthrough.NGUGateway
	f1uGW    *passthrough.F1UGateway
	ues      map[api.UEIndex]*ueContext
	srv      *http.Server
	wg       sync.WaitGroup
}

func newNode(conf *config.CUUPConfig) (*node, error) {
	n := &node{
		conf:     conf,
		registry: prometheus.NewRegistry(),
		ues:      make(map[api.UEIndex]*ueContext),
	}
	m, err := metrics.NewCollectors(n.registry)
	if err != nil {
		return nil, errors.Wrap(err, "could not register metrics")
	}
	n.metrics = m
	n.n3Pool = gtpu.NewTEIDPool("n3", conf.TEIDPools.N3, m)
	n.f1uPool = gtpu.NewTEIDPool("f1u", conf.TEIDPools.F1U, m)
	n.demux, err = gtpu.NewDemux(conf.Demux, m)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (n *node) Start(ctx context.Context) error {
	n3Bind, err := n.conf.N3Bind()
	if err != nil {
		return err
	}
	n3Conn, err := passthrough.ListenGTPU("udp", n3Bind)
	if err != nil {
		return errors.Wrap(err, "could not listen on N3")
	}
	n.ngu = passthrough.NewNGUGateway(n3Conn, n.conf.N3ExtAddress())

	f1uBind, err := n.conf.F1UBind()
	if err != nil {
		return err
	}
	f1uConn, err := passthrough.ListenGTPU("udp", f1uBind)
	if err != nil {
		return errors.Wrap(err, "could not listen on F1-U")
	}
	// the TEID override only applies to N3
	f1uDemux := n.conf.Demux
	f1uDemux.TestMode = false
	n.f1uGW, err = passthrough.NewF1UGateway(f1uConn, n.conf.F1UExtAddress(), n.conf.F1U.DUPort, f1uDemux)
	if err != nil {
		return err
	}

	n.serve("n3", func() error { return n.ngu.Serve(n.demux) })
	n.serve("f1u", n.f1uGW.Serve)
	if n.conf.Metrics.Address != "" {
		n.srv = &http.Server{
			Addr:              n.conf.Metrics.Address,
			Handler:           promhttp.HandlerFor(n.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		n.serve("metrics", n.srv.ListenAndServe)
	}
	return n.setupBearers(ctx)
}

func (n *node) serve(name string, f func() error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// returns once the socket is closed
		if err := f(); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{"server": name}).Debug("Server stopped")
		}
	}()
}

func (n *node) newUE(ue api.UEIndex) (*ueContext, error) {
	dl := executor.NewWorker("dl", workerQueueSize)
	ul := executor.NewWorker("ul", workerQueueSize)
	ctrl := executor.NewWorker("ctrl", workerQueueSize)
	crypto := executor.NewWorker("crypto", workerQueueSize)
	workers := []*executor.Worker{dl, ul, ctrl, crypto}
	nguSessions, err := passthrough.NewNGUSessionManager(n.ngu)
	if err != nil {
		for _, w := range workers {
			w.Stop()
		}
		return nil, err
	}
	m, err := cuup.NewPDUSessionManager(cuup.PDUSessionManagerConfig{
		UEIndex:  ue,
		QoS:      n.conf.QoSTable(),
		N3:       n.conf.N3Params(),
		UEDLAMBR: n.conf.UEDLAMBR,
		TestMode: n.conf.TestMode,
	}, cuup.PDUSessionManagerDeps{
		N3TEIDPool:     n.n3Pool,
		F1UTEIDPool:    n.f1uPool,
		Demux:          n.demux,
		NGUSessions:    nguSessions,
		F1UGateway:     n.f1uGW,
		Factory:        passthrough.NewFactory(),
		DLExecutor:     dl,
		ULExecutor:     ul,
		CryptoExecutor: crypto,
		Metrics:        n.metrics,
	})
	if err != nil {
		for _, w := range workers {
			w.Stop()
		}
		return nil, err
	}
	return &ueContext{index: ue, manager: m, ctrl: ctrl, workers: workers}, nil
}

type sessionKey struct {
	ue  api.UEIndex
	psi api.PDUSessionID
}

// setupBearers creates the static bearer contexts of the configuration.
func (n *node) setupBearers(ctx context.Context) error {
	sessions := make(map[sessionKey][]config.BearerConfig)
	for _, b := range n.conf.Bearers {
		k := sessionKey{ue: b.UEIndex, psi: b.PDUSessionID}
		sessions[k] = append(sessions[k], b)
	}
	keys := slices.SortedFunc(maps.Keys(sessions), func(a, b sessionKey) int {
		if c := cmp.Compare(a.ue, b.ue); c != 0 {
			return c
		}
		return cmp.Compare(a.psi, b.psi)
	})
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		ue, ok := n.ues[k.ue]
		if !ok {
			var err error
			if ue, err = n.newUE(k.ue); err != nil {
				return err
			}
			n.ues[k.ue] = ue
		}
		var err error
		if rerr := ue.run(func() { err = setupSession(ue.manager, k.psi, sessions[k]) }); rerr != nil {
			return rerr
		}
		if err != nil {
			return errors.Wrapf(err, "UE %d", k.ue)
		}
	}
	for _, ue := range n.ues {
		if err := ue.run(ue.manager.PrintBearerContexts); err != nil {
			return err
		}
	}
	if n.conf.Demux.TestMode && len(keys) > 0 {
		return n.applyTestTEID(keys[0])
	}
	return nil
}

// applyTestTEID sends every N3 datagram to the tunnel of the session k.
func (n *node) applyTestTEID(k sessionKey) error {
	var teid api.TEID
	ue := n.ues[k.ue]
	if err := ue.run(func() {
		if s, ok := ue.manager.PDUSession(k.psi); ok {
			teid = s.LocalTEID
		}
	}); err != nil {
		return err
	}
	n.demux.ApplyTestTEID(teid)
	logrus.WithFields(logrus.Fields{"ue-index": k.ue, "psi": k.psi, "n3-teid": teid}).Warn("Demux test mode: every N3 datagram goes to one tunnel")
	return nil
}

func setupSession(m *cuup.PDUSessionManager, psi api.PDUSessionID, bearers []config.BearerConfig) error {
	upf, err := bearers[0].UPF.Info()
	if err != nil {
		return err
	}
	item := e1ap.PDUSessionResToSetupItem{
		PDUSessionID:  psi,
		NGULUPTNLInfo: upf,
		SecurityIndication: e1ap.SecurityIndication{
			IntegrityProtection:       e1ap.ProtectionNotNeeded,
			ConfidentialityProtection: e1ap.ProtectionNotNeeded,
		},
	}
	drbs := make(map[api.DRBID]int)
	for _, b := range bearers {
		i, exists := drbs[b.DRBID]
		if !exists {
			i = len(item.DRBsToSetup)
			drbs[b.DRBID] = i
			item.DRBsToSetup = append(item.DRBsToSetup, e1ap.DRBToSetupItem{
				DRBID:      b.DRBID,
				SDAPConfig: api.SDAPConfig{DefaultDRB: i == 0},
				PDCPConfig: api.PDCPConfig{
					SNSizeUL: api.PDCPSNSize18,
					SNSizeDL: api.PDCPSNSize18,
					RLCMode:  api.RLCModeAM,
				},
			})
		}
		item.DRBsToSetup[i].QoSFlowsToSetup = append(item.DRBsToSetup[i].QoSFlowsToSetup, e1ap.QoSFlowItem{
			QoSFlowID: b.QoSFlowID,
			FiveQI:    b.FiveQI,
		})
	}

	res := m.SetupPDUSession(item)
	if !res.Success {
		return errors.Errorf("could not set up PDU session %d: %s", psi, res.Cause)
	}
	mod := e1ap.PDUSessionResToModifyItem{PDUSessionID: psi}
	for _, drb := range res.DRBSetupResults {
		if !drb.Success {
			return errors.Errorf("could not set up DRB %d of PDU session %d: %s", drb.DRBID, psi, drb.Cause)
		}
		for _, b := range bearers {
			if b.DRBID != drb.DRBID || b.DU == nil {
				continue
			}
			du, err := b.DU.Info()
			if err != nil {
				return err
			}
			mod.DRBsToModify = append(mod.DRBsToModify, e1ap.DRBToModifyItem{
				DRBID:          drb.DRBID,
				DLUPParameters: []e1ap.DLUPParameter{{UPTNLInfo: du}},
			})
			break
		}
	}
	if len(mod.DRBsToModify) == 0 {
		return nil
	}
	for _, drb := range m.ModifyPDUSession(mod, false).DRBModificationResults {
		if !drb.Success {
			return errors.Errorf("could not attach DU tunnel of DRB %d of PDU session %d: %s", drb.DRBID, psi, drb.Cause)
		}
	}
	return nil
}

// Stop removes every bearer context, then closes the sockets.
func (n *node) Stop() {
	for _, ue := range n.ues {
		teardown := func() {
			ue.manager.DisconnectAllPDUSessions()
			ue.manager.Close()
		}
		if err := ue.run(teardown); err != nil {
			logrus.WithError(err).Error("Tearing down bearer contexts outside of the control worker")
			teardown()
		}
		for _, w := range ue.workers {
			w.Stop()
		}
	}
	n.demux.Stop()
	if n.ngu != nil {
		n.ngu.Close()
	}
	if n.f1uGW != nil {
		n.f1uGW.Close()
	}
	if n.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		n.srv.Shutdown(ctx)
	}
	n.wg.Wait()
}
