// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"fmt"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/nextmn/cu-up-bearers/security"
)

type PDUSessionManagerConfig struct {
	UEIndex  api.UEIndex
	QoS      map[api.FiveQI]api.QoSConfig
	Security security.ASConfig
	N3       api.N3Config
	// UE downlink AMBR, in bits per second
	UEDLAMBR uint64
	TestMode bool
	// Defaults to the number of CPUs
	NofCryptoWorkers int
}

// PDUSessionManagerDeps are the collaborators shared with other UEs.
type PDUSessionManagerDeps struct {
	N3TEIDPool     api.TEIDPoolInterface
	F1UTEIDPool    api.TEIDPoolInterface
	Demux          api.GTPUDemuxCtrlInterface
	NGUSessions    api.NGUSessionManagerInterface
	F1UGateway     api.F1UGatewayInterface
	Factory        api.EntityFactoryInterface
	DLExecutor     api.TaskExecutorInterface
	ULExecutor     api.TaskExecutorInterface
	CryptoExecutor api.TaskExecutorInterface
	Metrics        *metrics.Collectors // optional
}

func (d PDUSessionManagerDeps) validate() error {
	switch {
	case d.N3TEIDPool == nil:
		return fmt.Errorf("missing N3 TEID pool")
	case d.F1UTEIDPool == nil:
		return fmt.Errorf("missing F1-U TEID pool")
	case d.Demux == nil:
		return fmt.Errorf("missing GTP-U demux")
	case d.NGUSessions == nil:
		return fmt.Errorf("missing NG-U session manager")
	case d.F1UGateway == nil:
		return fmt.Errorf("missing F1-U gateway")
	case d.Factory == nil:
		return fmt.Errorf("missing entity factory")
	case d.DLExecutor == nil || d.ULExecutor == nil || d.CryptoExecutor == nil:
		return fmt.Errorf("missing UE executor")
	}
	return nil
}
