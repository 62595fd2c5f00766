// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "net"

// GTPUTunnelRxHandler receives the datagrams of one tunnel, on the executor
// the tunnel was registered with.
type GTPUTunnelRxHandler interface {
	HandlePDU(pdu []byte, src net.Addr)
}

type DispatchQueueInterface interface {
	Len() int
	Stop()
}

type GTPUDemuxCtrlInterface interface {
	AddTunnel(teid TEID, exec TaskExecutorInterface, handler GTPUTunnelRxHandler) (DispatchQueueInterface, error)
	RemoveTunnel(teid TEID) bool
}

type GTPUDemuxRxInterface interface {
	HandlePDU(pdu []byte, src net.Addr)
}

type GTPUDemuxInterface interface {
	GTPUDemuxCtrlInterface
	GTPUDemuxRxInterface
	ApplyTestTEID(teid TEID)
	Stop()
}
