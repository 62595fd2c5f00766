// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"net/netip"
	"sync/atomic"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NGUGateway sends the uplink G-PDUs of the NG-U tunnels over one socket.
type NGUGateway struct {
	conn *GTPUConn
	// address advertised to the UPF, may differ from the socket address
	// when bound to a wildcard address
	extAddr netip.Addr
}

func NewNGUGateway(conn *GTPUConn, extAddr netip.Addr) *NGUGateway {
	if !extAddr.IsValid() {
		extAddr = conn.LocalAddrPort().Addr()
	}
	return &NGUGateway{conn: conn, extAddr: extAddr}
}

// LocalAddrPort is the address of the socket, where the UPF sends to.
func (gw *NGUGateway) LocalAddrPort() netip.AddrPort {
	return gw.conn.LocalAddrPort()
}

func (gw *NGUGateway) BindAddress() (netip.Addr, error) {
	if gw.extAddr.IsUnspecified() {
		return netip.Addr{}, errors.Errorf("NG-U gateway bound to %s has no usable address", gw.extAddr)
	}
	return gw.extAddr, nil
}

func (gw *NGUGateway) OnNewPDU(pdu []byte, dst netip.AddrPort) {
	if err := gw.conn.Send(pdu, dst); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"dst": dst}).Warn("Could not send G-PDU on NG-U")
	}
}

// Serve feeds the downlink G-PDUs received on the socket to the demux.
func (gw *NGUGateway) Serve(demux api.GTPUDemuxRxInterface) error {
	return gw.conn.Serve(demux.HandlePDU)
}

func (gw *NGUGateway) Close() error {
	return gw.conn.Close()
}

// NGUSessionManager spreads new sessions over its gateways, round robin.
type NGUSessionManager struct {
	gateways []*NGUGateway
	next     atomic.Uint32
}

func NewNGUSessionManager(gateways ...*NGUGateway) (*NGUSessionManager, error) {
	if len(gateways) == 0 {
		return nil, errors.New("at least one NG-U gateway is required")
	}
	return &NGUSessionManager{gateways: gateways}, nil
}

func (m *NGUSessionManager) NextNGUGateway() api.NGUGatewayInterface {
	i := m.next.Add(1) - 1
	return m.gateways[int(i)%len(m.gateways)]
}
