// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"fmt"
	"net"
	"net/netip"
	"sync"

	"github.com/nextmn/cu-up-bearers/cuuputil"
)

// GTPUConn is a UDP socket carrying GTP-U.
type GTPUConn struct {
	net.UDPConn
	mu sync.Mutex
}

func ListenGTPU(network string, laddr netip.AddrPort) (*GTPUConn, error) {
	switch network {
	case "udp", "udp4", "udp6":
	default:
		return nil, fmt.Errorf("unknown network")
	}
	conn, err := net.ListenUDP(network, net.UDPAddrFromAddrPort(laddr))
	if err != nil {
		return nil, err
	}
	return &GTPUConn{UDPConn: *conn}, nil
}

// LocalAddrPort returns the address the socket is bound to.
func (conn *GTPUConn) LocalAddrPort() netip.AddrPort {
	return conn.UDPConn.LocalAddr().(*net.UDPAddr).AddrPort()
}

func (conn *GTPUConn) Send(pdu []byte, dst netip.AddrPort) error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	if _, err := conn.WriteToUDPAddrPort(pdu, dst); err != nil {
		return err
	}
	return nil
}

// Serve reads datagrams until the socket is closed, passing each of them to rx.
func (conn *GTPUConn) Serve(rx func(pdu []byte, src net.Addr)) error {
	for {
		buf := make([]byte, cuuputil.DEFAULT_MTU)
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		rx(buf[:n], addr)
	}
}
