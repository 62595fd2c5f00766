// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuuputil

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// CreateUDPAddr joins an address and a port, adding brackets around IPv6 addresses.
func CreateUDPAddr(ipaddr string, port uint16) string {
	p := strconv.FormatUint(uint64(port), 10)
	if strings.Contains(ipaddr, ":") {
		return "[" + ipaddr + "]:" + p
	}
	return ipaddr + ":" + p
}

// ParseBindAddress accepts either an address alone, using defaultPort,
// or an address with a port.
func ParseBindAddress(s string, defaultPort uint16) (netip.AddrPort, error) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap, nil
	}
	ap, err := netip.ParseAddrPort(CreateUDPAddr(s, defaultPort))
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("invalid bind address %q: %w", s, err)
	}
	return ap, nil
}
