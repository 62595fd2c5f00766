// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"fmt"
	"net"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/wmnsk/go-pfcp/ie"
)

// NewFTEID returns the F-TEID IE describing a tunnel endpoint.
func NewFTEID(t api.UPTransportLayerInfo) *ie.IE {
	switch {
	case t.Address.Is4():
		return ie.NewFTEID(0x01, t.TEID, net.IP(t.Address.AsSlice()), nil, 0)
	case t.Address.Is6():
		return ie.NewFTEID(0x02, t.TEID, nil, net.IP(t.Address.AsSlice()), 0)
	default:
		return ie.NewFTEID(0x00, t.TEID, nil, nil, 0)
	}
}

// FTEIDLabel formats an F-TEID IE for logging.
func FTEIDLabel(f *ie.IE) string {
	fteid, err := f.FTEID()
	if err != nil {
		return "Not defined"
	}
	switch {
	case f.HasIPv4() && f.HasIPv6():
		return fmt.Sprintf("[%s/%s (%d)]", fteid.IPv4Address, fteid.IPv6Address, fteid.TEID)
	case f.HasIPv4():
		return fmt.Sprintf("[%s (%d)]", fteid.IPv4Address, fteid.TEID)
	case f.HasIPv6():
		return fmt.Sprintf("[%s (%d)]", fteid.IPv6Address, fteid.TEID)
	}
	return fmt.Sprintf("[unbound (%d)]", fteid.TEID)
}
