// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/netip"
)

type TEID = uint32
type UEIndex = uint32
type PDUSessionID = uint16
type DRBID = uint8
type QoSFlowID = uint8
type FiveQI = uint16

// UPTransportLayerInfo identifies one end of a GTP-U tunnel
type UPTransportLayerInfo struct {
	Address netip.Addr
	TEID    TEID
}

func (t UPTransportLayerInfo) String() string {
	return fmt.Sprintf("%s (teid=%#08x)", t.Address, t.TEID)
}
