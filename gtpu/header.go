// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/pkg/errors"
	"github.com/wmnsk/go-gtp/gtpv1/message"
)

// ParseTEID returns the TEID of a GTP-U datagram. No other header field is
// interpreted.
func ParseTEID(pdu []byte) (api.TEID, error) {
	h, err := message.ParseHeader(pdu)
	if err != nil {
		return 0, errors.Wrap(err, "could not parse GTP-U header")
	}
	return h.TEID, nil
}

// NewTPDU encapsulates payload in a G-PDU for teid.
func NewTPDU(teid api.TEID, payload []byte) ([]byte, error) {
	b, err := message.NewTPDU(teid, payload).Marshal()
	if err != nil {
		return nil, errors.Wrapf(err, "could not encapsulate G-PDU for TEID %d", teid)
	}
	return b, nil
}

// DecapsulateTPDU returns the TEID and payload of a G-PDU.
func DecapsulateTPDU(pdu []byte) (api.TEID, []byte, error) {
	h, err := message.ParseHeader(pdu)
	if err != nil {
		return 0, nil, errors.Wrap(err, "could not parse GTP-U header")
	}
	if h.Type != message.MsgTypeTPDU {
		return h.TEID, nil, errors.Errorf("unexpected GTP-U message type %d", h.Type)
	}
	return h.TEID, h.Payload, nil
}

// PDU Session Container PDU types (TS 38.415 5.5.2)
const (
	DLPDUSessionInformation uint8 = 0x00
	ULPDUSessionInformation uint8 = 0x10
)

// NewQoSTPDU encapsulates payload in a G-PDU for teid, with a PDU Session
// Container carrying qfi. pduType is DLPDUSessionInformation or ULPDUSessionInformation.
func NewQoSTPDU(teid api.TEID, pduType uint8, qfi api.QoSFlowID, payload []byte) ([]byte, error) {
	h := message.NewHeader(0x34, message.MsgTypeTPDU, teid, 0x00, payload).WithExtensionHeaders(
		message.NewExtensionHeader(
			message.ExtHeaderTypePDUSessionContainer,
			[]byte{pduType, qfi & 0x3f},
			message.ExtHeaderTypeNoMoreExtensionHeaders,
		),
	)
	b := make([]byte, h.MarshalLen())
	if err := h.MarshalTo(b); err != nil {
		return nil, errors.Wrapf(err, "could not encapsulate G-PDU for TEID %d", teid)
	}
	return b, nil
}

// DecapsulateQoSTPDU returns the TEID, QFI and payload of a G-PDU. The QFI
// is 0 when the G-PDU has no PDU Session Container.
func DecapsulateQoSTPDU(pdu []byte) (api.TEID, api.QoSFlowID, []byte, error) {
	h, err := message.ParseHeader(pdu)
	if err != nil {
		return 0, 0, nil, errors.Wrap(err, "could not parse GTP-U header")
	}
	if h.Type != message.MsgTypeTPDU {
		return h.TEID, 0, nil, errors.Errorf("unexpected GTP-U message type %d", h.Type)
	}
	var qfi api.QoSFlowID
	for _, eh := range h.ExtensionHeaders {
		if eh.Type != message.ExtHeaderTypePDUSessionContainer {
			continue
		}
		if len(eh.Content) < 2 {
			return h.TEID, 0, nil, errors.Errorf("PDU Session Container too short (%d bytes)", len(eh.Content))
		}
		qfi = eh.Content[1] & 0x3f
	}
	return h.TEID, qfi, h.Payload, nil
}
