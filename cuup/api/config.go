// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

import "time"

type PDCPSNSize uint8

const (
	PDCPSNSize12 PDCPSNSize = 12
	PDCPSNSize18 PDCPSNSize = 18
)

type RLCMode uint8

const (
	RLCModeUM RLCMode = iota
	RLCModeAM
)

func (m RLCMode) String() string {
	if m == RLCModeAM {
		return "am"
	}
	return "um"
}

// PDCPConfig is the PDCP configuration received from the control plane.
// A zero DiscardTimer means infinity.
type PDCPConfig struct {
	SNSizeUL        PDCPSNSize
	SNSizeDL        PDCPSNSize
	RLCMode         RLCMode
	DiscardTimer    time.Duration
	TReordering     time.Duration
	Reestablishment bool
}

type SDAPConfig struct {
	DefaultDRB bool
	SDAPHdrUL  bool
	SDAPHdrDL  bool
}

// PDCPCustomConfig holds the local PDCP settings selected by 5QI.
type PDCPCustomConfig struct {
	MaxNofCryptoWorkers int
	WarnOnDrop          bool
	TestMode            bool
}

type F1UConfig struct {
	WarnOnDrop bool
	QueueSize  uint32
	BatchSize  uint32
}

// QoSConfig is the static per-5QI profile.
type QoSConfig struct {
	PDCPCustom PDCPCustomConfig
	F1U        F1UConfig
}

// N3Config configures the NG-U side of every PDU session.
type N3Config struct {
	UPFPort      uint16
	IgnoreUEAMBR bool
	WarnOnDrop   bool
	TestMode     bool
}
