// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package e1ap

// ProtectionIndication is the per-session integrity or confidentiality
// protection indication (TS 38.463 9.3.1.23).
type ProtectionIndication uint8

const (
	ProtectionRequired ProtectionIndication = iota
	ProtectionPreferred
	ProtectionNotNeeded
)

func (p ProtectionIndication) String() string {
	switch p {
	case ProtectionRequired:
		return "required"
	case ProtectionPreferred:
		return "preferred"
	case ProtectionNotNeeded:
		return "not-needed"
	}
	return "invalid"
}

type SecurityIndication struct {
	IntegrityProtection       ProtectionIndication
	ConfidentialityProtection ProtectionIndication
	MaximumIPDatarate         *uint64
}

type ProtectionResult uint8

const (
	ProtectionPerformed ProtectionResult = iota
	ProtectionNotPerformed
)

func (r ProtectionResult) String() string {
	if r == ProtectionPerformed {
		return "performed"
	}
	return "not-performed"
}

type SecurityResult struct {
	IntegrityProtection       ProtectionResult
	ConfidentialityProtection ProtectionResult
}

// NewSecurityResult builds the security result of a PDU session setup.
// A result is only reported when one of the indications is preferred (TS 38.463 8.3.1.2).
func NewSecurityResult(ind SecurityIndication) *SecurityResult {
	if ind.IntegrityProtection != ProtectionPreferred && ind.ConfidentialityProtection != ProtectionPreferred {
		return nil
	}
	res := &SecurityResult{
		IntegrityProtection:       ProtectionPerformed,
		ConfidentialityProtection: ProtectionPerformed,
	}
	if ind.IntegrityProtection == ProtectionNotNeeded {
		res.IntegrityProtection = ProtectionNotPerformed
	}
	if ind.ConfidentialityProtection == ProtectionNotNeeded {
		res.ConfidentialityProtection = ProtectionNotPerformed
	}
	return res
}
