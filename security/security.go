// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package security holds the AS security material handed to PDCP entities.
// Algorithms themselves live in the PDCP implementation.
package security

import "fmt"

type Key = [32]byte
type Key128 = [16]byte

type IntegrityAlgorithm uint8

const (
	NIA0 IntegrityAlgorithm = iota
	NIA1
	NIA2
	NIA3
)

type CipheringAlgorithm uint8

const (
	NEA0 CipheringAlgorithm = iota
	NEA1
	NEA2
	NEA3
)

func (a IntegrityAlgorithm) String() string {
	return fmt.Sprintf("nia%d", uint8(a))
}

func (a CipheringAlgorithm) String() string {
	return fmt.Sprintf("nea%d", uint8(a))
}

// ASConfig is the user plane AS security configuration of a UE.
// IntegrityAlgorithm is nil when integrity protection was not negotiated.
type ASConfig struct {
	KInt               *Key
	KEnc               Key
	IntegrityAlgorithm *IntegrityAlgorithm
	CipheringAlgorithm CipheringAlgorithm
}

// AS128Config is an ASConfig with keys truncated to 128 bits.
type AS128Config struct {
	KInt               *Key128
	KEnc               Key128
	IntegrityAlgorithm *IntegrityAlgorithm
	CipheringAlgorithm CipheringAlgorithm
}

// Truncate keeps the 128 least significant bits of a 256-bit key (TS 33.501 A.8).
func Truncate(k Key) Key128 {
	var t Key128
	copy(t[:], k[16:])
	return t
}

// Truncate128 returns a copy of cfg with both keys truncated.
func (cfg ASConfig) Truncate128() AS128Config {
	out := AS128Config{
		KEnc:               Truncate(cfg.KEnc),
		CipheringAlgorithm: cfg.CipheringAlgorithm,
	}
	if cfg.KInt != nil {
		k := Truncate(*cfg.KInt)
		out.KInt = &k
	}
	if cfg.IntegrityAlgorithm != nil {
		a := *cfg.IntegrityAlgorithm
		out.IntegrityAlgorithm = &a
	}
	return out
}

type IntegrityEnabled bool
type CipheringEnabled bool

const (
	IntegrityOff IntegrityEnabled = false
	IntegrityOn  IntegrityEnabled = true
	CipheringOff CipheringEnabled = false
	CipheringOn  CipheringEnabled = true
)
