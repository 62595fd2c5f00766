// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package passthrough

import (
	"github.com/nextmn/cu-up-bearers/cuup/api"
)

// Factory creates passthrough entities.
type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) CreateSDAPEntity(msg api.SDAPEntityCreationMessage) (api.SDAPEntityInterface, error) {
	return NewSDAPEntity(msg), nil
}

func (f *Factory) CreatePDCPEntity(msg api.PDCPEntityCreationMessage) (api.PDCPEntityInterface, error) {
	return NewPDCPEntity(msg), nil
}

func (f *Factory) CreateF1UBearer(msg api.F1UBearerCreationMessage) (api.F1UBearerInterface, error) {
	return NewF1UBearer(msg), nil
}

func (f *Factory) CreateGTPUTunnel(msg api.GTPUTunnelCreationMessage) (api.GTPUTunnelNGUInterface, error) {
	return NewGTPUTunnel(msg), nil
}
