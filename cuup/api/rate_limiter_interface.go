// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

// RateLimiterInterface is consumed by the downlink path, one call per SDU.
type RateLimiterInterface interface {
	Consume(bytes uint64) bool
	Stop()
}
