// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

type TEIDPoolInterface interface {
	RequestTEID() (TEID, error)
	ReleaseTEID(teid TEID) bool
}
