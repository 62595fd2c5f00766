// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package passthrough provides minimal protocol entities and UDP gateways
// for the bearer contexts of a CU-UP. SDAP, PDCP and F1-U forward data
// without headers, ciphering or reordering; the NG-U tunnel and the F1-U
// gateway speak GTP-U.
package passthrough
