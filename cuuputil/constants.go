// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuuputil

import "time"

const (
	// TODO: detect MTU of the N3 interface instead
	DEFAULT_MTU = 1500

	// The UDP Destination Port number for GTP-U is 2152 (TS 29.281 4.4.2.3).
	GTPU_PORT = 2152

	// PDU Session ID is encoded on one octet (TS 24.007 11.2.3.1b).
	MAX_NUM_PDU_SESSIONS_PER_UE = 256
	MAX_NUM_DRBS_PER_UE         = 32

	DEMUX_QUEUE_SIZE = 8192
	DEMUX_BATCH_SIZE = 256

	// UE-AMBR token bucket refill period.
	UE_AMBR_REFILL_PERIOD = 100 * time.Millisecond

	DEFAULT_N3_TEID_POOL_SIZE  = 4096
	DEFAULT_F1U_TEID_POOL_SIZE = 4096
)
