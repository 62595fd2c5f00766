// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"fmt"

	"github.com/nextmn/cu-up-bearers/cuuputil"
)

type DemuxConfig struct {
	WarnOnDrop bool   `yaml:"warn-on-drop"`
	TestMode   bool   `yaml:"test-mode"`
	QueueSize  uint32 `yaml:"queue-size"`
	BatchSize  uint32 `yaml:"batch-size"`
}

// NewDemuxConfig creates a DemuxConfig with default settings.
func NewDemuxConfig() DemuxConfig {
	return DemuxConfig{
		QueueSize: cuuputil.DEMUX_QUEUE_SIZE,
		BatchSize: cuuputil.DEMUX_BATCH_SIZE,
	}
}

func (c DemuxConfig) Validate() error {
	if c.QueueSize == 0 {
		return fmt.Errorf("queue-size must be strictly greater than zero")
	}
	if c.BatchSize == 0 {
		return fmt.Errorf("batch-size must be strictly greater than zero")
	}
	return nil
}
