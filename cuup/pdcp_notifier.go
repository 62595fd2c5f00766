// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package cuup

import (
	"github.com/sirupsen/logrus"
)

// pdcpControlNotifier logs the PDCP failures of one DRB.
// TODO: request a bearer context release from the CU-CP on protocol failures
type pdcpControlNotifier struct {
	log *logrus.Entry
}

func (n *pdcpControlNotifier) entry() *logrus.Entry {
	if n.log == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return n.log
}

func (n *pdcpControlNotifier) OnProtocolFailure() {
	n.entry().Warn("PDCP protocol failure")
}

func (n *pdcpControlNotifier) OnIntegrityFailure() {
	n.entry().Warn("PDCP integrity failure")
}

func (n *pdcpControlNotifier) OnMaxCountReached() {
	n.entry().Warn("PDCP max COUNT reached")
}
