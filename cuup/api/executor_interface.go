// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package api

// TaskExecutorInterface runs tasks in the order they are pushed.
// Execute returns false when the task could not be enqueued.
type TaskExecutorInterface interface {
	Execute(task func()) bool
}
