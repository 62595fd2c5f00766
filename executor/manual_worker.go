// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package executor

import "sync"

// ManualWorker only runs tasks when asked to. It is meant for tests.
type ManualWorker struct {
	mu    sync.Mutex
	tasks []func()
}

func NewManualWorker() *ManualWorker {
	return &ManualWorker{tasks: make([]func(), 0)}
}

func (w *ManualWorker) Execute(task func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tasks = append(w.tasks, task)
	return true
}

func (w *ManualWorker) NofPendingTasks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.tasks)
}

// RunNextTask runs the oldest pending task, if any.
func (w *ManualWorker) RunNextTask() bool {
	w.mu.Lock()
	if len(w.tasks) == 0 {
		w.mu.Unlock()
		return false
	}
	task := w.tasks[0]
	w.tasks = w.tasks[1:]
	w.mu.Unlock()
	task()
	return true
}

// RunPendingTasks runs tasks until none is left, including the ones
// enqueued by the tasks themselves.
func (w *ManualWorker) RunPendingTasks() int {
	n := 0
	for w.RunNextTask() {
		n++
	}
	return n
}
