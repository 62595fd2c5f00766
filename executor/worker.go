// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package executor

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Worker runs tasks one at a time on its own goroutine.
type Worker struct {
	name    string
	tasks   chan func()
	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
}

// NewWorker creates and starts a Worker able to hold queueSize pending tasks.
func NewWorker(name string, queueSize int) *Worker {
	w := &Worker{
		name:  name,
		tasks: make(chan func(), queueSize),
		done:  make(chan struct{}),
	}
	w.start()
	return w
}

func (w *Worker) start() {
	go func(w *Worker) {
		defer close(w.done)
		for task := range w.tasks {
			task()
		}
	}(w)
}

func (w *Worker) Name() string {
	return w.name
}

// Execute enqueues a task, without blocking.
func (w *Worker) Execute(task func()) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.stopped {
		return false
	}
	select {
	case w.tasks <- task:
		return true
	default:
		logrus.WithFields(logrus.Fields{"worker": w.name}).Warn("Task queue is full")
		return false
	}
}

// Stop runs the tasks already enqueued and waits for the worker to exit.
func (w *Worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.tasks)
	w.mu.Unlock()
	<-w.done
}
