// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package gtpu

import (
	"sync"

	"github.com/nextmn/cu-up-bearers/cuup/api"
	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrTEIDPoolExhausted = errors.New("TEID pool exhausted")

// TEIDPool allocates TEIDs in the range [1, size].
// TEIDs are handed out round-robin, so a released TEID is reused last.
type TEIDPool struct {
	name         string
	allocated    []bool // allocated[teid-1]
	nofAllocated int
	next         int
	mu           sync.Mutex
	metrics      *metrics.Collectors
}

// NewTEIDPool creates a TEIDPool, metrics may be nil.
func NewTEIDPool(name string, size uint32, m *metrics.Collectors) *TEIDPool {
	return &TEIDPool{
		name:      name,
		allocated: make([]bool, size),
		mu:        sync.Mutex{},
		metrics:   m,
	}
}

func (pool *TEIDPool) Name() string {
	return pool.name
}

// RequestTEID returns the next free TEID
func (pool *TEIDPool) RequestTEID() (api.TEID, error) {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	size := len(pool.allocated)
	if pool.nofAllocated >= size {
		return 0, errors.Wrapf(ErrTEIDPoolExhausted, "pool %s (size %d)", pool.name, size)
	}
	for i := 0; i < size; i++ {
		idx := (pool.next + i) % size
		if pool.allocated[idx] {
			continue
		}
		pool.allocated[idx] = true
		pool.nofAllocated++
		pool.next = (idx + 1) % size
		pool.metrics.SetTEIDsAllocated(pool.name, pool.nofAllocated)
		teid := api.TEID(idx + 1)
		logrus.WithFields(logrus.Fields{"pool": pool.name, "teid": teid}).Trace("Allocated TEID")
		return teid, nil
	}
	// unreachable while nofAllocated is consistent
	return 0, errors.Wrapf(ErrTEIDPoolExhausted, "pool %s (size %d)", pool.name, size)
}

// ReleaseTEID returns teid to the pool. It returns false if teid was not allocated.
func (pool *TEIDPool) ReleaseTEID(teid api.TEID) bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	if teid == 0 || int(teid) > len(pool.allocated) || !pool.allocated[teid-1] {
		logrus.WithFields(logrus.Fields{"pool": pool.name, "teid": teid}).Error("Releasing a TEID that is not allocated")
		return false
	}
	pool.allocated[teid-1] = false
	pool.nofAllocated--
	pool.metrics.SetTEIDsAllocated(pool.name, pool.nofAllocated)
	logrus.WithFields(logrus.Fields{"pool": pool.name, "teid": teid}).Trace("Released TEID")
	return true
}

func (pool *TEIDPool) NofAllocated() int {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.nofAllocated
}

func (pool *TEIDPool) Full() bool {
	pool.mu.Lock()
	defer pool.mu.Unlock()
	return pool.nofAllocated >= len(pool.allocated)
}
