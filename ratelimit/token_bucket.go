// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/nextmn/cu-up-bearers/metrics"
	"github.com/sirupsen/logrus"
)

// Config of a TokenBucket, tokens are bytes.
// A zero RefillPeriod disables the refill timer.
type Config struct {
	RefillTokens uint64
	MaxTokens    uint64
	RefillPeriod time.Duration
}

// GenerateConfig converts a rate and a burst size, both in bits per second,
// into a bucket refilled every period.
func GenerateConfig(rateBps uint64, burstBps uint64, period time.Duration) Config {
	ms := uint64(period.Milliseconds())
	return Config{
		RefillTokens: rateBps / 8 * ms / 1000,
		MaxTokens:    burstBps / 8 * ms / 1000,
		RefillPeriod: period,
	}
}

// TokenBucket is shared by every DRB of a UE. Consume is called from the
// downlink path and Refill from the timer goroutine.
type TokenBucket struct {
	cfg      Config
	tokens   atomic.Uint64
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	metrics  *metrics.Collectors
}

// NewTokenBucket creates a full TokenBucket and starts its refill timer.
func NewTokenBucket(cfg Config, m *metrics.Collectors) *TokenBucket {
	b := &TokenBucket{
		cfg:     cfg,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		metrics: m,
	}
	b.tokens.Store(cfg.MaxTokens)
	if cfg.RefillPeriod > 0 {
		b.start()
	} else {
		close(b.done)
	}
	return b
}

func (b *TokenBucket) start() {
	go func(b *TokenBucket) {
		defer close(b.done)
		ticker := time.NewTicker(b.cfg.RefillPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				b.Refill()
			case <-b.stop:
				return
			}
		}
	}(b)
}

// Consume takes n tokens. It returns false, taking nothing, when fewer
// than n tokens are available.
func (b *TokenBucket) Consume(n uint64) bool {
	for {
		cur := b.tokens.Load()
		if cur < n {
			b.metrics.AMBRDrop()
			return false
		}
		if b.tokens.CompareAndSwap(cur, cur-n) {
			return true
		}
	}
}

func (b *TokenBucket) Refill() {
	for {
		cur := b.tokens.Load()
		next := min(cur+b.cfg.RefillTokens, b.cfg.MaxTokens)
		if next == cur || b.tokens.CompareAndSwap(cur, next) {
			return
		}
	}
}

func (b *TokenBucket) Tokens() uint64 {
	return b.tokens.Load()
}

// Stop halts the refill timer and waits for it to exit.
func (b *TokenBucket) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		logrus.Trace("Token bucket refill timer stopped")
	})
	<-b.done
}
