// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

// Package metrics exposes the CU-UP bearer counters to Prometheus.
// Every method accepts a nil *Collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cuup"

// Drop reasons of the GTP-U demultiplexer.
const (
	DropUnknownTEID     = "unknown_teid"
	DropQueueFull       = "queue_full"
	DropMalformed       = "malformed"
	DropStopped         = "stopped"
	DropRemovedInFlight = "removed_in_flight"
)

type Collectors struct {
	teidsAllocated *prometheus.GaugeVec
	pdusReceived   prometheus.Counter
	pduDrops       *prometheus.CounterVec
	tunnels        prometheus.Gauge
	pduSessions    prometheus.Gauge
	drbs           prometheus.Gauge
	itemFailures   *prometheus.CounterVec
	ambrDrops      prometheus.Counter
}

// NewCollectors creates the collectors and registers them on reg.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	c := &Collectors{
		teidsAllocated: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "teids_allocated",
				Help:      "Number of TEIDs currently allocated from a pool",
			},
			[]string{"pool"},
		),
		pdusReceived: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gtpu_demux_pdus_total",
				Help:      "Total number of GTP-U PDUs handled by the demultiplexer",
			},
		),
		pduDrops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gtpu_demux_drops_total",
				Help:      "Total number of GTP-U PDUs dropped by the demultiplexer",
			},
			[]string{"reason"},
		),
		tunnels: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "gtpu_demux_tunnels",
				Help:      "Number of tunnels registered at the demultiplexer",
			},
		),
		pduSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pdu_sessions",
				Help:      "Number of active PDU sessions",
			},
		),
		drbs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "drbs",
				Help:      "Number of active DRBs",
			},
		),
		itemFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bearer_item_failures_total",
				Help:      "Total number of failed PDU session, DRB and QoS flow items",
			},
			[]string{"item", "cause"},
		),
		ambrDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ue_ambr_drops_total",
				Help:      "Total number of downlink SDUs dropped by UE-AMBR enforcement",
			},
		),
	}
	for _, col := range []prometheus.Collector{
		c.teidsAllocated, c.pdusReceived, c.pduDrops, c.tunnels,
		c.pduSessions, c.drbs, c.itemFailures, c.ambrDrops,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collectors) SetTEIDsAllocated(pool string, n int) {
	if c == nil {
		return
	}
	c.teidsAllocated.WithLabelValues(pool).Set(float64(n))
}

func (c *Collectors) PDUReceived() {
	if c == nil {
		return
	}
	c.pdusReceived.Inc()
}

func (c *Collectors) PDUDropped(reason string) {
	if c == nil {
		return
	}
	c.pduDrops.WithLabelValues(reason).Inc()
}

func (c *Collectors) SetTunnels(n int) {
	if c == nil {
		return
	}
	c.tunnels.Set(float64(n))
}

func (c *Collectors) AddPDUSessions(delta int) {
	if c == nil {
		return
	}
	c.pduSessions.Add(float64(delta))
}

func (c *Collectors) AddDRBs(delta int) {
	if c == nil {
		return
	}
	c.drbs.Add(float64(delta))
}

// ItemFailed counts a failed item, item being "pdu-session", "drb" or "qos-flow".
func (c *Collectors) ItemFailed(item string, cause string) {
	if c == nil {
		return
	}
	c.itemFailures.WithLabelValues(item, cause).Inc()
}

func (c *Collectors) AMBRDrop() {
	if c == nil {
		return
	}
	c.ambrDrops.Inc()
}
