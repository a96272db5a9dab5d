// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OnlineModeVerify Contributors

package verify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Cache lookup outcomes used as metric labels.
const (
	LookupHit  = "hit"
	LookupMiss = "miss"
)

// Metrics records gate activity. A nil *Metrics records nothing.
type Metrics struct {
	DecisionsTotal        *prometheus.CounterVec
	CacheLookupsTotal     *prometheus.CounterVec
	OfflineShortcutsTotal prometheus.Counter
}

// NewMetrics creates the gate metrics and registers them with reg, together
// with a gauge reporting the size of cache.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer, cache *Cache) *Metrics {
	m := &Metrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onlinemodeverify_decisions_total",
				Help: "Total number of login decisions by result",
			},
			[]string{"result"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onlinemodeverify_cache_lookups_total",
				Help: "Total number of verification cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		OfflineShortcutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "onlinemodeverify_offline_shortcuts_total",
				Help: "Total number of cache misses resolved as offline identifiers without a remote lookup",
			},
		),
	}

	reg.MustRegister(m.DecisionsTotal)
	reg.MustRegister(m.CacheLookupsTotal)
	reg.MustRegister(m.OfflineShortcutsTotal)
	if cache != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "onlinemodeverify_cache_entries",
				Help: "Current number of cached verification outcomes",
			},
			func() float64 { return float64(cache.Len()) },
		))
	}

	return m
}

func (m *Metrics) recordDecision(r Result) {
	if m == nil {
		return
	}
	m.DecisionsTotal.WithLabelValues(r.String()).Inc()
}

func (m *Metrics) recordLookup(outcome string) {
	if m == nil {
		return
	}
	m.CacheLookupsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordOfflineShortcut() {
	if m == nil {
		return
	}
	m.OfflineShortcutsTotal.Inc()
}
