// SPDX-License-Identifier: MPL-2.0

// Package metrics exposes Prometheus collectors for bootstrap and lookup
// activity. A nil *Collector is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeResolved counts lookups that produced a component.
	OutcomeResolved = "resolved"
	// OutcomeAbsent counts optional lookups with no candidate.
	OutcomeAbsent = "absent"
	// OutcomeUnresolved counts required lookups with no candidate.
	OutcomeUnresolved = "unresolved"
	// OutcomeAmbiguous counts lookups that could not pick one candidate.
	OutcomeAmbiguous = "ambiguous"
	// OutcomeError counts lookups that failed while building a component.
	OutcomeError = "error"
)

// Collector records bootstrap metrics.
type Collector struct {
	registry *prometheus.Registry

	moduleDuration *prometheus.HistogramVec
	moduleFailures *prometheus.CounterVec
	lookups        *prometheus.CounterVec
	activeModules  prometheus.Gauge
	exposed        prometheus.Gauge
	lockWait       prometheus.Histogram
}

// NewCollector creates a collector with its own registry. An empty namespace
// defaults to "bootkit".
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "bootkit"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.moduleDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "module",
			Name:      "bootstrap_duration_seconds",
			Help:      "Time taken to bootstrap a module",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		},
		[]string{"module", "result"},
	)

	c.moduleFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "module",
			Name:      "failures_total",
			Help:      "Total number of module bootstrap failures by phase",
		},
		[]string{"module", "phase"},
	)

	c.lookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "lookups_total",
			Help:      "Total number of component lookups by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	c.activeModules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "active_modules",
			Help:      "Number of module containers currently registered",
		},
	)

	c.exposed = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "exposed_components",
			Help:      "Number of descriptors visible in the root scope",
		},
	)

	c.lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "lock",
			Name:      "acquire_duration_seconds",
			Help:      "Time spent waiting for the bootstrap lock",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 16),
		},
	)

	c.registry.MustRegister(
		c.moduleDuration,
		c.moduleFailures,
		c.lookups,
		c.activeModules,
		c.exposed,
		c.lockWait,
	)

	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RecordModuleBootstrap records how long a module took to bootstrap.
func (c *Collector) RecordModuleBootstrap(module string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	c.moduleDuration.WithLabelValues(module, result).Observe(duration.Seconds())
}

// RecordModuleFailure counts a failure of module in phase.
func (c *Collector) RecordModuleFailure(module, phase string) {
	if c == nil {
		return
	}
	c.moduleFailures.WithLabelValues(module, phase).Inc()
}

// RecordLookup counts one lookup.
func (c *Collector) RecordLookup(kind, outcome string) {
	if c == nil {
		return
	}
	c.lookups.WithLabelValues(kind, outcome).Inc()
}

// SetActiveModules sets the number of registered containers.
func (c *Collector) SetActiveModules(n int) {
	if c == nil {
		return
	}
	c.activeModules.Set(float64(n))
}

// SetExposed sets the number of root-scope descriptors.
func (c *Collector) SetExposed(n int) {
	if c == nil {
		return
	}
	c.exposed.Set(float64(n))
}

// RecordLockWait records time spent acquiring the bootstrap lock.
func (c *Collector) RecordLockWait(duration time.Duration) {
	if c == nil {
		return
	}
	c.lockWait.Observe(duration.Seconds())
}
