// Package stats tracks and exposes runtime counters and latencies:
// connection gauges, admission/throttle denial counters, buffer-pool miss
// counters, and dispatch-stage latency histograms. Registered metric
// objects are long-lived, updated in place — no per-sample allocation on
// the hot path, matching the teacher's own stats.Tracker update()
// discipline of mutating a pre-registered entry rather than re-creating it.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nalix-net/nalix/dispatch"
	"github.com/nalix-net/nalix/memsys"
)

// Tracker is the runtime's metric registry. One Tracker is created per
// process and threaded into the components that report through it.
type Tracker struct {
	registry *prometheus.Registry

	connectionsActive prometheus.Gauge
	connectionsTotal  prometheus.Counter

	throttleDenials  *prometheus.CounterVec
	admissionDenials prometheus.Counter

	bufferMisses *prometheus.GaugeVec
	bufferFree   *prometheus.GaugeVec

	stageLatency *prometheus.HistogramVec
}

// NewTracker builds a Tracker with all metrics registered against a fresh
// prometheus.Registry, returned so the caller can mount it behind
// promhttp.HandlerFor.
func NewTracker() *Tracker {
	t := &Tracker{
		registry: prometheus.NewRegistry(),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "nalix",
			Name:      "connections_active",
			Help:      "Number of currently open connections.",
		}),
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nalix",
			Name:      "connections_total",
			Help:      "Total connections accepted since process start.",
		}),
		throttleDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nalix",
			Name:      "throttle_denials_total",
			Help:      "Requests denied by the token bucket, by remote key.",
		}, []string{"key"}),
		admissionDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nalix",
			Name:      "admission_denials_total",
			Help:      "Connections denied by the per-IP admission table.",
		}),
		bufferMisses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nalix",
			Name:      "buffer_pool_misses",
			Help:      "Cumulative rent misses per buffer size class.",
		}, []string{"class"}),
		bufferFree: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nalix",
			Name:      "buffer_pool_free",
			Help:      "Free buffers currently held per size class.",
		}, []string{"class"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "nalix",
			Name:      "dispatch_stage_latency_seconds",
			Help:      "Dispatch pipeline stage latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	t.registry.MustRegister(
		t.connectionsActive,
		t.connectionsTotal,
		t.throttleDenials,
		t.admissionDenials,
		t.bufferMisses,
		t.bufferFree,
		t.stageLatency,
	)
	return t
}

// Registry exposes the underlying prometheus.Registry for mounting behind
// an HTTP handler.
func (t *Tracker) Registry() *prometheus.Registry { return t.registry }

func (t *Tracker) ConnectionOpened() {
	t.connectionsActive.Inc()
	t.connectionsTotal.Inc()
}

func (t *Tracker) ConnectionClosed() { t.connectionsActive.Dec() }

func (t *Tracker) ThrottleDenied(key string) { t.throttleDenials.WithLabelValues(key).Inc() }

func (t *Tracker) AdmissionDenied() { t.admissionDenials.Inc() }

// SampleBufferPool snapshots a memsys.BufferPool's per-class stats into the
// miss and free gauges. Intended to be called periodically (e.g. from an
// hk.Reg job) rather than on every Rent/Return.
func (t *Tracker) SampleBufferPool(pool *memsys.BufferPool) {
	for _, cs := range pool.Stats() {
		label := classLabel(cs.Size)
		t.bufferMisses.WithLabelValues(label).Set(float64(cs.Misses))
		t.bufferFree.WithLabelValues(label).Set(float64(cs.Free))
	}
}

// ObserveStage records how long one dispatch Stage took to run.
func (t *Tracker) ObserveStage(stage dispatch.Stage, seconds float64) {
	t.stageLatency.WithLabelValues(stage.String()).Observe(seconds)
}

func classLabel(size int) string { return strconv.Itoa(size) }
