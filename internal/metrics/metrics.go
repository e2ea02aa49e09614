// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package metrics records pipeline and solve measurements in Prometheus
// collectors held on a private registry.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/solver"
)

const namespace = "energiago"

var (
	_ formulation.Recorder = (*Recorder)(nil)
	_ solver.Observer      = (*Recorder)(nil)
)

// Recorder implements formulation.Recorder and solver.Observer. A nil
// Recorder discards everything.
type Recorder struct {
	registry     *prometheus.Registry
	dispositions *prometheus.CounterVec
	constraints  *prometheus.CounterVec
	stages       *prometheus.HistogramVec
	solves       *prometheus.CounterVec
	solveTime    *prometheus.HistogramVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		dispositions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "formulation",
				Name:      "dispositions_total",
				Help:      "Dispositions resolved, by value kind and whether they were overridden.",
			},
			[]string{"kind", "override"},
		),
		constraints: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "formulation",
				Name:      "constraints_total",
				Help:      "Constraints generated, by rule.",
			},
			[]string{"rule"},
		),
		stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "formulation",
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each pipeline stage.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs to ~26s
			},
			[]string{"stage"},
		),
		solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "solver",
				Name:      "solves_total",
				Help:      "Solves, by solver and normalised status.",
			},
			[]string{"solver", "status"},
		),
		solveTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "solver",
				Name:      "solve_duration_seconds",
				Help:      "Solve wall time in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
			},
			[]string{"solver"},
		),
	}
	r.registry.MustRegister(r.dispositions, r.constraints, r.stages, r.solves, r.solveTime)
	return r
}

// Registry exposes the underlying registry, for tests and HTTP handlers.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) ObserveDisposition(kind string, override bool) {
	if r == nil {
		return
	}
	r.dispositions.WithLabelValues(kind, strconv.FormatBool(override)).Inc()
}

func (r *Recorder) ObserveConstraints(rule string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.constraints.WithLabelValues(rule).Add(float64(n))
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stages.WithLabelValues(stage).Observe(d.Seconds())
}

func (r *Recorder) ObserveSolve(name, status string, d time.Duration) {
	if r == nil {
		return
	}
	r.solves.WithLabelValues(name, status).Inc()
	r.solveTime.WithLabelValues(name).Observe(d.Seconds())
}

// WriteTextfile writes every collected metric in the text exposition format,
// for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
