// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package formulation

import "time"

// Recorder receives pipeline measurements. The metrics package provides the
// Prometheus implementation.
type Recorder interface {
	ObserveDisposition(kind string, override bool)
	ObserveConstraints(rule string, n int)
	ObserveStage(stage string, d time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveDisposition(string, bool)    {}
func (noopRecorder) ObserveConstraints(string, int)     {}
func (noopRecorder) ObserveStage(string, time.Duration) {}

// Override replaces the raw input of an already declared disposition.
type Override struct {
	Component string
	Aspect    string
	Scope     string
	Raw       any
}

// Patch replaces one flat index of a resolved exact disposition.
type Patch struct {
	Component string
	Aspect    string
	Scope     string
	Flat      int
	Value     float64
}

type options struct {
	name      string
	bigM      float64
	recorder  Recorder
	overrides []Override
	patches   []Patch
	fixed     map[string]float64
}

// Option configures a Pipeline.
type Option func(*options)

// WithName names the formulation.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithBigM sets the constant free values are realised as.
func WithBigM(m float64) Option {
	return func(o *options) { o.bigM = m }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithOverrides replaces declared raw inputs when resolving.
func WithOverrides(ovs ...Override) Option {
	return func(o *options) { o.overrides = append(o.overrides, ovs...) }
}

// WithPatches overrides single indices after resolving.
func WithPatches(ps ...Patch) Option {
	return func(o *options) { o.patches = append(o.patches, ps...) }
}

// WithFixed pins variables, by name, to values.
func WithFixed(values map[string]float64) Option {
	return func(o *options) {
		if o.fixed == nil {
			o.fixed = make(map[string]float64, len(values))
		}
		for k, v := range values {
			o.fixed[k] = v
		}
	}
}
