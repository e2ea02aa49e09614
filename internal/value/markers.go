// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

// Range marks a parametric input: a symbol free to take any value in
// [Low, High] during multiparametric analysis.
type Range struct {
	Low  float64
	High float64
}

// UnboundedMarker is the type of Unbounded.
type UnboundedMarker struct{}

// Unbounded marks a free input. Boolean true means the same.
var Unbounded = UnboundedMarker{}

// Bound is a (lower, upper) pair. Each side is a scalar, a series, nil,
// true or Unbounded; nil and true leave that side free.
type Bound struct {
	Lower any
	Upper any
}

// Factor is a time-series multiplier applied to a nominal value. Nominal is
// either a number or the name of another aspect of the same component whose
// resolved quantity is the baseline (e.g. "capacity").
type Factor struct {
	Nominal     any
	Multipliers []float64
}
