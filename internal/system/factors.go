// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"fmt"
	"slices"

	"github.com/spf13/cast"

	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/value"
)

// Factor scales the declared value of one (scope, component, aspect) by a
// time series. The series must match one level of the horizon.
type Factor struct {
	Scope       string
	Component   string
	Aspect      string
	Multipliers []float64
}

// ApplyFactors turns factors into pipeline overrides. A declared scalar
// becomes a factor value with the scalar as nominal; a declared series of
// the same length is multiplied elementwise.
func (s *System) ApplyFactors(factors ...Factor) ([]formulation.Override, error) {
	out := make([]formulation.Override, 0, len(factors))
	for _, f := range factors {
		if _, err := s.Horizon.ResolveLevel(len(f.Multipliers)); err != nil {
			return nil, fmt.Errorf("%w: %s.%s.%s: %w", ErrFactor, f.Scope, f.Component, f.Aspect, err)
		}
		c, ok := s.byName[f.Component]
		if !ok {
			return nil, fmt.Errorf("%w: unknown component '%s'", ErrFactor, f.Component)
		}
		raw, ok := c.raw(f.Aspect, f.Scope)
		if !ok || !slices.Contains(c.Sites(), f.Scope) {
			return nil, fmt.Errorf("%w: '%s' declares no %s at '%s'", ErrFactor, f.Component, f.Aspect, f.Scope)
		}
		scaled, err := scaleRaw(raw, f.Multipliers)
		if err != nil {
			return nil, fmt.Errorf("%w: %s.%s.%s: %w", ErrFactor, f.Scope, f.Component, f.Aspect, err)
		}
		out = append(out, formulation.Override{Component: f.Component, Aspect: f.Aspect, Scope: f.Scope, Raw: scaled})
	}
	return out, nil
}

func scaleRaw(raw any, m []float64) (any, error) {
	switch r := raw.(type) {
	case value.Factor:
		if len(r.Multipliers) != len(m) {
			return nil, fmt.Errorf("%d multipliers against a factor of %d", len(m), len(r.Multipliers))
		}
		scaled := make([]float64, len(m))
		for i := range m {
			scaled[i] = r.Multipliers[i] * m[i]
		}
		return value.Factor{Nominal: r.Nominal, Multipliers: scaled}, nil
	case []float64:
		if len(r) != len(m) {
			return nil, fmt.Errorf("%d multipliers against a series of %d", len(m), len(r))
		}
		scaled := make([]float64, len(m))
		for i := range m {
			scaled[i] = r[i] * m[i]
		}
		return scaled, nil
	case bool, string, nil:
		return nil, fmt.Errorf("cannot scale %T", raw)
	}
	n, err := cast.ToFloat64E(raw)
	if err != nil {
		return nil, fmt.Errorf("cannot scale %T", raw)
	}
	return value.Factor{Nominal: n, Multipliers: append([]float64(nil), m...)}, nil
}
