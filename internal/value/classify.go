// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"math"
	"reflect"

	"github.com/spf13/cast"

	"github.com/specialistvlad/energiago/internal/scale"
)

// Declarer describes the component an input comes from.
type Declarer struct {
	Component string
	// Natural is the level scalars are placed at. Nil means the horizon root.
	Natural *scale.Level
}

// Classify tags raw with its variability kind and temporal level. The first
// matching rule wins: parametric range, free marker, scalar, series,
// factor, bounded pair.
func Classify(raw any, h *scale.Hierarchy, d Declarer) (*Value, error) {
	c := classifier{h: h, d: d}
	if h == nil {
		return nil, c.fail(raw, "no temporal horizon declared", nil)
	}
	if d.Natural != nil && !h.Contains(d.Natural) {
		return nil, c.fail(raw, "natural level is not part of the horizon", scale.ErrIncomparableScale)
	}
	return c.classify(raw)
}

type classifier struct {
	h *scale.Hierarchy
	d Declarer
}

func (c classifier) natural() *scale.Level {
	if c.d.Natural != nil {
		return c.d.Natural
	}
	return c.h.Root()
}

func (c classifier) fail(raw any, reason string, err error) *ClassificationError {
	return &ClassificationError{Raw: raw, Component: c.d.Component, Reason: reason, Err: err}
}

func (c classifier) classify(raw any) (*Value, error) {
	switch r := raw.(type) {
	case Range:
		return c.parametric(r)
	case *Range:
		if r == nil {
			break
		}
		return c.parametric(*r)
	case bool:
		if r {
			return c.free(), nil
		}
		return nil, c.fail(raw, "false is not a value", nil)
	case UnboundedMarker, *UnboundedMarker:
		return c.free(), nil
	}

	if f, ok := scalar(raw); ok {
		if err := finite(f); err != "" {
			return nil, c.fail(raw, err, nil)
		}
		return &Value{Kind: KindExact, Level: c.natural(), Component: c.d.Component, Numbers: []float64{f}}, nil
	}
	if series, ok, reason := list(raw); ok || reason != "" {
		if reason != "" {
			return nil, c.fail(raw, reason, nil)
		}
		lvl, err := c.h.ResolveLevel(len(series))
		if err != nil {
			return nil, c.fail(raw, "series length matches no level", err)
		}
		return &Value{Kind: KindExact, Level: lvl, Component: c.d.Component, Numbers: series}, nil
	}

	switch r := raw.(type) {
	case Factor:
		return c.factor(r)
	case *Factor:
		if r != nil {
			return c.factor(*r)
		}
	case Bound:
		return c.bounded(r)
	case *Bound:
		if r != nil {
			return c.bounded(*r)
		}
	}

	if raw == nil {
		return nil, c.fail(raw, "nil input", nil)
	}
	return nil, c.fail(raw, "unsupported input type "+reflect.TypeOf(raw).String(), nil)
}

func (c classifier) free() *Value {
	return &Value{Kind: KindFree, Level: c.natural(), Component: c.d.Component}
}

func (c classifier) parametric(r Range) (*Value, error) {
	if msg := finite(r.Low); msg != "" {
		return nil, c.fail(r, "range low: "+msg, nil)
	}
	if msg := finite(r.High); msg != "" {
		return nil, c.fail(r, "range high: "+msg, nil)
	}
	if r.Low > r.High {
		return nil, c.fail(r, "range low exceeds high", nil)
	}
	return &Value{Kind: KindParametric, Level: c.natural(), Component: c.d.Component, Range: r}, nil
}

func (c classifier) factor(f Factor) (*Value, error) {
	if len(f.Multipliers) == 0 {
		return nil, c.fail(f, "factor has no multipliers", nil)
	}
	for _, m := range f.Multipliers {
		if msg := finite(m); msg != "" {
			return nil, c.fail(f, "multiplier: "+msg, nil)
		}
	}
	lvl, err := c.h.ResolveLevel(len(f.Multipliers))
	if err != nil {
		return nil, c.fail(f, "factor length matches no level", err)
	}

	v := &Value{Kind: KindFactor, Level: lvl, Component: c.d.Component, Multipliers: append([]float64(nil), f.Multipliers...)}
	switch n := f.Nominal.(type) {
	case string:
		if n == "" {
			return nil, c.fail(f, "empty nominal aspect", nil)
		}
		v.NominalAspect = n
	default:
		nominal, ok := scalar(n)
		if !ok {
			return nil, c.fail(f, "nominal must be a number or an aspect name", nil)
		}
		if msg := finite(nominal); msg != "" {
			return nil, c.fail(f, "nominal: "+msg, nil)
		}
		v.Nominal = nominal
	}
	return v, nil
}

func (c classifier) bounded(b Bound) (*Value, error) {
	lower, err := c.side(b, b.Lower)
	if err != nil {
		return nil, err
	}
	upper, err := c.side(b, b.Upper)
	if err != nil {
		return nil, err
	}
	if lower.IsFree() && upper.IsFree() {
		return c.free(), nil
	}

	v := &Value{Kind: KindBounded, Component: c.d.Component, Lower: lower, Upper: upper}
	switch {
	case lower.IsFree():
		v.Level = upper.Level
		return v, nil
	case upper.IsFree():
		v.Level = lower.Level
		return v, nil
	}

	v.Level = lower.Level
	if scale.Finer(upper.Level, lower.Level) {
		v.Level = upper.Level
	}
	for i := 0; i < v.Level.Size(); i++ {
		li, err := scale.Project(v.Level, i, lower.Level)
		if err != nil {
			return nil, c.fail(b, "bound sides are not comparable", err)
		}
		ui, err := scale.Project(v.Level, i, upper.Level)
		if err != nil {
			return nil, c.fail(b, "bound sides are not comparable", err)
		}
		if lower.At(li) > upper.At(ui) {
			return nil, c.fail(b, "lower bound exceeds upper bound", nil)
		}
	}
	return v, nil
}

// side classifies one end of a bound. Only exact and free are allowed.
func (c classifier) side(b Bound, raw any) (*Value, error) {
	switch raw.(type) {
	case nil:
		return c.free(), nil
	case Bound, *Bound:
		return nil, c.fail(b, "nested bound", nil)
	case Range, *Range, Factor, *Factor:
		return nil, c.fail(b, "bound sides must be exact or free", nil)
	}
	return c.classify(raw)
}

// scalar reports whether raw is a plain number. Strings and booleans are
// never coerced.
func scalar(raw any) (float64, bool) {
	if raw == nil {
		return 0, false
	}
	switch reflect.TypeOf(raw).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		return f, err == nil
	}
	return 0, false
}

// list decodes a homogeneous series of numbers. ok is false when raw is not
// a slice at all; reason is set when it is a slice but not a valid series.
func list(raw any) (series []float64, ok bool, reason string) {
	if raw == nil {
		return nil, false, ""
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false, ""
	}
	if rv.Len() == 0 {
		return nil, false, "empty series"
	}
	series = make([]float64, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		f, isNum := scalar(rv.Index(i).Interface())
		if !isNum {
			return nil, false, "series is not homogeneous numbers"
		}
		if msg := finite(f); msg != "" {
			return nil, false, "series entry: " + msg
		}
		series[i] = f
	}
	return series, true, ""
}

func finite(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN is not a value"
	case math.IsInf(f, 0):
		return "infinity is not a value, use an unbounded marker"
	}
	return ""
}
