// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package value classifies raw user inputs into tagged values the resolver
// can expand: exact numbers or series, bounded pairs, free values,
// time-series factors and parametric ranges.
package value

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/scale"
)

// Kind is the variability tag of a classified input.
type Kind int

const (
	KindExact Kind = iota
	KindBounded
	KindFree
	KindFactor
	KindParametric
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindBounded:
		return "bounded"
	case KindFree:
		return "free"
	case KindFactor:
		return "factor"
	case KindParametric:
		return "parametric"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is an immutable classified input.
type Value struct {
	Kind Kind
	// Level is the temporal level the value is indexed at. For bounded values
	// it is the finer of the two sides.
	Level     *scale.Level
	Component string

	// Numbers holds exact data: one entry to broadcast or one per index of Level.
	Numbers []float64

	// Lower and Upper are the sides of a bounded value, each exact or free.
	Lower *Value
	Upper *Value

	// Range is the interval of a parametric value.
	Range Range

	// Factor data. NominalAspect is set when the baseline is another
	// disposition; otherwise Nominal is the numeric baseline.
	Nominal       float64
	NominalAspect string
	Multipliers   []float64
}

// IsFree reports whether v is nil or free.
func (v *Value) IsFree() bool { return v == nil || v.Kind == KindFree }

// At returns the exact number at flat index i of Level, broadcasting a
// single entry. It panics when v is not exact.
func (v *Value) At(i int) float64 {
	if v.Kind != KindExact {
		panic(fmt.Sprintf("value: At on %s value", v.Kind))
	}
	if len(v.Numbers) == 1 {
		return v.Numbers[0]
	}
	return v.Numbers[i]
}

func (v *Value) String() string {
	if v == nil {
		return "<free>"
	}
	switch v.Kind {
	case KindExact:
		if len(v.Numbers) == 1 {
			return fmt.Sprintf("exact(%g)@%s", v.Numbers[0], v.Level)
		}
		return fmt.Sprintf("exact[%d]@%s", len(v.Numbers), v.Level)
	case KindBounded:
		return fmt.Sprintf("bounded(%s, %s)", v.Lower, v.Upper)
	case KindFree:
		return "free"
	case KindFactor:
		if v.NominalAspect != "" {
			return fmt.Sprintf("factor(%s x [%d])@%s", v.NominalAspect, len(v.Multipliers), v.Level)
		}
		return fmt.Sprintf("factor(%g x [%d])@%s", v.Nominal, len(v.Multipliers), v.Level)
	case KindParametric:
		return fmt.Sprintf("parametric[%g, %g]@%s", v.Range.Low, v.Range.High, v.Level)
	}
	return v.Kind.String()
}
