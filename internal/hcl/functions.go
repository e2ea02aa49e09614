// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/specialistvlad/energiago/internal/value"
)

// markerType carries classifier markers through cty as opaque Go values.
var markerType = cty.Capsule("marker", reflect.TypeOf((*any)(nil)).Elem())

func markerVal(v any) cty.Value {
	return cty.CapsuleVal(markerType, &v)
}

func markerOf(v cty.Value) (any, bool) {
	if v.Type() != markerType {
		return nil, false
	}
	return *(v.EncapsulatedValue().(*any)), true
}

var rangeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "low", Type: cty.Number},
		{Name: "high", Type: cty.Number},
	},
	Type: function.StaticReturnType(markerType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		lo, _ := args[0].AsBigFloat().Float64()
		hi, _ := args[1].AsBigFloat().Float64()
		if lo > hi {
			return cty.NilVal, fmt.Errorf("range low %g is above high %g", lo, hi)
		}
		return markerVal(value.Range{Low: lo, High: hi}), nil
	},
})

var unboundedFunc = function.New(&function.Spec{
	Type: function.StaticReturnType(markerType),
	Impl: func([]cty.Value, cty.Type) (cty.Value, error) {
		return markerVal(value.Unbounded), nil
	},
})

var boundFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		// A literal null has dynamic type; without AllowDynamicType the call
		// short-circuits to an unknown result.
		{Name: "lower", Type: cty.DynamicPseudoType, AllowNull: true, AllowDynamicType: true},
		{Name: "upper", Type: cty.DynamicPseudoType, AllowNull: true, AllowDynamicType: true},
	},
	Type: function.StaticReturnType(markerType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		lower, err := toRaw(args[0])
		if err != nil {
			return cty.NilVal, fmt.Errorf("lower: %w", err)
		}
		upper, err := toRaw(args[1])
		if err != nil {
			return cty.NilVal, fmt.Errorf("upper: %w", err)
		}
		return markerVal(value.Bound{Lower: lower, Upper: upper}), nil
	},
})

var factorFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "nominal", Type: cty.DynamicPseudoType, AllowDynamicType: true},
		{Name: "multipliers", Type: cty.List(cty.Number)},
	},
	Type: function.StaticReturnType(markerType),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		nominal, err := toRaw(args[0])
		if err != nil {
			return cty.NilVal, fmt.Errorf("nominal: %w", err)
		}
		switch nominal.(type) {
		case float64, string:
		default:
			return cty.NilVal, fmt.Errorf("nominal must be a number or an aspect name")
		}
		multipliers, err := toSeries(args[1])
		if err != nil {
			return cty.NilVal, fmt.Errorf("multipliers: %w", err)
		}
		return markerVal(value.Factor{Nominal: nominal, Multipliers: multipliers}), nil
	},
})

// evalContext exposes the marker functions and, once parameters are
// evaluated, the `param` namespace.
func evalContext(params map[string]cty.Value) *hcl.EvalContext {
	ctx := &hcl.EvalContext{
		Functions: map[string]function.Function{
			"range":     rangeFunc,
			"unbounded": unboundedFunc,
			"bound":     boundFunc,
			"factor":    factorFunc,
		},
	}
	if len(params) > 0 {
		ctx.Variables = map[string]cty.Value{"param": cty.ObjectVal(params)}
	}
	return ctx
}
