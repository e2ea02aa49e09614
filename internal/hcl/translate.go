// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/ctxlog"
)

// defaultKey in an attribute object stands for the empty scope.
const defaultKey = "default"

// toRaw converts a cty value into an input of the value classifier.
func toRaw(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if m, ok := markerOf(v); ok {
		return m, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil
	case ty == cty.String:
		return v.AsString(), nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		return toSeries(v)
	}
	return nil, fmt.Errorf("unsupported value of type %s", ty.FriendlyName())
}

// toSeries converts a sequence of numbers into a []float64.
func toSeries(v cty.Value) ([]float64, error) {
	list, err := convert.Convert(v, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("expected a list of numbers: %w", err)
	}
	var out []float64
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// attribute evaluates a component input. Objects and maps are scoped by
// key; anything else applies to every scope.
func attribute(ctx context.Context, expr hcl.Expression, name string, evalCtx *hcl.EvalContext) (config.Attribute, error) {
	if !isExprDefined(ctx, expr, name) {
		return nil, nil
	}
	v, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, fmt.Errorf("attribute '%s': %w", name, diags)
	}
	if v.IsNull() {
		return nil, nil
	}

	ty := v.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		raw, err := toRaw(v)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute '%s' at %s: %w", ErrModel, name, expr.Range(), err)
		}
		return config.Attribute{"": raw}, nil
	}

	values := v.AsValueMap()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(config.Attribute, len(values))
	for _, k := range keys {
		raw, err := toRaw(values[k])
		if err != nil {
			return nil, fmt.Errorf("%w: attribute '%s.%s' at %s: %w", ErrModel, name, k, expr.Range(), err)
		}
		scope := k
		if k == defaultKey {
			scope = ""
		}
		out[scope] = raw
	}
	ctxlog.FromContext(ctx).Debug("Translated scoped attribute.", "attribute", name, "scopes", keys)
	return out, nil
}
