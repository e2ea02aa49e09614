// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package resolve expands classified values into indexed parameters and
// decision variables keyed by disposition.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
	"github.com/specialistvlad/energiago/internal/value"
)

// DefaultBigM realises free values.
const DefaultBigM = 1e6

// variableAspects are the aspects that carry a decision variable.
var variableAspects = map[string]program.Domain{
	"capacity":  program.Continuous,
	"operate":   program.Continuous,
	"consume":   program.Continuous,
	"release":   program.Continuous,
	"inventory": program.Continuous,
	"charge":    program.Continuous,
	"discharge": program.Continuous,
	"flow":      program.Continuous,
	"unmet":     program.Continuous,
	"build":     program.Binary,
}

// VariableDomain reports whether aspect carries a decision variable and its domain.
func VariableDomain(aspect string) (program.Domain, bool) {
	d, ok := variableAspects[aspect]
	return d, ok
}

// Resolver materialises dispositions against one horizon and scope forest.
type Resolver struct {
	horizon *scale.Hierarchy
	forest  *scope.Forest
	reg     *Registry
	bigM    float64
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithBigM sets the constant free values are realised as.
func WithBigM(m float64) Option {
	return func(r *Resolver) {
		if m > 0 {
			r.bigM = m
		}
	}
}

// New creates a resolver with an empty registry.
func New(h *scale.Hierarchy, f *scope.Forest, opts ...Option) *Resolver {
	r := &Resolver{horizon: h, forest: f, reg: NewRegistry(), bigM: DefaultBigM}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry the resolver writes into.
func (r *Resolver) Registry() *Registry { return r.reg }

// Horizon returns the temporal hierarchy.
func (r *Resolver) Horizon() *scale.Hierarchy { return r.horizon }

// Forest returns the scope forest.
func (r *Resolver) Forest() *scope.Forest { return r.forest }

// BigM returns the free-value constant.
func (r *Resolver) BigM() float64 { return r.bigM }

// Result is what one Resolve call materialised.
type Result struct {
	Key        disposition.Key
	Parameters []*program.Parameter
	Variables  []*program.Variable
}

type resolveConfig struct {
	override   bool
	varLevel   *scale.Level
	domain     *program.Domain
	noVariable bool
}

// ResolveOption adjusts a single Resolve call.
type ResolveOption func(*resolveConfig)

// Override lets the call replace an already resolved disposition.
func Override() ResolveOption {
	return func(c *resolveConfig) { c.override = true }
}

// VariableAt creates the aspect's variable at lvl instead of the value's level.
func VariableAt(lvl *scale.Level) ResolveOption {
	return func(c *resolveConfig) { c.varLevel = lvl }
}

// WithDomain forces the domain of the aspect's variable.
func WithDomain(d program.Domain) ResolveOption {
	return func(c *resolveConfig) { c.domain = &d }
}

// ParameterOnly skips creating a variable even for variable aspects.
func ParameterOnly() ResolveOption {
	return func(c *resolveConfig) { c.noVariable = true }
}

// Resolve materialises v as the parameters of (component, aspect, scope) at
// v's level, and the aspect's decision variable the first time it is seen.
func (r *Resolver) Resolve(ctx context.Context, component, aspect, scopeName string, v *value.Value, opts ...ResolveOption) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	cfg := &resolveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if v == nil {
		return nil, fmt.Errorf("resolve: nil value for %s.%s@%s", component, aspect, scopeName)
	}
	if _, ok := r.forest.Lookup(scopeName); !ok {
		return nil, fmt.Errorf("resolve: %s.%s: %w: '%s'", component, aspect, scope.ErrUnknownScope, scopeName)
	}
	if !r.horizon.Contains(v.Level) {
		return nil, fmt.Errorf("resolve: %s.%s@%s: %w", component, aspect, scopeName, scale.ErrIncomparableScale)
	}

	key := disposition.New(component, aspect, scopeName, v.Level)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	existing, exists := r.reg.paramFamily[key.Family()]
	if exists && !cfg.override {
		return nil, &CollisionError{Key: key, Existing: existing}
	}

	params, err := r.materialize(ctx, key, v)
	if err != nil {
		return nil, fmt.Errorf("resolve: %s: %w", key, err)
	}

	// The variable goes first so a conflict leaves the registry untouched.
	res := &Result{Key: key, Parameters: params}
	if dom, ok := VariableDomain(aspect); ok && !cfg.noVariable {
		if cfg.domain != nil {
			dom = *cfg.domain
		}
		lvl := v.Level
		if cfg.varLevel != nil {
			lvl = cfg.varLevel
		}
		vars, err := r.EnsureVariable(ctx, component, aspect, scopeName, lvl, dom)
		if err != nil {
			return nil, err
		}
		res.Variables = vars
	}

	if exists {
		r.reg.dropParams(existing)
		msg := fmt.Sprintf("override of '%s' replaces '%s'", key, existing)
		r.reg.record(Event{Level: slog.LevelWarn, Key: key, Message: msg})
		logger.Warn("Disposition overridden.", "disposition", key.String(), "replaced", existing.String())
	}
	r.reg.putParams(key, params)

	logger.Debug("Disposition resolved.",
		"disposition", key.String(),
		"kind", v.Kind.String(),
		"parameters", len(params),
		"variables", len(res.Variables),
	)
	return res, nil
}

// EnsureVariable returns the variables of (component, aspect, scope),
// creating them at lvl on first use. Asking for an existing family at a
// different level or domain fails.
func (r *Resolver) EnsureVariable(ctx context.Context, component, aspect, scopeName string, lvl *scale.Level, d program.Domain) ([]*program.Variable, error) {
	if !r.horizon.Contains(lvl) {
		return nil, fmt.Errorf("resolve: variable %s.%s@%s: %w", component, aspect, scopeName, scale.ErrIncomparableScale)
	}
	if _, ok := r.forest.Lookup(scopeName); !ok {
		return nil, fmt.Errorf("resolve: variable %s.%s: %w: '%s'", component, aspect, scope.ErrUnknownScope, scopeName)
	}

	key := disposition.New(component, aspect, scopeName, lvl)
	if existing, vars, ok := r.reg.VariableFamily(component, aspect, scopeName); ok {
		if existing != key {
			return nil, fmt.Errorf("%w: '%s' requested at level '%s'", ErrScaleConflict, existing, lvl.Name())
		}
		if vars[0].Domain != d {
			return nil, fmt.Errorf("%w: '%s' is %s, requested %s", ErrScaleConflict, existing, vars[0].Domain, d)
		}
		return vars, nil
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	vars := r.reg.addVariables(key, r.horizon, lvl, d)
	ctxlog.FromContext(ctx).Debug("Variable created.", "disposition", key.String(), "domain", d.String(), "indices", len(vars))
	return vars, nil
}

// Lookup returns the parameters of (component, aspect, scope).
func (r *Resolver) Lookup(component, aspect, scopeName string) (disposition.Key, []*program.Parameter, bool) {
	return r.reg.ParameterFamily(component, aspect, scopeName)
}

// Patch replaces the value at one flat index of an exact or free
// disposition, leaving the other indices as resolved.
func (r *Resolver) Patch(ctx context.Context, key disposition.Key, flat int, x float64) error {
	params, ok := r.reg.Parameters(key)
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownDisposition, key)
	}
	if flat < 0 || flat >= len(params) {
		return fmt.Errorf("%w: '%s': %w: %d", ErrPatch, key, scale.ErrIndexRange, flat)
	}
	p := params[flat]
	switch p.Kind {
	case value.KindExact, value.KindFree:
	case value.KindFactor:
		if p.Nominal != nil {
			return fmt.Errorf("%w: '%s' scales a variable nominal", ErrPatch, key)
		}
	default:
		return fmt.Errorf("%w: '%s' is %s", ErrPatch, key, p.Kind)
	}
	p.Kind = value.KindExact
	p.Value = x
	p.Lower, p.Upper = 0, 0
	p.LowerFree, p.UpperFree = false, false

	el := key.At(p.Index)
	r.reg.record(Event{Level: slog.LevelWarn, Key: key, Message: fmt.Sprintf("index override of '%s' to %g", el, x)})
	ctxlog.FromContext(ctx).Warn("Disposition index overridden.", "element", el.String(), "value", x)
	return nil
}

func (r *Resolver) materialize(ctx context.Context, key disposition.Key, v *value.Value) ([]*program.Parameter, error) {
	lvl := v.Level
	indices := r.horizon.Indices(lvl)
	params := make([]*program.Parameter, len(indices))
	for i, idx := range indices {
		params[i] = &program.Parameter{Key: key, Index: idx, Flat: i, Kind: v.Kind}
	}

	switch v.Kind {
	case value.KindExact:
		nums, err := Broadcast(v.Numbers, lvl.Size())
		if err != nil {
			return nil, err
		}
		for i, p := range params {
			p.Value = nums[i]
		}

	case value.KindFree:
		for _, p := range params {
			p.Value = r.bigM
			p.LowerFree, p.UpperFree = true, true
			p.Upper = r.bigM
		}

	case value.KindBounded:
		for i, p := range params {
			if v.Lower.IsFree() {
				p.LowerFree = true
			} else {
				n, err := r.sideAt(v.Lower, lvl, i)
				if err != nil {
					return nil, err
				}
				p.Lower = n
			}
			if v.Upper.IsFree() {
				p.UpperFree = true
				p.Upper = r.bigM
			} else {
				n, err := r.sideAt(v.Upper, lvl, i)
				if err != nil {
					return nil, err
				}
				p.Upper = n
			}
		}

	case value.KindFactor:
		if len(v.Multipliers) != lvl.Size() {
			return nil, fmt.Errorf("%w: %d multipliers for %d indices", ErrBroadcast, len(v.Multipliers), lvl.Size())
		}
		if v.NominalAspect == "" {
			for i, p := range params {
				p.Value = v.Nominal * v.Multipliers[i]
				p.Factor = v.Multipliers[i]
			}
			break
		}
		nominal, nominalLevel, err := r.nominalVariables(ctx, key, v.NominalAspect)
		if err != nil {
			return nil, err
		}
		for i, p := range params {
			j, err := scale.Project(lvl, i, nominalLevel)
			if err != nil {
				return nil, fmt.Errorf("%w: nominal '%s' is finer than the factor", ErrScaleConflict, nominal[0].Key)
			}
			p.Nominal = nominal[j]
			p.Factor = v.Multipliers[i]
		}

	case value.KindParametric:
		for _, p := range params {
			p.Symbol = &program.Symbol{
				Name:  key.At(p.Index).String(),
				Key:   key,
				Index: p.Index,
				Flat:  p.Flat,
				Range: v.Range,
			}
		}

	default:
		return nil, fmt.Errorf("resolve: unsupported value kind %s", v.Kind)
	}
	return params, nil
}

// sideAt reads one exact side of a bounded value at flat index i of lvl.
func (r *Resolver) sideAt(side *value.Value, lvl *scale.Level, i int) (float64, error) {
	j, err := scale.Project(lvl, i, side.Level)
	if err != nil {
		return 0, err
	}
	if len(side.Numbers) != 1 && len(side.Numbers) != side.Level.Size() {
		return 0, fmt.Errorf("%w: %d values for %d indices", ErrBroadcast, len(side.Numbers), side.Level.Size())
	}
	return side.At(j), nil
}

// nominalVariables finds or creates, at the horizon root, the variable a
// factor's nominal aspect refers to.
func (r *Resolver) nominalVariables(ctx context.Context, key disposition.Key, aspect string) ([]*program.Variable, *scale.Level, error) {
	if k, vars, ok := r.reg.VariableFamily(key.Component, aspect, key.Scope); ok {
		lvl, _ := r.horizon.Level(k.Level)
		return vars, lvl, nil
	}
	dom, ok := VariableDomain(aspect)
	if !ok {
		return nil, nil, fmt.Errorf("%w: nominal aspect '%s' has no variable", ErrUnknownDisposition, aspect)
	}
	vars, err := r.EnsureVariable(ctx, key.Component, aspect, key.Scope, r.horizon.Root(), dom)
	if err != nil {
		return nil, nil, err
	}
	return vars, r.horizon.Root(), nil
}
