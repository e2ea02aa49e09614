// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package formulation assembles a complete mathematical program from
// registered components through a one-directional pipeline:
// EMPTY -> COMPONENTS_REGISTERED -> RESOLVED -> CONSTRAINED -> OBJECTIVE_SET -> READY.
package formulation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/resolve"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
	"github.com/specialistvlad/energiago/internal/value"
)

// Formulation is a READY pipeline's output. It is never mutated.
type Formulation struct {
	Problem  *program.Problem
	Registry *resolve.Registry
	Families Families
	Horizon  *scale.Hierarchy
	Forest   *scope.Forest
}

// Pipeline builds one formulation. It is used by a single goroutine.
type Pipeline struct {
	state   State
	horizon *scale.Hierarchy
	forest  *scope.Forest
	opts    options

	components []Component
	byName     map[string]Component

	resolver    *resolve.Resolver
	gen         *constraint.Generator
	constraints *program.ConstraintSet
	families    Families
	penalties   program.Expr
	objective   program.Objective
}

// New creates an EMPTY pipeline over a horizon and a scope forest.
func New(h *scale.Hierarchy, f *scope.Forest, opts ...Option) *Pipeline {
	o := options{bigM: resolve.DefaultBigM, recorder: noopRecorder{}}
	for _, opt := range opts {
		opt(&o)
	}
	return &Pipeline{
		state:   StateEmpty,
		horizon: h,
		forest:  f,
		opts:    o,
		byName:  make(map[string]Component),
	}
}

// State returns the current stage.
func (p *Pipeline) State() State { return p.state }

// Horizon returns the temporal hierarchy.
func (p *Pipeline) Horizon() *scale.Hierarchy { return p.horizon }

// Forest returns the scope forest.
func (p *Pipeline) Forest() *scope.Forest { return p.forest }

// Resolver returns the resolver; nil before RESOLVED.
func (p *Pipeline) Resolver() *resolve.Resolver { return p.resolver }

// Registry returns the disposition registry; nil before RESOLVED.
func (p *Pipeline) Registry() *resolve.Registry {
	if p.resolver == nil {
		return nil
	}
	return p.resolver.Registry()
}

// Generator returns the constraint generator; nil before CONSTRAINED starts.
func (p *Pipeline) Generator() *constraint.Generator { return p.gen }

// Components returns the registered components in registration order.
func (p *Pipeline) Components() []Component {
	return append([]Component(nil), p.components...)
}

func (p *Pipeline) expect(want State, action string) error {
	if p.state != want {
		return fmt.Errorf("%w: cannot %s in state %s", ErrState, action, p.state)
	}
	return nil
}

// Register adds a component. Components can only be registered before
// resolution starts.
func (p *Pipeline) Register(ctx context.Context, c Component) (Handle, error) {
	if p.state != StateEmpty && p.state != StateComponentsRegistered {
		return Handle{}, fmt.Errorf("%w: cannot register '%s' in state %s", ErrState, c.Name(), p.state)
	}
	if _, dup := p.byName[c.Name()]; dup {
		return Handle{}, fmt.Errorf("%w: '%s'", ErrDuplicateComponent, c.Name())
	}
	p.byName[c.Name()] = c
	p.components = append(p.components, c)
	p.state = StateComponentsRegistered

	ctxlog.FromContext(ctx).Debug("Component registered.", "component", c.Name())
	return Handle{Name: c.Name(), Order: len(p.components) - 1}, nil
}

// Resolve classifies and resolves every declaration, then applies index patches.
func (p *Pipeline) Resolve(ctx context.Context) error {
	if err := p.expect(StateComponentsRegistered, "resolve"); err != nil {
		return err
	}
	start := time.Now()
	logger := ctxlog.FromContext(ctx)

	p.resolver = resolve.New(p.horizon, p.forest, resolve.WithBigM(p.opts.bigM))

	overrides := make(map[disposition.Key]Override, len(p.opts.overrides))
	for _, ov := range p.opts.overrides {
		overrides[disposition.Key{Component: ov.Component, Aspect: ov.Aspect, Scope: ov.Scope}] = ov
	}
	used := make(map[disposition.Key]bool)

	for _, c := range p.components {
		decls, err := c.Declarations(p.horizon, p.forest)
		if err != nil {
			return fmt.Errorf("formulation: declarations of '%s': %w", c.Name(), err)
		}
		for _, d := range decls {
			fk := disposition.Key{Component: c.Name(), Aspect: d.Aspect, Scope: d.Scope}
			if ov, ok := overrides[fk]; ok && d.Raw != nil {
				d.Raw = ov.Raw
				used[fk] = true
			}
			if err := p.resolveDeclaration(ctx, c.Name(), d); err != nil {
				return err
			}
		}
	}
	for fk := range overrides {
		if !used[fk] {
			return fmt.Errorf("formulation: override %s.%s@%s: %w", fk.Component, fk.Aspect, fk.Scope, resolve.ErrUnknownDisposition)
		}
	}

	for _, pt := range p.opts.patches {
		key, _, ok := p.resolver.Lookup(pt.Component, pt.Aspect, pt.Scope)
		if !ok {
			return fmt.Errorf("formulation: patch %s.%s@%s: %w", pt.Component, pt.Aspect, pt.Scope, resolve.ErrUnknownDisposition)
		}
		if err := p.resolver.Patch(ctx, key, pt.Flat, pt.Value); err != nil {
			return err
		}
	}

	p.state = StateResolved
	p.opts.recorder.ObserveStage("resolve", time.Since(start))
	logger.Debug("Dispositions resolved.",
		"parameters", len(p.Registry().ParameterKeys()),
		"variables", len(p.Registry().AllVariables()),
	)
	return nil
}

func (p *Pipeline) resolveDeclaration(ctx context.Context, component string, d Declaration) error {
	if d.Raw == nil {
		dom, ok := resolve.VariableDomain(d.Aspect)
		if d.Domain != nil {
			dom, ok = *d.Domain, true
		}
		if !ok {
			return fmt.Errorf("formulation: %s.%s@%s declares neither a value nor a variable", component, d.Aspect, d.Scope)
		}
		lvl := d.VarLevel
		if lvl == nil {
			lvl = d.Natural
		}
		if lvl == nil {
			lvl = p.horizon.Root()
		}
		_, err := p.resolver.EnsureVariable(ctx, component, d.Aspect, d.Scope, lvl, dom)
		return err
	}

	v, err := value.Classify(d.Raw, p.horizon, value.Declarer{Component: component, Natural: d.Natural})
	if err != nil {
		return fmt.Errorf("formulation: %s.%s@%s: %w", component, d.Aspect, d.Scope, err)
	}

	var opts []resolve.ResolveOption
	if d.Override {
		opts = append(opts, resolve.Override())
	}
	if d.VarLevel != nil {
		opts = append(opts, resolve.VariableAt(d.VarLevel))
	}
	if d.Domain != nil {
		opts = append(opts, resolve.WithDomain(*d.Domain))
	}
	if d.ParameterOnly {
		opts = append(opts, resolve.ParameterOnly())
	}
	if _, err := p.resolver.Resolve(ctx, component, d.Aspect, d.Scope, v, opts...); err != nil {
		return err
	}
	p.opts.recorder.ObserveDisposition(v.Kind.String(), d.Override)
	return nil
}

// Params returns the resolved parameters of (component, aspect, scope).
func (p *Pipeline) Params(component, aspect, scopeName string) ([]*program.Parameter, bool) {
	_, ps, ok := p.resolver.Lookup(component, aspect, scopeName)
	return ps, ok
}

// Vars returns the variables of (component, aspect, scope).
func (p *Pipeline) Vars(component, aspect, scopeName string) ([]*program.Variable, bool) {
	_, vs, ok := p.Registry().VariableFamily(component, aspect, scopeName)
	return vs, ok
}

// Add records generated constraints and objective terms.
func (p *Pipeline) Add(out *constraint.Output) error {
	if p.state != StateResolved {
		return fmt.Errorf("%w: cannot add constraints in state %s", ErrState, p.state)
	}
	if out == nil {
		return nil
	}
	if err := p.constraints.Add(out.Constraints...); err != nil {
		return err
	}
	p.penalties = p.penalties.Add(out.Objective)
	counts := make(map[program.Rule]int)
	for _, c := range out.Constraints {
		counts[c.Rule]++
	}
	for _, r := range program.Rules {
		if n := counts[r]; n > 0 {
			p.opts.recorder.ObserveConstraints(string(r), n)
		}
	}
	return nil
}

// Constrain generates the requested constraint families. No names means
// every family. Fixings passed with WithFixed are always generated.
func (p *Pipeline) Constrain(ctx context.Context, names ...string) error {
	if err := p.expect(StateResolved, "constrain"); err != nil {
		return err
	}
	start := time.Now()
	fs, err := NewFamilies(names...)
	if err != nil {
		return err
	}
	p.families = fs
	p.gen = constraint.New(p.horizon)
	p.constraints = program.NewConstraintSet()

	for _, c := range p.components {
		if cc, ok := c.(Constrainer); ok {
			if err := cc.Constrain(ctx, p, fs); err != nil {
				return fmt.Errorf("formulation: constraints of '%s': %w", c.Name(), err)
			}
		}
	}
	if fs.Has(FamilyBalance) {
		if err := p.balances(); err != nil {
			return err
		}
	}
	if err := p.fix(); err != nil {
		return err
	}

	p.state = StateConstrained
	p.opts.recorder.ObserveStage("constrain", time.Since(start))
	ctxlog.FromContext(ctx).Debug("Constraints generated.", "constraints", p.constraints.Len())
	return nil
}

type balanceKey struct{ resource, scope string }

func (p *Pipeline) balances() error {
	flows := make(map[balanceKey][]constraint.Flow)
	var order []balanceKey
	for _, c := range p.components {
		cc, ok := c.(Contributor)
		if !ok {
			continue
		}
		fl, err := cc.Flows(p)
		if err != nil {
			return fmt.Errorf("formulation: flows of '%s': %w", c.Name(), err)
		}
		for _, f := range fl {
			k := balanceKey{f.Resource, f.Scope}
			if _, seen := flows[k]; !seen {
				order = append(order, k)
			}
			flows[k] = append(flows[k], f.Flow)
		}
	}

	owned := make(map[balanceKey]bool)
	for _, c := range p.components {
		bc, ok := c.(Balanced)
		if !ok {
			continue
		}
		bs, err := bc.Balances(p)
		if err != nil {
			return fmt.Errorf("formulation: balances of '%s': %w", c.Name(), err)
		}
		for _, b := range bs {
			k := balanceKey{b.Resource, b.Scope}
			owned[k] = true
			out, err := p.gen.Balance(constraint.BalanceSpec{
				Family:   FamilyBalance,
				Key:      disposition.Key{Scope: b.Scope, Level: b.Level.Name(), Component: b.Resource, Aspect: "balance"},
				Level:    b.Level,
				Flows:    flows[k],
				External: b.External,
			})
			if err != nil {
				return err
			}
			if err := p.Add(out); err != nil {
				return err
			}
		}
	}

	for _, k := range order {
		if !owned[k] {
			return fmt.Errorf("%w: flows of '%s' at '%s' have no balance", ErrIncompleteFormulation, k.resource, k.scope)
		}
	}
	return nil
}

func (p *Pipeline) fix() error {
	if len(p.opts.fixed) == 0 {
		return nil
	}
	byName := make(map[string]*program.Variable)
	for _, v := range p.Registry().AllVariables() {
		byName[v.Name] = v
	}
	names := make([]string, 0, len(p.opts.fixed))
	for n := range p.opts.fixed {
		names = append(names, n)
	}
	sort.Strings(names)

	out := &constraint.Output{}
	for _, n := range names {
		v, ok := byName[n]
		if !ok {
			return fmt.Errorf("formulation: fix '%s': %w", n, resolve.ErrUnknownDisposition)
		}
		out.Constraints = append(out.Constraints, p.gen.Fix(FamilyFixed, v, p.opts.fixed[n]))
	}
	return p.Add(out)
}

// SetObjective builds the minimised objective of the given kind from every
// Coster. Cost objectives also carry demand penalties.
func (p *Pipeline) SetObjective(ctx context.Context, kind program.ObjectiveKind) error {
	if err := p.expect(StateConstrained, "set objective"); err != nil {
		return err
	}
	switch kind {
	case program.ObjectiveCost, program.ObjectiveEmission:
	default:
		return fmt.Errorf("formulation: unknown objective kind %q", kind)
	}

	var expr program.Expr
	terms := 0
	for _, c := range p.components {
		cc, ok := c.(Coster)
		if !ok {
			continue
		}
		for _, term := range cc.ObjectiveTerms(kind) {
			e, err := p.objectiveTerm(term)
			if err != nil {
				return err
			}
			expr = expr.Add(e)
			terms++
		}
	}
	if kind == program.ObjectiveCost && p.penalties.HasVariables() {
		expr = expr.Add(p.penalties)
		terms++
	}
	if terms == 0 {
		return fmt.Errorf("%w: objective '%s' has no resolved terms", ErrIncompleteFormulation, kind)
	}

	p.objective = program.Objective{Kind: kind, Expr: expr.Simplify()}
	p.state = StateObjectiveSet
	ctxlog.FromContext(ctx).Debug("Objective set.", "kind", string(kind), "terms", terms)
	return nil
}

func (p *Pipeline) objectiveTerm(t ObjectiveTerm) (program.Expr, error) {
	vc := t.VariableComponent
	if vc == "" {
		vc = t.Component
	}
	pk, params, ok := p.resolver.Lookup(t.Component, t.Aspect, t.Scope)
	if !ok {
		return program.Expr{}, fmt.Errorf("%w: objective term %s.%s@%s was never resolved", ErrIncompleteFormulation, t.Component, t.Aspect, t.Scope)
	}
	vk, vars, ok := p.Registry().VariableFamily(vc, t.Variable, t.Scope)
	if !ok {
		return program.Expr{}, fmt.Errorf("%w: objective variable %s.%s@%s was never resolved", ErrIncompleteFormulation, vc, t.Variable, t.Scope)
	}

	lp, _ := p.horizon.Level(pk.Level)
	lv, _ := p.horizon.Level(vk.Level)
	drive := lv
	if scale.Finer(lp, lv) {
		drive = lp
	}

	var expr program.Expr
	for i := 0; i < drive.Size(); i++ {
		pi, err := scale.Project(drive, i, lp)
		if err != nil {
			return program.Expr{}, err
		}
		vi, err := scale.Project(drive, i, lv)
		if err != nil {
			return program.Expr{}, err
		}
		par := params[pi]
		switch {
		case par.Symbol != nil, par.Nominal != nil:
			return program.Expr{}, fmt.Errorf("%w: objective coefficient '%s' times '%s'", constraint.ErrBilinear, par.Name(), vars[vi])
		case par.Kind == value.KindBounded || par.Kind == value.KindFree:
			return program.Expr{}, fmt.Errorf("%w: objective coefficient '%s' must be exact", ErrIncompleteFormulation, par.Name())
		}
		if par.Value != 0 {
			expr = expr.Add(program.VarExpr(vars[vi], par.Value))
		}
	}
	return expr, nil
}

// Finalize freezes the pipeline into a READY formulation.
func (p *Pipeline) Finalize(ctx context.Context) (*Formulation, error) {
	if err := p.expect(StateObjectiveSet, "finalize"); err != nil {
		return nil, err
	}
	reg := p.Registry()
	prob := &program.Problem{
		ID:          uuid.New(),
		Name:        p.opts.name,
		Variables:   reg.AllVariables(),
		Constraints: p.constraints.All(),
		Objective:   p.objective,
		Symbols:     reg.Symbols(),
	}
	p.state = StateReady

	ctxlog.FromContext(ctx).Info("Formulation ready.",
		"id", prob.ID.String(),
		"name", prob.Name,
		"variables", len(prob.Variables),
		"constraints", len(prob.Constraints),
		"parametric", len(prob.Symbols),
	)
	return &Formulation{Problem: prob, Registry: reg, Families: p.families, Horizon: p.horizon, Forest: p.forest}, nil
}

// Restart returns a fresh pipeline at COMPONENTS_REGISTERED with the same
// components. Name, Big-M and recorder carry over; overrides, patches and
// fixings come only from opts.
func (p *Pipeline) Restart(opts ...Option) (*Pipeline, error) {
	if p.state == StateEmpty {
		return nil, fmt.Errorf("%w: cannot restart an empty pipeline", ErrState)
	}
	base := []Option{WithName(p.opts.name), WithBigM(p.opts.bigM), WithRecorder(p.opts.recorder)}
	np := New(p.horizon, p.forest, append(base, opts...)...)
	for _, c := range p.components {
		np.byName[c.Name()] = c
		np.components = append(np.components, c)
	}
	np.state = StateComponentsRegistered
	return np, nil
}

// Run drives a COMPONENTS_REGISTERED pipeline to READY.
func (p *Pipeline) Run(ctx context.Context, families []string, kind program.ObjectiveKind) (*Formulation, error) {
	if err := p.Resolve(ctx); err != nil {
		return nil, err
	}
	if err := p.Constrain(ctx, families...); err != nil {
		return nil, err
	}
	if err := p.SetObjective(ctx, kind); err != nil {
		return nil, err
	}
	return p.Finalize(ctx)
}

// Formulate registers components and runs the whole pipeline.
func Formulate(ctx context.Context, h *scale.Hierarchy, f *scope.Forest, components []Component, families []string, kind program.ObjectiveKind, opts ...Option) (*Formulation, error) {
	p := New(h, f, opts...)
	for _, c := range components {
		if _, err := p.Register(ctx, c); err != nil {
			return nil, err
		}
	}
	return p.Run(ctx, families, kind)
}
