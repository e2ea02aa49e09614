// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
	"github.com/specialistvlad/energiago/internal/value"
)

// base is shared by every energy component: a name, the leaf scopes it is
// declared at, its operational level and its raw attributes by aspect.
type base struct {
	name   string
	sites  []string
	level  *scale.Level
	root   *scale.Level
	forest *scope.Forest
	attrs  map[string]config.Attribute
}

func newBase(name string, sites []string, level string, h *scale.Hierarchy, f *scope.Forest) (base, error) {
	b := base{name: name, sites: sites, root: h.Root(), forest: f, attrs: make(map[string]config.Attribute)}
	if level == "" {
		b.level = h.Finest()
		return b, nil
	}
	lvl, ok := h.Level(level)
	if !ok {
		return base{}, fmt.Errorf("%w: '%s' uses unknown level '%s'", ErrComponent, name, level)
	}
	b.level = lvl
	return b, nil
}

func (b *base) Name() string { return b.name }

// Sites returns the scopes the component is declared at.
func (b *base) Sites() []string { return append([]string(nil), b.sites...) }

// set registers a raw attribute, checking that its scope keys exist.
func (b *base) set(aspect string, a config.Attribute) error {
	for name := range a {
		if name == "" {
			continue
		}
		if _, ok := b.forest.Lookup(name); !ok {
			return fmt.Errorf("%w: %s.%s: '%s'", scope.ErrUnknownScope, b.name, aspect, name)
		}
	}
	if len(a) > 0 {
		b.attrs[aspect] = a
	}
	return nil
}

// raw returns the value aspect takes at site: the site's own entry, then
// the nearest ancestor's, then the default entry.
func (b *base) raw(aspect, site string) (any, bool) {
	a, ok := b.attrs[aspect]
	if !ok {
		return nil, false
	}
	if v, ok := a[site]; ok {
		return v, true
	}
	if chain, err := b.forest.AncestorsOf(site); err == nil {
		for i := len(chain) - 1; i >= 0; i-- {
			if v, ok := a[chain[i]]; ok {
				return v, true
			}
		}
	}
	v, ok := a[""]
	return v, ok
}

func (b *base) has(aspect, site string) bool {
	_, ok := b.raw(aspect, site)
	return ok
}

// declare appends a declaration for aspect at site when the attribute is
// set there. When it is not and variable is true, the variable is still
// ensured at varLevel.
func (b *base) declare(ds []formulation.Declaration, site, aspect string, natural, varLevel *scale.Level, variable bool) []formulation.Declaration {
	raw, ok := b.raw(aspect, site)
	switch {
	case ok:
		return append(ds, formulation.Declaration{Aspect: aspect, Scope: site, Raw: raw, Natural: natural, VarLevel: varLevel})
	case variable:
		return append(ds, formulation.Declaration{Aspect: aspect, Scope: site, VarLevel: varLevel})
	}
	return ds
}

// costs returns one objective term per site where aspect is set, times the
// variable family of varAspect. A non-empty requires skips sites where that
// aspect is not set.
func (b *base) costs(aspect, varAspect, requires string) []formulation.ObjectiveTerm {
	var ts []formulation.ObjectiveTerm
	for _, s := range b.sites {
		if b.has(aspect, s) && (requires == "" || b.has(requires, s)) {
			ts = append(ts, formulation.ObjectiveTerm{Component: b.name, Aspect: aspect, Scope: s, Variable: varAspect})
		}
	}
	return ts
}

func (b *base) vars(p *formulation.Pipeline, aspect, site string) ([]*program.Variable, error) {
	vs, ok := p.Vars(b.name, aspect, site)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s@%s has no variable", formulation.ErrIncompleteFormulation, b.name, aspect, site)
	}
	return vs, nil
}

func (b *base) params(p *formulation.Pipeline, aspect, site string) ([]*program.Parameter, error) {
	ps, ok := p.Params(b.name, aspect, site)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s@%s was not resolved", formulation.ErrIncompleteFormulation, b.name, aspect, site)
	}
	return ps, nil
}

func (b *base) each(p *formulation.Pipeline, f constraint.Families) error {
	out, err := p.Generator().Each(f)
	if err != nil {
		return fmt.Errorf("%s %s: %w", b.name, f.Rule, err)
	}
	return p.Add(out)
}

// limit bounds vars from above by params, and from below as well when the
// params are a bounded pair.
func (b *base) limit(p *formulation.Pipeline, family string, vars []*program.Variable, params []*program.Parameter) error {
	if err := b.each(p, constraint.Families{Rule: program.RuleLEQ, Family: family, Variables: vars, Parameters: params}); err != nil {
		return err
	}
	if params[0].Kind != value.KindBounded {
		return nil
	}
	return b.each(p, constraint.Families{Rule: program.RuleGEQ, Family: family, Variables: vars, Parameters: params})
}

// pin bounds vars from both sides; an exact value fixes them. With a build
// decision both sides scale with it.
func (b *base) pin(p *formulation.Pipeline, family string, vars []*program.Variable, params []*program.Parameter, build []*program.Variable) error {
	if build != nil {
		if err := b.each(p, constraint.Families{Rule: program.RuleLEQBy, Family: family, Variables: vars, Parameters: params, Associated: build}); err != nil {
			return err
		}
		return b.each(p, constraint.Families{Rule: program.RuleGEQ, Family: family, Variables: vars, Parameters: params, Associated: build})
	}
	if err := b.each(p, constraint.Families{Rule: program.RuleLEQ, Family: family, Variables: vars, Parameters: params}); err != nil {
		return err
	}
	return b.each(p, constraint.Families{Rule: program.RuleGEQ, Family: family, Variables: vars, Parameters: params})
}

// within emits vars <= upper, one-for-one with the variables of another family.
func (b *base) within(p *formulation.Pipeline, family string, vars, upper []*program.Variable) error {
	return b.each(p, constraint.Families{Rule: program.RuleLEQBy, Family: family, Variables: vars, Associated: upper})
}
