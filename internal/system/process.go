// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
)

// Process converts resources at a rate set by its operate variable, limited
// by its capacity. With Build set, capacity is only available when the
// binary build decision is taken.
type Process struct {
	base
	conversion map[string]float64
	resources  []string
	build      bool
}

func newProcess(cfg *config.Process, h *scale.Hierarchy, f *scope.Forest) (*Process, error) {
	sites, err := leaves(f, cfg.Locations)
	if err != nil {
		return nil, err
	}
	b, err := newBase(cfg.Name, sites, cfg.Level, h, f)
	if err != nil {
		return nil, err
	}
	p := &Process{base: b, conversion: cfg.Conversion, build: cfg.Build}
	for r := range cfg.Conversion {
		p.resources = append(p.resources, r)
	}
	sort.Strings(p.resources)

	for aspect, a := range map[string]config.Attribute{
		"capacity":   cfg.Capacity,
		"operate":    cfg.Operate,
		"capex":      cfg.Capex,
		"opex":       cfg.Opex,
		"emission":   cfg.Emission,
		"build_cost": cfg.BuildCost,
	} {
		if err := p.set(aspect, a); err != nil {
			return nil, err
		}
	}
	if p.build {
		for _, s := range p.sites {
			if !p.has("capacity", s) {
				return nil, fmt.Errorf("%w: process '%s' has a build decision but no capacity at '%s'", ErrComponent, p.name, s)
			}
		}
	}
	return p, nil
}

func (p *Process) Declarations(*scale.Hierarchy, *scope.Forest) ([]formulation.Declaration, error) {
	var ds []formulation.Declaration
	for _, s := range p.sites {
		ds = p.declare(ds, s, "capacity", p.root, p.root, true)
		ds = p.declare(ds, s, "operate", p.level, p.level, true)
		ds = p.declare(ds, s, "capex", p.root, nil, false)
		ds = p.declare(ds, s, "opex", p.level, nil, false)
		ds = p.declare(ds, s, "emission", p.level, nil, false)
		if p.build {
			ds = append(ds, formulation.Declaration{Aspect: "build", Scope: s, VarLevel: p.root})
			ds = p.declare(ds, s, "build_cost", p.root, nil, false)
		}
	}
	return ds, nil
}

func (p *Process) Constrain(_ context.Context, pl *formulation.Pipeline, fs formulation.Families) error {
	for _, s := range p.sites {
		capacity, err := p.vars(pl, "capacity", s)
		if err != nil {
			return err
		}
		operate, err := p.vars(pl, "operate", s)
		if err != nil {
			return err
		}

		if fs.Has(formulation.FamilyCapacity) {
			if p.has("capacity", s) {
				limit, err := p.params(pl, "capacity", s)
				if err != nil {
					return err
				}
				var build []*program.Variable
				if p.build {
					if build, err = p.vars(pl, "build", s); err != nil {
						return err
					}
				}
				if err := p.pin(pl, formulation.FamilyCapacity, capacity, limit, build); err != nil {
					return err
				}
			}
			if err := p.within(pl, formulation.FamilyCapacity, operate, capacity); err != nil {
				return err
			}
		}

		if fs.Has(formulation.FamilyOperation) && p.has("operate", s) {
			limit, err := p.params(pl, "operate", s)
			if err != nil {
				return err
			}
			if err := p.limit(pl, formulation.FamilyOperation, operate, limit); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Process) Flows(pl *formulation.Pipeline) ([]formulation.BalanceFlow, error) {
	var out []formulation.BalanceFlow
	for _, s := range p.sites {
		operate, err := p.vars(pl, "operate", s)
		if err != nil {
			return nil, err
		}
		for _, r := range p.resources {
			out = append(out, formulation.BalanceFlow{
				Resource: r,
				Scope:    s,
				Flow:     constraint.Flow{Vars: operate, Coef: p.conversion[r]},
			})
		}
	}
	return out, nil
}

func (p *Process) ObjectiveTerms(kind program.ObjectiveKind) []formulation.ObjectiveTerm {
	if kind == program.ObjectiveEmission {
		return p.costs("emission", "operate", "")
	}
	ts := append(p.costs("capex", "capacity", ""), p.costs("opex", "operate", "")...)
	if p.build {
		ts = append(ts, p.costs("build_cost", "build", "")...)
	}
	return ts
}
