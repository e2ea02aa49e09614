// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"context"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
)

// Resource is a commodity balanced per site and index of its level. Demand
// leaves the balance through the release variable; purchases enter it
// through consume.
type Resource struct {
	base
}

func newResource(cfg *config.Resource, h *scale.Hierarchy, f *scope.Forest) (*Resource, error) {
	sites, err := leaves(f, cfg.Locations)
	if err != nil {
		return nil, err
	}
	b, err := newBase(cfg.Name, sites, cfg.Level, h, f)
	if err != nil {
		return nil, err
	}
	r := &Resource{base: b}
	for aspect, a := range map[string]config.Attribute{
		"demand":   cfg.Demand,
		"penalty":  cfg.Penalty,
		"consume":  cfg.Consume,
		"price":    cfg.Price,
		"emission": cfg.Emission,
	} {
		if err := r.set(aspect, a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resource) Declarations(*scale.Hierarchy, *scope.Forest) ([]formulation.Declaration, error) {
	var ds []formulation.Declaration
	for _, s := range r.sites {
		if r.has("demand", s) {
			ds = r.declare(ds, s, "demand", r.level, nil, false)
			ds = r.declare(ds, s, "release", nil, r.level, true)
			if r.has("penalty", s) {
				ds = r.declare(ds, s, "penalty", r.root, nil, false)
				ds = r.declare(ds, s, "unmet", nil, r.level, true)
			}
		}
		if r.has("consume", s) {
			ds = r.declare(ds, s, "consume", r.level, r.level, true)
			ds = r.declare(ds, s, "price", r.level, nil, false)
			ds = r.declare(ds, s, "emission", r.level, nil, false)
		}
	}
	return ds, nil
}

func (r *Resource) Constrain(_ context.Context, p *formulation.Pipeline, fs formulation.Families) error {
	for _, s := range r.sites {
		if fs.Has(formulation.FamilyDemand) && r.has("demand", s) {
			if err := r.demand(p, s); err != nil {
				return err
			}
		}
		if fs.Has(formulation.FamilyBounds) && r.has("consume", s) {
			consume, err := r.vars(p, "consume", s)
			if err != nil {
				return err
			}
			limit, err := r.params(p, "consume", s)
			if err != nil {
				return err
			}
			if err := r.limit(p, formulation.FamilyBounds, consume, limit); err != nil {
				return err
			}
		}
	}
	return nil
}

// demand is release >= demand, or release + unmet == demand with a penalty.
func (r *Resource) demand(p *formulation.Pipeline, site string) error {
	release, err := r.vars(p, "release", site)
	if err != nil {
		return err
	}
	demand, err := r.params(p, "demand", site)
	if err != nil {
		return err
	}
	f := constraint.Families{Rule: program.RuleGEQ, Family: formulation.FamilyDemand, Variables: release, Parameters: demand}
	if r.has("penalty", site) {
		if f.Associated, err = r.vars(p, "unmet", site); err != nil {
			return err
		}
		if f.Penalty, err = r.params(p, "penalty", site); err != nil {
			return err
		}
	}
	return r.each(p, f)
}

func (r *Resource) Flows(p *formulation.Pipeline) ([]formulation.BalanceFlow, error) {
	var out []formulation.BalanceFlow
	for _, s := range r.sites {
		if r.has("consume", s) {
			vs, err := r.vars(p, "consume", s)
			if err != nil {
				return nil, err
			}
			out = append(out, formulation.BalanceFlow{Resource: r.name, Scope: s, Flow: constraint.Flow{Vars: vs, Coef: 1}})
		}
		if r.has("demand", s) {
			vs, err := r.vars(p, "release", s)
			if err != nil {
				return nil, err
			}
			out = append(out, formulation.BalanceFlow{Resource: r.name, Scope: s, Flow: constraint.Flow{Vars: vs, Coef: -1}})
		}
	}
	return out, nil
}

// Balances owns the resource balance at every leaf the resource is declared at.
func (r *Resource) Balances(*formulation.Pipeline) ([]formulation.Balance, error) {
	out := make([]formulation.Balance, 0, len(r.sites))
	for _, s := range r.sites {
		out = append(out, formulation.Balance{Resource: r.name, Scope: s, Level: r.level})
	}
	return out, nil
}

func (r *Resource) ObjectiveTerms(kind program.ObjectiveKind) []formulation.ObjectiveTerm {
	if kind == program.ObjectiveEmission {
		return r.costs("emission", "consume", "consume")
	}
	return r.costs("price", "consume", "consume")
}
