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

// Storage carries one resource between indices of its level. Charging takes
// the resource out of the balance, discharging puts it back.
type Storage struct {
	base
	resource string
}

func newStorage(cfg *config.Storage, h *scale.Hierarchy, f *scope.Forest) (*Storage, error) {
	sites, err := leaves(f, cfg.Locations)
	if err != nil {
		return nil, err
	}
	b, err := newBase(cfg.Name, sites, cfg.Level, h, f)
	if err != nil {
		return nil, err
	}
	st := &Storage{base: b, resource: cfg.Resource}
	for aspect, a := range map[string]config.Attribute{
		"capacity":  cfg.Capacity,
		"charge":    cfg.Charge,
		"discharge": cfg.Discharge,
		"capex":     cfg.Capex,
		"opex":      cfg.Opex,
	} {
		if err := st.set(aspect, a); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (st *Storage) Declarations(*scale.Hierarchy, *scope.Forest) ([]formulation.Declaration, error) {
	var ds []formulation.Declaration
	for _, s := range st.sites {
		ds = st.declare(ds, s, "capacity", st.root, st.root, true)
		ds = append(ds, formulation.Declaration{Aspect: "inventory", Scope: s, VarLevel: st.level})
		ds = st.declare(ds, s, "charge", st.level, st.level, true)
		ds = st.declare(ds, s, "discharge", st.level, st.level, true)
		ds = st.declare(ds, s, "capex", st.root, nil, false)
		ds = st.declare(ds, s, "opex", st.level, nil, false)
	}
	return ds, nil
}

func (st *Storage) Constrain(_ context.Context, p *formulation.Pipeline, fs formulation.Families) error {
	for _, s := range st.sites {
		capacity, err := st.vars(p, "capacity", s)
		if err != nil {
			return err
		}
		inventory, err := st.vars(p, "inventory", s)
		if err != nil {
			return err
		}
		charge, err := st.vars(p, "charge", s)
		if err != nil {
			return err
		}
		discharge, err := st.vars(p, "discharge", s)
		if err != nil {
			return err
		}

		if fs.Has(formulation.FamilyCapacity) {
			if st.has("capacity", s) {
				limit, err := st.params(p, "capacity", s)
				if err != nil {
					return err
				}
				if err := st.pin(p, formulation.FamilyCapacity, capacity, limit, nil); err != nil {
					return err
				}
			}
			if err := st.within(p, formulation.FamilyCapacity, inventory, capacity); err != nil {
				return err
			}
		}

		if fs.Has(formulation.FamilyBounds) {
			for _, side := range []struct {
				aspect string
				vars   []*program.Variable
			}{{"charge", charge}, {"discharge", discharge}} {
				if !st.has(side.aspect, s) {
					continue
				}
				limit, err := st.params(p, side.aspect, s)
				if err != nil {
					return err
				}
				if err := st.limit(p, formulation.FamilyBounds, side.vars, limit); err != nil {
					return err
				}
			}
		}

		if fs.Has(formulation.FamilyInventory) {
			out, err := p.Generator().Link(constraint.LinkSpec{
				Family:    formulation.FamilyInventory,
				Inventory: inventory,
				Charge:    charge,
				Discharge: discharge,
			})
			if err != nil {
				return err
			}
			if err := p.Add(out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (st *Storage) Flows(p *formulation.Pipeline) ([]formulation.BalanceFlow, error) {
	var out []formulation.BalanceFlow
	for _, s := range st.sites {
		charge, err := st.vars(p, "charge", s)
		if err != nil {
			return nil, err
		}
		discharge, err := st.vars(p, "discharge", s)
		if err != nil {
			return nil, err
		}
		out = append(out,
			formulation.BalanceFlow{Resource: st.resource, Scope: s, Flow: constraint.Flow{Vars: charge, Coef: -1}},
			formulation.BalanceFlow{Resource: st.resource, Scope: s, Flow: constraint.Flow{Vars: discharge, Coef: 1}},
		)
	}
	return out, nil
}

func (st *Storage) ObjectiveTerms(kind program.ObjectiveKind) []formulation.ObjectiveTerm {
	if kind == program.ObjectiveEmission {
		return nil
	}
	return append(st.costs("capex", "capacity", ""), st.costs("opex", "discharge", "")...)
}
