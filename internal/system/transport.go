// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import (
	"context"
	"fmt"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
	"github.com/specialistvlad/energiago/internal/value"
)

// Transport moves one resource along linkages. A fraction loss of every
// unit leaving the source never arrives at the sink.
type Transport struct {
	base
	resource string
}

func newTransport(cfg *config.Transport, h *scale.Hierarchy, f *scope.Forest) (*Transport, error) {
	sites, err := linkages(f, cfg.Linkages)
	if err != nil {
		return nil, err
	}
	b, err := newBase(cfg.Name, sites, cfg.Level, h, f)
	if err != nil {
		return nil, err
	}
	t := &Transport{base: b, resource: cfg.Resource}
	for aspect, a := range map[string]config.Attribute{
		"capacity": cfg.Capacity,
		"flow":     cfg.Flow,
		"loss":     cfg.Loss,
		"capex":    cfg.Capex,
		"opex":     cfg.Opex,
	} {
		if err := t.set(aspect, a); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Transport) Declarations(*scale.Hierarchy, *scope.Forest) ([]formulation.Declaration, error) {
	var ds []formulation.Declaration
	for _, s := range t.sites {
		ds = t.declare(ds, s, "capacity", t.root, t.root, true)
		ds = t.declare(ds, s, "flow", t.level, t.level, true)
		ds = t.declare(ds, s, "loss", t.root, nil, false)
		ds = t.declare(ds, s, "capex", t.root, nil, false)
		ds = t.declare(ds, s, "opex", t.level, nil, false)
	}
	return ds, nil
}

func (t *Transport) Constrain(_ context.Context, p *formulation.Pipeline, fs formulation.Families) error {
	if !fs.Has(formulation.FamilyTransport) {
		return nil
	}
	for _, s := range t.sites {
		capacity, err := t.vars(p, "capacity", s)
		if err != nil {
			return err
		}
		flow, err := t.vars(p, "flow", s)
		if err != nil {
			return err
		}
		if t.has("capacity", s) {
			limit, err := t.params(p, "capacity", s)
			if err != nil {
				return err
			}
			if err := t.pin(p, formulation.FamilyTransport, capacity, limit, nil); err != nil {
				return err
			}
		}
		if err := t.within(p, formulation.FamilyTransport, flow, capacity); err != nil {
			return err
		}
		if t.has("flow", s) {
			limit, err := t.params(p, "flow", s)
			if err != nil {
				return err
			}
			if err := t.limit(p, formulation.FamilyTransport, flow, limit); err != nil {
				return err
			}
		}
	}
	return nil
}

// loss reads the scalar loss fraction of one linkage.
func (t *Transport) loss(p *formulation.Pipeline, site string) (float64, error) {
	if !t.has("loss", site) {
		return 0, nil
	}
	ps, err := t.params(p, "loss", site)
	if err != nil {
		return 0, err
	}
	if len(ps) != 1 || ps[0].Kind != value.KindExact {
		return 0, fmt.Errorf("%w: loss of '%s' at '%s' must be one exact number", ErrComponent, t.name, site)
	}
	if l := ps[0].Value; l < 0 || l >= 1 {
		return 0, fmt.Errorf("%w: loss of '%s' at '%s' is %g, want [0, 1)", ErrComponent, t.name, site, l)
	}
	return ps[0].Value, nil
}

func (t *Transport) Flows(p *formulation.Pipeline) ([]formulation.BalanceFlow, error) {
	var out []formulation.BalanceFlow
	for _, s := range t.sites {
		link, _ := t.forest.Lookup(s)
		flow, err := t.vars(p, "flow", s)
		if err != nil {
			return nil, err
		}
		loss, err := t.loss(p, s)
		if err != nil {
			return nil, err
		}
		out = append(out,
			formulation.BalanceFlow{Resource: t.resource, Scope: link.Source, Flow: constraint.Flow{Vars: flow, Coef: -1}},
			formulation.BalanceFlow{Resource: t.resource, Scope: link.Sink, Flow: constraint.Flow{Vars: flow, Coef: 1 - loss}},
		)
	}
	return out, nil
}

func (t *Transport) ObjectiveTerms(kind program.ObjectiveKind) []formulation.ObjectiveTerm {
	if kind == program.ObjectiveEmission {
		return nil
	}
	return append(t.costs("capex", "capacity", ""), t.costs("opex", "flow", "")...)
}
