// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// This file translates the decoded HCL blocks into the format-agnostic
// model of the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/ctxlog"
)

type attrSpec struct {
	name string
	expr hcl.Expression
	dst  *config.Attribute
}

// attributes evaluates every spec into its destination.
func attributes(ctx context.Context, evalCtx *hcl.EvalContext, specs ...attrSpec) error {
	for _, s := range specs {
		a, err := attribute(ctx, s.expr, s.name, evalCtx)
		if err != nil {
			return err
		}
		*s.dst = a
	}
	return nil
}

func (l *Loader) translate(ctx context.Context, root *fileRoot, evalCtx *hcl.EvalContext) (*config.Model, error) {
	m := &config.Model{}

	switch len(root.Horizons) {
	case 0:
	case 1:
		m.Horizon = translateHorizon(root.Horizons[0])
	default:
		return nil, fmt.Errorf("%w: %d horizon blocks, expected one", ErrModel, len(root.Horizons))
	}
	switch len(root.Networks) {
	case 0:
	case 1:
		m.Network = root.Networks[0].Name
	default:
		return nil, fmt.Errorf("%w: %d network blocks, expected one", ErrModel, len(root.Networks))
	}

	for _, b := range root.Locations {
		loc := &config.Location{Name: b.Name, Members: b.Members}
		if b.Parent != nil && *b.Parent != m.Network {
			loc.Parent = *b.Parent
		}
		m.Locations = append(m.Locations, loc)
	}
	for _, b := range root.Linkages {
		if want := b.Source + "-" + b.Sink; b.Name != want {
			ctxlog.FromContext(ctx).Debug("Linkage label differs from its generated name.", "label", b.Name, "name", want)
		}
		m.Linkages = append(m.Linkages, &config.Linkage{
			Source:        b.Source,
			Sink:          b.Sink,
			Bidirectional: b.Bidirectional != nil && *b.Bidirectional,
		})
	}

	for _, b := range root.Resources {
		r, err := translateResource(ctx, b, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("resource '%s': %w", b.Name, err)
		}
		m.Resources = append(m.Resources, r)
	}
	for _, b := range root.Processes {
		p, err := translateProcess(ctx, b, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("process '%s': %w", b.Name, err)
		}
		m.Processes = append(m.Processes, p)
	}
	for _, b := range root.Storages {
		s, err := translateStorage(ctx, b, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("storage '%s': %w", b.Name, err)
		}
		m.Storages = append(m.Storages, s)
	}
	for _, b := range root.Transports {
		t, err := translateTransport(ctx, b, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("transport '%s': %w", b.Name, err)
		}
		m.Transports = append(m.Transports, t)
	}
	return m, nil
}

func translateHorizon(b *horizonBlock) *config.Horizon {
	h := &config.Horizon{Name: b.Name, BottomUp: b.BottomUp != nil && *b.BottomUp}
	for _, l := range b.Levels {
		h.Levels = append(h.Levels, &config.Level{Name: l.Name, Length: l.Length})
	}
	return h
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func translateResource(ctx context.Context, b *resourceBlock, evalCtx *hcl.EvalContext) (*config.Resource, error) {
	r := &config.Resource{Name: b.Name, Locations: b.Locations, Level: deref(b.Level)}
	err := attributes(ctx, evalCtx,
		attrSpec{"demand", b.Demand, &r.Demand},
		attrSpec{"penalty", b.Penalty, &r.Penalty},
		attrSpec{"consume", b.Consume, &r.Consume},
		attrSpec{"price", b.Price, &r.Price},
		attrSpec{"emission", b.Emission, &r.Emission},
	)
	return r, err
}

func translateProcess(ctx context.Context, b *processBlock, evalCtx *hcl.EvalContext) (*config.Process, error) {
	p := &config.Process{
		Name:       b.Name,
		Locations:  b.Locations,
		Level:      deref(b.Level),
		Conversion: b.Conversion,
		Build:      b.Build != nil && *b.Build,
	}
	err := attributes(ctx, evalCtx,
		attrSpec{"capacity", b.Capacity, &p.Capacity},
		attrSpec{"operate", b.Operate, &p.Operate},
		attrSpec{"capex", b.Capex, &p.Capex},
		attrSpec{"opex", b.Opex, &p.Opex},
		attrSpec{"emission", b.Emission, &p.Emission},
		attrSpec{"build_cost", b.BuildCost, &p.BuildCost},
	)
	return p, err
}

func translateStorage(ctx context.Context, b *storageBlock, evalCtx *hcl.EvalContext) (*config.Storage, error) {
	s := &config.Storage{Name: b.Name, Resource: b.Resource, Locations: b.Locations, Level: deref(b.Level)}
	err := attributes(ctx, evalCtx,
		attrSpec{"capacity", b.Capacity, &s.Capacity},
		attrSpec{"charge", b.Charge, &s.Charge},
		attrSpec{"discharge", b.Discharge, &s.Discharge},
		attrSpec{"capex", b.Capex, &s.Capex},
		attrSpec{"opex", b.Opex, &s.Opex},
	)
	return s, err
}

func translateTransport(ctx context.Context, b *transportBlock, evalCtx *hcl.EvalContext) (*config.Transport, error) {
	t := &config.Transport{Name: b.Name, Resource: b.Resource, Linkages: b.Linkages, Level: deref(b.Level)}
	err := attributes(ctx, evalCtx,
		attrSpec{"capacity", b.Capacity, &t.Capacity},
		attrSpec{"flow", b.Flow, &t.Flow},
		attrSpec{"loss", b.Loss, &t.Loss},
		attrSpec{"capex", b.Capex, &t.Capex},
		attrSpec{"opex", b.Opex, &t.Opex},
	)
	return t, err
}
