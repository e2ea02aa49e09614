// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package system turns a declaration model into the horizon, the scope
// forest and the energy components a formulation pipeline consumes.
package system

import (
	"context"
	"fmt"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
)

// component is what every energy component in this package provides.
type component interface {
	formulation.Component
	raw(aspect, site string) (any, bool)
	Sites() []string
}

// System is a built declaration model.
type System struct {
	Horizon    *scale.Hierarchy
	Forest     *scope.Forest
	Components []formulation.Component

	byName map[string]component
}

// Build validates m and constructs its horizon, forest and components.
func Build(ctx context.Context, m *config.Model) (*System, error) {
	logger := ctxlog.FromContext(ctx)
	if err := m.Validate(ctx); err != nil {
		return nil, err
	}

	h, err := horizon(m.Horizon)
	if err != nil {
		return nil, err
	}
	f, err := forest(m)
	if err != nil {
		return nil, err
	}
	logger.Debug("Horizon and scopes built.", "levels", len(h.Levels()), "locations", len(f.Locations()), "linkages", len(f.Linkages()))

	s := &System{Horizon: h, Forest: f, byName: make(map[string]component)}
	add := func(c component, err error) error {
		if err != nil {
			return err
		}
		s.Components = append(s.Components, c)
		s.byName[c.Name()] = c
		return nil
	}
	for _, r := range m.Resources {
		if err := add(newResource(r, h, f)); err != nil {
			return nil, err
		}
	}
	for _, p := range m.Processes {
		if err := add(newProcess(p, h, f)); err != nil {
			return nil, err
		}
	}
	for _, st := range m.Storages {
		if err := add(newStorage(st, h, f)); err != nil {
			return nil, err
		}
	}
	for _, t := range m.Transports {
		if err := add(newTransport(t, h, f)); err != nil {
			return nil, err
		}
	}

	logger.Debug("System built.", "components", len(s.Components))
	return s, nil
}

// Component looks a component up by name.
func (s *System) Component(name string) (formulation.Component, bool) {
	c, ok := s.byName[name]
	return c, ok
}

func horizon(hz *config.Horizon) (*scale.Hierarchy, error) {
	specs := make([]scale.Spec, len(hz.Levels))
	for i, l := range hz.Levels {
		specs[i] = scale.Spec{Name: l.Name, Length: l.Length}
	}
	if hz.BottomUp {
		return scale.DeclareBottomUp(hz.Name, specs...)
	}
	return scale.Declare(hz.Name, specs...)
}

func forest(m *config.Model) (*scope.Forest, error) {
	f := scope.New(m.Network)

	// Parents may be declared after their children.
	pending := append([]*config.Location(nil), m.Locations...)
	for len(pending) > 0 {
		var next []*config.Location
		for _, l := range pending {
			parent := l.Parent
			if parent == m.Network {
				parent = ""
			}
			if _, ok := f.Lookup(parent); parent != "" && !ok {
				next = append(next, l)
				continue
			}
			if err := f.AddLocation(l.Name, parent); err != nil {
				return nil, err
			}
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("%w: location '%s' has parent '%s'", scope.ErrCyclicScope, next[0].Name, next[0].Parent)
		}
		pending = next
	}

	for _, l := range m.Locations {
		if len(l.Members) == 0 {
			continue
		}
		if err := f.Contain(l.Name, l.Members...); err != nil {
			return nil, err
		}
	}
	for _, lk := range m.Linkages {
		if _, err := f.AddLinkage(lk.Source, lk.Sink, lk.Bidirectional); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// leaves expands location names to leaf locations; no names means every leaf.
func leaves(f *scope.Forest, names []string) ([]string, error) {
	if len(names) == 0 {
		return f.Leaves(), nil
	}
	out, err := f.ExpandForAll(names...)
	if err != nil {
		return nil, err
	}
	for _, n := range out {
		if s, _ := f.Lookup(n); s.Kind != scope.KindLocation {
			return nil, fmt.Errorf("%w: '%s' is a %s, not a location", ErrComponent, n, s.Kind)
		}
	}
	return out, nil
}

// linkages checks linkage names; no names means every linkage.
func linkages(f *scope.Forest, names []string) ([]string, error) {
	if len(names) == 0 {
		return f.Linkages(), nil
	}
	for _, n := range names {
		s, ok := f.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", scope.ErrUnknownScope, n)
		}
		if s.Kind != scope.KindLinkage {
			return nil, fmt.Errorf("%w: '%s' is a %s, not a linkage", ErrComponent, n, s.Kind)
		}
	}
	return append([]string(nil), names...), nil
}
