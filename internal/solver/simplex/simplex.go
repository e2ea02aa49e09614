// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package simplex is the built-in solver adapter. Linear relaxations are
// solved with gonum's simplex; binary variables are handled by depth-first
// branch and bound.
package simplex

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
)

// Name is the registry name of the adapter.
const Name = "simplex"

// Recognised options.
const (
	OptionTolerance = "tolerance"
	OptionMaxNodes  = "max_nodes"
	OptionTimeLimit = "time_limit"
)

const (
	defaultTolerance = 1e-7
	defaultMaxNodes  = 10000
	integrality      = 1e-6
)

// Adapter implements solver.Adapter.
type Adapter struct{}

var _ solver.Adapter = (*Adapter)(nil)

// New returns the adapter.
func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() string { return Name }

type settings struct {
	tol       float64
	maxNodes  int
	timeLimit time.Duration
}

func parse(options map[string]string) (settings, error) {
	var s settings
	var err error
	if s.tol, err = solver.FloatOption(options, OptionTolerance, defaultTolerance); err != nil {
		return s, err
	}
	if s.maxNodes, err = solver.IntOption(options, OptionMaxNodes, defaultMaxNodes); err != nil {
		return s, err
	}
	if s.timeLimit, err = solver.DurationOption(options, OptionTimeLimit, 0); err != nil {
		return s, err
	}
	if s.tol <= 0 || s.maxNodes <= 0 || s.timeLimit < 0 {
		return s, fmt.Errorf("%w: tolerance and max_nodes must be positive", solver.ErrOption)
	}
	return s, nil
}

// Solve minimises the objective of a fully realised problem.
func (a *Adapter) Solve(ctx context.Context, p *program.Problem, options map[string]string) (*solver.Result, error) {
	if p.Parametric() {
		return nil, fmt.Errorf("%w: %d symbols", solver.ErrParametric, len(p.Symbols))
	}
	s, err := parse(options)
	if err != nil {
		return nil, err
	}
	m, err := newModel(p)
	if err != nil {
		return nil, err
	}

	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}

	out, nodes, err := m.branch(ctx, s)
	ctxlog.FromContext(ctx).Debug("Branch and bound finished.",
		"status", out.status, "nodes", nodes, "binaries", len(m.binary))
	if err != nil {
		return &solver.Result{Status: out.status}, err
	}

	res := &solver.Result{Status: out.status}
	if out.x != nil {
		x := m.round(out.x, s.tol)
		res.ObjectiveValue = m.objective(x)
		res.VariableValues = make(map[string]float64, len(x))
		for j, v := range x {
			res.VariableValues[m.names[j]] = v
		}
	}
	return res, nil
}

type node struct {
	fixed map[int]float64
}

func (n node) with(col int, v float64) node {
	fixed := make(map[int]float64, len(n.fixed)+1)
	for j, x := range n.fixed {
		fixed[j] = x
	}
	fixed[col] = v
	return node{fixed: fixed}
}

// branch explores nodes depth first, zero branch first. When the budget runs
// out the incumbent, if any, is reported with a timeout status.
func (m *model) branch(ctx context.Context, s settings) (relaxation, int, error) {
	best := relaxation{status: solver.StatusInfeasible, f: math.Inf(1)}
	stack := []node{{}}
	nodes := 0

	for len(stack) > 0 {
		if ctx.Err() != nil || nodes >= s.maxNodes {
			best.status = solver.StatusTimeout
			return best, nodes, nil
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		r, err := m.relax(n.fixed, s.tol)
		if err != nil {
			return r, nodes, err
		}
		switch r.status {
		case solver.StatusInfeasible:
			continue
		case solver.StatusUnbounded:
			return r, nodes, nil
		}
		if r.f >= best.f-s.tol {
			continue
		}

		col := m.fractional(r.x, integrality)
		if col < 0 {
			best = r
			continue
		}
		stack = append(stack, n.with(col, 1), n.with(col, 0))
	}
	return best, nodes, nil
}
