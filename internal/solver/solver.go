// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package solver defines the contract between a READY formulation and the
// solvers that evaluate it, and normalises their outcomes.
package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/program"
)

// Status is a normalised solve outcome.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusTimeout    Status = "timeout"
	StatusOther      Status = "other"
)

// Result is what every adapter returns.
type Result struct {
	Status         Status
	ObjectiveValue float64
	VariableValues map[string]float64
	WallTime       time.Duration
}

// IsOptimal reports whether the solve proved optimality.
func (r *Result) IsOptimal() bool { return r != nil && r.Status == StatusOptimal }

// Value returns the solved value of a variable by name.
func (r *Result) Value(name string) (float64, bool) {
	v, ok := r.VariableValues[name]
	return v, ok
}

// Adapter solves problems with one solver.
type Adapter interface {
	Name() string
	Solve(ctx context.Context, p *program.Problem, options map[string]string) (*Result, error)
}

// Observer receives one call per finished solve.
type Observer interface {
	ObserveSolve(solver string, status string, d time.Duration)
}

// Registry holds adapters by name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	observer Observer
}

// NewRegistry creates a registry holding adapters.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range adapters {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds an adapter.
func (r *Registry) Register(a Adapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.adapters[a.Name()]; dup {
		return fmt.Errorf("%w: '%s'", ErrDuplicateSolver, a.Name())
	}
	r.adapters[a.Name()] = a
	return nil
}

// Observe attaches an observer to every following solve.
func (r *Registry) Observe(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observer = o
}

// Lookup finds an adapter.
func (r *Registry) Lookup(name string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names lists registered adapters alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Solve runs the named adapter. Adapter errors and every status other than
// optimal are returned as *ExternalSolveError; the result is returned
// alongside when the adapter produced one.
func (r *Registry) Solve(ctx context.Context, name string, p *program.Problem, options map[string]string) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	a, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownSolver, name)
	}

	logger.Debug("Solve started.", "solver", name, "problem", p.ID.String(), "variables", len(p.Variables), "constraints", len(p.Constraints))
	start := time.Now()
	res, err := a.Solve(ctx, p, options)
	elapsed := time.Since(start)

	status := StatusOther
	if res != nil {
		if res.WallTime == 0 {
			res.WallTime = elapsed
		}
		status = res.Status
	}
	r.mu.RLock()
	obs := r.observer
	r.mu.RUnlock()
	if obs != nil {
		obs.ObserveSolve(name, string(status), elapsed)
	}

	if err != nil {
		var ese *ExternalSolveError
		if errors.As(err, &ese) {
			return res, err
		}
		return res, &ExternalSolveError{Solver: name, Status: status, Err: err}
	}
	if status != StatusOptimal {
		return res, &ExternalSolveError{Solver: name, Status: status}
	}

	logger.Info("Solve finished.", "solver", name, "status", string(status), "objective", res.ObjectiveValue, "wall_time", elapsed.String())
	return res, nil
}

// FloatOption reads a numeric option, or def when it is absent.
func FloatOption(options map[string]string, key string, def float64) (float64, error) {
	raw, ok := options[key]
	if !ok {
		return def, nil
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrOption, key, raw)
	}
	return f, nil
}

// IntOption reads an integer option, or def when it is absent.
func IntOption(options map[string]string, key string, def int) (int, error) {
	raw, ok := options[key]
	if !ok {
		return def, nil
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrOption, key, raw)
	}
	return n, nil
}

// DurationOption reads a duration option such as "30s", or def when it is absent.
func DurationOption(options map[string]string, key string, def time.Duration) (time.Duration, error) {
	raw, ok := options[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrOption, key, raw)
	}
	return d, nil
}
