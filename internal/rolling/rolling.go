// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package rolling runs a formulation as a receding control loop. The
// finest level of the horizon is split into consecutive windows; each step
// restarts the pipeline, pins every variable that ends before its window to
// the value the previous step solved, and solves again.
package rolling

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/solver"
)

// ErrSteps is returned when the step count does not fit the horizon.
var ErrSteps = errors.New("rolling: invalid number of steps")

// Config controls a rolling run.
type Config struct {
	Steps     int
	Families  []string
	Objective program.ObjectiveKind
	Solver    string
	Options   map[string]string
	// Pipeline options applied at every step, such as scenario overrides.
	Pipeline []formulation.Option
}

// Step is the outcome of one control step. Start and End bound the window
// in flat indices of the finest level.
type Step struct {
	Number  int
	Start   int
	End     int
	Fixed   int
	Problem *program.Problem
	Result  *solver.Result
}

// Run executes cfg.Steps steps from p, which must have its components
// registered. Steps completed before a failure are returned with the error.
func Run(ctx context.Context, p *formulation.Pipeline, solvers *solver.Registry, cfg Config) ([]*Step, error) {
	finest := p.Horizon().Finest()
	if cfg.Steps < 1 || cfg.Steps > finest.Size() {
		return nil, fmt.Errorf("%w: %d steps over %d '%s' intervals", ErrSteps, cfg.Steps, finest.Size(), finest.Name())
	}
	logger := ctxlog.FromContext(ctx)

	var steps []*Step
	var prev *Step
	for k := 0; k < cfg.Steps; k++ {
		if err := ctx.Err(); err != nil {
			return steps, err
		}
		step := &Step{
			Number: k,
			Start:  k * finest.Size() / cfg.Steps,
			End:    (k + 1) * finest.Size() / cfg.Steps,
		}

		opts := append([]formulation.Option{}, cfg.Pipeline...)
		if prev != nil {
			fixed, err := earlier(p.Horizon(), prev, step.Start)
			if err != nil {
				return steps, err
			}
			step.Fixed = len(fixed)
			opts = append(opts, formulation.WithFixed(fixed))
		}

		np, err := p.Restart(opts...)
		if err != nil {
			return steps, err
		}
		form, err := np.Run(ctx, cfg.Families, cfg.Objective)
		if err != nil {
			return steps, fmt.Errorf("step %d: %w", k, err)
		}
		step.Problem = form.Problem

		res, err := solvers.Solve(ctx, cfg.Solver, form.Problem, cfg.Options)
		step.Result = res
		if err != nil {
			return append(steps, step), fmt.Errorf("step %d: %w", k, err)
		}
		steps = append(steps, step)
		prev = step

		logger.Info("Rolling step finished.",
			"step", k,
			"window", fmt.Sprintf("[%d, %d)", step.Start, step.End),
			"fixed", step.Fixed,
			"objective", res.ObjectiveValue,
		)
	}
	return steps, nil
}

// earlier collects the solved values of every variable whose interval ends
// at or before start, in finest-level units.
func earlier(h *scale.Hierarchy, prev *Step, start int) (map[string]float64, error) {
	finest := h.Finest()
	fixed := make(map[string]float64)
	for _, v := range prev.Problem.Variables {
		level, ok := h.Level(v.Key.Level)
		if !ok {
			return nil, fmt.Errorf("%w: variable '%s' has unknown level '%s'", scale.ErrIncomparableScale, v.Name, v.Key.Level)
		}
		span := finest.Size() / level.Size()
		if (v.Flat+1)*span > start {
			continue
		}
		val, ok := prev.Result.Value(v.Name)
		if !ok {
			continue
		}
		fixed[v.Name] = val
	}
	return fixed, nil
}
