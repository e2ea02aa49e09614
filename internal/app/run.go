package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/energiago/internal/ctxlog"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/rolling"
	"github.com/specialistvlad/energiago/internal/scenario"
	"github.com/specialistvlad/energiago/internal/solver"
)

const baseScenario = "base"

// Outcome is the solve of one scenario or one rolling step.
type Outcome struct {
	Scenario    string
	Probability float64
	Step        int
	Problem     *program.Problem
	Result      *solver.Result
	Snapshot    uuid.UUID
	Err         error
}

// Report collects every outcome of a run.
type Report struct {
	Outcomes []*Outcome
	// Expected is the probability-weighted objective over optimal outcomes.
	Expected float64
}

// Failed returns the outcomes that did not solve to optimality.
func (r *Report) Failed() []*Outcome {
	var out []*Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Run solves the loaded system: a scenario ensemble when a scenario file is
// configured, a rolling horizon when more than one step is requested, a
// single solve otherwise. Solver failures are kept in the report; the
// returned error then wraps the first of them.
func (a *App) Run(ctx context.Context) (*Report, error) {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.")

	scenarios, err := a.scenarios()
	if err != nil {
		return nil, err
	}

	var report *Report
	if a.config.Steps > 1 {
		report, err = a.runRolling(ctx, scenarios[0])
	} else {
		report, err = a.runEnsemble(ctx, scenarios)
	}
	if err != nil {
		return nil, err
	}

	if err := a.persist(ctx, report); err != nil {
		return report, err
	}
	a.printReport(report)
	if a.config.MetricsFile != "" {
		if err := a.metrics.WriteTextfile(a.config.MetricsFile); err != nil {
			return report, err
		}
	}

	a.logger.Info("Run finished.", "outcomes", len(report.Outcomes), "failed", len(report.Failed()), "expected_objective", report.Expected)
	if failed := report.Failed(); len(failed) > 0 {
		return report, failed[0].Err
	}
	return report, nil
}

// scenarios reads the scenario file, or returns the single base scenario.
// Factor table columns apply to every scenario unless it sets the same key.
func (a *App) scenarios() ([]*scenario.Scenario, error) {
	table := map[string][]float64{}
	if a.config.Factors != "" {
		t, err := scenario.ReadTableFile(a.config.Factors)
		if err != nil {
			return nil, err
		}
		table = t
	}

	set := []*scenario.Scenario{{Name: baseScenario, Probability: 1}}
	if a.config.Scenarios != "" {
		s, err := scenario.ReadFile(a.config.Scenarios)
		if err != nil {
			return nil, err
		}
		set = s
	}

	for _, s := range set {
		for k, v := range table {
			if _, ok := s.Factors[k]; ok {
				a.logger.Warn("Scenario factor shadows the factor table.", "scenario", s.Name, "key", k)
				continue
			}
			if s.Factors == nil {
				s.Factors = make(map[string][]float64, len(table))
			}
			s.Factors[k] = v
		}
	}
	return set, nil
}

func (a *App) overrides(s *scenario.Scenario) ([]formulation.Override, error) {
	factors, err := s.SystemFactors()
	if err != nil {
		return nil, err
	}
	ovs, err := a.system.ApplyFactors(factors...)
	if err != nil {
		return nil, fmt.Errorf("scenario '%s': %w", s.Name, err)
	}
	return ovs, nil
}

// runEnsemble formulates and solves every scenario independently, at most
// Workers at a time.
func (a *App) runEnsemble(ctx context.Context, scenarios []*scenario.Scenario) (*Report, error) {
	outcomes := make([]*Outcome, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)

	for i, s := range scenarios {
		g.Go(func() error {
			sctx := ctxlog.With(gctx, "scenario", s.Name)
			ovs, err := a.overrides(s)
			if err != nil {
				return err
			}
			form, err := a.formulate(sctx, s.Name, ovs)
			if err != nil {
				return fmt.Errorf("scenario '%s': %w", s.Name, err)
			}
			prob, err := realize(sctx, form.Problem, s.Theta)
			if err != nil {
				return fmt.Errorf("scenario '%s': %w", s.Name, err)
			}
			res, err := a.solvers.Solve(sctx, a.config.Solver, prob, a.config.Options)
			var ese *solver.ExternalSolveError
			if err != nil && !errors.As(err, &ese) {
				return fmt.Errorf("scenario '%s': %w", s.Name, err)
			}
			outcomes[i] = &Outcome{Scenario: s.Name, Probability: s.Probability, Problem: prob, Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Result.IsOptimal() {
			report.Expected += o.Probability * o.Result.ObjectiveValue
		}
	}
	return report, nil
}

// realize substitutes the scenario's parametric values when the problem has
// symbols and the scenario sets any.
func realize(ctx context.Context, p *program.Problem, theta map[string]float64) (*program.Problem, error) {
	if !p.Parametric() || len(theta) == 0 {
		return p, nil
	}
	out, err := p.Realize(theta)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Parametric symbols realised.", "symbols", len(p.Symbols), "problem", out.ID.String())
	return out, nil
}

func (a *App) runRolling(ctx context.Context, s *scenario.Scenario) (*Report, error) {
	ovs, err := a.overrides(s)
	if err != nil {
		return nil, err
	}
	p, err := a.pipeline(ctx, s.Name, nil)
	if err != nil {
		return nil, err
	}
	steps, err := rolling.Run(ctx, p, a.solvers, rolling.Config{
		Steps:     a.config.Steps,
		Families:  a.config.Families,
		Objective: a.objective(),
		Solver:    a.config.Solver,
		Options:   a.config.Options,
		Pipeline:  []formulation.Option{formulation.WithOverrides(ovs...)},
	})
	var ese *solver.ExternalSolveError
	if err != nil && !errors.As(err, &ese) {
		return nil, err
	}

	report := &Report{}
	for _, st := range steps {
		o := &Outcome{Scenario: s.Name, Probability: s.Probability, Step: st.Number, Problem: st.Problem, Result: st.Result}
		if !st.Result.IsOptimal() {
			o.Err = err
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	if n := len(steps); n > 0 && steps[n-1].Result.IsOptimal() {
		report.Expected = steps[n-1].Result.ObjectiveValue
	}
	return report, nil
}

// persist stores every outcome that has a result.
func (a *App) persist(ctx context.Context, report *Report) error {
	if a.config.SnapshotDB == "" {
		return nil
	}
	store, err := scenario.Open(a.config.SnapshotDB)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, o := range report.Outcomes {
		if o.Result == nil {
			continue
		}
		id, err := store.Save(ctx, &scenario.Snapshot{
			ID:        o.Problem.ID,
			Name:      o.Problem.Name,
			Scenario:  o.Scenario,
			Status:    string(o.Result.Status),
			Objective: o.Result.ObjectiveValue,
			Values:    o.Result.VariableValues,
		})
		if err != nil {
			return err
		}
		o.Snapshot = id
	}
	a.logger.Info("Snapshots saved.", "path", a.config.SnapshotDB, "count", len(report.Outcomes))
	return nil
}

// sortedOutcomes orders outcomes by scenario then step.
func sortedOutcomes(r *Report) []*Outcome {
	out := append([]*Outcome(nil), r.Outcomes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scenario != out[j].Scenario {
			return out[i].Scenario < out[j].Scenario
		}
		return out[i].Step < out[j].Step
	})
	return out
}
