package app

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/rodaine/table"

	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver/lpfile"
)

func (a *App) printReport(r *Report) {
	tbl := table.New("Scenario", "Step", "Probability", "Status", "Objective", "Variables", "Constraints", "Snapshot").
		WithWriter(a.outW)
	for _, o := range sortedOutcomes(r) {
		status, objective := "error", "-"
		if o.Result != nil {
			status = string(o.Result.Status)
			if o.Result.IsOptimal() {
				objective = fmt.Sprintf("%.6g", o.Result.ObjectiveValue)
			}
		}
		snapshot := "-"
		if o.Snapshot != uuid.Nil {
			snapshot = o.Snapshot.String()
		}
		tbl.AddRow(o.Scenario, o.Step, fmt.Sprintf("%g", o.Probability), status, objective,
			len(o.Problem.Variables), len(o.Problem.Constraints), snapshot)
	}
	tbl.Print()
	fmt.Fprintf(a.outW, "\nExpected objective: %.6g\n", r.Expected)
}

// Inspect formulates the base scenario without solving it and prints the
// size of the program by variable family and by constraint family and rule.
func (a *App) Inspect(ctx context.Context) error {
	ctx = a.Context(ctx)
	s, err := a.scenarios()
	if err != nil {
		return err
	}
	ovs, err := a.overrides(s[0])
	if err != nil {
		return err
	}
	form, err := a.formulate(ctx, s[0].Name, ovs)
	if err != nil {
		return err
	}
	p := form.Problem

	fmt.Fprintf(a.outW, "Formulation %s (%s): %d variables, %d constraints, %d parametric symbols\n\n",
		p.Name, p.ID, len(p.Variables), len(p.Constraints), len(p.Symbols))

	vars := table.New("Variable family", "Domain", "Count").WithWriter(a.outW)
	for _, row := range countVariables(p) {
		vars.AddRow(row.name, row.domain, row.count)
	}
	vars.Print()
	fmt.Fprintln(a.outW)

	cons := table.New("Constraint family", "Rule", "Count").WithWriter(a.outW)
	for _, row := range countConstraints(p) {
		cons.AddRow(row.family, row.rule, row.count)
	}
	cons.Print()
	return nil
}

// Export formulates the base scenario and writes it to w as an LP file.
func (a *App) Export(ctx context.Context, w io.Writer) error {
	ctx = a.Context(ctx)
	s, err := a.scenarios()
	if err != nil {
		return err
	}
	ovs, err := a.overrides(s[0])
	if err != nil {
		return err
	}
	form, err := a.formulate(ctx, s[0].Name, ovs)
	if err != nil {
		return err
	}
	if err := lpfile.Write(w, form.Problem); err != nil {
		return err
	}
	a.logger.Info("Formulation exported.", "id", form.Problem.ID.String(), "parametric", form.Problem.Parametric())
	return nil
}

type variableCount struct {
	name   string
	domain string
	count  int
}

func countVariables(p *program.Problem) []variableCount {
	idx := make(map[string]int)
	var out []variableCount
	for _, v := range p.Variables {
		name := fmt.Sprintf("%s.%s@%s", v.Key.Component, v.Key.Aspect, v.Key.Scope)
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, variableCount{name: name, domain: v.Domain.String()})
		}
		out[i].count++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

type constraintCount struct {
	family string
	rule   program.Rule
	count  int
}

func countConstraints(p *program.Problem) []constraintCount {
	type key struct {
		family string
		rule   program.Rule
	}
	counts := make(map[key]int)
	for _, c := range p.Constraints {
		counts[key{c.Family, c.Rule}]++
	}
	out := make([]constraintCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, constraintCount{family: k.family, rule: k.rule, count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].family != out[j].family {
			return out[i].family < out[j].family
		}
		return out[i].rule < out[j].rule
	})
	return out
}
