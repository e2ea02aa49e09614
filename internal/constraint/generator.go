// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package constraint turns resolved parameters and variables into
// rule-tagged constraints.
package constraint

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/value"
)

// Spec is one request for a bound-type rule at one index.
type Spec struct {
	Rule   program.Rule
	Family string

	Variable *program.Variable
	// Parameter is the right-hand side. For LEQ_BY a nil parameter means a
	// coefficient of one.
	Parameter *program.Parameter
	// Associated multiplies the parameter in LEQ_BY and GEQ, or is the unmet
	// variable of a demand relaxation when Penalty is set.
	Associated *program.Variable
	// Penalty turns a GEQ with an associated variable into the demand
	// relaxation served + unmet == demand, unmet >= 0.
	Penalty *program.Parameter

	// Over, when set, is summed on the left-hand side in place of Variable,
	// which is then its first entry. OverAssociated does the same for the
	// unmet variable of a demand relaxation.
	Over           []*program.Variable
	OverAssociated []*program.Variable

	// Index is the temporal index the constraint is anchored at. Defaults to
	// the variable's index.
	Index scale.Index
}

func sum(v *program.Variable, over []*program.Variable) program.Expr {
	if len(over) == 0 {
		return program.VarExpr(v, 1)
	}
	var e program.Expr
	for _, x := range over {
		e = e.Add(program.VarExpr(x, 1))
	}
	return e
}

// Output is what a generation call produced.
type Output struct {
	Constraints []*program.Constraint
	// Objective holds additive objective terms, e.g. unmet demand penalties.
	Objective program.Expr
}

func (o *Output) merge(other *Output) {
	o.Constraints = append(o.Constraints, other.Constraints...)
	o.Objective = o.Objective.Add(other.Objective)
}

// Generator emits constraints against one horizon. Constraint names are
// made unique per generator.
type Generator struct {
	h     *scale.Hierarchy
	names map[string]int
}

// New creates a generator for h.
func New(h *scale.Hierarchy) *Generator {
	return &Generator{h: h, names: make(map[string]int)}
}

// Generate emits the constraint for s. Bound-type rules (LEQ, GEQ, EQ,
// LEQ_BY) are handled here; BALANCE and LINK have their own entry points.
// A free side yields no constraint.
func (g *Generator) Generate(s Spec) (*Output, error) {
	if s.Variable == nil {
		return nil, fmt.Errorf("%w: %s without a variable", ErrRule, s.Rule)
	}
	idx := s.Index
	if idx == nil {
		idx = s.Variable.Index
	}
	lhs := sum(s.Variable, s.Over)

	switch s.Rule {
	case program.RuleLEQ:
		if s.Parameter == nil {
			return nil, fmt.Errorf("%w: LEQ on '%s' without a parameter", ErrRule, s.Variable)
		}
		rhs, ok := side(s.Parameter, true)
		if !ok {
			return &Output{}, nil
		}
		return g.single(s, idx, lhs, program.LE, rhs), nil

	case program.RuleGEQ:
		if s.Penalty != nil {
			return g.demand(s, idx)
		}
		if s.Parameter == nil {
			return nil, fmt.Errorf("%w: GEQ on '%s' without a parameter", ErrRule, s.Variable)
		}
		rhs, ok := side(s.Parameter, false)
		if !ok {
			return &Output{}, nil
		}
		if s.Associated != nil {
			scaled, err := product(rhs, s.Associated, s.Parameter)
			if err != nil {
				return nil, err
			}
			rhs = scaled
		}
		return g.single(s, idx, lhs, program.GE, rhs), nil

	case program.RuleEQ:
		if s.Parameter == nil {
			return nil, fmt.Errorf("%w: EQ on '%s' without a parameter", ErrRule, s.Variable)
		}
		switch s.Parameter.Kind {
		case value.KindBounded, value.KindFree:
			return nil, fmt.Errorf("%w: EQ against %s parameter '%s'", ErrRule, s.Parameter.Kind, s.Parameter.Name())
		}
		return g.single(s, idx, lhs, program.EQ, s.Parameter.Expr()), nil

	case program.RuleLEQBy:
		if s.Associated == nil {
			return nil, fmt.Errorf("%w: LEQ_BY on '%s' without an associated variable", ErrRule, s.Variable)
		}
		if s.Parameter == nil {
			return g.single(s, idx, lhs, program.LE, program.VarExpr(s.Associated, 1)), nil
		}
		coef, ok := side(s.Parameter, true)
		if !ok {
			return &Output{}, nil
		}
		rhs, err := product(coef, s.Associated, s.Parameter)
		if err != nil {
			return nil, err
		}
		return g.single(s, idx, lhs, program.LE, rhs), nil

	case program.RuleBalance, program.RuleLink:
		return nil, fmt.Errorf("%w: %s is generated with Balance or Link", ErrRule, s.Rule)
	}
	return nil, fmt.Errorf("%w: unknown rule %q", ErrRule, s.Rule)
}

// Fix pins v to x with an EQ constraint in the given family.
func (g *Generator) Fix(family string, v *program.Variable, x float64) *program.Constraint {
	return g.emit(program.RuleEQ, family, v.Key, v.Index, program.VarExpr(v, 1), program.EQ, program.Const(x), v.Name)
}

// demand emits served + unmet == demand and unmet >= 0, and the penalty
// objective term.
func (g *Generator) demand(s Spec, idx scale.Index) (*Output, error) {
	if s.Associated == nil {
		return nil, fmt.Errorf("%w: demand on '%s' needs an unmet variable", ErrRule, s.Variable)
	}
	if s.Parameter == nil {
		return nil, fmt.Errorf("%w: demand on '%s' without a parameter", ErrRule, s.Variable)
	}
	demand, ok := side(s.Parameter, false)
	if !ok {
		return &Output{}, nil
	}
	penalty, ok := side(s.Penalty, true)
	if !ok || penalty.HasVariables() {
		return nil, fmt.Errorf("%w: penalty '%s' must be a number", ErrRule, s.Penalty.Name())
	}
	if penalty.HasSymbols() {
		return nil, fmt.Errorf("%w: parametric penalty '%s' times unmet '%s'", ErrBilinear, s.Penalty.Name(), s.Associated)
	}

	lhs := program.Sum(sum(s.Variable, s.Over), sum(s.Associated, s.OverAssociated))
	out := &Output{Constraints: []*program.Constraint{
		g.emit(program.RuleGEQ, s.Family, s.Variable.Key, idx, lhs, program.EQ, demand, s.Variable.Name),
	}}
	if len(s.OverAssociated) == 0 {
		out.Constraints = append(out.Constraints,
			g.emit(program.RuleGEQ, s.Family, s.Associated.Key, idx, program.VarExpr(s.Associated, 1), program.GE, program.Const(0), s.Associated.Name))
		out.Objective = program.VarExpr(s.Associated, penalty.Constant)
		return out, nil
	}
	for _, u := range s.OverAssociated {
		out.Constraints = append(out.Constraints,
			g.emit(program.RuleGEQ, s.Family, u.Key, u.Index, program.VarExpr(u, 1), program.GE, program.Const(0), u.Name))
		out.Objective = out.Objective.Add(program.VarExpr(u, penalty.Constant))
	}
	return out, nil
}

func (g *Generator) single(s Spec, idx scale.Index, lhs program.Expr, sense program.Relation, rhs program.Expr) *Output {
	c := g.emit(s.Rule, s.Family, s.Variable.Key, idx, lhs, sense, rhs, s.Variable.Name)
	return &Output{Constraints: []*program.Constraint{c}}
}

func (g *Generator) emit(rule program.Rule, family string, key disposition.Key, idx scale.Index, lhs program.Expr, sense program.Relation, rhs program.Expr, subject string) *program.Constraint {
	return &program.Constraint{
		Name:   g.name(family, rule, subject),
		Rule:   rule,
		Family: family,
		Key:    key,
		Index:  idx,
		LHS:    lhs,
		Sense:  sense,
		RHS:    rhs,
	}
}

func (g *Generator) name(family string, rule program.Rule, subject string) string {
	base := fmt.Sprintf("%s:%s:%s", family, rule, subject)
	n := g.names[base]
	g.names[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s#%d", base, n)
}

// side returns the parameter's upper or lower realisation. ok is false when
// that side is free and generates nothing.
func side(p *program.Parameter, upper bool) (program.Expr, bool) {
	switch p.Kind {
	case value.KindBounded:
		if upper {
			return program.Const(p.Upper), true
		}
		if p.LowerFree {
			return program.Expr{}, false
		}
		return program.Const(p.Lower), true
	case value.KindFree:
		if upper {
			return program.Const(p.Value), true
		}
		return program.Expr{}, false
	}
	return p.Expr(), true
}

// product multiplies a parameter expression by a decision variable. Only
// constant coefficients are linear.
func product(coef program.Expr, v *program.Variable, p *program.Parameter) (program.Expr, error) {
	switch {
	case coef.HasVariables():
		return program.Expr{}, fmt.Errorf("%w: '%s' has a variable nominal and multiplies '%s'", ErrBilinear, p.Name(), v)
	case coef.HasSymbols():
		return program.Expr{}, fmt.Errorf("%w: parametric '%s' multiplies '%s'", ErrBilinear, p.Name(), v)
	}
	return program.VarExpr(v, coef.Constant), nil
}
