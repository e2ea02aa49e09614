// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package program

import (
	"fmt"

	"github.com/google/uuid"
)

// ObjectiveKind selects what the objective measures.
type ObjectiveKind string

const (
	ObjectiveCost     ObjectiveKind = "cost"
	ObjectiveEmission ObjectiveKind = "emission"
)

// Objective is always minimised.
type Objective struct {
	Kind ObjectiveKind
	Expr Expr
}

// Problem is a complete, read-only mathematical program.
type Problem struct {
	ID          uuid.UUID
	Name        string
	Variables   []*Variable
	Constraints []*Constraint
	Objective   Objective
	Symbols     []*Symbol
}

// Parametric reports whether any symbol is still unresolved.
func (p *Problem) Parametric() bool { return len(p.Symbols) > 0 }

// Variable looks a variable up by name.
func (p *Problem) Variable(name string) (*Variable, bool) {
	for _, v := range p.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// Constraint looks a constraint up by name.
func (p *Problem) Constraint(name string) (*Constraint, bool) {
	for _, c := range p.Constraints {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Realize substitutes every parametric symbol with theta[symbol name] and
// returns the resulting concrete problem under a new ID. Values must lie in
// each symbol's range.
func (p *Problem) Realize(theta map[string]float64) (*Problem, error) {
	for _, s := range p.Symbols {
		v, ok := theta[s.Name]
		if !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnrealized, s.Name)
		}
		if v < s.Range.Low || v > s.Range.High {
			return nil, fmt.Errorf("%w: '%s'=%g not in [%g, %g]", ErrOutOfRange, s.Name, v, s.Range.Low, s.Range.High)
		}
	}

	out := &Problem{
		ID:          uuid.New(),
		Name:        p.Name,
		Variables:   p.Variables,
		Constraints: make([]*Constraint, len(p.Constraints)),
		Objective:   Objective{Kind: p.Objective.Kind, Expr: fold(p.Objective.Expr, theta)},
	}
	for i, c := range p.Constraints {
		cc := *c
		cc.LHS = fold(c.LHS, theta)
		cc.RHS = fold(c.RHS, theta)
		out.Constraints[i] = &cc
	}
	return out, nil
}

func fold(e Expr, theta map[string]float64) Expr {
	if !e.HasSymbols() {
		return e
	}
	out := Expr{Terms: e.Terms, Constant: e.Constant}
	for _, s := range e.Symbols {
		out.Constant += s.Coef * theta[s.Symbol.Name]
	}
	return out
}
