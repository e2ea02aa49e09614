// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package program is the solver-neutral mathematical program: indexed
// variables, parameters and parametric symbols, linear expressions,
// rule-tagged constraints and the objective.
package program

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/value"
)

// Domain is the domain of a decision variable.
type Domain int

const (
	// Continuous variables are non-negative reals.
	Continuous Domain = iota
	// Binary variables take 0 or 1.
	Binary
)

func (d Domain) String() string {
	if d == Binary {
		return "binary"
	}
	return "continuous"
}

// Variable is one indexed decision quantity.
type Variable struct {
	ID     int
	Name   string
	Key    disposition.Key
	Index  scale.Index
	Flat   int
	Domain Domain
}

func (v *Variable) String() string { return v.Name }

// Symbol is one indexed parametric quantity, left unresolved for
// multiparametric analysis.
type Symbol struct {
	ID    int
	Name  string
	Key   disposition.Key
	Index scale.Index
	Flat  int
	Range value.Range
}

func (s *Symbol) String() string { return s.Name }

// Parameter is the resolved coefficient of one disposition at one index.
type Parameter struct {
	Key   disposition.Key
	Index scale.Index
	Flat  int
	Kind  value.Kind

	// Value is the number for exact, free (Big-M) and numeric factor parameters.
	Value float64

	// Bounded parameters. A free side is realised as Big-M (upper) or dropped (lower).
	Lower     float64
	Upper     float64
	LowerFree bool
	UpperFree bool

	// Nominal is set when a factor multiplies another disposition's variable.
	Nominal *Variable
	Factor  float64

	// Symbol is set for parametric parameters.
	Symbol *Symbol
}

// Name is the element form of the parameter's key.
func (p *Parameter) Name() string {
	return p.Key.At(p.Index).String()
}

// Expr returns the parameter as a linear expression: a constant, a scaled
// nominal variable or a symbol. Bounded parameters have no single
// expression; use LowerExpr and UpperExpr.
func (p *Parameter) Expr() Expr {
	switch {
	case p.Symbol != nil:
		return SymbolExpr(p.Symbol, 1)
	case p.Nominal != nil:
		return VarExpr(p.Nominal, p.Factor)
	default:
		return Const(p.Value)
	}
}

// IsVariable reports whether the parameter depends on a decision variable.
func (p *Parameter) IsVariable() bool { return p.Nominal != nil }

func (p *Parameter) String() string {
	switch p.Kind {
	case value.KindBounded:
		return fmt.Sprintf("%s=[%g, %g]", p.Name(), p.Lower, p.Upper)
	case value.KindParametric:
		return fmt.Sprintf("%s=%s", p.Name(), p.Symbol)
	}
	if p.Nominal != nil {
		return fmt.Sprintf("%s=%g*%s", p.Name(), p.Factor, p.Nominal)
	}
	return fmt.Sprintf("%s=%g", p.Name(), p.Value)
}
