// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package program

import (
	"fmt"
	"strings"
)

// Term is coef * variable.
type Term struct {
	Var  *Variable
	Coef float64
}

// SymbolTerm is coef * symbol.
type SymbolTerm struct {
	Symbol *Symbol
	Coef   float64
}

// Expr is a linear expression over variables and parametric symbols.
// Values are immutable; every operation returns a new Expr.
type Expr struct {
	Terms    []Term
	Symbols  []SymbolTerm
	Constant float64
}

// Const returns the constant expression c.
func Const(c float64) Expr { return Expr{Constant: c} }

// VarExpr returns coef * v.
func VarExpr(v *Variable, coef float64) Expr {
	return Expr{Terms: []Term{{Var: v, Coef: coef}}}
}

// SymbolExpr returns coef * s.
func SymbolExpr(s *Symbol, coef float64) Expr {
	return Expr{Symbols: []SymbolTerm{{Symbol: s, Coef: coef}}}
}

// Sum adds expressions.
func Sum(exprs ...Expr) Expr {
	var out Expr
	for _, e := range exprs {
		out = out.Add(e)
	}
	return out
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	out := Expr{
		Terms:    make([]Term, 0, len(e.Terms)+len(o.Terms)),
		Symbols:  make([]SymbolTerm, 0, len(e.Symbols)+len(o.Symbols)),
		Constant: e.Constant + o.Constant,
	}
	out.Terms = append(append(out.Terms, e.Terms...), o.Terms...)
	out.Symbols = append(append(out.Symbols, e.Symbols...), o.Symbols...)
	return out
}

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr { return e.Add(o.Scale(-1)) }

// Scale returns f * e.
func (e Expr) Scale(f float64) Expr {
	out := Expr{
		Terms:    make([]Term, len(e.Terms)),
		Symbols:  make([]SymbolTerm, len(e.Symbols)),
		Constant: e.Constant * f,
	}
	for i, t := range e.Terms {
		out.Terms[i] = Term{Var: t.Var, Coef: t.Coef * f}
	}
	for i, s := range e.Symbols {
		out.Symbols[i] = SymbolTerm{Symbol: s.Symbol, Coef: s.Coef * f}
	}
	return out
}

// IsConstant reports whether e has no variable and no symbol terms.
func (e Expr) IsConstant() bool { return len(e.Terms) == 0 && len(e.Symbols) == 0 }

// HasVariables reports whether e references any decision variable.
func (e Expr) HasVariables() bool { return len(e.Terms) > 0 }

// HasSymbols reports whether e references any parametric symbol.
func (e Expr) HasSymbols() bool { return len(e.Symbols) > 0 }

// Simplify merges repeated variables and symbols, keeping first-appearance
// order, and drops zero coefficients.
func (e Expr) Simplify() Expr {
	out := Expr{Constant: e.Constant}

	pos := make(map[int]int)
	for _, t := range e.Terms {
		if i, ok := pos[t.Var.ID]; ok {
			out.Terms[i].Coef += t.Coef
			continue
		}
		pos[t.Var.ID] = len(out.Terms)
		out.Terms = append(out.Terms, t)
	}
	terms := out.Terms[:0]
	for _, t := range out.Terms {
		if t.Coef != 0 {
			terms = append(terms, t)
		}
	}
	out.Terms = terms

	spos := make(map[int]int)
	for _, s := range e.Symbols {
		if i, ok := spos[s.Symbol.ID]; ok {
			out.Symbols[i].Coef += s.Coef
			continue
		}
		spos[s.Symbol.ID] = len(out.Symbols)
		out.Symbols = append(out.Symbols, s)
	}
	syms := out.Symbols[:0]
	for _, s := range out.Symbols {
		if s.Coef != 0 {
			syms = append(syms, s)
		}
	}
	out.Symbols = syms
	return out
}

// Eval evaluates e with variable values keyed by variable name and symbol
// values keyed by symbol name. Missing entries count as zero.
func (e Expr) Eval(values, theta map[string]float64) float64 {
	total := e.Constant
	for _, t := range e.Terms {
		total += t.Coef * values[t.Var.Name]
	}
	for _, s := range e.Symbols {
		total += s.Coef * theta[s.Symbol.Name]
	}
	return total
}

func (e Expr) String() string {
	var b strings.Builder
	write := func(coef float64, name string) {
		switch {
		case b.Len() == 0 && coef < 0:
			b.WriteString("-")
		case b.Len() == 0:
		case coef < 0:
			b.WriteString(" - ")
		default:
			b.WriteString(" + ")
		}
		if c := abs(coef); c != 1 || name == "" {
			fmt.Fprintf(&b, "%g", c)
			if name != "" {
				b.WriteString(" ")
			}
		}
		b.WriteString(name)
	}
	for _, t := range e.Terms {
		write(t.Coef, t.Var.Name)
	}
	for _, s := range e.Symbols {
		write(s.Coef, s.Symbol.Name)
	}
	if e.Constant != 0 || b.Len() == 0 {
		write(e.Constant, "")
	}
	return b.String()
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
