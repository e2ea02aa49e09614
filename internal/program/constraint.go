// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package program

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/scale"
)

// Rule is the closed vocabulary of constraint shapes.
type Rule string

const (
	RuleLEQ     Rule = "LEQ"
	RuleGEQ     Rule = "GEQ"
	RuleEQ      Rule = "EQ"
	RuleLEQBy   Rule = "LEQ_BY"
	RuleBalance Rule = "BALANCE"
	RuleLink    Rule = "LINK"
)

// Rules lists every rule in a stable order.
var Rules = []Rule{RuleLEQ, RuleGEQ, RuleEQ, RuleLEQBy, RuleBalance, RuleLink}

// Relation is the comparison of a constraint.
type Relation int

const (
	LE Relation = iota
	GE
	EQ
)

func (r Relation) String() string {
	switch r {
	case LE:
		return "<="
	case GE:
		return ">="
	default:
		return "="
	}
}

// Constraint is LHS Sense RHS, tagged with the rule that generated it and the
// disposition it belongs to.
type Constraint struct {
	Name   string
	Rule   Rule
	Family string
	Key    disposition.Key
	Index  scale.Index
	LHS    Expr
	Sense  Relation
	RHS    Expr
}

// Row is a constraint in solver form: sum(coef*var) + sum(coef*symbol) Sense RHS.
type Row struct {
	Terms   []Term
	Symbols []SymbolTerm
	Sense   Relation
	RHS     float64
}

// Normalized moves every term to the left and every constant to the right.
func (c *Constraint) Normalized() Row {
	diff := c.LHS.Sub(c.RHS).Simplify()
	return Row{Terms: diff.Terms, Symbols: diff.Symbols, Sense: c.Sense, RHS: -diff.Constant}
}

// Satisfied reports whether the constraint holds within tol for the given
// variable values and symbol values.
func (c *Constraint) Satisfied(values, theta map[string]float64, tol float64) bool {
	diff := c.LHS.Sub(c.RHS).Eval(values, theta)
	switch c.Sense {
	case LE:
		return diff <= tol
	case GE:
		return diff >= -tol
	default:
		return diff <= tol && diff >= -tol
	}
}

func (c *Constraint) String() string {
	return fmt.Sprintf("%s: %s %s %s", c.Name, c.LHS, c.Sense, c.RHS)
}

// ConstraintSet is an ordered collection of uniquely named constraints that
// can be filtered by rule, disposition or family.
type ConstraintSet struct {
	items []*Constraint
	names map[string]struct{}
}

// NewConstraintSet creates an empty set.
func NewConstraintSet() *ConstraintSet {
	return &ConstraintSet{names: make(map[string]struct{})}
}

// Add appends constraints, rejecting duplicate names.
func (s *ConstraintSet) Add(cs ...*Constraint) error {
	for _, c := range cs {
		if _, dup := s.names[c.Name]; dup {
			return fmt.Errorf("%w: '%s'", ErrDuplicateConstraint, c.Name)
		}
		s.names[c.Name] = struct{}{}
		s.items = append(s.items, c)
	}
	return nil
}

// All returns the constraints in insertion order.
func (s *ConstraintSet) All() []*Constraint {
	out := make([]*Constraint, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of constraints.
func (s *ConstraintSet) Len() int { return len(s.items) }

// Where returns the constraints matching pred.
func (s *ConstraintSet) Where(pred func(*Constraint) bool) []*Constraint {
	var out []*Constraint
	for _, c := range s.items {
		if pred(c) {
			out = append(out, c)
		}
	}
	return out
}

// ByRule returns the constraints generated by r.
func (s *ConstraintSet) ByRule(r Rule) []*Constraint {
	return s.Where(func(c *Constraint) bool { return c.Rule == r })
}

// RemoveWhere drops matching constraints and returns how many were removed.
func (s *ConstraintSet) RemoveWhere(pred func(*Constraint) bool) int {
	kept := s.items[:0]
	removed := 0
	for _, c := range s.items {
		if pred(c) {
			delete(s.names, c.Name)
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.items = kept
	return removed
}

// RemoveRule drops every constraint generated by r.
func (s *ConstraintSet) RemoveRule(r Rule) int {
	return s.RemoveWhere(func(c *Constraint) bool { return c.Rule == r })
}

// RemoveKey drops every constraint anchored at k.
func (s *ConstraintSet) RemoveKey(k disposition.Key) int {
	return s.RemoveWhere(func(c *Constraint) bool { return c.Key == k })
}

// RemoveFamily drops every constraint of a family.
func (s *ConstraintSet) RemoveFamily(family string) int {
	return s.RemoveWhere(func(c *Constraint) bool { return c.Family == family })
}
