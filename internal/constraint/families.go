// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package constraint

import (
	"fmt"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
)

// Families applies one bound-type rule across whole families. Each operand
// family lives at its own level; the constraint is generated at the finest
// of them and coarser operands are projected onto it. A plain parameter
// coarser than the variable is a total over its period instead: the
// variables it covers are summed against it.
type Families struct {
	Rule       program.Rule
	Family     string
	Variables  []*program.Variable
	Parameters []*program.Parameter
	Associated []*program.Variable
	Penalty    []*program.Parameter
}

// Each generates f at every index of its finest operand level.
func (g *Generator) Each(f Families) (*Output, error) {
	if len(f.Variables) == 0 {
		return nil, fmt.Errorf("%w: %s %s without variables", ErrRule, f.Family, f.Rule)
	}
	lv, err := g.familyLevel(f.Variables[0].Key, len(f.Variables))
	if err != nil {
		return nil, err
	}
	drive := lv

	var lp, la, lpen *scale.Level
	if len(f.Parameters) > 0 {
		if lp, err = g.familyLevel(f.Parameters[0].Key, len(f.Parameters)); err != nil {
			return nil, err
		}
		drive = finest(drive, lp)
	}
	if len(f.Associated) > 0 {
		if la, err = g.familyLevel(f.Associated[0].Key, len(f.Associated)); err != nil {
			return nil, err
		}
		drive = finest(drive, la)
	}
	if len(f.Penalty) > 0 {
		if lpen, err = g.familyLevel(f.Penalty[0].Key, len(f.Penalty)); err != nil {
			return nil, err
		}
		drive = finest(drive, lpen)
	}
	if lp != nil && scale.Finer(lv, lp) && !f.Parameters[0].IsVariable() {
		return g.aggregate(f, lv, lp, la, lpen)
	}

	out := &Output{}
	for i := 0; i < drive.Size(); i++ {
		idx, err := g.h.IndexOf(drive, i)
		if err != nil {
			return nil, err
		}
		s := Spec{Rule: f.Rule, Family: f.Family, Index: idx}

		j, err := scale.Project(drive, i, lv)
		if err != nil {
			return nil, err
		}
		s.Variable = f.Variables[j]
		if lp != nil {
			if j, err = scale.Project(drive, i, lp); err != nil {
				return nil, err
			}
			s.Parameter = f.Parameters[j]
		}
		if la != nil {
			if j, err = scale.Project(drive, i, la); err != nil {
				return nil, err
			}
			s.Associated = f.Associated[j]
		}
		if lpen != nil {
			if j, err = scale.Project(drive, i, lpen); err != nil {
				return nil, err
			}
			s.Penalty = f.Penalty[j]
		}

		o, err := g.Generate(s)
		if err != nil {
			return nil, err
		}
		out.merge(o)
	}
	return out, nil
}

// aggregate generates f once per index of the parameter level lp, summing
// the variables at lv that the index covers.
func (g *Generator) aggregate(f Families, lv, lp, la, lpen *scale.Level) (*Output, error) {
	relaxed := len(f.Penalty) > 0 && la != nil
	switch {
	case relaxed && la != lv:
		return nil, fmt.Errorf("%w: unmet '%s' must share the level of '%s'", ErrScaleMismatch, f.Associated[0].Key, f.Variables[0].Key)
	case !relaxed && la != nil && scale.Finer(la, lp):
		return nil, fmt.Errorf("%w: '%s' is finer than total '%s'", ErrScaleMismatch, f.Associated[0].Key, f.Parameters[0].Key)
	case lpen != nil && scale.Finer(lpen, lp):
		return nil, fmt.Errorf("%w: penalty '%s' is finer than total '%s'", ErrScaleMismatch, f.Penalty[0].Key, f.Parameters[0].Key)
	}

	out := &Output{}
	for i := 0; i < lp.Size(); i++ {
		idx, err := g.h.IndexOf(lp, i)
		if err != nil {
			return nil, err
		}
		start, count, err := scale.Children(lp, i, lv)
		if err != nil {
			return nil, err
		}
		vars := f.Variables[start : start+count]
		s := Spec{Rule: f.Rule, Family: f.Family, Index: idx, Variable: vars[0], Over: vars, Parameter: f.Parameters[i]}

		if la != nil {
			if relaxed {
				s.Associated = f.Associated[start]
				s.OverAssociated = f.Associated[start : start+count]
			} else {
				j, err := scale.Project(lp, i, la)
				if err != nil {
					return nil, err
				}
				s.Associated = f.Associated[j]
			}
		}
		if lpen != nil {
			j, err := scale.Project(lp, i, lpen)
			if err != nil {
				return nil, err
			}
			s.Penalty = f.Penalty[j]
		}

		o, err := g.Generate(s)
		if err != nil {
			return nil, err
		}
		out.merge(o)
	}
	return out, nil
}

// Flow is one signed family entering a balance.
type Flow struct {
	Vars []*program.Variable
	Coef float64
}

// BalanceSpec is a per-index balance: sum of coef * flow == external.
type BalanceSpec struct {
	Family string
	Key    disposition.Key
	Level  *scale.Level
	Flows  []Flow
	// External is an optional right-hand side per flat index of Level.
	External []program.Expr
}

// Balance emits one BALANCE constraint per index of s.Level. Flows at a finer
// level are summed over the index; coarser flows are rejected.
func (g *Generator) Balance(s BalanceSpec) (*Output, error) {
	if !g.h.Contains(s.Level) {
		return nil, fmt.Errorf("%w: balance level '%s' is not part of the horizon", ErrScaleMismatch, s.Level)
	}
	if s.External != nil && len(s.External) != s.Level.Size() {
		return nil, fmt.Errorf("%w: %d external terms for %d indices", ErrScaleMismatch, len(s.External), s.Level.Size())
	}

	levels := make([]*scale.Level, len(s.Flows))
	for k, f := range s.Flows {
		if len(f.Vars) == 0 {
			continue
		}
		lvl, err := g.familyLevel(f.Vars[0].Key, len(f.Vars))
		if err != nil {
			return nil, err
		}
		if scale.Finer(s.Level, lvl) {
			return nil, fmt.Errorf("%w: flow '%s' is coarser than balance '%s'", ErrScaleMismatch, f.Vars[0].Key, s.Key)
		}
		levels[k] = lvl
	}

	out := &Output{}
	for t := 0; t < s.Level.Size(); t++ {
		var lhs program.Expr
		for k, f := range s.Flows {
			if levels[k] == nil {
				continue
			}
			start, count, err := scale.Children(s.Level, t, levels[k])
			if err != nil {
				return nil, err
			}
			for _, v := range f.Vars[start : start+count] {
				lhs = lhs.Add(program.VarExpr(v, f.Coef))
			}
		}
		rhs := program.Const(0)
		if s.External != nil {
			rhs = s.External[t]
		}
		if !lhs.HasVariables() {
			if rhs.IsConstant() && rhs.Constant == 0 {
				continue
			}
			return nil, fmt.Errorf("%w: balance '%s' has demand but no flows", ErrRule, s.Key)
		}
		idx, err := g.h.IndexOf(s.Level, t)
		if err != nil {
			return nil, err
		}
		c := g.emit(program.RuleBalance, s.Family, s.Key, idx, lhs, program.EQ, rhs, s.Key.At(idx).String())
		out.Constraints = append(out.Constraints, c)
	}
	return out, nil
}

// LinkSpec is an inventory family with its charge and discharge families, all
// at one level.
type LinkSpec struct {
	Family    string
	Inventory []*program.Variable
	Charge    []*program.Variable
	Discharge []*program.Variable
}

// Link emits inventory[t] == inventory[t-1] + charge[t] - discharge[t]. The
// first index has no predecessor: inventory[0] == charge[0] - discharge[0].
// The horizon does not wrap.
func (g *Generator) Link(s LinkSpec) (*Output, error) {
	n := len(s.Inventory)
	if n == 0 || len(s.Charge) != n || len(s.Discharge) != n {
		return nil, fmt.Errorf("%w: inventory %d, charge %d, discharge %d indices", ErrScaleMismatch, n, len(s.Charge), len(s.Discharge))
	}
	for _, fam := range [][]*program.Variable{s.Charge, s.Discharge} {
		if fam[0].Key.Level != s.Inventory[0].Key.Level {
			return nil, fmt.Errorf("%w: '%s' and '%s'", ErrScaleMismatch, fam[0].Key, s.Inventory[0].Key)
		}
	}

	out := &Output{}
	for t := 0; t < n; t++ {
		lhs := program.VarExpr(s.Inventory[t], 1)
		if t > 0 {
			lhs = lhs.Add(program.VarExpr(s.Inventory[t-1], -1))
		}
		lhs = program.Sum(lhs, program.VarExpr(s.Charge[t], -1), program.VarExpr(s.Discharge[t], 1))
		inv := s.Inventory[t]
		c := g.emit(program.RuleLink, s.Family, inv.Key, inv.Index, lhs, program.EQ, program.Const(0), inv.Name)
		out.Constraints = append(out.Constraints, c)
	}
	return out, nil
}

func (g *Generator) familyLevel(k disposition.Key, n int) (*scale.Level, error) {
	lvl, ok := g.h.Level(k.Level)
	if !ok {
		return nil, fmt.Errorf("%w: '%s' is not indexed on this horizon", ErrScaleMismatch, k)
	}
	if lvl.Size() != n {
		return nil, fmt.Errorf("%w: '%s' has %d entries, level '%s' has %d", ErrScaleMismatch, k, n, lvl.Name(), lvl.Size())
	}
	return lvl, nil
}

func finest(a, b *scale.Level) *scale.Level {
	if scale.Finer(b, a) {
		return b
	}
	return a
}
