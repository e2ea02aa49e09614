// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package simplex

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
)

type row struct {
	cols  []int
	coefs []float64
	sense program.Relation
	rhs   float64
}

// model is a problem in column form. Every column is non-negative.
type model struct {
	names    []string
	obj      []float64
	objConst float64
	rows     []row
	binary   []int
}

func newModel(p *program.Problem) (*model, error) {
	m := &model{
		names:    make([]string, len(p.Variables)),
		obj:      make([]float64, len(p.Variables)),
		objConst: p.Objective.Expr.Constant,
	}
	col := make(map[int]int, len(p.Variables))
	for i, v := range p.Variables {
		col[v.ID] = i
		m.names[i] = v.Name
		if v.Domain == program.Binary {
			m.binary = append(m.binary, i)
			m.rows = append(m.rows, row{cols: []int{i}, coefs: []float64{1}, sense: program.LE, rhs: 1})
		}
	}

	obj := p.Objective.Expr.Simplify()
	if obj.HasSymbols() {
		return nil, solver.ErrParametric
	}
	for _, t := range obj.Terms {
		j, ok := col[t.Var.ID]
		if !ok {
			return nil, fmt.Errorf("simplex: objective uses unknown variable '%s'", t.Var.Name)
		}
		m.obj[j] += t.Coef
	}

	for _, c := range p.Constraints {
		r := c.Normalized()
		if len(r.Symbols) > 0 {
			return nil, fmt.Errorf("%w: constraint '%s'", solver.ErrParametric, c.Name)
		}
		out := row{sense: r.Sense, rhs: r.RHS}
		for _, t := range r.Terms {
			j, ok := col[t.Var.ID]
			if !ok {
				return nil, fmt.Errorf("simplex: constraint '%s' uses unknown variable '%s'", c.Name, t.Var.Name)
			}
			out.cols = append(out.cols, j)
			out.coefs = append(out.coefs, t.Coef)
		}
		m.rows = append(m.rows, out)
	}
	return m, nil
}

// relaxation is the outcome of one LP solve.
type relaxation struct {
	status solver.Status
	x      []float64
	f      float64
}

// relax solves the LP relaxation with some columns fixed. Fixed columns are
// substituted out; columns left in no row sit at zero.
func (m *model) relax(fixed map[int]float64, tol float64) (relaxation, error) {
	n := len(m.obj)
	x := make([]float64, n)
	f := m.objConst
	for j, v := range fixed {
		x[j] = v
		f += m.obj[j] * v
	}

	type lpRow struct {
		coefs map[int]float64
		rhs   float64
		sign  float64 // slack coefficient
	}
	var rows []lpRow
	active := make(map[int]int)
	var order []int

	for _, r := range m.rows {
		rhs := r.rhs
		coefs := make(map[int]float64)
		for k, j := range r.cols {
			if v, ok := fixed[j]; ok {
				rhs -= r.coefs[k] * v
				continue
			}
			coefs[j] += r.coefs[k]
		}
		for j, c := range coefs {
			if c == 0 {
				delete(coefs, j)
			}
		}
		if len(coefs) == 0 {
			if violated(r.sense, rhs, tol) {
				return relaxation{status: solver.StatusInfeasible}, nil
			}
			continue
		}
		for _, j := range r.cols {
			if _, ok := coefs[j]; !ok {
				continue
			}
			if _, seen := active[j]; !seen {
				active[j] = len(order)
				order = append(order, j)
			}
		}
		switch r.sense {
		case program.LE:
			rows = append(rows, lpRow{coefs, rhs, 1})
		case program.GE:
			rows = append(rows, lpRow{coefs, rhs, -1})
		case program.EQ:
			rows = append(rows, lpRow{coefs, rhs, 1}, lpRow{coefs, rhs, -1})
		}
	}

	for j := 0; j < n; j++ {
		if _, ok := fixed[j]; ok {
			continue
		}
		if _, ok := active[j]; !ok && m.obj[j] < -tol {
			return relaxation{status: solver.StatusUnbounded}, nil
		}
	}
	if len(rows) == 0 {
		return relaxation{status: solver.StatusOptimal, x: x, f: f}, nil
	}

	k := len(order)
	rc := len(rows)
	A := mat.NewDense(rc, k+rc, nil)
	b := make([]float64, rc)
	c := make([]float64, k+rc)
	for i, j := range order {
		c[i] = m.obj[j]
	}
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for j, coef := range r.coefs {
			A.Set(i, active[j], sign*coef)
		}
		A.Set(i, k+i, sign*r.sign)
		b[i] = sign * r.rhs
	}

	optF, optX, err := simplex(c, A, b, tol)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{status: solver.StatusInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return relaxation{status: solver.StatusUnbounded}, nil
	case err != nil:
		return relaxation{status: solver.StatusOther}, err
	}

	for i, j := range order {
		x[j] = optX[i]
	}
	return relaxation{status: solver.StatusOptimal, x: x, f: f + optF}, nil
}

// simplex calls gonum, turning its panics on malformed input into errors.
func simplex(c []float64, A mat.Matrix, b []float64, tol float64) (optF float64, optX []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simplex: %v", r)
		}
	}()
	return lp.Simplex(c, A, b, tol, nil)
}

func violated(sense program.Relation, rhs, tol float64) bool {
	switch sense {
	case program.LE:
		return 0 > rhs+tol
	case program.GE:
		return 0 < rhs-tol
	default:
		return math.Abs(rhs) > tol
	}
}

// fractional returns the binary column furthest from integrality, or -1.
func (m *model) fractional(x []float64, tol float64) int {
	best, bestDist := -1, tol
	for _, j := range m.binary {
		frac := x[j] - math.Floor(x[j])
		dist := math.Min(frac, 1-frac)
		if dist > bestDist {
			best, bestDist = j, dist
		}
	}
	return best
}

// round snaps binary columns to 0 or 1 and clears solver noise below tol.
func (m *model) round(x []float64, tol float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for _, j := range m.binary {
		out[j] = math.Round(out[j])
	}
	for j, v := range out {
		if math.Abs(v) < tol {
			out[j] = 0
		}
	}
	return out
}

func (m *model) objective(x []float64) float64 {
	return m.objConst + floats.Dot(m.obj, x)
}
