package simplex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
	"github.com/specialistvlad/energiago/internal/testutil"
)

type builder struct {
	p *program.Problem
}

func newBuilder() *builder { return &builder{p: &program.Problem{Name: "test"}} }

func (b *builder) variable(name string, d program.Domain) *program.Variable {
	v := &program.Variable{ID: len(b.p.Variables), Name: name, Domain: d}
	b.p.Variables = append(b.p.Variables, v)
	return v
}

func (b *builder) constrain(name string, lhs program.Expr, sense program.Relation, rhs float64) {
	b.p.Constraints = append(b.p.Constraints, &program.Constraint{
		Name: name, Rule: program.RuleLEQ, LHS: lhs, Sense: sense, RHS: program.Const(rhs),
	})
}

func (b *builder) minimise(e program.Expr) *program.Problem {
	b.p.Objective = program.Objective{Kind: program.ObjectiveCost, Expr: e}
	return b.p
}

func TestSolve(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("linear program", func(t *testing.T) {
		b := newBuilder()
		x := b.variable("x", program.Continuous)
		y := b.variable("y", program.Continuous)
		b.constrain("cover", program.Sum(program.VarExpr(x, 1), program.VarExpr(y, 1)), program.GE, 10)
		b.constrain("cap", program.VarExpr(x, 1), program.LE, 6)
		p := b.minimise(program.Sum(program.VarExpr(x, 1), program.VarExpr(y, 2)))

		res, err := New().Solve(ctx, p, nil)
		require.NoError(t, err)
		require.Equal(t, solver.StatusOptimal, res.Status)
		assert.InDelta(t, 14, res.ObjectiveValue, 1e-6)
		assert.InDelta(t, 6, res.VariableValues["x"], 1e-6)
		assert.InDelta(t, 4, res.VariableValues["y"], 1e-6)
	})

	t.Run("binary build decision", func(t *testing.T) {
		b := newBuilder()
		build := b.variable("build", program.Binary)
		x := b.variable("x", program.Continuous)
		b.constrain("by", program.VarExpr(x, 1).Sub(program.VarExpr(build, 8)), program.LE, 0)
		b.constrain("need", program.VarExpr(x, 1), program.GE, 3)
		p := b.minimise(program.Sum(program.VarExpr(build, 5), program.VarExpr(x, 1)))

		res, err := New().Solve(ctx, p, nil)
		require.NoError(t, err)
		require.Equal(t, solver.StatusOptimal, res.Status)
		assert.InDelta(t, 8, res.ObjectiveValue, 1e-6)
		assert.Equal(t, 1.0, res.VariableValues["build"])
		assert.InDelta(t, 3, res.VariableValues["x"], 1e-6)
	})

	t.Run("relaxed demand with fixed supply", func(t *testing.T) {
		b := newBuilder()
		served := b.variable("served", program.Continuous)
		unmet := b.variable("unmet", program.Continuous)
		b.constrain("demand", program.Sum(program.VarExpr(served, 1), program.VarExpr(unmet, 1)), program.EQ, 100)
		b.constrain("fixed", program.VarExpr(served, 1), program.EQ, 80)
		p := b.minimise(program.Sum(program.VarExpr(served, 1), program.VarExpr(unmet, 1000)))

		res, err := New().Solve(ctx, p, nil)
		require.NoError(t, err)
		assert.InDelta(t, 20, res.VariableValues["unmet"], 1e-6)
		assert.InDelta(t, 20080, res.ObjectiveValue, 1e-4)
	})

	t.Run("objective constant and unused variable", func(t *testing.T) {
		b := newBuilder()
		x := b.variable("x", program.Continuous)
		idle := b.variable("idle", program.Continuous)
		b.constrain("floor", program.VarExpr(x, 1), program.GE, 2)
		p := b.minimise(program.Sum(program.VarExpr(x, 3), program.VarExpr(idle, 1), program.Const(7)))

		res, err := New().Solve(ctx, p, nil)
		require.NoError(t, err)
		assert.InDelta(t, 13, res.ObjectiveValue, 1e-6)
		assert.Equal(t, 0.0, res.VariableValues["idle"])
	})
}

func TestSolve_Statuses(t *testing.T) {
	ctx, _ := testutil.Context(t)

	testCases := []struct {
		name    string
		build   func(b *builder) *program.Problem
		options map[string]string
		want    solver.Status
	}{
		{
			name: "infeasible",
			build: func(b *builder) *program.Problem {
				x := b.variable("x", program.Continuous)
				b.constrain("low", program.VarExpr(x, 1), program.LE, 2)
				b.constrain("high", program.VarExpr(x, 1), program.GE, 5)
				return b.minimise(program.VarExpr(x, 1))
			},
			want: solver.StatusInfeasible,
		},
		{
			name: "unbounded",
			build: func(b *builder) *program.Problem {
				x := b.variable("x", program.Continuous)
				b.constrain("floor", program.VarExpr(x, 1), program.GE, 1)
				return b.minimise(program.VarExpr(x, -1))
			},
			want: solver.StatusUnbounded,
		},
		{
			name: "unbounded free column",
			build: func(b *builder) *program.Problem {
				x := b.variable("x", program.Continuous)
				return b.minimise(program.VarExpr(x, -1))
			},
			want: solver.StatusUnbounded,
		},
		{
			name: "node budget exhausted",
			build: func(b *builder) *program.Problem {
				build := b.variable("build", program.Binary)
				x := b.variable("x", program.Continuous)
				b.constrain("by", program.VarExpr(x, 1).Sub(program.VarExpr(build, 8)), program.LE, 0)
				b.constrain("need", program.VarExpr(x, 1), program.GE, 3)
				return b.minimise(program.Sum(program.VarExpr(build, 5), program.VarExpr(x, 1)))
			},
			options: map[string]string{OptionMaxNodes: "1"},
			want:    solver.StatusTimeout,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := New().Solve(ctx, tc.build(newBuilder()), tc.options)
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Status)
		})
	}
}

func TestSolve_Rejects(t *testing.T) {
	ctx, _ := testutil.Context(t)

	t.Run("parametric problem", func(t *testing.T) {
		b := newBuilder()
		x := b.variable("x", program.Continuous)
		p := b.minimise(program.VarExpr(x, 1))
		p.Symbols = []*program.Symbol{{Name: "demand"}}
		_, err := New().Solve(ctx, p, nil)
		require.ErrorIs(t, err, solver.ErrParametric)
	})

	t.Run("malformed option", func(t *testing.T) {
		b := newBuilder()
		x := b.variable("x", program.Continuous)
		_, err := New().Solve(ctx, b.minimise(program.VarExpr(x, 1)), map[string]string{OptionMaxNodes: "many"})
		require.ErrorIs(t, err, solver.ErrOption)
	})
}

func TestRegistered(t *testing.T) {
	ctx, _ := testutil.Context(t)
	reg, err := solver.NewRegistry(New())
	require.NoError(t, err)

	b := newBuilder()
	x := b.variable("x", program.Continuous)
	b.constrain("low", program.VarExpr(x, 1), program.LE, 2)
	b.constrain("high", program.VarExpr(x, 1), program.GE, 5)

	res, err := reg.Solve(ctx, Name, b.minimise(program.VarExpr(x, 1)), nil)
	var ese *solver.ExternalSolveError
	require.ErrorAs(t, err, &ese)
	assert.Equal(t, solver.StatusInfeasible, ese.Status)
	assert.Equal(t, solver.StatusInfeasible, res.Status)
}
