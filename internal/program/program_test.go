package program

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/value"
)

func testVar(id int, name string) *Variable {
	return &Variable{ID: id, Name: name}
}

func TestExpr_Simplify(t *testing.T) {
	x := testVar(0, "x")
	y := testVar(1, "y")

	e := Sum(VarExpr(x, 2), VarExpr(y, 1), VarExpr(x, 3), VarExpr(y, -1), Const(4))
	got := e.Simplify()

	require.Len(t, got.Terms, 1)
	assert.Equal(t, x, got.Terms[0].Var)
	assert.Equal(t, 5.0, got.Terms[0].Coef)
	assert.Equal(t, 4.0, got.Constant)
}

func TestExpr_String(t *testing.T) {
	x := testVar(0, "x")
	y := testVar(1, "y")

	testCases := []struct {
		name string
		expr Expr
		want string
	}{
		{name: "zero", expr: Expr{}, want: "0"},
		{name: "constant", expr: Const(-3), want: "-3"},
		{name: "terms", expr: Sum(VarExpr(x, 1), VarExpr(y, -2.5), Const(1)), want: "x - 2.5 y + 1"},
		{name: "leading negative", expr: VarExpr(x, -1), want: "-x"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.expr.String())
		})
	}
}

func TestConstraint_Normalized(t *testing.T) {
	x := testVar(0, "x")
	y := testVar(1, "y")

	// x + 3 <= 2y + 10  =>  x - 2y <= 7
	c := &Constraint{
		Name:  "c",
		LHS:   VarExpr(x, 1).Add(Const(3)),
		Sense: LE,
		RHS:   VarExpr(y, 2).Add(Const(10)),
	}
	row := c.Normalized()
	want := Row{Terms: []Term{{Var: x, Coef: 1}, {Var: y, Coef: -2}}, Sense: LE, RHS: 7}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("Normalized() mismatch (-want +got):\n%s", diff)
	}

	assert.True(t, c.Satisfied(map[string]float64{"x": 7, "y": 0}, nil, 1e-9))
	assert.False(t, c.Satisfied(map[string]float64{"x": 8, "y": 0}, nil, 1e-9))
}

func TestConstraintSet(t *testing.T) {
	k1 := disposition.Key{Scope: "A", Level: "y", Component: "p", Aspect: "capacity"}
	k2 := disposition.Key{Scope: "B", Level: "y", Component: "p", Aspect: "capacity"}

	s := NewConstraintSet()
	require.NoError(t, s.Add(
		&Constraint{Name: "a", Rule: RuleLEQ, Family: "capacity", Key: k1},
		&Constraint{Name: "b", Rule: RuleGEQ, Family: "capacity", Key: k2},
		&Constraint{Name: "c", Rule: RuleBalance, Family: "balance", Key: k1},
	))
	require.ErrorIs(t, s.Add(&Constraint{Name: "a"}), ErrDuplicateConstraint)

	assert.Len(t, s.ByRule(RuleLEQ), 1)
	assert.Equal(t, 2, s.RemoveKey(k1))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1, s.RemoveFamily("capacity"))
	assert.Equal(t, 0, s.Len())

	// Names are free again after removal.
	require.NoError(t, s.Add(&Constraint{Name: "a", Rule: RuleEQ}))
	assert.Equal(t, 1, s.RemoveRule(RuleEQ))
}

func TestProblem_Realize(t *testing.T) {
	x := testVar(0, "x")
	key := disposition.Key{Scope: "A", Level: "year", Component: "wind", Aspect: "operate"}
	sym := &Symbol{ID: 0, Name: key.At(scale.Index{0}).String(), Key: key, Range: value.Range{Low: 10, High: 20}}

	p := &Problem{
		Variables: []*Variable{x},
		Symbols:   []*Symbol{sym},
		Constraints: []*Constraint{{
			Name: "c", LHS: VarExpr(x, 1), Sense: LE, RHS: SymbolExpr(sym, 2),
		}},
		Objective: Objective{Kind: ObjectiveCost, Expr: VarExpr(x, 1).Add(SymbolExpr(sym, 1))},
	}
	require.True(t, p.Parametric())

	_, err := p.Realize(nil)
	require.ErrorIs(t, err, ErrUnrealized)
	_, err = p.Realize(map[string]float64{sym.Name: 30})
	require.ErrorIs(t, err, ErrOutOfRange)

	concrete, err := p.Realize(map[string]float64{sym.Name: 15})
	require.NoError(t, err)
	assert.False(t, concrete.Parametric())
	assert.NotEqual(t, p.ID, concrete.ID)

	c, ok := concrete.Constraint("c")
	require.True(t, ok)
	assert.True(t, c.RHS.IsConstant())
	assert.Equal(t, 30.0, c.RHS.Constant)
	assert.Equal(t, 15.0, concrete.Objective.Expr.Constant)

	// The original still carries its symbol.
	assert.True(t, p.Constraints[0].RHS.HasSymbols())
}

func TestParameter_Expr(t *testing.T) {
	capacity := testVar(3, "capacity")
	p := &Parameter{Kind: value.KindFactor, Nominal: capacity, Factor: 0.5}
	e := p.Expr()
	require.Len(t, e.Terms, 1)
	assert.Equal(t, 0.5, e.Terms[0].Coef)
	assert.True(t, p.IsVariable())

	exact := &Parameter{Kind: value.KindExact, Value: 7}
	assert.Equal(t, Const(7), exact.Expr())
}
