package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/value"
)

func horizon(t *testing.T) *scale.Hierarchy {
	t.Helper()
	h, err := scale.Declare("plan", scale.Spec{Name: "year", Length: 1}, scale.Spec{Name: "quarter", Length: 4})
	require.NoError(t, err)
	return h
}

var nextID int

func family(t *testing.T, h *scale.Hierarchy, component, aspect, scopeName, level string, d program.Domain) []*program.Variable {
	t.Helper()
	lvl, ok := h.Level(level)
	require.True(t, ok)
	k := disposition.Key{Scope: scopeName, Level: level, Component: component, Aspect: aspect}
	var out []*program.Variable
	for flat, idx := range h.Indices(lvl) {
		out = append(out, &program.Variable{ID: nextID, Name: k.At(idx).String(), Key: k, Index: idx, Flat: flat, Domain: d})
		nextID++
	}
	return out
}

func params(t *testing.T, h *scale.Hierarchy, component, aspect, level string, values ...float64) []*program.Parameter {
	t.Helper()
	lvl, ok := h.Level(level)
	require.True(t, ok)
	require.Len(t, values, lvl.Size())
	k := disposition.Key{Scope: "A", Level: level, Component: component, Aspect: aspect}
	var out []*program.Parameter
	for flat, idx := range h.Indices(lvl) {
		out = append(out, &program.Parameter{Key: k, Index: idx, Flat: flat, Kind: value.KindExact, Value: values[flat]})
	}
	return out
}

func TestGenerate_BoundRules(t *testing.T) {
	h := horizon(t)
	g := New(h)
	x := family(t, h, "wind", "capacity", "A", "year", program.Continuous)[0]

	exact := &program.Parameter{Kind: value.KindExact, Value: 100}
	bounded := &program.Parameter{Kind: value.KindBounded, Lower: 10, Upper: 50}
	lowerFree := &program.Parameter{Kind: value.KindBounded, LowerFree: true, Upper: 50}
	free := &program.Parameter{Kind: value.KindFree, Value: 1e6, UpperFree: true, LowerFree: true}

	testCases := []struct {
		name  string
		spec  Spec
		count int
		sense program.Relation
		rhs   float64
	}{
		{name: "leq exact", spec: Spec{Rule: program.RuleLEQ, Variable: x, Parameter: exact}, count: 1, sense: program.LE, rhs: 100},
		{name: "geq exact", spec: Spec{Rule: program.RuleGEQ, Variable: x, Parameter: exact}, count: 1, sense: program.GE, rhs: 100},
		{name: "eq exact", spec: Spec{Rule: program.RuleEQ, Variable: x, Parameter: exact}, count: 1, sense: program.EQ, rhs: 100},
		{name: "leq bounded uses upper", spec: Spec{Rule: program.RuleLEQ, Variable: x, Parameter: bounded}, count: 1, sense: program.LE, rhs: 50},
		{name: "geq bounded uses lower", spec: Spec{Rule: program.RuleGEQ, Variable: x, Parameter: bounded}, count: 1, sense: program.GE, rhs: 10},
		{name: "geq free lower is dropped", spec: Spec{Rule: program.RuleGEQ, Variable: x, Parameter: lowerFree}, count: 0},
		{name: "leq free is big-m", spec: Spec{Rule: program.RuleLEQ, Variable: x, Parameter: free}, count: 1, sense: program.LE, rhs: 1e6},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.spec.Family = "capacity"
			out, err := g.Generate(tc.spec)
			require.NoError(t, err)
			require.Len(t, out.Constraints, tc.count)
			if tc.count == 0 {
				return
			}
			c := out.Constraints[0]
			assert.Equal(t, tc.spec.Rule, c.Rule)
			assert.Equal(t, x.Key, c.Key)
			row := c.Normalized()
			assert.Equal(t, tc.sense, row.Sense)
			assert.Equal(t, tc.rhs, row.RHS)
		})
	}

	_, err := g.Generate(Spec{Rule: program.RuleEQ, Variable: x, Parameter: bounded})
	require.ErrorIs(t, err, ErrRule)
	_, err = g.Generate(Spec{Rule: program.RuleBalance, Variable: x})
	require.ErrorIs(t, err, ErrRule)
	_, err = g.Generate(Spec{Rule: program.RuleLEQ})
	require.ErrorIs(t, err, ErrRule)
}

func TestGenerate_LEQBy(t *testing.T) {
	h := horizon(t)
	g := New(h)
	capacity := family(t, h, "wind", "capacity", "A", "year", program.Continuous)[0]
	build := family(t, h, "wind", "build", "A", "year", program.Binary)[0]
	other := family(t, h, "gas", "capacity", "A", "year", program.Continuous)[0]

	out, err := g.Generate(Spec{Rule: program.RuleLEQBy, Family: "capacity", Variable: capacity,
		Parameter: &program.Parameter{Kind: value.KindExact, Value: 500}, Associated: build})
	require.NoError(t, err)
	row := out.Constraints[0].Normalized()
	require.Len(t, row.Terms, 2)
	assert.Equal(t, -500.0, row.Terms[1].Coef)
	assert.Same(t, build, row.Terms[1].Var)
	assert.Equal(t, 0.0, row.RHS)

	out, err = g.Generate(Spec{Rule: program.RuleLEQBy, Family: "capacity", Variable: capacity, Associated: build})
	require.NoError(t, err)
	assert.Equal(t, -1.0, out.Constraints[0].Normalized().Terms[1].Coef)

	variableNominal := &program.Parameter{Kind: value.KindFactor, Nominal: other, Factor: 0.5}
	_, err = g.Generate(Spec{Rule: program.RuleLEQBy, Variable: capacity, Parameter: variableNominal, Associated: build})
	require.ErrorIs(t, err, ErrBilinear)

	parametric := &program.Parameter{Kind: value.KindParametric, Symbol: &program.Symbol{Name: "theta"}}
	_, err = g.Generate(Spec{Rule: program.RuleLEQBy, Variable: capacity, Parameter: parametric, Associated: build})
	require.ErrorIs(t, err, ErrBilinear)

	// A variable nominal alone is linear.
	out, err = g.Generate(Spec{Rule: program.RuleLEQ, Family: "operation", Variable: capacity, Parameter: variableNominal})
	require.NoError(t, err)
	assert.True(t, out.Constraints[0].RHS.HasVariables())

	_, err = g.Generate(Spec{Rule: program.RuleLEQBy, Variable: capacity})
	require.ErrorIs(t, err, ErrRule)
}

func TestGenerate_DemandPenalty(t *testing.T) {
	h := horizon(t)
	g := New(h)
	served := family(t, h, "power", "release", "A", "year", program.Continuous)[0]
	unmet := family(t, h, "power", "unmet", "A", "year", program.Continuous)[0]

	out, err := g.Generate(Spec{
		Rule:       program.RuleGEQ,
		Family:     "demand",
		Variable:   served,
		Parameter:  &program.Parameter{Kind: value.KindExact, Value: 100},
		Associated: unmet,
		Penalty:    &program.Parameter{Kind: value.KindExact, Value: 1000},
	})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 2)
	for _, c := range out.Constraints {
		assert.Equal(t, program.RuleGEQ, c.Rule)
	}
	assert.Equal(t, program.EQ, out.Constraints[0].Sense)
	assert.Equal(t, program.GE, out.Constraints[1].Sense)

	require.Len(t, out.Objective.Terms, 1)
	assert.Same(t, unmet, out.Objective.Terms[0].Var)
	assert.Equal(t, 1000.0, out.Objective.Terms[0].Coef)

	values := map[string]float64{served.Name: 80, unmet.Name: 20}
	for _, c := range out.Constraints {
		assert.True(t, c.Satisfied(values, nil, 1e-9), c.String())
	}
	values[unmet.Name] = 10
	assert.False(t, out.Constraints[0].Satisfied(values, nil, 1e-9))
	values[served.Name], values[unmet.Name] = 120, -20
	assert.False(t, out.Constraints[1].Satisfied(values, nil, 1e-9))

	// Without a penalty the rule is a hard lower bound.
	out, err = g.Generate(Spec{Rule: program.RuleGEQ, Family: "demand", Variable: served,
		Parameter: &program.Parameter{Kind: value.KindExact, Value: 100}})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 1)
	assert.Equal(t, program.GE, out.Constraints[0].Sense)
}

func TestEach_ProjectsCoarserOperands(t *testing.T) {
	h := horizon(t)
	g := New(h)
	operate := family(t, h, "wind", "operate", "A", "quarter", program.Continuous)
	capacity := family(t, h, "wind", "capacity", "A", "year", program.Continuous)

	// operate[q] <= 1 x capacity
	out, err := g.Each(Families{Rule: program.RuleLEQBy, Family: "capacity", Variables: operate, Associated: capacity})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 4)
	for i, c := range out.Constraints {
		row := c.Normalized()
		assert.Same(t, operate[i], row.Terms[0].Var)
		assert.Same(t, capacity[0], row.Terms[1].Var)
	}

	// capacity <= limit[q] generates one constraint per quarter on the yearly variable.
	limits := params(t, h, "wind", "capacity", "quarter", 10, 20, 30, 40)
	out, err = g.Each(Families{Rule: program.RuleLEQ, Family: "capacity", Variables: capacity, Parameters: limits})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 4)
	names := map[string]bool{}
	for _, c := range out.Constraints {
		names[c.Name] = true
	}
	assert.Len(t, names, 4)

	_, err = g.Each(Families{Rule: program.RuleLEQ, Family: "capacity", Variables: operate[:3], Parameters: limits})
	require.ErrorIs(t, err, ErrScaleMismatch)
}

func TestEach_SumsUnderCoarserTotals(t *testing.T) {
	h, err := scale.Declare("plan",
		scale.Spec{Name: "year", Length: 1},
		scale.Spec{Name: "quarter", Length: 4},
		scale.Spec{Name: "month", Length: 3})
	require.NoError(t, err)
	g := New(h)
	release := family(t, h, "power", "release", "A", "month", program.Continuous)
	unmet := family(t, h, "power", "unmet", "A", "month", program.Continuous)
	demand := params(t, h, "power", "demand", "quarter", 10, 20, 30, 40)
	penalty := params(t, h, "power", "penalty", "year", 1000)

	out, err := g.Each(Families{Rule: program.RuleGEQ, Family: "demand",
		Variables: release, Parameters: demand, Associated: unmet, Penalty: penalty})
	require.NoError(t, err)

	var served []*program.Constraint
	for _, c := range out.Constraints {
		if c.Sense == program.EQ {
			served = append(served, c)
		}
	}
	require.Len(t, served, 4, "one demand row per quarter")
	for q, c := range served {
		row := c.Normalized()
		assert.Len(t, row.Terms, 6, "three months served plus three unmet")
		assert.Equal(t, demand[q].Value, row.RHS)
		assert.Same(t, release[3*q], row.Terms[0].Var)
	}
	assert.Len(t, out.Constraints, 4+12, "unmet >= 0 per month")
	require.Len(t, out.Objective.Terms, 12)
	assert.Equal(t, 1000.0, out.Objective.Terms[0].Coef)

	// A quarterly cap bounds the monthly total.
	caps := params(t, h, "gen", "operate", "quarter", 5, 5, 5, 5)
	out, err = g.Each(Families{Rule: program.RuleLEQ, Family: "operation", Variables: release, Parameters: caps})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 4)
	values := map[string]float64{}
	for _, v := range release {
		values[v.Name] = 2
	}
	assert.False(t, out.Constraints[0].Satisfied(values, nil, 1e-9), "3 x 2 exceeds 5")
	values[release[0].Name] = 1
	assert.True(t, out.Constraints[0].Satisfied(values, nil, 1e-9))

	// Unmet on another level cannot be summed with the served flow.
	_, err = g.Each(Families{Rule: program.RuleGEQ, Family: "demand",
		Variables: release, Parameters: demand, Associated: family(t, h, "power", "unmet", "A", "quarter", program.Continuous), Penalty: penalty})
	require.ErrorIs(t, err, ErrScaleMismatch)
}

func TestBalance(t *testing.T) {
	h := horizon(t)
	g := New(h)
	year := h.Root()
	quarter := h.Finest()

	produce := family(t, h, "wind", "operate", "A", "quarter", program.Continuous)
	sell := family(t, h, "power", "release", "A", "year", program.Continuous)
	key := disposition.Key{Scope: "A", Level: "year", Component: "power", Aspect: "balance"}

	// Yearly balance sums the four quarters.
	out, err := g.Balance(BalanceSpec{Family: "balance", Key: key, Level: year, Flows: []Flow{
		{Vars: produce, Coef: 1},
		{Vars: sell, Coef: -1},
	}})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 1)
	row := out.Constraints[0].Normalized()
	assert.Len(t, row.Terms, 5)
	assert.Equal(t, program.RuleBalance, out.Constraints[0].Rule)

	// A quarterly balance cannot use the yearly flow.
	_, err = g.Balance(BalanceSpec{Family: "balance", Key: key, Level: quarter, Flows: []Flow{
		{Vars: produce, Coef: 1},
		{Vars: sell, Coef: -1},
	}})
	require.ErrorIs(t, err, ErrScaleMismatch)

	// External right-hand side per index.
	ext := []program.Expr{program.Const(1), program.Const(2), program.Const(3), program.Const(4)}
	out, err = g.Balance(BalanceSpec{Family: "balance", Key: key, Level: quarter, Flows: []Flow{{Vars: produce, Coef: 1}}, External: ext})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 4)
	assert.Equal(t, 3.0, out.Constraints[2].Normalized().RHS)
}

func TestLink(t *testing.T) {
	h := horizon(t)
	g := New(h)
	inv := family(t, h, "battery", "inventory", "A", "quarter", program.Continuous)
	charge := family(t, h, "battery", "charge", "A", "quarter", program.Continuous)
	discharge := family(t, h, "battery", "discharge", "A", "quarter", program.Continuous)

	out, err := g.Link(LinkSpec{Family: "inventory", Inventory: inv, Charge: charge, Discharge: discharge})
	require.NoError(t, err)
	require.Len(t, out.Constraints, 4)

	// Base case has no predecessor and no wrap to the last period.
	base := out.Constraints[0].Normalized()
	assert.Len(t, base.Terms, 3)
	for _, term := range base.Terms {
		assert.NotSame(t, inv[3], term.Var)
	}

	values := map[string]float64{}
	level := 0.0
	for q, c := range []float64{5, 0, 3, 0} {
		d := []float64{0, 2, 0, 6}[q]
		level += c - d
		values[charge[q].Name] = c
		values[discharge[q].Name] = d
		values[inv[q].Name] = level
	}
	for _, c := range out.Constraints {
		assert.True(t, c.Satisfied(values, nil, 1e-9), c.String())
	}

	_, err = g.Link(LinkSpec{Family: "inventory", Inventory: inv, Charge: charge[:2], Discharge: discharge})
	require.ErrorIs(t, err, ErrScaleMismatch)
}

func TestFix(t *testing.T) {
	h := horizon(t)
	g := New(h)
	x := family(t, h, "wind", "capacity", "A", "year", program.Continuous)[0]
	c := g.Fix("fixed", x, 42)
	assert.Equal(t, program.RuleEQ, c.Rule)
	assert.True(t, c.Satisfied(map[string]float64{x.Name: 42}, nil, 1e-9))
	assert.False(t, c.Satisfied(map[string]float64{x.Name: 41}, nil, 1e-9))
}
