package system

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
	"github.com/specialistvlad/energiago/internal/solver/simplex"
	"github.com/specialistvlad/energiago/internal/testutil"
)

// monthly is a single-site model whose flows run per month while demand is
// given per quarter.
func monthly() *config.Model {
	return &config.Model{
		Horizon: &config.Horizon{Name: "plan", Levels: []*config.Level{
			{Name: "year", Length: 1}, {Name: "quarter", Length: 4}, {Name: "month", Length: 3},
		}},
		Network:   "grid",
		Locations: []*config.Location{{Name: "A"}},
		Resources: []*config.Resource{{
			Name:    "power",
			Level:   "month",
			Demand:  config.Attribute{"A": []float64{10, 20, 30, 40}},
			Penalty: config.Attribute{"": 1000.0},
		}},
		Processes: []*config.Process{{
			Name:       "gen",
			Conversion: map[string]float64{"power": 1},
			Capacity:   config.Attribute{"": 100.0},
			Opex:       config.Attribute{"": 1.0},
		}},
	}
}

func solve(t *testing.T, m *config.Model) (*program.Problem, *solver.Result) {
	t.Helper()
	ctx, _ := testutil.Context(t)
	sys, err := Build(ctx, m)
	require.NoError(t, err)
	form, err := formulation.Formulate(ctx, sys.Horizon, sys.Forest, sys.Components, nil, program.ObjectiveCost)
	require.NoError(t, err)

	reg, err := solver.NewRegistry(simplex.New())
	require.NoError(t, err)
	res, err := reg.Solve(ctx, simplex.Name, form.Problem, nil)
	require.NoError(t, err)
	require.True(t, res.IsOptimal())
	return form.Problem, res
}

func quarterTotal(res *solver.Result, name string, q int) float64 {
	var total float64
	for m := 0; m < 3; m++ {
		total += res.VariableValues[fmt.Sprintf("%s@A:month[0,%d,%d]", name, q, m)]
	}
	return total
}

func TestSolve_QuarterlyDemandOnMonthlyFlows(t *testing.T) {
	prob, res := solve(t, monthly())

	assert.InDelta(t, 100, res.ObjectiveValue, 1e-6)
	served := 0
	for _, c := range prob.Constraints {
		if c.Family == formulation.FamilyDemand && c.Sense == program.EQ {
			served++
		}
	}
	assert.Equal(t, 4, served, "demand is a quarterly total")
	for q, want := range []float64{10, 20, 30, 40} {
		assert.InDelta(t, want, quarterTotal(res, "power.release", q), 1e-6, "quarter %d", q)
	}
}

func TestSolve_QuarterlyOperateLimit(t *testing.T) {
	m := monthly()
	m.Processes[0].Operate = config.Attribute{"": []float64{15, 15, 15, 15}}

	_, res := solve(t, m)

	for q := 0; q < 4; q++ {
		assert.LessOrEqual(t, quarterTotal(res, "gen.operate", q), 15+1e-6, "quarter %d", q)
	}
	// 10 + 15 + 15 + 15 served at opex 1, 45 unmet at 1000.
	assert.InDelta(t, 55+45*1000, res.ObjectiveValue, 1e-6)
}

func TestSolve_UnmetDemandPenalty(t *testing.T) {
	testCases := []struct {
		name     string
		capacity float64
		penalty  float64
		want     float64
	}{
		{"capacity covers demand", 100, 1000, 100},
		// 7 per month serves at most 21 a quarter: 72 served, 28 unmet.
		{"capacity short", 7, 1000, 72 + 28*1000},
		{"penalty cheaper than generation", 100, 0.5, 0.5 * 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := monthly()
			m.Processes[0].Capacity = config.Attribute{"": tc.capacity}
			m.Resources[0].Penalty = config.Attribute{"": tc.penalty}

			_, res := solve(t, m)
			assert.InDelta(t, tc.want, res.ObjectiveValue, 1e-6)
		})
	}
}
