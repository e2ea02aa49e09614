package rolling

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/config"
	"github.com/specialistvlad/energiago/internal/formulation"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/solver"
	"github.com/specialistvlad/energiago/internal/solver/simplex"
	"github.com/specialistvlad/energiago/internal/system"
	"github.com/specialistvlad/energiago/internal/testutil"
)

func pipeline(t *testing.T) *formulation.Pipeline {
	t.Helper()
	ctx, _ := testutil.Context(t)
	sys, err := system.Build(ctx, &config.Model{
		Horizon:   &config.Horizon{Name: "plan", Levels: []*config.Level{{Name: "year", Length: 1}, {Name: "quarter", Length: 4}}},
		Network:   "grid",
		Locations: []*config.Location{{Name: "A"}},
		Resources: []*config.Resource{{
			Name:    "power",
			Demand:  config.Attribute{"": []float64{10, 20, 30, 40}},
			Penalty: config.Attribute{"": 1000.0},
		}},
		Processes: []*config.Process{{
			Name:       "gen",
			Conversion: map[string]float64{"power": 1},
			Capacity:   config.Attribute{"": 100.0},
			Opex:       config.Attribute{"": 1.0},
		}},
	})
	require.NoError(t, err)

	p := formulation.New(sys.Horizon, sys.Forest, formulation.WithName("plan"))
	for _, c := range sys.Components {
		_, err := p.Register(ctx, c)
		require.NoError(t, err)
	}
	return p
}

func registry(t *testing.T) *solver.Registry {
	t.Helper()
	reg, err := solver.NewRegistry(simplex.New())
	require.NoError(t, err)
	return reg
}

func TestRun(t *testing.T) {
	ctx, logs := testutil.Context(t)

	steps, err := Run(ctx, pipeline(t), registry(t), Config{
		Steps:     2,
		Objective: program.ObjectiveCost,
		Solver:    simplex.Name,
	})
	require.NoError(t, err)
	require.Len(t, steps, 2)

	first, second := steps[0], steps[1]
	assert.Equal(t, 0, first.Start)
	assert.Equal(t, 2, first.End)
	assert.Equal(t, 0, first.Fixed)
	assert.Equal(t, 2, second.Start)
	assert.Equal(t, 4, second.End)
	assert.Positive(t, second.Fixed)

	_, ok := second.Problem.Constraint("fixed:EQ:gen.operate@A:quarter[0,1]")
	assert.True(t, ok)
	_, ok = second.Problem.Constraint("fixed:EQ:gen.operate@A:quarter[0,2]")
	assert.False(t, ok)
	_, ok = second.Problem.Constraint("fixed:EQ:gen.capacity@A:year[0]")
	assert.False(t, ok)

	for _, s := range steps {
		require.True(t, s.Result.IsOptimal())
		assert.InDelta(t, 100, s.Result.ObjectiveValue, 1e-6)
	}
	v, ok := second.Result.Value("gen.operate@A:quarter[0,1]")
	require.True(t, ok)
	assert.InDelta(t, 20, v, 1e-6)
	assert.Contains(t, logs.String(), "Rolling step finished.")
}

func TestRun_InvalidSteps(t *testing.T) {
	ctx, _ := testutil.Context(t)
	for _, n := range []int{0, 5} {
		_, err := Run(ctx, pipeline(t), registry(t), Config{Steps: n, Objective: program.ObjectiveCost, Solver: simplex.Name})
		require.ErrorIs(t, err, ErrSteps)
	}
}

func TestRun_SolveFailure(t *testing.T) {
	ctx, _ := testutil.Context(t)
	steps, err := Run(ctx, pipeline(t), registry(t), Config{
		Steps:     2,
		Objective: program.ObjectiveCost,
		Solver:    "missing",
	})
	require.ErrorIs(t, err, solver.ErrUnknownSolver)
	require.Len(t, steps, 1)
	assert.Nil(t, steps[0].Result)
	assert.NotNil(t, steps[0].Problem)
}
