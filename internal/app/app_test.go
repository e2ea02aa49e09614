package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/hcl"
	"github.com/specialistvlad/energiago/internal/scenario"
	"github.com/specialistvlad/energiago/internal/solver"
	"github.com/specialistvlad/energiago/internal/testutil"
)

const modelHCL = `
horizon "plan" {
  level "year" { length = 1 }
  level "quarter" { length = 4 }
}

network "grid" {}

location "A" {}

resource "power" {
  demand  = [10, 20, 30, 40]
  penalty = 1000
}

process "gen" {
  conversion = { power = 1 }
  capacity   = 100
  opex       = 1
}
`

const scenariosYAML = `
base:
  probability: 0.5
high:
  probability: 0.5
  factor:
    A.power.demand: [2, 2, 2, 2]
`

// setup writes the model and returns a loaded app with its output buffer.
func setup(t *testing.T, mutate func(cfg *Config)) (*App, *bytes.Buffer, string) {
	t.Helper()
	dir := testutil.WriteFiles(t, map[string]string{
		"model/system.hcl": modelHCL,
		"scenarios.yaml":   scenariosYAML,
		"factors.csv":      "A.power.demand\n1\n1\n1\n0.5\n",
	})
	cfg := Config{ModelPaths: []string{filepath.Join(dir, "model")}, LogLevel: "debug"}
	if mutate != nil {
		mutate(&cfg)
	}
	for _, p := range []*string{&cfg.Scenarios, &cfg.Factors, &cfg.SnapshotDB, &cfg.MetricsFile} {
		if *p != "" {
			*p = filepath.Join(dir, *p)
		}
	}
	c, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(out, logs, c, hcl.NewLoader())
	require.NoError(t, err)
	t.Cleanup(func() {
		if os.Getenv("ENERGIAGO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	require.NoError(t, a.Load(context.Background()))
	return a, out, dir
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"defaults", Config{ModelPaths: []string{"m"}}, ""},
		{"no model", Config{}, "at least one model path"},
		{"bad format", Config{ModelPaths: []string{"m"}, LogFormat: "xml"}, "log-format"},
		{"bad level", Config{ModelPaths: []string{"m"}, LogLevel: "trace"}, "log-level"},
		{"bad objective", Config{ModelPaths: []string{"m"}, Objective: "profit"}, "objective"},
		{"bad family", Config{ModelPaths: []string{"m"}, Families: []string{"ramping"}}, "unknown constraint family"},
		{"rolling ensemble", Config{ModelPaths: []string{"m"}, Steps: 2, Scenarios: "s.yaml"}, "cannot be combined"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "text", cfg.LogFormat)
				assert.Equal(t, "info", cfg.LogLevel)
				assert.Equal(t, "simplex", cfg.Solver)
				assert.Equal(t, "cost", cfg.Objective)
				assert.Equal(t, 1, cfg.Workers)
				return
			}
			require.ErrorIs(t, err, ErrConfig)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestRun_Single(t *testing.T) {
	a, out, _ := setup(t, nil)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.InDelta(t, 100, report.Expected, 1e-6)
	assert.Contains(t, out.String(), "optimal")
	assert.Contains(t, out.String(), "Expected objective: 100")
}

func TestRun_FactorTable(t *testing.T) {
	a, _, _ := setup(t, func(cfg *Config) { cfg.Factors = "factors.csv" })

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 80, report.Expected, 1e-6)
}

func TestRun_Ensemble(t *testing.T) {
	a, out, dir := setup(t, func(cfg *Config) {
		cfg.Scenarios = "scenarios.yaml"
		cfg.SnapshotDB = "runs.db"
		cfg.MetricsFile = "energiago.prom"
		cfg.Workers = 2
	})

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.InDelta(t, 150, report.Expected, 1e-6)
	assert.Contains(t, out.String(), "high")

	store, err := scenario.Open(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	defer store.Close()
	for _, o := range report.Outcomes {
		require.NotEqual(t, uuid.Nil, o.Snapshot)
		snap, err := store.Load(context.Background(), o.Snapshot)
		require.NoError(t, err)
		assert.Equal(t, o.Scenario, snap.Scenario)
		assert.InDelta(t, o.Result.ObjectiveValue, snap.Objective, 1e-9)
	}

	prom, err := os.ReadFile(filepath.Join(dir, "energiago.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `energiago_solver_solves_total{solver="simplex",status="optimal"} 2`)
}

func TestRun_Rolling(t *testing.T) {
	a, _, _ := setup(t, func(cfg *Config) { cfg.Steps = 2 })

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 1, report.Outcomes[1].Step)
	assert.InDelta(t, 100, report.Expected, 1e-6)
}

func TestRun_SolverFailure(t *testing.T) {
	a, _, _ := setup(t, func(cfg *Config) { cfg.Options = map[string]string{"max_nodes": "none"} })

	_, err := a.Run(context.Background())
	var ese *solver.ExternalSolveError
	require.ErrorAs(t, err, &ese)
	require.ErrorIs(t, err, solver.ErrOption)
}

func TestInspect(t *testing.T) {
	a, out, _ := setup(t, nil)

	require.NoError(t, a.Inspect(context.Background()))
	text := out.String()
	assert.Contains(t, text, "Variable family")
	assert.Contains(t, text, "gen.operate@A")
	assert.Contains(t, text, "balance")
}

func TestExport(t *testing.T) {
	a, _, _ := setup(t, nil)

	var buf bytes.Buffer
	require.NoError(t, a.Export(context.Background(), &buf))
	assert.True(t, strings.HasPrefix(buf.String(), `\ Problem: base`))
	assert.Contains(t, buf.String(), "Subject To")
}

func TestRun_NotLoaded(t *testing.T) {
	cfg, err := NewConfig(Config{ModelPaths: []string{t.TempDir()}})
	require.NoError(t, err)
	a, err := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, cfg, hcl.NewLoader())
	require.NoError(t, err)

	require.ErrorContains(t, a.Load(context.Background()), "failed to load model")
	_, err = a.Run(context.Background())
	require.Error(t, err)
}

func TestRun_Parametric(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"system.hcl": strings.Replace(modelHCL, "demand  = [10, 20, 30, 40]", "demand  = range(0, 50)", 1),
		"scenarios.yaml": `
low:
  probability: 1
  theta:
    "power.demand@A:quarter[0,0]": 10
    "power.demand@A:quarter[0,1]": 10
    "power.demand@A:quarter[0,2]": 10
    "power.demand@A:quarter[0,3]": 10
`,
	})
	cfg, err := NewConfig(Config{ModelPaths: []string{dir}, Scenarios: filepath.Join(dir, "scenarios.yaml")})
	require.NoError(t, err)
	a, err := NewApp(&bytes.Buffer{}, &testutil.SafeBuffer{}, cfg, hcl.NewLoader())
	require.NoError(t, err)
	require.NoError(t, a.Load(context.Background()))

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.False(t, report.Outcomes[0].Problem.Parametric())
	assert.InDelta(t, 40, report.Expected, 1e-6)

	t.Run("without theta", func(t *testing.T) {
		cfg, err := NewConfig(Config{ModelPaths: []string{dir}})
		require.NoError(t, err)
		a, err := NewApp(&bytes.Buffer{}, &testutil.SafeBuffer{}, cfg, hcl.NewLoader())
		require.NoError(t, err)
		require.NoError(t, a.Load(context.Background()))

		_, err = a.Run(context.Background())
		require.ErrorIs(t, err, solver.ErrParametric)
	})
}
