package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func model(t *testing.T) string {
	t.Helper()
	return testutil.WriteFiles(t, map[string]string{"system.hcl": modelHCL})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := Execute(context.Background(), out, &testutil.SafeBuffer{}, args)
	return out.String(), err
}

func TestExecute_Usage(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"unknown flag", []string{"solve", "--this-is-not-a-valid-flag"}, "unknown flag: --this-is-not-a-valid-flag"},
		{"unknown command", []string{"optimize"}, "unknown command 'optimize'"},
		{"missing model", []string{"solve"}, "requires at least one model path"},
		{"bad log format", []string{"solve", "--log-format", "xml", "model"}, "log-format"},
		{"bad objective", []string{"inspect", "--objective", "profit", "model"}, "objective"},
		{"bad option", []string{"solve", "--option", "tolerance", "model"}, "tolerance"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := execute(t, tc.args...)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, CodeUsage, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}

func TestExecute_Help(t *testing.T) {
	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage:")
	assert.Contains(t, out, "solve")
	assert.Contains(t, out, "export")
}

func TestExecute_Solve(t *testing.T) {
	out, err := execute(t, "solve", model(t))
	require.NoError(t, err)
	assert.Contains(t, out, "optimal")
	assert.Contains(t, out, "Expected objective: 100")
}

func TestExecute_SolveFailure(t *testing.T) {
	_, err := execute(t, "solve", "--option", "max_nodes=none", model(t))
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, CodeSolve, exitErr.Code)
}

func TestExecute_LoadFailure(t *testing.T) {
	_, err := execute(t, "solve", t.TempDir())
	require.Error(t, err)
	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr), "load failures keep the generic exit code")
	assert.Contains(t, err.Error(), "failed to load model")
}

func TestExecute_Inspect(t *testing.T) {
	out, err := execute(t, "inspect", "--families", "bounds,capacity,demand,balance", model(t))
	require.NoError(t, err)
	assert.Contains(t, out, "Constraint family")
	assert.NotContains(t, out, "operation")
}

func TestExecute_Export(t *testing.T) {
	dir := model(t)
	path := filepath.Join(t.TempDir(), "model.lp")

	_, err := execute(t, "export", "-o", path, dir)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), `\ Problem: base`))
	assert.True(t, strings.HasSuffix(string(data), "End\n"))

	out, err := execute(t, "export", dir)
	require.NoError(t, err)
	assert.Equal(t, string(data[strings.Index(string(data), "Minimize"):]), out[strings.Index(out, "Minimize"):])
}
