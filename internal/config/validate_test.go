package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/energiago/internal/testutil"
)

func validModel() *Model {
	return &Model{
		Horizon:   &Horizon{Name: "plan", Levels: []*Level{{Name: "year", Length: 1}, {Name: "quarter", Length: 4}}},
		Network:   "grid",
		Locations: []*Location{{Name: "A"}, {Name: "B", Parent: "grid"}},
		Linkages:  []*Linkage{{Source: "A", Sink: "B", Bidirectional: true}},
		Resources: []*Resource{{Name: "power"}},
		Processes: []*Process{{Name: "wind", Conversion: map[string]float64{"power": 1}}},
		Storages:  []*Storage{{Name: "battery", Resource: "power"}},
	}
}

func TestModelValidate(t *testing.T) {
	ctx, _ := testutil.Context(t)
	require.NoError(t, validModel().Validate(ctx))

	testCases := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{"no horizon", func(m *Model) { m.Horizon = nil }, "no horizon levels declared"},
		{"zero length", func(m *Model) { m.Horizon.Levels[1].Length = 0 }, "level 'quarter': length must be positive"},
		{"no network", func(m *Model) { m.Network = "" }, "no network declared"},
		{"unknown parent", func(m *Model) { m.Locations[0].Parent = "Z" }, "location 'A': unknown parent 'Z'"},
		{"unknown linkage end", func(m *Model) { m.Linkages[0].Sink = "C" }, "unknown location 'C'"},
		{"unknown resource", func(m *Model) { m.Storages[0].Resource = "heat" }, "storage 'battery': unknown resource 'heat'"},
		{"duplicate component", func(m *Model) { m.Processes[0].Name = "power" }, "component name already used"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := validModel()
			tc.mutate(m)
			err := m.Validate(ctx)
			require.ErrorIs(t, err, ErrInvalidModel)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestModelValidate_WarnsOnEmptyConversion(t *testing.T) {
	ctx, logs := testutil.Context(t)
	m := validModel()
	m.Processes[0].Conversion = nil
	require.NoError(t, m.Validate(ctx))
	assert.Contains(t, logs.String(), "Process converts no resources.")
}
