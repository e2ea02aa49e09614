// internal/scale/scale_test.go
package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func yearQuarters(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := Declare("plan", Spec{Name: "year", Length: 1}, Spec{Name: "quarter", Length: 4})
	require.NoError(t, err)
	return h
}

func yearDayHour(t *testing.T) *Hierarchy {
	t.Helper()
	h, err := Declare("plan",
		Spec{Name: "year", Length: 1},
		Spec{Name: "day", Length: 7},
		Spec{Name: "hour", Length: 24},
	)
	require.NoError(t, err)
	return h
}

func TestDeclare(t *testing.T) {
	testCases := []struct {
		name    string
		specs   []Spec
		sizes   []int
		wantErr bool
	}{
		{name: "single root", specs: []Spec{{"year", 1}}, sizes: []int{1}},
		{name: "year quarter", specs: []Spec{{"year", 1}, {"quarter", 4}}, sizes: []int{1, 4}},
		{name: "multi-root horizon", specs: []Spec{{"day", 3}, {"hour", 24}}, sizes: []int{3, 72}},
		{name: "no levels", specs: nil, wantErr: true},
		{name: "zero length", specs: []Spec{{"year", 1}, {"quarter", 0}}, wantErr: true},
		{name: "negative length", specs: []Spec{{"year", -1}}, wantErr: true},
		{name: "duplicate name", specs: []Spec{{"year", 1}, {"year", 4}}, wantErr: true},
		{name: "empty name", specs: []Spec{{"", 1}}, wantErr: true},
		{name: "child repeats parent", specs: []Spec{{"year", 1}, {"again", 1}}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := Declare("plan", tc.specs...)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrScaleDefinition)
				return
			}
			require.NoError(t, err)
			levels := h.Levels()
			require.Len(t, levels, len(tc.sizes))
			for i, l := range levels {
				assert.Equal(t, tc.sizes[i], l.Size(), "level %s", l.Name())
				assert.Equal(t, i, l.Depth())
			}
			assert.True(t, h.Root().IsRoot())
			assert.Equal(t, levels[len(levels)-1], h.Finest())
		})
	}
}

func TestDeclareBottomUp(t *testing.T) {
	h, err := DeclareBottomUp("plan", Spec{"hour", 1}, Spec{"day", 24}, Spec{"year", 365})
	require.NoError(t, err)

	names := []string{}
	for _, l := range h.Levels() {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"year", "day", "hour"}, names)

	day, ok := h.Level("day")
	require.True(t, ok)
	assert.Equal(t, 365, day.Size())
	assert.Equal(t, 365*24, h.Finest().Size())
	assert.Equal(t, h.Root(), day.Parent())

	_, err = DeclareBottomUp("plan", Spec{"hour", 2}, Spec{"day", 24})
	require.ErrorIs(t, err, ErrScaleDefinition)
}

func TestResolveLevel(t *testing.T) {
	h := yearQuarters(t)

	quarter, err := h.ResolveLevel(4)
	require.NoError(t, err)
	assert.Equal(t, "quarter", quarter.Name())

	year, err := h.ResolveLevel(1)
	require.NoError(t, err)
	assert.Equal(t, "year", year.Name())

	for _, n := range []int{0, 2, 3, 5, 12} {
		_, err := h.ResolveLevel(n)
		require.ErrorIs(t, err, ErrAmbiguousScale, "length %d", n)
	}
}

func TestIndexOf(t *testing.T) {
	h := yearDayHour(t)
	hour := h.Finest()

	idx, err := h.IndexOf(hour, 0)
	require.NoError(t, err)
	assert.Equal(t, Index{0, 0, 0}, idx)

	idx, err = h.IndexOf(hour, 24*2+6)
	require.NoError(t, err)
	assert.Equal(t, Index{0, 2, 6}, idx)
	assert.Equal(t, "0,2,6", idx.String())

	_, err = h.IndexOf(hour, hour.Size())
	require.ErrorIs(t, err, ErrIndexRange)
	_, err = h.IndexOf(hour, -1)
	require.ErrorIs(t, err, ErrIndexRange)

	other := yearQuarters(t)
	_, err = h.IndexOf(other.Finest(), 0)
	require.ErrorIs(t, err, ErrIncomparableScale)
}

func TestIndexRoundTrip(t *testing.T) {
	h, err := Declare("plan", Spec{"year", 2}, Spec{"week", 52}, Spec{"hour", 168})
	require.NoError(t, err)

	for _, l := range h.Levels() {
		t.Run(l.Name(), func(t *testing.T) {
			for flat := 0; flat < l.Size(); flat++ {
				idx, err := h.IndexOf(l, flat)
				require.NoError(t, err)
				back, err := h.Flatten(l, idx)
				require.NoError(t, err)
				require.Equal(t, flat, back)
			}
		})
	}
}

func TestFlattenRejectsMalformedTuples(t *testing.T) {
	h := yearQuarters(t)
	q := h.Finest()

	_, err := h.Flatten(q, Index{0})
	require.ErrorIs(t, err, ErrIndexRange)
	_, err = h.Flatten(q, Index{0, 4})
	require.ErrorIs(t, err, ErrIndexRange)
	_, err = h.Flatten(q, Index{1, 0})
	require.ErrorIs(t, err, ErrIndexRange)
}

func TestRatio(t *testing.T) {
	h := yearDayHour(t)
	year, _ := h.Level("year")
	day, _ := h.Level("day")
	hour, _ := h.Level("hour")

	r, err := Ratio(year, hour)
	require.NoError(t, err)
	assert.Equal(t, float64(168), r)

	r, err = Ratio(day, hour)
	require.NoError(t, err)
	assert.Equal(t, float64(24), r)

	r, err = Ratio(hour, day)
	require.NoError(t, err)
	assert.InDelta(t, 1.0/24, r, 1e-12)

	other := yearQuarters(t)
	_, err = Ratio(year, other.Root())
	require.ErrorIs(t, err, ErrIncomparableScale)
	_, err = Ratio(nil, year)
	require.ErrorIs(t, err, ErrIncomparableScale)
}

func TestProjectAndChildren(t *testing.T) {
	h := yearDayHour(t)
	day, _ := h.Level("day")
	hour := h.Finest()

	d, err := Project(hour, 24*3+5, day)
	require.NoError(t, err)
	assert.Equal(t, 3, d)

	same, err := Project(day, 4, day)
	require.NoError(t, err)
	assert.Equal(t, 4, same)

	_, err = Project(day, 1, hour)
	require.ErrorIs(t, err, ErrIncomparableScale)

	start, count, err := Children(day, 3, hour)
	require.NoError(t, err)
	assert.Equal(t, 72, start)
	assert.Equal(t, 24, count)

	_, _, err = Children(hour, 0, day)
	require.ErrorIs(t, err, ErrIncomparableScale)
	_, _, err = Children(day, 7, hour)
	require.ErrorIs(t, err, ErrIndexRange)

	assert.True(t, Finer(hour, day))
	assert.False(t, Finer(day, day))
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex("0,2,6")
	require.NoError(t, err)
	assert.Equal(t, Index{0, 2, 6}, idx)

	_, err = ParseIndex("")
	require.ErrorIs(t, err, ErrIndexRange)
	_, err = ParseIndex("0,x")
	require.ErrorIs(t, err, ErrIndexRange)
}

func TestIndices(t *testing.T) {
	h := yearQuarters(t)
	got := h.Indices(h.Finest())
	assert.Equal(t, []Index{{0, 0}, {0, 1}, {0, 2}, {0, 3}}, got)
}
