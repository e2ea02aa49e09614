// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scale

import (
	"fmt"
	"strconv"
	"strings"
)

// Spec is the declaration of one level: its name and how many intervals it
// splits its parent into (top-down) or how many intervals of the previous,
// finer level it spans (bottom-up).
type Spec struct {
	Name   string
	Length int
}

// Level is one discretisation of the horizon.
type Level struct {
	name   string
	length int
	size   int
	depth  int
	parent *Level
	h      *Hierarchy
}

// Name returns the level name.
func (l *Level) Name() string { return l.name }

// Length returns the number of intervals per parent interval.
func (l *Level) Length() int { return l.length }

// Size returns the number of intervals this level has over the whole horizon.
func (l *Level) Size() int { return l.size }

// Depth returns 0 for the root and increases towards finer levels.
func (l *Level) Depth() int { return l.depth }

// Parent returns the next coarser level, or nil for the root.
func (l *Level) Parent() *Level { return l.parent }

// IsRoot reports whether the level is the horizon root.
func (l *Level) IsRoot() bool { return l.parent == nil }

// Hierarchy returns the hierarchy the level belongs to.
func (l *Level) Hierarchy() *Hierarchy { return l.h }

func (l *Level) String() string {
	if l == nil {
		return "<nil>"
	}
	return l.name
}

// Hierarchy is an immutable chain of levels, coarsest first.
type Hierarchy struct {
	name   string
	levels []*Level
	byName map[string]*Level
}

// Declare builds a hierarchy top-down. specs[0] is the coarsest level; each
// following spec gives the number of intervals it splits its parent into.
func Declare(name string, specs ...Spec) (*Hierarchy, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: horizon '%s' declares no levels", ErrScaleDefinition, name)
	}

	h := &Hierarchy{
		name:   name,
		levels: make([]*Level, 0, len(specs)),
		byName: make(map[string]*Level, len(specs)),
	}

	var parent *Level
	for i, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: level %d of horizon '%s' has no name", ErrScaleDefinition, i, name)
		}
		if _, exists := h.byName[spec.Name]; exists {
			return nil, fmt.Errorf("%w: level '%s' declared twice", ErrScaleDefinition, spec.Name)
		}
		if spec.Length <= 0 {
			return nil, fmt.Errorf("%w: level '%s' has non-positive length %d", ErrScaleDefinition, spec.Name, spec.Length)
		}
		if parent != nil && spec.Length == 1 {
			return nil, fmt.Errorf("%w: level '%s' repeats the resolution of '%s'", ErrScaleDefinition, spec.Name, parent.name)
		}

		lvl := &Level{
			name:   spec.Name,
			length: spec.Length,
			size:   spec.Length,
			depth:  i,
			parent: parent,
			h:      h,
		}
		if parent != nil {
			lvl.size = parent.size * spec.Length
		}
		h.levels = append(h.levels, lvl)
		h.byName[spec.Name] = lvl
		parent = lvl
	}
	return h, nil
}

// DeclareBottomUp builds a hierarchy from the finest level upwards. specs[0]
// is the base unit and must have length 1; every following spec gives how
// many intervals of the previous spec one of its intervals spans, so
// {hour 1} {day 24} {year 365} yields year -> day -> hour.
func DeclareBottomUp(name string, specs ...Spec) (*Hierarchy, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: horizon '%s' declares no levels", ErrScaleDefinition, name)
	}
	if specs[0].Length != 1 {
		return nil, fmt.Errorf("%w: base level '%s' must have length 1, got %d", ErrScaleDefinition, specs[0].Name, specs[0].Length)
	}

	topDown := make([]Spec, len(specs))
	n := len(specs)
	topDown[0] = Spec{Name: specs[n-1].Name, Length: 1}
	for i := 1; i < n; i++ {
		// The level below specs[n-i] is specs[n-i-1]; it nests specs[n-i].Length times.
		topDown[i] = Spec{Name: specs[n-i-1].Name, Length: specs[n-i].Length}
	}
	return Declare(name, topDown...)
}

// Name returns the horizon name.
func (h *Hierarchy) Name() string { return h.name }

// Levels returns the levels, coarsest first.
func (h *Hierarchy) Levels() []*Level {
	out := make([]*Level, len(h.levels))
	copy(out, h.levels)
	return out
}

// Level looks a level up by name.
func (h *Hierarchy) Level(name string) (*Level, bool) {
	l, ok := h.byName[name]
	return l, ok
}

// Root returns the coarsest level.
func (h *Hierarchy) Root() *Level { return h.levels[0] }

// Finest returns the finest level.
func (h *Hierarchy) Finest() *Level { return h.levels[len(h.levels)-1] }

// Contains reports whether l belongs to this hierarchy.
func (h *Hierarchy) Contains(l *Level) bool {
	return l != nil && l.h == h
}

// ResolveLevel returns the unique level whose size equals dataLength.
func (h *Hierarchy) ResolveLevel(dataLength int) (*Level, error) {
	for _, l := range h.levels {
		if l.size == dataLength {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: length %d (horizon '%s' has %s)", ErrAmbiguousScale, dataLength, h.name, h.describeSizes())
}

func (h *Hierarchy) describeSizes() string {
	parts := make([]string, len(h.levels))
	for i, l := range h.levels {
		parts[i] = fmt.Sprintf("%s=%d", l.name, l.size)
	}
	return strings.Join(parts, ", ")
}

// IndexOf expands a flat, 0-based index within l into the tuple path through
// all coarser ancestors.
func (h *Hierarchy) IndexOf(l *Level, flat int) (Index, error) {
	if !h.Contains(l) {
		return nil, fmt.Errorf("%w: level '%s' is not part of horizon '%s'", ErrIncomparableScale, l, h.name)
	}
	if flat < 0 || flat >= l.size {
		return nil, fmt.Errorf("%w: %d not in [0, %d) for level '%s'", ErrIndexRange, flat, l.size, l.name)
	}

	idx := make(Index, l.depth+1)
	for k := l.depth; k >= 0; k-- {
		length := h.levels[k].length
		idx[k] = flat % length
		flat /= length
	}
	return idx, nil
}

// Flatten is the inverse of IndexOf.
func (h *Hierarchy) Flatten(l *Level, idx Index) (int, error) {
	if !h.Contains(l) {
		return 0, fmt.Errorf("%w: level '%s' is not part of horizon '%s'", ErrIncomparableScale, l, h.name)
	}
	if len(idx) != l.depth+1 {
		return 0, fmt.Errorf("%w: tuple %s has %d parts, level '%s' needs %d", ErrIndexRange, idx, len(idx), l.name, l.depth+1)
	}

	flat := 0
	for k, pos := range idx {
		length := h.levels[k].length
		if pos < 0 || pos >= length {
			return 0, fmt.Errorf("%w: position %d of tuple %s not in [0, %d)", ErrIndexRange, k, idx, length)
		}
		flat = flat*length + pos
	}
	return flat, nil
}

// Indices enumerates every tuple index of l in flat order.
func (h *Hierarchy) Indices(l *Level) []Index {
	out := make([]Index, 0, l.size)
	for i := 0; i < l.size; i++ {
		idx, _ := h.IndexOf(l, i)
		out = append(out, idx)
	}
	return out
}

// Ratio returns how many b intervals fit in one a interval. The result is
// fractional when b is coarser than a.
func Ratio(a, b *Level) (float64, error) {
	if a == nil || b == nil || a.h != b.h {
		return 0, fmt.Errorf("%w: '%s' and '%s'", ErrIncomparableScale, a, b)
	}
	return float64(b.size) / float64(a.size), nil
}

// Finer reports whether a is strictly finer than b. Both must share a hierarchy.
func Finer(a, b *Level) bool {
	return a != nil && b != nil && a.h == b.h && a.depth > b.depth
}

// Project maps a flat index of from onto the enclosing flat index of to,
// which must be the same level or a coarser one.
func Project(from *Level, flat int, to *Level) (int, error) {
	if from == nil || to == nil || from.h != to.h {
		return 0, fmt.Errorf("%w: '%s' and '%s'", ErrIncomparableScale, from, to)
	}
	if to.depth > from.depth {
		return 0, fmt.Errorf("%w: cannot project '%s' onto finer level '%s'", ErrIncomparableScale, from.name, to.name)
	}
	if flat < 0 || flat >= from.size {
		return 0, fmt.Errorf("%w: %d not in [0, %d) for level '%s'", ErrIndexRange, flat, from.size, from.name)
	}
	return flat / (from.size / to.size), nil
}

// Children returns the contiguous flat range [start, start+count) of fine
// that lies inside interval flat of coarse.
func Children(coarse *Level, flat int, fine *Level) (start, count int, err error) {
	if coarse == nil || fine == nil || coarse.h != fine.h {
		return 0, 0, fmt.Errorf("%w: '%s' and '%s'", ErrIncomparableScale, coarse, fine)
	}
	if fine.depth < coarse.depth {
		return 0, 0, fmt.Errorf("%w: '%s' is coarser than '%s'", ErrIncomparableScale, fine.name, coarse.name)
	}
	if flat < 0 || flat >= coarse.size {
		return 0, 0, fmt.Errorf("%w: %d not in [0, %d) for level '%s'", ErrIndexRange, flat, coarse.size, coarse.name)
	}
	count = fine.size / coarse.size
	return flat * count, count, nil
}

// Index is the tuple path of an interval, one position per level from the
// root down to the indexed level.
type Index []int

// String renders the tuple as comma separated positions, e.g. "0,2".
func (i Index) String() string {
	parts := make([]string, len(i))
	for k, v := range i {
		parts[k] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// ParseIndex is the inverse of Index.String.
func ParseIndex(s string) (Index, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty index", ErrIndexRange)
	}
	parts := strings.Split(s, ",")
	idx := make(Index, len(parts))
	for k, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: invalid position %q in %q", ErrIndexRange, p, s)
		}
		idx[k] = v
	}
	return idx, nil
}
