// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package scale models the temporal discretisation of a planning horizon as
// an ordered chain of levels, for example year -> quarter -> hour.
//
// Every level knows how many intervals it splits its parent into (Length)
// and, derived from that, how many intervals it has over the whole horizon
// (Size). Time series attach to the level whose Size equals their length,
// and indices are addressed either by a flat position within a level or by
// the tuple path through all coarser ancestors.
//
// A Hierarchy is immutable once declared and is referenced, never owned,
// by everything that is scale indexed.
package scale
