// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSolver is returned when no adapter is registered under a name.
	ErrUnknownSolver = errors.New("solver: unknown solver")
	// ErrDuplicateSolver is returned when two adapters share a name.
	ErrDuplicateSolver = errors.New("solver: duplicate solver")
	// ErrParametric is returned by adapters that need every symbol realised.
	ErrParametric = errors.New("solver: problem has unrealised parametric values")
	// ErrOption is returned for malformed solver options.
	ErrOption = errors.New("solver: invalid option")
)

// ExternalSolveError wraps any failure or non-optimal outcome of a solve.
// Callers are expected to catch it and retry with different options.
type ExternalSolveError struct {
	Solver string
	Status Status
	Err    error
}

func (e *ExternalSolveError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("solver '%s': status %s", e.Solver, e.Status)
	}
	return fmt.Sprintf("solver '%s': status %s: %v", e.Solver, e.Status, e.Err)
}

func (e *ExternalSolveError) Unwrap() error { return e.Err }
