// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package program

import "errors"

var (
	// ErrDuplicateConstraint is returned when a constraint name is added twice.
	ErrDuplicateConstraint = errors.New("program: duplicate constraint")
	// ErrUnrealized is returned when a parametric symbol has no value.
	ErrUnrealized = errors.New("program: parametric symbol has no value")
	// ErrOutOfRange is returned when a parametric value lies outside its range.
	ErrOutOfRange = errors.New("program: parametric value outside its range")
)
