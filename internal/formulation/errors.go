// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package formulation

import "errors"

var (
	// ErrIncompleteFormulation is returned when the objective or a balance
	// refers to a disposition that was never resolved.
	ErrIncompleteFormulation = errors.New("formulation: incomplete formulation")
	// ErrState is returned for transitions the pipeline does not allow.
	ErrState = errors.New("formulation: invalid state transition")
	// ErrDuplicateComponent is returned when two components share a name.
	ErrDuplicateComponent = errors.New("formulation: duplicate component")
	// ErrUnknownFamily is returned for constraint families outside the vocabulary.
	ErrUnknownFamily = errors.New("formulation: unknown constraint family")
)
