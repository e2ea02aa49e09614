// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scenario

import "errors"

var (
	// ErrScenario is returned for malformed scenario files and factor tables.
	ErrScenario = errors.New("scenario: invalid scenario")
	// ErrProbability is returned when scenario probabilities are not a distribution.
	ErrProbability = errors.New("scenario: probabilities do not sum to one")
	// ErrNotFound is returned when no snapshot exists for a run.
	ErrNotFound = errors.New("scenario: snapshot not found")
)
