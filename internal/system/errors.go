// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package system

import "errors"

var (
	// ErrComponent is returned for component declarations that cannot be
	// formulated, e.g. a build decision without a capacity.
	ErrComponent = errors.New("system: invalid component")
	// ErrFactor is returned when a scenario factor cannot be applied.
	ErrFactor = errors.New("system: invalid factor")
)
