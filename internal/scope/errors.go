// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scope

import "errors"

var (
	// ErrCyclicScope is returned when containment would make a scope its own ancestor.
	ErrCyclicScope = errors.New("scope: containment cycle")
	// ErrUnknownScope is returned for names that were never added to the forest.
	ErrUnknownScope = errors.New("scope: unknown scope")
	// ErrDuplicateScope is returned when a name is added twice.
	ErrDuplicateScope = errors.New("scope: duplicate scope")
	// ErrMultipleParents is returned when a location already has a different parent.
	ErrMultipleParents = errors.New("scope: location already has a parent")
	// ErrInvalidLinkage is returned for linkages whose ends are not distinct locations.
	ErrInvalidLinkage = errors.New("scope: invalid linkage")
)
