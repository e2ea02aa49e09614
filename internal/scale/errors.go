// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package scale

import "errors"

var (
	// ErrScaleDefinition indicates an invalid level declaration: a non-positive
	// length, a duplicated level name, or an empty hierarchy.
	ErrScaleDefinition = errors.New("scale: invalid scale definition")
	// ErrAmbiguousScale indicates that no level matches a data length.
	ErrAmbiguousScale = errors.New("scale: no level matches data length")
	// ErrIncomparableScale indicates two levels that do not share a root chain.
	ErrIncomparableScale = errors.New("scale: levels do not share a root chain")
	// ErrIndexRange indicates a flat index or tuple outside a level's extent.
	ErrIndexRange = errors.New("scale: index out of range")
)
