// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolve

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/energiago/internal/disposition"
)

var (
	// ErrDispositionCollision is returned when a disposition is resolved twice
	// without the override flag.
	ErrDispositionCollision = errors.New("resolve: disposition already resolved")
	// ErrBroadcast is returned when a series cannot be mapped onto a level.
	ErrBroadcast = errors.New("resolve: series does not fit level")
	// ErrScaleConflict is returned when a variable family is requested at a
	// level other than the one it was created at.
	ErrScaleConflict = errors.New("resolve: variable exists at another level")
	// ErrUnknownDisposition is returned for lookups of unresolved keys.
	ErrUnknownDisposition = errors.New("resolve: unknown disposition")
	// ErrPatch is returned when an index override cannot be applied.
	ErrPatch = errors.New("resolve: cannot patch disposition")
)

// CollisionError names the disposition that was declared twice.
type CollisionError struct {
	Key      disposition.Key
	Existing disposition.Key
}

func (e *CollisionError) Error() string {
	if e.Existing != e.Key {
		return fmt.Sprintf("resolve: '%s' collides with resolved '%s'", e.Key, e.Existing)
	}
	return fmt.Sprintf("resolve: '%s' already resolved, declare it as an override to replace it", e.Key)
}

// Unwrap returns ErrDispositionCollision.
func (e *CollisionError) Unwrap() error { return ErrDispositionCollision }
