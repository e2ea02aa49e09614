// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package constraint

import "errors"

var (
	// ErrBilinear is returned for products of two decision quantities.
	ErrBilinear = errors.New("constraint: bilinear term")
	// ErrScaleMismatch is returned when a term is coarser than the constraint it enters.
	ErrScaleMismatch = errors.New("constraint: scale mismatch")
	// ErrRule is returned for rule and operand combinations outside the vocabulary.
	ErrRule = errors.New("constraint: unsupported rule shape")
)
