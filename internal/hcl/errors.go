// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package hcl

import "errors"

// ErrModel is returned when files parse but do not describe one model.
var ErrModel = errors.New("hcl: invalid model declaration")
