// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package value

import (
	"errors"
	"fmt"
)

// ErrValueClassification is the sentinel every classification failure matches.
var ErrValueClassification = errors.New("value: cannot classify input")

// ClassificationError carries the offending input and the component that
// declared it.
type ClassificationError struct {
	Raw       any
	Component string
	Reason    string
	// Err is an optional underlying cause, e.g. a scale resolution failure.
	Err error
}

func (e *ClassificationError) Error() string {
	msg := fmt.Sprintf("value: cannot classify %#v declared by '%s': %s", e.Raw, e.Component, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is and errors.As.
func (e *ClassificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValueClassification}
	}
	return []error{ErrValueClassification, e.Err}
}
