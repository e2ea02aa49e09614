// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package disposition

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/specialistvlad/energiago/internal/scale"
)

// ErrInvalidKey is returned for keys with missing or malformed parts.
var ErrInvalidKey = errors.New("disposition: invalid key")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var keyPattern = regexp.MustCompile(`^([A-Za-z0-9_-]+)\.([A-Za-z0-9_-]+)@([A-Za-z0-9_-]+):([A-Za-z0-9_-]+)(?:\[([0-9,]+)\])?$`)

// Key identifies one parameter or variable family.
type Key struct {
	Scope     string
	Level     string
	Component string
	Aspect    string
}

// New builds a key anchored at the given level.
func New(component, aspect, scope string, level *scale.Level) Key {
	return Key{Scope: scope, Level: level.Name(), Component: component, Aspect: aspect}
}

// Validate checks that every part is a plain name.
func (k Key) Validate() error {
	for part, v := range map[string]string{"scope": k.Scope, "level": k.Level, "component": k.Component, "aspect": k.Aspect} {
		if !namePattern.MatchString(v) {
			return fmt.Errorf("%w: %s %q in %s", ErrInvalidKey, part, v, k)
		}
	}
	return nil
}

func (k Key) String() string {
	return fmt.Sprintf("%s.%s@%s:%s", k.Component, k.Aspect, k.Scope, k.Level)
}

// Family returns the key with the level removed, identifying the
// (component, aspect, scope) a variable belongs to regardless of its level.
func (k Key) Family() Key {
	k.Level = ""
	return k
}

// At returns the element of k at idx.
func (k Key) At(idx scale.Index) Element {
	return Element{Key: k, Index: idx.String()}
}

// Element is a Key plus the text form of one temporal index.
type Element struct {
	Key
	Index string
}

func (e Element) String() string {
	return fmt.Sprintf("%s[%s]", e.Key, e.Index)
}

// Parse reads a key from its canonical form, with or without an index.
func Parse(s string) (Element, error) {
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return Element{}, fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	el := Element{Key: Key{Component: m[1], Aspect: m[2], Scope: m[3], Level: m[4]}}
	if m[5] != "" {
		idx, err := scale.ParseIndex(m[5])
		if err != nil {
			return Element{}, fmt.Errorf("%w: %q: %w", ErrInvalidKey, s, err)
		}
		el.Index = idx.String()
	}
	return el, nil
}
