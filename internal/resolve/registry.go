// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package resolve

import (
	"log/slog"

	"github.com/specialistvlad/energiago/internal/disposition"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
)

// Event is a notable resolution outcome, such as an override.
type Event struct {
	Level   slog.Level
	Key     disposition.Key
	Message string
}

// Registry holds every resolved parameter, variable and parametric symbol of
// one formulation. It is owned by a single pipeline and is not safe for
// concurrent mutation.
type Registry struct {
	params      map[disposition.Key][]*program.Parameter
	paramKeys   []disposition.Key
	paramFamily map[disposition.Key]disposition.Key

	vars      map[disposition.Key][]*program.Variable
	varKeys   []disposition.Key
	varFamily map[disposition.Key]disposition.Key

	symbols []*program.Symbol
	events  []Event

	nextVar int
	nextSym int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		params:      make(map[disposition.Key][]*program.Parameter),
		paramFamily: make(map[disposition.Key]disposition.Key),
		vars:        make(map[disposition.Key][]*program.Variable),
		varFamily:   make(map[disposition.Key]disposition.Key),
	}
}

// Parameters returns the parameters of k in flat index order.
func (r *Registry) Parameters(k disposition.Key) ([]*program.Parameter, bool) {
	ps, ok := r.params[k]
	return ps, ok
}

// ParameterFamily finds the parameters of (component, aspect, scope) at
// whatever level they were resolved.
func (r *Registry) ParameterFamily(component, aspect, scopeName string) (disposition.Key, []*program.Parameter, bool) {
	k, ok := r.paramFamily[familyKey(component, aspect, scopeName)]
	if !ok {
		return disposition.Key{}, nil, false
	}
	return k, r.params[k], true
}

// Variables returns the variables of k in flat index order.
func (r *Registry) Variables(k disposition.Key) ([]*program.Variable, bool) {
	vs, ok := r.vars[k]
	return vs, ok
}

// VariableFamily finds the variables of (component, aspect, scope) at
// whatever level they were created.
func (r *Registry) VariableFamily(component, aspect, scopeName string) (disposition.Key, []*program.Variable, bool) {
	k, ok := r.varFamily[familyKey(component, aspect, scopeName)]
	if !ok {
		return disposition.Key{}, nil, false
	}
	return k, r.vars[k], true
}

// ParameterKeys lists resolved parameter dispositions in resolution order.
func (r *Registry) ParameterKeys() []disposition.Key {
	return append([]disposition.Key(nil), r.paramKeys...)
}

// VariableKeys lists variable dispositions in creation order.
func (r *Registry) VariableKeys() []disposition.Key {
	return append([]disposition.Key(nil), r.varKeys...)
}

// AllVariables lists every variable in creation order.
func (r *Registry) AllVariables() []*program.Variable {
	out := make([]*program.Variable, 0, r.nextVar)
	for _, k := range r.varKeys {
		out = append(out, r.vars[k]...)
	}
	return out
}

// AllParameters lists every parameter in resolution order.
func (r *Registry) AllParameters() []*program.Parameter {
	var out []*program.Parameter
	for _, k := range r.paramKeys {
		out = append(out, r.params[k]...)
	}
	return out
}

// Symbols lists the parametric symbols registered for multiparametric analysis.
func (r *Registry) Symbols() []*program.Symbol {
	return append([]*program.Symbol(nil), r.symbols...)
}

// Events lists recorded events in order.
func (r *Registry) Events() []Event {
	return append([]Event(nil), r.events...)
}

func (r *Registry) putParams(k disposition.Key, ps []*program.Parameter) {
	if _, exists := r.params[k]; !exists {
		r.paramKeys = append(r.paramKeys, k)
	}
	r.params[k] = ps
	r.paramFamily[k.Family()] = k
	for _, p := range ps {
		if p.Symbol != nil {
			p.Symbol.ID = r.nextSym
			r.nextSym++
			r.symbols = append(r.symbols, p.Symbol)
		}
	}
}

func (r *Registry) dropParams(k disposition.Key) {
	if _, ok := r.params[k]; !ok {
		return
	}
	delete(r.params, k)
	delete(r.paramFamily, k.Family())
	keys := r.paramKeys[:0]
	for _, pk := range r.paramKeys {
		if pk != k {
			keys = append(keys, pk)
		}
	}
	r.paramKeys = keys

	syms := r.symbols[:0]
	for _, s := range r.symbols {
		if s.Key != k {
			syms = append(syms, s)
		}
	}
	r.symbols = syms
}

func (r *Registry) addVariables(k disposition.Key, h *scale.Hierarchy, lvl *scale.Level, d program.Domain) []*program.Variable {
	vs := make([]*program.Variable, 0, lvl.Size())
	for flat, idx := range h.Indices(lvl) {
		vs = append(vs, &program.Variable{
			ID:     r.nextVar,
			Name:   k.At(idx).String(),
			Key:    k,
			Index:  idx,
			Flat:   flat,
			Domain: d,
		})
		r.nextVar++
	}
	r.vars[k] = vs
	r.varKeys = append(r.varKeys, k)
	r.varFamily[k.Family()] = k
	return vs
}

func (r *Registry) record(e Event) {
	r.events = append(r.events, e)
}

func familyKey(component, aspect, scopeName string) disposition.Key {
	return disposition.Key{Scope: scopeName, Component: component, Aspect: aspect}
}
