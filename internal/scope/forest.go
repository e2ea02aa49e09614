// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

// Package scope holds the spatial containment forest: a network root,
// locations nested under it and linkages connecting pairs of locations.
package scope

import (
	"fmt"
	"sync"
)

// Kind tags what a Scope is.
type Kind int

const (
	KindNetwork Kind = iota
	KindLocation
	KindLinkage
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindLocation:
		return "location"
	case KindLinkage:
		return "linkage"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Scope is one addressable node of the forest.
type Scope struct {
	Name string
	Kind Kind

	// Linkage ends. Empty for networks and locations.
	Source string
	Sink   string
	// Reverse marks the implicit reverse of a bidirectional linkage.
	Reverse bool
}

// Forest stores scopes and their containment. Reads are safe for concurrent
// use once construction is finished.
type Forest struct {
	mu       sync.RWMutex
	network  string
	scopes   map[string]*Scope
	parent   map[string]string
	children map[string][]string
	order    []string
}

// New creates a forest whose root is the named network.
func New(network string) *Forest {
	if network == "" {
		network = "network"
	}
	f := &Forest{
		network:  network,
		scopes:   make(map[string]*Scope),
		parent:   make(map[string]string),
		children: make(map[string][]string),
	}
	f.scopes[network] = &Scope{Name: network, Kind: KindNetwork}
	f.order = append(f.order, network)
	return f
}

// Network returns the root scope.
func (f *Forest) Network() *Scope {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.scopes[f.network]
}

// AddLocation adds a location under parent. An empty parent means the network.
func (f *Forest) AddLocation(name, parent string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "" {
		return fmt.Errorf("%w: empty location name", ErrUnknownScope)
	}
	if _, exists := f.scopes[name]; exists {
		return fmt.Errorf("%w: '%s'", ErrDuplicateScope, name)
	}
	if parent == "" {
		parent = f.network
	}
	p, ok := f.scopes[parent]
	if !ok {
		return fmt.Errorf("%w: parent '%s' of location '%s'", ErrUnknownScope, parent, name)
	}
	if p.Kind == KindLinkage {
		return fmt.Errorf("%w: linkage '%s' cannot contain location '%s'", ErrCyclicScope, parent, name)
	}

	f.scopes[name] = &Scope{Name: name, Kind: KindLocation}
	f.order = append(f.order, name)
	f.attach(parent, name)
	return nil
}

// Contain nests existing locations under parent. A child may only move away
// from the network root; re-parenting a nested location is rejected.
func (f *Forest) Contain(parent string, children ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.scopes[parent]
	if !ok {
		return fmt.Errorf("%w: '%s'", ErrUnknownScope, parent)
	}
	if p.Kind != KindLocation {
		return fmt.Errorf("%w: '%s' is a %s", ErrCyclicScope, parent, p.Kind)
	}

	for _, child := range children {
		c, ok := f.scopes[child]
		if !ok {
			return fmt.Errorf("%w: '%s'", ErrUnknownScope, child)
		}
		if c.Kind != KindLocation {
			return fmt.Errorf("%w: '%s' is a %s", ErrCyclicScope, child, c.Kind)
		}
		current := f.parent[child]
		if current == parent {
			continue
		}
		if current != f.network {
			return fmt.Errorf("%w: '%s' is in '%s', cannot move to '%s'", ErrMultipleParents, child, current, parent)
		}
		if child == parent || f.isAncestor(child, parent) {
			return fmt.Errorf("%w: '%s' contains '%s'", ErrCyclicScope, child, parent)
		}
		f.detach(current, child)
		f.attach(parent, child)
	}
	return nil
}

// AddLinkage adds source->sink and, when bidirectional, its reverse. It
// returns every linkage it created.
func (f *Forest) AddLinkage(source, sink string, bidirectional bool) ([]*Scope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, end := range []string{source, sink} {
		s, ok := f.scopes[end]
		if !ok {
			return nil, fmt.Errorf("%w: linkage end '%s'", ErrUnknownScope, end)
		}
		if s.Kind != KindLocation {
			return nil, fmt.Errorf("%w: end '%s' is a %s", ErrInvalidLinkage, end, s.Kind)
		}
	}
	if source == sink {
		return nil, fmt.Errorf("%w: '%s' links to itself", ErrInvalidLinkage, source)
	}

	forward := &Scope{Name: LinkageName(source, sink), Kind: KindLinkage, Source: source, Sink: sink}
	created := []*Scope{forward}
	if bidirectional {
		created = append(created, &Scope{Name: LinkageName(sink, source), Kind: KindLinkage, Source: sink, Sink: source, Reverse: true})
	}
	for _, l := range created {
		if _, exists := f.scopes[l.Name]; exists {
			return nil, fmt.Errorf("%w: linkage '%s'", ErrDuplicateScope, l.Name)
		}
	}
	for _, l := range created {
		f.scopes[l.Name] = l
		f.order = append(f.order, l.Name)
		f.parent[l.Name] = f.network
	}
	return created, nil
}

// LinkageName is the canonical name of the linkage from source to sink.
func LinkageName(source, sink string) string {
	return source + "-" + sink
}

// Lookup finds a scope by name.
func (f *Forest) Lookup(name string) (*Scope, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	s, ok := f.scopes[name]
	return s, ok
}

// MembersOf returns the direct children of a scope in declaration order.
func (f *Forest) MembersOf(name string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, ok := f.scopes[name]; !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownScope, name)
	}
	out := make([]string, len(f.children[name]))
	copy(out, f.children[name])
	return out, nil
}

// AncestorsOf returns the chain of containing scopes, network first. The
// scope itself is not included.
func (f *Forest) AncestorsOf(name string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, ok := f.scopes[name]; !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownScope, name)
	}
	var chain []string
	for p, ok := f.parent[name]; ok; p, ok = f.parent[p] {
		chain = append([]string{p}, chain...)
	}
	return chain, nil
}

// ExpandForAll expands every named scope to its leaves. Leaf locations and
// linkages expand to themselves. The result is de-duplicated and keeps the
// order of first appearance.
func (f *Forest) ExpandForAll(names ...string) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	var walk func(string)
	walk = func(n string) {
		kids := f.children[n]
		if len(kids) == 0 {
			if f.scopes[n].Kind == KindNetwork {
				return
			}
			if _, dup := seen[n]; !dup {
				seen[n] = struct{}{}
				out = append(out, n)
			}
			return
		}
		for _, k := range kids {
			walk(k)
		}
	}

	for _, n := range names {
		if _, ok := f.scopes[n]; !ok {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownScope, n)
		}
		walk(n)
	}
	return out, nil
}

// Locations lists every location in declaration order.
func (f *Forest) Locations() []string { return f.byKind(KindLocation) }

// Linkages lists every linkage, reverses included, in declaration order.
func (f *Forest) Linkages() []string { return f.byKind(KindLinkage) }

// Leaves lists the locations without children.
func (f *Forest) Leaves() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []string
	for _, n := range f.order {
		if f.scopes[n].Kind == KindLocation && len(f.children[n]) == 0 {
			out = append(out, n)
		}
	}
	return out
}

// Outgoing lists linkages whose source is loc.
func (f *Forest) Outgoing(loc string) []*Scope {
	return f.linkagesWhere(func(s *Scope) bool { return s.Source == loc })
}

// Incoming lists linkages whose sink is loc.
func (f *Forest) Incoming(loc string) []*Scope {
	return f.linkagesWhere(func(s *Scope) bool { return s.Sink == loc })
}

func (f *Forest) linkagesWhere(match func(*Scope) bool) []*Scope {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []*Scope
	for _, n := range f.order {
		s := f.scopes[n]
		if s.Kind == KindLinkage && match(s) {
			out = append(out, s)
		}
	}
	return out
}

func (f *Forest) byKind(k Kind) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var out []string
	for _, n := range f.order {
		if f.scopes[n].Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// isAncestor reports whether a is on the parent chain of b. Caller holds the lock.
func (f *Forest) isAncestor(a, b string) bool {
	for p, ok := f.parent[b]; ok; p, ok = f.parent[p] {
		if p == a {
			return true
		}
	}
	return false
}

func (f *Forest) attach(parent, child string) {
	f.parent[child] = parent
	f.children[parent] = append(f.children[parent], child)
}

func (f *Forest) detach(parent, child string) {
	kids := f.children[parent]
	for i, k := range kids {
		if k == child {
			f.children[parent] = append(kids[:i:i], kids[i+1:]...)
			return
		}
	}
}
