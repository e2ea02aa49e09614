// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package formulation

import "fmt"

// State is a pipeline stage. Stages only move forward.
type State int

const (
	StateEmpty State = iota
	StateComponentsRegistered
	StateResolved
	StateConstrained
	StateObjectiveSet
	StateReady
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateComponentsRegistered:
		return "COMPONENTS_REGISTERED"
	case StateResolved:
		return "RESOLVED"
	case StateConstrained:
		return "CONSTRAINED"
	case StateObjectiveSet:
		return "OBJECTIVE_SET"
	case StateReady:
		return "READY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Constraint families a pipeline can generate.
const (
	FamilyBounds    = "bounds"
	FamilyCapacity  = "capacity"
	FamilyOperation = "operation"
	FamilyBalance   = "balance"
	FamilyInventory = "inventory"
	FamilyDemand    = "demand"
	FamilyTransport = "transport"
	// FamilyFixed holds rolling-horizon fixings and is always generated.
	FamilyFixed = "fixed"
)

// AllFamilies lists every requestable family.
var AllFamilies = []string{
	FamilyBounds, FamilyCapacity, FamilyOperation, FamilyBalance,
	FamilyInventory, FamilyDemand, FamilyTransport,
}

// Families is a requested set of constraint families.
type Families map[string]struct{}

// NewFamilies validates names. No names means every family.
func NewFamilies(names ...string) (Families, error) {
	fs := make(Families)
	if len(names) == 0 {
		names = AllFamilies
	}
	known := make(map[string]bool, len(AllFamilies))
	for _, n := range AllFamilies {
		known[n] = true
	}
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("%w: '%s'", ErrUnknownFamily, n)
		}
		fs[n] = struct{}{}
	}
	return fs, nil
}

// Has reports whether family f was requested.
func (fs Families) Has(f string) bool {
	_, ok := fs[f]
	return ok
}
