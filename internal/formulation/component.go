// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package formulation

import (
	"context"

	"github.com/specialistvlad/energiago/internal/constraint"
	"github.com/specialistvlad/energiago/internal/program"
	"github.com/specialistvlad/energiago/internal/scale"
	"github.com/specialistvlad/energiago/internal/scope"
)

// Declaration is one raw input a component wants resolved.
type Declaration struct {
	Aspect string
	Scope  string
	// Raw is classified with the value classifier. A nil Raw only ensures the
	// aspect's variable exists.
	Raw any
	// Natural is the level scalars are placed at; nil means the horizon root.
	Natural *scale.Level
	// VarLevel is where the aspect's variable lives; nil means the value's level.
	VarLevel *scale.Level
	Domain   *program.Domain
	Override bool
	// ParameterOnly suppresses the variable for variable aspects.
	ParameterOnly bool
}

// Component is anything that contributes declarations to a formulation.
type Component interface {
	Name() string
	Declarations(h *scale.Hierarchy, f *scope.Forest) ([]Declaration, error)
}

// Constrainer emits the constraint families it owns.
type Constrainer interface {
	Constrain(ctx context.Context, p *Pipeline, families Families) error
}

// BalanceFlow is one signed flow of a resource at a scope.
type BalanceFlow struct {
	Resource string
	Scope    string
	Flow     constraint.Flow
}

// Contributor adds flows to resource balances.
type Contributor interface {
	Flows(p *Pipeline) ([]BalanceFlow, error)
}

// Balance is a resource balance the owning component requests.
type Balance struct {
	Resource string
	Scope    string
	Level    *scale.Level
	// External is an optional right-hand side per index of Level.
	External []program.Expr
}

// Balanced owns resource balances.
type Balanced interface {
	Balances(p *Pipeline) ([]Balance, error)
}

// ObjectiveTerm is sum over indices of coefficient(Component.Aspect@Scope)
// times variable(VariableComponent.Variable@Scope). The coefficient family is
// projected onto the variable's level.
type ObjectiveTerm struct {
	Component string
	Aspect    string
	Scope     string
	// Variable is the aspect of the multiplied variable family.
	Variable string
	// VariableComponent defaults to Component.
	VariableComponent string
}

// Coster contributes objective terms for an objective kind.
type Coster interface {
	ObjectiveTerms(kind program.ObjectiveKind) []ObjectiveTerm
}

// Handle is the registered identity of a component.
type Handle struct {
	Name  string
	Order int
}
