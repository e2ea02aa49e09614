package config

// Model is the unified, format-agnostic representation of one energy system
// declaration: its horizon, its spatial scopes and its components.
type Model struct {
	Horizon    *Horizon
	Network    string
	Locations  []*Location
	Linkages   []*Linkage
	Resources  []*Resource
	Processes  []*Process
	Storages   []*Storage
	Transports []*Transport
}

// Horizon is the format-agnostic representation of a `horizon` block.
type Horizon struct {
	Name string
	// Levels are coarsest first unless BottomUp is set, in which case the
	// first level is the base unit and each following one spans Length of
	// the previous.
	Levels   []*Level
	BottomUp bool
}

// Level is one temporal level of a horizon.
type Level struct {
	Name   string
	Length int
}

// Location is the format-agnostic representation of a `location` block.
type Location struct {
	Name string
	// Parent is the containing location; empty means the network.
	Parent string
	// Members are locations moved under this one after all are declared.
	Members []string
}

// Linkage is the format-agnostic representation of a `linkage` block.
type Linkage struct {
	Source        string
	Sink          string
	Bidirectional bool
}

// Attribute maps a scope name to a raw value for the value classifier. The
// empty scope is the default for every scope the component is declared at.
type Attribute map[string]any

// Resource is a commodity balanced at every location it is declared at.
type Resource struct {
	Name string
	// Locations the resource is balanced at; empty means every leaf.
	Locations []string
	// Level of the balance; empty means the finest level.
	Level string

	Demand   Attribute
	Penalty  Attribute
	Consume  Attribute
	Price    Attribute
	Emission Attribute
}

// Process converts resources. Conversion maps a resource to the amount
// produced (positive) or used (negative) per unit of operation.
type Process struct {
	Name       string
	Locations  []string
	Level      string
	Conversion map[string]float64

	Capacity  Attribute
	Operate   Attribute
	Capex     Attribute
	Opex      Attribute
	Emission  Attribute
	Build     bool
	BuildCost Attribute
}

// Storage holds one resource over time.
type Storage struct {
	Name      string
	Resource  string
	Locations []string
	Level     string

	Capacity  Attribute
	Charge    Attribute
	Discharge Attribute
	Capex     Attribute
	Opex      Attribute
}

// Transport moves one resource along linkages.
type Transport struct {
	Name     string
	Resource string
	// Linkages the transport runs on; empty means every linkage.
	Linkages []string
	Level    string

	Capacity Attribute
	Flow     Attribute
	Loss     Attribute
	Capex    Attribute
	Opex     Attribute
}
