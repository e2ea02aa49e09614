// Package hcl loads energy system declarations from HCL files into the
// format-agnostic `config.Model`.
//
// Component inputs are ordinary HCL expressions. A scalar, a list of numbers
// or a marker call applies to every scope the component is declared at; an
// object maps scope names to values, with the key `default` standing for
// every other scope. The marker functions `range(lo, hi)`, `unbounded()`,
// `bound(lower, upper)` and `factor(nominal, multipliers)` produce the
// inputs the value classifier understands, and `parameter` blocks name
// values that other expressions reference as `param.<name>`.
package hcl
