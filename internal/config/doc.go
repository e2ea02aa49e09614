// Package config defines the format-agnostic declaration model of an energy
// system, along with the Loader interface for reading it from a source.
//
// The `config.Model` is the single source of truth for the `system` package.
// Concrete loaders, such as for HCL, are provided in separate packages.
package config
