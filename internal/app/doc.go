// Package app contains the core application logic: loading a model,
// building the energy system, formulating and solving it, and persisting
// what was solved. It is decoupled from any specific entrypoint like a CLI.
package app
