// Package cli defines the Cobra command tree for the firstrun CLI. Each file
// in this package registers one top-level command with the root command.
// Commands delegate to internal packages for the actual work and only handle
// flag parsing and output formatting.
package cli
