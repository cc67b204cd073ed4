// Package config provides CLI configuration for vedis-cli.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.vedis/cli.yaml)
//   - loader.go: Configuration loading, saving and merging
//
// Precedence, lowest first: defaults, the YAML file, VEDIS_* environment
// variables, command-line flags.
package config
