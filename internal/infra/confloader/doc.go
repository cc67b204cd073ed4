// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library.
//
// Priority (highest to lowest):
//
//  1. Command-line flags (LoadMap)
//  2. Environment variables (VEDIS_ prefix)
//  3. Configuration file (YAML)
//  4. Default values (pre-filled target struct)
//
// Watcher reports changes to the configuration file so parts of the
// configuration, such as the log level, can be reloaded at runtime.
package confloader
