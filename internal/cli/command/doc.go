// Package command provides CLI command definitions for vedis-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, configuration resolution
//   - kv.go: get, set, del, exists, ping, dbsize, shutdown, raw
//   - repl.go: interactive mode, also the default with no command
//
// Every command dials the server, sends one request, prints the reply
// with the selected formatter and disconnects.
package command
