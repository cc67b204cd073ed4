// Package repl provides interactive mode for vedis-cli.
//
// This package implements the Read-Eval-Print Loop for interactive sessions:
//
//   - repl.go: Main REPL loop and line splitting
//   - completer.go: Prefix completion for command names
//   - history.go: Command history persistence (~/.vedis/history)
//
// Each line is split like a shell would (double and single quotes,
// backslash escapes inside double quotes) and sent to the server as one
// request. The reply is printed with the configured output formatter.
package repl
