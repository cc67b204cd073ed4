// Package main provides the entry point for vedis-cli.
//
// vedis-cli is the command-line client for vedis-server, supporting both
// single-command mode and interactive REPL mode.
package main
