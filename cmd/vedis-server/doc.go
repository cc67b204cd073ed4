// Package main provides the entry point for vedis-server.
//
// vedis-server is a small in-memory key-value server that speaks the
// Redis protocol (RESP2). It supports GET, SET, DEL, EXISTS, DBSIZE, PING,
// COMMAND, QUIT and SHUTDOWN, and optionally exposes Prometheus metrics
// over HTTP.
//
// Configuration is read from an optional YAML file, VEDIS_* environment
// variables and command-line flags, in increasing priority. The process
// exits after a client sends SHUTDOWN or on SIGINT/SIGTERM.
package main
