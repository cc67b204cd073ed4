// Package redisserver provides the Redis protocol server for vedis.
//
// This package implements the RESP2 codec and the connection handling,
// using only the Go standard library for the wire format:
//
//   - resp.go: RESP2 reader/writer and the Codec used by sessions
//   - server.go: listener, accept loop, per-connection session loop
//   - conn.go: connection state (id, buffers, rate limiter)
//
// Command semantics live in internal/core/service; this package only
// moves requests and replies between the socket and the Dispatcher.
package redisserver
