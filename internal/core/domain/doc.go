// Package domain defines the core types of the vedis command core.
//
// This package contains protocol-neutral types:
//
//   - request.go: Request and its nullable Arg elements
//   - reply.go: Reply, the tagged reply value (simple, bulk, integer, error, array)
//   - errors.go: Error with a Kind taxonomy and the exact client-facing messages
//
// Nothing in here knows about RESP framing or sockets; the wire codec in
// internal/server/redisserver converts to and from these types.
package domain
