// Package service implements the vedis command core.
//
// Dispatcher maps a command name to its handler, validates arity and
// null arguments in a fixed order, runs the handler against the store,
// and returns exactly one reply per request.
//
// Validation order for every request:
//
//  1. malformed request (no arguments, or null command name)
//  2. command lookup (case-sensitive)
//  3. arity
//  4. null key
//  5. null value (SET only)
//
// User-facing failures become error replies. Only internal faults are
// returned as errors, and the caller is expected to close the connection.
package service
