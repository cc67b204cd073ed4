// Package httpserver provides the operational HTTP endpoint for vedis.
//
// It serves Prometheus metrics and liveness/readiness probes next to the
// Redis protocol port:
//
//   - GET /metrics: Prometheus exposition
//   - GET /health: process is up
//   - GET /ready: server is accepting Redis connections
//
// The endpoint is disabled unless server.metrics.addr is set.
package httpserver
