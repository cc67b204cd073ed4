// Package buildinfo provides build information for vedis.
//
// This package exposes build-time information injected via ldflags:
//
//   - Version: Semantic version (e.g., "1.0.0")
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//
// The Go version is read from the running binary.
//
// Usage:
//
//	go build -ldflags "-X github.com/yndnr/vedis-go/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo
