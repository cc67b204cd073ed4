// Package storage provides the storage abstraction for vedis.
//
// Store is the only mutable state shared between connections. The
// in-memory implementation lives in internal/storage/memory and is built
// on the sharded map in pkg/cmap.
//
// Entries are created and overwritten by SET and removed by DEL; they
// never expire and are never written to disk.
package storage
