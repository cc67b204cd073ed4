// Package memory provides the in-memory Store for vedis.
//
// It implements storage.Store on top of pkg/cmap, so reads lock a single
// shard for reading and writes lock a single shard for writing.
package memory
