// Package cmap provides a concurrent map for vedis.
//
// The map is keyed by string and split into a power-of-two number of
// shards, each guarded by its own RWMutex:
//
//   - Sharding: murmur3 hash of the key picks the shard
//   - Fine-grained Locking: readers of one shard never block other shards
//   - Atomic read-modify-write: Swap and LoadAndDelete return the previous
//     value under the same lock that performs the write
//
// Usage:
//
//	m := cmap.NewWithShards[string](32)
//	old, existed := m.Swap("key", "value")
//	val, ok := m.Get("key")
//
// Thread Safety:
//
// All operations are thread-safe. Per-key operations are linearizable;
// nothing is guaranteed across keys.
package cmap
