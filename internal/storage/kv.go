package storage

// Store is a concurrent mapping from string keys to string values.
//
// Implementation requirements:
//   - Thread-safe: any number of goroutines may call any method without
//     external locking
//   - Linearizable per key: operations on one key take effect in a total
//     order, last writer wins; nothing is ordered across keys
//   - Non-blocking apart from short internal critical sections
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool)

	// Put inserts or replaces the value for key. It returns the value it
	// replaced, atomically with the write.
	Put(key, value string) (old string, existed bool)

	// Remove deletes key and returns the value it held. Removing an absent
	// key is a no-op returning ("", false).
	Remove(key string) (old string, existed bool)

	// Exists reports whether key is present.
	Exists(key string) bool

	// Len returns the number of keys. It is approximate under concurrent writes.
	Len() int
}
