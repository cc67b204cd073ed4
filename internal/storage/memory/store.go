// Package memory provides in-memory storage for vedis.
package memory

import (
	"github.com/yndnr/vedis-go/internal/storage"
	"github.com/yndnr/vedis-go/pkg/cmap"
)

var _ storage.Store = (*Store)(nil)

// Store provides in-memory key-value storage.
type Store struct {
	items *cmap.Map[string]
}

// Option configures the Store.
type Option func(*options)

type options struct {
	shards int
}

// WithShards sets the number of map shards (power of two).
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	o := options{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}

	return &Store{
		items: cmap.NewWithShards[string](o.shards),
	}
}

// Get retrieves the value for key.
func (s *Store) Get(key string) (string, bool) {
	return s.items.Get(key)
}

// Put inserts or replaces the value for key and returns the replaced value.
func (s *Store) Put(key, value string) (string, bool) {
	return s.items.Swap(key, value)
}

// Remove deletes key and returns the value it held.
func (s *Store) Remove(key string) (string, bool) {
	return s.items.LoadAndDelete(key)
}

// Exists reports whether key is present.
func (s *Store) Exists(key string) bool {
	return s.items.Has(key)
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// ShardKeys returns the number of keys held by each shard, indexed by shard.
func (s *Store) ShardKeys() []int {
	stats := s.items.Stats()
	counts := make([]int, len(stats))
	for _, st := range stats {
		counts[st.Index] = st.Count
	}
	return counts
}
