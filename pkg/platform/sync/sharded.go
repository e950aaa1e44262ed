package sync

import (
	"sync"
)

const shardCount = 32

// ShardedMap is a string-keyed map split across 32 independently locked
// shards. Every access to a key holds that key's shard lock, so updates to a
// single key are serialized while unrelated keys rarely contend.
type ShardedMap[V any] struct {
	shards [shardCount]mapShard[V]
}

type mapShard[V any] struct {
	mu      sync.Mutex
	entries map[string]V
}

// NewShardedMap creates an empty ShardedMap.
func NewShardedMap[V any]() *ShardedMap[V] {
	m := &ShardedMap[V]{}
	for i := range m.shards {
		m.shards[i].entries = make(map[string]V)
	}
	return m
}

// Update runs fn under the key's shard lock. fn receives the current value and
// whether it exists, and returns the value to store and whether to keep it.
// Returning keep=false removes the key.
func (m *ShardedMap[V]) Update(key string, fn func(current V, ok bool) (next V, keep bool)) {
	s := &m.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[key]
	next, keep := fn(current, ok)
	if keep {
		s.entries[key] = next
		return
	}
	delete(s.entries, key)
}

// Get returns the value for key.
func (m *ShardedMap[V]) Get(key string) (V, bool) {
	s := &m.shards[shardFor(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

// Sweep removes every entry for which remove returns true, holding one shard
// lock at a time. It returns the number of removed entries.
func (m *ShardedMap[V]) Sweep(remove func(key string, v V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.entries {
			if remove(k, v) {
				delete(s.entries, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// Len returns the number of entries across all shards.
func (m *ShardedMap[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// shardFor returns the shard index for the given key.
// Empty keys default to shard 0.
func shardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % shardCount)
}

// hashString provides a simple hash for shard selection.
// Uses djb2-style hashing for good distribution.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
