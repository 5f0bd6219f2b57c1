package shardmap

import (
	"iter"
	"slices"
)

// Entry is a key-value pair.
type Entry[K comparable, V any] struct {
	Key   K
	Value V
}

// All returns an iterator over every key-value pair, shard by shard.
// Order within a shard is unspecified.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, s := range m.shards {
			for k, v := range s.items {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Range calls fn for each pair until fn returns false.
func (m *Map[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range m.All() {
		if !fn(k, v) {
			return
		}
	}
}

// Keys returns all keys.
func (m *Map[K, V]) Keys() []K {
	keys := make([]K, 0, m.Len())
	for k := range m.All() {
		keys = append(keys, k)
	}
	return keys
}

// Sorted returns all entries ordered by compare on keys.
func (m *Map[K, V]) Sorted(compare func(a, b K) int) []Entry[K, V] {
	entries := make([]Entry[K, V], 0, m.Len())
	for k, v := range m.All() {
		entries = append(entries, Entry[K, V]{Key: k, Value: v})
	}
	slices.SortFunc(entries, func(a, b Entry[K, V]) int { return compare(a.Key, b.Key) })
	return entries
}

// Page returns up to limit entries starting at cursor in compare order.
func (m *Map[K, V]) Page(cursor, limit int, compare func(a, b K) int) []Entry[K, V] {
	if cursor < 0 || limit <= 0 {
		return nil
	}
	entries := m.Sorted(compare)
	if cursor >= len(entries) {
		return nil
	}
	if limit > len(entries)-cursor {
		limit = len(entries) - cursor
	}
	return entries[cursor : cursor+limit]
}

// ShardStats describes one shard.
type ShardStats struct {
	Index    Index
	State    State
	Capacity int
	Len      int
}

// Stats returns per-shard statistics in shard order.
func (m *Map[K, V]) Stats() []ShardStats {
	stats := make([]ShardStats, len(m.shards))
	for i, s := range m.shards {
		stats[i] = ShardStats{
			Index:    Index(i),
			State:    s.state,
			Capacity: s.capacity,
			Len:      len(s.items),
		}
	}
	return stats
}
