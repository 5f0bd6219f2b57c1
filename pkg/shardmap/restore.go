package shardmap

import "fmt"

// ShardDef is the full definition of one shard, used to persist a Map
// and rebuild it with the same placement.
type ShardDef[K comparable, V any] struct {
	Capacity  int
	Allocated bool
	Entries   []Entry[K, V]
}

// Export returns every shard definition in shard order. Entry order within
// a shard is unspecified.
func (m *Map[K, V]) Export() []ShardDef[K, V] {
	defs := make([]ShardDef[K, V], len(m.shards))
	for i, s := range m.shards {
		def := ShardDef[K, V]{
			Capacity:  s.capacity,
			Allocated: s.state == Allocated,
			Entries:   make([]Entry[K, V], 0, len(s.items)),
		}
		for k, v := range s.items {
			def.Entries = append(def.Entries, Entry[K, V]{Key: k, Value: v})
		}
		defs[i] = def
	}
	return defs
}

// Restore rebuilds a Map from shard definitions. Shard order is kept as
// given and each entry stays in its shard.
func Restore[K comparable, V any](defs []ShardDef[K, V]) (*Map[K, V], error) {
	m := &Map[K, V]{shards: make([]*shard[K, V], 0, len(defs))}
	seen := make(map[K]struct{})

	for i, def := range defs {
		if !ValidCapacity(def.Capacity) {
			return nil, fmt.Errorf("shard %d: %w: %d", i, ErrInvalidCapacity, def.Capacity)
		}
		s := newShard[K, V](def.Capacity)
		if def.Allocated {
			s.allocate()
		}
		if len(def.Entries) > s.space() {
			return nil, fmt.Errorf("shard %d: %w: %d entries", i, ErrCapacityOverflow, len(def.Entries))
		}
		for _, e := range def.Entries {
			if _, dup := seen[e.Key]; dup {
				return nil, fmt.Errorf("shard %d: %w: %v", i, ErrDuplicateKey, e.Key)
			}
			seen[e.Key] = struct{}{}
			s.items[e.Key] = e.Value
		}
		m.shards = append(m.shards, s)
	}
	return m, nil
}
