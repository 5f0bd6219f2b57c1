// Package shardmap provides a capacity-bounded sharded map.
//
// A Map is split into shards, each with a declared maximum capacity. Shards
// are created unallocated and are realized one at a time with
// AllocNextShard, so the cost of growing the map can be spread over many
// calls. Every lookup returns the index of the owning shard, which callers
// pass back to the *At methods to avoid scanning again.
//
// Features:
//
//   - Bounded Growth: each shard holds at most its declared capacity
//   - Deterministic Placement: new keys go to the first shard with space
//   - Two-Phase Growth: TryAppendShard declares, AllocNextShard realizes
//   - Shard Indexes: lookups report where a key lives
//
// Usage:
//
//	m, err := shardmap.New[string, int](7, 3)
//	m.AllocNextShard()
//	idx, _, _, err := m.TryInsert("key", 1)
//	v, ok := m.GetAt(idx, "key")
//
// Capacity Shape:
//
// A capacity must be a single set bit (1, 2, 4, ...) or a run of at least
// three set bits followed by any number of zero bits (7, 14, 15, 28, ...).
//
// Thread Safety:
//
// A Map is not safe for concurrent use. Callers serialize access, usually
// through a storage handle.
package shardmap
