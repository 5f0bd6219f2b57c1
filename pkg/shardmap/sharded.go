package shardmap

import (
	"cmp"
	"fmt"
	"math"
	"math/bits"
	"slices"
)

// Index identifies a shard inside a Map.
type Index int

// State is the allocation state of a shard.
type State uint8

const (
	// Unallocated shards have a declared capacity but accept no keys.
	Unallocated State = iota
	// Allocated shards accept keys up to their capacity.
	Allocated
)

func (s State) String() string {
	switch s {
	case Unallocated:
		return "unallocated"
	case Allocated:
		return "allocated"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Map is a sharded map with bounded shard capacities.
type Map[K comparable, V any] struct {
	shards []*shard[K, V]
}

type shard[K comparable, V any] struct {
	capacity int
	state    State
	items    map[K]V
}

func newShard[K comparable, V any](capacity int) *shard[K, V] {
	return &shard[K, V]{capacity: capacity, state: Unallocated}
}

func (s *shard[K, V]) allocate() {
	s.items = make(map[K]V, s.capacity)
	s.state = Allocated
}

// space returns how many more keys the shard accepts.
func (s *shard[K, V]) space() int {
	if s.state != Allocated {
		return 0
	}
	return s.capacity - len(s.items)
}

// ValidCapacity reports whether n satisfies the capacity shape rule.
func ValidCapacity(n int) bool {
	if n <= 0 || n == math.MaxInt {
		return false
	}
	u := uint(n)
	if u&(u-1) == 0 {
		return true
	}
	u >>= bits.TrailingZeros(u)
	return u&(u+1) == 0 && bits.OnesCount(u) >= 3
}

// New creates a map with one unallocated shard per capacity, ordered
// largest capacity first.
func New[K comparable, V any](capacities ...int) (*Map[K, V], error) {
	for _, c := range capacities {
		if !ValidCapacity(c) {
			return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, c)
		}
	}

	sorted := slices.Clone(capacities)
	slices.SortFunc(sorted, func(a, b int) int { return cmp.Compare(b, a) })

	m := &Map[K, V]{shards: make([]*shard[K, V], 0, len(sorted))}
	for _, c := range sorted {
		m.shards = append(m.shards, newShard[K, V](c))
	}
	return m, nil
}

// Get returns the value for key and the index of the shard holding it.
func (m *Map[K, V]) Get(key K) (Index, V, bool) {
	for i, s := range m.shards {
		if v, ok := s.items[key]; ok {
			return Index(i), v, true
		}
	}
	var zero V
	return -1, zero, false
}

// GetAt returns the value for key in shard idx only.
func (m *Map[K, V]) GetAt(idx Index, key K) (V, bool) {
	s, ok := m.shard(idx)
	if !ok {
		var zero V
		return zero, false
	}
	v, ok := s.items[key]
	return v, ok
}

// Contains reports whether any shard holds key.
func (m *Map[K, V]) Contains(key K) bool {
	_, _, ok := m.Get(key)
	return ok
}

// Update replaces the value for an existing key with fn(old). It reports
// the owning shard and whether the key was found.
func (m *Map[K, V]) Update(key K, fn func(V) V) (Index, bool) {
	for i, s := range m.shards {
		if v, ok := s.items[key]; ok {
			s.items[key] = fn(v)
			return Index(i), true
		}
	}
	return -1, false
}

// ReplaceAt stores value for key in shard idx if the key is already
// there, returning the previous value.
func (m *Map[K, V]) ReplaceAt(idx Index, key K, value V) (V, bool) {
	var zero V
	s, ok := m.shard(idx)
	if !ok {
		return zero, false
	}
	prev, ok := s.items[key]
	if !ok {
		return zero, false
	}
	s.items[key] = value
	return prev, true
}

// Remove deletes key and returns its value and former shard.
func (m *Map[K, V]) Remove(key K) (Index, V, bool) {
	for i, s := range m.shards {
		if v, ok := s.items[key]; ok {
			delete(s.items, key)
			return Index(i), v, true
		}
	}
	var zero V
	return -1, zero, false
}

// RemoveAt deletes key from shard idx only.
func (m *Map[K, V]) RemoveAt(idx Index, key K) (V, bool) {
	var zero V
	s, ok := m.shard(idx)
	if !ok {
		return zero, false
	}
	v, ok := s.items[key]
	if !ok {
		return zero, false
	}
	delete(s.items, key)
	return v, true
}

// TryInsert stores value for key. An existing key is replaced in place and
// its previous value is returned with replaced set. A new key goes to the
// first shard with space.
func (m *Map[K, V]) TryInsert(key K, value V) (idx Index, prev V, replaced bool, err error) {
	free := Index(-1)
	for i, s := range m.shards {
		if old, ok := s.items[key]; ok {
			s.items[key] = value
			return Index(i), old, true, nil
		}
		if free < 0 && s.space() > 0 {
			free = Index(i)
		}
	}
	if free < 0 {
		return -1, prev, false, ErrCapacityOverflow
	}
	m.shards[free].items[key] = value
	return free, prev, false, nil
}

// TryInsertNew inserts a key the caller has already proven absent.
// It skips the existence scan; inserting a present key leaves a duplicate.
func (m *Map[K, V]) TryInsertNew(key K, value V) (Index, error) {
	if debugAssertions && m.Contains(key) {
		panic(fmt.Sprintf("shardmap: TryInsertNew with present key %v", key))
	}
	for i, s := range m.shards {
		if s.space() > 0 {
			s.items[key] = value
			return Index(i), nil
		}
	}
	return -1, ErrCapacityOverflow
}

// TryInsertNewAt inserts an absent key into shard idx.
func (m *Map[K, V]) TryInsertNewAt(idx Index, key K, value V) error {
	s, ok := m.shard(idx)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}
	if debugAssertions && m.Contains(key) {
		panic(fmt.Sprintf("shardmap: TryInsertNewAt with present key %v", key))
	}
	if s.space() == 0 {
		return ErrCapacityOverflow
	}
	s.items[key] = value
	return nil
}

// AllocNextShard realizes the first unallocated shard and reports whether
// unallocated shards remain. It does nothing when every shard is allocated.
func (m *Map[K, V]) AllocNextShard() bool {
	for i, s := range m.shards {
		if s.state == Unallocated {
			s.allocate()
			return m.hasUnallocatedFrom(i + 1)
		}
	}
	return false
}

func (m *Map[K, V]) hasUnallocatedFrom(start int) bool {
	for _, s := range m.shards[start:] {
		if s.state == Unallocated {
			return true
		}
	}
	return false
}

// Pending returns the number of unallocated shards.
func (m *Map[K, V]) Pending() int {
	n := 0
	for _, s := range m.shards {
		if s.state == Unallocated {
			n++
		}
	}
	return n
}

// TryAppendShard declares a new unallocated shard at the end.
func (m *Map[K, V]) TryAppendShard(capacity int) error {
	if !ValidCapacity(capacity) {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	m.shards = append(m.shards, newShard[K, V](capacity))
	return nil
}

// HasSpace reports whether a new key can be inserted.
func (m *Map[K, V]) HasSpace() bool {
	for _, s := range m.shards {
		if s.space() > 0 {
			return true
		}
	}
	return false
}

// HasSpaceErr returns ErrCapacityOverflow when no new key can be inserted.
func (m *Map[K, V]) HasSpaceErr() error {
	if !m.HasSpace() {
		return ErrCapacityOverflow
	}
	return nil
}

// Space returns the number of keys that can still be inserted.
func (m *Map[K, V]) Space() int {
	n := 0
	for _, s := range m.shards {
		n += s.space()
	}
	return n
}

// Len returns the number of keys.
func (m *Map[K, V]) Len() int {
	n := 0
	for _, s := range m.shards {
		n += len(s.items)
	}
	return n
}

// IsEmpty reports whether the map holds no keys.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// Capacity returns the capacity of allocated shards.
func (m *Map[K, V]) Capacity() int {
	n := 0
	for _, s := range m.shards {
		if s.state == Allocated {
			n += s.capacity
		}
	}
	return n
}

// MaxCapacity returns the declared capacity of all shards.
func (m *Map[K, V]) MaxCapacity() int {
	n := 0
	for _, s := range m.shards {
		n += s.capacity
	}
	return n
}

// NumShards returns the number of shards.
func (m *Map[K, V]) NumShards() int {
	return len(m.shards)
}

// ClearShards removes every key and keeps the shard definitions.
func (m *Map[K, V]) ClearShards() {
	for _, s := range m.shards {
		clear(s.items)
	}
}

func (m *Map[K, V]) shard(idx Index) (*shard[K, V], bool) {
	if idx < 0 || int(idx) >= len(m.shards) {
		return nil, false
	}
	return m.shards[idx], true
}
