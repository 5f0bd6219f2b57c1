package shardmap

import (
	"errors"
	"testing"
)

func TestExportRestore(t *testing.T) {
	m, _ := New[string, int](2, 1, 4)
	m.AllocNextShard()
	m.AllocNextShard()
	m.TryInsert("a", 1)
	m.TryInsert("b", 2)
	m.TryInsert("c", 3)
	m.TryInsert("d", 4)
	m.TryInsert("e", 5)

	restored, err := Restore(m.Export())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if restored.Len() != m.Len() || restored.Pending() != 1 {
		t.Errorf("restored len=%d pending=%d, want %d/1", restored.Len(), restored.Pending(), m.Len())
	}
	for k, v := range m.All() {
		idx, _, _ := m.Get(k)
		ridx, rv, ok := restored.Get(k)
		if !ok || rv != v || ridx != idx {
			t.Errorf("key %s: restored (%d, %d, %v), want (%d, %d, true)", k, ridx, rv, ok, idx, v)
		}
	}
}

func TestRestoreRejectsBadDefs(t *testing.T) {
	tests := []struct {
		name string
		defs []ShardDef[string, int]
		want error
	}{
		{
			name: "bad capacity",
			defs: []ShardDef[string, int]{{Capacity: 5, Allocated: true}},
			want: ErrInvalidCapacity,
		},
		{
			name: "entries in unallocated shard",
			defs: []ShardDef[string, int]{{Capacity: 4, Entries: []Entry[string, int]{{"a", 1}}}},
			want: ErrCapacityOverflow,
		},
		{
			name: "too many entries",
			defs: []ShardDef[string, int]{{Capacity: 1, Allocated: true, Entries: []Entry[string, int]{{"a", 1}, {"b", 2}}}},
			want: ErrCapacityOverflow,
		},
		{
			name: "duplicate across shards",
			defs: []ShardDef[string, int]{
				{Capacity: 1, Allocated: true, Entries: []Entry[string, int]{{"a", 1}}},
				{Capacity: 1, Allocated: true, Entries: []Entry[string, int]{{"a", 2}}},
			},
			want: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Restore(tt.defs); !errors.Is(err, tt.want) {
				t.Errorf("Restore error = %v, want %v", err, tt.want)
			}
		})
	}
}
