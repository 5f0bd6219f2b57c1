package shardmap

import "errors"

var (
	// ErrCapacityOverflow is returned when no shard has room for a new key.
	ErrCapacityOverflow = errors.New("shardmap: capacity overflow")

	// ErrInvalidCapacity is returned when a shard capacity violates the shape rule.
	ErrInvalidCapacity = errors.New("shardmap: invalid capacity")

	// ErrIndexOutOfRange is returned when a shard index does not exist.
	ErrIndexOutOfRange = errors.New("shardmap: shard index out of range")

	// ErrDuplicateKey is returned by Restore when a key appears twice.
	ErrDuplicateKey = errors.New("shardmap: duplicate key")
)
