package storage

import "sync"

// Handle grants borrows of a value of type T. A shared borrow (View) may
// coexist with other shared borrows; an exclusive borrow (Update, Replace)
// may not coexist with anything. Borrows never block: a conflict fails
// with ErrBorrowConflict.
//
// Callers may nest borrows of different handles. Nesting borrows of the
// same handle always conflicts.
type Handle[T any] interface {
	// View runs fn with shared access to the value.
	View(fn func(*T) error) error
	// Update runs fn with exclusive access to the value.
	Update(fn func(*T) error) error
	// Replace swaps in v and returns the previous value.
	Replace(v *T) (*T, error)
}

// Cell is the in-process Handle implementation.
type Cell[T any] struct {
	mu    sync.RWMutex
	value *T
}

// NewCell wraps v.
func NewCell[T any](v *T) *Cell[T] {
	return &Cell[T]{value: v}
}

// View implements Handle.
func (c *Cell[T]) View(fn func(*T) error) error {
	if !c.mu.TryRLock() {
		return ErrBorrowConflict
	}
	defer c.mu.RUnlock()
	return fn(c.value)
}

// Update implements Handle.
func (c *Cell[T]) Update(fn func(*T) error) error {
	if !c.mu.TryLock() {
		return ErrBorrowConflict
	}
	defer c.mu.Unlock()
	return fn(c.value)
}

// Replace implements Handle.
func (c *Cell[T]) Replace(v *T) (*T, error) {
	if !c.mu.TryLock() {
		return nil, ErrBorrowConflict
	}
	defer c.mu.Unlock()
	prev := c.value
	c.value = v
	return prev, nil
}
