package storage

import "sync/atomic"

// Pause is a process-wide switch that freezes mutations.
type Pause struct {
	paused atomic.Bool
}

// NewPause returns a switch in the given state.
func NewPause(paused bool) *Pause {
	p := &Pause{}
	p.paused.Store(paused)
	return p
}

// Pause engages the switch. It reports false if already paused.
func (p *Pause) Pause() bool {
	return p.paused.CompareAndSwap(false, true)
}

// Resume releases the switch. It reports false if not paused.
func (p *Pause) Resume() bool {
	return p.paused.CompareAndSwap(true, false)
}

// IsPaused reports the switch state.
func (p *Pause) IsPaused() bool {
	return p.paused.Load()
}

// Pausable decorates a Handle so Update and Replace fail with ErrPaused
// while the switch is engaged. View always passes through.
type Pausable[T any] struct {
	inner Handle[T]
	pause *Pause
}

// NewPausable wraps inner with the switch p.
func NewPausable[T any](inner Handle[T], p *Pause) *Pausable[T] {
	return &Pausable[T]{inner: inner, pause: p}
}

// View implements Handle.
func (h *Pausable[T]) View(fn func(*T) error) error {
	return h.inner.View(fn)
}

// Update implements Handle.
func (h *Pausable[T]) Update(fn func(*T) error) error {
	if h.pause.IsPaused() {
		return ErrPaused
	}
	return h.inner.Update(fn)
}

// Replace implements Handle.
func (h *Pausable[T]) Replace(v *T) (*T, error) {
	if h.pause.IsPaused() {
		return nil, ErrPaused
	}
	return h.inner.Replace(v)
}
