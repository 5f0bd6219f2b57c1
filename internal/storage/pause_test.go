package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPause_Transitions(t *testing.T) {
	p := NewPause(false)

	assert.False(t, p.IsPaused())
	assert.False(t, p.Resume(), "resume while running reports no change")
	assert.True(t, p.Pause())
	assert.True(t, p.IsPaused())
	assert.False(t, p.Pause(), "second pause reports no change")
	assert.True(t, p.Resume())
	assert.False(t, p.IsPaused())

	assert.True(t, NewPause(true).IsPaused())
}

func TestPausable(t *testing.T) {
	p := NewPause(false)
	h := NewPausable[counter](NewCell(&counter{}), p)

	require.NoError(t, h.Update(func(v *counter) error {
		v.n++
		return nil
	}))

	p.Pause()

	called := false
	err := h.Update(func(*counter) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrPaused)
	assert.False(t, called, "update body must not run while paused")

	_, err = h.Replace(&counter{})
	assert.ErrorIs(t, err, ErrPaused)

	require.NoError(t, h.View(func(v *counter) error {
		assert.Equal(t, 1, v.n)
		return nil
	}), "views pass through while paused")

	p.Resume()
	assert.NoError(t, h.Update(func(*counter) error { return nil }))
}
