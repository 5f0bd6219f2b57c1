package storage

import "errors"

var (
	// ErrKeyNotFound is returned by KVEngine.Get for a missing key.
	ErrKeyNotFound = errors.New("storage: key not found")

	// ErrClosed is returned after the engine has been closed.
	ErrClosed = errors.New("storage: engine closed")

	// ErrBorrowConflict is returned when a handle is already borrowed in
	// a conflicting mode.
	ErrBorrowConflict = errors.New("storage: handle already borrowed")

	// ErrPaused is returned by Pausable for mutations while paused.
	ErrPaused = errors.New("storage: paused")

	// ErrNoState is returned by LedgerStore.Load when nothing was saved.
	ErrNoState = errors.New("storage: no saved ledger state")

	// ErrUnsupportedVersion is returned when decoding a state document
	// written by an unknown format version.
	ErrUnsupportedVersion = errors.New("storage: unsupported state version")
)
