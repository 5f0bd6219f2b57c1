// Package storage holds the ledger's storage capabilities and persistence.
//
// The in-memory ledgers are reached through a Handle, a borrow with
// try-lock semantics: a conflicting borrow fails with ErrBorrowConflict
// rather than blocking. Pausable layers a Pause switch on top of any
// Handle so mutations can be frozen while reads continue.
//
// Durable state goes through a KVEngine (Badger v3). The whole ledger
// is one CBOR document written under a single key by LedgerStore, and
// Engine couples that store with periodic file snapshots.
package storage
