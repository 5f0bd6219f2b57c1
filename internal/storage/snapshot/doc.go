// Package snapshot writes point-in-time copies of the ledger state to
// files so a node can be rebuilt without the KV store.
//
// File layout:
//
//	snapshot-<ulid>.snap
//	[magic:8 "VFTLSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (state document, optionally sealed)
//	[checksum:32 SHA-256 of all bytes above]
//
// ULIDs sort by creation time, so the lexical order of file names is the
// snapshot order. When a passphrase is configured the data block is
// sealed with a key derived by Argon2id from the passphrase and a salt
// stored in the header; the header itself is bound as associated data.
package snapshot
