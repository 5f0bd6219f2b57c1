// Package service exposes the fungible token operations built on the
// balances and allowances ledgers.
//
// The Service type is the single entry point used by the CLI and the
// server. It owns:
//
//   - storage handles for both ledgers, decorated by the pause switch
//   - an Authorizer gating admin operations by role
//   - an Emitter receiving Transfer, Approval and admin events
//
// Every operation takes a Call carrying the caller account and the
// current block. Ledger errors are returned as coded domain errors;
// errors.Is still matches the ledger, shardmap and num sentinels.
//
// Grower allocates pending shards in the background at a bounded rate.
package service
