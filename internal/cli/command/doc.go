// Package command provides the vftledger command-line interface.
//
// Every ledger command opens the storage under --data-dir, recovers the
// saved ledger, runs one service operation as --caller at --block, and
// saves a checkpoint before exiting. serve keeps the ledger open, grows
// shards in the background and exports Prometheus metrics.
//
// Commands:
//
//   - init: create an empty ledger from the ledger.* configuration
//   - mint, burn, burn-all, burn-unused, approve-from: admin operations
//   - transfer, transfer-from, transfer-all, transfer-all-from, approve,
//     remove-expired: token operations
//   - balance, allowance, supply, list: queries
//   - shards, set-expiry, pause, resume: layout and lifecycle
//   - snapshot: snapshot files
//   - account derive, serve, version
package command
