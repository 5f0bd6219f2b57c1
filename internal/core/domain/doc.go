// Package domain defines the core domain models for the ledger.
//
// Domain models are pure value objects without IO dependencies. This
// package contains:
//
//   - AccountID: 32-byte account identifiers and the burn account
//   - Amounts: deployment widths for balances and allowances
//   - Metadata: token name, symbol and decimals
//   - Events: Transfer and Approval notifications
//   - Errors: coded domain errors returned by the service layer
package domain
