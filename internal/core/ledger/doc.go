// Package ledger implements the balance and allowance ledgers.
//
// Both ledgers store their entries in a shardmap.Map and follow one rule
// for every mutation: all fallible checks run before any state is
// written. A failed call therefore leaves the ledger exactly as it was.
//
// Balances keeps the global invariant
//
//	sum(balances) + unused == total supply
//
// where unused collects dust swept from accounts that would fall below the
// minimum balance.
//
// Neither ledger performs authorization or locking; the service layer
// does both.
package ledger
