package ledger

import (
	"iter"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
)

// BalanceEntry is one account balance.
type BalanceEntry[W num.Width] struct {
	Account domain.AccountID
	Balance num.Uint[W]
}

// AllowanceInfo is one allowance with its expiry.
type AllowanceInfo[W num.Width] struct {
	Owner   domain.AccountID
	Spender domain.AccountID
	Amount  num.Uint[W]
	Expiry  domain.BlockNumber
}

func compareAccounts(a, b domain.Account) int {
	return a.Get().Compare(b.Get())
}

func compareAllowanceKeys(a, b AllowanceKey) int {
	if c := compareAccounts(a.Owner, b.Owner); c != 0 {
		return c
	}
	return compareAccounts(a.Spender, b.Spender)
}

// All iterates over every balance in unspecified order.
func (b *Balances[W]) All() iter.Seq2[domain.AccountID, num.Uint[W]] {
	return func(yield func(domain.AccountID, num.Uint[W]) bool) {
		for k, v := range b.store.All() {
			if !yield(k.Get(), v.Get()) {
				return
			}
		}
	}
}

// Page returns up to limit balances starting at cursor, ordered by account.
func (b *Balances[W]) Page(cursor, limit int) []BalanceEntry[W] {
	entries := b.store.Page(cursor, limit, compareAccounts)
	out := make([]BalanceEntry[W], len(entries))
	for i, e := range entries {
		out[i] = BalanceEntry[W]{Account: e.Key.Get(), Balance: e.Value.Get()}
	}
	return out
}

// All iterates over every allowance in unspecified order.
func (a *Allowances[W]) All() iter.Seq2[AllowanceKey, AllowanceEntry[W]] {
	return a.store.All()
}

// Page returns up to limit allowances starting at cursor, ordered by
// owner then spender.
func (a *Allowances[W]) Page(cursor, limit int) []AllowanceInfo[W] {
	entries := a.store.Page(cursor, limit, compareAllowanceKeys)
	out := make([]AllowanceInfo[W], len(entries))
	for i, e := range entries {
		out[i] = AllowanceInfo[W]{
			Owner:   e.Key.Owner.Get(),
			Spender: e.Key.Spender.Get(),
			Amount:  e.Value.Amount.Get(),
			Expiry:  e.Value.Expiry,
		}
	}
	return out
}
