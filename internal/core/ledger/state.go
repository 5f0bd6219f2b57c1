package ledger

import (
	"fmt"
	"slices"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// BalancesState is the complete persistent state of a Balances ledger.
type BalancesState[W num.Width] struct {
	Minimum num.Uint[W]
	Total   uint256.Int
	Unused  uint256.Int
	Shards  []shardmap.ShardDef[domain.Account, num.NonZero[num.Uint[W]]]
}

// AllowancesState is the complete persistent state of an Allowances ledger.
type AllowancesState[W num.Width] struct {
	ExpiryPeriod uint32
	Shards       []shardmap.ShardDef[AllowanceKey, AllowanceEntry[W]]
}

// Export returns the ledger state. Entries within each shard are ordered
// by account.
func (b *Balances[W]) Export() BalancesState[W] {
	shards := b.store.Export()
	for _, s := range shards {
		slices.SortFunc(s.Entries, func(x, y shardmap.Entry[domain.Account, num.NonZero[num.Uint[W]]]) int {
			return compareAccounts(x.Key, y.Key)
		})
	}
	return BalancesState[W]{
		Minimum: b.minimum,
		Total:   b.total,
		Unused:  b.unused,
		Shards:  shards,
	}
}

// RestoreBalances rebuilds a ledger from exported state. It fails with
// ErrCorruptState if an entry is below the minimum or if balances and
// unused do not add up to the total supply.
func RestoreBalances[W num.Width](s BalancesState[W]) (*Balances[W], error) {
	store, err := shardmap.Restore(s.Shards)
	if err != nil {
		return nil, mapError("restore balances", err)
	}

	var sum uint256.Int
	for account, balance := range store.All() {
		if account.IsZero() || balance.IsZero() {
			return nil, fmt.Errorf("%w: zero account or balance", ErrCorruptState)
		}
		if _, overflow := sum.AddOverflow(&sum, balance.Get().Uint256()); overflow {
			return nil, fmt.Errorf("%w: balances overflow", ErrCorruptState)
		}
	}
	if _, overflow := sum.AddOverflow(&sum, &s.Unused); overflow || !sum.Eq(&s.Total) {
		return nil, fmt.Errorf("%w: balances plus unused %s != total supply %s", ErrCorruptState, sum.Dec(), s.Total.Dec())
	}

	return &Balances[W]{
		minimum: s.Minimum,
		store:   store,
		total:   s.Total,
		unused:  s.Unused,
	}, nil
}

// Export returns the ledger state. Entries within each shard are ordered
// by owner then spender.
func (a *Allowances[W]) Export() AllowancesState[W] {
	shards := a.store.Export()
	for _, s := range shards {
		slices.SortFunc(s.Entries, func(x, y shardmap.Entry[AllowanceKey, AllowanceEntry[W]]) int {
			return compareAllowanceKeys(x.Key, y.Key)
		})
	}
	return AllowancesState[W]{
		ExpiryPeriod: a.expiryPeriod,
		Shards:       shards,
	}
}

// RestoreAllowances rebuilds a ledger from exported state. It fails with
// ErrCorruptState if an entry has the same owner and spender.
func RestoreAllowances[W num.Width](s AllowancesState[W]) (*Allowances[W], error) {
	store, err := shardmap.Restore(s.Shards)
	if err != nil {
		return nil, mapError("restore allowances", err)
	}
	for key, e := range store.All() {
		if key.Owner.IsZero() || key.Spender.IsZero() || e.Amount.IsZero() {
			return nil, fmt.Errorf("%w: zero account or amount", ErrCorruptState)
		}
		if key.Owner == key.Spender {
			return nil, fmt.Errorf("%w: self allowance for %s", ErrCorruptState, key.Owner.Get())
		}
	}
	return &Allowances[W]{expiryPeriod: s.ExpiryPeriod, store: store}, nil
}
