package ledger

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// DefaultBalancesShardCapacity is the capacity of each default balances shard.
const DefaultBalancesShardCapacity = 0b111 << 21

// DefaultBalancesCapacities returns the default balances layout: two shards.
func DefaultBalancesCapacities() []int {
	return []int{DefaultBalancesShardCapacity, DefaultBalancesShardCapacity}
}

// Balances maps accounts to non-zero balances of width W.
type Balances[W num.Width] struct {
	minimum num.Uint[W]
	store   *shardmap.Map[domain.Account, num.NonZero[num.Uint[W]]]
	total   uint256.Int
	unused  uint256.Int
}

// NewBalances creates an empty ledger. Shards start unallocated; call
// AllocateNextShard before the first mint.
func NewBalances[W num.Width](capacities []int, minimum num.Uint[W]) (*Balances[W], error) {
	store, err := shardmap.New[domain.Account, num.NonZero[num.Uint[W]]](capacities...)
	if err != nil {
		return nil, mapError("new balances", err)
	}
	return &Balances[W]{minimum: minimum, store: store}, nil
}

// MinimumBalance returns the floor below which no balance is kept.
func (b *Balances[W]) MinimumBalance() num.Uint[W] {
	return b.minimum
}

// SetMinimumBalance changes the floor used by later operations. Stored
// balances under the new floor are kept until they next change.
func (b *Balances[W]) SetMinimumBalance(minimum num.Uint[W]) {
	b.minimum = minimum
}

// TotalSupply returns the total supply, including unused value.
func (b *Balances[W]) TotalSupply() *uint256.Int {
	return new(uint256.Int).Set(&b.total)
}

// Unused returns the swept dust not yet burned.
func (b *Balances[W]) Unused() *uint256.Int {
	return new(uint256.Int).Set(&b.unused)
}

// Get returns the balance of account, or zero.
func (b *Balances[W]) Get(account domain.Account) num.Uint[W] {
	_, v, _ := b.store.Get(account)
	return v.Get()
}

// Lookup returns the balance of account and whether an entry exists.
func (b *Balances[W]) Lookup(account domain.Account) (num.Uint[W], bool) {
	_, v, ok := b.store.Get(account)
	return v.Get(), ok
}

// Len returns the number of accounts with a balance.
func (b *Balances[W]) Len() int {
	return b.store.Len()
}

// AllocateNextShard realizes the next unallocated shard and reports
// whether more remain.
func (b *Balances[W]) AllocateNextShard() bool {
	return b.store.AllocNextShard()
}

// TryAppendShard declares a new shard; it must then be allocated.
func (b *Balances[W]) TryAppendShard(capacity int) error {
	if err := b.store.TryAppendShard(capacity); err != nil {
		return mapError("append shard", err)
	}
	return nil
}

// Stats returns per-shard statistics.
func (b *Balances[W]) Stats() []shardmap.ShardStats {
	return b.store.Stats()
}

// Pending returns the number of unallocated shards.
func (b *Balances[W]) Pending() int {
	return b.store.Pending()
}

// Mint creates value in account.
func (b *Balances[W]) Mint(account domain.Account, value num.NonZero[num.Uint[W]]) error {
	total, overflow := new(uint256.Int).AddOverflow(&b.total, value.Get().Uint256())
	if overflow {
		return ErrOverflow
	}

	if idx, balance, ok := b.store.Get(account); ok {
		next, err := num.TryAdd(balance, value.Get())
		if err != nil {
			return ErrOverflow
		}
		b.store.ReplaceAt(idx, account, next)
	} else {
		if value.Get().Lt(b.minimum) {
			return ErrBelowMinimum
		}
		if _, err := b.store.TryInsertNew(account, value); err != nil {
			return mapError("mint", err)
		}
	}

	b.total = *total
	return nil
}

// Burn destroys value from account. A remainder under the minimum balance
// is swept into unused and the entry is removed.
func (b *Balances[W]) Burn(account domain.Account, value num.NonZero[num.Uint[W]]) error {
	d, err := b.planDebit(account, value)
	if err != nil {
		return err
	}
	b.applyDebit(account, d)
	b.total.Sub(&b.total, value.Get().Uint256())
	return nil
}

// BurnAll removes account and destroys its whole balance, returning it.
func (b *Balances[W]) BurnAll(account domain.Account) num.Uint[W] {
	_, v, ok := b.store.Remove(account)
	if !ok {
		return num.Zero[W]()
	}
	b.total.Sub(&b.total, v.Get().Uint256())
	return v.Get()
}

// BurnUnused destroys all swept dust and returns the amount.
func (b *Balances[W]) BurnUnused() *uint256.Int {
	burned := b.Unused()
	b.total.Sub(&b.total, &b.unused)
	b.unused.Clear()
	return burned
}

// Transfer moves value from one account to another. Transferring to the
// burn account is a Burn. Transferring to self is a no-op.
func (b *Balances[W]) Transfer(from domain.Account, to domain.AccountID, value num.NonZero[num.Uint[W]]) error {
	toAccount, err := domain.NewAccount(to)
	if err != nil {
		return b.Burn(from, value)
	}
	if from == toAccount {
		return nil
	}

	d, err := b.planDebit(from, value)
	if err != nil {
		return err
	}
	c, err := b.planCredit(toAccount, value, !d.keep)
	if err != nil {
		return err
	}

	b.applyDebit(from, d)
	b.applyCredit(toAccount, c, d.idx, !d.keep)
	return nil
}

// TransferAll moves the whole balance of from to to and returns the
// amount moved. A missing from moves nothing.
func (b *Balances[W]) TransferAll(from, to domain.Account) (num.Uint[W], error) {
	idx, balance, ok := b.store.Get(from)
	if !ok {
		return num.Zero[W](), nil
	}
	if from == to {
		return balance.Get(), nil
	}

	c, err := b.planCredit(to, balance, true)
	if err != nil {
		return num.Zero[W](), err
	}

	b.store.RemoveAt(idx, from)
	b.applyCredit(to, c, idx, true)
	return balance.Get(), nil
}

// debit is the validated from-side result of removing value.
type debit[W num.Width] struct {
	idx       shardmap.Index
	keep      bool
	remaining num.NonZero[num.Uint[W]]
	unused    *uint256.Int
}

func (b *Balances[W]) planDebit(account domain.Account, value num.NonZero[num.Uint[W]]) (debit[W], error) {
	idx, balance, ok := b.store.Get(account)
	if !ok {
		return debit[W]{}, ErrInsufficientBalance
	}

	remaining, err := num.TrySub(balance, value.Get())
	switch {
	case errors.Is(err, num.ErrZero):
		return debit[W]{idx: idx}, nil
	case err != nil:
		return debit[W]{}, ErrInsufficientBalance
	case remaining.Get().Lt(b.minimum):
		unused, overflow := new(uint256.Int).AddOverflow(&b.unused, remaining.Get().Uint256())
		if overflow {
			return debit[W]{}, ErrOverflow
		}
		return debit[W]{idx: idx, unused: unused}, nil
	default:
		return debit[W]{idx: idx, keep: true, remaining: remaining}, nil
	}
}

func (b *Balances[W]) applyDebit(account domain.Account, d debit[W]) {
	if d.keep {
		b.store.ReplaceAt(d.idx, account, d.remaining)
		return
	}
	b.store.RemoveAt(d.idx, account)
	if d.unused != nil {
		b.unused = *d.unused
	}
}

// credit is the validated to-side result of adding value.
type credit[W num.Width] struct {
	idx    shardmap.Index
	exists bool
	next   num.NonZero[num.Uint[W]]
}

// planCredit checks that account can receive value. When slotFreed is set
// the debit side removes an entry, so a new entry needs no extra space.
func (b *Balances[W]) planCredit(account domain.Account, value num.NonZero[num.Uint[W]], slotFreed bool) (credit[W], error) {
	if idx, balance, ok := b.store.Get(account); ok {
		next, err := num.TryAdd(balance, value.Get())
		if err != nil {
			return credit[W]{}, ErrOverflow
		}
		if next.Get().Lt(b.minimum) {
			return credit[W]{}, ErrBelowMinimum
		}
		return credit[W]{idx: idx, exists: true, next: next}, nil
	}

	if !slotFreed {
		if err := b.store.HasSpaceErr(); err != nil {
			return credit[W]{}, mapError("transfer", err)
		}
	}
	if value.Get().Lt(b.minimum) {
		return credit[W]{}, ErrBelowMinimum
	}
	return credit[W]{next: value}, nil
}

// applyCredit commits a planned credit. A new entry reuses the freed slot
// at idx when freed is set.
func (b *Balances[W]) applyCredit(account domain.Account, c credit[W], idx shardmap.Index, freed bool) {
	if c.exists {
		b.store.ReplaceAt(c.idx, account, c.next)
		return
	}

	var err error
	if freed {
		err = b.store.TryInsertNewAt(idx, account, c.next)
	} else {
		_, err = b.store.TryInsertNew(account, c.next)
	}
	if err != nil {
		panic(fmt.Sprintf("ledger: validated credit failed: %v", err))
	}
}
