package ledger

import (
	"errors"
	"math"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// DefaultAllowancesShardCapacity is the capacity of each default allowances shard.
const DefaultAllowancesShardCapacity = 0b111 << 20

// DefaultExpiryPeriod is the default allowance lifetime in blocks.
const DefaultExpiryPeriod uint32 = math.MaxUint32

// DefaultAllowancesCapacities returns the default allowances layout: two shards.
func DefaultAllowancesCapacities() []int {
	return []int{DefaultAllowancesShardCapacity, DefaultAllowancesShardCapacity}
}

// AllowanceKey identifies an allowance. Owner and Spender always differ.
type AllowanceKey struct {
	Owner   domain.Account
	Spender domain.Account
}

// AllowanceEntry is a stored allowance. Amount Max is the infinite
// allowance and is never decremented.
type AllowanceEntry[W num.Width] struct {
	Amount num.NonZero[num.Uint[W]]
	Expiry domain.BlockNumber
}

// Allowances maps (owner, spender) pairs to amounts with expiry blocks.
type Allowances[W num.Width] struct {
	expiryPeriod uint32
	store        *shardmap.Map[AllowanceKey, AllowanceEntry[W]]
}

// NewAllowances creates an empty ledger with unallocated shards.
func NewAllowances[W num.Width](capacities []int, expiryPeriod uint32) (*Allowances[W], error) {
	store, err := shardmap.New[AllowanceKey, AllowanceEntry[W]](capacities...)
	if err != nil {
		return nil, mapError("new allowances", err)
	}
	return &Allowances[W]{expiryPeriod: expiryPeriod, store: store}, nil
}

// ExpiryPeriod returns the allowance lifetime in blocks.
func (a *Allowances[W]) ExpiryPeriod() uint32 {
	return a.expiryPeriod
}

// SetExpiryPeriod changes the lifetime used by later Set and Decrease calls.
func (a *Allowances[W]) SetExpiryPeriod(period uint32) {
	a.expiryPeriod = period
}

// Get returns the allowance amount, Max for infinite, or zero.
func (a *Allowances[W]) Get(owner, spender domain.Account) num.Uint[W] {
	_, e, _ := a.store.Get(AllowanceKey{owner, spender})
	return e.Amount.Get()
}

// Lookup returns the stored entry and whether it exists.
func (a *Allowances[W]) Lookup(owner, spender domain.Account) (AllowanceEntry[W], bool) {
	_, e, ok := a.store.Get(AllowanceKey{owner, spender})
	return e, ok
}

// Len returns the number of stored allowances.
func (a *Allowances[W]) Len() int {
	return a.store.Len()
}

// Set stores value as the allowance of spender over owner's balance,
// expiring expiryPeriod blocks after current. A zero value removes the
// entry. It returns the previous amount and whether one existed. Setting
// an allowance on oneself is a no-op.
func (a *Allowances[W]) Set(owner, spender domain.Account, value num.Uint[W], current domain.BlockNumber) (num.Uint[W], bool, error) {
	if owner == spender {
		return num.Zero[W](), false, nil
	}
	key := AllowanceKey{owner, spender}

	amount, err := num.NewNonZero(value)
	if err != nil {
		_, prev, ok := a.store.Remove(key)
		return prev.Amount.Get(), ok, nil
	}

	_, prev, replaced, err := a.store.TryInsert(key, AllowanceEntry[W]{
		Amount: amount,
		Expiry: a.expiry(current),
	})
	if err != nil {
		return num.Zero[W](), false, mapError("set allowance", err)
	}
	return prev.Amount.Get(), replaced, nil
}

// Decrease spends value from an allowance and refreshes its expiry. The
// infinite allowance only has its expiry refreshed. Spending the exact
// amount removes the entry.
func (a *Allowances[W]) Decrease(owner, spender domain.Account, value num.NonZero[num.Uint[W]], current domain.BlockNumber) error {
	if owner == spender {
		return nil
	}
	key := AllowanceKey{owner, spender}

	idx, e, ok := a.store.Get(key)
	if !ok {
		return ErrInsufficientAllowance
	}

	if e.Amount.Get().IsMax() {
		e.Expiry = a.expiry(current)
		a.store.ReplaceAt(idx, key, e)
		return nil
	}

	remaining, err := num.TrySub(e.Amount, value.Get())
	switch {
	case errors.Is(err, num.ErrZero):
		a.store.RemoveAt(idx, key)
	case err != nil:
		return ErrInsufficientAllowance
	default:
		a.store.ReplaceAt(idx, key, AllowanceEntry[W]{Amount: remaining, Expiry: a.expiry(current)})
	}
	return nil
}

// CanSpend reports whether Decrease with the same arguments would succeed,
// without changing anything.
func (a *Allowances[W]) CanSpend(owner, spender domain.Account, value num.NonZero[num.Uint[W]]) error {
	if owner == spender {
		return nil
	}
	_, e, ok := a.store.Get(AllowanceKey{owner, spender})
	if !ok || e.Amount.Get().Lt(value.Get()) {
		return ErrInsufficientAllowance
	}
	return nil
}

// Remove deletes an allowance and returns it.
func (a *Allowances[W]) Remove(owner, spender domain.Account) (AllowanceEntry[W], bool) {
	_, e, ok := a.store.Remove(AllowanceKey{owner, spender})
	return e, ok
}

// AllocateNextShard realizes the next unallocated shard and reports
// whether more remain.
func (a *Allowances[W]) AllocateNextShard() bool {
	return a.store.AllocNextShard()
}

// TryAppendShard declares a new shard; it must then be allocated.
func (a *Allowances[W]) TryAppendShard(capacity int) error {
	if err := a.store.TryAppendShard(capacity); err != nil {
		return mapError("append shard", err)
	}
	return nil
}

// Stats returns per-shard statistics.
func (a *Allowances[W]) Stats() []shardmap.ShardStats {
	return a.store.Stats()
}

// Pending returns the number of unallocated shards.
func (a *Allowances[W]) Pending() int {
	return a.store.Pending()
}

func (a *Allowances[W]) expiry(current domain.BlockNumber) domain.BlockNumber {
	if current > math.MaxUint32-a.expiryPeriod {
		return math.MaxUint32
	}
	return current + a.expiryPeriod
}
