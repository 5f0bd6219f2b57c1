package service

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/pkg/num"
)

// ============================================================================
// Supply
// ============================================================================

// Mint creates value on account to. Requires RoleMinter. Minting zero
// succeeds without effect.
func (s *Service) Mint(ctx context.Context, call Call, to domain.AccountID, value *uint256.Int) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleMinter); err != nil {
		return s.done(ctx, "mint", start, false, err)
	}
	if isZero(value) {
		return s.done(ctx, "mint", start, false, nil)
	}

	err := s.mint(ctx, to, value)
	return s.done(ctx, "mint", start, true, err)
}

func (s *Service) mint(ctx context.Context, toID domain.AccountID, value *uint256.Int) error {
	to, err := account(toID)
	if err != nil {
		return err
	}
	amount, err := balanceAmount(value)
	if err != nil {
		return err
	}
	if err := s.balances.Update(func(b *storage.BalancesLedger) error {
		return b.Mint(to, amount)
	}); err != nil {
		return err
	}
	s.publish(ctx, transferEvent(domain.BurnAccount, toID, value))
	return nil
}

// Burn destroys value from account from. Requires RoleBurner. A zero
// value fails with domain.ErrInvalidAmount.
func (s *Service) Burn(ctx context.Context, call Call, from domain.AccountID, value *uint256.Int) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleBurner); err != nil {
		return s.done(ctx, "burn", start, false, err)
	}
	err := s.burn(ctx, from, value)
	return s.done(ctx, "burn", start, true, err)
}

func (s *Service) burn(ctx context.Context, fromID domain.AccountID, value *uint256.Int) error {
	from, err := account(fromID)
	if err != nil {
		return err
	}
	amount, err := balanceAmount(value)
	if err != nil {
		return err
	}
	if err := s.balances.Update(func(b *storage.BalancesLedger) error {
		return b.Burn(from, amount)
	}); err != nil {
		return err
	}
	s.publish(ctx, transferEvent(fromID, domain.BurnAccount, value))
	return nil
}

// BurnAll destroys the whole balance of account and returns it. Requires
// RoleBurner.
func (s *Service) BurnAll(ctx context.Context, call Call, accountID domain.AccountID) (*uint256.Int, error) {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleBurner); err != nil {
		return nil, s.done(ctx, "burn_all", start, false, err)
	}
	acc, err := account(accountID)
	if err != nil {
		return nil, s.done(ctx, "burn_all", start, false, err)
	}

	var burned domain.Balance
	err = s.balances.Update(func(b *storage.BalancesLedger) error {
		burned = b.BurnAll(acc)
		return nil
	})
	if err != nil {
		return nil, s.done(ctx, "burn_all", start, false, err)
	}
	if !burned.IsZero() {
		s.publish(ctx, transferEvent(accountID, domain.BurnAccount, burned.Uint256()))
	}
	return burned.Uint256(), s.done(ctx, "burn_all", start, !burned.IsZero(), nil)
}

// BurnUnused destroys the swept dust and returns the amount. Requires
// RoleBurner. No event is emitted because the dust has no owner.
func (s *Service) BurnUnused(ctx context.Context, call Call) (*uint256.Int, error) {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleBurner); err != nil {
		return nil, s.done(ctx, "burn_unused", start, false, err)
	}

	var burned *uint256.Int
	err := s.balances.Update(func(b *storage.BalancesLedger) error {
		burned = b.BurnUnused()
		return nil
	})
	if err != nil {
		return nil, s.done(ctx, "burn_unused", start, false, err)
	}
	return burned, s.done(ctx, "burn_unused", start, !burned.IsZero(), nil)
}

// ApproveFrom sets the allowance of spender over owner's balance. Requires
// RoleAdmin. Semantics match Approve.
func (s *Service) ApproveFrom(ctx context.Context, call Call, owner, spender domain.AccountID, value *uint256.Int) (bool, error) {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return false, s.done(ctx, "approve_from", start, false, err)
	}
	changed, err := s.approve(ctx, owner, spender, value, call.Block)
	return changed, s.done(ctx, "approve_from", start, changed, err)
}

// ============================================================================
// Shards
// ============================================================================

// AllocateNextBalancesShard allocates the first pending balances shard
// and reports whether more remain. Requires RoleAdmin.
func (s *Service) AllocateNextBalancesShard(ctx context.Context, call Call) (bool, error) {
	return s.allocateNext(ctx, call, LedgerBalances)
}

// AllocateNextAllowancesShard allocates the first pending allowances
// shard and reports whether more remain. Requires RoleAdmin.
func (s *Service) AllocateNextAllowancesShard(ctx context.Context, call Call) (bool, error) {
	return s.allocateNext(ctx, call, LedgerAllowances)
}

func (s *Service) allocateNext(ctx context.Context, call Call, name string) (bool, error) {
	op := "allocate_" + name + "_shard"
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return false, s.done(ctx, op, start, false, err)
	}
	more, allocated, err := s.allocate(ctx, name)
	return more, s.done(ctx, op, start, allocated, err)
}

// allocate realizes the next pending shard of the named ledger through
// the pause-aware handle. It reports whether more shards are pending and
// whether one was allocated by this call.
func (s *Service) allocate(ctx context.Context, name string) (more, allocated bool, err error) {
	switch name {
	case LedgerBalances:
		err = s.balances.Update(func(b *storage.BalancesLedger) error {
			allocated = b.Pending() > 0
			more = b.AllocateNextShard()
			return nil
		})
	case LedgerAllowances:
		err = s.allowances.Update(func(a *storage.AllowancesLedger) error {
			allocated = a.Pending() > 0
			more = a.AllocateNextShard()
			return nil
		})
	default:
		return false, false, fmt.Errorf("service: unknown ledger %q", name)
	}
	if err != nil {
		return false, false, err
	}

	if allocated {
		if s.metrics != nil {
			s.metrics.RecordShardAllocated(name)
		}
		s.logger.WithContext(ctx).Info("shard allocated", "ledger", name, "pending", more)
	}
	return more, allocated, nil
}

// AppendBalancesShard declares a new balances shard of the given
// capacity. Requires RoleAdmin. The shard must then be allocated.
func (s *Service) AppendBalancesShard(ctx context.Context, call Call, capacity int) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return s.done(ctx, "append_balances_shard", start, false, err)
	}
	err := s.balances.Update(func(b *storage.BalancesLedger) error {
		return b.TryAppendShard(capacity)
	})
	return s.done(ctx, "append_balances_shard", start, true, err)
}

// AppendAllowancesShard declares a new allowances shard of the given
// capacity. Requires RoleAdmin.
func (s *Service) AppendAllowancesShard(ctx context.Context, call Call, capacity int) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return s.done(ctx, "append_allowances_shard", start, false, err)
	}
	err := s.allowances.Update(func(a *storage.AllowancesLedger) error {
		return a.TryAppendShard(capacity)
	})
	return s.done(ctx, "append_allowances_shard", start, true, err)
}

// ============================================================================
// Settings and pause
// ============================================================================

// SetExpiryPeriod changes the allowance lifetime for later approvals and
// spends. Requires RoleAdmin.
func (s *Service) SetExpiryPeriod(ctx context.Context, call Call, period uint32) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return s.done(ctx, "set_expiry_period", start, false, err)
	}
	err := s.allowances.Update(func(a *storage.AllowancesLedger) error {
		a.SetExpiryPeriod(period)
		return nil
	})
	if err == nil {
		s.publish(ctx, domain.ExpiryPeriodChangedEvent{Period: period})
	}
	return s.done(ctx, "set_expiry_period", start, true, err)
}

// SetMinimumBalance changes the balance floor for later operations.
// Requires RoleAdmin. Stored balances under the new floor are kept and
// swept on their next debit.
func (s *Service) SetMinimumBalance(ctx context.Context, call Call, value *uint256.Int) error {
	start := time.Now()
	if err := s.authorize(ctx, call, RoleAdmin); err != nil {
		return s.done(ctx, "set_minimum_balance", start, false, err)
	}
	if value == nil {
		value = new(uint256.Int)
	}
	minimum, err := num.FromUint256[domain.BalanceWidth](value)
	if err != nil {
		err = domain.ErrNumericOverflow.WithDetails(value.Dec()).WithCause(err)
		return s.done(ctx, "set_minimum_balance", start, false, err)
	}
	err = s.balances.Update(func(b *storage.BalancesLedger) error {
		b.SetMinimumBalance(minimum)
		return nil
	})
	if err == nil {
		s.publish(ctx, domain.MinimumBalanceChangedEvent{Value: minimum.Uint256()})
	}
	return s.done(ctx, "set_minimum_balance", start, true, err)
}

// Pause freezes every mutation. Requires RolePauser. It reports whether
// the switch changed; Paused is emitted only then.
func (s *Service) Pause(ctx context.Context, call Call) (bool, error) {
	start := time.Now()
	if err := s.authorize(ctx, call, RolePauser); err != nil {
		return false, s.done(ctx, "pause", start, false, err)
	}
	changed := s.pause.Pause()
	if changed {
		s.publish(ctx, domain.PausedEvent{})
		s.logger.WithContext(ctx).Warn("ledger paused", "by", call.Caller.String())
	}
	return changed, s.done(ctx, "pause", start, changed, nil)
}

// Resume releases the pause switch. Requires RolePauser.
func (s *Service) Resume(ctx context.Context, call Call) (bool, error) {
	start := time.Now()
	if err := s.authorize(ctx, call, RolePauser); err != nil {
		return false, s.done(ctx, "resume", start, false, err)
	}
	changed := s.pause.Resume()
	if changed {
		s.publish(ctx, domain.ResumedEvent{})
		s.logger.WithContext(ctx).Info("ledger resumed", "by", call.Caller.String())
	}
	return changed, s.done(ctx, "resume", start, changed, nil)
}
