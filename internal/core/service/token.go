package service

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/pkg/num"
)

// ============================================================================
// Approvals
// ============================================================================

// Approve sets the allowance of spender over the caller's balance. A value
// wider than the allowance width becomes the infinite allowance. It
// reports whether the stored amount changed; an Approval event is emitted
// only then. Approving oneself does nothing.
func (s *Service) Approve(ctx context.Context, call Call, spender domain.AccountID, value *uint256.Int) (bool, error) {
	start := time.Now()
	changed, err := s.approve(ctx, call.Caller, spender, value, call.Block)
	return changed, s.done(ctx, "approve", start, changed, err)
}

func (s *Service) approve(ctx context.Context, ownerID, spenderID domain.AccountID, value *uint256.Int, block domain.BlockNumber) (bool, error) {
	if ownerID == spenderID {
		return false, nil
	}
	owner, err := account(ownerID)
	if err != nil {
		return false, err
	}
	spender, err := account(spenderID)
	if err != nil {
		return false, err
	}

	if value == nil {
		value = new(uint256.Int)
	}
	approval := num.FromUint256Saturating[domain.AllowanceWidth](value)

	var prev domain.Allowance
	err = s.allowances.Update(func(a *storage.AllowancesLedger) error {
		var err error
		prev, _, err = a.Set(owner, spender, approval, block)
		return err
	})
	if err != nil {
		return false, err
	}

	if prev == approval {
		return false, nil
	}
	s.publish(ctx, approvalEvent(ownerID, spenderID, domain.AllowanceToWide(approval)))
	return true, nil
}

// ============================================================================
// Transfers
// ============================================================================

// Transfer moves value from the caller to to. Sending to the burn account
// burns the value. A zero value or a transfer to oneself does nothing and
// reports false.
func (s *Service) Transfer(ctx context.Context, call Call, to domain.AccountID, value *uint256.Int) (bool, error) {
	start := time.Now()
	moved, err := s.transfer(ctx, call, to, value)
	return moved, s.done(ctx, "transfer", start, moved, err)
}

func (s *Service) transfer(ctx context.Context, call Call, to domain.AccountID, value *uint256.Int) (bool, error) {
	if call.Caller == to || isZero(value) {
		return false, nil
	}
	from, err := account(call.Caller)
	if err != nil {
		return false, err
	}
	amount, err := balanceAmount(value)
	if err != nil {
		return false, err
	}

	if err := s.balances.Update(func(b *storage.BalancesLedger) error {
		return b.Transfer(from, to, amount)
	}); err != nil {
		return false, err
	}

	s.publish(ctx, transferEvent(call.Caller, to, value))
	return true, nil
}

// TransferFrom moves value from from to to on behalf of the caller,
// spending the caller's allowance over from. When the caller is from this
// is a plain Transfer. Either both the allowance and the balances change
// or neither does.
func (s *Service) TransferFrom(ctx context.Context, call Call, from, to domain.AccountID, value *uint256.Int) (bool, error) {
	if call.Caller == from {
		return s.Transfer(ctx, call, to, value)
	}
	start := time.Now()
	moved, err := s.transferFrom(ctx, call, from, to, value)
	return moved, s.done(ctx, "transfer_from", start, moved, err)
}

func (s *Service) transferFrom(ctx context.Context, call Call, fromID, to domain.AccountID, value *uint256.Int) (bool, error) {
	if fromID == to || isZero(value) {
		return false, nil
	}
	from, err := account(fromID)
	if err != nil {
		return false, err
	}
	spender, err := account(call.Caller)
	if err != nil {
		return false, err
	}
	amount, err := balanceAmount(value)
	if err != nil {
		return false, err
	}
	spend := spendAmount(amount)

	err = s.allowances.Update(func(a *storage.AllowancesLedger) error {
		if err := a.CanSpend(from, spender, spend); err != nil {
			return err
		}
		return s.balances.Update(func(b *storage.BalancesLedger) error {
			if err := b.Transfer(from, to, amount); err != nil {
				return err
			}
			return a.Decrease(from, spender, spend, call.Block)
		})
	})
	if err != nil {
		return false, err
	}

	s.publish(ctx, transferEvent(fromID, to, value))
	return true, nil
}

// TransferAll moves the caller's whole balance to to. It reports false
// when nothing moved.
func (s *Service) TransferAll(ctx context.Context, call Call, to domain.AccountID) (bool, error) {
	start := time.Now()
	moved, err := s.transferAll(ctx, call, to)
	return moved, s.done(ctx, "transfer_all", start, moved, err)
}

func (s *Service) transferAll(ctx context.Context, call Call, toID domain.AccountID) (bool, error) {
	if call.Caller == toID {
		return false, nil
	}
	from, err := account(call.Caller)
	if err != nil {
		return false, err
	}
	to, err := account(toID)
	if err != nil {
		return false, err
	}

	var moved domain.Balance
	if err := s.balances.Update(func(b *storage.BalancesLedger) error {
		var err error
		moved, err = b.TransferAll(from, to)
		return err
	}); err != nil {
		return false, err
	}
	if moved.IsZero() {
		return false, nil
	}

	s.publish(ctx, transferEvent(call.Caller, toID, moved.Uint256()))
	return true, nil
}

// TransferAllFrom moves the whole balance of from to to, spending the
// caller's allowance over from by the moved amount.
func (s *Service) TransferAllFrom(ctx context.Context, call Call, from, to domain.AccountID) (bool, error) {
	if call.Caller == from {
		return s.TransferAll(ctx, call, to)
	}
	start := time.Now()
	moved, err := s.transferAllFrom(ctx, call, from, to)
	return moved, s.done(ctx, "transfer_all_from", start, moved, err)
}

func (s *Service) transferAllFrom(ctx context.Context, call Call, fromID, toID domain.AccountID) (bool, error) {
	if fromID == toID {
		return false, nil
	}
	spender, err := account(call.Caller)
	if err != nil {
		return false, err
	}
	from, err := account(fromID)
	if err != nil {
		return false, err
	}
	to, err := account(toID)
	if err != nil {
		return false, err
	}

	var moved domain.Balance
	err = s.allowances.Update(func(a *storage.AllowancesLedger) error {
		return s.balances.Update(func(b *storage.BalancesLedger) error {
			balance, ok := b.Lookup(from)
			if !ok {
				return nil
			}
			spend := spendAmount(num.MustNonZero(balance))
			if err := a.CanSpend(from, spender, spend); err != nil {
				return err
			}

			var err error
			if moved, err = b.TransferAll(from, to); err != nil {
				return err
			}
			return a.Decrease(from, spender, spend, call.Block)
		})
	})
	if err != nil {
		return false, err
	}
	if moved.IsZero() {
		return false, nil
	}

	s.publish(ctx, transferEvent(fromID, toID, moved.Uint256()))
	return true, nil
}
