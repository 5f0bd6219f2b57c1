package service

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// mapError converts a lower layer error into a coded DomainError that
// wraps it. Domain errors pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}

	switch {
	case errors.Is(err, storage.ErrPaused):
		return domain.ErrPaused.WithCause(err)
	case errors.Is(err, storage.ErrBorrowConflict):
		return domain.ErrBorrowConflict.WithCause(err)

	// Ledger sentinels wrap the num ones, so check them first.
	case errors.Is(err, ledger.ErrBelowMinimum):
		return domain.ErrBelowMinimum.WithCause(err)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return domain.ErrInsufficientBalance.WithCause(err)
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return domain.ErrInsufficientAllowance.WithCause(err)
	case errors.Is(err, num.ErrOverflow):
		return domain.ErrNumericOverflow.WithCause(err)

	case errors.Is(err, shardmap.ErrCapacityOverflow):
		return domain.ErrCapacityOverflow.WithCause(err)
	case errors.Is(err, shardmap.ErrInvalidCapacity):
		return domain.ErrInvalidCapacity.WithCause(err)

	case errors.Is(err, ledger.ErrCorruptState),
		errors.Is(err, storage.ErrUnsupportedVersion):
		return domain.ErrStorageError.WithCause(err)
	}
	return domain.ErrInternal.WithCause(err)
}

// account converts a boundary identifier into a ledger account.
func account(id domain.AccountID) (domain.Account, error) {
	a, err := domain.NewAccount(id)
	if err != nil {
		return a, domain.ErrZeroAccount.WithCause(err)
	}
	return a, nil
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

// balanceAmount narrows a boundary amount to the balance width.
func balanceAmount(v *uint256.Int) (num.NonZero[domain.Balance], error) {
	if v == nil {
		v = new(uint256.Int)
	}
	b, err := num.FromUint256[domain.BalanceWidth](v)
	if err != nil {
		return num.NonZero[domain.Balance]{}, domain.ErrNumericOverflow.WithDetails(v.Dec()).WithCause(err)
	}
	nz, err := num.NewNonZero(b)
	if err != nil {
		return nz, domain.ErrInvalidAmount.WithDetails("amount must be greater than zero").WithCause(err)
	}
	return nz, nil
}

// spendAmount is the allowance consumed by moving a balance amount.
func spendAmount(v num.NonZero[domain.Balance]) num.NonZero[domain.Allowance] {
	return num.MustNonZero(domain.AllowanceFromBalance(v.Get()))
}
