package service

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/pkg/num"
)

func TestApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("sets and reports change", func(t *testing.T) {
		svc, rec := newTestService(t)

		changed, err := svc.Approve(ctx, as(alice), bob, u(50))
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, u(50), allowanceOf(t, svc, alice, bob))
		assert.Equal(t, []domain.Event{
			domain.ApprovalEvent{Owner: alice, Spender: bob, Value: u(50)},
		}, rec.Events())
	})

	t.Run("same value is not a change", func(t *testing.T) {
		svc, rec := newTestService(t)
		_, err := svc.Approve(ctx, as(alice), bob, u(50))
		require.NoError(t, err)
		rec.Reset()

		changed, err := svc.Approve(ctx, as(alice), bob, u(50))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, rec.Events())
	})

	t.Run("zero removes the allowance", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Approve(ctx, as(alice), bob, u(50))
		require.NoError(t, err)

		changed, err := svc.Approve(ctx, as(alice), bob, u(0))
		require.NoError(t, err)
		assert.True(t, changed)

		_, ok, err := svc.AllowanceOf(alice, bob)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("self approval does nothing", func(t *testing.T) {
		svc, rec := newTestService(t)
		changed, err := svc.Approve(ctx, as(alice), alice, u(50))
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Empty(t, rec.Events())
	})

	t.Run("wide value saturates to infinite", func(t *testing.T) {
		svc, rec := newTestService(t)
		wide := new(uint256.Int).Lsh(u(1), 100)

		changed, err := svc.Approve(ctx, as(alice), bob, wide)
		require.NoError(t, err)
		assert.True(t, changed)

		max := new(uint256.Int).SetAllOne()
		assert.Equal(t, max, allowanceOf(t, svc, alice, bob))
		assert.Equal(t, []domain.Event{
			domain.ApprovalEvent{Owner: alice, Spender: bob, Value: max},
		}, rec.Events())
	})

	t.Run("burn account spender is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Approve(ctx, as(alice), domain.BurnAccount, u(50))
		assert.ErrorIs(t, err, domain.ErrZeroAccount)
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves value and emits", func(t *testing.T) {
		svc, rec := newTestService(t)
		fund(t, svc, 100, alice)
		rec.Reset()

		moved, err := svc.Transfer(ctx, as(alice), bob, u(40))
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, uint64(60), balanceOf(t, svc, alice))
		assert.Equal(t, uint64(40), balanceOf(t, svc, bob))
		assert.Equal(t, []domain.Event{
			domain.TransferEvent{From: alice, To: bob, Value: u(40)},
		}, rec.Events())
	})

	tests := []struct {
		name  string
		to    domain.AccountID
		value *uint256.Int
	}{
		{name: "zero value", to: bob, value: u(0)},
		{name: "nil value", to: bob, value: nil},
		{name: "to self", to: alice, value: u(10)},
	}
	for _, tt := range tests {
		t.Run(tt.name+" is a no-op", func(t *testing.T) {
			svc, rec := newTestService(t)
			fund(t, svc, 100, alice)
			rec.Reset()

			moved, err := svc.Transfer(ctx, as(alice), tt.to, tt.value)
			require.NoError(t, err)
			assert.False(t, moved)
			assert.Empty(t, rec.Events())
			assert.Equal(t, uint64(100), balanceOf(t, svc, alice))
		})
	}

	t.Run("insufficient balance", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)

		_, err := svc.Transfer(ctx, as(alice), bob, u(101))
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.ErrorIs(t, err, ledger.ErrInsufficientBalance)
		assert.ErrorIs(t, err, num.ErrUnderflow)
		assert.Equal(t, "VL-BAL-4220", domain.GetErrorCode(err))
	})

	t.Run("value wider than a balance overflows", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Transfer(ctx, as(alice), bob, new(uint256.Int).Lsh(u(1), 80))
		assert.ErrorIs(t, err, domain.ErrNumericOverflow)
	})

	t.Run("to burn account burns", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)

		moved, err := svc.Transfer(ctx, as(alice), domain.BurnAccount, u(30))
		require.NoError(t, err)
		assert.True(t, moved)

		total, err := svc.TotalSupply()
		require.NoError(t, err)
		assert.Equal(t, u(70), total)
	})

	t.Run("remainder below minimum is swept", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)

		_, err := svc.Transfer(ctx, as(alice), bob, u(95))
		require.NoError(t, err)

		_, ok, err := svc.LookupBalance(alice)
		require.NoError(t, err)
		assert.False(t, ok)

		unused, err := svc.Unused()
		require.NoError(t, err)
		assert.Equal(t, u(5), unused)
	})
}

func TestTransferFrom(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, allowance *uint256.Int) (*Service, *Recorder) {
		svc, rec := newTestService(t)
		fund(t, svc, 100, alice)
		_, err := svc.Approve(ctx, as(alice), bob, allowance)
		require.NoError(t, err)
		rec.Reset()
		return svc, rec
	}

	t.Run("spends allowance", func(t *testing.T) {
		svc, rec := setup(t, u(50))

		moved, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(20))
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, uint64(80), balanceOf(t, svc, alice))
		assert.Equal(t, uint64(20), balanceOf(t, svc, carol))
		assert.Equal(t, u(30), allowanceOf(t, svc, alice, bob))
		assert.Equal(t, []domain.Event{
			domain.TransferEvent{From: alice, To: carol, Value: u(20)},
		}, rec.Events())
	})

	t.Run("exact allowance removes it", func(t *testing.T) {
		svc, _ := setup(t, u(50))
		_, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(50))
		require.NoError(t, err)

		_, ok, err := svc.AllowanceOf(alice, bob)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("infinite allowance is kept", func(t *testing.T) {
		svc, _ := setup(t, new(uint256.Int).SetAllOne())
		_, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(50))
		require.NoError(t, err)
		assert.Equal(t, new(uint256.Int).SetAllOne(), allowanceOf(t, svc, alice, bob))
	})

	t.Run("insufficient allowance changes nothing", func(t *testing.T) {
		svc, rec := setup(t, u(10))

		_, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(20))
		assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)
		assert.Equal(t, uint64(100), balanceOf(t, svc, alice))
		assert.Equal(t, u(10), allowanceOf(t, svc, alice, bob))
		assert.Empty(t, rec.Events())
	})

	t.Run("insufficient balance keeps the allowance", func(t *testing.T) {
		svc, _ := setup(t, u(500))

		_, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(200))
		assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
		assert.Equal(t, u(500), allowanceOf(t, svc, alice, bob))
	})

	t.Run("caller spending own balance is a transfer", func(t *testing.T) {
		svc, _ := setup(t, u(0))
		moved, err := svc.TransferFrom(ctx, as(alice), alice, carol, u(20))
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, uint64(20), balanceOf(t, svc, carol))
	})

	t.Run("zero value and from equal to to are no-ops", func(t *testing.T) {
		svc, _ := setup(t, u(50))

		moved, err := svc.TransferFrom(ctx, as(bob), alice, carol, u(0))
		require.NoError(t, err)
		assert.False(t, moved)

		moved, err = svc.TransferFrom(ctx, as(bob), alice, alice, u(10))
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Equal(t, u(50), allowanceOf(t, svc, alice, bob))
	})
}

func TestTransferAll(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the whole balance", func(t *testing.T) {
		svc, rec := newTestService(t)
		fund(t, svc, 100, alice)
		rec.Reset()

		moved, err := svc.TransferAll(ctx, as(alice), bob)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Zero(t, balanceOf(t, svc, alice))
		assert.Equal(t, uint64(100), balanceOf(t, svc, bob))
		assert.Equal(t, []domain.Event{
			domain.TransferEvent{From: alice, To: bob, Value: u(100)},
		}, rec.Events())
	})

	t.Run("empty account moves nothing", func(t *testing.T) {
		svc, rec := newTestService(t)
		moved, err := svc.TransferAll(ctx, as(alice), bob)
		require.NoError(t, err)
		assert.False(t, moved)
		assert.Empty(t, rec.Events())
	})

	t.Run("burn account recipient is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)
		_, err := svc.TransferAll(ctx, as(alice), domain.BurnAccount)
		assert.ErrorIs(t, err, domain.ErrZeroAccount)
	})
}

func TestTransferAllFrom(t *testing.T) {
	ctx := context.Background()

	t.Run("spends the moved amount", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)
		_, err := svc.Approve(ctx, as(alice), bob, u(150))
		require.NoError(t, err)

		moved, err := svc.TransferAllFrom(ctx, as(bob), alice, carol)
		require.NoError(t, err)
		assert.True(t, moved)
		assert.Equal(t, uint64(100), balanceOf(t, svc, carol))
		assert.Equal(t, u(50), allowanceOf(t, svc, alice, bob))
	})

	t.Run("allowance below balance changes nothing", func(t *testing.T) {
		svc, _ := newTestService(t)
		fund(t, svc, 100, alice)
		_, err := svc.Approve(ctx, as(alice), bob, u(99))
		require.NoError(t, err)

		_, err = svc.TransferAllFrom(ctx, as(bob), alice, carol)
		assert.ErrorIs(t, err, domain.ErrInsufficientAllowance)
		assert.Equal(t, uint64(100), balanceOf(t, svc, alice))
		assert.Equal(t, u(99), allowanceOf(t, svc, alice, bob))
	})

	t.Run("empty account moves nothing", func(t *testing.T) {
		svc, _ := newTestService(t)
		moved, err := svc.TransferAllFrom(ctx, as(bob), alice, carol)
		require.NoError(t, err)
		assert.False(t, moved)
	})
}

func TestService_BorrowConflict(t *testing.T) {
	svc, _ := newTestService(t)
	fund(t, svc, 100, alice)

	err := svc.balanceCell.View(func(*storage.BalancesLedger) error {
		_, err := svc.Transfer(context.Background(), as(alice), bob, u(10))
		return err
	})
	assert.ErrorIs(t, err, domain.ErrBorrowConflict)
	assert.ErrorIs(t, err, storage.ErrBorrowConflict)
	assert.Equal(t, uint64(100), balanceOf(t, svc, alice))
}
