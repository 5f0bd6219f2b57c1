package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

func TestNewBalances_InvalidCapacity(t *testing.T) {
	_, err := NewBalances([]int{0}, amount(0))
	require.ErrorIs(t, err, shardmap.ErrInvalidCapacity)
}

func TestBalances_MintAndTransfer(t *testing.T) {
	b := newBalances(t, 0, 7)
	alice, bob := account("alice"), account("bob")

	require.NoError(t, b.Mint(alice, nz(100)))
	assert.Equal(t, amount(100), b.Get(alice))
	assert.Equal(t, uint64(100), b.TotalSupply().Uint64())

	require.NoError(t, b.Transfer(alice, bob.Get(), nz(40)))
	assert.Equal(t, amount(60), b.Get(alice))
	assert.Equal(t, amount(40), b.Get(bob))
	assert.Equal(t, uint64(100), b.TotalSupply().Uint64())
	requireSupplyInvariant(t, b)
}

func TestBalances_Mint(t *testing.T) {
	t.Run("below minimum for new account", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		err := b.Mint(account("alice"), nz(9))
		require.ErrorIs(t, err, ErrBelowMinimum)
		assert.Zero(t, b.Len())
		assert.True(t, b.TotalSupply().IsZero())
	})

	t.Run("existing account can grow by less than minimum", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		require.NoError(t, b.Mint(account("alice"), nz(10)))
		require.NoError(t, b.Mint(account("alice"), nz(1)))
		assert.Equal(t, amount(11), b.Get(account("alice")))
		requireSupplyInvariant(t, b)
	})

	t.Run("balance overflow leaves state", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		alice := account("alice")
		require.NoError(t, b.Mint(alice, num.MustNonZero(num.Max[w]())))
		err := b.Mint(alice, nz(1))
		require.ErrorIs(t, err, ErrOverflow)
		require.ErrorIs(t, err, num.ErrOverflow)
		assert.True(t, b.Get(alice).IsMax())
		requireSupplyInvariant(t, b)
	})

	t.Run("capacity overflow", func(t *testing.T) {
		b := newBalances(t, 0, 1)
		require.NoError(t, b.Mint(account("alice"), nz(1)))
		err := b.Mint(account("bob"), nz(1))
		require.ErrorIs(t, err, shardmap.ErrCapacityOverflow)
		assert.Equal(t, uint64(1), b.TotalSupply().Uint64())
	})

	t.Run("unallocated shards reject mint", func(t *testing.T) {
		b, err := NewBalances([]int{7}, amount(0))
		require.NoError(t, err)
		require.ErrorIs(t, b.Mint(account("alice"), nz(1)), shardmap.ErrCapacityOverflow)
		assert.Equal(t, 1, b.Pending())
	})
}

func TestBalances_Burn(t *testing.T) {
	t.Run("dust sweep", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		alice := account("alice")
		require.NoError(t, b.Mint(alice, nz(12)))

		require.NoError(t, b.Burn(alice, nz(5)))

		_, ok := b.Lookup(alice)
		assert.False(t, ok)
		assert.True(t, b.Get(alice).IsZero())
		assert.Equal(t, uint64(7), b.Unused().Uint64())
		assert.Equal(t, uint64(7), b.TotalSupply().Uint64())
		requireSupplyInvariant(t, b)
	})

	t.Run("exact burn removes entry", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		alice := account("alice")
		require.NoError(t, b.Mint(alice, nz(12)))
		require.NoError(t, b.Burn(alice, nz(12)))
		assert.Zero(t, b.Len())
		assert.True(t, b.Unused().IsZero())
		assert.True(t, b.TotalSupply().IsZero())
	})

	t.Run("remainder above minimum stays", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		alice := account("alice")
		require.NoError(t, b.Mint(alice, nz(30)))
		require.NoError(t, b.Burn(alice, nz(20)))
		assert.Equal(t, amount(10), b.Get(alice))
		requireSupplyInvariant(t, b)
	})

	t.Run("insufficient", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		alice := account("alice")
		require.ErrorIs(t, b.Burn(alice, nz(1)), ErrInsufficientBalance)

		require.NoError(t, b.Mint(alice, nz(5)))
		err := b.Burn(alice, nz(6))
		require.ErrorIs(t, err, ErrInsufficientBalance)
		require.ErrorIs(t, err, num.ErrUnderflow)
		assert.Equal(t, amount(5), b.Get(alice))
	})
}

func TestBalances_SetMinimumBalance(t *testing.T) {
	b := newBalances(t, 10, 7)
	alice, bob := account("alice"), account("bob")
	require.NoError(t, b.Mint(alice, nz(50)))

	b.SetMinimumBalance(amount(60))
	assert.Equal(t, amount(60), b.MinimumBalance())
	assert.Equal(t, amount(50), b.Get(alice), "existing balance is kept")

	require.ErrorIs(t, b.Mint(bob, nz(59)), ErrBelowMinimum)

	// The next debit sweeps the remainder under the new floor.
	require.NoError(t, b.Burn(alice, nz(1)))
	assert.True(t, b.Get(alice).IsZero())
	assert.Equal(t, uint64(49), b.Unused().Uint64())
	requireSupplyInvariant(t, b)
}

func TestBalances_BurnAllAndUnused(t *testing.T) {
	b := newBalances(t, 10, 7)
	alice, bob := account("alice"), account("bob")
	require.NoError(t, b.Mint(alice, nz(15)))
	require.NoError(t, b.Mint(bob, nz(20)))
	require.NoError(t, b.Burn(alice, nz(8)))

	assert.Equal(t, uint64(7), b.Unused().Uint64())

	burned := b.BurnAll(bob)
	assert.Equal(t, amount(20), burned)
	assert.True(t, b.BurnAll(bob).IsZero())
	requireSupplyInvariant(t, b)

	unused := b.BurnUnused()
	assert.Equal(t, uint64(7), unused.Uint64())
	assert.True(t, b.Unused().IsZero())
	assert.True(t, b.TotalSupply().IsZero())
}

func TestBalances_Transfer(t *testing.T) {
	alice, bob := account("alice"), account("bob")

	t.Run("to self is a no-op", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(10)))
		require.NoError(t, b.Transfer(alice, alice.Get(), nz(1000)))
		assert.Equal(t, amount(10), b.Get(alice))
	})

	t.Run("to burn account burns", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(10)))
		require.NoError(t, b.Transfer(alice, domain.BurnAccount, nz(4)))
		assert.Equal(t, amount(6), b.Get(alice))
		assert.Equal(t, uint64(6), b.TotalSupply().Uint64())
		requireSupplyInvariant(t, b)
	})

	t.Run("insufficient from leaves both untouched", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(10)))
		require.NoError(t, b.Mint(bob, nz(3)))
		require.ErrorIs(t, b.Transfer(alice, bob.Get(), nz(11)), ErrInsufficientBalance)
		assert.Equal(t, amount(10), b.Get(alice))
		assert.Equal(t, amount(3), b.Get(bob))
	})

	t.Run("below minimum to leaves from untouched", func(t *testing.T) {
		b := newBalances(t, 10, 7)
		require.NoError(t, b.Mint(alice, nz(100)))
		require.ErrorIs(t, b.Transfer(alice, bob.Get(), nz(5)), ErrBelowMinimum)
		assert.Equal(t, amount(100), b.Get(alice))
		assert.True(t, b.Unused().IsZero())
		requireSupplyInvariant(t, b)
	})

	t.Run("to overflow leaves from untouched", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(10)))
		require.NoError(t, b.Mint(bob, num.MustNonZero(num.Max[w]())))
		err := b.Transfer(alice, bob.Get(), nz(1))
		require.ErrorIs(t, err, ErrOverflow)
		assert.Equal(t, amount(10), b.Get(alice))
	})

	t.Run("full map rejects new recipient", func(t *testing.T) {
		b := newBalances(t, 0, 1)
		require.NoError(t, b.Mint(alice, nz(10)))
		err := b.Transfer(alice, bob.Get(), nz(4))
		require.ErrorIs(t, err, shardmap.ErrCapacityOverflow)
		assert.Equal(t, amount(10), b.Get(alice))
		assert.True(t, b.Get(bob).IsZero())
	})

	t.Run("full map reuses the emptied slot", func(t *testing.T) {
		b := newBalances(t, 0, 1)
		require.NoError(t, b.Mint(alice, nz(10)))
		require.NoError(t, b.Transfer(alice, bob.Get(), nz(10)))
		assert.True(t, b.Get(alice).IsZero())
		assert.Equal(t, amount(10), b.Get(bob))
		requireSupplyInvariant(t, b)
	})

	t.Run("dust sweep on from side", func(t *testing.T) {
		b := newBalances(t, 10, 1)
		require.NoError(t, b.Mint(alice, nz(25)))
		require.NoError(t, b.Transfer(alice, bob.Get(), nz(20)))
		assert.True(t, b.Get(alice).IsZero())
		assert.Equal(t, amount(20), b.Get(bob))
		assert.Equal(t, uint64(5), b.Unused().Uint64())
		assert.Equal(t, uint64(25), b.TotalSupply().Uint64())
		requireSupplyInvariant(t, b)
	})
}

func TestBalances_TransferAll(t *testing.T) {
	alice, bob := account("alice"), account("bob")

	t.Run("missing from moves nothing", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		moved, err := b.TransferAll(alice, bob)
		require.NoError(t, err)
		assert.True(t, moved.IsZero())
	})

	t.Run("to self returns balance", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(9)))
		moved, err := b.TransferAll(alice, alice)
		require.NoError(t, err)
		assert.Equal(t, amount(9), moved)
		assert.Equal(t, amount(9), b.Get(alice))
	})

	t.Run("new recipient in full map", func(t *testing.T) {
		b := newBalances(t, 0, 1)
		require.NoError(t, b.Mint(alice, nz(9)))
		moved, err := b.TransferAll(alice, bob)
		require.NoError(t, err)
		assert.Equal(t, amount(9), moved)
		assert.Equal(t, amount(9), b.Get(bob))
		assert.Equal(t, 1, b.Len())
	})

	t.Run("existing recipient overflow", func(t *testing.T) {
		b := newBalances(t, 0, 7)
		require.NoError(t, b.Mint(alice, nz(9)))
		require.NoError(t, b.Mint(bob, num.MustNonZero(num.Max[w]())))
		_, err := b.TransferAll(alice, bob)
		require.ErrorIs(t, err, ErrOverflow)
		assert.Equal(t, amount(9), b.Get(alice))
	})
}

func TestBalances_SupplyOverflow(t *testing.T) {
	// At full width the second max mint overflows the total supply.
	b, err := NewBalances([]int{4}, num.Zero[num.W256]())
	require.NoError(t, err)
	b.AllocateNextShard()

	maxValue := num.MustNonZero(num.Max[num.W256]())
	require.NoError(t, b.Mint(account("alice"), maxValue))
	require.ErrorIs(t, b.Mint(account("bob"), maxValue), ErrOverflow)
	assert.Equal(t, 1, b.Len())

	expected := new(uint256.Int).SetAllOne()
	assert.True(t, b.TotalSupply().Eq(expected))
}

func TestBalances_GrowthAndPaging(t *testing.T) {
	b, err := NewBalances([]int{1, 2}, amount(0))
	require.NoError(t, err)

	assert.True(t, b.AllocateNextShard())
	require.NoError(t, b.Mint(account("a"), nz(1)))
	require.NoError(t, b.Mint(account("b"), nz(2)))
	require.ErrorIs(t, b.Mint(account("c"), nz(3)), shardmap.ErrCapacityOverflow)

	assert.False(t, b.AllocateNextShard())
	require.NoError(t, b.Mint(account("c"), nz(3)))

	require.ErrorIs(t, b.TryAppendShard(3), shardmap.ErrInvalidCapacity)
	require.NoError(t, b.TryAppendShard(4))
	assert.Equal(t, 1, b.Pending())
	assert.Len(t, b.Stats(), 3)

	page := b.Page(0, 2)
	require.Len(t, page, 2)
	assert.Negative(t, page[0].Account.Compare(page[1].Account))
	assert.Len(t, b.Page(2, 10), 1)
	assert.Empty(t, b.Page(3, 10))
}
