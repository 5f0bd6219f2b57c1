package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

type aw = domain.AllowanceWidth

func allowance(v uint64) num.Uint[aw] {
	return num.MustFromUint64[aw](v)
}

func newAllowances(t *testing.T, period uint32, capacities ...int) *Allowances[aw] {
	t.Helper()
	a, err := NewAllowances[aw](capacities, period)
	require.NoError(t, err)
	for a.AllocateNextShard() {
	}
	return a
}

func TestAllowances_Set(t *testing.T) {
	alice, bob := account("alice"), account("bob")

	t.Run("owner equals spender is a no-op", func(t *testing.T) {
		a := newAllowances(t, 100, 7)
		prev, existed, err := a.Set(alice, alice, allowance(5), 1)
		require.NoError(t, err)
		assert.False(t, existed)
		assert.True(t, prev.IsZero())
		assert.Zero(t, a.Len())
	})

	t.Run("set and replace", func(t *testing.T) {
		a := newAllowances(t, 100, 7)
		_, existed, err := a.Set(alice, bob, allowance(5), 10)
		require.NoError(t, err)
		assert.False(t, existed)

		e, ok := a.Lookup(alice, bob)
		require.True(t, ok)
		assert.Equal(t, allowance(5), e.Amount.Get())
		assert.Equal(t, domain.BlockNumber(110), e.Expiry)

		prev, existed, err := a.Set(alice, bob, allowance(8), 20)
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, allowance(5), prev)
		assert.Equal(t, allowance(8), a.Get(alice, bob))
		assert.True(t, a.Get(bob, alice).IsZero())
	})

	t.Run("zero removes", func(t *testing.T) {
		a := newAllowances(t, 100, 7)
		_, _, err := a.Set(alice, bob, allowance(5), 10)
		require.NoError(t, err)

		prev, existed, err := a.Set(alice, bob, allowance(0), 11)
		require.NoError(t, err)
		assert.True(t, existed)
		assert.Equal(t, allowance(5), prev)
		assert.Zero(t, a.Len())

		_, existed, err = a.Set(alice, bob, allowance(0), 12)
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("expiry saturates", func(t *testing.T) {
		a := newAllowances(t, math.MaxUint32, 7)
		_, _, err := a.Set(alice, bob, allowance(5), 100)
		require.NoError(t, err)
		e, _ := a.Lookup(alice, bob)
		assert.Equal(t, domain.BlockNumber(math.MaxUint32), e.Expiry)
	})

	t.Run("capacity overflow", func(t *testing.T) {
		a := newAllowances(t, 100, 1)
		_, _, err := a.Set(alice, bob, allowance(5), 1)
		require.NoError(t, err)
		_, _, err = a.Set(bob, alice, allowance(5), 1)
		require.ErrorIs(t, err, shardmap.ErrCapacityOverflow)

		// Replacing the existing pair still works when full.
		_, _, err = a.Set(alice, bob, allowance(6), 1)
		require.NoError(t, err)
	})
}

func TestAllowances_Decrease(t *testing.T) {
	alice, bob := account("alice"), account("bob")

	t.Run("infinite allowance only refreshes expiry", func(t *testing.T) {
		a := newAllowances(t, 1000, 7)
		_, _, err := a.Set(alice, bob, num.Max[aw](), 1)
		require.NoError(t, err)

		require.NoError(t, a.Decrease(alice, bob, num.MustNonZero(allowance(5)), 100))

		e, ok := a.Lookup(alice, bob)
		require.True(t, ok)
		assert.True(t, e.Amount.Get().IsMax())
		assert.True(t, a.Get(alice, bob).IsMax())
		assert.Equal(t, domain.BlockNumber(1100), e.Expiry)
	})

	t.Run("partial spend refreshes expiry", func(t *testing.T) {
		a := newAllowances(t, 10, 7)
		_, _, err := a.Set(alice, bob, allowance(50), 1)
		require.NoError(t, err)
		require.NoError(t, a.Decrease(alice, bob, num.MustNonZero(allowance(20)), 5))

		e, _ := a.Lookup(alice, bob)
		assert.Equal(t, allowance(30), e.Amount.Get())
		assert.Equal(t, domain.BlockNumber(15), e.Expiry)
	})

	t.Run("exact spend removes", func(t *testing.T) {
		a := newAllowances(t, 10, 7)
		_, _, err := a.Set(alice, bob, allowance(50), 1)
		require.NoError(t, err)
		require.NoError(t, a.Decrease(alice, bob, num.MustNonZero(allowance(50)), 5))
		_, ok := a.Lookup(alice, bob)
		assert.False(t, ok)
	})

	t.Run("insufficient", func(t *testing.T) {
		a := newAllowances(t, 10, 7)
		require.ErrorIs(t, a.Decrease(alice, bob, num.MustNonZero(allowance(1)), 5), ErrInsufficientAllowance)

		_, _, err := a.Set(alice, bob, allowance(3), 1)
		require.NoError(t, err)
		err = a.Decrease(alice, bob, num.MustNonZero(allowance(4)), 5)
		require.ErrorIs(t, err, ErrInsufficientAllowance)
		require.ErrorIs(t, err, num.ErrUnderflow)

		e, _ := a.Lookup(alice, bob)
		assert.Equal(t, allowance(3), e.Amount.Get())
		assert.Equal(t, domain.BlockNumber(11), e.Expiry)
	})

	t.Run("owner equals spender is a no-op", func(t *testing.T) {
		a := newAllowances(t, 10, 7)
		require.NoError(t, a.Decrease(alice, alice, num.MustNonZero(allowance(4)), 5))
	})
}

func TestAllowances_Remove(t *testing.T) {
	a := newAllowances(t, 10, 7)
	alice, bob := account("alice"), account("bob")
	_, _, err := a.Set(alice, bob, allowance(3), 1)
	require.NoError(t, err)

	e, ok := a.Remove(alice, bob)
	require.True(t, ok)
	assert.Equal(t, allowance(3), e.Amount.Get())

	_, ok = a.Remove(alice, bob)
	assert.False(t, ok)
}

func TestAllowances_PageAndExpiryPeriod(t *testing.T) {
	a := newAllowances(t, 10, 7)
	alice, bob, carol := account("alice"), account("bob"), account("carol")
	for _, pair := range [][2]domain.Account{{alice, bob}, {alice, carol}, {bob, carol}} {
		_, _, err := a.Set(pair[0], pair[1], allowance(1), 1)
		require.NoError(t, err)
	}

	page := a.Page(0, 10)
	require.Len(t, page, 3)
	for i := 1; i < len(page); i++ {
		prev, cur := page[i-1], page[i]
		c := prev.Owner.Compare(cur.Owner)
		assert.True(t, c < 0 || (c == 0 && prev.Spender.Compare(cur.Spender) < 0))
	}

	a.SetExpiryPeriod(5)
	assert.Equal(t, uint32(5), a.ExpiryPeriod())
	_, _, err := a.Set(alice, bob, allowance(2), 100)
	require.NoError(t, err)
	e, _ := a.Lookup(alice, bob)
	assert.Equal(t, domain.BlockNumber(105), e.Expiry)
}

func TestAllowances_CanSpend(t *testing.T) {
	a := newAllowances(t, 10, 7)
	alice, bob := account("alice"), account("bob")

	require.ErrorIs(t, a.CanSpend(alice, bob, num.MustNonZero(allowance(1))), ErrInsufficientAllowance)
	require.NoError(t, a.CanSpend(alice, alice, num.MustNonZero(allowance(1))))

	_, _, err := a.Set(alice, bob, allowance(5), 1)
	require.NoError(t, err)
	require.NoError(t, a.CanSpend(alice, bob, num.MustNonZero(allowance(5))))
	require.ErrorIs(t, a.CanSpend(alice, bob, num.MustNonZero(allowance(6))), ErrInsufficientAllowance)

	_, _, err = a.Set(alice, bob, num.Max[aw](), 1)
	require.NoError(t, err)
	require.NoError(t, a.CanSpend(alice, bob, num.MustNonZero(num.Max[aw]())))
	assert.Equal(t, 1, a.Len())
}
