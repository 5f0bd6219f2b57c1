package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/pkg/num"
)

type w = domain.BalanceWidth

func account(name string) domain.Account {
	return num.MustNonZero(domain.DeriveAccountID(name))
}

func amount(v uint64) num.Uint[w] {
	return num.MustFromUint64[w](v)
}

func nz(v uint64) num.NonZero[num.Uint[w]] {
	return num.MustNonZero(amount(v))
}

// newBalances returns a ledger with every shard allocated.
func newBalances(t *testing.T, minimum uint64, capacities ...int) *Balances[w] {
	t.Helper()
	b, err := NewBalances(capacities, amount(minimum))
	require.NoError(t, err)
	for b.AllocateNextShard() {
	}
	return b
}

// requireSupplyInvariant checks sum(balances) + unused == total supply.
func requireSupplyInvariant(t *testing.T, b *Balances[w]) {
	t.Helper()
	var sum uint256.Int
	for _, v := range b.All() {
		sum.Add(&sum, v.Uint256())
		require.False(t, v.Lt(b.MinimumBalance()), "stored balance %s below minimum", v)
	}
	sum.Add(&sum, b.Unused())
	require.True(t, sum.Eq(b.TotalSupply()), "sum %s + unused != total %s", sum.Dec(), b.TotalSupply().Dec())
}
