package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/pkg/num"
)

func account(name string) domain.Account {
	return num.MustNonZero(domain.DeriveAccountID(name))
}

// sampleState builds a small ledger: alice and bob hold balances, alice
// approved bob, and one balances shard stays unallocated.
func sampleState(t *testing.T) LedgerState {
	t.Helper()

	balances, err := ledger.NewBalances([]int{7, 4, 2}, num.MustFromUint64[domain.BalanceWidth](10))
	require.NoError(t, err)
	require.True(t, balances.AllocateNextShard())
	require.True(t, balances.AllocateNextShard())

	mint := func(name string, v uint64) {
		require.NoError(t, balances.Mint(account(name), num.MustNonZero(num.MustFromUint64[domain.BalanceWidth](v))))
	}
	mint("alice", 1000)
	mint("bob", 250)
	mint("carol", 15)
	require.NoError(t, balances.Burn(account("carol"), num.MustNonZero(num.MustFromUint64[domain.BalanceWidth](7))))

	allowances, err := ledger.NewAllowances[domain.AllowanceWidth]([]int{4, 4}, 100)
	require.NoError(t, err)
	allowances.AllocateNextShard()
	_, _, err = allowances.Set(account("alice"), account("bob"), num.MustFromUint64[domain.AllowanceWidth](40), 5)
	require.NoError(t, err)
	_, _, err = allowances.Set(account("bob"), account("alice"), num.Max[domain.AllowanceWidth](), 5)
	require.NoError(t, err)

	return LedgerState{
		Paused:     true,
		Metadata:   domain.Metadata{Name: "Gold", Symbol: "AU", Decimals: 6},
		Balances:   balances.Export(),
		Allowances: allowances.Export(),
	}
}

func newMemoryKV(t *testing.T) *BadgerEngine {
	t.Helper()
	kv, err := NewBadgerEngine(KVConfig{InMemory: true, Badger: DefaultBadgerConfig()}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}
