package service

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/pkg/num"
)

var (
	alice = domain.DeriveAccountID("alice")
	bob   = domain.DeriveAccountID("bob")
	carol = domain.DeriveAccountID("carol")
	admin = domain.DeriveAccountID("admin")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func as(caller domain.AccountID) Call {
	return Call{Caller: caller, Block: 5}
}

func testConfig() Config {
	return Config{
		BalancesCapacities:   []int{4, 4},
		AllowancesCapacities: []int{4},
		MinimumBalance:       num.MustFromUint64[domain.BalanceWidth](10),
		ExpiryPeriod:         100,
	}
}

// newTestService returns a service with every shard allocated and an
// event recorder attached.
func newTestService(t *testing.T, opts ...Option) (*Service, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	base := []Option{WithEmitter(rec), WithLogger(logger.Nop())}

	svc, err := New(testConfig(), append(base, opts...)...)
	require.NoError(t, err)
	allocateAll(t, svc)
	return svc, rec
}

func allocateAll(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	for _, name := range []string{LedgerBalances, LedgerAllowances} {
		for {
			more, _, err := svc.allocate(ctx, name)
			require.NoError(t, err)
			if !more {
				break
			}
		}
	}
}

// fund mints value to each named account through the service.
func fund(t *testing.T, svc *Service, value uint64, accounts ...domain.AccountID) {
	t.Helper()
	for _, a := range accounts {
		require.NoError(t, svc.Mint(context.Background(), as(admin), a, u(value)))
	}
}

func balanceOf(t *testing.T, svc *Service, id domain.AccountID) uint64 {
	t.Helper()
	v, err := svc.BalanceOf(id)
	require.NoError(t, err)
	return v.Uint64()
}

func allowanceOf(t *testing.T, svc *Service, owner, spender domain.AccountID) *uint256.Int {
	t.Helper()
	v, err := svc.Allowance(owner, spender)
	require.NoError(t, err)
	return v
}
