package service

import (
	"context"
	"fmt"
	"time"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
)

// BalanceInfo is one account balance at the boundary width.
type BalanceInfo struct {
	Account domain.AccountID
	Balance *uint256.Int
}

// AllowanceInfo is one allowance at the boundary width. The infinite
// allowance is reported as the largest 256-bit value.
type AllowanceInfo struct {
	Owner   domain.AccountID
	Spender domain.AccountID
	Amount  *uint256.Int
	Expiry  domain.BlockNumber
}

// BalanceOf returns the balance of id, zero when it holds nothing.
func (s *Service) BalanceOf(id domain.AccountID) (*uint256.Int, error) {
	balance, _, err := s.LookupBalance(id)
	return balance, err
}

// LookupBalance returns the balance of id and whether it is stored.
func (s *Service) LookupBalance(id domain.AccountID) (*uint256.Int, bool, error) {
	acc, err := account(id)
	if err != nil {
		return nil, false, err
	}
	var (
		balance domain.Balance
		ok      bool
	)
	err = s.balances.View(func(b *storage.BalancesLedger) error {
		balance, ok = b.Lookup(acc)
		return nil
	})
	if err != nil {
		return nil, false, mapError(err)
	}
	return balance.Uint256(), ok, nil
}

// Allowance returns how much spender may still take from owner.
func (s *Service) Allowance(owner, spender domain.AccountID) (*uint256.Int, error) {
	info, _, err := s.AllowanceOf(owner, spender)
	if err != nil {
		return nil, err
	}
	return info.Amount, nil
}

// AllowanceOf returns the allowance with its expiry block and whether it
// is stored.
func (s *Service) AllowanceOf(ownerID, spenderID domain.AccountID) (AllowanceInfo, bool, error) {
	info := AllowanceInfo{Owner: ownerID, Spender: spenderID, Amount: new(uint256.Int)}

	owner, err := account(ownerID)
	if err != nil {
		return info, false, err
	}
	spender, err := account(spenderID)
	if err != nil {
		return info, false, err
	}

	var ok bool
	err = s.allowances.View(func(a *storage.AllowancesLedger) error {
		e, found := a.Lookup(owner, spender)
		if found {
			info.Amount = domain.AllowanceToWide(e.Amount.Get())
			info.Expiry = e.Expiry
		}
		ok = found
		return nil
	})
	if err != nil {
		return info, false, mapError(err)
	}
	return info, ok, nil
}

// TotalSupply returns the sum of all balances and the unused dust.
func (s *Service) TotalSupply() (*uint256.Int, error) {
	var total *uint256.Int
	err := s.balances.View(func(b *storage.BalancesLedger) error {
		total = b.TotalSupply()
		return nil
	})
	return total, mapError(err)
}

// Unused returns the dust swept from balances that fell under the minimum.
func (s *Service) Unused() (*uint256.Int, error) {
	var unused *uint256.Int
	err := s.balances.View(func(b *storage.BalancesLedger) error {
		unused = b.Unused()
		return nil
	})
	return unused, mapError(err)
}

// MinimumBalance returns the smallest balance an account may hold.
func (s *Service) MinimumBalance() (*uint256.Int, error) {
	var minimum *uint256.Int
	err := s.balances.View(func(b *storage.BalancesLedger) error {
		minimum = b.MinimumBalance().Uint256()
		return nil
	})
	return minimum, mapError(err)
}

// Metadata returns the token name, symbol and decimals.
func (s *Service) Metadata() domain.Metadata {
	return *s.metadata.Load()
}

// Name returns the token name.
func (s *Service) Name() string { return s.Metadata().Name }

// Symbol returns the token symbol.
func (s *Service) Symbol() string { return s.Metadata().Symbol }

// Decimals returns how many decimal places a displayed amount has.
func (s *Service) Decimals() uint8 { return s.Metadata().Decimals }

// ExpiryPeriod returns the allowance lifetime in blocks.
func (s *Service) ExpiryPeriod() (uint32, error) {
	var period uint32
	err := s.allowances.View(func(a *storage.AllowancesLedger) error {
		period = a.ExpiryPeriod()
		return nil
	})
	return period, mapError(err)
}

// Balances returns up to limit balances ordered by account, skipping the
// first cursor entries.
func (s *Service) Balances(cursor, limit int) ([]BalanceInfo, error) {
	var out []BalanceInfo
	err := s.balances.View(func(b *storage.BalancesLedger) error {
		page := b.Page(cursor, limit)
		out = make([]BalanceInfo, len(page))
		for i, e := range page {
			out[i] = BalanceInfo{Account: e.Account, Balance: e.Balance.Uint256()}
		}
		return nil
	})
	return out, mapError(err)
}

// Allowances returns up to limit allowances ordered by owner then
// spender, skipping the first cursor entries.
func (s *Service) Allowances(cursor, limit int) ([]AllowanceInfo, error) {
	var out []AllowanceInfo
	err := s.allowances.View(func(a *storage.AllowancesLedger) error {
		page := a.Page(cursor, limit)
		out = make([]AllowanceInfo, len(page))
		for i, e := range page {
			out[i] = AllowanceInfo{
				Owner:   e.Owner,
				Spender: e.Spender,
				Amount:  domain.AllowanceToWide(e.Amount),
				Expiry:  e.Expiry,
			}
		}
		return nil
	})
	return out, mapError(err)
}

// RemoveExpiredAllowance deletes the allowance of spender over owner once
// its expiry block is strictly before the current block, and emits a zero
// Approval. Anyone may call it. It reports false when no allowance is
// stored and fails with domain.ErrAllowanceNotExpired when it is still live.
func (s *Service) RemoveExpiredAllowance(ctx context.Context, call Call, ownerID, spenderID domain.AccountID) (bool, error) {
	start := time.Now()
	removed, err := s.removeExpired(ctx, call, ownerID, spenderID)
	return removed, s.done(ctx, "remove_expired_allowance", start, removed, err)
}

func (s *Service) removeExpired(ctx context.Context, call Call, ownerID, spenderID domain.AccountID) (bool, error) {
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

	removed := false
	err = s.allowances.Update(func(a *storage.AllowancesLedger) error {
		e, ok := a.Lookup(owner, spender)
		if !ok {
			return nil
		}
		if e.Expiry >= call.Block {
			return domain.ErrAllowanceNotExpired.WithDetails(
				fmt.Sprintf("expires at block %d, current block %d", e.Expiry, call.Block))
		}
		a.Remove(owner, spender)
		removed = true
		return nil
	})
	if err != nil || !removed {
		return false, err
	}

	s.publish(ctx, approvalEvent(ownerID, spenderID, new(uint256.Int)))
	return true, nil
}

// ============================================================================
// Statistics
// ============================================================================

// Stats returns a point-in-time view of both ledgers.
func (s *Service) Stats() (metric.LedgerStats, error) {
	stats := metric.LedgerStats{Paused: s.pause.IsPaused()}
	err := s.balanceCell.View(func(b *storage.BalancesLedger) error {
		total, unused := b.TotalSupply(), b.Unused()
		stats.TotalSupply = total.Float64()
		stats.Unused = unused.Float64()
		stats.Holders = b.Len()
		stats.BalanceShards = shardStats(b.Stats())
		return nil
	})
	if err != nil {
		return stats, mapError(err)
	}
	err = s.allowanceCell.View(func(a *storage.AllowancesLedger) error {
		stats.Allowances = a.Len()
		stats.AllowanceShards = shardStats(a.Stats())
		return nil
	})
	return stats, mapError(err)
}

// LedgerStats implements metric.StatsSource. A scrape that overlaps a
// mutation reports only the pause flag.
func (s *Service) LedgerStats() metric.LedgerStats {
	stats, err := s.Stats()
	if err != nil {
		s.logger.Debug("ledger stats unavailable", "error", err)
	}
	return stats
}
