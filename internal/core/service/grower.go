package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/vftledger-go/internal/storage"
)

// GrowerConfig configures background shard allocation.
type GrowerConfig struct {
	// Rate is the number of allocation attempts per second.
	Rate float64
	// Burst is the number of attempts allowed at once.
	Burst int
	// IdleInterval is how long to wait before retrying while paused or
	// while a ledger is busy.
	IdleInterval time.Duration
}

// DefaultGrowerConfig returns one allocation every two seconds.
func DefaultGrowerConfig() GrowerConfig {
	return GrowerConfig{
		Rate:         0.5,
		Burst:        1,
		IdleInterval: time.Second,
	}
}

// Grower allocates pending shards of both ledgers, one per limiter token,
// so that the memory cost of a large layout is spread over time.
type Grower struct {
	svc     *Service
	cfg     GrowerConfig
	limiter *rate.Limiter
}

// NewGrower creates a grower for svc.
func NewGrower(svc *Service, cfg GrowerConfig) *Grower {
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultGrowerConfig().Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleInterval <= 0 {
		cfg.IdleInterval = DefaultGrowerConfig().IdleInterval
	}
	return &Grower{
		svc:     svc,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
	}
}

// Run allocates shards until none are pending or ctx ends. It returns nil
// once both ledgers are fully allocated and ctx.Err() on cancellation.
func (g *Grower) Run(ctx context.Context) error {
	log := g.svc.logger.WithContext(ctx).With("worker", "grower")
	pending := []string{LedgerBalances, LedgerAllowances}

	for len(pending) > 0 {
		if err := g.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if g.svc.metrics != nil {
			g.svc.metrics.GrowthTicks.Inc()
		}

		name := pending[0]
		more, allocated, err := g.svc.allocate(ctx, name)
		switch {
		case errors.Is(err, storage.ErrPaused), errors.Is(err, storage.ErrBorrowConflict):
			if err := sleep(ctx, g.cfg.IdleInterval); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}

		if !more {
			pending = pending[1:]
			if !allocated {
				log.Debug("no pending shards", "ledger", name)
			}
		}
	}

	log.Info("all shards allocated")
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
