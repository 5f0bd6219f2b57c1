package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/internal/storage"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
	"github.com/yndnr/vftledger-go/internal/telemetry/metric"
	"github.com/yndnr/vftledger-go/pkg/num"
)

// Ledger names used in logs and metrics.
const (
	LedgerBalances   = "balances"
	LedgerAllowances = "allowances"
)

// Call carries the context of one invocation: who sends it and at which
// block it executes.
type Call struct {
	Caller domain.AccountID
	Block  domain.BlockNumber
}

// Config describes a fresh ledger.
type Config struct {
	BalancesCapacities   []int
	AllowancesCapacities []int
	MinimumBalance       domain.Balance
	ExpiryPeriod         uint32
	Paused               bool
	// Metadata names the token. The zero value means DefaultMetadata.
	Metadata domain.Metadata
}

// DefaultConfig returns the production ledger layout with a zero minimum
// balance.
func DefaultConfig() Config {
	return Config{
		BalancesCapacities:   ledger.DefaultBalancesCapacities(),
		AllowancesCapacities: ledger.DefaultAllowancesCapacities(),
		MinimumBalance:       num.Zero[domain.BalanceWidth](),
		ExpiryPeriod:         ledger.DefaultExpiryPeriod,
		Metadata:             domain.DefaultMetadata(),
	}
}

// Option configures a Service.
type Option func(*Service)

// WithAuthorizer sets the admin role gate. The default is AllowAll.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) { s.auth = a }
}

// WithEmitter sets the event sink. The default drops events.
func WithEmitter(e Emitter) Option {
	return func(s *Service) { s.emit = e }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics records operation metrics in r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Service) { s.metrics = r }
}

// Service is the token service over both ledgers. Its methods may be
// called from several goroutines; a call that overlaps a conflicting one
// fails fast with domain.ErrBorrowConflict instead of waiting.
type Service struct {
	// Raw cells, used for restore and shard growth.
	balanceCell   *storage.Cell[storage.BalancesLedger]
	allowanceCell *storage.Cell[storage.AllowancesLedger]

	// Pause-aware views used by every mutating operation.
	balances   storage.Handle[storage.BalancesLedger]
	allowances storage.Handle[storage.AllowancesLedger]
	pause      *storage.Pause
	metadata   atomic.Pointer[domain.Metadata]

	auth    Authorizer
	emit    Emitter
	logger  logger.Logger
	metrics *metric.Registry
}

// New creates a service over an empty ledger.
func New(cfg Config, opts ...Option) (*Service, error) {
	meta, err := metadataOrDefault(cfg.Metadata)
	if err != nil {
		return nil, err
	}
	balances, err := ledger.NewBalances(cfg.BalancesCapacities, cfg.MinimumBalance)
	if err != nil {
		return nil, mapError(err)
	}
	allowances, err := ledger.NewAllowances[domain.AllowanceWidth](cfg.AllowancesCapacities, cfg.ExpiryPeriod)
	if err != nil {
		return nil, mapError(err)
	}
	return newService(balances, allowances, cfg.Paused, meta, opts), nil
}

// FromState creates a service from persisted state.
func FromState(state storage.LedgerState, opts ...Option) (*Service, error) {
	meta, err := metadataOrDefault(state.Metadata)
	if err != nil {
		return nil, err
	}
	balances, allowances, err := restoreLedgers(state)
	if err != nil {
		return nil, err
	}
	return newService(balances, allowances, state.Paused, meta, opts), nil
}

func metadataOrDefault(m domain.Metadata) (domain.Metadata, error) {
	if m == (domain.Metadata{}) {
		return domain.DefaultMetadata(), nil
	}
	return m, m.Validate()
}

func newService(b *storage.BalancesLedger, a *storage.AllowancesLedger, paused bool, meta domain.Metadata, opts []Option) *Service {
	s := &Service{
		balanceCell:   storage.NewCell(b),
		allowanceCell: storage.NewCell(a),
		pause:         storage.NewPause(paused),
		auth:          AllowAll,
		emit:          nopEmitter{},
		logger:        logger.Default(),
	}
	s.metadata.Store(&meta)
	s.balances = storage.NewPausable[storage.BalancesLedger](s.balanceCell, s.pause)
	s.allowances = storage.NewPausable[storage.AllowancesLedger](s.allowanceCell, s.pause)

	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "service")
	return s
}

func restoreLedgers(state storage.LedgerState) (*storage.BalancesLedger, *storage.AllowancesLedger, error) {
	balances, err := ledger.RestoreBalances(state.Balances)
	if err != nil {
		return nil, nil, domain.ErrStorageError.WithDetails("restore balances").WithCause(err)
	}
	allowances, err := ledger.RestoreAllowances(state.Allowances)
	if err != nil {
		return nil, nil, domain.ErrStorageError.WithDetails("restore allowances").WithCause(err)
	}
	return balances, allowances, nil
}

// IsPaused reports whether mutations are frozen.
func (s *Service) IsPaused() bool {
	return s.pause.IsPaused()
}

// State exports both ledgers and the pause flag. It retries briefly when
// a mutation holds a ledger.
func (s *Service) State(ctx context.Context) (storage.LedgerState, error) {
	var state storage.LedgerState
	err := retryBorrow(ctx, func() error {
		return s.balanceCell.View(func(b *storage.BalancesLedger) error {
			return s.allowanceCell.View(func(a *storage.AllowancesLedger) error {
				state = storage.LedgerState{
					Paused:     s.pause.IsPaused(),
					Metadata:   *s.metadata.Load(),
					Balances:   b.Export(),
					Allowances: a.Export(),
				}
				return nil
			})
		})
	})
	return state, mapError(err)
}

// Restore replaces the live ledgers and the pause flag with state. Both
// ledgers are swapped under one exclusive borrow.
func (s *Service) Restore(ctx context.Context, state storage.LedgerState) error {
	meta, err := metadataOrDefault(state.Metadata)
	if err != nil {
		return err
	}
	balances, allowances, err := restoreLedgers(state)
	if err != nil {
		return err
	}

	err = retryBorrow(ctx, func() error {
		return s.balanceCell.Update(func(b *storage.BalancesLedger) error {
			return s.allowanceCell.Update(func(a *storage.AllowancesLedger) error {
				*b = *balances
				*a = *allowances
				s.metadata.Store(&meta)
				if state.Paused {
					s.pause.Pause()
				} else {
					s.pause.Resume()
				}
				return nil
			})
		})
	})
	if err != nil {
		return mapError(err)
	}

	s.logger.WithContext(ctx).Info("ledger state restored",
		"holders", balances.Len(),
		"allowances", allowances.Len(),
		"paused", state.Paused)
	return nil
}

// retryBorrow runs fn until it does not fail with a borrow conflict, up
// to a few attempts.
func retryBorrow(ctx context.Context, fn func() error) error {
	const attempts = 5
	backoff := time.Millisecond

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); !errors.Is(err, storage.ErrBorrowConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// authorize checks role for the caller.
func (s *Service) authorize(ctx context.Context, call Call, role Role) error {
	if err := s.auth.Authorize(ctx, call.Caller, role); err != nil {
		if domain.IsDomainError(err, "") {
			return err
		}
		return domain.ErrPermissionDenied.WithDetails(fmt.Sprintf("role %s", role)).WithCause(err)
	}
	return nil
}

// publish sends ev to the emitter and counts it.
func (s *Service) publish(ctx context.Context, ev domain.Event) {
	s.emit.Emit(ctx, ev)
	if s.metrics != nil {
		s.metrics.RecordEvent(ev.EventName())
	}
}

// done maps err, logs failures and records the operation metric.
func (s *Service) done(ctx context.Context, op string, start time.Time, changed bool, err error) error {
	result := metric.ResultOK
	switch {
	case err != nil:
		err = mapError(err)
		result = metric.ResultFailed
		s.logger.WithContext(ctx).Debug("operation failed",
			"op", op,
			"code", domain.GetErrorCode(err),
			"error", err)
	case !changed:
		result = metric.ResultNoop
	}
	if s.metrics != nil {
		s.metrics.ObserveOp(op, result, time.Since(start))
	}
	return err
}
