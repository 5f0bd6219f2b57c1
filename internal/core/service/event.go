package service

import (
	"context"
	"sync"

	"github.com/holiman/uint256"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/telemetry/logger"
)

// Emitter receives events after a mutation has been applied. Emit must
// not call back into the Service.
type Emitter interface {
	Emit(ctx context.Context, ev domain.Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, ev domain.Event)

// Emit implements Emitter.
func (f EmitterFunc) Emit(ctx context.Context, ev domain.Event) { f(ctx, ev) }

type nopEmitter struct{}

func (nopEmitter) Emit(context.Context, domain.Event) {}

// LogEmitter writes every event to a logger at info level.
type LogEmitter struct {
	Logger logger.Logger
}

// Emit implements Emitter.
func (e LogEmitter) Emit(ctx context.Context, ev domain.Event) {
	l := e.Logger
	if l == nil {
		l = logger.FromContext(ctx)
	}
	l.WithContext(ctx).Info("event", append([]any{"event", ev.EventName()}, eventFields(ev)...)...)
}

func eventFields(ev domain.Event) []any {
	switch e := ev.(type) {
	case domain.TransferEvent:
		return []any{"from", e.From.String(), "to", e.To.String(), "value", e.Value.Dec()}
	case domain.ApprovalEvent:
		return []any{"owner", e.Owner.String(), "spender", e.Spender.String(), "value", e.Value.Dec()}
	case domain.ExpiryPeriodChangedEvent:
		return []any{"period", e.Period}
	case domain.MinimumBalanceChangedEvent:
		return []any{"value", e.Value.Dec()}
	default:
		return nil
	}
}

// MultiEmitter fans an event out to several emitters in order.
type MultiEmitter []Emitter

// Emit implements Emitter.
func (m MultiEmitter) Emit(ctx context.Context, ev domain.Event) {
	for _, e := range m {
		e.Emit(ctx, ev)
	}
}

// Recorder keeps every emitted event in memory. It is used by tests and
// by CLI commands that print what a call emitted.
type Recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

// Emit implements Emitter.
func (r *Recorder) Emit(_ context.Context, ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns the recorded events.
func (r *Recorder) Events() []domain.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

func transferEvent(from, to domain.AccountID, value *uint256.Int) domain.TransferEvent {
	return domain.TransferEvent{From: from, To: to, Value: new(uint256.Int).Set(value)}
}

func approvalEvent(owner, spender domain.AccountID, value *uint256.Int) domain.ApprovalEvent {
	return domain.ApprovalEvent{Owner: owner, Spender: spender, Value: new(uint256.Int).Set(value)}
}
