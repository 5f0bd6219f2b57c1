package domain

import "github.com/holiman/uint256"

// Event is a notification emitted after a successful ledger mutation.
type Event interface {
	EventName() string
}

// TransferEvent reports value moving between accounts. Mints have the
// burn account as From and burns have it as To.
type TransferEvent struct {
	From  AccountID
	To    AccountID
	Value *uint256.Int
}

// EventName implements Event.
func (TransferEvent) EventName() string { return "Transfer" }

// ApprovalEvent reports a changed allowance.
type ApprovalEvent struct {
	Owner   AccountID
	Spender AccountID
	Value   *uint256.Int
}

// EventName implements Event.
func (ApprovalEvent) EventName() string { return "Approval" }

// PausedEvent reports that the pause switch was engaged.
type PausedEvent struct{}

// EventName implements Event.
func (PausedEvent) EventName() string { return "Paused" }

// ResumedEvent reports that the pause switch was released.
type ResumedEvent struct{}

// EventName implements Event.
func (ResumedEvent) EventName() string { return "Resumed" }

// ExpiryPeriodChangedEvent reports a new allowance lifetime in blocks.
type ExpiryPeriodChangedEvent struct {
	Period uint32
}

// EventName implements Event.
func (ExpiryPeriodChangedEvent) EventName() string { return "ExpiryPeriodChanged" }

// MinimumBalanceChangedEvent reports a new balance floor.
type MinimumBalanceChangedEvent struct {
	Value *uint256.Int
}

// EventName implements Event.
func (MinimumBalanceChangedEvent) EventName() string { return "MinimumBalanceChanged" }
