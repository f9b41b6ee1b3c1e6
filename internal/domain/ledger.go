package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeDebit  EntryType = "debit"
	EntryTypeCredit EntryType = "credit"
)

// LedgerEntry is the audit record of a single balance movement. Every
// transaction produces exactly one debit at creation and at most one credit
// on reversal.
type LedgerEntry struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	UserID        uuid.UUID
	EntryType     EntryType
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}

type TransactionEventType string

const (
	EventCreated   TransactionEventType = "created"
	EventApproved  TransactionEventType = "approved"
	EventCompleted TransactionEventType = "completed"
	EventFailed    TransactionEventType = "failed"
	EventRejected  TransactionEventType = "rejected"
	EventCancelled TransactionEventType = "cancelled"
)

// EventForStatus maps a status arrival onto its audit event type.
func EventForStatus(s TransactionStatus) TransactionEventType {
	switch s {
	case StatusApproved:
		return EventApproved
	case StatusCompleted:
		return EventCompleted
	case StatusFailed:
		return EventFailed
	case StatusRejected:
		return EventRejected
	case StatusCancelled:
		return EventCancelled
	default:
		return EventCreated
	}
}

type TransactionEvent struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	EventType     TransactionEventType
	Actor         string
	Payload       []byte
	CreatedAt     time.Time
}
