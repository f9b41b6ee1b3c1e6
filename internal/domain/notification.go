package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationStatus string

const (
	NotificationStatusPending    NotificationStatus = "pending"
	NotificationStatusDispatched NotificationStatus = "dispatched"
	NotificationStatusFailed     NotificationStatus = "failed"
)

// NotificationEvent is an outbox row: enqueued in the same database
// transaction as the state change it announces, dispatched best-effort by a
// background poller. Delivery failure never affects the ledger.
type NotificationEvent struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Subject     string
	Payload     json.RawMessage
	Status      NotificationStatus
	Attempts    int
	LastAttempt *time.Time
	CreatedAt   time.Time
}
