package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User doubles as the ledger account: Balance is the single balance field
// every transaction kind debits and credits. It is mutated only inside the
// transaction service's debit/credit operations, never by profile updates.
type User struct {
	ID               uuid.UUID
	Email            string
	Username         string
	FullName         string
	PasswordHash     string
	Balance          decimal.Decimal
	IsAdmin          bool
	IsActive         bool
	IsVerified       bool
	VerificationCode *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
