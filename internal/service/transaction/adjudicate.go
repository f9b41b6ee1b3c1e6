package transaction

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/observability"
	"github.com/cardbillhq/cardbill-api/internal/repository"
)

type AdjudicateRequest struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Status        domain.TransactionStatus
	Notes         *string
}

// Adjudicate moves a transaction to a new status on behalf of an admin.
// Re-submitting the status a record already holds is a no-op, so review
// endpoints can be retried safely.
func (s *Service) Adjudicate(ctx context.Context, req AdjudicateRequest) (*domain.Transaction, error) {
	if !req.Status.IsValid() || req.Status == domain.StatusPending {
		return nil, fmt.Errorf("Adjudicate: %w", domain.ErrInvalidTransition)
	}

	adminID := req.AdminID
	t, err := s.transition(ctx, req.TransactionID, transitionRequest{
		Status:  req.Status,
		Actor:   adminActor(req.AdminID),
		AdminID: &adminID,
		Notes:   req.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("Adjudicate: %w", err)
	}
	return t, nil
}

// Cancel lets a user abandon their own pending transaction; the charge is
// credited back like any other reversal.
func (s *Service) Cancel(ctx context.Context, transactionID, userID uuid.UUID) (*domain.Transaction, error) {
	existing, err := s.GetForUser(ctx, transactionID, userID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	t, err := s.transition(ctx, existing.ID, transitionRequest{
		Status: domain.StatusCancelled,
		Actor:  userActor(userID),
	})
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	return t, nil
}

type transitionRequest struct {
	Status           domain.TransactionStatus
	Actor            string
	AdminID          *uuid.UUID
	Notes            *string
	FailureReason    *string
	ProviderResponse []byte
}

// transition is the single path every status change takes: it re-reads the
// record under a row lock, consults the state machine, applies the update
// and any reversal credit atomically, and records the audit event.
func (s *Service) transition(ctx context.Context, id uuid.UUID, req transitionRequest) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("transition: begin tx: %w", err)
	}
	defer tx.Rollback()

	t, err := s.transactions.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	if t.Status == req.Status {
		return t, nil
	}
	if t.Status.Terminal() {
		return nil, fmt.Errorf("transition: %s is %s: %w", t.ID, t.Status, domain.ErrTransactionTerminal)
	}
	if !domain.CanTransition(t.Kind, t.Status, req.Status) {
		return nil, fmt.Errorf("transition: %s %s -> %s: %w", t.Kind, t.Status, req.Status, domain.ErrInvalidTransition)
	}

	now := time.Now().UTC()
	upd := repository.TransitionUpdate{
		Status:           req.Status,
		AdminID:          req.AdminID,
		Notes:            req.Notes,
		FailureReason:    req.FailureReason,
		ProviderResponse: req.ProviderResponse,
	}
	if req.Status.Terminal() {
		upd.ProcessedAt = &now
	}

	if err := s.transactions.ApplyTransition(ctx, tx, t.ID, upd); err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	if req.Status.Reversal() {
		if err := s.refundCharge(ctx, tx, t, now); err != nil {
			return nil, fmt.Errorf("transition: %w", err)
		}
	}

	if err := s.writeTransactionEvent(ctx, tx, t.ID, domain.EventForStatus(req.Status), req.Actor, nil, now); err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	from := t.Status
	t.Status = req.Status
	t.AdminID = coalesceUUID(req.AdminID, t.AdminID)
	t.Notes = coalesceString(req.Notes, t.Notes)
	t.FailureReason = coalesceString(req.FailureReason, t.FailureReason)
	if len(req.ProviderResponse) > 0 {
		t.ProviderResponse = req.ProviderResponse
	}
	if upd.ProcessedAt != nil && t.ProcessedAt == nil {
		t.ProcessedAt = upd.ProcessedAt
	}
	t.UpdatedAt = now

	if err := s.enqueueNotification(ctx, tx, t, "transaction."+string(req.Status), now); err != nil {
		return nil, fmt.Errorf("transition: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("transition: commit: %w", err)
	}

	if t.Status.Terminal() {
		observability.TransactionsResolved.WithLabelValues(string(t.Kind), string(t.Status)).Inc()
	}

	log.Info("transaction transitioned",
		"transaction_id", t.ID,
		"kind", t.Kind,
		"from", from,
		"to", req.Status,
		"actor", req.Actor,
	)
	return t, nil
}

// refundCharge credits the original debit back while holding the record
// lock, so a reversal happens at most once.
func (s *Service) refundCharge(ctx context.Context, tx *sql.Tx, t *domain.Transaction, now time.Time) error {
	user, err := s.users.GetForUpdate(ctx, tx, t.UserID)
	if err != nil {
		return fmt.Errorf("refundCharge: %w", err)
	}

	charge := t.Charge()
	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: t.ID,
		UserID:        t.UserID,
		EntryType:     domain.EntryTypeCredit,
		Amount:        charge,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance.Add(charge),
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("refundCharge: ledger entry: %w", err)
	}

	if err := s.users.Credit(ctx, tx, t.UserID, charge); err != nil {
		return fmt.Errorf("refundCharge: credit: %w", err)
	}
	return nil
}

func coalesceUUID(next, current *uuid.UUID) *uuid.UUID {
	if next != nil {
		return next
	}
	return current
}

func coalesceString(next, current *string) *string {
	if next != nil {
		return next
	}
	return current
}
