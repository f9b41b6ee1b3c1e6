package transaction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/vtu"
)

type vtuProvider interface {
	Purchase(ctx context.Context, req vtu.PurchaseRequest) (*vtu.PurchaseResult, error)
}

// SettleVTU delivers a pending VTU purchase through the upstream provider
// and resolves the record from the outcome. The provider call happens
// outside any database transaction; only the resulting transition is
// atomic. A provider error or timeout fails the purchase and refunds the
// charge, since nothing was delivered.
func (s *Service) SettleVTU(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error) {
	log := logging.FromContext(ctx)

	t, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("SettleVTU: %w", err)
	}
	if t.Kind != domain.KindVTU {
		return nil, fmt.Errorf("SettleVTU: %s is a %s: %w", t.ID, t.Kind, domain.ErrInvalidRequest)
	}
	if t.Status != domain.StatusPending {
		return nil, fmt.Errorf("SettleVTU: %s is %s: %w", t.ID, t.Status, domain.ErrTransactionTerminal)
	}

	result, err := s.provider.Purchase(ctx, vtu.PurchaseRequest{
		TransactionID: t.ID,
		ServiceType:   string(*t.ServiceType),
		Provider:      *t.Provider,
		Recipient:     *t.Recipient,
		Amount:        t.Amount,
	})
	if err != nil {
		log.Warn("vtu provider call failed", "transaction_id", t.ID, "error", err)
		reason := err.Error()
		return s.failVTU(ctx, t.ID, reason, nil)
	}

	if !result.Success {
		reason := result.Message
		if reason == "" {
			reason = "provider declined"
		}
		return s.failVTU(ctx, t.ID, reason, result.Raw)
	}

	settled, err := s.transition(ctx, t.ID, transitionRequest{
		Status:           domain.StatusCompleted,
		Actor:            "system:vtu",
		ProviderResponse: result.Raw,
	})
	if err != nil {
		return nil, fmt.Errorf("SettleVTU: %w", err)
	}
	return settled, nil
}

func (s *Service) failVTU(ctx context.Context, id uuid.UUID, reason string, raw json.RawMessage) (*domain.Transaction, error) {
	t, err := s.transition(ctx, id, transitionRequest{
		Status:           domain.StatusFailed,
		Actor:            "system:vtu",
		FailureReason:    &reason,
		ProviderResponse: raw,
	})
	if err != nil {
		return nil, fmt.Errorf("failVTU: %w", err)
	}
	return t, nil
}
