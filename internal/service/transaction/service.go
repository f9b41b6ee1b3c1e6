package transaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/config"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/repository"
)

type transactionRepo interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error)
	ApplyTransition(ctx context.Context, tx *sql.Tx, id uuid.UUID, upd repository.TransitionUpdate) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error)
	Debit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error
	Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error
}

type ledgerRepo interface {
	Create(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
}

type eventRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.TransactionEvent) error
}

type notificationRepo interface {
	Create(ctx context.Context, tx *sql.Tx, event *domain.NotificationEvent) error
}

type cryptoRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CryptoAsset, error)
}

type giftCardRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GiftCard, error)
}

type Service struct {
	transactions  transactionRepo
	users         userRepo
	ledger        ledgerRepo
	events        eventRepo
	notifications notificationRepo
	assets        cryptoRepo
	giftCards     giftCardRepo
	provider      vtuProvider
	db            *sql.DB
	feeRate       decimal.Decimal
}

func NewService(
	transactions transactionRepo,
	users userRepo,
	ledger ledgerRepo,
	events eventRepo,
	notifications notificationRepo,
	assets cryptoRepo,
	giftCards giftCardRepo,
	provider vtuProvider,
	db *sql.DB,
	cfg *config.Config,
) *Service {
	return &Service{
		transactions:  transactions,
		users:         users,
		ledger:        ledger,
		events:        events,
		notifications: notifications,
		assets:        assets,
		giftCards:     giftCards,
		provider:      provider,
		db:            db,
		feeRate:       decimal.NewFromFloat(cfg.WithdrawalFeePct),
	}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUser hides other users' transactions behind ErrNotFound rather than
// ErrForbidden so the response does not confirm the record exists.
func (s *Service) GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error) {
	t, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetForUser: %w", err)
	}
	if t.UserID != userID {
		return nil, fmt.Errorf("GetForUser: %w", domain.ErrNotFound)
	}
	return t, nil
}

func (s *Service) List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error) {
	txns, err := s.transactions.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	return txns, nil
}

func (s *Service) writeTransactionEvent(ctx context.Context, tx *sql.Tx, transactionID uuid.UUID, eventType domain.TransactionEventType, actor string, payload []byte, now time.Time) error {
	event := &domain.TransactionEvent{
		ID:            uuid.New(),
		TransactionID: transactionID,
		EventType:     eventType,
		Actor:         actor,
		Payload:       payload,
		CreatedAt:     now,
	}
	if err := s.events.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("writeTransactionEvent: %w", err)
	}
	return nil
}

func (s *Service) enqueueNotification(ctx context.Context, tx *sql.Tx, t *domain.Transaction, subject string, now time.Time) error {
	payload, err := json.Marshal(map[string]any{
		"transaction_id": t.ID,
		"kind":           t.Kind,
		"status":         t.Status,
		"amount":         t.Amount,
		"reference":      t.Reference,
	})
	if err != nil {
		return fmt.Errorf("enqueueNotification: %w", err)
	}

	event := &domain.NotificationEvent{
		ID:        uuid.New(),
		UserID:    t.UserID,
		Subject:   subject,
		Payload:   payload,
		Status:    domain.NotificationStatusPending,
		CreatedAt: now,
	}
	if err := s.notifications.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("enqueueNotification: %w", err)
	}
	return nil
}

func userActor(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

func adminActor(id uuid.UUID) string {
	return fmt.Sprintf("admin:%s", id)
}
