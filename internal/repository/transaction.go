package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

const transactionColumns = `id, user_id, kind, amount, fee, total, status, reference,
	admin_id, notes, failure_reason, provider_response,
	method, account_details, service_type, provider, recipient,
	asset_id, gift_card_id, direction, rate, wallet_address,
	card_code, card_pin, card_image_url,
	processed_at, created_at, updated_at`

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, user_id, kind, amount, fee, total, status, reference,
			admin_id, notes, failure_reason, provider_response,
			method, account_details, service_type, provider, recipient,
			asset_id, gift_card_id, direction, rate, wallet_address,
			card_code, card_pin, card_image_url,
			processed_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28
		)`,
		t.ID, t.UserID, t.Kind, t.Amount, t.Fee, t.Total, t.Status, t.Reference,
		t.AdminID, t.Notes, t.FailureReason, nullableJSON(t.ProviderResponse),
		t.Method, t.AccountDetails, t.ServiceType, t.Provider, t.Recipient,
		t.AssetID, t.GiftCardID, t.Direction, t.Rate, t.WalletAddress,
		t.CardCode, t.CardPin, t.CardImageURL,
		t.ProcessedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateReference)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return t, nil
}

// GetForUpdate locks the transaction row inside tx so that concurrent
// adjudications of the same record serialize and re-check status under the
// lock.
func (r *TransactionRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Transaction, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return t, nil
}

type TransactionFilter struct {
	UserID *uuid.UUID
	Kind   *domain.TransactionKind
	Status *domain.TransactionStatus
	Limit  int
	Offset int
}

func (r *TransactionRepository) List(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, error) {
	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		conds = append(conds, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return txns, nil
}

// TransitionUpdate carries the mutable fields a status transition may set.
// processed_at is COALESCEd in SQL so it is only ever written once.
type TransitionUpdate struct {
	Status           domain.TransactionStatus
	AdminID          *uuid.UUID
	Notes            *string
	FailureReason    *string
	ProviderResponse []byte
	ProcessedAt      *time.Time
}

func (r *TransactionRepository) ApplyTransition(ctx context.Context, tx *sql.Tx, id uuid.UUID, upd TransitionUpdate) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE transactions SET
			status = $1,
			admin_id = COALESCE($2, admin_id),
			notes = COALESCE($3, notes),
			failure_reason = COALESCE($4, failure_reason),
			provider_response = COALESCE($5, provider_response),
			processed_at = COALESCE(processed_at, $6),
			updated_at = now()
		WHERE id = $7`,
		upd.Status, upd.AdminID, upd.Notes, upd.FailureReason,
		nullableJSON(upd.ProviderResponse), upd.ProcessedAt, id,
	)
	if err != nil {
		return fmt.Errorf("ApplyTransition: %w", err)
	}
	return requireRowsAffected(res, "ApplyTransition")
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var (
		t                domain.Transaction
		adminID          uuid.NullUUID
		assetID          uuid.NullUUID
		giftCardID       uuid.NullUUID
		rate             decimal.NullDecimal
		providerResponse []byte
	)
	err := s.Scan(
		&t.ID, &t.UserID, &t.Kind, &t.Amount, &t.Fee, &t.Total, &t.Status, &t.Reference,
		&adminID, &t.Notes, &t.FailureReason, &providerResponse,
		&t.Method, &t.AccountDetails, &t.ServiceType, &t.Provider, &t.Recipient,
		&assetID, &giftCardID, &t.Direction, &rate, &t.WalletAddress,
		&t.CardCode, &t.CardPin, &t.CardImageURL,
		&t.ProcessedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if adminID.Valid {
		t.AdminID = &adminID.UUID
	}
	if assetID.Valid {
		t.AssetID = &assetID.UUID
	}
	if giftCardID.Valid {
		t.GiftCardID = &giftCardID.UUID
	}
	if rate.Valid {
		t.Rate = &rate.Decimal
	}
	t.ProviderResponse = providerResponse

	return &t, nil
}
