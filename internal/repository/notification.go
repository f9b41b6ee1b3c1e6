package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts an outbox row inside tx so the notification commits (or
// rolls back) together with the transition that produced it.
func (r *NotificationRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.NotificationEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO notification_events (id, user_id, subject, payload, status, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.UserID, event.Subject, []byte(event.Payload),
		event.Status, event.Attempts, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetPending(ctx context.Context, limit int) ([]domain.NotificationEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, subject, payload, status, attempts, last_attempt, created_at
		FROM notification_events
		WHERE status = 'pending' ORDER BY created_at LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetPending: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		var (
			e       domain.NotificationEvent
			payload []byte
		)
		err := rows.Scan(&e.ID, &e.UserID, &e.Subject, &payload, &e.Status, &e.Attempts, &e.LastAttempt, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("GetPending: scan: %w", err)
		}
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetPending: rows: %w", err)
	}
	return events, nil
}

func (r *NotificationRepository) MarkAttempt(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_events SET status = $1, attempts = attempts + 1, last_attempt = now()
		WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("MarkAttempt: %w", err)
	}
	return requireRowsAffected(res, "MarkAttempt")
}
