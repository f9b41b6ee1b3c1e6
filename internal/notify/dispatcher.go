package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/observability"
)

type notificationRepo interface {
	GetPending(ctx context.Context, limit int) ([]domain.NotificationEvent, error)
	MarkAttempt(ctx context.Context, id uuid.UUID, status domain.NotificationStatus) error
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Mailer delivers one notification to a user. Implementations must be safe
// for concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject string, payload []byte) error
}

// Dispatcher drains the notification outbox on a fixed interval. Rows are
// written in the same database transaction as the state change they
// announce, so a crash between commit and delivery only delays the mail, it
// never loses the ledger write.
type Dispatcher struct {
	notifications notificationRepo
	users         userRepo
	mailer        Mailer
	logger        *slog.Logger
	interval      time.Duration
}

func NewDispatcher(
	notifications notificationRepo,
	users userRepo,
	mailer Mailer,
	logger *slog.Logger,
	interval time.Duration,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		logger:        logger,
		interval:      interval,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Dispatcher) poll(ctx context.Context) {
	events, err := d.notifications.GetPending(ctx, 20)
	if err != nil {
		d.logger.Error("failed to fetch pending notifications", "error", err)
		return
	}

	for _, event := range events {
		if err := d.dispatch(ctx, event); err != nil {
			d.logger.Error("failed to dispatch notification",
				"notification_id", event.ID,
				"error", err,
			)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event domain.NotificationEvent) error {
	user, err := d.users.GetByID(ctx, event.UserID)
	if err != nil {
		d.logger.Warn("notification user not found", "notification_id", event.ID, "user_id", event.UserID)
		observability.NotificationsDispatched.WithLabelValues("failed").Inc()
		return d.notifications.MarkAttempt(ctx, event.ID, domain.NotificationStatusFailed)
	}

	if err := d.mailer.Send(ctx, user.Email, event.Subject, event.Payload); err != nil {
		d.logger.Warn("notification delivery failed",
			"notification_id", event.ID,
			"subject", event.Subject,
			"error", err,
		)
		observability.NotificationsDispatched.WithLabelValues("failed").Inc()
		return d.notifications.MarkAttempt(ctx, event.ID, domain.NotificationStatusFailed)
	}

	observability.NotificationsDispatched.WithLabelValues("dispatched").Inc()
	return d.notifications.MarkAttempt(ctx, event.ID, domain.NotificationStatusDispatched)
}
