package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

type fakeNotificationRepo struct {
	pending []domain.NotificationEvent
	marked  map[uuid.UUID]domain.NotificationStatus
}

func (f *fakeNotificationRepo) GetPending(context.Context, int) ([]domain.NotificationEvent, error) {
	return f.pending, nil
}

func (f *fakeNotificationRepo) MarkAttempt(_ context.Context, id uuid.UUID, status domain.NotificationStatus) error {
	if f.marked == nil {
		f.marked = make(map[uuid.UUID]domain.NotificationStatus)
	}
	f.marked[id] = status
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, _ string, _ []byte) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func event(userID uuid.UUID) domain.NotificationEvent {
	return domain.NotificationEvent{
		ID:      uuid.New(),
		UserID:  userID,
		Subject: "transaction.created",
		Payload: json.RawMessage(`{"kind":"withdrawal"}`),
		Status:  domain.NotificationStatusPending,
	}
}

func TestDispatcher_DeliversPending(t *testing.T) {
	userID := uuid.New()
	ev := event(userID)
	repo := &fakeNotificationRepo{pending: []domain.NotificationEvent{ev}}
	users := &fakeUserRepo{users: map[uuid.UUID]*domain.User{
		userID: {ID: userID, Email: "user@test.com"},
	}}
	mailer := &recordingMailer{}

	d := NewDispatcher(repo, users, mailer, slog.Default(), 0)
	d.poll(context.Background())

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "user@test.com", mailer.sent[0])
	assert.Equal(t, domain.NotificationStatusDispatched, repo.marked[ev.ID])
}

func TestDispatcher_MarksFailedOnSendError(t *testing.T) {
	userID := uuid.New()
	ev := event(userID)
	repo := &fakeNotificationRepo{pending: []domain.NotificationEvent{ev}}
	users := &fakeUserRepo{users: map[uuid.UUID]*domain.User{
		userID: {ID: userID, Email: "user@test.com"},
	}}
	mailer := &recordingMailer{err: errors.New("smtp unavailable")}

	d := NewDispatcher(repo, users, mailer, slog.Default(), 0)
	d.poll(context.Background())

	assert.Empty(t, mailer.sent)
	assert.Equal(t, domain.NotificationStatusFailed, repo.marked[ev.ID])
}

func TestDispatcher_MarksFailedOnMissingUser(t *testing.T) {
	ev := event(uuid.New())
	repo := &fakeNotificationRepo{pending: []domain.NotificationEvent{ev}}
	mailer := &recordingMailer{}

	d := NewDispatcher(repo, &fakeUserRepo{}, mailer, slog.Default(), 0)
	d.poll(context.Background())

	assert.Empty(t, mailer.sent)
	assert.Equal(t, domain.NotificationStatusFailed, repo.marked[ev.ID])
}
