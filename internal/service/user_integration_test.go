package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/config"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/notify"
	"github.com/cardbillhq/cardbill-api/internal/repository"
	"github.com/cardbillhq/cardbill-api/internal/service"
	"github.com/cardbillhq/cardbill-api/internal/testutil"
)

type captureMailer struct {
	to      []string
	payload []byte
}

func (m *captureMailer) Send(_ context.Context, to, _ string, payload []byte) error {
	m.to = append(m.to, to)
	m.payload = payload
	return nil
}

var _ notify.Mailer = (*captureMailer)(nil)

func setupUserService(t *testing.T, db *sql.DB) (*service.UserService, *captureMailer) {
	t.Helper()
	mailer := &captureMailer{}
	svc := service.NewUserService(
		repository.NewUserRepository(db),
		repository.NewLedgerRepository(db),
		mailer,
		&config.Config{JWTSecret: "integration-test-secret", JWTExpiry: time.Hour},
	)
	return svc, mailer
}

func TestRegisterVerifyLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, mailer := setupUserService(t, db)
	ctx := context.Background()

	user, err := svc.Register(ctx, service.RegisterRequest{
		Email:    "new@test.com",
		Username: "newuser",
		FullName: "New User",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.True(t, user.Balance.IsZero())
	assert.False(t, user.IsVerified)
	require.NotNil(t, user.VerificationCode)
	assert.Len(t, *user.VerificationCode, 6)
	require.Equal(t, []string{"new@test.com"}, mailer.to)
	assert.Contains(t, string(mailer.payload), *user.VerificationCode)

	err = svc.VerifyEmail(ctx, user.ID, "000000")
	if *user.VerificationCode != "000000" {
		require.ErrorIs(t, err, domain.ErrInvalidCode)
	}

	require.NoError(t, svc.VerifyEmail(ctx, user.ID, *user.VerificationCode))
	// verification is idempotent
	require.NoError(t, svc.VerifyEmail(ctx, user.ID, "anything"))

	result, err := svc.Login(ctx, "new@test.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	assert.True(t, result.User.IsVerified)

	claims, err := auth.ValidateToken(result.Token, "integration-test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)
}

func TestRegister_DuplicateEmailAndUsername(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupUserService(t, db)
	ctx := context.Background()

	req := service.RegisterRequest{
		Email:    "dup@test.com",
		Username: "dupuser",
		Password: "password123",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, domain.ErrUsernameExists)

	req.Username = "otheruser"
	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, domain.ErrEmailExists)
}

func TestLogin_Failures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc, _ := setupUserService(t, db)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ghost@test.com", "password123")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	user, err := svc.Register(ctx, service.RegisterRequest{
		Email:    "login@test.com",
		Username: "loginuser",
		Password: "password123",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "login@test.com", "wrong-password")
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = db.Exec(`UPDATE users SET is_active = FALSE WHERE id = $1`, user.ID)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "login@test.com", "password123")
	require.ErrorIs(t, err, domain.ErrAccountInactive)
}
