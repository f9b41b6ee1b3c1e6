package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/repository"
)

func beginTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

func TestUserRepository_Debit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	amount := decimal.RequireFromString("100.00")

	t.Run("Success", func(t *testing.T) {
		tx := beginTx(t, db, mock)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET balance = balance - $1`)).
			WithArgs(amount, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Debit(ctx, tx, userID, amount)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("BalanceGuardRejects", func(t *testing.T) {
		tx := beginTx(t, db, mock)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET balance = balance - $1`)).
			WithArgs(amount, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Debit(ctx, tx, userID, amount)
		assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Credit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewUserRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	amount := decimal.RequireFromString("40.00")

	t.Run("Success", func(t *testing.T) {
		tx := beginTx(t, db, mock)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1`)).
			WithArgs(amount, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Credit(ctx, tx, userID, amount)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingUser", func(t *testing.T) {
		tx := beginTx(t, db, mock)
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE users SET balance = balance + $1`)).
			WithArgs(amount, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Credit(ctx, tx, userID, amount)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		ID:           uuid.New(),
		Email:        "user@test.com",
		Username:     "testuser",
		FullName:     "Test User",
		PasswordHash: "hash",
		Balance:      decimal.Zero,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Create(ctx, user)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users`)).
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, domain.ErrEmailExists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewUserRepository(db)

	userID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT`)).
		WithArgs(userID).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByID(context.Background(), userID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
