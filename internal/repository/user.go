package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

const userColumns = `id, email, username, full_name, password_hash, balance,
	is_admin, is_active, is_verified, verification_code, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByEmail: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByEmail: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByUsername: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByUsername: %w", err)
	}
	return u, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (
			id, email, username, full_name, password_hash, balance,
			is_admin, is_active, is_verified, verification_code, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.Email, user.Username, user.FullName, user.PasswordHash, user.Balance,
		user.IsAdmin, user.IsActive, user.IsVerified, user.VerificationCode,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("Create: %w", domain.ErrEmailExists)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// UpdateProfile changes the mutable profile fields. The balance is
// deliberately not reachable from here; only Debit and Credit touch it.
func (r *UserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, fullName string, isActive, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET full_name = $1, is_active = $2, is_admin = $3, updated_at = now()
		WHERE id = $4`,
		fullName, isActive, isAdmin, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	return requireRowsAffected(res, "UpdateProfile")
}

func (r *UserRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_verified = TRUE, verification_code = NULL, updated_at = now()
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("MarkVerified: %w", err)
	}
	return requireRowsAffected(res, "MarkVerified")
}

// GetForUpdate locks the user row for the remainder of tx. Every
// read-check-debit sequence must go through this lock so concurrent
// creations against one wallet serialize.
func (r *UserRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.User, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return u, nil
}

// Debit subtracts amount from the wallet inside tx. The balance guard in the
// WHERE clause makes the decrement conditional even if a caller skipped the
// row lock, so a wallet can never be driven below zero.
func (r *UserRepository) Debit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance - $1, updated_at = now()
		WHERE id = $2 AND balance >= $1`,
		amount, id,
	)
	if err != nil {
		return fmt.Errorf("Debit: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Debit: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("Debit: %w", domain.ErrInsufficientFunds)
	}
	return nil
}

// Credit adds amount back to the wallet inside tx. Used only when reversing
// a previously debited transaction; there is no upper bound.
func (r *UserRepository) Credit(ctx context.Context, tx *sql.Tx, id uuid.UUID, amount decimal.Decimal) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE users SET balance = balance + $1, updated_at = now()
		WHERE id = $2`,
		amount, id,
	)
	if err != nil {
		return fmt.Errorf("Credit: %w", err)
	}
	return requireRowsAffected(res, "Credit")
}

func requireRowsAffected(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	err := s.Scan(
		&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash, &u.Balance,
		&u.IsAdmin, &u.IsActive, &u.IsVerified, &u.VerificationCode,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
