package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

const cryptoColumns = `id, name, symbol, buy_rate, sell_rate, logo_url, is_active, created_at, updated_at`

type CryptoAssetRepository struct {
	db *sql.DB
}

func NewCryptoAssetRepository(db *sql.DB) *CryptoAssetRepository {
	return &CryptoAssetRepository{db: db}
}

func (r *CryptoAssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CryptoAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cryptoColumns+` FROM crypto_assets WHERE id = $1`, id,
	)
	a, err := scanCryptoAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return a, nil
}

func (r *CryptoAssetRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.CryptoAsset, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cryptoColumns+` FROM crypto_assets WHERE symbol = $1`, symbol,
	)
	a, err := scanCryptoAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetBySymbol: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetBySymbol: %w", err)
	}
	return a, nil
}

func (r *CryptoAssetRepository) List(ctx context.Context, activeOnly bool) ([]domain.CryptoAsset, error) {
	query := `SELECT ` + cryptoColumns + ` FROM crypto_assets`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY symbol`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var assets []domain.CryptoAsset
	for rows.Next() {
		a, err := scanCryptoAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return assets, nil
}

func (r *CryptoAssetRepository) Create(ctx context.Context, a *domain.CryptoAsset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO crypto_assets (id, name, symbol, buy_rate, sell_rate, logo_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Name, a.Symbol, a.BuyRate, a.SellRate, a.LogoURL, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CryptoAssetRepository) Update(ctx context.Context, a *domain.CryptoAsset) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crypto_assets SET name = $1, symbol = $2, buy_rate = $3, sell_rate = $4,
			logo_url = $5, is_active = $6, updated_at = now()
		WHERE id = $7`,
		a.Name, a.Symbol, a.BuyRate, a.SellRate, a.LogoURL, a.IsActive, a.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRowsAffected(res, "Update")
}

// Deactivate is a soft delete: existing transactions keep referencing the row.
func (r *CryptoAssetRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE crypto_assets SET is_active = FALSE, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return requireRowsAffected(res, "Deactivate")
}

func scanCryptoAsset(s scanner) (*domain.CryptoAsset, error) {
	var a domain.CryptoAsset
	err := s.Scan(
		&a.ID, &a.Name, &a.Symbol, &a.BuyRate, &a.SellRate,
		&a.LogoURL, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
