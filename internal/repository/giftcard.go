package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

const giftCardColumns = `id, name, card_type, buy_rate, sell_rate, icon_url,
	denominations, countries, is_active, created_at, updated_at`

type GiftCardRepository struct {
	db *sql.DB
}

func NewGiftCardRepository(db *sql.DB) *GiftCardRepository {
	return &GiftCardRepository{db: db}
}

func (r *GiftCardRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.GiftCard, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+giftCardColumns+` FROM gift_cards WHERE id = $1`, id,
	)
	g, err := scanGiftCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return g, nil
}

func (r *GiftCardRepository) List(ctx context.Context, activeOnly bool) ([]domain.GiftCard, error) {
	query := `SELECT ` + giftCardColumns + ` FROM gift_cards`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	var cards []domain.GiftCard
	for rows.Next() {
		g, err := scanGiftCard(rows)
		if err != nil {
			return nil, fmt.Errorf("List: scan: %w", err)
		}
		cards = append(cards, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows: %w", err)
	}
	return cards, nil
}

func (r *GiftCardRepository) Create(ctx context.Context, g *domain.GiftCard) error {
	denoms, countries, err := marshalGiftCardLists(g)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO gift_cards (id, name, card_type, buy_rate, sell_rate, icon_url,
			denominations, countries, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		g.ID, g.Name, g.Type, g.BuyRate, g.SellRate, g.IconURL,
		denoms, countries, g.IsActive, g.CreatedAt, g.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *GiftCardRepository) Update(ctx context.Context, g *domain.GiftCard) error {
	denoms, countries, err := marshalGiftCardLists(g)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE gift_cards SET name = $1, card_type = $2, buy_rate = $3, sell_rate = $4,
			icon_url = $5, denominations = $6, countries = $7, is_active = $8, updated_at = now()
		WHERE id = $9`,
		g.Name, g.Type, g.BuyRate, g.SellRate, g.IconURL, denoms, countries, g.IsActive, g.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	return requireRowsAffected(res, "Update")
}

func (r *GiftCardRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE gift_cards SET is_active = FALSE, updated_at = now() WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("Deactivate: %w", err)
	}
	return requireRowsAffected(res, "Deactivate")
}

func marshalGiftCardLists(g *domain.GiftCard) ([]byte, []byte, error) {
	denominations := g.Denominations
	if denominations == nil {
		denominations = []int64{}
	}
	countries := g.Countries
	if countries == nil {
		countries = []string{}
	}
	denoms, err := json.Marshal(denominations)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal denominations: %w", err)
	}
	ctry, err := json.Marshal(countries)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal countries: %w", err)
	}
	return denoms, ctry, nil
}

func scanGiftCard(s scanner) (*domain.GiftCard, error) {
	var (
		g             domain.GiftCard
		denominations []byte
		countries     []byte
	)
	err := s.Scan(
		&g.ID, &g.Name, &g.Type, &g.BuyRate, &g.SellRate, &g.IconURL,
		&denominations, &countries, &g.IsActive, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(denominations, &g.Denominations); err != nil {
		return nil, fmt.Errorf("unmarshal denominations: %w", err)
	}
	if err := json.Unmarshal(countries, &g.Countries); err != nil {
		return nil, fmt.Errorf("unmarshal countries: %w", err)
	}
	return &g, nil
}
