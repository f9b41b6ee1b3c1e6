package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
)

type cryptoRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.CryptoAsset, error)
	List(ctx context.Context, activeOnly bool) ([]domain.CryptoAsset, error)
	Create(ctx context.Context, a *domain.CryptoAsset) error
	Update(ctx context.Context, a *domain.CryptoAsset) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type giftCardRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GiftCard, error)
	List(ctx context.Context, activeOnly bool) ([]domain.GiftCard, error)
	Create(ctx context.Context, g *domain.GiftCard) error
	Update(ctx context.Context, g *domain.GiftCard) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CatalogService manages the tradable instruments. Rates are validated here
// so a bad admin request can never publish a zero or negative rate.
type CatalogService struct {
	assets    cryptoRepo
	giftCards giftCardRepo
}

func NewCatalogService(assets cryptoRepo, giftCards giftCardRepo) *CatalogService {
	return &CatalogService{assets: assets, giftCards: giftCards}
}

func (s *CatalogService) ListAssets(ctx context.Context, activeOnly bool) ([]domain.CryptoAsset, error) {
	assets, err := s.assets.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ListAssets: %w", err)
	}
	return assets, nil
}

func (s *CatalogService) CreateAsset(ctx context.Context, a *domain.CryptoAsset) error {
	if a.Name == "" || a.Symbol == "" {
		return fmt.Errorf("CreateAsset: %w", domain.ErrInvalidRequest)
	}
	if err := validateRates(a.BuyRate, a.SellRate); err != nil {
		return fmt.Errorf("CreateAsset: %w", err)
	}

	a.ID = uuid.New()
	a.IsActive = true
	if err := s.assets.Create(ctx, a); err != nil {
		return fmt.Errorf("CreateAsset: %w", err)
	}

	logging.FromContext(ctx).Info("crypto asset created", "asset_id", a.ID, "symbol", a.Symbol)
	return nil
}

func (s *CatalogService) UpdateAsset(ctx context.Context, a *domain.CryptoAsset) error {
	if err := validateRates(a.BuyRate, a.SellRate); err != nil {
		return fmt.Errorf("UpdateAsset: %w", err)
	}
	if err := s.assets.Update(ctx, a); err != nil {
		return fmt.Errorf("UpdateAsset: %w", err)
	}
	return nil
}

func (s *CatalogService) DeactivateAsset(ctx context.Context, id uuid.UUID) error {
	if err := s.assets.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("DeactivateAsset: %w", err)
	}
	return nil
}

func (s *CatalogService) ListGiftCards(ctx context.Context, activeOnly bool) ([]domain.GiftCard, error) {
	cards, err := s.giftCards.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ListGiftCards: %w", err)
	}
	return cards, nil
}

func (s *CatalogService) CreateGiftCard(ctx context.Context, g *domain.GiftCard) error {
	if g.Name == "" || !g.Type.IsValid() {
		return fmt.Errorf("CreateGiftCard: %w", domain.ErrInvalidRequest)
	}
	if err := validateRates(g.BuyRate, g.SellRate); err != nil {
		return fmt.Errorf("CreateGiftCard: %w", err)
	}

	g.ID = uuid.New()
	g.IsActive = true
	if err := s.giftCards.Create(ctx, g); err != nil {
		return fmt.Errorf("CreateGiftCard: %w", err)
	}

	logging.FromContext(ctx).Info("gift card created", "gift_card_id", g.ID, "type", g.Type)
	return nil
}

func (s *CatalogService) UpdateGiftCard(ctx context.Context, g *domain.GiftCard) error {
	if err := validateRates(g.BuyRate, g.SellRate); err != nil {
		return fmt.Errorf("UpdateGiftCard: %w", err)
	}
	if err := s.giftCards.Update(ctx, g); err != nil {
		return fmt.Errorf("UpdateGiftCard: %w", err)
	}
	return nil
}

func (s *CatalogService) DeactivateGiftCard(ctx context.Context, id uuid.UUID) error {
	if err := s.giftCards.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("DeactivateGiftCard: %w", err)
	}
	return nil
}

func validateRates(buyRate, sellRate decimal.Decimal) error {
	if buyRate.LessThanOrEqual(decimal.Zero) || sellRate.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("validateRates: %w", domain.ErrInvalidRequest)
	}
	return nil
}
