package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

type catalogService interface {
	ListAssets(ctx context.Context, activeOnly bool) ([]domain.CryptoAsset, error)
	ListGiftCards(ctx context.Context, activeOnly bool) ([]domain.GiftCard, error)
}

type CatalogHandler struct {
	catalog catalogService
}

func NewCatalogHandler(catalog catalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type assetDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Symbol    string          `json:"symbol"`
	BuyRate   decimal.Decimal `json:"buy_rate"`
	SellRate  decimal.Decimal `json:"sell_rate"`
	LogoURL   *string         `json:"logo_url,omitempty"`
	IsActive  bool            `json:"is_active"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toAssetDTO(a *domain.CryptoAsset) assetDTO {
	return assetDTO{
		ID:        a.ID,
		Name:      a.Name,
		Symbol:    a.Symbol,
		BuyRate:   a.BuyRate,
		SellRate:  a.SellRate,
		LogoURL:   a.LogoURL,
		IsActive:  a.IsActive,
		UpdatedAt: a.UpdatedAt,
	}
}

type giftCardDTO struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	BuyRate       decimal.Decimal `json:"buy_rate"`
	SellRate      decimal.Decimal `json:"sell_rate"`
	IconURL       *string         `json:"icon_url,omitempty"`
	Denominations []int64         `json:"denominations"`
	Countries     []string        `json:"countries"`
	IsActive      bool            `json:"is_active"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toGiftCardDTO(g *domain.GiftCard) giftCardDTO {
	return giftCardDTO{
		ID:            g.ID,
		Name:          g.Name,
		Type:          string(g.Type),
		BuyRate:       g.BuyRate,
		SellRate:      g.SellRate,
		IconURL:       g.IconURL,
		Denominations: g.Denominations,
		Countries:     g.Countries,
		IsActive:      g.IsActive,
		UpdatedAt:     g.UpdatedAt,
	}
}

func (h *CatalogHandler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.catalog.ListAssets(r.Context(), true)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]assetDTO, 0, len(assets))
	for i := range assets {
		dtos = append(dtos, toAssetDTO(&assets[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *CatalogHandler) ListGiftCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog.ListGiftCards(r.Context(), true)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]giftCardDTO, 0, len(cards))
	for i := range cards {
		dtos = append(dtos, toGiftCardDTO(&cards[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}
