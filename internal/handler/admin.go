package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/repository"
	"github.com/cardbillhq/cardbill-api/internal/service/transaction"
)

type adminTransactionService interface {
	Adjudicate(ctx context.Context, req transaction.AdjudicateRequest) (*domain.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error)
}

type adminUserService interface {
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fullName string, isActive, isAdmin bool) (*domain.User, error)
}

type adminCatalogService interface {
	catalogService
	CreateAsset(ctx context.Context, a *domain.CryptoAsset) error
	UpdateAsset(ctx context.Context, a *domain.CryptoAsset) error
	DeactivateAsset(ctx context.Context, id uuid.UUID) error
	CreateGiftCard(ctx context.Context, g *domain.GiftCard) error
	UpdateGiftCard(ctx context.Context, g *domain.GiftCard) error
	DeactivateGiftCard(ctx context.Context, id uuid.UUID) error
}

type AdminHandler struct {
	transactions adminTransactionService
	users        adminUserService
	catalog      adminCatalogService
}

func NewAdminHandler(transactions adminTransactionService, users adminUserService, catalog adminCatalogService) *AdminHandler {
	return &AdminHandler{transactions: transactions, users: users, catalog: catalog}
}

type adjudicateRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

func (r adjudicateRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Status == "" {
		errs = append(errs, FieldError{Field: "status", Message: "required"})
	} else if s := domain.TransactionStatus(r.Status); !s.IsValid() || s == domain.StatusPending {
		errs = append(errs, FieldError{Field: "status", Message: "not an adjudicable status"})
	}
	return errs
}

func (h *AdminHandler) Adjudicate(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	adminID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req adjudicateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.Adjudicate(r.Context(), transaction.AdjudicateRequest{
		TransactionID: transactionID,
		AdminID:       adminID,
		Status:        domain.TransactionStatus(req.Status),
		Notes:         req.Notes,
	})
	if err != nil {
		log.Warn("adjudication failed", "transaction_id", transactionID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *AdminHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	filter := repository.TransactionFilter{Limit: limit, Offset: offset}

	if v := r.URL.Query().Get("user_id"); v != "" {
		userID, err := uuid.Parse(v)
		if err != nil {
			RespondValidationError(w, []FieldError{{Field: "user_id", Message: "must be a UUID"}})
			return
		}
		filter.UserID = &userID
	}
	if v := r.URL.Query().Get("kind"); v != "" {
		kind := domain.TransactionKind(v)
		filter.Kind = &kind
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.TransactionStatus(v)
		if !status.IsValid() {
			RespondValidationError(w, []FieldError{{Field: "status", Message: "unknown status"}})
			return
		}
		filter.Status = &status
	}

	txns, err := h.transactions.List(r.Context(), filter)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, 0, len(txns))
	for i := range txns {
		dtos = append(dtos, toTransactionDTO(&txns[i]))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"transactions": dtos,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	users, err := h.users.ListUsers(r.Context(), limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]userDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, toUserDTO(&users[i]))
	}
	RespondSuccess(w, http.StatusOK, map[string]any{
		"users":  dtos,
		"limit":  limit,
		"offset": offset,
	})
}

type updateUserRequest struct {
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
	IsAdmin  bool   `json:"is_admin"`
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	user, err := h.users.UpdateUser(r.Context(), userID, req.FullName, req.IsActive, req.IsAdmin)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

type assetRequest struct {
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	BuyRate  decimal.Decimal `json:"buy_rate"`
	SellRate decimal.Decimal `json:"sell_rate"`
	LogoURL  *string         `json:"logo_url"`
}

func (r assetRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if r.Symbol == "" {
		errs = append(errs, FieldError{Field: "symbol", Message: "required"})
	}
	if r.BuyRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "buy_rate", Message: "must be greater than 0"})
	}
	if r.SellRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "sell_rate", Message: "must be greater than 0"})
	}
	return errs
}

func (h *AdminHandler) ListAllAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := h.catalog.ListAssets(r.Context(), false)
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

func (h *AdminHandler) CreateAsset(w http.ResponseWriter, r *http.Request) {
	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	asset := &domain.CryptoAsset{
		Name:     req.Name,
		Symbol:   req.Symbol,
		BuyRate:  req.BuyRate,
		SellRate: req.SellRate,
		LogoURL:  req.LogoURL,
	}
	if err := h.catalog.CreateAsset(r.Context(), asset); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toAssetDTO(asset))
}

func (h *AdminHandler) UpdateAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req assetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	asset := &domain.CryptoAsset{
		ID:       assetID,
		Name:     req.Name,
		Symbol:   req.Symbol,
		BuyRate:  req.BuyRate,
		SellRate: req.SellRate,
		LogoURL:  req.LogoURL,
	}
	if err := h.catalog.UpdateAsset(r.Context(), asset); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toAssetDTO(asset))
}

func (h *AdminHandler) DeactivateAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.catalog.DeactivateAsset(r.Context(), assetID); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

type giftCardRequest struct {
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	BuyRate       decimal.Decimal `json:"buy_rate"`
	SellRate      decimal.Decimal `json:"sell_rate"`
	IconURL       *string         `json:"icon_url"`
	Denominations []int64         `json:"denominations"`
	Countries     []string        `json:"countries"`
}

func (r giftCardRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !domain.GiftCardType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "unknown gift card type"})
	}
	if r.BuyRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "buy_rate", Message: "must be greater than 0"})
	}
	if r.SellRate.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "sell_rate", Message: "must be greater than 0"})
	}
	return errs
}

func (h *AdminHandler) ListAllGiftCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.catalog.ListGiftCards(r.Context(), false)
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

func (h *AdminHandler) CreateGiftCard(w http.ResponseWriter, r *http.Request) {
	var req giftCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	card := &domain.GiftCard{
		Name:          req.Name,
		Type:          domain.GiftCardType(req.Type),
		BuyRate:       req.BuyRate,
		SellRate:      req.SellRate,
		IconURL:       req.IconURL,
		Denominations: req.Denominations,
		Countries:     req.Countries,
	}
	if err := h.catalog.CreateGiftCard(r.Context(), card); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toGiftCardDTO(card))
}

func (h *AdminHandler) UpdateGiftCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req giftCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	card := &domain.GiftCard{
		ID:            cardID,
		Name:          req.Name,
		Type:          domain.GiftCardType(req.Type),
		BuyRate:       req.BuyRate,
		SellRate:      req.SellRate,
		IconURL:       req.IconURL,
		Denominations: req.Denominations,
		Countries:     req.Countries,
	}
	if err := h.catalog.UpdateGiftCard(r.Context(), card); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toGiftCardDTO(card))
}

func (h *AdminHandler) DeactivateGiftCard(w http.ResponseWriter, r *http.Request) {
	cardID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.catalog.DeactivateGiftCard(r.Context(), cardID); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
