package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/repository"
	"github.com/cardbillhq/cardbill-api/internal/service/transaction"
)

type transactionService interface {
	CreateWithdrawal(ctx context.Context, req transaction.WithdrawalRequest) (*domain.Transaction, error)
	CreateVTUPurchase(ctx context.Context, req transaction.VTUPurchaseRequest) (*domain.Transaction, error)
	CreateCryptoTrade(ctx context.Context, req transaction.CryptoTradeRequest) (*domain.Transaction, error)
	CreateGiftCardTrade(ctx context.Context, req transaction.GiftCardTradeRequest) (*domain.Transaction, error)
	SettleVTU(ctx context.Context, transactionID uuid.UUID) (*domain.Transaction, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, filter repository.TransactionFilter) ([]domain.Transaction, error)
	Cancel(ctx context.Context, transactionID, userID uuid.UUID) (*domain.Transaction, error)
}

type TransactionHandler struct {
	transactions transactionService
}

func NewTransactionHandler(transactions transactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type transactionDTO struct {
	ID            uuid.UUID        `json:"id"`
	Kind          string           `json:"kind"`
	Status        string           `json:"status"`
	Amount        decimal.Decimal  `json:"amount"`
	Fee           decimal.Decimal  `json:"fee"`
	Total         decimal.Decimal  `json:"total"`
	Reference     *string          `json:"reference"`
	Notes         *string          `json:"notes,omitempty"`
	FailureReason *string          `json:"failure_reason,omitempty"`
	Method        *string          `json:"method,omitempty"`
	ServiceType   *string          `json:"service_type,omitempty"`
	Provider      *string          `json:"provider,omitempty"`
	Recipient     *string          `json:"recipient,omitempty"`
	AssetID       *uuid.UUID       `json:"asset_id,omitempty"`
	GiftCardID    *uuid.UUID       `json:"gift_card_id,omitempty"`
	Direction     *string          `json:"direction,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	WalletAddress *string          `json:"wallet_address,omitempty"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:            t.ID,
		Kind:          string(t.Kind),
		Status:        string(t.Status),
		Amount:        t.Amount,
		Fee:           t.Fee,
		Total:         t.Total,
		Reference:     t.Reference,
		Notes:         t.Notes,
		FailureReason: t.FailureReason,
		AssetID:       t.AssetID,
		GiftCardID:    t.GiftCardID,
		Rate:          t.Rate,
		WalletAddress: t.WalletAddress,
		ProcessedAt:   t.ProcessedAt,
		CreatedAt:     t.CreatedAt,
	}
	if t.Method != nil {
		m := string(*t.Method)
		dto.Method = &m
	}
	if t.ServiceType != nil {
		st := string(*t.ServiceType)
		dto.ServiceType = &st
	}
	dto.Provider = t.Provider
	dto.Recipient = t.Recipient
	if t.Direction != nil {
		d := string(*t.Direction)
		dto.Direction = &d
	}
	return dto
}

type createWithdrawalRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"method"`
	AccountDetails string          `json:"account_details"`
}

func (r createWithdrawalRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.WithdrawalMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "must be bank, crypto, or mobile_money"})
	}
	if r.AccountDetails == "" {
		errs = append(errs, FieldError{Field: "account_details", Message: "required"})
	}
	return errs
}

func (h *TransactionHandler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.CreateWithdrawal(r.Context(), transaction.WithdrawalRequest{
		UserID:         userID,
		Amount:         req.Amount,
		Method:         domain.WithdrawalMethod(req.Method),
		AccountDetails: req.AccountDetails,
	})
	if err != nil {
		log.Warn("withdrawal creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

type createVTURequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ServiceType string          `json:"service_type"`
	Provider    string          `json:"provider"`
	Recipient   string          `json:"recipient"`
}

func (r createVTURequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.ServiceType == "" {
		errs = append(errs, FieldError{Field: "service_type", Message: "required"})
	} else if !domain.VTUServiceType(r.ServiceType).IsValid() {
		errs = append(errs, FieldError{Field: "service_type", Message: "unknown service type"})
	}
	if r.Provider == "" {
		errs = append(errs, FieldError{Field: "provider", Message: "required"})
	}
	if r.Recipient == "" {
		errs = append(errs, FieldError{Field: "recipient", Message: "required"})
	}
	return errs
}

// CreateVTU creates the purchase and settles it against the provider in the
// same request. A provider decline still returns the record, as failed and
// already refunded.
func (h *TransactionHandler) CreateVTU(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createVTURequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.CreateVTUPurchase(r.Context(), transaction.VTUPurchaseRequest{
		UserID:      userID,
		Amount:      req.Amount,
		ServiceType: domain.VTUServiceType(req.ServiceType),
		Provider:    req.Provider,
		Recipient:   req.Recipient,
	})
	if err != nil {
		log.Warn("vtu purchase creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	settled, err := h.transactions.SettleVTU(r.Context(), t.ID)
	if err != nil {
		log.Error("vtu settlement failed", "transaction_id", t.ID, "error", err)
		w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
		RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", settled.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(settled))
}

type createCryptoTradeRequest struct {
	AssetID       uuid.UUID       `json:"asset_id"`
	Direction     string          `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	WalletAddress string          `json:"wallet_address"`
}

func (r createCryptoTradeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.AssetID == uuid.Nil {
		errs = append(errs, FieldError{Field: "asset_id", Message: "required"})
	}
	if r.Direction == "" {
		errs = append(errs, FieldError{Field: "direction", Message: "required"})
	} else if !domain.TradeDirection(r.Direction).IsValid() {
		errs = append(errs, FieldError{Field: "direction", Message: "must be buy or sell"})
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.WalletAddress == "" {
		errs = append(errs, FieldError{Field: "wallet_address", Message: "required"})
	}
	return errs
}

func (h *TransactionHandler) CreateCryptoTrade(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createCryptoTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.CreateCryptoTrade(r.Context(), transaction.CryptoTradeRequest{
		UserID:        userID,
		AssetID:       req.AssetID,
		Direction:     domain.TradeDirection(req.Direction),
		Amount:        req.Amount,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		log.Warn("crypto trade creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

type createGiftCardTradeRequest struct {
	GiftCardID   uuid.UUID       `json:"gift_card_id"`
	Direction    string          `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	CardCode     *string         `json:"card_code"`
	CardPin      *string         `json:"card_pin"`
	CardImageURL *string         `json:"card_image_url"`
}

func (r createGiftCardTradeRequest) Validate() []FieldError {
	var errs []FieldError
	if r.GiftCardID == uuid.Nil {
		errs = append(errs, FieldError{Field: "gift_card_id", Message: "required"})
	}
	if r.Direction == "" {
		errs = append(errs, FieldError{Field: "direction", Message: "required"})
	} else if !domain.TradeDirection(r.Direction).IsValid() {
		errs = append(errs, FieldError{Field: "direction", Message: "must be buy or sell"})
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if domain.TradeDirection(r.Direction) == domain.DirectionSell && r.CardCode == nil && r.CardImageURL == nil {
		errs = append(errs, FieldError{Field: "card_code", Message: "card_code or card_image_url required when selling"})
	}
	return errs
}

func (h *TransactionHandler) CreateGiftCardTrade(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createGiftCardTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	t, err := h.transactions.CreateGiftCardTrade(r.Context(), transaction.GiftCardTradeRequest{
		UserID:       userID,
		GiftCardID:   req.GiftCardID,
		Direction:    domain.TradeDirection(req.Direction),
		Amount:       req.Amount,
		CardCode:     req.CardCode,
		CardPin:      req.CardPin,
		CardImageURL: req.CardImageURL,
	})
	if err != nil {
		log.Warn("gift card trade creation failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/transactions/%s", t.ID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	t, err := h.transactions.GetForUser(r.Context(), transactionID, userID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction lookup failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)
	filter := repository.TransactionFilter{
		UserID: &userID,
		Limit:  limit,
		Offset: offset,
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

func (h *TransactionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	t, err := h.transactions.Cancel(r.Context(), transactionID, userID)
	if err != nil {
		logging.FromContext(r.Context()).Warn("transaction cancel failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toTransactionDTO(t))
}
