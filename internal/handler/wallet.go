package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
)

type profileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
}

type WalletHandler struct {
	users profileService
}

func NewWalletHandler(users profileService) *WalletHandler {
	return &WalletHandler{users: users}
}

type ledgerEntryDTO struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	EntryType     string          `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (h *WalletHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to get profile", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toUserDTO(user))
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"balance":  user.Balance,
		"currency": "NGN",
	})
}

func (h *WalletHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)
	entries, total, err := h.users.GetLedger(r.Context(), userID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]ledgerEntryDTO, 0, len(entries))
	for _, e := range entries {
		dtos = append(dtos, ledgerEntryDTO{
			ID:            e.ID,
			TransactionID: e.TransactionID,
			EntryType:     string(e.EntryType),
			Amount:        e.Amount,
			BalanceBefore: e.BalanceBefore,
			BalanceAfter:  e.BalanceAfter,
			CreatedAt:     e.CreatedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"entries": dtos,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
