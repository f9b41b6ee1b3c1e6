package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardbillhq/cardbill-api/internal/auth"
	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/repository"
	"github.com/cardbillhq/cardbill-api/internal/service/transaction"
)

type mockTransactionService struct {
	created   *domain.Transaction
	settled   *domain.Transaction
	err       error
	settleErr error

	withdrawalReq *transaction.WithdrawalRequest
	vtuReq        *transaction.VTUPurchaseRequest
}

func (m *mockTransactionService) CreateWithdrawal(_ context.Context, req transaction.WithdrawalRequest) (*domain.Transaction, error) {
	m.withdrawalReq = &req
	return m.created, m.err
}

func (m *mockTransactionService) CreateVTUPurchase(_ context.Context, req transaction.VTUPurchaseRequest) (*domain.Transaction, error) {
	m.vtuReq = &req
	return m.created, m.err
}

func (m *mockTransactionService) CreateCryptoTrade(_ context.Context, _ transaction.CryptoTradeRequest) (*domain.Transaction, error) {
	return m.created, m.err
}

func (m *mockTransactionService) CreateGiftCardTrade(_ context.Context, _ transaction.GiftCardTradeRequest) (*domain.Transaction, error) {
	return m.created, m.err
}

func (m *mockTransactionService) SettleVTU(_ context.Context, _ uuid.UUID) (*domain.Transaction, error) {
	return m.settled, m.settleErr
}

func (m *mockTransactionService) GetForUser(_ context.Context, _, _ uuid.UUID) (*domain.Transaction, error) {
	return m.created, m.err
}

func (m *mockTransactionService) List(_ context.Context, _ repository.TransactionFilter) ([]domain.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []domain.Transaction{}, nil
}

func (m *mockTransactionService) Cancel(_ context.Context, _, _ uuid.UUID) (*domain.Transaction, error) {
	return m.created, m.err
}

func pendingWithdrawal(userID uuid.UUID) *domain.Transaction {
	ref := "AB12CD34EF"
	return &domain.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      domain.KindWithdrawal,
		Status:    domain.StatusPending,
		Amount:    decimal.RequireFromString("100.00"),
		Fee:       decimal.RequireFromString("2.00"),
		Total:     decimal.RequireFromString("98.00"),
		Reference: &ref,
	}
}

func authedRequest(method, target, body string, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	ctx := auth.ContextWithClaims(req.Context(), &auth.Claims{UserID: userID, Email: "user@test.com"})
	return req.WithContext(ctx)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateWithdrawal_Success(t *testing.T) {
	userID := uuid.New()
	svc := &mockTransactionService{created: pendingWithdrawal(userID)}
	h := NewTransactionHandler(svc)

	rec := httptest.NewRecorder()
	h.CreateWithdrawal(rec, authedRequest(http.MethodPost, "/api/v1/withdrawals",
		`{"amount":"100.00","method":"bank","account_details":"0123456789 / Test Bank"}`, userID))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Location"))

	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success)

	require.NotNil(t, svc.withdrawalReq)
	assert.Equal(t, userID, svc.withdrawalReq.UserID)
	assert.Equal(t, domain.MethodBank, svc.withdrawalReq.Method)
	assert.True(t, decimal.RequireFromString("100.00").Equal(svc.withdrawalReq.Amount))
}

func TestCreateWithdrawal_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero amount", `{"amount":"0","method":"bank","account_details":"0123"}`},
		{"negative amount", `{"amount":"-5","method":"bank","account_details":"0123"}`},
		{"unknown method", `{"amount":"100","method":"cheque","account_details":"0123"}`},
		{"missing details", `{"amount":"100","method":"bank"}`},
		{"malformed json", `{"amount":`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockTransactionService{}
			h := NewTransactionHandler(svc)

			rec := httptest.NewRecorder()
			h.CreateWithdrawal(rec, authedRequest(http.MethodPost, "/api/v1/withdrawals", tc.body, uuid.New()))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, svc.withdrawalReq, "service must not be called")
		})
	}
}

func TestCreateWithdrawal_NoClaims(t *testing.T) {
	h := NewTransactionHandler(&mockTransactionService{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals",
		strings.NewReader(`{"amount":"100","method":"bank","account_details":"0123"}`))
	h.CreateWithdrawal(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateWithdrawal_InsufficientFunds(t *testing.T) {
	svc := &mockTransactionService{err: domain.ErrInsufficientFunds}
	h := NewTransactionHandler(svc)

	rec := httptest.NewRecorder()
	h.CreateWithdrawal(rec, authedRequest(http.MethodPost, "/api/v1/withdrawals",
		`{"amount":"100.00","method":"bank","account_details":"0123456789"}`, uuid.New()))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INSUFFICIENT_FUNDS", resp.Error.Code)
}

func TestCreateVTU_SettlementFailureStillReturnsRecord(t *testing.T) {
	userID := uuid.New()
	created := pendingWithdrawal(userID)
	created.Kind = domain.KindVTU
	svc := &mockTransactionService{
		created:   created,
		settleErr: domain.ErrTransactionTerminal,
	}
	h := NewTransactionHandler(svc)

	rec := httptest.NewRecorder()
	h.CreateVTU(rec, authedRequest(http.MethodPost, "/api/v1/vtu",
		`{"amount":"50.00","service_type":"airtime","provider":"mtn","recipient":"08031234567"}`, userID))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.True(t, resp.Success, "a settlement error must not lose the created record")
}

func TestGet_InvalidID(t *testing.T) {
	h := NewTransactionHandler(&mockTransactionService{})

	rec := httptest.NewRecorder()
	req := authedRequest(http.MethodGet, "/api/v1/transactions/not-a-uuid", "", uuid.New())
	req.SetPathValue("id", "not-a-uuid")
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestList_UnknownStatus(t *testing.T) {
	h := NewTransactionHandler(&mockTransactionService{})

	rec := httptest.NewRecorder()
	h.List(rec, authedRequest(http.MethodGet, "/api/v1/transactions?status=bogus", "", uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateGiftCardTrade_SellRequiresProof(t *testing.T) {
	svc := &mockTransactionService{}
	h := NewTransactionHandler(svc)

	rec := httptest.NewRecorder()
	h.CreateGiftCardTrade(rec, authedRequest(http.MethodPost, "/api/v1/trades/giftcards",
		`{"gift_card_id":"`+uuid.NewString()+`","direction":"sell","amount":"100.00"}`, uuid.New()))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}
