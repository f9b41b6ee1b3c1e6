package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cardbillhq/cardbill-api/internal/domain"
	"github.com/cardbillhq/cardbill-api/internal/logging"
	"github.com/cardbillhq/cardbill-api/internal/observability"
)

const maxReferenceAttempts = 3

type WithdrawalRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         domain.WithdrawalMethod
	AccountDetails string
}

type VTUPurchaseRequest struct {
	UserID      uuid.UUID
	Amount      decimal.Decimal
	ServiceType domain.VTUServiceType
	Provider    string
	Recipient   string
}

type CryptoTradeRequest struct {
	UserID        uuid.UUID
	AssetID       uuid.UUID
	Direction     domain.TradeDirection
	Amount        decimal.Decimal
	WalletAddress string
}

type GiftCardTradeRequest struct {
	UserID       uuid.UUID
	GiftCardID   uuid.UUID
	Direction    domain.TradeDirection
	Amount       decimal.Decimal
	CardCode     *string
	CardPin      *string
	CardImageURL *string
}

func (s *Service) CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*domain.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateWithdrawal: %w", domain.ErrInvalidAmount)
	}
	if !req.Method.IsValid() {
		return nil, fmt.Errorf("CreateWithdrawal: method: %w", domain.ErrInvalidRequest)
	}
	if req.AccountDetails == "" {
		return nil, fmt.Errorf("CreateWithdrawal: account details: %w", domain.ErrInvalidRequest)
	}

	fee, total := domain.WithdrawalFee(req.Amount, s.feeRate)
	method := req.Method
	details := req.AccountDetails
	t := &domain.Transaction{
		UserID:         req.UserID,
		Kind:           domain.KindWithdrawal,
		Amount:         req.Amount,
		Fee:            fee,
		Total:          total,
		Method:         &method,
		AccountDetails: &details,
	}

	if err := s.create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateWithdrawal: %w", err)
	}
	return t, nil
}

func (s *Service) CreateVTUPurchase(ctx context.Context, req VTUPurchaseRequest) (*domain.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateVTUPurchase: %w", domain.ErrInvalidAmount)
	}
	if !req.ServiceType.IsValid() {
		return nil, fmt.Errorf("CreateVTUPurchase: service type: %w", domain.ErrInvalidRequest)
	}
	if req.Provider == "" || req.Recipient == "" {
		return nil, fmt.Errorf("CreateVTUPurchase: provider and recipient required: %w", domain.ErrInvalidRequest)
	}

	serviceType := req.ServiceType
	provider := req.Provider
	recipient := req.Recipient
	t := &domain.Transaction{
		UserID:      req.UserID,
		Kind:        domain.KindVTU,
		Amount:      req.Amount,
		Fee:         decimal.Zero,
		Total:       req.Amount,
		ServiceType: &serviceType,
		Provider:    &provider,
		Recipient:   &recipient,
	}

	if err := s.create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateVTUPurchase: %w", err)
	}
	return t, nil
}

func (s *Service) CreateCryptoTrade(ctx context.Context, req CryptoTradeRequest) (*domain.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateCryptoTrade: %w", domain.ErrInvalidAmount)
	}
	if !req.Direction.IsValid() {
		return nil, fmt.Errorf("CreateCryptoTrade: direction: %w", domain.ErrInvalidRequest)
	}
	if req.WalletAddress == "" {
		return nil, fmt.Errorf("CreateCryptoTrade: wallet address: %w", domain.ErrInvalidRequest)
	}

	asset, err := s.assets.GetByID(ctx, req.AssetID)
	if err != nil {
		return nil, fmt.Errorf("CreateCryptoTrade: %w", err)
	}
	if !asset.IsActive {
		return nil, fmt.Errorf("CreateCryptoTrade: %w", domain.ErrAssetInactive)
	}

	// The rate is frozen into the record at creation so later catalog edits
	// do not change what the user was charged.
	rate := domain.RateFor(req.Direction, asset.BuyRate, asset.SellRate)
	direction := req.Direction
	wallet := req.WalletAddress
	assetID := req.AssetID
	t := &domain.Transaction{
		UserID:        req.UserID,
		Kind:          domain.KindCrypto,
		Amount:        req.Amount,
		Fee:           decimal.Zero,
		Total:         domain.TradeTotal(req.Amount, rate),
		AssetID:       &assetID,
		Direction:     &direction,
		Rate:          &rate,
		WalletAddress: &wallet,
	}

	if err := s.create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateCryptoTrade: %w", err)
	}
	return t, nil
}

func (s *Service) CreateGiftCardTrade(ctx context.Context, req GiftCardTradeRequest) (*domain.Transaction, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("CreateGiftCardTrade: %w", domain.ErrInvalidAmount)
	}
	if !req.Direction.IsValid() {
		return nil, fmt.Errorf("CreateGiftCardTrade: direction: %w", domain.ErrInvalidRequest)
	}
	if req.Direction == domain.DirectionSell && req.CardCode == nil && req.CardImageURL == nil {
		return nil, fmt.Errorf("CreateGiftCardTrade: card proof required for a sale: %w", domain.ErrInvalidRequest)
	}

	card, err := s.giftCards.GetByID(ctx, req.GiftCardID)
	if err != nil {
		return nil, fmt.Errorf("CreateGiftCardTrade: %w", err)
	}
	if !card.IsActive {
		return nil, fmt.Errorf("CreateGiftCardTrade: %w", domain.ErrAssetInactive)
	}

	rate := domain.RateFor(req.Direction, card.BuyRate, card.SellRate)
	direction := req.Direction
	cardID := req.GiftCardID
	t := &domain.Transaction{
		UserID:       req.UserID,
		Kind:         domain.KindGiftCard,
		Amount:       req.Amount,
		Fee:          decimal.Zero,
		Total:        domain.TradeTotal(req.Amount, rate),
		GiftCardID:   &cardID,
		Direction:    &direction,
		Rate:         &rate,
		CardCode:     req.CardCode,
		CardPin:      req.CardPin,
		CardImageURL: req.CardImageURL,
	}

	if err := s.create(ctx, t); err != nil {
		return nil, fmt.Errorf("CreateGiftCardTrade: %w", err)
	}
	return t, nil
}

// create runs the shared creation flow: lock the wallet row, check the user
// can transact, debit the charge, and write the record, its debit ledger
// entry, audit event and notification in one database transaction. A
// reference collision aborts the whole transaction, so it retries from the
// top with a fresh reference.
func (s *Service) create(ctx context.Context, t *domain.Transaction) error {
	log := logging.FromContext(ctx)

	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		ref := NewReference()
		t.Reference = &ref

		err = s.createOnce(ctx, t)
		if err == nil {
			observability.TransactionsCreated.WithLabelValues(string(t.Kind)).Inc()
			log.Info("transaction created",
				"transaction_id", t.ID,
				"kind", t.Kind,
				"reference", ref,
				"amount", t.Amount,
				"charge", t.Charge(),
			)
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicateReference) {
			return err
		}
		log.Warn("reference collision, retrying", "reference", ref, "attempt", attempt+1)
	}
	return fmt.Errorf("create: reference retries exhausted: %w", err)
}

func (s *Service) createOnce(ctx context.Context, t *domain.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("createOnce: begin tx: %w", err)
	}
	defer tx.Rollback()

	user, err := s.users.GetForUpdate(ctx, tx, t.UserID)
	if err != nil {
		return fmt.Errorf("createOnce: %w", err)
	}
	if !user.IsActive {
		return fmt.Errorf("createOnce: %w", domain.ErrAccountInactive)
	}
	if !user.IsVerified {
		return fmt.Errorf("createOnce: %w", domain.ErrAccountUnverified)
	}

	charge := t.Charge()
	if user.Balance.LessThan(charge) {
		return fmt.Errorf("createOnce: %w", domain.ErrInsufficientFunds)
	}

	now := time.Now().UTC()
	t.ID = uuid.New()
	t.Status = domain.StatusPending
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.transactions.Create(ctx, tx, t); err != nil {
		return fmt.Errorf("createOnce: create record: %w", err)
	}

	entry := &domain.LedgerEntry{
		ID:            uuid.New(),
		TransactionID: t.ID,
		UserID:        t.UserID,
		EntryType:     domain.EntryTypeDebit,
		Amount:        charge,
		BalanceBefore: user.Balance,
		BalanceAfter:  user.Balance.Sub(charge),
		CreatedAt:     now,
	}
	if err := s.ledger.Create(ctx, tx, entry); err != nil {
		return fmt.Errorf("createOnce: ledger entry: %w", err)
	}

	if err := s.users.Debit(ctx, tx, t.UserID, charge); err != nil {
		return fmt.Errorf("createOnce: debit: %w", err)
	}

	if err := s.writeTransactionEvent(ctx, tx, t.ID, domain.EventCreated, userActor(t.UserID), nil, now); err != nil {
		return fmt.Errorf("createOnce: %w", err)
	}

	if err := s.enqueueNotification(ctx, tx, t, "transaction.created", now); err != nil {
		return fmt.Errorf("createOnce: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("createOnce: commit: %w", err)
	}
	return nil
}
