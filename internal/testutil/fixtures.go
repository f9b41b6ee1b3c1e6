package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardbillhq/cardbill-api/internal/domain"
)

// SeedUser inserts an active, verified user with the given wallet balance.
func SeedUser(t *testing.T, db *sql.DB, email, username string, balance decimal.Decimal) *domain.User {
	t.Helper()
	return seedUser(t, db, email, username, balance, false)
}

func SeedAdmin(t *testing.T, db *sql.DB, email, username string) *domain.User {
	t.Helper()
	return seedUser(t, db, email, username, decimal.Zero, true)
}

func seedUser(t *testing.T, db *sql.DB, email, username string, balance decimal.Decimal, isAdmin bool) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     username,
		FullName:     "Test User",
		PasswordHash: string(hash),
		Balance:      balance,
		IsAdmin:      isAdmin,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, username, full_name, password_hash, balance, is_admin, is_active, is_verified, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.Balance, u.IsAdmin, u.IsActive, u.IsVerified, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedCryptoAsset(t *testing.T, db *sql.DB, symbol string, buyRate, sellRate decimal.Decimal) *domain.CryptoAsset {
	t.Helper()

	a := &domain.CryptoAsset{
		ID:       uuid.New(),
		Name:     symbol,
		Symbol:   symbol,
		BuyRate:  buyRate,
		SellRate: sellRate,
		IsActive: true,
	}
	_, err := db.Exec(
		`INSERT INTO crypto_assets (id, name, symbol, buy_rate, sell_rate, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Name, a.Symbol, a.BuyRate, a.SellRate, a.IsActive,
	)
	if err != nil {
		t.Fatalf("seed crypto asset %s: %v", symbol, err)
	}
	return a
}

func SeedGiftCard(t *testing.T, db *sql.DB, cardType domain.GiftCardType, buyRate, sellRate decimal.Decimal) *domain.GiftCard {
	t.Helper()

	g := &domain.GiftCard{
		ID:       uuid.New(),
		Name:     string(cardType),
		Type:     cardType,
		BuyRate:  buyRate,
		SellRate: sellRate,
		IsActive: true,
	}
	_, err := db.Exec(
		`INSERT INTO gift_cards (id, name, card_type, buy_rate, sell_rate, denominations, countries, is_active)
		 VALUES ($1, $2, $3, $4, $5, '[]', '[]', $6)`,
		g.ID, g.Name, g.Type, g.BuyRate, g.SellRate, g.IsActive,
	)
	if err != nil {
		t.Fatalf("seed gift card %s: %v", cardType, err)
	}
	return g
}

func GetUserBalance(t *testing.T, db *sql.DB, userID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		t.Fatalf("get user balance %s: %v", userID, err)
	}
	return balance
}

func CountLedgerEntries(t *testing.T, db *sql.DB, transactionID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM ledger_entries WHERE transaction_id = $1`, transactionID).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for transaction %s: %v", transactionID, err)
	}
	return count
}

func GetTransactionStatus(t *testing.T, db *sql.DB, transactionID uuid.UUID) domain.TransactionStatus {
	t.Helper()

	var status domain.TransactionStatus
	err := db.QueryRow(`SELECT status FROM transactions WHERE id = $1`, transactionID).Scan(&status)
	if err != nil {
		t.Fatalf("get transaction status %s: %v", transactionID, err)
	}
	return status
}
