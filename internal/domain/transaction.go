package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindWithdrawal TransactionKind = "withdrawal"
	KindVTU        TransactionKind = "vtu"
	KindCrypto     TransactionKind = "crypto"
	KindGiftCard   TransactionKind = "gift_card"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusApproved  TransactionStatus = "approved"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusRejected  TransactionStatus = "rejected"
	StatusCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusCompleted, StatusFailed, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

// Reversal reports whether arriving at s implies crediting the charge back.
func (s TransactionStatus) Reversal() bool {
	switch s {
	case StatusFailed, StatusRejected, StatusCancelled:
		return true
	default:
		return false
	}
}

type TradeDirection string

const (
	DirectionBuy  TradeDirection = "buy"
	DirectionSell TradeDirection = "sell"
)

func (d TradeDirection) IsValid() bool {
	return d == DirectionBuy || d == DirectionSell
}

type WithdrawalMethod string

const (
	MethodBank        WithdrawalMethod = "bank"
	MethodCrypto      WithdrawalMethod = "crypto"
	MethodMobileMoney WithdrawalMethod = "mobile_money"
)

func (m WithdrawalMethod) IsValid() bool {
	switch m {
	case MethodBank, MethodCrypto, MethodMobileMoney:
		return true
	default:
		return false
	}
}

type VTUServiceType string

const (
	ServiceAirtime     VTUServiceType = "airtime"
	ServiceData        VTUServiceType = "data"
	ServiceElectricity VTUServiceType = "electricity"
	ServiceCable       VTUServiceType = "cable"
	ServiceWater       VTUServiceType = "water"
	ServiceInternet    VTUServiceType = "internet"
)

func (t VTUServiceType) IsValid() bool {
	switch t {
	case ServiceAirtime, ServiceData, ServiceElectricity, ServiceCable, ServiceWater, ServiceInternet:
		return true
	default:
		return false
	}
}

// Transaction is the single balance-affecting record shared by all four
// kinds. Shared columns carry the lifecycle; the nullable variant fields
// carry the kind-specific payload.
type Transaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Kind             TransactionKind
	Amount           decimal.Decimal
	Fee              decimal.Decimal
	Total            decimal.Decimal
	Status           TransactionStatus
	Reference        *string
	AdminID          *uuid.UUID
	Notes            *string
	FailureReason    *string
	ProviderResponse json.RawMessage

	// withdrawal
	Method         *WithdrawalMethod
	AccountDetails *string

	// vtu
	ServiceType *VTUServiceType
	Provider    *string
	Recipient   *string

	// crypto / gift card trades
	AssetID       *uuid.UUID
	GiftCardID    *uuid.UUID
	Direction     *TradeDirection
	Rate          *decimal.Decimal
	WalletAddress *string
	CardCode      *string
	CardPin       *string
	CardImageURL  *string

	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Charge is the amount debited from the wallet at creation, and the amount
// credited back on reversal. Withdrawals and VTU purchases move the face
// amount; trades move the fiat total (amount x rate).
func (t *Transaction) Charge() decimal.Decimal {
	switch t.Kind {
	case KindCrypto, KindGiftCard:
		return t.Total
	default:
		return t.Amount
	}
}

// CanTransition is the adjudication state machine. Terminal states accept no
// transition at all; transition-to-same-status is handled by the caller as a
// no-op before consulting this table.
func CanTransition(kind TransactionKind, from, to TransactionStatus) bool {
	if from.Terminal() {
		return false
	}
	switch from {
	case StatusPending:
		if to == StatusApproved {
			return kind == KindWithdrawal
		}
		return to.Terminal()
	case StatusApproved:
		return to == StatusCompleted || to == StatusRejected
	default:
		return false
	}
}

// WithdrawalFee computes fee and net total for a withdrawal request.
// feeRate is a fraction (0.02 for 2%).
func WithdrawalFee(amount, feeRate decimal.Decimal) (fee, total decimal.Decimal) {
	fee = amount.Mul(feeRate).Round(2)
	return fee, amount.Sub(fee)
}

// TradeTotal computes the fiat value of a trade at the catalog rate.
func TradeTotal(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Round(2)
}
