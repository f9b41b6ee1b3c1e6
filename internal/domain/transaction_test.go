package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		kind TransactionKind
		from TransactionStatus
		to   TransactionStatus
		want bool
	}{
		{"pending to approved for withdrawal", KindWithdrawal, StatusPending, StatusApproved, true},
		{"pending to approved for vtu", KindVTU, StatusPending, StatusApproved, false},
		{"pending to approved for crypto", KindCrypto, StatusPending, StatusApproved, false},
		{"pending to completed", KindVTU, StatusPending, StatusCompleted, true},
		{"pending to failed", KindVTU, StatusPending, StatusFailed, true},
		{"pending to rejected", KindGiftCard, StatusPending, StatusRejected, true},
		{"pending to cancelled", KindWithdrawal, StatusPending, StatusCancelled, true},
		{"approved to completed", KindWithdrawal, StatusApproved, StatusCompleted, true},
		{"approved to rejected", KindWithdrawal, StatusApproved, StatusRejected, true},
		{"approved to failed", KindWithdrawal, StatusApproved, StatusFailed, false},
		{"approved to cancelled", KindWithdrawal, StatusApproved, StatusCancelled, false},
		{"completed is terminal", KindWithdrawal, StatusCompleted, StatusRejected, false},
		{"failed is terminal", KindVTU, StatusFailed, StatusCompleted, false},
		{"rejected is terminal", KindCrypto, StatusRejected, StatusCompleted, false},
		{"cancelled is terminal", KindGiftCard, StatusCancelled, StatusCompleted, false},
		{"pending to pending", KindWithdrawal, StatusPending, StatusPending, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.kind, tc.from, tc.to))
		})
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusRejected.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestStatusReversal(t *testing.T) {
	assert.True(t, StatusFailed.Reversal())
	assert.True(t, StatusRejected.Reversal())
	assert.True(t, StatusCancelled.Reversal())
	assert.False(t, StatusCompleted.Reversal())
	assert.False(t, StatusApproved.Reversal())
	assert.False(t, StatusPending.Reversal())
}

func TestWithdrawalFee(t *testing.T) {
	feeRate := decimal.NewFromFloat(0.02)

	tests := []struct {
		amount string
		fee    string
		total  string
	}{
		{"500.00", "10.00", "490.00"},
		{"100.00", "2.00", "98.00"},
		{"33.33", "0.67", "32.66"},
		{"0.01", "0.00", "0.01"},
		{"10000.00", "200.00", "9800.00"},
	}

	for _, tc := range tests {
		t.Run(tc.amount, func(t *testing.T) {
			fee, total := WithdrawalFee(decimal.RequireFromString(tc.amount), feeRate)
			assert.True(t, decimal.RequireFromString(tc.fee).Equal(fee), "fee: want %s got %s", tc.fee, fee)
			assert.True(t, decimal.RequireFromString(tc.total).Equal(total), "total: want %s got %s", tc.total, total)
		})
	}
}

func TestTradeTotal(t *testing.T) {
	total := TradeTotal(decimal.RequireFromString("0.5"), decimal.RequireFromString("45000000.00"))
	assert.True(t, decimal.RequireFromString("22500000.00").Equal(total))

	rounded := TradeTotal(decimal.RequireFromString("0.333"), decimal.RequireFromString("100.555"))
	assert.True(t, decimal.RequireFromString("33.48").Equal(rounded))
}

func TestCharge(t *testing.T) {
	amount := decimal.RequireFromString("100.00")
	total := decimal.RequireFromString("250.00")

	withdrawal := &Transaction{Kind: KindWithdrawal, Amount: amount, Total: decimal.RequireFromString("98.00")}
	assert.True(t, amount.Equal(withdrawal.Charge()), "withdrawal charges the face amount")

	vtuPurchase := &Transaction{Kind: KindVTU, Amount: amount, Total: amount}
	assert.True(t, amount.Equal(vtuPurchase.Charge()))

	crypto := &Transaction{Kind: KindCrypto, Amount: amount, Total: total}
	assert.True(t, total.Equal(crypto.Charge()), "trades charge the fiat total")

	giftCard := &Transaction{Kind: KindGiftCard, Amount: amount, Total: total}
	assert.True(t, total.Equal(giftCard.Charge()))
}

func TestRateFor(t *testing.T) {
	buyRate := decimal.RequireFromString("1500.00")
	sellRate := decimal.RequireFromString("1600.00")

	assert.True(t, buyRate.Equal(RateFor(DirectionSell, buyRate, sellRate)), "platform buys from the user at the buy rate")
	assert.True(t, sellRate.Equal(RateFor(DirectionBuy, buyRate, sellRate)), "platform sells to the user at the sell rate")
}

func TestEventForStatus(t *testing.T) {
	assert.Equal(t, EventApproved, EventForStatus(StatusApproved))
	assert.Equal(t, EventCompleted, EventForStatus(StatusCompleted))
	assert.Equal(t, EventFailed, EventForStatus(StatusFailed))
	assert.Equal(t, EventRejected, EventForStatus(StatusRejected))
	assert.Equal(t, EventCancelled, EventForStatus(StatusCancelled))
	assert.Equal(t, EventCreated, EventForStatus(StatusPending))
}
