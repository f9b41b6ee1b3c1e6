package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CryptoAsset is a tradable cryptocurrency with admin-managed rates in NGN
// per unit. Deactivation is a soft delete; history keeps pointing at the row.
type CryptoAsset struct {
	ID        uuid.UUID
	Name      string
	Symbol    string
	BuyRate   decimal.Decimal
	SellRate  decimal.Decimal
	LogoURL   *string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GiftCardType string

const (
	GiftCardAmazon      GiftCardType = "amazon"
	GiftCardApple       GiftCardType = "apple"
	GiftCardGooglePlay  GiftCardType = "google_play"
	GiftCardSteam       GiftCardType = "steam"
	GiftCardPlaystation GiftCardType = "playstation"
	GiftCardXbox        GiftCardType = "xbox"
	GiftCardNetflix     GiftCardType = "netflix"
	GiftCardSpotify     GiftCardType = "spotify"
	GiftCardOther       GiftCardType = "other"
)

func (t GiftCardType) IsValid() bool {
	switch t {
	case GiftCardAmazon, GiftCardApple, GiftCardGooglePlay, GiftCardSteam,
		GiftCardPlaystation, GiftCardXbox, GiftCardNetflix, GiftCardSpotify, GiftCardOther:
		return true
	default:
		return false
	}
}

type GiftCard struct {
	ID            uuid.UUID
	Name          string
	Type          GiftCardType
	BuyRate       decimal.Decimal
	SellRate      decimal.Decimal
	IconURL       *string
	Denominations []int64
	Countries     []string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RateFor returns the catalog rate applied to a trade in the given
// direction: the platform buys from the user at the buy rate and sells at
// the sell rate.
func RateFor(direction TradeDirection, buyRate, sellRate decimal.Decimal) decimal.Decimal {
	if direction == DirectionSell {
		return buyRate
	}
	return sellRate
}
