package option

import (
	"math/big"
	"time"
)

type Status uint8

const (
	StatusCreated Status = 0
	StatusSold    Status = 1
	StatusSettled Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusSold:
		return "sold"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// SettlementKind tells which of the terminal transitions settled the option
type SettlementKind uint8

const (
	SettlementNone             SettlementKind = 0
	SettlementExercised        SettlementKind = 1
	SettlementExpiredWorthless SettlementKind = 2
	SettlementAutoExercised    SettlementKind = 3
)

func (k SettlementKind) String() string {
	switch k {
	case SettlementNone:
		return "none"
	case SettlementExercised:
		return "exercised"
	case SettlementExpiredWorthless:
		return "expired_worthless"
	case SettlementAutoExercised:
		return "auto_exercised"
	default:
		return "unknown"
	}
}

type Moneyness string

const (
	MoneynessInTheMoney    Moneyness = "ITM"
	MoneynessOutOfTheMoney Moneyness = "OTM"
)

// GetMoneyness compares price with strike, at-the-money counts as in the money
func GetMoneyness(price, strike *big.Int) Moneyness {
	if price.Cmp(strike) >= 0 {
		return MoneynessInTheMoney
	}
	return MoneynessOutOfTheMoney
}

type Settlement struct {
	Kind         SettlementKind
	Price        *big.Int
	BuyerPayout  *big.Int // native value released to the buyer
	SellerPayout *big.Int // native value released to the seller, includes the strike payment
	SettledAt    time.Time
}

func (s *Settlement) Copy() *Settlement {
	if s == nil {
		return nil
	}
	return &Settlement{
		Kind:         s.Kind,
		Price:        new(big.Int).Set(s.Price),
		BuyerPayout:  new(big.Int).Set(s.BuyerPayout),
		SellerPayout: new(big.Int).Set(s.SellerPayout),
		SettledAt:    s.SettledAt,
	}
}
