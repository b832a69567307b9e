package domain

import "github.com/shopspring/decimal"

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// OwnOrder is one of the bot's resting orders as reported by the exchange's
// open-order listing. Collected fresh each cycle, never mutated.
type OwnOrder struct {
	Pair string
	ID   string
	Side string // SideBuy or SideSell
}

// SideFromOrderType maps the exchange order-type string to a side. Queued
// orders count toward the side they will rest on.
func SideFromOrderType(orderType string) string {
	switch orderType {
	case "BUY", "QUEUED BUY":
		return SideBuy
	default:
		return SideSell
	}
}

// MakerOrder is a computed quote ready for submission.
type MakerOrder struct {
	Side      string
	Price     decimal.Decimal
	Amount    decimal.Decimal
	MinAmount decimal.Decimal
}

// Balances holds the wallet quantities of both legs of the active market,
// fetched fresh each cycle. A wallet the exchange reports as unavailable is
// represented as a zero balance.
type Balances struct {
	Trade decimal.Decimal
	Base  decimal.Decimal
}
