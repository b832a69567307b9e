package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Market is one configured trading pair plus the reference-price baseline
// remembered from the last cycle that evaluated it. The baseline fields are
// the only mutable state and are written exclusively by that market's own
// evaluation cycle.
type Market struct {
	Pair          string          // e.g. "NDEX/NEBL"
	DesiredSpread decimal.Decimal // fractional, 0.1 = 10%
	TradeGeckoID  string          // CoinGecko ID of the trade leg
	BaseGeckoID   string          // CoinGecko ID of the base leg

	// Baseline USD prices from the last scan. Negative until the first
	// successful price fetch.
	TradeUSD decimal.Decimal
	BaseUSD  decimal.Decimal
}

// NewMarket creates a market with an unset price baseline.
func NewMarket(pair string, spread decimal.Decimal, tradeGeckoID, baseGeckoID string) *Market {
	return &Market{
		Pair:          strings.ToUpper(pair),
		DesiredSpread: spread,
		TradeGeckoID:  tradeGeckoID,
		BaseGeckoID:   baseGeckoID,
		TradeUSD:      decimal.NewFromInt(-1),
		BaseUSD:       decimal.NewFromInt(-1),
	}
}

// TradeSymbol returns the leg being sold, e.g. "NDEX" for NDEX/NEBL.
func (m *Market) TradeSymbol() string {
	trade, _, _ := strings.Cut(m.Pair, "/")
	return trade
}

// BaseSymbol returns the leg paid with, e.g. "NEBL" for NDEX/NEBL.
func (m *Market) BaseSymbol() string {
	_, base, _ := strings.Cut(m.Pair, "/")
	return base
}

// Baselined reports whether a reference-price baseline has been stored.
func (m *Market) Baselined() bool {
	return m.TradeUSD.Sign() >= 0 && m.BaseUSD.Sign() >= 0
}

// BookSnapshot is the visible depth of the active market at one instant.
// Best ask is the lowest resting ask, best bid the highest resting bid.
// A side with no resting orders is absent. Recomputed every cycle.
type BookSnapshot struct {
	BestAsk  decimal.Decimal
	WorstAsk decimal.Decimal
	BestBid  decimal.Decimal
	WorstBid decimal.Decimal
	HasAsks  bool
	HasBids  bool
}

// TwoSided reports whether both book sides have resting orders.
func (b BookSnapshot) TwoSided() bool {
	return b.HasAsks && b.HasBids
}

// Spread returns (bestAsk - bestBid) / bestBid. The second return is false
// when the book is not two-sided and no spread is defined.
func (b BookSnapshot) Spread() (decimal.Decimal, bool) {
	if !b.TwoSided() || b.BestBid.IsZero() {
		return decimal.Decimal{}, false
	}
	return b.BestAsk.Sub(b.BestBid).Div(b.BestBid), true
}
