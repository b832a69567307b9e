package strategy

import (
	"github.com/shopspring/decimal"

	"lbot/internal/domain"
)

// VolatilityGuard compares each market's fresh reference prices against the
// baseline remembered from that market's previous cycle. A move beyond the
// limit on either leg means standing orders were quoted against stale
// prices and must be torn down.
type VolatilityGuard struct {
	limit decimal.Decimal // relative deviation, 0.05 = 5%
}

// NewVolatilityGuard creates a guard with the given deviation limit.
func NewVolatilityGuard(limit decimal.Decimal) *VolatilityGuard {
	return &VolatilityGuard{limit: limit}
}

// Assess records the baseline on a market's first successful price fetch
// and returns false. On later cycles it reports whether either leg deviated
// beyond the limit; when it did, the baseline is reset to the fresh prices
// so the next cycle re-quotes against them. Between events the baseline is
// left untouched.
func (g *VolatilityGuard) Assess(mk *domain.Market, tradeUSD, baseUSD decimal.Decimal) bool {
	if !mk.Baselined() {
		mk.TradeUSD = tradeUSD
		mk.BaseUSD = baseUSD
		return false
	}

	moved := g.exceeded(tradeUSD, mk.TradeUSD) || g.exceeded(baseUSD, mk.BaseUSD)
	if moved {
		mk.TradeUSD = tradeUSD
		mk.BaseUSD = baseUSD
	}
	return moved
}

func (g *VolatilityGuard) exceeded(current, baseline decimal.Decimal) bool {
	if baseline.Sign() <= 0 {
		return false
	}
	return current.Sub(baseline).Div(baseline).Abs().GreaterThan(g.limit)
}
