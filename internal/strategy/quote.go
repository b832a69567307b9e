package strategy

import (
	"github.com/shopspring/decimal"

	"lbot/internal/domain"
)

var (
	two     = decimal.NewFromInt(2)
	quarter = decimal.NewFromFloat(0.25)
	half    = decimal.NewFromFloat(0.5)
)

// QuoteParams are the account-wide quoting knobs, fixed at startup.
type QuoteParams struct {
	Utilization       decimal.Decimal // fraction of the wallet put to work
	MinAmountFraction decimal.Decimal // minimum fill as a fraction of the amount
	MinTradeUSD       decimal.Decimal // below this wallet value a side is skipped

	// DiscoverySymbol is a token with an administratively fixed USD
	// valuation band used while it has no external market: sells are
	// valued and priced at the ask floor, buys at the bid ceiling.
	DiscoverySymbol string
	AskFloorUSD     decimal.Decimal
	BidCeilingUSD   decimal.Decimal

	// Indivisible tokens trade in whole units; amounts are floored.
	Indivisible map[string]bool
}

// MarketInputs is everything the engine needs to quote one market for one
// cycle: configuration, the fresh book snapshot, reference prices (already
// clamped away from zero) and wallet balances.
type MarketInputs struct {
	Pair          string
	TradeSymbol   string
	BaseSymbol    string
	DesiredSpread decimal.Decimal
	Book          domain.BookSnapshot
	TradeUSD      decimal.Decimal
	BaseUSD       decimal.Decimal
	Balances      domain.Balances
	SellCount     int
	BuyCount      int
}

// QuoteEngine computes target maker orders from book state, balances and
// configuration. It is pure: no I/O, no retained state.
type QuoteEngine struct {
	params QuoteParams
}

// NewQuoteEngine creates an engine with the given account parameters.
func NewQuoteEngine(params QuoteParams) *QuoteEngine {
	return &QuoteEngine{params: params}
}

// SellOrders returns the sell quotes to submit this cycle, in submission
// order. Empty when the side already has two resting orders or the wallet
// is too small to justify a trade.
func (e *QuoteEngine) SellOrders(in MarketInputs) []domain.MakerOrder {
	if in.SellCount >= 2 {
		return nil
	}

	walletValue := in.TradeUSD.Mul(in.Balances.Trade)
	if in.TradeSymbol == e.params.DiscoverySymbol {
		// The discovery token is valued at its ask floor, not the
		// reference price it does not yet have.
		walletValue = e.params.AskFloorUSD.Mul(in.Balances.Trade)
	}
	if !walletValue.Mul(e.params.Utilization).GreaterThan(e.params.MinTradeUSD) {
		return nil
	}

	spread, hasSpread := in.Book.Spread()
	var price decimal.Decimal
	switch {
	case hasSpread && spread.GreaterThan(in.DesiredSpread):
		// Wide book: quote near the middle of the ask side rather
		// than narrowing the spread.
		if in.Book.BestAsk.Equal(in.Book.WorstAsk) {
			price = in.Book.WorstAsk.Add(in.Book.WorstAsk.Mul(quarter))
		} else {
			price = in.Book.WorstAsk.Add(in.Book.BestAsk).Div(two)
		}
	case hasSpread && spread.Sign() >= 0:
		// Tight book: quote at exactly the desired spread from the
		// best bid.
		price = in.Book.BestBid.Add(in.Book.BestBid.Mul(in.DesiredSpread))
	default:
		// Price discovery: no usable two-sided book.
		price = in.TradeUSD.Div(in.BaseUSD).Round(8)
		if in.TradeSymbol == e.params.DiscoverySymbol {
			price = e.params.AskFloorUSD.Div(in.BaseUSD).Round(8)
		} else {
			price = price.Add(price.Mul(in.DesiredSpread.Div(two)))
		}
	}
	price = price.Round(8)

	amount := in.Balances.Trade.Mul(e.params.Utilization)
	minAmount := amount.Mul(e.params.MinAmountFraction)
	if e.params.Indivisible[in.TradeSymbol] {
		amount = amount.Floor()
		minAmount = minAmount.Floor()
	}
	orders := []domain.MakerOrder{{
		Side:      domain.SideSell,
		Price:     price,
		Amount:    amount,
		MinAmount: minAmount,
	}}

	if in.SellCount == 0 {
		// Empty side: seed a second level further from the book at
		// half the remaining size.
		price2 := price.Add(price.Mul(half)).Round(8)
		amount2 := amount.Sub(amount.Mul(half))
		minAmount2 := amount2.Mul(e.params.MinAmountFraction)
		if e.params.Indivisible[in.TradeSymbol] {
			amount2 = amount2.Floor()
			minAmount2 = minAmount2.Floor()
		}
		orders = append(orders, domain.MakerOrder{
			Side:      domain.SideSell,
			Price:     price2,
			Amount:    amount2,
			MinAmount: minAmount2,
		})
	}
	return orders
}

// BuyOrders returns the buy quotes to submit this cycle, in submission
// order. The base-leg wallet value is converted into trade-leg quantity at
// the target price.
func (e *QuoteEngine) BuyOrders(in MarketInputs) []domain.MakerOrder {
	if in.BuyCount >= 2 {
		return nil
	}

	walletValue := in.BaseUSD.Mul(in.Balances.Base)
	if in.BaseSymbol == e.params.DiscoverySymbol {
		walletValue = e.params.BidCeilingUSD.Mul(in.Balances.Base)
	}
	if !walletValue.Mul(e.params.Utilization).GreaterThan(e.params.MinTradeUSD) {
		return nil
	}

	spread, hasSpread := in.Book.Spread()
	var price decimal.Decimal
	switch {
	case hasSpread && spread.GreaterThan(in.DesiredSpread):
		if in.Book.BestBid.Equal(in.Book.WorstBid) {
			price = in.Book.WorstBid.Sub(in.Book.WorstBid.Mul(quarter))
		} else {
			price = in.Book.BestBid.Add(in.Book.WorstBid).Div(two)
		}
	case hasSpread && spread.Sign() >= 0:
		price = in.Book.BestAsk.Sub(in.Book.BestAsk.Mul(in.DesiredSpread))
	default:
		price = in.TradeUSD.Div(in.BaseUSD).Round(8)
		if in.TradeSymbol == e.params.DiscoverySymbol {
			price = e.params.BidCeilingUSD.Div(in.BaseUSD).Round(8)
		} else {
			price = price.Sub(price.Mul(in.DesiredSpread.Div(two)))
		}
	}
	price = price.Round(8)
	if price.Sign() <= 0 {
		// A vanishing target price cannot size a buy.
		return nil
	}

	baseAmount := in.Balances.Base.Mul(e.params.Utilization)
	amount := baseAmount.Div(price).Round(8)
	minAmount := amount.Mul(e.params.MinAmountFraction)
	if e.params.Indivisible[in.TradeSymbol] {
		amount = amount.Floor()
		minAmount = minAmount.Floor()
	}
	orders := []domain.MakerOrder{{
		Side:      domain.SideBuy,
		Price:     price,
		Amount:    amount,
		MinAmount: minAmount,
	}}

	if in.BuyCount == 0 {
		price2 := price.Sub(price.Mul(half)).Round(8)
		amount2 := amount.Sub(amount.Mul(half))
		minAmount2 := amount2.Mul(e.params.MinAmountFraction)
		if e.params.Indivisible[in.TradeSymbol] {
			amount2 = amount2.Floor()
			minAmount2 = minAmount2.Floor()
		}
		orders = append(orders, domain.MakerOrder{
			Side:      domain.SideBuy,
			Price:     price2,
			Amount:    amount2,
			MinAmount: minAmount2,
		})
	}
	return orders
}
