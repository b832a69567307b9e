package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"lbot/internal/domain"
	"lbot/internal/strategy"
)

// Cycle outcomes. Aborts are ordinary "nothing to do" results; only
// OutcomeError and OutcomePanic carry an error worth alerting on.
const (
	OutcomeCompleted  = "completed"
	OutcomeActivation = "activation-timeout"
	OutcomeVolatility = "volatility-teardown"
	OutcomeOrderCap   = "order-cap"
	OutcomeError      = "error"
	OutcomePanic      = "panic"
)

// Result is what one market evaluation produced. The scheduler logs it and
// nothing else; rescheduling never depends on the outcome.
type Result struct {
	Pair    string
	Outcome string
	Err     error
}

// minRefPrice replaces a zero reference price so ratio math stays defined.
var minRefPrice = decimal.New(1, -8) // 0.00000001

// CycleConfig are the orchestration knobs of one market evaluation.
type CycleConfig struct {
	ActivationAttempts int
	ActivationWait     time.Duration
	MaxOpenOrders      int
	OrderSlotHeadroom  int
}

// Cycle evaluates a single market: activate it on the exchange, gather
// inventory, run the volatility guard, then quote and submit. All network
// calls are sequential; the cycle owns the market's baseline mutation via
// the guard.
type Cycle struct {
	gateway   domain.ExchangeGateway
	oracle    domain.PriceOracle
	guard     *strategy.VolatilityGuard
	quoter    *strategy.QuoteEngine
	submitter *Submitter
	audit     domain.AuditStore // optional
	cfg       CycleConfig
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// NewCycle wires a cycle. audit may be nil.
func NewCycle(
	gateway domain.ExchangeGateway,
	oracle domain.PriceOracle,
	guard *strategy.VolatilityGuard,
	quoter *strategy.QuoteEngine,
	submitter *Submitter,
	audit domain.AuditStore,
	cfg CycleConfig,
) *Cycle {
	if cfg.ActivationAttempts <= 0 {
		cfg.ActivationAttempts = 5
	}
	if cfg.ActivationWait <= 0 {
		cfg.ActivationWait = 10 * time.Second
	}
	return &Cycle{
		gateway:   gateway,
		oracle:    oracle,
		guard:     guard,
		quoter:    quoter,
		submitter: submitter,
		audit:     audit,
		cfg:       cfg,
		logger:    slog.Default().With("module", "cycle"),
		sleep:     sleepCtx,
	}
}

// Evaluate runs one full evaluation of mk. It never panics: unexpected
// failures come back as a Result so the scheduler keeps running.
func (c *Cycle) Evaluate(ctx context.Context, mk *domain.Market) (res Result) {
	res.Pair = mk.Pair
	defer func() {
		if r := recover(); r != nil {
			res.Outcome = OutcomePanic
			res.Err = fmt.Errorf("unexpected cycle failure: %v", r)
		}
	}()

	c.logger.Info("checking market", "pair", mk.Pair)

	if err := c.activate(ctx, mk.Pair); err != nil {
		res.Outcome = OutcomeActivation
		res.Err = err
		return res
	}

	tradeUSD, err := c.oracle.USDPrice(ctx, mk.TradeGeckoID)
	if err != nil {
		return c.abort(mk.Pair, "reference price", err)
	}
	baseUSD, err := c.oracle.USDPrice(ctx, mk.BaseGeckoID)
	if err != nil {
		return c.abort(mk.Pair, "reference price", err)
	}
	if tradeUSD.Sign() <= 0 {
		tradeUSD = minRefPrice
	}
	if baseUSD.Sign() <= 0 {
		baseUSD = minRefPrice
	}

	tradeBalance, err := c.gateway.WalletBalance(ctx, mk.TradeSymbol())
	if err != nil {
		return c.abort(mk.Pair, "wallet balance", err)
	}
	baseBalance, err := c.gateway.WalletBalance(ctx, mk.BaseSymbol())
	if err != nil {
		return c.abort(mk.Pair, "wallet balance", err)
	}

	allOrders, err := c.gateway.OpenOrders(ctx)
	if err != nil {
		return c.abort(mk.Pair, "open orders", err)
	}
	var mine []domain.OwnOrder
	buyCount, sellCount := 0, 0
	for _, o := range allOrders {
		if o.Pair != mk.Pair {
			continue
		}
		mine = append(mine, o)
		if o.Side == domain.SideBuy {
			buyCount++
		} else {
			sellCount++
		}
	}

	if c.guard.Assess(mk, tradeUSD, baseUSD) {
		c.logger.Info("reference prices moved, closing market orders", "pair", mk.Pair, "orders", len(mine))
		for _, o := range mine {
			if err := c.gateway.CancelOrder(ctx, o.ID); err != nil {
				c.logger.Warn("failed to cancel order", "pair", mk.Pair, "order_id", o.ID, "error", err)
			}
		}
		c.recordEvent(mk.Pair, "volatility-teardown",
			fmt.Sprintf("trade=%s base=%s cancelled=%d", tradeUSD, baseUSD, len(mine)))
		res.Outcome = OutcomeVolatility
		return res
	}

	// Keep headroom below the exchange-wide open-order ceiling.
	if len(allOrders) > c.cfg.MaxOpenOrders-c.cfg.OrderSlotHeadroom {
		c.logger.Info("order slots nearly exhausted, skipping quoting",
			"pair", mk.Pair, "open_orders", len(allOrders))
		res.Outcome = OutcomeOrderCap
		return res
	}

	book, err := c.gateway.MarketDepth(ctx)
	if err != nil {
		return c.abort(mk.Pair, "market depth", err)
	}

	inputs := strategy.MarketInputs{
		Pair:          mk.Pair,
		TradeSymbol:   mk.TradeSymbol(),
		BaseSymbol:    mk.BaseSymbol(),
		DesiredSpread: mk.DesiredSpread,
		Book:          book,
		TradeUSD:      tradeUSD,
		BaseUSD:       baseUSD,
		Balances:      domain.Balances{Trade: tradeBalance, Base: baseBalance},
		SellCount:     sellCount,
		BuyCount:      buyCount,
	}

	// A submission failure abandons the rest of that side only; the
	// opposite side still quotes.
	c.submitSide(ctx, mk.Pair, c.quoter.SellOrders(inputs))
	c.submitSide(ctx, mk.Pair, c.quoter.BuyOrders(inputs))

	res.Outcome = OutcomeCompleted
	return res
}

// activate switches the exchange's active market context and polls until
// the switch is confirmed or the attempt budget runs out.
func (c *Cycle) activate(ctx context.Context, pair string) error {
	if err := c.gateway.ChangeMarket(ctx, pair); err != nil {
		return err
	}
	for i := 0; i < c.cfg.ActivationAttempts; i++ {
		current, err := c.gateway.CurrentMarket(ctx)
		if err == nil && current == pair {
			return nil
		}
		c.logger.Info("waiting for market to change", "pair", pair, "current", current)
		if err := c.sleep(ctx, c.cfg.ActivationWait); err != nil {
			return err
		}
	}
	return fmt.Errorf("market %s not active within %d attempts", pair, c.cfg.ActivationAttempts)
}

func (c *Cycle) submitSide(ctx context.Context, pair string, orders []domain.MakerOrder) {
	for _, order := range orders {
		if err := c.submitter.Submit(ctx, pair, order); err != nil {
			c.logger.Warn("abandoning side for this cycle",
				"pair", pair, "side", order.Side, "error", err)
			return
		}
		c.recordOrder(pair, order)
	}
}

func (c *Cycle) abort(pair, step string, err error) Result {
	c.logger.Warn("cycle aborted", "pair", pair, "step", step, "error", err)
	return Result{Pair: pair, Outcome: OutcomeError, Err: fmt.Errorf("%s: %w", step, err)}
}

// Audit writes are best effort; a broken database never stops trading.
func (c *Cycle) recordOrder(pair string, order domain.MakerOrder) {
	if c.audit == nil {
		return
	}
	if err := c.audit.RecordOrder(pair, order); err != nil {
		c.logger.Warn("audit write failed", "pair", pair, "error", err)
	}
}

func (c *Cycle) recordEvent(pair, kind, detail string) {
	if c.audit == nil {
		return
	}
	if err := c.audit.RecordEvent(pair, kind, detail); err != nil {
		c.logger.Warn("audit write failed", "pair", pair, "error", err)
	}
}
