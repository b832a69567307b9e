package infra

import (
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"lbot/internal/domain"
)

// Config holds every tunable of the bot. Loaded once at startup and treated
// as immutable afterwards.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		Trader struct {
			BaseURL         string `yaml:"base_url"`
			PingTimeoutSec  int    `yaml:"ping_timeout_sec"`
			QueryTimeoutSec int    `yaml:"query_timeout_sec"`
			OrderTimeoutSec int    `yaml:"order_timeout_sec"`
		} `yaml:"trader"`
		CoinGecko struct {
			BaseURL       string `yaml:"base_url"`
			TimeoutSec    int    `yaml:"timeout_sec"`
			RatePerMinute int    `yaml:"rate_per_minute"`
		} `yaml:"coingecko"`
	} `yaml:"api"`

	Trading struct {
		IntervalSec        int             `yaml:"interval_sec"`
		ActivationAttempts int             `yaml:"activation_attempts"`
		ActivationWaitSec  int             `yaml:"activation_wait_sec"`
		SubmitAttempts     int             `yaml:"submit_attempts"`
		ApprovalWaitSec    int             `yaml:"approval_wait_sec"`
		WalletUtilization  decimal.Decimal `yaml:"wallet_utilization"`
		MinAmountFraction  decimal.Decimal `yaml:"min_amount_fraction"`
		MinTradeUSD        decimal.Decimal `yaml:"min_trade_usd"`
		VolatilityLimit    decimal.Decimal `yaml:"volatility_limit"`

		// MaxOpenOrders is the exchange-wide open-order ceiling, an
		// exchange-specific constant (48 on NebliDex, one per market
		// side). Never derived at runtime.
		MaxOpenOrders     int `yaml:"max_open_orders"`
		OrderSlotHeadroom int `yaml:"order_slot_headroom"`

		// Discovery pins an administratively priced token that has no
		// external market yet: sells are valued at the ask floor,
		// buys at the bid ceiling.
		Discovery struct {
			Symbol        string          `yaml:"symbol"`
			AskFloorUSD   decimal.Decimal `yaml:"ask_floor_usd"`
			BidCeilingUSD decimal.Decimal `yaml:"bid_ceiling_usd"`
		} `yaml:"discovery"`

		// Indivisible lists tokens whose tradable unit cannot be
		// fractional (NTP1 tokens); amounts are floored to integers.
		Indivisible []string `yaml:"indivisible"`
	} `yaml:"trading"`

	Markets []MarketConfig `yaml:"markets"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// MarketConfig is one configured trading pair.
type MarketConfig struct {
	Pair          string          `yaml:"pair"`
	DesiredSpread decimal.Decimal `yaml:"desired_spread"`
	TradeGeckoID  string          `yaml:"trade_gecko_id"`
	BaseGeckoID   string          `yaml:"base_gecko_id"`
}

// LoadConfig reads and validates the YAML configuration, applying
// environment overrides for deployment-specific values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if c.API.Trader.BaseURL == "" {
		return fmt.Errorf("trader base URL is required")
	}
	if c.API.CoinGecko.BaseURL == "" {
		return fmt.Errorf("coingecko base URL is required")
	}
	if len(c.Markets) == 0 {
		return fmt.Errorf("at least one market is required")
	}
	for _, m := range c.Markets {
		if !strings.Contains(m.Pair, "/") {
			return fmt.Errorf("invalid market pair: %s", m.Pair)
		}
		if m.DesiredSpread.Sign() <= 0 {
			return fmt.Errorf("desired spread must be positive for %s", m.Pair)
		}
		if m.TradeGeckoID == "" || m.BaseGeckoID == "" {
			return fmt.Errorf("reference price IDs are required for %s", m.Pair)
		}
	}
	if c.Trading.IntervalSec <= 0 {
		return fmt.Errorf("trading interval must be positive")
	}
	u := c.Trading.WalletUtilization
	if u.Sign() <= 0 || u.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("wallet utilization must be in (0, 1]")
	}
	f := c.Trading.MinAmountFraction
	if f.Sign() <= 0 || f.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("min amount fraction must be in (0, 1]")
	}
	if c.Trading.MaxOpenOrders <= c.Trading.OrderSlotHeadroom {
		return fmt.Errorf("max open orders must exceed the slot headroom")
	}
	return nil
}

// BuildMarkets constructs the runtime market list from configuration.
func (c *Config) BuildMarkets() []*domain.Market {
	markets := make([]*domain.Market, 0, len(c.Markets))
	for _, m := range c.Markets {
		markets = append(markets, domain.NewMarket(m.Pair, m.DesiredSpread, m.TradeGeckoID, m.BaseGeckoID))
	}
	return markets
}

// IsIndivisible reports whether symbol trades in whole units only.
func (c *Config) IsIndivisible(symbol string) bool {
	for _, s := range c.Trading.Indivisible {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}

// overrideWithEnv applies environment overrides for values that differ per
// deployment.
func overrideWithEnv(cfg *Config) {
	if url := os.Getenv("LBOT_TRADER_URL"); url != "" {
		cfg.API.Trader.BaseURL = url
	}
	if url := os.Getenv("LBOT_COINGECKO_URL"); url != "" {
		cfg.API.CoinGecko.BaseURL = url
	}
	if dir := os.Getenv("LBOT_LOG_DIR"); dir != "" {
		cfg.Logging.Dir = dir
	}
}
