package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"lbot/internal/domain"
	"lbot/internal/infra"
)

// Client fetches USD reference prices from the CoinGecko simple price API.
// The free tier is aggressively rate limited, so every request first waits
// on a client-side limiter.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a CoinGecko client from configuration.
func NewClient(cfg *infra.Config) *Client {
	perMinute := cfg.API.CoinGecko.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	timeoutSec := cfg.API.CoinGecko.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 3
	}
	return &Client{
		baseURL: cfg.API.CoinGecko.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		logger:  slog.Default().With("module", "coingecko"),
	}
}

// USDPrice returns the current USD price for a CoinGecko identifier.
func (c *Client) USDPrice(ctx context.Context, id string) (decimal.Decimal, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return decimal.Decimal{}, &domain.GatewayError{Op: "usdPrice", Err: err}
	}

	params := url.Values{"ids": {id}, "vs_currencies": {"usd"}}
	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return decimal.Decimal{}, &domain.GatewayError{Op: "usdPrice", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var ne net.Error
		timedOut := errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
		if timedOut {
			c.logger.Warn("price fetch timed out", "id", id)
		}
		return decimal.Decimal{}, &domain.GatewayError{Op: "usdPrice", Err: err, Timeout: timedOut}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Decimal{}, &domain.GatewayError{Op: "usdPrice", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, &domain.GatewayError{
			Op:  "usdPrice",
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		}
	}

	// Shape: {"neblio":{"usd":0.123}}
	var quotes map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &quotes); err != nil {
		return decimal.Decimal{}, &domain.GatewayError{Op: "usdPrice", Err: fmt.Errorf("%w: %s", domain.ErrBadResponse, body)}
	}
	price, ok := quotes[id]["usd"]
	if !ok {
		return decimal.Decimal{}, &domain.GatewayError{
			Op:  "usdPrice",
			Err: fmt.Errorf("%w: no usd quote for %s", domain.ErrBadResponse, id),
		}
	}
	return price, nil
}
