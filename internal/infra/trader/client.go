package trader

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

	"lbot/internal/domain"
	"lbot/internal/infra"
)

// Client talks to the localhost NebliDex Trader server. Every operation is
// a query-string request answered with a JSON envelope; status code 1 means
// success.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	logger       *slog.Logger
	pingTimeout  time.Duration
	queryTimeout time.Duration
	orderTimeout time.Duration
}

// NewClient creates a Trader API client from configuration.
func NewClient(cfg *infra.Config) *Client {
	return &Client{
		baseURL: cfg.API.Trader.BaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		logger:       slog.Default().With("module", "trader_client"),
		pingTimeout:  secondsOr(cfg.API.Trader.PingTimeoutSec, 3),
		queryTimeout: secondsOr(cfg.API.Trader.QueryTimeoutSec, 10),
		orderTimeout: secondsOr(cfg.API.Trader.OrderTimeoutSec, 10),
	}
}

func secondsOr(sec, fallback int) time.Duration {
	if sec <= 0 {
		sec = fallback
	}
	return time.Duration(sec) * time.Second
}

// Ping probes the Trader API. The server answers result "Pong".
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{"request": {"ping"}}
	env, err := c.doRequest(ctx, "ping", params, c.pingTimeout)
	if err != nil {
		return err
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil || result != "Pong" {
		return &domain.GatewayError{Op: "ping", Err: domain.ErrBadResponse}
	}
	return nil
}

// ChangeMarket asks the server to switch its active market context. The
// switch may complete asynchronously; confirm with CurrentMarket.
func (c *Client) ChangeMarket(ctx context.Context, pair string) error {
	params := url.Values{"request": {"changeMarket"}, "desiredMarket": {pair}}
	env, err := c.doRequest(ctx, "changeMarket", params, c.pingTimeout)
	if err != nil {
		return err
	}
	if env.status() != statusSuccess {
		return &domain.GatewayError{
			Op:  "changeMarket",
			Err: fmt.Errorf("%w: status %s", domain.ErrBadResponse, env.Code),
		}
	}
	return nil
}

// CurrentMarket returns the server's active market pair. While a switch is
// in flight the server reports "Loading Market".
func (c *Client) CurrentMarket(ctx context.Context) (string, error) {
	params := url.Values{"request": {"currentMarket"}}
	env, err := c.doRequest(ctx, "currentMarket", params, c.pingTimeout)
	if err != nil {
		return "", err
	}
	var result string
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return "", &domain.GatewayError{Op: "currentMarket", Err: domain.ErrBadResponse}
	}
	return result, nil
}

// OpenOrders lists every open order the bot holds across all markets.
func (c *Client) OpenOrders(ctx context.Context) ([]domain.OwnOrder, error) {
	params := url.Values{"request": {"myOpenOrders"}}
	env, err := c.doRequest(ctx, "myOpenOrders", params, c.queryTimeout)
	if err != nil {
		return nil, err
	}
	if env.status() != statusSuccess {
		return nil, &domain.GatewayError{
			Op:  "myOpenOrders",
			Err: fmt.Errorf("%w: status %s", domain.ErrBadResponse, env.Code),
		}
	}
	var entries []openOrderEntry
	if err := json.Unmarshal(env.Result, &entries); err != nil {
		return nil, &domain.GatewayError{Op: "myOpenOrders", Err: err}
	}
	orders := make([]domain.OwnOrder, 0, len(entries))
	for _, e := range entries {
		orders = append(orders, domain.OwnOrder{
			Pair: e.Market,
			ID:   e.OrderID,
			Side: domain.SideFromOrderType(e.OrderType),
		})
	}
	return orders, nil
}

// MarketDepth returns the visible book of the active market. The server
// lists asks highest-first and bids highest-first, so the best ask is the
// last ask entry and the best bid is the first bid entry.
func (c *Client) MarketDepth(ctx context.Context) (domain.BookSnapshot, error) {
	params := url.Values{"request": {"marketDepth"}}
	env, err := c.doRequest(ctx, "marketDepth", params, c.queryTimeout)
	if err != nil {
		return domain.BookSnapshot{}, err
	}
	if env.status() != statusSuccess {
		return domain.BookSnapshot{}, &domain.GatewayError{
			Op:  "marketDepth",
			Err: fmt.Errorf("%w: status %s", domain.ErrBadResponse, env.Code),
		}
	}
	var depth depthResult
	if err := json.Unmarshal(env.Result, &depth); err != nil {
		return domain.BookSnapshot{}, &domain.GatewayError{Op: "marketDepth", Err: err}
	}

	var book domain.BookSnapshot
	if n := len(depth.Asks); n > 0 {
		book.HasAsks = true
		book.WorstAsk = depth.Asks[0].Price
		book.BestAsk = depth.Asks[n-1].Price
	}
	if n := len(depth.Bids); n > 0 {
		book.HasBids = true
		book.BestBid = depth.Bids[0].Price
		book.WorstBid = depth.Bids[n-1].Price
	}
	return book, nil
}

// WalletBalance returns the balance for symbol. A wallet reported as not
// available counts as zero, not as an error.
func (c *Client) WalletBalance(ctx context.Context, symbol string) (decimal.Decimal, error) {
	params := url.Values{"request": {"walletDetails"}, "coin": {symbol}}
	env, err := c.doRequest(ctx, "walletDetails", params, c.pingTimeout)
	if err != nil {
		return decimal.Decimal{}, err
	}
	var wallet walletResult
	if err := json.Unmarshal(env.Result, &wallet); err != nil {
		return decimal.Decimal{}, &domain.GatewayError{Op: "walletDetails", Err: err}
	}
	if wallet.Balance == nil || wallet.Status == walletUnavailable {
		return decimal.Zero, nil
	}
	return *wallet.Balance, nil
}

// PostMakerOrder submits one maker order. Status 13 surfaces as
// ErrApprovalPending so the submitter can wait for the on-chain approval;
// any other non-success status is ErrOrderRejected. Both carry the raw
// response for diagnosis.
func (c *Client) PostMakerOrder(ctx context.Context, order domain.MakerOrder) error {
	params := url.Values{
		"request":      {"postMakerOrder"},
		"orderType":    {order.Side},
		"price":        {order.Price.String()},
		"amount":       {order.Amount.String()},
		"minAmount":    {order.MinAmount.String()},
		"approveERC20": {"true"},
	}
	env, err := c.doRequest(ctx, "postMakerOrder", params, c.orderTimeout)
	if err != nil {
		return err
	}
	switch env.status() {
	case statusSuccess:
		return nil
	case statusApprovalPending:
		return &domain.GatewayError{
			Op:  "postMakerOrder",
			Err: fmt.Errorf("%w: status %s result %s", domain.ErrApprovalPending, env.Code, env.Result),
		}
	default:
		return &domain.GatewayError{
			Op:  "postMakerOrder",
			Err: fmt.Errorf("%w: status %s result %s", domain.ErrOrderRejected, env.Code, env.Result),
		}
	}
}

// CancelOrder cancels one of the bot's orders by exchange identifier.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	params := url.Values{"request": {"cancelOrder"}, "orderID": {orderID}}
	env, err := c.doRequest(ctx, "cancelOrder", params, c.pingTimeout)
	if err != nil {
		return err
	}
	if env.status() != statusSuccess {
		return &domain.GatewayError{
			Op:  "cancelOrder",
			Err: fmt.Errorf("%w: status %s", domain.ErrBadResponse, env.Code),
		}
	}
	return nil
}

// doRequest performs one query-string GET with a per-call timeout. A timed
// out call is terminal: the caller aborts its cycle instead of retrying.
func (c *Client) doRequest(ctx context.Context, op string, params url.Values, timeout time.Duration) (envelope, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return envelope{}, &domain.GatewayError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			timedOut = true
		}
		if timedOut {
			c.logger.Warn("trader call timed out", "op", op)
		}
		return envelope{}, &domain.GatewayError{Op: op, Err: err, Timeout: timedOut}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, &domain.GatewayError{Op: op, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return envelope{}, &domain.GatewayError{
			Op:  op,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body),
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, &domain.GatewayError{Op: op, Err: fmt.Errorf("%w: %s", domain.ErrBadResponse, body)}
	}
	return env, nil
}
