package coingecko

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"lbot/internal/domain"
	"lbot/internal/infra"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &infra.Config{}
	cfg.API.CoinGecko.BaseURL = srv.URL
	cfg.API.CoinGecko.TimeoutSec = 2
	cfg.API.CoinGecko.RatePerMinute = 6000 // effectively unlimited for tests
	return NewClient(cfg)
}

func TestClient_USDPrice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("ids") != "neblio" {
			t.Errorf("ids = %q, want neblio", q.Get("ids"))
		}
		if q.Get("vs_currencies") != "usd" {
			t.Errorf("vs_currencies = %q, want usd", q.Get("vs_currencies"))
		}
		fmt.Fprint(w, `{"neblio":{"usd":0.1234}}`)
	})

	price, err := c.USDPrice(context.Background(), "neblio")
	if err != nil {
		t.Fatalf("USDPrice() = %v", err)
	}
	if price.String() != "0.1234" {
		t.Errorf("price = %s, want 0.1234", price)
	}
}

func TestClient_USDPriceMissingQuote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	_, err := c.USDPrice(context.Background(), "neblio")
	if !errors.Is(err, domain.ErrBadResponse) {
		t.Fatalf("error = %v, want ErrBadResponse", err)
	}
}

func TestClient_USDPriceHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := c.USDPrice(context.Background(), "neblio")
	if err == nil {
		t.Fatal("USDPrice() = nil, want error on HTTP 429")
	}
	var gwErr *domain.GatewayError
	if !errors.As(err, &gwErr) {
		t.Fatalf("error = %T, want *domain.GatewayError", err)
	}
}

func TestClient_USDPriceMalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `not json`)
	})

	_, err := c.USDPrice(context.Background(), "neblio")
	if !errors.Is(err, domain.ErrBadResponse) {
		t.Fatalf("error = %v, want ErrBadResponse", err)
	}
}

func TestClient_USDPriceRateLimiterHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"neblio":{"usd":1}}`)
	}))
	defer srv.Close()

	cfg := &infra.Config{}
	cfg.API.CoinGecko.BaseURL = srv.URL
	cfg.API.CoinGecko.TimeoutSec = 2
	cfg.API.CoinGecko.RatePerMinute = 1 // one token, then a long wait
	c := NewClient(cfg)

	if _, err := c.USDPrice(context.Background(), "neblio"); err != nil {
		t.Fatalf("first call = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.USDPrice(ctx, "neblio"); err == nil {
		t.Fatal("second call = nil, want limiter wait aborted by cancellation")
	}
}
