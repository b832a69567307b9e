package trader

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
	cfg.API.Trader.BaseURL = srv.URL + "/"
	cfg.API.Trader.PingTimeoutSec = 2
	cfg.API.Trader.QueryTimeoutSec = 2
	cfg.API.Trader.OrderTimeoutSec = 2
	return NewClient(cfg)
}

func TestClient_Ping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("request") != "ping" {
			t.Errorf("request param = %q, want ping", r.URL.Query().Get("request"))
		}
		fmt.Fprint(w, `{"result":"Pong"}`)
	})

	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() = %v", err)
	}
}

func TestClient_PingRejectsUnexpectedResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":"Hello"}`)
	})

	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("Ping() = nil, want error for a non-Pong answer")
	}
}

func TestClient_OpenOrdersMapsQueuedBuyToBuy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1,"result":[
			{"market":"NDEX/NEBL","orderID":"o1","orderType":"BUY"},
			{"market":"NDEX/NEBL","orderID":"o2","orderType":"QUEUED BUY"},
			{"market":"NDEX/NEBL","orderID":"o3","orderType":"SELL"},
			{"market":"NDEX/BTC","orderID":"o4","orderType":"QUEUED SELL"}
		]}`)
	})

	orders, err := c.OpenOrders(context.Background())
	if err != nil {
		t.Fatalf("OpenOrders() = %v", err)
	}
	if len(orders) != 4 {
		t.Fatalf("got %d orders, want 4", len(orders))
	}
	wantSides := []string{domain.SideBuy, domain.SideBuy, domain.SideSell, domain.SideSell}
	for i, want := range wantSides {
		if orders[i].Side != want {
			t.Errorf("order %s side = %s, want %s", orders[i].ID, orders[i].Side, want)
		}
	}
}

func TestClient_OpenOrdersRejectsBadStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":0,"result":[]}`)
	})

	if _, err := c.OpenOrders(context.Background()); err == nil {
		t.Fatal("OpenOrders() = nil, want error on non-success status")
	}
}

func TestClient_MarketDepthOrdering(t *testing.T) {
	// The Trader server lists asks highest-first and bids highest-first.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1,"result":{
			"asks":[{"price":"0.09"},{"price":"0.07"},{"price":"0.06"}],
			"bids":[{"price":"0.04"},{"price":"0.03"}]
		}}`)
	})

	book, err := c.MarketDepth(context.Background())
	if err != nil {
		t.Fatalf("MarketDepth() = %v", err)
	}
	if !book.TwoSided() {
		t.Fatal("book should be two-sided")
	}
	checks := []struct {
		name string
		got  string
		want string
	}{
		{"best ask", book.BestAsk.String(), "0.06"},
		{"worst ask", book.WorstAsk.String(), "0.09"},
		{"best bid", book.BestBid.String(), "0.04"},
		{"worst bid", book.WorstBid.String(), "0.03"},
	}
	for _, ck := range checks {
		if ck.got != ck.want {
			t.Errorf("%s = %s, want %s", ck.name, ck.got, ck.want)
		}
	}
	spread, ok := book.Spread()
	if !ok {
		t.Fatal("spread should be defined")
	}
	if spread.String() != "0.5" { // (0.06 - 0.04) / 0.04
		t.Errorf("spread = %s, want 0.5", spread)
	}
}

func TestClient_MarketDepthEmptySides(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":1,"result":{"asks":[],"bids":[]}}`)
	})

	book, err := c.MarketDepth(context.Background())
	if err != nil {
		t.Fatalf("MarketDepth() = %v", err)
	}
	if book.HasAsks || book.HasBids {
		t.Error("empty book must report both sides absent")
	}
	if _, ok := book.Spread(); ok {
		t.Error("spread must be undefined on an empty book")
	}
}

func TestClient_WalletBalance(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"available", `{"code":1,"result":{"balance":"12.5","status":"Available"}}`, "12.5"},
		{"not available is zero", `{"code":1,"result":{"balance":"12.5","status":"Not Available"}}`, "0"},
		{"missing balance is zero", `{"code":1,"result":{"status":"Available"}}`, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			})
			bal, err := c.WalletBalance(context.Background(), "NEBL")
			if err != nil {
				t.Fatalf("WalletBalance() = %v", err)
			}
			if bal.String() != tt.want {
				t.Errorf("balance = %s, want %s", bal, tt.want)
			}
		})
	}
}

func TestClient_PostMakerOrderStatuses(t *testing.T) {
	order := domain.MakerOrder{Side: domain.SideSell}

	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("approveERC20") != "true" {
				t.Error("approveERC20 must always be sent")
			}
			if q.Get("orderType") != "SELL" {
				t.Errorf("orderType = %q, want SELL", q.Get("orderType"))
			}
			fmt.Fprint(w, `{"code":1}`)
		})
		if err := c.PostMakerOrder(context.Background(), order); err != nil {
			t.Fatalf("PostMakerOrder() = %v", err)
		}
	})

	t.Run("approval pending", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":13}`)
		})
		err := c.PostMakerOrder(context.Background(), order)
		if !errors.Is(err, domain.ErrApprovalPending) {
			t.Fatalf("error = %v, want ErrApprovalPending", err)
		}
	})

	t.Run("rejected", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"code":4}`)
		})
		err := c.PostMakerOrder(context.Background(), order)
		if !errors.Is(err, domain.ErrOrderRejected) {
			t.Fatalf("error = %v, want ErrOrderRejected", err)
		}
		if errors.Is(err, domain.ErrApprovalPending) {
			t.Error("rejection must not look like a pending approval")
		}
	})
}

func TestClient_StringStatusCode(t *testing.T) {
	// Some server builds quote the status code.
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":"1"}`)
	})
	if err := c.ChangeMarket(context.Background(), "NDEX/NEBL"); err != nil {
		t.Fatalf("ChangeMarket() = %v, want quoted status accepted", err)
	}
}

func TestClient_CancelOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("orderID"); got != "o42" {
			t.Errorf("orderID = %q, want o42", got)
		}
		fmt.Fprint(w, `{"code":1}`)
	})
	if err := c.CancelOrder(context.Background(), "o42"); err != nil {
		t.Fatalf("CancelOrder() = %v", err)
	}
}
