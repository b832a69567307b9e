package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// ExchangeGateway abstracts the Trader API. Success is signalled by a nil
// error; non-success status codes surface as errors (ErrApprovalPending for
// the pending on-chain approval status).
type ExchangeGateway interface {
	Ping(ctx context.Context) error
	ChangeMarket(ctx context.Context, pair string) error
	CurrentMarket(ctx context.Context) (string, error)
	OpenOrders(ctx context.Context) ([]OwnOrder, error)
	MarketDepth(ctx context.Context) (BookSnapshot, error)
	WalletBalance(ctx context.Context, symbol string) (decimal.Decimal, error)
	PostMakerOrder(ctx context.Context, order MakerOrder) error
	CancelOrder(ctx context.Context, orderID string) error
}

// PriceOracle provides current USD reference prices by identifier.
type PriceOracle interface {
	USDPrice(ctx context.Context, id string) (decimal.Decimal, error)
}

// AuditStore records what the bot did for later inspection. Write failures
// must never interrupt a cycle.
type AuditStore interface {
	RecordOrder(pair string, order MakerOrder) error
	RecordEvent(pair, kind, detail string) error
}
