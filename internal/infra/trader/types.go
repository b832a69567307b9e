package trader

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Trader API status codes.
const (
	statusSuccess         = 1
	statusApprovalPending = 13 // ERC-20 approval transaction broadcast, not yet confirmed
)

// envelope is the common Trader API response shape. The status code is
// numeric but some server builds emit it as a quoted string, so it is
// decoded leniently.
type envelope struct {
	Code   json.Number     `json:"code"`
	Result json.RawMessage `json:"result"`
}

func (e envelope) status() int {
	code, err := e.Code.Int64()
	if err != nil {
		return 0
	}
	return int(code)
}

type openOrderEntry struct {
	Market    string `json:"market"`
	OrderID   string `json:"orderID"`
	OrderType string `json:"orderType"` // BUY, QUEUED BUY, SELL, QUEUED SELL
}

type depthEntry struct {
	Price decimal.Decimal `json:"price"`
}

type depthResult struct {
	Asks []depthEntry `json:"asks"`
	Bids []depthEntry `json:"bids"`
}

type walletResult struct {
	Balance *decimal.Decimal `json:"balance"`
	Status  string           `json:"status"`
}

// walletUnavailable is the status the Trader API reports while a wallet is
// syncing; the balance is then treated as zero rather than an error.
const walletUnavailable = "Not Available"
