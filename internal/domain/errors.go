package domain

import "errors"

// GatewayError wraps a failed exchange or oracle call with the operation
// that produced it. Timeouts are terminal for the call; the cycle aborts
// rather than retrying in place.
type GatewayError struct {
	Op      string // e.g. "marketDepth", "walletDetails"
	Err     error
	Timeout bool
}

func (e *GatewayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err carries a gateway timeout.
func IsTimeout(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Timeout
}

var (
	// ErrApprovalPending is returned by order submission when the token's
	// on-chain approval transaction has been broadcast but not yet
	// confirmed. The submitter waits and retries on this error only.
	ErrApprovalPending = errors.New("approval transaction pending")

	// ErrOrderRejected is returned when the exchange answers an order
	// submission with any non-success, non-pending status.
	ErrOrderRejected = errors.New("order rejected")

	// ErrBadResponse is returned when a gateway response cannot be
	// interpreted.
	ErrBadResponse = errors.New("malformed gateway response")
)
