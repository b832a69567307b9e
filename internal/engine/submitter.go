package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lbot/internal/domain"
)

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submitter posts maker orders with a bounded retry protocol: an
// approval-pending answer means the token's on-chain allowance transaction
// is still confirming, so it waits and tries again; anything else fails the
// order outright.
type Submitter struct {
	gateway  domain.ExchangeGateway
	logger   *slog.Logger
	attempts int
	wait     time.Duration
	sleep    func(context.Context, time.Duration) error
}

// NewSubmitter creates a submitter. attempts and wait default to 5 and 30s
// when non-positive.
func NewSubmitter(gateway domain.ExchangeGateway, attempts int, wait time.Duration) *Submitter {
	if attempts <= 0 {
		attempts = 5
	}
	if wait <= 0 {
		wait = 30 * time.Second
	}
	return &Submitter{
		gateway:  gateway,
		logger:   slog.Default().With("module", "submitter"),
		attempts: attempts,
		wait:     wait,
		sleep:    sleepCtx,
	}
}

// Submit posts one maker order for pair. It returns nil on acceptance, the
// terminal gateway error on rejection, and an exhaustion error when every
// attempt came back approval-pending.
func (s *Submitter) Submit(ctx context.Context, pair string, order domain.MakerOrder) error {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		err := s.gateway.PostMakerOrder(ctx, order)
		if err == nil {
			s.logger.Info("maker order accepted",
				"pair", pair,
				"side", order.Side,
				"price", order.Price.String(),
				"amount", order.Amount.String(),
				"attempt", attempt,
			)
			return nil
		}

		// Non-success outcomes carry the full request and raw response
		// for diagnosis.
		s.logger.Warn("maker order not accepted",
			"pair", pair,
			"side", order.Side,
			"price", order.Price.String(),
			"amount", order.Amount.String(),
			"min_amount", order.MinAmount.String(),
			"attempt", attempt,
			"error", err,
		)

		if !errors.Is(err, domain.ErrApprovalPending) {
			return err
		}
		lastErr = err

		if attempt < s.attempts {
			if err := s.sleep(ctx, s.wait); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("order not accepted after %d attempts: %w", s.attempts, lastErr)
}
