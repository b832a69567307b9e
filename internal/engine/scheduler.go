package engine

import (
	"context"
	"log/slog"
	"time"

	"lbot/internal/domain"
)

// Evaluator runs one full evaluation of a market.
type Evaluator interface {
	Evaluate(ctx context.Context, mk *domain.Market) Result
}

// Scheduler drives one market evaluation per tick, round-robin over the
// configured markets. The next tick is re-armed unconditionally after every
// cycle, with the delay corrected for however long the cycle's network
// calls took, so each market is revisited on an approximately fixed
// cadence. Only the scheduler mutates the round-robin index.
type Scheduler struct {
	markets  []*domain.Market
	cycle    Evaluator
	interval time.Duration
	index    int
	logger   *slog.Logger
	now      func() time.Time
	sleep    func(context.Context, time.Duration) error
}

// NewScheduler creates a scheduler ticking every interval.
func NewScheduler(markets []*domain.Market, cycle Evaluator, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		markets:  markets,
		cycle:    cycle,
		interval: interval,
		logger:   slog.Default().With("module", "scheduler"),
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run evaluates markets until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "markets", len(s.markets), "interval", s.interval)
	for {
		delay := s.runOnce(ctx)
		if err := s.sleep(ctx, delay); err != nil {
			s.logger.Info("scheduler stopped")
			return
		}
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// runOnce evaluates the market at the current index and returns the delay
// before the next tick. The deferred block guarantees drift correction and
// index advancement regardless of how the cycle ended.
func (s *Scheduler) runOnce(ctx context.Context) (delay time.Duration) {
	started := s.now()
	mk := s.markets[s.index]

	defer func() {
		elapsed := s.now().Sub(started)
		delay = s.interval - elapsed
		if delay < 0 {
			delay = 0
		}
		s.index = (s.index + 1) % len(s.markets)
	}()

	res := s.cycle.Evaluate(ctx, mk)
	if res.Err != nil {
		s.logger.Error("market cycle failed", "pair", res.Pair, "outcome", res.Outcome, "error", res.Err)
	} else {
		s.logger.Info("finished checking market", "pair", res.Pair, "outcome", res.Outcome)
	}
	return delay
}

// Index returns the current round-robin position.
func (s *Scheduler) Index() int {
	return s.index
}
