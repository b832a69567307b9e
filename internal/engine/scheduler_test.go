package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"lbot/internal/domain"
)

type scriptedEvaluator struct {
	visited []string
	results map[string]Result // by pair; zero value means completed
	onEval  func()            // e.g. advance the fake clock
}

func (s *scriptedEvaluator) Evaluate(ctx context.Context, mk *domain.Market) Result {
	s.visited = append(s.visited, mk.Pair)
	if s.onEval != nil {
		s.onEval()
	}
	res, ok := s.results[mk.Pair]
	if !ok {
		return Result{Pair: mk.Pair, Outcome: OutcomeCompleted}
	}
	res.Pair = mk.Pair
	return res
}

func schedulerMarkets() []*domain.Market {
	return []*domain.Market{
		domain.NewMarket("NDEX/NEBL", dec("0.1"), "neblidex", "neblio"),
		domain.NewMarket("NEBL/BTC", dec("0.1"), "neblio", "bitcoin"),
		domain.NewMarket("ETH/BTC", dec("0.1"), "ethereum", "bitcoin"),
	}
}

func TestScheduler_RoundRobinVisitsEveryMarketAndWraps(t *testing.T) {
	eval := &scriptedEvaluator{results: map[string]Result{
		// One market always fails; the rotation must not care.
		"NEBL/BTC": {Outcome: OutcomeError, Err: errors.New("boom")},
	}}
	s := NewScheduler(schedulerMarkets(), eval, time.Minute)
	s.sleep = noSleep

	for i := 0; i < 7; i++ {
		s.runOnce(context.Background())
	}

	want := []string{"NDEX/NEBL", "NEBL/BTC", "ETH/BTC", "NDEX/NEBL", "NEBL/BTC", "ETH/BTC", "NDEX/NEBL"}
	if len(eval.visited) != len(want) {
		t.Fatalf("visited %d markets, want %d", len(eval.visited), len(want))
	}
	for i, pair := range want {
		if eval.visited[i] != pair {
			t.Errorf("visit %d = %s, want %s", i, eval.visited[i], pair)
		}
	}
	if s.Index() != 1 {
		t.Errorf("index after 7 cycles = %d, want 1", s.Index())
	}
}

func TestScheduler_DelayCorrectsForCycleDuration(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	eval := &scriptedEvaluator{}
	s := NewScheduler(schedulerMarkets(), eval, time.Minute)
	s.now = func() time.Time { return now }
	eval.onEval = func() { now = now.Add(10 * time.Second) }

	if delay := s.runOnce(context.Background()); delay != 50*time.Second {
		t.Errorf("delay = %s, want 50s after a 10s cycle", delay)
	}

	// A cycle that overruns the interval reschedules immediately.
	eval.onEval = func() { now = now.Add(3 * time.Minute) }
	if delay := s.runOnce(context.Background()); delay != 0 {
		t.Errorf("delay = %s, want 0 after an overrunning cycle", delay)
	}
}

func TestScheduler_IndexAdvancesEvenWhenCyclePanics(t *testing.T) {
	eval := &panickyEvaluator{}
	s := NewScheduler(schedulerMarkets(), eval, time.Minute)
	s.sleep = noSleep

	func() {
		defer func() { recover() }()
		s.runOnce(context.Background())
	}()

	if s.Index() != 1 {
		t.Errorf("index = %d, want 1 even after a panicking cycle", s.Index())
	}
}

type panickyEvaluator struct{}

func (p *panickyEvaluator) Evaluate(ctx context.Context, mk *domain.Market) Result {
	panic("cycle blew up")
}

func TestScheduler_RunStopsOnContextCancel(t *testing.T) {
	eval := &scriptedEvaluator{}
	s := NewScheduler(schedulerMarkets(), eval, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	sleeps := 0
	s.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		if sleeps == 3 {
			cancel()
			return ctx.Err()
		}
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}
	if len(eval.visited) != 3 {
		t.Errorf("evaluated %d cycles, want 3", len(eval.visited))
	}
}
