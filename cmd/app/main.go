package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lbot/internal/app"
	"lbot/internal/engine"
	"lbot/internal/strategy"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize("configs/config.yaml"); err != nil {
		slog.Error("bootstrapping failed", "error", err)
		os.Exit(1)
	}
	cfg := bootstrap.Config

	// The Trader server must be reachable before anything else happens.
	probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err := bootstrap.Gateway.Ping(probeCtx)
	cancel()
	if err != nil {
		slog.Error("failed to connect to Trader API", "error", err)
		os.Exit(1)
	}
	slog.Info("trader API reachable, loading the markets")

	markets := cfg.BuildMarkets()
	slog.Info("markets loaded", "count", len(markets))

	indivisible := make(map[string]bool, len(cfg.Trading.Indivisible))
	for _, sym := range cfg.Trading.Indivisible {
		indivisible[sym] = true
	}
	quoter := strategy.NewQuoteEngine(strategy.QuoteParams{
		Utilization:       cfg.Trading.WalletUtilization,
		MinAmountFraction: cfg.Trading.MinAmountFraction,
		MinTradeUSD:       cfg.Trading.MinTradeUSD,
		DiscoverySymbol:   cfg.Trading.Discovery.Symbol,
		AskFloorUSD:       cfg.Trading.Discovery.AskFloorUSD,
		BidCeilingUSD:     cfg.Trading.Discovery.BidCeilingUSD,
		Indivisible:       indivisible,
	})
	guard := strategy.NewVolatilityGuard(cfg.Trading.VolatilityLimit)
	submitter := engine.NewSubmitter(
		bootstrap.Gateway,
		cfg.Trading.SubmitAttempts,
		time.Duration(cfg.Trading.ApprovalWaitSec)*time.Second,
	)
	cycle := engine.NewCycle(
		bootstrap.Gateway,
		bootstrap.Oracle,
		guard,
		quoter,
		submitter,
		bootstrap.Storage,
		engine.CycleConfig{
			ActivationAttempts: cfg.Trading.ActivationAttempts,
			ActivationWait:     time.Duration(cfg.Trading.ActivationWaitSec) * time.Second,
			MaxOpenOrders:      cfg.Trading.MaxOpenOrders,
			OrderSlotHeadroom:  cfg.Trading.OrderSlotHeadroom,
		},
	)
	scheduler := engine.NewScheduler(markets, cycle,
		time.Duration(cfg.Trading.IntervalSec)*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Run(ctx)

	slog.Info("shutting down")
}
