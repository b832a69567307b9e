package app

import (
	"log/slog"

	"lbot/internal/infra"
	"lbot/internal/infra/coingecko"
	"lbot/internal/infra/storage"
	"lbot/internal/infra/trader"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
	Gateway *trader.Client
	Oracle  *coingecko.Client
}

// NewBootstrap creates a new Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads configuration, installs the logger and opens the audit
// store and API clients.
func (b *Bootstrap) Initialize(configPath string) error {
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	slog.Info("-------------------------------")
	slog.Info("running new instance of the liquidity bot",
		"app", cfg.App.Name, "version", cfg.App.Version)

	store, err := storage.NewStorage("data/lbot.db")
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("audit database initialized")

	b.Gateway = trader.NewClient(cfg)
	b.Oracle = coingecko.NewClient(cfg)

	return nil
}
