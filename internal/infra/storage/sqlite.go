package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lbot/internal/domain"
)

// Storage is the sqlite audit trail: one row per submitted order and per
// notable bot event. It exists for post-mortems only; the trading logic
// never reads it back.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the audit database at path.
func NewStorage(path string) (*Storage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create DB directory: %w", err)
		}
	}

	// Pure Go sqlite
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.OrderRecord{}, &domain.BotEvent{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// RecordOrder persists one submitted maker order.
func (s *Storage) RecordOrder(pair string, order domain.MakerOrder) error {
	rec := domain.OrderRecord{
		Pair:      pair,
		Side:      order.Side,
		Price:     order.Price.String(),
		Amount:    order.Amount.String(),
		MinAmount: order.MinAmount.String(),
	}
	return s.db.Create(&rec).Error
}

// RecordEvent persists one bot event (volatility teardown, cancellation,
// aborted cycle).
func (s *Storage) RecordEvent(pair, kind, detail string) error {
	ev := domain.BotEvent{Pair: pair, Kind: kind, Detail: detail}
	return s.db.Create(&ev).Error
}

// RecentOrders returns the latest n order records, newest first.
func (s *Storage) RecentOrders(n int) ([]domain.OrderRecord, error) {
	var recs []domain.OrderRecord
	err := s.db.Order("id desc").Limit(n).Find(&recs).Error
	return recs, err
}
