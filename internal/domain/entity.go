package domain

import "time"

// OrderRecord is the persisted audit row for one submitted maker order.
type OrderRecord struct {
	ID        uint `gorm:"primaryKey"`
	Pair      string
	Side      string
	Price     string
	Amount    string
	MinAmount string
	CreatedAt time.Time
}

// BotEvent is the persisted audit row for a non-order event (volatility
// teardown, cancellation, aborted cycle).
type BotEvent struct {
	ID        uint `gorm:"primaryKey"`
	Pair      string
	Kind      string
	Detail    string
	CreatedAt time.Time
}
