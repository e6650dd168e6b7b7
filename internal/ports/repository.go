package ports

import (
	"context"
	"time"

	"cryptoSpotBot/internal/domain"
)

// JournalSummary aggregates persisted trade history, used to seed in-memory
// counters on startup.
type JournalSummary struct {
	LifetimeTrades int
	LifetimeWins   int
	LifetimeLosses int
	TotalPnL       float64
}

// TradeJournal persists an audit trail of filled orders. Persistence is an
// optional collaborator: the engine functions fully in-memory without one.
type TradeJournal interface {
	// RecordTrade saves a fill and returns its assigned ID.
	RecordTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// RecentTrades retrieves the most recent trades, newest first.
	RecentTrades(ctx context.Context, limit int) ([]*domain.Trade, error)
	// CountSince counts trades executed at or after the given time.
	CountSince(ctx context.Context, since time.Time) (int, error)
	// Summary aggregates lifetime counters over all persisted trades.
	Summary(ctx context.Context) (*JournalSummary, error)
	// Close releases the underlying store.
	Close() error
}
