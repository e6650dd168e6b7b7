package ports

import (
	"context"

	"cryptoSpotBot/internal/domain"
)

// Notifier pushes human-facing event notifications (e.g. to a chat webhook).
// Implementations must be non-blocking failures: a notification error is
// logged by the caller and never fails the operation that produced it.
type Notifier interface {
	// NotifyStartup announces the engine starting with its initial equity and symbols.
	NotifyStartup(ctx context.Context, equity float64, symbols []string) error
	// NotifyTrade announces a filled order.
	NotifyTrade(ctx context.Context, trade *domain.Trade, signal *domain.Signal) error
	// NotifyClose announces a closed position with its realized P/L.
	NotifyClose(ctx context.Context, trade *domain.Trade) error
	// NotifyError announces a failure worth human attention.
	NotifyError(ctx context.Context, title, detail, symbol string) error
	// NotifyDailySummary sends the once-a-day stats digest.
	NotifyDailySummary(ctx context.Context, stats *domain.PortfolioStats, openPositions int) error
	// NotifyShutdown announces a graceful stop.
	NotifyShutdown(ctx context.Context, stats *domain.PortfolioStats) error
}
