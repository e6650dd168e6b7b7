package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/portfolio"
	"cryptoSpotBot/internal/ports"
)

// HeatEntry is one symbol's standing in the market heat ranking.
type HeatEntry struct {
	Symbol    string
	Direction domain.SignalDirection
	Strength  int
}

// Snapshot is one immutable view of the engine state. Consumers receive a
// pointer and must not mutate it; the feed never writes to a published
// snapshot again.
type Snapshot struct {
	TakenAt       time.Time
	Positions     []*domain.Position
	Stats         domain.PortfolioStats
	RecentSignals []*domain.Signal
	RecentTrades  []*domain.Trade
	MarketHeat    []HeatEntry
}

// Config controls the refresh interval and the market heat ranking.
type Config struct {
	Interval        time.Duration
	HeatMinStrength int
	HeatTopK        int
}

// Feed periodically assembles snapshots from the portfolio tracker and
// publishes them through an atomic pointer, so readers never contend with
// the analysis cycle for locks.
type Feed struct {
	cfg     Config
	logger  ports.Logger
	tracker *portfolio.Tracker

	latest atomic.Pointer[Snapshot]
}

// NewFeed creates a dashboard feed over the tracker.
func NewFeed(cfg Config, logger ports.Logger, tracker *portfolio.Tracker) (*Feed, error) {
	if logger == nil || tracker == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for dashboard feed", ports.ErrConfiguration)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("%w: dashboard interval must be positive", ports.ErrConfiguration)
	}
	if cfg.HeatTopK <= 0 {
		return nil, fmt.Errorf("%w: heat ranking size must be positive", ports.ErrConfiguration)
	}
	return &Feed{cfg: cfg, logger: logger, tracker: tracker}, nil
}

// Run refreshes the snapshot on every tick until the context is cancelled.
// An initial snapshot is published immediately so Latest never stays nil
// for a full interval after startup.
func (f *Feed) Run(ctx context.Context) {
	f.Refresh()

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info(ctx, "Dashboard feed stopped")
			return
		case <-ticker.C:
			f.Refresh()
		}
	}
}

// Refresh assembles and publishes a new snapshot.
func (f *Feed) Refresh() {
	view := f.tracker.Snapshot()
	snap := &Snapshot{
		TakenAt:       time.Now().UTC(),
		Positions:     view.Positions,
		Stats:         view.Stats,
		RecentSignals: view.Signals,
		RecentTrades:  view.Trades,
		MarketHeat:    f.rankHeat(view.Signals),
	}
	f.latest.Store(snap)
}

// Latest returns the most recently published snapshot, or nil before the
// first refresh.
func (f *Feed) Latest() *Snapshot {
	return f.latest.Load()
}

// rankHeat ranks symbols by the strength of their latest non-neutral
// signal. Signals arrive most recent first, so the first entry seen per
// symbol is its current reading.
func (f *Feed) rankHeat(signals []*domain.Signal) []HeatEntry {
	seen := make(map[string]bool, len(signals))
	entries := make([]HeatEntry, 0, f.cfg.HeatTopK)
	for _, s := range signals {
		if seen[s.Symbol] {
			continue
		}
		seen[s.Symbol] = true
		if s.Direction == domain.DirectionNeutral || s.Strength < f.cfg.HeatMinStrength {
			continue
		}
		entries = append(entries, HeatEntry{
			Symbol:    s.Symbol,
			Direction: s.Direction,
			Strength:  s.Strength,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Strength > entries[j].Strength
	})
	if len(entries) > f.cfg.HeatTopK {
		entries = entries[:f.cfg.HeatTopK]
	}
	return entries
}
