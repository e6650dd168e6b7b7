package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"
)

// Tracker is the single source of truth for open positions, portfolio
// statistics and the bounded recent-activity histories. One RWMutex guards
// all state so that a snapshot reads a consistent view.
type Tracker struct {
	logger ports.Logger

	signalCap int
	tradeCap  int

	mu        sync.RWMutex
	positions map[string]*domain.Position
	stats     domain.PortfolioStats
	signals   []*domain.Signal // most recent first
	trades    []*domain.Trade  // most recent first

	now func() time.Time
}

// NewTracker creates a tracker with the given history capacities.
func NewTracker(logger ports.Logger, signalHistorySize, tradeHistorySize int) (*Tracker, error) {
	if logger == nil {
		return nil, fmt.Errorf("%w: missing logger for tracker", ports.ErrConfiguration)
	}
	if signalHistorySize <= 0 || tradeHistorySize <= 0 {
		return nil, fmt.Errorf("%w: history sizes must be positive", ports.ErrConfiguration)
	}
	t := &Tracker{
		logger:    logger,
		signalCap: signalHistorySize,
		tradeCap:  tradeHistorySize,
		positions: make(map[string]*domain.Position),
		signals:   make([]*domain.Signal, 0, signalHistorySize),
		trades:    make([]*domain.Trade, 0, tradeHistorySize),
		now:       time.Now,
	}
	t.stats.LastReset = t.now().UTC()
	return t, nil
}

// SeedLifetime initializes the lifetime counters from the journal at startup.
func (t *Tracker) SeedLifetime(summary ports.JournalSummary, tradesToday int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.LifetimeTrades = summary.LifetimeTrades
	t.stats.LifetimeWins = summary.LifetimeWins
	t.stats.LifetimeLosses = summary.LifetimeLosses
	t.stats.TotalRealizedPnL = summary.TotalPnL
	t.stats.DailyTrades = tradesToday
}

// SetEquity updates the account equity and buying power figures.
func (t *Tracker) SetEquity(equity, buyingPower float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats.Equity = equity
	t.stats.BuyingPower = buyingPower
}

// AdoptPosition registers a position that already existed on the exchange
// before the process started. Entry details are unknown so the mark price
// doubles as the entry price.
func (t *Tracker) AdoptPosition(ctx context.Context, symbol string, quantity, markPrice float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.positions[symbol]; exists {
		return fmt.Errorf("%w: position already tracked for %s", ports.ErrDuplicatePosition, symbol)
	}
	pos := &domain.Position{
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: markPrice,
		EntryTime:  t.now().UTC(),
	}
	pos.RefreshMark(markPrice)
	t.positions[symbol] = pos
	t.logger.Info(ctx, "Adopted existing position", map[string]interface{}{
		"symbol":   symbol,
		"quantity": quantity,
		"price":    markPrice,
	})
	return nil
}

// RecordFill applies a confirmed order fill to the portfolio. A BUY opens a
// new position and debits its notional from buying power; a SELL closes the
// tracked position, credits the proceeds back, realizes its P/L into equity
// and updates the daily and lifetime counters. Stats and positions change
// under the same lock, so no snapshot sees one without the other. The cash
// figures are reconciled against exchange balances on the next portfolio
// refresh. The returned trade carries the realized figures for SELLs.
func (t *Tracker) RecordFill(ctx context.Context, fill *ports.OrderFill, proposal *domain.OrderProposal) (*domain.Trade, error) {
	if fill == nil || proposal == nil {
		return nil, fmt.Errorf("%w: fill and proposal are required", ports.ErrInvalidRequest)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	trade := &domain.Trade{
		Symbol:        fill.Symbol,
		Side:          fill.Side,
		Quantity:      fill.ExecutedQty,
		Price:         fill.AvgPrice,
		OrderID:       fill.OrderID,
		ClientOrderID: fill.ClientOrderID,
		ExecutedAt:    fill.Timestamp,
	}

	switch fill.Side {
	case domain.Buy:
		if _, exists := t.positions[fill.Symbol]; exists {
			return nil, fmt.Errorf("%w: position already open for %s", ports.ErrDuplicatePosition, fill.Symbol)
		}
		pos := &domain.Position{
			Symbol:     fill.Symbol,
			Quantity:   fill.ExecutedQty,
			EntryPrice: fill.AvgPrice,
			EntryTime:  fill.Timestamp,
			StopLoss:   proposal.StopLoss,
			TakeProfit: proposal.TakeProfit,
		}
		pos.RefreshMark(fill.AvgPrice)
		t.positions[fill.Symbol] = pos
		t.stats.BuyingPower -= fill.ExecutedQty * fill.AvgPrice

	case domain.Sell:
		pos, exists := t.positions[fill.Symbol]
		if !exists {
			return nil, fmt.Errorf("%w: no open position for %s", ports.ErrNoPosition, fill.Symbol)
		}
		trade.EntryPrice = pos.EntryPrice
		trade.RealizedPnL = (fill.AvgPrice - pos.EntryPrice) * fill.ExecutedQty
		if pos.EntryPrice > 0 {
			trade.RealizedPct = (fill.AvgPrice - pos.EntryPrice) / pos.EntryPrice * 100
		}
		delete(t.positions, fill.Symbol)

		t.stats.BuyingPower += fill.ExecutedQty * fill.AvgPrice
		t.stats.Equity += trade.RealizedPnL
		t.stats.DailyPnL += trade.RealizedPnL
		t.stats.TotalRealizedPnL += trade.RealizedPnL
		if trade.IsWin() {
			t.stats.DailyWins++
			t.stats.LifetimeWins++
		} else {
			t.stats.DailyLosses++
			t.stats.LifetimeLosses++
		}

	default:
		return nil, fmt.Errorf("%w: unknown order side %q", ports.ErrInvalidRequest, fill.Side)
	}

	t.stats.DailyTrades++
	t.stats.LifetimeTrades++
	t.trades = prependTrade(t.trades, trade, t.tradeCap)

	t.logger.Info(ctx, "Recorded fill", map[string]interface{}{
		"symbol":   fill.Symbol,
		"side":     string(fill.Side),
		"quantity": fill.ExecutedQty,
		"price":    fill.AvgPrice,
		"pnl":      trade.RealizedPnL,
	})
	return trade, nil
}

// AppendSignal adds a scored signal to the bounded history. Every evaluated
// signal is recorded, actionable or not.
func (t *Tracker) AppendSignal(signal *domain.Signal) {
	if signal == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.signals = prependSignal(t.signals, signal, t.signalCap)
}

// RefreshMarks updates the current price and unrealized P/L of every open
// position whose symbol appears in the price map.
func (t *Tracker) RefreshMarks(prices map[string]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for symbol, pos := range t.positions {
		if price, ok := prices[symbol]; ok && price > 0 {
			pos.RefreshMark(price)
		}
	}
}

// Position returns a copy of the open position for symbol, or nil.
func (t *Tracker) Position(symbol string) *domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pos, ok := t.positions[symbol]
	if !ok {
		return nil
	}
	cp := *pos
	return &cp
}

// OpenPositions returns copies of all open positions.
func (t *Tracker) OpenPositions() []*domain.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyPositionsLocked()
}

// OpenPositionCount returns the number of open positions.
func (t *Tracker) OpenPositionCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.positions)
}

// Stats returns a copy of the portfolio statistics, rolling the daily
// counters over first if the UTC day has changed.
func (t *Tracker) Stats() domain.PortfolioStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()
	return t.stats
}

// RecentSignals returns up to limit signals, most recent first.
func (t *Tracker) RecentSignals(limit int) []*domain.Signal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || limit > len(t.signals) {
		limit = len(t.signals)
	}
	out := make([]*domain.Signal, limit)
	copy(out, t.signals[:limit])
	return out
}

// RecentTrades returns up to limit trades, most recent first.
func (t *Tracker) RecentTrades(limit int) []*domain.Trade {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if limit <= 0 || limit > len(t.trades) {
		limit = len(t.trades)
	}
	out := make([]*domain.Trade, limit)
	copy(out, t.trades[:limit])
	return out
}

// View is a consistent copy of the tracker state taken under one read lock.
type View struct {
	Positions []*domain.Position
	Stats     domain.PortfolioStats
	Signals   []*domain.Signal
	Trades    []*domain.Trade
}

// Snapshot copies positions, stats and both histories atomically. Like
// Stats, it rolls the daily counters over first, so a reader never sees
// yesterday's figures after the UTC day has changed.
func (t *Tracker) Snapshot() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolloverLocked()

	signals := make([]*domain.Signal, len(t.signals))
	copy(signals, t.signals)
	trades := make([]*domain.Trade, len(t.trades))
	copy(trades, t.trades)

	return View{
		Positions: t.copyPositionsLocked(),
		Stats:     t.stats,
		Signals:   signals,
		Trades:    trades,
	}
}

func (t *Tracker) copyPositionsLocked() []*domain.Position {
	out := make([]*domain.Position, 0, len(t.positions))
	for _, pos := range t.positions {
		cp := *pos
		out = append(out, &cp)
	}
	return out
}

// rolloverLocked resets the daily counters when the UTC date has advanced
// past the last reset. Caller must hold the write lock.
func (t *Tracker) rolloverLocked() {
	now := t.now().UTC()
	last := t.stats.LastReset
	if now.Year() == last.Year() && now.YearDay() == last.YearDay() {
		return
	}
	t.stats.DailyTrades = 0
	t.stats.DailyWins = 0
	t.stats.DailyLosses = 0
	t.stats.DailyPnL = 0
	t.stats.LastReset = now
}

func prependSignal(history []*domain.Signal, s *domain.Signal, capacity int) []*domain.Signal {
	history = append(history, nil)
	copy(history[1:], history)
	history[0] = s
	if len(history) > capacity {
		history = history[:capacity]
	}
	return history
}

func prependTrade(history []*domain.Trade, tr *domain.Trade, capacity int) []*domain.Trade {
	history = append(history, nil)
	copy(history[1:], history)
	history[0] = tr
	if len(history) > capacity {
		history = history[:capacity]
	}
	return history
}
