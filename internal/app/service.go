package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cryptoSpotBot/config"
	"cryptoSpotBot/internal/dashboard"
	"cryptoSpotBot/internal/executor"
	"cryptoSpotBot/internal/portfolio"
	"cryptoSpotBot/internal/ports"
	"cryptoSpotBot/internal/risk"
	"cryptoSpotBot/internal/strategy/indicators"
	"cryptoSpotBot/internal/strategy/scoring"
)

// Engine orchestrates the market monitoring loop: candle fetch, indicator
// computation, signal scoring, risk evaluation and order execution, plus the
// independent dashboard feed.
type Engine struct {
	cfg        *config.Config
	logger     ports.Logger
	exchange   ports.ExchangeClient
	indicators *indicators.Engine
	scorer     *scoring.Scorer
	risk       *risk.Manager
	executor   *executor.Executor
	tracker    *portfolio.Tracker
	feed       *dashboard.Feed
	journal    ports.TradeJournal // optional
	notifier   ports.Notifier     // optional

	summaryHour   int
	summaryMinute int
	lastSummary   string // "2006-01-02" of the last summary sent

	now func() time.Time
}

// NewEngine wires the orchestrator. Journal and notifier may be nil.
func NewEngine(
	cfg *config.Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	indicatorEngine *indicators.Engine,
	scorer *scoring.Scorer,
	riskMgr *risk.Manager,
	exec *executor.Executor,
	tracker *portfolio.Tracker,
	feed *dashboard.Feed,
	journal ports.TradeJournal,
	notifier ports.Notifier,
) (*Engine, error) {
	if cfg == nil || logger == nil || exchange == nil || indicatorEngine == nil ||
		scorer == nil || riskMgr == nil || exec == nil || tracker == nil || feed == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for engine", ports.ErrConfiguration)
	}
	if cfg.CandleLookback < indicatorEngine.RequiredCandles() {
		return nil, fmt.Errorf("%w: candle lookback %d below the %d required by the indicators",
			ports.ErrConfiguration, cfg.CandleLookback, indicatorEngine.RequiredCandles())
	}
	hour, minute, err := config.ParseClock(cfg.DailySummaryTime)
	if err != nil {
		return nil, fmt.Errorf("%w: daily summary time: %v", ports.ErrConfiguration, err)
	}
	return &Engine{
		cfg:           cfg,
		logger:        logger,
		exchange:      exchange,
		indicators:    indicatorEngine,
		scorer:        scorer,
		risk:          riskMgr,
		executor:      exec,
		tracker:       tracker,
		feed:          feed,
		journal:       journal,
		notifier:      notifier,
		summaryHour:   hour,
		summaryMinute: minute,
		now:           time.Now,
	}, nil
}

// Start initializes state from the exchange and journal, then runs the
// analysis cycle and dashboard feed until the context is cancelled or an
// interrupt arrives. It blocks until both loops have drained.
func (e *Engine) Start(ctx context.Context) error {
	e.logger.Info(ctx, "Starting engine...", map[string]interface{}{
		"symbols":        e.cfg.Symbols,
		"interval":       e.cfg.CandleInterval,
		"cyclePeriod":    e.cfg.CycleInterval.String(),
		"tradeThreshold": e.cfg.TradeThreshold,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			e.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := e.initialize(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.runAnalysisLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		e.feed.Run(ctx)
	}()

	<-ctx.Done()
	e.logger.Info(ctx, "Shutting down, waiting for loops to drain...")
	wg.Wait()

	if e.notifier != nil {
		// Use a fresh short-lived context; the engine context is already gone.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		stats := e.tracker.Stats()
		if err := e.notifier.NotifyShutdown(shutdownCtx, &stats); err != nil {
			e.logger.Warn(shutdownCtx, "Shutdown notification failed", map[string]interface{}{"error": err.Error()})
		}
	}

	e.logger.Info(context.Background(), "Engine stopped.")
	return nil
}

// initialize verifies connectivity, seeds counters from the journal and
// re-adopts positions already held on the account.
func (e *Engine) initialize(ctx context.Context) error {
	if err := e.exchange.Ping(ctx); err != nil {
		return fmt.Errorf("exchange connectivity check failed: %w", err)
	}
	if serverTime, err := e.exchange.GetServerTime(ctx); err != nil {
		e.logger.Warn(ctx, "Could not read exchange server time", map[string]interface{}{"error": err.Error()})
	} else {
		drift := e.now().Sub(serverTime)
		e.logger.Info(ctx, "Exchange reachable", map[string]interface{}{"clockDrift": drift.String()})
	}

	buyingPower, err := e.exchange.GetBuyingPower(ctx, e.cfg.QuoteAsset)
	if err != nil {
		return fmt.Errorf("fetching initial balance: %w", err)
	}

	if e.journal != nil {
		if err := e.seedFromJournal(ctx); err != nil {
			// The journal is an optional collaborator; a broken one must not
			// keep the engine from trading.
			e.logger.Warn(ctx, "Journal seeding failed, starting with empty counters", map[string]interface{}{"error": err.Error()})
		}
	}

	adoptedValue, err := e.recoverPositions(ctx)
	if err != nil {
		e.logger.Warn(ctx, "Position recovery failed", map[string]interface{}{"error": err.Error()})
	}
	e.tracker.SetEquity(buyingPower+adoptedValue, buyingPower)

	e.logger.Info(ctx, "Initial state synchronized", map[string]interface{}{
		"buyingPower":   buyingPower,
		"openPositions": e.tracker.OpenPositionCount(),
	})

	if e.notifier != nil {
		if err := e.notifier.NotifyStartup(ctx, buyingPower+adoptedValue, e.cfg.Symbols); err != nil {
			e.logger.Warn(ctx, "Startup notification failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

func (e *Engine) seedFromJournal(ctx context.Context) error {
	summary, err := e.journal.Summary(ctx)
	if err != nil {
		return fmt.Errorf("reading journal summary: %w", err)
	}
	midnight := e.now().UTC().Truncate(24 * time.Hour)
	tradesToday, err := e.journal.CountSince(ctx, midnight)
	if err != nil {
		return fmt.Errorf("counting today's trades: %w", err)
	}
	e.tracker.SeedLifetime(*summary, tradesToday)
	e.logger.Info(ctx, "Counters seeded from journal", map[string]interface{}{
		"lifetimeTrades": summary.LifetimeTrades,
		"tradesToday":    tradesToday,
	})
	return nil
}

// recoverPositions adopts non-quote balances that map onto a monitored
// symbol as open positions at the current market price. Returns the total
// adopted market value.
func (e *Engine) recoverPositions(ctx context.Context) (float64, error) {
	balances, err := e.exchange.GetBalances(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching account balances: %w", err)
	}

	var total float64
	for _, bal := range balances {
		if bal.Asset == e.cfg.QuoteAsset || bal.Free <= 0 {
			continue
		}
		symbol := bal.Asset + e.cfg.QuoteAsset
		if !e.monitors(symbol) {
			continue
		}
		price, err := e.exchange.GetTickerPrice(ctx, symbol)
		if err != nil {
			e.logger.Warn(ctx, "Could not price recovered balance", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			continue
		}
		if bal.Free*price < e.cfg.MinNotional {
			// Dust; not worth tracking as a position.
			continue
		}
		if err := e.tracker.AdoptPosition(ctx, symbol, bal.Free, price); err != nil {
			e.logger.Warn(ctx, "Could not adopt position", map[string]interface{}{
				"symbol": symbol,
				"error":  err.Error(),
			})
			continue
		}
		total += bal.Free * price
	}
	return total, nil
}

func (e *Engine) monitors(symbol string) bool {
	for _, s := range e.cfg.Symbols {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}

// runAnalysisLoop runs one cycle immediately, then on every tick. A cycle
// in progress finishes its current symbol before honoring cancellation.
func (e *Engine) runAnalysisLoop(ctx context.Context) {
	e.runCycle(ctx)

	ticker := time.NewTicker(e.cfg.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info(ctx, "Analysis loop stopped")
			return
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

// runCycle refreshes portfolio state and analyzes every monitored symbol.
// A failure on one symbol never blocks the rest of the cycle.
func (e *Engine) runCycle(ctx context.Context) {
	start := e.now()
	e.maybeSendDailySummary(ctx)
	e.refreshPortfolio(ctx)

	for _, symbol := range e.cfg.Symbols {
		if ctx.Err() != nil {
			return
		}
		if err := e.analyzeSymbol(ctx, symbol); err != nil {
			e.logger.Error(ctx, err, "Symbol analysis failed", map[string]interface{}{"symbol": symbol})
			e.notifyError(ctx, "Analysis failure", err.Error(), symbol)
		}
	}

	e.logger.Debug(ctx, "Cycle complete", map[string]interface{}{
		"elapsed": e.now().Sub(start).String(),
	})
}

// refreshPortfolio re-prices open positions and recomputes equity as free
// quote balance plus the market value of everything held.
func (e *Engine) refreshPortfolio(ctx context.Context) {
	positions := e.tracker.OpenPositions()
	prices := make(map[string]float64, len(positions))
	for _, pos := range positions {
		price, err := e.exchange.GetTickerPrice(ctx, pos.Symbol)
		if err != nil {
			e.logger.Warn(ctx, "Ticker refresh failed", map[string]interface{}{
				"symbol": pos.Symbol,
				"error":  err.Error(),
			})
			continue
		}
		prices[pos.Symbol] = price
	}
	e.tracker.RefreshMarks(prices)

	buyingPower, err := e.exchange.GetBuyingPower(ctx, e.cfg.QuoteAsset)
	if err != nil {
		e.logger.Warn(ctx, "Balance refresh failed", map[string]interface{}{"error": err.Error()})
		return
	}
	var positionValue float64
	for _, pos := range e.tracker.OpenPositions() {
		if pos.CurrentPrice > 0 {
			positionValue += pos.Quantity * pos.CurrentPrice
		} else {
			positionValue += pos.Quantity * pos.EntryPrice
		}
	}
	e.tracker.SetEquity(buyingPower+positionValue, buyingPower)
}

// analyzeSymbol runs the full pipeline for one symbol: candles, indicators,
// scoring, risk evaluation and, when everything lines up, execution.
func (e *Engine) analyzeSymbol(ctx context.Context, symbol string) error {
	candles, err := e.exchange.GetCandles(ctx, symbol, e.cfg.CandleInterval, e.cfg.CandleLookback)
	if err != nil {
		if errors.Is(err, ports.ErrDataUnavailable) {
			// Nothing to analyze yet; not a fault worth alerting on.
			e.logger.Warn(ctx, "No market data for symbol", map[string]interface{}{"symbol": symbol})
			return nil
		}
		return fmt.Errorf("fetching candles: %w", err)
	}

	snapshot, err := e.indicators.Compute(ctx, symbol, candles)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientData) {
			// A thin market or a fresh listing; skip until enough history exists.
			e.logger.Warn(ctx, "Not enough candles to analyze", map[string]interface{}{
				"symbol": symbol,
				"count":  len(candles),
			})
			return nil
		}
		return fmt.Errorf("computing indicators: %w", err)
	}

	sig := e.scorer.Score(snapshot)
	e.tracker.AppendSignal(sig)
	e.logger.Debug(ctx, "Signal scored", map[string]interface{}{
		"symbol":        symbol,
		"direction":     string(sig.Direction),
		"strength":      sig.Strength,
		"confirmations": sig.Confirmations,
	})

	if !sig.IsActionable(e.cfg.TradeThreshold) {
		return nil
	}

	stats := e.tracker.Stats()
	proposal, err := e.risk.Evaluate(ctx, risk.Input{
		Signal:        sig,
		Equity:        stats.Equity,
		ATRPercent:    snapshot.ATRPercent,
		OpenPositions: e.tracker.OpenPositionCount(),
		Position:      e.tracker.Position(symbol),
	})
	if err != nil {
		if isExpectedRejection(err) {
			e.logger.Info(ctx, "Proposal rejected", map[string]interface{}{
				"symbol": symbol,
				"reason": err.Error(),
			})
			return nil
		}
		return fmt.Errorf("risk evaluation: %w", err)
	}

	e.logger.Info(ctx, "Proposal accepted", map[string]interface{}{
		"symbol":   symbol,
		"side":     string(proposal.Side),
		"quantity": proposal.Quantity,
		"notional": proposal.Notional,
	})

	// Detached from the engine context so a shutdown cannot abort a
	// half-applied fill. The symbol in progress always completes.
	execCtx, cancel := executionContext(ctx)
	defer cancel()
	if _, err := e.executor.Execute(execCtx, proposal, sig); err != nil {
		return fmt.Errorf("executing order: %w", err)
	}
	return nil
}

// executionTimeout bounds an order submission, including its retries, once
// execution no longer answers to the engine context.
const executionTimeout = 2 * time.Minute

// executionContext derives a context for order execution that survives
// cancellation of the engine context but still expires on its own.
func executionContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), executionTimeout)
}

// isExpectedRejection reports whether a risk rejection is part of normal
// operation rather than a fault.
func isExpectedRejection(err error) bool {
	return errors.Is(err, ports.ErrSymbolLocked) ||
		errors.Is(err, ports.ErrMaxPositions) ||
		errors.Is(err, ports.ErrBelowMinNotional) ||
		errors.Is(err, ports.ErrDuplicatePosition) ||
		errors.Is(err, ports.ErrNoPosition)
}

// maybeSendDailySummary sends the stats digest once per day after the
// configured wall-clock time has passed.
func (e *Engine) maybeSendDailySummary(ctx context.Context) {
	if e.notifier == nil {
		return
	}
	now := e.now()
	if now.Hour() < e.summaryHour || (now.Hour() == e.summaryHour && now.Minute() < e.summaryMinute) {
		return
	}
	today := now.Format("2006-01-02")
	if e.lastSummary == today {
		return
	}
	stats := e.tracker.Stats()
	if err := e.notifier.NotifyDailySummary(ctx, &stats, e.tracker.OpenPositionCount()); err != nil {
		e.logger.Warn(ctx, "Daily summary notification failed", map[string]interface{}{"error": err.Error()})
		return
	}
	e.lastSummary = today
	e.logger.Info(ctx, "Daily summary sent", map[string]interface{}{"date": today})
}

func (e *Engine) notifyError(ctx context.Context, title, detail, symbol string) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyError(ctx, title, detail, symbol); err != nil {
		e.logger.Warn(ctx, "Error notification failed", map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		})
	}
}
