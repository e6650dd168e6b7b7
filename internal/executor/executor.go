package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jpillora/backoff"
	"golang.org/x/time/rate"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/portfolio"
	"cryptoSpotBot/internal/ports"
	"cryptoSpotBot/internal/risk"
)

// Config controls submission pacing and retry behaviour.
type Config struct {
	RateLimitInterval time.Duration // minimum spacing between order submissions
	RetryAttempts     int           // total attempts per order, including the first
	RetryBaseDelay    time.Duration // initial backoff delay between attempts
}

// Executor turns accepted order proposals into exchange fills. One executor
// is shared by all symbols so its rate limiter paces the whole process.
type Executor struct {
	cfg      Config
	logger   ports.Logger
	exchange ports.ExchangeClient
	tracker  *portfolio.Tracker
	risk     *risk.Manager
	journal  ports.TradeJournal // optional
	notifier ports.Notifier     // optional

	limiter *rate.Limiter
}

// NewExecutor creates an executor. Journal and notifier may be nil; their
// absence (or failure) never affects order handling.
func NewExecutor(
	cfg Config,
	logger ports.Logger,
	exchange ports.ExchangeClient,
	tracker *portfolio.Tracker,
	riskMgr *risk.Manager,
	journal ports.TradeJournal,
	notifier ports.Notifier,
) (*Executor, error) {
	if logger == nil || exchange == nil || tracker == nil || riskMgr == nil {
		return nil, fmt.Errorf("%w: missing required dependencies for executor", ports.ErrConfiguration)
	}
	if cfg.RateLimitInterval <= 0 {
		return nil, fmt.Errorf("%w: rate limit interval must be positive", ports.ErrConfiguration)
	}
	if cfg.RetryAttempts <= 0 {
		return nil, fmt.Errorf("%w: retry attempts must be positive", ports.ErrConfiguration)
	}
	if cfg.RetryBaseDelay <= 0 {
		return nil, fmt.Errorf("%w: retry base delay must be positive", ports.ErrConfiguration)
	}
	return &Executor{
		cfg:      cfg,
		logger:   logger,
		exchange: exchange,
		tracker:  tracker,
		risk:     riskMgr,
		journal:  journal,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Every(cfg.RateLimitInterval), 1),
	}, nil
}

// Execute submits the proposal as a market order, retrying transient
// failures, and on success credits the fill to the portfolio exactly once.
// The same client order ID is reused across retries so the exchange can
// deduplicate a resubmission whose first response was lost.
func (e *Executor) Execute(ctx context.Context, proposal *domain.OrderProposal, signal *domain.Signal) (*domain.Trade, error) {
	if proposal == nil {
		return nil, fmt.Errorf("%w: nil order proposal", ports.ErrInvalidRequest)
	}

	clientOrderID := uuid.NewString()
	fill, err := e.submitWithRetry(ctx, proposal, clientOrderID)
	if err != nil {
		e.logger.Error(ctx, err, "Order submission failed", map[string]interface{}{
			"symbol":        proposal.Symbol,
			"side":          string(proposal.Side),
			"clientOrderId": clientOrderID,
		})
		e.notifyError(ctx, "Order failed", err.Error(), proposal.Symbol)
		return nil, err
	}

	trade, err := e.tracker.RecordFill(ctx, fill, proposal)
	if err != nil {
		// The order went through but the books disagree with it. Surface
		// loudly; the fill itself cannot be undone.
		e.logger.Error(ctx, err, "Fill could not be recorded", map[string]interface{}{
			"symbol":  fill.Symbol,
			"orderId": fill.OrderID,
		})
		e.notifyError(ctx, "Bookkeeping failure", err.Error(), fill.Symbol)
		return nil, fmt.Errorf("recording fill for %s: %w", fill.Symbol, err)
	}

	if trade.Side == domain.Sell {
		e.risk.RecordTradeResult(ctx, trade.Symbol, trade.IsWin())
	}

	e.journalTrade(ctx, trade)
	e.notifyTrade(ctx, trade, signal)

	e.logger.Info(ctx, "Order executed", map[string]interface{}{
		"symbol":   trade.Symbol,
		"side":     string(trade.Side),
		"quantity": trade.Quantity,
		"price":    trade.Price,
		"orderId":  trade.OrderID,
	})
	return trade, nil
}

func (e *Executor) submitWithRetry(ctx context.Context, proposal *domain.OrderProposal, clientOrderID string) (*ports.OrderFill, error) {
	b := &backoff.Backoff{
		Min:    e.cfg.RetryBaseDelay,
		Max:    30 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 1; attempt <= e.cfg.RetryAttempts; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter wait: %v", ports.ErrContextCanceled, err)
		}

		fill, err := e.exchange.SubmitMarketOrder(ctx, proposal.Symbol, proposal.Side, proposal.Quantity, clientOrderID)
		if err == nil {
			return fill, nil
		}
		lastErr = err

		if !ports.IsTransientExecution(err) {
			return nil, err
		}

		if attempt == e.cfg.RetryAttempts {
			break
		}
		delay := b.Duration()
		e.logger.Warn(ctx, "Transient order failure, retrying", map[string]interface{}{
			"symbol":  proposal.Symbol,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: canceled during retry backoff", ports.ErrContextCanceled)
		}
	}
	return nil, fmt.Errorf("%w: %d attempts for %s exhausted: %v",
		ports.ErrExecutionFailed, e.cfg.RetryAttempts, proposal.Symbol, lastErr)
}

func (e *Executor) journalTrade(ctx context.Context, trade *domain.Trade) {
	if e.journal == nil {
		return
	}
	id, err := e.journal.RecordTrade(ctx, trade)
	if err != nil {
		e.logger.Warn(ctx, "Trade journal write failed", map[string]interface{}{
			"symbol": trade.Symbol,
			"error":  err.Error(),
		})
		return
	}
	trade.ID = id
}

func (e *Executor) notifyTrade(ctx context.Context, trade *domain.Trade, signal *domain.Signal) {
	if e.notifier == nil {
		return
	}
	var err error
	if trade.Side == domain.Sell {
		err = e.notifier.NotifyClose(ctx, trade)
	} else {
		err = e.notifier.NotifyTrade(ctx, trade, signal)
	}
	if err != nil {
		e.logger.Warn(ctx, "Trade notification failed", map[string]interface{}{
			"symbol": trade.Symbol,
			"error":  err.Error(),
		})
	}
}

func (e *Executor) notifyError(ctx context.Context, title, detail, symbol string) {
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
