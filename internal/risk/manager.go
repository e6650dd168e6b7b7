package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"
)

// Config holds configuration for risk management.
type Config struct {
	BasePositionSizePercent float64       // percent of equity per position
	BaseStopLossPercent     float64       // floor for the ATR-scaled stop distance
	BaseTakeProfitPercent   float64       // floor for the ATR-scaled take-profit distance
	MaxStopLossPercent      float64       // clamp for the stop distance
	MaxTakeProfitPercent    float64       // clamp for the take-profit distance
	MinNotional             float64       // minimum order value in quote currency
	MaxOpenPositions        int           // maximum concurrent open positions
	SymbolCooldown          time.Duration // lock window after an accepted proposal
}

// symbolState is the per-symbol risk state. A symbol is LOCKED while
// lockedUntil lies in the future and UNLOCKED otherwise; consecutiveLosses
// drives the drawdown-protection size multiplier.
type symbolState struct {
	consecutiveLosses int
	lockedUntil       time.Time
}

// Manager holds per-symbol risk state and gates every order proposal.
type Manager struct {
	cfg    Config
	logger ports.Logger

	mu     sync.Mutex
	states map[string]*symbolState

	now func() time.Time // injectable clock for tests
}

// Input carries everything an evaluation needs from the caller.
type Input struct {
	Signal        *domain.Signal
	Equity        float64          // current portfolio equity in quote currency
	ATRPercent    float64          // ATR as percent of the current price
	OpenPositions int              // count of currently open positions
	Position      *domain.Position // open position for this symbol, nil if none
}

// NewManager creates a risk manager.
func NewManager(cfg Config, logger ports.Logger) (*Manager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for risk manager")
	}
	if cfg.BasePositionSizePercent <= 0 || cfg.BasePositionSizePercent > 100 {
		return nil, fmt.Errorf("%w: BasePositionSizePercent must be in (0,100]", ports.ErrConfiguration)
	}
	if cfg.BaseStopLossPercent <= 0 || cfg.BaseTakeProfitPercent <= 0 {
		return nil, fmt.Errorf("%w: stop-loss and take-profit floors must be positive", ports.ErrConfiguration)
	}
	if cfg.MaxStopLossPercent < cfg.BaseStopLossPercent || cfg.MaxTakeProfitPercent < cfg.BaseTakeProfitPercent {
		return nil, fmt.Errorf("%w: clamps must not be below their floors", ports.ErrConfiguration)
	}
	if cfg.MaxOpenPositions <= 0 {
		return nil, fmt.Errorf("%w: MaxOpenPositions must be positive", ports.ErrConfiguration)
	}
	if cfg.SymbolCooldown <= 0 {
		cfg.SymbolCooldown = 60 * time.Second
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		states: make(map[string]*symbolState),
		now:    time.Now,
	}, nil
}

// SizeMultiplier returns the drawdown-protection multiplier for a loss streak:
// 0–1 losses 1.0, 2 losses 0.66, 3 or more 0.33.
func SizeMultiplier(consecutiveLosses int) float64 {
	switch {
	case consecutiveLosses >= 3:
		return 0.33
	case consecutiveLosses == 2:
		return 0.66
	default:
		return 1.0
	}
}

// Evaluate turns an actionable signal into a sized order proposal or a
// rejection. On acceptance the symbol is locked for the cooldown window.
func (m *Manager) Evaluate(ctx context.Context, in Input) (*domain.OrderProposal, error) {
	sig := in.Signal
	if sig == nil || sig.Direction == domain.DirectionNeutral {
		return nil, fmt.Errorf("%w: neutral signal cannot be proposed", ports.ErrInvalidRequest)
	}
	if sig.Price <= 0 {
		return nil, fmt.Errorf("%w: signal carries no price", ports.ErrInvalidRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	state := m.state(sig.Symbol)
	if now.Before(state.lockedUntil) {
		return nil, fmt.Errorf("%w: %s until %s", ports.ErrSymbolLocked, sig.Symbol, state.lockedUntil.Format(time.RFC3339))
	}

	var proposal *domain.OrderProposal
	var err error
	switch sig.Direction {
	case domain.DirectionBuy:
		proposal, err = m.proposeBuy(in, state)
	case domain.DirectionSell:
		proposal, err = m.proposeSell(in)
	}
	if err != nil {
		return nil, err
	}

	// LOCKED until the cooldown elapses; no second proposal for this symbol
	// can be accepted inside the window.
	state.lockedUntil = now.Add(m.cfg.SymbolCooldown)

	m.logger.Debug(ctx, "Order proposal accepted", map[string]interface{}{
		"symbol":     proposal.Symbol,
		"side":       proposal.Side,
		"quantity":   proposal.Quantity,
		"notional":   proposal.Notional,
		"multiplier": proposal.SizeMultiplier,
	})
	return proposal, nil
}

func (m *Manager) proposeBuy(in Input, state *symbolState) (*domain.OrderProposal, error) {
	sig := in.Signal
	if in.Position != nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrDuplicatePosition, sig.Symbol)
	}
	if in.OpenPositions >= m.cfg.MaxOpenPositions {
		return nil, fmt.Errorf("%w: %d open", ports.ErrMaxPositions, in.OpenPositions)
	}

	multiplier := SizeMultiplier(state.consecutiveLosses)
	positionValue := in.Equity * (m.cfg.BasePositionSizePercent * multiplier / 100)
	if positionValue < m.cfg.MinNotional {
		return nil, fmt.Errorf("%w: %.2f < %.2f", ports.ErrBelowMinNotional, positionValue, m.cfg.MinNotional)
	}
	quantity := positionValue / sig.Price

	stopPct := clamp(maxFloat(in.ATRPercent*2, m.cfg.BaseStopLossPercent), m.cfg.MaxStopLossPercent)
	takeProfitPct := clamp(maxFloat(in.ATRPercent*3, m.cfg.BaseTakeProfitPercent), m.cfg.MaxTakeProfitPercent)

	return &domain.OrderProposal{
		Symbol:         sig.Symbol,
		Side:           domain.Buy,
		Quantity:       quantity,
		Price:          sig.Price,
		Notional:       positionValue,
		StopLoss:       sig.Price * (1 - stopPct/100),
		TakeProfit:     sig.Price * (1 + takeProfitPct/100),
		SizeMultiplier: multiplier,
		SignalStrength: sig.Strength,
	}, nil
}

func (m *Manager) proposeSell(in Input) (*domain.OrderProposal, error) {
	sig := in.Signal
	if in.Position == nil {
		return nil, fmt.Errorf("%w: %s", ports.ErrNoPosition, sig.Symbol)
	}
	return &domain.OrderProposal{
		Symbol:         sig.Symbol,
		Side:           domain.Sell,
		Quantity:       in.Position.Quantity,
		Price:          sig.Price,
		Notional:       in.Position.Quantity * sig.Price,
		SizeMultiplier: 1.0,
		SignalStrength: sig.Strength,
	}, nil
}

// RecordTradeResult feeds a closed trade back into the symbol's loss streak:
// any winning close resets the counter, a losing close increments it.
func (m *Manager) RecordTradeResult(ctx context.Context, symbol string, win bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := m.state(symbol)
	if win {
		state.consecutiveLosses = 0
	} else {
		state.consecutiveLosses++
	}
	m.logger.Debug(ctx, "Trade result recorded", map[string]interface{}{
		"symbol":            symbol,
		"win":               win,
		"consecutiveLosses": state.consecutiveLosses,
	})
}

// ConsecutiveLosses returns the current loss streak for a symbol.
func (m *Manager) ConsecutiveLosses(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state(symbol).consecutiveLosses
}

// IsLocked reports whether the symbol's cooldown window is still active.
func (m *Manager) IsLocked(symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now().Before(m.state(symbol).lockedUntil)
}

// state returns the symbol's state, creating it on first use.
// Callers must hold m.mu.
func (m *Manager) state(symbol string) *symbolState {
	s, ok := m.states[symbol]
	if !ok {
		s = &symbolState{}
		m.states[symbol] = s
	}
	return s
}

func clamp(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
