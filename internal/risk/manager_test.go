package risk

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func testConfig() Config {
	return Config{
		BasePositionSizePercent: 5.0,
		BaseStopLossPercent:     2.0,
		BaseTakeProfitPercent:   4.0,
		MaxStopLossPercent:      5.0,
		MaxTakeProfitPercent:    10.0,
		MinNotional:             10.0,
		MaxOpenPositions:        10,
		SymbolCooldown:          60 * time.Second,
	}
}

func newTestManager(t *testing.T) (*Manager, *time.Time) {
	t.Helper()
	m, err := NewManager(testConfig(), &mockLogger{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	return m, &now
}

func buySignal(symbol string, price float64) *domain.Signal {
	return &domain.Signal{
		Symbol:    symbol,
		Direction: domain.DirectionBuy,
		Strength:  80,
		Price:     price,
	}
}

func TestSizeMultiplier(t *testing.T) {
	tests := []struct {
		losses   int
		expected float64
	}{
		{0, 1.0},
		{1, 1.0},
		{2, 0.66},
		{3, 0.33},
		{7, 0.33},
	}
	for _, tt := range tests {
		if got := SizeMultiplier(tt.losses); got != tt.expected {
			t.Errorf("SizeMultiplier(%d) = %v, want %v", tt.losses, got, tt.expected)
		}
	}
}

func TestManager_EvaluateBuySizing(t *testing.T) {
	m, _ := newTestManager(t)

	// equity $1000, base size 5% at price $100 → quantity 0.5
	prop, err := m.Evaluate(context.Background(), Input{
		Signal:     buySignal("BTCUSDT", 100),
		Equity:     1000,
		ATRPercent: 1.0,
	})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if math.Abs(prop.Quantity-0.5) > 1e-9 {
		t.Errorf("expected quantity 0.5, got %v", prop.Quantity)
	}
	if math.Abs(prop.Notional-50) > 1e-9 {
		t.Errorf("expected notional 50, got %v", prop.Notional)
	}
	if prop.SizeMultiplier != 1.0 {
		t.Errorf("expected multiplier 1.0, got %v", prop.SizeMultiplier)
	}
}

func TestManager_StopTakeProfitClamping(t *testing.T) {
	m, _ := newTestManager(t)

	// atrPercent 4% → stop max(8,2)=8 clamped to 5; TP max(12,4)=12 clamped to 10
	prop, err := m.Evaluate(context.Background(), Input{
		Signal:     buySignal("ETHUSDT", 100),
		Equity:     1000,
		ATRPercent: 4.0,
	})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if math.Abs(prop.StopLoss-95.0) > 1e-9 {
		t.Errorf("expected stop loss 95, got %v", prop.StopLoss)
	}
	if math.Abs(prop.TakeProfit-110.0) > 1e-9 {
		t.Errorf("expected take profit 110, got %v", prop.TakeProfit)
	}
}

func TestManager_StopTakeProfitFloors(t *testing.T) {
	m, _ := newTestManager(t)

	// negligible ATR falls back to the configured base percents
	prop, err := m.Evaluate(context.Background(), Input{
		Signal:     buySignal("ETHUSDT", 100),
		Equity:     1000,
		ATRPercent: 0.1,
	})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if math.Abs(prop.StopLoss-98.0) > 1e-9 {
		t.Errorf("expected stop loss 98, got %v", prop.StopLoss)
	}
	if math.Abs(prop.TakeProfit-104.0) > 1e-9 {
		t.Errorf("expected take profit 104, got %v", prop.TakeProfit)
	}
}

func TestManager_SymbolLock(t *testing.T) {
	m, now := newTestManager(t)
	in := Input{Signal: buySignal("BTCUSDT", 100), Equity: 1000}

	if _, err := m.Evaluate(context.Background(), in); err != nil {
		t.Fatalf("first proposal rejected: %v", err)
	}
	if !m.IsLocked("BTCUSDT") {
		t.Fatal("expected symbol to be locked after acceptance")
	}

	// second proposal inside the cooldown window is rejected
	if _, err := m.Evaluate(context.Background(), in); !errors.Is(err, ports.ErrSymbolLocked) {
		t.Fatalf("expected ErrSymbolLocked, got %v", err)
	}

	// after the cooldown elapses a new proposal is accepted
	*now = now.Add(61 * time.Second)
	if _, err := m.Evaluate(context.Background(), in); err != nil {
		t.Fatalf("post-cooldown proposal rejected: %v", err)
	}
}

func TestManager_MaxOpenPositions(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Evaluate(context.Background(), Input{
		Signal:        buySignal("BTCUSDT", 100),
		Equity:        1000,
		OpenPositions: 10,
	})
	if !errors.Is(err, ports.ErrMaxPositions) {
		t.Fatalf("expected ErrMaxPositions, got %v", err)
	}
}

func TestManager_MinNotional(t *testing.T) {
	m, _ := newTestManager(t)

	// 5% of $100 equity is $5, below the $10 minimum
	_, err := m.Evaluate(context.Background(), Input{
		Signal: buySignal("BTCUSDT", 100),
		Equity: 100,
	})
	if !errors.Is(err, ports.ErrBelowMinNotional) {
		t.Fatalf("expected ErrBelowMinNotional, got %v", err)
	}
}

func TestManager_DuplicatePositionRejected(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.Evaluate(context.Background(), Input{
		Signal:   buySignal("BTCUSDT", 100),
		Equity:   1000,
		Position: &domain.Position{Symbol: "BTCUSDT", Quantity: 0.5},
	})
	if !errors.Is(err, ports.ErrDuplicatePosition) {
		t.Fatalf("expected ErrDuplicatePosition, got %v", err)
	}
}

func TestManager_SellRequiresPosition(t *testing.T) {
	m, _ := newTestManager(t)
	sell := &domain.Signal{Symbol: "BTCUSDT", Direction: domain.DirectionSell, Strength: 70, Price: 98}

	if _, err := m.Evaluate(context.Background(), Input{Signal: sell, Equity: 1000}); !errors.Is(err, ports.ErrNoPosition) {
		t.Fatalf("expected ErrNoPosition, got %v", err)
	}

	prop, err := m.Evaluate(context.Background(), Input{
		Signal:   sell,
		Equity:   1000,
		Position: &domain.Position{Symbol: "BTCUSDT", Quantity: 0.5, EntryPrice: 100},
	})
	if err != nil {
		t.Fatalf("unexpected rejection: %v", err)
	}
	if prop.Side != domain.Sell || prop.Quantity != 0.5 {
		t.Errorf("expected full-position SELL of 0.5, got %+v", prop)
	}
}

func TestManager_LossStreak(t *testing.T) {
	m, now := newTestManager(t)
	ctx := context.Background()

	advance := func() { *now = now.Add(61 * time.Second) }
	propose := func() *domain.OrderProposal {
		t.Helper()
		prop, err := m.Evaluate(ctx, Input{Signal: buySignal("BTCUSDT", 100), Equity: 1000})
		if err != nil {
			t.Fatalf("unexpected rejection: %v", err)
		}
		advance()
		return prop
	}

	// one loss still trades at full size (threshold is two)
	m.RecordTradeResult(ctx, "BTCUSDT", false)
	if prop := propose(); prop.SizeMultiplier != 1.0 {
		t.Errorf("expected 1.0x after one loss, got %v", prop.SizeMultiplier)
	}

	m.RecordTradeResult(ctx, "BTCUSDT", false)
	if prop := propose(); prop.SizeMultiplier != 0.66 {
		t.Errorf("expected 0.66x after two losses, got %v", prop.SizeMultiplier)
	}

	m.RecordTradeResult(ctx, "BTCUSDT", false)
	if prop := propose(); prop.SizeMultiplier != 0.33 {
		t.Errorf("expected 0.33x after three losses, got %v", prop.SizeMultiplier)
	}

	// a single win resets the streak no matter how deep it was
	m.RecordTradeResult(ctx, "BTCUSDT", true)
	if got := m.ConsecutiveLosses("BTCUSDT"); got != 0 {
		t.Errorf("expected streak reset to 0, got %d", got)
	}
	if prop := propose(); prop.SizeMultiplier != 1.0 {
		t.Errorf("expected 1.0x after a win, got %v", prop.SizeMultiplier)
	}

	// streaks are per symbol
	m.RecordTradeResult(ctx, "BTCUSDT", false)
	m.RecordTradeResult(ctx, "BTCUSDT", false)
	if got := m.ConsecutiveLosses("ETHUSDT"); got != 0 {
		t.Errorf("expected independent streak for ETHUSDT, got %d", got)
	}
}
