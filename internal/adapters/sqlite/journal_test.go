package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cryptoSpotBot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) (*Journal, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "spot-bot-test-*")
	require.NoError(t, err)

	journal, err := NewJournal(Config{
		DBPath: filepath.Join(tmpDir, "test.db"),
		Logger: &mockLogger{},
	})
	require.NoError(t, err)

	cleanup := func() {
		journal.Close()
		os.RemoveAll(tmpDir)
	}
	return journal, cleanup
}

func sellTrade(symbol string, pnl float64, executedAt time.Time) *domain.Trade {
	return &domain.Trade{
		Symbol:        symbol,
		Side:          domain.Sell,
		Quantity:      0.5,
		Price:         100 + pnl,
		EntryPrice:    100,
		RealizedPnL:   pnl,
		RealizedPct:   pnl,
		ExecutedAt:    executedAt,
		OrderID:       42,
		ClientOrderID: "test-client-id",
	}
}

func TestJournal_RecordAndRetrieve(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	id, err := journal.RecordTrade(ctx, &domain.Trade{
		Symbol:        "BTCUSDT",
		Side:          domain.Buy,
		Quantity:      0.5,
		Price:         100,
		ExecutedAt:    now,
		OrderID:       7,
		ClientOrderID: "abc",
	})
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	trades, err := journal.RecentTrades(ctx, 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "BTCUSDT", trades[0].Symbol)
	assert.Equal(t, domain.Buy, trades[0].Side)
	assert.Equal(t, 0.5, trades[0].Quantity)
	assert.Equal(t, int64(7), trades[0].OrderID)
	assert.Equal(t, "abc", trades[0].ClientOrderID)
}

func TestJournal_RecentTradesOrderAndLimit(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := journal.RecordTrade(ctx, sellTrade("BTCUSDT", float64(i), base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	trades, err := journal.RecentTrades(ctx, 3)
	require.NoError(t, err)
	require.Len(t, trades, 3)
	// newest first
	assert.Equal(t, 4.0, trades[0].RealizedPnL)
	assert.Equal(t, 2.0, trades[2].RealizedPnL)
}

func TestJournal_CountSince(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := journal.RecordTrade(ctx, sellTrade("BTCUSDT", 1, now.Add(-48*time.Hour)))
	require.NoError(t, err)
	_, err = journal.RecordTrade(ctx, sellTrade("BTCUSDT", 2, now.Add(-time.Hour)))
	require.NoError(t, err)
	_, err = journal.RecordTrade(ctx, sellTrade("ETHUSDT", 3, now))
	require.NoError(t, err)

	count, err := journal.CountSince(ctx, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestJournal_Summary(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := journal.RecordTrade(ctx, &domain.Trade{
		Symbol: "BTCUSDT", Side: domain.Buy, Quantity: 1, Price: 100, ExecutedAt: now,
	})
	require.NoError(t, err)
	_, err = journal.RecordTrade(ctx, sellTrade("BTCUSDT", 10, now))
	require.NoError(t, err)
	_, err = journal.RecordTrade(ctx, sellTrade("ETHUSDT", -4, now))
	require.NoError(t, err)

	summary, err := journal.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.LifetimeTrades)
	assert.Equal(t, 1, summary.LifetimeWins)
	assert.Equal(t, 1, summary.LifetimeLosses)
	assert.InDelta(t, 6.0, summary.TotalPnL, 1e-9)
}

func TestJournal_SummaryEmpty(t *testing.T) {
	journal, cleanup := setupTestDB(t)
	defer cleanup()

	summary, err := journal.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.LifetimeTrades)
	assert.Zero(t, summary.TotalPnL)
}
