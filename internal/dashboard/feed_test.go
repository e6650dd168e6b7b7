package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/portfolio"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestFeed(t *testing.T) (*Feed, *portfolio.Tracker) {
	t.Helper()
	logger := &mockLogger{}
	tracker, err := portfolio.NewTracker(logger, 20, 20)
	require.NoError(t, err)
	feed, err := NewFeed(Config{
		Interval:        10 * time.Millisecond,
		HeatMinStrength: 10,
		HeatTopK:        3,
	}, logger, tracker)
	require.NoError(t, err)
	return feed, tracker
}

func signal(symbol string, dir domain.SignalDirection, strength int) *domain.Signal {
	return &domain.Signal{Symbol: symbol, Direction: dir, Strength: strength}
}

func TestFeed_LatestNilBeforeRefresh(t *testing.T) {
	feed, _ := newTestFeed(t)
	assert.Nil(t, feed.Latest())
}

func TestFeed_RefreshPublishesSnapshot(t *testing.T) {
	feed, tracker := newTestFeed(t)
	tracker.SetEquity(1000, 800)
	tracker.AppendSignal(signal("BTCUSDT", domain.DirectionBuy, 60))

	feed.Refresh()
	snap := feed.Latest()
	require.NotNil(t, snap)
	assert.Equal(t, 1000.0, snap.Stats.Equity)
	require.Len(t, snap.RecentSignals, 1)
	assert.False(t, snap.TakenAt.IsZero())
}

func TestFeed_MarketHeatRanking(t *testing.T) {
	feed, tracker := newTestFeed(t)

	// older reading for BTC is superseded by the newer one
	tracker.AppendSignal(signal("BTCUSDT", domain.DirectionBuy, 90))
	tracker.AppendSignal(signal("ETHUSDT", domain.DirectionSell, 45))
	tracker.AppendSignal(signal("SOLUSDT", domain.DirectionBuy, 70))
	tracker.AppendSignal(signal("ADAUSDT", domain.DirectionNeutral, 0))
	tracker.AppendSignal(signal("XRPUSDT", domain.DirectionBuy, 5)) // below minimum
	tracker.AppendSignal(signal("BTCUSDT", domain.DirectionBuy, 30))
	tracker.AppendSignal(signal("DOGEUSDT", domain.DirectionBuy, 55))

	feed.Refresh()
	heat := feed.Latest().MarketHeat
	require.Len(t, heat, 3)
	assert.Equal(t, "SOLUSDT", heat[0].Symbol)
	assert.Equal(t, 70, heat[0].Strength)
	assert.Equal(t, "DOGEUSDT", heat[1].Symbol)
	assert.Equal(t, "ETHUSDT", heat[2].Symbol)
}

func TestFeed_RunPublishesAndStops(t *testing.T) {
	feed, tracker := newTestFeed(t)
	tracker.AppendSignal(signal("BTCUSDT", domain.DirectionBuy, 60))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(done)
	}()

	// Run publishes immediately, then keeps refreshing on the ticker
	require.Eventually(t, func() bool { return feed.Latest() != nil }, time.Second, time.Millisecond)
	first := feed.Latest()
	require.Eventually(t, func() bool { return feed.Latest() != first }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed did not stop after context cancellation")
	}
}
