package discord

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptoSpotBot/internal/domain"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func TestNotifier_DeliversEmbed(t *testing.T) {
	var received webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n, err := New(Config{TradingWebhookURL: server.URL, Logger: &mockLogger{}})
	require.NoError(t, err)

	trade := &domain.Trade{Symbol: "BTCUSDT", Side: domain.Buy, Quantity: 0.5, Price: 100}
	require.NoError(t, n.NotifyTrade(context.Background(), trade, nil))

	require.Len(t, received.Embeds, 1)
	assert.Equal(t, "BUY BTCUSDT", received.Embeds[0].Title)
	assert.NotEmpty(t, received.Embeds[0].Timestamp)
}

func TestNotifier_EmptyURLIsNoOp(t *testing.T) {
	n, err := New(Config{Logger: &mockLogger{}})
	require.NoError(t, err)

	trade := &domain.Trade{Symbol: "BTCUSDT", Side: domain.Buy}
	assert.NoError(t, n.NotifyTrade(context.Background(), trade, nil))
	assert.NoError(t, n.NotifyError(context.Background(), "title", "detail", "BTCUSDT"))
}

func TestNotifier_ErrorStatusSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	n, err := New(Config{ErrorsWebhookURL: server.URL, Logger: &mockLogger{}})
	require.NoError(t, err)

	err = n.NotifyError(context.Background(), "title", "detail", "BTCUSDT")
	assert.Error(t, err)
}
