package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"
)

const (
	colorGreen  = 0x2ecc71
	colorRed    = 0xe74c3c
	colorBlue   = 0x3498db
	colorOrange = 0xe67e22
)

// Notifier implements ports.Notifier using Discord webhooks. Each event
// class has its own webhook; an empty URL silently disables that class.
type Notifier struct {
	tradingURL string
	errorsURL  string
	summaryURL string
	client     *http.Client
	logger     ports.Logger
}

// Config holds the webhook URLs. All of them are optional.
type Config struct {
	TradingWebhookURL string
	ErrorsWebhookURL  string
	SummaryWebhookURL string
	Timeout           time.Duration
	Logger            ports.Logger
}

// New creates a Discord notifier.
func New(cfg Config) (*Notifier, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Discord notifier")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		tradingURL: cfg.TradingWebhookURL,
		errorsURL:  cfg.ErrorsWebhookURL,
		summaryURL: cfg.SummaryWebhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     cfg.Logger,
	}, nil
}

// embed is the subset of Discord's embed object the notifier uses.
type embed struct {
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Color       int     `json:"color"`
	Fields      []field `json:"fields,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

type field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// NotifyStartup announces the engine starting with its initial equity and symbols.
func (n *Notifier) NotifyStartup(ctx context.Context, equity float64, symbols []string) error {
	return n.send(ctx, n.tradingURL, embed{
		Title: "Engine started",
		Color: colorBlue,
		Fields: []field{
			{Name: "Equity", Value: fmt.Sprintf("$%.2f", equity), Inline: true},
			{Name: "Symbols", Value: fmt.Sprintf("%d monitored", len(symbols)), Inline: true},
		},
	})
}

// NotifyTrade announces a filled order.
func (n *Notifier) NotifyTrade(ctx context.Context, trade *domain.Trade, signal *domain.Signal) error {
	e := embed{
		Title: fmt.Sprintf("%s %s", trade.Side, trade.Symbol),
		Color: colorGreen,
		Fields: []field{
			{Name: "Quantity", Value: fmt.Sprintf("%g", trade.Quantity), Inline: true},
			{Name: "Price", Value: fmt.Sprintf("$%.4f", trade.Price), Inline: true},
		},
	}
	if signal != nil {
		e.Fields = append(e.Fields, field{
			Name:   "Signal",
			Value:  fmt.Sprintf("%s %d (%d confirmations)", signal.Direction, signal.Strength, signal.Confirmations),
			Inline: true,
		})
	}
	return n.send(ctx, n.tradingURL, e)
}

// NotifyClose announces a closed position with its realized P/L.
func (n *Notifier) NotifyClose(ctx context.Context, trade *domain.Trade) error {
	color := colorGreen
	if trade.RealizedPnL < 0 {
		color = colorRed
	}
	return n.send(ctx, n.tradingURL, embed{
		Title: fmt.Sprintf("Closed %s", trade.Symbol),
		Color: color,
		Fields: []field{
			{Name: "Quantity", Value: fmt.Sprintf("%g", trade.Quantity), Inline: true},
			{Name: "Exit", Value: fmt.Sprintf("$%.4f", trade.Price), Inline: true},
			{Name: "P/L", Value: fmt.Sprintf("$%.2f (%.2f%%)", trade.RealizedPnL, trade.RealizedPct), Inline: true},
		},
	})
}

// NotifyError announces a failure worth human attention.
func (n *Notifier) NotifyError(ctx context.Context, title, detail, symbol string) error {
	e := embed{
		Title:       title,
		Description: detail,
		Color:       colorOrange,
	}
	if symbol != "" {
		e.Fields = []field{{Name: "Symbol", Value: symbol, Inline: true}}
	}
	return n.send(ctx, n.errorsURL, e)
}

// NotifyDailySummary sends the once-a-day stats digest.
func (n *Notifier) NotifyDailySummary(ctx context.Context, stats *domain.PortfolioStats, openPositions int) error {
	return n.send(ctx, n.summaryURL, embed{
		Title: "Daily summary",
		Color: colorBlue,
		Fields: []field{
			{Name: "Equity", Value: fmt.Sprintf("$%.2f", stats.Equity), Inline: true},
			{Name: "Open positions", Value: fmt.Sprintf("%d", openPositions), Inline: true},
			{Name: "Trades today", Value: fmt.Sprintf("%d", stats.DailyTrades), Inline: true},
			{Name: "Daily P/L", Value: fmt.Sprintf("$%.2f", stats.DailyPnL), Inline: true},
			{Name: "Win rate", Value: fmt.Sprintf("%.1f%%", stats.DailyWinRate()), Inline: true},
			{Name: "Lifetime P/L", Value: fmt.Sprintf("$%.2f", stats.TotalRealizedPnL), Inline: true},
		},
	})
}

// NotifyShutdown announces a graceful stop.
func (n *Notifier) NotifyShutdown(ctx context.Context, stats *domain.PortfolioStats) error {
	return n.send(ctx, n.tradingURL, embed{
		Title: "Engine stopped",
		Color: colorBlue,
		Fields: []field{
			{Name: "Trades today", Value: fmt.Sprintf("%d", stats.DailyTrades), Inline: true},
			{Name: "Daily P/L", Value: fmt.Sprintf("$%.2f", stats.DailyPnL), Inline: true},
		},
	})
}

func (n *Notifier) send(ctx context.Context, url string, e embed) error {
	if url == "" {
		return nil
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)

	body, err := json.Marshal(webhookPayload{Embeds: []embed{e}})
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: posting webhook: %v", ports.ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: discord webhook rate limited", ports.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("discord webhook returned status %d", resp.StatusCode)
	}
	n.logger.Debug(ctx, "Webhook delivered", map[string]interface{}{"title": e.Title})
	return nil
}
