package ports

import (
	"context"
	"time"

	"cryptoSpotBot/internal/domain"
)

// OrderFill represents the essential details returned after an order executes.
type OrderFill struct {
	OrderID       int64            // Exchange's order ID
	ClientOrderID string           // Client-generated order ID sent with the request
	Symbol        string           // Symbol for the order
	Side          domain.OrderSide // Order side (BUY, SELL)
	AvgPrice      float64          // Average filled price
	ExecutedQty   float64          // Quantity filled
	Status        string           // Order status (e.g., FILLED)
	Timestamp     time.Time        // Time the fill was reported
}

// AssetBalance is the free amount of one asset held on the account.
type AssetBalance struct {
	Asset string
	Free  float64
}

// ExchangeClient defines the interface for interacting with a spot exchange.
// The core engine depends only on this abstraction.
type ExchangeClient interface {
	// Ping checks the connectivity to the exchange API.
	Ping(ctx context.Context) error

	// GetServerTime retrieves the current server time from the exchange.
	GetServerTime(ctx context.Context) (time.Time, error)

	// GetCandles retrieves the most recent candles for the symbol, in
	// chronological order with no duplicate timestamps.
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)

	// GetTickerPrice retrieves the last traded price for a symbol.
	GetTickerPrice(ctx context.Context, symbol string) (float64, error)

	// GetBuyingPower retrieves the free balance of the quote asset (e.g. "USDT").
	GetBuyingPower(ctx context.Context, asset string) (float64, error)

	// GetBalances retrieves all non-zero asset balances on the account.
	GetBalances(ctx context.Context) ([]AssetBalance, error)

	// SubmitMarketOrder places a market order and returns the fill details.
	// Errors wrap the standard taxonomy so callers can distinguish transient
	// failures from permanent rejections.
	SubmitMarketOrder(ctx context.Context, symbol string, side domain.OrderSide, quantity float64, clientOrderID string) (*OrderFill, error)
}
