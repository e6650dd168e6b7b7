package domain

import "time"

// Position represents an open spot holding. At most one position exists per
// symbol at any time.
type Position struct {
	Symbol     string    // Trading symbol (e.g., "BTCUSDT")
	Quantity   float64   // Size of the position in base asset
	EntryPrice float64   // Average price at which the position was entered
	EntryTime  time.Time // Timestamp when the position was entered
	StopLoss   float64   // Advisory stop-loss price level
	TakeProfit float64   // Advisory take-profit price level

	// Refreshed from ticker prices between fills.
	CurrentPrice     float64
	UnrealizedPnL    float64
	UnrealizedPnLPct float64
}

// RefreshMark updates the position's mark price and unrealized P/L.
func (p *Position) RefreshMark(price float64) {
	p.CurrentPrice = price
	p.UnrealizedPnL = (price - p.EntryPrice) * p.Quantity
	if p.EntryPrice > 0 {
		p.UnrealizedPnLPct = (price - p.EntryPrice) / p.EntryPrice * 100
	}
}
