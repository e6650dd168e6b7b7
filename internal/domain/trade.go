package domain

import "time"

// Trade is an immutable record of one filled order. SELL trades close a
// position and carry the realized P/L; BUY trades open one and carry none.
type Trade struct {
	ID            int64     // Assigned by the journal, 0 if not persisted
	Symbol        string    // Trading symbol
	Side          OrderSide // BUY or SELL
	Quantity      float64   // Filled quantity
	Price         float64   // Average fill price
	EntryPrice    float64   // Entry price of the position closed (SELL only)
	RealizedPnL   float64   // Realized profit/loss (SELL only)
	RealizedPct   float64   // Realized P/L as percent of entry (SELL only)
	ExecutedAt    time.Time // Fill timestamp
	OrderID       int64     // Exchange order ID
	ClientOrderID string    // Client-generated order ID
}

// IsWin reports whether a closing trade realized a profit.
func (t *Trade) IsWin() bool {
	return t.Side == Sell && t.RealizedPnL > 0
}
