package domain

// OrderProposal is a sized, risk-approved order handed to the executor.
type OrderProposal struct {
	Symbol         string
	Side           OrderSide
	Quantity       float64
	Price          float64 // reference price used for sizing
	Notional       float64 // quantity × price at proposal time
	StopLoss       float64 // advisory, BUY proposals only
	TakeProfit     float64 // advisory, BUY proposals only
	SizeMultiplier float64 // drawdown-protection multiplier applied
	SignalStrength int
}
