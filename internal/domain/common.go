package domain

// OrderSide represents the side of an order (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// SignalDirection is the direction a composite signal points in.
type SignalDirection string

const (
	DirectionBuy     SignalDirection = "BUY"
	DirectionSell    SignalDirection = "SELL"
	DirectionNeutral SignalDirection = "NEUTRAL"
)

// Side maps a non-neutral direction to the order side it implies.
func (d SignalDirection) Side() OrderSide {
	if d == DirectionSell {
		return Sell
	}
	return Buy
}

// ContributionReason identifies one indicator contribution to a composite
// signal. The set is closed so scoring rules can be matched exhaustively.
type ContributionReason string

const (
	ReasonRSIOversold       ContributionReason = "RSI_OVERSOLD"
	ReasonRSINearOversold   ContributionReason = "RSI_NEAR_OVERSOLD"
	ReasonRSIOverbought     ContributionReason = "RSI_OVERBOUGHT"
	ReasonRSINearOverbought ContributionReason = "RSI_NEAR_OVERBOUGHT"
	ReasonMACDBullish       ContributionReason = "MACD_BULLISH"
	ReasonMACDBearish       ContributionReason = "MACD_BEARISH"
	ReasonMACDBullishCross  ContributionReason = "MACD_BULLISH_CROSS"
	ReasonMACDBearishCross  ContributionReason = "MACD_BEARISH_CROSS"
	ReasonAboveTrend        ContributionReason = "ABOVE_TREND"
	ReasonBelowTrend        ContributionReason = "BELOW_TREND"
	ReasonEMABullish        ContributionReason = "EMA_BULLISH"
	ReasonEMABearish        ContributionReason = "EMA_BEARISH"
	ReasonHighVolume        ContributionReason = "HIGH_VOLUME"
	ReasonElevatedVolume    ContributionReason = "ELEVATED_VOLUME"
	ReasonBullishCandle     ContributionReason = "BULLISH_CANDLE"
	ReasonBearishCandle     ContributionReason = "BEARISH_CANDLE"
)

// contributionPoints is the additive score each reason carries.
var contributionPoints = map[ContributionReason]int{
	ReasonRSIOversold:       30,
	ReasonRSINearOversold:   15,
	ReasonRSIOverbought:     30,
	ReasonRSINearOverbought: 15,
	ReasonMACDBullish:       20,
	ReasonMACDBearish:       20,
	ReasonMACDBullishCross:  15,
	ReasonMACDBearishCross:  15,
	ReasonAboveTrend:        15,
	ReasonBelowTrend:        15,
	ReasonEMABullish:        10,
	ReasonEMABearish:        10,
	ReasonHighVolume:        15,
	ReasonElevatedVolume:    8,
	ReasonBullishCandle:     5,
	ReasonBearishCandle:     5,
}

// Points returns the score contribution for the reason, or 0 for an unknown one.
func (r ContributionReason) Points() int {
	return contributionPoints[r]
}

// IsPrimary reports whether the reason comes from a primary oscillator or
// momentum reading (RSI/MACD). A signal must originate from at least one
// primary contribution; trend and volume alone never produce a direction.
func (r ContributionReason) IsPrimary() bool {
	switch r {
	case ReasonRSIOversold, ReasonRSINearOversold, ReasonRSIOverbought, ReasonRSINearOverbought,
		ReasonMACDBullish, ReasonMACDBearish, ReasonMACDBullishCross, ReasonMACDBearishCross:
		return true
	}
	return false
}
