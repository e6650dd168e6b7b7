package domain

import "time"

// Contribution is one indicator reading that fired toward a composite signal.
type Contribution struct {
	Reason ContributionReason
	Points int
}

// Signal is the composite trade signal produced for one symbol in one cycle.
// It is immutable once produced.
type Signal struct {
	Symbol        string
	Direction     SignalDirection
	Strength      int // 0..100
	Confirmations int // number of contributions that fired
	Contributions []Contribution
	Price         float64 // latest close at scoring time
	RSI           float64
	MACDHistogram float64
	VolumeRatio   float64
	ATR           float64
	GeneratedAt   time.Time
}

// IsActionable reports whether the signal clears the trade threshold.
func (s *Signal) IsActionable(threshold int) bool {
	return s.Direction != DirectionNeutral && s.Strength >= threshold
}
