package domain

import "time"

// PortfolioStats aggregates daily and lifetime trading statistics. Daily
// counters reset on UTC day boundaries.
type PortfolioStats struct {
	Equity           float64
	BuyingPower      float64
	DailyTrades      int
	DailyWins        int
	DailyLosses      int
	DailyPnL         float64
	LifetimeTrades   int
	LifetimeWins     int
	LifetimeLosses   int
	TotalRealizedPnL float64
	LastReset        time.Time // UTC midnight of the current stats day
}

// DailyWinRate returns the percentage of today's closes that were wins.
func (s *PortfolioStats) DailyWinRate() float64 {
	closed := s.DailyWins + s.DailyLosses
	if closed == 0 {
		return 0
	}
	return float64(s.DailyWins) / float64(closed) * 100
}

// LifetimeWinRate returns the percentage of all closes that were wins.
func (s *PortfolioStats) LifetimeWinRate() float64 {
	closed := s.LifetimeWins + s.LifetimeLosses
	if closed == 0 {
		return 0
	}
	return float64(s.LifetimeWins) / float64(closed) * 100
}
