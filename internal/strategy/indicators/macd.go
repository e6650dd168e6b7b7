package indicators

import (
	"context"
	"fmt"

	"cryptoSpotBot/internal/domain"
)

// MACDConfig holds configuration for the MACD indicator
type MACDConfig struct {
	FastPeriod   int // e.g. 12
	SlowPeriod   int // e.g. 26
	SignalPeriod int // e.g. 9
}

// MACDValue is the full MACD reading for the latest candle.
type MACDValue struct {
	Line          float64 // fast EMA - slow EMA
	Signal        float64 // EMA of the MACD line
	Histogram     float64 // Line - Signal
	PrevHistogram float64 // Histogram one candle earlier, for crossover detection
}

// MACD implements the Moving Average Convergence Divergence indicator
type MACD struct {
	config MACDConfig
}

// NewMACD creates a new MACD indicator instance
func NewMACD(config MACDConfig) *MACD {
	return &MACD{config: config}
}

// Name returns the name of the indicator
func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.config.FastPeriod, m.config.SlowPeriod, m.config.SignalPeriod)
}

// RequiredDataPoints returns the minimum number of candles needed for calculation
func (m *MACD) RequiredDataPoints() int {
	// The signal line needs SignalPeriod MACD values, the first of which
	// exists once the slow EMA is seeded.
	return m.config.SlowPeriod + m.config.SignalPeriod - 1
}

// Calculate computes the MACD line, signal line and histogram for the latest candle.
func (m *MACD) Calculate(ctx context.Context, candles []*domain.Candle) (*MACDValue, error) {
	required := m.RequiredDataPoints()
	if len(candles) < required {
		return nil, fmt.Errorf("not enough data (%d) to calculate %s: need %d", len(candles), m.Name(), required)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	fast, err := emaSeries(closes, m.config.FastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := emaSeries(closes, m.config.SlowPeriod)
	if err != nil {
		return nil, err
	}

	// The MACD line is defined from the point the slow EMA is seeded.
	macdLine := make([]float64, 0, len(closes)-m.config.SlowPeriod+1)
	for i := m.config.SlowPeriod - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signal, err := emaSeries(macdLine, m.config.SignalPeriod)
	if err != nil {
		return nil, err
	}

	line := macdLine[len(macdLine)-1]
	sig := signal[len(signal)-1]
	hist := line - sig

	// The previous histogram exists once the signal line covers two points.
	// On the minimum window no crossover is detectable yet.
	prevHist := hist
	if len(macdLine) > m.config.SignalPeriod {
		prevHist = macdLine[len(macdLine)-2] - signal[len(signal)-2]
	}

	return &MACDValue{
		Line:          line,
		Signal:        sig,
		Histogram:     hist,
		PrevHistogram: prevHist,
	}, nil
}
