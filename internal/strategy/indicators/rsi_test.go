package indicators

import (
	"context"
	"math"
	"testing"
	"time"

	"cryptoSpotBot/internal/domain"
)

func candlesFromCloses(closes []float64) []*domain.Candle {
	now := time.Now()
	candles := make([]*domain.Candle, len(closes))
	for i, c := range closes {
		candles[i] = &domain.Candle{
			OpenTime:  now.Add(time.Duration(i-len(closes)) * time.Minute),
			CloseTime: now.Add(time.Duration(i-len(closes)+1) * time.Minute),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    100,
		}
	}
	return candles
}

func TestRSI_Calculate(t *testing.T) {
	tests := []struct {
		name        string
		period      int
		closes      []float64
		expected    float64
		tolerance   float64
		expectError bool
	}{
		{
			name:        "not enough data",
			period:      14,
			closes:      []float64{100, 101, 102},
			expectError: true,
		},
		{
			name:      "all gains gives max RSI",
			period:    5,
			closes:    []float64{100, 101, 102, 103, 104, 105, 106},
			expected:  100,
			tolerance: 0.001,
		},
		{
			name:      "all losses gives min RSI",
			period:    5,
			closes:    []float64{106, 105, 104, 103, 102, 101, 100},
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "flat series is neutral",
			period:    5,
			closes:    []float64{100, 100, 100, 100, 100, 100, 100},
			expected:  50,
			tolerance: 0.001,
		},
		{
			name:   "alternating gains and losses stays mid-range",
			period: 4,
			closes: []float64{100, 102, 100, 102, 100, 102, 100, 102},
			// equal average gain and loss keeps RSI near 50
			expected:  50,
			tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := NewRSI(RSIConfig{IndicatorConfig: IndicatorConfig{Period: tt.period}})
			value, err := rsi.Calculate(context.Background(), candlesFromCloses(tt.closes))

			if tt.expectError {
				if err == nil {
					t.Fatal("expected an error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(value-tt.expected) > tt.tolerance {
				t.Errorf("expected RSI near %.2f, got %.2f", tt.expected, value)
			}
			if value < 0 || value > 100 {
				t.Errorf("RSI %.2f out of [0,100]", value)
			}
		})
	}
}

func TestRSI_RequiredDataPoints(t *testing.T) {
	rsi := NewRSI(RSIConfig{IndicatorConfig: IndicatorConfig{Period: 14}})
	if got := rsi.RequiredDataPoints(); got != 15 {
		t.Errorf("expected 15 required data points, got %d", got)
	}
}
