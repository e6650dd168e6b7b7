package indicators

import (
	"context"
	"math"
	"testing"
)

func TestMACD_Calculate(t *testing.T) {
	cfg := MACDConfig{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}
	macd := NewMACD(cfg)

	t.Run("insufficient data", func(t *testing.T) {
		closes := make([]float64, macd.RequiredDataPoints()-1)
		for i := range closes {
			closes[i] = 100
		}
		if _, err := macd.Calculate(context.Background(), candlesFromCloses(closes)); err == nil {
			t.Fatal("expected an error for insufficient data")
		}
	})

	t.Run("flat series is zero", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 100
		}
		v, err := macd.Calculate(context.Background(), candlesFromCloses(closes))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if math.Abs(v.Line) > 1e-9 || math.Abs(v.Signal) > 1e-9 || math.Abs(v.Histogram) > 1e-9 {
			t.Errorf("expected zero MACD on a flat series, got %+v", v)
		}
	})

	t.Run("uptrend is bullish", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 100 + float64(i)
		}
		v, err := macd.Calculate(context.Background(), candlesFromCloses(closes))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Line <= 0 {
			t.Errorf("expected positive MACD line in an uptrend, got %f", v.Line)
		}
		if math.Abs(v.Histogram-(v.Line-v.Signal)) > 1e-9 {
			t.Errorf("histogram must equal line minus signal, got %+v", v)
		}
	})

	t.Run("downtrend is bearish", func(t *testing.T) {
		closes := make([]float64, 60)
		for i := range closes {
			closes[i] = 200 - float64(i)
		}
		v, err := macd.Calculate(context.Background(), candlesFromCloses(closes))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.Line >= 0 {
			t.Errorf("expected negative MACD line in a downtrend, got %f", v.Line)
		}
	})
}

func TestMACD_RequiredDataPoints(t *testing.T) {
	macd := NewMACD(MACDConfig{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9})
	if got := macd.RequiredDataPoints(); got != 34 {
		t.Errorf("expected 34 required data points, got %d", got)
	}
}
