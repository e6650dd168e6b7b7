package indicators

import (
	"context"
	"errors"
	"testing"

	"cryptoSpotBot/internal/ports"
)

func TestEngine_Compute(t *testing.T) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("insufficient data", func(t *testing.T) {
		closes := make([]float64, engine.RequiredCandles()-1)
		for i := range closes {
			closes[i] = 100
		}
		_, err := engine.Compute(context.Background(), "BTCUSDT", candlesFromCloses(closes))
		if !errors.Is(err, ports.ErrInsufficientData) {
			t.Fatalf("expected ErrInsufficientData, got %v", err)
		}
	})

	t.Run("full snapshot", func(t *testing.T) {
		closes := make([]float64, engine.RequiredCandles())
		for i := range closes {
			closes[i] = 100 + float64(i)*0.5
		}
		candles := candlesFromCloses(closes)
		candles[len(candles)-1].Volume = 300 // 3x the flat 100 volume

		snap, err := engine.Compute(context.Background(), "BTCUSDT", candles)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if snap.Symbol != "BTCUSDT" {
			t.Errorf("expected symbol BTCUSDT, got %s", snap.Symbol)
		}
		if snap.RSI < 0 || snap.RSI > 100 {
			t.Errorf("RSI %.2f out of range", snap.RSI)
		}
		if snap.SMA20 <= snap.SMA50 {
			t.Errorf("expected SMA20 > SMA50 in an uptrend, got %.2f vs %.2f", snap.SMA20, snap.SMA50)
		}
		if snap.EMA12 <= snap.EMA26 {
			t.Errorf("expected EMA12 > EMA26 in an uptrend, got %.2f vs %.2f", snap.EMA12, snap.EMA26)
		}
		if snap.MACDLine <= 0 {
			t.Errorf("expected positive MACD line in an uptrend, got %.4f", snap.MACDLine)
		}
		if snap.ATR <= 0 || snap.ATRPercent <= 0 {
			t.Errorf("expected positive ATR, got %.4f (%.2f%%)", snap.ATR, snap.ATRPercent)
		}
		if snap.VolumeRatio < 2.5 {
			t.Errorf("expected volume ratio near 3, got %.2f", snap.VolumeRatio)
		}
		if snap.LastClose != closes[len(closes)-1] {
			t.Errorf("expected last close %.2f, got %.2f", closes[len(closes)-1], snap.LastClose)
		}
	})
}

func TestEngine_RequiredCandles(t *testing.T) {
	engine, err := NewEngine(DefaultEngineConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// long SMA (50) dominates every other lookback, plus the previous close
	if got := engine.RequiredCandles(); got != 51 {
		t.Errorf("expected 51 required candles, got %d", got)
	}
}

func TestNewEngine_Validation(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.MACDFast = 26
	cfg.MACDSlow = 12
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected an error for fast >= slow MACD periods")
	}

	cfg = DefaultEngineConfig()
	cfg.ShortSMAPeriod = 50
	cfg.LongSMAPeriod = 20
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected an error for short >= long SMA periods")
	}
}
