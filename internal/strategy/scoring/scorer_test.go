package scoring

import (
	"testing"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/strategy/indicators"
)

// neutralSnapshot returns a snapshot where nothing fires toward either side.
func neutralSnapshot() *indicators.Snapshot {
	return &indicators.Snapshot{
		Symbol:        "BTCUSDT",
		RSI:           50,
		MACDHistogram: 0,
		PrevMACDHist:  0,
		SMA20:         110,
		SMA50:         112,
		EMA12:         95,
		EMA26:         95,
		LastOpen:      100,
		LastClose:     100,
		VolumeRatio:   1.0,
		ATR:           1.0,
	}
}

func TestScorer_NoPrimaryIsNeutral(t *testing.T) {
	scorer := New(Config{})

	// strong trend and volume, but no RSI/MACD contribution at all
	snap := neutralSnapshot()
	snap.LastClose = 120
	snap.LastOpen = 118
	snap.EMA12 = 100
	snap.EMA26 = 95
	snap.VolumeRatio = 2.0

	sig := scorer.Score(snap)
	if sig.Direction != domain.DirectionNeutral {
		t.Errorf("expected NEUTRAL without a primary contribution, got %s", sig.Direction)
	}
	if sig.Strength != 0 {
		t.Errorf("expected strength 0, got %d", sig.Strength)
	}
}

func TestScorer_QualityPenalty(t *testing.T) {
	scorer := New(Config{})

	t.Run("one confirmation", func(t *testing.T) {
		snap := neutralSnapshot()
		snap.RSI = 25 // RSI oversold, +30, nothing else fires for BUY
		snap.EMA12 = 90
		snap.EMA26 = 95

		sig := scorer.Score(snap)
		if sig.Direction != domain.DirectionBuy {
			t.Fatalf("expected BUY, got %s", sig.Direction)
		}
		if sig.Confirmations != 1 {
			t.Fatalf("expected 1 confirmation, got %d", sig.Confirmations)
		}
		if sig.Strength != 21 { // int(30 * 0.7)
			t.Errorf("expected penalized strength 21, got %d", sig.Strength)
		}
	})

	t.Run("two confirmations", func(t *testing.T) {
		snap := neutralSnapshot()
		snap.RSI = 25
		snap.EMA12 = 90
		snap.EMA26 = 95
		snap.LastOpen = 99 // bullish candle, +5

		sig := scorer.Score(snap)
		if sig.Confirmations != 2 {
			t.Fatalf("expected 2 confirmations, got %d", sig.Confirmations)
		}
		if sig.Strength != 24 { // int(35 * 0.7)
			t.Errorf("expected penalized strength 24, got %d", sig.Strength)
		}
	})

	t.Run("three confirmations escape the penalty", func(t *testing.T) {
		snap := neutralSnapshot()
		snap.RSI = 25
		snap.EMA12 = 90
		snap.EMA26 = 95
		snap.LastOpen = 99
		snap.VolumeRatio = 1.3 // elevated volume, +8

		sig := scorer.Score(snap)
		if sig.Confirmations != 3 {
			t.Fatalf("expected 3 confirmations, got %d", sig.Confirmations)
		}
		if sig.Strength != 43 { // 30 + 5 + 8, unpenalized
			t.Errorf("expected strength 43, got %d", sig.Strength)
		}
	})
}

func TestScorer_StrengthCap(t *testing.T) {
	scorer := New(Config{})

	snap := neutralSnapshot()
	snap.RSI = 25            // +30
	snap.MACDHistogram = 0.5 // +20
	snap.PrevMACDHist = -0.1 // fresh cross, +15
	snap.SMA20 = 95
	snap.SMA50 = 90 // above trend, +15
	snap.EMA12 = 101
	snap.EMA26 = 99 // EMA bullish, +10
	snap.LastOpen = 98
	snap.LastClose = 100   // bullish candle, +5
	snap.VolumeRatio = 2.0 // high volume, +15

	sig := scorer.Score(snap)
	if sig.Direction != domain.DirectionBuy {
		t.Fatalf("expected BUY, got %s", sig.Direction)
	}
	if sig.Confirmations != 7 {
		t.Errorf("expected 7 confirmations, got %d", sig.Confirmations)
	}
	if sig.Strength != 100 { // 110 capped
		t.Errorf("expected capped strength 100, got %d", sig.Strength)
	}
}

func TestScorer_SellSide(t *testing.T) {
	scorer := New(Config{})

	snap := neutralSnapshot()
	snap.RSI = 75             // +30 SELL
	snap.MACDHistogram = -0.4 // +20 SELL
	snap.PrevMACDHist = -0.6  // no fresh cross
	snap.SMA20 = 105
	snap.SMA50 = 108 // below trend, +15
	snap.EMA12 = 92
	snap.EMA26 = 95 // EMA bearish, +10
	snap.LastOpen = 101
	snap.LastClose = 100 // bearish candle, +5

	sig := scorer.Score(snap)
	if sig.Direction != domain.DirectionSell {
		t.Fatalf("expected SELL, got %s", sig.Direction)
	}
	if sig.Strength != 80 { // 30+20+15+10+5
		t.Errorf("expected strength 80, got %d", sig.Strength)
	}
	if sig.Confirmations != 5 {
		t.Errorf("expected 5 confirmations, got %d", sig.Confirmations)
	}
}

func TestScorer_ConflictingPrimariesPickDominant(t *testing.T) {
	scorer := New(Config{})

	// oversold RSI (BUY +30) against a bearish MACD (SELL +20)
	snap := neutralSnapshot()
	snap.RSI = 25
	snap.MACDHistogram = -0.2
	snap.PrevMACDHist = -0.3
	snap.EMA12 = 90
	snap.EMA26 = 95

	sig := scorer.Score(snap)
	if sig.Direction != domain.DirectionBuy {
		t.Errorf("expected BUY to dominate, got %s", sig.Direction)
	}
	for _, c := range sig.Contributions {
		if c.Reason == domain.ReasonMACDBearish {
			t.Error("losing-side contribution leaked into the signal")
		}
	}
}

func TestScorer_BoundsInvariant(t *testing.T) {
	scorer := New(Config{})

	snaps := []*indicators.Snapshot{
		neutralSnapshot(),
		{Symbol: "X", RSI: 25, MACDHistogram: 1, PrevMACDHist: -1, SMA20: 1, SMA50: 1, EMA12: 2, EMA26: 1, LastOpen: 1, LastClose: 2, VolumeRatio: 3},
		{Symbol: "X", RSI: 99, MACDHistogram: -1, PrevMACDHist: 1, SMA20: 9, SMA50: 9, EMA12: 1, EMA26: 2, LastOpen: 2, LastClose: 1, VolumeRatio: 3},
	}
	for _, snap := range snaps {
		sig := scorer.Score(snap)
		if sig.Strength < 0 || sig.Strength > 100 {
			t.Errorf("strength %d out of [0,100]", sig.Strength)
		}
		if sig.Strength == 0 && sig.Direction != domain.DirectionNeutral {
			t.Errorf("zero strength must be NEUTRAL, got %s", sig.Direction)
		}
	}
}
