package scoring

import (
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/strategy/indicators"
)

// Thresholds used by the composite scorer.
const (
	rsiOversold       = 30.0
	rsiNearOversold   = 40.0
	rsiOverbought     = 70.0
	rsiNearOverbought = 60.0
	maxStrength       = 100
)

// Config holds the tunable parts of signal scoring.
type Config struct {
	HighVolumeRatio     float64 // volume ratio for the strong volume credit (default 1.5)
	ElevatedVolumeRatio float64 // volume ratio for the weak volume credit (default 1.2)
	MinConfirmations    int     // confirmations needed to avoid the quality penalty (default 3)
	QualityPenalty      float64 // strength multiplier under MinConfirmations (default 0.7)
}

// Scorer combines an indicator snapshot into one composite signal.
// It holds no per-symbol state.
type Scorer struct {
	cfg Config
}

// New creates a scorer. Zero config values fall back to defaults.
func New(cfg Config) *Scorer {
	if cfg.HighVolumeRatio <= 0 {
		cfg.HighVolumeRatio = 1.5
	}
	if cfg.ElevatedVolumeRatio <= 0 {
		cfg.ElevatedVolumeRatio = 1.2
	}
	if cfg.MinConfirmations <= 0 {
		cfg.MinConfirmations = 3
	}
	if cfg.QualityPenalty <= 0 {
		cfg.QualityPenalty = 0.7
	}
	return &Scorer{cfg: cfg}
}

// Score produces the composite signal for one snapshot. A signal must
// originate from a primary oscillator reading (RSI or MACD): trend, volume
// and price action only ever confirm an existing direction. Equal primary
// totals on both sides resolve to NEUTRAL.
func (s *Scorer) Score(snap *indicators.Snapshot) *domain.Signal {
	buyPrimary := primaryContributions(snap, domain.DirectionBuy)
	sellPrimary := primaryContributions(snap, domain.DirectionSell)

	buyPoints := sumPoints(buyPrimary)
	sellPoints := sumPoints(sellPrimary)

	sig := &domain.Signal{
		Symbol:        snap.Symbol,
		Direction:     domain.DirectionNeutral,
		Price:         snap.LastClose,
		RSI:           snap.RSI,
		MACDHistogram: snap.MACDHistogram,
		VolumeRatio:   snap.VolumeRatio,
		ATR:           snap.ATR,
		GeneratedAt:   time.Now().UTC(),
	}

	if buyPoints == sellPoints {
		// covers both "no primary fired" and a genuine tie
		return sig
	}

	var contributions []domain.Contribution
	if buyPoints > sellPoints {
		sig.Direction = domain.DirectionBuy
		contributions = buyPrimary
	} else {
		sig.Direction = domain.DirectionSell
		contributions = sellPrimary
	}
	contributions = append(contributions, confirmingContributions(snap, sig.Direction, s.cfg)...)

	strength := sumPoints(contributions)
	if len(contributions) < s.cfg.MinConfirmations {
		// quality penalty applies before the cap
		strength = int(float64(strength) * s.cfg.QualityPenalty)
	}
	if strength > maxStrength {
		strength = maxStrength
	}

	sig.Strength = strength
	sig.Confirmations = len(contributions)
	sig.Contributions = contributions
	return sig
}

// primaryContributions collects the RSI and MACD contributions firing toward
// one direction.
func primaryContributions(snap *indicators.Snapshot, dir domain.SignalDirection) []domain.Contribution {
	var out []domain.Contribution
	add := func(r domain.ContributionReason) {
		out = append(out, domain.Contribution{Reason: r, Points: r.Points()})
	}

	switch dir {
	case domain.DirectionBuy:
		if snap.RSI < rsiOversold {
			add(domain.ReasonRSIOversold)
		} else if snap.RSI < rsiNearOversold {
			add(domain.ReasonRSINearOversold)
		}
		if snap.MACDHistogram > 0 {
			add(domain.ReasonMACDBullish)
			if snap.PrevMACDHist <= 0 {
				add(domain.ReasonMACDBullishCross)
			}
		}
	case domain.DirectionSell:
		if snap.RSI > rsiOverbought {
			add(domain.ReasonRSIOverbought)
		} else if snap.RSI > rsiNearOverbought {
			add(domain.ReasonRSINearOverbought)
		}
		if snap.MACDHistogram < 0 {
			add(domain.ReasonMACDBearish)
			if snap.PrevMACDHist >= 0 {
				add(domain.ReasonMACDBearishCross)
			}
		}
	}
	return out
}

// confirmingContributions collects the trend, volume and price-action credits
// agreeing with an already-established direction.
func confirmingContributions(snap *indicators.Snapshot, dir domain.SignalDirection, cfg Config) []domain.Contribution {
	var out []domain.Contribution
	add := func(r domain.ContributionReason) {
		out = append(out, domain.Contribution{Reason: r, Points: r.Points()})
	}

	switch dir {
	case domain.DirectionBuy:
		if snap.LastClose > snap.SMA20 && snap.LastClose > snap.SMA50 {
			add(domain.ReasonAboveTrend)
		}
		if snap.EMA12 > snap.EMA26 {
			add(domain.ReasonEMABullish)
		}
		if snap.LastClose > snap.LastOpen {
			add(domain.ReasonBullishCandle)
		}
	case domain.DirectionSell:
		if snap.LastClose < snap.SMA20 && snap.LastClose < snap.SMA50 {
			add(domain.ReasonBelowTrend)
		}
		if snap.EMA12 < snap.EMA26 {
			add(domain.ReasonEMABearish)
		}
		if snap.LastClose < snap.LastOpen {
			add(domain.ReasonBearishCandle)
		}
	}

	if snap.VolumeRatio > cfg.HighVolumeRatio {
		add(domain.ReasonHighVolume)
	} else if snap.VolumeRatio > cfg.ElevatedVolumeRatio {
		add(domain.ReasonElevatedVolume)
	}
	return out
}

func sumPoints(contributions []domain.Contribution) int {
	total := 0
	for _, c := range contributions {
		total += c.Points
	}
	return total
}
