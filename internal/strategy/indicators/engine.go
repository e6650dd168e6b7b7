package indicators

import (
	"context"
	"fmt"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"
)

// Snapshot holds every indicator value derived from the most recent candles
// of one symbol at one point in time. It is recomputed each cycle and never
// mutated.
type Snapshot struct {
	Symbol        string
	RSI           float64
	MACDLine      float64
	MACDSignal    float64
	MACDHistogram float64
	PrevMACDHist  float64
	SMA20         float64
	SMA50         float64
	EMA12         float64
	EMA26         float64
	ATR           float64
	ATRPercent    float64 // ATR as a percent of the latest close
	VolumeRatio   float64 // latest volume over the rolling average volume
	LastOpen      float64
	LastClose     float64
	Timestamp     time.Time
}

// EngineConfig holds the lookback periods for every indicator in a snapshot.
type EngineConfig struct {
	RSIPeriod       int // default 14
	MACDFast        int // default 12
	MACDSlow        int // default 26
	MACDSignal      int // default 9
	ShortSMAPeriod  int // default 20
	LongSMAPeriod   int // default 50
	FastEMAPeriod   int // default 12
	SlowEMAPeriod   int // default 26
	ATRPeriod       int // default 14
	VolumeAvgPeriod int // default 20
}

// DefaultEngineConfig returns the standard periods (RSI 14, MACD 12/26/9,
// SMA 20/50, EMA 12/26, ATR 14, volume average 20).
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		ShortSMAPeriod:  20,
		LongSMAPeriod:   50,
		FastEMAPeriod:   12,
		SlowEMAPeriod:   26,
		ATRPeriod:       14,
		VolumeAvgPeriod: 20,
	}
}

// Engine computes full indicator snapshots. It holds no state between calls.
type Engine struct {
	cfg      EngineConfig
	rsi      *RSI
	macd     *MACD
	shortSMA *MovingAverage
	longSMA  *MovingAverage
	fastEMA  *MovingAverage
	slowEMA  *MovingAverage
	atr      *ATR
}

// NewEngine creates an indicator engine. Zero periods fall back to defaults.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	def := DefaultEngineConfig()
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = def.RSIPeriod
	}
	if cfg.MACDFast <= 0 {
		cfg.MACDFast = def.MACDFast
	}
	if cfg.MACDSlow <= 0 {
		cfg.MACDSlow = def.MACDSlow
	}
	if cfg.MACDSignal <= 0 {
		cfg.MACDSignal = def.MACDSignal
	}
	if cfg.ShortSMAPeriod <= 0 {
		cfg.ShortSMAPeriod = def.ShortSMAPeriod
	}
	if cfg.LongSMAPeriod <= 0 {
		cfg.LongSMAPeriod = def.LongSMAPeriod
	}
	if cfg.FastEMAPeriod <= 0 {
		cfg.FastEMAPeriod = def.FastEMAPeriod
	}
	if cfg.SlowEMAPeriod <= 0 {
		cfg.SlowEMAPeriod = def.SlowEMAPeriod
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = def.ATRPeriod
	}
	if cfg.VolumeAvgPeriod <= 0 {
		cfg.VolumeAvgPeriod = def.VolumeAvgPeriod
	}
	if cfg.MACDFast >= cfg.MACDSlow {
		return nil, fmt.Errorf("MACD fast period (%d) must be less than slow period (%d)", cfg.MACDFast, cfg.MACDSlow)
	}
	if cfg.ShortSMAPeriod >= cfg.LongSMAPeriod {
		return nil, fmt.Errorf("short SMA period (%d) must be less than long SMA period (%d)", cfg.ShortSMAPeriod, cfg.LongSMAPeriod)
	}

	return &Engine{
		cfg:  cfg,
		rsi:  NewRSI(RSIConfig{IndicatorConfig: IndicatorConfig{Period: cfg.RSIPeriod}}),
		macd: NewMACD(MACDConfig{FastPeriod: cfg.MACDFast, SlowPeriod: cfg.MACDSlow, SignalPeriod: cfg.MACDSignal}),
		shortSMA: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: cfg.ShortSMAPeriod},
			Type:            SimpleMovingAverage,
		}),
		longSMA: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: cfg.LongSMAPeriod},
			Type:            SimpleMovingAverage,
		}),
		fastEMA: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: cfg.FastEMAPeriod},
			Type:            ExponentialMovingAverage,
		}),
		slowEMA: NewMovingAverage(MovingAverageConfig{
			IndicatorConfig: IndicatorConfig{Period: cfg.SlowEMAPeriod},
			Type:            ExponentialMovingAverage,
		}),
		atr: NewATR(ATRConfig{IndicatorConfig: IndicatorConfig{Period: cfg.ATRPeriod}}),
	}, nil
}

// RequiredCandles returns the minimum candle count for a full snapshot.
func (e *Engine) RequiredCandles() int {
	required := e.cfg.LongSMAPeriod
	if n := e.macd.RequiredDataPoints(); n > required {
		required = n
	}
	if n := e.rsi.RequiredDataPoints(); n > required {
		required = n
	}
	if n := e.atr.RequiredDataPoints(); n > required {
		required = n
	}
	// one extra candle so RSI and ATR have a previous close to diff against
	return required + 1
}

// Compute derives a full snapshot from the latest candles. Candles must be in
// chronological order. Fewer candles than RequiredCandles yields
// ports.ErrInsufficientData; the caller skips the symbol for the cycle.
func (e *Engine) Compute(ctx context.Context, symbol string, candles []*domain.Candle) (*Snapshot, error) {
	required := e.RequiredCandles()
	if len(candles) < required {
		return nil, fmt.Errorf("%w: %s has %d candles, need %d", ports.ErrInsufficientData, symbol, len(candles), required)
	}

	rsi, err := e.rsi.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	macd, err := e.macd.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	sma20, err := e.shortSMA.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("sma%d: %w", e.cfg.ShortSMAPeriod, err)
	}
	sma50, err := e.longSMA.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("sma%d: %w", e.cfg.LongSMAPeriod, err)
	}
	ema12, err := e.fastEMA.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("ema%d: %w", e.cfg.FastEMAPeriod, err)
	}
	ema26, err := e.slowEMA.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("ema%d: %w", e.cfg.SlowEMAPeriod, err)
	}
	atr, err := e.atr.Calculate(ctx, candles)
	if err != nil {
		return nil, fmt.Errorf("atr: %w", err)
	}

	last := candles[len(candles)-1]

	avgVolume := 0.0
	for i := len(candles) - e.cfg.VolumeAvgPeriod; i < len(candles); i++ {
		avgVolume += candles[i].Volume
	}
	avgVolume /= float64(e.cfg.VolumeAvgPeriod)
	volumeRatio := 0.0
	if avgVolume > 0 {
		volumeRatio = last.Volume / avgVolume
	}

	atrPercent := 0.0
	if last.Close > 0 {
		atrPercent = atr / last.Close * 100
	}

	return &Snapshot{
		Symbol:        symbol,
		RSI:           rsi,
		MACDLine:      macd.Line,
		MACDSignal:    macd.Signal,
		MACDHistogram: macd.Histogram,
		PrevMACDHist:  macd.PrevHistogram,
		SMA20:         sma20,
		SMA50:         sma50,
		EMA12:         ema12,
		EMA26:         ema26,
		ATR:           atr,
		ATRPercent:    atrPercent,
		VolumeRatio:   volumeRatio,
		LastOpen:      last.Open,
		LastClose:     last.Close,
		Timestamp:     last.CloseTime,
	}, nil
}
