package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cryptoSpotBot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Market Data
	Symbols        []string // Symbols monitored every cycle, e.g. ["BTCUSDT", "ETHUSDT"]
	QuoteAsset     string   // Quote asset used for notional/balance checks (e.g. "USDT")
	CandleInterval string   // Candle interval fetched per cycle (e.g. "5m")
	CandleLookback int      // Candles fetched per symbol, must cover the longest indicator window

	// Scheduling
	CycleInterval     time.Duration // Analysis cycle period (e.g. 60s)
	DashboardInterval time.Duration // Dashboard snapshot refresh period (e.g. 1s)

	// Signal Scoring
	TradeThreshold int // Minimum signal strength to act on (default 55)

	// Risk Parameters
	BasePositionSizePercent float64       // Percent of equity per position (e.g. 5.0)
	BaseStopLossPercent     float64       // Floor for the ATR-scaled stop distance (e.g. 2.0)
	BaseTakeProfitPercent   float64       // Floor for the ATR-scaled take-profit distance (e.g. 4.0)
	MaxStopLossPercent      float64       // Clamp for the stop distance (e.g. 5.0)
	MaxTakeProfitPercent    float64       // Clamp for the take-profit distance (e.g. 10.0)
	MinNotional             float64       // Minimum order value in quote currency
	MaxOpenPositions        int           // Maximum concurrent open positions
	SymbolCooldown          time.Duration // Lock window after an accepted proposal (default 60s)

	// Execution
	RateLimitInterval time.Duration // Minimum spacing between order submissions
	RetryAttempts     int           // Bounded retry attempts for transient failures
	RetryBaseDelay    time.Duration // Initial backoff delay between attempts

	// Dashboard
	SignalHistorySize int // Capacity of the bounded signal history
	TradeHistorySize  int // Capacity of the bounded trade history
	HeatMinStrength   int // Minimum strength for the market heat view
	HeatTopK          int // Market heat entries cap

	// Database
	DBPath string // Trade journal path, empty disables persistence

	// Notifications
	DiscordWebhookTrading string
	DiscordWebhookErrors  string
	DiscordWebhookSummary string
	DailySummaryTime      string // Local "HH:MM" for the daily summary

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", true) // Default to testnet for safety

	if cfg.APIKey == "" {
		errs = append(errs, "BINANCE_API_KEY must be set")
	}
	if cfg.SecretKey == "" {
		errs = append(errs, "BINANCE_API_SECRET must be set")
	}

	// Market Data
	symbolsRaw := getEnv("SYMBOLS", "BTCUSDT,ETHUSDT,SOLUSDT")
	for _, s := range strings.Split(symbolsRaw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			cfg.Symbols = append(cfg.Symbols, strings.ToUpper(s))
		}
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one symbol")
	}

	cfg.QuoteAsset = getEnv("QUOTE_ASSET", "USDT")
	cfg.CandleInterval = getEnv("CANDLE_INTERVAL", "5m")
	cfg.CandleLookback = getEnvAsInt("CANDLE_LOOKBACK", 100)
	if cfg.CandleLookback < 51 {
		// SMA50 plus the previous close needed for RSI/ATR true ranges
		errs = append(errs, "CANDLE_LOOKBACK must be at least 51")
	}

	// Scheduling
	cycleSeconds := getEnvAsInt("CYCLE_INTERVAL_SECONDS", 60)
	if cycleSeconds <= 0 {
		errs = append(errs, "CYCLE_INTERVAL_SECONDS must be positive")
	}
	cfg.CycleInterval = time.Duration(cycleSeconds) * time.Second

	dashMillis := getEnvAsInt("DASHBOARD_INTERVAL_MS", 1000)
	if dashMillis <= 0 {
		errs = append(errs, "DASHBOARD_INTERVAL_MS must be positive")
	}
	cfg.DashboardInterval = time.Duration(dashMillis) * time.Millisecond

	// Signal Scoring
	cfg.TradeThreshold = getEnvAsInt("TRADE_THRESHOLD", 55)
	if cfg.TradeThreshold <= 0 || cfg.TradeThreshold > 100 {
		errs = append(errs, "TRADE_THRESHOLD must be between 1 and 100")
	}

	// Risk Parameters
	cfg.BasePositionSizePercent, err = getEnvAsFloatRequired("BASE_POSITION_SIZE_PERCENT", 5.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_POSITION_SIZE_PERCENT: %v", err))
	} else if cfg.BasePositionSizePercent <= 0 || cfg.BasePositionSizePercent > 100 {
		errs = append(errs, "BASE_POSITION_SIZE_PERCENT must be between 0 and 100")
	}

	cfg.BaseStopLossPercent, err = getEnvAsFloatRequired("BASE_STOP_LOSS_PERCENT", 2.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_STOP_LOSS_PERCENT: %v", err))
	} else if cfg.BaseStopLossPercent <= 0 {
		errs = append(errs, "BASE_STOP_LOSS_PERCENT must be positive")
	}

	cfg.BaseTakeProfitPercent, err = getEnvAsFloatRequired("BASE_TAKE_PROFIT_PERCENT", 4.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BASE_TAKE_PROFIT_PERCENT: %v", err))
	} else if cfg.BaseTakeProfitPercent <= 0 {
		errs = append(errs, "BASE_TAKE_PROFIT_PERCENT must be positive")
	}

	cfg.MaxStopLossPercent = getEnvAsFloat("MAX_STOP_LOSS_PERCENT", 5.0)
	cfg.MaxTakeProfitPercent = getEnvAsFloat("MAX_TAKE_PROFIT_PERCENT", 10.0)
	if cfg.MaxStopLossPercent < cfg.BaseStopLossPercent {
		errs = append(errs, "MAX_STOP_LOSS_PERCENT must be >= BASE_STOP_LOSS_PERCENT")
	}
	if cfg.MaxTakeProfitPercent < cfg.BaseTakeProfitPercent {
		errs = append(errs, "MAX_TAKE_PROFIT_PERCENT must be >= BASE_TAKE_PROFIT_PERCENT")
	}

	cfg.MinNotional, err = getEnvAsFloatRequired("MIN_NOTIONAL_USD", 10.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MIN_NOTIONAL_USD: %v", err))
	} else if cfg.MinNotional < 0 {
		errs = append(errs, "MIN_NOTIONAL_USD cannot be negative")
	}

	cfg.MaxOpenPositions = getEnvAsInt("MAX_OPEN_POSITIONS", 10)
	if cfg.MaxOpenPositions <= 0 {
		errs = append(errs, "MAX_OPEN_POSITIONS must be positive")
	}

	cooldownSeconds := getEnvAsInt("SYMBOL_COOLDOWN_SECONDS", 60)
	if cooldownSeconds <= 0 {
		errs = append(errs, "SYMBOL_COOLDOWN_SECONDS must be positive")
	}
	cfg.SymbolCooldown = time.Duration(cooldownSeconds) * time.Second

	// Execution
	rateLimitMillis := getEnvAsInt("RATE_LIMIT_INTERVAL_MS", 1000)
	if rateLimitMillis <= 0 {
		errs = append(errs, "RATE_LIMIT_INTERVAL_MS must be positive")
	}
	cfg.RateLimitInterval = time.Duration(rateLimitMillis) * time.Millisecond

	cfg.RetryAttempts = getEnvAsInt("RETRY_ATTEMPTS", 3)
	if cfg.RetryAttempts <= 0 {
		errs = append(errs, "RETRY_ATTEMPTS must be positive")
	}

	retryBaseMillis := getEnvAsInt("RETRY_BASE_DELAY_MS", 500)
	if retryBaseMillis <= 0 {
		errs = append(errs, "RETRY_BASE_DELAY_MS must be positive")
	}
	cfg.RetryBaseDelay = time.Duration(retryBaseMillis) * time.Millisecond

	// Dashboard
	cfg.SignalHistorySize = getEnvAsInt("SIGNAL_HISTORY_SIZE", 50)
	cfg.TradeHistorySize = getEnvAsInt("TRADE_HISTORY_SIZE", 50)
	if cfg.SignalHistorySize <= 0 || cfg.TradeHistorySize <= 0 {
		errs = append(errs, "history sizes must be positive")
	}
	cfg.HeatMinStrength = getEnvAsInt("HEAT_MIN_STRENGTH", 10)
	cfg.HeatTopK = getEnvAsInt("HEAT_TOP_K", 10)
	if cfg.HeatTopK <= 0 {
		errs = append(errs, "HEAT_TOP_K must be positive")
	}

	// Database (optional — empty disables the journal)
	cfg.DBPath = getEnv("DB_PATH", "./data/spot_bot.db")

	// Notifications (optional)
	cfg.DiscordWebhookTrading = getEnv("DISCORD_WEBHOOK_TRADING", "")
	cfg.DiscordWebhookErrors = getEnv("DISCORD_WEBHOOK_ERRORS", "")
	cfg.DiscordWebhookSummary = getEnv("DISCORD_WEBHOOK_SUMMARY", "")
	cfg.DailySummaryTime = getEnv("DAILY_SUMMARY_TIME", "10:00")
	if _, _, err := ParseClock(cfg.DailySummaryTime); err != nil {
		errs = append(errs, fmt.Sprintf("invalid DAILY_SUMMARY_TIME: %v", err))
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
