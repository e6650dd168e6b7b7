package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up

	"cryptoSpotBot/config"
	"cryptoSpotBot/internal/adapters/binanceclient"
	"cryptoSpotBot/internal/adapters/discord"
	"cryptoSpotBot/internal/adapters/logger"
	"cryptoSpotBot/internal/adapters/sqlite"
	"cryptoSpotBot/internal/app"
	"cryptoSpotBot/internal/dashboard"
	"cryptoSpotBot/internal/executor"
	"cryptoSpotBot/internal/portfolio"
	"cryptoSpotBot/internal/ports"
	"cryptoSpotBot/internal/risk"
	"cryptoSpotBot/internal/strategy/indicators"
	"cryptoSpotBot/internal/strategy/scoring"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Trade Journal (Database Adapter, optional)
	var journal ports.TradeJournal
	if cfg.DBPath != "" {
		sqliteJournal, err := sqlite.NewJournal(sqlite.Config{
			DBPath: cfg.DBPath,
			Logger: appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize trade journal")
			log.Fatalf("FATAL: Failed to initialize trade journal: %v", err) // Also log to stderr
		}
		defer func() {
			if err := sqliteJournal.Close(); err != nil {
				appLogger.Error(context.Background(), err, "Error closing trade journal")
			}
		}()
		journal = sqliteJournal
		appLogger.Info(context.Background(), "Trade journal initialized")
	} else {
		appLogger.Warn(context.Background(), "DB_PATH empty, trade journal disabled")
	}

	// 4. Initialize Exchange Client (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		APIKey:     cfg.APIKey,
		SecretKey:  cfg.SecretKey,
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	// 5. Initialize Notifier (optional, empty URLs disable each channel)
	var notifier ports.Notifier
	if cfg.DiscordWebhookTrading != "" || cfg.DiscordWebhookErrors != "" || cfg.DiscordWebhookSummary != "" {
		discordNotifier, err := discord.New(discord.Config{
			TradingWebhookURL: cfg.DiscordWebhookTrading,
			ErrorsWebhookURL:  cfg.DiscordWebhookErrors,
			SummaryWebhookURL: cfg.DiscordWebhookSummary,
			Logger:            appLogger,
		})
		if err != nil {
			appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Discord notifier")
			log.Fatalf("FATAL: Failed to initialize Discord notifier: %v", err)
		}
		notifier = discordNotifier
		appLogger.Info(context.Background(), "Discord notifier initialized")
	}

	// 6. Initialize Strategy Components
	indicatorEngine, err := indicators.NewEngine(indicators.DefaultEngineConfig())
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize indicator engine")
		log.Fatalf("FATAL: Failed to initialize indicator engine: %v", err)
	}
	scorer := scoring.New(scoring.Config{})
	appLogger.Info(context.Background(), "Indicator engine and scorer initialized")

	// 7. Initialize Risk Manager
	riskManager, err := risk.NewManager(risk.Config{
		BasePositionSizePercent: cfg.BasePositionSizePercent,
		BaseStopLossPercent:     cfg.BaseStopLossPercent,
		BaseTakeProfitPercent:   cfg.BaseTakeProfitPercent,
		MaxStopLossPercent:      cfg.MaxStopLossPercent,
		MaxTakeProfitPercent:    cfg.MaxTakeProfitPercent,
		MinNotional:             cfg.MinNotional,
		MaxOpenPositions:        cfg.MaxOpenPositions,
		SymbolCooldown:          cfg.SymbolCooldown,
	}, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize risk manager")
		log.Fatalf("FATAL: Failed to initialize risk manager: %v", err)
	}

	// 8. Initialize Portfolio Tracker and Dashboard Feed
	tracker, err := portfolio.NewTracker(appLogger, cfg.SignalHistorySize, cfg.TradeHistorySize)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio tracker")
		log.Fatalf("FATAL: Failed to initialize portfolio tracker: %v", err)
	}
	feed, err := dashboard.NewFeed(dashboard.Config{
		Interval:        cfg.DashboardInterval,
		HeatMinStrength: cfg.HeatMinStrength,
		HeatTopK:        cfg.HeatTopK,
	}, appLogger, tracker)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize dashboard feed")
		log.Fatalf("FATAL: Failed to initialize dashboard feed: %v", err)
	}

	// 9. Initialize Order Executor
	orderExecutor, err := executor.NewExecutor(executor.Config{
		RateLimitInterval: cfg.RateLimitInterval,
		RetryAttempts:     cfg.RetryAttempts,
		RetryBaseDelay:    cfg.RetryBaseDelay,
	}, appLogger, binanceClient, tracker, riskManager, journal, notifier)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize order executor")
		log.Fatalf("FATAL: Failed to initialize order executor: %v", err)
	}

	// 10. Initialize Engine
	engine, err := app.NewEngine(cfg, appLogger, binanceClient, indicatorEngine, scorer,
		riskManager, orderExecutor, tracker, feed, journal, notifier)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize engine")
		log.Fatalf("FATAL: Failed to initialize engine: %v", err)
	}
	appLogger.Info(context.Background(), "Engine initialized")

	// 11. Start the Engine
	// Use context.Background() as the base context for the application run
	if err := engine.Start(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "Engine exited with error")
		log.Fatalf("FATAL: Engine exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
