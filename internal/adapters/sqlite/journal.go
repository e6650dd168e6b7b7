package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoSpotBot/internal/domain"
	"cryptoSpotBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Journal implements the ports.TradeJournal interface using SQLite.
type Journal struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite journal.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewJournal creates a new SQLite trade journal instance.
func NewJournal(cfg Config) (*Journal, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite journal")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/spot_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// Open database connection, WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("%w: failed to open database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally; the Go driver benefits from
	// limiting the pool to one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{db: db, logger: cfg.Logger}
	if err := j.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite journal initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite trade journal ready", map[string]interface{}{"path": dbPath})
	return j, nil
}

// initializeSchema creates tables if they don't exist.
func (j *Journal) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		entry_price REAL NOT NULL DEFAULT 0,
		realized_pnl REAL NOT NULL DEFAULT 0,
		realized_pct REAL NOT NULL DEFAULT 0,
		executed_at TIMESTAMP NOT NULL,
		order_id INTEGER NOT NULL DEFAULT 0,
		client_order_id TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_trades_symbol_executed_at ON trades (symbol, executed_at);
	CREATE INDEX IF NOT EXISTS idx_trades_executed_at ON trades (executed_at);
	`
	_, err := j.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	if j.db != nil {
		j.logger.Info(context.Background(), "Closing SQLite trade journal")
		return j.db.Close()
	}
	return nil
}

// RecordTrade saves a fill and returns its assigned ID.
func (j *Journal) RecordTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (symbol, side, quantity, price, entry_price, realized_pnl, realized_pct, executed_at, order_id, client_order_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := j.db.ExecContext(ctx, query,
		trade.Symbol, string(trade.Side), trade.Quantity, trade.Price,
		trade.EntryPrice, trade.RealizedPnL, trade.RealizedPct,
		trade.ExecutedAt, trade.OrderID, trade.ClientOrderID)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert trade for symbol %s: %v", ports.ErrQueryFailed, trade.Symbol, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get last insert ID for trade %s: %v", ports.ErrQueryFailed, trade.Symbol, err)
	}
	j.logger.Debug(ctx, "Trade journaled", map[string]interface{}{"tradeID": id, "symbol": trade.Symbol})
	return id, nil
}

// RecentTrades retrieves the most recent trades, newest first.
func (j *Journal) RecentTrades(ctx context.Context, limit int) ([]*domain.Trade, error) {
	const query = `
	SELECT id, symbol, side, quantity, price, entry_price, realized_pnl, realized_pct, executed_at, order_id, client_order_id
	FROM trades
	ORDER BY executed_at DESC, id DESC
	LIMIT ?`

	rows, err := j.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query recent trades: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0, limit)
	for rows.Next() {
		var trade domain.Trade
		var side string
		if err := rows.Scan(&trade.ID, &trade.Symbol, &side, &trade.Quantity, &trade.Price,
			&trade.EntryPrice, &trade.RealizedPnL, &trade.RealizedPct,
			&trade.ExecutedAt, &trade.OrderID, &trade.ClientOrderID); err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade row: %v", ports.ErrQueryFailed, err)
		}
		trade.Side = domain.OrderSide(side)
		trades = append(trades, &trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating trade rows: %v", ports.ErrQueryFailed, err)
	}
	return trades, nil
}

// CountSince counts trades executed at or after the given time.
func (j *Journal) CountSince(ctx context.Context, since time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM trades WHERE executed_at >= ?`

	var count int
	if err := j.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: failed to count trades since %s: %v", ports.ErrQueryFailed, since, err)
	}
	return count, nil
}

// Summary aggregates lifetime counters over all persisted trades. Only SELL
// rows carry realized P/L, so wins and losses are counted over those.
func (j *Journal) Summary(ctx context.Context) (*ports.JournalSummary, error) {
	const query = `
	SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN side = 'SELL' AND realized_pnl > 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN side = 'SELL' AND realized_pnl <= 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(realized_pnl), 0)
	FROM trades`

	var s ports.JournalSummary
	if err := j.db.QueryRowContext(ctx, query).Scan(&s.LifetimeTrades, &s.LifetimeWins, &s.LifetimeLosses, &s.TotalPnL); err != nil {
		return nil, fmt.Errorf("%w: failed to aggregate trade summary: %v", ports.ErrQueryFailed, err)
	}
	return &s, nil
}
