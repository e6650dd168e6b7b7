package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown         = errors.New("unknown error occurred")
	ErrInvalidRequest  = errors.New("invalid request parameters or format")
	ErrTimeout         = errors.New("operation timed out")
	ErrContextCanceled = errors.New("operation canceled via context")
	ErrConfiguration   = errors.New("invalid or missing configuration")

	// Analysis Errors
	ErrInsufficientData = errors.New("not enough candles to compute indicators")
	ErrDataUnavailable  = errors.New("market data unavailable")

	// Exchange Errors (transient — safe to retry)
	ErrExchangeUnavailable = errors.New("exchange API is unavailable")
	ErrConnectionFailed    = errors.New("failed to connect to the exchange")
	ErrRateLimited         = errors.New("API rate limit exceeded")

	// Exchange Errors (permanent — never retried)
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrOrderRejected        = errors.New("order rejected by the exchange")
	ErrOrderNotFound        = errors.New("order not found on the exchange")

	// Risk Errors
	ErrSymbolLocked     = errors.New("symbol is locked by an active cooldown")
	ErrMaxPositions     = errors.New("maximum concurrent positions reached")
	ErrBelowMinNotional = errors.New("proposed order is below the minimum notional")

	// Portfolio Errors
	ErrDuplicatePosition = errors.New("a position is already open for this symbol")
	ErrNoPosition        = errors.New("no open position for this symbol")

	// Execution Errors
	ErrExecutionFailed = errors.New("order execution failed after all retry attempts")

	// Database Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)

// IsTransientExecution reports whether an execution error is worth retrying.
// Permanent rejections (insufficient funds, invalid orders) return false.
func IsTransientExecution(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrExchangeUnavailable)
}
