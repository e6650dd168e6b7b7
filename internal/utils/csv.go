package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"cryptoSpotBot/internal/domain"
)

var candleHeader = []string{"open_time", "close_time", "symbol", "interval", "open", "high", "low", "close", "volume"}

// WriteCandlesToCSV exports candles to a CSV file, one row per candle with
// RFC3339 timestamps. Used by the candle download tool.
func WriteCandlesToCSV(candles []*domain.Candle, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(candleHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, c := range candles {
		if err := writer.Write(candleRecord(c)); err != nil {
			return fmt.Errorf("writing candle row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", filename, err)
	}
	return file.Close()
}

func candleRecord(c *domain.Candle) []string {
	return []string{
		c.OpenTime.Format(time.RFC3339),
		c.CloseTime.Format(time.RFC3339),
		c.Symbol,
		c.Interval,
		formatPrice(c.Open),
		formatPrice(c.High),
		formatPrice(c.Low),
		formatPrice(c.Close),
		formatPrice(c.Volume),
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
