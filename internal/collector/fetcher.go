package collector

import (
	"context"
	"errors"
	"fmt"

	"PatternSentinel/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchBars returns up to count of the most recent bars, oldest first.
	FetchBars(ctx context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error)
	Name() string
}

// errSymbolNotFound is returned when the provider does not know a symbol.
// It does not count against a circuit breaker.
var errSymbolNotFound = errors.New("symbol not found")

func unsupported(name string, tf model.Timeframe) error {
	return fmt.Errorf("%s: unsupported timeframe %q", name, tf)
}

func tail(bars []model.OHLCV, count int) []model.OHLCV {
	if count > 0 && len(bars) > count {
		return bars[len(bars)-count:]
	}
	return bars
}
