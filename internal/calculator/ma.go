package calculator

import (
	"errors"

	"PatternSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// AverageDollarVolume is mean(close x volume) over the last lookback bars.
func AverageDollarVolume(bars []model.OHLCV, lookback int) (float64, error) {
	dv := make([]float64, len(bars))
	for i, b := range bars {
		dv[i] = b.Close * b.Volume
	}
	return CalculateSMA(dv, lookback)
}

// MeanVolume averages volume over bars [from, to].
func MeanVolume(bars []model.OHLCV, from, to int) float64 {
	from, to = clampSpan(len(bars), from, to)
	if to < from {
		return 0
	}
	sum := 0.0
	for i := from; i <= to; i++ {
		sum += bars[i].Volume
	}
	return sum / float64(to-from+1)
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
