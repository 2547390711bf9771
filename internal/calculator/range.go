package calculator

import (
	"math"
	"sort"

	"PatternSentinel/internal/model"
)

// HighestHigh returns the index and value of the highest high in [from, to].
// The earliest bar wins ties.
func HighestHigh(bars []model.OHLCV, from, to int) (int, float64) {
	from, to = clampSpan(len(bars), from, to)
	idx, high := -1, math.Inf(-1)
	for i := from; i <= to; i++ {
		if bars[i].High > high {
			idx, high = i, bars[i].High
		}
	}
	return idx, high
}

// LowestLow returns the index and value of the lowest low in [from, to].
// The earliest bar wins ties.
func LowestLow(bars []model.OHLCV, from, to int) (int, float64) {
	from, to = clampSpan(len(bars), from, to)
	idx, low := -1, math.Inf(1)
	for i := from; i <= to; i++ {
		if bars[i].Low < low {
			idx, low = i, bars[i].Low
		}
	}
	return idx, low
}

// Percentile returns the p-th percentile (0-100) of the valid values using
// linear interpolation between closest ranks. NaN entries are skipped.
func Percentile(values []float64, p float64) (float64, bool) {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if model.Valid(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0, false
	}
	sort.Float64s(clean)
	if len(clean) == 1 {
		return clean[0], true
	}
	rank := p / 100 * float64(len(clean)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return clean[lo], true
	}
	frac := rank - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac, true
}

// InBottomPercentile reports whether values[end] lies at or below the p-th
// percentile of values over the lookback window ending at end.
func InBottomPercentile(values []float64, end, lookback int, p float64) bool {
	if end < 0 || end >= len(values) || !model.Valid(values[end]) {
		return false
	}
	from := end - lookback + 1
	if from < 0 {
		from = 0
	}
	cut, ok := Percentile(values[from:end+1], p)
	return ok && values[end] <= cut
}

// StdDev is the population standard deviation.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	ss := 0.0
	for _, v := range values {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(values)))
}

func clampSpan(n, from, to int) (int, int) {
	if from < 0 {
		from = 0
	}
	if to > n-1 {
		to = n - 1
	}
	return from, to
}
