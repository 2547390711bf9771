package model

import "math"

// Indicators holds index-aligned derived series for one detection pass.
// Slots inside an indicator's warm-up period are NaN.
type Indicators struct {
	TR       []float64 // true range
	ATR      []float64 // ATR(14)
	ATRPct   []float64 // ATR(14) / close
	EMA10    []float64
	EMA20    []float64
	EMA50    []float64
	SMA50    []float64
	BBWidth  []float64 // (upper - lower) / middle, 20 periods, 2 sigma
	TRAvg20  []float64 // mean true range of the 20 bars ending at i
	VolAvg50 []float64 // mean volume of the 50 bars before i
	NR4      []bool
	NR7      []bool
	MACD     []float64
	MACDSig  []float64
	MACDHist []float64

	// Lookback is the number of trailing bars used for distributions.
	Lookback int
}

// Valid reports whether v holds a computed value.
func Valid(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// MACDBullish reports whether the MACD line sits above its signal at i.
func (ind *Indicators) MACDBullish(i int) bool {
	if i < 0 || i >= len(ind.MACD) {
		return false
	}
	m, s := ind.MACD[i], ind.MACDSig[i]
	return Valid(m) && Valid(s) && m > s
}

// MACDImproving reports whether the histogram rose from i-1 to i.
func (ind *Indicators) MACDImproving(i int) bool {
	if i < 1 || i >= len(ind.MACDHist) {
		return false
	}
	a, b := ind.MACDHist[i-1], ind.MACDHist[i]
	return Valid(a) && Valid(b) && b > a
}
