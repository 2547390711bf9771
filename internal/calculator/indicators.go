package calculator

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

const (
	atrPeriod    = 14
	trAvgPeriod  = 20
	bbPeriod     = 20
	bbDeviations = 2.0
	volAvgPeriod = 50
	macdFast     = 12
	macdSlow     = 26
	macdSignal   = 9
)

// Normalize validates the series and derives its indicator set. The result is
// aligned index-for-index with s.Bars and is never mutated afterwards.
func Normalize(s *model.Series, p config.TimeframeParams) (*model.Indicators, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := s.Len()
	if need := p.Required(); n < need {
		return nil, fmt.Errorf("%w: %s %s has %d bars, need %d",
			model.ErrInsufficientData, s.Ticker, s.Timeframe, n, need)
	}

	highs, lows, closes, vols := columns(s.Bars)

	tr := talib.TRange(highs, lows, closes)
	tr[0] = highs[0] - lows[0]

	atr := warmup(talib.Atr(highs, lows, closes, atrPeriod), atrPeriod)
	atrPct := make([]float64, n)
	for i := range atr {
		atrPct[i] = atr[i] / closes[i]
	}

	upper, middle, lower := talib.BBands(closes, bbPeriod, bbDeviations, bbDeviations, talib.SMA)
	bbWidth := make([]float64, n)
	for i := range bbWidth {
		if i < bbPeriod-1 || middle[i] == 0 {
			bbWidth[i] = math.NaN()
			continue
		}
		bbWidth[i] = (upper[i] - lower[i]) / middle[i]
	}

	volSMA := warmup(talib.Sma(vols, volAvgPeriod), volAvgPeriod-1)
	volAvg := make([]float64, n)
	volAvg[0] = math.NaN()
	copy(volAvg[1:], volSMA[:n-1])

	macd, sig, hist := talib.Macd(closes, macdFast, macdSlow, macdSignal)
	macdWarm := macdSlow + macdSignal - 2

	ind := &model.Indicators{
		TR:       tr,
		ATR:      atr,
		ATRPct:   atrPct,
		EMA10:    warmup(talib.Ema(closes, 10), 9),
		EMA20:    warmup(talib.Ema(closes, 20), 19),
		EMA50:    warmup(talib.Ema(closes, 50), 49),
		SMA50:    warmup(talib.Sma(closes, 50), 49),
		BBWidth:  bbWidth,
		TRAvg20:  warmup(talib.Sma(tr, trAvgPeriod), trAvgPeriod-1),
		VolAvg50: volAvg,
		NR4:      narrowRange(highs, lows, 4),
		NR7:      narrowRange(highs, lows, 7),
		MACD:     warmup(macd, macdWarm),
		MACDSig:  warmup(sig, macdWarm),
		MACDHist: warmup(hist, macdWarm),
		Lookback: p.Lookback,
	}
	return ind, nil
}

// narrowRange flags bars whose range is strictly narrower than each of the
// previous period-1 bars.
func narrowRange(highs, lows []float64, period int) []bool {
	out := make([]bool, len(highs))
	for i := period - 1; i < len(highs); i++ {
		r := highs[i] - lows[i]
		narrowest := true
		for j := i - period + 1; j < i; j++ {
			if highs[j]-lows[j] <= r {
				narrowest = false
				break
			}
		}
		out[i] = narrowest
	}
	return out
}

// warmup blanks the first n slots, which talib leaves zeroed.
func warmup(vals []float64, n int) []float64 {
	for i := 0; i < n && i < len(vals); i++ {
		vals[i] = math.NaN()
	}
	return vals
}

func columns(bars []model.OHLCV) (highs, lows, closes, vols []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	closes = extractCloses(bars)
	vols = make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		vols[i] = b.Volume
	}
	return highs, lows, closes, vols
}
