// Package consolidation decides whether a trailing window of bars is a
// price compression, using any one of six tests.
package consolidation

import (
	"fmt"
	"math"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

type window struct {
	bars      []model.OHLCV
	ind       *model.Indicators
	start     int
	end       int
	high, low float64
	cp        config.ConsolidationParams
	tf        config.TimeframeParams
}

type predicate struct {
	criterion model.Criterion
	test      func(w *window) bool
}

// predicates is evaluated in this fixed order; Box.Criteria keeps it.
var predicates = []predicate{
	{model.CriterionATRPercentile, atrPercentile},
	{model.CriterionBBPercentile, bollingerPercentile},
	{model.CriterionNarrowRange, narrowRangeCluster},
	{model.CriterionBoxWidth, boxWidth},
	{model.CriterionEMASpread, emaSpread},
	{model.CriterionVolumeDryUp, volumeDryUp},
}

// bonusByCount maps the number of satisfied criteria to confidence points.
var bonusByCount = [...]int{0, 5, 8, 10, 12, 14, 15}

// CriteriaBonus returns the confidence bonus for count satisfied criteria.
func CriteriaBonus(count int) int {
	if count < 0 {
		return 0
	}
	if count >= len(bonusByCount) {
		return bonusByCount[len(bonusByCount)-1]
	}
	return bonusByCount[count]
}

// Analyze evaluates the consolidation window ending at end. It returns a nil
// box when no criterion passes, and ErrInsufficientData when the window
// would run off the start of the series.
func Analyze(bars []model.OHLCV, ind *model.Indicators, end int, cp config.ConsolidationParams, tf config.TimeframeParams) (*model.Box, error) {
	n := tf.ConsolidationWindow
	start := end - n + 1
	if n <= 0 || start < 0 || end >= len(bars) {
		return nil, fmt.Errorf("%w: consolidation window of %d bars ending at %d", model.ErrInsufficientData, n, end)
	}

	w := &window{bars: bars, ind: ind, start: start, end: end, cp: cp, tf: tf}
	_, w.high = calculator.HighestHigh(bars, start, end)
	_, w.low = calculator.LowestLow(bars, start, end)

	var met []model.Criterion
	for _, p := range predicates {
		if p.test(w) {
			met = append(met, p.criterion)
		}
	}
	if len(met) == 0 {
		return nil, nil
	}
	return &model.Box{
		Start:    start,
		End:      end,
		High:     w.high,
		Low:      w.low,
		WidthPct: (w.high - w.low) / w.low,
		Criteria: met,
	}, nil
}

func atrPercentile(w *window) bool {
	return calculator.InBottomPercentile(w.ind.ATRPct, w.end, w.tf.Lookback, w.cp.Percentile)
}

func bollingerPercentile(w *window) bool {
	return calculator.InBottomPercentile(w.ind.BBWidth, w.end, w.tf.Lookback, w.cp.Percentile)
}

func narrowRangeCluster(w *window) bool {
	count := 0
	for i := w.end - w.cp.NarrowRangeSpan + 1; i <= w.end; i++ {
		if i >= 0 && (w.ind.NR4[i] || w.ind.NR7[i]) {
			count++
		}
	}
	return count >= w.cp.NarrowRangeMin
}

func boxWidth(w *window) bool {
	return (w.high-w.low)/w.low <= w.tf.BoxWidthMax
}

func emaSpread(w *window) bool {
	a, b, c := w.ind.EMA10[w.end], w.ind.EMA20[w.end], w.ind.EMA50[w.end]
	if !model.Valid(a) || !model.Valid(b) || !model.Valid(c) || b == 0 {
		return false
	}
	spread := math.Max(a, math.Max(b, c)) - math.Min(a, math.Min(b, c))
	return spread/b <= w.cp.EMASpreadMax
}

func volumeDryUp(w *window) bool {
	quiet := 0
	for i := w.start; i <= w.end; i++ {
		avg := w.ind.VolAvg50[i]
		if model.Valid(avg) && w.bars[i].Volume < w.cp.VolumeDryUpRatio*avg {
			quiet++
		}
	}
	return float64(quiet) >= w.cp.VolumeDryUpShare*float64(w.end-w.start+1)
}
