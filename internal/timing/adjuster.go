// Package timing adjusts confidence for the weekday of the signal bar and
// classifies gap risk.
package timing

import (
	"math"
	"time"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

const (
	RuleFriday     = "friday_without_exceptional_volume"
	RuleWeekend    = "weekend_adjacent"
	RuleMonday     = "monday_gap_ok"
	RuleMondayGap  = "monday_gap_failed"
	RuleMidweek    = "midweek"
	RuleNone       = "none"
	closureGapDays = 3
)

// Adjust evaluates the weekday rules for the bar at idx. Rules run in a
// fixed order and only the first matching one applies. The weekday is read
// in the bar timestamp's own location. The returned context also carries the
// entry guidance for the matched rule and pattern kind.
func Adjust(s *model.Series, idx int, kind model.PatternKind, tier model.VolumeTier, lookback int, p config.TimingParams) model.TimingContext {
	bars := s.Bars
	bar := bars[idx]
	wd := bar.Time.Weekday()
	ctx := model.TimingContext{Weekday: wd, Rule: RuleNone, GapRisk: model.GapLow}

	endOfWeek := wd == time.Friday || wd == time.Saturday || wd == time.Sunday
	weekendAdjacent := endOfWeek && !mondayAfter(bars, idx)

	switch {
	case wd == time.Friday && tier != model.VolumeExceptional:
		ctx.Rule, ctx.Adjustment = RuleFriday, p.FridayPenalty
	case weekendAdjacent:
		ctx.Rule, ctx.Adjustment = RuleWeekend, p.WeekendPenalty
	case wd == time.Monday:
		ctx.Rule = RuleMonday
		if idx > 0 {
			gap := math.Abs(bar.Open/bars[idx-1].Close - 1)
			if gap > p.MaxMondayGap {
				ctx.Rule = RuleMondayGap
				ctx.Note = "opening gap exceeds limit; validate after the open"
			}
		}
	case wd >= time.Tuesday && wd <= time.Thursday:
		ctx.Rule, ctx.Adjustment = RuleMidweek, p.MidweekBonus
	}

	spansClosure := weekendAdjacent || extendedClosure(s, idx)
	switch {
	case spansClosure && GapStdev(bars, idx, lookback) > p.HighGapStdev:
		ctx.GapRisk = model.GapHigh
	case wd == time.Friday || wd == time.Monday || spansClosure:
		ctx.GapRisk = model.GapMedium
	}
	guidance(&ctx, kind, tier)
	return ctx
}

// Apply adds the adjustment to raw and clamps to [0, 100].
func Apply(raw float64, ctx model.TimingContext) float64 {
	return math.Max(0, math.Min(100, raw+ctx.Adjustment))
}

// mondayAfter reports whether a Monday bar follows idx.
func mondayAfter(bars []model.OHLCV, idx int) bool {
	for j := idx + 1; j < len(bars); j++ {
		if bars[j].Time.Weekday() == time.Monday {
			return true
		}
	}
	return false
}

// extendedClosure flags daily bars that open after a closure longer than a weekend.
func extendedClosure(s *model.Series, idx int) bool {
	if s.Timeframe != model.Daily || idx == 0 {
		return false
	}
	return s.Bars[idx].Time.Sub(s.Bars[idx-1].Time) > closureGapDays*24*time.Hour
}

// GapStdev is the standard deviation of open-to-previous-close gaps over the
// lookback ending at idx.
func GapStdev(bars []model.OHLCV, idx, lookback int) float64 {
	from := idx - lookback + 1
	if from < 1 {
		from = 1
	}
	gaps := make([]float64, 0, idx-from+1)
	for i := from; i <= idx; i++ {
		gaps = append(gaps, bars[i].Open/bars[i-1].Close-1)
	}
	return calculator.StdDev(gaps)
}
