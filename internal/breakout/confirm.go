// Package breakout grades the bar that leaves a consolidation box.
package breakout

import (
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

// Confirm runs the price, range and volume tests on the bar at idx against
// box. A failed price test yields ConfirmNone regardless of the others.
func Confirm(box *model.Box, bars []model.OHLCV, ind *model.Indicators, idx int, cfg config.Detection) model.Confirmation {
	c := model.Confirmation{BreakoutIdx: idx}
	if box == nil || idx < 1 || idx >= len(bars) {
		return c
	}
	bp := cfg.Breakout
	bar := bars[idx]

	c.PricePass = bar.Close > box.High*(1+bp.PriceBuffer)

	if avg := ind.TRAvg20[idx-1]; model.Valid(avg) && avg > 0 {
		c.RangePass = ind.TR[idx] > bp.RangeExpansion*avg
	}

	ratio := volume.Ratio(bars, ind, idx)
	c.VolumePass = ratio >= bp.VolumeRatio
	c.Volume = volume.Score(ratio, model.ConsolidationBreakout, false, cfg.Volume)

	c.Level = Level(c.PricePass, c.RangePass, c.VolumePass)
	return c
}

// Level folds the three test outcomes into a confirmation tier.
func Level(price, rng, vol bool) model.ConfirmationLevel {
	switch {
	case !price:
		return model.ConfirmNone
	case rng && vol:
		return model.ConfirmFull
	case rng || vol:
		return model.ConfirmPartial
	default:
		return model.ConfirmPriceOnly
	}
}

// Bonus is the additive confidence contribution of a confirmation tier.
func Bonus(level model.ConfirmationLevel, bp config.BreakoutParams) int {
	switch level {
	case model.ConfirmFull:
		return bp.FullBonus
	case model.ConfirmPartial:
		return bp.PartialBonus
	case model.ConfirmPriceOnly:
		return bp.PriceOnlyBonus
	}
	return 0
}
