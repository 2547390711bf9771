// Package volume scores bar volume against its 50-bar average.
package volume

import (
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

// Tier maps a volume ratio onto its tier and points.
func Tier(ratio float64, p config.VolumeParams) (model.VolumeTier, int) {
	switch {
	case ratio >= p.Exceptional:
		return model.VolumeExceptional, p.ExceptionalScore
	case ratio >= p.Strong:
		return model.VolumeStrong, p.StrongScore
	case ratio >= p.Good:
		return model.VolumeGood, p.GoodScore
	default:
		return model.VolumeWeak, 0
	}
}

// Score builds the verdict for ratio. The pattern bonus is added only when
// the pattern's own volume narrative holds.
func Score(ratio float64, kind model.PatternKind, narrative bool, p config.VolumeParams) model.VolumeVerdict {
	tier, pts := Tier(ratio, p)
	v := model.VolumeVerdict{Ratio: ratio, Tier: tier, Score: pts}
	if narrative {
		v.Bonus = p.Bonus.Get(kind)
	}
	return v
}

// Ratio is volume at idx over the average of the 50 bars before it.
// It is zero when the average is unavailable.
func Ratio(bars []model.OHLCV, ind *model.Indicators, idx int) float64 {
	if idx < 0 || idx >= len(bars) {
		return 0
	}
	avg := ind.VolAvg50[idx]
	if !model.Valid(avg) || avg <= 0 {
		return 0
	}
	return bars[idx].Volume / avg
}

// At scores the bar at idx.
func At(bars []model.OHLCV, ind *model.Indicators, idx int, kind model.PatternKind, narrative bool, p config.VolumeParams) model.VolumeVerdict {
	return Score(Ratio(bars, ind, idx), kind, narrative, p)
}

// Cap applies the weak-volume ceiling. It reports whether the value was lowered.
func Cap(conf float64, tier model.VolumeTier, p config.VolumeParams) (float64, bool) {
	if tier == model.VolumeWeak && conf > p.WeakCap {
		return p.WeakCap, true
	}
	return conf, false
}
