package calculator

import "PatternSentinel/internal/model"

// PivotKind distinguishes swing highs from swing lows.
type PivotKind int

const (
	PivotLow PivotKind = iota
	PivotHigh
)

// Pivot is a fractal swing point.
type Pivot struct {
	Index int
	Price float64
	Kind  PivotKind
}

// FractalPivots marks bar i as a swing high when its high is the max over
// [i-strength, i+strength], and as a swing low when its low is the min.
// Only bars in [from, len-1-strength] can qualify.
func FractalPivots(bars []model.OHLCV, from, strength int) []Pivot {
	if from < strength {
		from = strength
	}
	var out []Pivot
	for i := from; i < len(bars)-strength; i++ {
		hi, lo := true, true
		for j := i - strength; j <= i+strength; j++ {
			if bars[j].High > bars[i].High {
				hi = false
			}
			if bars[j].Low < bars[i].Low {
				lo = false
			}
			if !hi && !lo {
				break
			}
		}
		switch {
		case hi && lo:
			// outside bar dominating its neighbourhood; ambiguous, skip
		case hi:
			out = append(out, Pivot{Index: i, Price: bars[i].High, Kind: PivotHigh})
		case lo:
			out = append(out, Pivot{Index: i, Price: bars[i].Low, Kind: PivotLow})
		}
	}
	return out
}

// Alternate collapses runs of same-kind pivots to their most extreme member,
// so the result alternates low/high.
func Alternate(pivots []Pivot) []Pivot {
	var out []Pivot
	for _, p := range pivots {
		if len(out) == 0 || out[len(out)-1].Kind != p.Kind {
			out = append(out, p)
			continue
		}
		last := &out[len(out)-1]
		if (p.Kind == PivotHigh && p.Price > last.Price) || (p.Kind == PivotLow && p.Price < last.Price) {
			*last = p
		}
	}
	return out
}

// SwingLow returns the most recent fractal low in [from, to-strength], or
// the lowest low of [from, to] when no fractal qualifies.
func SwingLow(bars []model.OHLCV, from, to, strength int) (int, float64) {
	if to >= len(bars) {
		to = len(bars) - 1
	}
	for i := to - strength; i >= from+strength && i >= strength; i-- {
		low := true
		for j := i - strength; j <= i+strength; j++ {
			if bars[j].Low < bars[i].Low {
				low = false
				break
			}
		}
		if low {
			return i, bars[i].Low
		}
	}
	return LowestLow(bars, from, to)
}
