// Package fixture builds deterministic bar series for tests.
package fixture

import (
	"math"
	"time"

	"PatternSentinel/internal/model"
)

// Wednesday, Friday and Monday are session dates used to pin the weekday of
// a series' last bar.
var (
	Monday    = time.Date(2025, time.June, 9, 16, 0, 0, 0, time.UTC)
	Wednesday = time.Date(2025, time.June, 11, 16, 0, 0, 0, time.UTC)
	Friday    = time.Date(2025, time.June, 13, 16, 0, 0, 0, time.UTC)
)

// Builder appends bars in order. Bars built from a close open at the
// previous close and extend spread beyond the body on both sides.
type Builder struct {
	bars []model.OHLCV
}

// New returns an empty builder.
func New() *Builder { return &Builder{} }

// Bar appends an explicit bar.
func (b *Builder) Bar(open, high, low, close, volume float64) *Builder {
	b.bars = append(b.bars, model.OHLCV{Open: open, High: high, Low: low, Close: close, Volume: volume})
	return b
}

// To appends a bar closing at c.
func (b *Builder) To(c, spread, volume float64) *Builder {
	o := c
	if len(b.bars) > 0 {
		o = b.Prev()
	}
	return b.Bar(o, math.Max(o, c)+spread, math.Min(o, c)-spread, c, volume)
}

// Closes appends one bar per close.
func (b *Builder) Closes(closes []float64, spread, volume float64) *Builder {
	for _, c := range closes {
		b.To(c, spread, volume)
	}
	return b
}

// Ramp appends n bars whose closes move linearly from the previous close to target.
func (b *Builder) Ramp(target float64, n int, spread, volume float64) *Builder {
	start := b.Prev()
	for k := 1; k <= n; k++ {
		b.To(start+(target-start)*float64(k)/float64(n), spread, volume)
	}
	return b
}

// Wave appends n bars oscillating around center. When n is a multiple of
// period the last close lands on center. Volume swings 20% around volume.
func (b *Builder) Wave(n int, center, amp, period, spread, volume float64) *Builder {
	for i := 0; i < n; i++ {
		x := 2 * math.Pi * float64(i+1) / period
		vol := volume * (1 + 0.2*math.Sin(float64(i)/3))
		b.To(center+amp*math.Sin(x), spread, vol)
	}
	return b
}

// Len is the number of bars so far.
func (b *Builder) Len() int { return len(b.bars) }

// Prev is the last close, or zero when empty.
func (b *Builder) Prev() float64 {
	if len(b.bars) == 0 {
		return 0
	}
	return b.bars[len(b.bars)-1].Close
}

// MeanVolume averages the volume of the last n bars.
func (b *Builder) MeanVolume(n int) float64 {
	if n > len(b.bars) {
		n = len(b.bars)
	}
	sum := 0.0
	for _, bar := range b.bars[len(b.bars)-n:] {
		sum += bar.Volume
	}
	return sum / float64(n)
}

// Bars returns a copy of the bars without timestamps.
func (b *Builder) Bars() []model.OHLCV {
	return append([]model.OHLCV(nil), b.bars...)
}

// Daily stamps the bars on consecutive weekdays ending at end.
func (b *Builder) Daily(ticker string, end time.Time) *model.Series {
	times := BusinessDays(len(b.bars), end)
	return b.series(ticker, model.Daily, times)
}

// Weekly stamps the bars seven days apart ending at end.
func (b *Builder) Weekly(ticker string, end time.Time) *model.Series {
	times := make([]time.Time, len(b.bars))
	for i := range times {
		times[i] = end.AddDate(0, 0, -7*(len(times)-1-i))
	}
	return b.series(ticker, model.Weekly, times)
}

func (b *Builder) series(ticker string, tf model.Timeframe, times []time.Time) *model.Series {
	bars := b.Bars()
	for i := range bars {
		bars[i].Time = times[i]
	}
	return &model.Series{Ticker: ticker, Timeframe: tf, Bars: bars}
}

// BusinessDays returns n Monday-to-Friday dates, oldest first, ending at end.
func BusinessDays(n int, end time.Time) []time.Time {
	out := make([]time.Time, n)
	d := end
	for i := n - 1; i >= 0; i-- {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, -1)
		}
		out[i] = d
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// Noise returns a valid daily series of n bars with no particular structure.
func Noise(ticker string, n int, end time.Time) *model.Series {
	return New().Wave(n, 100, 5, 37, 1, 1_000_000).Daily(ticker, end)
}
