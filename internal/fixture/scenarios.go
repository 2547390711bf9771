package fixture

import (
	"time"

	"PatternSentinel/internal/model"
)

var boxCloses = []float64{100.2, 99.9, 100.1, 99.8, 100.2, 99.9, 100.1, 99.8, 100.2, 99.9, 100.1, 99.8, 100.2, 99.9, 100.0}

// Breakout is a 15-bar box around 100 on quiet volume, broken on the last bar
// by a wide candle closing at 105.04. volumeRatio scales the breakout volume
// against the mean of the 50 bars before it.
func Breakout(ticker string, end time.Time, volumeRatio float64) *model.Series {
	return breakoutBuilder(volumeRatio).Daily(ticker, end)
}

func breakoutBuilder(volumeRatio float64) *Builder {
	b := New().Wave(284, 100, 5, 71, 1, 1_000_000)
	b.Closes(boxCloses, 0.3, 500_000)
	b.Bar(100.0, 105.2, 99.9, 105.04, volumeRatio*b.MeanVolume(50))
	return b
}

// StaleBreakout is Breakout followed by 12 bars drifting below the breakout close.
func StaleBreakout(ticker string, end time.Time) *model.Series {
	b := breakoutBuilder(1.8)
	b.Closes([]float64{104, 104.3, 103.8, 104.1, 103.9, 104.2, 103.7, 104, 104.1, 103.8, 104, 103.9}, 0.3, 1_000_000)
	return b.Daily(ticker, end)
}

// InsideBar ends with a green mother bar (95 to 100) and two red bars inside it.
func InsideBar(ticker string, end time.Time) *model.Series {
	return insideBarBuilder().Daily(ticker, end)
}

func insideBarBuilder() *Builder {
	b := New().Wave(280, 100, 4, 40, 0.8, 1_000_000)
	b.Bar(95.5, 100, 95, 99.5, 1_200_000)
	b.Bar(99, 99.2, 97, 97.5, 600_000)
	b.Bar(98.5, 98.8, 97.2, 97.6, 600_000)
	return b
}

// AgedInsideBar is InsideBar followed by extra small green bars that stay
// inside the mother bar.
func AgedInsideBar(ticker string, end time.Time, extra int) *model.Series {
	b := insideBarBuilder()
	for i := 1; i <= extra; i++ {
		b.To(97.6+0.2*float64(i), 0.3, 700_000)
	}
	return b.Daily(ticker, end)
}

// BullFlag is a 10-bar pole from 100 to 115 on heavy volume followed by a
// five-bar flag on light volume. The pole top is bar len-6 at 115.4.
func BullFlag(ticker string, end time.Time) *model.Series {
	return bullFlagBuilder().Daily(ticker, end)
}

func bullFlagBuilder() *Builder {
	b := New().Wave(270, 100, 4, 45, 0.8, 1_000_000)
	b.Ramp(115, 10, 0.4, 2_000_000)
	b.Closes([]float64{114, 113.5, 113, 113.2, 113.4}, 0.3, 800_000)
	return b
}

// AgedBullFlag extends the flag by extra quiet bars drifting down from 113.4,
// all above the flag low.
func AgedBullFlag(ticker string, end time.Time, extra int) *model.Series {
	b := bullFlagBuilder()
	for i := 1; i <= extra; i++ {
		b.To(113.4-0.05*float64(i), 0.1, 800_000)
	}
	return b.Daily(ticker, end)
}

// FlatTop rallies to 112, then tests 120 three times over 20 bars with
// rising lows, and closes at 122 on the last bar on 2.5M volume.
func FlatTop(ticker string, end time.Time) *model.Series {
	return flatTopBuilder().Daily(ticker, end)
}

func flatTopBuilder() *Builder {
	b := New().Wave(240, 100, 3, 40, 0.8, 1_000_000)
	b.Ramp(112, 20, 0.5, 1_000_000)
	for _, bar := range [][4]float64{
		{112, 114, 111.5, 113.5},
		{113.5, 116, 113, 115.5},
		{115.5, 118, 115, 117.5},
		{117.5, 120, 117, 119},
		{119, 119.5, 116.5, 117},
		{117, 117.5, 114.5, 115},
		{115, 115.5, 112.5, 113},
		{113, 115, 112.8, 114.5},
		{114.5, 117, 114, 116.5},
		{116.5, 118.5, 116, 118},
		{118, 120, 117.5, 119.5},
		{119.5, 119.8, 117, 117.5},
		{117.5, 118, 115.5, 116},
		{116, 116.5, 114.5, 115},
		{115, 117, 114.8, 116.5},
		{116.5, 118, 116, 117.5},
		{117.5, 119, 117, 118.5},
		{118.5, 119.5, 118, 119},
		{119, 119.8, 118.5, 119.2},
		{119.2, 119.9, 118.8, 119.5},
	} {
		b.Bar(bar[0], bar[1], bar[2], bar[3], 1_000_000)
	}
	b.Bar(119.5, 122.5, 119.3, 122, 2_500_000)
	return b
}

// AgedFlatTop holds just under the 122.5 breakout high for extra bars.
func AgedFlatTop(ticker string, end time.Time, extra int) *model.Series {
	b := flatTopBuilder()
	for i := 1; i <= extra; i++ {
		b.To(122-0.15*float64(i), 0.3, 1_000_000)
	}
	return b.Daily(ticker, end)
}

// InverseHeadShoulders draws shoulders at 89.6, a head at 83.6 and a flat
// neckline at 97.4; the right shoulder low is 8 bars before the last bar.
func InverseHeadShoulders(ticker string, end time.Time) *model.Series {
	return inverseHeadShouldersBuilder().Daily(ticker, end)
}

func inverseHeadShouldersBuilder() *Builder {
	b := New().Wave(240, 100, 1, 40, 0.4, 1_000_000)
	b.Ramp(90, 8, 0.4, 1_500_000)
	b.Ramp(97, 8, 0.4, 1_200_000)
	b.Ramp(84, 10, 0.4, 1_000_000)
	b.Ramp(97, 10, 0.4, 1_000_000)
	b.Ramp(90, 8, 0.4, 800_000)
	b.Ramp(96, 8, 0.4, 900_000)
	return b
}

// AgedInverseHeadShoulders keeps climbing 0.3 a bar for extra bars after the
// right shoulder rally, so no new pivot forms.
func AgedInverseHeadShoulders(ticker string, end time.Time, extra int) *model.Series {
	b := inverseHeadShouldersBuilder()
	b.Ramp(96+0.3*float64(extra), extra, 0.4, 900_000)
	return b.Daily(ticker, end)
}

// CupHandle is a 40-bar rounded cup from a 100.5 rim down to 79.6 and back,
// followed by a six-bar handle with a 96.7 low on light volume.
func CupHandle(ticker string, end time.Time) *model.Series {
	b := New().Wave(240, 80, 2, 40, 0.5, 1_000_000)
	b.Ramp(100, 20, 0.5, 1_000_000)
	b.Ramp(80, 20, 0.4, 1_000_000)
	b.Ramp(100, 20, 0.4, 1_000_000)
	b.Closes([]float64{99, 98, 97, 97.5, 98, 98.5}, 0.3, 600_000)
	return b.Daily(ticker, end)
}
