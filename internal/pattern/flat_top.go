package pattern

import (
	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	ftWindow      = 20
	ftTolerance   = 0.02
	ftMinTouches  = 2
	ftPriorGain   = 0.10
	ftSwingPivot  = 2
	ftSurge       = 1.4
	ftBase        = 25
	ftTwoTouches  = 10
	ftManyTouches = 15
	ftHigherLows  = 15
	ftUptrend     = 10
	ftMACD        = 5
	ftExtension   = 1.618
)

type flatTop struct{}

func (flatTop) Kind() model.PatternKind { return model.FlatTop }

func (d flatTop) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()
	buffer := in.Cfg.Breakout.PriceBuffer

	for age := 0; age <= in.staleAfter(d.Kind()); age++ {
		b := last - age
		from := b - ftWindow
		if from < 0 {
			break
		}
		_, resistance := calculator.HighestHigh(bars, from, b-1)
		if bars[b].Close <= resistance*(1+buffer) {
			continue
		}
		touches := touchClusters(bars, from, b-1, resistance*(1-ftTolerance))
		if touches < ftMinTouches {
			continue
		}
		return d.candidate(in, b, from, resistance, touches, age), true
	}
	return nil, false
}

// touchClusters counts separate runs of bars whose high reaches level.
func touchClusters(bars []model.OHLCV, from, to int, level float64) int {
	clusters := 0
	touching := false
	for i := from; i <= to; i++ {
		t := bars[i].High >= level
		if t && !touching {
			clusters++
		}
		touching = t
	}
	return clusters
}

func (d flatTop) candidate(in *Input, b, from int, resistance float64, touches, age int) *Candidate {
	bars := in.bars()
	mid := from + ftWindow/2

	_, firstLow := calculator.LowestLow(bars, from, mid-1)
	_, secondLow := calculator.LowestLow(bars, mid, b-1)
	uptrend := from-ftWindow >= 0 && bars[from].Close >= bars[from-ftWindow].Close*(1+ftPriorGain)

	surge := bars[b].Volume > ftSurge*calculator.MeanVolume(bars, from, b-1)
	vol := volume.At(bars, in.Ind, b, d.Kind(), surge, in.Cfg.Volume)

	var sc scorecard
	sc.add(ftBase, "horizontal resistance")
	if touches > ftMinTouches {
		sc.add(ftManyTouches, "resistance touches")
	} else {
		sc.add(ftTwoTouches, "resistance touches")
	}
	sc.addIf(secondLow > firstLow, ftHigherLows, "higher lows")
	sc.addIf(uptrend, ftUptrend, "prior uptrend")
	sc.addIf(in.Ind.MACDBullish(b), ftMACD, "MACD bullish")
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "breakout volume surge")

	_, stop := calculator.SwingLow(bars, from, b-1, ftSwingPivot)
	_, floor := calculator.LowestLow(bars, from, b-1)
	height := resistance - floor
	entry := resistance * (1 + in.Cfg.Breakout.PriceBuffer)

	return &Candidate{
		Kind:    d.Kind(),
		RawConf: sc.total(),
		Entry:   entry,
		Stop:    stop,
		Targets: []model.Target{
			target(entry+height, "triangle height"),
			target(entry+ftExtension*height, "triangle height x1.618"),
		},
		Volume:    vol,
		SignalIdx: b,
		Age:       age,
		Notes:     sc.notes,
	}
}
