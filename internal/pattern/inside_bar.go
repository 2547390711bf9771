package pattern

import (
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	ibBase         = 30
	ibBaseWeekly   = 35
	ibColorCombo   = 15
	ibSingle       = 15
	ibDouble       = 10
	ibTight        = 20
	ibGood         = 15
	ibModerate     = 10
	ibMACD         = 10
	ibMACDImprove  = 5
	ibRangeTarget  = 2.0 // mother ranges projected above entry
	ibSecondTarget = 1.13
	ibThirdTarget  = 1.21
)

type insideBar struct{}

func (insideBar) Kind() model.PatternKind { return model.InsideBar }

func (d insideBar) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()
	bands := in.TF.InsideBar

	for age := 0; age <= in.staleAfter(d.Kind()); age++ {
		end := last - age
		for _, count := range []int{2, 1} {
			m := end - count
			if m < 1 {
				continue
			}
			mother := bars[m]
			if !mother.Green() || !containsRed(bars, m, end) || brokeBelow(bars, end+1, last, mother.Low) {
				continue
			}
			ratio := bars[end].Range() / mother.Range()
			if ratio >= bands.Moderate {
				continue
			}
			return d.candidate(in, m, end, count, ratio, age), true
		}
	}
	return nil, false
}

// containsRed reports whether every bar in (m, end] is a red bar strictly
// inside the range of bar m.
func containsRed(bars []model.OHLCV, m, end int) bool {
	mother := bars[m]
	for j := m + 1; j <= end; j++ {
		b := bars[j]
		if !b.Red() || b.High >= mother.High || b.Low <= mother.Low {
			return false
		}
	}
	return true
}

func brokeBelow(bars []model.OHLCV, from, to int, level float64) bool {
	for j := from; j <= to; j++ {
		if bars[j].Close < level {
			return true
		}
	}
	return false
}

func (d insideBar) candidate(in *Input, m, end, count int, ratio float64, age int) *Candidate {
	bars := in.bars()
	mother := bars[m]
	bands := in.TF.InsideBar

	insideVol := 0.0
	for j := m + 1; j <= end; j++ {
		insideVol += bars[j].Volume
	}
	insideVol /= float64(count)
	vol := volume.At(bars, in.Ind, end, d.Kind(), insideVol < mother.Volume, in.Cfg.Volume)

	var sc scorecard
	if in.Series.Timeframe == model.Weekly {
		sc.add(ibBaseWeekly, "base")
	} else {
		sc.add(ibBase, "base")
	}
	sc.add(ibColorCombo, "green mother, red inside")
	if count == 1 {
		sc.add(ibSingle, "single inside bar")
	} else {
		sc.add(ibDouble, "double inside bar")
	}
	switch {
	case ratio < bands.Tight:
		sc.add(ibTight, "tight consolidation")
	case ratio < bands.Good:
		sc.add(ibGood, "good consolidation")
	default:
		sc.add(ibModerate, "moderate consolidation")
	}
	sc.addIf(in.Ind.MACDBullish(end), ibMACD, "MACD bullish")
	sc.addIf(in.Ind.MACDImproving(end), ibMACDImprove, "MACD histogram improving")
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "quiet inside bars")

	entry := mother.High * (1 + in.Cfg.Breakout.PriceBuffer)
	return &Candidate{
		Kind:    d.Kind(),
		RawConf: sc.total(),
		Entry:   entry,
		Stop:    mother.Low,
		Targets: []model.Target{
			target(entry+ibRangeTarget*mother.Range(), "mother bar range"),
			target(mother.High*ibSecondTarget, "+13%"),
			target(mother.High*ibThirdTarget, "+21%"),
		},
		Volume:    vol,
		SignalIdx: end,
		Age:       age,
		Notes:     sc.notes,
	}
}
