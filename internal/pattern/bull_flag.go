package pattern

import (
	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	flagPoleBars     = 10
	flagMinBars      = 3
	flagMinPoleGain  = 0.08
	flagPullbackMin  = -0.15
	flagPullbackMax  = 0.05
	flagVolumeEdge   = 1.2
	flagBase         = 25
	flagValid        = 20
	flagStrongPole   = 0.15
	flagNearBreakout = 0.98
	flagMACD         = 10
	flagExtension    = 1.382
)

type bullFlag struct{}

func (bullFlag) Kind() model.PatternKind { return model.BullFlag }

func (d bullFlag) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()

	p, peak := calculator.HighestHigh(bars, last-in.staleAfter(d.Kind()), last-flagMinBars)
	if p < flagPoleBars {
		return nil, false
	}
	// The peak must top the whole pole-plus-flag structure.
	if _, before := calculator.HighestHigh(bars, p-flagPoleBars, p-1); before >= peak {
		return nil, false
	}
	if _, after := calculator.HighestHigh(bars, p+1, last); after > peak {
		return nil, false
	}

	s, base := calculator.LowestLow(bars, p-flagPoleBars, p-1)
	gain := (peak - base) / base
	if gain < flagMinPoleGain {
		return nil, false
	}
	pole := peak - base

	pullback := (bars[last].Close - bars[p].Close) / pole
	if pullback < flagPullbackMin || pullback > flagPullbackMax {
		return nil, false
	}
	_, flagLow := calculator.LowestLow(bars, p+1, last)
	if flagLow <= base+0.5*pole {
		return nil, false
	}

	poleVol := calculator.MeanVolume(bars, s, p)
	flagVol := calculator.MeanVolume(bars, p+1, last)
	if flagVol >= poleVol {
		return nil, false
	}
	vol := volume.At(bars, in.Ind, last, d.Kind(), poleVol > flagVolumeEdge*flagVol, in.Cfg.Volume)

	_, flagHigh := calculator.HighestHigh(bars, p+1, last)

	var sc scorecard
	sc.add(flagBase, "flagpole")
	sc.add(flagValid, "orderly flag")
	sc.addIf(gain >= flagStrongPole, 10, "strong flagpole")
	sc.addIf(bars[last].Close >= flagHigh*flagNearBreakout, 10, "near flag high")
	sc.addIf(in.Ind.MACDBullish(last), flagMACD, "MACD bullish")
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "flagpole volume over flag")

	entry := flagHigh * (1 + in.Cfg.Breakout.PriceBuffer)
	return &Candidate{
		Kind:    d.Kind(),
		RawConf: sc.total(),
		Entry:   entry,
		Stop:    flagLow,
		Targets: []model.Target{
			target(entry+pole, "flagpole height"),
			target(entry+flagExtension*pole, "flagpole x1.382"),
		},
		Volume:    vol,
		SignalIdx: last,
		Age:       last - p,
		Notes:     sc.notes,
	}, true
}
