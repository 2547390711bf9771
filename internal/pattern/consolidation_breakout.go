package pattern

import (
	"fmt"
	"math"

	"PatternSentinel/internal/breakout"
	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/consolidation"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	cbBase = 20
	// cbStopATR is how far below the box low the structural stop sits, in ATRs.
	cbStopATR = 0.5
	cbMACD    = 5
)

type consolidationBreakout struct{}

func (consolidationBreakout) Kind() model.PatternKind { return model.ConsolidationBreakout }

func (d consolidationBreakout) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()
	for age := 0; age <= in.staleAfter(d.Kind()); age++ {
		b := last - age
		box, err := consolidation.Analyze(bars, in.Ind, b-1, in.Cfg.Consolidation, in.TF)
		if err != nil || box == nil {
			continue
		}
		conf := breakout.Confirm(box, bars, in.Ind, b, in.Cfg)
		if conf.Level == model.ConfirmNone {
			continue
		}
		return d.candidate(in, box, conf, age), true
	}
	return nil, false
}

func (d consolidationBreakout) candidate(in *Input, box *model.Box, conf model.Confirmation, age int) *Candidate {
	bars := in.bars()
	b := conf.BreakoutIdx

	dryUp := box.Has(model.CriterionVolumeDryUp) ||
		calculator.MeanVolume(bars, box.Start, box.End) < 0.8*in.Ind.VolAvg50[b]
	vol := volume.At(bars, in.Ind, b, d.Kind(), dryUp && conf.Volume.Tier.AtLeast(model.VolumeGood), in.Cfg.Volume)

	var sc scorecard
	sc.add(cbBase, "base")
	sc.add(consolidation.CriteriaBonus(len(box.Criteria)), fmt.Sprintf("%d consolidation criteria", len(box.Criteria)))
	sc.add(breakout.Bonus(conf.Level, in.Cfg.Breakout), "confirmation "+string(conf.Level))
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "dry-up then expansion")
	sc.addIf(in.Ind.MACDBullish(b), cbMACD, "MACD bullish")

	entry := bars[b].Close
	stop := box.Low - cbStopATR*in.Ind.ATR[b]
	risk := entry - stop
	height := box.Height()
	targets := make([]model.Target, 0, 3)
	for k := 1; k <= 3; k++ {
		mult := float64(k)
		method := fmt.Sprintf("box height x%d", k)
		if mult*risk > mult*height {
			method = fmt.Sprintf("%dR floor", k)
		}
		targets = append(targets, target(entry+math.Max(mult*height, mult*risk), method))
	}

	boxCopy := *box
	return &Candidate{
		Kind:         d.Kind(),
		RawConf:      sc.total(),
		Entry:        entry,
		Stop:         stop,
		Targets:      targets,
		Volume:       vol,
		Box:          &boxCopy,
		Confirmation: conf.Level,
		SignalIdx:    b,
		Age:          age,
		Notes:        sc.notes,
	}
}
