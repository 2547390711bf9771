package pattern

import (
	"math"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	cupMinDepth      = 0.08
	cupMaxDepth      = 0.60
	cupRimTolerance  = 0.10
	cupEdgeShare     = 0.20
	cupDirectional   = 0.60
	cupMaxHandle     = 0.25
	cupPerfectHandle = 0.08
	cupGoodHandle    = 0.15
	cupDryUp         = 0.8
	cupBase          = 30
	cupIdealLow      = 0.12
	cupIdealHigh     = 0.35
	cupMACD          = 5
	cupExtension     = 1.618
)

type cupHandle struct{}

func (cupHandle) Kind() model.PatternKind { return model.CupHandle }

func (d cupHandle) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()
	tf := in.TF

	r, rimR := calculator.HighestHigh(bars, last-tf.HandleMaxBars, last-tf.HandleMinBars)
	if r < 0 || last-r > in.staleAfter(d.Kind()) {
		return nil, false
	}
	handleHighIdx, handleHigh := calculator.HighestHigh(bars, r+1, last)
	if handleHighIdx < 0 || handleHigh > rimR {
		return nil, false
	}

	l, rimL := calculator.HighestHigh(bars, r-tf.CupMaxBars, r-tf.CupMinBars)
	if l < 0 {
		return nil, false
	}
	rimTop := math.Max(rimL, rimR)
	if _, inner := calculator.HighestHigh(bars, l+1, r-1); inner > rimTop {
		return nil, false
	}
	if math.Abs(rimR-rimL)/rimL > cupRimTolerance {
		return nil, false
	}

	t, trough := calculator.LowestLow(bars, l+1, r-1)
	depth := (rimTop - trough) / rimTop
	if depth < cupMinDepth || depth > cupMaxDepth {
		return nil, false
	}
	span := float64(r - l)
	if float64(t-l) < cupEdgeShare*span || float64(r-t) < cupEdgeShare*span {
		return nil, false
	}
	if !rounded(bars, l, t, r) {
		return nil, false
	}

	_, handleLow := calculator.LowestLow(bars, r+1, last)
	handleDepth := (rimR - handleLow) / rimR
	if handleDepth > cupMaxHandle || handleLow <= trough+0.5*(rimR-trough) {
		return nil, false
	}

	cupVol := calculator.MeanVolume(bars, l, r)
	handleVol := calculator.MeanVolume(bars, r+1, last)
	vol := volume.At(bars, in.Ind, last, d.Kind(), handleVol < cupDryUp*cupVol, in.Cfg.Volume)

	var sc scorecard
	sc.add(cupBase, "rounded cup")
	switch {
	case handleDepth <= cupPerfectHandle:
		sc.add(20, "shallow handle")
	case handleDepth <= cupGoodHandle:
		sc.add(15, "moderate handle")
	default:
		sc.add(10, "deep handle")
	}
	sc.addIf(depth >= cupIdealLow && depth <= cupIdealHigh, 5, "ideal cup depth")
	sc.addIf(in.Ind.MACDBullish(last), cupMACD, "MACD bullish")
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "handle volume dry-up")

	entry := handleHigh * (1 + in.Cfg.Breakout.PriceBuffer)
	cup := rimTop - trough
	return &Candidate{
		Kind:    d.Kind(),
		RawConf: sc.total(),
		Entry:   entry,
		Stop:    handleLow,
		Targets: []model.Target{
			target(entry+cup, "cup depth"),
			target(entry+cupExtension*cup, "cup depth x1.618"),
		},
		Volume:    vol,
		SignalIdx: last,
		Age:       last - r,
		Notes:     sc.notes,
	}, true
}

// rounded checks that smoothed closes mostly fall from l to t and mostly
// rise from t to r.
func rounded(bars []model.OHLCV, l, t, r int) bool {
	smooth := func(i int) float64 {
		from := i - 1
		if from < l {
			from = l
		}
		to := i + 1
		if to > r {
			to = r
		}
		sum := 0.0
		for j := from; j <= to; j++ {
			sum += bars[j].Close
		}
		return sum / float64(to-from+1)
	}
	share := func(from, to int, falling bool) float64 {
		if to <= from {
			return 0
		}
		hits := 0
		for i := from + 1; i <= to; i++ {
			a, b := smooth(i-1), smooth(i)
			if (falling && b < a) || (!falling && b > a) {
				hits++
			}
		}
		return float64(hits) / float64(to-from)
	}
	return share(l, t, true) >= cupDirectional && share(t, r, false) >= cupDirectional
}
