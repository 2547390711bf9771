package pattern

import (
	"math"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/volume"
)

const (
	hsBase          = 35
	hsDeepHead      = 0.10
	hsDepthPoints   = 5
	hsDeepPoints    = 10
	hsSymmetryScale = 15
	hsBrokeOut      = 10
	hsNearNeckline  = 0.95
	hsNearPoints    = 5
	hsMACD          = 5
	hsVolumeSpan    = 2
	hsExtension     = 1.618
)

type inverseHeadShoulders struct{}

func (inverseHeadShoulders) Kind() model.PatternKind { return model.InverseHeadShoulders }

// shoulders is a low-high-low-high-low pivot sequence.
type shoulders struct {
	left, neck1, head, neck2, right calculator.Pivot
}

// neckAt projects the neckline through both neck pivots to bar x.
func (s shoulders) neckAt(x int) float64 {
	span := float64(s.neck2.Index - s.neck1.Index)
	return s.neck1.Price + (s.neck2.Price-s.neck1.Price)*float64(x-s.neck1.Index)/span
}

// Symmetry blends time and price symmetry, each in [0, 1], with the given weights.
func Symmetry(leftIdx, headIdx, rightIdx int, leftLow, headLow, rightLow, neckAtHead float64, hs config.HeadShouldersParams) float64 {
	width := float64(rightIdx - leftIdx)
	timeSym := 1 - math.Abs(float64(headIdx-leftIdx)-float64(rightIdx-headIdx))/width
	priceSym := 1 - math.Abs(leftLow-rightLow)/(neckAtHead-headLow)
	timeSym = math.Max(0, math.Min(1, timeSym))
	priceSym = math.Max(0, math.Min(1, priceSym))
	return (hs.TimeWeight*timeSym + hs.PriceWeight*priceSym) / (hs.TimeWeight + hs.PriceWeight)
}

func (d inverseHeadShoulders) Detect(in *Input) (*Candidate, bool) {
	bars := in.bars()
	last := in.last()
	limit := in.staleAfter(d.Kind())
	strength := in.TF.PivotStrength

	from := last - in.TF.HSMaxWidth - limit - 2*strength
	pivots := calculator.Alternate(calculator.FractalPivots(bars, from, strength))

	for i := len(pivots) - 1; i >= 4; i-- {
		if pivots[i].Kind != calculator.PivotLow {
			continue
		}
		s := shoulders{pivots[i-4], pivots[i-3], pivots[i-2], pivots[i-1], pivots[i]}
		if last-s.right.Index > limit {
			break
		}
		if sym, ok := d.validate(in, s); ok {
			return d.candidate(in, s, sym), true
		}
	}
	return nil, false
}

func (d inverseHeadShoulders) validate(in *Input, s shoulders) (float64, bool) {
	hs := in.Cfg.HeadShoulders
	bars := in.bars()

	if s.head.Price >= s.left.Price || s.head.Price >= s.right.Price {
		return 0, false
	}
	width := s.right.Index - s.left.Index
	if width < in.TF.HSMinWidth || width > in.TF.HSMaxWidth {
		return 0, false
	}
	if math.Abs(s.neck2.Price-s.neck1.Price)/s.neck1.Price > hs.MaxNecklineSlope {
		return 0, false
	}
	neckHead := s.neckAt(s.head.Index)
	depth := (neckHead - s.head.Price) / neckHead
	if depth < hs.MinHeadDepth || depth > hs.MaxHeadDepth {
		return 0, false
	}
	if s.left.Price >= s.neckAt(s.left.Index) || s.right.Price >= s.neckAt(s.right.Index) {
		return 0, false
	}
	if brokeBelow(bars, s.right.Index+1, in.last(), s.head.Price) {
		return 0, false
	}
	sym := Symmetry(s.left.Index, s.head.Index, s.right.Index,
		s.left.Price, s.head.Price, s.right.Price, neckHead, hs)
	if sym < hs.MinSymmetry {
		return 0, false
	}
	return sym, true
}

func (d inverseHeadShoulders) candidate(in *Input, s shoulders, sym float64) *Candidate {
	bars := in.bars()
	last := in.last()

	neckHead := s.neckAt(s.head.Index)
	neckNow := s.neckAt(last)
	depth := neckHead - s.head.Price

	leftVol := calculator.MeanVolume(bars, s.left.Index-hsVolumeSpan, s.left.Index+hsVolumeSpan)
	rightVol := calculator.MeanVolume(bars, s.right.Index-hsVolumeSpan, s.right.Index+hsVolumeSpan)
	vol := volume.At(bars, in.Ind, last, d.Kind(), leftVol > rightVol, in.Cfg.Volume)

	var sc scorecard
	sc.add(hsBase, "five-pivot structure")
	if depth/neckHead >= hsDeepHead {
		sc.add(hsDeepPoints, "deep head")
	} else {
		sc.add(hsDepthPoints, "head depth")
	}
	sc.add(int(math.Round(sym*hsSymmetryScale)), "symmetry")
	switch c := bars[last].Close; {
	case c > neckNow:
		sc.add(hsBrokeOut, "above neckline")
	case c >= neckNow*hsNearNeckline:
		sc.add(hsNearPoints, "near neckline")
	}
	sc.addIf(in.Ind.MACDBullish(last), hsMACD, "MACD bullish")
	sc.add(vol.Score, "volume "+string(vol.Tier))
	sc.add(vol.Bonus, "diminishing shoulder volume")

	entry := neckNow * (1 + in.Cfg.Breakout.PriceBuffer)
	return &Candidate{
		Kind:    d.Kind(),
		RawConf: sc.total(),
		Entry:   entry,
		Stop:    s.head.Price,
		Targets: []model.Target{
			target(neckNow+depth, "head depth"),
			target(neckNow+hsExtension*depth, "head depth x1.618"),
		},
		Volume:    vol,
		SignalIdx: last,
		Age:       last - s.right.Index,
		Notes:     sc.notes,
	}
}
