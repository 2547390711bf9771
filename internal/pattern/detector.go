// Package pattern holds the six chart-pattern recognisers. Every recogniser
// is a pure function of its Input and is dispatched by model.PatternKind.
package pattern

import (
	"fmt"
	"math"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

// Input is everything a detector may read. Nothing in it is mutated.
type Input struct {
	Series *model.Series
	Ind    *model.Indicators
	Cfg    config.Detection
	TF     config.TimeframeParams
}

func (in *Input) bars() []model.OHLCV { return in.Series.Bars }
func (in *Input) last() int { return len(in.Series.Bars) - 1 }

// staleAfter is the staleness limit for kind on this timeframe.
func (in *Input) staleAfter(kind model.PatternKind) int { return in.TF.Staleness.Get(kind) }

// Candidate is a detector's match before timing and risk are applied.
type Candidate struct {
	Kind         model.PatternKind
	RawConf      float64
	Entry        float64
	Stop         float64
	Targets      []model.Target
	Volume       model.VolumeVerdict
	Box          *model.Box
	Confirmation model.ConfirmationLevel
	// SignalIdx anchors the timestamp, ATR and timing checks.
	SignalIdx int
	Age       int
	Notes     []string
}

// Detector recognises one pattern kind.
type Detector interface {
	Kind() model.PatternKind
	// Detect returns the most recent qualifying candidate, or false.
	Detect(in *Input) (*Candidate, bool)
}

var registry = map[model.PatternKind]Detector{
	model.ConsolidationBreakout: consolidationBreakout{},
	model.InsideBar:             insideBar{},
	model.BullFlag:              bullFlag{},
	model.FlatTop:               flatTop{},
	model.InverseHeadShoulders:  inverseHeadShoulders{},
	model.CupHandle:             cupHandle{},
}

// ForKind returns the detector registered for kind.
func ForKind(kind model.PatternKind) (Detector, error) {
	d, ok := registry[kind]
	if !ok {
		return nil, fmt.Errorf("%w: no detector for pattern %q", model.ErrConfiguration, kind)
	}
	return d, nil
}

// All returns every detector in model.AllPatterns order.
func All() []Detector {
	out := make([]Detector, 0, len(model.AllPatterns))
	for _, k := range model.AllPatterns {
		out = append(out, registry[k])
	}
	return out
}

// scorecard accumulates raw confidence and the reasons behind it.
type scorecard struct {
	points float64
	notes  []string
}

func (s *scorecard) add(pts int, note string) {
	if pts == 0 {
		return
	}
	s.points += float64(pts)
	s.notes = append(s.notes, fmt.Sprintf("%s +%d", note, pts))
}

func (s *scorecard) addIf(cond bool, pts int, note string) {
	if cond {
		s.add(pts, note)
	}
}

func (s *scorecard) total() float64 { return math.Max(0, math.Min(100, s.points)) }

func target(price float64, method string) model.Target {
	return model.Target{Price: price, Method: method}
}
