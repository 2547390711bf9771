package strategy

import (
	"fmt"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/pattern"
	"PatternSentinel/internal/risk"
	"PatternSentinel/internal/timing"
	"PatternSentinel/internal/volume"
)

// Grades maps adjusted confidence to a letter grade, highest first.
var Grades = []struct {
	MinConf float64
	Label   string
}{
	{85, "A"},
	{70, "B"},
	{55, "C"},
}

// DefaultGrade is used below the lowest grade threshold.
const DefaultGrade = "D"

func mapGrade(conf float64) string {
	for _, g := range Grades {
		if conf >= g.MinConf {
			return g.Label
		}
	}
	return DefaultGrade
}

// Engine runs one detection pass per call. It holds only the immutable
// parameter bundle, so a single Engine is safe for concurrent use.
type Engine struct {
	cfg config.Detection
}

// NewEngine validates cfg and returns an Engine bound to it.
func NewEngine(cfg config.Detection) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's parameters.
func (e *Engine) Config() config.Detection { return e.cfg }

// Detect looks for one pattern kind in s. A missing or suppressed pattern
// yields an error wrapping model.ErrNoSignal; callers should treat that as
// "nothing found", not as a failure.
func (e *Engine) Detect(s *model.Series, kind model.PatternKind) (*model.Signal, error) {
	det, err := pattern.ForKind(kind)
	if err != nil {
		return nil, err
	}
	tf := e.cfg.For(s.Timeframe)
	ind, err := calculator.Normalize(s, tf)
	if err != nil {
		return nil, err
	}

	adv, err := calculator.AverageDollarVolume(s.Bars, tf.Lookback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInsufficientData, err)
	}
	if adv < e.cfg.LiquidityFloor {
		return nil, fmt.Errorf("%w: average dollar volume %.0f below floor %.0f",
			model.ErrNoSignal, adv, e.cfg.LiquidityFloor)
	}

	cand, ok := det.Detect(&pattern.Input{Series: s, Ind: ind, Cfg: e.cfg, TF: tf})
	if !ok {
		return nil, fmt.Errorf("%w: no %s structure", model.ErrNoSignal, kind)
	}
	if limit := tf.Staleness.Get(kind); cand.Age > limit {
		return nil, fmt.Errorf("%w: %s is %d bars old, limit %d", model.ErrNoSignal, kind, cand.Age, limit)
	}
	if cand.RawConf < e.cfg.MinConfidence {
		return nil, fmt.Errorf("%w: %s confidence %.0f below floor %.0f",
			model.ErrNoSignal, kind, cand.RawConf, e.cfg.MinConfidence)
	}

	tc := timing.Adjust(s, cand.SignalIdx, kind, cand.Volume.Tier, tf.Lookback, e.cfg.Timing)
	adjusted, capped := volume.Cap(timing.Apply(cand.RawConf, tc), cand.Volume.Tier, e.cfg.Volume)

	atr := ind.ATR[cand.SignalIdx]
	levels, err := risk.Calculate(cand.Entry, cand.Stop, cand.Targets, atr, e.cfg.Risk)
	if err != nil {
		return nil, fmt.Errorf("%s levels: %w", kind, err)
	}

	return &model.Signal{
		Ticker:       s.Ticker,
		Pattern:      kind,
		Timeframe:    s.Timeframe,
		RawConf:      cand.RawConf,
		AdjustedConf: adjusted,
		Capped:       capped,
		Grade:        mapGrade(adjusted),
		Levels:       levels,
		Volume:       cand.Volume,
		Timing:       tc,
		Box:          cand.Box,
		Confirmation: cand.Confirmation,
		AgeBars:      cand.Age,
		SignalTime:   s.Bars[cand.SignalIdx].Time,
		ATR:          atr,
		Notes:        cand.Notes,
	}, nil
}

// DetectAll runs every kind against s. Failures other than ErrNoSignal are
// returned per kind; they never stop the remaining kinds.
func (e *Engine) DetectAll(s *model.Series, kinds []model.PatternKind) ([]*model.Signal, []error) {
	var (
		signals []*model.Signal
		errs    []error
	)
	for _, k := range kinds {
		sig, err := e.Detect(s, k)
		switch {
		case err == nil:
			signals = append(signals, sig)
		case model.ErrorKind(err) != "NoSignal":
			errs = append(errs, &model.TupleError{Ticker: s.Ticker, Timeframe: s.Timeframe, Pattern: k, Err: err})
		}
	}
	return signals, errs
}
