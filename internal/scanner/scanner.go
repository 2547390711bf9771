// Package scanner fans detection out over (ticker, timeframe, pattern) tuples.
package scanner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/strategy"
)

// Diagnostic is the report form of a failed tuple.
type Diagnostic struct {
	Ticker    string            `json:"ticker"`
	Timeframe model.Timeframe   `json:"timeframe"`
	Pattern   model.PatternKind `json:"pattern,omitempty"`
	Kind      string            `json:"kind"`
	Message   string            `json:"message"`
}

// Report is the outcome of one scan.
type Report struct {
	RunID    string          `json:"run_id"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Tuples   int             `json:"tuples"`
	NoSignal int             `json:"no_signal"`
	Signals  []*model.Signal `json:"signals"`
	Failures []Diagnostic    `json:"failures"`
}

// Elapsed is the scan's wall time.
func (r *Report) Elapsed() time.Duration { return r.Finished.Sub(r.Started) }

// FailureCounts groups failures by kind.
func (r *Report) FailureCounts() map[string]int {
	out := make(map[string]int)
	for _, f := range r.Failures {
		out[f.Kind]++
	}
	return out
}

// SignalCounts groups signals by pattern.
func (r *Report) SignalCounts() map[model.PatternKind]int {
	out := make(map[model.PatternKind]int)
	for _, s := range r.Signals {
		out[s.Pattern]++
	}
	return out
}

// AddFailure appends err as a diagnostic. TupleErrors keep their coordinates.
func (r *Report) AddFailure(err error) {
	d := Diagnostic{Kind: model.ErrorKind(err), Message: err.Error()}
	if te, ok := err.(*model.TupleError); ok {
		d.Ticker, d.Timeframe, d.Pattern = te.Ticker, te.Timeframe, te.Pattern
		d.Message = te.Err.Error()
	}
	r.Failures = append(r.Failures, d)
}

// Scanner runs an Engine over many series with bounded parallelism.
type Scanner struct {
	engine  *strategy.Engine
	workers int
	timeout time.Duration
	metrics *metrics.Registry
}

// New creates a Scanner. m may be nil.
func New(engine *strategy.Engine, workers int, timeout time.Duration, m *metrics.Registry) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{engine: engine, workers: workers, timeout: timeout, metrics: m}
}

type task struct {
	series  *model.Series
	pattern model.PatternKind
}

type outcome struct {
	signal *model.Signal
	err    error
}

// Run evaluates every pattern against every series. A failing tuple never
// aborts its siblings; its error lands in Report.Failures. Cancelling ctx
// fails the tuples that have not finished yet.
func (s *Scanner) Run(ctx context.Context, series []*model.Series, patterns []model.PatternKind) *Report {
	rep := &Report{RunID: uuid.NewString(), Started: time.Now()}

	tasks := make([]task, 0, len(series)*len(patterns))
	for _, ser := range series {
		for _, p := range patterns {
			tasks = append(tasks, task{series: ser, pattern: p})
		}
	}
	rep.Tuples = len(tasks)

	results := make([]outcome, len(tasks))
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, t := range tasks {
		i, t := i, t
		g.Go(func() error {
			results[i] = s.runTask(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		t := tasks[i]
		switch {
		case res.err == nil:
			rep.Signals = append(rep.Signals, res.signal)
		case model.ErrorKind(res.err) == "NoSignal":
			rep.NoSignal++
		default:
			rep.AddFailure(&model.TupleError{
				Ticker:    t.series.Ticker,
				Timeframe: t.series.Timeframe,
				Pattern:   t.pattern,
				Err:       res.err,
			})
		}
	}
	SortSignals(rep.Signals)
	rep.Finished = time.Now()

	log.Info().
		Str("run_id", rep.RunID).
		Int("tuples", rep.Tuples).
		Int("signals", len(rep.Signals)).
		Int("failures", len(rep.Failures)).
		Dur("elapsed", rep.Elapsed()).
		Msg("scan complete")
	return rep
}

func (s *Scanner) runTask(ctx context.Context, t task) (res outcome) {
	start := time.Now()
	defer func() {
		outcomeLabel := "signal"
		if res.err != nil {
			outcomeLabel = model.ErrorKind(res.err)
		}
		s.metrics.ObserveTuple(string(t.pattern), string(t.series.Timeframe), outcomeLabel, time.Since(start))
		if res.signal != nil {
			s.metrics.ObserveSignal(string(t.pattern), res.signal.AdjustedConf)
		}
	}()

	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}
	tctx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		tctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("detector panic: %v", r)}
			}
		}()
		sig, err := s.engine.Detect(t.series, t.pattern)
		done <- outcome{signal: sig, err: err}
	}()

	select {
	case res = <-done:
		return res
	case <-tctx.Done():
		// The detection goroutine finishes on its own; its result is dropped.
		log.Warn().
			Str("ticker", t.series.Ticker).
			Str("timeframe", string(t.series.Timeframe)).
			Str("pattern", string(t.pattern)).
			Msg("tuple abandoned")
		return outcome{err: tctx.Err()}
	}
}

// SortSignals orders by adjusted confidence descending, then ticker,
// timeframe and pattern.
func SortSignals(signals []*model.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		a, b := signals[i], signals[j]
		if a.AdjustedConf != b.AdjustedConf {
			return a.AdjustedConf > b.AdjustedConf
		}
		if a.Ticker != b.Ticker {
			return a.Ticker < b.Ticker
		}
		if a.Timeframe != b.Timeframe {
			return a.Timeframe < b.Timeframe
		}
		return a.Pattern < b.Pattern
	})
}
