package scheduler

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/scanner"
)

// ErrScanRunning is returned when a scan is requested while one is in flight.
var ErrScanRunning = errors.New("scan already running")

// Job is one collect, scan and record pass over the configured universe.
type Job struct {
	Collector  *collector.Collector
	Scanner    *scanner.Scanner
	Recorder   recorder.Recorder
	Metrics    *metrics.Registry
	Tickers    []string
	Timeframes []model.Timeframe
	Patterns   []model.PatternKind

	running atomic.Bool
}

// Run executes the job. trigger is stored in the audit log. Only one Run
// may be in flight; a concurrent call returns ErrScanRunning.
func (j *Job) Run(ctx context.Context, trigger string) (*scanner.Report, error) {
	if !j.running.CompareAndSwap(false, true) {
		return nil, ErrScanRunning
	}
	defer j.running.Store(false)

	log.Info().Str("trigger", trigger).Int("tickers", len(j.Tickers)).Msg("scan started")
	col := j.Collector.Collect(ctx, j.Tickers, j.Timeframes)

	rep := j.Scanner.Run(ctx, col.Series, j.Patterns)
	for _, err := range col.Failures {
		rep.AddFailure(err)
	}
	j.Metrics.ObserveScan(rep.Elapsed(), rep.Finished)

	if j.Recorder != nil {
		run := recorder.FromReport(rep, j.Collector.Fetcher.Name(), trigger)
		if err := j.Recorder.RecordScan(run); err != nil {
			log.Error().Err(err).Str("run_id", rep.RunID).Msg("record scan")
		}
	}
	return rep, nil
}
