package recorder

import (
	"time"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/scanner"
)

// ScanRun is the audit record of one scan. Signals themselves are not kept,
// only how many each pattern produced.
type ScanRun struct {
	RunID          string
	Source         string
	Trigger        string // "cli", "cron" or "command"
	Started        time.Time
	Finished       time.Time
	Tuples         int
	Signals        int
	NoSignal       int
	PatternSignals map[model.PatternKind]int
	Failures       []scanner.Diagnostic
}

// Duration is the wall time of the run.
func (r *ScanRun) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// FromReport builds the audit record of rep.
func FromReport(rep *scanner.Report, source, trigger string) *ScanRun {
	return &ScanRun{
		RunID:          rep.RunID,
		Source:         source,
		Trigger:        trigger,
		Started:        rep.Started,
		Finished:       rep.Finished,
		Tuples:         rep.Tuples,
		Signals:        len(rep.Signals),
		NoSignal:       rep.NoSignal,
		PatternSignals: rep.SignalCounts(),
		Failures:       rep.Failures,
	}
}

// Recorder persists the scan audit log.
type Recorder interface {
	RecordScan(run *ScanRun) error
	// LastScan returns the most recent run, or nil when none was recorded.
	LastScan() (*ScanRun, error)
	Close() error
}
