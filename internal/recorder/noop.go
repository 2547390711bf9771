package recorder

import "sync"

// NoopRecorder is used when SQLite is not configured. It remembers only
// the last run so /status still has something to show.
type NoopRecorder struct {
	mu   sync.Mutex
	last *ScanRun
}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordScan(run *ScanRun) error {
	n.mu.Lock()
	n.last = run
	n.mu.Unlock()
	return nil
}

func (n *NoopRecorder) LastScan() (*ScanRun, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.last, nil
}

func (n *NoopRecorder) Close() error { return nil }
