package scheduler

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/scanner"
	"PatternSentinel/internal/strategy"
)

type captureSender struct {
	mu    sync.Mutex
	texts []string
}

func (c *captureSender) SendWithRetry(_ context.Context, text string, _ int) error {
	c.mu.Lock()
	c.texts = append(c.texts, text)
	c.mu.Unlock()
	return nil
}

func newJob(t *testing.T, rec recorder.Recorder) *Job {
	t.Helper()
	det := config.DefaultDetection()
	engine, err := strategy.NewEngine(det)
	require.NoError(t, err)
	m := metrics.NewRegistry()
	fetcher := &collector.MockFetcher{End: time.Date(2025, time.June, 11, 0, 0, 0, 0, time.UTC)}
	return &Job{
		Collector:  collector.NewCollector(fetcher, det, 2, m),
		Scanner:    scanner.New(engine, 4, 5*time.Second, m),
		Recorder:   rec,
		Metrics:    m,
		Tickers:    []string{"AAA", "BBB"},
		Timeframes: []model.Timeframe{model.Daily, model.Weekly},
		Patterns:   model.AllPatterns,
	}
}

func TestJob_Run(t *testing.T) {
	rec := recorder.NewNoopRecorder()
	job := newJob(t, rec)

	rep, err := job.Run(context.Background(), "cli")
	require.NoError(t, err)

	assert.Equal(t, 2*2*len(model.AllPatterns), rep.Tuples)
	assert.Empty(t, rep.Failures)
	assert.Equal(t, rep.Tuples, len(rep.Signals)+rep.NoSignal)

	last, err := rec.LastScan()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, rep.RunID, last.RunID)
	assert.Equal(t, "mock", last.Source)
	assert.Equal(t, "cli", last.Trigger)
}

func TestJob_RejectsConcurrentRun(t *testing.T) {
	job := newJob(t, nil)
	job.running.Store(true)

	_, err := job.Run(context.Background(), "cron")
	assert.ErrorIs(t, err, ErrScanRunning)
}

func TestHandleCommand(t *testing.T) {
	rec := recorder.NewNoopRecorder()
	s := NewScheduler(context.Background(), newJob(t, rec), &captureSender{}, rec)
	ctx := context.Background()

	assert.Equal(t, notifier.HelpText, s.HandleCommand(ctx, "/help"))
	assert.Equal(t, notifier.HelpText, s.HandleCommand(ctx, "   "))
	assert.Equal(t, notifier.HelpText, s.HandleCommand(ctx, "hello"))
	assert.Equal(t, "📦 No scan has run yet.", s.HandleCommand(ctx, "/status"))

	digest := s.HandleCommand(ctx, "/scan@PatternSentinelBot")
	assert.True(t, strings.HasPrefix(digest, "📊 <b>PatternSentinel scan</b>"))

	last, err := rec.LastScan()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "command", last.Trigger)
	assert.Contains(t, s.HandleCommand(ctx, "/status"), last.RunID)

	s.Job.running.Store(true)
	assert.Equal(t, "⏳ A scan is already running.", s.HandleCommand(ctx, "/scan"))
}

func TestScheduler_RunNowSendsDigest(t *testing.T) {
	sender := &captureSender{}
	rec := recorder.NewNoopRecorder()
	s := NewScheduler(context.Background(), newJob(t, rec), sender, rec)

	s.RunNow()

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "PatternSentinel scan")
	last, err := rec.LastScan()
	require.NoError(t, err)
	assert.Equal(t, "startup", last.Trigger)
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(context.Background(), newJob(t, nil), &captureSender{}, recorder.NewNoopRecorder())

	require.NoError(t, s.Register("0 30 16 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 1)
	assert.Error(t, s.Register("not a cron"))
}

func TestCronLogger(t *testing.T) {
	var buf bytes.Buffer
	l := cronLogger{l: zerolog.New(&buf).Level(zerolog.DebugLevel)}

	l.Error(errors.New("boom"), "panic", "job", "scan")
	l.Info("skip", "entry", 1)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, want := range []string{`"level":"error"`, `"error":"boom"`, `"job":"scan"`, `"message":"panic"`} {
		assert.Contains(t, lines[0], want)
	}
	for _, want := range []string{`"level":"debug"`, `"entry":1`, `"message":"skip"`} {
		assert.Contains(t, lines[1], want)
	}
}
