package scanner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/fixture"
	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/strategy"
)

func newScanner(t *testing.T, m *metrics.Registry) *Scanner {
	t.Helper()
	e, err := strategy.NewEngine(config.DefaultDetection())
	require.NoError(t, err)
	return New(e, 4, 5*time.Second, m)
}

func TestRun_MixedSeries(t *testing.T) {
	m := metrics.NewRegistry()
	sc := newScanner(t, m)
	series := []*model.Series{
		fixture.Noise("SHORT", 40, fixture.Wednesday),
		fixture.InsideBar("IB", fixture.Wednesday),
		fixture.Breakout("CB", fixture.Wednesday, 1.8),
	}
	patterns := []model.PatternKind{model.ConsolidationBreakout, model.InsideBar}

	rep := sc.Run(context.Background(), series, patterns)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 6, rep.Tuples)
	assert.Equal(t, rep.Tuples, len(rep.Signals)+rep.NoSignal+len(rep.Failures))
	assert.False(t, rep.Finished.Before(rep.Started))

	require.Len(t, rep.Failures, 2)
	for _, f := range rep.Failures {
		assert.Equal(t, "SHORT", f.Ticker)
		assert.Equal(t, model.Daily, f.Timeframe)
		assert.Equal(t, "InsufficientData", f.Kind)
	}
	assert.Equal(t, map[string]int{"InsufficientData": 2}, rep.FailureCounts())

	counts := rep.SignalCounts()
	assert.GreaterOrEqual(t, counts[model.ConsolidationBreakout], 1)
	assert.GreaterOrEqual(t, counts[model.InsideBar], 1)
	for i := 1; i < len(rep.Signals); i++ {
		assert.GreaterOrEqual(t, rep.Signals[i-1].AdjustedConf, rep.Signals[i].AdjustedConf)
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tuples.WithLabelValues("inside_bar", "1d", "InsufficientData")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tuples.WithLabelValues("consolidation_breakout", "1d", "InsufficientData")))
}

func TestRun_CancelledContext(t *testing.T) {
	sc := newScanner(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := []*model.Series{fixture.Breakout("CB", fixture.Wednesday, 1.8)}
	rep := sc.Run(ctx, series, model.AllPatterns)

	assert.Equal(t, len(model.AllPatterns), rep.Tuples)
	assert.Empty(t, rep.Signals)
	require.Len(t, rep.Failures, len(model.AllPatterns))
	for _, f := range rep.Failures {
		assert.Equal(t, "Canceled", f.Kind)
	}
}

func TestRun_TaskTimeout(t *testing.T) {
	e, err := strategy.NewEngine(config.DefaultDetection())
	require.NoError(t, err)
	m := metrics.NewRegistry()
	sc := New(e, 2, time.Nanosecond, m)

	series := []*model.Series{fixture.Breakout("CB", fixture.Wednesday, 1.8)}
	rep := sc.Run(context.Background(), series, model.AllPatterns)

	assert.Equal(t, len(model.AllPatterns), rep.Tuples)
	assert.Empty(t, rep.Signals)
	assert.Zero(t, rep.NoSignal)
	assert.Equal(t, map[string]int{"DeadlineExceeded": len(model.AllPatterns)}, rep.FailureCounts())
	for _, f := range rep.Failures {
		assert.Equal(t, "CB", f.Ticker)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Tuples.WithLabelValues("bull_flag", "1d", "DeadlineExceeded")))
}

func TestRun_Empty(t *testing.T) {
	rep := newScanner(t, nil).Run(context.Background(), nil, model.AllPatterns)
	assert.Zero(t, rep.Tuples)
	assert.Empty(t, rep.Signals)
	assert.Empty(t, rep.Failures)
}

func TestSortSignals(t *testing.T) {
	signals := []*model.Signal{
		{Ticker: "B", Timeframe: model.Daily, Pattern: model.BullFlag, AdjustedConf: 60},
		{Ticker: "A", Timeframe: model.Weekly, Pattern: model.BullFlag, AdjustedConf: 60},
		{Ticker: "A", Timeframe: model.Daily, Pattern: model.InsideBar, AdjustedConf: 60},
		{Ticker: "A", Timeframe: model.Daily, Pattern: model.CupHandle, AdjustedConf: 60},
		{Ticker: "Z", Timeframe: model.Daily, Pattern: model.FlatTop, AdjustedConf: 90},
	}
	SortSignals(signals)

	var got []string
	for _, s := range signals {
		got = append(got, fmt.Sprintf("%s/%s/%s", s.Ticker, s.Timeframe, s.Pattern))
	}
	assert.Equal(t, []string{
		"Z/1d/flat_top",
		"A/1d/cup_handle",
		"A/1d/inside_bar",
		"A/1wk/bull_flag",
		"B/1d/bull_flag",
	}, got)
}

func TestReport_AddFailure(t *testing.T) {
	var rep Report
	rep.AddFailure(&model.TupleError{
		Ticker:    "AAPL",
		Timeframe: model.FourHour,
		Err:       fmt.Errorf("%w: yahoo: timeout", model.ErrFetch),
	})
	rep.AddFailure(errors.New("boom"))

	require.Len(t, rep.Failures, 2)
	assert.Equal(t, Diagnostic{
		Ticker:    "AAPL",
		Timeframe: model.FourHour,
		Kind:      "FetchError",
		Message:   "fetch error: yahoo: timeout",
	}, rep.Failures[0])
	assert.Equal(t, "Internal", rep.Failures[1].Kind)
	assert.Equal(t, "boom", rep.Failures[1].Message)
}
