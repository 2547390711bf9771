package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Observe(t *testing.T) {
	r := NewRegistry()

	r.ObserveTuple("bull_flag", "1d", "signal", time.Millisecond)
	r.ObserveTuple("bull_flag", "1d", "signal", time.Millisecond)
	r.ObserveSignal("bull_flag", 72)
	r.ObserveFetch("yahoo", nil)
	r.ObserveFetch("yahoo", errors.New("timeout"))
	r.ObserveCache(true)
	r.ObserveCache(false)
	r.ObserveCache(false)
	finished := time.Unix(1_750_000_000, 0)
	r.ObserveScan(3*time.Second, finished)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Tuples.WithLabelValues("bull_flag", "1d", "signal")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Fetches.WithLabelValues("yahoo", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Fetches.WithLabelValues("yahoo", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.CacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.CacheMiss))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Scans))
	assert.Equal(t, float64(finished.Unix()), testutil.ToFloat64(r.LastScan))
	assert.Equal(t, 1, testutil.CollectAndCount(r.SignalConfidence))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveTuple("x", "1d", "signal", time.Second)
		r.ObserveSignal("x", 50)
		r.ObserveScan(time.Second, time.Now())
		r.ObserveFetch("mock", nil)
		r.ObserveCache(true)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.ObserveScan(time.Second, time.Now())

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "patternsentinel_scans_total 1"))
	assert.True(t, strings.Contains(body, "patternsentinel_scan_duration_seconds_bucket"))
}
