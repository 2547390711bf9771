package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

func TestRESTFetcher_FetchBars(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		// Newest first on purpose.
		_ = json.NewEncoder(w).Encode([]restBar{
			{Timestamp: 1749686400, Open: 11, High: 12, Low: 10, Close: 11.5, Volume: 2000},
			{Timestamp: 1749600000, Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 1000},
			{Timestamp: 1749513600, Open: 9, High: 10, Low: 8, Close: 9.5, Volume: 500},
		})
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchBars(context.Background(), "BRK.B", model.Daily, 2)
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "interval=1d&limit=2&symbol=BRK.B", gotQuery)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Unix(1749600000, 0).UTC(), bars[0].Time)
	assert.Equal(t, 11.5, bars[1].Close)
	assert.Equal(t, "rest", f.Name())
}

func TestRESTFetcher_WeeklyFallsBackToDaily(t *testing.T) {
	var mu sync.Mutex
	var intervals []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		interval := r.URL.Query().Get("interval")
		mu.Lock()
		intervals = append(intervals, interval)
		mu.Unlock()
		if interval == string(model.Weekly) {
			http.Error(w, "unsupported interval", http.StatusBadRequest)
			return
		}
		monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
		var out []restBar
		for d := 0; d < 10; d++ {
			day := monday.AddDate(0, 0, d+2*(d/5))
			out = append(out, restBar{Timestamp: day.Unix(), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 1})
		}
		_ = json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "", "")
	bars, err := f.FetchBars(context.Background(), "SPY", model.Weekly, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{"1wk", "1d"}, intervals)
	require.Len(t, bars, 2)
	assert.Equal(t, 5.0, bars[0].Volume)
}

func TestRESTFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewRESTFetcher(srv.URL, "", "").FetchBars(context.Background(), "SPY", model.Daily, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
