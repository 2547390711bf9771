package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

const chartJSON = `{"chart":{"result":[{
	"meta":{"exchangeTimezoneName":"America/New_York"},
	"timestamp":[1749648600,1749562200,1749735000],
	"indicators":{"quote":[{
		"open":[101,100,null],
		"high":[103,102,null],
		"low":[100,99,null],
		"close":[102,101,null],
		"volume":[2000,1000,null]
	}]}
}],"error":null}}`

func TestParseChart(t *testing.T) {
	bars, err := parseChart([]byte(chartJSON))
	require.NoError(t, err)

	require.Len(t, bars, 2)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.Equal(t, time.Tuesday, bars[0].Time.Weekday())
	if _, err := time.LoadLocation("America/New_York"); err == nil {
		assert.Equal(t, "America/New_York", bars[0].Time.Location().String())
	}
}

func TestParseChart_APIError(t *testing.T) {
	_, err := parseChart([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")

	_, err = parseChart([]byte(`{"chart":{"result":[],"error":null}}`))
	assert.Error(t, err)
}

func newTestYahoo(url string) *YahooFetcher {
	f := NewYahooFetcher("", 1000, 100)
	f.BaseURL = url
	return f
}

func TestYahooFetcher_FetchBars(t *testing.T) {
	var path, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		fmt.Fprint(w, chartJSON)
	}))
	defer srv.Close()

	f := newTestYahoo(srv.URL)
	bars, err := f.FetchBars(context.Background(), "SPX", model.Daily, 1)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/^GSPC", path)
	assert.Equal(t, "interval=1d&range=1mo", query)
	require.Len(t, bars, 1)
	assert.Equal(t, 102.0, bars[0].Close)

	_, err = f.FetchBars(context.Background(), "SPX", "1m", 1)
	assert.Error(t, err)
}

func TestYahooFetcher_NotFoundKeepsBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := newTestYahoo(srv.URL)
	for i := 0; i < 5; i++ {
		_, err := f.FetchBars(context.Background(), "NOPE", model.Daily, 10)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errSymbolNotFound))
	}
	assert.Equal(t, gobreaker.StateClosed, f.breaker.State())
}

func TestYahooFetcher_BreakerOpensOnServerErrors(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "upstream", http.StatusBadGateway)
	}))
	defer srv.Close()

	f := newTestYahoo(srv.URL)
	for i := 0; i < 3; i++ {
		_, err := f.FetchBars(context.Background(), "SPY", model.Daily, 10)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "status 502"))
	}
	assert.Equal(t, gobreaker.StateOpen, f.breaker.State())

	_, err := f.FetchBars(context.Background(), "SPY", model.Daily, 10)
	assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
	assert.Equal(t, 3, hits)
}

func TestRanges(t *testing.T) {
	assert.Equal(t, "2y", dailyRange(277))
	assert.Equal(t, "5y", dailyRange(1050))
	assert.Equal(t, "max", dailyRange(5000))
	assert.Equal(t, "5y", weeklyRange(122))
	assert.Equal(t, "10y", weeklyRange(400))
}
