package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSeries() *Series {
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	s := &Series{Ticker: "T", Timeframe: Daily}
	for i := 0; i < 3; i++ {
		s.Bars = append(s.Bars, OHLCV{Time: start.AddDate(0, 0, i), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100})
	}
	return s
}

func TestSeries_Validate(t *testing.T) {
	require.NoError(t, validSeries().Validate())

	tests := []struct {
		name   string
		mutate func(s *Series)
	}{
		{"unknown timeframe", func(s *Series) { s.Timeframe = "1m" }},
		{"nan close", func(s *Series) { s.Bars[1].Close = math.NaN() }},
		{"infinite high", func(s *Series) { s.Bars[1].High = math.Inf(1) }},
		{"negative volume", func(s *Series) { s.Bars[2].Volume = -1 }},
		{"high below low", func(s *Series) { s.Bars[0].High = 8 }},
		{"zero low", func(s *Series) { s.Bars[0].Low = 0 }},
		{"open above high", func(s *Series) { s.Bars[0].Open = 12 }},
		{"close below low", func(s *Series) { s.Bars[0].Close = 8.5 }},
		{"duplicate time", func(s *Series) { s.Bars[2].Time = s.Bars[1].Time }},
		{"time goes back", func(s *Series) { s.Bars[2].Time = s.Bars[0].Time.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSeries()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSeries))
		})
	}
}

func TestParseTimeframe(t *testing.T) {
	for in, want := range map[string]Timeframe{"1d": Daily, "daily": Daily, "4h": FourHour, "240": FourHour, "1wk": Weekly, "W": Weekly} {
		got, err := ParseTimeframe(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseTimeframe("15m")
	assert.Error(t, err)
}

func TestParsePattern(t *testing.T) {
	k, err := ParsePattern("inverse_head_shoulders")
	require.NoError(t, err)
	assert.Equal(t, InverseHeadShoulders, k)
	assert.Equal(t, "Inverse Head & Shoulders", k.Title())

	_, err = ParsePattern("wedge")
	assert.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	tests := map[string]error{
		"":                   nil,
		"InsufficientData":   fmt.Errorf("%w: short", ErrInsufficientData),
		"InvalidSeries":      ErrInvalidSeries,
		"NoSignal":           fmt.Errorf("wrapped: %w", ErrNoSignal),
		"ConfigurationError": ErrConfiguration,
		"FetchError":         ErrFetch,
		"DeadlineExceeded":   context.DeadlineExceeded,
		"Canceled":           context.Canceled,
		"Internal":           errors.New("boom"),
	}
	for want, err := range tests {
		assert.Equal(t, want, ErrorKind(err))
	}
}

func TestTupleError(t *testing.T) {
	err := &TupleError{Ticker: "AAPL", Timeframe: Daily, Pattern: BullFlag, Err: ErrInsufficientData}
	assert.Equal(t, "AAPL/1d/bull_flag: insufficient data", err.Error())
	assert.True(t, errors.Is(err, ErrInsufficientData))
	assert.Equal(t, "InsufficientData", err.Kind())

	fetch := &TupleError{Ticker: "AAPL", Timeframe: Weekly, Err: ErrFetch}
	assert.Equal(t, "AAPL/1wk: fetch error", fetch.Error())
}

func TestBoxAndVerdicts(t *testing.T) {
	b := &Box{High: 105, Low: 100, Criteria: []Criterion{CriterionBoxWidth}}
	assert.True(t, b.Has(CriterionBoxWidth))
	assert.False(t, b.Has(CriterionEMASpread))
	assert.Equal(t, 5.0, b.Height())

	assert.Equal(t, 23, VolumeVerdict{Score: 15, Bonus: 8}.Points())
	assert.True(t, VolumeExceptional.AtLeast(VolumeStrong))
	assert.True(t, VolumeGood.AtLeast(VolumeGood))
	assert.False(t, VolumeGood.AtLeast(VolumeStrong))
}

func TestIndicators_MACD(t *testing.T) {
	ind := &Indicators{
		MACD:     []float64{math.NaN(), 1, 2},
		MACDSig:  []float64{math.NaN(), 2, 1},
		MACDHist: []float64{math.NaN(), -1, 1},
	}
	assert.False(t, ind.MACDBullish(0))
	assert.False(t, ind.MACDBullish(1))
	assert.True(t, ind.MACDBullish(2))
	assert.False(t, ind.MACDBullish(3))
	assert.False(t, ind.MACDImproving(1))
	assert.True(t, ind.MACDImproving(2))
	assert.True(t, Valid(1))
	assert.False(t, Valid(math.Inf(-1)))
}
