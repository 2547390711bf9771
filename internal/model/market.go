package model

import (
	"fmt"
	"math"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Range returns high minus low.
func (b OHLCV) Range() float64 { return b.High - b.Low }

// Green reports whether the bar closed above its open.
func (b OHLCV) Green() bool { return b.Close > b.Open }

// Red reports whether the bar closed below its open.
func (b OHLCV) Red() bool { return b.Close < b.Open }

// Timeframe selects the bar interval and the parameter set applied to a series.
type Timeframe string

const (
	Daily    Timeframe = "1d"
	FourHour Timeframe = "4h"
	Weekly   Timeframe = "1wk"
)

// Timeframes lists every supported timeframe.
var Timeframes = []Timeframe{Daily, FourHour, Weekly}

// ParseTimeframe accepts the canonical interval strings plus a few aliases.
func ParseTimeframe(s string) (Timeframe, error) {
	switch s {
	case "1d", "d", "daily", "D":
		return Daily, nil
	case "4h", "4H", "240", "4hour":
		return FourHour, nil
	case "1wk", "1w", "w", "weekly", "W":
		return Weekly, nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Series is an ordered run of bars for one ticker on one timeframe.
type Series struct {
	Ticker    string
	Timeframe Timeframe
	Bars      []OHLCV
}

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.Bars) }

// Last returns the most recent bar index.
func (s *Series) Last() int { return len(s.Bars) - 1 }

// Validate rejects series that violate the bar contract: strictly increasing
// timestamps, finite prices, non-negative volume and a consistent bar shape.
func (s *Series) Validate() error {
	switch s.Timeframe {
	case Daily, FourHour, Weekly:
	default:
		return fmt.Errorf("%w: unknown timeframe %q", ErrInvalidSeries, s.Timeframe)
	}
	for i, b := range s.Bars {
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: bar %d has non-finite value", ErrInvalidSeries, i)
			}
		}
		if b.Volume < 0 {
			return fmt.Errorf("%w: bar %d has negative volume", ErrInvalidSeries, i)
		}
		if b.Low <= 0 || b.High < b.Low {
			return fmt.Errorf("%w: bar %d has inconsistent high/low", ErrInvalidSeries, i)
		}
		if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
			return fmt.Errorf("%w: bar %d has open/close outside its range", ErrInvalidSeries, i)
		}
		if i > 0 && !b.Time.After(s.Bars[i-1].Time) {
			return fmt.Errorf("%w: bar %d timestamp %s not after %s", ErrInvalidSeries, i,
				b.Time.Format(time.RFC3339), s.Bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// SeriesKey identifies a series inside a scan.
type SeriesKey struct {
	Ticker    string
	Timeframe Timeframe
}

func (k SeriesKey) String() string { return k.Ticker + "/" + string(k.Timeframe) }
