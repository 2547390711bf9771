package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInsufficientData means the series is shorter than the timeframe requires.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrInvalidSeries means the series breaks the bar contract.
	ErrInvalidSeries = errors.New("invalid series")
	// ErrNoSignal is the deliberate "no match" outcome of a detector. It is not a failure.
	ErrNoSignal = errors.New("no signal")
	// ErrConfiguration means a parameter is outside its sane bounds.
	ErrConfiguration = errors.New("configuration error")
	// ErrFetch marks a data acquisition failure for a tuple.
	ErrFetch = errors.New("fetch error")
)

// TupleError is a failure local to one (ticker, timeframe, pattern) tuple.
type TupleError struct {
	Ticker    string
	Timeframe Timeframe
	Pattern   PatternKind
	Err       error
}

func (e *TupleError) Error() string {
	if e.Pattern == "" {
		return fmt.Sprintf("%s/%s: %v", e.Ticker, e.Timeframe, e.Err)
	}
	return fmt.Sprintf("%s/%s/%s: %v", e.Ticker, e.Timeframe, e.Pattern, e.Err)
}

func (e *TupleError) Unwrap() error { return e.Err }

// Kind classifies the failure for diagnostics.
func (e *TupleError) Kind() string {
	return ErrorKind(e.Err)
}

// ErrorKind maps an error onto its diagnostic kind name.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "InsufficientData"
	case errors.Is(err, ErrInvalidSeries):
		return "InvalidSeries"
	case errors.Is(err, ErrNoSignal):
		return "NoSignal"
	case errors.Is(err, ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, ErrFetch):
		return "FetchError"
	case errors.Is(err, context.DeadlineExceeded):
		return "DeadlineExceeded"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	default:
		return "Internal"
	}
}
