package collector

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/model"
)

// fetchMargin is requested on top of a timeframe's required bar count so a
// few dropped holiday bars do not push a series below the minimum.
const fetchMargin = 10

// Result is the outcome of one collection round.
type Result struct {
	Series   []*model.Series
	Failures []error
}

// Collector fetches a series for every (ticker, timeframe) pair.
type Collector struct {
	Fetcher   Fetcher
	Detection config.Detection
	Parallel  int

	metrics *metrics.Registry
}

// NewCollector creates a new Collector. m may be nil.
func NewCollector(fetcher Fetcher, det config.Detection, parallel int, m *metrics.Registry) *Collector {
	if parallel < 1 {
		parallel = 1
	}
	return &Collector{Fetcher: fetcher, Detection: det, Parallel: parallel, metrics: m}
}

// Collect fetches all pairs. A failed pair becomes a TupleError wrapping
// model.ErrFetch and never stops the others. Series come back in
// ticker-major input order.
func (c *Collector) Collect(ctx context.Context, tickers []string, timeframes []model.Timeframe) *Result {
	type slot struct {
		series *model.Series
		err    error
	}
	slots := make([]slot, len(tickers)*len(timeframes))

	var g errgroup.Group
	g.SetLimit(c.Parallel)
	var once sync.Once
	for i, ticker := range tickers {
		for j, tf := range timeframes {
			idx, ticker, tf := i*len(timeframes)+j, ticker, tf
			g.Go(func() error {
				count := c.Detection.For(tf).Required() + fetchMargin
				bars, err := c.Fetcher.FetchBars(ctx, ticker, tf, count)
				c.metrics.ObserveFetch(c.Fetcher.Name(), err)
				if err != nil {
					once.Do(func() {
						log.Warn().Err(err).Str("source", c.Fetcher.Name()).Msg("fetch failures in this round")
					})
					slots[idx].err = &model.TupleError{
						Ticker:    ticker,
						Timeframe: tf,
						Err:       fmt.Errorf("%w: %s: %v", model.ErrFetch, c.Fetcher.Name(), err),
					}
					return nil
				}
				slots[idx].series = &model.Series{Ticker: ticker, Timeframe: tf, Bars: bars}
				return nil
			})
		}
	}
	_ = g.Wait()

	res := &Result{}
	for _, s := range slots {
		if s.err != nil {
			res.Failures = append(res.Failures, s.err)
			continue
		}
		res.Series = append(res.Series, s.series)
	}
	log.Info().
		Str("source", c.Fetcher.Name()).
		Int("series", len(res.Series)).
		Int("failures", len(res.Failures)).
		Msg("collection complete")
	return res
}
