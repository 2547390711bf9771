package collector

import (
	"time"

	"PatternSentinel/internal/model"
)

// aggregateDailyToWeekly converts daily bars into ISO weeks. The weekly bar
// keeps the time of its first daily bar.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	return aggregate(daily, func(prev, cur model.OHLCV, _ int) bool {
		py, pw := prev.Time.ISOWeek()
		cy, cw := cur.Time.ISOWeek()
		return py != cy || pw != cw
	})
}

// aggregateHourlyToFourHour groups hourly bars into sessions of four bars
// per calendar day, starting from the day's first bar. A day with 7 hourly
// bars yields one full bucket and one short closing bucket.
func aggregateHourlyToFourHour(hourly []model.OHLCV) []model.OHLCV {
	return aggregate(hourly, func(prev, cur model.OHLCV, inBucket int) bool {
		return !sameDay(prev.Time, cur.Time) || inBucket >= 4
	})
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// aggregate folds consecutive bars into one until split reports a boundary.
func aggregate(bars []model.OHLCV, split func(prev, cur model.OHLCV, inBucket int) bool) []model.OHLCV {
	if len(bars) == 0 {
		return nil
	}
	var out []model.OHLCV
	bucket := bars[0]
	n := 1
	prev := bars[0]

	for _, b := range bars[1:] {
		if split(prev, b, n) {
			out = append(out, bucket)
			bucket = b
			n = 1
			prev = b
			continue
		}
		if b.High > bucket.High {
			bucket.High = b.High
		}
		if b.Low < bucket.Low {
			bucket.Low = b.Low
		}
		bucket.Close = b.Close
		bucket.Volume += b.Volume
		n++
		prev = b
	}
	return append(out, bucket)
}
