package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/model"
)

func TestAggregateDailyToWeekly(t *testing.T) {
	monday := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	var daily []model.OHLCV
	for d := 0; d < 10; d++ {
		day := monday.AddDate(0, 0, d+2*(d/5))
		p := float64(100 + d)
		daily = append(daily, model.OHLCV{Time: day, Open: p, High: p + 2, Low: p - 1, Close: p + 1, Volume: 10})
	}

	weekly := aggregateDailyToWeekly(daily)
	require.Len(t, weekly, 2)

	w := weekly[0]
	assert.Equal(t, monday, w.Time)
	assert.Equal(t, 100.0, w.Open)
	assert.Equal(t, 106.0, w.High)
	assert.Equal(t, 99.0, w.Low)
	assert.Equal(t, 105.0, w.Close)
	assert.Equal(t, 50.0, w.Volume)

	assert.Equal(t, monday.AddDate(0, 0, 7), weekly[1].Time)
	assert.Equal(t, 110.0, weekly[1].Close)
}

func TestAggregateHourlyToFourHour(t *testing.T) {
	open := time.Date(2025, time.June, 2, 13, 30, 0, 0, time.UTC)
	var hourly []model.OHLCV
	for d := 0; d < 2; d++ {
		for h := 0; h < 7; h++ {
			p := float64(100 + h)
			hourly = append(hourly, model.OHLCV{
				Time: open.AddDate(0, 0, d).Add(time.Duration(h) * time.Hour),
				Open: p, High: p + 1, Low: p - 1, Close: p + 0.5, Volume: 1,
			})
		}
	}

	bars := aggregateHourlyToFourHour(hourly)
	require.Len(t, bars, 4)

	assert.Equal(t, open, bars[0].Time)
	assert.Equal(t, 4.0, bars[0].Volume)
	assert.Equal(t, 103.5, bars[0].Close)
	assert.Equal(t, 3.0, bars[1].Volume)
	assert.Equal(t, 106.5, bars[1].Close)
	assert.Equal(t, open.AddDate(0, 0, 1), bars[2].Time)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Nil(t, aggregateDailyToWeekly(nil))
	assert.Nil(t, aggregateHourlyToFourHour(nil))
}

func TestTail(t *testing.T) {
	bars := make([]model.OHLCV, 5)
	assert.Len(t, tail(bars, 3), 3)
	assert.Len(t, tail(bars, 10), 5)
	assert.Len(t, tail(bars, 0), 5)
}
