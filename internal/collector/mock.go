package collector

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"PatternSentinel/internal/model"
)

// MockFetcher returns synthetic bars for development. It is only used when
// explicitly selected.
type MockFetcher struct {
	Price float64
	Data  map[model.Timeframe][]model.OHLCV
	End   time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, symbol string, tf model.Timeframe, count int) ([]model.OHLCV, error) {
	if bars, ok := m.Data[tf]; ok {
		return tail(bars, count), nil
	}
	step, ok := mockSteps[tf]
	if !ok {
		return nil, unsupported(m.Name(), tf)
	}
	end := m.End
	if end.IsZero() {
		end = time.Now().UTC().Truncate(24 * time.Hour)
	}
	price := m.Price
	if price <= 0 {
		price = 100
	}
	return generateMockBars(symbol, price, count, end, step), nil
}

var mockSteps = map[model.Timeframe]time.Duration{
	model.Daily:    24 * time.Hour,
	model.FourHour: 4 * time.Hour,
	model.Weekly:   7 * 24 * time.Hour,
}

// generateMockBars draws a deterministic wave per symbol so different
// tickers do not produce identical series.
func generateMockBars(symbol string, basePrice float64, count int, end time.Time, step time.Duration) []model.OHLCV {
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	phase := float64(h.Sum32()%360) * math.Pi / 180

	bars := make([]model.OHLCV, count)
	prev := basePrice
	for i := 0; i < count; i++ {
		x := float64(i)
		p := basePrice * (1 + 0.05*math.Sin(x/9+phase) + float64(i-count/2)*0.0005)
		spread := p * (0.004 + 0.003*math.Abs(math.Sin(x/5)))
		o := prev
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   o,
			High:   math.Max(o, p) + spread,
			Low:    math.Min(o, p) - spread,
			Close:  p,
			Volume: 1000000 * (1 + 0.3*math.Sin(x/7+phase)),
		}
		prev = p
	}
	return bars
}
