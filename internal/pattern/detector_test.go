package pattern

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PatternSentinel/internal/calculator"
	"PatternSentinel/internal/config"
	"PatternSentinel/internal/fixture"
	"PatternSentinel/internal/model"
)

func detect(t *testing.T, kind model.PatternKind, s *model.Series) (*Candidate, bool) {
	t.Helper()
	return detectWith(t, config.DefaultDetection(), kind, s)
}

func detectWith(t *testing.T, cfg config.Detection, kind model.PatternKind, s *model.Series) (*Candidate, bool) {
	t.Helper()
	tf := cfg.For(s.Timeframe)
	ind, err := calculator.Normalize(s, tf)
	require.NoError(t, err)
	d, err := ForKind(kind)
	require.NoError(t, err)
	return d.Detect(&Input{Series: s, Ind: ind, Cfg: cfg, TF: tf})
}

func methods(ts []model.Target) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Method
	}
	return out
}

func TestForKind(t *testing.T) {
	for _, k := range model.AllPatterns {
		d, err := ForKind(k)
		require.NoError(t, err)
		assert.Equal(t, k, d.Kind())
	}

	_, err := ForKind("head_and_shoulders_top")
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrConfiguration))

	all := All()
	require.Len(t, all, len(model.AllPatterns))
	for i, d := range all {
		assert.Equal(t, model.AllPatterns[i], d.Kind())
	}
}

func TestConsolidationBreakout_Full(t *testing.T) {
	s := fixture.Breakout("CB", fixture.Wednesday, 1.8)
	c, ok := detect(t, model.ConsolidationBreakout, s)
	require.True(t, ok)

	assert.Equal(t, model.ConfirmFull, c.Confirmation)
	assert.Equal(t, s.Last(), c.SignalIdx)
	assert.Zero(t, c.Age)
	assert.InDelta(t, 105.04, c.Entry, 1e-9)
	assert.Less(t, c.Stop, 99.5)
	require.NotNil(t, c.Box)
	assert.InDelta(t, 100.5, c.Box.High, 1e-9)
	assert.Equal(t, model.VolumeStrong, c.Volume.Tier)
	assert.Equal(t, 10, c.Volume.Bonus)
	require.Len(t, c.Targets, 3)
	for i := 1; i < len(c.Targets); i++ {
		assert.Greater(t, c.Targets[i].Price, c.Targets[i-1].Price)
	}
}

func TestConsolidationBreakout_PartialOnAverageVolume(t *testing.T) {
	s := fixture.Breakout("CB", fixture.Wednesday, 1.1)
	c, ok := detect(t, model.ConsolidationBreakout, s)
	require.True(t, ok)

	assert.Equal(t, model.ConfirmPartial, c.Confirmation)
	assert.Equal(t, model.VolumeWeak, c.Volume.Tier)
	assert.Zero(t, c.Volume.Bonus)

	full, _ := detect(t, model.ConsolidationBreakout, fixture.Breakout("CB", fixture.Wednesday, 1.8))
	assert.Greater(t, full.RawConf, c.RawConf)
}

func TestConsolidationBreakout_StaleIsIgnored(t *testing.T) {
	_, ok := detect(t, model.ConsolidationBreakout, fixture.StaleBreakout("CB", fixture.Wednesday))
	assert.False(t, ok)
}

func TestInsideBar_DoubleInside(t *testing.T) {
	s := fixture.InsideBar("IB", fixture.Wednesday)
	c, ok := detect(t, model.InsideBar, s)
	require.True(t, ok)

	assert.Zero(t, c.Age)
	assert.Equal(t, s.Last(), c.SignalIdx)
	assert.InDelta(t, 100.2, c.Entry, 1e-9)
	assert.InDelta(t, 95, c.Stop, 1e-9)
	assert.Equal(t, []string{"mother bar range", "+13%", "+21%"}, methods(c.Targets))
	assert.InDeltaSlice(t, []float64{110.2, 113, 121}, []float64{
		c.Targets[0].Price, c.Targets[1].Price, c.Targets[2].Price,
	}, 1e-9)
	assert.Equal(t, model.VolumeWeak, c.Volume.Tier)
	assert.Equal(t, 8, c.Volume.Bonus)
	assert.Contains(t, c.Notes, "double inside bar +10")
	assert.Contains(t, c.Notes, "good consolidation +15")
	assert.GreaterOrEqual(t, c.RawConf, 78.0)
}

func TestInsideBar_RejectsGreenInsideBar(t *testing.T) {
	b := fixture.New().Wave(280, 100, 4, 40, 0.8, 1_000_000)
	b.Bar(95.5, 100, 95, 99.5, 1_200_000)
	b.Bar(97, 99, 96.5, 98.5, 600_000)
	_, ok := detect(t, model.InsideBar, b.Daily("IB", fixture.Wednesday))
	assert.False(t, ok)
}

func TestBullFlag(t *testing.T) {
	s := fixture.BullFlag("BF", fixture.Wednesday)
	c, ok := detect(t, model.BullFlag, s)
	require.True(t, ok)

	assert.Equal(t, 5, c.Age)
	assert.InDelta(t, 115.3*1.002, c.Entry, 1e-9)
	assert.InDelta(t, 112.7, c.Stop, 1e-9)
	assert.Equal(t, []string{"flagpole height", "flagpole x1.382"}, methods(c.Targets))
	assert.Equal(t, 10, c.Volume.Bonus)
	assert.Contains(t, c.Notes, "strong flagpole +10")
}

func TestFlatTop(t *testing.T) {
	s := fixture.FlatTop("FT", fixture.Wednesday)
	c, ok := detect(t, model.FlatTop, s)
	require.True(t, ok)

	assert.Zero(t, c.Age)
	assert.InDelta(t, 120*1.002, c.Entry, 1e-9)
	assert.InDelta(t, 114.5, c.Stop, 1e-9)
	assert.Equal(t, []string{"triangle height", "triangle height x1.618"}, methods(c.Targets))
	assert.InDelta(t, c.Entry+8.5, c.Targets[0].Price, 1e-9)
	assert.Equal(t, 10, c.Volume.Bonus)
	assert.Contains(t, c.Notes, "higher lows +15")
	assert.Contains(t, c.Notes, "prior uptrend +10")
}

func TestInverseHeadShoulders(t *testing.T) {
	s := fixture.InverseHeadShoulders("HS", fixture.Wednesday)
	c, ok := detect(t, model.InverseHeadShoulders, s)
	require.True(t, ok)

	assert.Equal(t, 8, c.Age)
	assert.InDelta(t, 97.4*1.002, c.Entry, 1e-6)
	assert.InDelta(t, 83.6, c.Stop, 1e-9)
	assert.Equal(t, []string{"head depth", "head depth x1.618"}, methods(c.Targets))
	assert.Equal(t, 10, c.Volume.Bonus)
	assert.Contains(t, c.Notes, "symmetry +15")
}

func TestCupHandle(t *testing.T) {
	s := fixture.CupHandle("CH", fixture.Wednesday)
	c, ok := detect(t, model.CupHandle, s)
	require.True(t, ok)

	assert.Equal(t, 6, c.Age)
	assert.InDelta(t, 100.3*1.002, c.Entry, 1e-9)
	assert.InDelta(t, 96.7, c.Stop, 1e-9)
	assert.Equal(t, []string{"cup depth", "cup depth x1.618"}, methods(c.Targets))
	assert.Equal(t, 10, c.Volume.Bonus)
	assert.Contains(t, c.Notes, "shallow handle +20")
	assert.Contains(t, c.Notes, "ideal cup depth +5")
}

func TestDetectors_AgeLimit(t *testing.T) {
	limits := config.DefaultDetection().Daily.Staleness
	tests := []struct {
		kind  model.PatternKind
		aged  func(extra int) *model.Series
		age   int // age of the structure before any extra bars
		limit int
	}{
		{model.InsideBar, func(n int) *model.Series { return fixture.AgedInsideBar("IB", fixture.Wednesday, n) }, 0, limits.InsideBar},
		{model.BullFlag, func(n int) *model.Series { return fixture.AgedBullFlag("BF", fixture.Wednesday, n) }, 5, limits.BullFlag},
		{model.FlatTop, func(n int) *model.Series { return fixture.AgedFlatTop("FT", fixture.Wednesday, n) }, 0, limits.FlatTop},
		{model.InverseHeadShoulders, func(n int) *model.Series {
			return fixture.AgedInverseHeadShoulders("HS", fixture.Wednesday, n)
		}, 8, limits.InverseHeadShoulders},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c, ok := detect(t, tt.kind, tt.aged(tt.limit-tt.age))
			require.True(t, ok, "structure at the limit is still reported")
			assert.Equal(t, tt.limit, c.Age)

			_, ok = detect(t, tt.kind, tt.aged(tt.limit-tt.age+1))
			assert.False(t, ok)
		})
	}
}

func TestCupHandle_AgeLimit(t *testing.T) {
	// The rim search window is shorter than the default limit, so tighten it.
	s := fixture.CupHandle("CH", fixture.Wednesday)
	cfg := config.DefaultDetection()

	cfg.Daily.Staleness.CupHandle = 6
	c, ok := detectWith(t, cfg, model.CupHandle, s)
	require.True(t, ok)
	assert.Equal(t, 6, c.Age)

	cfg.Daily.Staleness.CupHandle = 5
	_, ok = detectWith(t, cfg, model.CupHandle, s)
	assert.False(t, ok)
}

func TestSymmetry(t *testing.T) {
	hs := config.DefaultDetection().HeadShoulders

	assert.InDelta(t, 1, Symmetry(0, 10, 20, 90, 80, 90, 100, hs), 1e-12)
	// Time symmetry 2/3, price symmetry 1.
	assert.InDelta(t, 5.0/6, Symmetry(0, 10, 30, 90, 80, 90, 100, hs), 1e-12)
	// Shoulders 10 apart against a 20-deep head: price symmetry 1/2.
	assert.InDelta(t, 0.75, Symmetry(0, 10, 20, 85, 80, 95, 100, hs), 1e-12)

	hs.TimeWeight, hs.PriceWeight = 1, 0
	assert.InDelta(t, 1, Symmetry(0, 10, 20, 85, 80, 95, 100, hs), 1e-12)
}

func TestScorecard(t *testing.T) {
	var sc scorecard
	sc.add(0, "ignored")
	sc.add(60, "a")
	sc.addIf(false, 10, "b")
	sc.addIf(true, 50, "c")
	assert.Equal(t, 100.0, sc.total())
	assert.Equal(t, []string{"a +60", "c +50"}, sc.notes)
}
