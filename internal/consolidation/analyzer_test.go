package consolidation

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

func TestAnalyze_QuietBox(t *testing.T) {
	cfg := config.DefaultDetection()
	s := fixture.Breakout("BOX", fixture.Wednesday, 1.8)
	ind, err := calculator.Normalize(s, cfg.Daily)
	require.NoError(t, err)

	end := s.Last() - 1
	box, err := Analyze(s.Bars, ind, end, cfg.Consolidation, cfg.Daily)
	require.NoError(t, err)
	require.NotNil(t, box)

	assert.Equal(t, end-cfg.Daily.ConsolidationWindow+1, box.Start)
	assert.Equal(t, end, box.End)
	assert.InDelta(t, 100.5, box.High, 1e-9)
	assert.InDelta(t, 99.5, box.Low, 1e-9)
	assert.InDelta(t, 1.0/99.5, box.WidthPct, 1e-9)
	assert.True(t, box.Has(model.CriterionBoxWidth))
	assert.True(t, box.Has(model.CriterionVolumeDryUp))
}

func TestAnalyze_CriteriaKeepOrder(t *testing.T) {
	cfg := config.DefaultDetection()
	s := fixture.Breakout("BOX", fixture.Wednesday, 1.8)
	ind, err := calculator.Normalize(s, cfg.Daily)
	require.NoError(t, err)

	box, err := Analyze(s.Bars, ind, s.Last()-1, cfg.Consolidation, cfg.Daily)
	require.NoError(t, err)
	require.NotNil(t, box)

	rank := map[model.Criterion]int{}
	for i, p := range predicates {
		rank[p.criterion] = i
	}
	for i := 1; i < len(box.Criteria); i++ {
		assert.Less(t, rank[box.Criteria[i-1]], rank[box.Criteria[i]])
	}
}

func TestAnalyze_TrendingWindowHasNoBox(t *testing.T) {
	cfg := config.DefaultDetection()
	b := fixture.New().Wave(284, 100, 5, 71, 1, 1_000_000)
	for k := 0; k < 16; k++ {
		b.To(b.Prev()*1.03, 1+0.5*float64(k), 2_000_000)
	}
	s := b.Daily("UP", fixture.Wednesday)
	ind, err := calculator.Normalize(s, cfg.Daily)
	require.NoError(t, err)

	box, err := Analyze(s.Bars, ind, s.Last(), cfg.Consolidation, cfg.Daily)
	require.NoError(t, err)
	assert.Nil(t, box)
}

func TestAnalyze_WindowBeforeStart(t *testing.T) {
	cfg := config.DefaultDetection()
	s := fixture.Breakout("BOX", fixture.Wednesday, 1.8)
	ind, err := calculator.Normalize(s, cfg.Daily)
	require.NoError(t, err)

	_, err = Analyze(s.Bars, ind, cfg.Daily.ConsolidationWindow-2, cfg.Consolidation, cfg.Daily)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInsufficientData))
}

func TestCriteriaBonus(t *testing.T) {
	cases := map[int]int{-1: 0, 0: 0, 1: 5, 2: 8, 3: 10, 4: 12, 5: 14, 6: 15, 9: 15}
	for count, want := range cases {
		assert.Equal(t, want, CriteriaBonus(count), "count %d", count)
	}
}
