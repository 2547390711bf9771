package config

import (
	"fmt"

	"PatternSentinel/internal/model"
)

// PatternInts holds one integer per pattern kind.
type PatternInts struct {
	ConsolidationBreakout int `yaml:"consolidation_breakout"`
	InsideBar             int `yaml:"inside_bar"`
	BullFlag              int `yaml:"bull_flag"`
	FlatTop               int `yaml:"flat_top"`
	InverseHeadShoulders  int `yaml:"inverse_head_shoulders"`
	CupHandle             int `yaml:"cup_handle"`
}

// Get returns the value for kind.
func (p PatternInts) Get(kind model.PatternKind) int {
	switch kind {
	case model.ConsolidationBreakout:
		return p.ConsolidationBreakout
	case model.InsideBar:
		return p.InsideBar
	case model.BullFlag:
		return p.BullFlag
	case model.FlatTop:
		return p.FlatTop
	case model.InverseHeadShoulders:
		return p.InverseHeadShoulders
	case model.CupHandle:
		return p.CupHandle
	}
	return 0
}

// InsideBarBands are the mother/inside size ratio ceilings.
type InsideBarBands struct {
	Tight    float64 `yaml:"tight"`
	Good     float64 `yaml:"good"`
	Moderate float64 `yaml:"moderate"`
}

// TimeframeParams are the parameters that vary by bar interval.
type TimeframeParams struct {
	Lookback            int            `yaml:"lookback"`
	ConsolidationWindow int            `yaml:"consolidation_window"`
	BoxWidthMax         float64        `yaml:"box_width_max"`
	Staleness           PatternInts    `yaml:"staleness"`
	InsideBar           InsideBarBands `yaml:"inside_bar"`
	PivotStrength       int            `yaml:"pivot_strength"`
	HSMinWidth          int            `yaml:"hs_min_width"`
	HSMaxWidth          int            `yaml:"hs_max_width"`
	CupMinBars          int            `yaml:"cup_min_bars"`
	CupMaxBars          int            `yaml:"cup_max_bars"`
	HandleMinBars       int            `yaml:"handle_min_bars"`
	HandleMaxBars       int            `yaml:"handle_max_bars"`
}

// Required is the minimum series length for this timeframe.
func (p TimeframeParams) Required() int { return p.Lookback + p.ConsolidationWindow }

// ConsolidationParams tune the six compression tests.
type ConsolidationParams struct {
	Percentile       float64 `yaml:"percentile"`
	NarrowRangeMin   int     `yaml:"narrow_range_min"`
	NarrowRangeSpan  int     `yaml:"narrow_range_span"`
	EMASpreadMax     float64 `yaml:"ema_spread_max"`
	VolumeDryUpRatio float64 `yaml:"volume_dry_up_ratio"`
	VolumeDryUpShare float64 `yaml:"volume_dry_up_share"`
}

// BreakoutParams tune the triple confirmation test.
type BreakoutParams struct {
	PriceBuffer    float64 `yaml:"price_buffer"`
	RangeExpansion float64 `yaml:"range_expansion"`
	VolumeRatio    float64 `yaml:"volume_ratio"`
	FullBonus      int     `yaml:"full_bonus"`
	PartialBonus   int     `yaml:"partial_bonus"`
	PriceOnlyBonus int     `yaml:"price_only_bonus"`
}

// VolumeParams are the volume tier thresholds and points.
type VolumeParams struct {
	Good             float64     `yaml:"good"`
	Strong           float64     `yaml:"strong"`
	Exceptional      float64     `yaml:"exceptional"`
	GoodScore        int         `yaml:"good_score"`
	StrongScore      int         `yaml:"strong_score"`
	ExceptionalScore int         `yaml:"exceptional_score"`
	WeakCap          float64     `yaml:"weak_cap"`
	Bonus            PatternInts `yaml:"bonus"`
}

// TimingParams are the weekday adjustments in confidence points.
type TimingParams struct {
	FridayPenalty  float64 `yaml:"friday_penalty"`
	WeekendPenalty float64 `yaml:"weekend_penalty"`
	MidweekBonus   float64 `yaml:"midweek_bonus"`
	MaxMondayGap   float64 `yaml:"max_monday_gap"`
	HighGapStdev   float64 `yaml:"high_gap_stdev"`
}

// RiskParams control stops, targets and sizing.
type RiskParams struct {
	MinRewardRisk  float64 `yaml:"min_reward_risk"`
	FarRewardRisk  float64 `yaml:"far_reward_risk"`
	SyntheticRR    float64 `yaml:"synthetic_rr"`
	ATRStopFloor   float64 `yaml:"atr_stop_floor"`
	AccountSize    float64 `yaml:"account_size"`
	AccountRiskPct float64 `yaml:"account_risk_pct"`
}

// HeadShouldersParams tune the inverse head and shoulders recogniser.
// The symmetry weights are deliberately exposed for tuning.
type HeadShouldersParams struct {
	TimeWeight       float64 `yaml:"time_weight"`
	PriceWeight      float64 `yaml:"price_weight"`
	MinSymmetry      float64 `yaml:"min_symmetry"`
	MinHeadDepth     float64 `yaml:"min_head_depth"`
	MaxHeadDepth     float64 `yaml:"max_head_depth"`
	MaxNecklineSlope float64 `yaml:"max_neckline_slope"`
}

// Detection is the immutable parameter bundle threaded through every
// detection entry point. It is a plain value; copies never alias.
type Detection struct {
	MinConfidence  float64             `yaml:"min_confidence"`
	LiquidityFloor float64             `yaml:"liquidity_floor"`
	Consolidation  ConsolidationParams `yaml:"consolidation"`
	Breakout       BreakoutParams      `yaml:"breakout"`
	Volume         VolumeParams        `yaml:"volume"`
	Timing         TimingParams        `yaml:"timing"`
	Risk           RiskParams          `yaml:"risk"`
	HeadShoulders  HeadShouldersParams `yaml:"head_shoulders"`
	Daily          TimeframeParams     `yaml:"daily"`
	FourHour       TimeframeParams     `yaml:"four_hour"`
	Weekly         TimeframeParams     `yaml:"weekly"`
}

// For returns the parameters of tf.
func (d Detection) For(tf model.Timeframe) TimeframeParams {
	switch tf {
	case model.FourHour:
		return d.FourHour
	case model.Weekly:
		return d.Weekly
	}
	return d.Daily
}

// DefaultDetection returns the stock parameter bundle.
func DefaultDetection() Detection {
	return Detection{
		MinConfidence:  55,
		LiquidityFloor: 20_000_000,
		Consolidation: ConsolidationParams{
			Percentile:       15,
			NarrowRangeMin:   2,
			NarrowRangeSpan:  5,
			EMASpreadMax:     0.02,
			VolumeDryUpRatio: 0.70,
			VolumeDryUpShare: 0.60,
		},
		Breakout: BreakoutParams{
			PriceBuffer:    0.002,
			RangeExpansion: 1.5,
			VolumeRatio:    1.5,
			FullBonus:      20,
			PartialBonus:   12,
			PriceOnlyBonus: 5,
		},
		Volume: VolumeParams{
			Good:             1.3,
			Strong:           1.5,
			Exceptional:      2.0,
			GoodScore:        15,
			StrongScore:      20,
			ExceptionalScore: 25,
			WeakCap:          70,
			Bonus: PatternInts{
				ConsolidationBreakout: 10,
				InsideBar:             8,
				BullFlag:              10,
				FlatTop:               10,
				InverseHeadShoulders:  10,
				CupHandle:             10,
			},
		},
		Timing: TimingParams{
			FridayPenalty:  -15,
			WeekendPenalty: -5,
			MidweekBonus:   2,
			MaxMondayGap:   0.02,
			HighGapStdev:   0.015,
		},
		Risk: RiskParams{
			MinRewardRisk:  1.5,
			FarRewardRisk:  2.5,
			SyntheticRR:    2.0,
			ATRStopFloor:   1.0,
			AccountSize:    100_000,
			AccountRiskPct: 2,
		},
		HeadShoulders: HeadShouldersParams{
			TimeWeight:       0.5,
			PriceWeight:      0.5,
			MinSymmetry:      0.5,
			MinHeadDepth:     0.05,
			MaxHeadDepth:     0.60,
			MaxNecklineSlope: 0.05,
		},
		Daily: TimeframeParams{
			Lookback:            252,
			ConsolidationWindow: 15,
			BoxWidthMax:         0.06,
			Staleness: PatternInts{
				ConsolidationBreakout: 5,
				InsideBar:             6,
				BullFlag:              10,
				FlatTop:               8,
				InverseHeadShoulders:  30,
				CupHandle:             30,
			},
			InsideBar:     InsideBarBands{Tight: 0.30, Good: 0.50, Moderate: 0.70},
			PivotStrength: 5,
			HSMinWidth:    20,
			HSMaxWidth:    60,
			CupMinBars:    20,
			CupMaxBars:    120,
			HandleMinBars: 3,
			HandleMaxBars: 20,
		},
		FourHour: TimeframeParams{
			Lookback:            1000,
			ConsolidationWindow: 40,
			BoxWidthMax:         0.06,
			Staleness: PatternInts{
				ConsolidationBreakout: 10,
				InsideBar:             8,
				BullFlag:              15,
				FlatTop:               12,
				InverseHeadShoulders:  45,
				CupHandle:             45,
			},
			InsideBar:     InsideBarBands{Tight: 0.30, Good: 0.50, Moderate: 0.70},
			PivotStrength: 5,
			HSMinWidth:    40,
			HSMaxWidth:    120,
			CupMinBars:    40,
			CupMaxBars:    240,
			HandleMinBars: 4,
			HandleMaxBars: 40,
		},
		Weekly: TimeframeParams{
			Lookback:            104,
			ConsolidationWindow: 8,
			BoxWidthMax:         0.06,
			Staleness: PatternInts{
				ConsolidationBreakout: 4,
				InsideBar:             8,
				BullFlag:              10,
				FlatTop:               8,
				InverseHeadShoulders:  20,
				CupHandle:             30,
			},
			InsideBar:     InsideBarBands{Tight: 0.35, Good: 0.55, Moderate: 0.75},
			PivotStrength: 4,
			HSMinWidth:    15,
			HSMaxWidth:    40,
			CupMinBars:    10,
			CupMaxBars:    60,
			HandleMinBars: 2,
			HandleMaxBars: 10,
		},
	}
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{model.ErrConfiguration}, args...)...)
}

// Validate rejects parameters outside their sane bounds.
func (d Detection) Validate() error {
	if d.MinConfidence < 45 || d.MinConfidence > 85 {
		return configErr("min_confidence %.0f outside [45, 85]", d.MinConfidence)
	}
	if d.LiquidityFloor < 0 {
		return configErr("liquidity_floor must not be negative")
	}

	c := d.Consolidation
	if c.Percentile <= 0 || c.Percentile >= 100 {
		return configErr("consolidation.percentile must be in (0, 100)")
	}
	if c.NarrowRangeSpan < 1 || c.NarrowRangeMin < 1 || c.NarrowRangeMin > c.NarrowRangeSpan {
		return configErr("consolidation.narrow_range_min must be in [1, narrow_range_span]")
	}
	if c.EMASpreadMax <= 0 {
		return configErr("consolidation.ema_spread_max must be positive")
	}
	if c.VolumeDryUpRatio <= 0 || c.VolumeDryUpShare <= 0 || c.VolumeDryUpShare > 1 {
		return configErr("consolidation volume dry-up settings out of range")
	}

	b := d.Breakout
	if b.PriceBuffer < 0 || b.RangeExpansion <= 0 || b.VolumeRatio <= 0 {
		return configErr("breakout thresholds must be positive")
	}
	if b.FullBonus < b.PartialBonus || b.PartialBonus < b.PriceOnlyBonus || b.PriceOnlyBonus < 0 {
		return configErr("breakout bonuses must satisfy full >= partial >= price_only >= 0")
	}

	v := d.Volume
	if v.Good <= 0 || v.Strong <= v.Good || v.Exceptional <= v.Strong {
		return configErr("volume thresholds must satisfy 0 < good < strong < exceptional")
	}
	if v.WeakCap <= 0 || v.WeakCap > 100 {
		return configErr("volume.weak_cap must be in (0, 100]")
	}
	for _, k := range model.AllPatterns {
		if v.Bonus.Get(k) < 0 {
			return configErr("volume.bonus.%s must not be negative", k)
		}
	}

	r := d.Risk
	if r.MinRewardRisk <= 0 || r.FarRewardRisk < r.MinRewardRisk {
		return configErr("risk reward ratios must satisfy 0 < min <= far")
	}
	if r.SyntheticRR < r.MinRewardRisk {
		return configErr("risk.synthetic_rr must be at least min_reward_risk")
	}
	if r.ATRStopFloor <= 0 {
		return configErr("risk.atr_stop_floor must be positive")
	}
	if r.AccountSize <= 0 || r.AccountRiskPct <= 0 || r.AccountRiskPct > 100 {
		return configErr("risk account settings out of range")
	}

	hs := d.HeadShoulders
	if hs.TimeWeight < 0 || hs.PriceWeight < 0 || hs.TimeWeight+hs.PriceWeight == 0 {
		return configErr("head_shoulders symmetry weights must be non-negative and not both zero")
	}
	if hs.MinSymmetry < 0 || hs.MinSymmetry > 1 {
		return configErr("head_shoulders.min_symmetry must be in [0, 1]")
	}
	if hs.MinHeadDepth <= 0 || hs.MaxHeadDepth <= hs.MinHeadDepth || hs.MaxNecklineSlope < 0 {
		return configErr("head_shoulders depth bounds out of range")
	}

	for _, tf := range model.Timeframes {
		if err := d.For(tf).validate(tf, c.NarrowRangeSpan); err != nil {
			return err
		}
	}
	return nil
}

func (p TimeframeParams) validate(tf model.Timeframe, nrSpan int) error {
	if p.Lookback <= 0 {
		return configErr("%s.lookback must be positive", tf)
	}
	if p.ConsolidationWindow < nrSpan {
		return configErr("%s.consolidation_window must cover the narrow range span", tf)
	}
	if p.BoxWidthMax <= 0 || p.BoxWidthMax >= 1 {
		return configErr("%s.box_width_max must be in (0, 1)", tf)
	}
	for _, k := range model.AllPatterns {
		if p.Staleness.Get(k) < 0 {
			return configErr("%s.staleness.%s must not be negative", tf, k)
		}
	}
	ib := p.InsideBar
	if ib.Tight <= 0 || ib.Good <= ib.Tight || ib.Moderate <= ib.Good || ib.Moderate >= 1 {
		return configErr("%s.inside_bar bands must satisfy 0 < tight < good < moderate < 1", tf)
	}
	if p.PivotStrength < 1 {
		return configErr("%s.pivot_strength must be at least 1", tf)
	}
	if p.HSMinWidth < 4 || p.HSMaxWidth <= p.HSMinWidth {
		return configErr("%s head-and-shoulders width bounds out of range", tf)
	}
	if p.CupMinBars < 5 || p.CupMaxBars <= p.CupMinBars {
		return configErr("%s cup length bounds out of range", tf)
	}
	if p.HandleMinBars < 1 || p.HandleMaxBars < p.HandleMinBars {
		return configErr("%s handle length bounds out of range", tf)
	}
	return nil
}
