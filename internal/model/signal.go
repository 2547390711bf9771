package model

import (
	"fmt"
	"time"
)

// PatternKind is the closed set of recognised chart patterns.
type PatternKind string

const (
	ConsolidationBreakout PatternKind = "consolidation_breakout"
	InsideBar             PatternKind = "inside_bar"
	BullFlag              PatternKind = "bull_flag"
	FlatTop               PatternKind = "flat_top"
	InverseHeadShoulders  PatternKind = "inverse_head_shoulders"
	CupHandle             PatternKind = "cup_handle"
)

// AllPatterns lists every pattern kind in dispatch order.
var AllPatterns = []PatternKind{
	ConsolidationBreakout,
	InsideBar,
	BullFlag,
	FlatTop,
	InverseHeadShoulders,
	CupHandle,
}

// ParsePattern accepts a pattern kind name.
func ParsePattern(s string) (PatternKind, error) {
	for _, k := range AllPatterns {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown pattern %q", s)
}

// Title is the human-readable pattern name.
func (k PatternKind) Title() string {
	switch k {
	case ConsolidationBreakout:
		return "Consolidation Breakout"
	case InsideBar:
		return "Inside Bar"
	case BullFlag:
		return "Bull Flag"
	case FlatTop:
		return "Flat Top Breakout"
	case InverseHeadShoulders:
		return "Inverse Head & Shoulders"
	case CupHandle:
		return "Cup & Handle"
	}
	return string(k)
}

// Criterion names one of the six consolidation tests.
type Criterion string

const (
	CriterionATRPercentile Criterion = "atr_percentile"
	CriterionBBPercentile  Criterion = "bollinger_percentile"
	CriterionNarrowRange   Criterion = "narrow_range"
	CriterionBoxWidth      Criterion = "box_width"
	CriterionEMASpread     Criterion = "ema_spread"
	CriterionVolumeDryUp   Criterion = "volume_dry_up"
)

// Box is a consolidation rectangle over [Start, End].
type Box struct {
	Start    int         `json:"start"`
	End      int         `json:"end"`
	High     float64     `json:"high"`
	Low      float64     `json:"low"`
	WidthPct float64     `json:"width_pct"`
	Criteria []Criterion `json:"criteria"`
}

// Has reports whether c was satisfied.
func (b *Box) Has(c Criterion) bool {
	for _, x := range b.Criteria {
		if x == c {
			return true
		}
	}
	return false
}

// Height is the box's price span.
func (b *Box) Height() float64 { return b.High - b.Low }

// VolumeTier classifies volume strength.
type VolumeTier string

const (
	VolumeWeak        VolumeTier = "Weak"
	VolumeGood        VolumeTier = "Good"
	VolumeStrong      VolumeTier = "Strong"
	VolumeExceptional VolumeTier = "Exceptional"
)

// AtLeast reports whether t ranks at or above other.
func (t VolumeTier) AtLeast(other VolumeTier) bool { return t.rank() >= other.rank() }

func (t VolumeTier) rank() int {
	switch t {
	case VolumeExceptional:
		return 3
	case VolumeStrong:
		return 2
	case VolumeGood:
		return 1
	}
	return 0
}

// VolumeVerdict is the scored volume reading at a bar.
type VolumeVerdict struct {
	Ratio float64    `json:"ratio"`
	Tier  VolumeTier `json:"tier"`
	Score int        `json:"score"`
	Bonus int        `json:"bonus"`
}

// Points is the tier score plus any pattern bonus.
func (v VolumeVerdict) Points() int { return v.Score + v.Bonus }

// ConfirmationLevel grades a breakout.
type ConfirmationLevel string

const (
	ConfirmNone      ConfirmationLevel = ""
	ConfirmPriceOnly ConfirmationLevel = "PriceOnly"
	ConfirmPartial   ConfirmationLevel = "Partial"
	ConfirmFull      ConfirmationLevel = "Full"
)

// Confirmation is the triple breakout test result.
type Confirmation struct {
	Level       ConfirmationLevel `json:"level"`
	PricePass   bool              `json:"price_pass"`
	RangePass   bool              `json:"range_pass"`
	VolumePass  bool              `json:"volume_pass"`
	Volume      VolumeVerdict     `json:"volume"`
	BreakoutIdx int               `json:"breakout_idx"`
}

// GapRisk classifies overnight/weekend gap exposure.
type GapRisk string

const (
	GapLow    GapRisk = "LOW"
	GapMedium GapRisk = "MEDIUM"
	GapHigh   GapRisk = "HIGH"
)

// TimingContext explains the market timing adjustment.
type TimingContext struct {
	Weekday    time.Weekday `json:"weekday"`
	Rule       string       `json:"rule"`
	Adjustment float64      `json:"adjustment"`
	GapRisk    GapRisk      `json:"gap_risk"`
	Note       string       `json:"note,omitempty"`

	Recommendations []string `json:"recommendations,omitempty"`
	RiskFactors     []string `json:"risk_factors,omitempty"`
	EntryConditions []string `json:"entry_conditions,omitempty"`
}

// Target is a profit objective.
type Target struct {
	Price       float64 `json:"price"`
	Method      string  `json:"method"`
	RewardRisk  float64 `json:"reward_risk"`
	Synthesized bool    `json:"synthesized,omitempty"`
}

// SizingHint is a position size suggestion, not an order.
type SizingHint struct {
	RiskPct       float64 `json:"risk_pct"`
	RiskAmount    float64 `json:"risk_amount"`
	Units         int     `json:"units"`
	PositionValue float64 `json:"position_value"`
	// ActualRiskPct is the share of the account lost at the stop after
	// rounding down to whole units.
	ActualRiskPct float64 `json:"actual_risk_pct"`
}

// Levels are the finalised trade levels.
type Levels struct {
	Entry        float64    `json:"entry"`
	Stop         float64    `json:"stop"`
	StopDistance float64    `json:"stop_distance"`
	StopWidened  bool       `json:"stop_widened,omitempty"`
	Targets      []Target   `json:"targets"`
	Sizing       SizingHint `json:"sizing"`
}

// Signal is the terminal output of one detection.
type Signal struct {
	Ticker       string            `json:"ticker"`
	Pattern      PatternKind       `json:"pattern"`
	Timeframe    Timeframe         `json:"timeframe"`
	RawConf      float64           `json:"raw_confidence"`
	AdjustedConf float64           `json:"adjusted_confidence"`
	Capped       bool              `json:"capped,omitempty"`
	Grade        string            `json:"grade"`
	Levels       Levels            `json:"levels"`
	Volume       VolumeVerdict     `json:"volume"`
	Timing       TimingContext     `json:"timing"`
	Box          *Box              `json:"box,omitempty"`
	Confirmation ConfirmationLevel `json:"confirmation,omitempty"`
	AgeBars      int               `json:"age_bars"`
	SignalTime   time.Time         `json:"signal_time"`
	ATR          float64           `json:"atr"`
	Notes        []string          `json:"notes,omitempty"`
}
