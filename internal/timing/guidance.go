package timing

import (
	"time"

	"PatternSentinel/internal/model"
)

type guide struct {
	recommendations []string
	risks           []string
	conditions      []string
}

// guides is keyed by the rule that matched in Adjust.
var guides = map[string]guide{
	RuleFriday: {
		recommendations: []string{"Consider waiting until next week", "Require exceptional volume", "Consider smaller position size"},
		risks:           []string{"Weekend headline risk", "Position carries over weekend"},
		conditions:      []string{"Exceptional volume required (2.0x+)"},
	},
	RuleWeekend: {
		recommendations: []string{"Wait for Monday confirmation before entry", "Review pre-market levels Monday"},
		risks:           []string{"Weekend news cycle", "Extended market closure"},
		conditions:      []string{"Monday market open", "Pattern levels hold post-gap"},
	},
	RuleMonday: {
		recommendations: []string{"Validate pattern holds after gap settlement", "Wait for first hour to confirm levels"},
		risks:           []string{"Overnight news accumulation", "Weekly market reset"},
		conditions:      []string{"Gap settlement (first 30-60 minutes)", "Pattern levels hold post-gap"},
	},
	RuleMondayGap: {
		recommendations: []string{"Validate pattern holds after gap settlement", "Wait for gap fill assessment"},
		risks:           []string{"Overnight news accumulation", "Gap volatility"},
		conditions:      []string{"Gap settlement (first 30-60 minutes)", "Support holds post-gap"},
	},
	RuleMidweek: {
		recommendations: []string{"Pattern active for immediate consideration"},
		conditions:      []string{"Optimal market timing"},
	},
	RuleNone: {
		recommendations: []string{"Standard market conditions apply"},
	},
}

var patternConditions = map[model.PatternKind][]string{
	model.ConsolidationBreakout: {"Hold above box high", "Volume expansion on breakout"},
	model.InsideBar:             {"Breakout above mother bar high", "Volume expansion on breakout"},
	model.BullFlag:              {"Break above flag high", "Volume confirmation"},
	model.FlatTop:               {"Clear break above resistance", "Volume surge preferred"},
	model.InverseHeadShoulders:  {"Close above neckline", "Volume expansion"},
	model.CupHandle:             {"Break above rim level", "Volume expansion"},
}

// guidance fills the recommendation, risk and entry-condition lists from
// the matched rule, the gap risk and the pattern kind.
func guidance(ctx *model.TimingContext, kind model.PatternKind, tier model.VolumeTier) {
	g := guides[ctx.Rule]
	if ctx.Weekday == time.Friday && tier == model.VolumeExceptional {
		ctx.Recommendations = append(ctx.Recommendations, "Entry acceptable with exceptional volume")
	}
	ctx.Recommendations = append(ctx.Recommendations, g.recommendations...)
	ctx.RiskFactors = append(ctx.RiskFactors, g.risks...)
	if ctx.GapRisk == model.GapHigh {
		ctx.RiskFactors = append(ctx.RiskFactors, "Gap risk HIGH")
	}
	ctx.EntryConditions = append(ctx.EntryConditions, g.conditions...)
	ctx.EntryConditions = append(ctx.EntryConditions, patternConditions[kind]...)
}
