// Package risk turns pattern levels into stop, targets and a sizing hint.
package risk

import (
	"fmt"
	"math"
	"sort"

	"PatternSentinel/internal/config"
	"PatternSentinel/internal/model"
)

const priceEpsilon = 1e-9

// Calculate enforces the ATR stop floor and the reward:risk rules:
// every target under MinRewardRisk is replaced by one synthetic target at
// SyntheticRR, and a synthetic FarRewardRisk target is appended when no
// target reaches it. Targets come back sorted nearest first.
func Calculate(entry, stop float64, targets []model.Target, atr float64, p config.RiskParams) (model.Levels, error) {
	if !model.Valid(entry) || entry <= 0 {
		return model.Levels{}, fmt.Errorf("invalid entry %.4f", entry)
	}
	if !model.Valid(atr) || atr <= 0 {
		return model.Levels{}, fmt.Errorf("invalid ATR %.4f", atr)
	}

	lv := model.Levels{Entry: entry, Stop: stop}
	dist := entry - stop
	if floor := p.ATRStopFloor * atr; !model.Valid(dist) || dist < floor {
		dist = floor
		lv.Stop = entry - dist
		lv.StopWidened = true
	}
	lv.StopDistance = dist

	kept := make([]model.Target, 0, len(targets)+1)
	synthetic := false
	for _, t := range targets {
		if !model.Valid(t.Price) || t.Price <= entry {
			continue
		}
		t.RewardRisk = (t.Price - entry) / dist
		if t.RewardRisk < p.MinRewardRisk {
			if synthetic {
				continue
			}
			t = syntheticTarget(entry, dist, p.SyntheticRR)
			synthetic = true
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		kept = append(kept, syntheticTarget(entry, dist, p.SyntheticRR))
	}

	far := false
	for _, t := range kept {
		if t.RewardRisk >= p.FarRewardRisk {
			far = true
			break
		}
	}
	if !far {
		kept = append(kept, syntheticTarget(entry, dist, p.FarRewardRisk))
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Price < kept[j].Price })
	lv.Targets = dedupe(kept)
	lv.Sizing = Size(lv.Entry, dist, p)
	return lv, nil
}

func syntheticTarget(entry, dist, rr float64) model.Target {
	return model.Target{
		Price:       entry + rr*dist,
		Method:      fmt.Sprintf("synthetic %gR", rr),
		RewardRisk:  rr,
		Synthesized: true,
	}
}

// dedupe drops targets that repeat the previous price.
func dedupe(sorted []model.Target) []model.Target {
	out := sorted[:0]
	for _, t := range sorted {
		if len(out) > 0 && math.Abs(out[len(out)-1].Price-t.Price) < priceEpsilon {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Size converts the account risk budget into whole units for a stop dist
// below entry.
func Size(entry, dist float64, p config.RiskParams) model.SizingHint {
	amount := p.AccountSize * p.AccountRiskPct / 100
	h := model.SizingHint{RiskPct: p.AccountRiskPct, RiskAmount: amount}
	if dist <= 0 {
		return h
	}
	h.Units = int(math.Floor(amount / dist))
	h.PositionValue = float64(h.Units) * entry
	if p.AccountSize > 0 {
		h.ActualRiskPct = float64(h.Units) * dist / p.AccountSize * 100
	}
	return h
}
