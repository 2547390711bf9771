package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/recorder"
	"PatternSentinel/internal/scanner"
)

// DigestLimit is the number of signals shown in a digest.
const DigestLimit = 10

// FormatDigest formats a scan report into a Telegram message. Signals are
// already sorted by the scanner; only the first limit are shown.
func FormatDigest(rep *scanner.Report, limit int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>PatternSentinel scan</b> | %s\n", rep.Finished.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("%d tuples, %d signals, %d failures (%s)\n\n",
		rep.Tuples, len(rep.Signals), len(rep.Failures), rep.Elapsed().Round(time.Millisecond)))

	if len(rep.Signals) == 0 {
		b.WriteString("No patterns above the confidence floor.\n")
	}
	for i, sig := range rep.Signals {
		if i == limit {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(rep.Signals)-limit))
			break
		}
		b.WriteString(FormatSignal(sig))
		b.WriteString("\n")
	}

	if len(rep.Failures) > 0 {
		b.WriteString("⚠️ <b>Failures:</b> ")
		b.WriteString(formatCounts(rep.FailureCounts()))
		b.WriteString("\n")
	}
	return b.String()
}

// FormatSignal renders one signal block.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder
	lv := sig.Levels

	b.WriteString(fmt.Sprintf("<b>%s</b> %s · %s · <b>%s</b> %.0f",
		html.EscapeString(sig.Ticker), sig.Timeframe, sig.Pattern.Title(), sig.Grade, sig.AdjustedConf))
	if sig.Capped {
		b.WriteString(" (capped)")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  entry %.2f | stop %.2f", lv.Entry, lv.Stop))
	if lv.StopWidened {
		b.WriteString(" (ATR floor)")
	}
	b.WriteString("\n")
	if sz := lv.Sizing; sz.Units > 0 {
		b.WriteString(fmt.Sprintf("  size %d units, $%.0f (%.2f%% at risk)\n", sz.Units, sz.PositionValue, sz.ActualRiskPct))
	}
	for _, t := range lv.Targets {
		b.WriteString(fmt.Sprintf("  🎯 %.2f (%.1fR, %s)\n", t.Price, t.RewardRisk, html.EscapeString(t.Method)))
	}
	b.WriteString(fmt.Sprintf("  volume %s %.1fx", sig.Volume.Tier, sig.Volume.Ratio))
	if sig.Confirmation != model.ConfirmNone {
		b.WriteString(fmt.Sprintf(" | breakout %s", sig.Confirmation))
	}
	b.WriteString(fmt.Sprintf(" | gap %s", sig.Timing.GapRisk))
	if sig.Timing.Adjustment != 0 {
		b.WriteString(fmt.Sprintf(" (%s %+.0f)", sig.Timing.Rule, sig.Timing.Adjustment))
	}
	b.WriteString("\n")
	writeGuidance(&b, sig.Timing)
	return b.String()
}

func writeGuidance(b *strings.Builder, tc model.TimingContext) {
	if tc.Note != "" {
		b.WriteString("  ⏱ " + html.EscapeString(tc.Note) + "\n")
	}
	for _, line := range []struct {
		icon  string
		items []string
	}{
		{"💡", tc.Recommendations},
		{"⚠️", tc.RiskFactors},
		{"✅", tc.EntryConditions},
	} {
		if len(line.items) > 0 {
			b.WriteString(fmt.Sprintf("  %s %s\n", line.icon, html.EscapeString(strings.Join(line.items, "; "))))
		}
	}
}

// FormatStatus formats the last recorded scan for /status.
func FormatStatus(run *recorder.ScanRun) string {
	if run == nil {
		return "📦 No scan has run yet."
	}
	var b strings.Builder
	b.WriteString("📦 <b>Last scan</b>\n\n")
	b.WriteString(fmt.Sprintf("Run: <code>%s</code>\n", run.RunID))
	b.WriteString(fmt.Sprintf("Finished: %s (%s)\n", run.Finished.Format("2006-01-02 15:04"), run.Duration().Round(time.Millisecond)))
	b.WriteString(fmt.Sprintf("Source: %s, trigger: %s\n", run.Source, run.Trigger))
	b.WriteString(fmt.Sprintf("Tuples: %d, signals: %d, no signal: %d\n", run.Tuples, run.Signals, run.NoSignal))

	if len(run.PatternSignals) > 0 {
		counts := make(map[string]int, len(run.PatternSignals))
		for k, n := range run.PatternSignals {
			counts[string(k)] = n
		}
		b.WriteString("Patterns: " + formatCounts(counts) + "\n")
	}
	if len(run.Failures) > 0 {
		counts := make(map[string]int)
		for _, f := range run.Failures {
			counts[f.Kind]++
		}
		b.WriteString("Failures: " + formatCounts(counts) + "\n")
	}
	return b.String()
}

// HelpText lists the bot commands.
const HelpText = `🤖 <b>PatternSentinel</b>

/scan - run a scan now
/status - last scan summary
/help - this message`

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s %d", k, counts[k])
	}
	return strings.Join(parts, ", ")
}
