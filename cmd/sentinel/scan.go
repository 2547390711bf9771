package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"PatternSentinel/internal/scanner"
)

func newScanCmd(root *rootOptions) *cobra.Command {
	var (
		tickers       string
		timeframes    string
		patterns      string
		source        string
		minConfidence float64
		asJSON        bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print the signals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if tickers != "" {
				cfg.Scan.Tickers = splitFlag(tickers)
			}
			if timeframes != "" {
				cfg.Scan.Timeframes = splitFlag(timeframes)
			}
			if patterns != "" {
				cfg.Scan.Patterns = splitFlag(patterns)
			}
			if source != "" {
				cfg.DataSource.Provider = source
			}
			if cmd.Flags().Changed("min-confidence") {
				cfg.Detection.MinConfidence = minConfidence
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			rec := buildRecorder(cfg)
			defer rec.Close()
			job, err := buildJob(cmd.Context(), cfg, nil, rec)
			if err != nil {
				return err
			}
			rep, err := job.Run(cmd.Context(), "cli")
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			}
			return printReport(cmd.OutOrStdout(), rep)
		},
	}
	cmd.Flags().StringVar(&tickers, "tickers", "", "comma-separated tickers (overrides config)")
	cmd.Flags().StringVar(&timeframes, "timeframes", "", "comma-separated timeframes: 1d,4h,1wk")
	cmd.Flags().StringVar(&patterns, "patterns", "", "comma-separated pattern kinds or all")
	cmd.Flags().StringVar(&source, "source", "", "data source: yahoo, rest or mock")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "raw confidence floor (45-85)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

func splitFlag(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func printReport(out io.Writer, rep *scanner.Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICKER\tTF\tPATTERN\tGRADE\tCONF\tENTRY\tSTOP\tTARGET\tR\tVOLUME\tAGE")
	for _, s := range rep.Signals {
		target, rr := "-", "-"
		if len(s.Levels.Targets) > 0 {
			t := s.Levels.Targets[0]
			target, rr = fmt.Sprintf("%.2f", t.Price), fmt.Sprintf("%.1f", t.RewardRisk)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.0f\t%.2f\t%.2f\t%s\t%s\t%s\t%d\n",
			s.Ticker, s.Timeframe, s.Pattern, s.Grade, s.AdjustedConf,
			s.Levels.Entry, s.Levels.Stop, target, rr, s.Volume.Tier, s.AgeBars)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\nrun %s: %d tuples, %d signals, %d no signal, %d failures in %s\n",
		rep.RunID, rep.Tuples, len(rep.Signals), rep.NoSignal, len(rep.Failures), rep.Elapsed())
	for _, f := range rep.Failures {
		fmt.Fprintf(out, "  %s %s/%s/%s: %s\n", f.Kind, f.Ticker, f.Timeframe, f.Pattern, f.Message)
	}
	return nil
}
