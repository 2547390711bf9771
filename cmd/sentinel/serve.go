package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"PatternSentinel/internal/metrics"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/scheduler"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run scheduled scans, bot commands and the metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := cfg.ValidateNotifier(); err != nil {
				return err
			}
			ctx := cmd.Context()
			log.Info().Msg("PatternSentinel starting")

			m := metrics.NewRegistry()
			rec := buildRecorder(cfg)
			defer rec.Close()
			job, err := buildJob(ctx, cfg, m, rec)
			if err != nil {
				return err
			}

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
			sched := scheduler.NewScheduler(ctx, job, tn, rec)
			if err := sched.Register(cfg.Schedule.ScanCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			go tn.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")

			srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: metricsMux(m), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("metrics listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("metrics server")
				}
			}()

			if runOnStart || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("run on start enabled, executing scan now")
				go sched.RunNow()
			}

			log.Info().Str("cron", cfg.Schedule.ScanCron).Msg("PatternSentinel is running. Press Ctrl+C to stop.")
			<-ctx.Done()

			log.Info().Msg("shutdown signal received, stopping...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "scan immediately after start")
	return cmd
}

func metricsMux(m *metrics.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
