package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/recorder"
)

// Sender delivers a formatted message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the scan job on a cron schedule and answers bot commands.
type Scheduler struct {
	Cron     *cron.Cron
	Job      *Job
	Notifier Sender
	Recorder recorder.Recorder
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, job *Job, sender Sender, rec recorder.Recorder) *Scheduler {
	logger := cronLogger{l: log.Logger.With().Str("component", "cron").Logger()}
	return &Scheduler{
		Cron: cron.New(cron.WithSeconds(), cron.WithLogger(logger), cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
		Job:      job,
		Notifier: sender,
		Recorder: rec,
		Ctx:      ctx,
	}
}

// Register adds the scan task.
func (s *Scheduler) Register(scanCron string) error {
	if _, err := s.Cron.AddFunc(scanCron, func() { s.scanTask("cron") }); err != nil {
		return fmt.Errorf("register scan task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running scan to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the scan task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.scanTask("startup")
}

func (s *Scheduler) scanTask(trigger string) {
	rep, err := s.Job.Run(s.Ctx, trigger)
	if err != nil {
		log.Warn().Err(err).Str("trigger", trigger).Msg("scan skipped")
		return
	}
	s.trySend(notifier.FormatDigest(rep, notifier.DigestLimit))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	// Commands in groups arrive as /scan@BotName.
	var cmd string
	if fields := strings.Fields(command); len(fields) > 0 {
		cmd, _, _ = strings.Cut(fields[0], "@")
	}
	switch cmd {
	case "/scan":
		rep, err := s.Job.Run(ctx, "command")
		if errors.Is(err, ErrScanRunning) {
			return "⏳ A scan is already running."
		}
		if err != nil {
			return fmt.Sprintf("❌ scan failed: %v", err)
		}
		return notifier.FormatDigest(rep, notifier.DigestLimit)
	case "/status":
		run, err := s.Recorder.LastScan()
		if err != nil {
			log.Error().Err(err).Msg("load last scan")
			return fmt.Sprintf("❌ status unavailable: %v", err)
		}
		return notifier.FormatStatus(run)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}

// cronLogger sends cron's own messages through zerolog. Routine wake/run
// messages go to debug.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
