// Package digest posts the daily meeting summary on a cron schedule.
package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/houzhh15/meetbot/cmd/server/internal/services"
)

// Runner performs one digest run.
type Runner interface {
	RunDigest(ctx context.Context) (services.DigestReport, error)
}

// Scheduler runs the digest every time the cron spec fires, in local time.
type Scheduler struct {
	cron    *cron.Cron
	runner  Runner
	spec    string
	timeout time.Duration
	log     *slog.Logger
}

// NewScheduler validates spec and registers the job. Nothing runs until Start.
func NewScheduler(spec string, runner Runner, log *slog.Logger) (*Scheduler, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Scheduler{
		runner:  runner,
		spec:    spec,
		timeout: 2 * time.Minute,
		log:     log.With("component", "digest"),
	}
	s.cron = cron.New(
		cron.WithLocation(time.Local),
		cron.WithLogger(cronLogger{s.log}),
		cron.WithChain(cron.Recover(cronLogger{s.log}), cron.SkipIfStillRunning(cronLogger{s.log})),
	)
	if _, err := s.cron.AddFunc(spec, s.Run); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("digest scheduler started", "spec", s.spec)
}

// Stop stops scheduling and waits for a running digest to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("digest still running at shutdown")
	}
}

// Next returns when the digest fires next. The zero time means it is not scheduled.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run performs one digest. Failures are logged and never stop the schedule.
func (s *Scheduler) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.runner.RunDigest(ctx)
	if err != nil {
		s.log.Error("digest run failed", "error", err)
		return
	}
	s.log.Debug("digest run finished", "groups", report.Groups, "failed", report.Failed)
}

// cronLogger bridges cron's logger to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
