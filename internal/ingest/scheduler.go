package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/deusflow/crednews/internal/logger"
)

// CycleRunner is anything that can run one ingestion cycle.
type CycleRunner interface {
	RunCycle(ctx context.Context) (Result, error)
}

// Scheduler runs cycles on a cron schedule. A tick that fires while the
// previous cycle is still running is skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner CycleRunner
	log    logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler validates schedule and registers the cycle job. It accepts
// the standard five fields and descriptors such as "@every 6h".
func NewScheduler(schedule string, loc *time.Location, runner CycleRunner, log logger.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	cl := cronLogger{log: log}

	s := &Scheduler{
		runner: runner,
		log:    log,
		cron: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		s.cancel()
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	if entries := s.cron.Entries(); len(entries) > 0 {
		s.log.Info("Scheduler started", logger.Time("next_run", entries[0].Next))
	}
}

// Stop prevents new runs, cancels the running one and waits for it until
// ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) run() {
	res, err := s.runner.RunCycle(s.ctx)
	if err != nil {
		s.log.Error("Scheduled cycle failed", logger.Error(err))
		return
	}
	s.log.Info("Scheduled cycle completed",
		logger.Int("articles", len(res.Articles)),
		logger.Duration("duration", res.Duration),
	)
}

// cronLogger adapts logger.Logger to cron.Logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(kvFields(keysAndValues), logger.Error(err))...)
}

func kvFields(kv []any) []logger.Field {
	fields := make([]logger.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logger.Any(key, kv[i+1]))
	}
	return fields
}
