// Package scheduler runs the periodic jobs: refreshing the double-time
// calendar and re-reconciling the last few days of punches.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/service"
)

const jobTimeout = 10 * time.Minute

// CalendarRefresher reloads the holiday list
type CalendarRefresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler owns the cron runner
type Scheduler struct {
	cron      *cron.Cron
	calendar  CalendarRefresher
	reconcile service.ReconcileService
	lookback  int
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// New registers the jobs named in cfg. An empty cron spec disables that job.
func New(
	cfg *config.Config,
	cal CalendarRefresher,
	reconcile service.ReconcileService,
	loc *time.Location,
	logger *zap.Logger,
) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		calendar:  cal,
		reconcile: reconcile,
		lookback:  cfg.Scheduler.LookbackDays,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}

	if spec := cfg.Calendar.RefreshCron; spec != "" && cal != nil {
		if _, err := s.cron.AddFunc(spec, s.job("calendar_refresh", s.RefreshCalendar)); err != nil {
			return nil, fmt.Errorf("schedule calendar refresh %q: %w", spec, err)
		}
	}
	if spec := cfg.Scheduler.ReconcileCron; spec != "" && reconcile != nil {
		if _, err := s.cron.AddFunc(spec, s.job("reconcile", s.ReconcileRecent)); err != nil {
			return nil, fmt.Errorf("schedule reconcile %q: %w", spec, err)
		}
	}
	return s, nil
}

// Start runs the cron loop in its own goroutine
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out, jobs still running")
	}
}

// RefreshCalendar reloads the double-time calendar
func (s *Scheduler) RefreshCalendar(ctx context.Context) error {
	return s.calendar.Refresh(ctx)
}

// ReconcileRecent rebuilds punch-derived records for the last lookback days,
// today included
func (s *Scheduler) ReconcileRecent(ctx context.Context) error {
	days := s.lookback
	if days <= 0 {
		days = 1
	}
	today := s.now().In(s.loc)
	from := today.AddDate(0, 0, -(days - 1))

	res, err := s.reconcile.ReconcileRange(ctx, &dto.ReconcileRequest{
		From: from.Format(dto.DateLayout),
		To:   today.Format(dto.DateLayout),
	})
	if err != nil {
		return err
	}
	s.logger.Info("scheduled reconcile finished",
		zap.String("from", from.Format(dto.DateLayout)),
		zap.String("to", today.Format(dto.DateLayout)),
		zap.Int("employees", res.Employees),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return nil
}

func (s *Scheduler) job(name string, fn func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := fn(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Debug("scheduled job done", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	l *zap.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Sugar().Infow(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Sugar().With(zap.Error(err)).Errorw(msg, keysAndValues...)
}
