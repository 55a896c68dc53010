package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/service"
)

type fakeCalendar struct {
	calls int
	err   error
}

func (f *fakeCalendar) Refresh(context.Context) error {
	f.calls++
	return f.err
}

type fakeReconcile struct {
	service.ReconcileService
	got *dto.ReconcileRequest
}

func (f *fakeReconcile) ReconcileRange(_ context.Context, req *dto.ReconcileRequest) (*dto.ReconcileResult, error) {
	f.got = req
	return &dto.ReconcileResult{Employees: 2}, nil
}

func (f *fakeReconcile) Upsert(context.Context, *model.DailyRecord, bool) (*model.DailyRecord, service.UpsertOutcome, error) {
	return nil, 0, errors.New("not used")
}

func testConfig() *config.Config {
	return &config.Config{
		Calendar:  config.CalendarConfig{RefreshCron: "*/5 * * * *"},
		Scheduler: config.SchedulerConfig{Enabled: true, ReconcileCron: "15 2 * * *", LookbackDays: 3},
	}
}

func TestNew_RegistersJobs(t *testing.T) {
	s, err := New(testConfig(), &fakeCalendar{}, &fakeReconcile{}, time.UTC, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 2 {
		t.Errorf("expected 2 jobs, got %d", n)
	}

	cfg := testConfig()
	cfg.Calendar.RefreshCron = ""
	s, err = New(cfg, &fakeCalendar{}, &fakeReconcile{}, time.UTC, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("empty spec should disable the job, got %d jobs", n)
	}
}

func TestNew_BadSpec(t *testing.T) {
	cfg := testConfig()
	cfg.Scheduler.ReconcileCron = "not a spec"
	if _, err := New(cfg, &fakeCalendar{}, &fakeReconcile{}, time.UTC, zap.NewNop()); err == nil {
		t.Error("expected an error for an invalid cron spec")
	}
}

func TestReconcileRecent_Window(t *testing.T) {
	rec := &fakeReconcile{}
	s, err := New(testConfig(), &fakeCalendar{}, rec, time.UTC, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.now = func() time.Time { return time.Date(2024, 3, 1, 2, 15, 0, 0, time.UTC) }

	if err := s.ReconcileRecent(context.Background()); err != nil {
		t.Fatalf("ReconcileRecent failed: %v", err)
	}
	if rec.got == nil || rec.got.From != "2024-02-28" || rec.got.To != "2024-03-01" {
		t.Errorf("unexpected window %+v", rec.got)
	}
	if len(rec.got.EmployeeIDs) != 0 {
		t.Errorf("scheduled run should cover every employee, got %v", rec.got.EmployeeIDs)
	}
}

func TestJob_LogsFailure(t *testing.T) {
	cal := &fakeCalendar{err: errors.New("db down")}
	s, err := New(testConfig(), cal, &fakeReconcile{}, time.UTC, zap.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	s.job("calendar_refresh", s.RefreshCalendar)()
	if cal.calls != 1 {
		t.Errorf("refresh called %d times", cal.calls)
	}
}
