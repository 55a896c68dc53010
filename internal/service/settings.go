package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CentZek/newesthr-sub000/config"
	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
	"github.com/CentZek/newesthr-sub000/pkg/retry"
)

// customLateTolerance late tolerance of caller-defined shifts
const customLateTolerance = 10 * time.Minute

// Settings engine parameters shared by the attendance services
type Settings struct {
	Location     *time.Location
	Catalog      *attendance.Catalog
	Calculator   attendance.Calculator
	EarlyLeave   time.Duration
	StoreTimeout time.Duration
	Retry        retry.Policy
	Batch        batch.Options
}

// NewSettings builds Settings from the attendance config section
func NewSettings(cfg *config.AttendanceConfig) (Settings, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Settings{}, err
	}
	earlyLeave := time.Duration(cfg.EarlyLeaveMinutes) * time.Minute

	calc := attendance.NewCalculator(loc)
	calc.StandardHours = decimal.NewFromFloat(cfg.StandardHours)
	calc.ManualFlatHours = cfg.ManualFlatHours
	calc.OvertimeThreshold = decimal.NewFromFloat(cfg.OvertimeThresholdHours)

	return Settings{
		Location:     loc,
		Catalog:      attendance.NewCatalog(earlyLeave),
		Calculator:   calc,
		EarlyLeave:   earlyLeave,
		StoreTimeout: cfg.StoreTimeout,
		Retry: retry.Policy{
			Attempts: cfg.Retry.Attempts,
			Initial:  cfg.Retry.Initial,
			Cap:      cfg.Retry.Cap,
		},
		Batch: batch.Options{Size: cfg.Batch.ChunkSize, Pause: cfg.Batch.Pause},
	}, nil
}

// DefaultSettings UTC, default catalog and calculator, default retry policy
func DefaultSettings() Settings {
	return Settings{
		Location:     time.UTC,
		Catalog:      attendance.DefaultCatalog,
		Calculator:   attendance.NewCalculator(time.UTC),
		EarlyLeave:   attendance.DefaultEarlyLeaveMargin,
		StoreTimeout: 30 * time.Second,
		Retry:        retry.DefaultPolicy,
		Batch:        batch.Options{Size: 50},
	}
}

// withStoreTimeout bounds one store call; a zero timeout only adds cancel
func (s Settings) withStoreTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.StoreTimeout)
}

// definition resolves the shift definition of a record. Custom shifts carry
// their own bounds.
func (s Settings) definition(shift attendance.ShiftType, customStart, customEnd *string) (attendance.ShiftDefinition, error) {
	if shift != attendance.Custom {
		if def, ok := s.Catalog.Get(shift); ok {
			return def, nil
		}
		return attendance.ShiftDefinition{}, errInvalidShift(string(shift))
	}
	if customStart == nil || customEnd == nil {
		return attendance.ShiftDefinition{}, errInvalidShift("custom shift without bounds")
	}
	start, err := attendance.ParseClock(*customStart)
	if err != nil {
		return attendance.ShiftDefinition{}, err
	}
	end, err := attendance.ParseClock(*customEnd)
	if err != nil {
		return attendance.ShiftDefinition{}, err
	}
	return attendance.NewCustomShift(start, end, customLateTolerance, s.EarlyLeave)
}
