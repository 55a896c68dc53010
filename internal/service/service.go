package service

import (
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/pkg/jwt"
)

// Service aggregate of every service
type Service struct {
	Auth        AuthService
	Employee    EmployeeService
	Reconcile   ReconcileService
	Punch       PunchService
	Absence     AbsenceService
	Submission  ShiftSubmissionService
	DailyRecord DailyRecordService
	Holiday     HolidayService
	Report      ReportService
	Export      ExportService
	Maintenance MaintenanceService
}

// NewService wires the services. blacklist may be nil when redis is off.
func NewService(
	settings Settings,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	cal *calendar.Calendar,
	logger *zap.Logger,
) *Service {
	reconcile := NewReconcileService(repo, settings, logger)
	holiday := NewHolidayService(repo, cal, logger)
	report := NewReportService(repo, cal, logger)

	return &Service{
		Auth:        NewAuthService(repo, jwtMgr, blacklist, logger),
		Employee:    NewEmployeeService(repo, logger),
		Reconcile:   reconcile,
		Punch:       NewPunchService(repo, reconcile, settings, logger),
		Absence:     NewAbsenceService(repo, reconcile, settings, logger),
		Submission:  NewShiftSubmissionService(repo, reconcile, settings, logger),
		DailyRecord: NewDailyRecordService(repo, reconcile, settings, logger),
		Holiday:     holiday,
		Report:      report,
		Export:      NewExportService(repo, report, logger),
		Maintenance: NewMaintenanceService(repo, holiday, settings, logger),
	}
}
