package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// maxAbsenceDays longest leave range accepted in one request
const maxAbsenceDays = 62

// AbsenceService leave and off-day ingestion. Absence records bypass
// pairing and carry fixed hours whatever punches exist for the day.
type AbsenceService interface {
	SubmitLeave(ctx context.Context, req *dto.LeaveRequest, actorID string) (*dto.AbsenceResult, error)
	SubmitOffDay(ctx context.Context, req *dto.OffDayRequest, actorID string) (*dto.AbsenceResult, error)
}

type absenceService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	settings  Settings
	logger    *zap.Logger
}

// NewAbsenceService creates an AbsenceService
func NewAbsenceService(repo *repository.Repository, reconcile ReconcileService, settings Settings, logger *zap.Logger) AbsenceService {
	return &absenceService{repo: repo, reconcile: reconcile, settings: settings, logger: logger}
}

func (s *absenceService) SubmitLeave(ctx context.Context, req *dto.LeaveRequest, actorID string) (*dto.AbsenceResult, error) {
	lt, ok := attendance.ParseLeaveType(req.LeaveType)
	if !ok {
		return nil, pkgerrors.NewValidation("leave_type", "unknown leave type "+req.LeaveType)
	}
	return s.submit(ctx, req.EmployeeID, req.From, req.To, attendance.Leave(lt), req.Note, actorID)
}

func (s *absenceService) SubmitOffDay(ctx context.Context, req *dto.OffDayRequest, actorID string) (*dto.AbsenceResult, error) {
	return s.submit(ctx, req.EmployeeID, req.From, req.To, attendance.OffDay(), req.Note, actorID)
}

func (s *absenceService) submit(ctx context.Context, employeeID, fromStr, toStr string, kind attendance.DayKind, note, actorID string) (*dto.AbsenceResult, error) {
	from, err := dto.ParseDate(fromStr)
	if err != nil {
		return nil, pkgerrors.NewValidation("from", err.Error())
	}
	to := from
	if toStr != "" {
		if to, err = dto.ParseDate(toStr); err != nil {
			return nil, pkgerrors.NewValidation("to", err.Error())
		}
		if to.Before(from) {
			return nil, pkgerrors.NewValidation("to", "must not be before from")
		}
	}
	days := dateRange(from, to)
	if len(days) > maxAbsenceDays {
		return nil, pkgerrors.NewValidation("to", "range longer than 62 days")
	}

	if _, err := lookupEmployee(ctx, s.repo, s.settings, s.logger, employeeID); err != nil {
		return nil, err
	}

	res := s.settings.Calculator.Absence(kind)
	result := &dto.AbsenceResult{Days: len(days)}
	for _, day := range days {
		rec := absenceRecord(employeeID, day, kind, res, note)
		rec.CreatedBy = strPtr(actorID)
		rec.UpdatedBy = strPtr(actorID)

		stored, _, err := s.reconcile.Upsert(ctx, rec, true)
		if err != nil {
			s.logger.Error("write absence record failed",
				zap.String("employee_id", employeeID),
				zap.String("day", day.Format(dto.DateLayout)),
				zap.Error(err),
			)
			return nil, err
		}
		result.Records = append(result.Records, toDailyRecordResponse(stored))
	}

	s.logger.Info("absence recorded",
		zap.String("employee_id", employeeID),
		zap.String("kind", kind.Label()),
		zap.Int("days", len(days)),
	)
	return result, nil
}
