package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── Shift submission module errors ──

var (
	ErrSubmissionNotFound   = errors.New("shift submission not found")
	ErrSubmissionNotPending = errors.New("shift submission was already reviewed")
)

// ShiftSubmissionService manually entered shifts: pending → confirmed | rejected.
// Confirming materializes a manual-source daily record.
type ShiftSubmissionService interface {
	Create(ctx context.Context, req *dto.CreateShiftSubmissionRequest, actorID string) (*dto.ShiftSubmissionResponse, error)
	List(ctx context.Context, req *dto.ListShiftSubmissionsRequest) ([]dto.ShiftSubmissionResponse, int64, error)
	Confirm(ctx context.Context, id, actorID string) (*dto.ShiftSubmissionResponse, error)
	Reject(ctx context.Context, id string, req *dto.RejectShiftSubmissionRequest, actorID string) (*dto.ShiftSubmissionResponse, error)
}

type shiftSubmissionService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	settings  Settings
	logger    *zap.Logger
}

// NewShiftSubmissionService creates a ShiftSubmissionService
func NewShiftSubmissionService(repo *repository.Repository, reconcile ReconcileService, settings Settings, logger *zap.Logger) ShiftSubmissionService {
	return &shiftSubmissionService{repo: repo, reconcile: reconcile, settings: settings, logger: logger}
}

// ────── Create ──────

func (s *shiftSubmissionService) Create(ctx context.Context, req *dto.CreateShiftSubmissionRequest, actorID string) (*dto.ShiftSubmissionResponse, error) {
	day, err := dto.ParseDate(req.Date)
	if err != nil {
		return nil, pkgerrors.NewValidation("date", err.Error())
	}
	shift, ok := attendance.ParseShiftType(req.ShiftType)
	if !ok {
		return nil, errInvalidShift(req.ShiftType)
	}
	sub := &model.ShiftSubmission{
		EmployeeID: req.EmployeeID,
		WorkingDay: datatypes.Date(day),
		ShiftType:  string(shift),
		CheckIn:    req.CheckIn.UTC(),
		CheckOut:   req.CheckOut.UTC(),
		Note:       req.Note,
		Status:     model.SubmissionPending,
	}
	if shift == attendance.Custom {
		sub.CustomStart = strPtr(req.CustomStart)
		sub.CustomEnd = strPtr(req.CustomEnd)
	}
	// custom bounds are validated here so confirmation cannot fail on them
	if _, err := s.settings.definition(shift, sub.CustomStart, sub.CustomEnd); err != nil {
		return nil, err
	}
	if !sub.CheckOut.After(sub.CheckIn) {
		return nil, pkgerrors.NewValidation("check_out", "must be after check_in")
	}
	start := attendance.Clock(0, 0).On(day, s.settings.Location)
	if sub.CheckIn.Before(start.Add(-12*time.Hour)) || sub.CheckIn.After(start.Add(36*time.Hour)) {
		return nil, pkgerrors.NewValidation("check_in", "does not belong to the given working day")
	}
	if _, err := lookupEmployee(ctx, s.repo, s.settings, s.logger, req.EmployeeID); err != nil {
		return nil, err
	}

	sub.CreatedBy = strPtr(actorID)
	if err := s.repo.ShiftSubmission.Create(ctx, sub); err != nil {
		s.logger.Error("create shift submission failed", zap.Error(err))
		return nil, err
	}
	resp := s.toResponse(sub)
	return &resp, nil
}

// ────── Read ──────

func (s *shiftSubmissionService) List(ctx context.Context, req *dto.ListShiftSubmissionsRequest) ([]dto.ShiftSubmissionResponse, int64, error) {
	offset, limit := req.Normalize()
	subs, total, err := s.repo.ShiftSubmission.List(ctx, req.Status, req.EmployeeID, offset, limit)
	if err != nil {
		s.logger.Error("list shift submissions failed", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ShiftSubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, s.toResponse(&subs[i]))
	}
	return out, total, nil
}

// ────── Review ──────

func (s *shiftSubmissionService) Confirm(ctx context.Context, id, actorID string) (*dto.ShiftSubmissionResponse, error) {
	sub, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	shift := attendance.ShiftType(sub.ShiftType)
	def, err := s.settings.definition(shift, sub.CustomStart, sub.CustomEnd)
	if err != nil {
		return nil, err
	}
	checkIn, checkOut := sub.CheckIn, sub.CheckOut
	prov := attendance.Provisional{
		EmployeeID:  sub.EmployeeID,
		WorkingDay:  time.Time(sub.WorkingDay),
		Shift:       shift,
		CheckIn:     &checkIn,
		CheckOut:    &checkOut,
		Manual:      true,
		RecordCount: 1,
	}
	rec := workRecord(prov, s.settings.Calculator.Compute(prov, def), model.SourceManual)
	rec.CustomStart = sub.CustomStart
	rec.CustomEnd = sub.CustomEnd
	rec.Notes = sub.Note
	rec.CreatedBy = strPtr(actorID)
	rec.UpdatedBy = strPtr(actorID)

	// claim the submission first so a lost review race writes nothing
	now := time.Now()
	sub.Status = model.SubmissionConfirmed
	sub.ReviewedBy = strPtr(actorID)
	sub.ReviewedAt = &now
	sub.UpdatedBy = strPtr(actorID)
	if err := s.transition(ctx, sub); err != nil {
		return nil, err
	}

	stored, _, err := s.reconcile.Upsert(ctx, rec, true)
	if err != nil {
		s.logger.Error("materialize shift submission failed", zap.String("submission_id", id), zap.Error(err))
		s.release(ctx, sub)
		return nil, err
	}

	sub.DailyRecordID = &stored.DailyRecordID
	if err := s.repo.ShiftSubmission.Transition(ctx, sub, model.SubmissionConfirmed); err != nil {
		s.logger.Error("link daily record to shift submission failed",
			zap.String("submission_id", id),
			zap.String("daily_record_id", stored.DailyRecordID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("shift submission confirmed",
		zap.String("submission_id", id),
		zap.String("daily_record_id", stored.DailyRecordID),
		zap.String("by", actorID),
	)
	resp := s.toResponse(sub)
	return &resp, nil
}

func (s *shiftSubmissionService) Reject(ctx context.Context, id string, req *dto.RejectShiftSubmissionRequest, actorID string) (*dto.ShiftSubmissionResponse, error) {
	sub, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sub.Status = model.SubmissionRejected
	sub.RejectReason = req.Reason
	sub.ReviewedBy = strPtr(actorID)
	sub.ReviewedAt = &now
	if err := s.transition(ctx, sub); err != nil {
		return nil, err
	}
	resp := s.toResponse(sub)
	return &resp, nil
}

func (s *shiftSubmissionService) pending(ctx context.Context, id string) (*model.ShiftSubmission, error) {
	sub, err := s.repo.ShiftSubmission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	if sub.Status != model.SubmissionPending {
		return nil, ErrSubmissionNotPending
	}
	return sub, nil
}

// transition a concurrent reviewer that got there first wins
func (s *shiftSubmissionService) transition(ctx context.Context, sub *model.ShiftSubmission) error {
	err := s.repo.ShiftSubmission.Transition(ctx, sub, model.SubmissionPending)
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return ErrSubmissionNotPending
	}
	return err
}

// release puts a claimed submission back to pending after its record could
// not be written
func (s *shiftSubmissionService) release(ctx context.Context, sub *model.ShiftSubmission) {
	sub.Status = model.SubmissionPending
	sub.ReviewedBy = nil
	sub.ReviewedAt = nil
	if err := s.repo.ShiftSubmission.Transition(ctx, sub, model.SubmissionConfirmed); err != nil {
		s.logger.Error("release shift submission failed", zap.String("submission_id", sub.SubmissionID), zap.Error(err))
	}
}

func (s *shiftSubmissionService) toResponse(sub *model.ShiftSubmission) dto.ShiftSubmissionResponse {
	resp := dto.ShiftSubmissionResponse{
		ID:            sub.SubmissionID,
		EmployeeID:    sub.EmployeeID,
		WorkingDay:    time.Time(sub.WorkingDay).Format(dto.DateLayout),
		ShiftType:     sub.ShiftType,
		CustomStart:   sub.CustomStart,
		CustomEnd:     sub.CustomEnd,
		CheckIn:       sub.CheckIn.In(s.settings.Location).Format(time.RFC3339),
		CheckOut:      sub.CheckOut.In(s.settings.Location).Format(time.RFC3339),
		Note:          sub.Note,
		Status:        sub.Status,
		RejectReason:  sub.RejectReason,
		DailyRecordID: sub.DailyRecordID,
	}
	if sub.Employee != nil {
		resp.EmployeeName = sub.Employee.Name
	}
	return resp
}
