package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── Daily record module errors ──

var (
	ErrRecordNotFound   = errors.New("daily record no longer exists, reload the page")
	ErrRecordIsAbsence  = errors.New("leave and off-day records have no times to edit")
	ErrRecordConcurrent = errors.New("daily record was modified by someone else, reload and retry")
	ErrRecordApproved   = errors.New("approved records must be unapproved before their punches change")
)

// DailyRecordService the HR approval surface
type DailyRecordService interface {
	Get(ctx context.Context, id string) (*dto.DailyRecordResponse, error)
	List(ctx context.Context, filter model.RecordFilter) ([]dto.DailyRecordResponse, error)
	// Approve marks records approved. Records that are not approvable are
	// reported in Rejected with the reason; the rest are still approved.
	Approve(ctx context.Context, ids []string, actorID string) (*dto.ApprovalResult, error)
	// Unapprove removes records from payroll aggregation without deleting them
	Unapprove(ctx context.Context, ids []string, actorID string) (*dto.ApprovalResult, error)
	ApplyPenalty(ctx context.Context, req *dto.PenaltyRequest, actorID string) (*dto.DailyRecordResponse, error)
	EditTimes(ctx context.Context, req *dto.EditTimesRequest, actorID string) (*dto.DailyRecordResponse, error)
	// Swap flips the direction of every device punch of an employee's
	// working day, drops the records built from them and reconciles again.
	// Returns the working day's records afterwards.
	Swap(ctx context.Context, req *dto.SwapRequest, actorID string) ([]dto.DailyRecordResponse, error)
}

type dailyRecordService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	settings  Settings
	logger    *zap.Logger
}

// NewDailyRecordService creates a DailyRecordService
func NewDailyRecordService(repo *repository.Repository, reconcile ReconcileService, settings Settings, logger *zap.Logger) DailyRecordService {
	return &dailyRecordService{repo: repo, reconcile: reconcile, settings: settings, logger: logger}
}

// ────── Read ──────

func (s *dailyRecordService) Get(ctx context.Context, id string) (*dto.DailyRecordResponse, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toDailyRecordResponse(rec)
	return &resp, nil
}

func (s *dailyRecordService) List(ctx context.Context, filter model.RecordFilter) ([]dto.DailyRecordResponse, error) {
	recs, err := s.repo.DailyRecord.List(ctx, filter)
	if err != nil {
		s.logger.Error("list daily records failed", zap.Error(err))
		return nil, err
	}
	return toDailyRecordResponses(recs), nil
}

// ────── Approval ──────

func (s *dailyRecordService) Approve(ctx context.Context, ids []string, actorID string) (*dto.ApprovalResult, error) {
	return s.toggle(ctx, ids, actorID, true)
}

func (s *dailyRecordService) Unapprove(ctx context.Context, ids []string, actorID string) (*dto.ApprovalResult, error) {
	return s.toggle(ctx, ids, actorID, false)
}

func (s *dailyRecordService) toggle(ctx context.Context, ids []string, actorID string, approve bool) (*dto.ApprovalResult, error) {
	result := &dto.ApprovalResult{Updated: []string{}}
	reject := func(id, reason string) {
		result.Rejected = append(result.Rejected, dto.ApprovalRejection{ID: id, Reason: reason})
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		rec, err := s.load(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			reject(id, err.Error())
			continue
		}
		if err != nil {
			return result, err
		}

		if approve {
			var rule *pkgerrors.BusinessRuleViolation
			if err := attendance.Approvable(dayKindOf(rec), rec.CheckIn, rec.CheckOut); errors.As(err, &rule) {
				reject(id, rule.Reason)
				continue
			}
		}
		if rec.Approved == approve {
			result.Updated = append(result.Updated, id)
			continue
		}

		rec.Approved = approve
		rec.UpdatedBy = strPtr(actorID)
		if approve {
			now := time.Now()
			rec.ApprovedBy = strPtr(actorID)
			rec.ApprovedAt = &now
		} else {
			rec.ApprovedBy = nil
			rec.ApprovedAt = nil
		}
		if err := s.update(ctx, rec); err != nil {
			if errors.Is(err, ErrRecordConcurrent) || errors.Is(err, ErrRecordNotFound) {
				reject(id, err.Error())
				continue
			}
			return result, err
		}
		result.Updated = append(result.Updated, id)
	}

	s.logger.Info("approval toggled",
		zap.Bool("approve", approve),
		zap.Int("updated", len(result.Updated)),
		zap.Int("rejected", len(result.Rejected)),
		zap.String("by", actorID),
	)
	return result, nil
}

// ────── Manual corrections ──────

func (s *dailyRecordService) ApplyPenalty(ctx context.Context, req *dto.PenaltyRequest, actorID string) (*dto.DailyRecordResponse, error) {
	rec, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if *req.Minutes < 0 {
		return nil, pkgerrors.NewValidation("minutes", "must not be negative")
	}
	rec.PenaltyMinutes = *req.Minutes
	rec.UpdatedBy = strPtr(actorID)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	resp := toDailyRecordResponse(rec)
	return &resp, nil
}

func (s *dailyRecordService) EditTimes(ctx context.Context, req *dto.EditTimesRequest, actorID string) (*dto.DailyRecordResponse, error) {
	rec, err := s.load(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if rec.Kind != string(attendance.KindWork) {
		return nil, ErrRecordIsAbsence
	}

	// punch ids stay: they name the pairing the record owns
	if req.CheckIn != nil {
		t := req.CheckIn.UTC()
		rec.CheckIn = &t
	}
	if req.CheckOut != nil {
		t := req.CheckOut.UTC()
		rec.CheckOut = &t
	}
	if rec.CheckIn != nil && rec.CheckOut != nil && !rec.CheckOut.After(*rec.CheckIn) {
		return nil, pkgerrors.NewValidation("check_out", "must be after check_in")
	}
	if req.ShiftType != nil {
		st, ok := attendance.ParseShiftType(*req.ShiftType)
		if !ok || (st == attendance.Custom && rec.CustomStart == nil) {
			return nil, errInvalidShift(*req.ShiftType)
		}
		shift := string(st)
		rec.ShiftType = &shift
		rec.Slot = attendance.Work(st).Slot()
	}
	if req.Notes != nil {
		rec.Notes = *req.Notes
	}

	if err := s.recompute(rec); err != nil {
		return nil, err
	}
	rec.ManuallyEdited = true
	rec.UpdatedBy = strPtr(actorID)
	if err := s.update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("daily record edited", zap.String("daily_record_id", rec.DailyRecordID), zap.String("by", actorID))
	resp := toDailyRecordResponse(rec)
	return &resp, nil
}

func (s *dailyRecordService) Swap(ctx context.Context, req *dto.SwapRequest, actorID string) ([]dto.DailyRecordResponse, error) {
	employeeID, day, err := s.swapTarget(ctx, req)
	if err != nil {
		return nil, err
	}

	// device punches stamped on the day, plus any punch a record of the day
	// was paired from
	loc := s.settings.Location
	var punches []model.Punch
	err = storeCall(ctx, s.settings, s.logger, "list punches", func(ctx context.Context) error {
		var err error
		punches, err = s.repo.Punch.ListBetween(ctx, employeeID,
			attendance.Clock(0, 0).On(day.AddDate(0, 0, -1), loc),
			attendance.Clock(0, 0).On(day.AddDate(0, 0, 2), loc))
		return err
	})
	if err != nil {
		return nil, err
	}
	from, to := day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)
	var records []model.DailyRecord
	err = storeCall(ctx, s.settings, s.logger, "list daily records", func(ctx context.Context) error {
		var err error
		records, err = s.repo.DailyRecord.List(ctx, model.RecordFilter{From: &from, To: &to, EmployeeIDs: []string{employeeID}})
		return err
	})
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	for i := range records {
		if r := &records[i]; r.Day().Equal(day) && r.Source == model.SourceDevice {
			referenced[derefStr(r.CheckInPunchID)] = true
			referenced[derefStr(r.CheckOutPunchID)] = true
		}
	}
	emp, err := lookupEmployee(ctx, s.repo, s.settings, s.logger, employeeID)
	if err != nil {
		return nil, err
	}
	flip := swapCandidates(punches, day, referenced, attendance.ShiftType(emp.DefaultShift), s.settings.Catalog, loc)
	if len(flip) == 0 {
		return nil, pkgerrors.NewValidation("working_day", "no device punches on "+day.Format(dto.DateLayout))
	}

	// records built from the flipped punches become stale halves
	flipped := make(map[string]bool, len(flip))
	for _, p := range flip {
		flipped[p.PunchID] = true
	}
	days := map[string]time.Time{day.Format(dto.DateLayout): day}
	var stale []string
	for i := range records {
		r := &records[i]
		if r.Source != model.SourceDevice || r.Kind != string(attendance.KindWork) {
			continue
		}
		if !flipped[derefStr(r.CheckInPunchID)] && !flipped[derefStr(r.CheckOutPunchID)] {
			continue
		}
		if r.Approved {
			return nil, ErrRecordApproved
		}
		stale = append(stale, r.DailyRecordID)
		days[r.Day().Format(dto.DateLayout)] = r.Day()
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		for _, p := range flip {
			dir, _ := attendance.ParseDirection(p.Direction)
			if err := tx.Punch.SetDirection(ctx, p.PunchID, string(dir.Opposite())); err != nil {
				return err
			}
		}
		if len(stale) == 0 {
			return nil
		}
		_, err := tx.DailyRecord.DeleteByIDs(ctx, stale, true)
		return err
	})
	if err != nil {
		return nil, s.mapWriteErr(err)
	}

	affected := make([]time.Time, 0, len(days))
	for _, d := range days {
		affected = append(affected, d)
	}
	_, written, err := s.reconcile.ReconcileDays(ctx, employeeID, affected)
	if err != nil {
		return nil, err
	}

	var out []model.DailyRecord
	for i := range written {
		if written[i].Day().Equal(day) {
			out = append(out, written[i])
		}
	}
	s.logger.Info("check-in and check-out swapped",
		zap.String("employee_id", employeeID),
		zap.String("working_day", day.Format(dto.DateLayout)),
		zap.Int("punches", len(flip)),
		zap.Int("stale_records", len(stale)),
		zap.String("by", actorID),
	)
	return toDailyRecordResponses(out), nil
}

// swapCandidates device punches a swap of day flips: those classified onto
// day, those a record of day was paired from, and those stamped on day whose
// pairing on another working day is missing a side. A complete pair ending
// on day, such as the previous night's shift, is left alone.
func swapCandidates(punches []model.Punch, day time.Time, referenced map[string]bool, group attendance.ShiftType, catalog *attendance.Catalog, loc *time.Location) []model.Punch {
	var device []attendance.Punch
	byID := make(map[string]model.Punch)
	for i := range punches {
		if punches[i].Source != model.SourceDevice {
			continue
		}
		device = append(device, toAttendancePunch(&punches[i], loc))
		byID[punches[i].PunchID] = punches[i]
	}
	classified := attendance.ClassifySequence(device, group, catalog)

	type slot struct {
		day   string
		shift attendance.ShiftType
	}
	sides := make(map[slot]map[attendance.Direction]bool)
	for _, c := range classified {
		k := slot{c.WorkingDay.Format(dto.DateLayout), c.Shift}
		if sides[k] == nil {
			sides[k] = make(map[attendance.Direction]bool)
		}
		sides[k][c.Direction] = true
	}

	var flip []model.Punch
	for _, c := range classified {
		k := slot{c.WorkingDay.Format(dto.DateLayout), c.Shift}
		complete := sides[k][attendance.CheckIn] && sides[k][attendance.CheckOut]
		stampedOnDay := attendance.DayOf(c.At).Equal(day)
		if c.WorkingDay.Equal(day) || referenced[c.ID] || (stampedOnDay && !complete) {
			flip = append(flip, byID[c.ID])
		}
	}
	return flip
}

// swapTarget the (employee, working day) a swap request names, either
// through one of the day's records or directly
func (s *dailyRecordService) swapTarget(ctx context.Context, req *dto.SwapRequest) (string, time.Time, error) {
	if req.ID != "" {
		rec, err := s.load(ctx, req.ID)
		if err != nil {
			return "", time.Time{}, err
		}
		if rec.Kind != string(attendance.KindWork) {
			return "", time.Time{}, ErrRecordIsAbsence
		}
		return rec.EmployeeID, rec.Day(), nil
	}
	if req.EmployeeID == "" {
		return "", time.Time{}, pkgerrors.NewValidation("employee_id", "id or employee_id and working_day required")
	}
	day, err := dto.ParseDate(req.WorkingDay)
	if err != nil {
		return "", time.Time{}, pkgerrors.NewValidation("working_day", err.Error())
	}
	return req.EmployeeID, day, nil
}

// ── helpers ──

func (s *dailyRecordService) load(ctx context.Context, id string) (*model.DailyRecord, error) {
	var rec *model.DailyRecord
	err := storeCall(ctx, s.settings, s.logger, "get daily record", func(ctx context.Context) error {
		var err error
		rec, err = s.repo.DailyRecord.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

func (s *dailyRecordService) update(ctx context.Context, rec *model.DailyRecord) error {
	err := storeCall(ctx, s.settings, s.logger, "update daily record", func(ctx context.Context) error {
		return s.repo.DailyRecord.Update(ctx, rec)
	})
	return s.mapWriteErr(err)
}

func (s *dailyRecordService) mapWriteErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		return ErrRecordConcurrent
	case errors.Is(err, pkgerrors.ErrNotFound):
		return ErrRecordNotFound
	}
	return err
}

// recompute derives hours and flags again after a manual change
func (s *dailyRecordService) recompute(rec *model.DailyRecord) error {
	prov := provisionalOf(rec)
	def, err := s.settings.definition(prov.Shift, rec.CustomStart, rec.CustomEnd)
	if err != nil {
		return err
	}
	applyResult(rec, s.settings.Calculator.Compute(prov, def))
	return nil
}
