package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
	"github.com/CentZek/newesthr-sub000/pkg/retry"
)

// maxReconcileDays longest range a single reconcile request may cover
const maxReconcileDays = 93

// UpsertOutcome what Upsert did with the record
type UpsertOutcome int

const (
	UpsertCreated UpsertOutcome = iota + 1
	UpsertUpdated
	// UpsertSkipped the stored record is approved or manually edited and the
	// write was not forced
	UpsertSkipped
)

func (o UpsertOutcome) String() string {
	switch o {
	case UpsertCreated:
		return "created"
	case UpsertUpdated:
		return "updated"
	case UpsertSkipped:
		return "skipped"
	}
	return "unknown"
}

// ReconcileService turns stored punches into daily records and persists
// them exactly once per natural key
type ReconcileService interface {
	// ReconcileDays rebuilds the punch-derived records of one employee for
	// the given working days
	ReconcileDays(ctx context.Context, employeeID string, days []time.Time) (*dto.ReconcileResult, []model.DailyRecord, error)
	// ReconcileRange rebuilds a date range for the listed employees, or for
	// every employee with punches in the range. Employees are processed in
	// chunks; one employee failing does not stop the others.
	ReconcileRange(ctx context.Context, req *dto.ReconcileRequest) (*dto.ReconcileResult, error)
	// Upsert writes rec by natural key: update in place when a record exists,
	// insert otherwise. A unique violation from a concurrent insert is retried
	// as an update. Approved and manually edited records are only touched
	// when force is set, and their approval and penalty always survive.
	Upsert(ctx context.Context, rec *model.DailyRecord, force bool) (*model.DailyRecord, UpsertOutcome, error)
}

type reconcileService struct {
	repo     *repository.Repository
	settings Settings
	logger   *zap.Logger
}

// NewReconcileService creates a ReconcileService
func NewReconcileService(repo *repository.Repository, settings Settings, logger *zap.Logger) ReconcileService {
	return &reconcileService{repo: repo, settings: settings, logger: logger}
}

// ════════════════════════════════════════════════════════════
// ReconcileDays
// ════════════════════════════════════════════════════════════

func (s *reconcileService) ReconcileDays(ctx context.Context, employeeID string, days []time.Time) (*dto.ReconcileResult, []model.DailyRecord, error) {
	result := &dto.ReconcileResult{Employees: 1}
	if len(days) == 0 {
		return result, nil, nil
	}

	emp, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, nil, err
	}
	group := attendance.ShiftType(emp.DefaultShift)

	// 1. working-day set and the punch window that can feed it
	wanted := make(map[string]bool, len(days))
	sorted := make([]time.Time, 0, len(days))
	for _, d := range days {
		d = attendance.DayOf(d)
		key := d.Format(dto.DateLayout)
		if !wanted[key] {
			wanted[key] = true
			sorted = append(sorted, d)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	loc := s.settings.Location
	first, last := sorted[0], sorted[len(sorted)-1]
	from := attendance.Clock(0, 0).On(first.AddDate(0, 0, -1), loc)
	to := attendance.Clock(0, 0).On(last.AddDate(0, 0, 2), loc)

	var punches []model.Punch
	err = s.withRetry(ctx, "list punches", func(ctx context.Context) error {
		var err error
		punches, err = s.repo.Punch.ListBetween(ctx, employeeID, from, to)
		return err
	})
	if err != nil {
		s.logger.Error("list punches failed", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, nil, err
	}

	// 2. classify each source in time order, keeping only punches that land
	// on a requested working day
	var devicePunches, manualPunches []attendance.Punch
	for i := range punches {
		p := toAttendancePunch(&punches[i], loc)
		if p.Manual {
			manualPunches = append(manualPunches, p)
		} else {
			devicePunches = append(devicePunches, p)
		}
	}
	keep := func(items []attendance.Classified) []attendance.Classified {
		var out []attendance.Classified
		for _, it := range items {
			if !wanted[it.WorkingDay.Format(dto.DateLayout)] {
				continue
			}
			if it.Shift == attendance.Custom {
				s.logger.Warn("punch with custom shift hint ignored", zap.String("punch_id", it.ID))
				continue
			}
			out = append(out, it)
		}
		return out
	}
	device := keep(attendance.ClassifySequence(devicePunches, group, s.settings.Catalog))
	manual := keep(attendance.ClassifySequence(manualPunches, group, s.settings.Catalog))

	// 3. pair, compute, upsert. A manually edited record that was paired
	// from the same punches owns the pairing even if its slot moved.
	edited, err := s.editedRecords(ctx, employeeID, first, last)
	if err != nil {
		return nil, nil, err
	}
	produced := make(map[string]bool)
	var written []model.DailyRecord
	for _, part := range []struct {
		source string
		items  []attendance.Classified
	}{
		{model.SourceDevice, device},
		{model.SourceManual, manual},
	} {
		for _, prov := range attendance.Pair(part.items, s.settings.Catalog, loc) {
			def, ok := s.settings.Catalog.Get(prov.Shift)
			if !ok {
				continue
			}
			res := s.settings.Calculator.Compute(prov, def)
			rec := workRecord(prov, res, part.source)
			if owner := pairingOwner(edited, rec); owner != nil {
				produced[owner.Key().String()] = true
				countOutcome(result, UpsertSkipped)
				written = append(written, *owner)
				continue
			}
			produced[rec.Key().String()] = true

			stored, outcome, err := s.Upsert(ctx, rec, false)
			if err != nil {
				s.logger.Error("upsert daily record failed", zap.Stringer("key", rec.Key()), zap.Error(err))
				return result, written, err
			}
			countOutcome(result, outcome)
			written = append(written, *stored)
		}
	}

	// 4. device records no longer backed by any punch pairing
	if err := s.pruneStale(ctx, employeeID, first, last, wanted, produced); err != nil {
		return result, written, err
	}

	s.logger.Debug("reconciled days",
		zap.String("employee_id", employeeID),
		zap.Int("days", len(sorted)),
		zap.Int("punches", len(device)+len(manual)),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
	)
	return result, written, nil
}

// editedRecords manually edited work records of the employee in [first, last]
func (s *reconcileService) editedRecords(ctx context.Context, employeeID string, first, last time.Time) ([]model.DailyRecord, error) {
	var existing []model.DailyRecord
	err := s.withRetry(ctx, "list daily records", func(ctx context.Context) error {
		var err error
		existing, err = s.repo.DailyRecord.List(ctx, model.RecordFilter{
			From:        &first,
			To:          &last,
			EmployeeIDs: []string{employeeID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	edited := existing[:0]
	for _, rec := range existing {
		if rec.ManuallyEdited && rec.Kind == string(attendance.KindWork) {
			edited = append(edited, rec)
		}
	}
	return edited, nil
}

// pairingOwner the edited record on rec's day and source that was built from
// one of rec's punches under another slot
func pairingOwner(edited []model.DailyRecord, rec *model.DailyRecord) *model.DailyRecord {
	for i := range edited {
		e := &edited[i]
		if e.Source != rec.Source || e.Slot == rec.Slot || !e.Day().Equal(rec.Day()) {
			continue
		}
		if samePunch(e.CheckInPunchID, rec.CheckInPunchID) || samePunch(e.CheckOutPunchID, rec.CheckOutPunchID) ||
			samePunch(e.CheckInPunchID, rec.CheckOutPunchID) || samePunch(e.CheckOutPunchID, rec.CheckInPunchID) {
			return e
		}
	}
	return nil
}

func samePunch(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

func (s *reconcileService) pruneStale(ctx context.Context, employeeID string, first, last time.Time, wanted, produced map[string]bool) error {
	notApproved := false
	var existing []model.DailyRecord
	err := s.withRetry(ctx, "list daily records", func(ctx context.Context) error {
		var err error
		existing, err = s.repo.DailyRecord.List(ctx, model.RecordFilter{
			From:        &first,
			To:          &last,
			EmployeeIDs: []string{employeeID},
			Approved:    &notApproved,
		})
		return err
	})
	if err != nil {
		return err
	}

	var stale []string
	for i := range existing {
		rec := &existing[i]
		if rec.Source != model.SourceDevice || rec.Kind != string(attendance.KindWork) || rec.ManuallyEdited {
			continue
		}
		if !wanted[rec.Day().Format(dto.DateLayout)] || produced[rec.Key().String()] {
			continue
		}
		stale = append(stale, rec.DailyRecordID)
	}
	if len(stale) == 0 {
		return nil
	}
	return s.withRetry(ctx, "delete stale daily records", func(ctx context.Context) error {
		n, err := s.repo.DailyRecord.DeleteByIDs(ctx, stale, true)
		if err == nil {
			s.logger.Info("removed stale daily records", zap.String("employee_id", employeeID), zap.Int64("count", n))
		}
		return err
	})
}

// ════════════════════════════════════════════════════════════
// ReconcileRange
// ════════════════════════════════════════════════════════════

func (s *reconcileService) ReconcileRange(ctx context.Context, req *dto.ReconcileRequest) (*dto.ReconcileResult, error) {
	from, err := dto.ParseDate(req.From)
	if err != nil {
		return nil, pkgerrors.NewValidation("from", err.Error())
	}
	to, err := dto.ParseDate(req.To)
	if err != nil {
		return nil, pkgerrors.NewValidation("to", err.Error())
	}
	if to.Before(from) {
		return nil, pkgerrors.NewValidation("to", "must not be before from")
	}
	days := dateRange(from, to)
	if len(days) > maxReconcileDays {
		return nil, pkgerrors.NewValidation("to", "range longer than 93 days")
	}

	employees := req.EmployeeIDs
	if len(employees) == 0 {
		loc := s.settings.Location
		err := s.withRetry(ctx, "list punching employees", func(ctx context.Context) error {
			var err error
			employees, err = s.repo.Punch.EmployeesBetween(ctx,
				attendance.Clock(0, 0).On(from, loc),
				attendance.Clock(0, 0).On(to.AddDate(0, 0, 2), loc))
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	total := &dto.ReconcileResult{}
	total.Batch = batch.Run(ctx, employees, s.settings.Batch, func(ctx context.Context, chunk []string) (int, error) {
		done := 0
		var firstErr error
		for _, id := range chunk {
			if ctx.Err() != nil {
				return done, ctx.Err()
			}
			res, _, err := s.ReconcileDays(ctx, id, days)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			total.Created += res.Created
			total.Updated += res.Updated
			total.Skipped += res.Skipped
			done++
		}
		return done, firstErr
	})
	total.Employees = total.Batch.Succeeded

	s.logger.Info("reconcile range finished",
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Int("employees", len(employees)),
		zap.Int("failed_chunks", len(total.Batch.Failed)),
		zap.Bool("cancelled", total.Batch.Cancelled),
	)
	return total, nil
}

// ════════════════════════════════════════════════════════════
// Upsert
// ════════════════════════════════════════════════════════════

func (s *reconcileService) Upsert(ctx context.Context, rec *model.DailyRecord, force bool) (*model.DailyRecord, UpsertOutcome, error) {
	var (
		stored  *model.DailyRecord
		outcome UpsertOutcome
	)
	err := s.withRetry(ctx, "upsert daily record", func(ctx context.Context) error {
		var err error
		stored, outcome, err = s.upsertOnce(ctx, rec, force)
		if errors.Is(err, pkgerrors.ErrConflict) || errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// lost an insert race; the row exists now, so this pass updates it
			s.logger.Debug("natural key raced, retrying as update", zap.Stringer("key", rec.Key()))
			stored, outcome, err = s.upsertOnce(ctx, rec, force)
		}
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return stored, outcome, nil
}

// upsertOnce one attempt in its own transaction. A failed insert aborts the
// transaction, so the update retry must not share it.
func (s *reconcileService) upsertOnce(ctx context.Context, rec *model.DailyRecord, force bool) (*model.DailyRecord, UpsertOutcome, error) {
	var (
		stored  *model.DailyRecord
		outcome UpsertOutcome
	)
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		existing, err := tx.DailyRecord.FindByKey(ctx, rec.Key(), true)
		if errors.Is(err, pkgerrors.ErrNotFound) {
			fresh := *rec
			if err := tx.DailyRecord.Create(ctx, &fresh); err != nil {
				return err
			}
			stored, outcome = &fresh, UpsertCreated
			return nil
		}
		if err != nil {
			return err
		}

		if !force && (existing.Approved || existing.ManuallyEdited) {
			stored, outcome = existing, UpsertSkipped
			return nil
		}
		mergeRecord(existing, rec)
		if err := tx.DailyRecord.Update(ctx, existing); err != nil {
			return err
		}
		stored, outcome = existing, UpsertUpdated
		return nil
	})
	return stored, outcome, err
}

// mergeRecord overwrites the computed columns of dst with src. Approval and
// penalty belong to HR and are kept.
func mergeRecord(dst, src *model.DailyRecord) {
	dst.Kind = src.Kind
	dst.ShiftType = src.ShiftType
	dst.LeaveType = src.LeaveType
	dst.CustomStart = src.CustomStart
	dst.CustomEnd = src.CustomEnd
	dst.CheckIn = src.CheckIn
	dst.CheckOut = src.CheckOut
	dst.CheckInPunchID = src.CheckInPunchID
	dst.CheckOutPunchID = src.CheckOutPunchID
	dst.HoursWorked = src.HoursWorked
	dst.MissingCheckIn = src.MissingCheckIn
	dst.MissingCheckOut = src.MissingCheckOut
	dst.IsLate = src.IsLate
	dst.EarlyLeave = src.EarlyLeave
	dst.ExcessiveOvertime = src.ExcessiveOvertime
	dst.CorrectedRecords = src.CorrectedRecords
	dst.DisplayCheckIn = src.DisplayCheckIn
	dst.DisplayCheckOut = src.DisplayCheckOut
	dst.RecordCount = src.RecordCount
	dst.ManuallyEdited = src.ManuallyEdited
	if src.Notes != "" || dst.Kind != string(attendance.KindWork) {
		dst.Notes = src.Notes
	}
	if src.UpdatedBy != nil {
		dst.UpdatedBy = src.UpdatedBy
	}
}

// ── helpers ──

// withRetry runs fn under the retry policy, each attempt bounded by the
// store timeout
func (s *reconcileService) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return storeCall(ctx, s.settings, s.logger, op, fn)
}

func (s *reconcileService) getEmployee(ctx context.Context, id string) (*model.Employee, error) {
	return lookupEmployee(ctx, s.repo, s.settings, s.logger, id)
}

// lookupEmployee GetByID with retries; a missing employee is a NotFoundError
func lookupEmployee(ctx context.Context, repo *repository.Repository, settings Settings, logger *zap.Logger, id string) (*model.Employee, error) {
	var emp *model.Employee
	err := storeCall(ctx, settings, logger, "get employee", func(ctx context.Context) error {
		var err error
		emp, err = repo.Employee.GetByID(ctx, id)
		return err
	})
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, pkgerrors.NewNotFound("employee", id)
	}
	return emp, err
}

// storeCall retry.Do with a per-attempt store timeout
func storeCall(ctx context.Context, settings Settings, logger *zap.Logger, op string, fn func(ctx context.Context) error) error {
	return retry.Do(ctx, settings.Retry, logger, op, func(ctx context.Context) error {
		ctx, cancel := settings.withStoreTimeout(ctx)
		defer cancel()
		return fn(ctx)
	})
}

func countOutcome(r *dto.ReconcileResult, o UpsertOutcome) {
	switch o {
	case UpsertCreated:
		r.Created++
	case UpsertUpdated:
		r.Updated++
	case UpsertSkipped:
		r.Skipped++
	}
}

func toAttendancePunch(p *model.Punch, loc *time.Location) attendance.Punch {
	dir, _ := attendance.ParseDirection(p.Direction)
	hint, _ := attendance.ParseShiftType(p.ShiftHint)
	return attendance.Punch{
		ID:         p.PunchID,
		EmployeeID: p.EmployeeID,
		At:         p.PunchedAt.In(loc),
		Direction:  dir,
		ShiftHint:  hint,
		Note:       p.Note,
		Manual:     p.Source == model.SourceManual,
		Corrected:  p.Corrected,
	}
}
