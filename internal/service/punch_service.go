package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── Punch module errors ──

var (
	ErrImportNoSheet   = errors.New("workbook has no sheet")
	ErrImportNoHeader  = errors.New("first row must name the employee_no and timestamp columns")
	ErrImportTooLarge  = errors.New("import is limited to 50000 rows")
	ErrCustomShiftHint = errors.New("custom shifts are entered as shift submissions, not punches")
)

const importMaxRows = 50000

// importTimeLayouts accepted timestamp cell formats, interpreted in the
// attendance time zone unless they carry an offset
var importTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"01/02/2006 15:04",
}

// PunchService punch ingestion
type PunchService interface {
	// Submit stores one punch and reconciles the working day it lands on.
	// Submitting the same punch twice is a no-op reported as Duplicate.
	Submit(ctx context.Context, req *dto.SubmitPunchRequest) (*dto.PunchResponse, error)
	// Import ingests a device export (.xlsx). Rows are inserted in chunks,
	// then every touched working day is reconciled.
	Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error)
}

type punchService struct {
	repo      *repository.Repository
	reconcile ReconcileService
	settings  Settings
	logger    *zap.Logger
}

// NewPunchService creates a PunchService
func NewPunchService(repo *repository.Repository, reconcile ReconcileService, settings Settings, logger *zap.Logger) PunchService {
	return &punchService{repo: repo, reconcile: reconcile, settings: settings, logger: logger}
}

// ════════════════════════════════════════════════════════════
// Submit
// ════════════════════════════════════════════════════════════

func (s *punchService) Submit(ctx context.Context, req *dto.SubmitPunchRequest) (*dto.PunchResponse, error) {
	emp, err := lookupEmployee(ctx, s.repo, s.settings, s.logger, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	group := attendance.ShiftType(emp.DefaultShift)

	var hint attendance.ShiftType
	if req.ShiftHint != "" {
		st, ok := attendance.ParseShiftType(req.ShiftHint)
		if !ok {
			return nil, pkgerrors.NewValidation("shift_hint", "unknown shift type "+req.ShiftHint)
		}
		if st == attendance.Custom {
			return nil, ErrCustomShiftHint
		}
		hint = st
	}

	at := req.Timestamp.In(s.settings.Location)
	dir, err := s.direction(req.Direction, at, group)
	if err != nil {
		return nil, err
	}

	source := model.SourceDevice
	if req.Manual {
		source = model.SourceManual
	}
	punches := []model.Punch{{
		EmployeeID: emp.EmployeeID,
		PunchedAt:  req.Timestamp.UTC(),
		Direction:  string(dir),
		ShiftHint:  string(hint),
		Source:     source,
		Note:       req.Note,
	}}

	var inserted int64
	err = storeCall(ctx, s.settings, s.logger, "insert punch", func(ctx context.Context) error {
		var err error
		inserted, err = s.repo.Punch.InsertIgnore(ctx, punches)
		return err
	})
	if err != nil {
		s.logger.Error("insert punch failed", zap.String("employee_id", emp.EmployeeID), zap.Error(err))
		return nil, err
	}

	cl := attendance.Classify(attendance.Punch{
		EmployeeID: emp.EmployeeID,
		At:         at,
		Direction:  dir,
		ShiftHint:  hint,
	}, group)

	_, records, err := s.reconcile.ReconcileDays(ctx, emp.EmployeeID, touchedDays(cl, at))
	if err != nil {
		return nil, err
	}
	// the pairing may have placed the punch elsewhere than its clock alone
	for i := range records {
		r := &records[i]
		if id := punches[0].PunchID; id != "" && (derefStr(r.CheckInPunchID) == id || derefStr(r.CheckOutPunchID) == id) {
			cl = attendance.Classification{Shift: attendance.ShiftType(derefStr(r.ShiftType)), WorkingDay: r.Day()}
			break
		}
	}

	return &dto.PunchResponse{
		PunchID:    punches[0].PunchID,
		Duplicate:  inserted == 0,
		Direction:  string(dir),
		ShiftType:  string(cl.Shift),
		WorkingDay: cl.WorkingDay.Format(dto.DateLayout),
		Records:    toDailyRecordResponses(records),
	}, nil
}

func (s *punchService) direction(raw string, at time.Time, group attendance.ShiftType) (attendance.Direction, error) {
	if raw == "" {
		return attendance.InferDirection(attendance.ClockOf(at), group, s.settings.Catalog), nil
	}
	dir, ok := attendance.ParseDirection(raw)
	if !ok {
		return "", pkgerrors.NewValidation("direction", "unknown direction "+raw)
	}
	return dir, nil
}

// ════════════════════════════════════════════════════════════
// Import
// ════════════════════════════════════════════════════════════
//
// Expected sheet layout (first sheet, header row first, any column order):
//   employee_no | timestamp                | direction | shift | note
//   E-0042      | 2024-03-01 21:05         | check_in  |       |
// A "date" plus a "time" column may replace "timestamp". Direction and
// shift may be blank.

type importColumns struct {
	employeeNo, timestamp, date, clock, direction, shift, note int
}

// employeeCache employees already resolved during one import
type employeeCache struct {
	byID map[string]*model.Employee
	byNo map[string]*model.Employee
}

func (s *punchService) Import(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.NewValidation("file", "not a readable xlsx workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.NewValidation("file", err.Error())
	}
	if len(rows) == 0 {
		return nil, ErrImportNoHeader
	}
	if len(rows)-1 > importMaxRows {
		return nil, ErrImportTooLarge
	}
	cols, ok := parseImportHeader(rows[0])
	if !ok {
		return nil, ErrImportNoHeader
	}

	batchID := uuid.NewString()
	result := &dto.ImportResult{BatchID: batchID, Rows: len(rows) - 1}

	// 1. rows → punches
	employees := &employeeCache{
		byID: make(map[string]*model.Employee),
		byNo: make(map[string]*model.Employee),
	}
	var punches []model.Punch
	for i, row := range rows[1:] {
		rowNo := i + 2
		p, err := s.importRow(ctx, row, cols, employees)
		if err != nil {
			result.Invalid = append(result.Invalid, dto.RowError{Row: rowNo, Reason: err.Error()})
			continue
		}
		p.ImportBatchID = &batchID
		punches = append(punches, *p)
	}

	// 2. chunked insert; duplicates collapse on the punch unique key
	result.Ingest = batch.Run(ctx, punches, s.settings.Batch, func(ctx context.Context, chunk []model.Punch) (int, error) {
		var n int64
		err := storeCall(ctx, s.settings, s.logger, "import punches", func(ctx context.Context) error {
			var err error
			n, err = s.repo.Punch.InsertIgnore(ctx, chunk)
			return err
		})
		if err != nil {
			return 0, err
		}
		result.Inserted += int(n)
		return len(chunk), nil
	})
	result.Duplicates = result.Ingest.Succeeded - result.Inserted

	// 3. reconcile every touched (employee, working day)
	touched := make(map[string]map[string]time.Time)
	var order []string
	for i := range punches {
		p := toAttendancePunch(&punches[i], s.settings.Location)
		emp := employees.byID[p.EmployeeID]
		cl := attendance.Classify(p, attendance.ShiftType(emp.DefaultShift))
		days, ok := touched[p.EmployeeID]
		if !ok {
			days = make(map[string]time.Time)
			touched[p.EmployeeID] = days
			order = append(order, p.EmployeeID)
		}
		for _, d := range touchedDays(cl, p.At) {
			days[d.Format(dto.DateLayout)] = d
		}
	}

	result.Reconcile = batch.Run(ctx, order, s.settings.Batch, func(ctx context.Context, chunk []string) (int, error) {
		done := 0
		var firstErr error
		for _, id := range chunk {
			days := make([]time.Time, 0, len(touched[id]))
			for _, d := range touched[id] {
				days = append(days, d)
			}
			if _, _, err := s.reconcile.ReconcileDays(ctx, id, days); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			done++
		}
		return done, firstErr
	})

	s.logger.Info("punch import finished",
		zap.String("batch_id", batchID),
		zap.Int("rows", result.Rows),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("invalid", len(result.Invalid)),
		zap.Int("failed_chunks", len(result.Ingest.Failed)+len(result.Reconcile.Failed)),
	)
	return result, nil
}

func parseImportHeader(header []string) (importColumns, bool) {
	cols := importColumns{-1, -1, -1, -1, -1, -1, -1}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "employee_no", "employee no", "employee", "emp_no":
			cols.employeeNo = i
		case "timestamp", "datetime", "punched_at":
			cols.timestamp = i
		case "date":
			cols.date = i
		case "time":
			cols.clock = i
		case "direction", "type", "status":
			cols.direction = i
		case "shift", "shift_type":
			cols.shift = i
		case "note", "notes":
			cols.note = i
		}
	}
	hasTime := cols.timestamp >= 0 || (cols.date >= 0 && cols.clock >= 0)
	return cols, cols.employeeNo >= 0 && hasTime
}

func rowValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (s *punchService) importRow(ctx context.Context, row []string, cols importColumns, cache *employeeCache) (*model.Punch, error) {
	no := rowValue(row, cols.employeeNo)
	if no == "" {
		return nil, fmt.Errorf("employee_no is empty")
	}
	emp, err := s.employeeByNo(ctx, no, cache)
	if err != nil {
		return nil, err
	}

	raw := rowValue(row, cols.timestamp)
	if raw == "" {
		raw = strings.TrimSpace(rowValue(row, cols.date) + " " + rowValue(row, cols.clock))
	}
	at, err := parseImportTime(raw, s.settings.Location)
	if err != nil {
		return nil, err
	}

	var hint attendance.ShiftType
	if v := rowValue(row, cols.shift); v != "" {
		st, ok := attendance.ParseShiftType(v)
		if !ok || st == attendance.Custom {
			return nil, fmt.Errorf("unsupported shift %q", v)
		}
		hint = st
	}

	dir, err := s.direction(rowValue(row, cols.direction), at, attendance.ShiftType(emp.DefaultShift))
	if err != nil {
		return nil, err
	}

	return &model.Punch{
		EmployeeID: emp.EmployeeID,
		PunchedAt:  at.UTC(),
		Direction:  string(dir),
		ShiftHint:  string(hint),
		Source:     model.SourceImport,
		Note:       rowValue(row, cols.note),
	}, nil
}

func (s *punchService) employeeByNo(ctx context.Context, no string, cache *employeeCache) (*model.Employee, error) {
	if e, ok := cache.byNo[no]; ok {
		return e, nil
	}
	var emp *model.Employee
	err := storeCall(ctx, s.settings, s.logger, "get employee by number", func(ctx context.Context) error {
		var err error
		emp, err = s.repo.Employee.GetByNo(ctx, no)
		return err
	})
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, fmt.Errorf("unknown employee %q", no)
	}
	if err != nil {
		return nil, err
	}
	cache.byID[emp.EmployeeID] = emp
	cache.byNo[no] = emp
	return emp, nil
}

func parseImportTime(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range importTimeLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unreadable timestamp %q", raw)
}

// touchedDays working days a new punch can change: the day its clock alone
// suggests, its calendar date and the day before, where an open check-in may
// claim it
func touchedDays(cl attendance.Classification, at time.Time) []time.Time {
	today := attendance.DayOf(at)
	days := []time.Time{today.AddDate(0, 0, -1), today}
	if !cl.WorkingDay.Equal(today) && !cl.WorkingDay.Equal(today.AddDate(0, 0, -1)) {
		days = append(days, cl.WorkingDay)
	}
	return days
}
