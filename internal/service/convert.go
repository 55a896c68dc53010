package service

import (
	"time"

	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ── model ↔ dto helpers ──

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timePtr(t time.Time) *time.Time { return &t }

func errInvalidShift(detail string) error {
	return pkgerrors.NewValidation("shift_type", "unsupported shift: "+detail)
}

// dayKindOf recovers the tagged day kind from the stored columns
func dayKindOf(rec *model.DailyRecord) attendance.DayKind {
	switch attendance.Kind(rec.Kind) {
	case attendance.KindLeave:
		lt, _ := attendance.ParseLeaveType(derefStr(rec.LeaveType))
		return attendance.Leave(lt)
	case attendance.KindOffDay:
		return attendance.OffDay()
	}
	st, _ := attendance.ParseShiftType(derefStr(rec.ShiftType))
	return attendance.Work(st)
}

func flagsOf(rec *model.DailyRecord) attendance.Flags {
	return attendance.Flags{
		MissingCheckIn:    rec.MissingCheckIn,
		MissingCheckOut:   rec.MissingCheckOut,
		IsLate:            rec.IsLate,
		EarlyLeave:        rec.EarlyLeave,
		ExcessiveOvertime: rec.ExcessiveOvertime,
		Corrected:         rec.CorrectedRecords,
	}
}

// applyResult copies computed hours, flags and display values onto rec
func applyResult(rec *model.DailyRecord, res attendance.Result) {
	rec.HoursWorked = res.Hours
	rec.MissingCheckIn = res.Flags.MissingCheckIn
	rec.MissingCheckOut = res.Flags.MissingCheckOut
	rec.IsLate = res.Flags.IsLate
	rec.EarlyLeave = res.Flags.EarlyLeave
	rec.ExcessiveOvertime = res.Flags.ExcessiveOvertime
	rec.CorrectedRecords = res.Flags.Corrected
	rec.DisplayCheckIn = res.DisplayCheckIn
	rec.DisplayCheckOut = res.DisplayCheckOut
}

// provisionalOf rebuilds the paired view of a stored record
func provisionalOf(rec *model.DailyRecord) attendance.Provisional {
	return attendance.Provisional{
		EmployeeID:      rec.EmployeeID,
		WorkingDay:      rec.Day(),
		Shift:           attendance.ShiftType(derefStr(rec.ShiftType)),
		CheckIn:         rec.CheckIn,
		CheckOut:        rec.CheckOut,
		CheckInPunchID:  derefStr(rec.CheckInPunchID),
		CheckOutPunchID: derefStr(rec.CheckOutPunchID),
		MissingCheckIn:  rec.CheckIn == nil,
		MissingCheckOut: rec.CheckOut == nil,
		Corrected:       rec.CorrectedRecords,
		Manual:          rec.Source == model.SourceManual,
		RecordCount:     rec.RecordCount,
	}
}

// workRecord a work DailyRecord from a provisional pairing and its result
func workRecord(p attendance.Provisional, res attendance.Result, source string) *model.DailyRecord {
	shift := string(p.Shift)
	rec := &model.DailyRecord{
		EmployeeID:      p.EmployeeID,
		WorkingDay:      datatypes.Date(p.WorkingDay),
		Kind:            string(attendance.KindWork),
		Slot:            attendance.Work(p.Shift).Slot(),
		Source:          source,
		ShiftType:       &shift,
		CheckIn:         p.CheckIn,
		CheckOut:        p.CheckOut,
		CheckInPunchID:  strPtr(p.CheckInPunchID),
		CheckOutPunchID: strPtr(p.CheckOutPunchID),
		RecordCount:     p.RecordCount,
	}
	applyResult(rec, res)
	return rec
}

// absenceRecord a leave or off-day DailyRecord. Notes carry the label.
func absenceRecord(employeeID string, day time.Time, kind attendance.DayKind, res attendance.Result, note string) *model.DailyRecord {
	rec := &model.DailyRecord{
		EmployeeID: employeeID,
		WorkingDay: datatypes.Date(attendance.DayOf(day)),
		Kind:       string(kind.Kind),
		Slot:       kind.Slot(),
		Source:     model.SourceManual,
		Notes:      kind.Label(),
	}
	if kind.Kind == attendance.KindLeave {
		rec.LeaveType = strPtr(string(kind.Leave))
	}
	if note != "" && kind.Kind != attendance.KindOffDay {
		rec.Notes += ": " + note
	}
	applyResult(rec, res)
	return rec
}

func toDailyRecordResponse(rec *model.DailyRecord) dto.DailyRecordResponse {
	return dto.DailyRecordResponse{
		ID:              rec.DailyRecordID,
		EmployeeID:      rec.EmployeeID,
		WorkingDay:      rec.Day().Format(dto.DateLayout),
		Kind:            rec.Kind,
		ShiftType:       derefStr(rec.ShiftType),
		LeaveType:       derefStr(rec.LeaveType),
		Source:          rec.Source,
		CheckIn:         rec.CheckIn,
		CheckOut:        rec.CheckOut,
		DisplayCheckIn:  rec.DisplayCheckIn,
		DisplayCheckOut: rec.DisplayCheckOut,
		HoursWorked:     rec.HoursWorked,
		Flags:           flagsOf(rec),
		PenaltyMinutes:  rec.PenaltyMinutes,
		Notes:           rec.Notes,
		Approved:        rec.Approved,
		ManuallyEdited:  rec.ManuallyEdited,
		Version:         rec.Version,
	}
}

func toDailyRecordResponses(recs []model.DailyRecord) []dto.DailyRecordResponse {
	out := make([]dto.DailyRecordResponse, 0, len(recs))
	for i := range recs {
		out = append(out, toDailyRecordResponse(&recs[i]))
	}
	return out
}

func toEmployeeResponse(e *model.Employee) dto.EmployeeResponse {
	return dto.EmployeeResponse{
		ID:           e.EmployeeID,
		EmployeeNo:   e.EmployeeNo,
		Name:         e.Name,
		Department:   e.Department,
		DefaultShift: e.DefaultShift,
		IsActive:     e.IsActive,
	}
}

// dateRange every calendar day in [from, to]; to before from yields just from
func dateRange(from, to time.Time) []time.Time {
	from, to = attendance.DayOf(from), attendance.DayOf(to)
	if to.Before(from) {
		to = from
	}
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
