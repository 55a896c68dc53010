package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

func setupTestDailyRecordService() (DailyRecordService, *mockRepos) {
	m := newMockRepos()
	settings := testSettings()
	reconcile := NewReconcileService(m.repository(), settings, zap.NewNop())
	return NewDailyRecordService(m.repository(), reconcile, settings, zap.NewNop()), m
}

// workRecordFixture a device morning record on day with the given times
func workRecordFixture(emp, day string, in, out *time.Time) model.DailyRecord {
	shift := "morning"
	rec := model.DailyRecord{
		EmployeeID:      emp,
		WorkingDay:      datatypes.Date(date(day)),
		Kind:            "work",
		Slot:            shift,
		Source:          model.SourceDevice,
		ShiftType:       &shift,
		CheckIn:         in,
		CheckOut:        out,
		MissingCheckIn:  in == nil,
		MissingCheckOut: out == nil,
		HoursWorked:     decimal.Zero,
	}
	if in != nil && out != nil {
		rec.HoursWorked = decimal.NewFromFloat(out.Sub(*in).Hours()).Round(2)
	}
	return rec
}

func TestApproval_RoundTripKeepsHours(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(workRecordFixture(emp, "2024-03-04",
		timePtr(clock("2024-03-04 05:00")), timePtr(clock("2024-03-04 14:00"))))
	ctx := context.Background()

	res, err := svc.Approve(ctx, []string{id}, "user-hr")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if len(res.Updated) != 1 || len(res.Rejected) != 0 {
		t.Fatalf("unexpected approval result %+v", res)
	}
	stored := m.records.records[id]
	if !stored.Approved || derefStr(stored.ApprovedBy) != "user-hr" || stored.ApprovedAt == nil {
		t.Errorf("approval not recorded: %+v", stored)
	}

	if _, err := svc.Unapprove(ctx, []string{id}, "user-hr"); err != nil {
		t.Fatalf("Unapprove failed: %v", err)
	}
	stored = m.records.records[id]
	if stored.Approved || stored.ApprovedBy != nil {
		t.Error("record still approved")
	}
	if !stored.HoursWorked.Equal(decimal.NewFromInt(9)) {
		t.Errorf("hours changed to %s", stored.HoursWorked)
	}
	if _, ok := m.records.records[id]; !ok {
		t.Error("unapprove must not delete the record")
	}
}

func TestApproval_PartialRejection(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	good := m.seedRecord(workRecordFixture(emp, "2024-03-04",
		timePtr(clock("2024-03-04 05:00")), timePtr(clock("2024-03-04 14:00"))))
	noOut := m.seedRecord(workRecordFixture(emp, "2024-03-05", timePtr(clock("2024-03-05 05:00")), nil))
	neither := m.seedRecord(workRecordFixture(emp, "2024-03-06", nil, nil))

	res, err := svc.Approve(context.Background(), []string{good, noOut, neither, "gone"}, "user-hr")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if len(res.Updated) != 1 || res.Updated[0] != good {
		t.Errorf("expected only %s approved, got %v", good, res.Updated)
	}
	reasons := make(map[string]string)
	for _, r := range res.Rejected {
		reasons[r.ID] = r.Reason
	}
	if reasons[noOut] != "check-out is missing" {
		t.Errorf("reason for %s = %q", noOut, reasons[noOut])
	}
	if reasons[neither] != "check-in and check-out are both missing" {
		t.Errorf("reason for %s = %q", neither, reasons[neither])
	}
	if reasons["gone"] != ErrRecordNotFound.Error() {
		t.Errorf("reason for missing record = %q", reasons["gone"])
	}
	if m.records.records[noOut].Approved {
		t.Error("record without check-out was approved")
	}
}

func TestApproval_AlreadyApprovedCounts(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	rec := workRecordFixture(emp, "2024-03-04", timePtr(clock("2024-03-04 05:00")), timePtr(clock("2024-03-04 14:00")))
	rec.Approved = true
	id := m.seedRecord(rec)

	res, err := svc.Approve(context.Background(), []string{id}, "user-hr")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if len(res.Updated) != 1 {
		t.Errorf("already approved record should count as updated, got %+v", res)
	}
	if m.records.updates != 0 {
		t.Errorf("no write expected, got %d", m.records.updates)
	}
}

func TestApproval_AbsenceWithoutTimes(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(model.DailyRecord{
		EmployeeID: emp, WorkingDay: datatypes.Date(date("2024-03-04")),
		Kind: "off_day", Slot: "absence", Source: model.SourceManual, HoursWorked: decimal.Zero,
	})

	res, err := svc.Approve(context.Background(), []string{id}, "user-hr")
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if len(res.Updated) != 1 {
		t.Errorf("off-day should be approvable, got %+v", res)
	}
}

func TestApplyPenalty(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(workRecordFixture(emp, "2024-03-04",
		timePtr(clock("2024-03-04 05:00")), timePtr(clock("2024-03-04 14:00"))))

	minutes := 30
	resp, err := svc.ApplyPenalty(context.Background(), &dto.PenaltyRequest{ID: id, Minutes: &minutes}, "user-hr")
	if err != nil {
		t.Fatalf("ApplyPenalty failed: %v", err)
	}
	if resp.PenaltyMinutes != 30 || !resp.HoursWorked.Equal(decimal.NewFromInt(9)) {
		t.Errorf("penalty must not change hours: %+v", resp)
	}

	negative := -5
	if _, err := svc.ApplyPenalty(context.Background(), &dto.PenaltyRequest{ID: id, Minutes: &negative}, "user-hr"); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestEditTimes(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(workRecordFixture(emp, "2024-03-04", timePtr(clock("2024-03-04 05:00")), nil))

	out := clock("2024-03-04 13:30")
	resp, err := svc.EditTimes(context.Background(), &dto.EditTimesRequest{ID: id, CheckOut: &out}, "user-hr")
	if err != nil {
		t.Fatalf("EditTimes failed: %v", err)
	}
	if !resp.HoursWorked.Equal(decimal.RequireFromString("8.5")) {
		t.Errorf("expected 8.5 hours, got %s", resp.HoursWorked)
	}
	if resp.Flags.MissingCheckOut || !resp.Flags.EarlyLeave || !resp.ManuallyEdited {
		t.Errorf("unexpected flags %+v edited=%v", resp.Flags, resp.ManuallyEdited)
	}

	before := clock("2024-03-04 04:00")
	if _, err := svc.EditTimes(context.Background(), &dto.EditTimesRequest{ID: id, CheckOut: &before}, "user-hr"); !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("check-out before check-in should be rejected, got %v", err)
	}
}

func TestEditTimes_ChangesShiftSlot(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(workRecordFixture(emp, "2024-03-04",
		timePtr(clock("2024-03-04 13:00")), timePtr(clock("2024-03-04 22:00"))))

	evening := "evening"
	resp, err := svc.EditTimes(context.Background(), &dto.EditTimesRequest{ID: id, ShiftType: &evening}, "user-hr")
	if err != nil {
		t.Fatalf("EditTimes failed: %v", err)
	}
	if resp.ShiftType != "evening" || m.records.records[id].Slot != "evening" {
		t.Errorf("shift not moved: %s / %s", resp.ShiftType, m.records.records[id].Slot)
	}
	if resp.Flags.IsLate {
		t.Error("13:00 is on time for the evening shift")
	}
}

func TestEditTimes_AbsenceRejected(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	id := m.seedRecord(model.DailyRecord{
		EmployeeID: emp, WorkingDay: datatypes.Date(date("2024-03-04")),
		Kind: "off_day", Slot: "absence", Source: model.SourceManual,
	})
	out := clock("2024-03-04 13:30")
	if _, err := svc.EditTimes(context.Background(), &dto.EditTimesRequest{ID: id, CheckOut: &out}, "user-hr"); !errors.Is(err, ErrRecordIsAbsence) {
		t.Errorf("expected ErrRecordIsAbsence, got %v", err)
	}
}

func TestSwap_JoinsHalvesIntoOnePair(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	reconcile := NewReconcileService(m.repository(), testSettings(), zap.NewNop())
	emp := m.seedEmployee("E1", "")
	early := m.seedPunch(emp, clock("2024-03-04 05:00"), "check_out", model.SourceDevice)
	late := m.seedPunch(emp, clock("2024-03-04 14:00"), "check_in", model.SourceDevice)

	_, halves, err := reconcile.ReconcileDays(context.Background(), emp, []time.Time{date("2024-03-03"), date("2024-03-04")})
	if err != nil {
		t.Fatalf("ReconcileDays failed: %v", err)
	}
	if len(halves) != 2 {
		t.Fatalf("expected two half records before the swap, got %d", len(halves))
	}

	resp, err := svc.Swap(context.Background(), &dto.SwapRequest{EmployeeID: emp, WorkingDay: "2024-03-04"}, "user-hr")
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected one record for the day, got %d", len(resp))
	}
	got := resp[0]
	if got.ShiftType != "morning" || got.Flags.MissingCheckIn || got.Flags.MissingCheckOut {
		t.Errorf("expected a full morning pair, got shift=%s flags=%+v", got.ShiftType, got.Flags)
	}
	if !got.HoursWorked.Equal(decimal.NewFromInt(9)) {
		t.Errorf("expected 9 hours after swap, got %s", got.HoursWorked)
	}
	stored := m.records.records[got.ID]
	if stored == nil || derefStr(stored.CheckInPunchID) != early || derefStr(stored.CheckOutPunchID) != late {
		t.Errorf("pair not built from the swapped punches: %+v", stored)
	}
	if !got.Flags.Corrected {
		t.Error("swapped pair should be marked corrected")
	}
	if n := len(m.records.records); n != 1 {
		t.Errorf("stale half records left behind: %d records stored", n)
	}

	for _, p := range m.punches.punches {
		want := "check_in"
		if p.PunchID == late {
			want = "check_out"
		}
		if p.Direction != want {
			t.Errorf("punch %s direction = %s, want %s", p.PunchID, p.Direction, want)
		}
	}
}

func TestSwap_ByRecordID(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	reconcile := NewReconcileService(m.repository(), testSettings(), zap.NewNop())
	emp := m.seedEmployee("E1", "")
	m.seedPunch(emp, clock("2024-03-04 13:00"), "check_out", model.SourceDevice)
	m.seedPunch(emp, clock("2024-03-04 22:00"), "check_in", model.SourceDevice)

	_, halves, err := reconcile.ReconcileDays(context.Background(), emp, []time.Time{date("2024-03-04")})
	if err != nil || len(halves) == 0 {
		t.Fatalf("ReconcileDays failed: %v (%d records)", err, len(halves))
	}

	resp, err := svc.Swap(context.Background(), &dto.SwapRequest{ID: halves[0].DailyRecordID}, "user-hr")
	if err != nil {
		t.Fatalf("Swap failed: %v", err)
	}
	if len(resp) != 1 || resp[0].ShiftType != "evening" {
		t.Fatalf("expected one evening record, got %+v", resp)
	}
	if !resp[0].HoursWorked.Equal(decimal.NewFromInt(9)) {
		t.Errorf("expected 9 hours, got %s", resp[0].HoursWorked)
	}
}

func TestSwap_ApprovedRecordBlocks(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	in := m.seedPunch(emp, clock("2024-03-04 14:00"), "check_in", model.SourceDevice)
	rec := workRecordFixture(emp, "2024-03-04", timePtr(clock("2024-03-04 14:00")), nil)
	rec.CheckInPunchID = &in
	rec.Approved = true
	m.seedRecord(rec)

	_, err := svc.Swap(context.Background(), &dto.SwapRequest{EmployeeID: emp, WorkingDay: "2024-03-04"}, "user-hr")
	if !errors.Is(err, ErrRecordApproved) {
		t.Errorf("expected ErrRecordApproved, got %v", err)
	}
	if m.punches.punches[0].Direction != "check_in" {
		t.Error("punch flipped under an approved record")
	}
}

func TestSwap_NoPunches(t *testing.T) {
	svc, m := setupTestDailyRecordService()
	emp := m.seedEmployee("E1", "")
	_, err := svc.Swap(context.Background(), &dto.SwapRequest{EmployeeID: emp, WorkingDay: "2024-03-04"}, "user-hr")
	if !errors.Is(err, pkgerrors.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSwap_LeavesPreviousNightShiftAlone(t *testing.T) {
	for _, approved := range []bool{false, true} {
		svc, m := setupTestDailyRecordService()
		reconcile := NewReconcileService(m.repository(), testSettings(), zap.NewNop())
		emp := m.seedEmployee("E1", "")
		nightIn := m.seedPunch(emp, clock("2024-03-03 21:00"), "check_in", model.SourceDevice)
		nightOut := m.seedPunch(emp, clock("2024-03-04 06:00"), "check_out", model.SourceDevice)
		m.seedPunch(emp, clock("2024-03-04 13:00"), "check_out", model.SourceDevice)
		m.seedPunch(emp, clock("2024-03-04 22:00"), "check_in", model.SourceDevice)

		if _, _, err := reconcile.ReconcileDays(context.Background(), emp, []time.Time{date("2024-03-03"), date("2024-03-04")}); err != nil {
			t.Fatalf("ReconcileDays failed: %v", err)
		}
		nights := m.records.byDay(emp, "2024-03-03")
		if len(nights) != 1 || nights[0].MissingCheckIn || nights[0].MissingCheckOut {
			t.Fatalf("expected one full night record on 03-03, got %+v", nights)
		}
		nightID := nights[0].DailyRecordID
		if approved {
			m.records.records[nightID].Approved = true
		}

		resp, err := svc.Swap(context.Background(), &dto.SwapRequest{EmployeeID: emp, WorkingDay: "2024-03-04"}, "user-hr")
		if err != nil {
			t.Fatalf("approved=%v: Swap failed: %v", approved, err)
		}
		if len(resp) != 1 || resp[0].ShiftType != "evening" || !resp[0].HoursWorked.Equal(decimal.NewFromInt(9)) {
			t.Fatalf("approved=%v: expected one 9h evening record, got %+v", approved, resp)
		}

		night := m.records.records[nightID]
		if night == nil || derefStr(night.CheckInPunchID) != nightIn || derefStr(night.CheckOutPunchID) != nightOut {
			t.Errorf("approved=%v: night record on 03-03 was changed: %+v", approved, night)
		}
		if night != nil && night.Approved != approved {
			t.Errorf("approved=%v: night approval changed", approved)
		}
		for _, p := range m.punches.punches {
			if p.PunchID == nightOut && p.Direction != "check_out" {
				t.Errorf("approved=%v: previous night's check-out was flipped", approved)
			}
		}
		if n := len(m.records.byDay(emp, "2024-03-04")); n != 1 {
			t.Errorf("approved=%v: expected one record on 03-04, got %d", approved, n)
		}
	}
}
