package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/model"
)

func setupTestReportService() (ReportService, *mockRepos) {
	m := newMockRepos()
	cal := calendar.New(m.holidays, calendar.WithLogger(zap.NewNop()))
	return NewReportService(m.repository(), cal, zap.NewNop()), m
}

// approvedWork an approved work record worth hours on day
func approvedWork(emp, day string, hours int64) model.DailyRecord {
	in, out := clock(day+" 05:00"), clock(day+" 14:00")
	rec := workRecordFixture(emp, day, &in, &out)
	rec.HoursWorked = decimal.NewFromInt(hours)
	rec.Approved = true
	return rec
}

func approvedAbsence(emp, day, kind string, hours int64) model.DailyRecord {
	return model.DailyRecord{
		EmployeeID:  emp,
		WorkingDay:  datatypes.Date(date(day)),
		Kind:        kind,
		Slot:        "absence",
		Source:      model.SourceManual,
		HoursWorked: decimal.NewFromInt(hours),
		Approved:    true,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestApprovedHours_FridayBonus(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	m.seedRecord(approvedWork(emp, "2024-03-08", 9)) // Friday

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	if len(report.PerEmployee) != 1 {
		t.Fatalf("expected one row, got %d", len(report.PerEmployee))
	}
	row := report.PerEmployee[0]
	if !row.RegularHours.Equal(dec("9")) || !row.DoubleTimeBonus.Equal(dec("9")) || !row.PayableHours.Equal(dec("18")) {
		t.Errorf("regular=%s bonus=%s payable=%s, want 9/9/18", row.RegularHours, row.DoubleTimeBonus, row.PayableHours)
	}
	if row.EmployeeNo != "E1" {
		t.Errorf("employee number missing: %+v", row)
	}
}

func TestApprovedHours_HolidayBonus(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	m.seedHoliday("2024-03-04", "Founders Day")
	m.seedRecord(approvedWork(emp, "2024-03-04", 8))
	m.seedRecord(approvedWork(emp, "2024-03-05", 8))

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	row := report.PerEmployee[0]
	if !row.DoubleTimeBonus.Equal(dec("8")) || !row.PayableHours.Equal(dec("24")) {
		t.Errorf("bonus=%s payable=%s, want 8/24", row.DoubleTimeBonus, row.PayableHours)
	}
	if row.WorkingDays != 2 {
		t.Errorf("working days = %d, want 2", row.WorkingDays)
	}
}

func TestApprovedHours_AbsenceOverridesWork(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	m.seedRecord(approvedWork(emp, "2024-03-04", 8))
	m.seedRecord(approvedAbsence(emp, "2024-03-04", "leave", 9))
	m.seedRecord(approvedAbsence(emp, "2024-03-05", "off_day", 0))

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	row := report.PerEmployee[0]
	if !row.RegularHours.Equal(dec("9")) || !row.LeaveHours.Equal(dec("9")) {
		t.Errorf("regular=%s leave=%s, want 9/9", row.RegularHours, row.LeaveHours)
	}
	if row.LeaveDays != 1 || row.OffDays != 1 || row.WorkingDays != 1 {
		t.Errorf("leave=%d off=%d working=%d, want 1/1/1", row.LeaveDays, row.OffDays, row.WorkingDays)
	}
}

func TestApprovedHours_PenaltyAndUnapproved(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	rec := approvedWork(emp, "2024-03-04", 9)
	rec.PenaltyMinutes = 30
	m.seedRecord(rec)
	pending := approvedWork(emp, "2024-03-05", 9)
	pending.Approved = false
	m.seedRecord(pending)

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	row := report.PerEmployee[0]
	if !row.PenaltyHours.Equal(dec("0.5")) || !row.PayableHours.Equal(dec("8.5")) {
		t.Errorf("penalty=%s payable=%s, want 0.5/8.5", row.PenaltyHours, row.PayableHours)
	}
	if row.IssueCount != 1 {
		t.Errorf("a penalty counts as an issue, got %d", row.IssueCount)
	}
}

func TestApprovedHours_PayableNeverNegative(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	rec := approvedWork(emp, "2024-03-04", 1)
	rec.PenaltyMinutes = 600
	m.seedRecord(rec)

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	if !report.PerEmployee[0].PayableHours.IsZero() {
		t.Errorf("payable = %s, want 0", report.PerEmployee[0].PayableHours)
	}
}

func TestApprovedHours_TotalRow(t *testing.T) {
	svc, m := setupTestReportService()
	a := m.seedEmployee("E1", "")
	b := m.seedEmployee("E2", "")
	m.seedRecord(approvedWork(a, "2024-03-04", 9))
	m.seedRecord(approvedWork(b, "2024-03-04", 7))
	m.seedRecord(approvedWork(b, "2024-03-08", 8))

	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	if len(report.PerEmployee) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.PerEmployee))
	}
	if report.Total.Name != TotalRowName {
		t.Errorf("total row name = %q", report.Total.Name)
	}
	// 9 + (7 + 8 + 8 bonus)
	if !report.TotalHours.Equal(dec("32")) || !report.Total.PayableHours.Equal(report.TotalHours) {
		t.Errorf("total = %s / %s, want 32", report.TotalHours, report.Total.PayableHours)
	}
	if report.Total.WorkingDays != 3 {
		t.Errorf("total working days = %d, want 3", report.Total.WorkingDays)
	}
}

func TestApprovedHours_Empty(t *testing.T) {
	svc, _ := setupTestReportService()
	report, err := svc.ApprovedHours(context.Background(), model.RecordFilter{})
	if err != nil {
		t.Fatalf("ApprovedHours failed: %v", err)
	}
	if len(report.PerEmployee) != 0 || !report.TotalHours.IsZero() {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestApprovedHours_Cancelled(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	m.seedRecord(approvedWork(emp, "2024-03-04", 9))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.ApprovedHours(ctx, model.RecordFilter{}); err == nil {
		t.Error("expected an error from a cancelled context")
	}
}

func TestEmployeeDetail(t *testing.T) {
	svc, m := setupTestReportService()
	emp := m.seedEmployee("E1", "")
	other := m.seedEmployee("E2", "")
	m.seedRecord(approvedWork(emp, "2024-03-04", 9))
	m.seedRecord(approvedWork(other, "2024-03-04", 9))

	detail, err := svc.EmployeeDetail(context.Background(), emp, model.RecordFilter{})
	if err != nil {
		t.Fatalf("EmployeeDetail failed: %v", err)
	}
	if detail.Employee.ID != emp || len(detail.Records) != 1 {
		t.Errorf("unexpected detail %+v", detail)
	}
}
