package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
)

// ── Export module errors ──

var (
	ErrExportNoRecords    = errors.New("no approved records in the selected range")
	ErrExportGenerateFail = errors.New("failed to generate the Excel file")
)

// ExportService spreadsheet exports
//
//   - the approved-hours report as .xlsx, returned as a buffer; the handler
//     sets the download headers
//   - sheet "Summary": one row per employee plus the total row
//   - sheet "Records": every approved record behind the summary
type ExportService interface {
	ApprovedHours(ctx context.Context, filter model.RecordFilter) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	report ReportService
	logger *zap.Logger
}

// NewExportService creates an ExportService
func NewExportService(repo *repository.Repository, report ReportService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, report: report, logger: logger}
}

var summaryHeader = []string{
	"Employee No", "Name", "Working Days", "Leave Days", "Off Days", "Issues",
	"Regular Hours", "Leave Hours", "Double-Time Bonus", "Penalty Hours", "Payable Hours",
}

var recordHeader = []string{
	"Employee ID", "Working Day", "Kind", "Shift", "Source", "Check-in", "Check-out",
	"Hours", "Penalty (min)", "Late", "Early Leave", "Overtime", "Notes",
}

func (s *exportService) ApprovedHours(ctx context.Context, filter model.RecordFilter) (*bytes.Buffer, string, error) {
	// 1. aggregate
	report, err := s.report.ApprovedHours(ctx, filter)
	if err != nil {
		return nil, "", err
	}
	if len(report.PerEmployee) == 0 {
		return nil, "", ErrExportNoRecords
	}
	approved := true
	filter.Approved = &approved
	recs, err := s.repo.DailyRecord.List(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	// 2. workbook
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	totalStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	summary := "Summary"
	idx, _ := f.NewSheet(summary)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	title := "Approved hours"
	if report.From != "" || report.To != "" {
		title = fmt.Sprintf("Approved hours %s to %s", orDash(report.From), orDash(report.To))
	}
	f.SetCellValue(summary, "A1", title)
	f.MergeCell(summary, "A1", cellName(len(summaryHeader), 1))
	f.SetCellStyle(summary, "A1", "A1", headerStyle)
	writeHeader(f, summary, 2, summaryHeader, headerStyle)
	f.SetColWidth(summary, "A", "B", 18)
	f.SetColWidth(summary, "C", colName(len(summaryHeader)-1), 14)

	row := 3
	for _, e := range report.PerEmployee {
		writeHoursRow(f, summary, row, e)
		row++
	}
	writeHoursRow(f, summary, row, report.Total)
	f.SetCellStyle(summary, cellName(1, row), cellName(len(summaryHeader), row), totalStyle)

	detail := "Records"
	f.NewSheet(detail)
	writeHeader(f, detail, 1, recordHeader, headerStyle)
	f.SetColWidth(detail, "A", "A", 38)
	f.SetColWidth(detail, "B", colName(len(recordHeader)-1), 14)
	for i := range recs {
		writeRecordRow(f, detail, i+2, &recs[i])
	}

	// 3. buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := "approved_hours.xlsx"
	if report.From != "" && report.To != "" {
		filename = fmt.Sprintf("approved_hours_%s_%s.xlsx", report.From, report.To)
	}
	return buf, filename, nil
}

func writeHeader(f *excelize.File, sheet string, row int, header []string, style int) {
	for i, h := range header {
		f.SetCellValue(sheet, cellName(i+1, row), h)
	}
	f.SetCellStyle(sheet, cellName(1, row), cellName(len(header), row), style)
}

func writeHoursRow(f *excelize.File, sheet string, row int, e dto.EmployeeHours) {
	values := []interface{}{
		e.EmployeeNo, e.Name, e.WorkingDays, e.LeaveDays, e.OffDays, e.IssueCount,
		num(e.RegularHours), num(e.LeaveHours), num(e.DoubleTimeBonus), num(e.PenaltyHours), num(e.PayableHours),
	}
	for i, v := range values {
		f.SetCellValue(sheet, cellName(i+1, row), v)
	}
}

func writeRecordRow(f *excelize.File, sheet string, row int, r *model.DailyRecord) {
	values := []interface{}{
		r.EmployeeID, r.Day().Format(dto.DateLayout), r.Kind, derefStr(r.ShiftType), r.Source,
		r.DisplayCheckIn, r.DisplayCheckOut, num(r.HoursWorked), r.PenaltyMinutes,
		yesNo(r.IsLate), yesNo(r.EarlyLeave), yesNo(r.ExcessiveOvertime), r.Notes,
	}
	for i, v := range values {
		f.SetCellValue(sheet, cellName(i+1, row), v)
	}
}

// ── helpers ──

func num(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
