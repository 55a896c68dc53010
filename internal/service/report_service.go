package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/calendar"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// TotalRowName name of the grand total row
const TotalRowName = "TOTAL"

var minutesPerHour = decimal.NewFromInt(60)

// ReportService approved-hours aggregation
type ReportService interface {
	// ApprovedHours one summary row per employee plus a grand total, over
	// approved records only. Cancellation is checked between employees.
	ApprovedHours(ctx context.Context, filter model.RecordFilter) (*dto.ApprovedHoursReport, error)
	// EmployeeDetail the approved records behind one employee's row
	EmployeeDetail(ctx context.Context, employeeID string, filter model.RecordFilter) (*dto.EmployeeDetailResponse, error)
}

type reportService struct {
	repo     *repository.Repository
	calendar *calendar.Calendar
	logger   *zap.Logger
}

// NewReportService creates a ReportService
func NewReportService(repo *repository.Repository, cal *calendar.Calendar, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, calendar: cal, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ApprovedHours
// ═══════════════════════════════════════════════════════════
//
// Per employee:
//   - a leave or off-day record overrides the work records of its day
//   - RegularHours sums hoursWorked, leave credit included
//   - DoubleTimeBonus sums work hours on Fridays and holidays
//   - PenaltyHours = penalty minutes / 60
//   - PayableHours = regular + bonus - penalty, never below zero
//   - WorkingDays counts distinct days with a work or leave record

func (s *reportService) ApprovedHours(ctx context.Context, filter model.RecordFilter) (*dto.ApprovedHoursReport, error) {
	approved := true
	filter.Approved = &approved
	recs, err := s.repo.DailyRecord.List(ctx, filter)
	if err != nil {
		s.logger.Error("list approved records failed", zap.Error(err))
		return nil, err
	}

	report := &dto.ApprovedHoursReport{PerEmployee: []dto.EmployeeHours{}}
	if filter.From != nil {
		report.From = filter.From.Format(dto.DateLayout)
	}
	if filter.To != nil {
		report.To = filter.To.Format(dto.DateLayout)
	}
	total := zeroHours(TotalRowName)
	if len(recs) == 0 {
		report.Total = total
		report.TotalHours = decimal.Zero
		return report, nil
	}

	// 1. group by employee, keeping store order
	byEmployee := make(map[string][]model.DailyRecord)
	var order []string
	first, last := recs[0].Day(), recs[0].Day()
	for _, r := range recs {
		if _, ok := byEmployee[r.EmployeeID]; !ok {
			order = append(order, r.EmployeeID)
		}
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
		if d := r.Day(); d.Before(first) {
			first = d
		} else if d.After(last) {
			last = d
		}
	}

	// 2. one calendar lookup for the whole range
	doubleDays, err := s.calendar.DoubleTimeDays(ctx, first, last)
	if err != nil {
		return nil, err
	}

	names, err := s.employeeNames(ctx, order)
	if err != nil {
		return nil, err
	}

	// 3. rows
	for _, id := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := summarize(byEmployee[id], doubleDays)
		row.EmployeeID = id
		if e, ok := names[id]; ok {
			row.EmployeeNo = e.EmployeeNo
			row.Name = e.Name
		}
		report.PerEmployee = append(report.PerEmployee, row)
		addHours(&total, row)
	}
	total.PayableHours = payable(total.RegularHours, total.DoubleTimeBonus, total.PenaltyHours)

	report.Total = total
	report.TotalHours = total.PayableHours
	return report, nil
}

// summarize one employee's approved records
func summarize(recs []model.DailyRecord, doubleDays map[string]time.Time) dto.EmployeeHours {
	row := zeroHours("")

	absent := make(map[string]bool)
	for _, r := range recs {
		if r.Kind != string(attendance.KindWork) {
			absent[r.Day().Format(dto.DateLayout)] = true
		}
	}

	workedDays := make(map[string]bool)
	penaltyMinutes := 0
	for i := range recs {
		r := &recs[i]
		day := r.Day().Format(dto.DateLayout)
		isWork := r.Kind == string(attendance.KindWork)
		if isWork && absent[day] {
			continue
		}

		row.RegularHours = row.RegularHours.Add(r.HoursWorked)
		penaltyMinutes += r.PenaltyMinutes
		if r.HasIssue() {
			row.IssueCount++
		}

		switch attendance.Kind(r.Kind) {
		case attendance.KindOffDay:
			row.OffDays++
		case attendance.KindLeave:
			row.LeaveDays++
			row.LeaveHours = row.LeaveHours.Add(r.HoursWorked)
			workedDays[day] = true
		default:
			workedDays[day] = true
			if _, ok := doubleDays[day]; ok {
				row.DoubleTimeBonus = row.DoubleTimeBonus.Add(r.HoursWorked)
			}
		}
	}

	row.WorkingDays = len(workedDays)
	row.PenaltyHours = decimal.NewFromInt(int64(penaltyMinutes)).Div(minutesPerHour).Round(2)
	row.PayableHours = payable(row.RegularHours, row.DoubleTimeBonus, row.PenaltyHours)
	return row
}

func payable(regular, bonus, penalty decimal.Decimal) decimal.Decimal {
	p := regular.Add(bonus).Sub(penalty)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p.Round(2)
}

func zeroHours(name string) dto.EmployeeHours {
	return dto.EmployeeHours{
		Name:            name,
		RegularHours:    decimal.Zero,
		LeaveHours:      decimal.Zero,
		DoubleTimeBonus: decimal.Zero,
		PenaltyHours:    decimal.Zero,
		PayableHours:    decimal.Zero,
	}
}

func addHours(total *dto.EmployeeHours, row dto.EmployeeHours) {
	total.RegularHours = total.RegularHours.Add(row.RegularHours)
	total.LeaveHours = total.LeaveHours.Add(row.LeaveHours)
	total.DoubleTimeBonus = total.DoubleTimeBonus.Add(row.DoubleTimeBonus)
	total.PenaltyHours = total.PenaltyHours.Add(row.PenaltyHours)
	total.WorkingDays += row.WorkingDays
	total.LeaveDays += row.LeaveDays
	total.OffDays += row.OffDays
	total.IssueCount += row.IssueCount
}

func (s *reportService) employeeNames(ctx context.Context, ids []string) (map[string]model.Employee, error) {
	emps, err := s.repo.Employee.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.Employee, len(emps))
	for _, e := range emps {
		out[e.EmployeeID] = e
	}
	return out, nil
}

// ═══════════════════════════════════════════════════════════
// EmployeeDetail
// ═══════════════════════════════════════════════════════════

func (s *reportService) EmployeeDetail(ctx context.Context, employeeID string, filter model.RecordFilter) (*dto.EmployeeDetailResponse, error) {
	emp, err := s.repo.Employee.GetByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, pkgerrors.NewNotFound("employee", employeeID)
		}
		return nil, err
	}
	approved := true
	filter.Approved = &approved
	filter.EmployeeIDs = []string{employeeID}
	recs, err := s.repo.DailyRecord.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &dto.EmployeeDetailResponse{
		Employee: toEmployeeResponse(emp),
		Records:  toDailyRecordResponses(recs),
	}, nil
}
