package dto

import "github.com/shopspring/decimal"

// EmployeeHours one summary row of the approved-hours report
type EmployeeHours struct {
	EmployeeID      string          `json:"employee_id,omitempty"`
	EmployeeNo      string          `json:"employee_no,omitempty"`
	Name            string          `json:"name"`
	RegularHours    decimal.Decimal `json:"regular_hours"` // includes leave credit
	LeaveHours      decimal.Decimal `json:"leave_hours"`
	DoubleTimeBonus decimal.Decimal `json:"double_time_bonus"`
	PenaltyHours    decimal.Decimal `json:"penalty_hours"`
	PayableHours    decimal.Decimal `json:"payable_hours"`
	WorkingDays     int             `json:"working_days"` // off-days excluded
	LeaveDays       int             `json:"leave_days"`
	OffDays         int             `json:"off_days"`
	IssueCount      int             `json:"issue_count"`
}

// ApprovedHoursReport per-employee rows plus the grand total
type ApprovedHoursReport struct {
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	PerEmployee []EmployeeHours `json:"per_employee"`
	Total       EmployeeHours   `json:"total"`
	TotalHours  decimal.Decimal `json:"total_hours"`
}

// EmployeeDetailResponse approved records of one employee
type EmployeeDetailResponse struct {
	Employee EmployeeResponse      `json:"employee"`
	Records  []DailyRecordResponse `json:"records"`
}
