package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
)

// RecordIDsRequest ids of daily records
type RecordIDsRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,max=1000,dive,uuid"`
}

// PenaltyRequest penalty minutes on one record, 0 clears it
type PenaltyRequest struct {
	ID      string `json:"id"      binding:"required,uuid"`
	Minutes *int   `json:"minutes" binding:"required,min=0,max=1440"`
}

// EditTimesRequest manual correction of a record. Nil fields stay as they are.
type EditTimesRequest struct {
	ID        string     `json:"id"         binding:"required,uuid"`
	CheckIn   *time.Time `json:"check_in"`
	CheckOut  *time.Time `json:"check_out"`
	ShiftType *string    `json:"shift_type" binding:"omitempty,shift_type"`
	Notes     *string    `json:"notes"      binding:"omitempty,max=500"`
}

// SwapRequest swap check-ins and check-outs of an employee's working day.
// ID names any work record of that day; otherwise employee_id and
// working_day are used.
type SwapRequest struct {
	ID         string `json:"id"          binding:"omitempty,uuid"`
	EmployeeID string `json:"employee_id" binding:"omitempty,uuid"`
	WorkingDay string `json:"working_day"`
}

// DailyRecordResponse reconciled daily record
type DailyRecordResponse struct {
	ID              string           `json:"id"`
	EmployeeID      string           `json:"employee_id"`
	WorkingDay      string           `json:"working_day"`
	Kind            string           `json:"kind"`
	ShiftType       string           `json:"shift_type,omitempty"`
	LeaveType       string           `json:"leave_type,omitempty"`
	Source          string           `json:"source"`
	CheckIn         *time.Time       `json:"check_in,omitempty"`
	CheckOut        *time.Time       `json:"check_out,omitempty"`
	DisplayCheckIn  string           `json:"display_check_in"`
	DisplayCheckOut string           `json:"display_check_out"`
	HoursWorked     decimal.Decimal  `json:"hours_worked"`
	Flags           attendance.Flags `json:"flags"`
	PenaltyMinutes  int              `json:"penalty_minutes"`
	Notes           string           `json:"notes,omitempty"`
	Approved        bool             `json:"approved"`
	ManuallyEdited  bool             `json:"manually_edited"`
	Version         int              `json:"version"`
}

// ApprovalRejection a record that could not be approved
type ApprovalRejection struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// ApprovalResult outcome of approve / unapprove
type ApprovalResult struct {
	Updated  []string            `json:"updated"`
	Rejected []ApprovalRejection `json:"rejected,omitempty"`
}

// RecordFilterRequest date range and employee filter
type RecordFilterRequest struct {
	From        string   `form:"from"        json:"from"         binding:"omitempty,datetime=2006-01-02"`
	To          string   `form:"to"          json:"to"           binding:"omitempty,datetime=2006-01-02"`
	EmployeeIDs []string `form:"employee_id" json:"employee_ids" binding:"omitempty,dive,uuid"`
}

// ToFilter converts to a store filter. Dates were validated by binding.
func (r *RecordFilterRequest) ToFilter() model.RecordFilter {
	var f model.RecordFilter
	if t, err := ParseDate(r.From); err == nil && r.From != "" {
		f.From = &t
	}
	if t, err := ParseDate(r.To); err == nil && r.To != "" {
		f.To = &t
	}
	f.EmployeeIDs = r.EmployeeIDs
	return f
}

// DeleteRecordsRequest bulk delete
type DeleteRecordsRequest struct {
	RecordFilterRequest
	PreserveApproved *bool `json:"preserve_approved"`
}

// MaintenanceResult outcome of a bulk delete or reset
type MaintenanceResult struct {
	Matched          int          `json:"matched"`
	Deleted          int          `json:"deleted"`
	ApprovedKept     int64        `json:"approved_kept"`
	HolidayBackupID  string       `json:"holiday_backup_id,omitempty"`
	HolidaysVerified bool         `json:"holidays_verified"`
	Batch            batch.Result `json:"batch"`
}
