package dto

import "time"

// CreateShiftSubmissionRequest a manually entered shift
type CreateShiftSubmissionRequest struct {
	EmployeeID  string    `json:"employee_id"  binding:"required,uuid"`
	Date        string    `json:"date"         binding:"required,datetime=2006-01-02"`
	ShiftType   string    `json:"shift_type"   binding:"required,shift_type"`
	CustomStart string    `json:"custom_start" binding:"required_if=ShiftType custom,omitempty,hhmm"`
	CustomEnd   string    `json:"custom_end"   binding:"required_if=ShiftType custom,omitempty,hhmm"`
	CheckIn     time.Time `json:"check_in"     binding:"required"`
	CheckOut    time.Time `json:"check_out"    binding:"required,gtfield=CheckIn"`
	Note        string    `json:"note"         binding:"max=500"`
}

// RejectShiftSubmissionRequest rejection
type RejectShiftSubmissionRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// ListShiftSubmissionsRequest filter
type ListShiftSubmissionsRequest struct {
	Status     string `form:"status"      binding:"omitempty,oneof=pending confirmed rejected"`
	EmployeeID string `form:"employee_id" binding:"omitempty,uuid"`
	PageRequest
}

// ShiftSubmissionResponse submission
type ShiftSubmissionResponse struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	WorkingDay    string  `json:"working_day"`
	ShiftType     string  `json:"shift_type"`
	CustomStart   *string `json:"custom_start,omitempty"`
	CustomEnd     *string `json:"custom_end,omitempty"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	Note          string  `json:"note,omitempty"`
	Status        string  `json:"status"`
	RejectReason  string  `json:"reject_reason,omitempty"`
	DailyRecordID *string `json:"daily_record_id,omitempty"`
}
