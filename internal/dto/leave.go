package dto

// LeaveRequest leave over an inclusive date range; To defaults to From
type LeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	From       string `json:"from"        binding:"required,datetime=2006-01-02"`
	To         string `json:"to"          binding:"omitempty,datetime=2006-01-02"`
	LeaveType  string `json:"leave_type"  binding:"required,leave_type"`
	Note       string `json:"note"        binding:"max=500"`
}

// OffDayRequest scheduled days off over an inclusive date range
type OffDayRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	From       string `json:"from"        binding:"required,datetime=2006-01-02"`
	To         string `json:"to"          binding:"omitempty,datetime=2006-01-02"`
	Note       string `json:"note"        binding:"max=500"`
}

// AbsenceResult records written for a leave or off-day range
type AbsenceResult struct {
	Days    int                   `json:"days"`
	Records []DailyRecordResponse `json:"records"`
}
