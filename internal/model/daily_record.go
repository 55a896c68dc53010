package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// DailyRecord daily_records, the reconciled unit of attendance.
// Natural key: (employee_id, slot, working_day, source).
type DailyRecord struct {
	DailyRecordID   string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"daily_record_id"`
	EmployeeID      string          `gorm:"type:uuid;not null"                             json:"employee_id"`
	WorkingDay      datatypes.Date  `gorm:"not null"                                       json:"working_day"`
	Kind            string          `gorm:"type:varchar(10);not null;default:'work'"       json:"kind"` // work | leave | off_day
	Slot            string          `gorm:"type:varchar(20);not null"                      json:"slot"`
	Source          string          `gorm:"type:varchar(10);not null;default:'device'"     json:"source"` // device | manual
	ShiftType       *string         `gorm:"type:varchar(20)"                               json:"shift_type,omitempty"`
	LeaveType       *string         `gorm:"type:varchar(20)"                               json:"leave_type,omitempty"`
	CustomStart     *string         `gorm:"type:varchar(5)"                                json:"custom_start,omitempty"`
	CustomEnd       *string         `gorm:"type:varchar(5)"                                json:"custom_end,omitempty"`
	CheckIn         *time.Time      `json:"check_in,omitempty"`
	CheckOut        *time.Time      `json:"check_out,omitempty"`
	CheckInPunchID  *string         `gorm:"type:uuid"                                      json:"check_in_punch_id,omitempty"`
	CheckOutPunchID *string         `gorm:"type:uuid"                                      json:"check_out_punch_id,omitempty"`
	HoursWorked     decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"           json:"hours_worked"`

	MissingCheckIn    bool `gorm:"not null;default:false" json:"missing_check_in"`
	MissingCheckOut   bool `gorm:"not null;default:false" json:"missing_check_out"`
	IsLate            bool `gorm:"not null;default:false" json:"is_late"`
	EarlyLeave        bool `gorm:"not null;default:false" json:"early_leave"`
	ExcessiveOvertime bool `gorm:"not null;default:false" json:"excessive_overtime"`
	CorrectedRecords  bool `gorm:"not null;default:false" json:"corrected_records"`

	PenaltyMinutes  int        `gorm:"not null;default:0"                   json:"penalty_minutes"`
	Notes           string     `gorm:"type:text;not null;default:''"        json:"notes"`
	DisplayCheckIn  string     `gorm:"type:varchar(32);not null;default:''" json:"display_check_in"`
	DisplayCheckOut string     `gorm:"type:varchar(32);not null;default:''" json:"display_check_out"`
	RecordCount     int        `gorm:"not null;default:0"                   json:"record_count"`
	Approved        bool       `gorm:"not null;default:false"               json:"approved"`
	ApprovedBy      *string    `gorm:"type:uuid"                            json:"approved_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ManuallyEdited  bool       `gorm:"not null;default:false"               json:"manually_edited"`
	VersionedModel

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName table name
func (DailyRecord) TableName() string { return "daily_records" }

// Day working day as time.Time (UTC midnight)
func (r *DailyRecord) Day() time.Time { return time.Time(r.WorkingDay) }

// HasIssue any flag that needs attention, or a penalty
func (r *DailyRecord) HasIssue() bool {
	return r.MissingCheckIn || r.MissingCheckOut || r.IsLate || r.EarlyLeave ||
		r.ExcessiveOvertime || r.PenaltyMinutes > 0
}

// RecordFilter selects daily records by date range and employees. Zero
// values mean unbounded.
type RecordFilter struct {
	From        *time.Time
	To          *time.Time
	EmployeeIDs []string
	Approved    *bool
}

// NaturalKey identity of a daily record independent of its surrogate id
type NaturalKey struct {
	EmployeeID string
	Slot       string
	WorkingDay time.Time
	Source     string
}

// Key natural key of r
func (r *DailyRecord) Key() NaturalKey {
	return NaturalKey{
		EmployeeID: r.EmployeeID,
		Slot:       r.Slot,
		WorkingDay: r.Day(),
		Source:     r.Source,
	}
}

// String employee/slot/day/source, used in logs
func (k NaturalKey) String() string {
	return k.EmployeeID + "/" + k.Slot + "/" + k.WorkingDay.Format("2006-01-02") + "/" + k.Source
}
