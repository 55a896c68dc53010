package model

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses
const (
	SubmissionPending   = "pending"
	SubmissionConfirmed = "confirmed"
	SubmissionRejected  = "rejected"
)

// ShiftSubmission shift_submissions, a manually entered shift awaiting HR review
type ShiftSubmission struct {
	SubmissionID  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	EmployeeID    string         `gorm:"type:uuid;not null"                             json:"employee_id"`
	WorkingDay    datatypes.Date `gorm:"not null"                                       json:"working_day"`
	ShiftType     string         `gorm:"type:varchar(20);not null"                      json:"shift_type"`
	CustomStart   *string        `gorm:"type:varchar(5)"                                json:"custom_start,omitempty"`
	CustomEnd     *string        `gorm:"type:varchar(5)"                                json:"custom_end,omitempty"`
	CheckIn       time.Time      `gorm:"not null"                                       json:"check_in"`
	CheckOut      time.Time      `gorm:"not null"                                       json:"check_out"`
	Note          string         `gorm:"type:text;not null;default:''"                  json:"note"`
	Status        string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | confirmed | rejected
	RejectReason  string         `gorm:"type:text;not null;default:''"                  json:"reject_reason,omitempty"`
	ReviewedBy    *string        `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	DailyRecordID *string        `gorm:"type:uuid"                                      json:"daily_record_id,omitempty"`
	BaseModel

	Employee *Employee `gorm:"foreignKey:EmployeeID;references:EmployeeID" json:"employee,omitempty"`
}

// TableName table name
func (ShiftSubmission) TableName() string { return "shift_submissions" }
