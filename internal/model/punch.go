package model

import "time"

// Punch sources
const (
	SourceDevice = "device"
	SourceManual = "manual"
	SourceImport = "import"
)

// Punch punches, one raw clock event
type Punch struct {
	PunchID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"punch_id"`
	EmployeeID    string    `gorm:"type:uuid;not null"                             json:"employee_id"`
	PunchedAt     time.Time `gorm:"not null"                                       json:"punched_at"`
	Direction     string    `gorm:"type:varchar(10);not null"                      json:"direction"`
	ShiftHint     string    `gorm:"type:varchar(20);not null;default:''"           json:"shift_hint,omitempty"`
	Source        string    `gorm:"type:varchar(10);not null;default:'device'"     json:"source"`
	Note          string    `gorm:"type:text;not null;default:''"                  json:"note,omitempty"`
	Corrected     bool      `gorm:"not null;default:false"                         json:"corrected"`
	ImportBatchID *string   `gorm:"type:uuid"                                      json:"import_batch_id,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (Punch) TableName() string { return "punches" }
