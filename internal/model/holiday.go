package model

import (
	"time"

	"gorm.io/datatypes"
)

// Holiday holidays, marked double-time dates
type Holiday struct {
	HolidayID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"holiday_id"`
	Date      datatypes.Date `gorm:"not null"                                       json:"date"`
	Name      string         `gorm:"type:varchar(100);not null;default:''"          json:"name"`
	BaseModel
}

// TableName table name
func (Holiday) TableName() string { return "holidays" }

// HolidayBackup holiday_backups, a JSON snapshot of the holiday list taken
// before destructive operations
type HolidayBackup struct {
	BackupID  string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"backup_id"`
	Reason    string         `gorm:"type:varchar(100);not null;default:''"          json:"reason"`
	Snapshot  datatypes.JSON `gorm:"type:jsonb;not null"                            json:"snapshot"`
	ItemCount int            `gorm:"column:item_count;not null;default:0"           json:"item_count"`
	CreatedAt time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	CreatedBy *string        `gorm:"type:uuid"                                      json:"created_by,omitempty"`
}

// TableName table name
func (HolidayBackup) TableName() string { return "holiday_backups" }

// HolidaySnapshot one entry of a backup snapshot
type HolidaySnapshot struct {
	Date string `json:"date"  yaml:"date"`
	Name string `json:"name"  yaml:"name"`
}
