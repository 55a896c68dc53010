package dto

// CreateHolidayRequest marks a double-time date
type CreateHolidayRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
	Name string `json:"name" binding:"max=100"`
}

// HolidayResponse holiday
type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}

// HolidayImportResult ICS import outcome
type HolidayImportResult struct {
	Events  int `json:"events"`
	Added   int `json:"added"`
	Skipped int `json:"skipped"` // already on the list
}

// BackupHolidaysRequest explicit backup
type BackupHolidaysRequest struct {
	Reason string `json:"reason" binding:"max=100"`
}

// RestoreHolidaysRequest restore a backup; latest when BackupID is empty
type RestoreHolidaysRequest struct {
	BackupID string `json:"backup_id" binding:"omitempty,uuid"`
}

// HolidayBackupResponse backup metadata
type HolidayBackupResponse struct {
	ID        string `json:"id"`
	Reason    string `json:"reason"`
	ItemCount int    `json:"item_count"`
	CreatedAt string `json:"created_at"`
}

// ImportHolidaysRequest ICS import by URL (http, https or webcal)
type ImportHolidaysRequest struct {
	URL string `json:"url" form:"url" binding:"required,max=2048"`
}
