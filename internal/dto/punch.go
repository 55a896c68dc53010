package dto

import (
	"time"

	"github.com/CentZek/newesthr-sub000/pkg/batch"
)

// SubmitPunchRequest one clock event. Direction is inferred from the clock
// time when omitted.
type SubmitPunchRequest struct {
	EmployeeID string    `json:"employee_id" binding:"required,uuid"`
	Timestamp  time.Time `json:"timestamp"   binding:"required"`
	Direction  string    `json:"direction"   binding:"omitempty,direction"`
	ShiftHint  string    `json:"shift_hint"  binding:"omitempty,shift_type"`
	Note       string    `json:"note"        binding:"max=500"`
	Manual     bool      `json:"manual"`
}

// PunchResponse stored punch and the records it produced
type PunchResponse struct {
	PunchID    string                `json:"punch_id,omitempty"`
	Duplicate  bool                  `json:"duplicate"`
	Direction  string                `json:"direction"`
	ShiftType  string                `json:"shift_type"`
	WorkingDay string                `json:"working_day"`
	Records    []DailyRecordResponse `json:"records"`
}

// RowError a spreadsheet row that could not be turned into a punch
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult outcome of a punch spreadsheet import
type ImportResult struct {
	BatchID    string       `json:"batch_id"`
	Rows       int          `json:"rows"`
	Inserted   int          `json:"inserted"`
	Duplicates int          `json:"duplicates"`
	Invalid    []RowError   `json:"invalid,omitempty"`
	Ingest     batch.Result `json:"ingest"`
	Reconcile  batch.Result `json:"reconcile"`
}

// ReconcileRequest re-run reconciliation over a date range
type ReconcileRequest struct {
	From        string   `json:"from"         binding:"required,datetime=2006-01-02"`
	To          string   `json:"to"           binding:"required,datetime=2006-01-02"`
	EmployeeIDs []string `json:"employee_ids" binding:"omitempty,dive,uuid"`
}

// ReconcileResult records written per run
type ReconcileResult struct {
	Employees int          `json:"employees"`
	Created   int          `json:"created"`
	Updated   int          `json:"updated"`
	Skipped   int          `json:"skipped"` // manually edited records left alone
	Batch     batch.Result `json:"batch"`
}
