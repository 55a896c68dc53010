package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository aggregate of all repositories
type Repository struct {
	db *gorm.DB

	Employee        EmployeeRepository
	User            UserRepository
	Punch           PunchRepository
	DailyRecord     DailyRecordRepository
	ShiftSubmission ShiftSubmissionRepository
	Holiday         HolidayRepository
}

// NewRepository builds the aggregate over db
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Employee:        NewEmployeeRepo(db),
		User:            NewUserRepo(db),
		Punch:           NewPunchRepo(db),
		DailyRecord:     NewDailyRecordRepo(db),
		ShiftSubmission: NewShiftSubmissionRepo(db),
		Holiday:         NewHolidayRepo(db),
	}
}

// BeginTx starts a transaction; pair with WithTx
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx an aggregate whose repositories run inside tx
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Transaction runs fn inside a transaction, committed when fn returns nil.
// An aggregate without a database (in-memory test doubles) runs fn directly.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
