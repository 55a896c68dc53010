package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// DailyRecordRepository reconciled daily records
type DailyRecordRepository interface {
	// FindByKey looks a record up by natural key. With lock the row is held
	// FOR UPDATE until the surrounding transaction ends.
	FindByKey(ctx context.Context, key model.NaturalKey, lock bool) (*model.DailyRecord, error)
	GetByID(ctx context.Context, id string) (*model.DailyRecord, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.DailyRecord, error)
	// Create inserts; a natural key collision surfaces as *errors.ConflictError
	Create(ctx context.Context, rec *model.DailyRecord) error
	// Update writes all mutable columns guarded by version
	Update(ctx context.Context, rec *model.DailyRecord) error
	List(ctx context.Context, filter model.RecordFilter) ([]model.DailyRecord, error)
	ListIDs(ctx context.Context, filter model.RecordFilter) ([]string, error)
	// DeleteByIDs removes records; with preserveApproved approved rows survive
	DeleteByIDs(ctx context.Context, ids []string, preserveApproved bool) (int64, error)
	CountApproved(ctx context.Context) (int64, error)
}

type dailyRecordRepo struct {
	db *gorm.DB
}

// NewDailyRecordRepo creates a DailyRecordRepository
func NewDailyRecordRepo(db *gorm.DB) DailyRecordRepository {
	return &dailyRecordRepo{db: db}
}

func (r *dailyRecordRepo) FindByKey(ctx context.Context, key model.NaturalKey, lock bool) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := db.
		Where("employee_id = ? AND slot = ? AND working_day = ? AND source = ?",
			key.EmployeeID, key.Slot, key.WorkingDay.Format("2006-01-02"), key.Source).
		First(&rec).Error
	if err != nil {
		return nil, pkgerrors.Translate("daily_record", err)
	}
	return &rec, nil
}

func (r *dailyRecordRepo) GetByID(ctx context.Context, id string) (*model.DailyRecord, error) {
	var rec model.DailyRecord
	err := r.db.WithContext(ctx).
		Where("daily_record_id = ?", id).
		First(&rec).Error
	if err != nil {
		return nil, pkgerrors.Translate("daily_record", err)
	}
	return &rec, nil
}

func (r *dailyRecordRepo) ListByIDs(ctx context.Context, ids []string) ([]model.DailyRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var recs []model.DailyRecord
	if err := r.db.WithContext(ctx).Where("daily_record_id IN ?", ids).Find(&recs).Error; err != nil {
		return nil, pkgerrors.Translate("daily_record", err)
	}
	return recs, nil
}

func (r *dailyRecordRepo) Create(ctx context.Context, rec *model.DailyRecord) error {
	if rec.Version == 0 {
		rec.Version = 1
	}
	return pkgerrors.Translate("daily_record", r.db.WithContext(ctx).Create(rec).Error)
}

func (r *dailyRecordRepo) Update(ctx context.Context, rec *model.DailyRecord) error {
	oldVersion := rec.Version
	result := r.db.WithContext(ctx).
		Model(&model.DailyRecord{}).
		Where("daily_record_id = ? AND version = ?", rec.DailyRecordID, oldVersion).
		Updates(map[string]interface{}{
			"kind":               rec.Kind,
			"slot":               rec.Slot,
			"shift_type":         rec.ShiftType,
			"leave_type":         rec.LeaveType,
			"custom_start":       rec.CustomStart,
			"custom_end":         rec.CustomEnd,
			"check_in":           rec.CheckIn,
			"check_out":          rec.CheckOut,
			"check_in_punch_id":  rec.CheckInPunchID,
			"check_out_punch_id": rec.CheckOutPunchID,
			"hours_worked":       rec.HoursWorked,
			"missing_check_in":   rec.MissingCheckIn,
			"missing_check_out":  rec.MissingCheckOut,
			"is_late":            rec.IsLate,
			"early_leave":        rec.EarlyLeave,
			"excessive_overtime": rec.ExcessiveOvertime,
			"corrected_records":  rec.CorrectedRecords,
			"penalty_minutes":    rec.PenaltyMinutes,
			"notes":              rec.Notes,
			"display_check_in":   rec.DisplayCheckIn,
			"display_check_out":  rec.DisplayCheckOut,
			"record_count":       rec.RecordCount,
			"approved":           rec.Approved,
			"approved_by":        rec.ApprovedBy,
			"approved_at":        rec.ApprovedAt,
			"manually_edited":    rec.ManuallyEdited,
			"updated_by":         rec.UpdatedBy,
			"version":            oldVersion + 1,
		})
	if result.Error != nil {
		return pkgerrors.Translate("daily_record", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	rec.Version = oldVersion + 1
	return nil
}

func (r *dailyRecordRepo) scoped(ctx context.Context, f model.RecordFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.DailyRecord{})
	if f.From != nil {
		db = db.Where("working_day >= ?", f.From.Format("2006-01-02"))
	}
	if f.To != nil {
		db = db.Where("working_day <= ?", f.To.Format("2006-01-02"))
	}
	if len(f.EmployeeIDs) > 0 {
		db = db.Where("employee_id IN ?", f.EmployeeIDs)
	}
	if f.Approved != nil {
		db = db.Where("approved = ?", *f.Approved)
	}
	return db
}

func (r *dailyRecordRepo) List(ctx context.Context, filter model.RecordFilter) ([]model.DailyRecord, error) {
	var recs []model.DailyRecord
	err := r.scoped(ctx, filter).
		Order("employee_id ASC, working_day ASC, slot ASC, source ASC").
		Find(&recs).Error
	if err != nil {
		return nil, pkgerrors.Translate("daily_record", err)
	}
	return recs, nil
}

func (r *dailyRecordRepo) ListIDs(ctx context.Context, filter model.RecordFilter) ([]string, error) {
	var ids []string
	err := r.scoped(ctx, filter).
		Order("working_day ASC").
		Pluck("daily_record_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Translate("daily_record", err)
	}
	return ids, nil
}

func (r *dailyRecordRepo) DeleteByIDs(ctx context.Context, ids []string, preserveApproved bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.db.WithContext(ctx).Where("daily_record_id IN ?", ids)
	if preserveApproved {
		db = db.Where("approved = ?", false)
	}
	res := db.Delete(&model.DailyRecord{})
	if res.Error != nil {
		return 0, pkgerrors.Translate("daily_record", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *dailyRecordRepo) CountApproved(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.DailyRecord{}).Where("approved = ?", true).Count(&n).Error
	return n, pkgerrors.Translate("daily_record", err)
}

