package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// ShiftSubmissionRepository manual shift submissions
type ShiftSubmissionRepository interface {
	Create(ctx context.Context, sub *model.ShiftSubmission) error
	GetByID(ctx context.Context, id string) (*model.ShiftSubmission, error)
	List(ctx context.Context, status, employeeID string, offset, limit int) ([]model.ShiftSubmission, int64, error)
	// Transition moves sub out of the from status. Returns ErrOptimisticLock
	// when the row is no longer in from.
	Transition(ctx context.Context, sub *model.ShiftSubmission, from string) error
}

type shiftSubmissionRepo struct {
	db *gorm.DB
}

// NewShiftSubmissionRepo creates a ShiftSubmissionRepository
func NewShiftSubmissionRepo(db *gorm.DB) ShiftSubmissionRepository {
	return &shiftSubmissionRepo{db: db}
}

func (r *shiftSubmissionRepo) Create(ctx context.Context, sub *model.ShiftSubmission) error {
	return pkgerrors.Translate("shift_submission", r.db.WithContext(ctx).Create(sub).Error)
}

func (r *shiftSubmissionRepo) GetByID(ctx context.Context, id string) (*model.ShiftSubmission, error) {
	var sub model.ShiftSubmission
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("submission_id = ?", id).
		First(&sub).Error
	if err != nil {
		return nil, pkgerrors.Translate("shift_submission", err)
	}
	return &sub, nil
}

func (r *shiftSubmissionRepo) List(ctx context.Context, status, employeeID string, offset, limit int) ([]model.ShiftSubmission, int64, error) {
	var subs []model.ShiftSubmission
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ShiftSubmission{})
	if status != "" {
		db = db.Where("status = ?", status)
	}
	if employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Translate("shift_submission", err)
	}
	if err := db.Preload("Employee").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, 0, pkgerrors.Translate("shift_submission", err)
	}
	return subs, total, nil
}

func (r *shiftSubmissionRepo) Transition(ctx context.Context, sub *model.ShiftSubmission, from string) error {
	result := r.db.WithContext(ctx).
		Model(&model.ShiftSubmission{}).
		Where("submission_id = ? AND status = ?", sub.SubmissionID, from).
		Updates(map[string]interface{}{
			"status":          sub.Status,
			"reject_reason":   sub.RejectReason,
			"reviewed_by":     sub.ReviewedBy,
			"reviewed_at":     sub.ReviewedAt,
			"daily_record_id": sub.DailyRecordID,
			"updated_by":      sub.UpdatedBy,
		})
	if result.Error != nil {
		return pkgerrors.Translate("shift_submission", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	return nil
}
