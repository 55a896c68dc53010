package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// PunchRepository raw punch audit trail
type PunchRepository interface {
	// InsertIgnore stores punches, skipping any (employee, instant, direction)
	// already present. Returns the number actually inserted.
	InsertIgnore(ctx context.Context, punches []model.Punch) (int64, error)
	GetByID(ctx context.Context, id string) (*model.Punch, error)
	// ListBetween punches of one employee with from <= punched_at < to
	ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.Punch, error)
	// EmployeesBetween employees with at least one punch in [from, to)
	EmployeesBetween(ctx context.Context, from, to time.Time) ([]string, error)
	SetDirection(ctx context.Context, id, direction string) error
}

type punchRepo struct {
	db *gorm.DB
}

// NewPunchRepo creates a PunchRepository
func NewPunchRepo(db *gorm.DB) PunchRepository {
	return &punchRepo{db: db}
}

func (r *punchRepo) InsertIgnore(ctx context.Context, punches []model.Punch) (int64, error) {
	if len(punches) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "employee_id"}, {Name: "punched_at"}, {Name: "direction"}},
			DoNothing: true,
		}).
		Create(&punches)
	if res.Error != nil {
		return 0, pkgerrors.Translate("punch", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *punchRepo) GetByID(ctx context.Context, id string) (*model.Punch, error) {
	var p model.Punch
	if err := r.db.WithContext(ctx).Where("punch_id = ?", id).First(&p).Error; err != nil {
		return nil, pkgerrors.Translate("punch", err)
	}
	return &p, nil
}

func (r *punchRepo) ListBetween(ctx context.Context, employeeID string, from, to time.Time) ([]model.Punch, error) {
	var punches []model.Punch
	err := r.db.WithContext(ctx).
		Where("employee_id = ? AND punched_at >= ? AND punched_at < ?", employeeID, from, to).
		Order("punched_at ASC").
		Find(&punches).Error
	if err != nil {
		return nil, pkgerrors.Translate("punch", err)
	}
	return punches, nil
}

func (r *punchRepo) EmployeesBetween(ctx context.Context, from, to time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Punch{}).
		Where("punched_at >= ? AND punched_at < ?", from, to).
		Distinct().
		Pluck("employee_id", &ids).Error
	if err != nil {
		return nil, pkgerrors.Translate("punch", err)
	}
	return ids, nil
}

func (r *punchRepo) SetDirection(ctx context.Context, id, direction string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Punch{}).
		Where("punch_id = ?", id).
		Updates(map[string]interface{}{"direction": direction, "corrected": true})
	if res.Error != nil {
		return pkgerrors.Translate("punch", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFound("punch", id)
	}
	return nil
}
