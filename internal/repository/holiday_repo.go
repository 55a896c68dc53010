package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// HolidayRepository holiday list and its backups
type HolidayRepository interface {
	Create(ctx context.Context, h *model.Holiday) error
	GetByID(ctx context.Context, id string) (*model.Holiday, error)
	List(ctx context.Context) ([]model.Holiday, error)
	// ListHolidayDates every holiday date; the calendar's source
	ListHolidayDates(ctx context.Context) ([]time.Time, error)
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps the whole list for holidays in one transaction
	ReplaceAll(ctx context.Context, holidays []model.Holiday) error

	CreateBackup(ctx context.Context, b *model.HolidayBackup) error
	GetBackup(ctx context.Context, id string) (*model.HolidayBackup, error)
	LatestBackup(ctx context.Context) (*model.HolidayBackup, error)
	ListBackups(ctx context.Context, limit int) ([]model.HolidayBackup, error)
}

type holidayRepo struct {
	db *gorm.DB
}

// NewHolidayRepo creates a HolidayRepository
func NewHolidayRepo(db *gorm.DB) HolidayRepository {
	return &holidayRepo{db: db}
}

func (r *holidayRepo) Create(ctx context.Context, h *model.Holiday) error {
	return pkgerrors.Translate("holiday", r.db.WithContext(ctx).Create(h).Error)
}

func (r *holidayRepo) GetByID(ctx context.Context, id string) (*model.Holiday, error) {
	var h model.Holiday
	if err := r.db.WithContext(ctx).Where("holiday_id = ?", id).First(&h).Error; err != nil {
		return nil, pkgerrors.Translate("holiday", err)
	}
	return &h, nil
}

func (r *holidayRepo) List(ctx context.Context) ([]model.Holiday, error) {
	var hs []model.Holiday
	if err := r.db.WithContext(ctx).Order("date ASC").Find(&hs).Error; err != nil {
		return nil, pkgerrors.Translate("holiday", err)
	}
	return hs, nil
}

func (r *holidayRepo) ListHolidayDates(ctx context.Context) ([]time.Time, error) {
	hs, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, 0, len(hs))
	for _, h := range hs {
		dates = append(dates, time.Time(h.Date))
	}
	return dates, nil
}

func (r *holidayRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("holiday_id = ?", id).Delete(&model.Holiday{})
	if res.Error != nil {
		return pkgerrors.Translate("holiday", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFound("holiday", id)
	}
	return nil
}

func (r *holidayRepo) ReplaceAll(ctx context.Context, holidays []model.Holiday) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Holiday{}).Error; err != nil {
			return err
		}
		if len(holidays) == 0 {
			return nil
		}
		return tx.CreateInBatches(&holidays, 200).Error
	})
	return pkgerrors.Translate("holiday", err)
}

func (r *holidayRepo) CreateBackup(ctx context.Context, b *model.HolidayBackup) error {
	return pkgerrors.Translate("holiday_backup", r.db.WithContext(ctx).Create(b).Error)
}

func (r *holidayRepo) GetBackup(ctx context.Context, id string) (*model.HolidayBackup, error) {
	var b model.HolidayBackup
	if err := r.db.WithContext(ctx).Where("backup_id = ?", id).First(&b).Error; err != nil {
		return nil, pkgerrors.Translate("holiday_backup", err)
	}
	return &b, nil
}

func (r *holidayRepo) LatestBackup(ctx context.Context) (*model.HolidayBackup, error) {
	var b model.HolidayBackup
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&b).Error; err != nil {
		return nil, pkgerrors.Translate("holiday_backup", err)
	}
	return &b, nil
}

func (r *holidayRepo) ListBackups(ctx context.Context, limit int) ([]model.HolidayBackup, error) {
	var bs []model.HolidayBackup
	if err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&bs).Error; err != nil {
		return nil, pkgerrors.Translate("holiday_backup", err)
	}
	return bs, nil
}
