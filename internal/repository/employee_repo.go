package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/CentZek/newesthr-sub000/internal/model"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

// EmployeeRepository employee data access
type EmployeeRepository interface {
	Create(ctx context.Context, emp *model.Employee) error
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	GetByNo(ctx context.Context, employeeNo string) (*model.Employee, error)
	List(ctx context.Context, offset, limit int) ([]model.Employee, int64, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error)
	Update(ctx context.Context, emp *model.Employee) error
}

type employeeRepo struct {
	db *gorm.DB
}

// NewEmployeeRepo creates an EmployeeRepository
func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) Create(ctx context.Context, emp *model.Employee) error {
	return pkgerrors.Translate("employee", r.db.WithContext(ctx).Create(emp).Error)
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", id).
		First(&emp).Error
	if err != nil {
		return nil, pkgerrors.Translate("employee", err)
	}
	return &emp, nil
}

func (r *employeeRepo) GetByNo(ctx context.Context, employeeNo string) (*model.Employee, error) {
	var emp model.Employee
	err := r.db.WithContext(ctx).
		Where("employee_no = ?", employeeNo).
		First(&emp).Error
	if err != nil {
		return nil, pkgerrors.Translate("employee", err)
	}
	return &emp, nil
}

func (r *employeeRepo) List(ctx context.Context, offset, limit int) ([]model.Employee, int64, error) {
	var emps []model.Employee
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Employee{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Translate("employee", err)
	}
	if err := db.Offset(offset).Limit(limit).
		Order("employee_no ASC").
		Find(&emps).Error; err != nil {
		return nil, 0, pkgerrors.Translate("employee", err)
	}
	return emps, total, nil
}

func (r *employeeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Employee, error) {
	var emps []model.Employee
	db := r.db.WithContext(ctx).Order("employee_no ASC")
	if len(ids) > 0 {
		db = db.Where("employee_id IN ?", ids)
	}
	if err := db.Find(&emps).Error; err != nil {
		return nil, pkgerrors.Translate("employee", err)
	}
	return emps, nil
}

func (r *employeeRepo) Update(ctx context.Context, emp *model.Employee) error {
	return pkgerrors.Translate("employee", r.db.WithContext(ctx).Save(emp).Error)
}
