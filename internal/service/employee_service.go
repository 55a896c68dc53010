package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/CentZek/newesthr-sub000/internal/attendance"
	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/internal/repository"
	pkgerrors "github.com/CentZek/newesthr-sub000/pkg/errors"
)

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrEmployeeNoTaken   = errors.New("employee number is already in use")
	ErrNotCanteenOrShift = errors.New("default shift must be a fixed shift type")
)

// EmployeeService employee master data
type EmployeeService interface {
	Create(ctx context.Context, req *dto.CreateEmployeeRequest, actorID string) (*dto.EmployeeResponse, error)
	Get(ctx context.Context, id string) (*dto.EmployeeResponse, error)
	List(ctx context.Context, req *dto.PageRequest) ([]dto.EmployeeResponse, int64, error)
	Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, actorID string) (*dto.EmployeeResponse, error)
}

type employeeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEmployeeService creates an EmployeeService
func NewEmployeeService(repo *repository.Repository, logger *zap.Logger) EmployeeService {
	return &employeeService{repo: repo, logger: logger}
}

func (s *employeeService) Create(ctx context.Context, req *dto.CreateEmployeeRequest, actorID string) (*dto.EmployeeResponse, error) {
	shift, err := defaultShift(req.DefaultShift)
	if err != nil {
		return nil, err
	}
	emp := &model.Employee{
		EmployeeNo:   strings.TrimSpace(req.EmployeeNo),
		Name:         strings.TrimSpace(req.Name),
		Department:   req.Department,
		DefaultShift: shift,
		IsActive:     true,
	}
	emp.CreatedBy = strPtr(actorID)
	if err := s.repo.Employee.Create(ctx, emp); err != nil {
		if errors.Is(err, pkgerrors.ErrConflict) {
			return nil, ErrEmployeeNoTaken
		}
		s.logger.Error("create employee failed", zap.Error(err))
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *employeeService) Get(ctx context.Context, id string) (*dto.EmployeeResponse, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

func (s *employeeService) List(ctx context.Context, req *dto.PageRequest) ([]dto.EmployeeResponse, int64, error) {
	offset, limit := req.Normalize()
	emps, total, err := s.repo.Employee.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.EmployeeResponse, 0, len(emps))
	for i := range emps {
		out = append(out, toEmployeeResponse(&emps[i]))
	}
	return out, total, nil
}

func (s *employeeService) Update(ctx context.Context, id string, req *dto.UpdateEmployeeRequest, actorID string) (*dto.EmployeeResponse, error) {
	emp, err := s.repo.Employee.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, err
	}
	if req.Name != nil {
		emp.Name = strings.TrimSpace(*req.Name)
	}
	if req.Department != nil {
		emp.Department = *req.Department
	}
	if req.DefaultShift != nil {
		if emp.DefaultShift, err = defaultShift(*req.DefaultShift); err != nil {
			return nil, err
		}
	}
	if req.IsActive != nil {
		emp.IsActive = *req.IsActive
	}
	emp.UpdatedBy = strPtr(actorID)
	if err := s.repo.Employee.Update(ctx, emp); err != nil {
		return nil, err
	}
	resp := toEmployeeResponse(emp)
	return &resp, nil
}

// defaultShift normalizes the group shift; custom cannot be a default
func defaultShift(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	st, ok := attendance.ParseShiftType(raw)
	if !ok || st == attendance.Custom {
		return "", ErrNotCanteenOrShift
	}
	return string(st), nil
}
