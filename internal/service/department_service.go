package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type departmentStore interface {
	Create(ctx context.Context, dept *models.Department) error
	Update(ctx context.Context, name string, upd models.DepartmentUpdate) error
	Delete(ctx context.Context, name string) error
	FindByName(ctx context.Context, name string) (*models.Department, error)
	List(ctx context.Context) ([]models.Department, error)
	Exists(ctx context.Context, name string) (bool, error)
}

// CreateDepartmentRequest carries the inbound department payload.
type CreateDepartmentRequest struct {
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Budget   float64 `json:"budget"`
	Building string  `json:"building" validate:"required"`
	DeanName string  `json:"dean_name" validate:"required"`
}

// DepartmentService owns the department lifecycle.
type DepartmentService struct {
	departments departmentStore
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewDepartmentService(departments departmentStore, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{departments: departments, validator: validate, logger: logger}
}

func (s *DepartmentService) Create(ctx context.Context, req CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid department payload")
	}
	if err := validation.NonNegativeAmount("budget", req.Budget); err != nil {
		return nil, err
	}
	dept := &models.Department{
		Name:     req.Name,
		Phone:    req.Phone,
		Budget:   req.Budget,
		Building: req.Building,
		DeanName: req.DeanName,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, err
	}
	s.logger.Info("department created", zap.String("dept_name", dept.Name))
	return dept, nil
}

func (s *DepartmentService) Update(ctx context.Context, name string, upd models.DepartmentUpdate) (*models.Department, error) {
	if upd.Budget != nil {
		if err := validation.NonNegativeAmount("budget", *upd.Budget); err != nil {
			return nil, err
		}
	}
	if err := s.departments.Update(ctx, name, upd); err != nil {
		return nil, err
	}
	return s.Get(ctx, name)
}

// Delete removes an empty department. The store rejects the delete while
// students, instructors or courses still reference it.
func (s *DepartmentService) Delete(ctx context.Context, name string) error {
	if err := s.departments.Delete(ctx, name); err != nil {
		return err
	}
	s.logger.Info("department deleted", zap.String("dept_name", name))
	return nil
}

func (s *DepartmentService) Get(ctx context.Context, name string) (*models.Department, error) {
	dept, err := s.departments.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", name))
		}
		return nil, appErrors.FromSQL(err, "load department")
	}
	return dept, nil
}

func (s *DepartmentService) List(ctx context.Context) ([]models.Department, error) {
	return s.departments.List(ctx)
}
