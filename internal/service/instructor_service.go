package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/validation"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
)

type instructorStore interface {
	Create(ctx context.Context, instructor *models.Instructor) error
	Update(ctx context.Context, id int64, upd models.InstructorUpdate) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Instructor, error)
	Exists(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, deptName string) ([]models.Instructor, error)
	Workload(ctx context.Context, instructorID int64, semester validation.Semester, year int) ([]models.WorkloadEntry, error)
}

// CreateInstructorRequest carries the inbound instructor payload.
type CreateInstructorRequest struct {
	FullName     string  `json:"full_name" validate:"required"`
	DeptName     string  `json:"dept_name" validate:"required"`
	AcademicRank string  `json:"academic_rank" validate:"required"`
	Salary       float64 `json:"salary"`
	Email        string  `json:"email" validate:"required"`
	HireDate     string  `json:"hire_date"`
	OfficeNumber *string `json:"office_number"`
}

// InstructorService owns the instructor lifecycle and workload reads.
type InstructorService struct {
	instructors instructorStore
	departments departmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewInstructorService(instructors instructorStore, departments departmentChecker, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{
		instructors: instructors,
		departments: departments,
		validator:   validate,
		logger:      logger,
	}
}

func (s *InstructorService) Create(ctx context.Context, req CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	email, err := validation.ParseEmail(req.Email)
	if err != nil {
		return nil, err
	}
	rank, err := validation.ParseRank(req.AcademicRank)
	if err != nil {
		return nil, err
	}
	if err := validation.NonNegativeAmount("salary", req.Salary); err != nil {
		return nil, err
	}
	var hired *time.Time
	if req.HireDate != "" {
		t, err := validation.ParseDate(req.HireDate)
		if err != nil {
			return nil, err
		}
		hired = &t
	}
	exists, err := s.departments.Exists(ctx, req.DeptName)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check department")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", req.DeptName))
	}

	instructor := &models.Instructor{
		FullName:     req.FullName,
		DeptName:     req.DeptName,
		AcademicRank: rank,
		Salary:       req.Salary,
		Email:        email,
		HireDate:     hired,
		OfficeNumber: req.OfficeNumber,
	}
	if err := s.instructors.Create(ctx, instructor); err != nil {
		return nil, err
	}
	s.logger.Info("instructor created", zap.Int64("instructor_id", instructor.ID), zap.String("dept_name", instructor.DeptName))
	return instructor, nil
}

func (s *InstructorService) Update(ctx context.Context, id int64, upd models.InstructorUpdate) (*models.Instructor, error) {
	if upd.Email != nil {
		if _, err := validation.ParseEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.AcademicRank != nil {
		if _, err := validation.ParseRank(*upd.AcademicRank); err != nil {
			return nil, err
		}
	}
	if upd.Salary != nil {
		if err := validation.NonNegativeAmount("salary", *upd.Salary); err != nil {
			return nil, err
		}
	}
	if upd.HireDate != nil {
		if _, err := validation.ParseDate(*upd.HireDate); err != nil {
			return nil, err
		}
	}
	if upd.DeptName != nil {
		exists, err := s.departments.Exists(ctx, *upd.DeptName)
		if err != nil {
			return nil, appErrors.FromSQL(err, "check department")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", *upd.DeptName))
		}
	}
	if err := s.instructors.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *InstructorService) Delete(ctx context.Context, id int64) error {
	if err := s.instructors.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("instructor deleted", zap.Int64("instructor_id", id))
	return nil
}

func (s *InstructorService) Get(ctx context.Context, id int64) (*models.Instructor, error) {
	instructor, err := s.instructors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", id))
		}
		return nil, appErrors.FromSQL(err, "load instructor")
	}
	return instructor, nil
}

func (s *InstructorService) List(ctx context.Context, deptName string) ([]models.Instructor, error) {
	return s.instructors.List(ctx, deptName)
}

// Workload lists the sections an instructor teaches in a term. The
// instructor must exist; an idle one gets an empty list.
func (s *InstructorService) Workload(ctx context.Context, instructorID int64, rawSemester string, rawYear int) ([]models.WorkloadEntry, error) {
	semester, err := validation.ParseSemester(rawSemester)
	if err != nil {
		return nil, err
	}
	year, err := validation.ParseAcademicYear(rawYear)
	if err != nil {
		return nil, err
	}
	exists, err := s.instructors.Exists(ctx, instructorID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check instructor")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", instructorID))
	}
	entries, err := s.instructors.Workload(ctx, instructorID, semester, int(year))
	if err != nil {
		return nil, appErrors.FromSQL(err, "load workload")
	}
	return entries, nil
}
