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

type advisorStore interface {
	Upsert(ctx context.Context, advisor *models.Advisor) error
	FindInfo(ctx context.Context, studentID int64) (*models.AdvisorInfo, error)
}

// AssignAdvisorRequest carries the inbound advisor assignment. A nil
// instructor id clears the advisor while keeping the row.
type AssignAdvisorRequest struct {
	StudentID    int64  `json:"student_id" validate:"required"`
	InstructorID *int64 `json:"instructor_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// AdvisorService owns the single advisor row each student carries.
type AdvisorService struct {
	advisors    advisorStore
	students    studentChecker
	instructors instructorChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewAdvisorService(advisors advisorStore, students studentChecker, instructors instructorChecker, validate *validator.Validate, logger *zap.Logger) *AdvisorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdvisorService{
		advisors:    advisors,
		students:    students,
		instructors: instructors,
		validator:   validate,
		logger:      logger,
	}
}

// Assign sets or replaces the student's advisor. Reassignment overwrites the
// previous row entirely; there is no advisor history.
func (s *AdvisorService) Assign(ctx context.Context, req AssignAdvisorRequest) (*models.Advisor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid advisor payload")
	}
	var start, end *time.Time
	if req.StartDate != "" {
		t, err := validation.ParseDate(req.StartDate)
		if err != nil {
			return nil, err
		}
		start = &t
	}
	if req.EndDate != "" {
		t, err := validation.ParseDate(req.EndDate)
		if err != nil {
			return nil, err
		}
		end = &t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, appErrors.Clone(appErrors.ErrIncorrectValue, "end_date precedes start_date")
	}

	exists, err := s.students.Exists(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", req.StudentID))
	}
	if req.InstructorID != nil {
		exists, err := s.instructors.Exists(ctx, *req.InstructorID)
		if err != nil {
			return nil, appErrors.FromSQL(err, "check instructor")
		}
		if !exists {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", *req.InstructorID))
		}
	}

	advisor := &models.Advisor{
		StudentID:    req.StudentID,
		InstructorID: req.InstructorID,
		StartDate:    start,
		EndDate:      end,
	}
	if err := s.advisors.Upsert(ctx, advisor); err != nil {
		return nil, err
	}
	s.logger.Info("advisor assigned",
		zap.Int64("student_id", req.StudentID),
		zap.Int64p("instructor_id", req.InstructorID),
	)
	return advisor, nil
}

// Info returns the student's advisor row with name and office detail. A
// student without an advisor row gets RECORD_NOT_FOUND.
func (s *AdvisorService) Info(ctx context.Context, studentID int64) (*models.AdvisorInfo, error) {
	info, err := s.advisors.FindInfo(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d has no advisor on record", studentID))
		}
		return nil, appErrors.FromSQL(err, "load advisor")
	}
	return info, nil
}
