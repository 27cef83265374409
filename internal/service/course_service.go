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

type courseStore interface {
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, id string, upd models.CourseUpdate) error
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, deptName string) ([]models.Course, error)
	AddPrerequisite(ctx context.Context, courseID, prereqID string) error
	RemovePrerequisite(ctx context.Context, courseID, prereqID string) error
	ListPrerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error)
}

// CreateCourseRequest carries the inbound course payload.
type CreateCourseRequest struct {
	ID          string  `json:"id" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	Credits     int     `json:"credits" validate:"required"`
	DeptName    string  `json:"dept_name" validate:"required"`
	Description *string `json:"description"`
}

// CourseService owns the course catalog and the prerequisite graph.
type CourseService struct {
	courses     courseStore
	departments departmentChecker
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewCourseService(courses courseStore, departments departmentChecker, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, departments: departments, validator: validate, logger: logger}
}

func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	credits, err := validation.ParseCredits(req.Credits)
	if err != nil {
		return nil, err
	}
	exists, err := s.departments.Exists(ctx, req.DeptName)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check department")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", req.DeptName))
	}

	course := &models.Course{
		ID:          req.ID,
		Title:       req.Title,
		Credits:     credits,
		DeptName:    req.DeptName,
		Description: req.Description,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("dept_name", course.DeptName))
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, id string, upd models.CourseUpdate) (*models.Course, error) {
	if upd.Credits != nil {
		if _, err := validation.ParseCredits(*upd.Credits); err != nil {
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
	if err := s.courses.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes a course, its sections and its outgoing prerequisite edges.
// Edges pointing at the deleted course from other courses stay in place.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("course deleted", zap.String("course_id", id))
	return nil
}

func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", id))
		}
		return nil, appErrors.FromSQL(err, "load course")
	}
	return course, nil
}

func (s *CourseService) List(ctx context.Context, deptName string) ([]models.Course, error) {
	return s.courses.List(ctx, deptName)
}

// AddPrerequisite records that courseID requires prereqID first. Both
// endpoints must already exist in the catalog; self-edges are rejected.
func (s *CourseService) AddPrerequisite(ctx context.Context, courseID, prereqID string) error {
	if courseID == prereqID {
		return appErrors.Clone(appErrors.ErrIncorrectValue, fmt.Sprintf("course '%s' cannot be its own prerequisite", courseID))
	}
	for _, id := range []string{courseID, prereqID} {
		exists, err := s.courses.Exists(ctx, id)
		if err != nil {
			return appErrors.FromSQL(err, "check course")
		}
		if !exists {
			return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", id))
		}
	}
	if err := s.courses.AddPrerequisite(ctx, courseID, prereqID); err != nil {
		return err
	}
	s.logger.Info("prerequisite added", zap.String("course_id", courseID), zap.String("prereq_id", prereqID))
	return nil
}

func (s *CourseService) RemovePrerequisite(ctx context.Context, courseID, prereqID string) error {
	return s.courses.RemovePrerequisite(ctx, courseID, prereqID)
}

func (s *CourseService) ListPrerequisites(ctx context.Context, courseID string) ([]models.Prerequisite, error) {
	exists, err := s.courses.Exists(ctx, courseID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check course")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", courseID))
	}
	return s.courses.ListPrerequisites(ctx, courseID)
}
