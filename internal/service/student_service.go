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

type studentStore interface {
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id int64, upd models.StudentUpdate) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error)
	GradedCredits(ctx context.Context, studentID int64) ([]models.GradeCredit, error)
}

type departmentChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// CreateStudentRequest carries raw inbound fields; all of them are parsed
// into typed values before anything reaches the store.
type CreateStudentRequest struct {
	FullName       string  `json:"full_name" validate:"required"`
	DeptName       string  `json:"dept_name" validate:"required"`
	Major          *string `json:"major"`
	TotalCredits   int     `json:"total_credits" validate:"gte=0"`
	Email          string  `json:"email" validate:"required"`
	EnrollmentDate string  `json:"enrollment_date"`
	Status         string  `json:"status"`
}

// StudentService owns the student lifecycle plus transcript and GPA reads.
type StudentService struct {
	students    studentStore
	departments departmentChecker
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewStudentService(students studentStore, departments departmentChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{
		students:    students,
		departments: departments,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// Create validates the payload, checks the department exists and inserts the
// student. The store fills in the generated id.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	email, err := validation.ParseEmail(req.Email)
	if err != nil {
		return nil, err
	}
	status := validation.StatusActive
	if req.Status != "" {
		if status, err = validation.ParseStudentStatus(req.Status); err != nil {
			return nil, err
		}
	}
	var enrolled *time.Time
	if req.EnrollmentDate != "" {
		t, err := validation.ParseDate(req.EnrollmentDate)
		if err != nil {
			return nil, err
		}
		enrolled = &t
	}
	exists, err := s.departments.Exists(ctx, req.DeptName)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check department")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("department '%s' not found", req.DeptName))
	}

	student := &models.Student{
		FullName:       req.FullName,
		DeptName:       req.DeptName,
		Major:          req.Major,
		TotalCredits:   req.TotalCredits,
		Email:          email,
		EnrollmentDate: enrolled,
		Status:         status,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, err
	}
	s.logger.Info("student created", zap.Int64("student_id", student.ID), zap.String("dept_name", student.DeptName))
	return student, nil
}

// Update applies the provided fields; untouched fields stay as stored.
func (s *StudentService) Update(ctx context.Context, id int64, upd models.StudentUpdate) (*models.Student, error) {
	if upd.Email != nil {
		if _, err := validation.ParseEmail(*upd.Email); err != nil {
			return nil, err
		}
	}
	if upd.Status != nil {
		if _, err := validation.ParseStudentStatus(*upd.Status); err != nil {
			return nil, err
		}
	}
	if upd.EnrollmentDate != nil {
		if _, err := validation.ParseDate(*upd.EnrollmentDate); err != nil {
			return nil, err
		}
	}
	if upd.TotalCredits != nil {
		if err := validation.NonNegativeAmount("total_credits", float64(*upd.TotalCredits)); err != nil {
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
	if err := s.students.Update(ctx, id, upd); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.Get(ctx, id)
}

// Delete removes the student and, through the store's cascades, their
// enrollments and advisor row.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

// Get returns one student by id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", id))
		}
		return nil, appErrors.FromSQL(err, "load student")
	}
	return student, nil
}

// Search pages through students matching the filter.
func (s *StudentService) Search(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	students, total, err := s.students.Search(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Transcript lists the student's graded, non-cancelled coursework. The
// student must exist; an existing student with no grades gets an empty list.
func (s *StudentService) Transcript(ctx context.Context, studentID int64) ([]models.TranscriptEntry, error) {
	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", studentID))
	}
	entries, err := s.students.Transcript(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "load transcript")
	}
	return entries, nil
}

// CalculateGPA computes the credit-weighted grade point average over graded,
// non-cancelled enrollments. A student with no graded coursework has no GPA.
func (s *StudentService) CalculateGPA(ctx context.Context, studentID int64) (*models.GPAResult, error) {
	cacheKey := fmt.Sprintf("registrar:gpa:%d", studentID)
	if s.cache.Enabled() {
		var cached models.GPAResult
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	exists, err := s.students.Exists(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", studentID))
	}
	rows, err := s.students.GradedCredits(ctx, studentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "load grades")
	}

	var points float64
	var credits int
	for _, row := range rows {
		points += row.Grade.Points() * float64(row.Credits)
		credits += row.Credits
	}
	if credits == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoGradedCourses, fmt.Sprintf("student %d has no graded courses", studentID))
	}

	result := &models.GPAResult{
		StudentID:     studentID,
		GPA:           points / float64(credits),
		GradedCredits: credits,
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, result, 0)
	}
	return result, nil
}

func (s *StudentService) invalidate(ctx context.Context, id int64) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("registrar:gpa:%d", id))
	_ = s.cache.Invalidate(ctx, "registrar:students:*")
}
