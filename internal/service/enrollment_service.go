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

type enrollmentStore interface {
	Enroll(ctx context.Context, key models.EnrollmentKey, enrolledAt time.Time) (*models.Takes, error)
	Cancel(ctx context.Context, key models.EnrollmentKey) error
	AssignGrade(ctx context.Context, key models.EnrollmentKey, grade string) error
	FindDetail(ctx context.Context, key models.EnrollmentKey) (*models.EnrollmentDetail, error)
	UnsatisfiedPrereqs(ctx context.Context, studentID int64, courseID string) (int, error)
}

type teachingStore interface {
	Assign(ctx context.Context, row *models.Teaches) error
	Unassign(ctx context.Context, row *models.Teaches) error
}

type studentChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type instructorChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// EnrollmentRequest identifies one takes row.
type EnrollmentRequest struct {
	StudentID    int64  `json:"student_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear int    `json:"academic_year" validate:"required"`
}

// GradeRequest assigns a letter grade to an enrollment.
type GradeRequest struct {
	EnrollmentRequest
	Grade string `json:"grade" validate:"required"`
}

// TeachingRequest links an instructor to a section.
type TeachingRequest struct {
	InstructorID int64  `json:"instructor_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear int    `json:"academic_year" validate:"required"`
}

// EnrollmentService orchestrates enrollment, cancellation, grading and
// teaching assignments. Every mutating operation is one store transaction:
// it either fully applies or surfaces a single typed error.
type EnrollmentService struct {
	enrollments enrollmentStore
	teaching    teachingStore
	students    studentChecker
	instructors instructorChecker
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewEnrollmentService constructs EnrollmentService. The clock defaults to
// time.Now and exists so the active-term gate is testable.
func NewEnrollmentService(enrollments enrollmentStore, teaching teachingStore, students studentChecker, instructors instructorChecker, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, now func() time.Time) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &EnrollmentService{
		enrollments: enrollments,
		teaching:    teaching,
		students:    students,
		instructors: instructors,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		now:         now,
	}
}

func (s *EnrollmentService) key(req EnrollmentRequest) (models.EnrollmentKey, error) {
	semester, err := validation.ParseSemester(req.Semester)
	if err != nil {
		return models.EnrollmentKey{}, err
	}
	year, err := validation.ParseAcademicYear(req.AcademicYear)
	if err != nil {
		return models.EnrollmentKey{}, err
	}
	return models.EnrollmentKey{
		StudentID:    req.StudentID,
		CourseID:     req.CourseID,
		SectionID:    req.SectionID,
		Semester:     semester,
		AcademicYear: int(year),
	}, nil
}

// Enroll registers a student into a section. Check order: student existence,
// active term, then inside the store transaction section existence,
// duplicate, capacity, prerequisites. Callers should not rely on a specific
// error when several conditions are violated, but this order is fixed.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollmentRequest) (*models.Takes, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	key, err := s.key(req)
	if err != nil {
		return nil, err
	}

	exists, err := s.students.Exists(ctx, key.StudentID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check student")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("student %d not found", key.StudentID))
	}

	now := s.now()
	if sem, year := validation.TermOf(now); sem != key.Semester || year != key.AcademicYear {
		return nil, appErrors.Clone(appErrors.ErrIncorrectValue,
			fmt.Sprintf("section term %s %d is not the active term", key.Semester, key.AcademicYear))
	}

	takes, err := s.enrollments.Enroll(ctx, key, now.UTC())
	if err != nil {
		s.metrics.RecordEnrollmentOperation("enroll", outcomeOf(err))
		return nil, err
	}
	s.metrics.RecordEnrollmentOperation("enroll", "success")
	s.invalidateRoster(ctx, key)

	s.logger.Info("student enrolled",
		zap.Int64("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("section_id", key.SectionID),
		zap.String("semester", string(key.Semester)),
		zap.Int("academic_year", key.AcademicYear),
	)
	return takes, nil
}

// Cancel marks an enrollment cancelled and releases its seat. The takes row
// stays on record.
func (s *EnrollmentService) Cancel(ctx context.Context, req EnrollmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	key, err := s.key(req)
	if err != nil {
		return err
	}
	if err := s.enrollments.Cancel(ctx, key); err != nil {
		s.metrics.RecordEnrollmentOperation("cancel", outcomeOf(err))
		return err
	}
	s.metrics.RecordEnrollmentOperation("cancel", "success")
	s.invalidateRoster(ctx, key)

	s.logger.Info("enrollment cancelled",
		zap.Int64("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("section_id", key.SectionID),
	)
	return nil
}

// AssignGrade overwrites the stored grade on an active enrollment. The
// roster count does not change.
func (s *EnrollmentService) AssignGrade(ctx context.Context, req GradeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	grade, err := validation.ParseGrade(req.Grade)
	if err != nil {
		return err
	}
	key, err := s.key(req.EnrollmentRequest)
	if err != nil {
		return err
	}
	if err := s.enrollments.AssignGrade(ctx, key, string(grade)); err != nil {
		s.metrics.RecordEnrollmentOperation("grade", outcomeOf(err))
		return err
	}
	s.metrics.RecordEnrollmentOperation("grade", "success")
	if s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("registrar:gpa:%d", key.StudentID))
	}

	s.logger.Info("grade assigned",
		zap.Int64("student_id", key.StudentID),
		zap.String("course_id", key.CourseID),
		zap.String("grade", string(grade)),
	)
	return nil
}

// AssignInstructor links an instructor to a section; assigning the same pair
// twice is a no-op.
func (s *EnrollmentService) AssignInstructor(ctx context.Context, req TeachingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching payload")
	}
	semester, err := validation.ParseSemester(req.Semester)
	if err != nil {
		return err
	}
	year, err := validation.ParseAcademicYear(req.AcademicYear)
	if err != nil {
		return err
	}
	exists, err := s.instructors.Exists(ctx, req.InstructorID)
	if err != nil {
		return appErrors.FromSQL(err, "check instructor")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("instructor %d not found", req.InstructorID))
	}
	return s.teaching.Assign(ctx, &models.Teaches{
		InstructorID: req.InstructorID,
		CourseID:     req.CourseID,
		SectionID:    req.SectionID,
		Semester:     semester,
		AcademicYear: int(year),
	})
}

// UnassignInstructor removes an instructor from a section.
func (s *EnrollmentService) UnassignInstructor(ctx context.Context, req TeachingRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teaching payload")
	}
	semester, err := validation.ParseSemester(req.Semester)
	if err != nil {
		return err
	}
	year, err := validation.ParseAcademicYear(req.AcademicYear)
	if err != nil {
		return err
	}
	return s.teaching.Unassign(ctx, &models.Teaches{
		InstructorID: req.InstructorID,
		CourseID:     req.CourseID,
		SectionID:    req.SectionID,
		Semester:     semester,
		AcademicYear: int(year),
	})
}

// IsEligible reports whether every direct prerequisite of the course is
// satisfied for the student. A course with no prerequisites is always
// eligible; absent data reads as not satisfied.
func (s *EnrollmentService) IsEligible(ctx context.Context, studentID int64, courseID string) (bool, error) {
	unsatisfied, err := s.enrollments.UnsatisfiedPrereqs(ctx, studentID, courseID)
	if err != nil {
		return false, err
	}
	return unsatisfied == 0, nil
}

// Info returns one enrollment with student and section context.
func (s *EnrollmentService) Info(ctx context.Context, req EnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	key, err := s.key(req)
	if err != nil {
		return nil, err
	}
	detail, err := s.enrollments.FindDetail(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound,
				fmt.Sprintf("enrollment '%d-%s-%s' not found", key.StudentID, key.CourseID, key.SectionID))
		}
		return nil, appErrors.FromSQL(err, "load enrollment")
	}
	return detail, nil
}

func (s *EnrollmentService) invalidateRoster(ctx context.Context, key models.EnrollmentKey) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("registrar:section:%s:%s:%s:%d:*", key.CourseID, key.SectionID, key.Semester, key.AcademicYear))
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("registrar:gpa:%d", key.StudentID))
}

func outcomeOf(err error) string {
	appErr := appErrors.FromError(err)
	if appErr == nil {
		return "success"
	}
	return appErr.Code
}
