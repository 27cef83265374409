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

type sectionStore interface {
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, key models.SectionKey, upd models.SectionUpdate) error
	Delete(ctx context.Context, key models.SectionKey) error
	Find(ctx context.Context, key models.SectionKey) (*models.Section, error)
	FindDetail(ctx context.Context, key models.SectionKey) (*models.SectionDetail, error)
	List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error)
}

type courseChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// SectionKeyRequest identifies a section via raw inbound fields.
type SectionKeyRequest struct {
	CourseID     string `json:"course_id" validate:"required"`
	SectionID    string `json:"section_id" validate:"required"`
	Semester     string `json:"semester" validate:"required"`
	AcademicYear int    `json:"academic_year" validate:"required"`
}

// CreateSectionRequest carries the inbound section payload. New sections
// always open with an empty roster.
type CreateSectionRequest struct {
	SectionKeyRequest
	TimeSlot string `json:"time_slot" validate:"required"`
	Room     string `json:"room" validate:"required"`
	Capacity int    `json:"capacity" validate:"required"`
}

// SectionService owns the section schedule.
type SectionService struct {
	sections  sectionStore
	courses   courseChecker
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewSectionService(sections sectionStore, courses courseChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, courses: courses, cache: cache, validator: validate, logger: logger}
}

func (s *SectionService) key(req SectionKeyRequest) (models.SectionKey, error) {
	semester, err := validation.ParseSemester(req.Semester)
	if err != nil {
		return models.SectionKey{}, err
	}
	year, err := validation.ParseAcademicYear(req.AcademicYear)
	if err != nil {
		return models.SectionKey{}, err
	}
	return models.SectionKey{
		CourseID:     req.CourseID,
		SectionID:    req.SectionID,
		Semester:     semester,
		AcademicYear: int(year),
	}, nil
}

func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	key, err := s.key(req.SectionKeyRequest)
	if err != nil {
		return nil, err
	}
	slot, err := validation.ParseTimeSlot(req.TimeSlot)
	if err != nil {
		return nil, err
	}
	if err := validation.PositiveCapacity(req.Capacity); err != nil {
		return nil, err
	}
	exists, err := s.courses.Exists(ctx, key.CourseID)
	if err != nil {
		return nil, appErrors.FromSQL(err, "check course")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("course '%s' not found", key.CourseID))
	}

	section := &models.Section{
		SectionKey: key,
		TimeSlot:   slot,
		Room:       req.Room,
		Capacity:   req.Capacity,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)
	s.logger.Info("section created",
		zap.String("course_id", key.CourseID),
		zap.String("section_id", key.SectionID),
		zap.String("semester", string(key.Semester)),
		zap.Int("academic_year", key.AcademicYear),
	)
	return section, nil
}

// Update changes schedule fields. A capacity reduction below the current
// roster count is rejected by the store.
func (s *SectionService) Update(ctx context.Context, req SectionKeyRequest, upd models.SectionUpdate) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	key, err := s.key(req)
	if err != nil {
		return nil, err
	}
	if upd.TimeSlot != nil {
		if _, err := validation.ParseTimeSlot(*upd.TimeSlot); err != nil {
			return nil, err
		}
	}
	if upd.Capacity != nil {
		if err := validation.PositiveCapacity(*upd.Capacity); err != nil {
			return nil, err
		}
	}
	if err := s.sections.Update(ctx, key, upd); err != nil {
		return nil, err
	}
	s.invalidate(ctx, key)
	return s.Get(ctx, req)
}

func (s *SectionService) Delete(ctx context.Context, req SectionKeyRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	key, err := s.key(req)
	if err != nil {
		return err
	}
	if err := s.sections.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	s.logger.Info("section deleted", zap.String("course_id", key.CourseID), zap.String("section_id", key.SectionID))
	return nil
}

func (s *SectionService) Get(ctx context.Context, req SectionKeyRequest) (*models.Section, error) {
	key, err := s.key(req)
	if err != nil {
		return nil, err
	}
	section, err := s.sections.Find(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("section '%s-%s' not found", key.CourseID, key.SectionID))
		}
		return nil, appErrors.FromSQL(err, "load section")
	}
	return section, nil
}

// GetDetail returns the section with course and instructor context, cached
// per section key when caching is on.
func (s *SectionService) GetDetail(ctx context.Context, req SectionKeyRequest) (*models.SectionDetail, error) {
	key, err := s.key(req)
	if err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf("registrar:section:%s:%s:%s:%d:detail", key.CourseID, key.SectionID, key.Semester, key.AcademicYear)
	if s.cache.Enabled() {
		var cached models.SectionDetail
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}
	detail, err := s.sections.FindDetail(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrRecordNotFound, fmt.Sprintf("section '%s-%s' not found", key.CourseID, key.SectionID))
		}
		return nil, appErrors.FromSQL(err, "load section")
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, detail, 0)
	}
	return detail, nil
}

func (s *SectionService) List(ctx context.Context, filter models.SectionFilter) ([]models.SectionDetail, error) {
	if filter.Semester != "" {
		if _, err := validation.ParseSemester(filter.Semester); err != nil {
			return nil, err
		}
	}
	return s.sections.List(ctx, filter)
}

func (s *SectionService) invalidate(ctx context.Context, key models.SectionKey) {
	if !s.cache.Enabled() {
		return
	}
	_ = s.cache.Invalidate(ctx, fmt.Sprintf("registrar:section:%s:%s:%s:%d:*", key.CourseID, key.SectionID, key.Semester, key.AcademicYear))
}
