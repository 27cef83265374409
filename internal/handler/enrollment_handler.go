package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// EnrollmentHandler exposes enrollment, grading and teaching endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll a student into a section
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	takes, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, takes)
}

// Cancel godoc
// @Summary Cancel an enrollment, releasing its seat
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 204
// @Router /enrollments/cancel [post]
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.enrollments.Cancel(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AssignGrade godoc
// @Summary Assign or overwrite a grade on an enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.GradeRequest true "Grade payload"
// @Success 204
// @Router /enrollments/grade [put]
func (h *EnrollmentHandler) AssignGrade(c *gin.Context) {
	var req service.GradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.enrollments.AssignGrade(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Info godoc
// @Summary Look up one enrollment with student and section context
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment key"
// @Success 200 {object} response.Envelope
// @Router /enrollments/info [post]
func (h *EnrollmentHandler) Info(c *gin.Context) {
	var req service.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.enrollments.Info(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Eligibility godoc
// @Summary Check whether a student satisfies a course's prerequisites
// @Tags Enrollments
// @Produce json
// @Param id path int true "Student id"
// @Param courseId path string true "Course id"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/eligibility/{courseId} [get]
func (h *EnrollmentHandler) Eligibility(c *gin.Context) {
	studentID, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	eligible, err := h.enrollments.IsEligible(c.Request.Context(), studentID, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"student_id": studentID, "course_id": c.Param("courseId"), "eligible": eligible}, nil)
}

// AssignInstructor godoc
// @Summary Assign an instructor to a section
// @Tags Teaching
// @Accept json
// @Produce json
// @Param payload body service.TeachingRequest true "Teaching payload"
// @Success 204
// @Router /teaching [post]
func (h *EnrollmentHandler) AssignInstructor(c *gin.Context) {
	var req service.TeachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.enrollments.AssignInstructor(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UnassignInstructor godoc
// @Summary Remove an instructor from a section
// @Tags Teaching
// @Accept json
// @Produce json
// @Param payload body service.TeachingRequest true "Teaching payload"
// @Success 204
// @Router /teaching [delete]
func (h *EnrollmentHandler) UnassignInstructor(c *gin.Context) {
	var req service.TeachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.enrollments.UnassignInstructor(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
