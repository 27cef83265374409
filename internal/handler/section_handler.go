package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/models"
	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// SectionHandler exposes section schedule endpoints. Section keys arrive as
// path segments: /sections/{courseId}/{sectionId}/{semester}/{year}.
type SectionHandler struct {
	sections *service.SectionService
}

// NewSectionHandler constructs handler.
func NewSectionHandler(sections *service.SectionService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// Create godoc
// @Summary Schedule a section
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Get godoc
// @Summary Look up a section with course and instructor detail
// @Tags Sections
// @Produce json
// @Param courseId path string true "Course id"
// @Param sectionId path string true "Section id"
// @Param semester path string true "Semester"
// @Param year path int true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /sections/{courseId}/{sectionId}/{semester}/{year} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	detail, err := h.sections.GetDetail(c.Request.Context(), h.keyRequest(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List sections, optionally by term
// @Tags Sections
// @Produce json
// @Param semester query string false "Semester"
// @Param year query int false "Academic year"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	filter := models.SectionFilter{
		Semester:     c.Query("semester"),
		AcademicYear: intQuery(c, "year", 0),
	}
	sections, err := h.sections.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Update godoc
// @Summary Update section schedule fields
// @Tags Sections
// @Accept json
// @Produce json
// @Param courseId path string true "Course id"
// @Param sectionId path string true "Section id"
// @Param semester path string true "Semester"
// @Param year path int true "Academic year"
// @Param payload body models.SectionUpdate true "Fields to change"
// @Success 200 {object} response.Envelope
// @Router /sections/{courseId}/{sectionId}/{semester}/{year} [patch]
func (h *SectionHandler) Update(c *gin.Context) {
	var upd models.SectionUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	section, err := h.sections.Update(c.Request.Context(), h.keyRequest(c), upd)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Delete godoc
// @Summary Remove a section and its enrollment records
// @Tags Sections
// @Param courseId path string true "Course id"
// @Param sectionId path string true "Section id"
// @Param semester path string true "Semester"
// @Param year path int true "Academic year"
// @Success 204
// @Router /sections/{courseId}/{sectionId}/{semester}/{year} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.sections.Delete(c.Request.Context(), h.keyRequest(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *SectionHandler) keyRequest(c *gin.Context) service.SectionKeyRequest {
	req := service.SectionKeyRequest{
		CourseID:  c.Param("courseId"),
		SectionID: c.Param("sectionId"),
		Semester:  c.Param("semester"),
	}
	if year, err := int64Param(c, "year"); err == nil {
		req.AcademicYear = int(year)
	}
	return req
}
