package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusworks/registrar-api/internal/service"
	appErrors "github.com/campusworks/registrar-api/pkg/errors"
	"github.com/campusworks/registrar-api/pkg/response"
)

// AdvisorHandler exposes advisor assignment endpoints.
type AdvisorHandler struct {
	advisors *service.AdvisorService
}

// NewAdvisorHandler constructs handler.
func NewAdvisorHandler(advisors *service.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisors: advisors}
}

// Assign godoc
// @Summary Assign or replace a student's advisor
// @Tags Advisors
// @Accept json
// @Produce json
// @Param payload body service.AssignAdvisorRequest true "Advisor payload"
// @Success 200 {object} response.Envelope
// @Router /advisors [put]
func (h *AdvisorHandler) Assign(c *gin.Context) {
	var req service.AssignAdvisorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	advisor, err := h.advisors.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, advisor, nil)
}

// Info godoc
// @Summary Look up a student's advisor
// @Tags Advisors
// @Produce json
// @Param studentId path int true "Student id"
// @Success 200 {object} response.Envelope
// @Router /advisors/{studentId} [get]
func (h *AdvisorHandler) Info(c *gin.Context) {
	studentID, err := int64Param(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	info, err := h.advisors.Info(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
