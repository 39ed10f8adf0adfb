package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

// GradeHandler exposes grade and section management.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler builds the grade handler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// ListGrades handles GET /grades.
func (h *GradeHandler) ListGrades(c *gin.Context) {
	grades, err := h.grades.ListGrades(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grades, nil)
}

// CreateGrade handles POST /grades.
func (h *GradeHandler) CreateGrade(c *gin.Context) {
	var req dto.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}
	grade, err := h.grades.CreateGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// ListSections handles GET /sections?grade_id=...
func (h *GradeHandler) ListSections(c *gin.Context) {
	sections, err := h.grades.ListSections(c.Request.Context(), c.Query("grade_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// CreateSection handles POST /sections.
func (h *GradeHandler) CreateSection(c *gin.Context) {
	var req dto.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}
	section, err := h.grades.CreateSection(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// BulkCreateSections handles POST /sections/bulk.
func (h *GradeHandler) BulkCreateSections(c *gin.Context) {
	var req dto.BulkSectionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}
	processed, err := h.grades.BulkCreateSections(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"processed": processed}, nil)
}
