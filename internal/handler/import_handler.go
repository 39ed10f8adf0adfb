package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

// ImportHandler exposes roster upload, polling, listing and rollback.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler builds the import handler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

// Trigger handles POST /imports with a multipart "file" field and an
// optional "period" form value. Returns 202 with the upload id to poll.
func (h *ImportHandler) Trigger(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Error(c, apperrors.New("VALIDATION_ERROR", 400, "multipart field 'file' is required"))
		return
	}
	defer file.Close() //nolint:errcheck

	var period *int
	if value := c.PostForm("period"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			response.Error(c, apperrors.New("VALIDATION_ERROR", 400, "period must be an integer"))
			return
		}
		period = &parsed
	}

	result, err := h.imports.Trigger(c.Request.Context(), file, header.Filename, header.Size, period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, result, nil)
}

// Status handles GET /imports/:id/status.
func (h *ImportHandler) Status(c *gin.Context) {
	status, err := h.imports.Status(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// List handles GET /imports.
func (h *ImportHandler) List(c *gin.Context) {
	uploads, err := h.imports.ListUploads()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, uploads, nil)
}

// Delete handles DELETE /imports/:id.
func (h *ImportHandler) Delete(c *gin.Context) {
	if err := h.imports.DeleteUpload(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Rollback handles POST /imports/rollback.
func (h *ImportHandler) Rollback(c *gin.Context) {
	var req dto.RollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}
	result, err := h.imports.Rollback(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
