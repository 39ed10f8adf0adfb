package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/response"
)

// AttendanceHandler exposes scan, manual marking, sweep and reporting.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	exports    *service.ExportService
}

// NewAttendanceHandler builds the attendance handler.
func NewAttendanceHandler(attendance *service.AttendanceService, exports *service.ExportService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, exports: exports}
}

// Scan handles POST /attendance/scan. The kiosk consumes a flat contract
// rather than the common envelope: {success, student, ...} on success and
// {success: false, message} on any rejection.
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ScanResponse{Success: false, Message: "qr code is required"})
		return
	}

	result, err := h.attendance.Scan(c.Request.Context(), req)
	if err != nil {
		appErr := apperrors.FromError(err)
		c.JSON(appErr.Status, dto.ScanResponse{Success: false, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusOK, dto.ScanResponse{
		Success:    true,
		Student:    result.Student,
		NationalID: result.NationalID,
		Grade:      result.Grade,
		Section:    result.Section,
		Status:     result.Status,
		Time:       result.Time,
	})
}

// MarkManual handles POST /attendance/manual.
func (h *AttendanceHandler) MarkManual(c *gin.Context) {
	var req dto.ManualAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}
	result, err := h.attendance.MarkManual(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Sweep handles POST /attendance/sweep, marking absences for one day.
func (h *AttendanceHandler) Sweep(c *gin.Context) {
	var req dto.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid request body"))
		return
	}

	var date *time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			response.Error(c, apperrors.New("VALIDATION_ERROR", 400, "date must be YYYY-MM-DD"))
			return
		}
		date = &parsed
	}
	result, err := h.attendance.SweepAbsences(c.Request.Context(), date, req.Period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Report handles GET /attendance/report.
func (h *AttendanceHandler) Report(c *gin.Context) {
	filter, err := parseAttendanceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.attendance.Report(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, report.Pagination)
}

// Export handles GET /attendance/report/export?format=csv|pdf.
func (h *AttendanceHandler) Export(c *gin.Context) {
	filter, err := parseAttendanceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	data, name, contentType, err := h.exports.Render(c.Request.Context(), filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func parseAttendanceFilter(c *gin.Context) (models.AttendanceFilter, error) {
	filter := models.AttendanceFilter{
		GradeID:   c.Query("grade_id"),
		SectionID: c.Query("section_id"),
		StudentID: c.Query("student_id"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		Period:    queryInt(c, "period", 0),
	}
	if status := c.Query("status"); status != "" {
		if !models.AttendanceStatus(status).Valid() {
			return filter, apperrors.New("VALIDATION_ERROR", 400, "unknown attendance status")
		}
		filter.Status = models.AttendanceStatus(status)
	}
	for query, target := range map[string]**time.Time{
		"date_from": &filter.DateFrom,
		"date_to":   &filter.DateTo,
	} {
		if value := c.Query(query); value != "" {
			parsed, err := time.Parse("2006-01-02", value)
			if err != nil {
				return filter, apperrors.New("VALIDATION_ERROR", 400, query+" must be YYYY-MM-DD")
			}
			*target = &parsed
		}
	}
	return filter, nil
}
