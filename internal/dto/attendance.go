package dto

import "github.com/noah-isme/qr-attendance-api/internal/models"

// ScanRequest is the kiosk payload carrying the scanned QR content.
type ScanRequest struct {
	Code string `json:"code" validate:"required"`
}

// ScanResult is returned after a successful registration.
type ScanResult struct {
	Student    string                  `json:"student"`
	NationalID string                  `json:"national_id"`
	Grade      string                  `json:"grade"`
	Section    string                  `json:"section"`
	Status     models.AttendanceStatus `json:"status"`
	Time       string                  `json:"time"`
}

// ScanResponse is the flat contract the kiosk consumes. On failure only
// Success and Message are populated.
type ScanResponse struct {
	Success    bool                    `json:"success"`
	Student    string                  `json:"student,omitempty"`
	NationalID string                  `json:"national_id,omitempty"`
	Grade      string                  `json:"grade,omitempty"`
	Section    string                  `json:"section,omitempty"`
	Status     models.AttendanceStatus `json:"status,omitempty"`
	Time       string                  `json:"time,omitempty"`
	Message    string                  `json:"message,omitempty"`
}

// ManualAttendanceRequest records attendance entered by staff.
type ManualAttendanceRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Status    string `json:"status,omitempty"`
	Note      string `json:"note,omitempty"`
}

// SweepRequest triggers an absence sweep for one day.
type SweepRequest struct {
	Date   string `json:"date,omitempty"`
	Period *int   `json:"period,omitempty"`
}

// AttendanceReport bundles records, a summary and paging metadata.
type AttendanceReport struct {
	Records    []models.AttendanceRecordDetail `json:"records"`
	Summary    models.AttendanceSummary        `json:"summary"`
	Pagination *models.Pagination              `json:"pagination"`
}
