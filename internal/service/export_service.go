package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/models"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/export"
)

var reportHeaders = []string{"Date", "Time", "National ID", "Student", "Grade", "Section", "Status"}

// ExportService renders attendance reports as downloadable CSV or PDF.
type ExportService struct {
	attendance attendanceRepository
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService builds the export service.
func NewExportService(attendance attendanceRepository, logger *zap.Logger) *ExportService {
	return &ExportService{
		attendance: attendance,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// Render produces the report in the requested format and returns the file
// bytes, a download name and the content type.
func (s *ExportService) Render(ctx context.Context, filter models.AttendanceFilter, format string) ([]byte, string, string, error) {
	// Exports are unpaged; cap at a sane upper bound.
	filter.Page = 1
	filter.PageSize = 10000

	records, _, err := s.attendance.List(ctx, filter)
	if err != nil {
		return nil, "", "", apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list attendance")
	}
	dataset := buildReportDataset(records)
	stamp := time.Now().Format("20060102_150405")

	switch format {
	case "csv", "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", apperrors.Wrap(err, "EXPORT_ERROR", 500, "failed to render csv")
		}
		return data, fmt.Sprintf("attendance_%s.csv", stamp), "text/csv", nil
	case "pdf":
		data, err := s.pdf.Render(dataset, "Attendance Report")
		if err != nil {
			return nil, "", "", apperrors.Wrap(err, "EXPORT_ERROR", 500, "failed to render pdf")
		}
		return data, fmt.Sprintf("attendance_%s.pdf", stamp), "application/pdf", nil
	default:
		return nil, "", "", apperrors.New("VALIDATION_ERROR", 400, "format must be csv or pdf")
	}
}

func buildReportDataset(records []models.AttendanceRecordDetail) export.Dataset {
	rows := make([]map[string]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, map[string]string{
			"Date":        record.Date.Format("2006-01-02"),
			"Time":        record.Time,
			"National ID": record.NationalID,
			"Student":     record.StudentName,
			"Grade":       record.GradeName,
			"Section":     record.SectionName,
			"Status":      string(record.Status),
		})
	}
	return export.Dataset{Headers: reportHeaders, Rows: rows}
}
