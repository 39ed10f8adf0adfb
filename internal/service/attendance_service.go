package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

// Window holds the school day boundaries as seconds since midnight in the
// school's timezone. A scan at or before LateThreshold is on time, one at
// or before End is late, and anything after End is rejected.
type Window struct {
	Start         int
	LateThreshold int
	End           int
	Location      *time.Location
}

// NewWindow parses the configured clock times into a Window.
func NewWindow(cfg config.AttendanceConfig) (Window, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Window{}, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}
	start, err := parseClock(cfg.ClassStart)
	if err != nil {
		return Window{}, fmt.Errorf("parse class start: %w", err)
	}
	late, err := parseClock(cfg.LateThreshold)
	if err != nil {
		return Window{}, fmt.Errorf("parse late threshold: %w", err)
	}
	end, err := parseClock(cfg.ClassEnd)
	if err != nil {
		return Window{}, fmt.Errorf("parse class end: %w", err)
	}
	if start > late || late > end {
		return Window{}, fmt.Errorf("window out of order: start %s, late %s, end %s",
			cfg.ClassStart, cfg.LateThreshold, cfg.ClassEnd)
	}
	return Window{Start: start, LateThreshold: late, End: end, Location: loc}, nil
}

// Classify maps a scan moment onto a status. ok is false when the day has
// already ended and the scan must be rejected.
func (w Window) Classify(at time.Time) (status models.AttendanceStatus, ok bool) {
	local := at.In(w.Location)
	clock := local.Hour()*3600 + local.Minute()*60 + local.Second()
	switch {
	case clock <= w.LateThreshold:
		return models.AttendanceOnTime, true
	case clock <= w.End:
		return models.AttendanceLate, true
	default:
		return "", false
	}
}

// EndClock formats the window's end boundary as HH:MM.
func (w Window) EndClock() string {
	return fmt.Sprintf("%02d:%02d", w.End/3600, (w.End%3600)/60)
}

func parseClock(value string) (int, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Hour()*3600 + t.Minute()*60 + t.Second(), nil
		}
	}
	return 0, fmt.Errorf("invalid clock value %q", value)
}

type attendanceRepository interface {
	FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error)
	Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error)
	SweepAbsences(ctx context.Context, date time.Time, period *int, at time.Time) (int64, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error)
	Summary(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceSummary, error)
}

type studentDirectory interface {
	FindByQRCode(ctx context.Context, code string) (*models.StudentDetail, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	CountAll(ctx context.Context, period *int) (int, error)
}

type scanMeter interface {
	IncScan(result string)
}

// AttendanceService classifies scans against the school day window and
// manages attendance records.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentDirectory
	window    Window
	validator *validator.Validate
	logger    *zap.Logger
	metrics   scanMeter
	now       func() time.Time
}

// NewAttendanceService builds the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentDirectory, window Window, validate *validator.Validate, logger *zap.Logger, metrics scanMeter) *AttendanceService {
	return &AttendanceService{
		repo:      repo,
		students:  students,
		window:    window,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Scan registers a QR scan. The duplicate pre-check exists only to give the
// kiosk a friendly message; the unique constraint in the repository is what
// actually guards against concurrent double registration.
func (s *AttendanceService) Scan(ctx context.Context, req dto.ScanRequest) (*dto.ScanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "qr code is required")
	}

	student, err := s.students.FindByQRCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.countScan("unknown_code")
			return nil, apperrors.ErrUnknownCode
		}
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to resolve qr code")
	}

	now := s.now().In(s.window.Location)
	day := dateOf(now)

	existing, err := s.repo.FindByStudentAndDate(ctx, student.ID, day)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to check attendance")
	}
	if existing != nil {
		s.countScan("duplicate")
		return nil, s.alreadyRecorded(student, existing)
	}

	status, open := s.window.Classify(now)
	if !open {
		s.countScan("window_closed")
		return nil, apperrors.Clone(apperrors.ErrWindowClosed,
			fmt.Sprintf("class day ended at %s, attendance can no longer be recorded", s.window.EndClock()))
	}

	record := &models.AttendanceRecord{
		StudentID: student.ID,
		Date:      day,
		Time:      now.Format("15:04:05"),
		Status:    status,
	}
	created, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to record attendance")
	}
	if !created {
		// Lost the race against a concurrent scan of the same code.
		s.countScan("duplicate")
		existing, err := s.repo.FindByStudentAndDate(ctx, student.ID, day)
		if err != nil || existing == nil {
			return nil, apperrors.ErrAlreadyRecorded
		}
		return nil, s.alreadyRecorded(student, existing)
	}

	s.countScan(string(status))
	s.logger.Sugar().Infow("attendance recorded",
		"student_id", student.ID, "national_id", student.NationalID,
		"status", status, "time", record.Time)

	return &dto.ScanResult{
		Student:    student.DisplayName(),
		NationalID: student.NationalID,
		Grade:      student.GradeName,
		Section:    student.SectionName,
		Status:     status,
		Time:       now.Format("15:04"),
	}, nil
}

// MarkManual records attendance entered by staff. An explicit status
// overrides the on-time/late classification, but no registration is
// accepted after the class day ends.
func (s *AttendanceService) MarkManual(ctx context.Context, req dto.ManualAttendanceRequest) (*dto.ScanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid manual attendance request")
	}
	if req.Status != "" && !models.AttendanceStatus(req.Status).Valid() {
		return nil, apperrors.New("VALIDATION_ERROR", 400, "unknown attendance status")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Clone(apperrors.ErrNotFound, "student not found")
		}
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to load student")
	}

	now := s.now().In(s.window.Location)
	day := dateOf(now)

	existing, err := s.repo.FindByStudentAndDate(ctx, student.ID, day)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to check attendance")
	}
	if existing != nil {
		return nil, s.alreadyRecorded(student, existing)
	}

	deduced, open := s.window.Classify(now)
	if !open {
		return nil, apperrors.Clone(apperrors.ErrWindowClosed,
			fmt.Sprintf("class day ended at %s, attendance can no longer be recorded", s.window.EndClock()))
	}
	status := models.AttendanceStatus(req.Status)
	if status == "" {
		status = deduced
	}

	record := &models.AttendanceRecord{
		StudentID: student.ID,
		Date:      day,
		Time:      now.Format("15:04:05"),
		Status:    status,
	}
	if req.Note != "" {
		note := req.Note
		record.Note = &note
	}
	created, err := s.repo.Insert(ctx, record)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to record attendance")
	}
	if !created {
		return nil, s.alreadyRecorded(student, existing)
	}

	return &dto.ScanResult{
		Student:    student.DisplayName(),
		NationalID: student.NationalID,
		Grade:      student.GradeName,
		Section:    student.SectionName,
		Status:     status,
		Time:       now.Format("15:04"),
	}, nil
}

// SweepAbsences marks every student without a record for the given day as
// absent. A nil date means today in the school's timezone; an explicit date
// is taken as a calendar day and never shifted across timezones. Students
// scanned between the count and the insert are simply not marked; the
// insert re-checks per student. Safe to run repeatedly.
func (s *AttendanceService) SweepAbsences(ctx context.Context, date *time.Time, period *int) (*models.SweepResult, error) {
	now := s.now().In(s.window.Location)
	day := dateOf(now)
	if date != nil {
		day = dateOf(*date)
	}

	reviewed, err := s.students.CountAll(ctx, period)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to count students")
	}
	marked, err := s.repo.SweepAbsences(ctx, day, period, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to sweep absences")
	}

	s.logger.Sugar().Infow("absence sweep finished",
		"date", day.Format("2006-01-02"), "reviewed", reviewed, "marked", marked)

	return &models.SweepResult{
		Date:     day.Format("2006-01-02"),
		Reviewed: reviewed,
		Marked:   int(marked),
	}, nil
}

// Report lists attendance records with a per-status summary.
func (s *AttendanceService) Report(ctx context.Context, filter models.AttendanceFilter) (*dto.AttendanceReport, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list attendance")
	}
	summary, err := s.repo.Summary(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to summarise attendance")
	}
	return &dto.AttendanceReport{
		Records:    records,
		Summary:    *summary,
		Pagination: models.NewPagination(filter.Page, filter.PageSize, total),
	}, nil
}

// TodaySummary aggregates today's counts, used by the dashboard.
func (s *AttendanceService) TodaySummary(ctx context.Context) (*models.AttendanceSummary, error) {
	day := dateOf(s.now().In(s.window.Location))
	summary, err := s.repo.Summary(ctx, models.AttendanceFilter{DateFrom: &day, DateTo: &day})
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to summarise attendance")
	}
	return summary, nil
}

func (s *AttendanceService) alreadyRecorded(student *models.StudentDetail, existing *models.AttendanceRecord) error {
	at := existing.Time
	if len(at) >= 5 {
		at = at[:5]
	}
	return apperrors.Clone(apperrors.ErrAlreadyRecorded,
		fmt.Sprintf("%s already has attendance recorded today at %s", student.DisplayName(), at))
}

func (s *AttendanceService) countScan(result string) {
	if s.metrics != nil {
		s.metrics.IncScan(result)
	}
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
