package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type attendanceRepoMock struct {
	records     map[string]*models.AttendanceRecord
	insertCalls int
	sweepMarked int64
	sweepCalls  int
	hideFinds   int
}

func newAttendanceRepoMock() *attendanceRepoMock {
	return &attendanceRepoMock{records: map[string]*models.AttendanceRecord{}}
}

func (m *attendanceRepoMock) key(studentID string, date time.Time) string {
	return studentID + "|" + date.Format("2006-01-02")
}

func (m *attendanceRepoMock) FindByStudentAndDate(_ context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	if m.hideFinds > 0 {
		m.hideFinds--
		return nil, nil
	}
	return m.records[m.key(studentID, date)], nil
}

func (m *attendanceRepoMock) Insert(_ context.Context, record *models.AttendanceRecord) (bool, error) {
	m.insertCalls++
	key := m.key(record.StudentID, record.Date)
	if _, exists := m.records[key]; exists {
		return false, nil
	}
	m.records[key] = record
	return true, nil
}

func (m *attendanceRepoMock) SweepAbsences(_ context.Context, _ time.Time, _ *int, _ time.Time) (int64, error) {
	m.sweepCalls++
	marked := m.sweepMarked
	m.sweepMarked = 0
	return marked, nil
}

func (m *attendanceRepoMock) List(_ context.Context, _ models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	return nil, 0, nil
}

func (m *attendanceRepoMock) Summary(_ context.Context, _ models.AttendanceFilter) (*models.AttendanceSummary, error) {
	return &models.AttendanceSummary{}, nil
}

type studentDirectoryMock struct {
	byCode map[string]*models.StudentDetail
	byID   map[string]*models.StudentDetail
	total  int
}

func (m *studentDirectoryMock) FindByQRCode(_ context.Context, code string) (*models.StudentDetail, error) {
	if student, ok := m.byCode[code]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *studentDirectoryMock) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if student, ok := m.byID[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

func (m *studentDirectoryMock) CountAll(_ context.Context, _ *int) (int, error) {
	return m.total, nil
}

const testStudentID = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"

func testStudent() *models.StudentDetail {
	return &models.StudentDetail{
		Student: models.Student{
			ID:         testStudentID,
			NationalID: "12345678",
			FirstName:  "Ana",
			LastName:   "Perez",
			QRCode:     "12345678",
		},
		GradeName:   "5to",
		SectionName: "A",
	}
}

func testWindow(t *testing.T) Window {
	t.Helper()
	window, err := NewWindow(config.AttendanceConfig{
		ClassStart:    "12:30",
		LateThreshold: "12:40",
		ClassEnd:      "17:30",
		Timezone:      "UTC",
	})
	require.NoError(t, err)
	return window
}

func newTestAttendanceService(t *testing.T, repo *attendanceRepoMock, students *studentDirectoryMock) *AttendanceService {
	t.Helper()
	return NewAttendanceService(repo, students, testWindow(t), validator.New(), zap.NewNop(), nil)
}

func atClock(t *testing.T, clock string) func() time.Time {
	t.Helper()
	moment, err := time.Parse(time.RFC3339, "2025-08-18T"+clock+"Z")
	require.NoError(t, err)
	return func() time.Time { return moment }
}

func TestScanClassifiesOnTime(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:35:00")

	result, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnTime, result.Status)
	assert.Equal(t, "Ana Perez", result.Student)
	assert.Equal(t, "12:35", result.Time)
}

func TestScanAtThresholdIsOnTime(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:40:00")

	result, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnTime, result.Status)
}

func TestScanAfterThresholdIsLate(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:40:01")

	result, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, result.Status)
}

func TestScanAtClassEndIsLate(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "17:30:00")

	result, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, result.Status)
}

func TestScanAfterClassEndIsRejected(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "17:30:01")

	_, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.Error(t, err)
	assert.Equal(t, "WINDOW_CLOSED", apperrors.FromError(err).Code)
	assert.Zero(t, repo.insertCalls, "no record may be written after the window closes")
}

func TestScanUnknownCode(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:35:00")

	_, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "nope"})
	require.Error(t, err)
	assert.Equal(t, "UNKNOWN_CODE", apperrors.FromError(err).Code)
}

func TestScanDuplicateSameDay(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": testStudent()}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:35:00")

	_, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.NoError(t, err)

	svc.now = atClock(t, "13:00:00")
	_, err = svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.Error(t, err)
	appErr := apperrors.FromError(err)
	assert.Equal(t, "ALREADY_RECORDED", appErr.Code)
	assert.Contains(t, appErr.Message, "12:35")
	assert.Equal(t, 1, repo.insertCalls)
}

func TestScanInsertConflictReportsDuplicate(t *testing.T) {
	// Pre-check passes but the unique constraint absorbs the insert,
	// mimicking two kiosks racing on the same code.
	repo := newAttendanceRepoMock()
	student := testStudent()
	students := &studentDirectoryMock{byCode: map[string]*models.StudentDetail{"12345678": student}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "12:35:00")

	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	repo.records[repo.key(student.ID, day)] = &models.AttendanceRecord{
		StudentID: student.ID, Date: day, Time: "12:34:00", Status: models.AttendanceOnTime,
	}
	// The pre-check misses, the insert hits the constraint, and the
	// follow-up lookup produces the friendly message.
	repo.hideFinds = 1

	_, err := svc.Scan(context.Background(), dto.ScanRequest{Code: "12345678"})
	require.Error(t, err)
	appErr := apperrors.FromError(err)
	assert.Equal(t, "ALREADY_RECORDED", appErr.Code)
	assert.Contains(t, appErr.Message, "12:34")
}

func TestMarkManualExplicitStatus(t *testing.T) {
	repo := newAttendanceRepoMock()
	student := testStudent()
	students := &studentDirectoryMock{byID: map[string]*models.StudentDetail{student.ID: student}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "15:00:00")

	result, err := svc.MarkManual(context.Background(), dto.ManualAttendanceRequest{
		StudentID: student.ID, Status: "on_time", Note: "arrived with a medical excuse",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceOnTime, result.Status)
}

func TestMarkManualRejectedAfterClassEnd(t *testing.T) {
	repo := newAttendanceRepoMock()
	student := testStudent()
	students := &studentDirectoryMock{byID: map[string]*models.StudentDetail{student.ID: student}}
	svc := newTestAttendanceService(t, repo, students)
	svc.now = atClock(t, "18:00:00")

	// An explicit status does not reopen the day.
	_, err := svc.MarkManual(context.Background(), dto.ManualAttendanceRequest{
		StudentID: student.ID, Status: "on_time",
	})
	require.Error(t, err)
	assert.Equal(t, "WINDOW_CLOSED", apperrors.FromError(err).Code)
	assert.Zero(t, repo.insertCalls)
}

func TestMarkManualRejectsUnknownStatus(t *testing.T) {
	repo := newAttendanceRepoMock()
	student := testStudent()
	students := &studentDirectoryMock{byID: map[string]*models.StudentDetail{student.ID: student}}
	svc := newTestAttendanceService(t, repo, students)

	_, err := svc.MarkManual(context.Background(), dto.ManualAttendanceRequest{
		StudentID: student.ID, Status: "present",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.FromError(err).Code)
}

func TestSweepAbsences(t *testing.T) {
	repo := newAttendanceRepoMock()
	repo.sweepMarked = 7
	students := &studentDirectoryMock{total: 30}
	svc := newTestAttendanceService(t, repo, students)

	day := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	result, err := svc.SweepAbsences(context.Background(), &day, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, result.Reviewed)
	assert.Equal(t, 7, result.Marked)
	assert.Equal(t, "2025-08-18", result.Date)
}

func TestSweepExplicitDateKeepsCalendarDay(t *testing.T) {
	repo := newAttendanceRepoMock()
	students := &studentDirectoryMock{}
	window, err := NewWindow(config.AttendanceConfig{
		ClassStart:    "12:30",
		LateThreshold: "12:40",
		ClassEnd:      "17:30",
		Timezone:      "America/Lima",
	})
	require.NoError(t, err)
	svc := NewAttendanceService(repo, students, window, validator.New(), zap.NewNop(), nil)

	// A date parsed as midnight UTC must not drift to the previous day
	// when the school runs behind UTC.
	day, err := time.Parse("2006-01-02", "2025-08-18")
	require.NoError(t, err)

	result, err := svc.SweepAbsences(context.Background(), &day, nil)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-18", result.Date)
}

func TestSweepAbsencesIdempotent(t *testing.T) {
	repo := newAttendanceRepoMock()
	repo.sweepMarked = 5
	students := &studentDirectoryMock{total: 5}
	svc := newTestAttendanceService(t, repo, students)

	first, err := svc.SweepAbsences(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, first.Marked)

	second, err := svc.SweepAbsences(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Marked, "second run finds nothing to mark")
	assert.Equal(t, 2, repo.sweepCalls)
}

func TestNewWindowRejectsDisorder(t *testing.T) {
	_, err := NewWindow(config.AttendanceConfig{
		ClassStart:    "12:30",
		LateThreshold: "12:20",
		ClassEnd:      "17:30",
		Timezone:      "UTC",
	})
	assert.Error(t, err)
}

func TestScanValidation(t *testing.T) {
	svc := newTestAttendanceService(t, newAttendanceRepoMock(), &studentDirectoryMock{})
	_, err := svc.Scan(context.Background(), dto.ScanRequest{})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", apperrors.FromError(err).Code)
}
