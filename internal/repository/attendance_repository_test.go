package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestAttendanceInsertReturnsCreated(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`INSERT INTO attendance_records`).
		WithArgs(sqlmock.AnyArg(), "student-1", "2025-08-18", "12:35:00", models.AttendanceOnTime, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("rec-1"))

	created, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		StudentID: "student-1",
		Date:      time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
		Time:      "12:35:00",
		Status:    models.AttendanceOnTime,
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertConflictReturnsFalse(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	// ON CONFLICT DO NOTHING yields no row when the record already exists.
	mock.ExpectQuery(`INSERT INTO attendance_records`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	created, err := repo.Insert(context.Background(), &models.AttendanceRecord{
		StudentID: "student-1",
		Date:      time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC),
		Time:      "12:36:00",
		Status:    models.AttendanceLate,
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceFindByStudentAndDateMiss(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(`SELECT id, student_id, date, time, status, note, created_at`).
		WithArgs("student-1", "2025-08-18").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	record, err := repo.FindByStudentAndDate(context.Background(), "student-1",
		time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepAbsencesCountsInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(`INSERT INTO attendance_records`).
		WithArgs("2025-08-18", "18:00:00", models.AttendanceAbsent, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	marked, err := repo.SweepAbsences(context.Background(),
		time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), nil,
		time.Date(2025, 8, 18, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(7), marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweepAbsencesWithPeriod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)
	period := 2025

	mock.ExpectExec(`INSERT INTO attendance_records`).
		WithArgs("2025-08-18", "18:00:00", models.AttendanceAbsent, sqlmock.AnyArg(), period).
		WillReturnResult(sqlmock.NewResult(0, 2))

	marked, err := repo.SweepAbsences(context.Background(),
		time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC), &period,
		time.Date(2025, 8, 18, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceSummary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAttendanceRepository(db)

	from := time.Date(2025, 8, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT`).
		WithArgs("2025-08-18").
		WillReturnRows(sqlmock.NewRows([]string{"on_time", "late", "absent", "total"}).AddRow(20, 5, 3, 28))

	summary, err := repo.Summary(context.Background(), models.AttendanceFilter{DateFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, 20, summary.OnTime)
	assert.Equal(t, 5, summary.Late)
	assert.Equal(t, 3, summary.Absent)
	assert.Equal(t, 28, summary.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
