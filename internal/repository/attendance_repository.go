package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// AttendanceRepository persists attendance records in PostgreSQL. The table
// carries UNIQUE (student_id, date), which is the authoritative guard
// against double registration.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository builds an attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByStudentAndDate returns the record for one student on one day, or
// nil when the student has not been registered yet.
func (r *AttendanceRepository) FindByStudentAndDate(ctx context.Context, studentID string, date time.Time) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	query := `
		SELECT id, student_id, date, time, status, note, created_at
		FROM attendance_records
		WHERE student_id = $1 AND date = $2`
	err := r.db.GetContext(ctx, &record, query, studentID, date.Format("2006-01-02"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// Insert adds a record unless one already exists for the student and day.
// It returns false without error when the unique constraint absorbed the
// insert, so concurrent scans race safely.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()

	var id string
	query := `
		INSERT INTO attendance_records (id, student_id, date, time, status, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, date) DO NOTHING
		RETURNING id`
	err := r.db.GetContext(ctx, &id, query,
		record.ID, record.StudentID, record.Date.Format("2006-01-02"),
		record.Time, record.Status, record.Note, record.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert attendance record: %w", err)
	}
	return true, nil
}

// SweepAbsences inserts an absent record for every student without any
// record on the given day. Returns how many rows were created.
func (r *AttendanceRepository) SweepAbsences(ctx context.Context, date time.Time, period *int, at time.Time) (int64, error) {
	conditions := ""
	args := []interface{}{date.Format("2006-01-02"), at.Format("15:04:05"), models.AttendanceAbsent, time.Now().UTC()}
	if period != nil {
		conditions = " AND s.period = $5"
		args = append(args, *period)
	}
	query := `
		INSERT INTO attendance_records (id, student_id, date, time, status, created_at)
		SELECT gen_random_uuid(), s.id, $1, $2, $3, $4
		FROM students s
		WHERE NOT EXISTS (
			SELECT 1 FROM attendance_records ar
			WHERE ar.student_id = s.id AND ar.date = $1
		)` + conditions
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sweep absences: %w", err)
	}
	marked, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count swept absences: %w", err)
	}
	return marked, nil
}

// List returns attendance records with student context plus the unpaged total.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecordDetail, int, error) {
	where, args, argPos := r.buildFilter(filter)

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM attendance_records ar
		JOIN students s ON s.id = ar.student_id
		JOIN grades g ON g.id = s.grade_id
		JOIN sections sec ON sec.id = s.section_id
		WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := `
		SELECT ar.id, ar.student_id, ar.date, ar.time, ar.status, ar.note, ar.created_at,
			TRIM(s.first_name || ' ' || s.last_name) AS student_name,
			s.national_id, g.name AS grade_name, sec.name AS section_name
		FROM attendance_records ar
		JOIN students s ON s.id = ar.student_id
		JOIN grades g ON g.id = s.grade_id
		JOIN sections sec ON sec.id = s.section_id
		WHERE ` + where +
		fmt.Sprintf(" ORDER BY ar.date DESC, ar.time DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, pageSize, (page-1)*pageSize)

	records := []models.AttendanceRecordDetail{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}
	return records, total, nil
}

// Summary aggregates counts per status for records matching the filter.
func (r *AttendanceRepository) Summary(ctx context.Context, filter models.AttendanceFilter) (*models.AttendanceSummary, error) {
	where, args, _ := r.buildFilter(filter)
	query := `
		SELECT
			COUNT(*) FILTER (WHERE ar.status = 'on_time') AS on_time,
			COUNT(*) FILTER (WHERE ar.status = 'late') AS late,
			COUNT(*) FILTER (WHERE ar.status = 'absent') AS absent,
			COUNT(*) AS total
		FROM attendance_records ar
		JOIN students s ON s.id = ar.student_id
		JOIN grades g ON g.id = s.grade_id
		JOIN sections sec ON sec.id = s.section_id
		WHERE ` + where
	var summary models.AttendanceSummary
	if err := r.db.GetContext(ctx, &summary, query, args...); err != nil {
		return nil, fmt.Errorf("summarise attendance: %w", err)
	}
	return &summary, nil
}

func (r *AttendanceRepository) buildFilter(filter models.AttendanceFilter) (string, []interface{}, int) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("ar.date >= $%d", argPos))
		args = append(args, filter.DateFrom.Format("2006-01-02"))
		argPos++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("ar.date <= $%d", argPos))
		args = append(args, filter.DateTo.Format("2006-01-02"))
		argPos++
	}
	if filter.GradeID != "" {
		conditions = append(conditions, fmt.Sprintf("s.grade_id = $%d", argPos))
		args = append(args, filter.GradeID)
		argPos++
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", argPos))
		args = append(args, filter.SectionID)
		argPos++
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("ar.student_id = $%d", argPos))
		args = append(args, filter.StudentID)
		argPos++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("ar.status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Period > 0 {
		conditions = append(conditions, fmt.Sprintf("s.period = $%d", argPos))
		args = append(args, filter.Period)
		argPos++
	}
	return strings.Join(conditions, " AND "), args, argPos
}
