package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

const studentDetailColumns = `
	s.id, s.national_id, s.first_name, s.last_name, s.birth_date, s.qr_code,
	s.grade_id, s.section_id, s.guardian_id, s.period, s.internal_code,
	s.enrollment_status, s.notes, s.created_at, s.updated_at,
	g.name AS grade_name, sec.name AS section_name,
	TRIM(COALESCE(gu.first_name, '') || ' ' || COALESCE(gu.last_name, '')) AS guardian_name`

const studentDetailJoins = `
	FROM students s
	JOIN grades g ON g.id = s.grade_id
	JOIN sections sec ON sec.id = s.section_id
	LEFT JOIN guardians gu ON gu.id = s.guardian_id`

// StudentRepository persists students in PostgreSQL.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository builds a student repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the filter plus the unpaged total.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argPos := 1

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
	if filter.Period > 0 {
		conditions = append(conditions, fmt.Sprintf("s.period = $%d", argPos))
		args = append(args, filter.Period)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(s.first_name ILIKE $%d OR s.last_name ILIKE $%d OR s.national_id ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*)" + studentDetailJoins + " WHERE " + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	query := "SELECT " + studentDetailColumns + studentDetailJoins + " WHERE " + where +
		fmt.Sprintf(" ORDER BY s.last_name, s.first_name LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, pageSize, (page-1)*pageSize)

	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	return students, total, nil
}

// FindByID loads one student with classroom names.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	query := "SELECT " + studentDetailColumns + studentDetailJoins + " WHERE s.id = $1"
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByNationalID loads one student by national ID.
func (r *StudentRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	query := "SELECT " + studentDetailColumns + studentDetailJoins + " WHERE s.national_id = $1"
	if err := r.db.GetContext(ctx, &student, query, nationalID); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByQRCode resolves a scanned payload to a student.
func (r *StudentRepository) FindByQRCode(ctx context.Context, code string) (*models.StudentDetail, error) {
	var student models.StudentDetail
	query := "SELECT " + studentDetailColumns + studentDetailJoins + " WHERE s.qr_code = $1"
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a student, assigning a fresh UUID when none is set.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `
		INSERT INTO students (
			id, national_id, first_name, last_name, birth_date, qr_code,
			grade_id, section_id, guardian_id, period, internal_code,
			enrollment_status, notes, created_at, updated_at
		) VALUES (
			:id, :national_id, :first_name, :last_name, :birth_date, :qr_code,
			:grade_id, :section_id, :guardian_id, :period, :internal_code,
			:enrollment_status, :notes, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Update rewrites all mutable columns of a student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE students SET
			national_id = :national_id,
			first_name = :first_name,
			last_name = :last_name,
			birth_date = :birth_date,
			qr_code = :qr_code,
			grade_id = :grade_id,
			section_id = :section_id,
			guardian_id = :guardian_id,
			period = :period,
			internal_code = :internal_code,
			enrollment_status = :enrollment_status,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, student)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("student %s not found", student.ID)
	}
	return nil
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("student %s not found", id)
	}
	return nil
}

// DeleteByIDs removes the given students and returns how many were deleted.
func (r *StudentRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In("DELETE FROM students WHERE id IN (?)", ids)
	if err != nil {
		return 0, fmt.Errorf("build delete query: %w", err)
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete students: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted students: %w", err)
	}
	return deleted, nil
}

// ListPlaceholders returns students among the given national IDs that still
// carry the placeholder grade or section from a bulk import.
func (r *StudentRepository) ListPlaceholders(ctx context.Context, nationalIDs []string) ([]models.StudentDetail, error) {
	if len(nationalIDs) == 0 {
		return []models.StudentDetail{}, nil
	}
	query, args, err := sqlx.In(
		"SELECT "+studentDetailColumns+studentDetailJoins+
			" WHERE s.national_id IN (?) AND (g.name = ? OR sec.name = ?)",
		nationalIDs, models.PlaceholderGradeName, models.PlaceholderSectionName)
	if err != nil {
		return nil, fmt.Errorf("build placeholder query: %w", err)
	}
	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list placeholder students: %w", err)
	}
	return students, nil
}

// CountAll returns the total number of students, optionally per period.
func (r *StudentRepository) CountAll(ctx context.Context, period *int) (int, error) {
	var total int
	if period != nil {
		if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students WHERE period = $1", *period); err != nil {
			return 0, fmt.Errorf("count students: %w", err)
		}
		return total, nil
	}
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students"); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return total, nil
}
