package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// GradeRepository persists grades and sections in PostgreSQL.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository builds a grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// GetOrCreate returns the grade with the given name, inserting it when
// missing. The no-op DO UPDATE makes RETURNING yield the row either way.
func (r *GradeRepository) GetOrCreate(ctx context.Context, name string) (*models.Grade, error) {
	var grade models.Grade
	query := `
		INSERT INTO grades (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`
	if err := r.db.GetContext(ctx, &grade, query, uuid.NewString(), name); err != nil {
		return nil, fmt.Errorf("get or create grade: %w", err)
	}
	return &grade, nil
}

// List returns all grades ordered by name.
func (r *GradeRepository) List(ctx context.Context) ([]models.Grade, error) {
	grades := []models.Grade{}
	if err := r.db.SelectContext(ctx, &grades, "SELECT id, name, created_at FROM grades ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// CountAll returns the number of grades.
func (r *GradeRepository) CountAll(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM grades"); err != nil {
		return 0, fmt.Errorf("count grades: %w", err)
	}
	return total, nil
}

// GetOrCreateSection returns the section with the given name under a grade,
// inserting it when missing.
func (r *GradeRepository) GetOrCreateSection(ctx context.Context, name, gradeID string) (*models.Section, error) {
	var section models.Section
	query := `
		INSERT INTO sections (id, name, grade_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (name, grade_id) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, grade_id, created_at`
	if err := r.db.GetContext(ctx, &section, query, uuid.NewString(), name, gradeID); err != nil {
		return nil, fmt.Errorf("get or create section: %w", err)
	}
	return &section, nil
}

// ListSections returns sections, optionally restricted to one grade.
func (r *GradeRepository) ListSections(ctx context.Context, gradeID string) ([]models.SectionDetail, error) {
	sections := []models.SectionDetail{}
	query := `
		SELECT sec.id, sec.name, sec.grade_id, sec.created_at, g.name AS grade_name
		FROM sections sec
		JOIN grades g ON g.id = sec.grade_id`
	if gradeID != "" {
		query += " WHERE sec.grade_id = $1 ORDER BY g.name, sec.name"
		if err := r.db.SelectContext(ctx, &sections, query, gradeID); err != nil {
			return nil, fmt.Errorf("list sections: %w", err)
		}
		return sections, nil
	}
	query += " ORDER BY g.name, sec.name"
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}
