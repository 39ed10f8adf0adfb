package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/qr-attendance-api/internal/models"
)

// GuardianRepository persists guardians in PostgreSQL.
type GuardianRepository struct {
	db *sqlx.DB
}

// NewGuardianRepository builds a guardian repository.
func NewGuardianRepository(db *sqlx.DB) *GuardianRepository {
	return &GuardianRepository{db: db}
}

// List returns all guardians ordered by name.
func (r *GuardianRepository) List(ctx context.Context) ([]models.Guardian, error) {
	guardians := []models.Guardian{}
	query := "SELECT id, first_name, last_name, phone, email, created_at FROM guardians ORDER BY last_name, first_name"
	if err := r.db.SelectContext(ctx, &guardians, query); err != nil {
		return nil, fmt.Errorf("list guardians: %w", err)
	}
	return guardians, nil
}

// FindByEmail returns the guardian with the given email, or nil when absent.
func (r *GuardianRepository) FindByEmail(ctx context.Context, email string) (*models.Guardian, error) {
	var guardian models.Guardian
	query := "SELECT id, first_name, last_name, phone, email, created_at FROM guardians WHERE email = $1"
	err := r.db.GetContext(ctx, &guardian, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guardian by email: %w", err)
	}
	return &guardian, nil
}

// FindByName returns the first guardian matching both names, or nil.
func (r *GuardianRepository) FindByName(ctx context.Context, firstName, lastName string) (*models.Guardian, error) {
	var guardian models.Guardian
	query := `
		SELECT id, first_name, last_name, phone, email, created_at
		FROM guardians
		WHERE first_name = $1 AND last_name = $2
		ORDER BY created_at
		LIMIT 1`
	err := r.db.GetContext(ctx, &guardian, query, firstName, lastName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find guardian by name: %w", err)
	}
	return &guardian, nil
}

// Create inserts a guardian, assigning a fresh UUID when none is set.
func (r *GuardianRepository) Create(ctx context.Context, guardian *models.Guardian) error {
	if guardian.ID == "" {
		guardian.ID = uuid.NewString()
	}
	guardian.CreatedAt = time.Now().UTC()
	query := `
		INSERT INTO guardians (id, first_name, last_name, phone, email, created_at)
		VALUES (:id, :first_name, :last_name, :phone, :email, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, guardian); err != nil {
		return fmt.Errorf("insert guardian: %w", err)
	}
	return nil
}
