package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type gradeRepository interface {
	GetOrCreate(ctx context.Context, name string) (*models.Grade, error)
	List(ctx context.Context) ([]models.Grade, error)
	GetOrCreateSection(ctx context.Context, name, gradeID string) (*models.Section, error)
	ListSections(ctx context.Context, gradeID string) ([]models.SectionDetail, error)
}

// GradeService manages grades and sections.
type GradeService struct {
	repo      gradeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService builds the grade service.
func NewGradeService(repo gradeRepository, validate *validator.Validate, logger *zap.Logger) *GradeService {
	return &GradeService{repo: repo, validator: validate, logger: logger}
}

// ListGrades returns all grades.
func (s *GradeService) ListGrades(ctx context.Context) ([]models.Grade, error) {
	grades, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list grades")
	}
	return grades, nil
}

// CreateGrade registers a grade, reusing an existing one with the same name.
func (s *GradeService) CreateGrade(ctx context.Context, req dto.CreateGradeRequest) (*models.Grade, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "grade name is required")
	}
	grade, err := s.repo.GetOrCreate(ctx, req.Name)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to create grade")
	}
	return grade, nil
}

// ListSections returns sections, optionally for one grade.
func (s *GradeService) ListSections(ctx context.Context, gradeID string) ([]models.SectionDetail, error) {
	sections, err := s.repo.ListSections(ctx, gradeID)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list sections")
	}
	return sections, nil
}

// CreateSection registers a section, reusing an existing one under the grade.
func (s *GradeService) CreateSection(ctx context.Context, req dto.CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid section payload")
	}
	section, err := s.repo.GetOrCreateSection(ctx, req.Name, req.GradeID)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to create section")
	}
	return section, nil
}

// BulkCreateSections creates every (grade, name) combination, skipping ones
// that already exist. Returns how many combinations were processed.
func (s *GradeService) BulkCreateSections(ctx context.Context, req dto.BulkSectionsRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid bulk sections payload")
	}
	processed := 0
	for _, gradeID := range req.GradeIDs {
		for _, name := range req.Names {
			if _, err := s.repo.GetOrCreateSection(ctx, name, gradeID); err != nil {
				return processed, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to create sections")
			}
			processed++
		}
	}
	s.logger.Sugar().Infow("bulk sections created", "combinations", processed)
	return processed, nil
}

// defaultGrades and defaultSections seed a typical secondary school layout.
var (
	defaultGrades   = []string{"1ro", "2do", "3ro", "4to", "5to"}
	defaultSections = []string{"A", "B", "C", "D"}
)

// SeedRoster creates the standard grade and section layout plus the
// placeholder classroom used by imports. Idempotent.
func (s *GradeService) SeedRoster(ctx context.Context) (int, error) {
	created := 0
	for _, gradeName := range defaultGrades {
		grade, err := s.repo.GetOrCreate(ctx, gradeName)
		if err != nil {
			return created, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to seed grades")
		}
		for _, sectionName := range defaultSections {
			if _, err := s.repo.GetOrCreateSection(ctx, sectionName, grade.ID); err != nil {
				return created, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to seed sections")
			}
			created++
		}
	}
	placeholder, err := s.repo.GetOrCreate(ctx, models.PlaceholderGradeName)
	if err != nil {
		return created, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to seed placeholder grade")
	}
	if _, err := s.repo.GetOrCreateSection(ctx, models.PlaceholderSectionName, placeholder.ID); err != nil {
		return created, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to seed placeholder section")
	}
	return created, nil
}
