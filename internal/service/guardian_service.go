package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
)

type guardianRepository interface {
	List(ctx context.Context) ([]models.Guardian, error)
	FindByEmail(ctx context.Context, email string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
}

// GuardianService manages guardians.
type GuardianService struct {
	repo      guardianRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGuardianService builds the guardian service.
func NewGuardianService(repo guardianRepository, validate *validator.Validate, logger *zap.Logger) *GuardianService {
	return &GuardianService{repo: repo, validator: validate, logger: logger}
}

// List returns all guardians.
func (s *GuardianService) List(ctx context.Context) ([]models.Guardian, error) {
	guardians, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list guardians")
	}
	return guardians, nil
}

// Create registers a guardian, rejecting duplicate emails.
func (s *GuardianService) Create(ctx context.Context, req dto.CreateGuardianRequest) (*models.Guardian, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid guardian payload")
	}
	if req.Email != nil && *req.Email != "" {
		existing, err := s.repo.FindByEmail(ctx, *req.Email)
		if err != nil {
			return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to check guardian email")
		}
		if existing != nil {
			return nil, apperrors.Clone(apperrors.ErrConflict, "a guardian with that email already exists")
		}
	}
	guardian := models.Guardian{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
	}
	if err := s.repo.Create(ctx, &guardian); err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to create guardian")
	}
	return &guardian, nil
}
