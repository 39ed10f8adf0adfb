package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService manages the student roster.
type StudentService struct {
	repo      studentRepository
	encoder   *qr.Encoder
	qrFiles   *storage.LocalStorage
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService builds the student service.
func NewStudentService(repo studentRepository, encoder *qr.Encoder, qrFiles *storage.LocalStorage, validate *validator.Validate, logger *zap.Logger) *StudentService {
	return &StudentService{repo: repo, encoder: encoder, qrFiles: qrFiles, validator: validate, logger: logger}
}

// List returns students matching the filter with paging metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get loads one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Clone(apperrors.ErrNotFound, "student not found")
		}
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to load student")
	}
	return student, nil
}

// Create registers a student. The QR payload defaults to the national ID.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid student payload")
	}

	if existing, err := s.repo.FindByNationalID(ctx, req.NationalID); err == nil && existing != nil {
		return nil, apperrors.Clone(apperrors.ErrConflict, "a student with that national id already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to check national id")
	}

	student := models.Student{
		NationalID:       req.NationalID,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		QRCode:           req.QRCode,
		GradeID:          req.GradeID,
		SectionID:        req.SectionID,
		GuardianID:       req.GuardianID,
		Period:           req.Period,
		InternalCode:     req.InternalCode,
		EnrollmentStatus: req.EnrollmentStatus,
		Notes:            req.Notes,
	}
	if student.QRCode == "" {
		student.QRCode = req.NationalID
	}
	if req.BirthDate != "" {
		parsed, err := time.Parse("2006-01-02", req.BirthDate)
		if err != nil {
			return nil, apperrors.New("VALIDATION_ERROR", 400, "birth_date must be YYYY-MM-DD")
		}
		student.BirthDate = &parsed
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to create student")
	}
	s.logger.Sugar().Infow("student created", "id", student.ID, "national_id", student.NationalID)
	return s.Get(ctx, student.ID)
}

// Update mutates selected fields of a student.
func (s *StudentService) Update(ctx context.Context, id string, req dto.UpdateStudentRequest) (*models.StudentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "invalid student payload")
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	student := existing.Student
	if req.FirstName != nil {
		student.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		student.LastName = *req.LastName
	}
	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			return nil, apperrors.New("VALIDATION_ERROR", 400, "birth_date must be YYYY-MM-DD")
		}
		student.BirthDate = &parsed
	}
	if req.QRCode != nil {
		student.QRCode = *req.QRCode
	}
	if req.GradeID != nil {
		student.GradeID = *req.GradeID
	}
	if req.SectionID != nil {
		student.SectionID = *req.SectionID
	}
	if req.GuardianID != nil {
		student.GuardianID = req.GuardianID
	}
	if req.Period != nil {
		student.Period = *req.Period
	}
	if req.InternalCode != nil {
		student.InternalCode = req.InternalCode
	}
	if req.EnrollmentStatus != nil {
		student.EnrollmentStatus = req.EnrollmentStatus
	}
	if req.Notes != nil {
		student.Notes = req.Notes
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to update student")
	}
	return s.Get(ctx, id)
}

// Delete removes a student and their attendance records.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to delete student")
	}
	s.logger.Sugar().Infow("student deleted", "id", id)
	return nil
}

// QRImage returns the credential PNG for a student, generating and caching
// it on disk when missing.
func (s *StudentService) QRImage(ctx context.Context, id string) ([]byte, string, error) {
	student, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	name := student.NationalID + ".png"
	if s.qrFiles.Exists(name) {
		data, err := s.qrFiles.Read(name)
		if err == nil {
			return data, name, nil
		}
	}
	png, err := s.encoder.Encode(student.QRCode)
	if err != nil {
		return nil, "", apperrors.Wrap(err, "QR_ERROR", 500, "failed to render qr image")
	}
	if _, err := s.qrFiles.Save(name, png); err != nil {
		s.logger.Sugar().Warnw("failed to cache qr image", "student_id", id, "error", err)
	}
	return png, name, nil
}
