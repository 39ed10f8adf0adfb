package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/importer"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	apperrors "github.com/noah-isme/qr-attendance-api/pkg/errors"
	"github.com/noah-isme/qr-attendance-api/pkg/export"
	"github.com/noah-isme/qr-attendance-api/pkg/jobs"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

// JobTypeImport tags roster import jobs on the queue.
const JobTypeImport = "roster_import"

type studentStore interface {
	FindByNationalID(ctx context.Context, nationalID string) (*models.StudentDetail, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
	ListPlaceholders(ctx context.Context, nationalIDs []string) ([]models.StudentDetail, error)
}

type gradeStore interface {
	GetOrCreate(ctx context.Context, name string) (*models.Grade, error)
	GetOrCreateSection(ctx context.Context, name, gradeID string) (*models.Section, error)
}

type guardianStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Guardian, error)
	FindByName(ctx context.Context, firstName, lastName string) (*models.Guardian, error)
	Create(ctx context.Context, guardian *models.Guardian) error
}

type statusStore interface {
	Write(uploadName string, status *models.ImportStatus) error
	Read(uploadName string) (*models.ImportStatus, error)
	Delete(uploadName string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type importMeter interface {
	IncImportRow(outcome string)
	IncImportRun(state string)
}

// ImportService runs the roster bulk import pipeline: upload, background
// processing with live progress, per-row error logging, QR artifact
// generation, and rollback of placeholder students.
type ImportService struct {
	students  studentStore
	grades    gradeStore
	guardians guardianStore
	status    statusStore
	uploads   *storage.LocalStorage
	qrFiles   *storage.LocalStorage
	logFiles  *storage.LocalStorage
	encoder   *qr.Encoder
	csv       *export.CSVExporter
	queue     jobDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	metrics   importMeter
	cfg       config.ImportsConfig
	now       func() time.Time
}

// ImportServiceDeps bundles the collaborators of NewImportService.
type ImportServiceDeps struct {
	Students  studentStore
	Grades    gradeStore
	Guardians guardianStore
	Status    statusStore
	Uploads   *storage.LocalStorage
	QRFiles   *storage.LocalStorage
	LogFiles  *storage.LocalStorage
	Encoder   *qr.Encoder
	Queue     jobDispatcher
	Validator *validator.Validate
	Logger    *zap.Logger
	Metrics   importMeter
	Config    config.ImportsConfig
}

// NewImportService builds the import service.
func NewImportService(deps ImportServiceDeps) *ImportService {
	return &ImportService{
		students:  deps.Students,
		grades:    deps.Grades,
		guardians: deps.Guardians,
		status:    deps.Status,
		uploads:   deps.Uploads,
		qrFiles:   deps.QRFiles,
		logFiles:  deps.LogFiles,
		encoder:   deps.Encoder,
		csv:       export.NewCSVExporter(),
		queue:     deps.Queue,
		validator: deps.Validator,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		cfg:       deps.Config,
		now:       time.Now,
	}
}

var allowedExtensions = map[string]bool{".csv": true, ".xls": true, ".xlsx": true}

// Trigger stores an uploaded roster, writes the initial queued status and
// enqueues the background run. Returns immediately so clients can poll.
func (s *ImportService) Trigger(ctx context.Context, file io.Reader, filename string, size int64, period *int) (*dto.ImportTriggered, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return nil, apperrors.New("UNSUPPORTED_FORMAT", 400, "roster must be a .csv, .xls or .xlsx file")
	}
	if size > s.cfg.MaxFileSizeBytes {
		return nil, apperrors.New("FILE_TOO_LARGE", 400,
			fmt.Sprintf("roster exceeds the %d MB upload limit", s.cfg.MaxFileSizeBytes/(1024*1024)))
	}

	uploadName := fmt.Sprintf("import_%s%s", uuid.NewString(), ext)
	if _, err := s.uploads.SaveStream(uploadName, file); err != nil {
		return nil, apperrors.Wrap(err, "STORAGE_ERROR", 500, "failed to store roster upload")
	}

	uploadedAt := s.now().UTC()
	initial := &models.ImportStatus{
		ID:         uploadName,
		Filename:   filename,
		Status:     models.ImportQueued,
		UploadedAt: &uploadedAt,
		Period:     period,
	}
	if err := s.status.Write(uploadName, initial); err != nil {
		return nil, apperrors.Wrap(err, "STORAGE_ERROR", 500, "failed to persist import status")
	}

	job := jobs.Job{ID: uploadName, Type: JobTypeImport, Payload: period}
	if err := s.queue.Enqueue(job); err != nil {
		initial.Status = models.ImportFailed
		initial.Message = "failed to queue import job"
		_ = s.status.Write(uploadName, initial)
		return nil, apperrors.Wrap(err, "QUEUE_ERROR", 500, "failed to queue import job")
	}

	s.logger.Sugar().Infow("roster import queued", "upload", uploadName, "filename", filename)
	return &dto.ImportTriggered{ID: uploadName, Status: models.ImportQueued}, nil
}

// HandleJob adapts queue jobs onto Run.
func (s *ImportService) HandleJob(ctx context.Context, job jobs.Job) error {
	period, _ := job.Payload.(*int)
	_, err := s.Run(ctx, job.ID, period)
	return err
}

// Run executes one import synchronously: parse, upsert row by row with
// progress checkpoints, then write the error log and final status.
func (s *ImportService) Run(ctx context.Context, uploadName string, period *int) (*models.ImportStatus, error) {
	status, err := s.status.Read(uploadName)
	if err != nil || status == nil {
		status = &models.ImportStatus{ID: uploadName}
	}
	status.Period = period

	table, err := importer.ReadFile(s.uploads.Path(uploadName))
	if err != nil {
		s.finishFailed(status, fmt.Sprintf("could not parse roster file: %v", err))
		return status, fmt.Errorf("parse roster %s: %w", uploadName, err)
	}

	startedAt := s.now().UTC()
	status.Status = models.ImportProcessing
	status.StartedAt = &startedAt
	status.Total = len(table.Rows)
	status.Processed = 0
	status.Created = 0
	status.Updated = 0
	if err := s.status.Write(uploadName, status); err != nil {
		s.logger.Sugar().Warnw("failed to checkpoint import status", "upload", uploadName, "error", err)
	}

	var failedRows []importer.Row
	for _, row := range table.Rows {
		created, rowErr := s.processRow(ctx, row, period)
		status.Processed++
		switch {
		case rowErr != nil:
			annotated := make(importer.Row, len(row)+1)
			for k, v := range row {
				annotated[k] = v
			}
			annotated["error"] = rowErr.Error()
			failedRows = append(failedRows, annotated)
			s.countRow("error")
		case created:
			status.Created++
			s.countRow("created")
		default:
			status.Updated++
			s.countRow("updated")
		}
		if err := s.status.Write(uploadName, status); err != nil {
			s.logger.Sugar().Warnw("failed to checkpoint import status", "upload", uploadName, "error", err)
		}
	}

	if len(failedRows) > 0 {
		logName, err := s.writeErrorLog(table.Headers, failedRows)
		if err != nil {
			s.logger.Sugar().Errorw("failed to write import error log", "upload", uploadName, "error", err)
		} else {
			status.ErrorsLog = logName
		}
	}

	finishedAt := s.now().UTC()
	status.Status = models.ImportDone
	status.FinishedAt = &finishedAt
	status.Message = fmt.Sprintf("%d created, %d updated, %d failed",
		status.Created, status.Updated, len(failedRows))
	if err := s.status.Write(uploadName, status); err != nil {
		s.logger.Sugar().Errorw("failed to write final import status", "upload", uploadName, "error", err)
	}

	s.countRun(string(models.ImportDone))
	s.logger.Sugar().Infow("roster import finished",
		"upload", uploadName, "total", status.Total,
		"created", status.Created, "updated", status.Updated, "failed", len(failedRows))
	return status, nil
}

// processRow upserts one roster row. Returns whether a student was created
// (false means updated) or a row-level error that goes to the error log.
func (s *ImportService) processRow(ctx context.Context, row importer.Row, period *int) (bool, error) {
	firstName := row.Value(importer.FieldFirstName)
	lastName := strings.TrimSpace(row.Value(importer.FieldPaternalSurname) + " " + row.Value(importer.FieldMaternalSurname))
	if lastName == "" {
		if combined := row.Value(importer.FieldCombinedName); combined != "" {
			// A separately supplied given name wins over the split.
			splitLast, splitFirst := importer.SplitFullName(combined)
			lastName = splitLast
			if firstName == "" {
				firstName = splitFirst
			}
		}
	}
	nationalID := row.Value(importer.FieldNationalID)

	if nationalID == "" || firstName == "" || lastName == "" {
		return false, fmt.Errorf("incomplete row: national id, first name and last name are required")
	}

	gradeName, sectionName := s.resolveClassroom(row)
	grade, err := s.grades.GetOrCreate(ctx, gradeName)
	if err != nil {
		return false, fmt.Errorf("resolve grade %q: %w", gradeName, err)
	}
	section, err := s.grades.GetOrCreateSection(ctx, sectionName, grade.ID)
	if err != nil {
		return false, fmt.Errorf("resolve section %q: %w", sectionName, err)
	}

	guardianID, err := s.resolveGuardian(ctx, row)
	if err != nil {
		return false, err
	}

	birthDate := importer.ParseDate(row.Value(importer.FieldBirthDate))

	existing, err := s.students.FindByNationalID(ctx, nationalID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("look up student %s: %w", nationalID, err)
	}

	if existing != nil {
		student := existing.Student
		student.FirstName = firstName
		student.LastName = lastName
		if birthDate != nil {
			student.BirthDate = birthDate
		}
		if gradeName != models.PlaceholderGradeName {
			student.GradeID = grade.ID
		}
		if sectionName != models.PlaceholderSectionName {
			student.SectionID = section.ID
		}
		if guardianID != nil {
			student.GuardianID = guardianID
		}
		if period != nil {
			student.Period = *period
		}
		setOptional(&student.InternalCode, row.Value(importer.FieldInternalCode))
		setOptional(&student.EnrollmentStatus, row.Value(importer.FieldEnrollmentStatus))
		setOptional(&student.Notes, row.Value(importer.FieldNotes))
		if err := s.students.Update(ctx, &student); err != nil {
			return false, fmt.Errorf("update student %s: %w", nationalID, err)
		}
		s.writeQRArtifact(nationalID)
		return false, nil
	}

	student := models.Student{
		NationalID: nationalID,
		FirstName:  firstName,
		LastName:   lastName,
		BirthDate:  birthDate,
		QRCode:     nationalID,
		GradeID:    grade.ID,
		SectionID:  section.ID,
		GuardianID: guardianID,
		Period:     s.cfg.DefaultPeriod,
	}
	if period != nil {
		student.Period = *period
	}
	setOptional(&student.InternalCode, row.Value(importer.FieldInternalCode))
	setOptional(&student.EnrollmentStatus, row.Value(importer.FieldEnrollmentStatus))
	setOptional(&student.Notes, row.Value(importer.FieldNotes))

	if err := s.students.Create(ctx, &student); err != nil {
		return false, fmt.Errorf("create student %s: %w", nationalID, err)
	}
	s.writeQRArtifact(nationalID)
	return true, nil
}

// resolveClassroom extracts grade and section names, falling back to the
// placeholders when a row carries nothing usable. A combined "5-A" style
// cell in the grade column is split; a dedicated section column wins. A
// section is only kept when its grade resolved, so no real section ends
// up under the placeholder grade.
func (s *ImportService) resolveClassroom(row importer.Row) (gradeName, sectionName string) {
	rawGrade := row.Value(importer.FieldGrade)
	rawSection := row.Value(importer.FieldSection)

	gradeName, sectionName = importer.SplitGradeSection(rawGrade)
	if rawSection != "" {
		sectionName = strings.TrimSpace(rawSection)
	}
	if gradeName == "" {
		gradeName = models.PlaceholderGradeName
		sectionName = ""
	}
	if sectionName == "" {
		sectionName = models.PlaceholderSectionName
	}
	if len(sectionName) > models.SectionNameMaxLen {
		sectionName = sectionName[:models.SectionNameMaxLen]
	}
	return gradeName, sectionName
}

// resolveGuardian finds or creates the guardian referenced by a row.
// Matching prefers email, then exact name. Rows without guardian data
// yield nil.
func (s *ImportService) resolveGuardian(ctx context.Context, row importer.Row) (*string, error) {
	firstName := row.Value(importer.FieldGuardianName)
	lastName := row.Value(importer.FieldGuardianSurname)
	phone := row.Value(importer.FieldGuardianPhone)
	email := row.Value(importer.FieldGuardianEmail)
	if firstName == "" && lastName == "" && email == "" {
		return nil, nil
	}

	if email != "" {
		guardian, err := s.guardians.FindByEmail(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("look up guardian %s: %w", email, err)
		}
		if guardian != nil {
			return &guardian.ID, nil
		}
	}
	if firstName != "" && lastName != "" {
		guardian, err := s.guardians.FindByName(ctx, firstName, lastName)
		if err != nil {
			return nil, fmt.Errorf("look up guardian %s %s: %w", firstName, lastName, err)
		}
		if guardian != nil {
			return &guardian.ID, nil
		}
	}

	guardian := models.Guardian{FirstName: firstName, LastName: lastName}
	if phone != "" {
		guardian.Phone = &phone
	}
	if email != "" {
		guardian.Email = &email
	}
	if err := s.guardians.Create(ctx, &guardian); err != nil {
		return nil, fmt.Errorf("create guardian: %w", err)
	}
	return &guardian.ID, nil
}

// writeQRArtifact renders the credential PNG for one student. Failures are
// logged and never fail the row; the image can be regenerated on demand.
func (s *ImportService) writeQRArtifact(nationalID string) {
	png, err := s.encoder.Encode(nationalID)
	if err != nil {
		s.logger.Sugar().Warnw("failed to encode qr image", "national_id", nationalID, "error", err)
		return
	}
	if _, err := s.qrFiles.Save(nationalID+".png", png); err != nil {
		s.logger.Sugar().Warnw("failed to store qr image", "national_id", nationalID, "error", err)
	}
}

// writeErrorLog renders failed rows as CSV with the source file's own
// columns plus a trailing "error" column.
func (s *ImportService) writeErrorLog(headers []string, failed []importer.Row) (string, error) {
	columns := append([]string{}, headers...)
	columns = append(columns, "error")

	rows := make([]map[string]string, 0, len(failed))
	for _, row := range failed {
		rendered := make(map[string]string, len(columns))
		for _, header := range headers {
			rendered[header] = row[importer.NormalizeHeader(header)]
		}
		rendered["error"] = row["error"]
		rows = append(rows, rendered)
	}

	data, err := s.csv.Render(export.Dataset{Headers: columns, Rows: rows})
	if err != nil {
		return "", err
	}
	logName := fmt.Sprintf("import_errors_%s.csv", s.now().UTC().Format("20060102_150405"))
	if _, err := s.logFiles.Save(logName, data); err != nil {
		return "", err
	}
	return logName, nil
}

// finishFailed writes a terminal failed status.
func (s *ImportService) finishFailed(status *models.ImportStatus, message string) {
	finishedAt := s.now().UTC()
	status.Status = models.ImportFailed
	status.FinishedAt = &finishedAt
	status.Message = message
	if err := s.status.Write(status.ID, status); err != nil {
		s.logger.Sugar().Errorw("failed to write failed import status", "upload", status.ID, "error", err)
	}
	s.countRun(string(models.ImportFailed))
}

// Status returns the progress artifact for one upload.
func (s *ImportService) Status(uploadName string) (*models.ImportStatus, error) {
	uploadName = filepath.Base(uploadName)
	status, err := s.status.Read(uploadName)
	if err != nil {
		return nil, apperrors.Wrap(err, "STORAGE_ERROR", 500, "failed to read import status")
	}
	if status == nil {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "no import status for that upload")
	}
	return status, nil
}

// ListUploads returns stored roster files with their latest statuses,
// newest first.
func (s *ImportService) ListUploads() ([]dto.UploadInfo, error) {
	names, err := s.uploads.List()
	if err != nil {
		return nil, apperrors.Wrap(err, "STORAGE_ERROR", 500, "failed to list uploads")
	}
	infos := make([]dto.UploadInfo, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, ".status.json") || !strings.HasPrefix(name, "import_") {
			continue
		}
		status, err := s.status.Read(name)
		if err != nil {
			s.logger.Sugar().Warnw("failed to read import status", "upload", name, "error", err)
		}
		infos = append(infos, dto.UploadInfo{Name: name, Status: status})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name > infos[j].Name })
	return infos, nil
}

// DeleteUpload removes a stored roster and its status artifact.
func (s *ImportService) DeleteUpload(uploadName string) error {
	uploadName = filepath.Base(uploadName)
	if !strings.HasPrefix(uploadName, "import_") {
		return apperrors.Clone(apperrors.ErrNotFound, "no such upload")
	}
	if !s.uploads.Exists(uploadName) {
		return apperrors.Clone(apperrors.ErrNotFound, "no such upload")
	}
	if err := s.uploads.Delete(uploadName); err != nil {
		return apperrors.Wrap(err, "STORAGE_ERROR", 500, "failed to delete upload")
	}
	if err := s.status.Delete(uploadName); err != nil {
		s.logger.Sugar().Warnw("failed to delete import status", "upload", uploadName, "error", err)
	}
	return nil
}

// Rollback removes students created by a past import that still carry
// placeholder grade or section assignments. Students whose classroom was
// corrected since the import are left untouched.
func (s *ImportService) Rollback(ctx context.Context, req dto.RollbackRequest) (*dto.RollbackResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.Wrap(err, "VALIDATION_ERROR", 400, "rollback filename is required")
	}
	uploadName := filepath.Base(req.Filename)
	if !s.uploads.Exists(uploadName) {
		return nil, apperrors.Clone(apperrors.ErrNotFound, "no such upload")
	}

	table, err := importer.ReadFile(s.uploads.Path(uploadName))
	if err != nil {
		return nil, apperrors.Wrap(err, "PARSE_ERROR", 400, "could not parse roster file")
	}
	ids := table.NationalIDs()
	if len(ids) == 0 {
		return &dto.RollbackResult{Candidates: []dto.RollbackCandidate{}, DryRun: req.DryRun}, nil
	}

	candidates, err := s.students.ListPlaceholders(ctx, ids)
	if err != nil {
		return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to list rollback candidates")
	}

	result := &dto.RollbackResult{
		Candidates: make([]dto.RollbackCandidate, 0, len(candidates)),
		DryRun:     req.DryRun,
	}
	studentIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		studentIDs = append(studentIDs, c.ID)
		result.Candidates = append(result.Candidates, dto.RollbackCandidate{
			NationalID:  c.NationalID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			GradeName:   c.GradeName,
			SectionName: c.SectionName,
		})
	}

	if !req.DryRun && len(studentIDs) > 0 {
		deleted, err := s.students.DeleteByIDs(ctx, studentIDs)
		if err != nil {
			return nil, apperrors.Wrap(err, "DATABASE_ERROR", 500, "failed to delete students")
		}
		result.Deleted = int(deleted)
		s.logger.Sugar().Infow("import rollback applied", "upload", uploadName, "deleted", deleted)
	}
	return result, nil
}

func (s *ImportService) countRow(outcome string) {
	if s.metrics != nil {
		s.metrics.IncImportRow(outcome)
	}
}

func (s *ImportService) countRun(state string) {
	if s.metrics != nil {
		s.metrics.IncImportRun(state)
	}
}

func setOptional(target **string, value string) {
	if value != "" {
		v := value
		*target = &v
	}
}
