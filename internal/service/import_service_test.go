package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/models"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/jobs"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

type studentStoreMock struct {
	byNationalID map[string]*models.StudentDetail
	created      []*models.Student
	updated      []*models.Student
	deleted      []string
}

func newStudentStoreMock() *studentStoreMock {
	return &studentStoreMock{byNationalID: map[string]*models.StudentDetail{}}
}

func (m *studentStoreMock) FindByNationalID(_ context.Context, nationalID string) (*models.StudentDetail, error) {
	if student, ok := m.byNationalID[nationalID]; ok {
		return student, nil
	}
	return nil, nil
}

func (m *studentStoreMock) Create(_ context.Context, student *models.Student) error {
	student.ID = uuid.NewString()
	m.created = append(m.created, student)
	m.byNationalID[student.NationalID] = &models.StudentDetail{Student: *student}
	return nil
}

func (m *studentStoreMock) Update(_ context.Context, student *models.Student) error {
	m.updated = append(m.updated, student)
	m.byNationalID[student.NationalID] = &models.StudentDetail{Student: *student}
	return nil
}

func (m *studentStoreMock) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	m.deleted = append(m.deleted, ids...)
	return int64(len(ids)), nil
}

func (m *studentStoreMock) ListPlaceholders(_ context.Context, nationalIDs []string) ([]models.StudentDetail, error) {
	result := []models.StudentDetail{}
	for _, id := range nationalIDs {
		if student, ok := m.byNationalID[id]; ok && student.HasPlaceholderAssignment() {
			result = append(result, *student)
		}
	}
	return result, nil
}

type gradeStoreMock struct {
	grades   map[string]*models.Grade
	sections map[string]*models.Section
}

func newGradeStoreMock() *gradeStoreMock {
	return &gradeStoreMock{grades: map[string]*models.Grade{}, sections: map[string]*models.Section{}}
}

func (m *gradeStoreMock) GetOrCreate(_ context.Context, name string) (*models.Grade, error) {
	if grade, ok := m.grades[name]; ok {
		return grade, nil
	}
	grade := &models.Grade{ID: uuid.NewString(), Name: name}
	m.grades[name] = grade
	return grade, nil
}

func (m *gradeStoreMock) GetOrCreateSection(_ context.Context, name, gradeID string) (*models.Section, error) {
	key := gradeID + "|" + name
	if section, ok := m.sections[key]; ok {
		return section, nil
	}
	section := &models.Section{ID: uuid.NewString(), Name: name, GradeID: gradeID}
	m.sections[key] = section
	return section, nil
}

type guardianStoreMock struct {
	byEmail map[string]*models.Guardian
}

func newGuardianStoreMock() *guardianStoreMock {
	return &guardianStoreMock{byEmail: map[string]*models.Guardian{}}
}

func (m *guardianStoreMock) FindByEmail(_ context.Context, email string) (*models.Guardian, error) {
	return m.byEmail[email], nil
}

func (m *guardianStoreMock) FindByName(_ context.Context, _, _ string) (*models.Guardian, error) {
	return nil, nil
}

func (m *guardianStoreMock) Create(_ context.Context, guardian *models.Guardian) error {
	guardian.ID = uuid.NewString()
	if guardian.Email != nil {
		m.byEmail[*guardian.Email] = guardian
	}
	return nil
}

type statusStoreMock struct {
	statuses map[string]models.ImportStatus
	writes   []models.ImportStatus
}

func newStatusStoreMock() *statusStoreMock {
	return &statusStoreMock{statuses: map[string]models.ImportStatus{}}
}

func (m *statusStoreMock) Write(uploadName string, status *models.ImportStatus) error {
	copied := *status
	m.statuses[uploadName] = copied
	m.writes = append(m.writes, copied)
	return nil
}

func (m *statusStoreMock) Read(uploadName string) (*models.ImportStatus, error) {
	if status, ok := m.statuses[uploadName]; ok {
		copied := status
		return &copied, nil
	}
	return nil, nil
}

func (m *statusStoreMock) Delete(uploadName string) error {
	delete(m.statuses, uploadName)
	return nil
}

type queueMock struct {
	jobs []jobs.Job
	fail bool
}

func (m *queueMock) Enqueue(job jobs.Job) error {
	if m.fail {
		return assert.AnError
	}
	m.jobs = append(m.jobs, job)
	return nil
}

type importFixture struct {
	svc       *ImportService
	students  *studentStoreMock
	grades    *gradeStoreMock
	guardians *guardianStoreMock
	status    *statusStoreMock
	queue     *queueMock
	uploads   *storage.LocalStorage
	qrDir     string
	logDir    string
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	uploadDir := t.TempDir()
	qrDir := t.TempDir()
	logDir := t.TempDir()

	uploads, err := storage.NewLocalStorage(uploadDir)
	require.NoError(t, err)
	qrFiles, err := storage.NewLocalStorage(qrDir)
	require.NoError(t, err)
	logFiles, err := storage.NewLocalStorage(logDir)
	require.NoError(t, err)

	f := &importFixture{
		students:  newStudentStoreMock(),
		grades:    newGradeStoreMock(),
		guardians: newGuardianStoreMock(),
		status:    newStatusStoreMock(),
		queue:     &queueMock{},
		uploads:   uploads,
		qrDir:     qrDir,
		logDir:    logDir,
	}
	f.svc = NewImportService(ImportServiceDeps{
		Students:  f.students,
		Grades:    f.grades,
		Guardians: f.guardians,
		Status:    f.status,
		Uploads:   uploads,
		QRFiles:   qrFiles,
		LogFiles:  logFiles,
		Encoder:   qr.NewEncoder(),
		Queue:     f.queue,
		Validator: validator.New(),
		Logger:    zap.NewNop(),
		Config: config.ImportsConfig{
			UploadDir:        uploadDir,
			QRDir:            qrDir,
			ErrorLogDir:      logDir,
			MaxFileSizeBytes: 1 << 20,
			DefaultPeriod:    2025,
		},
	})
	return f
}

func (f *importFixture) stageRoster(t *testing.T, content string) string {
	t.Helper()
	name := "import_" + uuid.NewString() + ".csv"
	_, err := f.uploads.Save(name, []byte(content))
	require.NoError(t, err)
	return name
}

const rosterCSV = `DNI,Apellido Paterno,Apellido Materno,Nombres,Grado,Sección,Fecha Nacimiento
11111111,Perez,Gonzales,Ana Maria,5,A,2010-04-02
22222222,Ramirez,Soto,Luis,3-B,,15/06/2011
33333333,Quispe,,Rosa,,,
`

func TestRunCreatesStudents(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)

	status, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ImportDone, status.Status)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 3, status.Processed)
	assert.Equal(t, 3, status.Created)
	assert.Zero(t, status.Updated)
	require.NotNil(t, status.StartedAt)
	require.NotNil(t, status.FinishedAt)

	ana := f.students.byNationalID["11111111"]
	require.NotNil(t, ana)
	assert.Equal(t, "Ana Maria", ana.FirstName)
	assert.Equal(t, "Perez Gonzales", ana.LastName)
	assert.Equal(t, "11111111", ana.QRCode, "qr payload defaults to the national id")
	assert.Equal(t, 2025, ana.Period)
	require.NotNil(t, ana.BirthDate)
	assert.Equal(t, "2010-04-02", ana.BirthDate.Format("2006-01-02"))

	// The combined "3-B" cell splits into grade and section.
	luis := f.students.byNationalID["22222222"]
	require.NotNil(t, luis)
	assert.Equal(t, f.grades.grades["3"].ID, luis.GradeID)
	require.NotNil(t, luis.BirthDate)
	assert.Equal(t, "2011-06-15", luis.BirthDate.Format("2006-01-02"))
}

func TestRunAssignsPlaceholders(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)

	_, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	rosa := f.students.byNationalID["33333333"]
	require.NotNil(t, rosa)
	placeholderGrade := f.grades.grades[models.PlaceholderGradeName]
	require.NotNil(t, placeholderGrade, "placeholder grade is created on demand")
	assert.Equal(t, placeholderGrade.ID, rosa.GradeID)

	placeholderSection := f.grades.sections[placeholderGrade.ID+"|"+models.PlaceholderSectionName]
	require.NotNil(t, placeholderSection)
	assert.Equal(t, placeholderSection.ID, rosa.SectionID)
}

func TestRunSplitsCombinedNameKeepingGivenName(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t,
		"DNI,Nombres,Apellidos y Nombres\n44444444,Ana Maria,\"Perez Gonzales, Ana Maria\"\n")

	status, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Created)
	assert.Empty(t, status.ErrorsLog)

	student := f.students.byNationalID["44444444"]
	require.NotNil(t, student)
	assert.Equal(t, "Ana Maria", student.FirstName, "separate given-name column wins")
	assert.Equal(t, "Perez Gonzales", student.LastName, "surnames come from the combined cell")
}

func TestRunSectionWithoutGradeGetsPlaceholders(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, "DNI,Nombres,Apellido Paterno,Grado,Sección\n77777777,Rosa,Quispe,,B\n")

	_, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	rosa := f.students.byNationalID["77777777"]
	require.NotNil(t, rosa)
	placeholderGrade := f.grades.grades[models.PlaceholderGradeName]
	require.NotNil(t, placeholderGrade)
	assert.Equal(t, placeholderGrade.ID, rosa.GradeID)

	// The real "B" must not be created under the placeholder grade.
	_, realSection := f.grades.sections[placeholderGrade.ID+"|B"]
	assert.False(t, realSection)
	placeholderSection := f.grades.sections[placeholderGrade.ID+"|"+models.PlaceholderSectionName]
	require.NotNil(t, placeholderSection)
	assert.Equal(t, placeholderSection.ID, rosa.SectionID)
}

func TestRunIsIdempotent(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)

	first, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Created)

	second, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Created)
	assert.Equal(t, 3, second.Updated, "re-importing the same roster updates instead of duplicating")
}

func TestRunRecordsRowErrors(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, "DNI,Nombres,Apellido Paterno\n,Ana,Perez\n44444444,Luis,Soto\n")

	status, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, status.Created)
	assert.NotEmpty(t, status.ErrorsLog, "failed rows produce an error log")

	data, err := os.ReadFile(filepath.Join(f.logDir, status.ErrorsLog))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "error", "log carries the extra error column")
	assert.Contains(t, content, "Ana", "log echoes the original row")
}

func TestRunWritesQRArtifacts(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)

	_, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	for _, nationalID := range []string{"11111111", "22222222", "33333333"} {
		_, err := os.Stat(filepath.Join(f.qrDir, nationalID+".png"))
		assert.NoError(t, err, "qr image for %s", nationalID)
	}
}

func TestRunCheckpointsProgress(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)

	_, err := f.svc.Run(context.Background(), name, nil)
	require.NoError(t, err)

	var processedSeen []int
	for _, write := range f.status.writes {
		if write.Status == models.ImportProcessing {
			processedSeen = append(processedSeen, write.Processed)
		}
	}
	assert.Equal(t, []int{0, 1, 2, 3}, processedSeen, "progress is persisted after every row")

	final := f.status.writes[len(f.status.writes)-1]
	assert.Equal(t, models.ImportDone, final.Status)
}

func TestRunUnparseableFileFails(t *testing.T) {
	f := newImportFixture(t)
	name := "import_" + uuid.NewString() + ".csv"
	// Never staged on disk.

	status, err := f.svc.Run(context.Background(), name, nil)
	require.Error(t, err)
	assert.Equal(t, models.ImportFailed, status.Status)
	assert.NotEmpty(t, status.Message)
}

func TestTriggerQueuesJob(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Trigger(context.Background(),
		strings.NewReader(rosterCSV), "roster.csv", int64(len(rosterCSV)), nil)
	require.NoError(t, err)

	assert.Equal(t, models.ImportQueued, result.Status)
	assert.True(t, strings.HasPrefix(result.ID, "import_"))
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, result.ID, f.queue.jobs[0].ID)

	status, err := f.svc.Status(result.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportQueued, status.Status)
	assert.Equal(t, "roster.csv", status.Filename)
}

func TestTriggerRejectsBadExtension(t *testing.T) {
	f := newImportFixture(t)
	_, err := f.svc.Trigger(context.Background(), strings.NewReader("x"), "roster.txt", 1, nil)
	assert.Error(t, err)
}

func TestTriggerRejectsOversizedFile(t *testing.T) {
	f := newImportFixture(t)
	_, err := f.svc.Trigger(context.Background(), strings.NewReader("x"), "roster.csv", 10<<20, nil)
	assert.Error(t, err)
}

func TestTriggerEnqueueFailureMarksFailed(t *testing.T) {
	f := newImportFixture(t)
	f.queue.fail = true

	_, err := f.svc.Trigger(context.Background(), strings.NewReader(rosterCSV), "roster.csv", int64(len(rosterCSV)), nil)
	require.Error(t, err)

	require.NotEmpty(t, f.status.writes)
	final := f.status.writes[len(f.status.writes)-1]
	assert.Equal(t, models.ImportFailed, final.Status)
}

func TestRollbackDryRun(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, "DNI,Nombres,Apellido Paterno\n55555555,Ana,Perez\n")

	placeholder := &models.StudentDetail{
		Student:     models.Student{ID: "s-1", NationalID: "55555555", FirstName: "Ana", LastName: "Perez"},
		GradeName:   models.PlaceholderGradeName,
		SectionName: models.PlaceholderSectionName,
	}
	f.students.byNationalID["55555555"] = placeholder

	result, err := f.svc.Rollback(context.Background(), dto.RollbackRequest{Filename: name, DryRun: true})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "55555555", result.Candidates[0].NationalID)
	assert.Zero(t, result.Deleted)
	assert.Empty(t, f.students.deleted)
}

func TestRollbackDeletesPlaceholderStudents(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, "DNI,Nombres,Apellido Paterno\n55555555,Ana,Perez\n66666666,Luis,Soto\n")

	f.students.byNationalID["55555555"] = &models.StudentDetail{
		Student:     models.Student{ID: "s-1", NationalID: "55555555"},
		GradeName:   models.PlaceholderGradeName,
		SectionName: models.PlaceholderSectionName,
	}
	// Corrected classroom since the import; must survive the rollback.
	f.students.byNationalID["66666666"] = &models.StudentDetail{
		Student:     models.Student{ID: "s-2", NationalID: "66666666"},
		GradeName:   "5to",
		SectionName: "A",
	}

	result, err := f.svc.Rollback(context.Background(), dto.RollbackRequest{Filename: name})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []string{"s-1"}, f.students.deleted)
}

func TestDeleteUploadRemovesStatus(t *testing.T) {
	f := newImportFixture(t)
	name := f.stageRoster(t, rosterCSV)
	require.NoError(t, f.status.Write(name, &models.ImportStatus{ID: name, Status: models.ImportDone}))

	require.NoError(t, f.svc.DeleteUpload(name))
	assert.False(t, f.uploads.Exists(name))

	status, err := f.status.Read(name)
	require.NoError(t, err)
	assert.Nil(t, status)
}
