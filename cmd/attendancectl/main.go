package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/qr-attendance-api/internal/dto"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

const usage = `attendancectl runs roster maintenance tasks without the API server.

Commands:
  import           process a roster file synchronously
  mark-absences    mark absent every student without a record for a day
  rollback-import  delete placeholder students created by a past import
  seed-roster      create the standard grade and section layout

Run "attendancectl <command> -h" for command flags.`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "attendancectl: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	ctx := context.Background()
	switch os.Args[1] {
	case "import":
		err = app.runImport(ctx, os.Args[2:])
	case "mark-absences":
		err = app.runMarkAbsences(ctx, os.Args[2:])
	case "rollback-import":
		err = app.runRollback(ctx, os.Args[2:])
	case "seed-roster":
		err = app.runSeedRoster(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "attendancectl: unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "attendancectl: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg        *config.Config
	log        *zap.Logger
	closeFns   []func() error
	imports    *service.ImportService
	attendance *service.AttendanceService
	grades     *service.GradeService
	uploads    *storage.LocalStorage
}

// newApp wires the services against the configured database, with a
// pass-through queue so imports run inline.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	uploads, err := storage.NewLocalStorage(cfg.Imports.UploadDir)
	if err != nil {
		return nil, err
	}
	qrFiles, err := storage.NewLocalStorage(cfg.Imports.QRDir)
	if err != nil {
		return nil, err
	}
	logFiles, err := storage.NewLocalStorage(cfg.Imports.ErrorLogDir)
	if err != nil {
		return nil, err
	}

	window, err := service.NewWindow(cfg.Attendance)
	if err != nil {
		return nil, err
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	statusStore := repository.NewImportStatusStore(uploads)

	attendance := service.NewAttendanceService(attendanceRepo, studentRepo, window, validate, log, nil)
	grades := service.NewGradeService(gradeRepo, validate, log)
	imports := service.NewImportService(service.ImportServiceDeps{
		Students:  studentRepo,
		Grades:    gradeRepo,
		Guardians: guardianRepo,
		Status:    statusStore,
		Uploads:   uploads,
		QRFiles:   qrFiles,
		LogFiles:  logFiles,
		Encoder:   qr.NewEncoder(),
		Queue:     nil, // commands call Run directly
		Validator: validate,
		Logger:    log,
		Metrics:   nil,
		Config:    cfg.Imports,
	})

	return &app{
		cfg:        cfg,
		log:        log,
		closeFns:   []func() error{db.Close, log.Sync},
		imports:    imports,
		attendance: attendance,
		grades:     grades,
		uploads:    uploads,
	}, nil
}

func (a *app) close() {
	for _, fn := range a.closeFns {
		_ = fn()
	}
}

// runImport copies the roster into the uploads directory and processes it
// synchronously, printing the final counters.
func (a *app) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "path to the roster file (.csv, .xls or .xlsx)")
	period := fs.Int("period", 0, "school period to stamp on created students")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	source, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open roster: %w", err)
	}
	defer source.Close() //nolint:errcheck

	uploadName := fmt.Sprintf("import_cli_%d%s", time.Now().Unix(), filepath.Ext(*file))
	if _, err := a.uploads.SaveStream(uploadName, source); err != nil {
		return fmt.Errorf("stage roster: %w", err)
	}

	var periodArg *int
	if *period > 0 {
		periodArg = period
	}
	status, err := a.imports.Run(ctx, uploadName, periodArg)
	if err != nil {
		return err
	}
	fmt.Printf("import %s: %d rows, %d created, %d updated\n",
		status.Status, status.Total, status.Created, status.Updated)
	if status.ErrorsLog != "" {
		fmt.Printf("row errors logged to %s\n", status.ErrorsLog)
	}
	return nil
}

func (a *app) runMarkAbsences(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mark-absences", flag.ExitOnError)
	date := fs.String("date", "", "day to sweep as YYYY-MM-DD (default today)")
	period := fs.Int("period", 0, "restrict the sweep to one school period")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var day *time.Time
	if *date != "" {
		parsed, err := time.Parse("2006-01-02", *date)
		if err != nil {
			return fmt.Errorf("-date must be YYYY-MM-DD")
		}
		day = &parsed
	}
	var periodArg *int
	if *period > 0 {
		periodArg = period
	}

	result, err := a.attendance.SweepAbsences(ctx, day, periodArg)
	if err != nil {
		return err
	}
	fmt.Printf("sweep %s: reviewed %d students, marked %d absent\n",
		result.Date, result.Reviewed, result.Marked)
	return nil
}

func (a *app) runRollback(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("rollback-import", flag.ExitOnError)
	file := fs.String("file", "", "upload name of the import to roll back")
	apply := fs.Bool("apply", false, "delete the candidates instead of previewing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("-file is required")
	}

	result, err := a.imports.Rollback(ctx, dto.RollbackRequest{Filename: *file, DryRun: !*apply})
	if err != nil {
		return err
	}
	for _, candidate := range result.Candidates {
		fmt.Printf("  %s  %s %s  (%s / %s)\n", candidate.NationalID,
			candidate.FirstName, candidate.LastName, candidate.GradeName, candidate.SectionName)
	}
	if result.DryRun {
		fmt.Printf("%d candidates, none deleted (re-run with -apply)\n", len(result.Candidates))
	} else {
		fmt.Printf("%d students deleted\n", result.Deleted)
	}
	return nil
}

func (a *app) runSeedRoster(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seed-roster", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	created, err := a.grades.SeedRoster(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("roster layout ready, %d grade/section combinations\n", created)
	return nil
}
