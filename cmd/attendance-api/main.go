package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/qr-attendance-api/api/swagger"
	"github.com/noah-isme/qr-attendance-api/internal/handler"
	"github.com/noah-isme/qr-attendance-api/internal/middleware"
	"github.com/noah-isme/qr-attendance-api/internal/repository"
	"github.com/noah-isme/qr-attendance-api/internal/service"
	"github.com/noah-isme/qr-attendance-api/pkg/cache"
	"github.com/noah-isme/qr-attendance-api/pkg/config"
	"github.com/noah-isme/qr-attendance-api/pkg/database"
	"github.com/noah-isme/qr-attendance-api/pkg/jobs"
	"github.com/noah-isme/qr-attendance-api/pkg/logger"
	corsmw "github.com/noah-isme/qr-attendance-api/pkg/middleware/cors"
	"github.com/noah-isme/qr-attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/qr-attendance-api/pkg/qr"
	"github.com/noah-isme/qr-attendance-api/pkg/storage"
)

// @title QR Attendance API
// @version 1.0
// @description School attendance tracking with QR scans and roster imports.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	// Redis only backs the dashboard cache; run without it if unavailable.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		redisClient = nil
	}

	uploads, err := storage.NewLocalStorage(cfg.Imports.UploadDir)
	if err != nil {
		log.Fatal("init upload storage", zap.Error(err))
	}
	qrFiles, err := storage.NewLocalStorage(cfg.Imports.QRDir)
	if err != nil {
		log.Fatal("init qr storage", zap.Error(err))
	}
	logFiles, err := storage.NewLocalStorage(cfg.Imports.ErrorLogDir)
	if err != nil {
		log.Fatal("init import log storage", zap.Error(err))
	}

	window, err := service.NewWindow(cfg.Attendance)
	if err != nil {
		log.Fatal("parse attendance window", zap.Error(err))
	}

	validate := validator.New()
	encoder := qr.NewEncoder()

	studentRepo := repository.NewStudentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	guardianRepo := repository.NewGuardianRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	userRepo := repository.NewUserRepository(db)
	statusStore := repository.NewImportStatusStore(uploads)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, cfg.Auth, validate, log)
	attendanceService := service.NewAttendanceService(attendanceRepo, studentRepo, window, validate, log, metricsService)
	studentService := service.NewStudentService(studentRepo, encoder, qrFiles, validate, log)
	gradeService := service.NewGradeService(gradeRepo, validate, log)
	guardianService := service.NewGuardianService(guardianRepo, validate, log)
	exportService := service.NewExportService(attendanceRepo, log)
	dashboardService := service.NewDashboardService(studentRepo, gradeRepo, attendanceService, redisClient, cfg.Dashboard.CacheTTL, log)

	var importService *service.ImportService
	// One worker keeps concurrent roster imports from interleaving writes.
	importQueue := jobs.NewQueue("roster-imports", func(ctx context.Context, job jobs.Job) error {
		return importService.HandleJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: cfg.Imports.WorkerRetries,
		Logger:     log,
	})
	importService = service.NewImportService(service.ImportServiceDeps{
		Students:  studentRepo,
		Grades:    gradeRepo,
		Guardians: guardianRepo,
		Status:    statusStore,
		Uploads:   uploads,
		QRFiles:   qrFiles,
		LogFiles:  logFiles,
		Encoder:   encoder,
		Queue:     importQueue,
		Validator: validate,
		Logger:    log,
		Metrics:   metricsService,
		Config:    cfg.Imports,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	importQueue.Start(ctx)
	defer importQueue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(log))
	router.Use(corsmw.New(cfg.CORS.AllowedOrigins))
	router.Use(middleware.Metrics(metricsService))

	authHandler := handler.NewAuthHandler(authService)
	studentHandler := handler.NewStudentHandler(studentService)
	gradeHandler := handler.NewGradeHandler(gradeService)
	guardianHandler := handler.NewGuardianHandler(guardianService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService, exportService)
	importHandler := handler.NewImportHandler(importService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(metricsService.Handler()))
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := router.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		}

		// The scan endpoint stays open so kiosks run without sessions.
		api.POST("/attendance/scan", attendanceHandler.Scan)

		protected := api.Group("", middleware.JWT(authService))
		{
			protected.POST("/attendance/manual", attendanceHandler.MarkManual)
			protected.POST("/attendance/sweep", attendanceHandler.Sweep)
			protected.GET("/attendance/report", attendanceHandler.Report)
			protected.GET("/attendance/report/export", attendanceHandler.Export)

			protected.GET("/students", studentHandler.List)
			protected.POST("/students", studentHandler.Create)
			protected.GET("/students/:id", studentHandler.Get)
			protected.PATCH("/students/:id", studentHandler.Update)
			protected.DELETE("/students/:id", studentHandler.Delete)
			protected.GET("/students/:id/qr", studentHandler.QR)

			protected.GET("/grades", gradeHandler.ListGrades)
			protected.POST("/grades", gradeHandler.CreateGrade)
			protected.GET("/sections", gradeHandler.ListSections)
			protected.POST("/sections", gradeHandler.CreateSection)
			protected.POST("/sections/bulk", gradeHandler.BulkCreateSections)

			protected.GET("/guardians", guardianHandler.List)
			protected.POST("/guardians", guardianHandler.Create)

			protected.GET("/dashboard/stats", dashboardHandler.Stats)

			admin := protected.Group("", middleware.RequireAdmin())
			{
				admin.POST("/imports", importHandler.Trigger)
				admin.GET("/imports", importHandler.List)
				admin.GET("/imports/:id/status", importHandler.Status)
				admin.DELETE("/imports/:id", importHandler.Delete)
				admin.POST("/imports/rollback", importHandler.Rollback)
			}
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Sugar().Infow("server listening", "port", cfg.Port, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
