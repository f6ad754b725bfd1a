package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-portal-api/api/swagger"
	"github.com/noah-isme/sma-portal-api/internal/handler"
	"github.com/noah-isme/sma-portal-api/internal/repository"
	"github.com/noah-isme/sma-portal-api/internal/router"
	"github.com/noah-isme/sma-portal-api/internal/service"
	"github.com/noah-isme/sma-portal-api/pkg/cache"
	"github.com/noah-isme/sma-portal-api/pkg/config"
	"github.com/noah-isme/sma-portal-api/pkg/database"
	"github.com/noah-isme/sma-portal-api/pkg/logger"
	"github.com/noah-isme/sma-portal-api/pkg/storage"
)

// @title School Portal API
// @version 1.0.0
// @description Administration portal for accounts, grades, library lending and fee tracking.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgres(startCtx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(startCtx, db, logr); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	metrics := service.NewMetricsService()
	metrics.Registry().MustRegister(collectors.NewDBStatsCollector(db.DB, cfg.Database.Name))

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(startCtx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, dashboard caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheService := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	store, err := storage.NewLocalStorage(cfg.Media.StorageDir)
	if err != nil {
		return fmt.Errorf("init media storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Media.SignedURLSecret, cfg.Media.SignedURLTTL)

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	validate := service.NewValidator()

	authService := service.NewAuthService(accountRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	ids := service.NewRegistrationIDGenerator(accountRepo, cfg.Registration.MaxAttempts, metrics, logr)
	accountService := service.NewAccountService(accountRepo, ids, validate, logr)
	studentService := service.NewStudentService(studentRepo, validate, logr)
	departmentService := service.NewDepartmentService(repository.NewDepartmentRepository(db), validate, logr)
	gradeService := service.NewGradeService(repository.NewGradeRepository(db), studentRepo, validate, logr)
	bookService := service.NewBookService(repository.NewBookRepository(db), validate, logr)
	lendingService := service.NewLibraryRecordService(repository.NewLibraryRecordRepository(db), studentRepo, validate, metrics, service.SystemClock, logr)
	feeService := service.NewFeeRecordService(repository.NewFeeRecordRepository(db), studentRepo, validate, logr)
	exportService := service.NewExportService(lendingService, feeService, metrics, logr)
	dashboardService := service.NewDashboardService(service.DashboardServiceParams{
		Repo:   repository.NewDashboardRepository(db),
		Cache:  cacheService,
		Logger: logr,
		Clock:  service.SystemClock,
		Config: service.DashboardServiceConfig{CacheTTL: cfg.Cache.TTL},
	})
	mediaService := service.NewMediaService(accountRepo, studentRepo, store, signer, service.MediaConfig{
		MaxFileSize:  cfg.Media.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Media.AllowedMIMEs,
		APIPrefix:    cfg.APIPrefix,
	}, logr)

	engine := router.New(router.Params{
		Env:            cfg.Env,
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Logger:         logr,
		Tokens:         authService,
		Audit:          auditRepo,
		Observer:       metrics,
		Handlers: router.Handlers{
			Auth:           handler.NewAuthHandler(authService),
			Accounts:       handler.NewAccountHandler(accountService),
			Students:       handler.NewStudentHandler(studentService),
			Departments:    handler.NewDepartmentHandler(departmentService),
			Grades:         handler.NewGradeHandler(gradeService),
			Books:          handler.NewBookHandler(bookService),
			LibraryRecords: handler.NewLibraryRecordHandler(lendingService, exportService),
			Fees:           handler.NewFeeRecordHandler(feeService, exportService),
			Dashboard:      handler.NewDashboardHandler(dashboardService),
			Media:          handler.NewMediaHandler(mediaService),
			Metrics:        handler.NewMetricsHandler(metrics, db),
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		serverErrors <- srv.ListenAndServe()
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-signals:
		logr.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logr.Info("server stopped")
	return nil
}
