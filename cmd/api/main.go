package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-application-form/config"
	_ "go-application-form/docs" // Important for Swagger
	v1 "go-application-form/internal/delivery/http/v1"
	"go-application-form/internal/domain"
	"go-application-form/internal/repository/memory"
	"go-application-form/internal/repository/objectstore"
	"go-application-form/internal/repository/postgres"
	sessionredis "go-application-form/internal/repository/redis"
	"go-application-form/internal/submission"
	"go-application-form/internal/usecase"
	"go-application-form/pkg/database"
	"go-application-form/pkg/email"
	"go-application-form/pkg/logger"
	"go-application-form/pkg/redis"
	"go-application-form/pkg/security/antivirus"
	"go-application-form/pkg/storage"

	goredis "github.com/redis/go-redis/v9"
)

// @title           Application Form API
// @version         1.0
// @description     Server-held job application form sessions with inline validation and a submission gate.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	logger.Init(cfg.LogLevel)
	logger.Log.Info("Starting application form backend", "port", cfg.Port, "session_store", cfg.SessionStore)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 3. Setup Session Store
	var (
		sessionRepo   domain.FormSessionRepository
		sessionLocker domain.SessionLocker
		redisClient   *goredis.Client
		probes        = map[string]usecase.HealthProbe{}
	)
	switch cfg.SessionStore {
	case "redis":
		redisClient, err = redis.Connect(ctx, redis.Config{
			URL:      cfg.UpstashRedisURL,
			Password: cfg.UpstashRedisPassword,
		})
		if err != nil {
			logger.Log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		sessionRepo = sessionredis.NewFormSessionRepository(redisClient, cfg.SessionTTL)
		sessionLocker = sessionredis.NewSessionLocker(redisClient, cfg.SessionLockTTL, cfg.SessionLockWait)
		probes["session_store"] = func(ctx context.Context) error {
			return redis.HealthCheck(ctx, redisClient)
		}
	default:
		memoryRepo := memory.NewFormSessionRepository(cfg.SessionTTL)
		memoryRepo.StartJanitor(ctx, time.Minute)
		sessionRepo = memoryRepo
	}

	// 4. Setup Submission Delivery
	// Postgres archive (when configured), hiring email, then the log record
	var targets []submission.Target
	if cfg.DatabaseURL != "" {
		db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		archive := postgres.NewSubmittedApplicationRepository(db)
		if err := archive.EnsureSchema(ctx); err != nil {
			logger.Log.Error("Failed to prepare database schema", "error", err)
			os.Exit(1)
		}
		targets = append(targets, submission.Target{Name: "postgres", Sink: archive, Required: true})
		probes["database"] = db.PingContext
	}

	emailService := email.NewEmailService(cfg)
	if emailService.IsConfigured() {
		targets = append(targets, submission.Target{Name: "email", Sink: submission.NewEmailSink(emailService)})
	} else {
		logger.Log.Warn("SMTP is not configured; hiring notifications are disabled")
	}
	targets = append(targets, submission.Target{Name: "log", Sink: submission.NewLogSink(logger.Log), Required: true})

	// 5. Setup Upload Scanning
	scanner := antivirus.New(cfg.ClamAVAddress)
	if cfg.ClamAVAddress != "" {
		probes["antivirus"] = func(ctx context.Context) error {
			if !scanner.Available(ctx) {
				return errors.New("clamd did not answer PING")
			}
			return nil
		}
	}
	logger.Log.Info("Upload scanning configured", "scanner", scanner.Name())

	// 6. Setup Upload Storage
	var uploadStore domain.UploadStore
	s3Cfg := storage.S3Config{
		Provider:        storage.S3Provider(cfg.S3Provider),
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		Endpoint:        cfg.S3Endpoint,
	}
	if s3Cfg.Enabled() {
		s3Client, err := storage.NewS3Client(ctx, s3Cfg)
		if err != nil {
			logger.Log.Error("Failed to create S3 client", "error", err)
			os.Exit(1)
		}
		uploadStore = objectstore.NewUploadStore(s3Client, s3Cfg.Bucket)
		probes["upload_store"] = func(ctx context.Context) error {
			return storage.CheckBucket(ctx, s3Client, s3Cfg.Bucket)
		}
	}

	// 7. Setup UseCases
	formUC := usecase.NewApplicationFormUsecase(sessionRepo, submission.NewFanOutSink(targets...), usecase.ApplicationFormConfig{
		MaxResumeBytes:   cfg.MaxResumeBytes,
		MaxDocumentCount: cfg.MaxDocumentCount,
		Scanner:          scanner,
		Store:            uploadStore,
		Locker:           sessionLocker,
	})
	healthUC := usecase.NewHealthUsecase(probes)

	// 8. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		FormUC:      formUC,
		HealthUC:    healthUC,
		RedisClient: redisClient,
		Config:      cfg,
	})

	// 9. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}
