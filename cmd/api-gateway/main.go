package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/playpulse/playpulse-api/api/swagger"
	"github.com/playpulse/playpulse-api/internal/handler"
	"github.com/playpulse/playpulse-api/internal/middleware"
	"github.com/playpulse/playpulse-api/internal/repository"
	"github.com/playpulse/playpulse-api/internal/service"
	"github.com/playpulse/playpulse-api/pkg/cache"
	"github.com/playpulse/playpulse-api/pkg/config"
	"github.com/playpulse/playpulse-api/pkg/database"
	"github.com/playpulse/playpulse-api/pkg/jobs"
	"github.com/playpulse/playpulse-api/pkg/logger"
	"github.com/playpulse/playpulse-api/pkg/mailer"
	corsmiddleware "github.com/playpulse/playpulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/playpulse/playpulse-api/pkg/middleware/requestid"
	"github.com/playpulse/playpulse-api/pkg/payment"
	"github.com/playpulse/playpulse-api/pkg/realtime"
	"github.com/playpulse/playpulse-api/pkg/storage"
)

// @title PlayPulse API
// @version 1.0.0
// @description Multi-tenant backend for sports institutes
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		logr.Fatal("failed to apply migrations", zap.Error(err))
	}

	metrics := service.NewMetricsService()
	readiness := map[string]handler.Pinger{"database": db}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, calendar cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close()
			cacheRepo = redisRepo
			readiness["redis"] = handler.PingFunc(redisRepo.Ping)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CalendarTTL, logr, cacheRepo != nil)

	backend, err := storage.NewBackend(cfg.Uploads)
	if err != nil {
		logr.Fatal("failed to init storage backend", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	sender := mailer.New(cfg.Email, logr)

	var gateway payment.Gateway
	if cfg.Payment.DemoMode {
		logr.Warn("demo payments enabled: gateway checkouts are not verified")
		gateway = payment.NewKhaltiClient(cfg.Payment, logr)
	}

	hub := realtime.NewHub(logr)
	hub.OnConnectionChange(metrics.ChatConnected)
	defer hub.Close()

	userRepo := repository.NewUserRepository(db)
	instituteRepo := repository.NewInstituteRepository(db)
	programRepo := repository.NewProgramRepository(db)
	coachRepo := repository.NewCoachRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	eventRepo := repository.NewEventRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	gamificationRepo := repository.NewGamificationRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	validate := validator.New()

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, sender, metrics, validate, logr)
	emailQueue := jobs.NewQueue("notification-email", notificationSvc.HandleEmailJob, jobs.QueueConfig{
		Workers:    cfg.Email.Workers,
		MaxRetries: cfg.Email.MaxRetries,
		RetryDelay: cfg.Email.RetryDelay,
		JobTimeout: cfg.Email.Timeout,
		Logger:     logr,
	})
	emailQueue.Start(ctx)
	defer emailQueue.Stop()
	notificationSvc.UseQueue(emailQueue)

	mediaSvc := service.NewMediaService(backend, service.MediaServiceConfig{
		MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
		PublicPath:  cfg.APIPrefix + "/uploads",
	}, logr)

	authSvc := service.NewAuthService(userRepo, sender, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		ResetCodeTTL:      cfg.PasswordReset.CodeTTL,
		EmailTimeout:      cfg.Email.Timeout,
	})
	authSvc.UseImageStore(mediaSvc)

	programSvc := service.NewProgramService(db, programRepo, instituteRepo, coachRepo, validate, logr)
	instituteSvc := service.NewInstituteService(instituteRepo, programSvc, mediaSvc, validate, logr)
	coachSvc := service.NewCoachService(db, coachRepo, userRepo, instituteRepo, validate, logr)
	coachSvc.UseCache(cacheSvc)
	programSvc.UseCache(cacheSvc)
	enrollmentSvc := service.NewEnrollmentService(db, enrollmentRepo, programRepo, instituteRepo, notificationSvc, gateway, metrics,
		service.EnrollmentConfig{SentinelToken: cfg.Payment.SentinelToken, FrontendURL: cfg.FrontendURL}, validate, logr)
	enrollmentSvc.UseCache(cacheSvc)
	eventSvc := service.NewEventService(db, eventRepo, instituteRepo, mediaSvc, notificationSvc, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, coachRepo, programRepo, cacheSvc, validate, logr)
	calendarSvc := service.NewCalendarService(scheduleRepo, service.NewScheduleProjector(logr), coachRepo, cacheSvc, cfg.Cache.CalendarTTL, logr)
	attendanceSvc := service.NewAttendanceService(db, attendanceRepo, gamificationRepo, coachRepo, programRepo, enrollmentRepo,
		cfg.Gamification.AttendancePoints, metrics, validate, logr)
	progressSvc := service.NewProgressService(progressRepo, coachRepo, programRepo, enrollmentRepo, validate, logr)
	gamificationSvc := service.NewGamificationService(gamificationRepo, userRepo, coachRepo, programRepo, validate, logr)
	chatSvc := service.NewChatService(chatRepo, userRepo, enrollmentRepo, hub, validate, logr)
	materialSvc := service.NewMaterialService(materialRepo, coachRepo, programRepo, enrollmentRepo, backend, signer, service.MaterialServiceConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		DownloadPath: cfg.APIPrefix + "/materials/download",
	}, validate, logr)
	reviewSvc := service.NewReviewService(reviewRepo, programRepo, programRepo, validate, logr)
	dashboardSvc := service.NewCoachDashboardService(service.CoachDashboardServiceParams{
		Coaches:       coachRepo,
		Enrollments:   enrollmentRepo,
		Activity:      service.EnrollmentActivity{Attendance: attendanceRepo, Progress: progressRepo},
		Notifications: notificationSvc,
		Schedules:     scheduleRepo,
		Materials:     materialSvc,
		Chat:          chatSvc,
		Gamification:  gamificationSvc,
		Logger:        logr,
	})

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.RegisterRoutes(r, authSvc, handler.Handlers{
		Health:         handler.NewHealthHandler(metrics.Handler(), readiness),
		Auth:           handler.NewAuthHandler(authSvc),
		Institutes:     handler.NewInstituteHandler(instituteSvc),
		Programs:       handler.NewProgramHandler(programSvc),
		Coaches:        handler.NewCoachHandler(coachSvc),
		Enrollments:    handler.NewEnrollmentHandler(enrollmentSvc),
		Events:         handler.NewEventHandler(eventSvc),
		Schedules:      handler.NewScheduleHandler(scheduleSvc, calendarSvc),
		Activity:       handler.NewActivityHandler(attendanceSvc, progressSvc),
		Gamification:   handler.NewGamificationHandler(gamificationSvc),
		Notifications:  handler.NewNotificationHandler(notificationSvc),
		Chat:           handler.NewChatHandler(chatSvc, hub, cfg.CORS.AllowedOrigins, logr),
		Media:          handler.NewMediaHandler(materialSvc, mediaSvc),
		Reviews:        handler.NewReviewHandler(reviewSvc),
		CoachDashboard: handler.NewCoachDashboardHandler(dashboardSvc),
	}, handler.RouterConfig{APIPrefix: cfg.APIPrefix, DemoPayments: cfg.Payment.DemoMode})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "demo_payments", cfg.Payment.DemoMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
