package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/background"
	"github.com/rmagsino/iskolar/internal/config"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/handlers"
	middlewareCustom "github.com/rmagsino/iskolar/internal/middleware"
	"github.com/rmagsino/iskolar/internal/repositories"
	"github.com/rmagsino/iskolar/internal/routes"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/rmagsino/iskolar/internal/storage"
	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	studentRepo := repositories.NewStudentRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	departmentRepo := repositories.NewDepartmentRepository(db)
	scholarshipRepo := repositories.NewScholarshipRepository(db)
	formRepo := repositories.NewScholarshipFormRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	announcementRepo := repositories.NewAnnouncementRepository(db)
	rateLimitRepo := repositories.NewRateLimitRepository(db)

	// Document storage
	store, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.PublicBaseURL, logger)
	if err != nil {
		logger.Error("failed to initialize storage", slog.Any("error", err))
		os.Exit(1)
	}

	// Security services
	auditLogger := pkglogger.NewAuditLogger(logger)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandomMs,
	})

	googleVerifier := auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)

	rateLimitService := services.NewRateLimitService(rateLimitRepo, services.RateLimitConfig{
		Capacity: cfg.Auth.RateLimitCapacity,
		Window:   cfg.Auth.RateLimitWindow,
	}, logger)

	// AWS SES email service
	emailService, err := services.NewAWSSESEmailService(
		cfg.Email.AWSRegion,
		cfg.Email.FromAddress,
		cfg.Email.FromName,
		cfg.Email.AppBaseURL,
		logger,
	)
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	authService := services.NewAuthService(
		studentRepo,
		adminRepo,
		googleVerifier,
		emailService,
		store,
		timingDelay,
		services.AuthConfig{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockoutDuration:  cfg.Auth.LockoutDuration,
			ResetTokenTTL:    1 * time.Hour,
		},
		logger,
		auditLogger,
	)
	sessionService := services.NewSessionService(studentRepo, adminRepo, logger)
	studentService := services.NewStudentService(studentRepo, logger)
	scholarshipService := services.NewScholarshipService(scholarshipRepo, courseRepo, formRepo, logger)
	formService := services.NewFormService(formRepo, store, logger)
	applicationService := services.NewApplicationService(
		applicationRepo,
		scholarshipRepo,
		studentRepo,
		store,
		emailService,
		auditLogger,
		logger,
	)
	adminService := services.NewAdminService(
		adminRepo,
		applicationRepo,
		studentRepo,
		scholarshipRepo,
		courseRepo,
		auditLogger,
		logger,
	)
	catalogService := services.NewCatalogService(courseRepo, departmentRepo, announcementRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(studentService, scholarshipService, applicationService, catalogService)
	adminHandler := handlers.NewAdminHandler(adminService)
	scholarshipHandler := handlers.NewScholarshipHandler(scholarshipService, formService)
	applicationHandler := handlers.NewApplicationReviewHandler(applicationService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	// Rate limit row cleanup
	cleanupManager := background.NewCleanupManager(rateLimitRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.RateLimitRecordTTL)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(
		router,
		authHandler,
		studentHandler,
		adminHandler,
		scholarshipHandler,
		applicationHandler,
		catalogHandler,
		rateLimitService,
		sessionService,
		sessionService,
		logger,
	)

	// Stored documents are served directly
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Storage.UploadDir)))
	router.Get("/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		fileServer.ServeHTTP(w, r)
	})

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
