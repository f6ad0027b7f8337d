package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	internalauth "github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/handlers"
	"github.com/rmagsino/iskolar/internal/repositories"
	"github.com/rmagsino/iskolar/internal/routes"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/rmagsino/iskolar/internal/storage"
	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
)

// SentEmail is one captured outbound message.
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// CapturingEmailService implements services.EmailService and records every
// message instead of sending it.
type CapturingEmailService struct {
	mu   sync.Mutex
	Sent []SentEmail
}

func (m *CapturingEmailService) SendPasswordReset(ctx context.Context, email, firstName, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{
		To:      email,
		Subject: "Reset your password",
		Body:    "Reset token: " + token,
	})
	return nil
}

func (m *CapturingEmailService) SendApplicationStatus(ctx context.Context, email, firstName, scholarshipTitle, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{
		To:      email,
		Subject: "Scholarship application update",
		Body:    "Status: " + status,
	})
	return nil
}

// LastEmail returns the most recent captured message, or nil.
func (m *CapturingEmailService) LastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return &m.Sent[len(m.Sent)-1]
}

type rejectAllGoogleVerifier struct{}

func (rejectAllGoogleVerifier) Verify(ctx context.Context, idToken string) (*internalauth.GoogleClaims, error) {
	return nil, errors.New("google sign-in is not available in integration tests")
}

// TestServer wraps an httptest.Server wired with the production router,
// a real database, local temp storage and a capturing email service.
type TestServer struct {
	Server *httptest.Server
	DB     *database.DB
	Email  *CapturingEmailService
}

// NewTestServer builds the full HTTP stack against the given database.
// uploadDir should be a t.TempDir().
func NewTestServer(db *database.DB, uploadDir string) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	studentRepo := repositories.NewStudentRepository(db)
	adminRepo := repositories.NewAdminRepository(db)
	courseRepo := repositories.NewCourseRepository(db)
	departmentRepo := repositories.NewDepartmentRepository(db)
	scholarshipRepo := repositories.NewScholarshipRepository(db)
	formRepo := repositories.NewScholarshipFormRepository(db)
	applicationRepo := repositories.NewApplicationRepository(db)
	announcementRepo := repositories.NewAnnouncementRepository(db)
	rateLimitRepo := repositories.NewRateLimitRepository(db)

	store, err := storage.NewLocalStorage(uploadDir, "/uploads", logger)
	if err != nil {
		return nil, err
	}

	auditLogger := pkglogger.NewAuditLogger(logger)
	email := &CapturingEmailService{}

	rateLimitService := services.NewRateLimitService(rateLimitRepo, services.RateLimitConfig{
		Capacity: 5000,
		Window:   60 * time.Second,
	}, logger)

	authService := services.NewAuthService(
		studentRepo,
		adminRepo,
		rejectAllGoogleVerifier{},
		email,
		store,
		internalauth.NewTimingDelay(internalauth.TimingConfig{}),
		services.AuthConfig{
			MaxLoginAttempts: 5,
			LockoutDuration:  30 * time.Minute,
			ResetTokenTTL:    time.Hour,
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
		email,
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

	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(studentService, scholarshipService, applicationService, catalogService)
	adminHandler := handlers.NewAdminHandler(adminService)
	scholarshipHandler := handlers.NewScholarshipHandler(scholarshipService, formService)
	applicationHandler := handlers.NewApplicationReviewHandler(applicationService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(
		r,
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

	return &TestServer{
		Server: httptest.NewServer(r),
		DB:     db,
		Email:  email,
	}, nil
}

// Close shuts down the test server.
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Request makes a JSON request to the test server.
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithSession makes a request with the API key and CSRF token pair.
func (ts *TestServer) RequestWithSession(method, path, apiKey, csrfToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{
		"Authorization": "Bearer " + apiKey,
		"X-CSRF-Token":  csrfToken,
	})
}

// ParseJSONResponse decodes the response body into target.
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// GetErrorMessage extracts the message field from an error response.
func GetErrorMessage(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	var errResp map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return "", err
	}
	if msg, ok := errResp["message"].(string); ok {
		return msg, nil
	}
	return "", nil
}
