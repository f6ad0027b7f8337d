package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rmagsino/iskolar/internal/models"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

type contextKey string

const (
	studentContextKey contextKey = "student"
	adminContextKey   contextKey = "admin"
)

// RateLimiter checks whether the API key may make another request. Storage
// failures fail open inside the service, so a false return always means the
// key is over its window capacity.
type RateLimiter interface {
	Check(ctx context.Context, apiKey string) (bool, error)
}

// StudentResolver resolves student credentials to an account.
type StudentResolver interface {
	ResolveStudent(ctx context.Context, apiKey, csrfToken string) (*models.Student, error)
}

// AdminResolver resolves staff credentials to an account.
type AdminResolver interface {
	ResolveAdmin(ctx context.Context, apiKey, csrfToken string) (*models.Admin, error)
}

// StudentGate authenticates student requests. The checks run in a fixed
// order: missing API key, rate limit, missing CSRF token, then credential
// resolution. Rate limiting is keyed on the presented API key before the
// key is known to be valid, so invalid keys burn their own budget.
func StudentGate(limiter RateLimiter, sessions StudentResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, csrfToken, ok := gateCredentials(w, r, limiter, logger)
			if !ok {
				return
			}

			student, err := sessions.ResolveStudent(r.Context(), apiKey, csrfToken)
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), studentContextKey, student)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffGate authenticates staff requests with the same check order as
// StudentGate. Unapproved accounts are rejected after resolution.
func StaffGate(limiter RateLimiter, sessions AdminResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, csrfToken, ok := gateCredentials(w, r, limiter, logger)
			if !ok {
				return
			}

			admin, err := sessions.ResolveAdmin(r.Context(), apiKey, csrfToken)
			if err != nil {
				writeGateError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// gateCredentials runs the shared pre-resolution checks and writes the
// response itself when one fails.
func gateCredentials(w http.ResponseWriter, r *http.Request, limiter RateLimiter, logger *slog.Logger) (apiKey, csrfToken string, ok bool) {
	apiKey = ExtractAPIKey(r)
	if apiKey == "" {
		pkghttp.WriteUnauthorized(w, "API key is required")
		return "", "", false
	}

	allowed, err := limiter.Check(r.Context(), apiKey)
	if err != nil {
		logger.Error("rate limit check failed", slog.Any("error", err))
	}
	if !allowed {
		pkghttp.WriteTooManyRequests(w, "Rate limit exceeded. Please try again later.")
		return "", "", false
	}

	csrfToken = r.Header.Get("X-CSRF-Token")
	if csrfToken == "" {
		pkghttp.WriteForbidden(w, "CSRF token is required")
		return "", "", false
	}

	return apiKey, csrfToken, true
}

func writeGateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrAccountNotApproved):
		pkghttp.WriteForbidden(w, "Your account is pending approval")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Invalid API key or CSRF token")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// ExtractAPIKey reads the API key from the Authorization bearer header,
// falling back to X-API-Key.
func ExtractAPIKey(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		}
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}

// StudentFromContext returns the student placed by StudentGate, or nil.
func StudentFromContext(r *http.Request) *models.Student {
	student, _ := r.Context().Value(studentContextKey).(*models.Student)
	return student
}

// AdminFromContext returns the staff account placed by StaffGate, or nil.
func AdminFromContext(r *http.Request) *models.Admin {
	admin, _ := r.Context().Value(adminContextKey).(*models.Admin)
	return admin
}
