package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
)

// StudentReader resolves student sessions.
type StudentReader interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Student, error)
}

// AdminReader resolves staff sessions.
type AdminReader interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*models.Admin, error)
}

// SessionService resolves an API key and CSRF token pair to a principal.
// Callers must have already verified that both credentials are non-empty;
// resolution failures collapse to ErrUnauthorized so the response never
// reveals which credential was wrong.
type SessionService struct {
	students StudentReader
	admins   AdminReader
	logger   *slog.Logger
}

func NewSessionService(students StudentReader, admins AdminReader, logger *slog.Logger) *SessionService {
	return &SessionService{
		students: students,
		admins:   admins,
		logger:   logger,
	}
}

// ResolveStudent returns the student owning the API key, after a
// constant-time match of the CSRF token against the account's single slot.
func (s *SessionService) ResolveStudent(ctx context.Context, apiKey, csrfToken string) (*models.Student, error) {
	student, err := s.students.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("student session lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if student.CSRFToken == nil || !auth.ConstantTimeEquals(*student.CSRFToken, csrfToken) {
		return nil, models.ErrUnauthorized
	}

	return student, nil
}

// ResolveAdmin returns the staff account owning the API key. Accounts that
// are not approved resolve but are rejected with ErrAccountNotApproved.
func (s *SessionService) ResolveAdmin(ctx context.Context, apiKey, csrfToken string) (*models.Admin, error) {
	admin, err := s.admins.GetByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("admin session lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if admin.CSRFToken == nil || !auth.ConstantTimeEquals(*admin.CSRFToken, csrfToken) {
		return nil, models.ErrUnauthorized
	}

	if !admin.IsApproved() {
		return nil, models.ErrAccountNotApproved
	}

	return admin, nil
}
