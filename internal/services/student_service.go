package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/repositories"
)

// StudentProfileRepository covers the student self-service profile surface.
type StudentProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Student, error)
	UpdateProfile(ctx context.Context, userID string, params repositories.UpdateProfileParams) (*models.Student, error)
}

type StudentService struct {
	repo   StudentProfileRepository
	logger *slog.Logger
}

func NewStudentService(repo StudentProfileRepository, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		logger: logger,
	}
}

// StudentProfileUpdate carries the fields a student may change. Nil fields
// are left untouched.
type StudentProfileUpdate struct {
	FirstName       *string
	MiddleName      *string
	LastName        *string
	PhoneNumber     *string
	Course          *string
	YearLevel       *string
	CompleteAddress *string
}

func (s *StudentService) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	student, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("student lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return student.Profile(), nil
}

// UpdateProfile applies the whitelisted fields with the same normalization
// used at registration.
func (s *StudentService) UpdateProfile(ctx context.Context, userID string, update StudentProfileUpdate) (*models.StudentProfile, error) {
	params := repositories.UpdateProfileParams{}

	if update.FirstName != nil {
		v := capitalizeWords(strings.TrimSpace(*update.FirstName))
		if v == "" {
			return nil, models.NewValidationError("First name cannot be empty")
		}
		params.FirstName = &v
	}
	if update.MiddleName != nil {
		v := capitalizeWords(strings.TrimSpace(*update.MiddleName))
		params.MiddleName = &v
	}
	if update.LastName != nil {
		v := capitalizeWords(strings.TrimSpace(*update.LastName))
		if v == "" {
			return nil, models.NewValidationError("Last name cannot be empty")
		}
		params.LastName = &v
	}
	if update.PhoneNumber != nil {
		v := strings.TrimSpace(*update.PhoneNumber)
		if !phoneNumberPattern.MatchString(v) {
			return nil, models.NewValidationError("Phone number must be a valid Philippine mobile number")
		}
		params.PhoneNumber = &v
	}
	if update.Course != nil {
		v := strings.ToUpper(strings.TrimSpace(*update.Course))
		if v == "" {
			return nil, models.NewValidationError("Course cannot be empty")
		}
		params.Course = &v
	}
	if update.YearLevel != nil {
		v := strings.TrimSpace(*update.YearLevel)
		if v == "" {
			return nil, models.NewValidationError("Year level cannot be empty")
		}
		params.YearLevel = &v
	}
	if update.CompleteAddress != nil {
		v := strings.TrimSpace(*update.CompleteAddress)
		if v == "" {
			return nil, models.NewValidationError("Address cannot be empty")
		}
		params.CompleteAddress = &v
	}

	student, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update student profile", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return student.Profile(), nil
}
