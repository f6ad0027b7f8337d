package services

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"mime/multipart"
	"regexp"
	"strings"
	"time"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/storage"
	pkgauth "github.com/rmagsino/iskolar/pkg/auth"
	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
)

// StudentRepository defines the persistence operations the auth flows need.
type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error)
	GetByEmail(ctx context.Context, email string) (*models.Student, error)
	IncrementLoginAttempts(ctx context.Context, id int64) error
	ResetLoginAttempts(ctx context.Context, id int64) error
	UpdateCSRFToken(ctx context.Context, userID, token string) error
	SaveResetToken(ctx context.Context, id int64, token string, expires time.Time) error
	GetByResetToken(ctx context.Context, token string) (*models.Student, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

// AdminAuthRepository covers the staff sign-in flow.
type AdminAuthRepository interface {
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
	GetByEmail(ctx context.Context, email string) (*models.Admin, error)
	UpdateGoogleID(ctx context.Context, id int64, googleID string) error
	UpdateCSRFToken(ctx context.Context, userID, token string) error
}

// GoogleTokenVerifier validates Google ID tokens for staff sign-in.
type GoogleTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.GoogleClaims, error)
}

// AuthConfig holds the lockout and reset-token policy.
type AuthConfig struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	ResetTokenTTL    time.Duration
}

// AuthService implements student login with lockout, registration, password
// reset and staff Google sign-in. Every successful login rotates the
// account's CSRF token.
type AuthService struct {
	students StudentRepository
	admins   AdminAuthRepository
	google   GoogleTokenVerifier
	email    EmailService
	store    DocumentStore
	timing   *auth.TimingDelay
	config   AuthConfig
	logger   *slog.Logger
	audit    *pkglogger.AuditLogger
}

func NewAuthService(
	students StudentRepository,
	admins AdminAuthRepository,
	google GoogleTokenVerifier,
	email EmailService,
	store DocumentStore,
	timing *auth.TimingDelay,
	config AuthConfig,
	logger *slog.Logger,
	audit *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		students: students,
		admins:   admins,
		google:   google,
		email:    email,
		store:    store,
		timing:   timing,
		config:   config,
		logger:   logger,
		audit:    audit,
	}
}

// StudentSession is the login response payload: the sanitized profile plus
// the credentials for subsequent privileged requests.
type StudentSession struct {
	Student   *models.StudentProfile `json:"student"`
	APIKey    string                 `json:"api_key"`
	CSRFToken string                 `json:"csrf_token"`
}

// StaffSession is the staff sign-in payload.
type StaffSession struct {
	Admin     *models.AdminProfile `json:"admin"`
	APIKey    string               `json:"api_key"`
	CSRFToken string               `json:"csrf_token"`
}

// Login authenticates a student by student number and password, enforcing
// the per-account lockout.
func (s *AuthService) Login(ctx context.Context, studentNumber, password string) (*StudentSession, error) {
	student, err := s.students.GetByStudentNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown student numbers get the bare invalid-credentials
			// answer, with no counter to avoid confirming existence.
			s.timing.Wait(false)
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "student_login",
				Success:       false,
				FailureReason: "unknown_student_number",
				Metadata: map[string]string{
					"student_number": pkglogger.SanitizedStudentNumber(studentNumber),
				},
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("student lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()

	if student.LoginAttempts >= s.config.MaxLoginAttempts && student.LastLoginAttempt != nil {
		elapsed := now.Sub(*student.LastLoginAttempt)
		if elapsed < s.config.LockoutDuration {
			remaining := int(math.Ceil((s.config.LockoutDuration - elapsed).Minutes()))
			s.audit.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "student_login",
				UserID:        student.UserID,
				Success:       false,
				FailureReason: "locked_out",
			})
			return nil, &models.LockoutError{RemainingMinutes: remaining}
		}

		// Window elapsed: the slate is clean before the password check.
		if err := s.students.ResetLoginAttempts(ctx, student.ID); err != nil {
			s.logger.Error("failed to reset login attempts", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		student.LoginAttempts = 0
	}

	if err := pkgauth.ComparePassword(student.PasswordHash, password); err != nil {
		if err := s.students.IncrementLoginAttempts(ctx, student.ID); err != nil {
			s.logger.Error("failed to increment login attempts", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}

		attempts := student.LoginAttempts + 1
		s.timing.Wait(false)
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "student_login",
			UserID:        student.UserID,
			Success:       false,
			FailureReason: "invalid_password",
		})

		if attempts >= s.config.MaxLoginAttempts {
			return nil, &models.TooManyAttemptsError{
				LockoutMinutes: int(s.config.LockoutDuration.Minutes()),
			}
		}
		return nil, &models.AttemptsRemainingError{Remaining: s.config.MaxLoginAttempts - attempts}
	}

	if err := s.students.ResetLoginAttempts(ctx, student.ID); err != nil {
		s.logger.Error("failed to reset login attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	csrfToken, err := s.rotateStudentCSRF(ctx, student.UserID)
	if err != nil {
		return nil, err
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "student_login",
		UserID:    student.UserID,
		Success:   true,
	})

	return &StudentSession{
		Student:   student.Profile(),
		APIKey:    student.APIKey,
		CSRFToken: csrfToken,
	}, nil
}

func (s *AuthService) rotateStudentCSRF(ctx context.Context, userID string) (string, error) {
	token, err := auth.GenerateCSRFToken()
	if err != nil {
		s.logger.Error("failed to generate csrf token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	if err := s.students.UpdateCSRFToken(ctx, userID, token); err != nil {
		s.logger.Error("failed to store csrf token", slog.Any("error", err))
		return "", models.ErrInternalServer
	}
	return token, nil
}

var (
	studentNumberPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)
	phoneNumberPattern   = regexp.MustCompile(`^(09|\+639)\d{9}$`)
)

// RegisterStudentParams carries the registration form, including the four
// baseline profile documents.
type RegisterStudentParams struct {
	FirstName       string
	MiddleName      string
	LastName        string
	StudentNumber   string
	Email           string
	PhoneNumber     string
	Course          string
	YearLevel       string
	CompleteAddress string
	Password        string
	Documents       map[string]*multipart.FileHeader
}

// Register creates a student account with freshly minted credentials and the
// four baseline documents stored to disk.
func (s *AuthService) Register(ctx context.Context, params RegisterStudentParams) (*models.Student, error) {
	if !studentNumberPattern.MatchString(params.StudentNumber) {
		return nil, models.NewValidationError("Student number must be in the format YYYY-NNNN")
	}
	if !phoneNumberPattern.MatchString(params.PhoneNumber) {
		return nil, models.NewValidationError("Phone number must be a valid PH mobile number")
	}
	if err := pkgauth.ValidatePassword(params.Password); err != nil {
		return nil, models.NewValidationError("%s", err.Error())
	}

	if err := validateBaselineDocuments(params.Documents); err != nil {
		return nil, err
	}

	// Uniqueness pre-checks give friendlier messages than the insert
	// conflict, which still backstops races.
	if _, err := s.students.GetByStudentNumber(ctx, params.StudentNumber); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("student number check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if _, err := s.students.GetByEmail(ctx, params.Email); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("email check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	userID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, models.ErrInternalServer
	}
	passwordHash, err := pkgauth.HashPassword(params.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	stored := make([]string, 0, len(params.Documents))
	cleanup := func() {
		for _, path := range stored {
			if err := s.store.Delete(path); err != nil {
				s.logger.Error("failed to remove stored document", slog.String("path", path), slog.Any("error", err))
			}
		}
	}

	paths := make(map[string]string, len(params.Documents))
	for _, doc := range models.BaselineDocuments {
		fh := params.Documents[doc.Field]
		name := storage.StoredName(doc.Field, fh.Filename)
		path, err := s.store.SaveMultipart(fh, "profiles/"+userID, name)
		if err != nil {
			cleanup()
			s.logger.Error("failed to store registration document", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		stored = append(stored, path)
		paths[doc.Field] = path
	}

	student := &models.Student{
		UserID:           userID,
		APIKey:           apiKey,
		FirstName:        capitalizeWords(params.FirstName),
		LastName:         capitalizeWords(params.LastName),
		StudentNumber:    params.StudentNumber,
		Email:            strings.ToLower(strings.TrimSpace(params.Email)),
		PhoneNumber:      params.PhoneNumber,
		Course:           strings.ToUpper(strings.TrimSpace(params.Course)),
		YearLevel:        strings.TrimSpace(params.YearLevel),
		CompleteAddress:  strings.TrimSpace(params.CompleteAddress),
		PasswordHash:     passwordHash,
		Picture:          stringPtr(paths["picture"]),
		SchoolID:         stringPtr(paths["school_id"]),
		IndigencyCert:    stringPtr(paths["certificate_of_indigency"]),
		RegistrationCert: stringPtr(paths["certificate_of_registration"]),
	}
	if mid := capitalizeWords(params.MiddleName); mid != "" {
		student.MiddleName = &mid
	}

	created, err := s.students.Create(ctx, student)
	if err != nil {
		cleanup()
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create student", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "student_registration",
		UserID:    created.UserID,
		Success:   true,
	})

	return created, nil
}

func validateBaselineDocuments(docs map[string]*multipart.FileHeader) error {
	for _, doc := range models.BaselineDocuments {
		fh, ok := docs[doc.Field]
		if !ok || fh == nil || fh.Size == 0 {
			return models.NewValidationError("Missing required document: %s", doc.Label)
		}

		contentType, err := sniffContentType(fh)
		if err != nil {
			return models.NewValidationError("Unreadable upload for %s", doc.Label)
		}

		switch doc.Field {
		case "picture", "school_id":
			if fh.Size > maxImageUploadBytes {
				return models.NewValidationError("%s must be at most 5 MB", doc.Label)
			}
			if !mimeAllowed(contentType, imageMIMETypes) {
				return models.NewValidationError("%s must be a JPG or PNG image", doc.Label)
			}
		default:
			if fh.Size > maxDocumentUploadBytes {
				return models.NewValidationError("%s must be at most 10 MB", doc.Label)
			}
			if !mimeAllowed(contentType, certificateMIMETypes) {
				return models.NewValidationError("%s must be a PDF or Word document", doc.Label)
			}
		}
	}
	return nil
}

// ForgotPassword mints a reset token and emails it. The response shape never
// reveals whether the student number exists.
func (s *AuthService) ForgotPassword(ctx context.Context, studentNumber string) error {
	student, err := s.students.GetByStudentNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("student lookup failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	token, err := auth.GenerateResetToken()
	if err != nil {
		return models.ErrInternalServer
	}

	expires := time.Now().Add(s.config.ResetTokenTTL)
	if err := s.students.SaveResetToken(ctx, student.ID, token, expires); err != nil {
		s.logger.Error("failed to save reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	// Fire-and-forget: email trouble is logged, never surfaced.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.email.SendPasswordReset(sendCtx, student.Email, student.FirstName, token); err != nil {
			s.logger.Error("failed to send password reset email",
				slog.String("email", pkglogger.SanitizedEmail(student.Email)),
				slog.Any("error", err))
		}
	}()

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "password_reset_requested",
		UserID:    student.UserID,
		Success:   true,
	})

	return nil
}

// ResetPassword consumes a reset token and sets the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return models.NewValidationError("Reset token is required")
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return models.NewValidationError("%s", err.Error())
	}

	student, err := s.students.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrUnauthorized
		}
		s.logger.Error("reset token lookup failed", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if student.ResetTokenExpiry == nil || time.Now().After(*student.ResetTokenExpiry) {
		return models.ErrUnauthorized
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.students.UpdatePassword(ctx, student.ID, passwordHash); err != nil {
		s.logger.Error("failed to update password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "password_reset_completed",
		UserID:    student.UserID,
		Success:   true,
	})

	return nil
}

// StaffGoogleSignIn verifies a Google ID token and resolves it to an
// approved staff session. First-time sign-ins create a pending account.
func (s *AuthService) StaffGoogleSignIn(ctx context.Context, idToken string) (*StaffSession, error) {
	claims, err := s.google.Verify(ctx, idToken)
	if err != nil {
		s.logger.Warn("google id token rejected", slog.Any("error", err))
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "staff_login",
			Success:       false,
			FailureReason: "invalid_id_token",
		})
		return nil, models.ErrUnauthorized
	}

	admin, err := s.admins.GetByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if err := s.createPendingStaff(ctx, claims); err != nil {
				return nil, err
			}
			return nil, models.ErrAccountNotApproved
		}
		s.logger.Error("admin lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !admin.IsApproved() {
		s.audit.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "staff_login",
			UserID:        admin.UserID,
			Success:       false,
			FailureReason: "account_" + admin.Status,
		})
		return nil, models.ErrAccountNotApproved
	}

	if admin.GoogleID == nil || *admin.GoogleID == "" {
		if err := s.admins.UpdateGoogleID(ctx, admin.ID, claims.Subject); err != nil {
			s.logger.Error("failed to store google id", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	csrfToken, err := auth.GenerateCSRFToken()
	if err != nil {
		return nil, models.ErrInternalServer
	}
	if err := s.admins.UpdateCSRFToken(ctx, admin.UserID, csrfToken); err != nil {
		s.logger.Error("failed to store csrf token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "staff_login",
		UserID:    admin.UserID,
		Success:   true,
	})

	return &StaffSession{
		Admin:     admin.Profile(),
		APIKey:    admin.APIKey,
		CSRFToken: csrfToken,
	}, nil
}

func (s *AuthService) createPendingStaff(ctx context.Context, claims *auth.GoogleClaims) error {
	userID, err := auth.GenerateExternalID()
	if err != nil {
		return models.ErrInternalServer
	}
	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return models.ErrInternalServer
	}

	// Google-only accounts get an unguessable password placeholder.
	placeholder, err := auth.GenerateResetToken()
	if err != nil {
		return models.ErrInternalServer
	}
	passwordHash, err := pkgauth.HashPassword(placeholder)
	if err != nil {
		return models.ErrInternalServer
	}

	googleID := claims.Subject
	admin := &models.Admin{
		UserID:       userID,
		APIKey:       apiKey,
		FirstName:    capitalizeWords(claims.GivenName),
		LastName:     capitalizeWords(claims.FamilyName),
		Department:   "Unassigned",
		Email:        strings.ToLower(claims.Email),
		PasswordHash: passwordHash,
		GoogleID:     &googleID,
		Status:       models.StaffStatusPending,
	}

	if _, err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// A concurrent first sign-in already created it.
			return nil
		}
		s.logger.Error("failed to create pending staff account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogAccountAction("staff_account_created", userID, "", map[string]string{
		"status": models.StaffStatusPending,
	})

	return nil
}

// capitalizeWords uppercases the first letter of each word, lowercasing the
// rest, for consistent stored names.
func capitalizeWords(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		lower := strings.ToLower(w)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}

func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
