package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, studentNumber, password string) (*services.StudentSession, error)
	Register(ctx context.Context, params services.RegisterStudentParams) (*models.Student, error)
	ForgotPassword(ctx context.Context, studentNumber string) error
	ResetPassword(ctx context.Context, token, password string) error
	StaffGoogleSignIn(ctx context.Context, idToken string) (*services.StaffSession, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service AuthServiceInterface
}

func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Request DTOs

// LoginRequest represents the request body for student login
type LoginRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for a reset link
type ForgotPasswordRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
}

// ResetPasswordRequest represents the request body for completing a reset
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StaffSignInRequest carries the Google ID token from the OAuth callback
type StaffSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// registrationMaxMemory bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const registrationMaxMemory = 16 << 20

// Login handles student login
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	session, err := h.service.Login(r.Context(), strings.TrimSpace(req.StudentNumber), req.Password)
	if err != nil {
		writeLoginError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, session)
}

// writeLoginError keeps the lockout state machine's distinct messages while
// collapsing everything else to generic invalid credentials.
func writeLoginError(w http.ResponseWriter, err error) {
	var lockout *models.LockoutError
	var tooMany *models.TooManyAttemptsError
	var remaining *models.AttemptsRemainingError

	switch {
	case errors.As(err, &lockout):
		pkghttp.WriteTooManyRequests(w, lockout.Error())
	case errors.As(err, &tooMany):
		pkghttp.WriteTooManyRequests(w, tooMany.Error())
	case errors.As(err, &remaining):
		pkghttp.WriteUnauthorized(w, remaining.Error())
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Invalid student number or password")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// Register handles student registration with the four baseline documents
// POST /auth/register (multipart/form-data)
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(registrationMaxMemory); err != nil {
		pkghttp.WriteBadRequest(w, "Request must be multipart/form-data")
		return
	}

	params := services.RegisterStudentParams{
		FirstName:       r.FormValue("first_name"),
		MiddleName:      r.FormValue("middle_name"),
		LastName:        r.FormValue("last_name"),
		StudentNumber:   strings.TrimSpace(r.FormValue("student_number")),
		Email:           r.FormValue("email"),
		PhoneNumber:     strings.TrimSpace(r.FormValue("phone_number")),
		Course:          r.FormValue("course"),
		YearLevel:       r.FormValue("year_level"),
		CompleteAddress: r.FormValue("complete_address"),
		Password:        r.FormValue("password"),
		Documents:       documentUploads(r),
	}

	if params.FirstName == "" || params.LastName == "" || params.StudentNumber == "" ||
		params.Email == "" || params.PhoneNumber == "" || params.Course == "" ||
		params.YearLevel == "" || params.CompleteAddress == "" || params.Password == "" {
		pkghttp.WriteBadRequest(w, "All registration fields are required")
		return
	}

	student, err := h.service.Register(r.Context(), params)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "A student with that student number or email already exists")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, student.Profile())
}

func documentUploads(r *http.Request) map[string]*multipart.FileHeader {
	docs := make(map[string]*multipart.FileHeader)
	if r.MultipartForm == nil {
		return docs
	}
	for _, doc := range models.BaselineDocuments {
		if files := r.MultipartForm.File[doc.Field]; len(files) > 0 {
			docs[doc.Field] = files[0]
		}
	}
	return docs
}

// ForgotPassword handles reset link requests. The response is identical
// whether or not the account exists.
// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ForgotPassword(r.Context(), strings.TrimSpace(req.StudentNumber)); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a reset link has been sent to its email address",
	})
}

// ResetPassword completes a password reset
// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Reset link is invalid or has expired")
			return
		}
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password has been reset. You can now log in.",
	})
}

// StaffSignIn handles the staff Google OAuth callback
// POST /auth/staff/google
func (h *AuthHandler) StaffSignIn(w http.ResponseWriter, r *http.Request) {
	var req StaffSignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	session, err := h.service.StaffGoogleSignIn(r.Context(), req.IDToken)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAccountNotApproved):
			pkghttp.WriteForbidden(w, "Your account is awaiting approval by an administrator")
		case errors.Is(err, models.ErrUnauthorized):
			pkghttp.WriteUnauthorized(w, "Google sign-in could not be verified")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, session)
}
