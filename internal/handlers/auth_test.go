package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmagsino/iskolar/internal/handlers"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAuthService implements AuthServiceInterface
type MockAuthService struct {
	loginSession *services.StudentSession
	loginErr     error
	registered   *models.Student
	registerErr  error
	resetErr     error
	staffSession *services.StaffSession
	staffErr     error
}

func (m *MockAuthService) Login(ctx context.Context, studentNumber, password string) (*services.StudentSession, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.loginSession, nil
}

func (m *MockAuthService) Register(ctx context.Context, params services.RegisterStudentParams) (*models.Student, error) {
	if m.registerErr != nil {
		return nil, m.registerErr
	}
	return m.registered, nil
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, studentNumber string) error {
	return nil
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password string) error {
	return m.resetErr
}

func (m *MockAuthService) StaffGoogleSignIn(ctx context.Context, idToken string) (*services.StaffSession, error) {
	if m.staffErr != nil {
		return nil, m.staffErr
	}
	return m.staffSession, nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginHandler_MissingFieldsRejected(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{})

	rec := postJSON(t, handler.Login, "/auth/login", map[string]string{"student_number": "2021-0001"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler_InvalidCredentialsGeneric401(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{loginErr: models.ErrUnauthorized})

	rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
		"student_number": "2021-0001",
		"password":       "wrong1pw",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid student number or password", decodeError(t, rec)["message"])
}

func TestLoginHandler_AttemptsRemainingSurfaced(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{
		loginErr: &models.AttemptsRemainingError{Remaining: 2},
	})

	rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
		"student_number": "2021-0001",
		"password":       "wrong1pw",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "2 attempts remaining")
}

func TestLoginHandler_LockoutReturns429(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{
		loginErr: &models.LockoutError{RemainingMinutes: 12},
	})

	rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
		"student_number": "2021-0001",
		"password":       "correct1pw",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "12 minutes")
}

func TestLoginHandler_SuccessReturnsSession(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{
		loginSession: &services.StudentSession{
			Student:   &models.StudentProfile{UserID: "usr_1"},
			APIKey:    "key-1",
			CSRFToken: "csrf-1",
		},
	})

	rec := postJSON(t, handler.Login, "/auth/login", map[string]string{
		"student_number": "2021-0001",
		"password":       "correct1pw",
	})

	assert.Equal(t, http.StatusOK, rec.Code)

	var session services.StudentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "key-1", session.APIKey)
	assert.Equal(t, "csrf-1", session.CSRFToken)
	assert.Equal(t, "usr_1", session.Student.UserID)
}

func TestRegisterHandler_NonMultipartRejected(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{})

	rec := postJSON(t, handler.Register, "/auth/register", map[string]string{"first_name": "Juan"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotPasswordHandler_AlwaysSameMessage(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{})

	rec := postJSON(t, handler.ForgotPassword, "/auth/forgot-password", map[string]string{
		"student_number": "2021-9999",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "If the account exists")
}

func TestResetPasswordHandler_InvalidToken401(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{resetErr: models.ErrUnauthorized})

	rec := postJSON(t, handler.ResetPassword, "/auth/reset-password", map[string]string{
		"token":    "stale",
		"password": "newpass1",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Reset link is invalid or has expired", decodeError(t, rec)["message"])
}

func TestStaffSignInHandler_PendingAccount403(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{staffErr: models.ErrAccountNotApproved})

	rec := postJSON(t, handler.StaffSignIn, "/auth/staff/google", map[string]string{
		"id_token": "token",
	})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeError(t, rec)["message"], "awaiting approval")
}

func TestStaffSignInHandler_BadToken401(t *testing.T) {
	handler := handlers.NewAuthHandler(&MockAuthService{staffErr: models.ErrUnauthorized})

	rec := postJSON(t, handler.StaffSignIn, "/auth/staff/google", map[string]string{
		"id_token": "token",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
