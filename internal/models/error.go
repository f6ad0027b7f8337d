package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// Account state errors
	ErrAccountNotApproved = errors.New("account is pending approval")

	// Application intake errors
	ErrActiveApplication = errors.New("a pending or approved application is already on file")
)

// ValidationError carries a caller-safe message for 400 responses.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// LockoutError is returned while a student account is inside its lockout window.
type LockoutError struct {
	RemainingMinutes int
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("Account locked. Please try again in %d minutes", e.RemainingMinutes)
}

// TooManyAttemptsError is returned on the failure that trips the lockout.
type TooManyAttemptsError struct {
	LockoutMinutes int
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("Too many failed attempts. Account locked for %d minutes", e.LockoutMinutes)
}

// AttemptsRemainingError is returned on a failed password for an existing account
// that is not yet locked.
type AttemptsRemainingError struct {
	Remaining int
}

func (e *AttemptsRemainingError) Error() string {
	return fmt.Sprintf("Invalid credentials. %d attempts remaining", e.Remaining)
}
