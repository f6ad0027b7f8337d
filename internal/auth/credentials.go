package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	apiKeyBytes     = 16 // 32 hex chars
	csrfTokenBytes  = 32 // 64 hex chars
	externalIDBytes = 16
	resetTokenBytes = 32
)

// GenerateAPIKey mints a new opaque API key. The key is stored and compared
// as-is; it never leaves the backend except in the login response.
func GenerateAPIKey() (string, error) {
	return randomHex(apiKeyBytes, "api key")
}

// GenerateCSRFToken mints the per-account CSRF token rotated on every login.
func GenerateCSRFToken() (string, error) {
	return randomHex(csrfTokenBytes, "csrf token")
}

// GenerateExternalID mints a random identifier for externally visible ids
// (user_id, scholarship_id, application_id and friends).
func GenerateExternalID() (string, error) {
	return randomHex(externalIDBytes, "external id")
}

// GenerateResetToken mints a single-use password reset token.
func GenerateResetToken() (string, error) {
	return randomHex(resetTokenBytes, "reset token")
}

func randomHex(n int, what string) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", what, err)
	}
	return hex.EncodeToString(bytes), nil
}

// ConstantTimeEquals compares two credential strings without leaking the
// position of the first mismatch.
func ConstantTimeEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
