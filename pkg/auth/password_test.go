package auth_test

import (
	"strings"
	"testing"

	"github.com/rmagsino/iskolar/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_EmptyPasswordRejected(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Error(t, err)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := auth.HashPassword("secret1pw")
	require.NoError(t, err)
	assert.NotEqual(t, "secret1pw", hash)

	assert.NoError(t, auth.ComparePassword(hash, "secret1pw"))
	assert.Error(t, auth.ComparePassword(hash, "wrong1pw"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "abc123", false},
		{"too short", "ab1", true},
		{"letters only", "abcdef", true},
		{"digits only", "123456", true},
		{"too long", strings.Repeat("a1", 65), true},
		{"longer valid", "correct horse 42", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
