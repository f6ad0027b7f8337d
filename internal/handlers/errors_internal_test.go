package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation error", models.NewValidationError("End date must be after start date"), http.StatusBadRequest},
		{"not found", models.ErrNotFound, http.StatusNotFound},
		{"conflict", models.ErrConflict, http.StatusConflict},
		{"active application", models.ErrActiveApplication, http.StatusBadRequest},
		{"unauthorized", models.ErrUnauthorized, http.StatusUnauthorized},
		{"pending approval", models.ErrAccountNotApproved, http.StatusForbidden},
		{"rate limited", models.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestWriteServiceError_ActiveApplicationMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	writeServiceError(rec, models.ErrActiveApplication)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "pending or approved scholarship application")
}
