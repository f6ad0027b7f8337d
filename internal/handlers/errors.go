package handlers

import (
	"errors"
	"net/http"

	"github.com/rmagsino/iskolar/internal/models"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// writeServiceError maps service-layer errors to HTTP responses. Handlers
// with endpoint-specific mappings handle those cases before falling through
// to this.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError

	switch {
	case errors.As(err, &validationErr):
		pkghttp.WriteBadRequest(w, validationErr.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Resource already exists")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, models.ErrAccountNotApproved):
		pkghttp.WriteForbidden(w, "Your account is pending approval")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Forbidden")
	case errors.Is(err, models.ErrActiveApplication):
		pkghttp.WriteBadRequest(w, "You already have a pending or approved scholarship application")
	case errors.Is(err, models.ErrRateLimitExceeded):
		pkghttp.WriteTooManyRequests(w, "Rate limit exceeded. Please try again later.")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
