package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rmagsino/iskolar/internal/middleware"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// ApplicationReviewHandler serves the staff application queue.
type ApplicationReviewHandler struct {
	applications *services.ApplicationService
}

func NewApplicationReviewHandler(applications *services.ApplicationService) *ApplicationReviewHandler {
	return &ApplicationReviewHandler{applications: applications}
}

// ReviewRequest sets the decision on an application
type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved declined"`
}

// List GET /admin/applications
// Supports search and a status filter; pending applications sort first.
func (h *ApplicationReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)
	status := r.URL.Query().Get("status")

	apps, total, err := h.applications.ListForReview(r.Context(), page.Limit, page.Offset, page.Search, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toApplicationDTOs(apps, true),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// Review PUT /admin/applications/{applicationID}/status
func (h *ApplicationReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AdminFromContext(r)
	applicationID := chi.URLParam(r, "applicationID")

	var req ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	app, err := h.applications.Review(r.Context(), applicationID, req.Status, actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toApplicationDTO(app, false))
}
