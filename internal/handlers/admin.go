package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rmagsino/iskolar/internal/middleware"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// AdminHandler serves staff account management, the staff profile and the
// dashboard.
type AdminHandler struct {
	admins *services.AdminService
}

func NewAdminHandler(admins *services.AdminService) *AdminHandler {
	return &AdminHandler{admins: admins}
}

// UpdateAccountStatusRequest approves or declines a staff account
type UpdateAccountStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved declined"`
}

// UpdateAdminProfileRequest carries the editable staff profile fields
type UpdateAdminProfileRequest struct {
	FirstName  *string `json:"first_name,omitempty"`
	LastName   *string `json:"last_name,omitempty"`
	Department *string `json:"department,omitempty"`
}

// ListAccounts GET /admin/accounts
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)
	status := r.URL.Query().Get("status")

	accounts, total, err := h.admins.ListAccounts(r.Context(), page.Limit, page.Offset, page.Search, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       accounts,
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// UpdateAccountStatus PUT /admin/accounts/{userID}/status
func (h *AdminHandler) UpdateAccountStatus(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AdminFromContext(r)
	userID := chi.URLParam(r, "userID")

	var req UpdateAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.admins.UpdateAccountStatus(r.Context(), userID, req.Status, actor.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// DeleteAccount DELETE /admin/accounts/{userID}
func (h *AdminHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor := middleware.AdminFromContext(r)
	userID := chi.URLParam(r, "userID")

	if err := h.admins.DeleteAccount(r.Context(), userID, actor.UserID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// GetProfile GET /admin/profile
func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r)
	pkghttp.WriteJSON(w, http.StatusOK, admin.Profile())
}

// UpdateProfile PUT /admin/profile
func (h *AdminHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r)

	var req UpdateAdminProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.admins.UpdateProfile(r.Context(), admin.UserID, services.AdminProfileUpdate{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Department: req.Department,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// Dashboard GET /admin/dashboard
// The year query parameter selects the monthly chart year, defaulting to the
// current year.
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	year := time.Now().Year()
	if v, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && v > 0 {
		year = v
	}

	stats, err := h.admins.Dashboard(r.Context(), year)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
