package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// ScholarshipHandler serves the staff scholarship CRUD and the form
// template catalog.
type ScholarshipHandler struct {
	scholarships *services.ScholarshipService
	forms        *services.FormService
}

func NewScholarshipHandler(scholarships *services.ScholarshipService, forms *services.FormService) *ScholarshipHandler {
	return &ScholarshipHandler{
		scholarships: scholarships,
		forms:        forms,
	}
}

// ScholarshipRequest is the create/edit payload
type ScholarshipRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Amount      *float64 `json:"amount,omitempty"`
	Status      string   `json:"status" validate:"required,oneof=active archive"`
	StartDate   string   `json:"start_date" validate:"required"`
	EndDate     string   `json:"end_date" validate:"required"`
	CourseCodes []string `json:"course_codes"`
	FormIDs     []string `json:"form_ids"`
}

func (req ScholarshipRequest) params() services.ScholarshipParams {
	return services.ScholarshipParams{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		Status:      req.Status,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CourseCodes: req.CourseCodes,
		FormIDs:     req.FormIDs,
	}
}

// templateMaxMemory bounds the in-memory portion of multipart parsing.
const templateMaxMemory = 16 << 20

// List GET /admin/scholarships
func (h *ScholarshipHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)

	scholarships, total, err := h.scholarships.ListAll(r.Context(), page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toScholarshipDTOs(scholarships),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// Create POST /admin/scholarships
func (h *ScholarshipHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ScholarshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	scholarship, err := h.scholarships.Create(r.Context(), req.params())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toScholarshipDTO(scholarship))
}

// Update PUT /admin/scholarships/{scholarshipID}
func (h *ScholarshipHandler) Update(w http.ResponseWriter, r *http.Request) {
	scholarshipID := chi.URLParam(r, "scholarshipID")

	var req ScholarshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	scholarship, err := h.scholarships.Update(r.Context(), scholarshipID, req.params())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toScholarshipDTO(scholarship))
}

// Delete DELETE /admin/scholarships/{scholarshipID}
func (h *ScholarshipHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scholarshipID := chi.URLParam(r, "scholarshipID")

	if err := h.scholarships.Delete(r.Context(), scholarshipID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Scholarship deleted"})
}

// ListForms GET /admin/forms
func (h *ScholarshipHandler) ListForms(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)

	forms, total, err := h.forms.List(r.Context(), page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toScholarshipFormDTOs(forms),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// CreateForm POST /admin/forms (multipart/form-data: name + file)
func (h *ScholarshipHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(templateMaxMemory); err != nil {
		pkghttp.WriteBadRequest(w, "Request must be multipart/form-data")
		return
	}

	fh := firstFile(r, "file")
	form, err := h.forms.Create(r.Context(), r.FormValue("name"), fh)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toScholarshipFormDTO(form))
}

// UpdateForm PUT /admin/forms/{formID} (multipart/form-data, file optional)
func (h *ScholarshipHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	if err := r.ParseMultipartForm(templateMaxMemory); err != nil {
		pkghttp.WriteBadRequest(w, "Request must be multipart/form-data")
		return
	}

	fh := firstFile(r, "file")
	form, err := h.forms.Update(r.Context(), formID, r.FormValue("name"), fh)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toScholarshipFormDTO(form))
}

// DeleteForm DELETE /admin/forms/{formID}
func (h *ScholarshipHandler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formID")

	if err := h.forms.Delete(r.Context(), formID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Form template deleted"})
}

func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File[field]; len(files) > 0 {
		return files[0]
	}
	return nil
}
