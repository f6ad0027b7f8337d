package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rmagsino/iskolar/internal/middleware"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// CatalogHandler serves the staff reference-data CRUD: courses, departments
// and announcements.
type CatalogHandler struct {
	catalog *services.CatalogService
}

func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// CourseRequest is the course create/edit payload
type CourseRequest struct {
	Code string `json:"code" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// DepartmentRequest is the department create/edit payload
type DepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}

// AnnouncementRequest is the announcement create/edit payload
type AnnouncementRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// ListCourses GET /admin/courses
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)

	courses, total, err := h.catalog.ListCourses(r.Context(), page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toCourseDTOs(courses),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// CreateCourse POST /admin/courses
func (h *CatalogHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.catalog.CreateCourse(r.Context(), req.Code, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, &CourseDTO{
		CourseID: course.CourseID,
		Code:     course.Code,
		Name:     course.Name,
	})
}

// UpdateCourse PUT /admin/courses/{courseID}
func (h *CatalogHandler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	var req CourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	course, err := h.catalog.UpdateCourse(r.Context(), courseID, req.Code, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &CourseDTO{
		CourseID: course.CourseID,
		Code:     course.Code,
		Name:     course.Name,
	})
}

// DeleteCourse DELETE /admin/courses/{courseID}
func (h *CatalogHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")

	if err := h.catalog.DeleteCourse(r.Context(), courseID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Course deleted"})
}

// ListDepartments GET /admin/departments
func (h *CatalogHandler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)

	departments, total, err := h.catalog.ListDepartments(r.Context(), page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toDepartmentDTOs(departments),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// CreateDepartment POST /admin/departments
func (h *CatalogHandler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	dept, err := h.catalog.CreateDepartment(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, &DepartmentDTO{
		DepartmentID: dept.DepartmentID,
		Name:         dept.Name,
	})
}

// UpdateDepartment PUT /admin/departments/{departmentID}
func (h *CatalogHandler) UpdateDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")

	var req DepartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	dept, err := h.catalog.UpdateDepartment(r.Context(), departmentID, req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, &DepartmentDTO{
		DepartmentID: dept.DepartmentID,
		Name:         dept.Name,
	})
}

// DeleteDepartment DELETE /admin/departments/{departmentID}
func (h *CatalogHandler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	departmentID := chi.URLParam(r, "departmentID")

	if err := h.catalog.DeleteDepartment(r.Context(), departmentID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Department deleted"})
}

// ListAnnouncements GET /admin/announcements
func (h *CatalogHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	page := pkghttp.ParsePageParams(r)

	announcements, total, err := h.catalog.ListAnnouncements(r.Context(), page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toAnnouncementDTOs(announcements),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// CreateAnnouncement POST /admin/announcements
func (h *CatalogHandler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r)

	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	announcement, err := h.catalog.CreateAnnouncement(r.Context(), req.Title, req.Description, admin.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toAnnouncementDTO(announcement))
}

// UpdateAnnouncement PUT /admin/announcements/{announcementID}
func (h *CatalogHandler) UpdateAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcementID := chi.URLParam(r, "announcementID")

	var req AnnouncementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	announcement, err := h.catalog.UpdateAnnouncement(r.Context(), announcementID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toAnnouncementDTO(announcement))
}

// DeleteAnnouncement DELETE /admin/announcements/{announcementID}
func (h *CatalogHandler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	announcementID := chi.URLParam(r, "announcementID")

	if err := h.catalog.DeleteAnnouncement(r.Context(), announcementID); err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"message": "Announcement deleted"})
}
