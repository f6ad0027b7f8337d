package handlers

import (
	"encoding/json"
	"mime/multipart"
	"net/http"

	"github.com/rmagsino/iskolar/internal/middleware"
	"github.com/rmagsino/iskolar/internal/services"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// StudentHandler serves the authenticated student surface: profile,
// scholarship browsing, applications and announcements.
type StudentHandler struct {
	students     *services.StudentService
	scholarships *services.ScholarshipService
	applications *services.ApplicationService
	catalog      *services.CatalogService
}

func NewStudentHandler(
	students *services.StudentService,
	scholarships *services.ScholarshipService,
	applications *services.ApplicationService,
	catalog *services.CatalogService,
) *StudentHandler {
	return &StudentHandler{
		students:     students,
		scholarships: scholarships,
		applications: applications,
		catalog:      catalog,
	}
}

// UpdateProfileRequest carries the editable profile fields. Absent fields
// are left unchanged.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name,omitempty"`
	MiddleName      *string `json:"middle_name,omitempty"`
	LastName        *string `json:"last_name,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Course          *string `json:"course,omitempty"`
	YearLevel       *string `json:"year_level,omitempty"`
	CompleteAddress *string `json:"complete_address,omitempty"`
}

// applicationMaxMemory bounds the in-memory portion of multipart parsing.
const applicationMaxMemory = 16 << 20

// GetProfile GET /student/profile
func (h *StudentHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	student := middleware.StudentFromContext(r)
	pkghttp.WriteJSON(w, http.StatusOK, student.Profile())
}

// UpdateProfile PUT /student/profile
func (h *StudentHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	student := middleware.StudentFromContext(r)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	profile, err := h.students.UpdateProfile(r.Context(), student.UserID, services.StudentProfileUpdate{
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		PhoneNumber:     req.PhoneNumber,
		Course:          req.Course,
		YearLevel:       req.YearLevel,
		CompleteAddress: req.CompleteAddress,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, profile)
}

// ListScholarships GET /student/scholarships
// Returns only scholarships open to the student's course.
func (h *StudentHandler) ListScholarships(w http.ResponseWriter, r *http.Request) {
	student := middleware.StudentFromContext(r)
	page := pkghttp.ParsePageParams(r)

	scholarships, total, err := h.scholarships.ListForStudent(r.Context(), student.Course, page.Limit, page.Offset, page.Search)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toScholarshipDTOs(scholarships),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// Apply POST /student/applications (multipart/form-data)
// The scholarship_id field names the scholarship; each required form is
// uploaded under the form's name as the field name (its form_id works too).
func (h *StudentHandler) Apply(w http.ResponseWriter, r *http.Request) {
	student := middleware.StudentFromContext(r)

	if err := r.ParseMultipartForm(applicationMaxMemory); err != nil {
		pkghttp.WriteBadRequest(w, "Request must be multipart/form-data")
		return
	}

	scholarshipID := r.FormValue("scholarship_id")
	if scholarshipID == "" {
		pkghttp.WriteBadRequest(w, "scholarship_id is required")
		return
	}

	files := make(map[string]*multipart.FileHeader)
	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			if len(headers) > 0 {
				files[field] = headers[0]
			}
		}
	}

	app, err := h.applications.Submit(r.Context(), student, scholarshipID, files)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toApplicationDTO(app, false))
}

// ListApplications GET /student/applications
func (h *StudentHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	student := middleware.StudentFromContext(r)
	page := pkghttp.ParsePageParams(r)

	apps, total, err := h.applications.ListForStudent(r.Context(), student.UserID, page.Limit, page.Offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListResponse{
		Data:       toApplicationDTOs(apps, false),
		Pagination: pkghttp.NewPagination(page.Page, page.Limit, total),
	})
}

// ListAnnouncements GET /student/announcements
func (h *StudentHandler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
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

// ListCourses GET /student/courses
// Reference data for the profile and registration forms.
func (h *StudentHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
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
