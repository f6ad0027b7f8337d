package handlers

import (
	"time"

	"github.com/rmagsino/iskolar/internal/models"
	pkghttp "github.com/rmagsino/iskolar/pkg/http"
)

// Response DTOs shared across handlers. Internal serial ids never appear
// here; external ids are the only identifiers clients see.

type ScholarshipDTO struct {
	ScholarshipID string                `json:"scholarship_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Amount        *float64              `json:"amount,omitempty"`
	Status        string                `json:"status"`
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	CourseCodes   []string              `json:"course_codes"`
	Forms         []*ScholarshipFormDTO `json:"forms"`
	CreatedAt     time.Time             `json:"created_at"`
}

type ScholarshipFormDTO struct {
	FormID    string    `json:"form_id"`
	Name      string    `json:"name"`
	FilePath  string    `json:"file_path"`
	CreatedAt time.Time `json:"created_at"`
}

type ApplicationDTO struct {
	ApplicationID    string                `json:"application_id"`
	ScholarshipID    string                `json:"scholarship_id"`
	ScholarshipTitle string                `json:"scholarship_title,omitempty"`
	Status           string                `json:"status"`
	AppliedAt        time.Time             `json:"applied_at"`
	Forms            []*ApplicationFormDTO `json:"forms,omitempty"`

	// Student fields included in staff listings only.
	StudentNumber    string `json:"student_number,omitempty"`
	StudentFirstName string `json:"student_first_name,omitempty"`
	StudentLastName  string `json:"student_last_name,omitempty"`
	StudentCourse    string `json:"student_course,omitempty"`
	StudentEmail     string `json:"student_email,omitempty"`
}

type ApplicationFormDTO struct {
	FormID     string    `json:"form_id"`
	FormName   string    `json:"form_name"`
	FilePath   string    `json:"file_path"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type CourseDTO struct {
	CourseID string `json:"course_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

type DepartmentDTO struct {
	DepartmentID string `json:"department_id"`
	Name         string `json:"name"`
}

type AnnouncementDTO struct {
	AnnouncementID string    `json:"announcement_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Author         string    `json:"author,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListResponse is the common envelope for paginated listings.
type ListResponse struct {
	Data       interface{}        `json:"data"`
	Pagination pkghttp.Pagination `json:"pagination"`
}

const dateLayout = "2006-01-02"

func toScholarshipDTO(s *models.Scholarship) *ScholarshipDTO {
	forms := make([]*ScholarshipFormDTO, 0, len(s.Forms))
	for _, f := range s.Forms {
		forms = append(forms, toScholarshipFormDTO(f))
	}

	codes := s.CourseCodes
	if codes == nil {
		codes = []string{}
	}

	return &ScholarshipDTO{
		ScholarshipID: s.ScholarshipID,
		Title:         s.Title,
		Description:   s.Description,
		Amount:        s.Amount,
		Status:        s.Status,
		StartDate:     s.StartDate.Format(dateLayout),
		EndDate:       s.EndDate.Format(dateLayout),
		CourseCodes:   codes,
		Forms:         forms,
		CreatedAt:     s.CreatedAt,
	}
}

func toScholarshipDTOs(scholarships []*models.Scholarship) []*ScholarshipDTO {
	out := make([]*ScholarshipDTO, 0, len(scholarships))
	for _, s := range scholarships {
		out = append(out, toScholarshipDTO(s))
	}
	return out
}

func toScholarshipFormDTO(f *models.ScholarshipForm) *ScholarshipFormDTO {
	return &ScholarshipFormDTO{
		FormID:    f.FormID,
		Name:      f.Name,
		FilePath:  f.FilePath,
		CreatedAt: f.CreatedAt,
	}
}

func toScholarshipFormDTOs(forms []*models.ScholarshipForm) []*ScholarshipFormDTO {
	out := make([]*ScholarshipFormDTO, 0, len(forms))
	for _, f := range forms {
		out = append(out, toScholarshipFormDTO(f))
	}
	return out
}

func toApplicationDTO(a *models.Application, includeStudent bool) *ApplicationDTO {
	forms := make([]*ApplicationFormDTO, 0, len(a.Forms))
	for _, f := range a.Forms {
		forms = append(forms, &ApplicationFormDTO{
			FormID:     f.FormID,
			FormName:   f.FormName,
			FilePath:   f.FilePath,
			UploadedAt: f.UploadedAt,
		})
	}

	dto := &ApplicationDTO{
		ApplicationID:    a.ApplicationID,
		ScholarshipID:    a.ScholarshipID,
		ScholarshipTitle: a.ScholarshipTitle,
		Status:           a.Status,
		AppliedAt:        a.AppliedAt,
		Forms:            forms,
	}

	if includeStudent {
		dto.StudentNumber = a.StudentNumber
		dto.StudentFirstName = a.StudentFirstName
		dto.StudentLastName = a.StudentLastName
		dto.StudentCourse = a.StudentCourse
		dto.StudentEmail = a.StudentEmail
	}

	return dto
}

func toApplicationDTOs(apps []*models.Application, includeStudent bool) []*ApplicationDTO {
	out := make([]*ApplicationDTO, 0, len(apps))
	for _, a := range apps {
		out = append(out, toApplicationDTO(a, includeStudent))
	}
	return out
}

func toCourseDTOs(courses []*models.Course) []*CourseDTO {
	out := make([]*CourseDTO, 0, len(courses))
	for _, c := range courses {
		out = append(out, &CourseDTO{CourseID: c.CourseID, Code: c.Code, Name: c.Name})
	}
	return out
}

func toDepartmentDTOs(departments []*models.Department) []*DepartmentDTO {
	out := make([]*DepartmentDTO, 0, len(departments))
	for _, d := range departments {
		out = append(out, &DepartmentDTO{DepartmentID: d.DepartmentID, Name: d.Name})
	}
	return out
}

func toAnnouncementDTO(a *models.Announcement) *AnnouncementDTO {
	author := ""
	if a.AuthorFirstName != "" || a.AuthorLastName != "" {
		author = a.AuthorFirstName + " " + a.AuthorLastName
	}
	return &AnnouncementDTO{
		AnnouncementID: a.AnnouncementID,
		Title:          a.Title,
		Description:    a.Description,
		Author:         author,
		CreatedAt:      a.CreatedAt,
	}
}

func toAnnouncementDTOs(announcements []*models.Announcement) []*AnnouncementDTO {
	out := make([]*AnnouncementDTO, 0, len(announcements))
	for _, a := range announcements {
		out = append(out, toAnnouncementDTO(a))
	}
	return out
}
