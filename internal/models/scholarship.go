package models

import "time"

const (
	ScholarshipStatusActive  = "active"
	ScholarshipStatusArchive = "archive"
)

// CourseCodeAll marks a scholarship as open to every course. A scholarship
// with no course associations resolves to this sentinel.
const CourseCodeAll = "ALL"

type Scholarship struct {
	ID            int64
	ScholarshipID string
	Title         string
	Description   string
	Amount        *float64
	Status        string
	StartDate     time.Time
	EndDate       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Populated by the service layer for listings.
	CourseCodes []string
	Forms       []*ScholarshipForm
}

func (s *Scholarship) IsActive() bool {
	return s.Status == ScholarshipStatusActive
}

// IsOpenOn reports whether the date falls inside the application window.
// The window is inclusive on both ends, compared at day granularity.
func (s *Scholarship) IsOpenOn(t time.Time) bool {
	day := t.Truncate(24 * time.Hour)
	start := s.StartDate.Truncate(24 * time.Hour)
	end := s.EndDate.Truncate(24 * time.Hour)
	return !day.Before(start) && !day.After(end)
}

// OpenToCourse reports whether a student in the given course may apply,
// honoring the ALL sentinel.
func (s *Scholarship) OpenToCourse(courseCode string) bool {
	for _, code := range s.CourseCodes {
		if code == CourseCodeAll || code == courseCode {
			return true
		}
	}
	return false
}

// ScholarshipForm is a required-document template attached to scholarships.
type ScholarshipForm struct {
	ID        int64
	FormID    string
	Name      string
	FilePath  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
