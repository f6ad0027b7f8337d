package models

import "time"

const (
	ApplicationStatusPending  = "pending"
	ApplicationStatusApproved = "approved"
	ApplicationStatusDeclined = "declined"
)

var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusApproved,
	ApplicationStatusDeclined,
}

type Application struct {
	ID            int64
	ApplicationID string
	StudentID     string // student user_id
	ScholarshipID string
	Status        string
	AppliedAt     time.Time

	Forms []*ApplicationForm

	// Joined fields populated by listing queries.
	ScholarshipTitle string
	StudentFirstName string
	StudentLastName  string
	StudentNumber    string
	StudentCourse    string
	StudentEmail     string
}

// Blocks reports whether this application prevents the student from
// re-applying to the same scholarship. Declined applications do not block.
func (a *Application) Blocks() bool {
	return a.Status != ApplicationStatusDeclined
}

func IsValidApplicationStatus(status string) bool {
	for _, s := range ApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ApplicationForm is one uploaded document attached to an application.
type ApplicationForm struct {
	ID            int64
	FormID        string
	ApplicationID string
	FormName      string
	FilePath      string
	UploadedAt    time.Time
}
