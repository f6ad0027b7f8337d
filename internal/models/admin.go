package models

import "time"

// Staff account statuses. New accounts created through Google sign-in start
// as pending until an approved admin promotes them.
const (
	StaffStatusPending  = "pending"
	StaffStatusApproved = "approved"
	StaffStatusDeclined = "declined"
)

var StaffStatuses = []string{StaffStatusPending, StaffStatusApproved, StaffStatusDeclined}

type Admin struct {
	ID           int64
	UserID       string
	APIKey       string
	CSRFToken    *string
	FirstName    string
	LastName     string
	Department   string
	Email        string
	PasswordHash string
	GoogleID     *string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (a *Admin) IsApproved() bool {
	return a.Status == StaffStatusApproved
}

// AdminProfile is the wire shape of a staff account.
type AdminProfile struct {
	UserID     string    `json:"user_id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *Admin) Profile() *AdminProfile {
	return &AdminProfile{
		UserID:     a.UserID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Department: a.Department,
		Email:      a.Email,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
	}
}

func IsValidStaffStatus(status string) bool {
	for _, s := range StaffStatuses {
		if s == status {
			return true
		}
	}
	return false
}
