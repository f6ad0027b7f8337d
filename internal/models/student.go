package models

import (
	"time"
)

// Student is a registered scholarship applicant. The serial ID never leaves the
// backend; UserID is the externally visible identity.
type Student struct {
	ID               int64
	UserID           string
	APIKey           string
	CSRFToken        *string
	FirstName        string
	MiddleName       *string
	LastName         string
	StudentNumber    string
	Email            string
	PhoneNumber      string
	Course           string
	YearLevel        string
	CompleteAddress  string
	PasswordHash     string
	Picture          *string
	SchoolID         *string
	IndigencyCert    *string
	RegistrationCert *string
	LoginAttempts    int
	LastLoginAttempt *time.Time
	ResetToken       *string
	ResetTokenExpiry *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BaselineDocumentNames maps upload field names to the labels used in
// error messages, in the order the intake check reports them.
var BaselineDocuments = []struct {
	Field string
	Label string
}{
	{"picture", "profile picture"},
	{"school_id", "school ID"},
	{"certificate_of_indigency", "certificate of indigency"},
	{"certificate_of_registration", "certificate of registration"},
}

// MissingBaselineDocument returns the label of the first profile document the
// student has not uploaded, or "" when all four are on file.
func (s *Student) MissingBaselineDocument() string {
	docs := map[string]*string{
		"picture":                     s.Picture,
		"school_id":                   s.SchoolID,
		"certificate_of_indigency":    s.IndigencyCert,
		"certificate_of_registration": s.RegistrationCert,
	}
	for _, d := range BaselineDocuments {
		if v := docs[d.Field]; v == nil || *v == "" {
			return d.Label
		}
	}
	return ""
}

// StudentProfile is the wire shape of a student, without credentials or hashes.
type StudentProfile struct {
	UserID           string  `json:"user_id"`
	FirstName        string  `json:"first_name"`
	MiddleName       *string `json:"middle_name,omitempty"`
	LastName         string  `json:"last_name"`
	StudentNumber    string  `json:"student_number"`
	Email            string  `json:"email"`
	PhoneNumber      string  `json:"phone_number"`
	Course           string  `json:"course"`
	YearLevel        string  `json:"year_level"`
	CompleteAddress  string  `json:"complete_address"`
	Picture          *string `json:"picture,omitempty"`
	SchoolID         *string `json:"school_id,omitempty"`
	IndigencyCert    *string `json:"certificate_of_indigency,omitempty"`
	RegistrationCert *string `json:"certificate_of_registration,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Profile strips credential material for responses.
func (s *Student) Profile() *StudentProfile {
	return &StudentProfile{
		UserID:           s.UserID,
		FirstName:        s.FirstName,
		MiddleName:       s.MiddleName,
		LastName:         s.LastName,
		StudentNumber:    s.StudentNumber,
		Email:            s.Email,
		PhoneNumber:      s.PhoneNumber,
		Course:           s.Course,
		YearLevel:        s.YearLevel,
		CompleteAddress:  s.CompleteAddress,
		Picture:          s.Picture,
		SchoolID:         s.SchoolID,
		IndigencyCert:    s.IndigencyCert,
		RegistrationCert: s.RegistrationCert,
		CreatedAt:        s.CreatedAt,
	}
}
