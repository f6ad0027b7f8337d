package models

import "time"

type Course struct {
	ID        int64
	CourseID  string
	Code      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Department struct {
	ID           int64
	DepartmentID string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Announcement struct {
	ID             int64
	AnnouncementID string
	Title          string
	Description    string
	AdminID        string // author user_id
	CreatedAt      time.Time
	UpdatedAt      time.Time

	AuthorFirstName string
	AuthorLastName  string
}
