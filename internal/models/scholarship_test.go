package models_test

import (
	"testing"
	"time"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/stretchr/testify/assert"
)

func windowScholarship(start, end time.Time) *models.Scholarship {
	return &models.Scholarship{
		Status:    models.ScholarshipStatusActive,
		StartDate: start,
		EndDate:   end,
	}
}

func TestIsOpenOn_InclusiveBounds(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	s := windowScholarship(start, end)

	assert.True(t, s.IsOpenOn(start))
	assert.True(t, s.IsOpenOn(end))
	// Late in the day on the end date still counts.
	assert.True(t, s.IsOpenOn(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, s.IsOpenOn(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)))

	assert.False(t, s.IsOpenOn(time.Date(2025, 12, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, s.IsOpenOn(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestOpenToCourse(t *testing.T) {
	s := &models.Scholarship{CourseCodes: []string{"BSIT", "BSCS"}}

	assert.True(t, s.OpenToCourse("BSIT"))
	assert.False(t, s.OpenToCourse("BSN"))

	open := &models.Scholarship{CourseCodes: []string{models.CourseCodeAll}}
	assert.True(t, open.OpenToCourse("BSN"))

	// No resolved codes at all means not yet attached, not open.
	bare := &models.Scholarship{}
	assert.False(t, bare.OpenToCourse("BSIT"))
}

func TestApplicationBlocks(t *testing.T) {
	pending := &models.Application{Status: models.ApplicationStatusPending}
	approved := &models.Application{Status: models.ApplicationStatusApproved}
	declined := &models.Application{Status: models.ApplicationStatusDeclined}

	assert.True(t, pending.Blocks())
	assert.True(t, approved.Blocks())
	assert.False(t, declined.Blocks())
}

func TestMissingBaselineDocument_ReportsFirstMissing(t *testing.T) {
	picture := "profiles/usr_1/picture.png"
	schoolID := "profiles/usr_1/school_id.png"
	indigency := "profiles/usr_1/indigency.pdf"
	registration := "profiles/usr_1/cor.pdf"

	complete := &models.Student{
		Picture:          &picture,
		SchoolID:         &schoolID,
		IndigencyCert:    &indigency,
		RegistrationCert: &registration,
	}
	assert.Equal(t, "", complete.MissingBaselineDocument())

	missing := &models.Student{
		Picture:          &picture,
		IndigencyCert:    &indigency,
		RegistrationCert: &registration,
	}
	assert.Equal(t, "school ID", missing.MissingBaselineDocument())

	empty := ""
	blank := &models.Student{
		Picture:          &empty,
		SchoolID:         &schoolID,
		IndigencyCert:    &indigency,
		RegistrationCert: &registration,
	}
	assert.Equal(t, "profile picture", blank.MissingBaselineDocument())
}
