package services_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"
	"time"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockApplicationRepository implements ApplicationRepository with in-memory state
type MockApplicationRepository struct {
	apps      map[string]*models.Application
	forms     map[string][]*models.ApplicationForm
	createErr error
	nextID    int64
}

func NewMockApplicationRepository() *MockApplicationRepository {
	return &MockApplicationRepository{
		apps:   make(map[string]*models.Application),
		forms:  make(map[string][]*models.ApplicationForm),
		nextID: 1,
	}
}

func (m *MockApplicationRepository) CreateWithForms(ctx context.Context, app *models.Application, forms []*models.ApplicationForm) error {
	if m.createErr != nil {
		return m.createErr
	}
	app.ID = m.nextID
	m.nextID++
	m.apps[app.ApplicationID] = app
	m.forms[app.ApplicationID] = forms
	return nil
}

func (m *MockApplicationRepository) HasBlocking(ctx context.Context, studentID string) (bool, error) {
	for _, app := range m.apps {
		if app.StudentID == studentID && app.Blocks() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	app, ok := m.apps[applicationID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *app
	return &copied, nil
}

func (m *MockApplicationRepository) UpdateStatus(ctx context.Context, applicationID, status string) error {
	app, ok := m.apps[applicationID]
	if !ok {
		return models.ErrNotFound
	}
	app.Status = status
	return nil
}

func (m *MockApplicationRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Application, error) {
	out := make([]*models.Application, 0)
	for _, app := range m.apps {
		if app.StudentID == studentID {
			copied := *app
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockApplicationRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	count := 0
	for _, app := range m.apps {
		if app.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (m *MockApplicationRepository) ListAll(ctx context.Context, limit, offset int, search, status string) ([]*models.Application, error) {
	out := make([]*models.Application, 0)
	for _, app := range m.apps {
		if status != "" && app.Status != status {
			continue
		}
		copied := *app
		out = append(out, &copied)
	}
	return out, nil
}

func (m *MockApplicationRepository) CountAll(ctx context.Context, search, status string) (int, error) {
	apps, _ := m.ListAll(ctx, 0, 0, search, status)
	return len(apps), nil
}

func (m *MockApplicationRepository) Forms(ctx context.Context, applicationID string) ([]*models.ApplicationForm, error) {
	return m.forms[applicationID], nil
}

func applicantStudent() *models.Student {
	picture := "profiles/usr_1/picture.png"
	schoolID := "profiles/usr_1/school_id.png"
	indigency := "profiles/usr_1/indigency.pdf"
	registration := "profiles/usr_1/cor.pdf"
	return &models.Student{
		ID:               1,
		UserID:           "usr_1",
		FirstName:        "Juan",
		LastName:         "Dela Cruz",
		StudentNumber:    "2021-0001",
		Email:            "juan@example.com",
		Course:           "BSIT",
		Picture:          &picture,
		SchoolID:         &schoolID,
		IndigencyCert:    &indigency,
		RegistrationCert: &registration,
	}
}

type applicationFixture struct {
	service      *services.ApplicationService
	repo         *MockApplicationRepository
	scholarships *MockScholarshipRepository
	students     *MockStudentRepository
	store        *MockDocumentStore
	email        *MockEmailService
}

func newApplicationFixture() *applicationFixture {
	repo := NewMockApplicationRepository()
	scholarships := NewMockScholarshipRepository()
	students := NewMockStudentRepository()
	store := &MockDocumentStore{}
	email := &MockEmailService{}

	service := services.NewApplicationService(
		repo,
		scholarships,
		students,
		store,
		email,
		newTestAudit(),
		newTestLogger(),
	)

	return &applicationFixture{
		service:      service,
		repo:         repo,
		scholarships: scholarships,
		students:     students,
		store:        store,
		email:        email,
	}
}

func submissionFiles(t *testing.T) map[string]*multipart.FileHeader {
	t.Helper()
	return map[string]*multipart.FileHeader{
		"form_1": makeFileHeader(t, "form_1", "application.pdf", pdfBytes),
	}
}

func TestSubmit_MissingBaselineDocumentRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	student := applicantStudent()
	student.IndigencyCert = nil

	_, err := fx.service.Submit(context.Background(), student, "sch_1", submissionFiles(t))

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "certificate of indigency")
}

func TestSubmit_UnknownScholarshipNotFound(t *testing.T) {
	fx := newApplicationFixture()

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_missing", submissionFiles(t))

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSubmit_ArchivedScholarshipRejected(t *testing.T) {
	fx := newApplicationFixture()
	sch := seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	sch.Status = models.ScholarshipStatusArchive

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "not accepting")
}

func TestSubmit_ClosedWindowRejected(t *testing.T) {
	fx := newApplicationFixture()
	sch := seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	sch.StartDate = time.Now().AddDate(0, 0, -30)
	sch.EndDate = time.Now().AddDate(0, 0, -10)

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "closed")
}

func TestSubmit_NoRequiredFormsRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	fx.scholarships.forms["sch_1"] = nil

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "no required forms")
}

func TestSubmit_MissingFileForRequiredFormRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", map[string]*multipart.FileHeader{})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "Application Form")
}

func TestSubmit_OversizedFileRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	big := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 5<<20)...)
	files := map[string]*multipart.FileHeader{
		"form_1": makeFileHeader(t, "form_1", "big.pdf", big),
	}

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", files)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "5MB")
}

func TestSubmit_UnsupportedFileTypeRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	files := map[string]*multipart.FileHeader{
		"form_1": makeFileHeader(t, "form_1", "notes.txt", []byte("plain text, not a document")),
	}

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", files)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "PDF, JPEG or PNG")
}

func TestSubmit_BlockingApplicationRejected(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	fx.repo.apps["app_0"] = &models.Application{
		ID:            1,
		ApplicationID: "app_0",
		StudentID:     "usr_1",
		ScholarshipID: "sch_1",
		Status:        models.ApplicationStatusPending,
	}

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	assert.ErrorIs(t, err, models.ErrActiveApplication)
	assert.Empty(t, fx.store.saved)
}

func TestSubmit_ActiveApplicationBlocksEveryScholarship(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	seedScholarship(fx.scholarships, "sch_2", "Open Grant", nil)
	fx.repo.apps["app_0"] = &models.Application{
		ID:            1,
		ApplicationID: "app_0",
		StudentID:     "usr_1",
		ScholarshipID: "sch_1",
		Status:        models.ApplicationStatusPending,
	}

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_2", submissionFiles(t))

	assert.ErrorIs(t, err, models.ErrActiveApplication)
	assert.Empty(t, fx.store.saved)
	assert.Len(t, fx.repo.apps, 1)
}

func TestSubmit_DeclinedApplicationDoesNotBlock(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	seedScholarship(fx.scholarships, "sch_2", "Open Grant", nil)
	fx.repo.apps["app_0"] = &models.Application{
		ID:            1,
		ApplicationID: "app_0",
		StudentID:     "usr_1",
		ScholarshipID: "sch_1",
		Status:        models.ApplicationStatusDeclined,
	}

	app, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_2", submissionFiles(t))

	require.NoError(t, err)
	assert.Equal(t, "sch_2", app.ScholarshipID)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
}

func TestSubmit_CreatesPendingApplicationWithForms(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	app, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, app.Status)
	assert.Equal(t, "usr_1", app.StudentID)
	assert.Equal(t, "IT Scholars", app.ScholarshipTitle)
	require.Len(t, app.Forms, 1)
	assert.Equal(t, "Application Form", app.Forms[0].FormName)
	assert.Contains(t, app.Forms[0].FilePath, "scholarships/usr_1/")
	assert.Len(t, fx.store.saved, 1)
	assert.Empty(t, fx.store.deleted)
}

func TestSubmit_AcceptsFilesKeyedByFormName(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)

	files := map[string]*multipart.FileHeader{
		"Application Form": makeFileHeader(t, "Application Form", "application.pdf", pdfBytes),
	}

	app, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", files)

	require.NoError(t, err)
	require.Len(t, app.Forms, 1)
	assert.Equal(t, "Application Form", app.Forms[0].FormName)
	assert.Len(t, fx.store.saved, 1)
}

func TestSubmit_ConflictOnInsertRemovesStoredFiles(t *testing.T) {
	fx := newApplicationFixture()
	seedScholarship(fx.scholarships, "sch_1", "IT Scholars", nil)
	fx.repo.createErr = models.ErrConflict

	_, err := fx.service.Submit(context.Background(), applicantStudent(), "sch_1", submissionFiles(t))

	assert.ErrorIs(t, err, models.ErrActiveApplication)
	require.Len(t, fx.store.saved, 1)
	assert.Equal(t, fx.store.saved, fx.store.deleted)
}

func TestReview_InvalidStatusRejected(t *testing.T) {
	fx := newApplicationFixture()

	_, err := fx.service.Review(context.Background(), "app_1", "rejected", "usr_staff1")

	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestReview_UnknownApplicationNotFound(t *testing.T) {
	fx := newApplicationFixture()

	_, err := fx.service.Review(context.Background(), "app_missing", models.ApplicationStatusApproved, "usr_staff1")

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestReview_UpdatesStatus(t *testing.T) {
	fx := newApplicationFixture()
	fx.repo.apps["app_1"] = &models.Application{
		ID:            1,
		ApplicationID: "app_1",
		StudentID:     "usr_1",
		ScholarshipID: "sch_1",
		Status:        models.ApplicationStatusPending,
	}

	app, err := fx.service.Review(context.Background(), "app_1", models.ApplicationStatusApproved, "usr_staff1")

	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApproved, app.Status)
	assert.Equal(t, models.ApplicationStatusApproved, fx.repo.apps["app_1"].Status)
}

func TestListForStudent_AttachesUploadedForms(t *testing.T) {
	fx := newApplicationFixture()
	fx.repo.apps["app_1"] = &models.Application{
		ID:            1,
		ApplicationID: "app_1",
		StudentID:     "usr_1",
		ScholarshipID: "sch_1",
		Status:        models.ApplicationStatusPending,
	}
	fx.repo.forms["app_1"] = []*models.ApplicationForm{
		{FormID: "af_1", ApplicationID: "app_1", FormName: "Application Form", FilePath: "scholarships/usr_1/app.pdf"},
	}

	apps, total, err := fx.service.ListForStudent(context.Background(), "usr_1", 10, 0)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, apps, 1)
	require.Len(t, apps[0].Forms, 1)
	assert.Equal(t, "Application Form", apps[0].Forms[0].FormName)
}

func TestListForReview_InvalidStatusFilterRejected(t *testing.T) {
	fx := newApplicationFixture()

	_, _, err := fx.service.ListForReview(context.Background(), 10, 0, "", "rejected")

	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}
