package services_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockScholarshipRepository implements ScholarshipRepository with in-memory state
type MockScholarshipRepository struct {
	scholarships  map[string]*models.Scholarship // keyed by scholarship_id
	courseCodes   map[string][]string
	forms         map[string][]*models.ScholarshipForm
	lastCourseIDs []int64
	lastFormIDs   []int64
	nextID        int64
}

func NewMockScholarshipRepository() *MockScholarshipRepository {
	return &MockScholarshipRepository{
		scholarships: make(map[string]*models.Scholarship),
		courseCodes:  make(map[string][]string),
		forms:        make(map[string][]*models.ScholarshipForm),
		nextID:       1,
	}
}

func (m *MockScholarshipRepository) CreateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error) {
	s.ID = m.nextID
	m.nextID++
	m.scholarships[s.ScholarshipID] = s
	m.lastCourseIDs = courseIDs
	m.lastFormIDs = formIDs
	return s, nil
}

func (m *MockScholarshipRepository) UpdateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error) {
	existing, ok := m.scholarships[s.ScholarshipID]
	if !ok {
		return nil, models.ErrNotFound
	}
	s.ID = existing.ID
	m.scholarships[s.ScholarshipID] = s
	m.lastCourseIDs = courseIDs
	m.lastFormIDs = formIDs
	return s, nil
}

func (m *MockScholarshipRepository) GetByScholarshipID(ctx context.Context, scholarshipID string) (*models.Scholarship, error) {
	s, ok := m.scholarships[scholarshipID]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *MockScholarshipRepository) GetByTitle(ctx context.Context, title string) (*models.Scholarship, error) {
	for _, s := range m.scholarships {
		if s.Title == title {
			copied := *s
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockScholarshipRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.Scholarship, error) {
	out := make([]*models.Scholarship, 0, len(m.scholarships))
	for _, s := range m.scholarships {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MockScholarshipRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	return len(m.scholarships), nil
}

func (m *MockScholarshipRepository) Delete(ctx context.Context, scholarshipID string) error {
	if _, ok := m.scholarships[scholarshipID]; !ok {
		return models.ErrNotFound
	}
	delete(m.scholarships, scholarshipID)
	return nil
}

func (m *MockScholarshipRepository) CourseCodes(ctx context.Context, scholarshipID string) ([]string, error) {
	return m.courseCodes[scholarshipID], nil
}

func (m *MockScholarshipRepository) Forms(ctx context.Context, scholarshipID string) ([]*models.ScholarshipForm, error) {
	return m.forms[scholarshipID], nil
}

type mockCourseCatalog struct {
	courses map[string]*models.Course // keyed by code
}

func (m *mockCourseCatalog) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	course, ok := m.courses[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	return course, nil
}

func (m *mockCourseCatalog) All(ctx context.Context) ([]*models.Course, error) {
	out := make([]*models.Course, 0, len(m.courses))
	for _, c := range m.courses {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockFormCatalog struct {
	forms map[string]*models.ScholarshipForm // keyed by form_id
}

func (m *mockFormCatalog) GetByFormIDs(ctx context.Context, formIDs []string) ([]*models.ScholarshipForm, error) {
	out := make([]*models.ScholarshipForm, 0, len(formIDs))
	for _, id := range formIDs {
		if f, ok := m.forms[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}

func newScholarshipService(repo *MockScholarshipRepository, courses *mockCourseCatalog, forms *mockFormCatalog) *services.ScholarshipService {
	if courses == nil {
		courses = &mockCourseCatalog{courses: map[string]*models.Course{}}
	}
	if forms == nil {
		forms = &mockFormCatalog{forms: map[string]*models.ScholarshipForm{}}
	}
	return services.NewScholarshipService(repo, courses, forms, newTestLogger())
}

func seedScholarship(repo *MockScholarshipRepository, id, title string, courseCodes []string) *models.Scholarship {
	s := &models.Scholarship{
		ID:            repo.nextID,
		ScholarshipID: id,
		Title:         title,
		Status:        models.ScholarshipStatusActive,
		StartDate:     time.Now().AddDate(0, 0, -7),
		EndDate:       time.Now().AddDate(0, 0, 7),
	}
	repo.nextID++
	repo.scholarships[id] = s
	repo.courseCodes[id] = courseCodes
	repo.forms[id] = []*models.ScholarshipForm{
		{ID: 1, FormID: "form_1", Name: "Application Form", FilePath: "scholarship_forms/app.pdf"},
	}
	return s
}

func TestResolveCourseCodes_NoAssociationsMeansOpenToAll(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "Academic Excellence", nil)
	service := newScholarshipService(repo, nil, nil)

	codes, err := service.ResolveCourseCodes(context.Background(), "sch_1")

	require.NoError(t, err)
	assert.Equal(t, []string{models.CourseCodeAll}, codes)
}

func TestResolveCourseCodes_ReturnsAssociatedCodes(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "Academic Excellence", []string{"BSIT", "BSCS"})
	service := newScholarshipService(repo, nil, nil)

	codes, err := service.ResolveCourseCodes(context.Background(), "sch_1")

	require.NoError(t, err)
	assert.Equal(t, []string{"BSIT", "BSCS"}, codes)
}

func TestListForStudent_FiltersByCourse(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "IT Scholars", []string{"BSIT"})
	seedScholarship(repo, "sch_2", "Nursing Grant", []string{"BSN"})
	seedScholarship(repo, "sch_3", "Open Grant", nil)
	service := newScholarshipService(repo, nil, nil)

	eligible, _, err := service.ListForStudent(context.Background(), "BSIT", 10, 0, "")

	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "IT Scholars", eligible[0].Title)
	assert.Equal(t, "Open Grant", eligible[1].Title)
}

func TestListAll_AttachesAssociations(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "IT Scholars", []string{"BSIT"})
	service := newScholarshipService(repo, nil, nil)

	all, total, err := service.ListAll(context.Background(), 10, 0, "")

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"BSIT"}, all[0].CourseCodes)
	require.Len(t, all[0].Forms, 1)
	assert.Equal(t, "Application Form", all[0].Forms[0].Name)
}

func validScholarshipParams() services.ScholarshipParams {
	return services.ScholarshipParams{
		Title:     "Academic Excellence",
		Status:    models.ScholarshipStatusActive,
		StartDate: "2026-01-01",
		EndDate:   "2026-06-30",
		FormIDs:   []string{"form_1"},
	}
}

func TestCreateScholarship_DuplicateTitleConflicts(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "Academic Excellence", nil)
	forms := &mockFormCatalog{forms: map[string]*models.ScholarshipForm{
		"form_1": {ID: 1, FormID: "form_1", Name: "Application Form"},
	}}
	service := newScholarshipService(repo, nil, forms)

	_, err := service.Create(context.Background(), validScholarshipParams())

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestCreateScholarship_EndBeforeStartRejected(t *testing.T) {
	repo := NewMockScholarshipRepository()
	service := newScholarshipService(repo, nil, nil)

	params := validScholarshipParams()
	params.StartDate = "2026-06-30"
	params.EndDate = "2026-01-01"

	_, err := service.Create(context.Background(), params)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "End date")
}

func TestCreateScholarship_InvalidStatusRejected(t *testing.T) {
	repo := NewMockScholarshipRepository()
	service := newScholarshipService(repo, nil, nil)

	params := validScholarshipParams()
	params.Status = "draft"

	_, err := service.Create(context.Background(), params)

	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreateScholarship_UnknownCourseCodeRejected(t *testing.T) {
	repo := NewMockScholarshipRepository()
	forms := &mockFormCatalog{forms: map[string]*models.ScholarshipForm{
		"form_1": {ID: 1, FormID: "form_1", Name: "Application Form"},
	}}
	service := newScholarshipService(repo, nil, forms)

	params := validScholarshipParams()
	params.CourseCodes = []string{"BSXX"}

	_, err := service.Create(context.Background(), params)

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "BSXX")
}

func TestCreateScholarship_AllShorthandExpandsToEveryCourse(t *testing.T) {
	repo := NewMockScholarshipRepository()
	courses := &mockCourseCatalog{courses: map[string]*models.Course{
		"BSIT": {ID: 1, Code: "BSIT"},
		"BSCS": {ID: 2, Code: "BSCS"},
		"BSN":  {ID: 3, Code: "BSN"},
	}}
	forms := &mockFormCatalog{forms: map[string]*models.ScholarshipForm{
		"form_1": {ID: 1, FormID: "form_1", Name: "Application Form"},
	}}
	service := newScholarshipService(repo, courses, forms)

	params := validScholarshipParams()
	params.CourseCodes = []string{"all"}

	_, err := service.Create(context.Background(), params)

	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, repo.lastCourseIDs)
}

func TestCreateScholarship_UnknownFormIDRejected(t *testing.T) {
	repo := NewMockScholarshipRepository()
	forms := &mockFormCatalog{forms: map[string]*models.ScholarshipForm{}}
	service := newScholarshipService(repo, nil, forms)

	_, err := service.Create(context.Background(), validScholarshipParams())

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "forms")
}

func TestUpdateScholarship_KeepingOwnTitleIsNotAConflict(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "Academic Excellence", nil)
	forms := &mockFormCatalog{forms: map[string]*models.ScholarshipForm{
		"form_1": {ID: 1, FormID: "form_1", Name: "Application Form"},
	}}
	service := newScholarshipService(repo, nil, forms)

	updated, err := service.Update(context.Background(), "sch_1", validScholarshipParams())

	require.NoError(t, err)
	assert.Equal(t, "Academic Excellence", updated.Title)
}

func TestUpdateScholarship_RenameToExistingTitleConflicts(t *testing.T) {
	repo := NewMockScholarshipRepository()
	seedScholarship(repo, "sch_1", "Academic Excellence", nil)
	seedScholarship(repo, "sch_2", "Sports Grant", nil)
	service := newScholarshipService(repo, nil, nil)

	params := validScholarshipParams()
	params.Title = "Sports Grant"

	_, err := service.Update(context.Background(), "sch_1", params)

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestDeleteScholarship_UnknownIDNotFound(t *testing.T) {
	repo := NewMockScholarshipRepository()
	service := newScholarshipService(repo, nil, nil)

	err := service.Delete(context.Background(), "sch_missing")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
