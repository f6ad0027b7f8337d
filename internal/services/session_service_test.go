package services_test

import (
	"context"
	"testing"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStudentReader struct {
	students map[string]*models.Student // keyed by API key
}

func (m *mockStudentReader) GetByAPIKey(ctx context.Context, apiKey string) (*models.Student, error) {
	student, ok := m.students[apiKey]
	if !ok {
		return nil, models.ErrNotFound
	}
	return student, nil
}

type mockAdminReader struct {
	admins map[string]*models.Admin
}

func (m *mockAdminReader) GetByAPIKey(ctx context.Context, apiKey string) (*models.Admin, error) {
	admin, ok := m.admins[apiKey]
	if !ok {
		return nil, models.ErrNotFound
	}
	return admin, nil
}

func newSessionService(students *mockStudentReader, admins *mockAdminReader) *services.SessionService {
	if students == nil {
		students = &mockStudentReader{students: map[string]*models.Student{}}
	}
	if admins == nil {
		admins = &mockAdminReader{admins: map[string]*models.Admin{}}
	}
	return services.NewSessionService(students, admins, newTestLogger())
}

func TestResolveStudent_UnknownAPIKeyUnauthorized(t *testing.T) {
	service := newSessionService(nil, nil)

	student, err := service.ResolveStudent(context.Background(), "nope", "csrf")

	assert.Nil(t, student)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestResolveStudent_MissingStoredCSRFUnauthorized(t *testing.T) {
	students := &mockStudentReader{students: map[string]*models.Student{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: nil},
	}}
	service := newSessionService(students, nil)

	_, err := service.ResolveStudent(context.Background(), "key-1", "csrf")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestResolveStudent_MismatchedCSRFUnauthorized(t *testing.T) {
	stored := "stored-token"
	students := &mockStudentReader{students: map[string]*models.Student{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored},
	}}
	service := newSessionService(students, nil)

	_, err := service.ResolveStudent(context.Background(), "key-1", "stale-token")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestResolveStudent_MatchingPairResolves(t *testing.T) {
	stored := "stored-token"
	students := &mockStudentReader{students: map[string]*models.Student{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored},
	}}
	service := newSessionService(students, nil)

	student, err := service.ResolveStudent(context.Background(), "key-1", "stored-token")

	require.NoError(t, err)
	assert.Equal(t, "usr_1", student.UserID)
}

func TestResolveAdmin_PendingAccountRejected(t *testing.T) {
	stored := "stored-token"
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored, Status: models.StaffStatusPending},
	}}
	service := newSessionService(nil, admins)

	admin, err := service.ResolveAdmin(context.Background(), "key-1", "stored-token")

	assert.Nil(t, admin)
	assert.ErrorIs(t, err, models.ErrAccountNotApproved)
}

func TestResolveAdmin_DeclinedAccountRejected(t *testing.T) {
	stored := "stored-token"
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored, Status: models.StaffStatusDeclined},
	}}
	service := newSessionService(nil, admins)

	_, err := service.ResolveAdmin(context.Background(), "key-1", "stored-token")

	assert.ErrorIs(t, err, models.ErrAccountNotApproved)
}

func TestResolveAdmin_ApprovedAccountResolves(t *testing.T) {
	stored := "stored-token"
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored, Status: models.StaffStatusApproved},
	}}
	service := newSessionService(nil, admins)

	admin, err := service.ResolveAdmin(context.Background(), "key-1", "stored-token")

	require.NoError(t, err)
	assert.Equal(t, "usr_1", admin.UserID)
}

func TestResolveAdmin_CSRFCheckedBeforeApproval(t *testing.T) {
	stored := "stored-token"
	admins := &mockAdminReader{admins: map[string]*models.Admin{
		"key-1": {UserID: "usr_1", APIKey: "key-1", CSRFToken: &stored, Status: models.StaffStatusPending},
	}}
	service := newSessionService(nil, admins)

	_, err := service.ResolveAdmin(context.Background(), "key-1", "wrong-token")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}
