package services_test

import (
	"context"
	"errors"
	"mime/multipart"
	"testing"
	"time"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/services"
	pkgauth "github.com/rmagsino/iskolar/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStudentRepository implements StudentRepository with in-memory state
type MockStudentRepository struct {
	students map[string]*models.Student // keyed by student number
	nextID   int64
}

func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{
		students: make(map[string]*models.Student),
		nextID:   1,
	}
}

func (m *MockStudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	if _, ok := m.students[student.StudentNumber]; ok {
		return nil, models.ErrConflict
	}
	student.ID = m.nextID
	m.nextID++
	m.students[student.StudentNumber] = student
	return student, nil
}

func (m *MockStudentRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	student, ok := m.students[studentNumber]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *student
	return &copied, nil
}

func (m *MockStudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	for _, s := range m.students {
		if s.Email == email {
			copied := *s
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) find(id int64) *models.Student {
	for _, s := range m.students {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (m *MockStudentRepository) IncrementLoginAttempts(ctx context.Context, id int64) error {
	s := m.find(id)
	if s == nil {
		return models.ErrNotFound
	}
	s.LoginAttempts++
	now := time.Now()
	s.LastLoginAttempt = &now
	return nil
}

func (m *MockStudentRepository) ResetLoginAttempts(ctx context.Context, id int64) error {
	s := m.find(id)
	if s == nil {
		return models.ErrNotFound
	}
	s.LoginAttempts = 0
	s.LastLoginAttempt = nil
	return nil
}

func (m *MockStudentRepository) UpdateCSRFToken(ctx context.Context, userID, token string) error {
	for _, s := range m.students {
		if s.UserID == userID {
			s.CSRFToken = &token
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *MockStudentRepository) SaveResetToken(ctx context.Context, id int64, token string, expires time.Time) error {
	s := m.find(id)
	if s == nil {
		return models.ErrNotFound
	}
	s.ResetToken = &token
	s.ResetTokenExpiry = &expires
	return nil
}

func (m *MockStudentRepository) GetByResetToken(ctx context.Context, token string) (*models.Student, error) {
	for _, s := range m.students {
		if s.ResetToken != nil && *s.ResetToken == token {
			copied := *s
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MockStudentRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	s := m.find(id)
	if s == nil {
		return models.ErrNotFound
	}
	s.PasswordHash = passwordHash
	s.ResetToken = nil
	s.ResetTokenExpiry = nil
	return nil
}

// MockAdminAuthRepository implements AdminAuthRepository
type MockAdminAuthRepository struct {
	admins map[string]*models.Admin // keyed by email
	nextID int64
}

func NewMockAdminAuthRepository() *MockAdminAuthRepository {
	return &MockAdminAuthRepository{
		admins: make(map[string]*models.Admin),
		nextID: 1,
	}
}

func (m *MockAdminAuthRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	if _, ok := m.admins[admin.Email]; ok {
		return nil, models.ErrConflict
	}
	admin.ID = m.nextID
	m.nextID++
	m.admins[admin.Email] = admin
	return admin, nil
}

func (m *MockAdminAuthRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	admin, ok := m.admins[email]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *admin
	return &copied, nil
}

func (m *MockAdminAuthRepository) UpdateGoogleID(ctx context.Context, id int64, googleID string) error {
	for _, a := range m.admins {
		if a.ID == id {
			a.GoogleID = &googleID
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *MockAdminAuthRepository) UpdateCSRFToken(ctx context.Context, userID, token string) error {
	for _, a := range m.admins {
		if a.UserID == userID {
			a.CSRFToken = &token
			return nil
		}
	}
	return models.ErrNotFound
}

// MockGoogleVerifier implements GoogleTokenVerifier
type MockGoogleVerifier struct {
	claims *auth.GoogleClaims
	err    error
}

func (m *MockGoogleVerifier) Verify(ctx context.Context, idToken string) (*auth.GoogleClaims, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.claims, nil
}

func newAuthService(students *MockStudentRepository, admins *MockAdminAuthRepository, google *MockGoogleVerifier) *services.AuthService {
	if admins == nil {
		admins = NewMockAdminAuthRepository()
	}
	if google == nil {
		google = &MockGoogleVerifier{err: errors.New("no claims configured")}
	}
	return services.NewAuthService(
		students,
		admins,
		google,
		&MockEmailService{},
		&MockDocumentStore{},
		auth.NewTimingDelay(auth.TimingConfig{}),
		services.AuthConfig{
			MaxLoginAttempts: 5,
			LockoutDuration:  30 * time.Minute,
			ResetTokenTTL:    time.Hour,
		},
		newTestLogger(),
		newTestAudit(),
	)
}

func seedStudent(t *testing.T, repo *MockStudentRepository, password string) *models.Student {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	require.NoError(t, err)

	student := &models.Student{
		UserID:        "usr_student1",
		APIKey:        "key_student1",
		FirstName:     "Juan",
		LastName:      "Dela Cruz",
		StudentNumber: "2021-0001",
		Email:         "juan@example.com",
		PhoneNumber:   "09171234567",
		Course:        "BSIT",
		YearLevel:     "3rd Year",
		PasswordHash:  hash,
	}
	_, err = repo.Create(context.Background(), student)
	require.NoError(t, err)
	return student
}

func TestLogin_UnknownStudentNumberReturnsUnauthorized(t *testing.T) {
	repo := NewMockStudentRepository()
	service := newAuthService(repo, nil, nil)

	session, err := service.Login(context.Background(), "2021-9999", "whatever1")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestLogin_WrongPasswordReportsAttemptsRemaining(t *testing.T) {
	repo := NewMockStudentRepository()
	seedStudent(t, repo, "correct1pw")
	service := newAuthService(repo, nil, nil)

	session, err := service.Login(context.Background(), "2021-0001", "wrong1pw")

	assert.Nil(t, session)
	var remaining *models.AttemptsRemainingError
	require.ErrorAs(t, err, &remaining)
	assert.Equal(t, 4, remaining.Remaining)
	assert.Equal(t, 1, repo.students["2021-0001"].LoginAttempts)
}

func TestLogin_FifthFailureTripsLockout(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	repo.students[student.StudentNumber].LoginAttempts = 4
	service := newAuthService(repo, nil, nil)

	_, err := service.Login(context.Background(), "2021-0001", "wrong1pw")

	var tooMany *models.TooManyAttemptsError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 30, tooMany.LockoutMinutes)
}

func TestLogin_LockedAccountReportsRemainingMinutes(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	lastAttempt := time.Now().Add(-5 * time.Minute)
	repo.students[student.StudentNumber].LoginAttempts = 5
	repo.students[student.StudentNumber].LastLoginAttempt = &lastAttempt
	service := newAuthService(repo, nil, nil)

	// Even the correct password is rejected during the lockout window.
	_, err := service.Login(context.Background(), "2021-0001", "correct1pw")

	var lockout *models.LockoutError
	require.ErrorAs(t, err, &lockout)
	assert.Equal(t, 25, lockout.RemainingMinutes)
}

func TestLogin_LockoutWindowElapsedAllowsLogin(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	lastAttempt := time.Now().Add(-31 * time.Minute)
	repo.students[student.StudentNumber].LoginAttempts = 5
	repo.students[student.StudentNumber].LastLoginAttempt = &lastAttempt
	service := newAuthService(repo, nil, nil)

	session, err := service.Login(context.Background(), "2021-0001", "correct1pw")

	require.NoError(t, err)
	assert.Equal(t, student.UserID, session.Student.UserID)
	assert.Equal(t, 0, repo.students[student.StudentNumber].LoginAttempts)
}

func TestLogin_SuccessRotatesCSRFToken(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	service := newAuthService(repo, nil, nil)

	first, err := service.Login(context.Background(), "2021-0001", "correct1pw")
	require.NoError(t, err)
	second, err := service.Login(context.Background(), "2021-0001", "correct1pw")
	require.NoError(t, err)

	assert.NotEmpty(t, first.CSRFToken)
	assert.NotEmpty(t, second.CSRFToken)
	assert.NotEqual(t, first.CSRFToken, second.CSRFToken)
	// Only the latest token remains valid.
	assert.Equal(t, second.CSRFToken, *repo.students[student.StudentNumber].CSRFToken)
}

func TestForgotPassword_UnknownStudentNumberIsSilent(t *testing.T) {
	repo := NewMockStudentRepository()
	service := newAuthService(repo, nil, nil)

	err := service.ForgotPassword(context.Background(), "2021-9999")

	assert.NoError(t, err)
}

func TestForgotPassword_SavesTokenWithExpiry(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	service := newAuthService(repo, nil, nil)

	err := service.ForgotPassword(context.Background(), "2021-0001")

	require.NoError(t, err)
	stored := repo.students[student.StudentNumber]
	require.NotNil(t, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiry)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *stored.ResetTokenExpiry, time.Minute)
}

func TestResetPassword_ExpiredTokenRejected(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	token := "expired-token"
	expiry := time.Now().Add(-time.Minute)
	repo.students[student.StudentNumber].ResetToken = &token
	repo.students[student.StudentNumber].ResetTokenExpiry = &expiry
	service := newAuthService(repo, nil, nil)

	err := service.ResetPassword(context.Background(), token, "newpass1")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestResetPassword_ValidTokenUpdatesPassword(t *testing.T) {
	repo := NewMockStudentRepository()
	student := seedStudent(t, repo, "correct1pw")
	token := "valid-token"
	expiry := time.Now().Add(30 * time.Minute)
	repo.students[student.StudentNumber].ResetToken = &token
	repo.students[student.StudentNumber].ResetTokenExpiry = &expiry
	service := newAuthService(repo, nil, nil)

	err := service.ResetPassword(context.Background(), token, "newpass1")

	require.NoError(t, err)
	stored := repo.students[student.StudentNumber]
	assert.NoError(t, pkgauth.ComparePassword(stored.PasswordHash, "newpass1"))
	assert.Nil(t, stored.ResetToken)
}

func TestStaffGoogleSignIn_InvalidTokenRejected(t *testing.T) {
	repo := NewMockStudentRepository()
	admins := NewMockAdminAuthRepository()
	google := &MockGoogleVerifier{err: errors.New("signature mismatch")}
	service := newAuthService(repo, admins, google)

	session, err := service.StaffGoogleSignIn(context.Background(), "bad-token")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestStaffGoogleSignIn_FirstSignInCreatesPendingAccount(t *testing.T) {
	repo := NewMockStudentRepository()
	admins := NewMockAdminAuthRepository()
	google := &MockGoogleVerifier{claims: &auth.GoogleClaims{
		Subject:    "google-sub-1",
		Email:      "staff@university.edu",
		GivenName:  "maria",
		FamilyName: "santos",
	}}
	service := newAuthService(repo, admins, google)

	session, err := service.StaffGoogleSignIn(context.Background(), "id-token")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrAccountNotApproved)

	created := admins.admins["staff@university.edu"]
	require.NotNil(t, created)
	assert.Equal(t, models.StaffStatusPending, created.Status)
	assert.Equal(t, "Maria", created.FirstName)
	assert.Equal(t, "Santos", created.LastName)
}

func TestStaffGoogleSignIn_PendingAccountRejected(t *testing.T) {
	repo := NewMockStudentRepository()
	admins := NewMockAdminAuthRepository()
	admins.admins["staff@university.edu"] = &models.Admin{
		ID: 1, UserID: "usr_staff1", APIKey: "key_staff1",
		Email: "staff@university.edu", Status: models.StaffStatusPending,
	}
	google := &MockGoogleVerifier{claims: &auth.GoogleClaims{
		Subject: "google-sub-1",
		Email:   "staff@university.edu",
	}}
	service := newAuthService(repo, admins, google)

	session, err := service.StaffGoogleSignIn(context.Background(), "id-token")

	assert.Nil(t, session)
	assert.ErrorIs(t, err, models.ErrAccountNotApproved)
}

func TestStaffGoogleSignIn_ApprovedAccountGetsSession(t *testing.T) {
	repo := NewMockStudentRepository()
	admins := NewMockAdminAuthRepository()
	admins.admins["staff@university.edu"] = &models.Admin{
		ID: 1, UserID: "usr_staff1", APIKey: "key_staff1",
		FirstName: "Maria", LastName: "Santos",
		Email: "staff@university.edu", Status: models.StaffStatusApproved,
	}
	google := &MockGoogleVerifier{claims: &auth.GoogleClaims{
		Subject: "google-sub-1",
		Email:   "staff@university.edu",
	}}
	service := newAuthService(repo, admins, google)

	session, err := service.StaffGoogleSignIn(context.Background(), "id-token")

	require.NoError(t, err)
	assert.Equal(t, "key_staff1", session.APIKey)
	assert.NotEmpty(t, session.CSRFToken)
	assert.Equal(t, session.CSRFToken, *admins.admins["staff@university.edu"].CSRFToken)
	require.NotNil(t, admins.admins["staff@university.edu"].GoogleID)
	assert.Equal(t, "google-sub-1", *admins.admins["staff@university.edu"].GoogleID)
}

func TestRegister_InvalidStudentNumberRejected(t *testing.T) {
	repo := NewMockStudentRepository()
	service := newAuthService(repo, nil, nil)

	_, err := service.Register(context.Background(), services.RegisterStudentParams{
		FirstName:     "Juan",
		LastName:      "Dela Cruz",
		StudentNumber: "21-0001",
		Email:         "juan@example.com",
		PhoneNumber:   "09171234567",
		Password:      "secret1pw",
	})

	var validation *models.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func registrationDocuments(t *testing.T) map[string]*multipart.FileHeader {
	t.Helper()
	return map[string]*multipart.FileHeader{
		"picture":                     makeFileHeader(t, "picture", "me.png", pngBytes),
		"school_id":                   makeFileHeader(t, "school_id", "id.png", pngBytes),
		"certificate_of_indigency":    makeFileHeader(t, "certificate_of_indigency", "indigency.pdf", pdfBytes),
		"certificate_of_registration": makeFileHeader(t, "certificate_of_registration", "cor.pdf", pdfBytes),
	}
}

func TestRegister_MissingDocumentRejected(t *testing.T) {
	repo := NewMockStudentRepository()
	service := newAuthService(repo, nil, nil)

	docs := registrationDocuments(t)
	delete(docs, "certificate_of_indigency")

	_, err := service.Register(context.Background(), services.RegisterStudentParams{
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		StudentNumber:   "2021-0001",
		Email:           "juan@example.com",
		PhoneNumber:     "09171234567",
		Course:          "BSIT",
		YearLevel:       "3rd Year",
		CompleteAddress: "123 Sample St",
		Password:        "secret1pw",
		Documents:       docs,
	})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Message, "certificate of indigency")
}

func TestRegister_StoresDocumentsAndNormalizesFields(t *testing.T) {
	repo := NewMockStudentRepository()
	store := &MockDocumentStore{}
	service := services.NewAuthService(
		repo,
		NewMockAdminAuthRepository(),
		&MockGoogleVerifier{err: errors.New("unused")},
		&MockEmailService{},
		store,
		auth.NewTimingDelay(auth.TimingConfig{}),
		services.AuthConfig{MaxLoginAttempts: 5, LockoutDuration: 30 * time.Minute, ResetTokenTTL: time.Hour},
		newTestLogger(),
		newTestAudit(),
	)

	student, err := service.Register(context.Background(), services.RegisterStudentParams{
		FirstName:       "juan miguel",
		LastName:        "dela cruz",
		StudentNumber:   "2021-0001",
		Email:           "Juan@Example.com ",
		PhoneNumber:     "09171234567",
		Course:          "bsit",
		YearLevel:       "3rd Year",
		CompleteAddress: "123 Sample St",
		Password:        "secret1pw",
		Documents:       registrationDocuments(t),
	})

	require.NoError(t, err)
	assert.Equal(t, "Juan Miguel", student.FirstName)
	assert.Equal(t, "Dela Cruz", student.LastName)
	assert.Equal(t, "juan@example.com", student.Email)
	assert.Equal(t, "BSIT", student.Course)
	assert.NotEmpty(t, student.UserID)
	assert.NotEmpty(t, student.APIKey)
	assert.Len(t, store.saved, 4)
	require.NotNil(t, student.Picture)
	assert.Contains(t, *student.Picture, "profiles/"+student.UserID)
}

func TestRegister_DuplicateStudentNumberConflicts(t *testing.T) {
	repo := NewMockStudentRepository()
	seedStudent(t, repo, "correct1pw")
	service := newAuthService(repo, nil, nil)

	_, err := service.Register(context.Background(), services.RegisterStudentParams{
		FirstName:       "Juan",
		LastName:        "Dela Cruz",
		StudentNumber:   "2021-0001",
		Email:           "other@example.com",
		PhoneNumber:     "09171234567",
		Course:          "BSIT",
		YearLevel:       "3rd Year",
		CompleteAddress: "123 Sample St",
		Password:        "secret1pw",
		Documents:       registrationDocuments(t),
	})

	assert.ErrorIs(t, err, models.ErrConflict)
}
