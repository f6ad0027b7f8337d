package services

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/storage"
	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
)

// ApplicationRepository defines the persistence operations for scholarship
// applications.
type ApplicationRepository interface {
	CreateWithForms(ctx context.Context, app *models.Application, forms []*models.ApplicationForm) error
	HasBlocking(ctx context.Context, studentID string) (bool, error)
	GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error)
	UpdateStatus(ctx context.Context, applicationID, status string) error
	ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Application, error)
	CountByStudent(ctx context.Context, studentID string) (int, error)
	ListAll(ctx context.Context, limit, offset int, search, status string) ([]*models.Application, error)
	CountAll(ctx context.Context, search, status string) (int, error)
	Forms(ctx context.Context, applicationID string) ([]*models.ApplicationForm, error)
}

// StudentLookup resolves a student by external id, used for decision emails.
type StudentLookup interface {
	GetByUserID(ctx context.Context, userID string) (*models.Student, error)
}

// ApplicationService owns the intake pipeline and the staff review surface.
type ApplicationService struct {
	repo         ApplicationRepository
	scholarships ScholarshipRepository
	students     StudentLookup
	store        DocumentStore
	email        EmailService
	auditLogger  *pkglogger.AuditLogger
	logger       *slog.Logger
}

func NewApplicationService(
	repo ApplicationRepository,
	scholarships ScholarshipRepository,
	students StudentLookup,
	store DocumentStore,
	email EmailService,
	auditLogger *pkglogger.AuditLogger,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		repo:         repo,
		scholarships: scholarships,
		students:     students,
		store:        store,
		email:        email,
		auditLogger:  auditLogger,
		logger:       logger,
	}
}

// Submit runs the intake pipeline for one student and scholarship. The
// precondition checks run in a fixed order so a request failing several of
// them always gets the same error. Files are written to storage before the
// database transaction; if the transaction fails the stored files are
// removed again.
func (s *ApplicationService) Submit(ctx context.Context, student *models.Student, scholarshipID string, files map[string]*multipart.FileHeader) (*models.Application, error) {
	if missing := student.MissingBaselineDocument(); missing != "" {
		return nil, models.NewValidationError("Please upload your %s to your profile before applying", missing)
	}

	scholarship, err := s.scholarships.GetByScholarshipID(ctx, scholarshipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("scholarship lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !scholarship.IsActive() {
		return nil, models.NewValidationError("This scholarship is not accepting applications")
	}
	if !scholarship.IsOpenOn(time.Now()) {
		return nil, models.NewValidationError("The application period for this scholarship is closed")
	}

	required, err := s.scholarships.Forms(ctx, scholarshipID)
	if err != nil {
		s.logger.Error("failed to load required forms", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if len(required) == 0 {
		return nil, models.NewValidationError("This scholarship has no required forms defined")
	}

	for _, form := range required {
		fh := formUpload(files, form)
		if fh == nil || fh.Size == 0 {
			return nil, models.NewValidationError("Missing file for required form: %s", form.Name)
		}
		if fh.Size > maxImageUploadBytes {
			return nil, models.NewValidationError("File for %s exceeds the 5MB limit", form.Name)
		}
		contentType, err := sniffContentType(fh)
		if err != nil {
			s.logger.Error("failed to sniff upload", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		if !mimeAllowed(contentType, applicationMIMETypes) {
			return nil, models.NewValidationError("File for %s must be a PDF, JPEG or PNG", form.Name)
		}
	}

	blocking, err := s.repo.HasBlocking(ctx, student.UserID)
	if err != nil {
		s.logger.Error("failed to check existing applications", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if blocking {
		return nil, models.ErrActiveApplication
	}

	applicationID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	subdir := "scholarships/" + student.UserID
	stored := make([]string, 0, len(required))
	cleanup := func() {
		for _, path := range stored {
			if err := s.store.Delete(path); err != nil {
				s.logger.Error("failed to remove stored file",
					slog.String("path", path), slog.Any("error", err))
			}
		}
	}

	now := time.Now()
	formRows := make([]*models.ApplicationForm, 0, len(required))
	for _, form := range required {
		fh := formUpload(files, form)
		relPath, err := s.store.SaveMultipart(fh, subdir, storage.StoredName(form.Name, fh.Filename))
		if err != nil {
			s.logger.Error("failed to store application file", slog.Any("error", err))
			cleanup()
			return nil, models.ErrInternalServer
		}
		stored = append(stored, relPath)

		formID, err := auth.GenerateExternalID()
		if err != nil {
			cleanup()
			return nil, models.ErrInternalServer
		}
		formRows = append(formRows, &models.ApplicationForm{
			FormID:        formID,
			ApplicationID: applicationID,
			FormName:      form.Name,
			FilePath:      relPath,
			UploadedAt:    now,
		})
	}

	app := &models.Application{
		ApplicationID: applicationID,
		StudentID:     student.UserID,
		ScholarshipID: scholarshipID,
		Status:        models.ApplicationStatusPending,
		AppliedAt:     now,
	}

	if err := s.repo.CreateWithForms(ctx, app, formRows); err != nil {
		cleanup()
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrActiveApplication) {
			return nil, models.ErrActiveApplication
		}
		s.logger.Error("failed to create application", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	app.Forms = formRows
	app.ScholarshipTitle = scholarship.Title

	s.auditLogger.LogApplicationEvent("application_submitted", applicationID, student.UserID, map[string]string{
		"scholarship_id": scholarshipID,
	})

	return app, nil
}

// formUpload finds the multipart entry for a required form. Fields are keyed
// by the form's name; the form's external id is accepted as well.
func formUpload(files map[string]*multipart.FileHeader, form *models.ScholarshipForm) *multipart.FileHeader {
	if fh, ok := files[form.Name]; ok {
		return fh
	}
	return files[form.FormID]
}

// ListForStudent returns a student's own applications with their uploaded
// documents attached.
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Application, int, error) {
	apps, err := s.repo.ListByStudent(ctx, studentID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list applications", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("failed to count applications", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	for _, app := range apps {
		if err := s.attachForms(ctx, app); err != nil {
			return nil, 0, err
		}
	}

	return apps, total, nil
}

// ListForReview returns the staff queue, pending first.
func (s *ApplicationService) ListForReview(ctx context.Context, limit, offset int, search, status string) ([]*models.Application, int, error) {
	if status != "" && !models.IsValidApplicationStatus(status) {
		return nil, 0, models.NewValidationError("Status must be pending, approved or declined")
	}

	apps, err := s.repo.ListAll(ctx, limit, offset, search, status)
	if err != nil {
		s.logger.Error("failed to list applications", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountAll(ctx, search, status)
	if err != nil {
		s.logger.Error("failed to count applications", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	for _, app := range apps {
		if err := s.attachForms(ctx, app); err != nil {
			return nil, 0, err
		}
	}

	return apps, total, nil
}

// Review sets the decision on an application and notifies the student by
// email. The email is best effort; a send failure does not undo the decision.
func (s *ApplicationService) Review(ctx context.Context, applicationID, status, actorID string) (*models.Application, error) {
	if !models.IsValidApplicationStatus(status) {
		return nil, models.NewValidationError("Status must be pending, approved or declined")
	}

	app, err := s.repo.GetByApplicationID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("application lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.repo.UpdateStatus(ctx, applicationID, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update application status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	app.Status = status

	s.auditLogger.LogApplicationEvent("application_reviewed", applicationID, actorID, map[string]string{
		"status": status,
	})

	s.notifyDecision(app)

	return app, nil
}

func (s *ApplicationService) notifyDecision(app *models.Application) {
	if s.email == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		student, err := s.students.GetByUserID(ctx, app.StudentID)
		if err != nil {
			s.logger.Error("failed to load student for decision email", slog.Any("error", err))
			return
		}

		title := app.ScholarshipTitle
		if title == "" {
			if sch, err := s.scholarships.GetByScholarshipID(ctx, app.ScholarshipID); err == nil {
				title = sch.Title
			}
		}

		if err := s.email.SendApplicationStatus(ctx, student.Email, student.FirstName, title, app.Status); err != nil {
			s.logger.Error("failed to send decision email",
				slog.String("email", pkglogger.SanitizedEmail(student.Email)),
				slog.Any("error", err))
		}
	}()
}

func (s *ApplicationService) attachForms(ctx context.Context, app *models.Application) error {
	forms, err := s.repo.Forms(ctx, app.ApplicationID)
	if err != nil {
		s.logger.Error("failed to load application forms", slog.Any("error", err))
		return models.ErrInternalServer
	}
	app.Forms = forms
	return nil
}
