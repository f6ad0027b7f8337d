package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
)

// ScholarshipRepository defines the persistence operations for scholarships
// and their associations.
type ScholarshipRepository interface {
	CreateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error)
	UpdateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error)
	GetByScholarshipID(ctx context.Context, scholarshipID string) (*models.Scholarship, error)
	GetByTitle(ctx context.Context, title string) (*models.Scholarship, error)
	List(ctx context.Context, limit, offset int, search string) ([]*models.Scholarship, error)
	CountFiltered(ctx context.Context, search string) (int, error)
	Delete(ctx context.Context, scholarshipID string) error
	CourseCodes(ctx context.Context, scholarshipID string) ([]string, error)
	Forms(ctx context.Context, scholarshipID string) ([]*models.ScholarshipForm, error)
}

// CourseCatalog resolves course codes to rows.
type CourseCatalog interface {
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	All(ctx context.Context) ([]*models.Course, error)
}

// FormCatalog resolves form template ids to rows.
type FormCatalog interface {
	GetByFormIDs(ctx context.Context, formIDs []string) ([]*models.ScholarshipForm, error)
}

// ScholarshipService owns eligibility resolution and the staff scholarship
// CRUD surface.
type ScholarshipService struct {
	repo    ScholarshipRepository
	courses CourseCatalog
	forms   FormCatalog
	logger  *slog.Logger
}

func NewScholarshipService(repo ScholarshipRepository, courses CourseCatalog, forms FormCatalog, logger *slog.Logger) *ScholarshipService {
	return &ScholarshipService{
		repo:    repo,
		courses: courses,
		forms:   forms,
		logger:  logger,
	}
}

// ResolveCourseCodes returns the scholarship's course codes. A scholarship
// with no associations resolves to the ALL sentinel: open to every course.
func (s *ScholarshipService) ResolveCourseCodes(ctx context.Context, scholarshipID string) ([]string, error) {
	codes, err := s.repo.CourseCodes(ctx, scholarshipID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return []string{models.CourseCodeAll}, nil
	}
	return codes, nil
}

// RequiredForms returns the scholarship's required document templates. An
// empty list means the scholarship cannot take applications.
func (s *ScholarshipService) RequiredForms(ctx context.Context, scholarshipID string) ([]*models.ScholarshipForm, error) {
	return s.repo.Forms(ctx, scholarshipID)
}

// ListForStudent returns the page of scholarships a student in the given
// course may apply to, with course codes and required forms attached.
func (s *ScholarshipService) ListForStudent(ctx context.Context, studentCourse string, limit, offset int, search string) ([]*models.Scholarship, int, error) {
	scholarships, err := s.repo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list scholarships", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count scholarships", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	eligible := make([]*models.Scholarship, 0, len(scholarships))
	for _, sch := range scholarships {
		if err := s.attachAssociations(ctx, sch); err != nil {
			return nil, 0, err
		}
		if sch.OpenToCourse(studentCourse) {
			eligible = append(eligible, sch)
		}
	}

	return eligible, total, nil
}

// ListAll returns the staff listing with associations attached.
func (s *ScholarshipService) ListAll(ctx context.Context, limit, offset int, search string) ([]*models.Scholarship, int, error) {
	scholarships, err := s.repo.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list scholarships", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count scholarships", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	for _, sch := range scholarships {
		if err := s.attachAssociations(ctx, sch); err != nil {
			return nil, 0, err
		}
	}

	return scholarships, total, nil
}

func (s *ScholarshipService) attachAssociations(ctx context.Context, sch *models.Scholarship) error {
	codes, err := s.ResolveCourseCodes(ctx, sch.ScholarshipID)
	if err != nil {
		s.logger.Error("failed to resolve course codes", slog.Any("error", err))
		return models.ErrInternalServer
	}
	sch.CourseCodes = codes

	forms, err := s.repo.Forms(ctx, sch.ScholarshipID)
	if err != nil {
		s.logger.Error("failed to resolve scholarship forms", slog.Any("error", err))
		return models.ErrInternalServer
	}
	sch.Forms = forms

	return nil
}

// ScholarshipParams is the staff create/edit payload.
type ScholarshipParams struct {
	Title       string
	Description string
	Amount      *float64
	Status      string
	StartDate   string
	EndDate     string
	CourseCodes []string
	FormIDs     []string
}

func (s *ScholarshipService) Create(ctx context.Context, params ScholarshipParams) (*models.Scholarship, error) {
	start, end, err := s.validateParams(params)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByTitle(ctx, params.Title); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("title check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	courseIDs, err := s.resolveCourseIDs(ctx, params.CourseCodes)
	if err != nil {
		return nil, err
	}
	formIDs, err := s.resolveFormIDs(ctx, params.FormIDs)
	if err != nil {
		return nil, err
	}

	scholarshipID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.CreateWithAssociations(ctx, &models.Scholarship{
		ScholarshipID: scholarshipID,
		Title:         strings.TrimSpace(params.Title),
		Description:   strings.TrimSpace(params.Description),
		Amount:        params.Amount,
		Status:        params.Status,
		StartDate:     start,
		EndDate:       end,
	}, courseIDs, formIDs)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create scholarship", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.attachAssociations(ctx, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ScholarshipService) Update(ctx context.Context, scholarshipID string, params ScholarshipParams) (*models.Scholarship, error) {
	start, end, err := s.validateParams(params)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByScholarshipID(ctx, scholarshipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("scholarship lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// A renamed title must stay unique.
	if other, err := s.repo.GetByTitle(ctx, params.Title); err == nil && other.ScholarshipID != existing.ScholarshipID {
		return nil, models.ErrConflict
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("title check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	courseIDs, err := s.resolveCourseIDs(ctx, params.CourseCodes)
	if err != nil {
		return nil, err
	}
	formIDs, err := s.resolveFormIDs(ctx, params.FormIDs)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateWithAssociations(ctx, &models.Scholarship{
		ScholarshipID: scholarshipID,
		Title:         strings.TrimSpace(params.Title),
		Description:   strings.TrimSpace(params.Description),
		Amount:        params.Amount,
		Status:        params.Status,
		StartDate:     start,
		EndDate:       end,
	}, courseIDs, formIDs)
	if err != nil {
		s.logger.Error("failed to update scholarship", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.attachAssociations(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *ScholarshipService) Delete(ctx context.Context, scholarshipID string) error {
	err := s.repo.Delete(ctx, scholarshipID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete scholarship", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *ScholarshipService) validateParams(params ScholarshipParams) (time.Time, time.Time, error) {
	var zero time.Time

	if strings.TrimSpace(params.Title) == "" {
		return zero, zero, models.NewValidationError("Scholarship title is required")
	}
	if params.Status != models.ScholarshipStatusActive && params.Status != models.ScholarshipStatusArchive {
		return zero, zero, models.NewValidationError("Status must be active or archive")
	}

	start, err := time.Parse("2006-01-02", params.StartDate)
	if err != nil {
		return zero, zero, models.NewValidationError("Start date must be in YYYY-MM-DD format")
	}
	end, err := time.Parse("2006-01-02", params.EndDate)
	if err != nil {
		return zero, zero, models.NewValidationError("End date must be in YYYY-MM-DD format")
	}
	if !end.After(start) {
		return zero, zero, models.NewValidationError("End date must be after start date")
	}

	return start, end, nil
}

// resolveCourseIDs maps course codes to internal ids. The "all" shorthand
// expands to every course; an empty list keeps the scholarship open to all
// via the missing-association sentinel.
func (s *ScholarshipService) resolveCourseIDs(ctx context.Context, codes []string) ([]int64, error) {
	if len(codes) == 0 {
		return nil, nil
	}

	for _, code := range codes {
		if strings.EqualFold(code, "all") {
			all, err := s.courses.All(ctx)
			if err != nil {
				s.logger.Error("failed to load courses", slog.Any("error", err))
				return nil, models.ErrInternalServer
			}
			ids := make([]int64, 0, len(all))
			for _, c := range all {
				ids = append(ids, c.ID)
			}
			return ids, nil
		}
	}

	ids := make([]int64, 0, len(codes))
	for _, code := range codes {
		course, err := s.courses.GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.NewValidationError("Unknown course code: %s", code)
			}
			s.logger.Error("course lookup failed", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		ids = append(ids, course.ID)
	}
	return ids, nil
}

func (s *ScholarshipService) resolveFormIDs(ctx context.Context, formIDs []string) ([]int64, error) {
	if len(formIDs) == 0 {
		return nil, nil
	}

	forms, err := s.forms.GetByFormIDs(ctx, formIDs)
	if err != nil {
		s.logger.Error("form lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if len(forms) != len(formIDs) {
		return nil, models.NewValidationError("One or more scholarship forms do not exist")
	}

	ids := make([]int64, 0, len(forms))
	for _, f := range forms {
		ids = append(ids, f.ID)
	}
	return ids, nil
}
