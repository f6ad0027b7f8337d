package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/models"
)

// CourseRepository defines persistence for the course catalog.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	GetByCourseID(ctx context.Context, courseID string) (*models.Course, error)
	GetByCode(ctx context.Context, code string) (*models.Course, error)
	Update(ctx context.Context, courseID, code, name string) (*models.Course, error)
	Delete(ctx context.Context, courseID string) error
	List(ctx context.Context, limit, offset int, search string) ([]*models.Course, error)
	CountFiltered(ctx context.Context, search string) (int, error)
}

// DepartmentRepository defines persistence for departments.
type DepartmentRepository interface {
	Create(ctx context.Context, dept *models.Department) (*models.Department, error)
	GetByDepartmentID(ctx context.Context, departmentID string) (*models.Department, error)
	GetByName(ctx context.Context, name string) (*models.Department, error)
	Update(ctx context.Context, departmentID, name string) (*models.Department, error)
	Delete(ctx context.Context, departmentID string) error
	List(ctx context.Context, limit, offset int, search string) ([]*models.Department, error)
	CountFiltered(ctx context.Context, search string) (int, error)
}

// AnnouncementRepository defines persistence for announcements.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error)
	GetByAnnouncementID(ctx context.Context, announcementID string) (*models.Announcement, error)
	Update(ctx context.Context, announcementID, title, description string) (*models.Announcement, error)
	Delete(ctx context.Context, announcementID string) error
	List(ctx context.Context, limit, offset int, search string) ([]*models.Announcement, error)
	CountFiltered(ctx context.Context, search string) (int, error)
}

// CatalogService manages the reference data staff maintain: courses,
// departments and announcements.
type CatalogService struct {
	courses       CourseRepository
	departments   DepartmentRepository
	announcements AnnouncementRepository
	logger        *slog.Logger
}

func NewCatalogService(
	courses CourseRepository,
	departments DepartmentRepository,
	announcements AnnouncementRepository,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		courses:       courses,
		departments:   departments,
		announcements: announcements,
		logger:        logger,
	}
}

// CreateCourse registers a course. Codes are stored uppercase and must be
// unique; "ALL" is reserved for the open-to-everyone sentinel.
func (s *CatalogService) CreateCourse(ctx context.Context, code, name string) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = capitalizeWords(strings.TrimSpace(name))
	if code == "" || name == "" {
		return nil, models.NewValidationError("Course code and name are required")
	}
	if code == models.CourseCodeAll {
		return nil, models.NewValidationError("Course code ALL is reserved")
	}

	if _, err := s.courses.GetByCode(ctx, code); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("course code check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	courseID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	created, err := s.courses.Create(ctx, &models.Course{
		CourseID: courseID,
		Code:     code,
		Name:     name,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create course", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

func (s *CatalogService) UpdateCourse(ctx context.Context, courseID, code, name string) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	name = capitalizeWords(strings.TrimSpace(name))
	if code == "" || name == "" {
		return nil, models.NewValidationError("Course code and name are required")
	}
	if code == models.CourseCodeAll {
		return nil, models.NewValidationError("Course code ALL is reserved")
	}

	if other, err := s.courses.GetByCode(ctx, code); err == nil && other.CourseID != courseID {
		return nil, models.ErrConflict
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("course code check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	updated, err := s.courses.Update(ctx, courseID, code, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update course", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

// DeleteCourse removes a course. Courses still referenced by scholarships
// cannot be removed.
func (s *CatalogService) DeleteCourse(ctx context.Context, courseID string) error {
	if err := s.courses.Delete(ctx, courseID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		if errors.Is(err, models.ErrBadRequest) || errors.Is(err, models.ErrConflict) {
			return models.ErrConflict
		}
		s.logger.Error("failed to delete course", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *CatalogService) ListCourses(ctx context.Context, limit, offset int, search string) ([]*models.Course, int, error) {
	courses, err := s.courses.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list courses", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.courses.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count courses", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}
	return courses, total, nil
}

func (s *CatalogService) CreateDepartment(ctx context.Context, name string) (*models.Department, error) {
	name = capitalizeWords(strings.TrimSpace(name))
	if name == "" {
		return nil, models.NewValidationError("Department name is required")
	}

	if _, err := s.departments.GetByName(ctx, name); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("department name check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	departmentID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	created, err := s.departments.Create(ctx, &models.Department{
		DepartmentID: departmentID,
		Name:         name,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create department", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

func (s *CatalogService) UpdateDepartment(ctx context.Context, departmentID, name string) (*models.Department, error) {
	name = capitalizeWords(strings.TrimSpace(name))
	if name == "" {
		return nil, models.NewValidationError("Department name is required")
	}

	if other, err := s.departments.GetByName(ctx, name); err == nil && other.DepartmentID != departmentID {
		return nil, models.ErrConflict
	} else if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("department name check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	updated, err := s.departments.Update(ctx, departmentID, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update department", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func (s *CatalogService) DeleteDepartment(ctx context.Context, departmentID string) error {
	if err := s.departments.Delete(ctx, departmentID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete department", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *CatalogService) ListDepartments(ctx context.Context, limit, offset int, search string) ([]*models.Department, int, error) {
	departments, err := s.departments.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list departments", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.departments.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count departments", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}
	return departments, total, nil
}

func (s *CatalogService) CreateAnnouncement(ctx context.Context, title, description, authorID string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, models.NewValidationError("Announcement title and description are required")
	}

	announcementID, err := auth.GenerateExternalID()
	if err != nil {
		return nil, models.ErrInternalServer
	}

	created, err := s.announcements.Create(ctx, &models.Announcement{
		AnnouncementID: announcementID,
		Title:          title,
		Description:    description,
		AdminID:        authorID,
	})
	if err != nil {
		s.logger.Error("failed to create announcement", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return created, nil
}

func (s *CatalogService) UpdateAnnouncement(ctx context.Context, announcementID, title, description string) (*models.Announcement, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, models.NewValidationError("Announcement title and description are required")
	}

	updated, err := s.announcements.Update(ctx, announcementID, title, description)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update announcement", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return updated, nil
}

func (s *CatalogService) DeleteAnnouncement(ctx context.Context, announcementID string) error {
	if err := s.announcements.Delete(ctx, announcementID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete announcement", slog.Any("error", err))
		return models.ErrInternalServer
	}
	return nil
}

func (s *CatalogService) ListAnnouncements(ctx context.Context, limit, offset int, search string) ([]*models.Announcement, int, error) {
	announcements, err := s.announcements.List(ctx, limit, offset, search)
	if err != nil {
		s.logger.Error("failed to list announcements", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.announcements.CountFiltered(ctx, search)
	if err != nil {
		s.logger.Error("failed to count announcements", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}
	return announcements, total, nil
}
