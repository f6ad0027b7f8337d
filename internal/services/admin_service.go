package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/repositories"
	pkglogger "github.com/rmagsino/iskolar/pkg/logger"
)

// AdminAccountRepository covers staff account management and profiles.
type AdminAccountRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Admin, error)
	UpdateStatus(ctx context.Context, userID, status string) error
	UpdateProfile(ctx context.Context, userID string, params repositories.UpdateAdminProfileParams) (*models.Admin, error)
	List(ctx context.Context, limit, offset int, search, status string) ([]*models.Admin, error)
	CountFiltered(ctx context.Context, search, status string) (int, error)
	Delete(ctx context.Context, userID string) error
}

// ApplicationStats feeds the dashboard charts.
type ApplicationStats interface {
	CountsByStatus(ctx context.Context) (map[string]int, error)
	MonthlyCounts(ctx context.Context, year int) ([]int, error)
}

// RowCounter is a repository that can report its total row count.
type RowCounter interface {
	Count(ctx context.Context) (int, error)
}

// SearchCounter counts rows matching a search filter.
type SearchCounter interface {
	CountFiltered(ctx context.Context, search string) (int, error)
}

// AdminService owns staff account administration and the dashboard.
type AdminService struct {
	admins       AdminAccountRepository
	applications ApplicationStats
	students     RowCounter
	scholarships SearchCounter
	courses      SearchCounter
	auditLogger  *pkglogger.AuditLogger
	logger       *slog.Logger
}

func NewAdminService(
	admins AdminAccountRepository,
	applications ApplicationStats,
	students RowCounter,
	scholarships SearchCounter,
	courses SearchCounter,
	auditLogger *pkglogger.AuditLogger,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		admins:       admins,
		applications: applications,
		students:     students,
		scholarships: scholarships,
		courses:      courses,
		auditLogger:  auditLogger,
		logger:       logger,
	}
}

// ListAccounts returns staff accounts, pending approvals first.
func (s *AdminService) ListAccounts(ctx context.Context, limit, offset int, search, status string) ([]*models.AdminProfile, int, error) {
	if status != "" && !models.IsValidStaffStatus(status) {
		return nil, 0, models.NewValidationError("Status must be pending, approved or declined")
	}

	admins, err := s.admins.List(ctx, limit, offset, search, status)
	if err != nil {
		s.logger.Error("failed to list staff accounts", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.admins.CountFiltered(ctx, search, status)
	if err != nil {
		s.logger.Error("failed to count staff accounts", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	profiles := make([]*models.AdminProfile, 0, len(admins))
	for _, a := range admins {
		profiles = append(profiles, a.Profile())
	}
	return profiles, total, nil
}

// UpdateAccountStatus approves or declines a staff account. Staff cannot
// change their own status.
func (s *AdminService) UpdateAccountStatus(ctx context.Context, userID, status, actorID string) (*models.AdminProfile, error) {
	if !models.IsValidStaffStatus(status) {
		return nil, models.NewValidationError("Status must be pending, approved or declined")
	}
	if userID == actorID {
		return nil, models.NewValidationError("You cannot change your own account status")
	}

	if err := s.admins.UpdateStatus(ctx, userID, status); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update staff status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("staff_status_changed", userID, actorID, map[string]string{
		"status": status,
	})

	admin, err := s.admins.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("staff lookup failed after update", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return admin.Profile(), nil
}

// DeleteAccount removes a staff account. Staff cannot delete themselves.
func (s *AdminService) DeleteAccount(ctx context.Context, userID, actorID string) error {
	if userID == actorID {
		return models.NewValidationError("You cannot delete your own account")
	}

	if err := s.admins.Delete(ctx, userID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete staff account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("staff_deleted", userID, actorID, nil)
	return nil
}

func (s *AdminService) GetProfile(ctx context.Context, userID string) (*models.AdminProfile, error) {
	admin, err := s.admins.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("staff lookup failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return admin.Profile(), nil
}

// AdminProfileUpdate carries the fields staff may change on their own
// profile. Nil fields are left untouched.
type AdminProfileUpdate struct {
	FirstName  *string
	LastName   *string
	Department *string
}

func (s *AdminService) UpdateProfile(ctx context.Context, userID string, update AdminProfileUpdate) (*models.AdminProfile, error) {
	params := repositories.UpdateAdminProfileParams{}

	if update.FirstName != nil {
		v := capitalizeWords(strings.TrimSpace(*update.FirstName))
		if v == "" {
			return nil, models.NewValidationError("First name cannot be empty")
		}
		params.FirstName = &v
	}
	if update.LastName != nil {
		v := capitalizeWords(strings.TrimSpace(*update.LastName))
		if v == "" {
			return nil, models.NewValidationError("Last name cannot be empty")
		}
		params.LastName = &v
	}
	if update.Department != nil {
		v := strings.TrimSpace(*update.Department)
		if v == "" {
			return nil, models.NewValidationError("Department cannot be empty")
		}
		params.Department = &v
	}

	admin, err := s.admins.UpdateProfile(ctx, userID, params)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update staff profile", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return admin.Profile(), nil
}

// DashboardStats is the aggregate view behind the staff dashboard.
type DashboardStats struct {
	Year                 int            `json:"year"`
	TotalStudents        int            `json:"total_students"`
	TotalScholarships    int            `json:"total_scholarships"`
	TotalCourses         int            `json:"total_courses"`
	ApplicationsByStatus map[string]int `json:"applications_by_status"`
	MonthlyApplications  []int          `json:"monthly_applications"`
}

// Dashboard aggregates the counts shown on the staff landing page.
func (s *AdminService) Dashboard(ctx context.Context, year int) (*DashboardStats, error) {
	students, err := s.students.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count students", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	scholarships, err := s.scholarships.CountFiltered(ctx, "")
	if err != nil {
		s.logger.Error("failed to count scholarships", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	courses, err := s.courses.CountFiltered(ctx, "")
	if err != nil {
		s.logger.Error("failed to count courses", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	byStatus, err := s.applications.CountsByStatus(ctx)
	if err != nil {
		s.logger.Error("failed to count applications by status", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	for _, status := range models.ApplicationStatuses {
		if _, ok := byStatus[status]; !ok {
			byStatus[status] = 0
		}
	}

	monthly, err := s.applications.MonthlyCounts(ctx, year)
	if err != nil {
		s.logger.Error("failed to count monthly applications", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &DashboardStats{
		Year:                 year,
		TotalStudents:        students,
		TotalScholarships:    scholarships,
		TotalCourses:         courses,
		ApplicationsByStatus: byStatus,
		MonthlyApplications:  monthly,
	}, nil
}
