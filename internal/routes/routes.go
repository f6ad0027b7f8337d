package routes

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/rmagsino/iskolar/internal/handlers"
	"github.com/rmagsino/iskolar/internal/middleware"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	studentHandler *handlers.StudentHandler,
	adminHandler *handlers.AdminHandler,
	scholarshipHandler *handlers.ScholarshipHandler,
	applicationHandler *handlers.ApplicationReviewHandler,
	catalogHandler *handlers.CatalogHandler,
	limiter middleware.RateLimiter,
	studentSessions middleware.StudentResolver,
	adminSessions middleware.AdminResolver,
	logger *slog.Logger,
) {
	// Public auth endpoints carry no API key, so they get per-IP limits.
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/reset-password", authHandler.ResetPassword)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/staff/google", authHandler.StaffSignIn)

	// Student routes - API key + CSRF token required
	router.Group(func(r chi.Router) {
		r.Use(middleware.StudentGate(limiter, studentSessions, logger))

		r.Get("/student/profile", studentHandler.GetProfile)
		r.Put("/student/profile", studentHandler.UpdateProfile)
		r.Get("/student/courses", studentHandler.ListCourses)
		r.Get("/student/scholarships", studentHandler.ListScholarships)
		r.Post("/student/applications", studentHandler.Apply)
		r.Get("/student/applications", studentHandler.ListApplications)
		r.Get("/student/announcements", studentHandler.ListAnnouncements)
	})

	// Staff routes - approved staff accounts only
	router.Group(func(r chi.Router) {
		r.Use(middleware.StaffGate(limiter, adminSessions, logger))

		r.Get("/admin/dashboard", adminHandler.Dashboard)
		r.Get("/admin/profile", adminHandler.GetProfile)
		r.Put("/admin/profile", adminHandler.UpdateProfile)

		r.Get("/admin/accounts", adminHandler.ListAccounts)
		r.Put("/admin/accounts/{userID}/status", adminHandler.UpdateAccountStatus)
		r.Delete("/admin/accounts/{userID}", adminHandler.DeleteAccount)

		r.Get("/admin/scholarships", scholarshipHandler.List)
		r.Post("/admin/scholarships", scholarshipHandler.Create)
		r.Put("/admin/scholarships/{scholarshipID}", scholarshipHandler.Update)
		r.Delete("/admin/scholarships/{scholarshipID}", scholarshipHandler.Delete)

		r.Get("/admin/forms", scholarshipHandler.ListForms)
		r.Post("/admin/forms", scholarshipHandler.CreateForm)
		r.Put("/admin/forms/{formID}", scholarshipHandler.UpdateForm)
		r.Delete("/admin/forms/{formID}", scholarshipHandler.DeleteForm)

		r.Get("/admin/applications", applicationHandler.List)
		r.Put("/admin/applications/{applicationID}/status", applicationHandler.Review)

		r.Get("/admin/courses", catalogHandler.ListCourses)
		r.Post("/admin/courses", catalogHandler.CreateCourse)
		r.Put("/admin/courses/{courseID}", catalogHandler.UpdateCourse)
		r.Delete("/admin/courses/{courseID}", catalogHandler.DeleteCourse)

		r.Get("/admin/departments", catalogHandler.ListDepartments)
		r.Post("/admin/departments", catalogHandler.CreateDepartment)
		r.Put("/admin/departments/{departmentID}", catalogHandler.UpdateDepartment)
		r.Delete("/admin/departments/{departmentID}", catalogHandler.DeleteDepartment)

		r.Get("/admin/announcements", catalogHandler.ListAnnouncements)
		r.Post("/admin/announcements", catalogHandler.CreateAnnouncement)
		r.Put("/admin/announcements/{announcementID}", catalogHandler.UpdateAnnouncement)
		r.Delete("/admin/announcements/{announcementID}", catalogHandler.DeleteAnnouncement)
	})
}
