package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	internalauth "github.com/rmagsino/iskolar/internal/auth"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
	"github.com/rmagsino/iskolar/internal/repositories"
	pkgauth "github.com/rmagsino/iskolar/pkg/auth"
)

// TestDB manages the PostgreSQL testcontainer and database handles.
type TestDB struct {
	Container  testcontainers.Container
	ConnString string
	Pool       *pgxpool.Pool
	DB         *database.DB
}

// SetupTestDatabase starts a PostgreSQL container and runs the goose
// migrations against it.
func SetupTestDatabase(ctx context.Context) (*TestDB, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("iskolar"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &TestDB{
		Container:  container,
		ConnString: connStr,
		Pool:       pool,
		DB:         &database.DB{Pool: pool},
	}, nil
}

// runMigrations executes all goose migrations through the pgx stdlib adapter.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir, err := filepath.Abs("../../migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations path: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Teardown stops the container and closes the connection pool.
func (db *TestDB) Teardown(ctx context.Context) error {
	if db.Pool != nil {
		db.Pool.Close()
	}
	if db.Container != nil {
		return db.Container.Terminate(ctx)
	}
	return nil
}

// CleanupTables truncates all tables for test isolation.
func (db *TestDB) CleanupTables(ctx context.Context) error {
	tables := []string{
		"rate_limits",
		"announcements",
		"application_forms",
		"applications",
		"scholarship_form_links",
		"scholarship_courses",
		"scholarship_forms",
		"scholarships",
		"departments",
		"courses",
		"admins",
		"students",
	}

	for _, table := range tables {
		if _, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return nil
}

// SeedStudent inserts a student with fresh credentials and all four baseline
// documents on file.
func SeedStudent(ctx context.Context, db *database.DB, studentNumber, email, password string) (*models.Student, error) {
	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := internalauth.GenerateExternalID()
	if err != nil {
		return nil, err
	}
	apiKey, err := internalauth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	picture := "profiles/" + userID + "/picture.png"
	schoolID := "profiles/" + userID + "/school_id.png"
	indigency := "profiles/" + userID + "/indigency.pdf"
	registration := "profiles/" + userID + "/cor.pdf"

	student := &models.Student{
		UserID:           userID,
		APIKey:           apiKey,
		FirstName:        "Juan",
		LastName:         "Dela Cruz",
		StudentNumber:    studentNumber,
		Email:            email,
		PhoneNumber:      "09171234567",
		Course:           "BSIT",
		YearLevel:        "3rd Year",
		CompleteAddress:  "123 Sample St, Quezon City",
		PasswordHash:     passwordHash,
		Picture:          &picture,
		SchoolID:         &schoolID,
		IndigencyCert:    &indigency,
		RegistrationCert: &registration,
	}

	repo := repositories.NewStudentRepository(db)
	return repo.Create(ctx, student)
}

// SeedApprovedAdmin inserts an approved staff account.
func SeedApprovedAdmin(ctx context.Context, db *database.DB, email string) (*models.Admin, error) {
	userID, err := internalauth.GenerateExternalID()
	if err != nil {
		return nil, err
	}
	apiKey, err := internalauth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	passwordHash, err := pkgauth.HashPassword("placeholder1pw")
	if err != nil {
		return nil, err
	}

	admin := &models.Admin{
		UserID:       userID,
		APIKey:       apiKey,
		FirstName:    "Maria",
		LastName:     "Santos",
		Department:   "Student Affairs",
		Email:        email,
		PasswordHash: passwordHash,
		Status:       models.StaffStatusApproved,
	}

	repo := repositories.NewAdminRepository(db)
	return repo.Create(ctx, admin)
}

// SeedCourse inserts a course row.
func SeedCourse(ctx context.Context, db *database.DB, code, name string) (*models.Course, error) {
	courseID, err := internalauth.GenerateExternalID()
	if err != nil {
		return nil, err
	}

	repo := repositories.NewCourseRepository(db)
	return repo.Create(ctx, &models.Course{
		CourseID: courseID,
		Code:     code,
		Name:     name,
	})
}

// SeedScholarship inserts an active scholarship with an open application
// window, one required form, and no course restrictions.
func SeedScholarship(ctx context.Context, db *database.DB, title string) (*models.Scholarship, *models.ScholarshipForm, error) {
	formRepo := repositories.NewScholarshipFormRepository(db)
	formID, err := internalauth.GenerateExternalID()
	if err != nil {
		return nil, nil, err
	}
	form, err := formRepo.Create(ctx, &models.ScholarshipForm{
		FormID:   formID,
		Name:     "Application Form " + formID[:8],
		FilePath: "scholarship_forms/application_form.pdf",
	})
	if err != nil {
		return nil, nil, err
	}

	scholarshipID, err := internalauth.GenerateExternalID()
	if err != nil {
		return nil, nil, err
	}

	repo := repositories.NewScholarshipRepository(db)
	scholarship, err := repo.CreateWithAssociations(ctx, &models.Scholarship{
		ScholarshipID: scholarshipID,
		Title:         title,
		Description:   "Seeded for integration tests",
		Status:        models.ScholarshipStatusActive,
		StartDate:     time.Now().AddDate(0, 0, -7),
		EndDate:       time.Now().AddDate(0, 0, 7),
	}, nil, []int64{form.ID})
	if err != nil {
		return nil, nil, err
	}

	return scholarship, form, nil
}
