package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
)

type StudentRepository struct {
	pool *pgxpool.Pool
}

func NewStudentRepository(db *database.DB) *StudentRepository {
	return &StudentRepository{pool: db.Pool}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

const studentColumns = `id, user_id, api_key, csrf_token, first_name, middle_name, last_name,
	student_number, email, phone_number, course, year_level, complete_address, password_hash,
	picture, school_id, certificate_of_indigency, certificate_of_registration,
	login_attempts, last_login_attempt, reset_token, reset_token_expires, created_at, updated_at`

func scanStudentRow(scanner rowScanner) (*models.Student, error) {
	var s models.Student

	err := scanner.Scan(
		&s.ID, &s.UserID, &s.APIKey, &s.CSRFToken, &s.FirstName, &s.MiddleName, &s.LastName,
		&s.StudentNumber, &s.Email, &s.PhoneNumber, &s.Course, &s.YearLevel, &s.CompleteAddress,
		&s.PasswordHash, &s.Picture, &s.SchoolID, &s.IndigencyCert, &s.RegistrationCert,
		&s.LoginAttempts, &s.LastLoginAttempt, &s.ResetToken, &s.ResetTokenExpiry,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &s, nil
}

func (r *StudentRepository) Create(ctx context.Context, student *models.Student) (*models.Student, error) {
	now := time.Now()
	student.CreatedAt = now
	student.UpdatedAt = now

	query := `
		INSERT INTO students (user_id, api_key, first_name, middle_name, last_name, student_number,
			email, phone_number, course, year_level, complete_address, password_hash,
			picture, school_id, certificate_of_indigency, certificate_of_registration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING ` + studentColumns

	created, err := scanStudentRow(r.pool.QueryRow(ctx, query,
		student.UserID, student.APIKey, student.FirstName, student.MiddleName, student.LastName,
		student.StudentNumber, student.Email, student.PhoneNumber, student.Course, student.YearLevel,
		student.CompleteAddress, student.PasswordHash,
		student.Picture, student.SchoolID, student.IndigencyCert, student.RegistrationCert,
		student.CreatedAt, student.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *StudentRepository) GetByStudentNumber(ctx context.Context, studentNumber string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_number = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, studentNumber))
}

func (r *StudentRepository) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, email))
}

func (r *StudentRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE api_key = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, apiKey))
}

func (r *StudentRepository) GetByUserID(ctx context.Context, userID string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE user_id = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, userID))
}

// UpdateProfileParams holds the whitelisted profile fields a student may change.
type UpdateProfileParams struct {
	FirstName       *string
	MiddleName      *string
	LastName        *string
	PhoneNumber     *string
	Course          *string
	YearLevel       *string
	CompleteAddress *string
}

func (r *StudentRepository) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*models.Student, error) {
	query := `
		UPDATE students SET
			first_name = COALESCE($1, first_name),
			middle_name = COALESCE($2, middle_name),
			last_name = COALESCE($3, last_name),
			phone_number = COALESCE($4, phone_number),
			course = COALESCE($5, course),
			year_level = COALESCE($6, year_level),
			complete_address = COALESCE($7, complete_address),
			updated_at = NOW()
		WHERE user_id = $8
		RETURNING ` + studentColumns

	return scanStudentRow(r.pool.QueryRow(ctx, query,
		params.FirstName, params.MiddleName, params.LastName, params.PhoneNumber,
		params.Course, params.YearLevel, params.CompleteAddress, userID,
	))
}

// IncrementLoginAttempts bumps the failure counter and stamps the attempt time.
func (r *StudentRepository) IncrementLoginAttempts(ctx context.Context, id int64) error {
	query := `UPDATE students SET login_attempts = login_attempts + 1, last_login_attempt = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) ResetLoginAttempts(ctx context.Context, id int64) error {
	query := `UPDATE students SET login_attempts = 0, last_login_attempt = NULL WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateCSRFToken overwrites the account's single CSRF token slot.
func (r *StudentRepository) UpdateCSRFToken(ctx context.Context, userID, token string) error {
	query := `UPDATE students SET csrf_token = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.pool.Exec(ctx, query, token, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) SaveResetToken(ctx context.Context, id int64, token string, expires time.Time) error {
	query := `UPDATE students SET reset_token = $1, reset_token_expires = $2, updated_at = NOW() WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, token, expires, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) GetByResetToken(ctx context.Context, token string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE reset_token = $1`
	return scanStudentRow(r.pool.QueryRow(ctx, query, token))
}

// UpdatePassword replaces the password hash and clears any reset token.
func (r *StudentRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE students SET password_hash = $1, reset_token = NULL, reset_token_expires = NULL, updated_at = NOW()
		WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *StudentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count students: %w", err)
	}
	return count, nil
}
