package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
)

type AdminRepository struct {
	pool *pgxpool.Pool
}

func NewAdminRepository(db *database.DB) *AdminRepository {
	return &AdminRepository{pool: db.Pool}
}

const adminColumns = `id, user_id, api_key, csrf_token, first_name, last_name, department,
	email, password_hash, google_id, status, created_at, updated_at`

func scanAdminRow(scanner rowScanner) (*models.Admin, error) {
	var a models.Admin

	err := scanner.Scan(
		&a.ID, &a.UserID, &a.APIKey, &a.CSRFToken, &a.FirstName, &a.LastName, &a.Department,
		&a.Email, &a.PasswordHash, &a.GoogleID, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &a, nil
}

func scanAdminRows(rows pgx.Rows) ([]*models.Admin, error) {
	defer rows.Close()

	admins := make([]*models.Admin, 0)

	for rows.Next() {
		admin, err := scanAdminRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, admin)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return admins, nil
}

func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) (*models.Admin, error) {
	now := time.Now()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	if admin.Status == "" {
		admin.Status = models.StaffStatusPending
	}

	query := `
		INSERT INTO admins (user_id, api_key, first_name, last_name, department, email,
			password_hash, google_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + adminColumns

	return scanAdminRow(r.pool.QueryRow(ctx, query,
		admin.UserID, admin.APIKey, admin.FirstName, admin.LastName, admin.Department,
		admin.Email, admin.PasswordHash, admin.GoogleID, admin.Status,
		admin.CreatedAt, admin.UpdatedAt,
	))
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE email = $1`
	return scanAdminRow(r.pool.QueryRow(ctx, query, email))
}

func (r *AdminRepository) GetByAPIKey(ctx context.Context, apiKey string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE api_key = $1`
	return scanAdminRow(r.pool.QueryRow(ctx, query, apiKey))
}

func (r *AdminRepository) GetByUserID(ctx context.Context, userID string) (*models.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE user_id = $1`
	return scanAdminRow(r.pool.QueryRow(ctx, query, userID))
}

func (r *AdminRepository) UpdateCSRFToken(ctx context.Context, userID, token string) error {
	query := `UPDATE admins SET csrf_token = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.pool.Exec(ctx, query, token, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) UpdateGoogleID(ctx context.Context, id int64, googleID string) error {
	query := `UPDATE admins SET google_id = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, googleID, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *AdminRepository) UpdateStatus(ctx context.Context, userID, status string) error {
	query := `UPDATE admins SET status = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.pool.Exec(ctx, query, status, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateProfileParams for staff accounts.
type UpdateAdminProfileParams struct {
	FirstName  *string
	LastName   *string
	Department *string
}

func (r *AdminRepository) UpdateProfile(ctx context.Context, userID string, params UpdateAdminProfileParams) (*models.Admin, error) {
	query := `
		UPDATE admins SET
			first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			department = COALESCE($3, department),
			updated_at = NOW()
		WHERE user_id = $4
		RETURNING ` + adminColumns

	return scanAdminRow(r.pool.QueryRow(ctx, query,
		params.FirstName, params.LastName, params.Department, userID,
	))
}

// List returns staff accounts ordered pending first, then by recency.
// An empty status lists every account.
func (r *AdminRepository) List(ctx context.Context, limit, offset int, search, status string) ([]*models.Admin, error) {
	query := `
		SELECT ` + adminColumns + `
		FROM admins
		WHERE ($1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)
		ORDER BY
			CASE status WHEN 'pending' THEN 1 WHEN 'approved' THEN 2 ELSE 3 END,
			created_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, search, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query admins: %w", err)
	}

	return scanAdminRows(rows)
}

func (r *AdminRepository) CountFiltered(ctx context.Context, search, status string) (int, error) {
	query := `
		SELECT COUNT(*) FROM admins
		WHERE ($1 = '' OR first_name ILIKE '%' || $1 || '%' OR last_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR status = $2)`

	var count int
	if err := r.pool.QueryRow(ctx, query, search, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

func (r *AdminRepository) Delete(ctx context.Context, userID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM admins WHERE user_id = $1`, userID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
