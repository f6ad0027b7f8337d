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

// ScholarshipFormRepository manages required-document templates.
type ScholarshipFormRepository struct {
	pool *pgxpool.Pool
}

func NewScholarshipFormRepository(db *database.DB) *ScholarshipFormRepository {
	return &ScholarshipFormRepository{pool: db.Pool}
}

const scholarshipFormColumns = `id, scholarship_form_id, scholarship_form_name, file_path, created_at, updated_at`

func scanScholarshipFormRow(scanner rowScanner) (*models.ScholarshipForm, error) {
	var f models.ScholarshipForm
	err := scanner.Scan(&f.ID, &f.FormID, &f.Name, &f.FilePath, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &f, nil
}

func scanScholarshipFormRows(rows pgx.Rows) ([]*models.ScholarshipForm, error) {
	defer rows.Close()

	forms := make([]*models.ScholarshipForm, 0)
	for rows.Next() {
		form, err := scanScholarshipFormRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scholarship form: %w", err)
		}
		forms = append(forms, form)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return forms, nil
}

func (r *ScholarshipFormRepository) Create(ctx context.Context, form *models.ScholarshipForm) (*models.ScholarshipForm, error) {
	now := time.Now()
	form.CreatedAt = now
	form.UpdatedAt = now

	query := `
		INSERT INTO scholarship_forms (scholarship_form_id, scholarship_form_name, file_path, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + scholarshipFormColumns

	return scanScholarshipFormRow(r.pool.QueryRow(ctx, query,
		form.FormID, form.Name, form.FilePath, form.CreatedAt, form.UpdatedAt,
	))
}

func (r *ScholarshipFormRepository) GetByFormID(ctx context.Context, formID string) (*models.ScholarshipForm, error) {
	query := `SELECT ` + scholarshipFormColumns + ` FROM scholarship_forms WHERE scholarship_form_id = $1`
	return scanScholarshipFormRow(r.pool.QueryRow(ctx, query, formID))
}

func (r *ScholarshipFormRepository) GetByName(ctx context.Context, name string) (*models.ScholarshipForm, error) {
	query := `SELECT ` + scholarshipFormColumns + ` FROM scholarship_forms WHERE LOWER(scholarship_form_name) = LOWER($1)`
	return scanScholarshipFormRow(r.pool.QueryRow(ctx, query, name))
}

// GetByInternalIDs resolves form template ids for association validation.
func (r *ScholarshipFormRepository) GetByFormIDs(ctx context.Context, formIDs []string) ([]*models.ScholarshipForm, error) {
	query := `SELECT ` + scholarshipFormColumns + ` FROM scholarship_forms WHERE scholarship_form_id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, formIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarship forms: %w", err)
	}
	return scanScholarshipFormRows(rows)
}

func (r *ScholarshipFormRepository) Update(ctx context.Context, formID string, name, filePath *string) (*models.ScholarshipForm, error) {
	query := `
		UPDATE scholarship_forms SET
			scholarship_form_name = COALESCE($1, scholarship_form_name),
			file_path = COALESCE($2, file_path),
			updated_at = NOW()
		WHERE scholarship_form_id = $3
		RETURNING ` + scholarshipFormColumns

	return scanScholarshipFormRow(r.pool.QueryRow(ctx, query, name, filePath, formID))
}

func (r *ScholarshipFormRepository) Delete(ctx context.Context, formID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM scholarship_forms WHERE scholarship_form_id = $1`, formID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *ScholarshipFormRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.ScholarshipForm, error) {
	query := `
		SELECT ` + scholarshipFormColumns + `
		FROM scholarship_forms
		WHERE ($1 = '' OR scholarship_form_name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarship forms: %w", err)
	}
	return scanScholarshipFormRows(rows)
}

func (r *ScholarshipFormRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM scholarship_forms WHERE ($1 = '' OR scholarship_form_name ILIKE '%' || $1 || '%')`

	var count int
	if err := r.pool.QueryRow(ctx, query, search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scholarship forms: %w", err)
	}
	return count, nil
}
