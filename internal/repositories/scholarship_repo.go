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

type ScholarshipRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewScholarshipRepository(db *database.DB) *ScholarshipRepository {
	return &ScholarshipRepository{db: db, pool: db.Pool}
}

const scholarshipColumns = `id, scholarship_id, scholarship_title, description, amount, status,
	start_date, end_date, created_at, updated_at`

func scanScholarshipRow(scanner rowScanner) (*models.Scholarship, error) {
	var s models.Scholarship
	err := scanner.Scan(
		&s.ID, &s.ScholarshipID, &s.Title, &s.Description, &s.Amount, &s.Status,
		&s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &s, nil
}

func scanScholarshipRows(rows pgx.Rows) ([]*models.Scholarship, error) {
	defer rows.Close()

	scholarships := make([]*models.Scholarship, 0)
	for rows.Next() {
		s, err := scanScholarshipRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scholarship: %w", err)
		}
		scholarships = append(scholarships, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return scholarships, nil
}

// CreateWithAssociations inserts the scholarship and its course and form
// associations in one transaction.
func (r *ScholarshipRepository) CreateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error) {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	var created *models.Scholarship
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO scholarships (scholarship_id, scholarship_title, description, amount, status,
				start_date, end_date, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING ` + scholarshipColumns

		var err error
		created, err = scanScholarshipRow(tx.QueryRow(ctx, query,
			s.ScholarshipID, s.Title, s.Description, s.Amount, s.Status,
			s.StartDate, s.EndDate, s.CreatedAt, s.UpdatedAt,
		))
		if err != nil {
			return err
		}

		return insertAssociations(ctx, tx, created.ScholarshipID, courseIDs, formIDs)
	})
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return created, nil
}

// UpdateWithAssociations updates the scholarship row and replaces both
// association sets in one transaction.
func (r *ScholarshipRepository) UpdateWithAssociations(ctx context.Context, s *models.Scholarship, courseIDs, formIDs []int64) (*models.Scholarship, error) {
	var updated *models.Scholarship
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			UPDATE scholarships SET scholarship_title = $1, description = $2, amount = $3, status = $4,
				start_date = $5, end_date = $6, updated_at = NOW()
			WHERE scholarship_id = $7
			RETURNING ` + scholarshipColumns

		var err error
		updated, err = scanScholarshipRow(tx.QueryRow(ctx, query,
			s.Title, s.Description, s.Amount, s.Status, s.StartDate, s.EndDate, s.ScholarshipID,
		))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_courses WHERE scholarship_id = $1`, s.ScholarshipID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_form_links WHERE scholarship_id = $1`, s.ScholarshipID); err != nil {
			return err
		}

		return insertAssociations(ctx, tx, s.ScholarshipID, courseIDs, formIDs)
	})
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return updated, nil
}

func insertAssociations(ctx context.Context, tx pgx.Tx, scholarshipID string, courseIDs, formIDs []int64) error {
	for _, courseID := range courseIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO scholarship_courses (scholarship_id, course_id, created_at) VALUES ($1, $2, NOW())`,
			scholarshipID, courseID,
		)
		if err != nil {
			return err
		}
	}

	for _, formID := range formIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO scholarship_form_links (scholarship_id, scholarship_form_id, created_at) VALUES ($1, $2, NOW())`,
			scholarshipID, formID,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *ScholarshipRepository) GetByScholarshipID(ctx context.Context, scholarshipID string) (*models.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE scholarship_id = $1`
	return scanScholarshipRow(r.pool.QueryRow(ctx, query, scholarshipID))
}

func (r *ScholarshipRepository) GetByTitle(ctx context.Context, title string) (*models.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE scholarship_title = $1`
	return scanScholarshipRow(r.pool.QueryRow(ctx, query, title))
}

func (r *ScholarshipRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.Scholarship, error) {
	query := `
		SELECT ` + scholarshipColumns + `
		FROM scholarships
		WHERE ($1 = '' OR scholarship_title ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarships: %w", err)
	}
	return scanScholarshipRows(rows)
}

func (r *ScholarshipRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM scholarships WHERE ($1 = '' OR scholarship_title ILIKE '%' || $1 || '%')`

	var count int
	if err := r.pool.QueryRow(ctx, query, search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count scholarships: %w", err)
	}
	return count, nil
}

func (r *ScholarshipRepository) Count(ctx context.Context) (int, error) {
	return r.CountFiltered(ctx, "")
}

// Delete removes the scholarship and its associations.
func (r *ScholarshipRepository) Delete(ctx context.Context, scholarshipID string) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_courses WHERE scholarship_id = $1`, scholarshipID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_form_links WHERE scholarship_id = $1`, scholarshipID); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, `DELETE FROM scholarships WHERE scholarship_id = $1`, scholarshipID)
		if err != nil {
			return err
		}
		if result.RowsAffected() == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// CourseCodes returns the associated course codes, without the ALL sentinel;
// the service layer applies it.
func (r *ScholarshipRepository) CourseCodes(ctx context.Context, scholarshipID string) ([]string, error) {
	query := `
		SELECT c.course_code
		FROM scholarship_courses sc
		JOIN courses c ON c.id = sc.course_id
		WHERE sc.scholarship_id = $1
		ORDER BY c.course_code`

	rows, err := r.pool.Query(ctx, query, scholarshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarship courses: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan course code: %w", err)
		}
		codes = append(codes, code)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return codes, nil
}

// Forms returns the required form templates linked to a scholarship.
func (r *ScholarshipRepository) Forms(ctx context.Context, scholarshipID string) ([]*models.ScholarshipForm, error) {
	query := `
		SELECT f.id, f.scholarship_form_id, f.scholarship_form_name, f.file_path, f.created_at, f.updated_at
		FROM scholarship_form_links l
		JOIN scholarship_forms f ON f.id = l.scholarship_form_id
		WHERE l.scholarship_id = $1
		ORDER BY f.scholarship_form_name`

	rows, err := r.pool.Query(ctx, query, scholarshipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarship forms: %w", err)
	}
	defer rows.Close()

	forms := make([]*models.ScholarshipForm, 0)
	for rows.Next() {
		var f models.ScholarshipForm
		if err := rows.Scan(&f.ID, &f.FormID, &f.Name, &f.FilePath, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scholarship form: %w", err)
		}
		forms = append(forms, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return forms, nil
}
