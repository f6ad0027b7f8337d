package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
)

type ApplicationRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewApplicationRepository(db *database.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db, pool: db.Pool}
}

// CreateWithForms inserts the application and all its form rows in a single
// transaction; either everything lands or nothing does.
func (r *ApplicationRepository) CreateWithForms(ctx context.Context, app *models.Application, forms []*models.ApplicationForm) error {
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO applications (application_id, student_id, scholarship_id, status, applied_at)
			VALUES ($1, $2, $3, $4, $5)`,
			app.ApplicationID, app.StudentID, app.ScholarshipID, app.Status, app.AppliedAt,
		)
		if err != nil {
			return err
		}

		for _, form := range forms {
			_, err := tx.Exec(ctx, `
				INSERT INTO application_forms (application_form_id, application_id, form_name, file_path, uploaded_at)
				VALUES ($1, $2, $3, $4, $5)`,
				form.FormID, form.ApplicationID, form.FormName, form.FilePath, form.UploadedAt,
			)
			if err != nil {
				return err
			}
		}

		return nil
	})

	return database.MapPostgresError(err)
}

// HasBlocking reports whether the student already has a pending or approved
// application on any scholarship. One active application at a time; declined
// applications do not block.
func (r *ApplicationRepository) HasBlocking(ctx context.Context, studentID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM applications
			WHERE student_id = $1 AND status IN ('pending', 'approved')
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, studentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return exists, nil
}

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*models.Application, error) {
	query := `
		SELECT id, application_id, student_id, scholarship_id, status, applied_at
		FROM applications WHERE application_id = $1`

	var a models.Application
	err := r.pool.QueryRow(ctx, query, applicationID).Scan(
		&a.ID, &a.ApplicationID, &a.StudentID, &a.ScholarshipID, &a.Status, &a.AppliedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, applicationID, status string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE applications SET status = $1 WHERE application_id = $2`, status, applicationID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ListByStudent returns a student's applications newest first, with the
// scholarship title joined in.
func (r *ApplicationRepository) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*models.Application, error) {
	query := `
		SELECT a.id, a.application_id, a.student_id, a.scholarship_id, a.status, a.applied_at,
			s.scholarship_title
		FROM applications a
		JOIN scholarships s ON s.scholarship_id = a.scholarship_id
		WHERE a.student_id = $1
		ORDER BY a.applied_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, studentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		var a models.Application
		err := rows.Scan(&a.ID, &a.ApplicationID, &a.StudentID, &a.ScholarshipID, &a.Status,
			&a.AppliedAt, &a.ScholarshipTitle)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return apps, nil
}

func (r *ApplicationRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE student_id = $1`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

// ListAll returns applications for staff review, pending first. An empty
// status includes every status.
func (r *ApplicationRepository) ListAll(ctx context.Context, limit, offset int, search, status string) ([]*models.Application, error) {
	query := `
		SELECT a.id, a.application_id, a.student_id, a.scholarship_id, a.status, a.applied_at,
			s.scholarship_title, st.first_name, st.last_name, st.student_number, st.course, st.email
		FROM applications a
		JOIN scholarships s ON s.scholarship_id = a.scholarship_id
		JOIN students st ON st.user_id = a.student_id
		WHERE ($1 = '' OR st.first_name ILIKE '%' || $1 || '%' OR st.last_name ILIKE '%' || $1 || '%'
			OR st.student_number ILIKE '%' || $1 || '%' OR s.scholarship_title ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR a.status = $2)
		ORDER BY
			CASE a.status WHEN 'pending' THEN 1 WHEN 'approved' THEN 2 ELSE 3 END,
			a.applied_at DESC
		LIMIT $3 OFFSET $4`

	rows, err := r.pool.Query(ctx, query, search, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		var a models.Application
		err := rows.Scan(&a.ID, &a.ApplicationID, &a.StudentID, &a.ScholarshipID, &a.Status, &a.AppliedAt,
			&a.ScholarshipTitle, &a.StudentFirstName, &a.StudentLastName, &a.StudentNumber,
			&a.StudentCourse, &a.StudentEmail)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return apps, nil
}

func (r *ApplicationRepository) CountAll(ctx context.Context, search, status string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM applications a
		JOIN scholarships s ON s.scholarship_id = a.scholarship_id
		JOIN students st ON st.user_id = a.student_id
		WHERE ($1 = '' OR st.first_name ILIKE '%' || $1 || '%' OR st.last_name ILIKE '%' || $1 || '%'
			OR st.student_number ILIKE '%' || $1 || '%' OR s.scholarship_title ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR a.status = $2)`

	var count int
	if err := r.pool.QueryRow(ctx, query, search, status).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count applications: %w", err)
	}
	return count, nil
}

// Forms returns the uploaded document rows for one application.
func (r *ApplicationRepository) Forms(ctx context.Context, applicationID string) ([]*models.ApplicationForm, error) {
	query := `
		SELECT id, application_form_id, application_id, form_name, file_path, uploaded_at
		FROM application_forms
		WHERE application_id = $1
		ORDER BY form_name`

	rows, err := r.pool.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query application forms: %w", err)
	}
	defer rows.Close()

	forms := make([]*models.ApplicationForm, 0)
	for rows.Next() {
		var f models.ApplicationForm
		if err := rows.Scan(&f.ID, &f.FormID, &f.ApplicationID, &f.FormName, &f.FilePath, &f.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan application form: %w", err)
		}
		forms = append(forms, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return forms, nil
}

// CountsByStatus returns application totals grouped by status.
func (r *ApplicationRepository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}

// MonthlyCounts returns application counts per calendar month of a year,
// always twelve entries.
func (r *ApplicationRepository) MonthlyCounts(ctx context.Context, year int) ([]int, error) {
	query := `
		SELECT EXTRACT(MONTH FROM applied_at)::int AS month, COUNT(*)
		FROM applications
		WHERE EXTRACT(YEAR FROM applied_at) = $1
		GROUP BY month`

	rows, err := r.pool.Query(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly counts: %w", err)
	}
	defer rows.Close()

	counts := make([]int, 12)
	for rows.Next() {
		var month, count int
		if err := rows.Scan(&month, &count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly count: %w", err)
		}
		if month >= 1 && month <= 12 {
			counts[month-1] = count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return counts, nil
}
