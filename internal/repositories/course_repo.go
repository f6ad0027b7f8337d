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

type CourseRepository struct {
	pool *pgxpool.Pool
}

func NewCourseRepository(db *database.DB) *CourseRepository {
	return &CourseRepository{pool: db.Pool}
}

const courseColumns = `id, course_id, course_code, course_name, created_at, updated_at`

func scanCourseRow(scanner rowScanner) (*models.Course, error) {
	var c models.Course
	err := scanner.Scan(&c.ID, &c.CourseID, &c.Code, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &c, nil
}

func scanCourseRows(rows pgx.Rows) ([]*models.Course, error) {
	defer rows.Close()

	courses := make([]*models.Course, 0)
	for rows.Next() {
		course, err := scanCourseRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, course)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return courses, nil
}

func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	now := time.Now()
	course.CreatedAt = now
	course.UpdatedAt = now

	query := `
		INSERT INTO courses (course_id, course_code, course_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + courseColumns

	return scanCourseRow(r.pool.QueryRow(ctx, query,
		course.CourseID, course.Code, course.Name, course.CreatedAt, course.UpdatedAt,
	))
}

func (r *CourseRepository) GetByCourseID(ctx context.Context, courseID string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE course_id = $1`
	return scanCourseRow(r.pool.QueryRow(ctx, query, courseID))
}

func (r *CourseRepository) GetByCode(ctx context.Context, code string) (*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE UPPER(course_code) = UPPER($1)`
	return scanCourseRow(r.pool.QueryRow(ctx, query, code))
}

func (r *CourseRepository) Update(ctx context.Context, courseID, code, name string) (*models.Course, error) {
	query := `
		UPDATE courses SET course_code = $1, course_name = $2, updated_at = NOW()
		WHERE course_id = $3
		RETURNING ` + courseColumns

	return scanCourseRow(r.pool.QueryRow(ctx, query, code, name, courseID))
}

func (r *CourseRepository) Delete(ctx context.Context, courseID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM courses WHERE course_id = $1`, courseID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *CourseRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.Course, error) {
	query := `
		SELECT ` + courseColumns + `
		FROM courses
		WHERE ($1 = '' OR course_code ILIKE '%' || $1 || '%' OR course_name ILIKE '%' || $1 || '%')
		ORDER BY course_code
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return scanCourseRows(rows)
}

func (r *CourseRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	query := `
		SELECT COUNT(*) FROM courses
		WHERE ($1 = '' OR course_code ILIKE '%' || $1 || '%' OR course_name ILIKE '%' || $1 || '%')`

	var count int
	if err := r.pool.QueryRow(ctx, query, search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// All returns every course, for expanding the "all" association shorthand.
func (r *CourseRepository) All(ctx context.Context) ([]*models.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses ORDER BY course_code`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query courses: %w", err)
	}
	return scanCourseRows(rows)
}
