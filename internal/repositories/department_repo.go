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

type DepartmentRepository struct {
	pool *pgxpool.Pool
}

func NewDepartmentRepository(db *database.DB) *DepartmentRepository {
	return &DepartmentRepository{pool: db.Pool}
}

const departmentColumns = `id, department_id, department_name, created_at, updated_at`

func scanDepartmentRow(scanner rowScanner) (*models.Department, error) {
	var d models.Department
	err := scanner.Scan(&d.ID, &d.DepartmentID, &d.Name, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &d, nil
}

func scanDepartmentRows(rows pgx.Rows) ([]*models.Department, error) {
	defer rows.Close()

	departments := make([]*models.Department, 0)
	for rows.Next() {
		dept, err := scanDepartmentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan department: %w", err)
		}
		departments = append(departments, dept)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return departments, nil
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *models.Department) (*models.Department, error) {
	now := time.Now()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	query := `
		INSERT INTO departments (department_id, department_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + departmentColumns

	return scanDepartmentRow(r.pool.QueryRow(ctx, query,
		dept.DepartmentID, dept.Name, dept.CreatedAt, dept.UpdatedAt,
	))
}

func (r *DepartmentRepository) GetByDepartmentID(ctx context.Context, departmentID string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE department_id = $1`
	return scanDepartmentRow(r.pool.QueryRow(ctx, query, departmentID))
}

func (r *DepartmentRepository) GetByName(ctx context.Context, name string) (*models.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE LOWER(department_name) = LOWER($1)`
	return scanDepartmentRow(r.pool.QueryRow(ctx, query, name))
}

func (r *DepartmentRepository) Update(ctx context.Context, departmentID, name string) (*models.Department, error) {
	query := `
		UPDATE departments SET department_name = $1, updated_at = NOW()
		WHERE department_id = $2
		RETURNING ` + departmentColumns

	return scanDepartmentRow(r.pool.QueryRow(ctx, query, name, departmentID))
}

func (r *DepartmentRepository) Delete(ctx context.Context, departmentID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM departments WHERE department_id = $1`, departmentID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *DepartmentRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.Department, error) {
	query := `
		SELECT ` + departmentColumns + `
		FROM departments
		WHERE ($1 = '' OR department_name ILIKE '%' || $1 || '%')
		ORDER BY department_name
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query departments: %w", err)
	}
	return scanDepartmentRows(rows)
}

func (r *DepartmentRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM departments WHERE ($1 = '' OR department_name ILIKE '%' || $1 || '%')`

	var count int
	if err := r.pool.QueryRow(ctx, query, search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count departments: %w", err)
	}
	return count, nil
}
