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

type AnnouncementRepository struct {
	pool *pgxpool.Pool
}

func NewAnnouncementRepository(db *database.DB) *AnnouncementRepository {
	return &AnnouncementRepository{pool: db.Pool}
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO announcements (announcement_id, announcement_title, announcement_description, admin_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		a.AnnouncementID, a.Title, a.Description, a.AdminID, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.ID)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return a, nil
}

func (r *AnnouncementRepository) GetByAnnouncementID(ctx context.Context, announcementID string) (*models.Announcement, error) {
	query := `
		SELECT id, announcement_id, announcement_title, announcement_description, admin_id, created_at, updated_at
		FROM announcements WHERE announcement_id = $1`

	var a models.Announcement
	err := r.pool.QueryRow(ctx, query, announcementID).Scan(
		&a.ID, &a.AnnouncementID, &a.Title, &a.Description, &a.AdminID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

func (r *AnnouncementRepository) Update(ctx context.Context, announcementID, title, description string) (*models.Announcement, error) {
	query := `
		UPDATE announcements SET announcement_title = $1, announcement_description = $2, updated_at = NOW()
		WHERE announcement_id = $3
		RETURNING id, announcement_id, announcement_title, announcement_description, admin_id, created_at, updated_at`

	var a models.Announcement
	err := r.pool.QueryRow(ctx, query, title, description, announcementID).Scan(
		&a.ID, &a.AnnouncementID, &a.Title, &a.Description, &a.AdminID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &a, nil
}

func (r *AnnouncementRepository) Delete(ctx context.Context, announcementID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE announcement_id = $1`, announcementID)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// List returns announcements newest first, with the author joined in.
func (r *AnnouncementRepository) List(ctx context.Context, limit, offset int, search string) ([]*models.Announcement, error) {
	query := `
		SELECT a.id, a.announcement_id, a.announcement_title, a.announcement_description, a.admin_id,
			a.created_at, a.updated_at, ad.first_name, ad.last_name
		FROM announcements a
		JOIN admins ad ON ad.user_id = a.admin_id
		WHERE ($1 = '' OR a.announcement_title ILIKE '%' || $1 || '%' OR a.announcement_description ILIKE '%' || $1 || '%')
		ORDER BY a.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}

	return scanAnnouncementRows(rows)
}

func scanAnnouncementRows(rows pgx.Rows) ([]*models.Announcement, error) {
	defer rows.Close()

	announcements := make([]*models.Announcement, 0)
	for rows.Next() {
		var a models.Announcement
		err := rows.Scan(&a.ID, &a.AnnouncementID, &a.Title, &a.Description, &a.AdminID,
			&a.CreatedAt, &a.UpdatedAt, &a.AuthorFirstName, &a.AuthorLastName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		announcements = append(announcements, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return announcements, nil
}

func (r *AnnouncementRepository) CountFiltered(ctx context.Context, search string) (int, error) {
	query := `
		SELECT COUNT(*) FROM announcements
		WHERE ($1 = '' OR announcement_title ILIKE '%' || $1 || '%' OR announcement_description ILIKE '%' || $1 || '%')`

	var count int
	if err := r.pool.QueryRow(ctx, query, search).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count announcements: %w", err)
	}
	return count, nil
}
