package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rmagsino/iskolar/internal/database"
	"github.com/rmagsino/iskolar/internal/models"
)

// RateLimitRepository persists fixed-window request counters keyed by API key.
type RateLimitRepository struct {
	pool *pgxpool.Pool
}

func NewRateLimitRepository(db *database.DB) *RateLimitRepository {
	return &RateLimitRepository{pool: db.Pool}
}

func (r *RateLimitRepository) Get(ctx context.Context, apiKey string) (*models.RateLimitRecord, error) {
	query := `SELECT api_key, requests, window_start FROM rate_limits WHERE api_key = $1`

	var record models.RateLimitRecord
	err := r.pool.QueryRow(ctx, query, apiKey).Scan(&record.APIKey, &record.Requests, &record.WindowStart)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &record, nil
}

// Insert creates a fresh window with one request counted.
func (r *RateLimitRepository) Insert(ctx context.Context, apiKey string, now time.Time) error {
	query := `
		INSERT INTO rate_limits (api_key, requests, window_start)
		VALUES ($1, 1, $2)
		ON CONFLICT (api_key) DO UPDATE SET requests = 1, window_start = $2`

	if _, err := r.pool.Exec(ctx, query, apiKey, now); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// Reset restarts the window for a stale record.
func (r *RateLimitRepository) Reset(ctx context.Context, apiKey string, now time.Time) error {
	query := `UPDATE rate_limits SET requests = 1, window_start = $1 WHERE api_key = $2`

	if _, err := r.pool.Exec(ctx, query, now, apiKey); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// Increment counts one more request inside the current window.
func (r *RateLimitRepository) Increment(ctx context.Context, apiKey string) error {
	query := `UPDATE rate_limits SET requests = requests + 1 WHERE api_key = $1`

	if _, err := r.pool.Exec(ctx, query, apiKey); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// DeleteOlderThan evicts records whose window started before the cutoff.
func (r *RateLimitRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM rate_limits WHERE window_start < $1`, cutoff)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}
