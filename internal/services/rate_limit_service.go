package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rmagsino/iskolar/internal/models"
)

// RateLimitRepository defines the persistence operations for the per-key
// fixed-window counters.
type RateLimitRepository interface {
	Get(ctx context.Context, apiKey string) (*models.RateLimitRecord, error)
	Insert(ctx context.Context, apiKey string, now time.Time) error
	Reset(ctx context.Context, apiKey string, now time.Time) error
	Increment(ctx context.Context, apiKey string) error
}

// RateLimitConfig holds the window size and capacity.
type RateLimitConfig struct {
	Capacity int
	Window   time.Duration
}

// RateLimitService enforces a persisted fixed-window rate limit per API key.
// The window survives restarts and is shared by every replica pointing at the
// same database.
type RateLimitService struct {
	repo   RateLimitRepository
	config RateLimitConfig
	logger *slog.Logger
}

func NewRateLimitService(repo RateLimitRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// Check records one request against the key's current window and reports
// whether it is allowed. Every allowed call writes: a fresh window insert, a
// stale-window reset, or an increment.
func (s *RateLimitService) Check(ctx context.Context, apiKey string) (bool, error) {
	now := time.Now()

	record, err := s.repo.Get(ctx, apiKey)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			if err := s.repo.Insert(ctx, apiKey, now); err != nil {
				return s.failOpen(err), nil
			}
			return true, nil
		}
		return s.failOpen(err), nil
	}

	if record.Stale(now, s.config.Window) {
		if err := s.repo.Reset(ctx, apiKey, now); err != nil {
			return s.failOpen(err), nil
		}
		return true, nil
	}

	if record.Requests >= s.config.Capacity {
		s.logger.Warn("rate limit exceeded",
			slog.Int("requests", record.Requests),
			slog.Int("capacity", s.config.Capacity),
		)
		return false, nil
	}

	if err := s.repo.Increment(ctx, apiKey); err != nil {
		return s.failOpen(err), nil
	}

	return true, nil
}

// failOpen logs a storage error and allows the request. The limiter is a
// soft throttle; database trouble should not take down every endpoint.
func (s *RateLimitService) failOpen(err error) bool {
	s.logger.Error("rate limit check failed", slog.Any("error", err))
	return true
}
