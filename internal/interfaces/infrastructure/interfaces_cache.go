package interfaces

import (
	"context"
	"errors"
	"time"

	domain "course-routine/internal/domain/scheduling"
)

// ErrCacheMiss is returned by CacheService.Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// ErrIdempotencyKeyNotFound is returned when no outcome is stored for a key
var ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")

type CacheService interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, pattern string) error

	Health(ctx context.Context) error
	Close() error
}

type IdempotencyRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	// Create stores the outcome; it returns false if the key already exists
	Create(ctx context.Context, key *domain.IdempotencyKey, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
}
