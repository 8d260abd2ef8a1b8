package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/go-redis/redis/v8"
)

var _ interfaces.IdempotencyRepository = (*RedisIdempotencyRepository)(nil)

type RedisIdempotencyRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisIdempotencyRepository(client redis.UniversalClient) *RedisIdempotencyRepository {
	return &RedisIdempotencyRepository{
		client: client,
		prefix: "idempotency_key:",
	}
}

// Create stores the outcome with SETNX so the first writer wins
func (r *RedisIdempotencyRepository) Create(ctx context.Context, key *domain.IdempotencyKey, ttl time.Duration) (bool, error) {
	redisKey := r.getRedisKey(key.Key)
	if ttl > 0 {
		key.ExpiresAt = key.ProcessedAt.Add(ttl)
	}

	data, err := json.Marshal(key)
	if err != nil {
		return false, fmt.Errorf("failed to marshal idempotency key: %w", err)
	}

	stored, err := r.client.SetNX(ctx, redisKey, string(data), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to store idempotency key in Redis: %w", err)
	}

	return stored, nil
}

func (r *RedisIdempotencyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	redisKey := r.getRedisKey(key)

	val, err := r.client.Get(ctx, redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, interfaces.ErrIdempotencyKeyNotFound
		}
		return nil, fmt.Errorf("failed to get idempotency key from Redis: %w", err)
	}

	var idempotencyKey domain.IdempotencyKey
	err = json.Unmarshal([]byte(val), &idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency key: %w", err)
	}

	return &idempotencyKey, nil
}

func (r *RedisIdempotencyRepository) Delete(ctx context.Context, key string) error {
	redisKey := r.getRedisKey(key)

	err := r.client.Del(ctx, redisKey).Err()
	if err != nil {
		return fmt.Errorf("failed to delete idempotency key from Redis: %w", err)
	}

	return nil
}

func (r *RedisIdempotencyRepository) getRedisKey(key string) string {
	return r.prefix + key
}
