package repository

import (
	"context"
	"sync"
	"time"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ interfaces.IdempotencyRepository = (*IdempotencyRepository)(nil)

// IdempotencyRepository keeps submission outcomes in postgres
type IdempotencyRepository struct {
	db *gorm.DB
}

func NewIdempotencyRepository(db *gorm.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Create(ctx context.Context, key *domain.IdempotencyKey, ttl time.Duration) (bool, error) {
	if ttl > 0 {
		key.ExpiresAt = key.ProcessedAt.Add(ttl)
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(key)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *IdempotencyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	var idempotencyKey domain.IdempotencyKey
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&idempotencyKey).Error
	if err != nil {
		if isNotFound(err) {
			return nil, interfaces.ErrIdempotencyKeyNotFound
		}
		return nil, err
	}
	return &idempotencyKey, nil
}

func (r *IdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", time.Now()).Delete(&domain.IdempotencyKey{})
	return result.RowsAffected, result.Error
}

func (r *IdempotencyRepository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where("key = ?", key).Delete(&domain.IdempotencyKey{}).Error
}

var _ interfaces.IdempotencyRepository = (*MemoryIdempotencyRepository)(nil)

// MemoryIdempotencyRepository keeps submission outcomes in process
type MemoryIdempotencyRepository struct {
	mu   sync.Mutex
	keys map[string]domain.IdempotencyKey
}

func NewMemoryIdempotencyRepository() *MemoryIdempotencyRepository {
	return &MemoryIdempotencyRepository{keys: make(map[string]domain.IdempotencyKey)}
}

func (r *MemoryIdempotencyRepository) Create(ctx context.Context, key *domain.IdempotencyKey, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.keys[key.Key]; ok && !existing.IsExpired() {
		return false, nil
	}
	if ttl > 0 {
		key.ExpiresAt = key.ProcessedAt.Add(ttl)
	}
	r.keys[key.Key] = *key
	return true, nil
}

func (r *MemoryIdempotencyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.keys[key]
	if !ok {
		return nil, interfaces.ErrIdempotencyKeyNotFound
	}
	return &k, nil
}

func (r *MemoryIdempotencyRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.keys, key)
	return nil
}

func (r *MemoryIdempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	for key, k := range r.keys {
		if k.IsExpired() {
			delete(r.keys, key)
			removed++
		}
	}
	return removed, nil
}
