package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	"course-routine/pkg/logger"
)

const (
	DefaultIdempotencyTTL = 24 * time.Hour
)

// RuleIdempotencyKeyReused marks a key replayed with a different request body
const RuleIdempotencyKeyReused = "idempotency_key_reused"

// expiredKeyCleaner is implemented by backends without native key expiry
type expiredKeyCleaner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

type IdempotencyService struct {
	idempotencyRepo interfaces.IdempotencyRepository
	ttl             time.Duration
}

func NewIdempotencyService(idempotencyRepo interfaces.IdempotencyRepository, ttl time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyService{
		idempotencyRepo: idempotencyRepo,
		ttl:             ttl,
	}
}

// CheckDuplicateRequest returns the stored outcome when key was already
// processed with the same request. Reusing the key for another request is a conflict.
func (s *IdempotencyService) CheckDuplicateRequest(ctx context.Context, key string, requestData any) (*domain.IdempotencyKey, bool, error) {
	if key == "" {
		return nil, false, nil
	}

	existingKey, err := s.idempotencyRepo.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, interfaces.ErrIdempotencyKeyNotFound) {
			return nil, false, nil
		}
		logger.Error("Failed to check idempotency key: %v", err)
		return nil, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	if existingKey.IsExpired() {
		if err := s.idempotencyRepo.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete expired idempotency key %s: %v", key, err)
		}
		return nil, false, nil
	}

	if existingKey.RequestHash != s.generateRequestHash(requestData) {
		logger.Warn("Idempotency key %s used with different request data", key)
		return nil, false, domain.NewConflictError(RuleIdempotencyKeyReused,
			"idempotency key already used with different request data")
	}

	logger.Info("Duplicate request detected for idempotency key: %s", key)
	return existingKey, true, nil
}

// StoreProcessedRequest records the response sent for key. A concurrent
// writer that stored first wins and this call becomes a no-op.
func (s *IdempotencyService) StoreProcessedRequest(ctx context.Context, key string, requestData any, responseData any, statusCode int) error {
	if key == "" {
		return nil
	}

	responseJSON, err := json.Marshal(responseData)
	if err != nil {
		logger.Error("Failed to marshal response data for idempotency key %s: %v", key, err)
		return fmt.Errorf("failed to marshal response data: %w", err)
	}

	now := time.Now()
	idempotencyKey := &domain.IdempotencyKey{
		Key:          key,
		RequestHash:  s.generateRequestHash(requestData),
		ResponseData: string(responseJSON),
		StatusCode:   statusCode,
		ProcessedAt:  now,
		ExpiresAt:    now.Add(s.ttl),
	}

	stored, err := s.idempotencyRepo.Create(ctx, idempotencyKey, s.ttl)
	if err != nil {
		logger.Error("Failed to store idempotency key %s: %v", key, err)
		return fmt.Errorf("failed to store idempotency key: %w", err)
	}
	if !stored {
		logger.Debug("Idempotency key %s already stored by another request", key)
		return nil
	}

	logger.Info("Stored idempotency key: %s", key)
	return nil
}

// CleanupExpiredKeys purges expired outcomes on backends that keep them
// until deleted. It returns the number of keys removed.
func (s *IdempotencyService) CleanupExpiredKeys(ctx context.Context) (int64, error) {
	cleaner, ok := s.idempotencyRepo.(expiredKeyCleaner)
	if !ok {
		return 0, nil
	}

	removed, err := cleaner.DeleteExpired(ctx)
	if err != nil {
		logger.Error("Failed to cleanup expired idempotency keys: %v", err)
		return 0, fmt.Errorf("failed to cleanup expired keys: %w", err)
	}
	if removed > 0 {
		logger.Info("Removed %d expired idempotency keys", removed)
	}
	return removed, nil
}

func (s *IdempotencyService) generateRequestHash(requestData any) string {
	jsonData, _ := json.Marshal(requestData)
	hash := sha256.Sum256(jsonData)
	return hex.EncodeToString(hash[:])
}
