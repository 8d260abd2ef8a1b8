package service

import (
	"context"
	"testing"
	"time"

	domain "course-routine/internal/domain/scheduling"
	"course-routine/internal/infrastructure/cache"
	"course-routine/internal/infrastructure/repository"
)

func TestIdempotencyService_Replay(t *testing.T) {
	ctx := context.Background()
	svc := NewIdempotencyService(repository.NewMemoryIdempotencyRepository(), time.Hour)

	req := map[string]interface{}{"course_id": "c1", "section": 1}
	resp := map[string]interface{}{"success": true}

	stored, duplicate, err := svc.CheckDuplicateRequest(ctx, "key-1", req)
	if err != nil || duplicate || stored != nil {
		t.Fatalf("Expected fresh key, got %v %v %v", stored, duplicate, err)
	}

	if err := svc.StoreProcessedRequest(ctx, "key-1", req, resp, 201); err != nil {
		t.Fatalf("StoreProcessedRequest: %v", err)
	}

	stored, duplicate, err = svc.CheckDuplicateRequest(ctx, "key-1", req)
	if err != nil || !duplicate {
		t.Fatalf("Expected duplicate, got %v %v", duplicate, err)
	}
	if stored.StatusCode != 201 || stored.ResponseData != `{"success":true}` {
		t.Errorf("Unexpected stored outcome: %+v", stored)
	}

	other := map[string]interface{}{"course_id": "c2", "section": 1}
	_, _, err = svc.CheckDuplicateRequest(ctx, "key-1", other)
	expectRule(t, err, domain.KindConflict, RuleIdempotencyKeyReused)

	// second store for the same key is ignored
	if err := svc.StoreProcessedRequest(ctx, "key-1", other, resp, 409); err != nil {
		t.Fatalf("StoreProcessedRequest: %v", err)
	}
	stored, _, _ = svc.CheckDuplicateRequest(ctx, "key-1", req)
	if stored == nil || stored.StatusCode != 201 {
		t.Errorf("Expected first outcome to win, got %+v", stored)
	}

	_, duplicate, err = svc.CheckDuplicateRequest(ctx, "", req)
	if err != nil || duplicate {
		t.Errorf("Expected empty key to bypass, got %v %v", duplicate, err)
	}
}

func TestIdempotencyService_ExpiredKey(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIdempotencyRepository()
	svc := NewIdempotencyService(repo, time.Hour)

	past := time.Now().Add(-2 * time.Hour)
	if _, err := repo.Create(ctx, &domain.IdempotencyKey{
		Key:         "old",
		RequestHash: svc.generateRequestHash("body"),
		StatusCode:  201,
		ProcessedAt: past,
		ExpiresAt:   past.Add(time.Hour),
	}, 0); err != nil {
		t.Fatalf("seed key: %v", err)
	}

	_, duplicate, err := svc.CheckDuplicateRequest(ctx, "old", "body")
	if err != nil || duplicate {
		t.Fatalf("Expected expired key to be treated as new, got %v %v", duplicate, err)
	}
	if _, err := repo.GetByKey(ctx, "old"); err == nil {
		t.Error("Expected expired key to be deleted")
	}

	removed, err := svc.CleanupExpiredKeys(ctx)
	if err != nil || removed != 0 {
		t.Errorf("Expected nothing left to clean up, got %d %v", removed, err)
	}
}

func TestCatalogService_CachesCalendar(t *testing.T) {
	ctx := context.Background()
	store := repository.NewSeededMemoryStore()
	memCache := cache.NewMemoryCache()
	catalog := NewCatalogService(store.Repos().Calendar, memCache, time.Minute)

	days, err := catalog.ListDays(ctx)
	if err != nil || len(days) != 5 {
		t.Fatalf("ListDays: %d %v", len(days), err)
	}
	if _, err := memCache.Get(ctx, CatalogDaysKey); err != nil {
		t.Errorf("Expected days to be cached, got %v", err)
	}

	slot, err := catalog.GetTimeSlot(ctx, lab1)
	if err != nil || slot == nil || slot.SlotType != domain.CourseTypeLab {
		t.Fatalf("GetTimeSlot: %+v %v", slot, err)
	}
	missing, err := catalog.GetDay(ctx, 42)
	if err != nil || missing != nil {
		t.Errorf("Expected nil for unknown day, got %+v %v", missing, err)
	}

	theory, err := catalog.ListTimeSlots(ctx, domain.CourseTypeTheory)
	if err != nil || len(theory) != 4 {
		t.Fatalf("ListTimeSlots: %d %v", len(theory), err)
	}

	if err := catalog.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := memCache.Get(ctx, CatalogDaysKey); err == nil {
		t.Error("Expected days entry to be cleared")
	}

	uncached := NewCatalogService(store.Repos().Calendar, nil, 0)
	if days, err := uncached.ListDays(ctx); err != nil || len(days) != 5 {
		t.Errorf("Expected passthrough without a cache, got %d %v", len(days), err)
	}
}
