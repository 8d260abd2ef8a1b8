package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	interfaces "course-routine/internal/interfaces/infrastructure"
)

func TestMemoryCache_GetSetExpire(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if _, err := c.Get(ctx, "catalog:days"); !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Fatalf("Expected cache miss, got %v", err)
	}

	_ = c.Set(ctx, "catalog:days", "[]", time.Minute)
	if v, err := c.Get(ctx, "catalog:days"); err != nil || v != "[]" {
		t.Fatalf("Expected cached value, got %q, %v", v, err)
	}

	now = now.Add(2 * time.Minute)
	if _, err := c.Get(ctx, "catalog:days"); !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Errorf("Expected expired entry to miss, got %v", err)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	_ = c.Set(ctx, "catalog:days", "a", 0)
	_ = c.Set(ctx, "catalog:time_slots:Lab", "b", 0)
	_ = c.Set(ctx, "other", "c", 0)

	if err := c.Clear(ctx, "catalog:*"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := c.Get(ctx, "catalog:days"); !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Error("Expected catalog:days cleared")
	}
	if _, err := c.Get(ctx, "catalog:time_slots:Lab"); !errors.Is(err, interfaces.ErrCacheMiss) {
		t.Error("Expected catalog:time_slots:Lab cleared")
	}
	if v, _ := c.Get(ctx, "other"); v != "c" {
		t.Error("Expected unrelated key kept")
	}
}
