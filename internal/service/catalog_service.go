package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	"course-routine/pkg/logger"
)

const (
	CatalogDaysKey        = "catalog:days"
	CatalogTimeSlotsKey   = "catalog:time_slots:"
	DefaultCatalogTTL     = time.Hour
	catalogInvalidateGlob = "catalog:*"
)

var _ interfaces.CalendarRepository = (*CatalogService)(nil)

// CatalogService serves days and time slots through the cache. The calendar is
// seeded reference data, so a cached copy never hides an allocation change.
type CatalogService struct {
	calendar interfaces.CalendarRepository
	cache    interfaces.CacheService
	ttl      time.Duration
}

func NewCatalogService(calendar interfaces.CalendarRepository, cache interfaces.CacheService, ttl time.Duration) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{
		calendar: calendar,
		cache:    cache,
		ttl:      ttl,
	}
}

func (s *CatalogService) ListDays(ctx context.Context) ([]*domain.Day, error) {
	var days []*domain.Day
	if s.readCache(ctx, CatalogDaysKey, &days) {
		return days, nil
	}

	days, err := s.calendar.ListDays(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, CatalogDaysKey, days)
	return days, nil
}

func (s *CatalogService) ListTimeSlots(ctx context.Context, slotType domain.CourseType) ([]*domain.TimeSlot, error) {
	key := CatalogTimeSlotsKey + "all"
	if slotType != "" {
		key = CatalogTimeSlotsKey + string(slotType)
	}

	var slots []*domain.TimeSlot
	if s.readCache(ctx, key, &slots) {
		return slots, nil
	}

	slots, err := s.calendar.ListTimeSlots(ctx, slotType)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, slots)
	return slots, nil
}

func (s *CatalogService) GetDay(ctx context.Context, id int) (*domain.Day, error) {
	days, err := s.ListDays(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range days {
		if d.DayID == id {
			return d, nil
		}
	}
	return nil, nil
}

func (s *CatalogService) GetTimeSlot(ctx context.Context, id int) (*domain.TimeSlot, error) {
	slots, err := s.ListTimeSlots(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, ts := range slots {
		if ts.SlotID == id {
			return ts, nil
		}
	}
	return nil, nil
}

// Invalidate drops every cached catalog entry
func (s *CatalogService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx, catalogInvalidateGlob)
}

func (s *CatalogService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}

	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrCacheMiss) {
			logger.Warn("Catalog cache read failed for %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("Discarding undecodable catalog cache entry %s: %v", key, err)
		return false
	}
	return true
}

func (s *CatalogService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		logger.Warn("Failed to encode catalog entry %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		logger.Warn("Catalog cache write failed for %s: %v", key, err)
	}
}
