package repository

import (
	"context"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"gorm.io/gorm"
)

// CalendarRepository reads the seeded days and time slots
type CalendarRepository struct {
	db *gorm.DB
}

func NewCalendarRepository(db *gorm.DB) interfaces.CalendarRepository {
	return &CalendarRepository{
		db: db,
	}
}

func (r *CalendarRepository) GetDay(ctx context.Context, id int) (*domain.Day, error) {
	var day domain.Day
	err := r.db.WithContext(ctx).First(&day, "day_id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &day, nil
}

func (r *CalendarRepository) ListDays(ctx context.Context) ([]*domain.Day, error) {
	var days []*domain.Day
	err := r.db.WithContext(ctx).Order("day_order").Find(&days).Error
	if err != nil {
		return nil, err
	}
	return days, nil
}

func (r *CalendarRepository) GetTimeSlot(ctx context.Context, id int) (*domain.TimeSlot, error) {
	var slot domain.TimeSlot
	err := r.db.WithContext(ctx).First(&slot, "slot_id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *CalendarRepository) ListTimeSlots(ctx context.Context, slotType domain.CourseType) ([]*domain.TimeSlot, error) {
	var slots []*domain.TimeSlot
	query := r.db.WithContext(ctx)
	if slotType != "" {
		query = query.Where("slot_type = ?", slotType)
	}
	err := query.Order("slot_order").Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}
