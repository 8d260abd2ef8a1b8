package repository

import (
	"context"
	"fmt"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AllocationRepository implements AllocationRepository using GORM
type AllocationRepository struct {
	db *gorm.DB
}

// NewAllocationRepository creates a new GORM allocation repository
func NewAllocationRepository(db *gorm.DB) interfaces.AllocationRepository {
	return &AllocationRepository{
		db: db,
	}
}

func (r *AllocationRepository) Create(ctx context.Context, allocation *domain.Allocation) error {
	if allocation.AllocationID == uuid.Nil {
		allocation.AllocationID = uuid.New()
	}
	return translateError(r.db.WithContext(ctx).Create(allocation).Error)
}

func (r *AllocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Allocation, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *AllocationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Allocation, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// LockSection takes a transaction scoped advisory lock keyed by program and section
func (r *AllocationRepository) LockSection(ctx context.Context, program string, section int) error {
	key := fmt.Sprintf("section:%s:%d", program, section)
	return r.db.WithContext(ctx).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error
}

func (r *AllocationRepository) first(db *gorm.DB, id uuid.UUID) (*domain.Allocation, error) {
	var allocation domain.Allocation
	err := db.First(&allocation, "allocation_id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &allocation, nil
}

func (r *AllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Allocation{}, "allocation_id = ?", id).Error
}

func (r *AllocationRepository) DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Allocation{}, "teacher_id = ?", teacherID)
	return result.RowsAffected, result.Error
}

func (r *AllocationRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&domain.Allocation{}, "course_id = ?", courseID)
	return result.RowsAffected, result.Error
}

func (r *AllocationRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Allocation, error) {
	var allocations []*domain.Allocation
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", teacherID).
		Order("day_id, slot_id").
		Find(&allocations).Error
	if err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *AllocationRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Allocation{}).Where("course_id = ?", courseID).Count(&count).Error
	return int(count), err
}

func (r *AllocationRepository) CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Allocation{}).Where("teacher_id = ?", teacherID).Count(&count).Error
	return int(count), err
}

func (r *AllocationRepository) CountBySection(ctx context.Context, courseID uuid.UUID, program string, section int) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("course_id = ? AND program = ? AND section = ?", courseID, program, section).
		Count(&count).Error
	return int(count), err
}

func (r *AllocationRepository) CountsByCourse(ctx context.Context) (map[uuid.UUID]int, error) {
	var rows []struct {
		CourseID uuid.UUID
		Count    int
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Select("course_id, COUNT(*) AS count").
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Count
	}
	return counts, nil
}

func (r *AllocationRepository) CountsBySection(ctx context.Context, courseID uuid.UUID) (map[int]int, error) {
	var rows []struct {
		Section int
		Count   int
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Select("section, COUNT(*) AS count").
		Where("course_id = ?", courseID).
		Group("section").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int, len(rows))
	for _, row := range rows {
		counts[row.Section] = row.Count
	}
	return counts, nil
}

func (r *AllocationRepository) CourseCountsByTeacher(ctx context.Context, teacherID uuid.UUID) (map[uuid.UUID]int, error) {
	var rows []struct {
		CourseID uuid.UUID
		Count    int
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Select("course_id, COUNT(*) AS count").
		Where("teacher_id = ?", teacherID).
		Group("course_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int, len(rows))
	for _, row := range rows {
		counts[row.CourseID] = row.Count
	}
	return counts, nil
}

func (r *AllocationRepository) DayIDsUsed(ctx context.Context, courseID uuid.UUID, section int) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Distinct().
		Where("course_id = ? AND section = ?", courseID, section).
		Pluck("day_id", &ids).Error
	return ids, err
}

func (r *AllocationRepository) SlotIDsUsed(ctx context.Context, dayID int, program string, section int) ([]int, error) {
	var ids []int
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Distinct().
		Where("day_id = ? AND program = ? AND section = ?", dayID, program, section).
		Pluck("slot_id", &ids).Error
	return ids, err
}

func (r *AllocationRepository) RoomIDsBooked(ctx context.Context, dayID int, slotIDs []int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if len(slotIDs) == 0 {
		return ids, nil
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Allocation{}).
		Where("day_id = ? AND slot_id IN ?", dayID, slotIDs).
		Pluck("room_id", &ids).Error
	return ids, err
}
