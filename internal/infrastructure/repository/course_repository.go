package repository

import (
	"context"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) interfaces.CourseRepository {
	return &CourseRepository{
		db: db,
	}
}

func (r *CourseRepository) Create(ctx context.Context, course *domain.Course) error {
	return translateError(r.db.WithContext(ctx).Create(course).Error)
}

func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return r.first(r.db.WithContext(ctx), "course_id = ?", id)
}

func (r *CourseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "course_id = ?", id)
}

func (r *CourseRepository) GetByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	return r.first(r.db.WithContext(ctx), "course_code = ?", courseCode)
}

func (r *CourseRepository) first(db *gorm.DB, query string, args ...interface{}) (*domain.Course, error) {
	var course domain.Course
	err := db.First(&course, append([]interface{}{query}, args...)...).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) List(ctx context.Context) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.WithContext(ctx).Order("course_code").Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CourseRepository) ListWithAvailability(ctx context.Context) ([]*domain.Course, error) {
	var courses []*domain.Course
	err := r.db.WithContext(ctx).
		Where("allocation_availability > 0").
		Order("course_code").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *CourseRepository) AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var values []int
	err := r.db.WithContext(ctx).Raw(`
		UPDATE courses
		SET allocation_availability = allocation_availability + ?, updated_at = NOW()
		WHERE course_id = ? AND allocation_availability + ? >= 0
		RETURNING allocation_availability`, delta, id, delta).
		Scan(&values).Error
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		exists, err := r.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if exists == nil {
			return 0, gorm.ErrRecordNotFound
		}
		return 0, interfaces.ErrCounterUnderflow
	}
	return values[0], nil
}

func (r *CourseRepository) SetAvailability(ctx context.Context, id uuid.UUID, value int) error {
	return r.db.WithContext(ctx).
		Model(&domain.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{
			"allocation_availability": value,
			"updated_at":              gorm.Expr("NOW()"),
		}).Error
}

// Delete removes the course; the allocations foreign key cascades
func (r *CourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Course{}, "course_id = ?", id).Error
}
