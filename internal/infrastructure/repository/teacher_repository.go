package repository

import (
	"context"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TeacherRepository implements TeacherRepository using GORM
type TeacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository creates a new GORM teacher repository
func NewTeacherRepository(db *gorm.DB) interfaces.TeacherRepository {
	return &TeacherRepository{
		db: db,
	}
}

func (r *TeacherRepository) Create(ctx context.Context, teacher *domain.Teacher) error {
	return translateError(r.db.WithContext(ctx).Create(teacher).Error)
}

func (r *TeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *TeacherRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *TeacherRepository) first(db *gorm.DB, id uuid.UUID) (*domain.Teacher, error) {
	var teacher domain.Teacher
	err := db.First(&teacher, "teacher_id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) GetByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	var teacher domain.Teacher
	err := r.db.WithContext(ctx).First(&teacher, "email = ?", email).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &teacher, nil
}

func (r *TeacherRepository) List(ctx context.Context) ([]*domain.Teacher, error) {
	var teachers []*domain.Teacher
	err := r.db.WithContext(ctx).Order("name").Find(&teachers).Error
	if err != nil {
		return nil, err
	}
	return teachers, nil
}

func (r *TeacherRepository) Update(ctx context.Context, teacher *domain.Teacher) error {
	return translateError(r.db.WithContext(ctx).
		Model(&domain.Teacher{}).
		Where("teacher_id = ?", teacher.TeacherID).
		Updates(map[string]interface{}{
			"name":       teacher.Name,
			"email":      teacher.Email,
			"updated_at": gorm.Expr("NOW()"),
		}).Error)
}

// Delete removes the teacher; the allocations foreign key cascades
func (r *TeacherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Teacher{}, "teacher_id = ?", id).Error
}
