package repository

import (
	"context"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"gorm.io/gorm"
)

type ProgramRepository struct {
	db *gorm.DB
}

func NewProgramRepository(db *gorm.DB) interfaces.ProgramRepository {
	return &ProgramRepository{
		db: db,
	}
}

func (r *ProgramRepository) GetByName(ctx context.Context, name string) (*domain.Program, error) {
	var program domain.Program
	err := r.db.WithContext(ctx).First(&program, "name = ?", name).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &program, nil
}

func (r *ProgramRepository) List(ctx context.Context) ([]*domain.Program, error) {
	var programs []*domain.Program
	err := r.db.WithContext(ctx).Order("name").Find(&programs).Error
	if err != nil {
		return nil, err
	}
	return programs, nil
}
