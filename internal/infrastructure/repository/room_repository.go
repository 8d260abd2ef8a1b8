package repository

import (
	"context"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) interfaces.RoomRepository {
	return &RoomRepository{
		db: db,
	}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return translateError(r.db.WithContext(ctx).Create(room).Error)
}

func (r *RoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, "room_id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) GetByNumber(ctx context.Context, roomNumber string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, "room_number = ?", roomNumber).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := r.db.WithContext(ctx).Order("room_number").Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *RoomRepository) ListByLab(ctx context.Context, isLab bool) ([]*domain.Room, error) {
	var rooms []*domain.Room
	err := r.db.WithContext(ctx).Where("is_lab = ?", isLab).Order("room_number").Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}
