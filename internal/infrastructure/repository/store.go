package repository

import (
	"context"
	"database/sql"
	"fmt"

	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

var _ interfaces.Store = (*GormStore)(nil)

// GormStore is the postgres backed store
type GormStore struct {
	db     *gorm.DB
	reader *AllocationReader
}

// NewGormStore wraps an open gorm connection. The read model shares its pool through sqlx.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	return &GormStore{
		db:     db,
		reader: NewAllocationReader(sqlx.NewDb(sqlDB, "pgx")),
	}, nil
}

func newRepositories(db *gorm.DB) interfaces.Repositories {
	return interfaces.Repositories{
		Teachers:    NewTeacherRepository(db),
		Courses:     NewCourseRepository(db),
		Rooms:       NewRoomRepository(db),
		Calendar:    NewCalendarRepository(db),
		Programs:    NewProgramRepository(db),
		Allocations: NewAllocationRepository(db),
	}
}

func (s *GormStore) Repos() interfaces.Repositories {
	return newRepositories(s.db)
}

func (s *GormStore) Reader() interfaces.AllocationReader {
	return s.reader
}

// WithTx runs fn in a READ COMMITTED transaction
func (s *GormStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, newRepositories(tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (s *GormStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
