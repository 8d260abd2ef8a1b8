package interfaces

import (
	"context"
	"errors"
	"fmt"

	domain "course-routine/internal/domain/scheduling"

	"github.com/google/uuid"
)

// Store-enforced unique constraints on allocations
const (
	ConstraintRoomDaySlot    = "allocations_room_day_slot_key"
	ConstraintTeacherDaySlot = "allocations_teacher_day_slot_key"
	ConstraintSectionDaySlot = "allocations_section_day_slot_key"
	ConstraintTeacherEmail   = "teachers_email_key"
	ConstraintCourseCode     = "courses_course_code_key"
	ConstraintRoomNumber     = "rooms_room_number_key"
)

// ErrCounterUnderflow is returned when a counter adjustment would go below zero
var ErrCounterUnderflow = errors.New("allocation availability cannot go below zero")

// ErrForeignKey is returned when a write references a row that does not exist
var ErrForeignKey = errors.New("referenced row does not exist")

// DuplicateError is returned by repositories when an insert or update hits a
// unique constraint. Constraint names the index that fired.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate key violates unique constraint %q", e.Constraint)
}

// Getters return (nil, nil) when the row does not exist.

type TeacherRepository interface {
	Create(ctx context.Context, teacher *domain.Teacher) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
	// GetByIDForUpdate locks the teacher row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
	GetByEmail(ctx context.Context, email string) (*domain.Teacher, error)
	List(ctx context.Context) ([]*domain.Teacher, error)
	Update(ctx context.Context, teacher *domain.Teacher) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *domain.Course) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	// GetByIDForUpdate locks the course row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	GetByCode(ctx context.Context, courseCode string) (*domain.Course, error)
	List(ctx context.Context) ([]*domain.Course, error)
	ListWithAvailability(ctx context.Context) ([]*domain.Course, error)
	// AdjustAvailability adds delta to the cached counter and returns the new value
	AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (int, error)
	SetAvailability(ctx context.Context, id uuid.UUID, value int) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByNumber(ctx context.Context, roomNumber string) (*domain.Room, error)
	// List returns rooms ordered by room number
	List(ctx context.Context) ([]*domain.Room, error)
	ListByLab(ctx context.Context, isLab bool) ([]*domain.Room, error)
}

type CalendarRepository interface {
	GetDay(ctx context.Context, id int) (*domain.Day, error)
	// ListDays returns days ordered by day_order
	ListDays(ctx context.Context) ([]*domain.Day, error)
	GetTimeSlot(ctx context.Context, id int) (*domain.TimeSlot, error)
	// ListTimeSlots returns slots ordered by slot_order; an empty type returns all
	ListTimeSlots(ctx context.Context, slotType domain.CourseType) ([]*domain.TimeSlot, error)
}

type ProgramRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Program, error)
	List(ctx context.Context) ([]*domain.Program, error)
}

type AllocationRepository interface {
	// Create returns *DuplicateError when a unique constraint fires
	Create(ctx context.Context, allocation *domain.Allocation) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Allocation, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Allocation, error)
	// LockSection serializes writers of one program section until the transaction ends
	LockSection(ctx context.Context, program string, section int) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error)
	DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error)

	ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Allocation, error)
	CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error)
	CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error)
	// CountsByCourse returns the live allocation count of every course that has one
	CountsByCourse(ctx context.Context) (map[uuid.UUID]int, error)
	// CountsBySection returns section number -> live count for one course
	CountsBySection(ctx context.Context, courseID uuid.UUID) (map[int]int, error)
	CountBySection(ctx context.Context, courseID uuid.UUID, program string, section int) (int, error)
	// CourseCountsByTeacher returns course -> count of the teacher's allocations
	CourseCountsByTeacher(ctx context.Context, teacherID uuid.UUID) (map[uuid.UUID]int, error)

	DayIDsUsed(ctx context.Context, courseID uuid.UUID, section int) ([]int, error)
	SlotIDsUsed(ctx context.Context, dayID int, program string, section int) ([]int, error)
	// RoomIDsBooked returns rooms holding an allocation on the day in any of slotIDs
	RoomIDsBooked(ctx context.Context, dayID int, slotIDs []int) ([]uuid.UUID, error)
}

// Repositories bundles the repositories bound to one connection or transaction
type Repositories struct {
	Teachers    TeacherRepository
	Courses     CourseRepository
	Rooms       RoomRepository
	Calendar    CalendarRepository
	Programs    ProgramRepository
	Allocations AllocationRepository
}

// TxManager runs fn inside one store transaction at READ COMMITTED.
// fn receives repositories bound to the transaction; a returned error rolls it back.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// AllocationFilter narrows joined allocation reads. Zero values do not filter.
type AllocationFilter struct {
	AllocationID uuid.UUID
	TeacherID    uuid.UUID
	CourseID     uuid.UUID
	Program      string
	Section      int
}

// AllocationReader serves joined, read-only projections of the allocation set
type AllocationReader interface {
	// ListDetails returns joined rows ordered by day_order, slot_order
	ListDetails(ctx context.Context, filter AllocationFilter) ([]*domain.AllocationDetail, error)
	// TeachersWithAllocations returns teachers holding at least one allocation, by name
	TeachersWithAllocations(ctx context.Context) ([]*domain.Teacher, error)
}

// Store is a complete persistence backend
type Store interface {
	TxManager
	Repos() Repositories
	Reader() AllocationReader
	Health(ctx context.Context) error
	Close() error
}
