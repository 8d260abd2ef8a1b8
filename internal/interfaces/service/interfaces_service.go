package service

import (
	"context"

	domain "course-routine/internal/domain/scheduling"

	"github.com/google/uuid"
)

// AvailabilityService answers the allocation wizard's "what is still selectable" queries
type AvailabilityService interface {
	AvailableSections(ctx context.Context, courseID uuid.UUID) ([]domain.SectionAvailability, error)
	AvailableDays(ctx context.Context, courseID uuid.UUID, section int) ([]*domain.Day, error)
	AvailableTimeSlots(ctx context.Context, dayID, section int, program string, courseID uuid.UUID) ([]*domain.TimeSlot, error)
	AvailableRooms(ctx context.Context, dayID, slotID int, courseType string) ([]*domain.Room, error)
	CandidateCourses(ctx context.Context) ([]*domain.Course, error)
}

// AllocationService admits and revokes allocations
type AllocationService interface {
	Admit(ctx context.Context, req *domain.AdmitRequest) (*domain.AllocationDetail, error)
	Revoke(ctx context.Context, allocationID uuid.UUID) error
	ReconcileCounters(ctx context.Context, repair bool) ([]domain.CounterDrift, error)
}

// RoutineService projects the allocation set into routines
type RoutineService interface {
	FormatRoutine(ctx context.Context, program string, section int) (domain.RoutineGrid, error)
	FormatTeacherRoutine(ctx context.Context, teacherID uuid.UUID) ([]domain.TeacherRoutineEntry, error)
	ListAllocations(ctx context.Context) ([]*domain.AllocationDetail, error)
	TeachersWithAllocations(ctx context.Context) ([]*domain.Teacher, error)
	TeacherForCourse(ctx context.Context, courseID uuid.UUID) (*domain.Teacher, error)
}

// ReferenceService is the CRUD surface over teachers, courses, rooms and the calendar
type ReferenceService interface {
	ListTeachers(ctx context.Context) ([]*domain.Teacher, error)
	GetTeacher(ctx context.Context, id uuid.UUID) (*domain.Teacher, error)
	CreateTeacher(ctx context.Context, req *domain.CreateTeacherRequest) (*domain.Teacher, error)
	UpdateTeacher(ctx context.Context, id uuid.UUID, req *domain.UpdateTeacherRequest) (*domain.Teacher, error)
	DeleteTeacher(ctx context.Context, id uuid.UUID) error
	CheckDeleteTeacher(ctx context.Context, id uuid.UUID) (*domain.DeleteCheck, error)

	ListCourses(ctx context.Context) ([]*domain.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error)
	CreateCourse(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error
	CheckDeleteCourse(ctx context.Context, id uuid.UUID) (*domain.DeleteCheck, error)

	ListRooms(ctx context.Context) ([]*domain.Room, error)
	CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error)

	ListPrograms(ctx context.Context) ([]*domain.Program, error)
	ListDays(ctx context.Context) ([]*domain.Day, error)
	ListTimeSlots(ctx context.Context, slotType string) ([]*domain.TimeSlot, error)
}
