package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	serviceInterfaces "course-routine/internal/interfaces/service"
	"course-routine/pkg/logger"
	"course-routine/pkg/validator"

	"github.com/google/uuid"
)

var _ serviceInterfaces.ReferenceService = (*ReferenceService)(nil)

// ReferenceService manages teachers, courses, rooms and the calendar lookups
type ReferenceService struct {
	store      interfaces.Store
	catalog    interfaces.CalendarRepository
	creditUnit float64
}

// NewReferenceService creates the CRUD service. catalog may be nil.
func NewReferenceService(store interfaces.Store, catalog interfaces.CalendarRepository, creditUnit float64) *ReferenceService {
	if catalog == nil {
		catalog = store.Repos().Calendar
	}
	return &ReferenceService{
		store:      store,
		catalog:    catalog,
		creditUnit: creditUnit,
	}
}

func validateRequest(req interface{}) error {
	if err := validator.ValidateStruct(req); err != nil {
		return domain.NewValidationError(domain.RuleRequiredFields, validator.Summary(err))
	}
	return nil
}

func duplicateError(err error, entity string) error {
	var dup *interfaces.DuplicateError
	if errors.As(err, &dup) {
		return domain.NewConflictError(domain.RuleDuplicate, fmt.Sprintf("%s already exists (%s)", entity, dup.Constraint))
	}
	return nil
}

// Teachers

func (s *ReferenceService) ListTeachers(ctx context.Context) ([]*domain.Teacher, error) {
	teachers, err := s.store.Repos().Teachers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers: %w", err)
	}
	return teachers, nil
}

func (s *ReferenceService) GetTeacher(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	teacher, err := s.store.Repos().Teachers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil, domain.NewNotFoundError("teacher", id)
	}
	return teacher, nil
}

func (s *ReferenceService) CreateTeacher(ctx context.Context, req *domain.CreateTeacherRequest) (*domain.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	teacher := &domain.Teacher{
		TeacherID: uuid.New(),
		Name:      req.Name,
		Email:     req.Email,
	}
	if err := s.store.Repos().Teachers.Create(ctx, teacher); err != nil {
		if dup := duplicateError(err, "teacher with email "+req.Email); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create teacher: %w", err)
	}

	logger.Info("Teacher created: %s (%s)", teacher.Name, teacher.TeacherID)
	return teacher, nil
}

func (s *ReferenceService) UpdateTeacher(ctx context.Context, id uuid.UUID, req *domain.UpdateTeacherRequest) (*domain.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var updated *domain.Teacher
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		teacher, err := repos.Teachers.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get teacher: %w", err)
		}
		if teacher == nil {
			return domain.NewNotFoundError("teacher", id)
		}

		teacher.Name = req.Name
		teacher.Email = req.Email
		if err := repos.Teachers.Update(ctx, teacher); err != nil {
			if dup := duplicateError(err, "teacher with email "+req.Email); dup != nil {
				return dup
			}
			return fmt.Errorf("failed to update teacher: %w", err)
		}

		if updated, err = repos.Teachers.GetByID(ctx, id); err != nil {
			return fmt.Errorf("failed to reload teacher: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTeacher removes the teacher and every allocation they hold, giving
// each affected course its units back, in one transaction
func (s *ReferenceService) DeleteTeacher(ctx context.Context, id uuid.UUID) error {
	var removed int64
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		teacher, err := repos.Teachers.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get teacher: %w", err)
		}
		if teacher == nil {
			return domain.NewNotFoundError("teacher", id)
		}

		perCourse, err := repos.Allocations.CourseCountsByTeacher(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count teacher allocations: %w", err)
		}

		// lock in a stable order so concurrent deletes and admissions cannot deadlock
		courseIDs := make([]uuid.UUID, 0, len(perCourse))
		for courseID := range perCourse {
			courseIDs = append(courseIDs, courseID)
		}
		sort.Slice(courseIDs, func(i, j int) bool { return courseIDs[i].String() < courseIDs[j].String() })

		for _, courseID := range courseIDs {
			if _, err := repos.Courses.GetByIDForUpdate(ctx, courseID); err != nil {
				return fmt.Errorf("failed to lock course %s: %w", courseID, err)
			}
		}

		if removed, err = repos.Allocations.DeleteByTeacher(ctx, id); err != nil {
			return fmt.Errorf("failed to delete teacher allocations: %w", err)
		}
		for _, courseID := range courseIDs {
			if _, err := repos.Courses.AdjustAvailability(ctx, courseID, perCourse[courseID]); err != nil {
				return fmt.Errorf("failed to restore availability for course %s: %w", courseID, err)
			}
		}

		if err := repos.Teachers.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete teacher: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Teacher %s deleted with %d allocations", id, removed)
	return nil
}

func (s *ReferenceService) CheckDeleteTeacher(ctx context.Context, id uuid.UUID) (*domain.DeleteCheck, error) {
	if _, err := s.GetTeacher(ctx, id); err != nil {
		return nil, err
	}
	count, err := s.store.Repos().Allocations.CountByTeacher(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count teacher allocations: %w", err)
	}
	return newDeleteCheck("teacher", count), nil
}

func newDeleteCheck(entity string, count int) *domain.DeleteCheck {
	check := &domain.DeleteCheck{CanDelete: true, AllocationCount: count}
	if count == 0 {
		check.Message = fmt.Sprintf("%s has no allocations and can be deleted", entity)
	} else {
		check.Message = fmt.Sprintf("deleting this %s also removes %d allocation(s)", entity, count)
	}
	return check
}

// Courses

func (s *ReferenceService) ListCourses(ctx context.Context) ([]*domain.Course, error) {
	courses, err := s.store.Repos().Courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *ReferenceService) GetCourse(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	course, err := s.store.Repos().Courses.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, domain.NewNotFoundError("course", id)
	}
	return course, nil
}

// CreateCourse derives the allocation capacity from credit hours and the
// program's section count; availability starts at capacity
func (s *ReferenceService) CreateCourse(ctx context.Context, req *domain.CreateCourseRequest) (*domain.Course, error) {
	req.CourseCode = strings.ToUpper(strings.TrimSpace(req.CourseCode))
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.Program = strings.TrimSpace(req.Program)
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	courseType, err := domain.ParseCourseType(req.CourseType)
	if err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	program, err := repos.Programs.GetByName(ctx, req.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if program == nil {
		return nil, domain.NewInvalidReferenceError("program", req.Program)
	}

	capacity := domain.UnitsPerSection(req.CreditHours, s.creditUnit) * program.SectionCount
	course := &domain.Course{
		CourseID:               uuid.New(),
		CourseCode:             req.CourseCode,
		CourseName:             req.CourseName,
		CreditHours:            req.CreditHours,
		Program:                program.Name,
		CourseType:             courseType,
		AllocationCapacity:     capacity,
		AllocationAvailability: capacity,
	}
	if err := repos.Courses.Create(ctx, course); err != nil {
		if dup := duplicateError(err, "course "+req.CourseCode); dup != nil {
			return nil, dup
		}
		if errors.Is(err, interfaces.ErrForeignKey) {
			return nil, domain.NewInvalidReferenceError("program", req.Program)
		}
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	logger.Info("Course created: %s (%s) with capacity %d", course.CourseCode, course.CourseID, capacity)
	return course, nil
}

// DeleteCourse removes the course and its allocations in one transaction
func (s *ReferenceService) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	var removed int64
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		course, err := repos.Courses.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to lock course: %w", err)
		}
		if course == nil {
			return domain.NewNotFoundError("course", id)
		}
		if removed, err = repos.Allocations.DeleteByCourse(ctx, id); err != nil {
			return fmt.Errorf("failed to delete course allocations: %w", err)
		}
		if err := repos.Courses.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete course: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Course %s deleted with %d allocations", id, removed)
	return nil
}

func (s *ReferenceService) CheckDeleteCourse(ctx context.Context, id uuid.UUID) (*domain.DeleteCheck, error) {
	if _, err := s.GetCourse(ctx, id); err != nil {
		return nil, err
	}
	count, err := s.store.Repos().Allocations.CountByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count course allocations: %w", err)
	}
	return newDeleteCheck("course", count), nil
}

// Rooms

func (s *ReferenceService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	rooms, err := s.store.Repos().Rooms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

func (s *ReferenceService) CreateRoom(ctx context.Context, req *domain.CreateRoomRequest) (*domain.Room, error) {
	req.RoomNumber = strings.TrimSpace(req.RoomNumber)
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	room := &domain.Room{
		RoomID:     uuid.New(),
		RoomNumber: req.RoomNumber,
		Capacity:   req.Capacity,
		IsLab:      req.IsLab,
	}
	if err := s.store.Repos().Rooms.Create(ctx, room); err != nil {
		if dup := duplicateError(err, "room "+req.RoomNumber); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	logger.Info("Room created: %s (lab=%t)", room.RoomNumber, room.IsLab)
	return room, nil
}

// Calendar

func (s *ReferenceService) ListPrograms(ctx context.Context) ([]*domain.Program, error) {
	programs, err := s.store.Repos().Programs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

func (s *ReferenceService) ListDays(ctx context.Context) ([]*domain.Day, error) {
	days, err := s.catalog.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	return days, nil
}

func (s *ReferenceService) ListTimeSlots(ctx context.Context, slotType string) ([]*domain.TimeSlot, error) {
	var filter domain.CourseType
	if slotType != "" {
		t, err := domain.ParseCourseType(slotType)
		if err != nil {
			return nil, err
		}
		filter = t
	}

	slots, err := s.catalog.ListTimeSlots(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}
