package service

import (
	"context"
	"fmt"
	"strings"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	serviceInterfaces "course-routine/internal/interfaces/service"

	"github.com/google/uuid"
)

var _ serviceInterfaces.RoutineService = (*RoutineService)(nil)

// RoutineService projects the allocation set into section and teacher routines
type RoutineService struct {
	store   interfaces.Store
	catalog interfaces.CalendarRepository
}

func NewRoutineService(store interfaces.Store, catalog interfaces.CalendarRepository) *RoutineService {
	if catalog == nil {
		catalog = store.Repos().Calendar
	}
	return &RoutineService{
		store:   store,
		catalog: catalog,
	}
}

// FormatRoutine builds the day by slot grid of one program section. The
// theory periods are the display rows lab blocks are measured against.
func (s *RoutineService) FormatRoutine(ctx context.Context, program string, section int) (domain.RoutineGrid, error) {
	program = strings.TrimSpace(program)
	if program == "" {
		return nil, domain.NewMissingFieldsError([]string{"program"})
	}
	if section < 1 {
		return nil, domain.NewValidationError(domain.RuleSectionRange, fmt.Sprintf("section must be at least 1, got %d", section))
	}

	p, err := s.store.Repos().Programs.GetByName(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if p == nil {
		return nil, domain.NewInvalidReferenceError("program", program)
	}

	details, err := s.store.Reader().ListDetails(ctx, interfaces.AllocationFilter{Program: p.Name, Section: section})
	if err != nil {
		return nil, fmt.Errorf("failed to list routine allocations: %w", err)
	}
	rows, err := s.catalog.ListTimeSlots(ctx, domain.CourseTypeTheory)
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}

	return domain.BuildRoutineGrid(details, rows), nil
}

func (s *RoutineService) FormatTeacherRoutine(ctx context.Context, teacherID uuid.UUID) ([]domain.TeacherRoutineEntry, error) {
	teacher, err := s.store.Repos().Teachers.GetByID(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil, domain.NewNotFoundError("teacher", teacherID)
	}

	details, err := s.store.Reader().ListDetails(ctx, interfaces.AllocationFilter{TeacherID: teacherID})
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher allocations: %w", err)
	}
	return domain.BuildTeacherRoutine(details), nil
}

// ListAllocations returns every allocation joined with its references, in day and slot order
func (s *RoutineService) ListAllocations(ctx context.Context) ([]*domain.AllocationDetail, error) {
	details, err := s.store.Reader().ListDetails(ctx, interfaces.AllocationFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	return details, nil
}

func (s *RoutineService) TeachersWithAllocations(ctx context.Context) ([]*domain.Teacher, error) {
	teachers, err := s.store.Reader().TeachersWithAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teachers with allocations: %w", err)
	}
	return teachers, nil
}

// TeacherForCourse returns the teacher of the course's earliest allocation
func (s *RoutineService) TeacherForCourse(ctx context.Context, courseID uuid.UUID) (*domain.Teacher, error) {
	repos := s.store.Repos()
	course, err := repos.Courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, domain.NewNotFoundError("course", courseID)
	}

	details, err := s.store.Reader().ListDetails(ctx, interfaces.AllocationFilter{CourseID: courseID})
	if err != nil {
		return nil, fmt.Errorf("failed to list course allocations: %w", err)
	}
	if len(details) == 0 {
		return nil, domain.NewNotFoundError("teacher for course", course.CourseCode)
	}

	teacher, err := repos.Teachers.GetByID(ctx, details[0].TeacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teacher: %w", err)
	}
	if teacher == nil {
		return nil, domain.NewNotFoundError("teacher", details[0].TeacherID)
	}
	return teacher, nil
}
