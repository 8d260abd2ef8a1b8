package service

import (
	"context"
	"fmt"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	serviceInterfaces "course-routine/internal/interfaces/service"

	"github.com/google/uuid"
)

var _ serviceInterfaces.AvailabilityService = (*AvailabilityService)(nil)

// calculator holds the availability rules. It runs against plain repositories
// for the wizard queries and against transaction repositories during admission.
type calculator struct {
	repos      interfaces.Repositories
	creditUnit float64
}

func (c *calculator) program(ctx context.Context, name string) (*domain.Program, error) {
	program, err := c.repos.Programs.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get program %s: %w", name, err)
	}
	return program, nil
}

func (c *calculator) sections(ctx context.Context, course *domain.Course) ([]domain.SectionAvailability, error) {
	program, err := c.program(ctx, course.Program)
	if err != nil {
		return nil, err
	}
	if program == nil {
		return nil, fmt.Errorf("course %s references missing program %s", course.CourseCode, course.Program)
	}

	counts, err := c.repos.Allocations.CountsBySection(ctx, course.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count allocations for course %s: %w", course.CourseCode, err)
	}

	units := domain.UnitsPerSection(course.CreditHours, c.creditUnit)
	sections := make([]domain.SectionAvailability, 0, program.SectionCount)
	for n := 1; n <= program.SectionCount; n++ {
		remaining := units - counts[n]
		if remaining < 0 {
			remaining = 0
		}
		sections = append(sections, domain.SectionAvailability{
			SectionNumber:    n,
			MaxAllocations:   units,
			AllocationsCount: counts[n],
			Remaining:        remaining,
		})
	}
	return sections, nil
}

// checkSection rejects a section number outside 1..program.SectionCount
func (c *calculator) checkSection(ctx context.Context, programName string, section int) error {
	program, err := c.program(ctx, programName)
	if err != nil {
		return err
	}
	if program == nil {
		return domain.NewInvalidReferenceError("program", programName)
	}
	if section < 1 || section > program.SectionCount {
		return domain.NewValidationError(domain.RuleSectionRange,
			fmt.Sprintf("section %d is out of range for program %s (1..%d)", section, program.Name, program.SectionCount))
	}
	return nil
}

func (c *calculator) days(ctx context.Context, course *domain.Course, section int) ([]*domain.Day, error) {
	days, err := c.repos.Calendar.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list days: %w", err)
	}
	used, err := c.repos.Allocations.DayIDsUsed(ctx, course.CourseID, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list used days: %w", err)
	}

	taken := make(map[int]bool, len(used))
	for _, id := range used {
		taken[id] = true
	}

	available := make([]*domain.Day, 0, len(days))
	for _, d := range days {
		if !taken[d.DayID] {
			available = append(available, d)
		}
	}
	return available, nil
}

func (c *calculator) timeSlots(ctx context.Context, day *domain.Day, course *domain.Course, program string, section int) ([]*domain.TimeSlot, error) {
	all, err := c.repos.Calendar.ListTimeSlots(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	used, err := c.repos.Allocations.SlotIDsUsed(ctx, day.DayID, program, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list used slots: %w", err)
	}

	byID := slotIndex(all)
	var busy []*domain.TimeSlot
	for _, id := range used {
		if s, ok := byID[id]; ok {
			busy = append(busy, s)
		}
	}

	available := make([]*domain.TimeSlot, 0, len(all))
	for _, s := range all {
		if s.SlotType != course.CourseType {
			continue
		}
		if overlapsAny(s, busy) {
			continue
		}
		available = append(available, s)
	}
	return available, nil
}

// freeRooms lists rooms of courseType with no allocation in any period overlapping slot
func (c *calculator) freeRooms(ctx context.Context, dayID int, slot *domain.TimeSlot, courseType domain.CourseType) ([]*domain.Room, error) {
	all, err := c.repos.Calendar.ListTimeSlots(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}

	overlapping := []int{slot.SlotID}
	for _, s := range all {
		if s.SlotID != slot.SlotID && domain.Overlaps(s, slot) {
			overlapping = append(overlapping, s.SlotID)
		}
	}

	booked, err := c.repos.Allocations.RoomIDsBooked(ctx, dayID, overlapping)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked rooms: %w", err)
	}
	taken := make(map[uuid.UUID]bool, len(booked))
	for _, id := range booked {
		taken[id] = true
	}

	rooms, err := c.repos.Rooms.ListByLab(ctx, courseType == domain.CourseTypeLab)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	available := make([]*domain.Room, 0, len(rooms))
	for _, r := range rooms {
		if !taken[r.RoomID] {
			available = append(available, r)
		}
	}
	return available, nil
}

func slotIndex(slots []*domain.TimeSlot) map[int]*domain.TimeSlot {
	index := make(map[int]*domain.TimeSlot, len(slots))
	for _, s := range slots {
		index[s.SlotID] = s
	}
	return index
}

func overlapsAny(slot *domain.TimeSlot, others []*domain.TimeSlot) bool {
	for _, o := range others {
		if o.SlotID == slot.SlotID || domain.Overlaps(slot, o) {
			return true
		}
	}
	return false
}

// AvailabilityService serves the read-only calculators
type AvailabilityService struct {
	store      interfaces.Store
	catalog    interfaces.CalendarRepository
	creditUnit float64
}

// NewAvailabilityService creates the calculators. catalog may be nil to read
// days and slots straight from the store.
func NewAvailabilityService(store interfaces.Store, catalog interfaces.CalendarRepository, creditUnit float64) *AvailabilityService {
	return &AvailabilityService{
		store:      store,
		catalog:    catalog,
		creditUnit: creditUnit,
	}
}

func (s *AvailabilityService) calc() *calculator {
	repos := s.store.Repos()
	if s.catalog != nil {
		repos.Calendar = s.catalog
	}
	return &calculator{repos: repos, creditUnit: s.creditUnit}
}

func (s *AvailabilityService) course(ctx context.Context, c *calculator, courseID uuid.UUID) (*domain.Course, error) {
	course, err := c.repos.Courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, domain.NewNotFoundError("course", courseID)
	}
	return course, nil
}

// AvailableSections reports every section of the course with its remaining quota
func (s *AvailabilityService) AvailableSections(ctx context.Context, courseID uuid.UUID) ([]domain.SectionAvailability, error) {
	c := s.calc()
	course, err := s.course(ctx, c, courseID)
	if err != nil {
		return nil, err
	}
	return c.sections(ctx, course)
}

// AvailableDays lists days on which the course section has no allocation yet
func (s *AvailabilityService) AvailableDays(ctx context.Context, courseID uuid.UUID, section int) ([]*domain.Day, error) {
	c := s.calc()
	course, err := s.course(ctx, c, courseID)
	if err != nil {
		return nil, err
	}
	if err := c.checkSection(ctx, course.Program, section); err != nil {
		return nil, err
	}
	return c.days(ctx, course, section)
}

// AvailableTimeSlots lists slots of the course's type that the section has free on the day
func (s *AvailabilityService) AvailableTimeSlots(ctx context.Context, dayID, section int, program string, courseID uuid.UUID) ([]*domain.TimeSlot, error) {
	c := s.calc()
	day, err := c.repos.Calendar.GetDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	if day == nil {
		return nil, domain.NewInvalidReferenceError("day", dayID)
	}

	course, err := s.course(ctx, c, courseID)
	if err != nil {
		return nil, err
	}
	if program == "" {
		program = course.Program
	}
	if program != course.Program {
		return nil, domain.NewValidationError(domain.RuleProgramMismatch,
			fmt.Sprintf("course %s belongs to program %s, not %s", course.CourseCode, course.Program, program))
	}
	if err := c.checkSection(ctx, program, section); err != nil {
		return nil, err
	}

	return c.timeSlots(ctx, day, course, program, section)
}

// AvailableRooms lists rooms compatible with courseType that are free at (day, slot).
// An empty courseType uses the slot's own type.
func (s *AvailabilityService) AvailableRooms(ctx context.Context, dayID, slotID int, courseType string) ([]*domain.Room, error) {
	c := s.calc()
	day, err := c.repos.Calendar.GetDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	if day == nil {
		return nil, domain.NewInvalidReferenceError("day", dayID)
	}
	slot, err := c.repos.Calendar.GetTimeSlot(ctx, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	if slot == nil {
		return nil, domain.NewInvalidReferenceError("time slot", slotID)
	}

	roomType := slot.SlotType
	if courseType != "" {
		roomType, err = domain.ParseCourseType(courseType)
		if err != nil {
			return nil, err
		}
	}

	return c.freeRooms(ctx, day.DayID, slot, roomType)
}

// CandidateCourses lists courses whose cached counter still shows open units
func (s *AvailabilityService) CandidateCourses(ctx context.Context) ([]*domain.Course, error) {
	courses, err := s.store.Repos().Courses.ListWithAvailability(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate courses: %w", err)
	}
	return courses, nil
}
