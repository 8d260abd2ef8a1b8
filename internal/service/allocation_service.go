package service

import (
	"context"
	"errors"
	"fmt"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"
	serviceInterfaces "course-routine/internal/interfaces/service"
	"course-routine/pkg/logger"
	"course-routine/pkg/validator"

	"github.com/google/uuid"
)

// hoursEpsilon absorbs float error when comparing summed slot durations with a ceiling
const hoursEpsilon = 1e-9

var _ serviceInterfaces.AllocationService = (*AllocationService)(nil)

// Limits configures admission
type Limits struct {
	CreditUnit     float64
	DailyMaxHours  float64
	WeeklyMaxHours float64
}

type AllocationService struct {
	store  interfaces.Store
	limits Limits
}

func NewAllocationService(store interfaces.Store, limits Limits) *AllocationService {
	return &AllocationService{
		store:  store,
		limits: limits,
	}
}

// resolved holds the reference rows an admission was checked against
type resolved struct {
	teacher *domain.Teacher
	course  *domain.Course
	room    *domain.Room
	day     *domain.Day
	slot    *domain.TimeSlot
	program *domain.Program
}

// Admit validates a candidate allocation and commits it together with the
// course counter update, or rejects it naming the rule that failed.
func (s *AllocationService) Admit(ctx context.Context, req *domain.AdmitRequest) (*domain.AllocationDetail, error) {
	if err := validateAdmitRequest(req); err != nil {
		return nil, err
	}

	var detail *domain.AllocationDetail
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		ref, err := resolveAdmission(ctx, repos, req)
		if err != nil {
			return err
		}

		if err := checkCompatibility(ref, req); err != nil {
			return err
		}
		if err := repos.Allocations.LockSection(ctx, ref.program.Name, req.Section); err != nil {
			return fmt.Errorf("failed to lock section: %w", err)
		}

		calc := &calculator{repos: repos, creditUnit: s.limits.CreditUnit}
		freeRooms, err := calc.freeRooms(ctx, ref.day.DayID, ref.slot, ref.course.CourseType)
		if err != nil {
			return err
		}
		if !containsRoom(freeRooms, ref.room.RoomID) {
			return domain.NewConflictError(domain.RuleRoomUnavailable,
				fmt.Sprintf("room unavailable: room %s is not free on %s %s", ref.room.RoomNumber, ref.day.DayName, ref.slot.Label()))
		}

		slots, err := repos.Calendar.ListTimeSlots(ctx, "")
		if err != nil {
			return fmt.Errorf("failed to list time slots: %w", err)
		}
		slotsByID := slotIndex(slots)

		teacherAllocations, err := repos.Allocations.ListByTeacher(ctx, ref.teacher.TeacherID)
		if err != nil {
			return fmt.Errorf("failed to list teacher allocations: %w", err)
		}
		if err := checkOverlaps(ctx, repos, ref, req, teacherAllocations, slotsByID); err != nil {
			return err
		}

		allocation := &domain.Allocation{
			TeacherID: ref.teacher.TeacherID,
			CourseID:  ref.course.CourseID,
			RoomID:    ref.room.RoomID,
			DayID:     ref.day.DayID,
			SlotID:    ref.slot.SlotID,
			Program:   ref.program.Name,
			Section:   req.Section,
		}
		if err := repos.Allocations.Create(ctx, allocation); err != nil {
			return translateInsertError(err)
		}

		if err := s.checkQuota(ctx, repos, ref, req.Section); err != nil {
			return err
		}
		if err := s.checkWorkload(ref, teacherAllocations, slotsByID); err != nil {
			return err
		}

		if err := decrementAvailability(ctx, repos, ref.course); err != nil {
			return err
		}

		detail = domain.NewAllocationDetail(allocation, ref.teacher, ref.course, ref.room, ref.day, ref.slot)
		return nil
	})
	if err != nil {
		if domain.KindOf(err) != "" {
			logger.Warn("Allocation rejected for course %s section %d: %v", req.CourseID, req.Section, err)
		} else {
			logger.Error("Allocation transaction failed for course %s: %v", req.CourseID, err)
		}
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"allocation_id": detail.AllocationID,
		"course":        detail.CourseCode,
		"teacher":       detail.TeacherName,
		"room":          detail.RoomNumber,
		"day":           detail.DayName,
		"slot":          SlotLabel(detail),
		"section":       fmt.Sprintf("%s-%d", detail.Program, detail.Section),
	}).Info("Allocation committed")
	return detail, nil
}

// SlotLabel renders the slot period of a joined allocation
func SlotLabel(d *domain.AllocationDetail) string {
	return domain.SlotLabel(d.StartTime, d.EndTime)
}

func validateAdmitRequest(req *domain.AdmitRequest) error {
	if req == nil {
		return domain.NewMissingFieldsError([]string{"teacher_id", "course_id", "room_id", "day_id", "slot_id", "program", "section"})
	}

	err := validator.ValidateStruct(req)
	if err == nil {
		return nil
	}

	var missing []string
	for _, f := range validator.FormatValidationError(err) {
		if f.Tag == "required" {
			missing = append(missing, f.Field)
		}
	}
	if len(missing) > 0 {
		return domain.NewMissingFieldsError(missing)
	}
	return domain.NewValidationError(domain.RuleRequiredFields, validator.Summary(err))
}

// decrementAvailability takes one unit from the course counter. The counter is a
// cache of capacity minus the live count: when it has drifted to zero it is
// rewritten from the live count, which already includes the new allocation.
func decrementAvailability(ctx context.Context, repos interfaces.Repositories, course *domain.Course) error {
	_, err := repos.Courses.AdjustAvailability(ctx, course.CourseID, -1)
	if err == nil {
		return nil
	}
	if !errors.Is(err, interfaces.ErrCounterUnderflow) {
		return fmt.Errorf("failed to update course availability: %w", err)
	}

	live, err := repos.Allocations.CountByCourse(ctx, course.CourseID)
	if err != nil {
		return fmt.Errorf("failed to count allocations for %s: %w", course.CourseCode, err)
	}
	target := course.AllocationCapacity - live
	if target < 0 {
		target = 0
	}
	if err := repos.Courses.SetAvailability(ctx, course.CourseID, target); err != nil {
		return fmt.Errorf("failed to repair counter for %s: %w", course.CourseCode, err)
	}
	logger.WithFields(map[string]interface{}{
		"course":    course.CourseCode,
		"cached":    course.AllocationAvailability,
		"allocated": live,
		"repaired":  target,
	}).Warn("Allocation counter drift repaired during admission")
	return nil
}

func resolveAdmission(ctx context.Context, repos interfaces.Repositories, req *domain.AdmitRequest) (*resolved, error) {
	ref := &resolved{}
	var err error

	if ref.course, err = repos.Courses.GetByIDForUpdate(ctx, req.CourseID); err != nil {
		return nil, fmt.Errorf("failed to lock course: %w", err)
	}
	if ref.course == nil {
		return nil, domain.NewInvalidReferenceError("course", req.CourseID)
	}
	// the teacher lock orders concurrent admissions of one teacher across courses
	if ref.teacher, err = repos.Teachers.GetByIDForUpdate(ctx, req.TeacherID); err != nil {
		return nil, fmt.Errorf("failed to lock teacher: %w", err)
	}
	if ref.teacher == nil {
		return nil, domain.NewInvalidReferenceError("teacher", req.TeacherID)
	}
	if ref.room, err = repos.Rooms.GetByID(ctx, req.RoomID); err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	if ref.room == nil {
		return nil, domain.NewInvalidReferenceError("room", req.RoomID)
	}
	if ref.day, err = repos.Calendar.GetDay(ctx, req.DayID); err != nil {
		return nil, fmt.Errorf("failed to get day: %w", err)
	}
	if ref.day == nil {
		return nil, domain.NewInvalidReferenceError("day", req.DayID)
	}
	if ref.slot, err = repos.Calendar.GetTimeSlot(ctx, req.SlotID); err != nil {
		return nil, fmt.Errorf("failed to get time slot: %w", err)
	}
	if ref.slot == nil {
		return nil, domain.NewInvalidReferenceError("time slot", req.SlotID)
	}
	if ref.program, err = repos.Programs.GetByName(ctx, req.Program); err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	if ref.program == nil {
		return nil, domain.NewInvalidReferenceError("program", req.Program)
	}
	return ref, nil
}

func checkCompatibility(ref *resolved, req *domain.AdmitRequest) error {
	if ref.program.Name != ref.course.Program {
		return domain.NewValidationError(domain.RuleProgramMismatch,
			fmt.Sprintf("course %s belongs to program %s, not %s", ref.course.CourseCode, ref.course.Program, ref.program.Name))
	}
	if req.Section < 1 || req.Section > ref.program.SectionCount {
		return domain.NewValidationError(domain.RuleSectionRange,
			fmt.Sprintf("section %d is out of range for program %s (1..%d)", req.Section, ref.program.Name, ref.program.SectionCount))
	}
	if ref.course.CourseType != ref.slot.SlotType {
		return domain.NewValidationError(domain.RuleSlotType,
			fmt.Sprintf("%s course %s cannot use %s slot %s", ref.course.CourseType, ref.course.CourseCode, ref.slot.SlotType, ref.slot.Label()))
	}
	if ref.course.CourseType == domain.CourseTypeLab && !ref.room.IsLab {
		return domain.NewValidationError(domain.RuleRoomType,
			fmt.Sprintf("lab course %s requires a lab room, room %s is not a lab", ref.course.CourseCode, ref.room.RoomNumber))
	}
	if ref.course.CourseType == domain.CourseTypeTheory && ref.room.IsLab {
		return domain.NewValidationError(domain.RuleRoomType,
			fmt.Sprintf("theory course %s cannot use lab room %s", ref.course.CourseCode, ref.room.RoomNumber))
	}
	return nil
}

// checkOverlaps catches teacher and section bookings in a different slot id
// whose period overlaps the candidate, such as a lab block over a theory period.
// Same-slot collisions are left to the unique constraints.
func checkOverlaps(ctx context.Context, repos interfaces.Repositories, ref *resolved, req *domain.AdmitRequest, teacherAllocations []*domain.Allocation, slotsByID map[int]*domain.TimeSlot) error {
	for _, a := range teacherAllocations {
		if a.DayID != ref.day.DayID || a.SlotID == ref.slot.SlotID {
			continue
		}
		if other, ok := slotsByID[a.SlotID]; ok && domain.Overlaps(other, ref.slot) {
			return domain.NewConflictError(domain.RuleTeacherBooked,
				fmt.Sprintf("teacher already booked: %s teaches %s on %s", ref.teacher.Name, other.Label(), ref.day.DayName))
		}
	}

	used, err := repos.Allocations.SlotIDsUsed(ctx, ref.day.DayID, ref.program.Name, req.Section)
	if err != nil {
		return fmt.Errorf("failed to list section slots: %w", err)
	}
	for _, id := range used {
		if id == ref.slot.SlotID {
			continue
		}
		if other, ok := slotsByID[id]; ok && domain.Overlaps(other, ref.slot) {
			return domain.NewConflictError(domain.RuleSectionBooked,
				fmt.Sprintf("section already booked: %s-%d has a class during %s on %s", ref.program.Name, req.Section, other.Label(), ref.day.DayName))
		}
	}
	return nil
}

func translateInsertError(err error) error {
	var dup *interfaces.DuplicateError
	if !errors.As(err, &dup) {
		return fmt.Errorf("failed to insert allocation: %w", err)
	}

	switch dup.Constraint {
	case interfaces.ConstraintRoomDaySlot:
		return domain.NewConflictError(domain.RuleRoomBooked, "room already booked")
	case interfaces.ConstraintTeacherDaySlot:
		return domain.NewConflictError(domain.RuleTeacherBooked, "teacher already booked")
	case interfaces.ConstraintSectionDaySlot:
		return domain.NewConflictError(domain.RuleSectionBooked, "section already booked")
	default:
		return domain.NewConflictError(domain.RuleDuplicate, dup.Error())
	}
}

// checkQuota runs after the insert, so the live count includes the candidate
func (s *AllocationService) checkQuota(ctx context.Context, repos interfaces.Repositories, ref *resolved, section int) error {
	count, err := repos.Allocations.CountBySection(ctx, ref.course.CourseID, ref.program.Name, section)
	if err != nil {
		return fmt.Errorf("failed to count section allocations: %w", err)
	}

	units := domain.UnitsPerSection(ref.course.CreditHours, s.limits.CreditUnit)
	if count > units {
		return domain.NewConstraintError(domain.Violation{
			Rule:      domain.RuleSectionQuota,
			Limit:     float64(units),
			Current:   float64(count - 1),
			Attempted: float64(count),
		}, fmt.Sprintf("section quota exceeded: %s section %d already has %d of %d weekly classes",
			ref.course.CourseCode, section, count-1, units))
	}
	return nil
}

// checkWorkload sums contact hours of the teacher's committed allocations plus the candidate
func (s *AllocationService) checkWorkload(ref *resolved, committed []*domain.Allocation, slotsByID map[int]*domain.TimeSlot) error {
	candidate := ref.slot.Hours()

	if s.limits.DailyMaxHours > 0 {
		current := domain.WorkloadHours(committed, slotsByID, ref.day.DayID)
		attempted := current + candidate
		if attempted > s.limits.DailyMaxHours+hoursEpsilon {
			v := domain.Violation{Rule: domain.RuleDailyWorkload, Limit: s.limits.DailyMaxHours, Current: current, Attempted: attempted}
			return domain.NewConstraintError(v, fmt.Sprintf(
				"daily workload limit exceeded for %s on %s: %.2fh committed + %.2fh requested = %.2fh, limit %.2fh (over by %.2fh)",
				ref.teacher.Name, ref.day.DayName, current, candidate, attempted, v.Limit, v.OverBy()))
		}
	}

	if s.limits.WeeklyMaxHours > 0 {
		current := domain.WorkloadHours(committed, slotsByID, 0)
		attempted := current + candidate
		if attempted > s.limits.WeeklyMaxHours+hoursEpsilon {
			v := domain.Violation{Rule: domain.RuleWeeklyWorkload, Limit: s.limits.WeeklyMaxHours, Current: current, Attempted: attempted}
			return domain.NewConstraintError(v, fmt.Sprintf(
				"weekly workload limit exceeded for %s: %.2fh committed + %.2fh requested = %.2fh, limit %.2fh (over by %.2fh)",
				ref.teacher.Name, current, candidate, attempted, v.Limit, v.OverBy()))
		}
	}
	return nil
}

func containsRoom(rooms []*domain.Room, id uuid.UUID) bool {
	for _, r := range rooms {
		if r.RoomID == id {
			return true
		}
	}
	return false
}

// Revoke removes one allocation and gives its unit back to the course counter
func (s *AllocationService) Revoke(ctx context.Context, allocationID uuid.UUID) error {
	var revoked *domain.Allocation
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		// course before allocation, the order admission and the deletion cascades use
		allocation, err := repos.Allocations.GetByID(ctx, allocationID)
		if err != nil {
			return fmt.Errorf("failed to get allocation: %w", err)
		}
		if allocation == nil {
			return domain.NewNotFoundError("allocation", allocationID)
		}

		if _, err := repos.Courses.GetByIDForUpdate(ctx, allocation.CourseID); err != nil {
			return fmt.Errorf("failed to lock course: %w", err)
		}
		if allocation, err = repos.Allocations.GetByIDForUpdate(ctx, allocationID); err != nil {
			return fmt.Errorf("failed to lock allocation: %w", err)
		}
		if allocation == nil {
			return domain.NewNotFoundError("allocation", allocationID)
		}
		if err := repos.Allocations.Delete(ctx, allocationID); err != nil {
			return fmt.Errorf("failed to delete allocation: %w", err)
		}
		if _, err := repos.Courses.AdjustAvailability(ctx, allocation.CourseID, 1); err != nil {
			return fmt.Errorf("failed to restore course availability: %w", err)
		}

		revoked = allocation
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Allocation %s revoked (course %s, %s-%d)", allocationID, revoked.CourseID, revoked.Program, revoked.Section)
	return nil
}

// ReconcileCounters compares every course counter with capacity minus the live
// allocation count. With repair set, drifted counters are rewritten.
func (s *AllocationService) ReconcileCounters(ctx context.Context, repair bool) ([]domain.CounterDrift, error) {
	if !repair {
		return detectDrift(ctx, s.store.Repos())
	}

	var drifts []domain.CounterDrift
	err := s.store.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		found, err := detectDrift(ctx, repos)
		if err != nil {
			return err
		}

		for i := range found {
			d := &found[i]
			course, err := repos.Courses.GetByIDForUpdate(ctx, d.CourseID)
			if err != nil {
				return fmt.Errorf("failed to lock course %s: %w", d.CourseCode, err)
			}
			if course == nil {
				continue
			}
			live, err := repos.Allocations.CountByCourse(ctx, d.CourseID)
			if err != nil {
				return fmt.Errorf("failed to count allocations for %s: %w", d.CourseCode, err)
			}

			d.Allocated = live
			d.Cached = course.AllocationAvailability
			d.Expected = course.AllocationCapacity - live
			target := d.Expected
			if target < 0 {
				target = 0
			}
			if err := repos.Courses.SetAvailability(ctx, d.CourseID, target); err != nil {
				return fmt.Errorf("failed to repair counter for %s: %w", d.CourseCode, err)
			}
			d.Repaired = true
			logger.Warn("Repaired allocation counter for %s: %d -> %d", d.CourseCode, d.Cached, target)
		}

		drifts = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return drifts, nil
}

func detectDrift(ctx context.Context, repos interfaces.Repositories) ([]domain.CounterDrift, error) {
	courses, err := repos.Courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	counts, err := repos.Allocations.CountsByCourse(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count allocations: %w", err)
	}

	drifts := []domain.CounterDrift{}
	for _, c := range courses {
		expected := c.AllocationCapacity - counts[c.CourseID]
		if expected == c.AllocationAvailability {
			continue
		}
		drifts = append(drifts, domain.CounterDrift{
			CourseID:   c.CourseID,
			CourseCode: c.CourseCode,
			Capacity:   c.AllocationCapacity,
			Allocated:  counts[c.CourseID],
			Cached:     c.AllocationAvailability,
			Expected:   expected,
		})
	}
	return drifts, nil
}
