package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

var _ interfaces.Store = (*MemoryStore)(nil)

// MemoryStore keeps every table in process. A transaction holds the store
// lock for its whole duration and restores a snapshot when fn fails, and the
// unique and foreign key constraints of the SQL schema are enforced on write.
type MemoryStore struct {
	mu   sync.Mutex
	data *memoryData
}

type memoryData struct {
	teachers    map[uuid.UUID]domain.Teacher
	courses     map[uuid.UUID]domain.Course
	rooms       map[uuid.UUID]domain.Room
	days        map[int]domain.Day
	slots       map[int]domain.TimeSlot
	programs    map[string]domain.Program
	allocations map[uuid.UUID]domain.Allocation
}

func newMemoryData() *memoryData {
	return &memoryData{
		teachers:    make(map[uuid.UUID]domain.Teacher),
		courses:     make(map[uuid.UUID]domain.Course),
		rooms:       make(map[uuid.UUID]domain.Room),
		days:        make(map[int]domain.Day),
		slots:       make(map[int]domain.TimeSlot),
		programs:    make(map[string]domain.Program),
		allocations: make(map[uuid.UUID]domain.Allocation),
	}
}

func (d *memoryData) clone() *memoryData {
	c := newMemoryData()
	for k, v := range d.teachers {
		c.teachers[k] = v
	}
	for k, v := range d.courses {
		c.courses[k] = v
	}
	for k, v := range d.rooms {
		c.rooms[k] = v
	}
	for k, v := range d.days {
		c.days[k] = v
	}
	for k, v := range d.slots {
		c.slots[k] = v
	}
	for k, v := range d.programs {
		c.programs[k] = v
	}
	for k, v := range d.allocations {
		c.allocations[k] = v
	}
	return c
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: newMemoryData()}
}

// NewSeededMemoryStore returns a store holding the same days, time slots and
// programs the SQL migrations seed
func NewSeededMemoryStore() *MemoryStore {
	s := NewMemoryStore()
	for _, d := range SeedDays() {
		s.data.days[d.DayID] = d
	}
	for _, ts := range SeedTimeSlots() {
		s.data.slots[ts.SlotID] = ts
	}
	for _, p := range SeedPrograms() {
		s.data.programs[p.Name] = p
	}
	return s
}

// SeedDays mirrors migration 003
func SeedDays() []domain.Day {
	return []domain.Day{
		{DayID: 1, DayName: "Monday", DayOrder: 1},
		{DayID: 2, DayName: "Tuesday", DayOrder: 2},
		{DayID: 3, DayName: "Wednesday", DayOrder: 3},
		{DayID: 4, DayName: "Thursday", DayOrder: 4},
		{DayID: 5, DayName: "Friday", DayOrder: 5},
	}
}

// SeedTimeSlots mirrors migration 003
func SeedTimeSlots() []domain.TimeSlot {
	return []domain.TimeSlot{
		{SlotID: 1, StartTime: "08:00", EndTime: "09:15", SlotType: domain.CourseTypeTheory, SlotOrder: 1},
		{SlotID: 2, StartTime: "09:15", EndTime: "10:30", SlotType: domain.CourseTypeTheory, SlotOrder: 2},
		{SlotID: 3, StartTime: "10:30", EndTime: "11:45", SlotType: domain.CourseTypeTheory, SlotOrder: 3},
		{SlotID: 4, StartTime: "11:45", EndTime: "13:00", SlotType: domain.CourseTypeTheory, SlotOrder: 4},
		{SlotID: 5, StartTime: "08:00", EndTime: "10:30", SlotType: domain.CourseTypeLab, SlotOrder: 5},
		{SlotID: 6, StartTime: "10:30", EndTime: "13:00", SlotType: domain.CourseTypeLab, SlotOrder: 6},
	}
}

// SeedPrograms mirrors migration 003
func SeedPrograms() []domain.Program {
	return []domain.Program{
		{Name: "CSE", SectionCount: 2},
		{Name: "SWE", SectionCount: 1},
		{Name: "EEE", SectionCount: 3},
		{Name: "ME", SectionCount: 2},
		{Name: "IPE", SectionCount: 1},
		{Name: "CEE", SectionCount: 1},
		{Name: "BTM", SectionCount: 1},
	}
}

// PutProgram inserts or replaces a program row
func (s *MemoryStore) PutProgram(p domain.Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.programs[p.Name] = p
}

func (s *MemoryStore) Repos() interfaces.Repositories {
	return s.repositories(false)
}

func (s *MemoryStore) repositories(inTx bool) interfaces.Repositories {
	h := &memoryHandle{store: s, inTx: inTx}
	return interfaces.Repositories{
		Teachers:    &memoryTeacherRepository{h},
		Courses:     &memoryCourseRepository{h},
		Rooms:       &memoryRoomRepository{h},
		Calendar:    &memoryCalendarRepository{h},
		Programs:    &memoryProgramRepository{h},
		Allocations: &memoryAllocationRepository{h},
	}
}

func (s *MemoryStore) Reader() interfaces.AllocationReader {
	return &memoryReader{&memoryHandle{store: s}}
}

// WithTx serializes fn against every other store access
func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			s.data = snapshot
			panic(r)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s.repositories(true))
}

func (s *MemoryStore) Health(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() error {
	return nil
}

type memoryHandle struct {
	store *MemoryStore
	inTx  bool
}

// with runs fn against the live tables, taking the lock unless a transaction holds it
func (h *memoryHandle) with(ctx context.Context, fn func(d *memoryData) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !h.inTx {
		h.store.mu.Lock()
		defer h.store.mu.Unlock()
	}
	return fn(h.store.data)
}

// Teachers

type memoryTeacherRepository struct{ h *memoryHandle }

func (r *memoryTeacherRepository) Create(ctx context.Context, teacher *domain.Teacher) error {
	return r.h.with(ctx, func(d *memoryData) error {
		for _, t := range d.teachers {
			if strings.EqualFold(t.Email, teacher.Email) {
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintTeacherEmail}
			}
		}
		if teacher.TeacherID == uuid.Nil {
			teacher.TeacherID = uuid.New()
		}
		now := time.Now().UTC()
		teacher.CreatedAt, teacher.UpdatedAt = now, now
		d.teachers[teacher.TeacherID] = *teacher
		return nil
	})
}

func (r *memoryTeacherRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	var out *domain.Teacher
	err := r.h.with(ctx, func(d *memoryData) error {
		if t, ok := d.teachers[id]; ok {
			out = &t
		}
		return nil
	})
	return out, err
}

func (r *memoryTeacherRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryTeacherRepository) GetByEmail(ctx context.Context, email string) (*domain.Teacher, error) {
	var out *domain.Teacher
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, t := range d.teachers {
			if strings.EqualFold(t.Email, email) {
				t := t
				out = &t
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryTeacherRepository) List(ctx context.Context) ([]*domain.Teacher, error) {
	var out []*domain.Teacher
	err := r.h.with(ctx, func(d *memoryData) error {
		out = sortedTeachers(d, func(domain.Teacher) bool { return true })
		return nil
	})
	return out, err
}

func (r *memoryTeacherRepository) Update(ctx context.Context, teacher *domain.Teacher) error {
	return r.h.with(ctx, func(d *memoryData) error {
		current, ok := d.teachers[teacher.TeacherID]
		if !ok {
			return nil
		}
		for id, t := range d.teachers {
			if id != teacher.TeacherID && strings.EqualFold(t.Email, teacher.Email) {
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintTeacherEmail}
			}
		}
		current.Name = teacher.Name
		current.Email = teacher.Email
		current.UpdatedAt = time.Now().UTC()
		d.teachers[teacher.TeacherID] = current
		return nil
	})
}

func (r *memoryTeacherRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.h.with(ctx, func(d *memoryData) error {
		delete(d.teachers, id)
		for aid, a := range d.allocations {
			if a.TeacherID == id {
				delete(d.allocations, aid)
			}
		}
		return nil
	})
}

func sortedTeachers(d *memoryData, keep func(domain.Teacher) bool) []*domain.Teacher {
	out := []*domain.Teacher{}
	for _, t := range d.teachers {
		if keep(t) {
			t := t
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Email < out[j].Email
	})
	return out
}

// Courses

type memoryCourseRepository struct{ h *memoryHandle }

func (r *memoryCourseRepository) Create(ctx context.Context, course *domain.Course) error {
	return r.h.with(ctx, func(d *memoryData) error {
		if _, ok := d.programs[course.Program]; !ok {
			return interfaces.ErrForeignKey
		}
		for _, c := range d.courses {
			if c.CourseCode == course.CourseCode {
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintCourseCode}
			}
		}
		if course.AllocationAvailability < 0 {
			return interfaces.ErrCounterUnderflow
		}
		if course.CourseID == uuid.Nil {
			course.CourseID = uuid.New()
		}
		now := time.Now().UTC()
		course.CreatedAt, course.UpdatedAt = now, now
		d.courses[course.CourseID] = *course
		return nil
	})
}

func (r *memoryCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var out *domain.Course
	err := r.h.with(ctx, func(d *memoryData) error {
		if c, ok := d.courses[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: a transaction already holds the store lock
func (r *memoryCourseRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return r.GetByID(ctx, id)
}

func (r *memoryCourseRepository) GetByCode(ctx context.Context, courseCode string) (*domain.Course, error) {
	var out *domain.Course
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, c := range d.courses {
			if c.CourseCode == courseCode {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryCourseRepository) List(ctx context.Context) ([]*domain.Course, error) {
	return r.list(ctx, func(domain.Course) bool { return true })
}

func (r *memoryCourseRepository) ListWithAvailability(ctx context.Context) ([]*domain.Course, error) {
	return r.list(ctx, func(c domain.Course) bool { return c.AllocationAvailability > 0 })
}

func (r *memoryCourseRepository) list(ctx context.Context, keep func(domain.Course) bool) ([]*domain.Course, error) {
	out := []*domain.Course{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, c := range d.courses {
			if keep(c) {
				c := c
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CourseCode < out[j].CourseCode })
	return out, err
}

func (r *memoryCourseRepository) AdjustAvailability(ctx context.Context, id uuid.UUID, delta int) (int, error) {
	var value int
	err := r.h.with(ctx, func(d *memoryData) error {
		c, ok := d.courses[id]
		if !ok {
			return fmt.Errorf("course %s not found", id)
		}
		if c.AllocationAvailability+delta < 0 {
			return interfaces.ErrCounterUnderflow
		}
		c.AllocationAvailability += delta
		c.UpdatedAt = time.Now().UTC()
		d.courses[id] = c
		value = c.AllocationAvailability
		return nil
	})
	return value, err
}

func (r *memoryCourseRepository) SetAvailability(ctx context.Context, id uuid.UUID, value int) error {
	return r.h.with(ctx, func(d *memoryData) error {
		c, ok := d.courses[id]
		if !ok {
			return nil
		}
		if value < 0 {
			return interfaces.ErrCounterUnderflow
		}
		c.AllocationAvailability = value
		c.UpdatedAt = time.Now().UTC()
		d.courses[id] = c
		return nil
	})
}

func (r *memoryCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.h.with(ctx, func(d *memoryData) error {
		delete(d.courses, id)
		for aid, a := range d.allocations {
			if a.CourseID == id {
				delete(d.allocations, aid)
			}
		}
		return nil
	})
}

// Rooms

type memoryRoomRepository struct{ h *memoryHandle }

func (r *memoryRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.h.with(ctx, func(d *memoryData) error {
		for _, existing := range d.rooms {
			if existing.RoomNumber == room.RoomNumber {
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintRoomNumber}
			}
		}
		if room.RoomID == uuid.Nil {
			room.RoomID = uuid.New()
		}
		d.rooms[room.RoomID] = *room
		return nil
	})
}

func (r *memoryRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	var out *domain.Room
	err := r.h.with(ctx, func(d *memoryData) error {
		if room, ok := d.rooms[id]; ok {
			out = &room
		}
		return nil
	})
	return out, err
}

func (r *memoryRoomRepository) GetByNumber(ctx context.Context, roomNumber string) (*domain.Room, error) {
	var out *domain.Room
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, room := range d.rooms {
			if room.RoomNumber == roomNumber {
				room := room
				out = &room
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *memoryRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	return r.list(ctx, func(domain.Room) bool { return true })
}

func (r *memoryRoomRepository) ListByLab(ctx context.Context, isLab bool) ([]*domain.Room, error) {
	return r.list(ctx, func(room domain.Room) bool { return room.IsLab == isLab })
}

func (r *memoryRoomRepository) list(ctx context.Context, keep func(domain.Room) bool) ([]*domain.Room, error) {
	out := []*domain.Room{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, room := range d.rooms {
			if keep(room) {
				room := room
				out = append(out, &room)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out, err
}

// Calendar

type memoryCalendarRepository struct{ h *memoryHandle }

func (r *memoryCalendarRepository) GetDay(ctx context.Context, id int) (*domain.Day, error) {
	var out *domain.Day
	err := r.h.with(ctx, func(d *memoryData) error {
		if day, ok := d.days[id]; ok {
			out = &day
		}
		return nil
	})
	return out, err
}

func (r *memoryCalendarRepository) ListDays(ctx context.Context) ([]*domain.Day, error) {
	out := []*domain.Day{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, day := range d.days {
			day := day
			out = append(out, &day)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DayOrder < out[j].DayOrder })
	return out, err
}

func (r *memoryCalendarRepository) GetTimeSlot(ctx context.Context, id int) (*domain.TimeSlot, error) {
	var out *domain.TimeSlot
	err := r.h.with(ctx, func(d *memoryData) error {
		if slot, ok := d.slots[id]; ok {
			out = &slot
		}
		return nil
	})
	return out, err
}

func (r *memoryCalendarRepository) ListTimeSlots(ctx context.Context, slotType domain.CourseType) ([]*domain.TimeSlot, error) {
	out := []*domain.TimeSlot{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, slot := range d.slots {
			if slotType == "" || slot.SlotType == slotType {
				slot := slot
				out = append(out, &slot)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SlotOrder < out[j].SlotOrder })
	return out, err
}

// Programs

type memoryProgramRepository struct{ h *memoryHandle }

func (r *memoryProgramRepository) GetByName(ctx context.Context, name string) (*domain.Program, error) {
	var out *domain.Program
	err := r.h.with(ctx, func(d *memoryData) error {
		if p, ok := d.programs[name]; ok {
			out = &p
		}
		return nil
	})
	return out, err
}

func (r *memoryProgramRepository) List(ctx context.Context) ([]*domain.Program, error) {
	out := []*domain.Program{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, p := range d.programs {
			p := p
			out = append(out, &p)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// Allocations

type memoryAllocationRepository struct{ h *memoryHandle }

func (r *memoryAllocationRepository) Create(ctx context.Context, allocation *domain.Allocation) error {
	return r.h.with(ctx, func(d *memoryData) error {
		if _, ok := d.teachers[allocation.TeacherID]; !ok {
			return interfaces.ErrForeignKey
		}
		if _, ok := d.courses[allocation.CourseID]; !ok {
			return interfaces.ErrForeignKey
		}
		if _, ok := d.rooms[allocation.RoomID]; !ok {
			return interfaces.ErrForeignKey
		}
		if _, ok := d.days[allocation.DayID]; !ok {
			return interfaces.ErrForeignKey
		}
		if _, ok := d.slots[allocation.SlotID]; !ok {
			return interfaces.ErrForeignKey
		}

		for _, a := range d.allocations {
			if a.DayID != allocation.DayID || a.SlotID != allocation.SlotID {
				continue
			}
			switch {
			case a.RoomID == allocation.RoomID:
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintRoomDaySlot}
			case a.TeacherID == allocation.TeacherID:
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintTeacherDaySlot}
			case a.Program == allocation.Program && a.Section == allocation.Section:
				return &interfaces.DuplicateError{Constraint: interfaces.ConstraintSectionDaySlot}
			}
		}

		if allocation.AllocationID == uuid.Nil {
			allocation.AllocationID = uuid.New()
		}
		allocation.CreatedAt = time.Now().UTC()
		d.allocations[allocation.AllocationID] = *allocation
		return nil
	})
}

func (r *memoryAllocationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Allocation, error) {
	var out *domain.Allocation
	err := r.h.with(ctx, func(d *memoryData) error {
		if a, ok := d.allocations[id]; ok {
			out = &a
		}
		return nil
	})
	return out, err
}

func (r *memoryAllocationRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Allocation, error) {
	return r.GetByID(ctx, id)
}

// LockSection is a no-op: transactions already run one at a time
func (r *memoryAllocationRepository) LockSection(ctx context.Context, program string, section int) error {
	return ctx.Err()
}

func (r *memoryAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.h.with(ctx, func(d *memoryData) error {
		delete(d.allocations, id)
		return nil
	})
}

func (r *memoryAllocationRepository) DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, func(a domain.Allocation) bool { return a.TeacherID == teacherID })
}

func (r *memoryAllocationRepository) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	return r.deleteWhere(ctx, func(a domain.Allocation) bool { return a.CourseID == courseID })
}

func (r *memoryAllocationRepository) deleteWhere(ctx context.Context, match func(domain.Allocation) bool) (int64, error) {
	var n int64
	err := r.h.with(ctx, func(d *memoryData) error {
		for id, a := range d.allocations {
			if match(a) {
				delete(d.allocations, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *memoryAllocationRepository) each(ctx context.Context, fn func(a domain.Allocation)) error {
	return r.h.with(ctx, func(d *memoryData) error {
		for _, a := range d.allocations {
			fn(a)
		}
		return nil
	})
}

func (r *memoryAllocationRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*domain.Allocation, error) {
	out := []*domain.Allocation{}
	err := r.each(ctx, func(a domain.Allocation) {
		if a.TeacherID == teacherID {
			out = append(out, &a)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayID != out[j].DayID {
			return out[i].DayID < out[j].DayID
		}
		return out[i].SlotID < out[j].SlotID
	})
	return out, err
}

func (r *memoryAllocationRepository) count(ctx context.Context, match func(domain.Allocation) bool) (int, error) {
	n := 0
	err := r.each(ctx, func(a domain.Allocation) {
		if match(a) {
			n++
		}
	})
	return n, err
}

func (r *memoryAllocationRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int, error) {
	return r.count(ctx, func(a domain.Allocation) bool { return a.CourseID == courseID })
}

func (r *memoryAllocationRepository) CountByTeacher(ctx context.Context, teacherID uuid.UUID) (int, error) {
	return r.count(ctx, func(a domain.Allocation) bool { return a.TeacherID == teacherID })
}

func (r *memoryAllocationRepository) CountBySection(ctx context.Context, courseID uuid.UUID, program string, section int) (int, error) {
	return r.count(ctx, func(a domain.Allocation) bool {
		return a.CourseID == courseID && a.Program == program && a.Section == section
	})
}

func (r *memoryAllocationRepository) CountsByCourse(ctx context.Context) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	err := r.each(ctx, func(a domain.Allocation) { counts[a.CourseID]++ })
	return counts, err
}

func (r *memoryAllocationRepository) CountsBySection(ctx context.Context, courseID uuid.UUID) (map[int]int, error) {
	counts := make(map[int]int)
	err := r.each(ctx, func(a domain.Allocation) {
		if a.CourseID == courseID {
			counts[a.Section]++
		}
	})
	return counts, err
}

func (r *memoryAllocationRepository) CourseCountsByTeacher(ctx context.Context, teacherID uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	err := r.each(ctx, func(a domain.Allocation) {
		if a.TeacherID == teacherID {
			counts[a.CourseID]++
		}
	})
	return counts, err
}

func (r *memoryAllocationRepository) DayIDsUsed(ctx context.Context, courseID uuid.UUID, section int) ([]int, error) {
	seen := make(map[int]bool)
	err := r.each(ctx, func(a domain.Allocation) {
		if a.CourseID == courseID && a.Section == section {
			seen[a.DayID] = true
		}
	})
	return sortedInts(seen), err
}

func (r *memoryAllocationRepository) SlotIDsUsed(ctx context.Context, dayID int, program string, section int) ([]int, error) {
	seen := make(map[int]bool)
	err := r.each(ctx, func(a domain.Allocation) {
		if a.DayID == dayID && a.Program == program && a.Section == section {
			seen[a.SlotID] = true
		}
	})
	return sortedInts(seen), err
}

func (r *memoryAllocationRepository) RoomIDsBooked(ctx context.Context, dayID int, slotIDs []int) ([]uuid.UUID, error) {
	wanted := make(map[int]bool, len(slotIDs))
	for _, id := range slotIDs {
		wanted[id] = true
	}
	var ids []uuid.UUID
	err := r.each(ctx, func(a domain.Allocation) {
		if a.DayID == dayID && wanted[a.SlotID] {
			ids = append(ids, a.RoomID)
		}
	})
	return ids, err
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Read model

type memoryReader struct{ h *memoryHandle }

func (r *memoryReader) ListDetails(ctx context.Context, filter interfaces.AllocationFilter) ([]*domain.AllocationDetail, error) {
	details := []*domain.AllocationDetail{}
	err := r.h.with(ctx, func(d *memoryData) error {
		for _, a := range d.allocations {
			if !matchesFilter(a, filter) {
				continue
			}
			t, okT := d.teachers[a.TeacherID]
			c, okC := d.courses[a.CourseID]
			room, okR := d.rooms[a.RoomID]
			day, okD := d.days[a.DayID]
			slot, okS := d.slots[a.SlotID]
			if !okT || !okC || !okR || !okD || !okS {
				continue
			}
			a := a
			details = append(details, domain.NewAllocationDetail(&a, &t, &c, &room, &day, &slot))
		}
		return nil
	})
	sort.SliceStable(details, func(i, j int) bool { return details[i].CourseCode < details[j].CourseCode })
	domain.SortDetails(details)
	return details, err
}

func matchesFilter(a domain.Allocation, f interfaces.AllocationFilter) bool {
	if f.AllocationID != uuid.Nil && a.AllocationID != f.AllocationID {
		return false
	}
	if f.TeacherID != uuid.Nil && a.TeacherID != f.TeacherID {
		return false
	}
	if f.CourseID != uuid.Nil && a.CourseID != f.CourseID {
		return false
	}
	if f.Program != "" && a.Program != f.Program {
		return false
	}
	if f.Section > 0 && a.Section != f.Section {
		return false
	}
	return true
}

func (r *memoryReader) TeachersWithAllocations(ctx context.Context) ([]*domain.Teacher, error) {
	var out []*domain.Teacher
	err := r.h.with(ctx, func(d *memoryData) error {
		holding := make(map[uuid.UUID]bool)
		for _, a := range d.allocations {
			holding[a.TeacherID] = true
		}
		out = sortedTeachers(d, func(t domain.Teacher) bool { return holding[t.TeacherID] })
		return nil
	})
	return out, err
}
