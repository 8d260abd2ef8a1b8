package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CourseType classifies courses, time slots and (through IsLab) rooms
type CourseType string

const (
	CourseTypeTheory CourseType = "Theory"
	CourseTypeLab    CourseType = "Lab"
)

// Valid reports whether t is one of the known course types
func (t CourseType) Valid() bool {
	return t == CourseTypeTheory || t == CourseTypeLab
}

// ParseCourseType accepts exactly "Theory" or "Lab"
func ParseCourseType(s string) (CourseType, error) {
	t := CourseType(s)
	if !t.Valid() {
		return "", NewValidationError("course_type", fmt.Sprintf("invalid course type %q, use Theory or Lab", s))
	}
	return t, nil
}

// RoomType maps a room lab flag onto the course type it can host
func RoomType(isLab bool) CourseType {
	if isLab {
		return CourseTypeLab
	}
	return CourseTypeTheory
}

// Teacher represents a teacher who can be allocated to courses
type Teacher struct {
	TeacherID uuid.UUID `json:"teacher_id" db:"teacher_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	Name      string    `json:"name" db:"name" gorm:"not null"`
	Email     string    `json:"email" db:"email" gorm:"unique;not null"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at" gorm:"autoUpdateTime"`
}

// Program is a degree program with a fixed number of student sections
type Program struct {
	Name         string `json:"name" gorm:"primaryKey"`
	SectionCount int    `json:"section_count" gorm:"not null;check:section_count > 0"`
}

// Course represents a course offered to one program.
// AllocationAvailability caches AllocationCapacity minus the live allocation count.
type Course struct {
	CourseID               uuid.UUID  `json:"course_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	CourseCode             string     `json:"course_code" gorm:"unique;not null"`
	CourseName             string     `json:"course_name" gorm:"not null"`
	CreditHours            float64    `json:"credit_hours" gorm:"not null"`
	Program                string     `json:"program" gorm:"not null"`
	CourseType             CourseType `json:"course_type" gorm:"type:text;not null"`
	AllocationCapacity     int        `json:"allocation_capacity" gorm:"not null"`
	AllocationAvailability int        `json:"allocation_availability" gorm:"not null;check:allocation_availability >= 0"`
	CreatedAt              time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt              time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// UnitsPerSection is the number of weekly class instances one section of the
// course must receive: ceil(credit hours / credit unit).
func UnitsPerSection(creditHours, creditUnit float64) int {
	if creditUnit <= 0 {
		return 0
	}
	return int(math.Ceil(creditHours/creditUnit - 1e-9))
}

// Room represents a teaching room
type Room struct {
	RoomID     uuid.UUID `json:"room_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	RoomNumber string    `json:"room_number" gorm:"unique;not null"`
	Capacity   int       `json:"capacity" gorm:"not null;default:0"`
	IsLab      bool      `json:"is_lab" gorm:"not null;default:false"`
}

// Type returns the course type the room can host
func (r *Room) Type() CourseType {
	return RoomType(r.IsLab)
}

// Day is one teaching weekday
type Day struct {
	DayID    int    `json:"day_id" gorm:"primaryKey"`
	DayName  string `json:"day_name" gorm:"unique;not null"`
	DayOrder int    `json:"day_order" gorm:"not null"`
}

// TimeSlot is a canonical teaching period. Times are "HH:MM".
type TimeSlot struct {
	SlotID    int        `json:"slot_id" gorm:"primaryKey"`
	StartTime string     `json:"start_time" gorm:"not null"`
	EndTime   string     `json:"end_time" gorm:"not null"`
	SlotType  CourseType `json:"slot_type" gorm:"type:text;not null"`
	SlotOrder int        `json:"slot_order" gorm:"not null"`
}

// Label renders the slot as "08:00 - 09:15"
func (s *TimeSlot) Label() string {
	return SlotLabel(s.StartTime, s.EndTime)
}

// Hours is the contact time of the slot in hours
func (s *TimeSlot) Hours() float64 {
	start, err := ClockMinutes(s.StartTime)
	if err != nil {
		return 0
	}
	end, err := ClockMinutes(s.EndTime)
	if err != nil || end <= start {
		return 0
	}
	return float64(end-start) / 60
}

// SlotLabel formats a start/end pair the way routine grids key their rows
func SlotLabel(start, end string) string {
	return trimSeconds(start) + " - " + trimSeconds(end)
}

// ClockMinutes parses "HH:MM" (or "HH:MM:SS") into minutes after midnight
func ClockMinutes(clock string) (int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", clock)
	}
	return h*60 + m, nil
}

func trimSeconds(clock string) string {
	if len(clock) == 8 && strings.Count(clock, ":") == 2 {
		return clock[:5]
	}
	return clock
}

// Allocation is one committed (teacher, course, room, day, slot, program, section) fact.
// Allocations are never updated in place.
type Allocation struct {
	AllocationID uuid.UUID `json:"allocation_id" gorm:"type:uuid;primary_key;default:uuid_generate_v4()"`
	TeacherID    uuid.UUID `json:"teacher_id" gorm:"type:uuid;not null"`
	CourseID     uuid.UUID `json:"course_id" gorm:"type:uuid;not null"`
	RoomID       uuid.UUID `json:"room_id" gorm:"type:uuid;not null"`
	DayID        int       `json:"day_id" gorm:"not null"`
	SlotID       int       `json:"slot_id" gorm:"not null"`
	Program      string    `json:"program" gorm:"not null"`
	Section      int       `json:"section" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// AllocationDetail is an allocation joined with all of its reference data
type AllocationDetail struct {
	AllocationID uuid.UUID  `json:"allocation_id" db:"allocation_id"`
	TeacherID    uuid.UUID  `json:"teacher_id" db:"teacher_id"`
	TeacherName  string     `json:"teacher_name" db:"teacher_name"`
	CourseID     uuid.UUID  `json:"course_id" db:"course_id"`
	CourseCode   string     `json:"course_code" db:"course_code"`
	CourseName   string     `json:"course_name" db:"course_name"`
	CourseType   CourseType `json:"course_type" db:"course_type"`
	CreditHours  float64    `json:"credit_hours" db:"credit_hours"`
	RoomID       uuid.UUID  `json:"room_id" db:"room_id"`
	RoomNumber   string     `json:"room_number" db:"room_number"`
	IsLab        bool       `json:"is_lab" db:"is_lab"`
	DayID        int        `json:"day_id" db:"day_id"`
	DayName      string     `json:"day_name" db:"day_name"`
	DayOrder     int        `json:"day_order" db:"day_order"`
	SlotID       int        `json:"slot_id" db:"slot_id"`
	StartTime    string     `json:"start_time" db:"start_time"`
	EndTime      string     `json:"end_time" db:"end_time"`
	SlotType     CourseType `json:"slot_type" db:"slot_type"`
	SlotOrder    int        `json:"slot_order" db:"slot_order"`
	Program      string     `json:"program" db:"program"`
	Section      int        `json:"section" db:"section"`
}

// NewAllocationDetail joins an allocation with already resolved reference rows
func NewAllocationDetail(a *Allocation, t *Teacher, c *Course, r *Room, d *Day, s *TimeSlot) *AllocationDetail {
	return &AllocationDetail{
		AllocationID: a.AllocationID,
		TeacherID:    t.TeacherID,
		TeacherName:  t.Name,
		CourseID:     c.CourseID,
		CourseCode:   c.CourseCode,
		CourseName:   c.CourseName,
		CourseType:   c.CourseType,
		CreditHours:  c.CreditHours,
		RoomID:       r.RoomID,
		RoomNumber:   r.RoomNumber,
		IsLab:        r.IsLab,
		DayID:        d.DayID,
		DayName:      d.DayName,
		DayOrder:     d.DayOrder,
		SlotID:       s.SlotID,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		SlotType:     s.SlotType,
		SlotOrder:    s.SlotOrder,
		Program:      a.Program,
		Section:      a.Section,
	}
}

// SectionAvailability reports how many weekly instances a section still needs
type SectionAvailability struct {
	SectionNumber    int `json:"section_number"`
	MaxAllocations   int `json:"max_allocations"`
	AllocationsCount int `json:"allocations_count"`
	Remaining        int `json:"remaining"`
}

// DeleteCheck tells a caller what deleting a teacher or course would remove
type DeleteCheck struct {
	CanDelete       bool   `json:"can_delete"`
	AllocationCount int    `json:"allocation_count"`
	Message         string `json:"message"`
}

// CounterDrift describes a course whose cached availability disagrees with the live count
type CounterDrift struct {
	CourseID   uuid.UUID `json:"course_id"`
	CourseCode string    `json:"course_code"`
	Capacity   int       `json:"capacity"`
	Allocated  int       `json:"allocated"`
	Cached     int       `json:"cached"`
	Expected   int       `json:"expected"`
	Repaired   bool      `json:"repaired"`
}

// IdempotencyKey stores the outcome of a processed allocation submission
type IdempotencyKey struct {
	Key          string    `json:"key" gorm:"primaryKey"`
	RequestHash  string    `json:"request_hash" gorm:"not null"`
	ResponseData string    `json:"response_data" gorm:"type:text"`
	StatusCode   int       `json:"status_code" gorm:"not null"`
	ProcessedAt  time.Time `json:"processed_at" gorm:"not null"`
	ExpiresAt    time.Time `json:"expires_at" gorm:"not null;index"`
}

// IsExpired reports whether the stored outcome may no longer be replayed
func (k *IdempotencyKey) IsExpired() bool {
	return time.Now().After(k.ExpiresAt)
}

// Request DTOs

// AdmitRequest is a candidate allocation submitted to the admission engine
type AdmitRequest struct {
	TeacherID uuid.UUID `json:"teacher_id" validate:"required"`
	CourseID  uuid.UUID `json:"course_id" validate:"required"`
	RoomID    uuid.UUID `json:"room_id" validate:"required"`
	DayID     int       `json:"day_id" validate:"required,gte=1"`
	SlotID    int       `json:"slot_id" validate:"required,gte=1"`
	Program   string    `json:"program" validate:"required"`
	Section   int       `json:"section" validate:"required,gte=1"`
}

// CreateTeacherRequest represents the request to create a teacher
type CreateTeacherRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// UpdateTeacherRequest represents the request to update a teacher
type UpdateTeacherRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// CreateCourseRequest represents the request to create a course
type CreateCourseRequest struct {
	CourseCode  string  `json:"course_code" validate:"required,min=2,max=20"`
	CourseName  string  `json:"course_name" validate:"required,min=1,max=200"`
	CreditHours float64 `json:"credit_hours" validate:"required,credit_hours"`
	Program     string  `json:"program" validate:"required"`
	CourseType  string  `json:"course_type" validate:"required,oneof=Theory Lab"`
}

// CreateRoomRequest represents the request to create a room
type CreateRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,max=20"`
	Capacity   int    `json:"capacity" validate:"gte=0"`
	IsLab      bool   `json:"is_lab"`
}
