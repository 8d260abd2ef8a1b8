package domain

import (
	"sort"

	"github.com/google/uuid"
)

// RoutineCell is one occupied period in a section routine
type RoutineCell struct {
	AllocationID uuid.UUID  `json:"allocation_id"`
	CourseCode   string     `json:"course_code"`
	CourseName   string     `json:"course_name"`
	RoomNumber   string     `json:"room_number"`
	TeacherName  string     `json:"teacher_name"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	SlotType     CourseType `json:"slot_type"`
	RowSpan      int        `json:"row_span"`
}

// RoutineGrid maps day name to slot label to the cell booked there
type RoutineGrid map[string]map[string]RoutineCell

// TeacherRoutineEntry is one line of a teacher's weekly routine
type TeacherRoutineEntry struct {
	AllocationID uuid.UUID  `json:"allocation_id"`
	Day          string     `json:"day"`
	DayOrder     int        `json:"day_order"`
	StartTime    string     `json:"start_time"`
	EndTime      string     `json:"end_time"`
	Slot         string     `json:"slot"`
	RoomNumber   string     `json:"room_number"`
	CourseCode   string     `json:"course_code"`
	CourseName   string     `json:"course_name"`
	CourseType   CourseType `json:"course_type"`
	CreditHours  float64    `json:"credit_hours"`
	Program      string     `json:"program"`
	Section      int        `json:"section"`
}

// SortDetails orders joined allocations by day order, then slot order
func SortDetails(details []*AllocationDetail) {
	sort.SliceStable(details, func(i, j int) bool {
		if details[i].DayOrder != details[j].DayOrder {
			return details[i].DayOrder < details[j].DayOrder
		}
		if details[i].SlotOrder != details[j].SlotOrder {
			return details[i].SlotOrder < details[j].SlotOrder
		}
		return details[i].StartTime < details[j].StartTime
	})
}

// BuildRoutineGrid reduces a section's allocations into a day by slot grid.
// Days without allocations are absent from the grid. rows are the display
// rows used to compute each cell's RowSpan.
func BuildRoutineGrid(details []*AllocationDetail, rows []*TimeSlot) RoutineGrid {
	grid := make(RoutineGrid)
	for _, d := range details {
		day, ok := grid[d.DayName]
		if !ok {
			day = make(map[string]RoutineCell)
			grid[d.DayName] = day
		}
		day[SlotLabel(d.StartTime, d.EndTime)] = RoutineCell{
			AllocationID: d.AllocationID,
			CourseCode:   d.CourseCode,
			CourseName:   d.CourseName,
			RoomNumber:   d.RoomNumber,
			TeacherName:  d.TeacherName,
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
			SlotType:     d.SlotType,
			RowSpan:      RowSpan(d.StartTime, d.EndTime, rows),
		}
	}
	return grid
}

// BuildTeacherRoutine flattens a teacher's allocations in day and slot order
func BuildTeacherRoutine(details []*AllocationDetail) []TeacherRoutineEntry {
	sorted := make([]*AllocationDetail, len(details))
	copy(sorted, details)
	SortDetails(sorted)

	entries := make([]TeacherRoutineEntry, 0, len(sorted))
	for _, d := range sorted {
		entries = append(entries, TeacherRoutineEntry{
			AllocationID: d.AllocationID,
			Day:          d.DayName,
			DayOrder:     d.DayOrder,
			StartTime:    d.StartTime,
			EndTime:      d.EndTime,
			Slot:         SlotLabel(d.StartTime, d.EndTime),
			RoomNumber:   d.RoomNumber,
			CourseCode:   d.CourseCode,
			CourseName:   d.CourseName,
			CourseType:   d.CourseType,
			CreditHours:  d.CreditHours,
			Program:      d.Program,
			Section:      d.Section,
		})
	}
	return entries
}

// RowSpan counts the display rows that the period [start, end) overlaps.
// A renderer uses it to merge a long lab block across theory rows.
func RowSpan(start, end string, rows []*TimeSlot) int {
	from, err := ClockMinutes(start)
	if err != nil {
		return 0
	}
	to, err := ClockMinutes(end)
	if err != nil || to <= from {
		return 0
	}

	span := 0
	for _, row := range rows {
		rowStart, err := ClockMinutes(row.StartTime)
		if err != nil {
			continue
		}
		rowEnd, err := ClockMinutes(row.EndTime)
		if err != nil {
			continue
		}
		if rowStart < to && from < rowEnd {
			span++
		}
	}
	return span
}

// Overlaps reports whether two slots share any minute of the day
func Overlaps(a, b *TimeSlot) bool {
	aStart, err := ClockMinutes(a.StartTime)
	if err != nil {
		return false
	}
	aEnd, err := ClockMinutes(a.EndTime)
	if err != nil {
		return false
	}
	bStart, err := ClockMinutes(b.StartTime)
	if err != nil {
		return false
	}
	bEnd, err := ClockMinutes(b.EndTime)
	if err != nil {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

// WorkloadHours sums slot durations, optionally restricted to one day (dayID > 0)
func WorkloadHours(allocations []*Allocation, slots map[int]*TimeSlot, dayID int) float64 {
	total := 0.0
	for _, a := range allocations {
		if dayID > 0 && a.DayID != dayID {
			continue
		}
		if s, ok := slots[a.SlotID]; ok {
			total += s.Hours()
		}
	}
	return total
}
