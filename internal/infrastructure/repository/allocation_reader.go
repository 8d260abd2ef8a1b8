package repository

import (
	"context"
	"fmt"
	"strings"

	domain "course-routine/internal/domain/scheduling"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const allocationDetailSelect = `
	SELECT
		a.allocation_id, a.teacher_id, t.name AS teacher_name,
		a.course_id, c.course_code, c.course_name, c.course_type, c.credit_hours,
		a.room_id, r.room_number, r.is_lab,
		a.day_id, d.day_name, d.day_order,
		a.slot_id, ts.start_time, ts.end_time, ts.slot_type, ts.slot_order,
		a.program, a.section
	FROM allocations a
	JOIN teachers t ON t.teacher_id = a.teacher_id
	JOIN courses c ON c.course_id = a.course_id
	JOIN rooms r ON r.room_id = a.room_id
	JOIN days d ON d.day_id = a.day_id
	JOIN time_slots ts ON ts.slot_id = a.slot_id`

var _ interfaces.AllocationReader = (*AllocationReader)(nil)

// AllocationReader serves the joined routine projection with sqlx
type AllocationReader struct {
	db *sqlx.DB
}

func NewAllocationReader(db *sqlx.DB) *AllocationReader {
	return &AllocationReader{db: db}
}

func (r *AllocationReader) ListDetails(ctx context.Context, filter interfaces.AllocationFilter) ([]*domain.AllocationDetail, error) {
	var conditions []string
	var args []interface{}

	if filter.AllocationID != uuid.Nil {
		conditions = append(conditions, "a.allocation_id = ?")
		args = append(args, filter.AllocationID)
	}
	if filter.TeacherID != uuid.Nil {
		conditions = append(conditions, "a.teacher_id = ?")
		args = append(args, filter.TeacherID)
	}
	if filter.CourseID != uuid.Nil {
		conditions = append(conditions, "a.course_id = ?")
		args = append(args, filter.CourseID)
	}
	if filter.Program != "" {
		conditions = append(conditions, "a.program = ?")
		args = append(args, filter.Program)
	}
	if filter.Section > 0 {
		conditions = append(conditions, "a.section = ?")
		args = append(args, filter.Section)
	}

	query := allocationDetailSelect
	if len(conditions) > 0 {
		query += "\n\tWHERE " + strings.Join(conditions, " AND ")
	}
	query += "\n\tORDER BY d.day_order, ts.slot_order, c.course_code"

	details := []*domain.AllocationDetail{}
	if err := r.db.SelectContext(ctx, &details, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list allocation details: %w", err)
	}
	return details, nil
}

func (r *AllocationReader) TeachersWithAllocations(ctx context.Context) ([]*domain.Teacher, error) {
	query := `
		SELECT DISTINCT t.teacher_id, t.name, t.email, t.created_at, t.updated_at
		FROM teachers t
		JOIN allocations a ON a.teacher_id = t.teacher_id
		ORDER BY t.name`

	teachers := []*domain.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("failed to list teachers with allocations: %w", err)
	}
	return teachers, nil
}
