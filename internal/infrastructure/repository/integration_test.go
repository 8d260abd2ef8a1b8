//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"

	domain "course-routine/internal/domain/scheduling"
	"course-routine/internal/infrastructure/database"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := database.Open(dsn, database.Config{})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	store, err := NewGormStore(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestGormStore_AllocationConstraints(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	repos := store.Repos()
	suffix := uuid.NewString()[:8]

	teacher := &domain.Teacher{Name: "Integration", Email: "it-" + suffix + "@uni.edu"}
	if err := repos.Teachers.Create(ctx, teacher); err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	course := &domain.Course{
		CourseCode: "IT" + suffix, CourseName: "Integration", CreditHours: 3.0, Program: "CSE",
		CourseType: domain.CourseTypeTheory, AllocationCapacity: 8, AllocationAvailability: 8,
	}
	if err := repos.Courses.Create(ctx, course); err != nil {
		t.Fatalf("create course: %v", err)
	}
	room := &domain.Room{RoomNumber: "IT-" + suffix}
	if err := repos.Rooms.Create(ctx, room); err != nil {
		t.Fatalf("create room: %v", err)
	}
	t.Cleanup(func() {
		_ = repos.Teachers.Delete(ctx, teacher.TeacherID)
		_ = repos.Courses.Delete(ctx, course.CourseID)
	})

	first := &domain.Allocation{TeacherID: teacher.TeacherID, CourseID: course.CourseID, RoomID: room.RoomID, DayID: 1, SlotID: 1, Program: "CSE", Section: 1}
	err := store.WithTx(ctx, func(ctx context.Context, tx interfaces.Repositories) error {
		if _, err := tx.Courses.GetByIDForUpdate(ctx, course.CourseID); err != nil {
			return err
		}
		if locked, err := tx.Teachers.GetByIDForUpdate(ctx, teacher.TeacherID); err != nil || locked == nil {
			t.Fatalf("lock teacher: %v", err)
		}
		if err := tx.Allocations.LockSection(ctx, "CSE", 1); err != nil {
			return err
		}
		if err := tx.Allocations.Create(ctx, first); err != nil {
			return err
		}
		_, err := tx.Courses.AdjustAvailability(ctx, course.CourseID, -1)
		return err
	})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}

	second := &domain.Allocation{TeacherID: teacher.TeacherID, CourseID: course.CourseID, RoomID: room.RoomID, DayID: 1, SlotID: 1, Program: "CSE", Section: 2}
	err = repos.Allocations.Create(ctx, second)
	var dup *interfaces.DuplicateError
	if !errors.As(err, &dup) || dup.Constraint != interfaces.ConstraintRoomDaySlot {
		t.Fatalf("Expected room constraint, got %v", err)
	}

	details, err := store.Reader().ListDetails(ctx, interfaces.AllocationFilter{AllocationID: first.AllocationID})
	if err != nil || len(details) != 1 {
		t.Fatalf("Expected one joined row, got %d (%v)", len(details), err)
	}
	if details[0].StartTime != "08:00" || details[0].DayName != "Monday" {
		t.Errorf("Unexpected joined row %+v", details[0])
	}

	if _, err := repos.Courses.AdjustAvailability(ctx, course.CourseID, -100); !errors.Is(err, interfaces.ErrCounterUnderflow) {
		t.Errorf("Expected ErrCounterUnderflow, got %v", err)
	}
}
