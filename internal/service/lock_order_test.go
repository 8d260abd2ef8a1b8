package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	domain "course-routine/internal/domain/scheduling"
	"course-routine/internal/infrastructure/repository"
	interfaces "course-routine/internal/interfaces/infrastructure"

	"github.com/google/uuid"
)

// lockRecordingStore records the row and section locks taken inside transactions
type lockRecordingStore struct {
	*repository.MemoryStore
	locks []string
}

func (s *lockRecordingStore) WithTx(ctx context.Context, fn func(ctx context.Context, repos interfaces.Repositories) error) error {
	return s.MemoryStore.WithTx(ctx, func(ctx context.Context, repos interfaces.Repositories) error {
		repos.Courses = recordingCourses{CourseRepository: repos.Courses, locks: &s.locks}
		repos.Teachers = recordingTeachers{TeacherRepository: repos.Teachers, locks: &s.locks}
		repos.Allocations = recordingAllocations{AllocationRepository: repos.Allocations, locks: &s.locks}
		return fn(ctx, repos)
	})
}

type recordingCourses struct {
	interfaces.CourseRepository
	locks *[]string
}

func (r recordingCourses) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	*r.locks = append(*r.locks, "course")
	return r.CourseRepository.GetByIDForUpdate(ctx, id)
}

type recordingTeachers struct {
	interfaces.TeacherRepository
	locks *[]string
}

func (r recordingTeachers) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Teacher, error) {
	*r.locks = append(*r.locks, "teacher")
	return r.TeacherRepository.GetByIDForUpdate(ctx, id)
}

type recordingAllocations struct {
	interfaces.AllocationRepository
	locks *[]string
}

func (r recordingAllocations) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Allocation, error) {
	*r.locks = append(*r.locks, "allocation")
	return r.AllocationRepository.GetByIDForUpdate(ctx, id)
}

func (r recordingAllocations) LockSection(ctx context.Context, program string, section int) error {
	*r.locks = append(*r.locks, "section")
	return r.AllocationRepository.LockSection(ctx, program, section)
}

func (r recordingAllocations) DeleteByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	*r.locks = append(*r.locks, "allocation")
	return r.AllocationRepository.DeleteByCourse(ctx, courseID)
}

func (r recordingAllocations) DeleteByTeacher(ctx context.Context, teacherID uuid.UUID) (int64, error) {
	*r.locks = append(*r.locks, "allocation")
	return r.AllocationRepository.DeleteByTeacher(ctx, teacherID)
}

func newLockRecording(env *testEnv) (*lockRecordingStore, *AllocationService, *ReferenceService) {
	store := &lockRecordingStore{MemoryStore: env.store}
	allocations := NewAllocationService(store, Limits{CreditUnit: 0.75, DailyMaxHours: 2.5, WeeklyMaxHours: 13})
	reference := NewReferenceService(store, nil, 0.75)
	return store, allocations, reference
}

func TestLockOrder_Admit(t *testing.T) {
	env := newTestEnv(t)
	store, allocations, _ := newLockRecording(env)

	if _, err := allocations.Admit(env.ctx, env.request(env.ada, env.theory, env.room101, monday, theory1, 1)); err != nil {
		t.Fatalf("Admit: %v", err)
	}

	want := []string{"course", "teacher", "section"}
	if !reflect.DeepEqual(store.locks, want) {
		t.Errorf("Expected locks %v, got %v", want, store.locks)
	}
}

func TestLockOrder_RevokeMatchesDeletes(t *testing.T) {
	env := newTestEnv(t)
	store, allocations, reference := newLockRecording(env)
	want := []string{"course", "allocation"}

	detail := env.admit(t, env.request(env.ada, env.theory, env.room101, monday, theory1, 1))
	if err := allocations.Revoke(env.ctx, detail.AllocationID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if !reflect.DeepEqual(store.locks, want) {
		t.Errorf("Revoke: expected locks %v, got %v", want, store.locks)
	}

	env.admit(t, env.request(env.ada, env.theory, env.room101, monday, theory1, 1))
	store.locks = nil
	if err := reference.DeleteCourse(env.ctx, env.theory.CourseID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if !reflect.DeepEqual(store.locks, want) {
		t.Errorf("DeleteCourse: expected locks %v, got %v", want, store.locks)
	}

	env.admit(t, env.request(env.grace, env.lab, env.labRoom, monday, lab1, 1))
	store.locks = nil
	if err := reference.DeleteTeacher(env.ctx, env.grace.TeacherID); err != nil {
		t.Fatalf("DeleteTeacher: %v", err)
	}
	if !reflect.DeepEqual(store.locks, want) {
		t.Errorf("DeleteTeacher: expected locks %v, got %v", want, store.locks)
	}
}

func TestRevoke_UnknownAllocationTakesNoLocks(t *testing.T) {
	env := newTestEnv(t)
	store, allocations, _ := newLockRecording(env)

	err := allocations.Revoke(env.ctx, uuid.New())
	expectRule(t, err, domain.KindNotFound, "")
	if len(store.locks) != 0 {
		t.Errorf("Expected no locks for a missing allocation, got %v", store.locks)
	}
}

func TestTranslateInsertError(t *testing.T) {
	tests := []struct {
		constraint string
		rule       string
		message    string
	}{
		{interfaces.ConstraintRoomDaySlot, domain.RuleRoomBooked, "room already booked"},
		{interfaces.ConstraintTeacherDaySlot, domain.RuleTeacherBooked, "teacher already booked"},
		{interfaces.ConstraintSectionDaySlot, domain.RuleSectionBooked, "section already booked"},
		{"allocations_pkey", domain.RuleDuplicate, ""},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			err := translateInsertError(&interfaces.DuplicateError{Constraint: tt.constraint})
			expectRule(t, err, domain.KindConflict, tt.rule)

			var scheduleErr *domain.Error
			if tt.message != "" && (!errors.As(err, &scheduleErr) || scheduleErr.Message != tt.message) {
				t.Errorf("Expected message %q, got %v", tt.message, err)
			}
		})
	}

	other := translateInsertError(context.DeadlineExceeded)
	if domain.KindOf(other) != "" {
		t.Errorf("Expected non-constraint errors to stay internal, got kind %s", domain.KindOf(other))
	}
}
