package service

import (
	"testing"

	domain "course-routine/internal/domain/scheduling"

	"github.com/google/uuid"
)

func TestTeacherCRUD(t *testing.T) {
	env := newTestEnv(t)

	teacher, err := env.reference.CreateTeacher(env.ctx, &domain.CreateTeacherRequest{Name: "  Alan Turing ", Email: "Alan@Uni.EDU"})
	if err != nil {
		t.Fatalf("CreateTeacher: %v", err)
	}
	if teacher.Name != "Alan Turing" || teacher.Email != "alan@uni.edu" {
		t.Errorf("Expected trimmed name and lower-cased email, got %q %q", teacher.Name, teacher.Email)
	}

	_, err = env.reference.CreateTeacher(env.ctx, &domain.CreateTeacherRequest{Name: "Other Ada", Email: "ADA@uni.edu"})
	expectRule(t, err, domain.KindConflict, domain.RuleDuplicate)

	_, err = env.reference.CreateTeacher(env.ctx, &domain.CreateTeacherRequest{Name: "No Mail", Email: "not-an-email"})
	expectRule(t, err, domain.KindValidation, "")

	updated, err := env.reference.UpdateTeacher(env.ctx, teacher.TeacherID, &domain.UpdateTeacherRequest{Name: "A. M. Turing", Email: "turing@uni.edu"})
	if err != nil {
		t.Fatalf("UpdateTeacher: %v", err)
	}
	if updated.Name != "A. M. Turing" || updated.Email != "turing@uni.edu" {
		t.Errorf("Unexpected updated teacher: %+v", updated)
	}

	_, err = env.reference.UpdateTeacher(env.ctx, teacher.TeacherID, &domain.UpdateTeacherRequest{Name: "A. M. Turing", Email: "grace@uni.edu"})
	expectRule(t, err, domain.KindConflict, domain.RuleDuplicate)

	_, err = env.reference.UpdateTeacher(env.ctx, uuid.New(), &domain.UpdateTeacherRequest{Name: "Ghost", Email: "ghost@uni.edu"})
	expectRule(t, err, domain.KindNotFound, "")

	teachers, err := env.reference.ListTeachers(env.ctx)
	if err != nil {
		t.Fatalf("ListTeachers: %v", err)
	}
	if len(teachers) != 3 {
		t.Errorf("Expected 3 teachers, got %d", len(teachers))
	}

	_, err = env.reference.GetTeacher(env.ctx, uuid.New())
	expectRule(t, err, domain.KindNotFound, "")
}

func TestDeleteTeacher_RestoresCounters(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, env.request(env.ada, env.theory, env.room101, monday, theory1, 1))
	env.admit(t, env.request(env.ada, env.theory, env.room101, tuesday, theory1, 1))
	env.admit(t, env.request(env.ada, env.lab, env.labRoom, 3, lab1, 2))
	env.admit(t, env.request(env.grace, env.theory, env.room102, monday, theory1, 2))

	check, err := env.reference.CheckDeleteTeacher(env.ctx, env.ada.TeacherID)
	if err != nil {
		t.Fatalf("CheckDeleteTeacher: %v", err)
	}
	if !check.CanDelete || check.AllocationCount != 3 {
		t.Errorf("Unexpected delete check: %+v", check)
	}

	if err := env.reference.DeleteTeacher(env.ctx, env.ada.TeacherID); err != nil {
		t.Fatalf("DeleteTeacher: %v", err)
	}

	if got := env.availabilityOf(t, env.theory); got != 7 {
		t.Errorf("Expected theory availability 7 after delete, got %d", got)
	}
	if got := env.availabilityOf(t, env.lab); got != 4 {
		t.Errorf("Expected lab availability 4 after delete, got %d", got)
	}
	if got := env.allocationCount(t); got != 1 {
		t.Errorf("Expected only Grace's allocation to remain, got %d", got)
	}

	drifts, err := env.allocations.ReconcileCounters(env.ctx, false)
	if err != nil {
		t.Fatalf("ReconcileCounters: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("Expected counters consistent after delete, got %+v", drifts)
	}

	err = env.reference.DeleteTeacher(env.ctx, env.ada.TeacherID)
	expectRule(t, err, domain.KindNotFound, "")
}

func TestDeleteCourse(t *testing.T) {
	env := newTestEnv(t)
	env.admit(t, env.request(env.ada, env.theory, env.room101, monday, theory1, 1))
	env.admit(t, env.request(env.ada, env.lab, env.labRoom, tuesday, lab1, 1))

	check, err := env.reference.CheckDeleteCourse(env.ctx, env.theory.CourseID)
	if err != nil {
		t.Fatalf("CheckDeleteCourse: %v", err)
	}
	if check.AllocationCount != 1 {
		t.Errorf("Expected 1 allocation in delete check, got %+v", check)
	}

	if err := env.reference.DeleteCourse(env.ctx, env.theory.CourseID); err != nil {
		t.Fatalf("DeleteCourse: %v", err)
	}
	if got := env.allocationCount(t); got != 1 {
		t.Errorf("Expected the lab allocation to remain, got %d", got)
	}

	_, err = env.reference.GetCourse(env.ctx, env.theory.CourseID)
	expectRule(t, err, domain.KindNotFound, "")

	_, err = env.reference.CheckDeleteCourse(env.ctx, env.theory.CourseID)
	expectRule(t, err, domain.KindNotFound, "")
}

func TestRoomsAndCalendar(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.reference.CreateRoom(env.ctx, &domain.CreateRoomRequest{RoomNumber: "101"})
	expectRule(t, err, domain.KindConflict, domain.RuleDuplicate)

	rooms, err := env.reference.ListRooms(env.ctx)
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if len(rooms) != 3 {
		t.Errorf("Expected 3 rooms, got %d", len(rooms))
	}

	programs, err := env.reference.ListPrograms(env.ctx)
	if err != nil {
		t.Fatalf("ListPrograms: %v", err)
	}
	if len(programs) != 7 {
		t.Errorf("Expected 7 seeded programs, got %d", len(programs))
	}

	days, err := env.reference.ListDays(env.ctx)
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	if len(days) != 5 || days[0].DayName != "Monday" {
		t.Errorf("Unexpected days: %+v", days)
	}

	labs, err := env.reference.ListTimeSlots(env.ctx, "Lab")
	if err != nil {
		t.Fatalf("ListTimeSlots: %v", err)
	}
	if len(labs) != 2 {
		t.Errorf("Expected 2 lab slots, got %d", len(labs))
	}
	all, err := env.reference.ListTimeSlots(env.ctx, "")
	if err != nil {
		t.Fatalf("ListTimeSlots: %v", err)
	}
	if len(all) != 6 {
		t.Errorf("Expected 6 slots, got %d", len(all))
	}

	_, err = env.reference.ListTimeSlots(env.ctx, "Studio")
	expectRule(t, err, domain.KindValidation, "")
}
