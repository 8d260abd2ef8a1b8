package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"course-routine/internal/config"
	domain "course-routine/internal/domain/scheduling"
	"course-routine/internal/infrastructure/cache"
	"course-routine/internal/infrastructure/repository"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Defaults()
	cfg.Scheduling.DailyMaxHours = 2.5

	r := NewRouter(Dependencies{
		Store:       repository.NewSeededMemoryStore(),
		Cache:       cache.NewMemoryCache(),
		Idempotency: repository.NewMemoryIdempotencyRepository(),
		Config:      cfg,
	})
	return &apiClient{t: t, router: r}
}

func (a *apiClient) do(method, path string, body interface{}, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp envelope
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (a *apiClient) create(path string, body interface{}, dest interface{}) {
	a.t.Helper()
	w, resp := a.do(http.MethodPost, path, body, nil)
	if w.Code != http.StatusCreated {
		a.t.Fatalf("POST %s: expected 201, got %d: %s", path, w.Code, w.Body.String())
	}
	if err := json.Unmarshal(resp.Data, dest); err != nil {
		a.t.Fatalf("decode %s response: %v", path, err)
	}
}

type seeded struct {
	teacher domain.Teacher
	other   domain.Teacher
	course  domain.Course
	lab     domain.Course
	room    domain.Room
	labRoom domain.Room
}

func seed(a *apiClient) *seeded {
	s := &seeded{}
	a.create("/api/v1/teachers", map[string]string{"name": "Ada Lovelace", "email": "ada@uni.edu"}, &s.teacher)
	a.create("/api/v1/teachers", map[string]string{"name": "Grace Hopper", "email": "grace@uni.edu"}, &s.other)
	a.create("/api/v1/courses", map[string]interface{}{
		"course_code": "CSE101", "course_name": "Structured Programming", "credit_hours": 3.0, "program": "CSE", "course_type": "Theory",
	}, &s.course)
	a.create("/api/v1/courses", map[string]interface{}{
		"course_code": "CSE102L", "course_name": "Programming Lab", "credit_hours": 1.5, "program": "CSE", "course_type": "Lab",
	}, &s.lab)
	a.create("/api/v1/rooms", map[string]interface{}{"room_number": "101", "capacity": 40}, &s.room)
	a.create("/api/v1/rooms", map[string]interface{}{"room_number": "LAB1", "capacity": 30, "is_lab": true}, &s.labRoom)
	return s
}

func admitBody(teacher domain.Teacher, course domain.Course, room domain.Room, day, slot, section int) map[string]interface{} {
	return map[string]interface{}{
		"teacher_id": teacher.TeacherID,
		"course_id":  course.CourseID,
		"room_id":    room.RoomID,
		"day_id":     day,
		"slot_id":    slot,
		"program":    course.Program,
		"section":    section,
	}
}

func TestHealthEndpoints(t *testing.T) {
	a := newAPIClient(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		w, _ := a.do(http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestAllocationLifecycle(t *testing.T) {
	a := newAPIClient(t)
	s := seed(a)

	if s.course.AllocationAvailability != 8 {
		t.Fatalf("Expected new course availability 8, got %d", s.course.AllocationAvailability)
	}

	var detail domain.AllocationDetail
	a.create("/api/v1/allocations", admitBody(s.teacher, s.course, s.room, 1, 1, 1), &detail)
	if detail.CourseCode != "CSE101" || detail.DayName != "Monday" {
		t.Errorf("Unexpected allocation detail: %+v", detail)
	}

	w, resp := a.do(http.MethodPost, "/api/v1/allocations", admitBody(s.other, s.course, s.room, 1, 1, 2), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for double booked room, got %d: %s", w.Code, w.Body.String())
	}
	if resp.Success {
		t.Error("Expected success=false")
	}

	w, _ = a.do(http.MethodPost, "/api/v1/allocations", admitBody(s.teacher, s.lab, s.room, 2, 5, 1), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for lab in theory room, got %d", w.Code)
	}

	a.create("/api/v1/allocations", admitBody(s.teacher, s.course, s.room, 1, 2, 1), &domain.AllocationDetail{})
	w, resp = a.do(http.MethodPost, "/api/v1/allocations", admitBody(s.teacher, s.course, s.room, 1, 3, 1), nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422 for daily workload, got %d: %s", w.Code, w.Body.String())
	}
	var errDetail struct {
		Kind string `json:"kind"`
		Rule string `json:"rule"`
	}
	if err := json.Unmarshal(resp.Errors, &errDetail); err != nil || errDetail.Rule != domain.RuleDailyWorkload {
		t.Errorf("Expected daily workload rule in errors, got %s", string(resp.Errors))
	}

	w, resp = a.do(http.MethodGet, "/api/v1/routine?program=CSE&section=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET routine: %d", w.Code)
	}
	var grid domain.RoutineGrid
	if err := json.Unmarshal(resp.Data, &grid); err != nil {
		t.Fatalf("decode routine: %v", err)
	}
	if len(grid["Monday"]) != 2 {
		t.Errorf("Expected 2 Monday cells, got %+v", grid)
	}

	w, _ = a.do(http.MethodDelete, "/api/v1/allocations/"+detail.AllocationID.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE allocation: expected 200, got %d", w.Code)
	}
	w, _ = a.do(http.MethodDelete, "/api/v1/allocations/"+detail.AllocationID.String(), nil, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on second delete, got %d", w.Code)
	}

	w, resp = a.do(http.MethodGet, "/api/v1/courses/"+s.course.CourseID.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET course: %d", w.Code)
	}
	var course domain.Course
	_ = json.Unmarshal(resp.Data, &course)
	if course.AllocationAvailability != 7 {
		t.Errorf("Expected availability 7, got %d", course.AllocationAvailability)
	}
}

func TestAllocationIdempotency(t *testing.T) {
	a := newAPIClient(t)
	s := seed(a)
	headers := map[string]string{"Idempotency-Key": "submit-1"}
	body := admitBody(s.teacher, s.course, s.room, 1, 1, 1)

	first, _ := a.do(http.MethodPost, "/api/v1/allocations", body, headers)
	if first.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", first.Code, first.Body.String())
	}

	replay, _ := a.do(http.MethodPost, "/api/v1/allocations", body, headers)
	if replay.Code != http.StatusCreated {
		t.Fatalf("Expected replayed 201, got %d", replay.Code)
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Error("Expected replay header")
	}
	if replay.Body.String() != first.Body.String() {
		t.Errorf("Expected identical replay body\nfirst:  %s\nreplay: %s", first.Body.String(), replay.Body.String())
	}

	w, resp := a.do(http.MethodGet, "/api/v1/allocations", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET allocations: %d", w.Code)
	}
	var details []domain.AllocationDetail
	_ = json.Unmarshal(resp.Data, &details)
	if len(details) != 1 {
		t.Errorf("Expected a single allocation after replay, got %d", len(details))
	}

	reused := admitBody(s.teacher, s.course, s.room, 2, 1, 1)
	w, _ = a.do(http.MethodPost, "/api/v1/allocations", reused, headers)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for reused key, got %d", w.Code)
	}
}

func TestAvailabilityEndpoints(t *testing.T) {
	a := newAPIClient(t)
	s := seed(a)
	a.create("/api/v1/allocations", admitBody(s.teacher, s.lab, s.labRoom, 1, 5, 1), &domain.AllocationDetail{})

	w, resp := a.do(http.MethodGet, "/api/v1/courses/"+s.lab.CourseID.String()+"/available-sections", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available-sections: %d", w.Code)
	}
	var sections []domain.SectionAvailability
	_ = json.Unmarshal(resp.Data, &sections)
	if len(sections) != 2 || sections[0].Remaining != 1 {
		t.Errorf("Unexpected sections: %+v", sections)
	}

	w, resp = a.do(http.MethodGet, "/api/v1/available-days?course_id="+s.lab.CourseID.String()+"&section=1", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available-days: %d", w.Code)
	}
	var days []domain.Day
	_ = json.Unmarshal(resp.Data, &days)
	if len(days) != 4 {
		t.Errorf("Expected 4 days, got %d", len(days))
	}

	w, resp = a.do(http.MethodGet, "/api/v1/available-time-slots?day_id=1&section=2&program=CSE&course_id="+s.course.CourseID.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available-time-slots: %d", w.Code)
	}
	var slots []domain.TimeSlot
	_ = json.Unmarshal(resp.Data, &slots)
	if len(slots) != 4 {
		t.Errorf("Expected 4 free theory slots for section 2, got %d", len(slots))
	}

	w, resp = a.do(http.MethodGet, "/api/v1/available-rooms?day_id=1&slot_id=5", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("available-rooms: %d", w.Code)
	}
	var rooms []domain.Room
	_ = json.Unmarshal(resp.Data, &rooms)
	if len(rooms) != 0 {
		t.Errorf("Expected no free lab rooms, got %+v", rooms)
	}

	w, _ = a.do(http.MethodGet, "/api/v1/available-days?course_id=not-a-uuid&section=1", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed course_id, got %d", w.Code)
	}
	w, _ = a.do(http.MethodGet, "/api/v1/available-rooms?day_id=9&slot_id=1", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown day, got %d", w.Code)
	}
}

func TestReferenceEndpoints(t *testing.T) {
	a := newAPIClient(t)
	s := seed(a)

	w, _ := a.do(http.MethodPost, "/api/v1/teachers", map[string]string{"name": "Copy", "email": "ada@uni.edu"}, nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", w.Code)
	}
	w, _ = a.do(http.MethodPost, "/api/v1/teachers", map[string]string{"name": "No Email"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing email, got %d", w.Code)
	}

	a.create("/api/v1/allocations", admitBody(s.teacher, s.course, s.room, 1, 1, 1), &domain.AllocationDetail{})

	w, resp := a.do(http.MethodGet, "/api/v1/teachers/with-allocations", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("with-allocations: %d", w.Code)
	}
	var teachers []domain.Teacher
	_ = json.Unmarshal(resp.Data, &teachers)
	if len(teachers) != 1 || teachers[0].TeacherID != s.teacher.TeacherID {
		t.Errorf("Unexpected teachers with allocations: %+v", teachers)
	}

	w, resp = a.do(http.MethodGet, "/api/v1/teachers/"+s.teacher.TeacherID.String()+"/check-delete", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("check-delete: %d", w.Code)
	}
	var check domain.DeleteCheck
	_ = json.Unmarshal(resp.Data, &check)
	if check.AllocationCount != 1 {
		t.Errorf("Expected 1 allocation in check, got %+v", check)
	}

	w, resp = a.do(http.MethodGet, "/api/v1/teachers/"+s.teacher.TeacherID.String()+"/routine", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("teacher routine: %d", w.Code)
	}
	var entries []domain.TeacherRoutineEntry
	_ = json.Unmarshal(resp.Data, &entries)
	if len(entries) != 1 || entries[0].Slot != "08:00 - 09:15" {
		t.Errorf("Unexpected teacher routine: %+v", entries)
	}

	w, _ = a.do(http.MethodGet, "/api/v1/courses/"+s.course.CourseID.String()+"/teacher", nil, nil)
	if w.Code != http.StatusOK {
		t.Errorf("course teacher: %d", w.Code)
	}

	w, _ = a.do(http.MethodDelete, "/api/v1/teachers/"+s.teacher.TeacherID.String(), nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete teacher: %d", w.Code)
	}

	w, resp = a.do(http.MethodPost, "/api/v1/courses/reconcile", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("reconcile: %d", w.Code)
	}
	var drifts []domain.CounterDrift
	_ = json.Unmarshal(resp.Data, &drifts)
	if len(drifts) != 0 {
		t.Errorf("Expected no drift after teacher delete, got %+v", drifts)
	}

	w, _ = a.do(http.MethodPost, "/api/v1/courses/reconcile?repair=maybe", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad repair flag, got %d", w.Code)
	}

	for _, path := range []string{"/api/v1/days", "/api/v1/time-slots?type=Lab", "/api/v1/programs", "/api/v1/rooms", "/api/v1/courses", "/api/v1/courses/candidates"} {
		w, _ := a.do(http.MethodGet, path, nil, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, w.Code)
		}
	}
	w, _ = a.do(http.MethodGet, "/api/v1/time-slots?type=Studio", nil, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown slot type, got %d", w.Code)
	}
}
