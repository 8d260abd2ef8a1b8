package handlers

import (
	"net/http"

	domain "course-routine/internal/domain/scheduling"
	serviceInterfaces "course-routine/internal/interfaces/service"

	"github.com/gin-gonic/gin"
)

// ReferenceHandler handles teacher, course, room and calendar requests
type ReferenceHandler struct {
	reference serviceInterfaces.ReferenceService
}

// NewReferenceHandler creates a new reference handler
func NewReferenceHandler(reference serviceInterfaces.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{
		reference: reference,
	}
}

// CreateTeacher handles POST /api/v1/teachers
func (h *ReferenceHandler) CreateTeacher(c *gin.Context) {
	var req domain.CreateTeacherRequest
	if !bindJSON(c, &req) || !validateBody(c, &req) {
		return
	}

	teacher, err := h.reference.CreateTeacher(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create teacher")
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Teacher created successfully",
		Data:    teacher,
	})
}

// ListTeachers handles GET /api/v1/teachers
func (h *ReferenceHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.reference.ListTeachers(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list teachers")
		return
	}
	ok(c, "", teachers)
}

// GetTeacher handles GET /api/v1/teachers/:id
func (h *ReferenceHandler) GetTeacher(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	teacher, err := h.reference.GetTeacher(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get teacher")
		return
	}
	ok(c, "", teacher)
}

// UpdateTeacher handles PUT /api/v1/teachers/:id
func (h *ReferenceHandler) UpdateTeacher(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}
	var req domain.UpdateTeacherRequest
	if !bindJSON(c, &req) || !validateBody(c, &req) {
		return
	}

	teacher, err := h.reference.UpdateTeacher(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err, "Failed to update teacher")
		return
	}
	ok(c, "Teacher updated successfully", teacher)
}

// DeleteTeacher handles DELETE /api/v1/teachers/:id
func (h *ReferenceHandler) DeleteTeacher(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	if err := h.reference.DeleteTeacher(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete teacher")
		return
	}
	ok(c, "Teacher deleted successfully", nil)
}

// CheckDeleteTeacher handles GET /api/v1/teachers/:id/check-delete
func (h *ReferenceHandler) CheckDeleteTeacher(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	check, err := h.reference.CheckDeleteTeacher(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to check teacher deletion")
		return
	}
	ok(c, check.Message, check)
}

// CreateCourse handles POST /api/v1/courses
func (h *ReferenceHandler) CreateCourse(c *gin.Context) {
	var req domain.CreateCourseRequest
	if !bindJSON(c, &req) || !validateBody(c, &req) {
		return
	}

	course, err := h.reference.CreateCourse(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create course")
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Course created successfully",
		Data:    course,
	})
}

// ListCourses handles GET /api/v1/courses
func (h *ReferenceHandler) ListCourses(c *gin.Context) {
	courses, err := h.reference.ListCourses(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list courses")
		return
	}
	ok(c, "", courses)
}

// GetCourse handles GET /api/v1/courses/:id
func (h *ReferenceHandler) GetCourse(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	course, err := h.reference.GetCourse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get course")
		return
	}
	ok(c, "", course)
}

// DeleteCourse handles DELETE /api/v1/courses/:id
func (h *ReferenceHandler) DeleteCourse(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	if err := h.reference.DeleteCourse(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete course")
		return
	}
	ok(c, "Course deleted successfully", nil)
}

// CheckDeleteCourse handles GET /api/v1/courses/:id/check-delete
func (h *ReferenceHandler) CheckDeleteCourse(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	check, err := h.reference.CheckDeleteCourse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to check course deletion")
		return
	}
	ok(c, check.Message, check)
}

// CreateRoom handles POST /api/v1/rooms
func (h *ReferenceHandler) CreateRoom(c *gin.Context) {
	var req domain.CreateRoomRequest
	if !bindJSON(c, &req) || !validateBody(c, &req) {
		return
	}

	room, err := h.reference.CreateRoom(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to create room")
		return
	}

	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Message: "Room created successfully",
		Data:    room,
	})
}

// ListRooms handles GET /api/v1/rooms
func (h *ReferenceHandler) ListRooms(c *gin.Context) {
	rooms, err := h.reference.ListRooms(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list rooms")
		return
	}
	ok(c, "", rooms)
}

// ListPrograms handles GET /api/v1/programs
func (h *ReferenceHandler) ListPrograms(c *gin.Context) {
	programs, err := h.reference.ListPrograms(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list programs")
		return
	}
	ok(c, "", programs)
}

// ListDays handles GET /api/v1/days
func (h *ReferenceHandler) ListDays(c *gin.Context) {
	days, err := h.reference.ListDays(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list days")
		return
	}
	ok(c, "", days)
}

// ListTimeSlots handles GET /api/v1/time-slots?type=Theory|Lab
func (h *ReferenceHandler) ListTimeSlots(c *gin.Context) {
	slots, err := h.reference.ListTimeSlots(c.Request.Context(), c.Query("type"))
	if err != nil {
		respondError(c, err, "Failed to list time slots")
		return
	}
	ok(c, "", slots)
}
