package handlers

import (
	serviceInterfaces "course-routine/internal/interfaces/service"

	"github.com/gin-gonic/gin"
)

// RoutineHandler serves section and teacher routines
type RoutineHandler struct {
	routines serviceInterfaces.RoutineService
}

func NewRoutineHandler(routines serviceInterfaces.RoutineService) *RoutineHandler {
	return &RoutineHandler{
		routines: routines,
	}
}

// GetRoutine handles GET /api/v1/routine?program&section
func (h *RoutineHandler) GetRoutine(c *gin.Context) {
	program := c.Query("program")
	if program == "" {
		badRequest(c, "program is required", nil)
		return
	}
	section, valid := intQuery(c, "section")
	if !valid {
		return
	}

	grid, err := h.routines.FormatRoutine(c.Request.Context(), program, section)
	if err != nil {
		respondError(c, err, "Failed to build routine")
		return
	}
	ok(c, "", grid)
}

// GetTeacherRoutine handles GET /api/v1/teachers/:id/routine
func (h *RoutineHandler) GetTeacherRoutine(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	entries, err := h.routines.FormatTeacherRoutine(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to build teacher routine")
		return
	}
	ok(c, "", entries)
}

// TeachersWithAllocations handles GET /api/v1/teachers/with-allocations
func (h *RoutineHandler) TeachersWithAllocations(c *gin.Context) {
	teachers, err := h.routines.TeachersWithAllocations(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list teachers")
		return
	}
	ok(c, "", teachers)
}

// TeacherForCourse handles GET /api/v1/courses/:id/teacher
func (h *RoutineHandler) TeacherForCourse(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	teacher, err := h.routines.TeacherForCourse(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Failed to get course teacher")
		return
	}
	ok(c, "", teacher)
}
