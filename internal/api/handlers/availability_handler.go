package handlers

import (
	serviceInterfaces "course-routine/internal/interfaces/service"

	"github.com/gin-gonic/gin"
)

// AvailabilityHandler serves the allocation wizard's step-by-step queries
type AvailabilityHandler struct {
	availability serviceInterfaces.AvailabilityService
}

func NewAvailabilityHandler(availability serviceInterfaces.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		availability: availability,
	}
}

// AvailableSections handles GET /api/v1/courses/:id/available-sections
func (h *AvailabilityHandler) AvailableSections(c *gin.Context) {
	courseID, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	sections, err := h.availability.AvailableSections(c.Request.Context(), courseID)
	if err != nil {
		respondError(c, err, "Failed to get available sections")
		return
	}
	ok(c, "", sections)
}

// AvailableDays handles GET /api/v1/available-days?course_id&section
func (h *AvailabilityHandler) AvailableDays(c *gin.Context) {
	courseID, valid := uuidQuery(c, "course_id")
	if !valid {
		return
	}
	section, valid := intQuery(c, "section")
	if !valid {
		return
	}

	days, err := h.availability.AvailableDays(c.Request.Context(), courseID, section)
	if err != nil {
		respondError(c, err, "Failed to get available days")
		return
	}
	ok(c, "", days)
}

// AvailableTimeSlots handles GET /api/v1/available-time-slots?day_id&section&program&course_id
func (h *AvailabilityHandler) AvailableTimeSlots(c *gin.Context) {
	dayID, valid := intQuery(c, "day_id")
	if !valid {
		return
	}
	section, valid := intQuery(c, "section")
	if !valid {
		return
	}
	courseID, valid := uuidQuery(c, "course_id")
	if !valid {
		return
	}

	slots, err := h.availability.AvailableTimeSlots(c.Request.Context(), dayID, section, c.Query("program"), courseID)
	if err != nil {
		respondError(c, err, "Failed to get available time slots")
		return
	}
	ok(c, "", slots)
}

// AvailableRooms handles GET /api/v1/available-rooms?day_id&slot_id&course_type
func (h *AvailabilityHandler) AvailableRooms(c *gin.Context) {
	dayID, valid := intQuery(c, "day_id")
	if !valid {
		return
	}
	slotID, valid := intQuery(c, "slot_id")
	if !valid {
		return
	}

	rooms, err := h.availability.AvailableRooms(c.Request.Context(), dayID, slotID, c.Query("course_type"))
	if err != nil {
		respondError(c, err, "Failed to get available rooms")
		return
	}
	ok(c, "", rooms)
}

// CandidateCourses handles GET /api/v1/courses/candidates
func (h *AvailabilityHandler) CandidateCourses(c *gin.Context) {
	courses, err := h.availability.CandidateCourses(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list candidate courses")
		return
	}
	ok(c, "", courses)
}
