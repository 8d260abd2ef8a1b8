package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	domain "course-routine/internal/domain/scheduling"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", domain.NewValidationError(domain.RuleRoomType, "lab room required"), http.StatusBadRequest},
		{"invalid reference", domain.NewInvalidReferenceError("room", "x"), http.StatusBadRequest},
		{"not found", domain.NewNotFoundError("allocation", "x"), http.StatusNotFound},
		{"conflict", domain.NewConflictError(domain.RuleRoomBooked, "room already booked"), http.StatusConflict},
		{"constraint", domain.NewConstraintError(domain.Violation{Rule: domain.RuleDailyWorkload}, "over"), http.StatusUnprocessableEntity},
		{"wrapped conflict", fmt.Errorf("tx: %w", domain.NewConflictError(domain.RuleTeacherBooked, "busy")), http.StatusConflict},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("StatusFor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrorResponse_HidesInternalErrors(t *testing.T) {
	status, body := errorResponse(errors.New("pq: password authentication failed"), "Failed to create allocation")
	if status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", status)
	}
	if body.Message != "Failed to create allocation" || body.Errors != "internal server error" {
		t.Errorf("Expected generic envelope, got %+v", body)
	}

	v := domain.Violation{Rule: domain.RuleWeeklyWorkload, Limit: 13, Current: 12.5, Attempted: 15}
	status, body = errorResponse(domain.NewConstraintError(v, "weekly workload limit exceeded"), "Failed")
	if status != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d", status)
	}
	detail, ok := body.Errors.(ErrorDetail)
	if !ok || detail.Rule != domain.RuleWeeklyWorkload || detail.Violation == nil || detail.Violation.OverBy() != 2 {
		t.Errorf("Expected violation detail, got %+v", body.Errors)
	}
}
