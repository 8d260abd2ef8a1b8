package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"course-routine/internal/api/middleware"
	domain "course-routine/internal/domain/scheduling"
	"course-routine/pkg/logger"
	"course-routine/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// ErrorDetail is the errors payload of a rejected request
type ErrorDetail struct {
	Kind      domain.ErrorKind  `json:"kind"`
	Rule      string            `json:"rule,omitempty"`
	Violation *domain.Violation `json:"violation,omitempty"`
}

// StatusFor maps a service error onto an HTTP status code
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindInvalidReference:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindConstraint:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse builds the envelope for err. Internal errors are not echoed to the client.
func errorResponse(err error, message string) (int, APIResponse) {
	status := StatusFor(err)

	var scheduleErr *domain.Error
	if !errors.As(err, &scheduleErr) {
		logger.Error("%s: %v", message, err)
		return status, APIResponse{
			Success: false,
			Message: message,
			Errors:  "internal server error",
		}
	}

	return status, APIResponse{
		Success: false,
		Message: scheduleErr.Message,
		Errors: ErrorDetail{
			Kind:      scheduleErr.Kind,
			Rule:      scheduleErr.Rule,
			Violation: scheduleErr.Violation,
		},
	}
}

func respondError(c *gin.Context, err error, message string) {
	status, body := errorResponse(err, message)
	markRejection(c, body)
	c.JSON(status, body)
}

// markRejection exposes the rejecting rule to the request logger
func markRejection(c *gin.Context, body APIResponse) {
	if detail, ok := body.Errors.(ErrorDetail); ok && detail.Rule != "" {
		c.Set(middleware.RejectionRuleKey, detail.Rule)
	}
}

func badRequest(c *gin.Context, message string, errs interface{}) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// bindJSON decodes the body into req and answers 400 on malformed input
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		badRequest(c, "Invalid request format", err.Error())
		return false
	}
	return true
}

// validateBody runs struct validation and answers 400 with per-field messages
func validateBody(c *gin.Context, req interface{}) bool {
	if err := validator.ValidateStruct(req); err != nil {
		badRequest(c, "Validation failed", validator.FormatValidationError(err))
		return false
	}
	return true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name+" format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func uuidQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required", nil)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "Invalid "+name+" format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		badRequest(c, name+" is required", nil)
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, name+" must be an integer", nil)
		return 0, false
	}
	return n, true
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}
