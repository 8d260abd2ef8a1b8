package handlers

import (
	"net/http"
	"strconv"

	"course-routine/internal/api/middleware"
	domain "course-routine/internal/domain/scheduling"
	serviceInterfaces "course-routine/internal/interfaces/service"
	"course-routine/internal/service"
	"course-routine/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ReplayHeader is set on responses served from a stored idempotency outcome
const ReplayHeader = middleware.ReplayHeader

// AllocationHandler handles admission, revocation and counter reconciliation
type AllocationHandler struct {
	allocations serviceInterfaces.AllocationService
	routines    serviceInterfaces.RoutineService
	idempotency *service.IdempotencyService
}

// NewAllocationHandler creates a new allocation handler. idempotency may be nil to disable replay.
func NewAllocationHandler(allocations serviceInterfaces.AllocationService, routines serviceInterfaces.RoutineService, idempotency *service.IdempotencyService) *AllocationHandler {
	return &AllocationHandler{
		allocations: allocations,
		routines:    routines,
		idempotency: idempotency,
	}
}

// CreateAllocation handles POST /api/v1/allocations
func (h *AllocationHandler) CreateAllocation(c *gin.Context) {
	var req domain.AdmitRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	key := ""
	if h.idempotency != nil {
		key = c.GetString(middleware.IdempotencyContextKey)
	}

	if key != "" {
		stored, duplicate, err := h.idempotency.CheckDuplicateRequest(ctx, key, &req)
		if err != nil {
			respondError(c, err, "Idempotency check failed")
			return
		}
		if duplicate {
			c.Header(ReplayHeader, "true")
			c.Data(stored.StatusCode, "application/json; charset=utf-8", []byte(stored.ResponseData))
			return
		}
	}

	status := http.StatusCreated
	var body APIResponse
	detail, err := h.allocations.Admit(ctx, &req)
	if err != nil {
		status, body = errorResponse(err, "Failed to create allocation")
		markRejection(c, body)
	} else {
		body = APIResponse{
			Success: true,
			Message: "Allocation created successfully",
			Data:    detail,
		}
	}

	// only decided outcomes are replayable; a 5xx may succeed on retry
	if key != "" && status < http.StatusInternalServerError {
		if err := h.idempotency.StoreProcessedRequest(ctx, key, &req, body, status); err != nil {
			logger.Warn("Failed to store idempotency result: %v", err)
		}
	}

	c.JSON(status, body)
}

// ListAllocations handles GET /api/v1/allocations
func (h *AllocationHandler) ListAllocations(c *gin.Context) {
	details, err := h.routines.ListAllocations(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list allocations")
		return
	}
	ok(c, "", details)
}

// DeleteAllocation handles DELETE /api/v1/allocations/:id
func (h *AllocationHandler) DeleteAllocation(c *gin.Context) {
	id, valid := uuidParam(c, "id")
	if !valid {
		return
	}

	if err := h.allocations.Revoke(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete allocation")
		return
	}
	ok(c, "Allocation deleted successfully", nil)
}

// ReconcileCounters handles POST /api/v1/courses/reconcile?repair=true
func (h *AllocationHandler) ReconcileCounters(c *gin.Context) {
	repair := false
	if raw := c.Query("repair"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "repair must be a boolean", nil)
			return
		}
		repair = parsed
	}

	drifts, err := h.allocations.ReconcileCounters(c.Request.Context(), repair)
	if err != nil {
		respondError(c, err, "Failed to reconcile counters")
		return
	}

	message := "Counters are consistent"
	if len(drifts) > 0 && repair {
		message = "Counters repaired"
	} else if len(drifts) > 0 {
		message = "Counter drift detected"
	}
	ok(c, message, drifts)
}
