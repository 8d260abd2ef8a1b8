package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newIdempotencyEngine(seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Logger())
	r.POST("/allocations", IdempotencyMiddleware(), func(c *gin.Context) {
		*seen = c.GetString(IdempotencyContextKey)
		c.Set(RejectionRuleKey, "room_booked")
		c.Status(http.StatusConflict)
	})
	return r
}

func TestIdempotencyMiddleware_TrimsKey(t *testing.T) {
	var seen string
	r := newIdempotencyEngine(&seen)

	req := httptest.NewRequest(http.MethodPost, "/allocations", nil)
	req.Header.Set(IdempotencyHeader, "  abc-123 ")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("Expected handler status 409, got %d", w.Code)
	}
	if seen != "abc-123" {
		t.Errorf("Expected trimmed key, got %q", seen)
	}
}

func TestIdempotencyMiddleware_MissingKey(t *testing.T) {
	seen := "unset"
	r := newIdempotencyEngine(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/allocations", nil))

	if seen != "" {
		t.Errorf("Expected empty key, got %q", seen)
	}
}

func TestIdempotencyMiddleware_RejectsLongKey(t *testing.T) {
	seen := "unset"
	r := newIdempotencyEngine(&seen)

	req := httptest.NewRequest(http.MethodPost, "/allocations", nil)
	req.Header.Set(IdempotencyHeader, strings.Repeat("k", maxIdempotencyKeyLen+1))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
	if seen != "unset" {
		t.Error("Handler should not run for an over-long key")
	}
}
