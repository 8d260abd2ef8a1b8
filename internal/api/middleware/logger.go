package middleware

import (
	"time"

	"course-routine/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	// RejectionRuleKey holds the rule a handler rejected the request under
	RejectionRuleKey = "rejection_rule"
	// ReplayHeader marks responses served from a stored idempotency outcome
	ReplayHeader = "Idempotent-Replayed"
)

// Logger logs one line per request. Rejections carry their rule and
// allocation submissions their idempotency key.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := logrus.Fields{
			"status_code": status,
			"latency":     time.Since(start),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		}
		if rule := c.GetString(RejectionRuleKey); rule != "" {
			fields["rule"] = rule
		}
		if key := c.GetString(IdempotencyContextKey); key != "" {
			fields["idempotency_key"] = key
		}
		if replayed := c.Writer.Header().Get(ReplayHeader); replayed != "" {
			fields["replayed"] = true
		}

		entry := logger.WithFields(fields)
		switch {
		case len(c.Errors) > 0:
			entry.WithField("error", c.Errors.String()).Error("Request completed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status == 409 || status == 422:
			// admission rejections are routine under contention
			entry.Info("Request rejected")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}
