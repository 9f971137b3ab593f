package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"group-service/internal/middleware"
	"group-service/internal/telemetry"
)

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(middleware.RequestIDKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(middleware.RequestIDKey, requestID)
	return requestID
}

func emitAudit(c *gin.Context, audit *telemetry.AuditEmitter, level, text string) {
	audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), nil)
}
