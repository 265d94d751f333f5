package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/go-resilience-dashboard/internal/mapview"
)

// respondError maps session errors to the client's views: loading, not
// found, or the blocking error overlay with a retry action.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mapview.ErrNoSession), errors.Is(err, mapview.ErrSessionClosed):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, mapview.ErrNotReady):
		c.JSON(http.StatusAccepted, gin.H{"state": mapview.StateLoading})
	case errors.Is(err, mapview.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"view":    "not_found",
			"message": h.labels.NotFound,
			"back":    "/",
		})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"state":   mapview.StateFailed,
			"error":   err.Error(),
			"kind":    mapview.KindOf(err),
			"actions": []string{"retry"},
		})
	}
}

// Recovery turns a panic while handling a request into the generic
// recoverable error screen.
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal error",
			"actions": []string{"retry", "home"},
		})
	})
}
