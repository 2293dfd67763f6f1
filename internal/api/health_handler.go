package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/timefmt"
	"github.com/helpdesk-io/helpdesk-ce/internal/version"
)

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	dbStatus := "up"
	code := http.StatusOK
	if err := s.db.PingContext(ctx); err != nil {
		status = "degraded"
		dbStatus = "down"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":         status,
		"database":       dbStatus,
		"version":        version.Short(),
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"timestamp":      timefmt.Normalize(time.Now()),
	})
}
