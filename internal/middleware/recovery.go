package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/apperrors"
)

// Recovery turns panics into 500 responses instead of dropped connections.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[http] panic recovered: %v request_id=%s\n%s",
					r, GetRequestID(c), debug.Stack())
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					apperrors.NewResponse(apperrors.CodeInternal, "internal server error", nil, time.Now()))
			}
		}()
		c.Next()
	}
}
