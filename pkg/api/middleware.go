package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request once the handler chain finishes.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// recovery turns a panic into a server-error envelope instead of a dropped
// connection.
func (s *Server) recovery(c *gin.Context, recovered interface{}) {
	s.logger.Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
	errorResponse(c, http.StatusInternalServerError, "internal server error", "Internal server error", nil)
}
