package ui

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gonarrative/domain/core"
	"gonarrative/internal/errors"
)

const requestIDHeader = "X-Request-ID"

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.CustomRecovery(s.recoverPanic))
	s.router.Use(requestID())
	s.router.Use(s.accessLog())
	if s.limiter != nil {
		s.router.Use(s.rateLimit())
	}
}

// recoverPanic answers with the standard error body; the panic value is logged, not returned
func (s *Server) recoverPanic(c *gin.Context, recovered any) {
	s.logger.Error("handler panicked", zap.String("path", c.Request.URL.Path), zap.Any("panic", recovered))
	s.writeError(c, errors.InternalError("internal server error"))
	c.Abort()
}

// requestID accepts a caller's UUID request id or mints a new one
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := core.ParseRequestID(c.GetHeader(requestIDHeader))
		if err != nil {
			id = core.NewRequestID()
		}
		c.Set("request_id", id.String())
		c.Header(requestIDHeader, id.String())
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Code: "RATE_LIMITED", Message: "too many requests"})
			return
		}
		c.Next()
	}
}
