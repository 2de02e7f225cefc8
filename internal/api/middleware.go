package api

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"alert-service/internal/logging"
)

const (
	RequestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// RequestIDMiddleware tags each request with an id, reusing one the client sent.
func RequestIDMiddleware(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(RequestIDHeader, id)
		c.Set(loggerKey, logger.WithRequest(id))
		c.Next()
	}
}

func RequestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		requestLogger(c).Infof("Request: %s %s, Status: %d, Latency: %v", method, path, status, latency)
	}
}

// ReflectPreflightHeaders allows whatever headers a preflight asks for.
func ReflectPreflightHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions && c.GetHeader("Origin") != "" {
			if requested := c.GetHeader("Access-Control-Request-Headers"); requested != "" {
				c.Header("Access-Control-Allow-Headers", requested)
				c.Writer.Header().Add("Vary", "Access-Control-Request-Headers")
			}
		}
		c.Next()
	}
}

// RecoveryHandler turns a handler panic into a logged 500.
func RecoveryHandler(c *gin.Context, recovered any) {
	requestLogger(c).Errorf("Panic recovered on %s %s: %v\n%s",
		c.Request.Method, c.Request.URL.Path, recovered, debug.Stack())
	abortWithDetail(c, http.StatusInternalServerError, "Internal Server Error")
}

func requestLogger(c *gin.Context) *logging.Logger {
	return c.MustGet(loggerKey).(*logging.Logger)
}
