package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"alert-service/internal/db"
	"alert-service/internal/logging"
)

func NewRouter(store db.Store, logger *logging.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware(logger))
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, RecoveryHandler))
	r.Use(RequestLoggingMiddleware())
	r.Use(ReflectPreflightHeaders())
	r.Use(cors.New(cors.Config{
		// Any origin is echoed back so credentials can be allowed.
		AllowOriginFunc: func(string) bool { return true },
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch,
			http.MethodDelete, http.MethodHead, http.MethodOptions,
		},
		// Allow-Headers is reflected by ReflectPreflightHeaders, since a
		// literal "*" is not honoured for credentialed requests.
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}))

	h := NewHandler(store)

	r.GET("/", h.Index)
	r.GET("/health", h.HealthCheck)
	r.GET("/stats", h.GetStats)

	// Alerts
	r.GET("/alerts", h.ListAlerts)
	r.GET("/alerts/:id", h.GetAlert)
	r.DELETE("/alerts", h.ClearAlerts)

	return r
}
