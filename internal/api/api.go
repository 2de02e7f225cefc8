package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	serviceTitle   = "Vesper Insight API"
	serviceVersion = "0.1.0"
)

// Every error body has the shape {"detail": "..."}.
func abortWithDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func badRequest(c *gin.Context, detail string) {
	abortWithDetail(c, http.StatusBadRequest, detail)
}

func storeFailure(c *gin.Context, status int, err error) {
	abortWithDetail(c, status, fmt.Sprintf("Database error: %v", err))
}
