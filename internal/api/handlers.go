package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"alert-service/internal/db"
	"alert-service/internal/models"
)

type Handler struct {
	store db.Store
}

func NewHandler(store db.Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"title": serviceTitle, "version": serviceVersion})
}

func (h *Handler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		requestLogger(c).Errorf("Health check failed: %v", err)
		storeFailure(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, models.HealthStatus{Status: "healthy", Database: "connected"})
}

func (h *Handler) ListAlerts(c *gin.Context) {
	req := models.DefaultPageRequest()
	var err error
	if req.Limit, err = queryInt(c, "limit", req.Limit); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Offset, err = queryInt(c, "offset", req.Offset); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req, err = req.Normalize(); err != nil {
		badRequest(c, err.Error())
		return
	}

	alerts, err := h.store.ListAlerts(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		requestLogger(c).Errorf("Error fetching alerts: %v", err)
		storeFailure(c, http.StatusInternalServerError, err)
		return
	}
	requestLogger(c).Debugf("Retrieved %d alerts (limit=%d offset=%d)", len(alerts), req.Limit, req.Offset)
	c.JSON(http.StatusOK, models.NewAlertPage(alerts, req))
}

func (h *Handler) GetAlert(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid alert id %q", idStr))
		return
	}

	alert, err := h.store.GetAlert(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			abortWithDetail(c, http.StatusNotFound, fmt.Sprintf("Alert %d not found", id))
			return
		}
		requestLogger(c).Errorf("Error fetching alert %d: %v", id, err)
		storeFailure(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		requestLogger(c).Errorf("Error fetching stats: %v", err)
		storeFailure(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ClearAlerts(c *gin.Context) {
	deleted, err := h.store.ClearAlerts(c.Request.Context())
	if err != nil {
		requestLogger(c).Errorf("Error clearing alerts: %v", err)
		storeFailure(c, http.StatusInternalServerError, err)
		return
	}
	requestLogger(c).Infof("Cleared %d alerts from database", deleted)
	c.JSON(http.StatusOK, models.ClearResult{
		Status:       "success",
		Message:      "Deleted all alerts",
		DeletedCount: deleted,
	})
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Out-of-range integers saturate and go through the normal range checks.
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}
