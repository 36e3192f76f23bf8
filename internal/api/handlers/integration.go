package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/models"
	"catalogsync/internal/services/productsync"

	"github.com/gin-gonic/gin"
)

type IntegrationService interface {
	Health(ctx context.Context) (*productsync.HealthReport, error)
	TestConnection(ctx context.Context) *productsync.ConnectionStatus
	RecentLogs(ctx context.Context, filter database.LogFilter) ([]models.IntegrationLog, error)
	CleanupLogs(ctx context.Context, olderThan time.Duration) (int64, error)
	RecoverStalled(ctx context.Context, olderThan time.Duration) (int64, error)
}

type IntegrationHandler struct {
	service  IntegrationService
	settings *config.Store
	logger   *logger.Logger
}

func NewIntegrationHandler(service IntegrationService, settings *config.Store, logger *logger.Logger) *IntegrationHandler {
	return &IntegrationHandler{
		service:  service,
		settings: settings,
		logger:   logger,
	}
}

func (h *IntegrationHandler) Health(c *gin.Context) {
	report, err := h.service.Health(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build health report: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check integration health"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (h *IntegrationHandler) TestConnection(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.TestConnection(c.Request.Context())})
}

func (h *IntegrationHandler) Logs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.service.RecentLogs(c.Request.Context(), database.LogFilter{
		ReferenceCode: c.Query("code"),
		Limit:         limit,
	})
	if err != nil {
		h.logger.Error("Failed to list integration logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// ReloadSettings re-reads the integration settings from the environment.
func (h *IntegrationHandler) ReloadSettings(c *gin.Context) {
	current, err := h.settings.Reload()
	if err != nil {
		h.logger.Warn("Settings reload rejected: %v", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Integration settings reloaded (enabled=%t, mode=%s)", current.Enabled, current.SyncMode)
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"settings":            current,
			"missing_credentials": current.MissingCredentials(),
		},
	})
}

func (h *IntegrationHandler) CleanupLogs(c *gin.Context) {
	days, err := positiveQuery(c, "days", 30)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.CleanupLogs(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		h.logger.Error("Failed to clean up logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clean up logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": deleted}})
}

func (h *IntegrationHandler) RecoverStalled(c *gin.Context) {
	hours, err := positiveQuery(c, "hours", 24)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recovered, err := h.service.RecoverStalled(c.Request.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error("Failed to recover stalled items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recover stalled items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"recovered": recovered}})
}

func positiveQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}
