package handlers

import (
	"errors"
	"io"
	"net/http"

	"catalogsync/internal/logger"
	"catalogsync/internal/services/webhook"

	"github.com/gin-gonic/gin"
)

const maxWebhookBytes = 1 << 20

type WebhookHandler struct {
	intake *webhook.Intake
	logger *logger.Logger
}

func NewWebhookHandler(intake *webhook.Intake, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{intake: intake, logger: logger}
}

// Wix reads the raw body, since the signature covers the exact bytes sent.
func (h *WebhookHandler) Wix(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"status": "error", "message": "payload too large"})
			return
		}
		h.logger.Warn("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid payload"})
		return
	}

	resp := h.intake.Handle(c.Request.Context(), body, c.Request.Header)
	c.JSON(resp.StatusCode, resp.Body)
}
