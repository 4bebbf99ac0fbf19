package handler

import (
	"io"

	"payment-hub/internal/core/ports"
	"payment-hub/pkg/apperror"
	"payment-hub/pkg/response"

	"github.com/gin-gonic/gin"
)

// WebhookHandler receives provider callbacks. The raw body is read
// before any parsing because signature verification covers the exact
// bytes the provider sent.
type WebhookHandler struct {
	processor ports.WebhookProcessor
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(processor ports.WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// Receive handles POST /webhooks/:provider.
func (h *WebhookHandler) Receive(c *gin.Context) {
	provider := c.Param("provider")

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, apperror.Validation("cannot read request body"))
		return
	}

	if err := h.processor.Process(c.Request.Context(), provider, c.Request.Header, body); err != nil {
		response.Error(c, err)
		return
	}

	response.Received(c)
}
