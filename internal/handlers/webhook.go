package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v78"

	"santa-video-backend/internal/models"
)

type WebhookHandler struct {
	payments PaymentProvider
	logger   zerolog.Logger
}

func NewWebhookHandler(payments PaymentProvider, logger zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{
		payments: payments,
		logger:   logger,
	}
}

// HandleWebhook consumes signed Stripe events. Payment completion is only
// logged here; all state changes flow through the processing route, which
// verifies payment itself rather than trusting webhook delivery.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to read request body",
			Message: err.Error(),
		})
		return
	}

	event, err := h.payments.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.logger.Error().Err(err).Msg("webhook signature verification failed")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "webhook signature verification failed",
			Message: err.Error(),
		})
		return
	}

	if event.Type == "checkout.session.completed" {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to parse event",
				Message: err.Error(),
			})
			return
		}
		h.logger.Info().Str("session_id", session.ID).Msg("payment completed")
	}

	c.JSON(http.StatusOK, models.WebhookResponse{Received: true})
}
