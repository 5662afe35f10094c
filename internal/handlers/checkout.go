package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"santa-video-backend/internal/models"
	"santa-video-backend/internal/store"
)

type CheckoutHandler struct {
	registry *store.UploadRegistry
	payments PaymentProvider
	logger   zerolog.Logger
}

func NewCheckoutHandler(registry *store.UploadRegistry, payments PaymentProvider, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		payments: payments,
		logger:   logger,
	}
}

// CreateCheckout creates a Stripe Checkout session for a staged upload and
// returns the hosted payment URL. The upload stays staged until payment is
// confirmed.
func (h *CheckoutHandler) CreateCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if !h.registry.Has(req.UploadID) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Please upload a photo first"})
		return
	}

	url, err := h.payments.CreateCheckoutSession(c.Request.Context(), req.UploadID, req.Email)
	if err != nil {
		h.logger.Error().Err(err).Str("upload_id", req.UploadID).Msg("checkout error")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to create checkout session"})
		return
	}

	c.JSON(http.StatusOK, models.CheckoutResponse{URL: url})
}
