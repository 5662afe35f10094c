package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"santa-video-backend/internal/orchestrator"
)

type ProcessingHandler struct {
	payments     PaymentProvider
	orchestrator *orchestrator.Orchestrator
	pagePath     string
	logger       zerolog.Logger
}

func NewProcessingHandler(payments PaymentProvider, orch *orchestrator.Orchestrator, pagePath string, logger zerolog.Logger) *ProcessingHandler {
	return &ProcessingHandler{
		payments:     payments,
		orchestrator: orch,
		pagePath:     pagePath,
		logger:       logger,
	}
}

// Processing is the post-payment landing route. It verifies the session
// was paid against Stripe (independently of the webhook), confirms the
// payment with the orchestrator exactly once per session, and serves the
// progress page whether this is the first or a repeated visit.
func (h *ProcessingHandler) Processing(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	session, err := h.payments.RetrieveSession(c.Request.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("session verification error")
		c.Redirect(http.StatusFound, "/")
		return
	}

	if !session.Paid {
		c.Redirect(http.StatusFound, "/")
		return
	}

	err = h.orchestrator.ConfirmPayment(sessionID, session.UploadID, session.Email)
	if errors.Is(err, orchestrator.ErrUploadMissing) {
		h.logger.Error().Str("session_id", sessionID).Str("upload_id", session.UploadID).Msg("upload not found")
		c.Redirect(http.StatusFound, "/?error=upload_not_found")
		return
	}

	c.File(h.pagePath)
}
